package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/TIANLI0/FloorKit/config"
	"github.com/TIANLI0/FloorKit/floor"
	"github.com/TIANLI0/FloorKit/model"
	"github.com/TIANLI0/FloorKit/utils"
	"go.uber.org/zap"
)

// ErrQueueFull 等待处理槽位超时
var ErrQueueFull = errors.New("processing queue is full")

// FloorService 负责房间图片的地板检测
type FloorService struct {
	pipeline     *floor.Pipeline
	semaphore    chan struct{}
	queueTimeout time.Duration
	maxPixels    int
	maskAnalyzer *MaskAnalyzer
}

func NewFloorService(cfg *config.PipelineConfig, pipeline *floor.Pipeline) *FloorService {
	return &FloorService{
		pipeline:     pipeline,
		semaphore:    make(chan struct{}, max(1, cfg.MaxConcurrent)),
		queueTimeout: time.Duration(cfg.QueueTimeout) * time.Second,
		maxPixels:    cfg.MaxPixels,
		maskAnalyzer: NewMaskAnalyzer(),
	}
}

// DefaultOptions 返回服务使用的默认管线参数
func (s *FloorService) DefaultOptions() floor.Options {
	return s.pipeline.Options()
}

// ProcessImage 解码图片、运行管线并编码输出资源
func (s *FloorService) ProcessImage(ctx context.Context, data []byte, md5 string, opts floor.Options) (*model.FloorResult, error) {
	// 并发控制
	if err := s.acquire(ctx); err != nil {
		return nil, err
	}
	defer func() { <-s.semaphore }()

	startTime := time.Now()

	img, format, err := DecodeImage(data, s.maxPixels)
	if err != nil {
		return nil, err
	}

	utils.Logger.Info("processing image",
		zap.String("md5", md5),
		zap.String("format", format),
		zap.Int("width", img.Bounds().Dx()),
		zap.Int("height", img.Bounds().Dy()),
		zap.Bool("tta", opts.UseTTA),
		zap.String("fusion", string(opts.FusionMode)))

	res, err := s.pipeline.RunWithOptions(ctx, img, opts)
	if err != nil {
		return nil, err
	}

	result, err := s.buildResult(res, md5, opts)
	if err != nil {
		return nil, err
	}
	result.DurationMs = time.Since(startTime).Milliseconds()

	utils.Logger.Info("image processed successfully",
		zap.String("md5", md5),
		zap.Duration("duration", time.Since(startTime)),
		zap.Float64("coverage", result.Coverage),
		zap.Int("model_width", res.ModelWidth),
		zap.Int("model_height", res.ModelHeight))

	return result, nil
}

// acquire 获取处理槽位，队列等待超过 queueTimeout 返回 ErrQueueFull
func (s *FloorService) acquire(ctx context.Context) error {
	select {
	case s.semaphore <- struct{}{}:
		return nil
	default:
	}

	waitCtx, cancel := context.WithTimeout(ctx, s.queueTimeout)
	defer cancel()
	select {
	case s.semaphore <- struct{}{}:
		return nil
	case <-waitCtx.Done():
		if err := ctx.Err(); err != nil {
			return err
		}
		return ErrQueueFull
	}
}

// buildResult 把管线输出编码为 PNG data URL
func (s *FloorService) buildResult(res *floor.Result, md5 string, opts floor.Options) (*model.FloorResult, error) {
	maskURL, err := encodePNGDataURL(res.Mask.Gray())
	if err != nil {
		return nil, fmt.Errorf("%w: encode mask: %w", floor.ErrConfiguration, err)
	}
	softURL, err := encodePNGDataURL(res.SoftAlpha)
	if err != nil {
		return nil, fmt.Errorf("%w: encode floor mask: %w", floor.ErrConfiguration, err)
	}

	result := &model.FloorResult{
		MD5:         md5,
		Width:       res.Width,
		Height:      res.Height,
		ModelWidth:  res.ModelWidth,
		ModelHeight: res.ModelHeight,
		Mask:        maskURL,
		FloorMask:   softURL,
		BoundingBox: s.maskAnalyzer.BoundingBox(res.Mask),
		Coverage:    s.maskAnalyzer.Coverage(res.Mask),
		TTA:         opts.UseTTA,
		Timestamp:   time.Now().Unix(),
	}

	if res.DebugOverlay != nil {
		debugURL, err := encodePNGDataURL(res.DebugOverlay)
		if err != nil {
			return nil, fmt.Errorf("%w: encode debug overlay: %w", floor.ErrConfiguration, err)
		}
		result.DebugOverlay = debugURL
	}
	return result, nil
}
