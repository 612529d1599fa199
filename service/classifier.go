package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/TIANLI0/FloorKit/config"
	"github.com/TIANLI0/FloorKit/floor"
	"github.com/TIANLI0/FloorKit/utils"
	ort "github.com/yalue/onnxruntime_go"
	"go.uber.org/zap"
)

// ErrClassifierClosed Close 之后继续调用 Classify
var ErrClassifierClosed = errors.New("classifier closed")

// ONNXClassifier 基于 onnxruntime 的分割模型适配器。
// 会话在第一次调用时加载，并发的首批调用等待同一次加载；
// 加载失败不缓存，下次调用重试。加载完成后会话只读共享。
// Close 等待进行中的推理结束后再释放会话。
type ONNXClassifier struct {
	cfg  config.ModelConfig
	load func() (*onnxSession, error)

	mu      sync.Mutex
	closed  bool
	session atomic.Pointer[onnxSession]

	// 推理持读锁，Close 持写锁
	inflight sync.RWMutex
}

// sessionRunner 是 *ort.DynamicAdvancedSession 用到的子集
type sessionRunner interface {
	Run(inputs, outputs []ort.Value) error
	Destroy() error
}

type onnxSession struct {
	session sessionRunner
	input   string
	output  string
}

func NewONNXClassifier(cfg config.ModelConfig) *ONNXClassifier {
	c := &ONNXClassifier{cfg: cfg}
	c.load = c.loadSession
	return c
}

// Classify 执行一次推理，输出原样转换为 floor.Tensor
func (c *ONNXClassifier) Classify(ctx context.Context, input floor.Tensor) (floor.Tensor, error) {
	s, release, err := c.acquire()
	if err != nil {
		return floor.Tensor{}, err
	}
	defer release()
	if err := ctx.Err(); err != nil {
		return floor.Tensor{}, err
	}

	in, err := ort.NewTensor(ort.NewShape(input.Shape...), input.Data)
	if err != nil {
		return floor.Tensor{}, fmt.Errorf("%w: input tensor: %w", floor.ErrModel, err)
	}
	defer func() {
		if err := in.Destroy(); err != nil {
			utils.Logger.Warn("failed to destroy input tensor", zap.Error(err))
		}
	}()

	outputs := []ort.Value{nil}
	start := time.Now()
	if err := s.session.Run([]ort.Value{in}, outputs); err != nil {
		return floor.Tensor{}, fmt.Errorf("%w: run: %w", floor.ErrModel, err)
	}
	defer func() {
		for _, o := range outputs {
			if o == nil {
				continue
			}
			if err := o.Destroy(); err != nil {
				utils.Logger.Warn("failed to destroy output tensor", zap.Error(err))
			}
		}
	}()

	t, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return floor.Tensor{}, fmt.Errorf("%w: unexpected output type %T", floor.ErrModel, outputs[0])
	}
	shape := t.GetShape()
	data := make([]float32, len(t.GetData()))
	copy(data, t.GetData())

	utils.Logger.Debug("inference finished",
		zap.Int64s("input_shape", input.Shape),
		zap.Int64s("output_shape", shape),
		zap.Duration("duration", time.Since(start)))

	return floor.Tensor{Data: data, Shape: append([]int64(nil), shape...)}, nil
}

// acquire 取得会话并登记一次进行中的推理，用完调用 release
func (c *ONNXClassifier) acquire() (*onnxSession, func(), error) {
	c.inflight.RLock()
	s, err := c.getSession()
	if err != nil {
		c.inflight.RUnlock()
		return nil, nil, err
	}
	return s, c.inflight.RUnlock, nil
}

// getSession 懒加载会话
func (c *ONNXClassifier) getSession() (*onnxSession, error) {
	if s := c.session.Load(); s != nil {
		return s, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, fmt.Errorf("%w: %w", floor.ErrModel, ErrClassifierClosed)
	}
	if s := c.session.Load(); s != nil {
		return s, nil
	}

	utils.Logger.Info("loading onnx model", zap.String("path", c.cfg.Path))
	s, err := c.load()
	if err != nil {
		utils.Logger.Error("failed to load onnx model", zap.String("path", c.cfg.Path), zap.Error(err))
		return nil, err
	}
	c.session.Store(s)
	utils.Logger.Info("onnx model loaded",
		zap.String("input", s.input),
		zap.String("output", s.output))
	return s, nil
}

func (c *ONNXClassifier) loadSession() (*onnxSession, error) {
	if c.cfg.Path == "" {
		return nil, fmt.Errorf("%w: empty model path", floor.ErrModel)
	}
	if _, err := os.Stat(c.cfg.Path); err != nil {
		return nil, fmt.Errorf("%w: model file: %w", floor.ErrModel, err)
	}

	if !ort.IsInitialized() {
		if c.cfg.LibraryPath != "" {
			ort.SetSharedLibraryPath(c.cfg.LibraryPath)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("%w: init onnxruntime: %w", floor.ErrModel, err)
		}
	}

	inputs, outputs, err := ort.GetInputOutputInfo(c.cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: io info: %w", floor.ErrModel, err)
	}
	if len(inputs) == 0 || len(outputs) == 0 {
		return nil, fmt.Errorf("%w: model has %d inputs and %d outputs", floor.ErrModel, len(inputs), len(outputs))
	}
	if len(inputs[0].Dimensions) != 4 {
		return nil, fmt.Errorf("%w: expected 4D input, got %v", floor.ErrModel, inputs[0].Dimensions)
	}

	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("%w: session options: %w", floor.ErrModel, err)
	}
	defer func() {
		if err := opts.Destroy(); err != nil {
			utils.Logger.Warn("failed to destroy session options", zap.Error(err))
		}
	}()
	if c.cfg.NumThreads > 0 {
		if err := opts.SetIntraOpNumThreads(c.cfg.NumThreads); err != nil {
			return nil, fmt.Errorf("%w: threads: %w", floor.ErrModel, err)
		}
	}

	in, out := inputs[0].Name, outputs[0].Name
	sess, err := ort.NewDynamicAdvancedSession(c.cfg.Path, []string{in}, []string{out}, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: session: %w", floor.ErrModel, err)
	}
	return &onnxSession{session: sess, input: in, output: out}, nil
}

// Close 等待进行中的推理结束后释放会话，之后的调用返回 ErrClassifierClosed
func (c *ONNXClassifier) Close() error {
	c.inflight.Lock()
	defer c.inflight.Unlock()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	s := c.session.Swap(nil)
	if s == nil {
		return nil
	}
	return s.session.Destroy()
}
