// Package floor 实现地板分割掩码管线：预处理、类别图提取、形态学清理、
// 连通域过滤、分辨率还原与软边合成。
package floor

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/TIANLI0/FloorKit/utils"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Classifier 逐像素分类器。输入 [1,3,S,S]，输出 [1,1,H,W] 概率或 [1,C,H,W] logits
type Classifier interface {
	Classify(ctx context.Context, input Tensor) (Tensor, error)
}

// ClassifierFunc 函数适配为 Classifier
type ClassifierFunc func(ctx context.Context, input Tensor) (Tensor, error)

func (f ClassifierFunc) Classify(ctx context.Context, input Tensor) (Tensor, error) {
	return f(ctx, input)
}

// Result 一次管线调用的输出，创建后不再修改
type Result struct {
	// Mask 原图分辨率的二值掩码
	Mask          Mask
	Width, Height int
	// ModelWidth/ModelHeight 分类器输出分辨率
	ModelWidth, ModelHeight int
	// SoftAlpha 软边蒙版：RGB 白色，alpha 为模糊后的掩码
	SoftAlpha *image.NRGBA
	// DebugOverlay 调试用红色叠加层，未开启时为 nil
	DebugOverlay *image.NRGBA
}

// Pipeline 持有注入的分类器和默认参数
type Pipeline struct {
	classifier Classifier
	opts       Options
}

// NewPipeline 创建管线
func NewPipeline(classifier Classifier, opts Options) (*Pipeline, error) {
	if classifier == nil {
		return nil, fmt.Errorf("%w: nil classifier", ErrConfiguration)
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Pipeline{classifier: classifier, opts: opts}, nil
}

// Options 返回默认参数的副本
func (p *Pipeline) Options() Options {
	return p.opts
}

// Run 使用默认参数处理图像
func (p *Pipeline) Run(ctx context.Context, img image.Image) (*Result, error) {
	return p.RunWithOptions(ctx, img, p.opts)
}

// RunWithOptions 使用指定参数处理图像。任一阶段失败即中止，不返回部分结果
func (p *Pipeline) RunWithOptions(ctx context.Context, img image.Image, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if img == nil {
		return nil, fmt.Errorf("%w: nil image", ErrInput)
	}
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: empty image %v", ErrInput, b)
	}

	start := time.Now()
	utils.Logger.Debug("floor detection started",
		zap.Int("width", width),
		zap.Int("height", height),
		zap.Bool("tta", opts.UseTTA),
		zap.String("fusion", string(opts.FusionMode)))

	var (
		mask           Mask
		modelW, modelH int
		err            error
	)
	if opts.UseTTA {
		mask, modelW, modelH, err = p.runTTA(ctx, img, opts, width, height)
	} else {
		mask, modelW, modelH, err = p.runBranch(ctx, img, opts, false, width, height)
	}
	if err != nil {
		return nil, err
	}

	soft, overlay := Composite(mask, opts.DebugOverlay)
	result := &Result{
		Mask:         mask,
		Width:        width,
		Height:       height,
		ModelWidth:   modelW,
		ModelHeight:  modelH,
		SoftAlpha:    soft,
		DebugOverlay: overlay,
	}

	utils.Logger.Debug("floor detection finished",
		zap.Int("floor_pixels", mask.Count()),
		zap.Duration("duration", time.Since(start)))
	return result, nil
}

// runTTA 原图和镜像图两路并发推理，镜像结果翻转回来后取交集
func (p *Pipeline) runTTA(ctx context.Context, img image.Image, opts Options, width, height int) (Mask, int, int, error) {
	var (
		original, mirrored Mask
		modelW, modelH     int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		original, modelW, modelH, err = p.runBranch(gctx, img, opts, false, width, height)
		return err
	})
	g.Go(func() error {
		var err error
		mirrored, _, _, err = p.runBranch(gctx, img, opts, true, width, height)
		return err
	})
	if err := g.Wait(); err != nil {
		return Mask{}, 0, 0, err
	}

	merged, err := MergeAnd(original, FlipHorizontal(mirrored))
	if err != nil {
		return Mask{}, 0, 0, err
	}
	utils.Logger.Debug("tta merge complete",
		zap.Int("original", original.Count()),
		zap.Int("mirrored", mirrored.Count()),
		zap.Int("merged", merged.Count()))
	return merged, modelW, modelH, nil
}

// runBranch 执行单路：预处理 → 推理 → 类别图 → 形态学 → 还原到原图尺寸
func (p *Pipeline) runBranch(ctx context.Context, img image.Image, opts Options, flip bool, width, height int) (Mask, int, int, error) {
	input, err := Preprocess(img, opts, flip)
	if err != nil {
		return Mask{}, 0, 0, err
	}
	if err := ctx.Err(); err != nil {
		return Mask{}, 0, 0, err
	}

	output, err := p.classifier.Classify(ctx, input)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Mask{}, 0, 0, ctxErr
		}
		return Mask{}, 0, 0, fmt.Errorf("%w: classify: %w", ErrModel, err)
	}
	if err := ctx.Err(); err != nil {
		return Mask{}, 0, 0, err
	}

	small, err := ExtractMask(output, opts)
	if err != nil {
		return Mask{}, 0, 0, err
	}
	utils.Logger.Debug("class map extracted",
		zap.Int64s("shape", output.Shape),
		zap.Bool("flipped", flip),
		zap.Int("floor_pixels", small.Count()))

	small = PostProcess(small, opts)
	if err := ctx.Err(); err != nil {
		return Mask{}, 0, 0, err
	}

	full, err := ResizeMask(small, width, height)
	if err != nil {
		return Mask{}, 0, 0, err
	}
	return full, small.Width, small.Height, nil
}
