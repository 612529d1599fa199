package floor

import (
	"fmt"
	"strings"

	"github.com/disintegration/imaging"
)

// FusionMode 决定 argmax 与 softmax 概率如何合成初始地板掩码
type FusionMode string

const (
	FusionAnd       FusionMode = "and"
	FusionOr        FusionMode = "or"
	FusionThreshold FusionMode = "threshold"
	FusionArgmax    FusionMode = "argmax"
)

// ChannelOrder 模型期望的输入通道顺序
type ChannelOrder string

const (
	ChannelRGB ChannelOrder = "rgb"
	ChannelBGR ChannelOrder = "bgr"
)

const (
	PresetStrictName  = "strict"
	PresetLenientName = "lenient"
)

// Options 管线的全部可调参数，贯穿每个阶段
type Options struct {
	InputSize    int
	ChannelOrder ChannelOrder
	NormMean     [3]float32
	NormStd      [3]float32

	FloorClassIndex       int
	FurnitureClassIndices []int
	BinaryThreshold       float32
	FloorProbThreshold    float32
	FusionMode            FusionMode
	SubtractFurniture     bool

	CloseRadius              int
	ErodeIterations          int
	DilateIterations         int
	VerticalDilateIterations int

	MinComponentAreaRatio float64
	MaxHoleAreaRatio      float64

	UseTTA          bool
	ContrastStretch bool
	// ResampleFilter 预处理缩放滤镜: linear, box, catmullrom, lanczos
	ResampleFilter string
	DebugOverlay   bool
}

// DefaultOptions 返回默认参数（ADE20K 类别编号，ImageNet 归一化）
func DefaultOptions() Options {
	return Options{
		InputSize:    512,
		ChannelOrder: ChannelRGB,
		NormMean:     [3]float32{0.485, 0.456, 0.406},
		NormStd:      [3]float32{0.229, 0.224, 0.225},

		FloorClassIndex:       3,
		FurnitureClassIndices: []int{8, 9, 11, 12, 13, 14},
		BinaryThreshold:       0.5,
		FloorProbThreshold:    0.44,
		FusionMode:            FusionAnd,
		SubtractFurniture:     true,

		CloseRadius:              1,
		ErodeIterations:          1,
		DilateIterations:         1,
		VerticalDilateIterations: 0,

		MinComponentAreaRatio: 0.006,
		MaxHoleAreaRatio:      0.02,

		UseTTA:          false,
		ContrastStretch: true,
		ResampleFilter:  "linear",
		DebugOverlay:    true,
	}
}

// WithPreset 套用预设的融合策略。
//
// strict: AND 融合 + 家具扣除 + 腐蚀后回膨胀，排除家具腿下的细条地板；
// lenient: OR 融合，不扣除家具，不做腐蚀。
// 其余参数保持不变，空名称原样返回。
func (o Options) WithPreset(name string) (Options, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "":
		return o, nil
	case PresetStrictName:
		o.FusionMode = FusionAnd
		o.SubtractFurniture = true
		o.ErodeIterations = 1
		o.DilateIterations = 1
	case PresetLenientName:
		o.FusionMode = FusionOr
		o.SubtractFurniture = false
		o.ErodeIterations = 0
		o.DilateIterations = 0
	default:
		return o, fmt.Errorf("%w: unknown preset %q", ErrConfiguration, name)
	}
	return o, nil
}

// Validate 检查参数合法性
func (o Options) Validate() error {
	if o.InputSize <= 0 {
		return fmt.Errorf("%w: input size must be positive, got %d", ErrConfiguration, o.InputSize)
	}
	if o.ChannelOrder != ChannelRGB && o.ChannelOrder != ChannelBGR {
		return fmt.Errorf("%w: unknown channel order %q", ErrConfiguration, o.ChannelOrder)
	}
	for c, s := range o.NormStd {
		if s <= 0 {
			return fmt.Errorf("%w: norm std[%d] must be positive", ErrConfiguration, c)
		}
	}
	switch o.FusionMode {
	case FusionAnd, FusionOr, FusionThreshold, FusionArgmax:
	default:
		return fmt.Errorf("%w: unknown fusion mode %q", ErrConfiguration, o.FusionMode)
	}
	if o.FloorClassIndex < 0 {
		return fmt.Errorf("%w: floor class index must be non-negative", ErrConfiguration)
	}
	if o.CloseRadius < 0 || o.ErodeIterations < 0 || o.DilateIterations < 0 || o.VerticalDilateIterations < 0 {
		return fmt.Errorf("%w: morphology parameters must be non-negative", ErrConfiguration)
	}
	if o.MinComponentAreaRatio < 0 || o.MinComponentAreaRatio > 1 {
		return fmt.Errorf("%w: min component area ratio %v out of [0,1]", ErrConfiguration, o.MinComponentAreaRatio)
	}
	if o.MaxHoleAreaRatio < 0 || o.MaxHoleAreaRatio > 1 {
		return fmt.Errorf("%w: max hole area ratio %v out of [0,1]", ErrConfiguration, o.MaxHoleAreaRatio)
	}
	if _, ok := resampleFilters[strings.ToLower(o.ResampleFilter)]; !ok {
		return fmt.Errorf("%w: unknown resample filter %q", ErrConfiguration, o.ResampleFilter)
	}
	return nil
}

// Fingerprint 返回参数的稳定文本表示，用于缓存键
func (o Options) Fingerprint() string {
	return fmt.Sprintf("%+v", o)
}

var resampleFilters = map[string]imaging.ResampleFilter{
	"linear":     imaging.Linear,
	"box":        imaging.Box,
	"catmullrom": imaging.CatmullRom,
	"lanczos":    imaging.Lanczos,
}

func (o Options) resampleFilter() imaging.ResampleFilter {
	if f, ok := resampleFilters[strings.ToLower(o.ResampleFilter)]; ok {
		return f
	}
	return imaging.Linear
}

func (o Options) furnitureSet() map[int]struct{} {
	set := make(map[int]struct{}, len(o.FurnitureClassIndices))
	for _, c := range o.FurnitureClassIndices {
		set[c] = struct{}{}
	}
	return set
}
