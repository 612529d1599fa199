package floor

import (
	"fmt"
	"math"
)

// ExtractMask 把分类器输出转换为模型分辨率下的初始掩码。
//
// [1,1,H,W] 视为地板概率图，按 BinaryThreshold 二值化；
// [1,C,H,W] 视为逐类 logits，按 FusionMode 融合 argmax 与 softmax 概率，
// 开启 SubtractFurniture 时 argmax 落在家具类别的像素一律置为背景。
func ExtractMask(t Tensor, opts Options) (Mask, error) {
	channels, height, width, err := outputLayout(t)
	if err != nil {
		return Mask{}, err
	}
	mask := Mask{Pix: make([]uint8, height*width), Width: width, Height: height}

	if channels == 1 {
		for i, v := range t.Data {
			if v > opts.BinaryThreshold {
				mask.Pix[i] = Foreground
			}
		}
		return mask, nil
	}

	if opts.FloorClassIndex < 0 || opts.FloorClassIndex >= channels {
		return Mask{}, fmt.Errorf("%w: floor class %d outside %d classes (shape %v)",
			ErrModel, opts.FloorClassIndex, channels, t.Shape)
	}

	classMap := ArgmaxClasses(t.Data, channels, height*width)
	var prob []float32
	if opts.FusionMode != FusionArgmax {
		prob = SoftmaxProbability(t.Data, channels, height*width, opts.FloorClassIndex)
	}

	floorIdx := opts.FloorClassIndex
	thr := opts.FloorProbThreshold
	for i := range mask.Pix {
		isArgmax := classMap[i] == floorIdx
		var floor bool
		switch opts.FusionMode {
		case FusionAnd:
			floor = isArgmax && prob[i] >= thr
		case FusionOr:
			floor = isArgmax || prob[i] >= thr
		case FusionThreshold:
			floor = prob[i] >= thr
		case FusionArgmax:
			floor = isArgmax
		default:
			return Mask{}, fmt.Errorf("%w: unknown fusion mode %q", ErrConfiguration, opts.FusionMode)
		}
		if floor {
			mask.Pix[i] = Foreground
		}
	}

	if opts.SubtractFurniture && len(opts.FurnitureClassIndices) > 0 {
		furniture := opts.furnitureSet()
		for i, c := range classMap {
			if _, ok := furniture[c]; ok {
				mask.Pix[i] = Background
			}
		}
	}
	return mask, nil
}

// ArgmaxClasses 逐像素求最大 logit 所在类别，并列时取编号最小者
func ArgmaxClasses(logits []float32, channels, plane int) []int {
	out := make([]int, plane)
	for i := 0; i < plane; i++ {
		best := float32(math.Inf(-1))
		bestClass := 0
		for c := 0; c < channels; c++ {
			if v := logits[c*plane+i]; v > best {
				best = v
				bestClass = c
			}
		}
		out[i] = bestClass
	}
	return out
}

// SoftmaxProbability 逐像素计算指定类别的 softmax 概率，先减去最大 logit 保证数值稳定
func SoftmaxProbability(logits []float32, channels, plane, class int) []float32 {
	out := make([]float32, plane)
	for i := 0; i < plane; i++ {
		maxLogit := math.Inf(-1)
		for c := 0; c < channels; c++ {
			maxLogit = math.Max(maxLogit, float64(logits[c*plane+i]))
		}
		var sum float64
		for c := 0; c < channels; c++ {
			sum += math.Exp(float64(logits[c*plane+i]) - maxLogit)
		}
		out[i] = float32(math.Exp(float64(logits[class*plane+i])-maxLogit) / sum)
	}
	return out
}
