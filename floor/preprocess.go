package floor

import (
	"fmt"
	"image"
	"math"
	"sort"

	"github.com/disintegration/imaging"
	"gonum.org/v1/gonum/stat"
)

const (
	// 亮度采样步长，每 17 个像素取一个足以代表整体分布
	lumaSampleStride = 17
	stretchLow       = 0.02
	stretchHigh      = 0.98
)

// Preprocess 把图像缩放到 S×S，可选对比度拉伸，归一化为 [1,3,S,S] 张量。
// flip 为 true 时先水平镜像（TTA 使用）。
func Preprocess(img image.Image, opts Options, flip bool) (Tensor, error) {
	if img == nil {
		return Tensor{}, fmt.Errorf("%w: nil image", ErrInput)
	}
	if b := img.Bounds(); b.Dx() <= 0 || b.Dy() <= 0 {
		return Tensor{}, fmt.Errorf("%w: empty image %v", ErrInput, b)
	}
	size := opts.InputSize
	if size <= 0 {
		return Tensor{}, fmt.Errorf("%w: input size %d", ErrConfiguration, size)
	}

	src := img
	if flip {
		src = imaging.FlipH(img)
	}
	resized := imaging.Resize(src, size, size, opts.resampleFilter())
	pix := resized.Pix
	if len(pix) != size*size*4 {
		return Tensor{}, fmt.Errorf("%w: resize produced %d bytes for %dx%d", ErrConfiguration, len(pix), size, size)
	}

	if opts.ContrastStretch {
		StretchContrast(pix)
	}

	plane := size * size
	data := make([]float32, 3*plane)
	rIdx, bIdx := 0, 2
	if opts.ChannelOrder == ChannelBGR {
		rIdx, bIdx = 2, 0
	}
	for i := 0; i < plane; i++ {
		r := (float32(pix[i*4])/255 - opts.NormMean[0]) / opts.NormStd[0]
		g := (float32(pix[i*4+1])/255 - opts.NormMean[1]) / opts.NormStd[1]
		b := (float32(pix[i*4+2])/255 - opts.NormMean[2]) / opts.NormStd[2]
		data[rIdx*plane+i] = r
		data[plane+i] = g
		data[bIdx*plane+i] = b
	}

	return Tensor{Data: data, Shape: []int64{1, 3, int64(size), int64(size)}}, nil
}

// StretchContrast 按亮度 2%/98% 分位数对 RGBA 像素做线性拉伸，原地修改，alpha 不变
func StretchContrast(pix []uint8) {
	n := len(pix) / 4
	if n == 0 {
		return
	}
	samples := make([]float64, 0, n/lumaSampleStride+1)
	for i := 0; i < n; i += lumaSampleStride {
		samples = append(samples, luminance(pix[i*4], pix[i*4+1], pix[i*4+2]))
	}
	sort.Float64s(samples)
	low := stat.Quantile(stretchLow, stat.Empirical, samples, nil)
	high := stat.Quantile(stretchHigh, stat.Empirical, samples, nil)
	span := math.Max(1, high-low)

	for i := 0; i < n; i++ {
		for c := 0; c < 3; c++ {
			v := (float64(pix[i*4+c]) - low) / span * 255
			pix[i*4+c] = uint8(math.Round(math.Max(0, math.Min(255, v))))
		}
	}
}

func luminance(r, g, b uint8) float64 {
	return 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)
}
