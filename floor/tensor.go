package floor

import "fmt"

// Tensor 扁平化的 float32 张量，通道优先 (NCHW)
type Tensor struct {
	Data  []float32
	Shape []int64
}

// NewTensor 创建张量并校验数据长度与形状一致
func NewTensor(data []float32, shape ...int64) (Tensor, error) {
	n := int64(1)
	for _, d := range shape {
		if d <= 0 {
			return Tensor{}, fmt.Errorf("%w: non-positive dimension in shape %v", ErrModel, shape)
		}
		n *= d
	}
	if int64(len(data)) != n {
		return Tensor{}, fmt.Errorf("%w: shape %v needs %d values, got %d", ErrModel, shape, n, len(data))
	}
	return Tensor{Data: data, Shape: shape}, nil
}

// outputLayout 解析分类器输出，只接受 [1,1,H,W] 概率图或 [1,C,H,W] logits
func outputLayout(t Tensor) (channels, height, width int, err error) {
	s := t.Shape
	if len(s) != 4 || s[0] != 1 || s[1] < 1 || s[2] < 1 || s[3] < 1 {
		return 0, 0, 0, fmt.Errorf("%w: unexpected output shape %v", ErrModel, s)
	}
	channels, height, width = int(s[1]), int(s[2]), int(s[3])
	if len(t.Data) != channels*height*width {
		return 0, 0, 0, fmt.Errorf("%w: output shape %v does not match %d values", ErrModel, s, len(t.Data))
	}
	return channels, height, width, nil
}
