package floor

import (
	"fmt"
	"image"
)

const (
	// Background 背景像素值
	Background uint8 = 0
	// Foreground 地板像素值
	Foreground uint8 = 255
)

// Mask 二值掩码，像素取值只有 0 和 255，按行存储
type Mask struct {
	Pix    []uint8
	Width  int
	Height int
}

// NewMask 创建全背景掩码
func NewMask(width, height int) (Mask, error) {
	if width <= 0 || height <= 0 {
		return Mask{}, fmt.Errorf("%w: mask size %dx%d", ErrInput, width, height)
	}
	return Mask{Pix: make([]uint8, width*height), Width: width, Height: height}, nil
}

// Clone 深拷贝
func (m Mask) Clone() Mask {
	pix := make([]uint8, len(m.Pix))
	copy(pix, m.Pix)
	return Mask{Pix: pix, Width: m.Width, Height: m.Height}
}

// Count 返回地板像素数量
func (m Mask) Count() int {
	n := 0
	for _, v := range m.Pix {
		if v == Foreground {
			n++
		}
	}
	return n
}

// Gray 以灰度图视图返回掩码，共享底层像素
func (m Mask) Gray() *image.Gray {
	return &image.Gray{
		Pix:    m.Pix,
		Stride: m.Width,
		Rect:   image.Rect(0, 0, m.Width, m.Height),
	}
}

func (m Mask) sameSize(o Mask) bool {
	return m.Width == o.Width && m.Height == o.Height && len(m.Pix) == len(o.Pix)
}

// FlipHorizontal 水平镜像（逐行反转列）
func FlipHorizontal(m Mask) Mask {
	out := Mask{Pix: make([]uint8, len(m.Pix)), Width: m.Width, Height: m.Height}
	for y := 0; y < m.Height; y++ {
		row := y * m.Width
		for x := 0; x < m.Width; x++ {
			out.Pix[row+x] = m.Pix[row+m.Width-1-x]
		}
	}
	return out
}

// MergeAnd 两个掩码逐像素取交集，只有两者都为地板时才保留
func MergeAnd(a, b Mask) (Mask, error) {
	if !a.sameSize(b) {
		return Mask{}, fmt.Errorf("%w: cannot merge %dx%d with %dx%d", ErrInput, a.Width, a.Height, b.Width, b.Height)
	}
	out := Mask{Pix: make([]uint8, len(a.Pix)), Width: a.Width, Height: a.Height}
	for i := range a.Pix {
		if a.Pix[i] == Foreground && b.Pix[i] == Foreground {
			out.Pix[i] = Foreground
		}
	}
	return out, nil
}
