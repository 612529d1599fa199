package floor

import "fmt"

// 重新二值化的中点
const binarizeMidpoint = 127

// ResizeMask 最近邻缩放到目标尺寸，并按中点重新二值化，保证输出只有 0/255
func ResizeMask(m Mask, width, height int) (Mask, error) {
	if width <= 0 || height <= 0 {
		return Mask{}, fmt.Errorf("%w: target size %dx%d", ErrInput, width, height)
	}
	if m.Width <= 0 || m.Height <= 0 || len(m.Pix) != m.Width*m.Height {
		return Mask{}, fmt.Errorf("%w: source mask %dx%d with %d pixels", ErrInput, m.Width, m.Height, len(m.Pix))
	}

	out := Mask{Pix: make([]uint8, width*height), Width: width, Height: height}
	// 以像素中心采样
	srcX := make([]int, width)
	for x := range width {
		srcX[x] = min(m.Width-1, (2*x+1)*m.Width/(2*width))
	}
	for y := range height {
		sy := min(m.Height-1, (2*y+1)*m.Height/(2*height))
		srcRow := m.Pix[sy*m.Width : (sy+1)*m.Width]
		dstRow := out.Pix[y*width : (y+1)*width]
		for x, sx := range srcX {
			if srcRow[sx] > binarizeMidpoint {
				dstRow[x] = Foreground
			}
		}
	}
	return out, nil
}
