package floor

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
)

const (
	minBlurRadius = 2
	maxBlurRadius = 12
	// 调试叠加层的透明度
	debugOverlayAlpha = 200
)

// BlurRadius 软边半径：clamp(round(width/200), 2, 12)
func BlurRadius(width int) int {
	r := int(math.Round(float64(width) / 200))
	return min(maxBlurRadius, max(minBlurRadius, r))
}

// SoftAlpha 对掩码做高斯模糊，输出白色 RGB + 模糊后 alpha 的图像，
// 用作地毯叠加层的裁剪蒙版，边界柔和过渡
func SoftAlpha(m Mask) *image.NRGBA {
	blurred := imaging.Blur(m.Gray(), float64(BlurRadius(m.Width)))
	out := image.NewNRGBA(image.Rect(0, 0, m.Width, m.Height))
	for i := range m.Pix {
		out.Pix[i*4] = 255
		out.Pix[i*4+1] = 255
		out.Pix[i*4+2] = 255
		// 灰度展开后 R=G=B
		out.Pix[i*4+3] = blurred.Pix[i*4]
	}
	return out
}

// Composite 生成两份输出资源：软边蒙版，以及 debug 为 true 时的调试叠加层
func Composite(m Mask, debug bool) (soft, overlay *image.NRGBA) {
	soft = SoftAlpha(m)
	if debug {
		overlay = DebugOverlay(m)
	}
	return soft, overlay
}

// DebugOverlay 红色半透明叠加层，不做模糊
func DebugOverlay(m Mask) *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, m.Width, m.Height))
	for i, v := range m.Pix {
		out.Pix[i*4] = 255
		if v == Foreground {
			out.Pix[i*4+3] = debugOverlayAlpha
		}
	}
	return out
}
