package floor

import (
	"time"

	"github.com/TIANLI0/FloorKit/utils"
	"go.uber.org/zap"
)

// 众数滤波阈值：3×3 邻域（含自身）至少 5 个地板像素
const modeFilterMajority = 5

// rectFilter 在 (2rx+1)×(2ry+1) 窗口内取最大值（膨胀）或最小值（腐蚀），
// 越界的邻居直接忽略
func rectFilter(m Mask, rx, ry int, dilate bool) Mask {
	w, h := m.Width, m.Height
	out := Mask{Pix: make([]uint8, len(m.Pix)), Width: w, Height: h}
	for y := 0; y < h; y++ {
		y0, y1 := max(0, y-ry), min(h-1, y+ry)
		for x := 0; x < w; x++ {
			x0, x1 := max(0, x-rx), min(w-1, x+rx)
			v, stop := Foreground, Background
			if dilate {
				v, stop = Background, Foreground
			}
		window:
			for ny := y0; ny <= y1; ny++ {
				row := ny * w
				for nx := x0; nx <= x1; nx++ {
					if p := m.Pix[row+nx]; (dilate && p > v) || (!dilate && p < v) {
						v = p
					}
					if v == stop {
						break window
					}
				}
			}
			out.Pix[y*w+x] = v
		}
	}
	return out
}

// Dilate 3×3 最大值滤波
func Dilate(m Mask) Mask { return rectFilter(m, 1, 1, true) }

// Erode 3×3 最小值滤波
func Erode(m Mask) Mask { return rectFilter(m, 1, 1, false) }

// DilateVertical 只沿竖直方向膨胀（±2 行，列不变）
func DilateVertical(m Mask) Mask { return rectFilter(m, 0, 2, true) }

// Close 闭运算：先膨胀再腐蚀，radius 1 对应 3×3 邻域
func Close(m Mask, radius int) Mask {
	r := max(1, radius)
	return rectFilter(rectFilter(m, r, r, true), r, r, false)
}

// ModeFilter 3×3 众数滤波，去掉边界上的孤立噪点
func ModeFilter(m Mask) Mask {
	w, h := m.Width, m.Height
	out := Mask{Pix: make([]uint8, len(m.Pix)), Width: w, Height: h}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			count := 0
			for ny := max(0, y-1); ny <= min(h-1, y+1); ny++ {
				for nx := max(0, x-1); nx <= min(w-1, x+1); nx++ {
					if m.Pix[ny*w+nx] == Foreground {
						count++
					}
				}
			}
			if count >= modeFilterMajority {
				out.Pix[y*w+x] = Foreground
			}
		}
	}
	return out
}

// PostProcess 按固定顺序清理模型分辨率掩码：
// 闭运算 → 去小连通域 → 腐蚀×N → 再去小连通域 → 膨胀×N → 竖直膨胀×M → 众数滤波 → 填洞
func PostProcess(m Mask, opts Options) Mask {
	start := time.Now()
	before := m.Count()

	m = Close(m, opts.CloseRadius)
	m = RemoveSmallComponents(m, opts.MinComponentAreaRatio)
	for range opts.ErodeIterations {
		m = Erode(m)
	}
	if opts.ErodeIterations > 0 {
		m = RemoveSmallComponents(m, opts.MinComponentAreaRatio)
	}
	for range opts.DilateIterations {
		m = Dilate(m)
	}
	for range opts.VerticalDilateIterations {
		m = DilateVertical(m)
	}
	m = ModeFilter(m)
	m = FillHoles(m, opts.MaxHoleAreaRatio)

	utils.Logger.Debug("mask post-processed",
		zap.Int("width", m.Width),
		zap.Int("height", m.Height),
		zap.Int("floor_before", before),
		zap.Int("floor_after", m.Count()),
		zap.Duration("duration", time.Since(start)))
	return m
}
