package service

import (
	"github.com/TIANLI0/FloorKit/floor"
	"github.com/TIANLI0/FloorKit/model"
)

// MaskAnalyzer 统计掩码的几何信息
type MaskAnalyzer struct{}

func NewMaskAnalyzer() *MaskAnalyzer {
	return &MaskAnalyzer{}
}

// BoundingBox 计算地板区域的外接矩形，没有地板时返回零值
func (ma *MaskAnalyzer) BoundingBox(mask floor.Mask) model.BBox {
	minX, minY := mask.Width, mask.Height
	maxX, maxY := -1, -1
	for y := 0; y < mask.Height; y++ {
		row := mask.Pix[y*mask.Width : (y+1)*mask.Width]
		for x, v := range row {
			if v != floor.Foreground {
				continue
			}
			minX = min(minX, x)
			maxX = max(maxX, x)
			minY = min(minY, y)
			maxY = max(maxY, y)
		}
	}
	if maxX < 0 {
		return model.BBox{}
	}
	return model.BBox{
		X:      minX,
		Y:      minY,
		Width:  maxX - minX + 1,
		Height: maxY - minY + 1,
	}
}

// Coverage 地板像素占整幅图像的比例
func (ma *MaskAnalyzer) Coverage(mask floor.Mask) float64 {
	if len(mask.Pix) == 0 {
		return 0
	}
	return float64(mask.Count()) / float64(len(mask.Pix))
}
