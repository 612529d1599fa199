package service

import (
	"bytes"
	"context"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/TIANLI0/FloorKit/config"
	"github.com/TIANLI0/FloorKit/floor"
	"github.com/stretchr/testify/require"
)

// pngBytes 生成 w×h 的纯色 PNG
func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 140, G: 110, B: 90, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// headerOnlyPNG 把 1×1 PNG 的 IHDR 改写为 w×h，文件很小但声明的尺寸很大
func headerOnlyPNG(t *testing.T, w, h uint32) []byte {
	t.Helper()
	data := pngBytes(t, 1, 1)
	require.Equal(t, "IHDR", string(data[12:16]))
	binary.BigEndian.PutUint32(data[16:20], w)
	binary.BigEndian.PutUint32(data[20:24], h)
	binary.BigEndian.PutUint32(data[29:33], crc32.ChecksumIEEE(data[12:29]))
	return data
}

// floorEverywhere 输出 8×8 全地板概率图
func floorEverywhere(ctx context.Context, input floor.Tensor) (floor.Tensor, error) {
	data := make([]float32, 64)
	for i := range data {
		data[i] = 1
	}
	return floor.NewTensor(data, 1, 1, 8, 8)
}

func newTestFloorService(t *testing.T, cfg config.PipelineConfig, c floor.Classifier) *FloorService {
	t.Helper()
	opts := floor.DefaultOptions()
	opts.InputSize = 32
	p, err := floor.NewPipeline(c, opts)
	require.NoError(t, err)
	return NewFloorService(&cfg, p)
}
