package floor

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uniformImage(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestPreprocessShape(t *testing.T) {
	opts := DefaultOptions()
	opts.InputSize = 16
	tensor, err := Preprocess(uniformImage(40, 20, color.NRGBA{R: 10, G: 20, B: 30, A: 255}), opts, false)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3, 16, 16}, tensor.Shape)
	assert.Len(t, tensor.Data, 3*16*16)
}

func TestPreprocessNormalization(t *testing.T) {
	opts := DefaultOptions()
	opts.InputSize = 8
	opts.ContrastStretch = false
	img := uniformImage(8, 8, color.NRGBA{R: 200, G: 100, B: 50, A: 255})

	tensor, err := Preprocess(img, opts, false)
	require.NoError(t, err)

	plane := 64
	wantR := (200.0/255 - 0.485) / 0.229
	wantG := (100.0/255 - 0.456) / 0.224
	wantB := (50.0/255 - 0.406) / 0.225
	for i := 0; i < plane; i++ {
		assert.InDelta(t, wantR, tensor.Data[i], 1e-4)
		assert.InDelta(t, wantG, tensor.Data[plane+i], 1e-4)
		assert.InDelta(t, wantB, tensor.Data[2*plane+i], 1e-4)
	}

	opts.ChannelOrder = ChannelBGR
	bgr, err := Preprocess(img, opts, false)
	require.NoError(t, err)
	assert.InDelta(t, wantB, bgr.Data[0], 1e-4)
	assert.InDelta(t, wantG, bgr.Data[plane], 1e-4)
	assert.InDelta(t, wantR, bgr.Data[2*plane], 1e-4)
}

func TestPreprocessFlip(t *testing.T) {
	opts := DefaultOptions()
	opts.InputSize = 4
	opts.ContrastStretch = false
	img := uniformImage(4, 4, color.NRGBA{A: 255})
	for y := 0; y < 4; y++ {
		img.SetNRGBA(0, y, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	}

	plain, err := Preprocess(img, opts, false)
	require.NoError(t, err)
	flipped, err := Preprocess(img, opts, true)
	require.NoError(t, err)

	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			assert.Equal(t, plain.Data[y*4+x], flipped.Data[y*4+3-x])
		}
	}
	assert.Greater(t, plain.Data[0], plain.Data[3])
}

func TestPreprocessRejectsEmptyImage(t *testing.T) {
	_, err := Preprocess(nil, DefaultOptions(), false)
	assert.ErrorIs(t, err, ErrInput)

	_, err = Preprocess(image.NewNRGBA(image.Rect(0, 0, 0, 5)), DefaultOptions(), false)
	assert.ErrorIs(t, err, ErrInput)
}

func TestStretchContrast(t *testing.T) {
	pix := make([]uint8, 200*4)
	for i := 0; i < 200; i++ {
		v := uint8(50)
		if i >= 100 {
			v = 150
		}
		pix[i*4], pix[i*4+1], pix[i*4+2], pix[i*4+3] = v, v, v, 77
	}

	StretchContrast(pix)

	assert.Equal(t, []uint8{0, 0, 0, 77}, pix[0:4])
	assert.Equal(t, []uint8{255, 255, 255, 77}, pix[199*4:200*4])
}

func TestStretchContrastUniformImage(t *testing.T) {
	pix := make([]uint8, 50*4)
	for i := range pix {
		pix[i] = 120
	}
	StretchContrast(pix)
	for i := 0; i < 50; i++ {
		assert.Equal(t, uint8(0), pix[i*4])
		assert.Equal(t, uint8(120), pix[i*4+3])
	}
}
