package floor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultOptionsValid(t *testing.T) {
	require.NoError(t, DefaultOptions().Validate())
}

func TestWithPreset(t *testing.T) {
	base := DefaultOptions()
	base.VerticalDilateIterations = 2

	strict, err := base.WithPreset("strict")
	require.NoError(t, err)
	assert.Equal(t, FusionAnd, strict.FusionMode)
	assert.True(t, strict.SubtractFurniture)
	assert.Equal(t, 1, strict.ErodeIterations)
	assert.Equal(t, 1, strict.DilateIterations)
	assert.Equal(t, 2, strict.VerticalDilateIterations)

	lenient, err := base.WithPreset(" Lenient ")
	require.NoError(t, err)
	assert.Equal(t, FusionOr, lenient.FusionMode)
	assert.False(t, lenient.SubtractFurniture)
	assert.Equal(t, 0, lenient.ErodeIterations)
	assert.Equal(t, 0, lenient.DilateIterations)

	same, err := base.WithPreset("")
	require.NoError(t, err)
	assert.Equal(t, base.Fingerprint(), same.Fingerprint())

	_, err = base.WithPreset("aggressive")
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Options)
	}{
		{"input size", func(o *Options) { o.InputSize = 0 }},
		{"channel order", func(o *Options) { o.ChannelOrder = "rgba" }},
		{"norm std", func(o *Options) { o.NormStd[1] = 0 }},
		{"fusion", func(o *Options) { o.FusionMode = "xor" }},
		{"floor index", func(o *Options) { o.FloorClassIndex = -1 }},
		{"erode", func(o *Options) { o.ErodeIterations = -1 }},
		{"component ratio", func(o *Options) { o.MinComponentAreaRatio = 1.5 }},
		{"hole ratio", func(o *Options) { o.MaxHoleAreaRatio = -0.1 }},
		{"resample", func(o *Options) { o.ResampleFilter = "bicubic" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			tt.mutate(&opts)
			assert.ErrorIs(t, opts.Validate(), ErrConfiguration)
		})
	}
}

func TestFingerprint(t *testing.T) {
	a := DefaultOptions()
	b := DefaultOptions()
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())

	b.UseTTA = true
	assert.NotEqual(t, a.Fingerprint(), b.Fingerprint())
}
