package floor

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResizeMaskUpscale(t *testing.T) {
	m := maskFromRows(t,
		"#.",
		".#",
	)
	out, err := ResizeMask(m, 4, 4)
	require.NoError(t, err)

	want := maskFromRows(t,
		"##..",
		"##..",
		"..##",
		"..##",
	)
	assert.Equal(t, want.Pix, out.Pix)
}

func TestResizeMaskDimensionsAndBinary(t *testing.T) {
	r := rand.New(rand.NewPCG(11, 12))
	for i := range 20 {
		m := randomMask(r, 1+r.IntN(32), 1+r.IntN(32), 0.5)
		w, h := 1+r.IntN(100), 1+r.IntN(100)
		out, err := ResizeMask(m, w, h)
		require.NoError(t, err, "case %d", i)
		require.Equal(t, w, out.Width)
		require.Equal(t, h, out.Height)
		require.Len(t, out.Pix, w*h)
		requireBinary(t, out)
	}
}

func TestResizeMaskIdentity(t *testing.T) {
	r := rand.New(rand.NewPCG(13, 14))
	m := randomMask(r, 17, 9, 0.4)
	out, err := ResizeMask(m, 17, 9)
	require.NoError(t, err)
	assert.Equal(t, m.Pix, out.Pix)
}

func TestResizeMaskInvalidSize(t *testing.T) {
	m := filledMask(t, 2, 2)
	_, err := ResizeMask(m, 0, 5)
	assert.ErrorIs(t, err, ErrInput)

	_, err = ResizeMask(Mask{}, 5, 5)
	assert.ErrorIs(t, err, ErrInput)
}
