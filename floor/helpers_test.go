package floor

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"
)

// maskFromRows 用字符串构造掩码，'#' 为地板，'.' 为背景
func maskFromRows(t *testing.T, rows ...string) Mask {
	t.Helper()
	require.NotEmpty(t, rows)
	m, err := NewMask(len(rows[0]), len(rows))
	require.NoError(t, err)
	for y, row := range rows {
		require.Len(t, row, m.Width)
		for x, ch := range row {
			if ch == '#' {
				m.Pix[y*m.Width+x] = Foreground
			}
		}
	}
	return m
}

func filledMask(t *testing.T, w, h int) Mask {
	t.Helper()
	m, err := NewMask(w, h)
	require.NoError(t, err)
	for i := range m.Pix {
		m.Pix[i] = Foreground
	}
	return m
}

func randomMask(r *rand.Rand, w, h int, density float64) Mask {
	m := Mask{Pix: make([]uint8, w*h), Width: w, Height: h}
	for i := range m.Pix {
		if r.Float64() < density {
			m.Pix[i] = Foreground
		}
	}
	return m
}

func requireBinary(t *testing.T, m Mask) {
	t.Helper()
	for i, v := range m.Pix {
		if v != Foreground && v != Background {
			t.Fatalf("pixel %d = %d, want 0 or 255", i, v)
		}
	}
}
