package spectral

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPowerToDBKnownValues(t *testing.T) {
	out, err := PowerToDB([]float64{1.0, 0.1, 10.0}, 1.0, 1e-10, 80.0)
	require.NoError(t, err)

	assert.InDelta(t, 0.0, out[0], 1e-12)
	assert.InDelta(t, -10.0, out[1], 1e-12)
	assert.InDelta(t, 10.0, out[2], 1e-12)
}

func TestPowerToDBReference(t *testing.T) {
	// doubling the reference shifts everything down by ~3.01 dB
	base, err := PowerToDB([]float64{1.0, 2.0}, 1.0, 1e-10, 80.0)
	require.NoError(t, err)
	shifted, err := PowerToDB([]float64{1.0, 2.0}, 2.0, 1e-10, 80.0)
	require.NoError(t, err)

	for i := range base {
		assert.InDelta(t, base[i]-shifted[i], 10.0*0.3010299956639812, 1e-12)
	}
}

func TestPowerToDBAMinFloor(t *testing.T) {
	out, err := PowerToDB([]float64{0.0, 1e-30, 1.0}, 1.0, 1e-10, 200.0)
	require.NoError(t, err)

	// values below amin are clamped to 10*log10(amin) = -100 dB
	assert.InDelta(t, -100.0, out[0], 1e-12)
	assert.InDelta(t, -100.0, out[1], 1e-12)
	assert.InDelta(t, 0.0, out[2], 1e-12)
}

func TestPowerToDBTopDBFloor(t *testing.T) {
	out, err := PowerToDB([]float64{1e-9, 1.0}, 1.0, 1e-10, 40.0)
	require.NoError(t, err)

	// max is 0 dB, so nothing sits below -40 dB
	assert.InDelta(t, 0.0, out[1], 1e-12)
	assert.InDelta(t, -40.0, out[0], 1e-12)
}

func TestPowerToDBMonotonic(t *testing.T) {
	x := []float64{5.0, 0.0, 1e-12, 0.3, 1.0, 2.0, 0.3}

	out, err := PowerToDB(x, 1.0, 1e-10, 80.0)
	require.NoError(t, err)

	// sort inputs and outputs by input; dB order must follow
	idx := make([]int, len(x))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return x[idx[a]] < x[idx[b]] })

	for i := 1; i < len(idx); i++ {
		assert.GreaterOrEqual(t, out[idx[i]], out[idx[i-1]])
	}

	// equal inputs map to equal outputs
	assert.Equal(t, out[3], out[6])
}

func TestPowerToDBMatrixGlobalMax(t *testing.T) {
	x := [][]float64{
		{1e-20, 1e-20},
		{1.0, 1e-20},
	}

	out, err := PowerToDBMatrix(x, 1.0, 1e-10, 60.0)
	require.NoError(t, err)

	// the topDB floor is computed over the whole plane, not per row
	assert.InDelta(t, 0.0, out[1][0], 1e-12)
	for _, pos := range [][2]int{{0, 0}, {0, 1}, {1, 1}} {
		assert.InDelta(t, -60.0, out[pos[0]][pos[1]], 1e-12)
	}
}

func TestPowerToDBInvalidParams(t *testing.T) {
	tests := []struct {
		name  string
		amin  float64
		topDB float64
	}{
		{"zero amin", 0, 80},
		{"negative amin", -1e-10, 80},
		{"zero top_db", 1e-10, 0},
		{"negative top_db", 1e-10, -5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := PowerToDB([]float64{1.0}, 1.0, tt.amin, tt.topDB)
			assert.Error(t, err)
		})
	}
}
