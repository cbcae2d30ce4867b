package spectral

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// PowerToDB converts a power vector to decibels relative to ref:
//
//	10*log10(max(x, amin)) - 10*log10(max(amin, |ref|))
//
// then floors every value at (max - topDB), so the dynamic range never
// exceeds topDB. Matches librosa.power_to_db. amin and topDB must be
// positive. The conversion is monotonic non-decreasing in x.
func PowerToDB(x []float64, ref, amin, topDB float64) ([]float64, error) {
	out, err := PowerToDBMatrix([][]float64{x}, ref, amin, topDB)
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// PowerToDBMatrix converts a (rows, cols) power plane to decibels. The
// topDB floor is relative to the maximum over the whole plane, which for
// a (mels, frames) spectrogram is the librosa behavior.
func PowerToDBMatrix(x [][]float64, ref, amin, topDB float64) ([][]float64, error) {
	if amin <= 0 {
		return nil, fmt.Errorf("amin must be positive, got %g", amin)
	}
	if topDB <= 0 {
		return nil, fmt.Errorf("top_db must be positive, got %g", topDB)
	}

	refValue := math.Abs(ref)
	refDB := 10.0 * math.Log10(math.Max(amin, refValue))

	out := make([][]float64, len(x))
	maxDB := math.Inf(-1)

	for i, row := range x {
		out[i] = make([]float64, len(row))
		for j, v := range row {
			db := 10.0*math.Log10(math.Max(amin, v)) - refDB
			out[i][j] = db
		}
		if len(out[i]) > 0 {
			maxDB = math.Max(maxDB, floats.Max(out[i]))
		}
	}

	floor := maxDB - topDB
	for i := range out {
		for j := range out[i] {
			if out[i][j] < floor {
				out[i][j] = floor
			}
		}
	}

	return out, nil
}
