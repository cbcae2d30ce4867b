package windowing

import (
	"fmt"
	"math"
)

// BlackmanHarris represents a 4-term Blackman-Harris window function
type BlackmanHarris struct {
	size         int
	periodic     bool
	coefficients []float64
}

// NewBlackmanHarris creates a new Blackman-Harris window
func NewBlackmanHarris(size int, periodic bool) *BlackmanHarris {
	b := &BlackmanHarris{
		size:     size,
		periodic: periodic,
	}
	b.generate()
	return b
}

// generate creates Blackman-Harris window coefficients
func (b *BlackmanHarris) generate() {
	b.coefficients = make([]float64, b.size)

	if b.size == 1 {
		b.coefficients[0] = 1.0
		return
	}

	denominator := float64(b.size - 1)
	if b.periodic {
		denominator = float64(b.size)
	}

	a0, a1, a2, a3 := 0.35875, 0.48829, 0.14128, 0.01168

	for i := 0; i < b.size; i++ {
		arg := 2 * math.Pi * float64(i) / denominator
		b.coefficients[i] = a0 - a1*math.Cos(arg) + a2*math.Cos(2*arg) - a3*math.Cos(3*arg)
	}
}

// Apply applies the window to a signal (creates new array)
func (b *BlackmanHarris) Apply(signal []float64) []float64 {
	if len(signal) != b.size {
		return nil
	}

	windowed := make([]float64, b.size)
	for i := 0; i < b.size; i++ {
		windowed[i] = signal[i] * b.coefficients[i]
	}

	return windowed
}

// ApplyInPlace applies the window to a signal in-place
func (b *BlackmanHarris) ApplyInPlace(signal []float64) error {
	if len(signal) != b.size {
		return fmt.Errorf("signal length (%d) doesn't match window size (%d)", len(signal), b.size)
	}

	for i := 0; i < b.size; i++ {
		signal[i] *= b.coefficients[i]
	}

	return nil
}

// GetCoefficients returns a copy of the window coefficients
func (b *BlackmanHarris) GetCoefficients() []float64 {
	coeffs := make([]float64, len(b.coefficients))
	copy(coeffs, b.coefficients)
	return coeffs
}

// GetSize returns the window size
func (b *BlackmanHarris) GetSize() int {
	return b.size
}

// GetType returns the window type
func (b *BlackmanHarris) GetType() string {
	return "blackman_harris"
}
