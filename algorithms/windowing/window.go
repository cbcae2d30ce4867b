// Package windowing provides window functions for short-time spectral
// analysis. Windows are precomputed at construction and applied per frame.
//
// Every window supports a periodic variant (denominator N instead of N-1),
// which is the correct choice for spectral analysis with overlapping
// frames. Periodic windows match scipy's get_window(..., fftbins=True),
// which is what librosa uses for its STFT.
package windowing

// Window represents a precomputed window function of fixed size
type Window interface {
	// Apply applies the window to a signal (creates new array)
	Apply(signal []float64) []float64

	// ApplyInPlace applies the window to a signal in-place
	ApplyInPlace(signal []float64) error

	// GetCoefficients returns a copy of the window coefficients
	GetCoefficients() []float64

	// GetSize returns the window size
	GetSize() int

	// GetType returns the window type
	GetType() string
}

// Get constructs a window by name. Periodic selects the DFT-even variant
// used for overlapped spectral analysis. Unknown names fail with
// *UnsupportedWindowError.
func Get(name string, length int, periodic bool) (Window, error) {
	if length <= 0 {
		return nil, &InvalidLengthError{Length: length, Target: length}
	}

	switch name {
	case "hann":
		return NewHann(length, periodic), nil
	case "hamming":
		return NewHamming(length, periodic), nil
	case "blackman":
		return NewBlackman(length, periodic), nil
	case "blackman_harris":
		return NewBlackmanHarris(length, periodic), nil
	case "bartlett":
		return NewBartlett(length, periodic), nil
	case "welch":
		return NewWelch(length, periodic), nil
	case "rectangular", "boxcar", "ones":
		return NewRectangular(length), nil
	default:
		return nil, &UnsupportedWindowError{Name: name}
	}
}
