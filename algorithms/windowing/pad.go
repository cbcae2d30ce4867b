package windowing

// PadCenter zero-pads a window symmetrically so that it is centered
// within targetLength samples. When the total padding is odd the extra
// zero goes on the right, matching librosa's pad_center. Fails with
// *InvalidLengthError if targetLength is shorter than the window.
func PadCenter(window []float64, targetLength int) ([]float64, error) {
	n := len(window)
	if targetLength < n {
		return nil, &InvalidLengthError{Length: n, Target: targetLength}
	}

	lpad := (targetLength - n) / 2
	padded := make([]float64, targetLength)
	copy(padded[lpad:], window)

	return padded, nil
}
