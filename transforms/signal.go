// Package transforms implements the audio feature-extraction pipeline:
// STFT, power spectrogram, mel spectrogram, and log-mel (decibel)
// spectrogram. Each stage owns its dependency and exposes a single pure
// Compute method, so the chain is
//
//	Signal -> STFT -> Spectrogram -> MelSpectrogram -> LogMelSpectrogram
//
// All parameter matrices (window, DFT basis, mel filterbank) are built
// once at construction and treated as read-only afterwards, which makes
// concurrent Compute calls on the same instance safe. The optional
// trainable mode on STFT mutates the folded weight and requires external
// single-writer synchronization.
//
// For a fixed configuration the pipeline output matches librosa within
// tight numerical tolerance in double precision.
package transforms

import "fmt"

// Signal is a batch of real-valued waveforms, shape (batch, samples).
// All batch elements must have the same number of samples.
type Signal [][]float64

// validate checks that the signal is a proper 2-D buffer
func (s Signal) validate() error {
	if len(s) == 0 {
		return &InvalidShapeError{Reason: "signal batch is empty"}
	}

	samples := len(s[0])
	if samples == 0 {
		return &InvalidShapeError{Reason: "signal has zero samples"}
	}

	for b, row := range s {
		if len(row) != samples {
			return &InvalidShapeError{
				Reason: fmt.Sprintf("ragged batch: element 0 has %d samples, element %d has %d",
					samples, b, len(row)),
			}
		}
	}

	return nil
}

// reflectIndex maps an out-of-range index into [0, n) by mirroring
// around the signal edges without repeating them (numpy "reflect")
func reflectIndex(i, n int) int {
	if n == 1 {
		return 0
	}

	period := 2 * (n - 1)
	i = ((i % period) + period) % period
	if i >= n {
		i = period - i
	}
	return i
}

// padSignal pads a single waveform by pad samples on each side using
// the given mode ("constant" zero fill or "reflect" mirroring)
func padSignal(row []float64, pad int, mode string) []float64 {
	if pad <= 0 {
		return row
	}

	padded := make([]float64, len(row)+2*pad)

	switch mode {
	case PadModeReflect:
		for j := range padded {
			padded[j] = row[reflectIndex(j-pad, len(row))]
		}
	default: // constant
		copy(padded[pad:], row)
	}

	return padded
}
