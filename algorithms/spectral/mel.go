package spectral

import (
	"fmt"
	"math"
)

// Mel frequency conversions and filterbank construction, numerically
// faithful to librosa so that downstream mel spectrograms agree with the
// reference implementation.

// Slaney mel scale constants: linear below the break frequency,
// logarithmic above it
const (
	slaneyFMin     = 0.0
	slaneyFSp      = 200.0 / 3.0
	slaneyMinLogHz = 1000.0
	slaneyMinLog   = (slaneyMinLogHz - slaneyFMin) / slaneyFSp
)

func slaneyLogStep() float64 {
	return math.Log(6.4) / 27.0
}

// HzToMel converts frequency in Hz to the mel scale. With htk set it
// uses the HTK formula, otherwise the Slaney (Auditory Toolbox) scale.
func HzToMel(hz float64, htk bool) float64 {
	if htk {
		return 2595.0 * math.Log10(1.0+hz/700.0)
	}

	mel := (hz - slaneyFMin) / slaneyFSp
	if hz >= slaneyMinLogHz {
		mel = slaneyMinLog + math.Log(hz/slaneyMinLogHz)/slaneyLogStep()
	}
	return mel
}

// MelToHz converts mel scale to frequency in Hz, inverting HzToMel
func MelToHz(mel float64, htk bool) float64 {
	if htk {
		return 700.0 * (math.Pow(10.0, mel/2595.0) - 1.0)
	}

	hz := slaneyFMin + slaneyFSp*mel
	if mel >= slaneyMinLog {
		hz = slaneyMinLogHz * math.Exp(slaneyLogStep()*(mel-slaneyMinLog))
	}
	return hz
}

// MelFrequencies returns n frequencies in Hz spaced uniformly on the mel
// scale between fmin and fmax inclusive
func MelFrequencies(n int, fmin, fmax float64, htk bool) []float64 {
	minMel := HzToMel(fmin, htk)
	maxMel := HzToMel(fmax, htk)

	freqs := make([]float64, n)
	for i := range freqs {
		mel := minMel
		if n > 1 {
			mel = minMel + (maxMel-minMel)*float64(i)/float64(n-1)
		}
		freqs[i] = MelToHz(mel, htk)
	}
	return freqs
}

// FFTFrequencies returns the center frequency in Hz of each of the
// nFFT/2+1 non-redundant DFT bins for the given sample rate
func FFTFrequencies(sampleRate, nFFT int) []float64 {
	freqs := make([]float64, nFFT/2+1)
	for k := range freqs {
		freqs[k] = float64(k) * float64(sampleRate) / float64(nFFT)
	}
	return freqs
}

// FbankParams configures mel filterbank construction
type FbankParams struct {
	SampleRate int     `json:"sample_rate"`
	NFFT       int     `json:"n_fft"`
	NMels      int     `json:"n_mels"`
	FMin       float64 `json:"f_min"`
	FMax       float64 `json:"f_max"` // <= SampleRate/2
	HTK        bool    `json:"htk"`   // HTK mel scale instead of Slaney
	Norm       string  `json:"norm"`  // "" or "slaney"
}

// ComputeFbankMatrix builds a mel filterbank matrix of shape
// (NMels, NFFT/2+1) mapping linear-frequency power bins to mel bins with
// overlapping triangular filters, identical to librosa.filters.mel.
// With Norm "slaney" each filter is scaled by 2/bandwidth so the
// filterbank responses carry comparable energy.
func ComputeFbankMatrix(p FbankParams) ([][]float64, error) {
	if p.SampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", p.SampleRate)
	}
	if p.NFFT <= 0 {
		return nil, fmt.Errorf("n_fft must be positive, got %d", p.NFFT)
	}
	if p.NMels <= 0 {
		return nil, fmt.Errorf("n_mels must be positive, got %d", p.NMels)
	}
	nyquist := float64(p.SampleRate) / 2.0
	if p.FMin < 0 || p.FMin >= p.FMax || p.FMax > nyquist {
		return nil, fmt.Errorf("mel frequency range must satisfy 0 <= fmin < fmax <= %g, got [%g, %g]",
			nyquist, p.FMin, p.FMax)
	}
	if p.Norm != "" && p.Norm != "slaney" {
		return nil, fmt.Errorf("unsupported filterbank norm %q", p.Norm)
	}

	fftFreqs := FFTFrequencies(p.SampleRate, p.NFFT)

	// n_mels+2 mel band edges; filter m spans edges [m, m+2] with its
	// peak at edge m+1
	melF := MelFrequencies(p.NMels+2, p.FMin, p.FMax, p.HTK)

	fdiff := make([]float64, len(melF)-1)
	for i := range fdiff {
		fdiff[i] = melF[i+1] - melF[i]
	}

	weights := make([][]float64, p.NMels)
	for m := range weights {
		weights[m] = make([]float64, len(fftFreqs))

		for k, f := range fftFreqs {
			lower := (f - melF[m]) / fdiff[m]
			upper := (melF[m+2] - f) / fdiff[m+1]

			w := math.Min(lower, upper)
			if w < 0 {
				w = 0
			}
			weights[m][k] = w
		}

		if p.Norm == "slaney" {
			enorm := 2.0 / (melF[m+2] - melF[m])
			for k := range weights[m] {
				weights[m][k] *= enorm
			}
		}
	}

	return weights, nil
}
