package transforms

import (
	"fmt"
	"runtime"
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/audioforge/espectro/algorithms/spectral"
	"github.com/audioforge/espectro/algorithms/windowing"
	"github.com/audioforge/espectro/logging"
)

// Supported pad modes for centered framing
const (
	PadModeConstant = "constant"
	PadModeReflect  = "reflect"
)

// STFTConfig configures the Short-Time Fourier Transform
type STFTConfig struct {
	NFFT      int    `json:"n_fft"`      // frame length (default 2048)
	HopLength int    `json:"hop_length"` // stride; defaults to WinLength/4
	WinLength int    `json:"win_length"` // window length; defaults to NFFT
	Window    string `json:"window"`     // window name (default "hann")
	Center    bool   `json:"center"`     // pad so frame t is centered at t*HopLength
	PadMode   string `json:"pad_mode"`   // "constant" or "reflect"
	Trainable bool   `json:"trainable"`  // expose the folded weight for gradient updates
}

// DefaultSTFTConfig returns the librosa-compatible defaults
func DefaultSTFTConfig() STFTConfig {
	return STFTConfig{
		NFFT:    2048,
		Window:  "hann",
		Center:  true,
		PadMode: PadModeReflect,
	}
}

// STFTResult holds the complex spectra of a batch of signals as
// separate real and imaginary planes, each indexed
// [batch][freqBin][timeFrame]. FreqBins is always NFFT/2+1.
type STFTResult struct {
	Real       [][][]float64 `json:"real"`
	Imag       [][][]float64 `json:"imag"`
	Batch      int           `json:"batch"`
	FreqBins   int           `json:"freq_bins"`
	TimeFrames int           `json:"time_frames"`
	NFFT       int           `json:"n_fft"`
	HopLength  int           `json:"hop_length"`
}

// STFT computes the Short-Time Fourier Transform of batched signals.
//
// The centered window and the DFT basis are folded into a single pair
// of weight matrices at construction, so each frame costs one linear
// projection (the strided-convolution formulation). The weights are
// frozen by default; with Trainable set they can be updated through
// ApplyGradient, in which case the caller must serialize updates
// against concurrent Compute calls.
type STFT struct {
	cfg      STFTConfig
	freqBins int

	// folded window*DFT weights, shape (freqBins, NFFT)
	weightReal *mat.Dense
	weightImag *mat.Dense

	logger logging.Logger
}

// NewSTFT creates a new STFT transform. All parameter validation
// happens here: win_length > n_fft or an unknown pad mode fail with
// *InvalidConfigError, an unknown window name with
// *windowing.UnsupportedWindowError.
func NewSTFT(cfg STFTConfig) (*STFT, error) {
	if cfg.NFFT <= 0 {
		return nil, &InvalidConfigError{Field: "n_fft", Reason: fmt.Sprintf("must be positive, got %d", cfg.NFFT)}
	}

	// By default, use the entire frame
	if cfg.WinLength <= 0 {
		cfg.WinLength = cfg.NFFT
	}
	if cfg.HopLength <= 0 {
		cfg.HopLength = cfg.WinLength / 4
	}
	if cfg.Window == "" {
		cfg.Window = "hann"
	}

	if cfg.WinLength > cfg.NFFT {
		return nil, &InvalidConfigError{
			Field:  "win_length",
			Reason: fmt.Sprintf("win_length (%d) must not exceed n_fft (%d)", cfg.WinLength, cfg.NFFT),
		}
	}
	if cfg.HopLength <= 0 {
		return nil, &InvalidConfigError{Field: "hop_length", Reason: fmt.Sprintf("must be positive, got %d", cfg.HopLength)}
	}
	if cfg.PadMode != PadModeConstant && cfg.PadMode != PadModeReflect {
		return nil, &InvalidConfigError{
			Field:  "pad_mode",
			Reason: fmt.Sprintf("must be %q or %q, got %q", PadModeConstant, PadModeReflect, cfg.PadMode),
		}
	}

	window, err := windowing.Get(cfg.Window, cfg.WinLength, true)
	if err != nil {
		return nil, err
	}

	paddedWindow, err := windowing.PadCenter(window.GetCoefficients(), cfg.NFFT)
	if err != nil {
		return nil, err
	}

	s := &STFT{
		cfg:      cfg,
		freqBins: cfg.NFFT/2 + 1,
		logger: logging.GetGlobalLogger().WithFields(logging.Fields{
			"component": "stft",
		}),
	}
	s.foldWeights(paddedWindow)

	s.logger.Debug("stft transform initialized", logging.Fields{
		"n_fft":      cfg.NFFT,
		"hop_length": cfg.HopLength,
		"win_length": cfg.WinLength,
		"window":     cfg.Window,
		"center":     cfg.Center,
		"pad_mode":   cfg.PadMode,
	})

	return s, nil
}

// foldWeights multiplies the centered window into the first freqBins
// columns of the DFT basis, producing the per-frame projection weights
func (s *STFT) foldWeights(paddedWindow []float64) {
	dftReal, dftImag := spectral.DFTMatrix(s.cfg.NFFT)

	realData := make([]float64, s.freqBins*s.cfg.NFFT)
	imagData := make([]float64, s.freqBins*s.cfg.NFFT)

	for k := 0; k < s.freqBins; k++ {
		for n := 0; n < s.cfg.NFFT; n++ {
			realData[k*s.cfg.NFFT+n] = paddedWindow[n] * dftReal[n][k]
			imagData[k*s.cfg.NFFT+n] = paddedWindow[n] * dftImag[n][k]
		}
	}

	s.weightReal = mat.NewDense(s.freqBins, s.cfg.NFFT, realData)
	s.weightImag = mat.NewDense(s.freqBins, s.cfg.NFFT, imagData)
}

// numFrames returns the number of full frames for a padded length;
// a trailing partial frame is dropped
func (s *STFT) numFrames(paddedLen int) int {
	if paddedLen < s.cfg.NFFT {
		return 0
	}
	return (paddedLen-s.cfg.NFFT)/s.cfg.HopLength + 1
}

// Compute computes the STFT of a (batch, samples) signal. With Center
// set, each waveform is first padded by NFFT/2 samples on both sides
// using the configured pad mode so that frame t is centered at sample
// t*HopLength.
func (s *STFT) Compute(signal Signal) (*STFTResult, error) {
	if err := signal.validate(); err != nil {
		return nil, err
	}

	samples := len(signal[0])
	paddedLen := samples
	if s.cfg.Center {
		paddedLen += 2 * (s.cfg.NFFT / 2)
	}

	numFrames := s.numFrames(paddedLen)
	if numFrames <= 0 {
		return nil, &InvalidShapeError{
			Reason: fmt.Sprintf("signal too short: %d samples yield no full %d-sample frame", samples, s.cfg.NFFT),
		}
	}

	batch := len(signal)
	result := &STFTResult{
		Real:       make([][][]float64, batch),
		Imag:       make([][][]float64, batch),
		Batch:      batch,
		FreqBins:   s.freqBins,
		TimeFrames: numFrames,
		NFFT:       s.cfg.NFFT,
		HopLength:  s.cfg.HopLength,
	}

	numWorkers := s.optimalWorkerCount(batch)
	jobs := make(chan int, batch)

	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for b := range jobs {
				result.Real[b], result.Imag[b] = s.computeRow(signal[b], numFrames)
			}
		}()
	}

	for b := 0; b < batch; b++ {
		jobs <- b
	}
	close(jobs)

	wg.Wait()

	s.logger.Debug("stft computed", logging.Fields{
		"batch":       batch,
		"freq_bins":   s.freqBins,
		"time_frames": numFrames,
	})

	return result, nil
}

// computeRow projects all frames of one waveform against the folded
// weights with two matrix multiplies
func (s *STFT) computeRow(row []float64, numFrames int) (realPlane, imagPlane [][]float64) {
	padded := row
	if s.cfg.Center {
		padded = padSignal(row, s.cfg.NFFT/2, s.cfg.PadMode)
	}

	// frame matrix: column t holds frame t
	frameData := make([]float64, s.cfg.NFFT*numFrames)
	for t := 0; t < numFrames; t++ {
		start := t * s.cfg.HopLength
		for n := 0; n < s.cfg.NFFT; n++ {
			frameData[n*numFrames+t] = padded[start+n]
		}
	}
	frames := mat.NewDense(s.cfg.NFFT, numFrames, frameData)

	var specReal, specImag mat.Dense
	specReal.Mul(s.weightReal, frames)
	specImag.Mul(s.weightImag, frames)

	realPlane = make([][]float64, s.freqBins)
	imagPlane = make([][]float64, s.freqBins)
	for k := 0; k < s.freqBins; k++ {
		realPlane[k] = mat.Row(nil, k, &specReal)
		imagPlane[k] = mat.Row(nil, k, &specImag)
	}

	return realPlane, imagPlane
}

// optimalWorkerCount sizes the worker pool to the batch
func (s *STFT) optimalWorkerCount(batch int) int {
	numCPU := runtime.NumCPU()
	if batch < numCPU {
		return batch
	}
	return numCPU
}

// Weights returns copies of the folded real and imaginary weight
// matrices, shape (NFFT/2+1, NFFT)
func (s *STFT) Weights() (realW, imagW *mat.Dense) {
	return mat.DenseCopyOf(s.weightReal), mat.DenseCopyOf(s.weightImag)
}

// ApplyGradient performs one gradient-descent step on the folded
// weights: weight -= learningRate * grad. It fails unless the
// transform was constructed with Trainable set. Callers drive this
// from an external training loop and must not run it concurrently
// with Compute.
func (s *STFT) ApplyGradient(gradReal, gradImag *mat.Dense, learningRate float64) error {
	if !s.cfg.Trainable {
		return &InvalidConfigError{Field: "trainable", Reason: "transform weights are frozen"}
	}

	rr, rc := gradReal.Dims()
	ir, ic := gradImag.Dims()
	if rr != s.freqBins || rc != s.cfg.NFFT || ir != s.freqBins || ic != s.cfg.NFFT {
		return &InvalidShapeError{
			Reason: fmt.Sprintf("gradient must be (%d, %d), got (%d, %d) and (%d, %d)",
				s.freqBins, s.cfg.NFFT, rr, rc, ir, ic),
		}
	}

	var stepReal, stepImag mat.Dense
	stepReal.Scale(learningRate, gradReal)
	stepImag.Scale(learningRate, gradImag)

	s.weightReal.Sub(s.weightReal, &stepReal)
	s.weightImag.Sub(s.weightImag, &stepImag)

	return nil
}

// NFFT returns the frame length
func (s *STFT) NFFT() int { return s.cfg.NFFT }

// HopLength returns the stride between frames
func (s *STFT) HopLength() int { return s.cfg.HopLength }

// WinLength returns the window length before center padding
func (s *STFT) WinLength() int { return s.cfg.WinLength }

// FreqBins returns the number of non-redundant frequency bins, NFFT/2+1
func (s *STFT) FreqBins() int { return s.freqBins }

// WindowName returns the configured window name
func (s *STFT) WindowName() string { return s.cfg.Window }

func (s *STFT) String() string {
	return fmt.Sprintf("STFT(n_fft:%d, hop_length:%d, win_length:%d, window:%s)",
		s.cfg.NFFT, s.cfg.HopLength, s.cfg.WinLength, s.cfg.Window)
}
