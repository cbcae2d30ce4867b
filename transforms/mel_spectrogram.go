package transforms

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/audioforge/espectro/algorithms/spectral"
	"github.com/audioforge/espectro/logging"
)

// MelSpectrogramConfig configures mel spectrogram extraction
type MelSpectrogramConfig struct {
	SpectrogramConfig
	SampleRate int     `json:"sample_rate"` // default 22050
	NMels      int     `json:"n_mels"`      // default 64
	FMin       float64 `json:"f_min"`       // default 0
	FMax       float64 `json:"f_max"`       // defaults to SampleRate/2
	HTK        bool    `json:"htk"`         // HTK mel scale instead of Slaney
	Norm       string  `json:"norm"`        // filterbank norm, "" or "slaney"
}

// DefaultMelSpectrogramConfig returns the librosa-compatible defaults
func DefaultMelSpectrogramConfig() MelSpectrogramConfig {
	return MelSpectrogramConfig{
		SpectrogramConfig: DefaultSpectrogramConfig(),
		SampleRate:        22050,
		NMels:             64,
		Norm:              "slaney",
	}
}

// MelSpectrogramResult holds a mel spectrogram indexed
// [batch][melBin][timeFrame]
type MelSpectrogramResult struct {
	Data       [][][]float64 `json:"data"`
	Batch      int           `json:"batch"`
	NMels      int           `json:"n_mels"`
	TimeFrames int           `json:"time_frames"`
}

// MelSpectrogram projects power spectrograms onto a mel filterbank. It
// owns a single Spectrogram and a filterbank matrix of shape
// (NMels, NFFT/2+1) computed once at construction; the forward pass is
// one batched matrix multiply per signal.
type MelSpectrogram struct {
	spectrogram *Spectrogram
	fbank       *mat.Dense

	sampleRate int
	nMels      int
	fMin       float64
	fMax       float64

	logger logging.Logger
}

// NewMelSpectrogram creates a new MelSpectrogram transform. FMax
// defaults to SampleRate/2 when unset; the range must satisfy
// 0 <= fmin < fmax <= SampleRate/2 or construction fails with
// *InvalidConfigError.
func NewMelSpectrogram(cfg MelSpectrogramConfig) (*MelSpectrogram, error) {
	if cfg.SampleRate <= 0 {
		return nil, &InvalidConfigError{Field: "sample_rate", Reason: fmt.Sprintf("must be positive, got %d", cfg.SampleRate)}
	}
	if cfg.NMels <= 0 {
		return nil, &InvalidConfigError{Field: "n_mels", Reason: fmt.Sprintf("must be positive, got %d", cfg.NMels)}
	}
	if cfg.FMax == 0 {
		cfg.FMax = float64(cfg.SampleRate) / 2.0
	}

	spectrogram, err := NewSpectrogram(cfg.SpectrogramConfig)
	if err != nil {
		return nil, err
	}

	weights, err := spectral.ComputeFbankMatrix(spectral.FbankParams{
		SampleRate: cfg.SampleRate,
		NFFT:       spectrogram.NFFT(),
		NMels:      cfg.NMels,
		FMin:       cfg.FMin,
		FMax:       cfg.FMax,
		HTK:        cfg.HTK,
		Norm:       cfg.Norm,
	})
	if err != nil {
		return nil, &InvalidConfigError{Field: "fbank", Reason: err.Error()}
	}

	freqBins := spectrogram.STFT().FreqBins()
	fbankData := make([]float64, cfg.NMels*freqBins)
	for m, row := range weights {
		copy(fbankData[m*freqBins:], row)
	}

	m := &MelSpectrogram{
		spectrogram: spectrogram,
		fbank:       mat.NewDense(cfg.NMels, freqBins, fbankData),
		sampleRate:  cfg.SampleRate,
		nMels:       cfg.NMels,
		fMin:        cfg.FMin,
		fMax:        cfg.FMax,
		logger: logging.GetGlobalLogger().WithFields(logging.Fields{
			"component": "mel_spectrogram",
		}),
	}

	m.logger.Debug("mel spectrogram transform initialized", logging.Fields{
		"sample_rate": cfg.SampleRate,
		"n_mels":      cfg.NMels,
		"f_min":       cfg.FMin,
		"f_max":       cfg.FMax,
		"htk":         cfg.HTK,
		"norm":        cfg.Norm,
	})

	return m, nil
}

// Compute computes the mel spectrogram of a (batch, samples) signal,
// producing (batch, NMels, timeFrames)
func (m *MelSpectrogram) Compute(signal Signal) (*MelSpectrogramResult, error) {
	specResult, err := m.spectrogram.Compute(signal)
	if err != nil {
		return nil, err
	}

	data := make([][][]float64, specResult.Batch)
	for b := range data {
		// pack the (freqBins, time) plane for one batched multiply
		planeData := make([]float64, specResult.FreqBins*specResult.TimeFrames)
		for f, row := range specResult.Data[b] {
			copy(planeData[f*specResult.TimeFrames:], row)
		}
		plane := mat.NewDense(specResult.FreqBins, specResult.TimeFrames, planeData)

		var melPlane mat.Dense
		melPlane.Mul(m.fbank, plane)

		data[b] = make([][]float64, m.nMels)
		for mel := 0; mel < m.nMels; mel++ {
			data[b][mel] = mat.Row(nil, mel, &melPlane)
		}
	}

	return &MelSpectrogramResult{
		Data:       data,
		Batch:      specResult.Batch,
		NMels:      m.nMels,
		TimeFrames: specResult.TimeFrames,
	}, nil
}

// FbankMatrix returns a copy of the mel filterbank matrix, shape
// (NMels, NFFT/2+1). The internal matrix is immutable and never shared
// across instances.
func (m *MelSpectrogram) FbankMatrix() *mat.Dense {
	return mat.DenseCopyOf(m.fbank)
}

// Spectrogram returns the owned Spectrogram transform
func (m *MelSpectrogram) Spectrogram() *Spectrogram { return m.spectrogram }

// SampleRate returns the sample rate in Hz
func (m *MelSpectrogram) SampleRate() int { return m.sampleRate }

// NMels returns the number of mel bins
func (m *MelSpectrogram) NMels() int { return m.nMels }

// FMin returns the lowest filterbank frequency in Hz
func (m *MelSpectrogram) FMin() float64 { return m.fMin }

// FMax returns the highest filterbank frequency in Hz
func (m *MelSpectrogram) FMax() float64 { return m.fMax }

// NFFT returns the frame length of the underlying STFT
func (m *MelSpectrogram) NFFT() int { return m.spectrogram.NFFT() }

// HopLength returns the stride of the underlying STFT
func (m *MelSpectrogram) HopLength() int { return m.spectrogram.HopLength() }

// WinLength returns the window length of the underlying STFT
func (m *MelSpectrogram) WinLength() int { return m.spectrogram.WinLength() }

// Power returns the exponent of the underlying Spectrogram
func (m *MelSpectrogram) Power() float64 { return m.spectrogram.Power() }

func (m *MelSpectrogram) String() string {
	return fmt.Sprintf("MelSpectrogram(n_mels:%d, f_min:%g, f_max:%g, n_fft:%d, hop_length:%d, win_length:%d, power:%g)",
		m.nMels, m.fMin, m.fMax, m.NFFT(), m.HopLength(), m.WinLength(), m.Power())
}
