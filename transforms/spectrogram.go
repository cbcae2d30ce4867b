package transforms

import (
	"fmt"
	"math"

	"github.com/audioforge/espectro/logging"
)

// SpectrogramConfig configures power spectrogram extraction
type SpectrogramConfig struct {
	STFTConfig
	Power float64 `json:"power"` // spectrogram exponent (default 2.0)
}

// DefaultSpectrogramConfig returns the default power-spectrogram config
func DefaultSpectrogramConfig() SpectrogramConfig {
	return SpectrogramConfig{
		STFTConfig: DefaultSTFTConfig(),
		Power:      2.0,
	}
}

// SpectrogramResult holds a non-negative power (or magnitude)
// spectrogram indexed [batch][freqBin][timeFrame]
type SpectrogramResult struct {
	Data       [][][]float64 `json:"data"`
	Batch      int           `json:"batch"`
	FreqBins   int           `json:"freq_bins"`
	TimeFrames int           `json:"time_frames"`
}

// Spectrogram computes power spectrograms from batched signals. It owns
// a single STFT and reduces its complex output with real^2 + imag^2;
// with Power p other than 2.0 the result is raised to p/2, so p=1.0
// yields magnitude and p=2.0 energy.
type Spectrogram struct {
	stft   *STFT
	power  float64
	logger logging.Logger
}

// NewSpectrogram creates a new Spectrogram transform
func NewSpectrogram(cfg SpectrogramConfig) (*Spectrogram, error) {
	if cfg.Power == 0 {
		cfg.Power = 2.0
	}
	if cfg.Power < 0 {
		return nil, &InvalidConfigError{Field: "power", Reason: fmt.Sprintf("must be positive, got %g", cfg.Power)}
	}

	stft, err := NewSTFT(cfg.STFTConfig)
	if err != nil {
		return nil, err
	}

	return &Spectrogram{
		stft:  stft,
		power: cfg.Power,
		logger: logging.GetGlobalLogger().WithFields(logging.Fields{
			"component": "spectrogram",
		}),
	}, nil
}

// Compute computes the spectrogram of a (batch, samples) signal,
// producing (batch, NFFT/2+1, timeFrames)
func (sp *Spectrogram) Compute(signal Signal) (*SpectrogramResult, error) {
	stftResult, err := sp.stft.Compute(signal)
	if err != nil {
		return nil, err
	}

	data := make([][][]float64, stftResult.Batch)
	for b := range data {
		data[b] = make([][]float64, stftResult.FreqBins)
		for f := range data[b] {
			row := make([]float64, stftResult.TimeFrames)
			realRow := stftResult.Real[b][f]
			imagRow := stftResult.Imag[b][f]

			for t := range row {
				row[t] = realRow[t]*realRow[t] + imagRow[t]*imagRow[t]
			}

			if sp.power != 2.0 {
				for t := range row {
					row[t] = math.Pow(row[t], sp.power/2.0)
				}
			}

			data[b][f] = row
		}
	}

	return &SpectrogramResult{
		Data:       data,
		Batch:      stftResult.Batch,
		FreqBins:   stftResult.FreqBins,
		TimeFrames: stftResult.TimeFrames,
	}, nil
}

// STFT returns the owned STFT transform
func (sp *Spectrogram) STFT() *STFT { return sp.stft }

// Power returns the spectrogram exponent
func (sp *Spectrogram) Power() float64 { return sp.power }

// NFFT returns the frame length of the owned STFT
func (sp *Spectrogram) NFFT() int { return sp.stft.NFFT() }

// HopLength returns the stride of the owned STFT
func (sp *Spectrogram) HopLength() int { return sp.stft.HopLength() }

// WinLength returns the window length of the owned STFT
func (sp *Spectrogram) WinLength() int { return sp.stft.WinLength() }

func (sp *Spectrogram) String() string {
	return fmt.Sprintf("Spectrogram(n_fft:%d, hop_length:%d, win_length:%d, power:%g)",
		sp.NFFT(), sp.HopLength(), sp.WinLength(), sp.power)
}
