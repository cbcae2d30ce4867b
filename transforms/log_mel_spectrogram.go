package transforms

import (
	"fmt"

	"github.com/audioforge/espectro/algorithms/spectral"
	"github.com/audioforge/espectro/logging"
)

// LogMelSpectrogramConfig configures log-mel (decibel) spectrogram
// extraction
type LogMelSpectrogramConfig struct {
	MelSpectrogramConfig
	Ref   float64 `json:"ref"`    // dB reference power (default 1.0)
	AMin  float64 `json:"amin"`   // power floor (default 1e-10)
	TopDB float64 `json:"top_db"` // dynamic range cap (default 80.0)
}

// DefaultLogMelSpectrogramConfig returns the librosa-compatible defaults
func DefaultLogMelSpectrogramConfig() LogMelSpectrogramConfig {
	return LogMelSpectrogramConfig{
		MelSpectrogramConfig: DefaultMelSpectrogramConfig(),
		Ref:                  1.0,
		AMin:                 1e-10,
		TopDB:                80.0,
	}
}

// LogMelSpectrogram converts mel spectrograms to the decibel scale,
// also known as LogFBank features. It owns a single MelSpectrogram and
// applies the power-to-dB conversion per batch element, so the topDB
// floor is relative to each element's own maximum.
type LogMelSpectrogram struct {
	melSpectrogram *MelSpectrogram

	ref   float64
	aMin  float64
	topDB float64

	logger logging.Logger
}

// NewLogMelSpectrogram creates a new LogMelSpectrogram transform.
// Non-positive AMin or TopDB fail with *InvalidConfigError.
func NewLogMelSpectrogram(cfg LogMelSpectrogramConfig) (*LogMelSpectrogram, error) {
	if cfg.Ref == 0 {
		cfg.Ref = 1.0
	}
	if cfg.AMin == 0 {
		cfg.AMin = 1e-10
	}
	if cfg.TopDB == 0 {
		cfg.TopDB = 80.0
	}

	if cfg.AMin < 0 {
		return nil, &InvalidConfigError{Field: "amin", Reason: fmt.Sprintf("must be positive, got %g", cfg.AMin)}
	}
	if cfg.TopDB < 0 {
		return nil, &InvalidConfigError{Field: "top_db", Reason: fmt.Sprintf("must be positive, got %g", cfg.TopDB)}
	}

	melSpectrogram, err := NewMelSpectrogram(cfg.MelSpectrogramConfig)
	if err != nil {
		return nil, err
	}

	return &LogMelSpectrogram{
		melSpectrogram: melSpectrogram,
		ref:            cfg.Ref,
		aMin:           cfg.AMin,
		topDB:          cfg.TopDB,
		logger: logging.GetGlobalLogger().WithFields(logging.Fields{
			"component": "log_mel_spectrogram",
		}),
	}, nil
}

// Compute computes the log-mel spectrogram of a (batch, samples)
// signal; the output shape matches MelSpectrogram, with values in
// decibels relative to the configured reference
func (l *LogMelSpectrogram) Compute(signal Signal) (*MelSpectrogramResult, error) {
	melResult, err := l.melSpectrogram.Compute(signal)
	if err != nil {
		return nil, err
	}

	data := make([][][]float64, melResult.Batch)
	for b := range data {
		plane, err := spectral.PowerToDBMatrix(melResult.Data[b], l.ref, l.aMin, l.topDB)
		if err != nil {
			return nil, &InvalidConfigError{Field: "power_to_db", Reason: err.Error()}
		}
		data[b] = plane
	}

	return &MelSpectrogramResult{
		Data:       data,
		Batch:      melResult.Batch,
		NMels:      melResult.NMels,
		TimeFrames: melResult.TimeFrames,
	}, nil
}

// MelSpectrogram returns the owned MelSpectrogram transform
func (l *LogMelSpectrogram) MelSpectrogram() *MelSpectrogram { return l.melSpectrogram }

// Ref returns the dB reference power
func (l *LogMelSpectrogram) Ref() float64 { return l.ref }

// AMin returns the power floor
func (l *LogMelSpectrogram) AMin() float64 { return l.aMin }

// TopDB returns the dynamic range cap in dB
func (l *LogMelSpectrogram) TopDB() float64 { return l.topDB }

func (l *LogMelSpectrogram) String() string {
	m := l.melSpectrogram
	return fmt.Sprintf("LogMelSpectrogram(n_mels:%d, f_min:%g, f_max:%g, n_fft:%d, hop_length:%d, win_length:%d, power:%g)",
		m.NMels(), m.FMin(), m.FMax(), m.NFFT(), m.HopLength(), m.WinLength(), m.Power())
}
