package transforms

import (
	"math"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"gonum.org/v1/gonum/mat"

	"github.com/audioforge/espectro/algorithms/spectral"
	"github.com/audioforge/espectro/algorithms/windowing"
)

// testSignal generates a deterministic waveform: a mix of sinusoids
// plus seeded pseudo-noise, amplitude within [-1, 1]
func testSignal(n int, seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))

	signal := make([]float64, n)
	for i := range signal {
		ti := float64(i) / 16000.0
		signal[i] = 0.4*math.Sin(2*math.Pi*440*ti) +
			0.3*math.Sin(2*math.Pi*1375*ti) +
			0.2*math.Cos(2*math.Pi*3300*ti) +
			0.1*(rng.Float64()*2.0-1.0)
	}
	return signal
}

func TestNewSTFTValidation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     STFTConfig
		wantCfg bool // expect *InvalidConfigError, else *windowing.UnsupportedWindowError
	}{
		{"win_length exceeds n_fft", STFTConfig{NFFT: 512, WinLength: 1024, PadMode: PadModeConstant}, true},
		{"bad pad mode", STFTConfig{NFFT: 512, PadMode: "unsupported"}, true},
		{"negative n_fft", STFTConfig{NFFT: -1, PadMode: PadModeConstant}, true},
		{"unknown window", STFTConfig{NFFT: 512, Window: "flat_top", PadMode: PadModeConstant}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSTFT(tt.cfg)
			require.Error(t, err)

			if tt.wantCfg {
				var cfgErr *InvalidConfigError
				assert.ErrorAs(t, err, &cfgErr)
			} else {
				var winErr *windowing.UnsupportedWindowError
				assert.ErrorAs(t, err, &winErr)
			}
		})
	}
}

func TestSTFTDefaults(t *testing.T) {
	s, err := NewSTFT(DefaultSTFTConfig())
	require.NoError(t, err)

	assert.Equal(t, 2048, s.NFFT())
	assert.Equal(t, 2048, s.WinLength())
	assert.Equal(t, 512, s.HopLength()) // win_length/4
	assert.Equal(t, 1025, s.FreqBins())
	assert.Equal(t, "hann", s.WindowName())
}

// The folded-weight projection must agree with framing + windowing +
// FFT done explicitly.
func TestSTFTMatchesFFT(t *testing.T) {
	const (
		nFFT = 256
		hop  = 64
	)

	cfg := STFTConfig{NFFT: nFFT, HopLength: hop, Window: "hann", Center: true, PadMode: PadModeConstant}
	s, err := NewSTFT(cfg)
	require.NoError(t, err)

	signal := Signal{testSignal(2000, 7), testSignal(2000, 13)}
	result, err := s.Compute(signal)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Batch)
	assert.Equal(t, nFFT/2+1, result.FreqBins)

	window := windowing.NewHann(nFFT, true)
	fft := spectral.NewFFT()

	for b := range signal {
		padded := padSignal(signal[b], nFFT/2, PadModeConstant)

		for frame := 0; frame < result.TimeFrames; frame++ {
			buf := make([]float64, nFFT)
			copy(buf, padded[frame*hop:frame*hop+nFFT])
			require.NoError(t, window.ApplyInPlace(buf))

			spectrum := fft.Compute(buf)
			for k := 0; k < result.FreqBins; k++ {
				assert.InDelta(t, real(spectrum[k]), result.Real[b][k][frame], 1e-9,
					"batch %d frame %d bin %d real", b, frame, k)
				assert.InDelta(t, imag(spectrum[k]), result.Imag[b][k][frame], 1e-9,
					"batch %d frame %d bin %d imag", b, frame, k)
			}
		}
	}
}

func TestSTFTFrameCount(t *testing.T) {
	tests := []struct {
		name    string
		samples int
		nFFT    int
		hop     int
		center  bool
	}{
		{"centered even division", 1600, 400, 160, true},
		{"centered ragged division", 1601, 400, 160, true},
		{"uncentered ragged division", 1000, 256, 100, false},
		{"uncentered exact fit", 256, 256, 64, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewSTFT(STFTConfig{
				NFFT: tt.nFFT, HopLength: tt.hop, Center: tt.center, PadMode: PadModeConstant,
			})
			require.NoError(t, err)

			result, err := s.Compute(Signal{make([]float64, tt.samples)})
			require.NoError(t, err)

			paddedLen := tt.samples
			if tt.center {
				paddedLen += 2 * (tt.nFFT / 2)
			}
			want := (paddedLen-tt.nFFT)/tt.hop + 1

			assert.Equal(t, want, result.TimeFrames)
			for k := range result.Real[0] {
				assert.Len(t, result.Real[0][k], want)
			}
		})
	}
}

func TestSTFTSignalTooShort(t *testing.T) {
	s, err := NewSTFT(STFTConfig{NFFT: 512, HopLength: 128, Center: false, PadMode: PadModeConstant})
	require.NoError(t, err)

	_, err = s.Compute(Signal{make([]float64, 100)})

	var shapeErr *InvalidShapeError
	require.ErrorAs(t, err, &shapeErr)
}

func TestSTFTInvalidSignalShape(t *testing.T) {
	s, err := NewSTFT(STFTConfig{NFFT: 64, HopLength: 16, Center: true, PadMode: PadModeConstant})
	require.NoError(t, err)

	var shapeErr *InvalidShapeError

	_, err = s.Compute(Signal{})
	require.ErrorAs(t, err, &shapeErr)

	_, err = s.Compute(Signal{{}})
	require.ErrorAs(t, err, &shapeErr)

	_, err = s.Compute(Signal{make([]float64, 128), make([]float64, 64)})
	require.ErrorAs(t, err, &shapeErr)
}

func TestReflectPadding(t *testing.T) {
	padded := padSignal([]float64{1, 2, 3, 4}, 2, PadModeReflect)
	assert.Equal(t, []float64{3, 2, 1, 2, 3, 4, 3, 2}, padded)

	padded = padSignal([]float64{1, 2, 3, 4}, 2, PadModeConstant)
	assert.Equal(t, []float64{0, 0, 1, 2, 3, 4, 0, 0}, padded)

	// padding wider than the signal keeps mirroring
	padded = padSignal([]float64{1, 2}, 3, PadModeReflect)
	assert.Equal(t, []float64{2, 1, 2, 1, 2, 1, 2, 1}, padded)
}

func TestSTFTIdempotentConstruction(t *testing.T) {
	cfg := STFTConfig{NFFT: 400, HopLength: 160, Window: "hann", Center: true, PadMode: PadModeConstant}

	a, err := NewSTFT(cfg)
	require.NoError(t, err)
	b, err := NewSTFT(cfg)
	require.NoError(t, err)

	aReal, aImag := a.Weights()
	bReal, bImag := b.Weights()

	assert.True(t, mat.Equal(aReal, bReal))
	assert.True(t, mat.Equal(aImag, bImag))
}

func TestSTFTConcurrentCompute(t *testing.T) {
	defer goleak.VerifyNone(t)

	s, err := NewSTFT(STFTConfig{NFFT: 256, HopLength: 128, Center: true, PadMode: PadModeReflect})
	require.NoError(t, err)

	signal := Signal{testSignal(4000, 3), testSignal(4000, 4), testSignal(4000, 5)}

	reference, err := s.Compute(signal)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			result, err := s.Compute(signal)
			assert.NoError(t, err)
			assert.Equal(t, reference.Real, result.Real)
			assert.Equal(t, reference.Imag, result.Imag)
		}()
	}
	wg.Wait()
}

func TestSTFTFrozenWeights(t *testing.T) {
	s, err := NewSTFT(STFTConfig{NFFT: 64, HopLength: 16, Center: true, PadMode: PadModeConstant})
	require.NoError(t, err)

	grad := mat.NewDense(33, 64, nil)
	err = s.ApplyGradient(grad, grad, 0.01)

	var cfgErr *InvalidConfigError
	require.ErrorAs(t, err, &cfgErr)
}

func TestSTFTApplyGradient(t *testing.T) {
	s, err := NewSTFT(STFTConfig{NFFT: 64, HopLength: 16, Center: true, PadMode: PadModeConstant, Trainable: true})
	require.NoError(t, err)

	before, _ := s.Weights()

	gradData := make([]float64, 33*64)
	for i := range gradData {
		gradData[i] = 1.0
	}
	grad := mat.NewDense(33, 64, gradData)

	require.NoError(t, s.ApplyGradient(grad, grad, 0.5))

	after, _ := s.Weights()
	for k := 0; k < 33; k++ {
		for n := 0; n < 64; n++ {
			assert.InDelta(t, before.At(k, n)-0.5, after.At(k, n), 1e-15)
		}
	}

	// dimension mismatch is rejected
	var shapeErr *InvalidShapeError
	err = s.ApplyGradient(mat.NewDense(3, 4, nil), mat.NewDense(3, 4, nil), 0.5)
	require.ErrorAs(t, err, &shapeErr)
}

func TestSTFTWeightsAreCopies(t *testing.T) {
	s, err := NewSTFT(STFTConfig{NFFT: 64, HopLength: 16, Center: true, PadMode: PadModeConstant})
	require.NoError(t, err)

	w1, _ := s.Weights()
	w1.Set(0, 0, 12345.0)

	w2, _ := s.Weights()
	assert.NotEqual(t, 12345.0, w2.At(0, 0))
}
