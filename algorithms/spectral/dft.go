package spectral

import (
	"math"
)

// DFTMatrix returns the real and imaginary coefficient matrices of the
// forward DFT basis, each of shape (nFFT, nFFT):
//
//	real[n][k] =  cos(2*pi*n*k / nFFT)
//	imag[n][k] = -sin(2*pi*n*k / nFFT)
//
// so that for a real frame x the spectrum at bin k is
// sum_n x[n]*real[n][k] + i*sum_n x[n]*imag[n][k], matching the forward
// transform an FFT computes. Real input has Hermitian-symmetric spectra,
// so consumers only read the first nFFT/2+1 columns.
func DFTMatrix(nFFT int) (realPart, imagPart [][]float64) {
	realPart = make([][]float64, nFFT)
	imagPart = make([][]float64, nFFT)

	scale := 2.0 * math.Pi / float64(nFFT)

	for n := 0; n < nFFT; n++ {
		realPart[n] = make([]float64, nFFT)
		imagPart[n] = make([]float64, nFFT)

		for k := 0; k < nFFT; k++ {
			angle := scale * float64(n) * float64(k)
			realPart[n][k] = math.Cos(angle)
			imagPart[n][k] = -math.Sin(angle)
		}
	}

	return realPart, imagPart
}
