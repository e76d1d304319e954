package spectral

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"

	"github.com/soundprobe/tempokey/algorithms/common"
)

// FFT provides Fast Fourier Transform functionality
type FFT struct {
	// No state needed for now
}

// NewFFT creates a new FFT calculator
func NewFFT() *FFT {
	return &FFT{}
}

// Compute computes Fast Fourier Transform using mjibson/go-dsp
// Takes []float64 input and returns []complex128 output
func (f *FFT) Compute(x []float64) []complex128 {
	if len(x) == 0 {
		return []complex128{}
	}

	// mjibson/go-dsp handles all sizes efficiently, including non-power-of-2
	return fft.FFTReal(x)
}

// ComputeComplex computes the FFT of a complex-valued input
func (f *FFT) ComputeComplex(x []complex128) []complex128 {
	if len(x) == 0 {
		return []complex128{}
	}

	return fft.FFT(x)
}

// ComputeInverseReal computes inverse FFT and returns real part only
func (f *FFT) ComputeInverseReal(x []complex128) []float64 {
	if len(x) == 0 {
		return []float64{}
	}

	result := fft.IFFT(x)
	realResult := make([]float64, len(result))

	for i, val := range result {
		realResult[i] = real(val)
	}

	return realResult
}

// Autocorrelate computes the unnormalized autocorrelation of a signal via
// the Wiener-Khinchin theorem: ifft(|fft(x)|^2). The input is zero-padded
// to 2N rounded up to a power of two so circular wrap-around does not
// contaminate the linear autocorrelation. The returned slice has the same
// length as the input; index k holds the correlation at lag k.
func (f *FFT) Autocorrelate(x []float64) []float64 {
	if len(x) == 0 {
		return []float64{}
	}

	padded := make([]float64, common.NextPowerOfTwo(2*len(x)))
	copy(padded, x)

	spectrum := fft.FFTReal(padded)
	for i, val := range spectrum {
		mag := cmplx.Abs(val)
		spectrum[i] = complex(mag*mag, 0)
	}

	corr := fft.IFFT(spectrum)

	result := make([]float64, len(x))
	for i := range result {
		result[i] = real(corr[i])
	}

	return result
}
