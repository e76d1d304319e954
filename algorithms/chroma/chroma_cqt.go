package chroma

import (
	"math"
	"math/cmplx"

	"github.com/soundprobe/tempokey/algorithms/common"
	"github.com/soundprobe/tempokey/algorithms/spectral"
)

// ChromaCQT computes chromagram using Constant-Q Transform
//
// DIFFERENCE FROM ChromaSTFT:
// - ChromaSTFT: Uses FFT with linear frequency spacing
//   - Fixed frequency resolution across all frequencies
//   - Computationally efficient
//
// - ChromaCQT: Uses Constant-Q Transform with logarithmic frequency spacing
//   - Variable frequency resolution (higher resolution at low frequencies)
//   - Matches musical note spacing where each octave doubles in frequency
//   - Better separation of low-frequency harmonics
//
// CQT frequency spacing: f_k = f_min * 2^(k/bins_per_octave)
type ChromaCQT struct {
	sampleRate    int
	fft           *spectral.FFT
	minFreq       float64 // Minimum frequency (typically C2 ≈ 65.4 Hz)
	maxFreq       float64 // Maximum frequency
	binsPerOctave int     // Number of bins per octave (typically 12, 24, or 36)
	chromaBins    int     // Number of chroma bins (always 12)
	qFactor       float64 // Quality factor (frequency/bandwidth)
	tuningFreq    float64 // A4 frequency (default 440 Hz)

	// Pre-computed CQT kernel
	cqtKernel      [][]complex128 // FFT of each bin's windowed complex exponential
	freqBins       []float64      // CQT frequency bins
	fftSize        int
	kernelComputed bool
}

// NewChromaCQT creates a new CQT-based chromagram calculator
func NewChromaCQT(sampleRate int, minFreq, maxFreq float64, binsPerOctave int, qFactor, tuningFreq float64) *ChromaCQT {
	return &ChromaCQT{
		sampleRate:    sampleRate,
		fft:           spectral.NewFFT(),
		minFreq:       minFreq,
		maxFreq:       maxFreq,
		binsPerOctave: binsPerOctave,
		chromaBins:    12,
		qFactor:       qFactor,
		tuningFreq:    tuningFreq,
	}
}

// NewChromaCQTDefault creates CQT chromagram with standard musical settings
func NewChromaCQTDefault(sampleRate int) *ChromaCQT {
	return NewChromaCQT(
		sampleRate,
		65.4,   // C2 frequency
		2093.0, // C7 frequency (5 octaves)
		12,     // 12 bins per octave (semitone resolution)
		25.0,   // Quality factor
		440.0,  // A4 = 440 Hz
	)
}

// ComputeChroma computes CQT-based chromagram from audio signal
func (cqt *ChromaCQT) ComputeChroma(signal []float64, hopSize int) ([][]float64, error) {
	if len(signal) == 0 {
		return nil, nil
	}

	if !cqt.kernelComputed {
		if err := cqt.computeCQTKernel(); err != nil {
			return nil, err
		}
	}

	cqtSpectrogram := cqt.computeCQTSpectrogram(signal, hopSize)

	return cqt.convertCQTToChroma(cqtSpectrogram), nil
}

// computeCQTKernel pre-computes the CQT transformation kernel
func (cqt *ChromaCQT) computeCQTKernel() error {
	numOctaves := math.Log2(cqt.maxFreq / cqt.minFreq)
	totalBins := int(numOctaves * float64(cqt.binsPerOctave))

	cqt.freqBins = make([]float64, totalBins)
	for k := 0; k < totalBins; k++ {
		cqt.freqBins[k] = cqt.minFreq * math.Pow(2.0, float64(k)/float64(cqt.binsPerOctave))
	}

	// Lowest frequency has the longest kernel; size the FFT to fit it
	maxKernelLength := cqt.calculateKernelLength(cqt.freqBins[0])
	cqt.fftSize = common.NextPowerOfTwo(maxKernelLength)

	cqt.cqtKernel = make([][]complex128, totalBins)

	for k, freq := range cqt.freqBins {
		kernelLength := cqt.calculateKernelLength(freq)

		// Time-domain kernel: complex exponential under a Gaussian window
		kernel := make([]complex128, cqt.fftSize)

		bandwidth := freq / cqt.qFactor
		sigma := float64(cqt.sampleRate) / (2.0 * math.Pi * bandwidth)

		center := kernelLength / 2
		norm := 0.0
		for n := 0; n < kernelLength; n++ {
			t := float64(n - center)
			window := math.Exp(-(t * t) / (2.0 * sigma * sigma))
			norm += window

			phase := 2.0 * math.Pi * freq * t / float64(cqt.sampleRate)
			kernel[n] = complex(window, 0) * cmplx.Exp(complex(0, phase))
		}

		// Normalize so kernel energy is independent of its length
		if norm > 0 {
			for n := 0; n < kernelLength; n++ {
				kernel[n] /= complex(norm, 0)
			}
		}

		cqt.cqtKernel[k] = cqt.fft.ComputeComplex(kernel)
	}

	cqt.kernelComputed = true
	return nil
}

// calculateKernelLength calculates the length of CQT kernel for given frequency
func (cqt *ChromaCQT) calculateKernelLength(frequency float64) int {
	// Kernel length is inversely proportional to frequency (Q = f/bandwidth)
	kernelLength := int(cqt.qFactor * float64(cqt.sampleRate) / frequency)

	// Ensure odd length for symmetry
	if kernelLength%2 == 0 {
		kernelLength++
	}

	if kernelLength < 3 {
		kernelLength = 3
	}
	if kernelLength > cqt.sampleRate/2 {
		kernelLength = cqt.sampleRate / 2
	}

	return kernelLength
}

// computeCQTSpectrogram computes the CQT magnitude spectrogram
func (cqt *ChromaCQT) computeCQTSpectrogram(signal []float64, hopSize int) [][]float64 {
	numFrames := len(signal) / hopSize
	if numFrames <= 0 {
		numFrames = 1
	}

	spectrogram := make([][]float64, numFrames)

	for frameIdx := 0; frameIdx < numFrames; frameIdx++ {
		startIdx := frameIdx * hopSize

		// Extract frame with zero-padding at the signal tail
		frame := make([]float64, cqt.fftSize)
		for i := 0; i < cqt.fftSize; i++ {
			if startIdx+i < len(signal) {
				frame[i] = signal[startIdx+i]
			}
		}

		frameFFT := cqt.fft.Compute(frame)

		cqtFrame := make([]float64, len(cqt.freqBins))
		for k := range cqt.freqBins {
			// Pointwise multiplication in frequency domain (correlation in time)
			cqtBin := complex(0, 0)
			for n := 0; n < len(frameFFT) && n < len(cqt.cqtKernel[k]); n++ {
				cqtBin += frameFFT[n] * cmplx.Conj(cqt.cqtKernel[k][n])
			}

			cqtFrame[k] = cmplx.Abs(cqtBin) / float64(cqt.fftSize)
		}

		spectrogram[frameIdx] = cqtFrame
	}

	return spectrogram
}

// convertCQTToChroma folds the CQT spectrogram across octaves
func (cqt *ChromaCQT) convertCQTToChroma(cqtSpectrogram [][]float64) [][]float64 {
	if len(cqtSpectrogram) == 0 {
		return [][]float64{}
	}

	chromagram := make([][]float64, len(cqtSpectrogram))

	for t := range cqtSpectrogram {
		chromagram[t] = make([]float64, cqt.chromaBins)

		for k, freq := range cqt.freqBins {
			midiNote := cqt.frequencyToMIDI(freq)
			chromaBin := int(math.Round(midiNote)) % cqt.chromaBins
			if chromaBin < 0 {
				chromaBin += cqt.chromaBins
			}

			// Magnitude squared for energy
			energy := cqtSpectrogram[t][k] * cqtSpectrogram[t][k]
			chromagram[t][chromaBin] += energy
		}

		cqt.normalizeChromaFrame(chromagram[t])
	}

	return chromagram
}

// frequencyToMIDI converts frequency to MIDI note number
func (cqt *ChromaCQT) frequencyToMIDI(frequency float64) float64 {
	if frequency <= 0 {
		return 0
	}

	// A4 (tuning frequency) = MIDI note 69
	return 69.0 + 12.0*math.Log2(frequency/cqt.tuningFreq)
}

// normalizeChromaFrame normalizes a single chroma frame to unit sum
func (cqt *ChromaCQT) normalizeChromaFrame(chromaFrame []float64) {
	totalEnergy := 0.0
	for _, energy := range chromaFrame {
		totalEnergy += energy
	}

	if totalEnergy > 1e-10 {
		for i := range chromaFrame {
			chromaFrame[i] /= totalEnergy
		}
	}
}

// GetChromaLabels returns the chroma bin labels
func (cqt *ChromaCQT) GetChromaLabels() []string {
	return []string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}
}

// GetCQTFrequencies returns the CQT frequency bins
func (cqt *ChromaCQT) GetCQTFrequencies() []float64 {
	if !cqt.kernelComputed {
		return []float64{}
	}

	freqs := make([]float64, len(cqt.freqBins))
	copy(freqs, cqt.freqBins)
	return freqs
}

// SetTuning updates the tuning frequency and forces kernel recomputation
func (cqt *ChromaCQT) SetTuning(tuningFreq float64) {
	cqt.tuningFreq = tuningFreq
	cqt.kernelComputed = false
}

// GetQFactor returns the quality factor
func (cqt *ChromaCQT) GetQFactor() float64 {
	return cqt.qFactor
}

// SetQFactor updates the quality factor and forces kernel recomputation
func (cqt *ChromaCQT) SetQFactor(qFactor float64) {
	cqt.qFactor = qFactor
	cqt.kernelComputed = false
}
