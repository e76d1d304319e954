package chroma

import (
	"math"
)

// ChromaCENS computes Chroma Energy Normalized Statistics
//
// CENS post-processes a CQT chromagram to be robust against dynamics,
// timbre, and articulation: per-frame L1 normalization, coarse energy
// quantization, temporal smoothing with a Hann window, and final L2
// normalization. The result changes slowly over time, which suits
// key analysis better than raw frame-level chroma.
type ChromaCENS struct {
	sampleRate   int
	chromaCQT    *ChromaCQT
	smoothLength int // Hann smoothing window length in frames
}

// Quantization steps applied to L1-normalized chroma energy
var (
	censThresholds = []float64{0.05, 0.1, 0.2, 0.4}
	censWeights    = []float64{0.25, 0.25, 0.25, 0.25}
)

// NewChromaCENS creates a CENS calculator with standard settings
func NewChromaCENS(sampleRate int) *ChromaCENS {
	return &ChromaCENS{
		sampleRate:   sampleRate,
		chromaCQT:    NewChromaCQTDefault(sampleRate),
		smoothLength: 41,
	}
}

// ComputeChroma computes the CENS chromagram from an audio signal
func (cens *ChromaCENS) ComputeChroma(signal []float64, hopSize int) ([][]float64, error) {
	if len(signal) == 0 {
		return nil, nil
	}

	chromagram, err := cens.chromaCQT.ComputeChroma(signal, hopSize)
	if err != nil {
		return nil, err
	}
	if len(chromagram) == 0 {
		return [][]float64{}, nil
	}

	quantized := make([][]float64, len(chromagram))
	for t, frame := range chromagram {
		quantized[t] = cens.quantizeFrame(cens.normalizeL1(frame))
	}

	smoothed := cens.smooth(quantized)

	for t := range smoothed {
		cens.normalizeL2(smoothed[t])
	}

	return smoothed, nil
}

// normalizeL1 scales a frame to unit sum
func (cens *ChromaCENS) normalizeL1(frame []float64) []float64 {
	sum := 0.0
	for _, v := range frame {
		sum += v
	}

	normalized := make([]float64, len(frame))
	if sum > 1e-10 {
		for i, v := range frame {
			normalized[i] = v / sum
		}
	}
	return normalized
}

// quantizeFrame maps each bin's relative energy onto coarse steps
func (cens *ChromaCENS) quantizeFrame(frame []float64) []float64 {
	quantized := make([]float64, len(frame))

	for i, v := range frame {
		for level, threshold := range censThresholds {
			if v > threshold {
				quantized[i] += censWeights[level]
			}
		}
	}

	return quantized
}

// smooth convolves each chroma band with a Hann window along time
func (cens *ChromaCENS) smooth(chromagram [][]float64) [][]float64 {
	numFrames := len(chromagram)
	if numFrames == 0 {
		return chromagram
	}
	numBins := len(chromagram[0])

	winLength := cens.smoothLength
	if winLength > numFrames {
		winLength = numFrames
	}
	if winLength < 1 {
		winLength = 1
	}

	window := make([]float64, winLength)
	windowSum := 0.0
	for n := 0; n < winLength; n++ {
		if winLength == 1 {
			window[n] = 1.0
		} else {
			window[n] = 0.5 * (1.0 - math.Cos(2.0*math.Pi*float64(n)/float64(winLength-1)))
		}
		windowSum += window[n]
	}
	if windowSum <= 0 {
		windowSum = 1.0
	}

	halfWin := winLength / 2
	smoothed := make([][]float64, numFrames)

	for t := 0; t < numFrames; t++ {
		smoothed[t] = make([]float64, numBins)

		for bin := 0; bin < numBins; bin++ {
			sum := 0.0
			for n := 0; n < winLength; n++ {
				idx := t + n - halfWin
				if idx >= 0 && idx < numFrames {
					sum += chromagram[idx][bin] * window[n]
				}
			}
			smoothed[t][bin] = sum / windowSum
		}
	}

	return smoothed
}

// normalizeL2 scales a frame to unit Euclidean norm in place
func (cens *ChromaCENS) normalizeL2(frame []float64) {
	sumSquares := 0.0
	for _, v := range frame {
		sumSquares += v * v
	}

	norm := math.Sqrt(sumSquares)
	if norm > 1e-10 {
		for i := range frame {
			frame[i] /= norm
		}
	}
}

// GetChromaLabels returns the chroma bin labels
func (cens *ChromaCENS) GetChromaLabels() []string {
	return []string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}
}
