package temporal

import (
	"math"
)

// Envelope provides amplitude envelope extraction
type Envelope struct {
	// No state needed - stateless calculation
}

// NewEnvelope creates a new envelope extractor
func NewEnvelope() *Envelope {
	return &Envelope{}
}

// ComputeRMS computes RMS envelope with given frame and hop sizes
func (e *Envelope) ComputeRMS(signal []float64, frameSize, hopSize int) []float64 {
	if len(signal) < frameSize || frameSize <= 0 || hopSize <= 0 {
		return []float64{}
	}

	numFrames := (len(signal)-frameSize)/hopSize + 1
	envelope := make([]float64, numFrames)

	for i := 0; i < numFrames; i++ {
		startIdx := i * hopSize
		endIdx := startIdx + frameSize

		if endIdx > len(signal) {
			break
		}

		sumSquares := 0.0
		for j := startIdx; j < endIdx; j++ {
			sumSquares += signal[j] * signal[j]
		}
		envelope[i] = math.Sqrt(sumSquares / float64(frameSize))
	}

	return envelope
}
