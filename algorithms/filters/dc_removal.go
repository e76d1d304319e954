// Package filters contains simple time-domain signal conditioning.
package filters

import (
	"math"
)

// DCRemoval implements a DC blocking filter (high-pass filter) to remove
// the DC component (0 Hz) from audio signals.
//
// References:
//   - Julius O. Smith III, "Introduction to Digital Filters with Audio Applications"
//     https://ccrma.stanford.edu/~jos/filters/DC_Blocker.html
//   - Udo Zölzer, "Digital Audio Signal Processing", 2nd Edition, Chapter 5
type DCRemoval struct {
	poleLocation float64 // R parameter (0 < R < 1)
	cutoffFreq   float64 // -3dB cutoff frequency in Hz
	sampleRate   int     // Sample rate in Hz

	// State variables
	x1 float64 // Previous input sample x[n-1]
	y1 float64 // Previous output sample y[n-1]

	initialized bool
}

// NewDCRemoval creates a new DC removal filter with default settings.
// Uses a pole location of 0.995, which gives a cutoff frequency of
// approximately 8 Hz at 44.1 kHz sample rate.
func NewDCRemoval() *DCRemoval {
	return &DCRemoval{
		poleLocation: 0.995, // Standard value for audio applications
		initialized:  true,
	}
}

// NewDCRemovalWithCutoff creates a DC removal filter with specified cutoff
// frequency. The pole location R is calculated as R = 1 - 2*pi*fc/fs.
func NewDCRemovalWithCutoff(sampleRate int, cutoffFreq float64) *DCRemoval {
	dc := &DCRemoval{
		sampleRate: sampleRate,
		cutoffFreq: cutoffFreq,
	}

	dc.computePoleLocation()
	return dc
}

// computePoleLocation calculates the pole location from the desired cutoff
// frequency. Valid for small cutoff frequencies (fc << fs/2).
func (dc *DCRemoval) computePoleLocation() {
	if dc.sampleRate > 0 && dc.cutoffFreq > 0 {
		dc.poleLocation = 1.0 - (2.0 * math.Pi * dc.cutoffFreq / float64(dc.sampleRate))

		if dc.poleLocation >= 1.0 {
			dc.poleLocation = 0.999
		} else if dc.poleLocation <= 0.0 {
			dc.poleLocation = 0.001
		}

		dc.initialized = true
	}
}

// Process applies DC removal to a single sample.
// Implements the difference equation:
// y[n] = x[n] - x[n-1] + R * y[n-1]
func (dc *DCRemoval) Process(input float64) float64 {
	if !dc.initialized {
		dc.poleLocation = 0.995
		dc.initialized = true
	}

	output := input - dc.x1 + dc.poleLocation*dc.y1

	dc.x1 = input
	dc.y1 = output

	return output
}

// ProcessBuffer applies DC removal to an entire buffer of samples.
func (dc *DCRemoval) ProcessBuffer(input []float64) []float64 {
	output := make([]float64, len(input))
	for i, sample := range input {
		output[i] = dc.Process(sample)
	}
	return output
}

// Reset clears the filter's internal state.
// Call this when processing discontinuous audio segments.
func (dc *DCRemoval) Reset() {
	dc.x1 = 0.0
	dc.y1 = 0.0
}

// GetCutoffFrequency calculates the approximate -3dB cutoff frequency.
// Uses the inverse of the design formula: fc ≈ (1-R)*fs/(2*pi)
func (dc *DCRemoval) GetCutoffFrequency(sampleRate int) float64 {
	if sampleRate <= 0 {
		return 0.0
	}

	return (1.0 - dc.poleLocation) * float64(sampleRate) / (2.0 * math.Pi)
}

// GetPoleLocation returns the current pole location parameter.
func (dc *DCRemoval) GetPoleLocation() float64 {
	return dc.poleLocation
}
