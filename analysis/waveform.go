package analysis

import (
	"fmt"
)

// Waveform is decoded mono PCM audio. Samples are float64 in [-1, 1],
// though the engine does not enforce the range.
type Waveform struct {
	PCM        []float64 `json:"-"`
	SampleRate int       `json:"sample_rate"`
}

// NewWaveform creates a waveform after validating the sample rate
func NewWaveform(pcm []float64, sampleRate int) (*Waveform, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate: %d", sampleRate)
	}

	return &Waveform{
		PCM:        pcm,
		SampleRate: sampleRate,
	}, nil
}

// Duration returns the waveform length in seconds
func (w *Waveform) Duration() float64 {
	if w.SampleRate <= 0 {
		return 0.0
	}
	return float64(len(w.PCM)) / float64(w.SampleRate)
}

// NumSamples returns the number of PCM samples
func (w *Waveform) NumSamples() int {
	return len(w.PCM)
}
