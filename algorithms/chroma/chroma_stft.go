package chroma

import (
	"math"

	"github.com/soundprobe/tempokey/algorithms/spectral"
)

// ChromaSTFT computes chromagram using Short-Time Fourier Transform
//
// DIFFERENCE FROM spectral/stft.go:
// - spectral/stft.go: Generic STFT for any spectral analysis
// - chroma/chroma_stft.go: Specialized for pitch class analysis
//   - Maps frequencies to 12 semitone bins (C, C#, D, D#, E, F, F#, G, G#, A, A#, B)
//   - Octave-folded representation (all C notes map to same bin)
//   - Tuning frequency adjustable (default A4=440Hz)
type ChromaSTFT struct {
	sampleRate int
	stft       *spectral.STFT
	tuningFreq float64 // A4 frequency (default 440 Hz)
	chromaBins int     // Number of chroma bins (always 12)
	minFreq    float64 // Minimum frequency to consider
	maxFreq    float64 // Maximum frequency to consider
}

// NewChromaSTFT creates a new STFT-based chromagram calculator
func NewChromaSTFT(sampleRate int, tuningFreq float64) *ChromaSTFT {
	return &ChromaSTFT{
		sampleRate: sampleRate,
		stft:       spectral.NewSTFT(),
		tuningFreq: tuningFreq,
		chromaBins: 12,
		minFreq:    80.0,   // Approximate E2
		maxFreq:    8000.0, // High enough for harmonics
	}
}

// NewChromaSTFTDefault creates chromagram with standard A4=440Hz tuning
func NewChromaSTFTDefault(sampleRate int) *ChromaSTFT {
	return NewChromaSTFT(sampleRate, 440.0)
}

// ComputeChroma computes chromagram from audio signal.
// Each row is a 12-bin, sum-normalized pitch class energy vector.
func (cs *ChromaSTFT) ComputeChroma(signal []float64, windowSize, hopSize int, window spectral.Window) ([][]float64, error) {
	if len(signal) == 0 {
		return nil, nil
	}

	stftResult, err := cs.stft.ComputeWithWindow(signal, windowSize, hopSize, cs.sampleRate, window)
	if err != nil {
		return nil, err
	}

	return cs.magnitudesToChroma(stftResult.Magnitude, stftResult.FreqResolution), nil
}

// ComputeChromaFromMagnitudes folds a precomputed magnitude spectrogram
// into a chromagram. Used when the spectrogram already exists, e.g. after
// harmonic/percussive separation.
func (cs *ChromaSTFT) ComputeChromaFromMagnitudes(magnitude [][]float64, freqResolution float64) [][]float64 {
	return cs.magnitudesToChroma(magnitude, freqResolution)
}

func (cs *ChromaSTFT) magnitudesToChroma(magnitude [][]float64, freqResolution float64) [][]float64 {
	chromagram := make([][]float64, len(magnitude))
	if len(magnitude) == 0 {
		return chromagram
	}

	chromaMapping := cs.calculateChromaMapping(len(magnitude[0]), freqResolution)

	for t := range magnitude {
		chromagram[t] = make([]float64, cs.chromaBins)

		for f, mag := range magnitude[t] {
			chromaBin := chromaMapping[f]

			if chromaBin >= 0 && chromaBin < cs.chromaBins {
				// Use magnitude squared for energy
				chromagram[t][chromaBin] += mag * mag
			}
		}

		cs.normalizeChromaFrame(chromagram[t])
	}

	return chromagram
}

// calculateChromaMapping maps FFT bins to chroma bins
func (cs *ChromaSTFT) calculateChromaMapping(freqBins int, freqResolution float64) []int {
	mapping := make([]int, freqBins)

	for f := 0; f < freqBins; f++ {
		frequency := float64(f) * freqResolution

		if frequency < cs.minFreq || frequency > cs.maxFreq {
			mapping[f] = -1 // Outside valid range
			continue
		}

		midiNote := cs.frequencyToMIDI(frequency)

		chromaBin := ((int(math.Round(midiNote)) % 12) + 12) % 12
		mapping[f] = chromaBin
	}

	return mapping
}

// frequencyToMIDI converts frequency to MIDI note number
func (cs *ChromaSTFT) frequencyToMIDI(frequency float64) float64 {
	if frequency <= 0 {
		return 0
	}

	// A4 (tuning frequency) = MIDI note 69
	return 69.0 + 12.0*math.Log2(frequency/cs.tuningFreq)
}

// normalizeChromaFrame normalizes a single chroma frame to unit sum
func (cs *ChromaSTFT) normalizeChromaFrame(chromaFrame []float64) {
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
func (cs *ChromaSTFT) GetChromaLabels() []string {
	return []string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}
}

// SetTuning updates the tuning frequency (A4)
func (cs *ChromaSTFT) SetTuning(tuningFreq float64) {
	cs.tuningFreq = tuningFreq
}

// GetTuning returns the current tuning frequency
func (cs *ChromaSTFT) GetTuning() float64 {
	return cs.tuningFreq
}
