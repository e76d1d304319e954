// Package provider contains the built-in DSP implementations of the
// analysis collaborator interfaces, so the engine runs end-to-end without
// external feature services.
package provider

import (
	"fmt"

	"github.com/soundprobe/tempokey/algorithms/chroma"
	"github.com/soundprobe/tempokey/algorithms/filters"
	"github.com/soundprobe/tempokey/algorithms/harmonic"
	"github.com/soundprobe/tempokey/algorithms/temporal"
	"github.com/soundprobe/tempokey/algorithms/windowing"
	"github.com/soundprobe/tempokey/analysis"
)

// DSPProvider implements analysis.FeatureProvider over the algorithms
// packages. It is stateless; every call builds what it needs, so one
// instance can serve waveforms at different sample rates.
type DSPProvider struct {
	windowSize int
	hopSize    int

	onsetDetector *temporal.OnsetDetection
	onsetStrength *temporal.OnsetStrength
	tempo         *temporal.TempoEstimation
	hpss          *harmonic.HPSS
}

// NewDSPProvider creates a provider with standard STFT parameters
func NewDSPProvider() *DSPProvider {
	return &DSPProvider{
		windowSize:    2048,
		hopSize:       512,
		onsetDetector: temporal.NewOnsetDetection(),
		onsetStrength: temporal.NewOnsetStrength(),
		tempo:         temporal.NewTempoEstimation(),
		hpss:          harmonic.NewHPSS(),
	}
}

// preprocess removes the DC offset so silence and offset-biased input do
// not leak energy into the low bins. The filter is stateful, so each call
// gets a fresh instance.
func (p *DSPProvider) preprocess(pcm []float64) []float64 {
	if len(pcm) == 0 {
		return pcm
	}
	return filters.NewDCRemoval().ProcessBuffer(pcm)
}

// Chroma computes the requested chromagram variant
func (p *DSPProvider) Chroma(pcm []float64, sampleRate int, variant analysis.ChromaVariant) ([][]float64, error) {
	pcm = p.preprocess(pcm)

	switch variant {
	case analysis.ChromaVariantSTFT:
		window := windowing.NewHann(p.windowSize, false)
		return chroma.NewChromaSTFTDefault(sampleRate).
			ComputeChroma(pcm, p.windowSize, p.hopSize, window)

	case analysis.ChromaVariantCQT:
		return chroma.NewChromaCQTDefault(sampleRate).ComputeChroma(pcm, p.hopSize)

	case analysis.ChromaVariantCENS:
		return chroma.NewChromaCENS(sampleRate).ComputeChroma(pcm, p.hopSize)

	default:
		return nil, fmt.Errorf("unknown chroma variant: %q", variant)
	}
}

// OnsetTimes detects onsets as peaks of the onset strength envelope
func (p *DSPProvider) OnsetTimes(pcm []float64, sampleRate int) ([]float64, error) {
	return p.onsetDetector.DetectOnsetTimes(p.preprocess(pcm), sampleRate, p.hopSize)
}

// BeatTrack estimates tempo from beat periodicity at the given hop size
func (p *DSPProvider) BeatTrack(pcm []float64, sampleRate, hopSize int) (float64, error) {
	return p.tempo.EstimateBeatTracking(p.preprocess(pcm), sampleRate, hopSize)
}

// OnsetStrength computes the mel-flux onset strength envelope
func (p *DSPProvider) OnsetStrength(pcm []float64, sampleRate, hopSize int) ([]float64, error) {
	return p.onsetStrength.Compute(p.preprocess(pcm), sampleRate, hopSize)
}

// HPSS separates harmonic and percussive components
func (p *DSPProvider) HPSS(pcm []float64, sampleRate int) ([]float64, []float64, error) {
	return p.hpss.Separate(p.preprocess(pcm), sampleRate)
}

// TempoHistogram builds a coarse tempo descriptor from the distribution
// of inter-onset BPMs. Returns ErrUnavailable when the signal has too few
// onsets to form a histogram.
func (p *DSPProvider) TempoHistogram(pcm []float64, sampleRate int) (*analysis.TempoHistogramDescriptor, error) {
	onsets, err := p.OnsetTimes(pcm, sampleRate)
	if err != nil {
		return nil, err
	}
	if len(onsets) < 8 {
		return nil, analysis.ErrUnavailable
	}

	const (
		minBPM = 30.0
		maxBPM = 250.0
	)

	// 1-BPM bins over the plausible range
	bins := make([]int, int(maxBPM-minBPM)+1)
	total := 0

	for i := 1; i < len(onsets); i++ {
		interval := onsets[i] - onsets[i-1]
		if interval <= 0 {
			continue
		}
		bpm := 60.0 / interval
		if bpm < minBPM || bpm > maxBPM {
			continue
		}
		bins[int(bpm-minBPM)]++
		total++
	}

	if total == 0 {
		return nil, analysis.ErrUnavailable
	}

	bestBin := 0
	for i, count := range bins {
		if count > bins[bestBin] {
			bestBin = i
		}
	}

	return &analysis.TempoHistogramDescriptor{
		BPM:        minBPM + float64(bestBin) + 0.5,
		Confidence: float64(bins[bestBin]) / float64(total),
	}, nil
}
