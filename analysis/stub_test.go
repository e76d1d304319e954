package analysis

import (
	"fmt"
)

// stubProvider implements FeatureProvider with overridable behavior per
// method. Unset methods fail, which the ensembles must tolerate.
type stubProvider struct {
	chroma        func(pcm []float64, sampleRate int, variant ChromaVariant) ([][]float64, error)
	onsetTimes    func(pcm []float64, sampleRate int) ([]float64, error)
	beatTrack     func(pcm []float64, sampleRate, hopSize int) (float64, error)
	onsetStrength func(pcm []float64, sampleRate, hopSize int) ([]float64, error)
	hpss          func(pcm []float64, sampleRate int) ([]float64, []float64, error)
	tempoHist     func(pcm []float64, sampleRate int) (*TempoHistogramDescriptor, error)
}

func (s *stubProvider) Chroma(pcm []float64, sampleRate int, variant ChromaVariant) ([][]float64, error) {
	if s.chroma == nil {
		return nil, fmt.Errorf("chroma not stubbed")
	}
	return s.chroma(pcm, sampleRate, variant)
}

func (s *stubProvider) OnsetTimes(pcm []float64, sampleRate int) ([]float64, error) {
	if s.onsetTimes == nil {
		return nil, fmt.Errorf("onset times not stubbed")
	}
	return s.onsetTimes(pcm, sampleRate)
}

func (s *stubProvider) BeatTrack(pcm []float64, sampleRate, hopSize int) (float64, error) {
	if s.beatTrack == nil {
		return 0, fmt.Errorf("beat track not stubbed")
	}
	return s.beatTrack(pcm, sampleRate, hopSize)
}

func (s *stubProvider) OnsetStrength(pcm []float64, sampleRate, hopSize int) ([]float64, error) {
	if s.onsetStrength == nil {
		return nil, fmt.Errorf("onset strength not stubbed")
	}
	return s.onsetStrength(pcm, sampleRate, hopSize)
}

func (s *stubProvider) HPSS(pcm []float64, sampleRate int) ([]float64, []float64, error) {
	if s.hpss == nil {
		return nil, nil, fmt.Errorf("hpss not stubbed")
	}
	return s.hpss(pcm, sampleRate)
}

func (s *stubProvider) TempoHistogram(pcm []float64, sampleRate int) (*TempoHistogramDescriptor, error) {
	if s.tempoHist == nil {
		return nil, ErrUnavailable
	}
	return s.tempoHist(pcm, sampleRate)
}

// stubExtractor implements KeyExtractor
type stubExtractor struct {
	extract func(pcm []float64, sampleRate int) (*KeyExtraction, error)
}

func (s *stubExtractor) ExtractKey(pcm []float64, sampleRate int) (*KeyExtraction, error) {
	if s.extract == nil {
		return nil, ErrUnavailable
	}
	return s.extract(pcm, sampleRate)
}

// testWaveform builds a waveform of the given duration filled with zeros
func testWaveform(seconds float64, sampleRate int) *Waveform {
	return &Waveform{
		PCM:        make([]float64, int(seconds*float64(sampleRate))),
		SampleRate: sampleRate,
	}
}
