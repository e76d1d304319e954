package analysis

import (
	"math"
	"testing"

	"github.com/soundprobe/tempokey/analysis/config"
)

func newTestTempoEstimator(provider FeatureProvider) *TempoEstimator {
	return NewTempoEstimator(provider, config.DefaultTempoConfig())
}

func TestTempoAggregateEmpty(t *testing.T) {
	te := newTestTempoEstimator(nil)

	if got := te.aggregate(nil); got != nil {
		t.Fatalf("expected nil estimate for no candidates, got %+v", got)
	}
}

func TestTempoAggregateSingleCandidate(t *testing.T) {
	te := newTestTempoEstimator(nil)

	got := te.aggregate([]TempoCandidate{{BPM: 128.0, Weight: 0.60, Source: "onset_intervals"}})
	if got == nil {
		t.Fatal("expected an estimate")
	}
	if got.BPM != 128.0 {
		t.Errorf("BPM = %v, want 128.0", got.BPM)
	}
	if got.Confidence != 0.60 {
		t.Errorf("Confidence = %v, want 0.60", got.Confidence)
	}
}

func TestTempoAggregateWeightedMean(t *testing.T) {
	te := newTestTempoEstimator(nil)

	// Two candidates: no outlier filtering, plain weighted average.
	got := te.aggregate([]TempoCandidate{
		{BPM: 100.0, Weight: 0.5},
		{BPM: 140.0, Weight: 1.0},
	})
	if got == nil {
		t.Fatal("expected an estimate")
	}

	want := (100.0*0.5 + 140.0*1.0) / 1.5 // 126.67
	if math.Abs(got.BPM-math.Round(want*10)/10) > 1e-9 {
		t.Errorf("BPM = %v, want %v", got.BPM, math.Round(want*10)/10)
	}
	if got.Confidence != 0.75 {
		t.Errorf("Confidence = %v, want 0.75", got.Confidence)
	}
}

func TestTempoAggregateOutlierRejection(t *testing.T) {
	te := newTestTempoEstimator(nil)

	clean := []TempoCandidate{
		{BPM: 119.0, Weight: 0.70},
		{BPM: 120.0, Weight: 0.70},
		{BPM: 121.0, Weight: 0.60},
	}
	withOutlier := append([]TempoCandidate{}, clean...)
	withOutlier = append(withOutlier, TempoCandidate{BPM: 400.0, Weight: 0.60})

	cleanResult := te.aggregate(clean)
	outlierResult := te.aggregate(withOutlier)

	if cleanResult == nil || outlierResult == nil {
		t.Fatal("expected estimates from both candidate sets")
	}
	if math.Abs(cleanResult.BPM-outlierResult.BPM) > 1e-9 {
		t.Errorf("outlier changed the aggregate: %v vs %v", outlierResult.BPM, cleanResult.BPM)
	}
}

func TestTempoAggregateOctaveCorrection(t *testing.T) {
	te := newTestTempoEstimator(nil)

	tests := []struct {
		name string
		bpm  float64
		want float64
	}{
		{"halves when half is plausible", 170.0, 85.0},
		{"stays when half is implausible", 300.0, 300.0},
		{"doubles when double is plausible", 70.0, 140.0},
		{"stays when double is implausible", 50.0, 50.0},
		{"midrange untouched", 120.0, 120.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := te.aggregate([]TempoCandidate{{BPM: tt.bpm, Weight: 0.70}})
			if got == nil {
				t.Fatal("expected an estimate")
			}
			if got.BPM != tt.want {
				t.Errorf("BPM = %v, want %v", got.BPM, tt.want)
			}
		})
	}
}

func TestTempoEnsembleOnsetIntervals(t *testing.T) {
	// Steady onset train at 0.46875s spacing = exactly 128 BPM.
	var onsets []float64
	for i := 0; i < 12; i++ {
		onsets = append(onsets, float64(i)*0.46875)
	}

	provider := &stubProvider{
		onsetTimes: func(pcm []float64, sampleRate int) ([]float64, error) {
			return onsets, nil
		},
	}

	te := newTestTempoEstimator(provider)
	got := te.Estimate(testWaveform(6, 22050))

	if got == nil {
		t.Fatal("expected an estimate")
	}
	if math.Abs(got.BPM-128.0) > 1.0 {
		t.Errorf("BPM = %v, want 128 +/- 1", got.BPM)
	}
	if got.Confidence != 0.60 {
		t.Errorf("Confidence = %v, want 0.60 (single onset-interval candidate)", got.Confidence)
	}
}

func TestTempoEnsembleTooFewOnsets(t *testing.T) {
	provider := &stubProvider{
		onsetTimes: func(pcm []float64, sampleRate int) ([]float64, error) {
			return []float64{0.0, 0.5, 1.0}, nil
		},
	}

	te := newTestTempoEstimator(provider)
	if got := te.Estimate(testWaveform(2, 22050)); got != nil {
		t.Fatalf("expected nil estimate with too few onsets, got %+v", got)
	}
}

func TestTempoEnsembleHistogramDescriptor(t *testing.T) {
	provider := &stubProvider{
		tempoHist: func(pcm []float64, sampleRate int) (*TempoHistogramDescriptor, error) {
			return &TempoHistogramDescriptor{BPM: 95.0, Confidence: 0.9}, nil
		},
	}

	te := newTestTempoEstimator(provider)
	got := te.Estimate(testWaveform(2, 22050))

	if got == nil {
		t.Fatal("expected an estimate")
	}
	if got.BPM != 95.0 {
		t.Errorf("BPM = %v, want 95.0", got.BPM)
	}
	if got.Confidence != 0.80 {
		t.Errorf("Confidence = %v, want histogram weight 0.80", got.Confidence)
	}
}

func TestTempoEnsembleAllStrategiesFailing(t *testing.T) {
	te := newTestTempoEstimator(&stubProvider{})

	if got := te.Estimate(testWaveform(2, 22050)); got != nil {
		t.Fatalf("expected nil estimate when every strategy fails, got %+v", got)
	}
}

func TestTempoEnsembleDeterminism(t *testing.T) {
	provider := &stubProvider{
		beatTrack: func(pcm []float64, sampleRate, hopSize int) (float64, error) {
			return 124.0 + float64(hopSize)/2048.0, nil
		},
		onsetTimes: func(pcm []float64, sampleRate int) ([]float64, error) {
			onsets := make([]float64, 16)
			for i := range onsets {
				onsets[i] = float64(i) * 0.48
			}
			return onsets, nil
		},
		tempoHist: func(pcm []float64, sampleRate int) (*TempoHistogramDescriptor, error) {
			return &TempoHistogramDescriptor{BPM: 125.0}, nil
		},
	}

	te := newTestTempoEstimator(provider)
	w := testWaveform(8, 22050)

	first := te.Estimate(w)
	if first == nil {
		t.Fatal("expected an estimate")
	}

	for _i := 0; _i < 10; _i++ {
		next := te.Estimate(w)
		if next == nil || *next != *first {
			t.Fatalf("non-deterministic aggregate: %+v vs %+v", next, first)
		}
	}
}
