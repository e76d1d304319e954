package analysis

import (
	"testing"

	"github.com/soundprobe/tempokey/analysis/config"
)

func newTestKeyEstimator(provider FeatureProvider, extractor KeyExtractor) *KeyEstimator {
	return NewKeyEstimator(provider, extractor, config.DefaultKeyConfig())
}

// rotatedProfile builds the chroma signature of a key rooted at the given
// pitch class
func rotatedProfile(profile []float64, pitchClass int) []float64 {
	rotated := make([]float64, 12)
	for n := 0; n < 12; n++ {
		rotated[n] = profile[((n-pitchClass)%12+12)%12]
	}
	return rotated
}

func TestScoreAgainstProfilesIdentifiesRotation(t *testing.T) {
	for pitchClass := 0; pitchClass < 12; pitchClass++ {
		chromaMean := rotatedProfile(majorProfile, pitchClass)

		candidates := scoreAgainstProfiles(chromaMean, 1.0, "test")
		if len(candidates) == 0 {
			t.Fatalf("pitch class %d: no candidates", pitchClass)
		}

		best := candidates[0]
		for _, c := range candidates[1:] {
			if c.Score > best.Score {
				best = c
			}
		}

		if best.PitchClass != pitchClass || best.Mode != ModeMajor {
			t.Errorf("pitch class %d: best = (%d, %s), want (%d, major)",
				pitchClass, best.PitchClass, best.Mode, pitchClass)
		}
		if best.Score < 0.99 {
			t.Errorf("pitch class %d: score = %v, want ~1.0 for exact profile match",
				pitchClass, best.Score)
		}
	}
}

func TestKeyAggregateEmpty(t *testing.T) {
	ke := newTestKeyEstimator(nil, nil)

	if got := ke.aggregate(nil); got != nil {
		t.Fatalf("expected nil estimate for no candidates, got %+v", got)
	}
}

func TestKeyAggregateSumsAcrossStrategies(t *testing.T) {
	ke := newTestKeyEstimator(nil, nil)

	got := ke.aggregate([]KeyCandidate{
		{PitchClass: 4, Mode: ModeMinor, Score: 0.3, Source: "a"},
		{PitchClass: 4, Mode: ModeMinor, Score: 0.4, Source: "b"},
		{PitchClass: 0, Mode: ModeMajor, Score: 0.5, Source: "a"},
	})
	if got == nil {
		t.Fatal("expected an estimate")
	}
	if got.PitchClass != 4 || got.Mode != ModeMinor {
		t.Errorf("best = (%d, %s), want (4, minor)", got.PitchClass, got.Mode)
	}
	if got.Confidence != 0.7 {
		t.Errorf("Confidence = %v, want 0.7", got.Confidence)
	}
}

func TestKeyAggregateTieBreak(t *testing.T) {
	ke := newTestKeyEstimator(nil, nil)

	t.Run("lower pitch class wins", func(t *testing.T) {
		got := ke.aggregate([]KeyCandidate{
			{PitchClass: 7, Mode: ModeMinor, Score: 0.5},
			{PitchClass: 2, Mode: ModeMajor, Score: 0.5},
		})
		if got == nil || got.PitchClass != 2 || got.Mode != ModeMajor {
			t.Errorf("got %+v, want (2, major)", got)
		}
	})

	t.Run("major before minor", func(t *testing.T) {
		got := ke.aggregate([]KeyCandidate{
			{PitchClass: 3, Mode: ModeMinor, Score: 0.5},
			{PitchClass: 3, Mode: ModeMajor, Score: 0.5},
		})
		if got == nil || got.PitchClass != 3 || got.Mode != ModeMajor {
			t.Errorf("got %+v, want (3, major)", got)
		}
	})
}

func TestKeyAggregateConfidenceClamped(t *testing.T) {
	ke := newTestKeyEstimator(nil, nil)

	got := ke.aggregate([]KeyCandidate{{PitchClass: 0, Mode: ModeMajor, Score: 1.7}})
	if got == nil {
		t.Fatal("expected an estimate")
	}
	if got.Confidence != 1.0 {
		t.Errorf("Confidence = %v, want clamped 1.0", got.Confidence)
	}
}

func TestKeyEnsembleChromaVariants(t *testing.T) {
	// Every chroma variant reports the exact A-major signature.
	signature := rotatedProfile(majorProfile, 9)

	provider := &stubProvider{
		chroma: func(pcm []float64, sampleRate int, variant ChromaVariant) ([][]float64, error) {
			frames := make([][]float64, 20)
			for i := range frames {
				frames[i] = signature
			}
			return frames, nil
		},
	}

	ke := newTestKeyEstimator(provider, nil)
	got := ke.Estimate(testWaveform(4, 22050))

	if got == nil {
		t.Fatal("expected an estimate")
	}
	if got.Name() != "A major" {
		t.Errorf("key = %q, want %q", got.Name(), "A major")
	}
	if got.Confidence < 0.9 {
		t.Errorf("Confidence = %v, want > 0.9 for exact profile match", got.Confidence)
	}
}

func TestKeyEnsembleExtractor(t *testing.T) {
	extractor := &stubExtractor{
		extract: func(pcm []float64, sampleRate int) (*KeyExtraction, error) {
			return &KeyExtraction{PitchClass: 2, Mode: ModeMinor, Strength: 0.9}, nil
		},
	}

	ke := newTestKeyEstimator(&stubProvider{}, extractor)
	got := ke.Estimate(testWaveform(4, 22050))

	if got == nil {
		t.Fatal("expected an estimate")
	}
	if got.Name() != "D minor" {
		t.Errorf("key = %q, want %q", got.Name(), "D minor")
	}
	if got.Confidence != 0.72 {
		t.Errorf("Confidence = %v, want 0.9 * 0.8 = 0.72", got.Confidence)
	}
}

func TestKeyEnsembleExtractorBelowThreshold(t *testing.T) {
	extractor := &stubExtractor{
		extract: func(pcm []float64, sampleRate int) (*KeyExtraction, error) {
			return &KeyExtraction{PitchClass: 2, Mode: ModeMinor, Strength: 0.05}, nil
		},
	}

	ke := newTestKeyEstimator(&stubProvider{}, extractor)
	if got := ke.Estimate(testWaveform(4, 22050)); got != nil {
		t.Fatalf("expected nil estimate for sub-threshold extractor, got %+v", got)
	}
}

func TestKeyEnsembleExtractorInvalidOutput(t *testing.T) {
	// A black-box extractor may report out-of-range values; both the
	// pitch class and the mode must be validated before they index the
	// 24-slot accumulator.
	tests := []struct {
		name       string
		extraction KeyExtraction
	}{
		{"negative pitch class", KeyExtraction{PitchClass: -1, Mode: ModeMajor, Strength: 0.9}},
		{"pitch class too large", KeyExtraction{PitchClass: 12, Mode: ModeMinor, Strength: 0.9}},
		{"invalid mode", KeyExtraction{PitchClass: 11, Mode: Mode(2), Strength: 0.9}},
	}

	for _, tt := range tests {
		extractor := &stubExtractor{
			extract: func(pcm []float64, sampleRate int) (*KeyExtraction, error) {
				extraction := tt.extraction
				return &extraction, nil
			},
		}

		ke := newTestKeyEstimator(&stubProvider{}, extractor)
		if got := ke.Estimate(testWaveform(4, 22050)); got != nil {
			t.Errorf("%s: expected nil estimate, got %+v", tt.name, got)
		}
	}
}

func TestKeyEnsembleAllStrategiesFailing(t *testing.T) {
	ke := newTestKeyEstimator(&stubProvider{}, nil)

	if got := ke.Estimate(testWaveform(4, 22050)); got != nil {
		t.Fatalf("expected nil estimate when every strategy fails, got %+v", got)
	}
}

func TestKeyEstimateName(t *testing.T) {
	tests := []struct {
		estimate KeyEstimate
		want     string
	}{
		{KeyEstimate{PitchClass: 0, Mode: ModeMajor}, "C major"},
		{KeyEstimate{PitchClass: 1, Mode: ModeMinor}, "C# minor"},
		{KeyEstimate{PitchClass: 11, Mode: ModeMinor}, "B minor"},
	}

	for _, tt := range tests {
		if got := tt.estimate.Name(); got != tt.want {
			t.Errorf("Name() = %q, want %q", got, tt.want)
		}
	}
}
