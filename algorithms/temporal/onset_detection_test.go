package temporal

import (
	"math"
	"testing"
)

func TestDetectOnsetTimesClickTrain(t *testing.T) {
	const (
		sampleRate = 22050
		spacing    = 0.5 // seconds between clicks
	)

	signal := make([]float64, 5*sampleRate)
	period := int(spacing * float64(sampleRate))
	for i := 0; i < len(signal); i += period {
		for j := i; j < i+64 && j < len(signal); j++ {
			signal[j] = 1.0
		}
	}

	od := NewOnsetDetection()
	onsets, err := od.DetectOnsetTimes(signal, sampleRate, 512)
	if err != nil {
		t.Fatalf("DetectOnsetTimes: %v", err)
	}
	if len(onsets) < 8 {
		t.Fatalf("got %d onsets, want at least 8 for a 5s click train", len(onsets))
	}

	// Inter-onset spacing tracks the click period within a hop or two
	for i := 1; i < len(onsets); i++ {
		interval := onsets[i] - onsets[i-1]
		if math.Abs(interval-spacing) > 0.06 {
			t.Fatalf("interval %d = %v, want near %v", i, interval, spacing)
		}
	}
}

func TestDetectOnsetTimesEmptyAndSilence(t *testing.T) {
	od := NewOnsetDetection()

	onsets, err := od.DetectOnsetTimes(nil, 22050, 512)
	if err != nil {
		t.Fatalf("DetectOnsetTimes(nil): %v", err)
	}
	if len(onsets) != 0 {
		t.Errorf("got %d onsets for empty signal, want 0", len(onsets))
	}

	onsets, err = od.DetectOnsetTimes(make([]float64, 22050), 22050, 512)
	if err != nil {
		t.Fatalf("DetectOnsetTimes(silence): %v", err)
	}
	if len(onsets) != 0 {
		t.Errorf("got %d onsets on silence, want 0", len(onsets))
	}
}
