package harmonic

import (
	"math"
	"testing"
)

func TestSeparateShapes(t *testing.T) {
	const sampleRate = 22050

	signal := make([]float64, sampleRate)
	for i := range signal {
		signal[i] = math.Sin(2.0 * math.Pi * 440.0 * float64(i) / float64(sampleRate))
	}

	h := NewHPSS()
	harmonic, percussive, err := h.Separate(signal, sampleRate)
	if err != nil {
		t.Fatalf("Separate: %v", err)
	}
	if len(harmonic) != len(signal) || len(percussive) != len(signal) {
		t.Fatalf("component lengths = %d, %d; want %d", len(harmonic), len(percussive), len(signal))
	}
}

func TestSeparateComponentsSumToInput(t *testing.T) {
	const sampleRate = 22050

	// Steady tone plus periodic clicks
	signal := make([]float64, sampleRate)
	for i := range signal {
		signal[i] = 0.5 * math.Sin(2.0*math.Pi*330.0*float64(i)/float64(sampleRate))
	}
	for i := 0; i < len(signal); i += sampleRate / 4 {
		signal[i] += 1.0
	}

	h := NewHPSS()
	harmonic, percussive, err := h.Separate(signal, sampleRate)
	if err != nil {
		t.Fatalf("Separate: %v", err)
	}

	// The Wiener masks sum to one per bin, so the components reconstruct
	// the input away from the window edges
	for i := 2048; i < len(signal)-2048; i++ {
		sum := harmonic[i] + percussive[i]
		if math.Abs(sum-signal[i]) > 1e-3 {
			t.Fatalf("sample %d: components sum to %v, input is %v", i, sum, signal[i])
		}
	}
}

func TestSeparateSteadyToneIsHarmonic(t *testing.T) {
	const sampleRate = 22050

	signal := make([]float64, sampleRate)
	for i := range signal {
		signal[i] = math.Sin(2.0 * math.Pi * 440.0 * float64(i) / float64(sampleRate))
	}

	h := NewHPSS()
	harmonic, percussive, err := h.Separate(signal, sampleRate)
	if err != nil {
		t.Fatalf("Separate: %v", err)
	}

	var harmonicEnergy, percussiveEnergy float64
	for i := 2048; i < len(signal)-2048; i++ {
		harmonicEnergy += harmonic[i] * harmonic[i]
		percussiveEnergy += percussive[i] * percussive[i]
	}

	if harmonicEnergy <= percussiveEnergy {
		t.Errorf("harmonic energy %v not dominant over percussive %v for a steady tone",
			harmonicEnergy, percussiveEnergy)
	}
}

func TestSeparateEdgeCases(t *testing.T) {
	h := NewHPSS()

	harmonic, percussive, err := h.Separate(nil, 22050)
	if err != nil {
		t.Fatalf("Separate(nil): %v", err)
	}
	if len(harmonic) != 0 || len(percussive) != 0 {
		t.Error("expected empty components for empty input")
	}

	if _, _, err := h.Separate(make([]float64, 512), 22050); err == nil {
		t.Error("expected error for signal shorter than the analysis window")
	}
}
