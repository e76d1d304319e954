package chroma

import (
	"math"
	"testing"
)

func censTestSignal(freq float64, seconds float64, sampleRate int) []float64 {
	n := int(seconds * float64(sampleRate))
	signal := make([]float64, n)
	for i := range signal {
		signal[i] = math.Sin(2.0 * math.Pi * freq * float64(i) / float64(sampleRate))
	}
	return signal
}

func TestCENSComputeChromaShape(t *testing.T) {
	const sampleRate = 22050

	cens := NewChromaCENS(sampleRate)
	chromagram, err := cens.ComputeChroma(censTestSignal(440, 1.0, sampleRate), 512)
	if err != nil {
		t.Fatalf("ComputeChroma: %v", err)
	}
	if len(chromagram) == 0 {
		t.Fatal("empty chromagram")
	}
	for _, frame := range chromagram {
		if len(frame) != 12 {
			t.Fatalf("frame has %d bins, want 12", len(frame))
		}
	}
}

func TestCENSFramesAreUnitL2(t *testing.T) {
	const sampleRate = 22050

	cens := NewChromaCENS(sampleRate)
	chromagram, err := cens.ComputeChroma(censTestSignal(440, 1.0, sampleRate), 512)
	if err != nil {
		t.Fatalf("ComputeChroma: %v", err)
	}

	for ti, frame := range chromagram {
		norm := 0.0
		for _, v := range frame {
			if v < 0 {
				t.Fatalf("frame %d has negative bin %v", ti, v)
			}
			norm += v * v
		}
		norm = math.Sqrt(norm)

		// Frames with no quantized energy stay zero; all others are
		// normalized to unit length
		if norm > 1e-10 && math.Abs(norm-1.0) > 1e-9 {
			t.Fatalf("frame %d has L2 norm %v", ti, norm)
		}
	}
}

func TestCENSTrackedPitchClass(t *testing.T) {
	const sampleRate = 22050

	cens := NewChromaCENS(sampleRate)
	chromagram, err := cens.ComputeChroma(censTestSignal(440, 1.0, sampleRate), 512)
	if err != nil {
		t.Fatalf("ComputeChroma: %v", err)
	}

	mean := make([]float64, 12)
	for _, frame := range chromagram {
		for i, v := range frame {
			mean[i] += v
		}
	}

	best := 0
	for i, v := range mean {
		if v > mean[best] {
			best = i
		}
	}
	if best != 9 {
		t.Errorf("dominant pitch class = %d, want 9 (A)", best)
	}
}

func TestCENSEmptySignal(t *testing.T) {
	cens := NewChromaCENS(22050)

	chromagram, err := cens.ComputeChroma(nil, 512)
	if err != nil {
		t.Fatalf("ComputeChroma(nil): %v", err)
	}
	if len(chromagram) != 0 {
		t.Errorf("got %d frames for empty signal, want 0", len(chromagram))
	}
}
