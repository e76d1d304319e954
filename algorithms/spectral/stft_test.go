package spectral

import (
	"math"
	"testing"

	"github.com/soundprobe/tempokey/algorithms/windowing"
)

func TestSTFTShape(t *testing.T) {
	const (
		windowSize = 512
		hopSize    = 128
		sampleRate = 22050
	)

	signal := make([]float64, 4096)
	for i := range signal {
		signal[i] = math.Sin(2.0 * math.Pi * 440.0 * float64(i) / float64(sampleRate))
	}

	s := NewSTFT()
	window := windowing.NewHann(windowSize, false)
	result, err := s.ComputeWithWindow(signal, windowSize, hopSize, sampleRate, window)
	if err != nil {
		t.Fatalf("ComputeWithWindow: %v", err)
	}

	wantFrames := (len(signal)-windowSize)/hopSize + 1
	if result.TimeFrames != wantFrames {
		t.Errorf("TimeFrames = %d, want %d", result.TimeFrames, wantFrames)
	}
	if result.FreqBins != windowSize/2+1 {
		t.Errorf("FreqBins = %d, want %d", result.FreqBins, windowSize/2+1)
	}
	if len(result.Magnitude) != wantFrames || len(result.Complex) != wantFrames {
		t.Error("matrix frame counts disagree with TimeFrames")
	}
}

func TestSTFTLocalizesTone(t *testing.T) {
	const (
		windowSize = 2048
		hopSize    = 512
		sampleRate = 22050
		freq       = 1000.0
	)

	signal := make([]float64, sampleRate)
	for i := range signal {
		signal[i] = math.Sin(2.0 * math.Pi * freq * float64(i) / float64(sampleRate))
	}

	s := NewSTFT()
	window := windowing.NewHann(windowSize, false)
	result, err := s.ComputeWithWindow(signal, windowSize, hopSize, sampleRate, window)
	if err != nil {
		t.Fatalf("ComputeWithWindow: %v", err)
	}

	frame := result.Magnitude[result.TimeFrames/2]
	best := 0
	for i, v := range frame {
		if v > frame[best] {
			best = i
		}
	}

	wantBin := freq / result.FreqResolution
	if math.Abs(float64(best)-wantBin) > 1.0 {
		t.Errorf("peak bin = %d, want near %.1f", best, wantBin)
	}
}

func TestSTFTInverseRoundtrip(t *testing.T) {
	const (
		windowSize = 512
		hopSize    = 128
		sampleRate = 22050
	)

	signal := make([]float64, 8192)
	for i := range signal {
		signal[i] = math.Sin(2.0*math.Pi*220.0*float64(i)/float64(sampleRate)) +
			0.3*math.Sin(2.0*math.Pi*3000.0*float64(i)/float64(sampleRate))
	}

	s := NewSTFT()
	window := windowing.NewHann(windowSize, false)
	result, err := s.ComputeWithWindow(signal, windowSize, hopSize, sampleRate, window)
	if err != nil {
		t.Fatalf("ComputeWithWindow: %v", err)
	}

	recovered, err := s.Inverse(result.Complex, windowSize, hopSize, len(signal), window)
	if err != nil {
		t.Fatalf("Inverse: %v", err)
	}
	if len(recovered) != len(signal) {
		t.Fatalf("recovered length = %d, want %d", len(recovered), len(signal))
	}

	// Edges lack full window overlap; compare the interior only
	for i := windowSize; i < len(signal)-windowSize; i++ {
		if math.Abs(recovered[i]-signal[i]) > 1e-6 {
			t.Fatalf("sample %d: %v vs %v", i, recovered[i], signal[i])
		}
	}
}

func TestSTFTSignalTooShort(t *testing.T) {
	s := NewSTFT()
	window := windowing.NewHann(2048, false)

	if _, err := s.ComputeWithWindow(make([]float64, 100), 2048, 512, 22050, window); err == nil {
		t.Fatal("expected error for signal shorter than one window")
	}
}
