package temporal

import (
	"testing"
)

func TestPeakPickEmpty(t *testing.T) {
	peaks := PeakPick(nil, DefaultPeakPickParams())
	if peaks == nil || len(peaks) != 0 {
		t.Fatalf("peaks = %v, want empty non-nil slice", peaks)
	}
}

func TestPeakPickFlatCurve(t *testing.T) {
	curve := make([]float64, 100)
	peaks := PeakPick(curve, DefaultPeakPickParams())
	if len(peaks) != 0 {
		t.Errorf("got %d peaks on a flat curve, want 0", len(peaks))
	}
}

func TestPeakPickIsolatedPeaks(t *testing.T) {
	curve := make([]float64, 100)
	curve[20] = 1.0
	curve[50] = 1.0
	curve[80] = 1.0

	peaks := PeakPick(curve, DefaultPeakPickParams())
	if len(peaks) != 3 {
		t.Fatalf("got %d peaks, want 3: %v", len(peaks), peaks)
	}
	for i, want := range []int{20, 50, 80} {
		if peaks[i] != want {
			t.Errorf("peaks[%d] = %d, want %d", i, peaks[i], want)
		}
	}
}

func TestPeakPickDeltaThreshold(t *testing.T) {
	// A bump of 0.05 above a flat baseline stays under the local mean
	// plus the default delta of 0.1
	curve := make([]float64, 50)
	curve[25] = 0.05

	peaks := PeakPick(curve, DefaultPeakPickParams())
	if len(peaks) != 0 {
		t.Errorf("got peaks %v for a sub-threshold bump, want none", peaks)
	}
}

func TestPeakPickWaitSuppressesNeighbors(t *testing.T) {
	// Two equal peaks closer than the wait window: only the first survives
	curve := make([]float64, 60)
	curve[20] = 1.0
	curve[26] = 1.0

	params := DefaultPeakPickParams()
	peaks := PeakPick(curve, params)
	if len(peaks) != 1 || peaks[0] != 20 {
		t.Errorf("peaks = %v, want [20]", peaks)
	}
}

func TestPeakPickLocalMaxRejectsShoulder(t *testing.T) {
	// A sample adjacent to a larger value is not the local max
	curve := make([]float64, 50)
	curve[24] = 0.8
	curve[25] = 1.0

	peaks := PeakPick(curve, DefaultPeakPickParams())
	if len(peaks) != 1 || peaks[0] != 25 {
		t.Errorf("peaks = %v, want [25]", peaks)
	}
}
