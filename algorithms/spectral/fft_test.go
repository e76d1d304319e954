package spectral

import (
	"math"
	"testing"
)

func TestComputeInverseRoundtrip(t *testing.T) {
	f := NewFFT()

	signal := make([]float64, 256)
	for i := range signal {
		signal[i] = math.Sin(2.0*math.Pi*float64(i)/32.0) + 0.5*math.Cos(2.0*math.Pi*float64(i)/8.0)
	}

	spectrum := f.Compute(signal)
	recovered := f.ComputeInverseReal(spectrum)

	if len(recovered) != len(signal) {
		t.Fatalf("recovered length = %d, want %d", len(recovered), len(signal))
	}
	for i := range signal {
		if math.Abs(recovered[i]-signal[i]) > 1e-9 {
			t.Fatalf("sample %d: %v vs %v", i, recovered[i], signal[i])
		}
	}
}

func TestAutocorrelatePeriodicSignal(t *testing.T) {
	f := NewFFT()

	const period = 25
	signal := make([]float64, 500)
	for i := 0; i < len(signal); i += period {
		signal[i] = 1.0
	}

	autocorr := f.Autocorrelate(signal)
	if len(autocorr) != len(signal) {
		t.Fatalf("autocorr length = %d, want %d", len(autocorr), len(signal))
	}

	// Lag 0 dominates everything
	for lag := 1; lag < len(autocorr); lag++ {
		if autocorr[lag] > autocorr[0]+1e-9 {
			t.Fatalf("lag %d exceeds lag 0: %v > %v", lag, autocorr[lag], autocorr[0])
		}
	}

	// Among nonzero lags up to one period and a half, the period lag wins
	best := 1
	for lag := 2; lag < period*3/2; lag++ {
		if autocorr[lag] > autocorr[best] {
			best = lag
		}
	}
	if best != period {
		t.Errorf("strongest nonzero lag = %d, want %d", best, period)
	}

	// Lags between impulses carry no correlation
	if math.Abs(autocorr[period/2]) > 1e-6 {
		t.Errorf("autocorr at half period = %v, want ~0", autocorr[period/2])
	}
}

func TestAutocorrelateEmpty(t *testing.T) {
	f := NewFFT()
	if got := f.Autocorrelate(nil); len(got) != 0 {
		t.Errorf("Autocorrelate(nil) = %v, want empty", got)
	}
}
