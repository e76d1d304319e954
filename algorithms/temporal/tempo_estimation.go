package temporal

import (
	"fmt"
	"math"

	"github.com/soundprobe/tempokey/algorithms/spectral"
)

// TempoEstimation estimates tempo from the periodicity of the onset
// strength envelope. Candidate periods come from the envelope's
// autocorrelation; a log-normal prior over BPM breaks octave ties.
type TempoEstimation struct {
	onsetStrength *OnsetStrength
	fft           *spectral.FFT
}

// TempoParams contains parameters for autocorrelation tempo estimation
type TempoParams struct {
	MinBPM   float64 `json:"min_bpm"`   // Lower bound of the search range
	MaxBPM   float64 `json:"max_bpm"`   // Upper bound of the search range
	StartBPM float64 `json:"start_bpm"` // Center of the log-normal prior
	StdBPM   float64 `json:"std_bpm"`   // Prior width in octaves
}

// NewTempoEstimation creates a new tempo estimator
func NewTempoEstimation() *TempoEstimation {
	return &TempoEstimation{
		onsetStrength: NewOnsetStrength(),
		fft:           spectral.NewFFT(),
	}
}

// EstimateBeatTracking estimates tempo in BPM via beat-period analysis of
// the onset strength envelope at the given hop size. Returns 0 when the
// signal is too short to produce an envelope.
func (te *TempoEstimation) EstimateBeatTracking(signal []float64, sampleRate, hopSize int) (float64, error) {
	params := TempoParams{
		MinBPM:   40.0,
		MaxBPM:   200.0,
		StartBPM: 120.0,
		StdBPM:   1.0,
	}
	return te.estimateWithParams(signal, sampleRate, hopSize, params)
}

func (te *TempoEstimation) estimateWithParams(signal []float64, sampleRate, hopSize int, params TempoParams) (float64, error) {
	if len(signal) == 0 {
		return 0.0, nil
	}
	if hopSize <= 0 {
		return 0.0, fmt.Errorf("invalid hop size: %d", hopSize)
	}

	envelope, err := te.onsetStrength.Compute(signal, sampleRate, hopSize)
	if err != nil {
		return 0.0, fmt.Errorf("failed to compute onset strength: %w", err)
	}

	return te.EstimateFromEnvelope(envelope, sampleRate, hopSize, params), nil
}

// EstimateFromEnvelope estimates tempo from a precomputed onset strength
// envelope. Returns 0 when the envelope is too short or shows no
// periodicity in the search range.
func (te *TempoEstimation) EstimateFromEnvelope(envelope []float64, sampleRate, hopSize int, params TempoParams) float64 {
	if len(envelope) < 4 || hopSize <= 0 {
		return 0.0
	}

	autocorr := te.fft.Autocorrelate(envelope)

	framesPerSecond := float64(sampleRate) / float64(hopSize)
	minLag := int(math.Floor(60.0 / params.MaxBPM * framesPerSecond))
	maxLag := int(math.Ceil(60.0 / params.MinBPM * framesPerSecond))
	if minLag < 1 {
		minLag = 1
	}
	if maxLag >= len(autocorr) {
		maxLag = len(autocorr) - 1
	}
	if minLag > maxLag {
		return 0.0
	}

	// Normalize so the prior weighting operates on comparable values
	if autocorr[0] > 0 {
		for i := range autocorr {
			autocorr[i] /= autocorr[0]
		}
	}

	bestLag := 0
	bestScore := math.Inf(-1)
	for lag := minLag; lag <= maxLag; lag++ {
		bpm := 60.0 * framesPerSecond / float64(lag)
		score := autocorr[lag] * logNormalPrior(bpm, params.StartBPM, params.StdBPM)
		if score > bestScore {
			bestScore = score
			bestLag = lag
		}
	}

	// A flat envelope produces no positive score; report no tempo rather
	// than the shortest searchable lag.
	if bestLag == 0 || bestScore <= 0 {
		return 0.0
	}

	return 60.0 * framesPerSecond / float64(bestLag)
}

// logNormalPrior weights a BPM candidate by its distance in octaves from
// the prior center
func logNormalPrior(bpm, startBPM, stdBPM float64) float64 {
	if bpm <= 0 {
		return 0.0
	}
	octaves := math.Log2(bpm / startBPM)
	return math.Exp(-0.5 * (octaves / stdBPM) * (octaves / stdBPM))
}
