package analysis

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/soundprobe/tempokey/algorithms/common"
	"github.com/soundprobe/tempokey/algorithms/spectral"
	"github.com/soundprobe/tempokey/algorithms/temporal"
	"github.com/soundprobe/tempokey/analysis/config"
	"github.com/soundprobe/tempokey/logging"
)

// TempoCandidate is one strategy's BPM estimate with its reliability weight
type TempoCandidate struct {
	BPM    float64 `json:"bpm"`
	Weight float64 `json:"weight"`
	Source string  `json:"source"`
}

// TempoEstimate is the aggregated tempo result
type TempoEstimate struct {
	BPM        float64 `json:"bpm"`
	Confidence float64 `json:"confidence"`
}

// TempoEstimator runs the tempo strategy ensemble and aggregates the
// candidates into a single estimate.
type TempoEstimator struct {
	provider FeatureProvider
	cfg      config.TempoConfig
	tempo    *temporal.TempoEstimation
	fft      *spectral.FFT
	logger   logging.Logger
}

// NewTempoEstimator creates an estimator over the given provider
func NewTempoEstimator(provider FeatureProvider, cfg config.TempoConfig) *TempoEstimator {
	return &TempoEstimator{
		provider: provider,
		cfg:      cfg,
		tempo:    temporal.NewTempoEstimation(),
		fft:      spectral.NewFFT(),
		logger:   logging.GetGlobalLogger().WithFields(logging.Fields{"component": "tempo_estimator"}),
	}
}

// Estimate runs all enabled strategies and aggregates their candidates.
// Returns nil when no strategy produced a usable candidate.
func (te *TempoEstimator) Estimate(w *Waveform) *TempoEstimate {
	candidates := te.collectCandidates(w)
	return te.aggregate(candidates)
}

type tempoStrategy struct {
	name    string
	enabled bool
	run     func(*Waveform) []TempoCandidate
}

// collectCandidates runs the strategies concurrently. Results are gathered
// per strategy and concatenated in fixed order so the candidate list is
// deterministic regardless of scheduling.
func (te *TempoEstimator) collectCandidates(w *Waveform) []TempoCandidate {
	strategies := []tempoStrategy{
		{"beat_tracking", te.cfg.EnableBeatTracking, te.beatTrackingCandidates},
		{"onset_intervals", te.cfg.EnableOnsetIntervals, te.onsetIntervalCandidates},
		{"histogram", te.cfg.EnableHistogram, te.histogramCandidates},
		{"autocorrelation", te.cfg.EnableAutocorrelation, te.autocorrelationCandidates},
		{"prior_biased", te.cfg.EnablePriorBiased, te.priorBiasedCandidates},
	}

	results := make([][]TempoCandidate, len(strategies))

	var wg sync.WaitGroup
	for i, strategy := range strategies {
		if !strategy.enabled {
			continue
		}

		wg.Add(1)
		go func(idx int, s tempoStrategy) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					te.logger.Warn("tempo strategy panicked", logging.Fields{
						"strategy": s.name,
						"panic":    fmt.Sprintf("%v", r),
					})
					results[idx] = nil
				}
			}()
			results[idx] = s.run(w)
		}(i, strategy)
	}
	wg.Wait()

	var candidates []TempoCandidate
	for _, result := range results {
		candidates = append(candidates, result...)
	}

	return candidates
}

// beatTrackingCandidates tracks tempo at several hop sizes; coarser hops
// trade time resolution for smoother periodicity estimates
func (te *TempoEstimator) beatTrackingCandidates(w *Waveform) []TempoCandidate {
	var candidates []TempoCandidate

	for _, hopSize := range te.cfg.BeatTrackingHops {
		bpm, err := te.provider.BeatTrack(w.PCM, w.SampleRate, hopSize)
		if err != nil {
			te.logger.Warn("beat tracking failed", logging.Fields{
				"hop_size": hopSize,
				"error":    err.Error(),
			})
			continue
		}

		if bpm > 0 {
			candidates = append(candidates, TempoCandidate{
				BPM:    bpm,
				Weight: te.cfg.BeatTrackingWeight,
				Source: "beat_tracking",
			})
		}
	}

	return candidates
}

// onsetIntervalCandidates derives tempo from the median inter-onset interval
func (te *TempoEstimator) onsetIntervalCandidates(w *Waveform) []TempoCandidate {
	onsets, err := te.provider.OnsetTimes(w.PCM, w.SampleRate)
	if err != nil {
		te.logger.Warn("onset detection failed", logging.Fields{"error": err.Error()})
		return nil
	}

	if len(onsets) < te.cfg.MinOnsetsForIntervals {
		return nil
	}

	intervals := make([]float64, len(onsets)-1)
	for i := range intervals {
		intervals[i] = onsets[i+1] - onsets[i]
	}

	medianInterval := common.Median(intervals)
	if medianInterval <= 0 {
		return nil
	}

	bpm := 60.0 / medianInterval
	if bpm < te.cfg.MinBPM || bpm > te.cfg.MaxBPM {
		return nil
	}

	return []TempoCandidate{{
		BPM:    bpm,
		Weight: te.cfg.OnsetIntervalWeight,
		Source: "onset_intervals",
	}}
}

// histogramCandidates consumes the provider's packaged tempo descriptor
func (te *TempoEstimator) histogramCandidates(w *Waveform) []TempoCandidate {
	descriptor, err := te.provider.TempoHistogram(w.PCM, w.SampleRate)
	if err != nil {
		if !errors.Is(err, ErrUnavailable) {
			te.logger.Warn("tempo histogram failed", logging.Fields{"error": err.Error()})
		}
		return nil
	}

	if descriptor == nil || descriptor.BPM <= 0 {
		return nil
	}

	return []TempoCandidate{{
		BPM:    descriptor.BPM,
		Weight: te.cfg.HistogramWeight,
		Source: "histogram",
	}}
}

// autocorrelationCandidates converts the first onset-strength
// autocorrelation peak into a BPM
func (te *TempoEstimator) autocorrelationCandidates(w *Waveform) []TempoCandidate {
	hopSize := te.cfg.AutocorrelationHop

	envelope, err := te.provider.OnsetStrength(w.PCM, w.SampleRate, hopSize)
	if err != nil {
		te.logger.Warn("onset strength failed", logging.Fields{"error": err.Error()})
		return nil
	}
	if len(envelope) == 0 {
		return nil
	}

	autocorr := te.fft.Autocorrelate(envelope)
	peaks := temporal.PeakPick(autocorr, temporal.DefaultPeakPickParams())
	if len(peaks) == 0 {
		return nil
	}

	lag := peaks[0]
	if lag <= 0 {
		return nil
	}

	bpm := 60.0 * float64(w.SampleRate) / (float64(lag) * float64(hopSize))
	if bpm < te.cfg.MinBPM || bpm > te.cfg.MaxBPM {
		return nil
	}

	return []TempoCandidate{{
		BPM:    bpm,
		Weight: te.cfg.AutocorrelationWeight,
		Source: "autocorrelation",
	}}
}

// priorBiasedCandidates estimates tempo from the onset strength envelope
// with a log-normal prior and a widened search range
func (te *TempoEstimator) priorBiasedCandidates(w *Waveform) []TempoCandidate {
	hopSize := te.cfg.AutocorrelationHop

	envelope, err := te.provider.OnsetStrength(w.PCM, w.SampleRate, hopSize)
	if err != nil {
		te.logger.Warn("onset strength failed", logging.Fields{"error": err.Error()})
		return nil
	}

	bpm := te.tempo.EstimateFromEnvelope(envelope, w.SampleRate, hopSize, temporal.TempoParams{
		MinBPM:   30.0,
		MaxBPM:   te.cfg.PriorMaxBPM,
		StartBPM: 120.0,
		StdBPM:   1.0,
	})

	if bpm <= 0 {
		return nil
	}

	return []TempoCandidate{{
		BPM:    bpm,
		Weight: te.cfg.PriorBiasedWeight,
		Source: "prior_biased",
	}}
}

// aggregate reduces the candidate list to one estimate: outlier rejection
// against the median (when more than two candidates exist), weighted mean
// of values, arithmetic mean of weights, then one octave-correction pass.
func (te *TempoEstimator) aggregate(candidates []TempoCandidate) *TempoEstimate {
	if len(candidates) == 0 {
		return nil
	}

	values := make([]float64, len(candidates))
	weights := make([]float64, len(candidates))
	for i, c := range candidates {
		values[i] = c.BPM
		weights[i] = c.Weight
	}

	if len(values) > 2 {
		median := common.Median(values)
		std := common.PopulationStdDev(values)

		var keptValues, keptWeights []float64
		for i, v := range values {
			if math.Abs(v-median) <= 2.0*std {
				keptValues = append(keptValues, v)
				keptWeights = append(keptWeights, weights[i])
			}
		}
		values = keptValues
		weights = keptWeights
	}

	if len(values) == 0 {
		return nil
	}

	bpm := common.WeightedMean(values, weights)
	confidence := common.Mean(weights)

	// Common octave errors: a single pass, never both directions
	if bpm > 160 {
		half := bpm / 2.0
		if half >= 80 && half <= 140 {
			bpm = half
		}
	} else if bpm < 80 {
		double := bpm * 2.0
		if double >= 120 && double <= 160 {
			bpm = double
		}
	}

	return &TempoEstimate{
		BPM:        common.RoundTo(bpm, 1),
		Confidence: common.RoundTo(confidence, 2),
	}
}
