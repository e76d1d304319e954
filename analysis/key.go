package analysis

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/soundprobe/tempokey/algorithms/common"
	"github.com/soundprobe/tempokey/analysis/config"
	"github.com/soundprobe/tempokey/logging"
)

// pitchNames indexes pitch classes C through B
var pitchNames = []string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// Krumhansl-Schmuckler key profiles: perceptual pitch-class salience for a
// major and a minor key rooted at index 0, normalized to unit sum.
var (
	majorProfile = common.NormalizeSum([]float64{
		6.35, 2.23, 3.48, 2.33, 4.38, 4.09, 2.52, 5.19, 2.39, 3.66, 2.29, 2.88,
	})
	minorProfile = common.NormalizeSum([]float64{
		6.33, 2.68, 3.52, 5.38, 2.60, 3.53, 2.54, 4.75, 3.98, 2.69, 3.34, 3.17,
	})
)

// KeyCandidate is one strategy's weighted score for a key hypothesis
type KeyCandidate struct {
	PitchClass int     `json:"pitch_class"`
	Mode       Mode    `json:"mode"`
	Score      float64 `json:"score"`
	Source     string  `json:"source"`
}

// KeyEstimate is the aggregated key result
type KeyEstimate struct {
	PitchClass int     `json:"pitch_class"`
	Mode       Mode    `json:"mode"`
	Confidence float64 `json:"confidence"`
}

// Name renders the estimate as "C major" style text
func (k *KeyEstimate) Name() string {
	return fmt.Sprintf("%s %s", pitchNames[k.PitchClass], k.Mode)
}

// KeyEstimator runs the key strategy ensemble and aggregates candidate
// scores over the 24 key hypotheses.
type KeyEstimator struct {
	provider  FeatureProvider
	extractor KeyExtractor
	cfg       config.KeyConfig
	logger    logging.Logger
}

// NewKeyEstimator creates an estimator over the given collaborators.
// The extractor may be nil, which disables the extractor strategy.
func NewKeyEstimator(provider FeatureProvider, extractor KeyExtractor, cfg config.KeyConfig) *KeyEstimator {
	return &KeyEstimator{
		provider:  provider,
		extractor: extractor,
		cfg:       cfg,
		logger:    logging.GetGlobalLogger().WithFields(logging.Fields{"component": "key_estimator"}),
	}
}

// Estimate runs all enabled strategies and aggregates their candidates.
// Returns nil when no strategy produced a candidate.
func (ke *KeyEstimator) Estimate(w *Waveform) *KeyEstimate {
	candidates := ke.collectCandidates(w)
	return ke.aggregate(candidates)
}

type keyStrategy struct {
	name    string
	enabled bool
	run     func(*Waveform) []KeyCandidate
}

// collectCandidates runs the strategies concurrently, concatenating the
// per-strategy results in fixed order for determinism
func (ke *KeyEstimator) collectCandidates(w *Waveform) []KeyCandidate {
	strategies := []keyStrategy{
		{"chroma_variants", ke.cfg.EnableChromaVariants, ke.chromaVariantCandidates},
		{"extractor", ke.cfg.EnableExtractor && ke.extractor != nil, ke.extractorCandidates},
		{"harmonic_chroma", ke.cfg.EnableHarmonicChroma, ke.harmonicChromaCandidates},
	}

	results := make([][]KeyCandidate, len(strategies))

	var wg sync.WaitGroup
	for i, strategy := range strategies {
		if !strategy.enabled {
			continue
		}

		wg.Add(1)
		go func(idx int, s keyStrategy) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					ke.logger.Warn("key strategy panicked", logging.Fields{
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

	var candidates []KeyCandidate
	for _, result := range results {
		candidates = append(candidates, result...)
	}

	return candidates
}

// chromaVariantCandidates scores the mean chroma of each chromagram
// variant against the key profiles
func (ke *KeyEstimator) chromaVariantCandidates(w *Waveform) []KeyCandidate {
	variants := []struct {
		variant ChromaVariant
		weight  float64
	}{
		{ChromaVariantSTFT, ke.cfg.ChromaSTFTWeight},
		{ChromaVariantCQT, ke.cfg.ChromaCQTWeight},
		{ChromaVariantCENS, ke.cfg.ChromaCENSWeight},
	}

	var candidates []KeyCandidate

	for _, v := range variants {
		chromagram, err := ke.provider.Chroma(w.PCM, w.SampleRate, v.variant)
		if err != nil {
			ke.logger.Warn("chroma computation failed", logging.Fields{
				"variant": string(v.variant),
				"error":   err.Error(),
			})
			continue
		}

		mean := meanChroma(chromagram)
		if mean == nil {
			continue
		}

		candidates = append(candidates,
			scoreAgainstProfiles(mean, v.weight, "chroma_"+string(v.variant))...)
	}

	return candidates
}

// extractorCandidates consumes the dedicated key extractor's estimate
func (ke *KeyEstimator) extractorCandidates(w *Waveform) []KeyCandidate {
	extraction, err := ke.extractor.ExtractKey(w.PCM, w.SampleRate)
	if err != nil {
		if !errors.Is(err, ErrUnavailable) {
			ke.logger.Warn("key extractor failed", logging.Fields{"error": err.Error()})
		}
		return nil
	}

	if extraction == nil || extraction.Strength <= ke.cfg.ExtractorStrengthThreshold {
		return nil
	}
	if extraction.PitchClass < 0 || extraction.PitchClass >= 12 {
		return nil
	}
	if extraction.Mode != ModeMajor && extraction.Mode != ModeMinor {
		return nil
	}

	return []KeyCandidate{{
		PitchClass: extraction.PitchClass,
		Mode:       extraction.Mode,
		Score:      extraction.Strength * ke.cfg.ExtractorWeightScale,
		Source:     "extractor",
	}}
}

// harmonicChromaCandidates restricts profile matching to the harmonic
// component, removing percussive energy that blurs pitch content
func (ke *KeyEstimator) harmonicChromaCandidates(w *Waveform) []KeyCandidate {
	harmonic, _, err := ke.provider.HPSS(w.PCM, w.SampleRate)
	if err != nil {
		ke.logger.Warn("harmonic separation failed", logging.Fields{"error": err.Error()})
		return nil
	}

	chromagram, err := ke.provider.Chroma(harmonic, w.SampleRate, ChromaVariantCQT)
	if err != nil {
		ke.logger.Warn("harmonic chroma failed", logging.Fields{"error": err.Error()})
		return nil
	}

	mean := meanChroma(chromagram)
	if mean == nil {
		return nil
	}

	return scoreAgainstProfiles(mean, ke.cfg.HarmonicChromaWeight, "harmonic_chroma")
}

// aggregate sums candidate scores into a fixed table of 24 hypothesis
// slots and selects the best-supported one. The strict comparison during
// the ascending scan makes ties resolve to the lower pitch class, major
// before minor.
func (ke *KeyEstimator) aggregate(candidates []KeyCandidate) *KeyEstimate {
	if len(candidates) == 0 {
		return nil
	}

	var scores [24]float64
	for _, c := range candidates {
		scores[c.PitchClass*2+int(c.Mode)] += c.Score
	}

	bestSlot := 0
	bestScore := scores[0]
	for slot := 1; slot < len(scores); slot++ {
		if scores[slot] > bestScore {
			bestScore = scores[slot]
			bestSlot = slot
		}
	}

	confidence := common.Clamp(bestScore, 0.0, 1.0)

	return &KeyEstimate{
		PitchClass: bestSlot / 2,
		Mode:       Mode(bestSlot % 2),
		Confidence: common.RoundTo(confidence, 2),
	}
}

// meanChroma averages a time x 12 chromagram into a single normalized
// pitch-class vector. Returns nil for empty or degenerate input.
func meanChroma(chromagram [][]float64) []float64 {
	if len(chromagram) == 0 || len(chromagram[0]) != 12 {
		return nil
	}

	mean := make([]float64, 12)
	for _, frame := range chromagram {
		for i := 0; i < 12 && i < len(frame); i++ {
			mean[i] += frame[i]
		}
	}
	for i := range mean {
		mean[i] /= float64(len(chromagram))
	}

	sum := 0.0
	for _, v := range mean {
		sum += v
	}
	if sum <= 0 {
		return nil
	}
	for i := range mean {
		mean[i] /= sum
	}

	return mean
}

// scoreAgainstProfiles correlates a normalized mean chroma vector against
// all 24 rotated key profiles, producing one weighted candidate per
// hypothesis. Degenerate correlations (zero variance) are skipped.
func scoreAgainstProfiles(chromaMean []float64, weight float64, source string) []KeyCandidate {
	var candidates []KeyCandidate

	rotated := make([]float64, 12)

	for pitchClass := 0; pitchClass < 12; pitchClass++ {
		for _, mode := range []Mode{ModeMajor, ModeMinor} {
			profile := majorProfile
			if mode == ModeMinor {
				profile = minorProfile
			}

			// Rotate the profile so its tonic lands on this pitch class
			for n := 0; n < 12; n++ {
				rotated[n] = profile[((n-pitchClass)%12+12)%12]
			}

			corr := common.Correlation(chromaMean, rotated)
			if math.IsNaN(corr) {
				continue
			}

			candidates = append(candidates, KeyCandidate{
				PitchClass: pitchClass,
				Mode:       mode,
				Score:      corr * weight,
				Source:     source,
			})
		}
	}

	return candidates
}
