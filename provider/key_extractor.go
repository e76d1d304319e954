package provider

import (
	"math"

	"github.com/soundprobe/tempokey/algorithms/chroma"
	"github.com/soundprobe/tempokey/algorithms/common"
	"github.com/soundprobe/tempokey/analysis"
)

// Temperley key profiles. Deliberately a different profile family than
// the ensemble's own matching, so the extractor contributes an
// independent opinion rather than echoing the chroma strategies.
var (
	temperleyMajor = common.NormalizeSum([]float64{
		5.0, 2.0, 3.5, 2.0, 4.5, 4.0, 2.0, 4.5, 2.0, 3.5, 1.5, 4.0,
	})
	temperleyMinor = common.NormalizeSum([]float64{
		5.0, 2.0, 3.5, 4.5, 2.0, 4.0, 2.0, 4.5, 3.5, 2.0, 1.5, 4.0,
	})
)

// ProfileKeyExtractor implements analysis.KeyExtractor by correlating the
// mean CQT chroma against rotated Temperley profiles. Strength is the
// best correlation clamped to [0, 1].
type ProfileKeyExtractor struct {
	hopSize int
}

// NewProfileKeyExtractor creates the built-in key extractor
func NewProfileKeyExtractor() *ProfileKeyExtractor {
	return &ProfileKeyExtractor{
		hopSize: 512,
	}
}

// ExtractKey returns the best-matching key, or ErrUnavailable when the
// signal carries no usable pitch content.
func (e *ProfileKeyExtractor) ExtractKey(pcm []float64, sampleRate int) (*analysis.KeyExtraction, error) {
	if len(pcm) == 0 || sampleRate <= 0 {
		return nil, analysis.ErrUnavailable
	}

	chromagram, err := chroma.NewChromaCQTDefault(sampleRate).ComputeChroma(pcm, e.hopSize)
	if err != nil {
		return nil, err
	}
	if len(chromagram) == 0 {
		return nil, analysis.ErrUnavailable
	}

	mean := make([]float64, 12)
	for _, frame := range chromagram {
		for i := 0; i < 12 && i < len(frame); i++ {
			mean[i] += frame[i]
		}
	}
	sum := 0.0
	for i := range mean {
		mean[i] /= float64(len(chromagram))
		sum += mean[i]
	}
	if sum <= 0 {
		return nil, analysis.ErrUnavailable
	}
	for i := range mean {
		mean[i] /= sum
	}

	bestCorr := math.Inf(-1)
	bestPitchClass := -1
	bestMode := analysis.ModeMajor

	rotated := make([]float64, 12)
	for pitchClass := 0; pitchClass < 12; pitchClass++ {
		for _, mode := range []analysis.Mode{analysis.ModeMajor, analysis.ModeMinor} {
			profile := temperleyMajor
			if mode == analysis.ModeMinor {
				profile = temperleyMinor
			}

			for n := 0; n < 12; n++ {
				rotated[n] = profile[((n-pitchClass)%12+12)%12]
			}

			corr := common.Correlation(mean, rotated)
			if math.IsNaN(corr) {
				continue
			}

			if corr > bestCorr {
				bestCorr = corr
				bestPitchClass = pitchClass
				bestMode = mode
			}
		}
	}

	if bestPitchClass < 0 {
		return nil, analysis.ErrUnavailable
	}

	return &analysis.KeyExtraction{
		PitchClass: bestPitchClass,
		Mode:       bestMode,
		Strength:   common.Clamp(bestCorr, 0.0, 1.0),
	}, nil
}
