package analysis

import (
	"errors"
)

// ErrUnavailable is returned by providers for capabilities they do not
// implement. The ensembles treat it as "skip this strategy" rather than
// a failure worth logging.
var ErrUnavailable = errors.New("analysis: capability unavailable")

// ChromaVariant selects the chromagram algorithm used by a provider
type ChromaVariant string

const (
	ChromaVariantSTFT ChromaVariant = "stft"
	ChromaVariantCQT  ChromaVariant = "cqt"
	ChromaVariantCENS ChromaVariant = "cens"
)

// TempoHistogramDescriptor is a packaged tempo summary from a provider's
// own histogram analysis, analogous to a precomputed tempo descriptor
// shipped alongside the audio.
type TempoHistogramDescriptor struct {
	BPM        float64 `json:"bpm"`        // Dominant tempo; <= 0 means none found
	Confidence float64 `json:"confidence"` // Provider's own confidence, informational
}

// Mode distinguishes major from minor keys
type Mode int

const (
	ModeMajor Mode = iota
	ModeMinor
)

// String returns "major" or "minor"
func (m Mode) String() string {
	if m == ModeMinor {
		return "minor"
	}
	return "major"
}

// KeyExtraction is a packaged key estimate from a dedicated extractor
type KeyExtraction struct {
	PitchClass int     `json:"pitch_class"` // 0 = C ... 11 = B
	Mode       Mode    `json:"mode"`
	Strength   float64 `json:"strength"` // Extractor's confidence in [0, 1]
}

// FeatureProvider supplies the low-level audio features the ensembles
// consume. Implementations are treated as black boxes: any method may
// fail, and a failing method only removes that strategy's candidates.
type FeatureProvider interface {
	// Chroma returns a time x 12 chromagram for the requested variant.
	Chroma(pcm []float64, sampleRate int, variant ChromaVariant) ([][]float64, error)

	// OnsetTimes returns detected onset positions in seconds, ascending.
	OnsetTimes(pcm []float64, sampleRate int) ([]float64, error)

	// BeatTrack returns the tracked tempo in BPM at the given hop size,
	// or 0 when no tempo could be tracked.
	BeatTrack(pcm []float64, sampleRate, hopSize int) (float64, error)

	// OnsetStrength returns the onset strength envelope at the given hop.
	OnsetStrength(pcm []float64, sampleRate, hopSize int) ([]float64, error)

	// HPSS splits the signal into harmonic and percussive components.
	HPSS(pcm []float64, sampleRate int) (harmonic, percussive []float64, err error)

	// TempoHistogram returns a packaged tempo descriptor, or
	// ErrUnavailable when the provider has none.
	TempoHistogram(pcm []float64, sampleRate int) (*TempoHistogramDescriptor, error)
}

// KeyExtractor is an optional dedicated key estimation collaborator,
// separate from the chroma-based profile matching.
type KeyExtractor interface {
	// ExtractKey returns the extractor's key estimate, or ErrUnavailable.
	ExtractKey(pcm []float64, sampleRate int) (*KeyExtraction, error)
}
