package config

// TempoConfig configures the tempo estimation ensemble. Each strategy
// contributes weighted BPM candidates to the aggregator; weights reflect
// the historical reliability of each method.
type TempoConfig struct {
	// Strategy selection
	EnableBeatTracking    bool `json:"enable_beat_tracking"`
	EnableOnsetIntervals  bool `json:"enable_onset_intervals"`
	EnableHistogram       bool `json:"enable_histogram"`
	EnableAutocorrelation bool `json:"enable_autocorrelation"`
	EnablePriorBiased     bool `json:"enable_prior_biased"`

	// Multi-resolution beat tracking
	BeatTrackingHops   []int   `json:"beat_tracking_hops"`
	BeatTrackingWeight float64 `json:"beat_tracking_weight"`

	// Onset interval statistics
	OnsetIntervalWeight   float64 `json:"onset_interval_weight"`
	MinOnsetsForIntervals int     `json:"min_onsets_for_intervals"`

	// Packaged tempo histogram descriptor
	HistogramWeight float64 `json:"histogram_weight"`

	// Autocorrelation peak picking
	AutocorrelationWeight float64 `json:"autocorrelation_weight"`
	AutocorrelationHop    int     `json:"autocorrelation_hop"`

	// Prior-biased estimation
	PriorBiasedWeight float64 `json:"prior_biased_weight"`
	PriorMaxBPM       float64 `json:"prior_max_bpm"`

	// Plausible BPM range applied to raw candidates
	MinBPM float64 `json:"min_bpm"`
	MaxBPM float64 `json:"max_bpm"`
}

// KeyConfig configures the key estimation ensemble
type KeyConfig struct {
	// Strategy selection
	EnableChromaVariants bool `json:"enable_chroma_variants"`
	EnableExtractor      bool `json:"enable_extractor"`
	EnableHarmonicChroma bool `json:"enable_harmonic_chroma"`

	// Chroma variant profile matching
	ChromaSTFTWeight float64 `json:"chroma_stft_weight"`
	ChromaCQTWeight  float64 `json:"chroma_cqt_weight"`
	ChromaCENSWeight float64 `json:"chroma_cens_weight"`

	// External key extractor
	ExtractorStrengthThreshold float64 `json:"extractor_strength_threshold"`
	ExtractorWeightScale       float64 `json:"extractor_weight_scale"`

	// Harmonic-component chroma
	HarmonicChromaWeight float64 `json:"harmonic_chroma_weight"`
}

// FeatureConfig configures the comprehensive feature summary
type FeatureConfig struct {
	WindowSize       int     `json:"window_size"`
	HopSize          int     `json:"hop_size"`
	MFCCCoefficients int     `json:"mfcc_coefficients"`
	RolloffPercent   float64 `json:"rolloff_percent"`
}

// EngineConfig is the top-level analyzer configuration
type EngineConfig struct {
	Tempo    TempoConfig   `json:"tempo"`
	Key      KeyConfig     `json:"key"`
	Features FeatureConfig `json:"features"`
}

// DefaultTempoConfig returns the standard ensemble weighting
func DefaultTempoConfig() TempoConfig {
	return TempoConfig{
		EnableBeatTracking:    true,
		EnableOnsetIntervals:  true,
		EnableHistogram:       true,
		EnableAutocorrelation: true,
		EnablePriorBiased:     true,

		BeatTrackingHops:   []int{512, 1024, 2048},
		BeatTrackingWeight: 0.70,

		OnsetIntervalWeight:   0.60,
		MinOnsetsForIntervals: 4,

		HistogramWeight: 0.80,

		AutocorrelationWeight: 0.65,
		AutocorrelationHop:    512,

		PriorBiasedWeight: 0.75,
		PriorMaxBPM:       240.0,

		MinBPM: 40.0,
		MaxBPM: 200.0,
	}
}

// DefaultKeyConfig returns the standard ensemble weighting
func DefaultKeyConfig() KeyConfig {
	return KeyConfig{
		EnableChromaVariants: true,
		EnableExtractor:      true,
		EnableHarmonicChroma: true,

		ChromaSTFTWeight: 0.4,
		ChromaCQTWeight:  0.4,
		ChromaCENSWeight: 0.2,

		ExtractorStrengthThreshold: 0.1,
		ExtractorWeightScale:       0.8,

		HarmonicChromaWeight: 0.6,
	}
}

// DefaultFeatureConfig returns the standard summary parameters
func DefaultFeatureConfig() FeatureConfig {
	return FeatureConfig{
		WindowSize:       2048,
		HopSize:          512,
		MFCCCoefficients: 13,
		RolloffPercent:   0.85,
	}
}

// DefaultEngineConfig returns the full default configuration
func DefaultEngineConfig() *EngineConfig {
	return &EngineConfig{
		Tempo:    DefaultTempoConfig(),
		Key:      DefaultKeyConfig(),
		Features: DefaultFeatureConfig(),
	}
}
