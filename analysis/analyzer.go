package analysis

import (
	"fmt"

	"github.com/soundprobe/tempokey/algorithms/common"
	"github.com/soundprobe/tempokey/algorithms/spectral"
	"github.com/soundprobe/tempokey/algorithms/temporal"
	"github.com/soundprobe/tempokey/algorithms/windowing"
	"github.com/soundprobe/tempokey/analysis/config"
	"github.com/soundprobe/tempokey/logging"
)

// AnalysisResult is the complete analysis of one waveform. BPM is nil
// when the tempo ensemble produced no candidates; Key is "Unknown" when
// the key ensemble produced none.
type AnalysisResult struct {
	BPM               *float64  `json:"bpm"`
	BPMConfidence     float64   `json:"bpm_confidence"`
	Key               string    `json:"key"`
	KeyConfidence     float64   `json:"key_confidence"`
	Duration          float64   `json:"duration"`
	SpectralCentroid  float64   `json:"spectral_centroid"`
	SpectralRolloff   float64   `json:"spectral_rolloff"`
	SpectralBandwidth float64   `json:"spectral_bandwidth"`
	ZeroCrossingRate  float64   `json:"zero_crossing_rate"`
	DynamicRange      float64   `json:"dynamic_range"`
	MFCCFeatures      []float64 `json:"mfcc_features"`
	SampleRate        int       `json:"sample_rate"`
	Success           bool      `json:"analysis_success"`
	Error             string    `json:"error,omitempty"`
}

// BPMDescription renders the tempo as text with a musical pace label
func (r *AnalysisResult) BPMDescription() string {
	if r.BPM == nil {
		return "Unknown tempo"
	}

	bpm := *r.BPM
	var label string
	switch {
	case bpm < 60:
		label = "Very Slow"
	case bpm < 80:
		label = "Slow"
	case bpm < 100:
		label = "Moderate"
	case bpm < 120:
		label = "Medium"
	case bpm < 140:
		label = "Fast"
	case bpm < 160:
		label = "Very Fast"
	default:
		label = "Extremely Fast"
	}

	return fmt.Sprintf("%g BPM (%s)", bpm, label)
}

// Analyzer runs both estimation ensembles plus the spectral/temporal
// feature summary over a waveform. It is the engine's sole failure
// boundary: any error or panic from the provider, the extractor, or the
// feature computations becomes a Success=false result instead of
// propagating.
type Analyzer struct {
	cfg            *config.EngineConfig
	tempoEstimator *TempoEstimator
	keyEstimator   *KeyEstimator
	stft           *spectral.STFT
	dynamicRange   *temporal.DynamicRange
	logger         logging.Logger
}

// NewAnalyzer creates an analyzer with the default configuration.
// The extractor may be nil.
func NewAnalyzer(provider FeatureProvider, extractor KeyExtractor) *Analyzer {
	return NewAnalyzerWithConfig(provider, extractor, config.DefaultEngineConfig())
}

// NewAnalyzerWithConfig creates an analyzer with a custom configuration
func NewAnalyzerWithConfig(provider FeatureProvider, extractor KeyExtractor, cfg *config.EngineConfig) *Analyzer {
	if cfg == nil {
		cfg = config.DefaultEngineConfig()
	}

	return &Analyzer{
		cfg:            cfg,
		tempoEstimator: NewTempoEstimator(provider, cfg.Tempo),
		keyEstimator:   NewKeyEstimator(provider, extractor, cfg.Key),
		stft:           spectral.NewSTFT(),
		dynamicRange:   temporal.NewDynamicRange(),
		logger:         logging.GetGlobalLogger().WithFields(logging.Fields{"component": "analyzer"}),
	}
}

// Analyze produces the full analysis result. It never returns an error:
// failures surface as a result with Success=false and zeroed features.
func (a *Analyzer) Analyze(w *Waveform) (result *AnalysisResult) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("analysis panicked: %v", r)
			a.logger.Error(err, "recovered from analysis panic")
			result = failedResult(err)
		}
	}()

	if w == nil || w.SampleRate <= 0 {
		return failedResult(fmt.Errorf("invalid waveform"))
	}

	a.logger.Debug("starting analysis", logging.Fields{
		"samples":     len(w.PCM),
		"sample_rate": w.SampleRate,
	})

	tempo := a.tempoEstimator.Estimate(w)
	key := a.keyEstimator.Estimate(w)

	result = &AnalysisResult{
		Key:        "Unknown",
		Duration:   common.RoundTo(w.Duration(), 2),
		SampleRate: w.SampleRate,
		Success:    true,
	}

	if tempo != nil {
		result.BPM = &tempo.BPM
		result.BPMConfidence = tempo.Confidence
	}
	if key != nil {
		result.Key = key.Name()
		result.KeyConfidence = key.Confidence
	}

	if err := a.summarizeFeatures(w, result); err != nil {
		a.logger.Error(err, "feature summary failed")
		return failedResult(err)
	}

	a.logger.Debug("analysis complete", logging.Fields{
		"key":            result.Key,
		"bpm_confidence": result.BPMConfidence,
		"key_confidence": result.KeyConfidence,
	})

	return result
}

// summarizeFeatures fills the result's spectral and temporal descriptors
// from a single shared STFT.
func (a *Analyzer) summarizeFeatures(w *Waveform, result *AnalysisResult) error {
	fc := a.cfg.Features

	if len(w.PCM) < fc.WindowSize {
		return fmt.Errorf("waveform too short for feature summary: %d samples", len(w.PCM))
	}

	window := windowing.NewHann(fc.WindowSize, false)
	stftResult, err := a.stft.ComputeWithWindow(w.PCM, fc.WindowSize, fc.HopSize, w.SampleRate, window)
	if err != nil {
		return fmt.Errorf("failed to compute STFT: %w", err)
	}

	centroid := spectral.NewSpectralCentroid(w.SampleRate)
	centroids := centroid.ComputeFrames(stftResult.Magnitude)

	rolloff := spectral.NewSpectralRolloff(w.SampleRate)
	rolloffs := rolloff.ComputeFrames(stftResult.Magnitude, fc.RolloffPercent)

	bandwidth := spectral.NewSpectralBandwidth(w.SampleRate)
	bandwidths := bandwidth.ComputeFrames(stftResult.Magnitude, centroids)

	zcr := spectral.NewZeroCrossingRateWithParams(w.SampleRate, fc.WindowSize, fc.HopSize)
	zcrFrames := zcr.ComputeFramesNormalized(w.PCM)

	mfcc := spectral.NewMFCC(w.SampleRate, fc.MFCCCoefficients)
	mfccFrames, err := mfcc.ComputeFrames(stftResult.Magnitude)
	if err != nil {
		return fmt.Errorf("failed to compute MFCC: %w", err)
	}

	result.SpectralCentroid = common.RoundTo(common.Mean(centroids), 1)
	result.SpectralRolloff = common.RoundTo(common.Mean(rolloffs), 1)
	result.SpectralBandwidth = common.RoundTo(common.Mean(bandwidths), 1)
	result.ZeroCrossingRate = common.RoundTo(common.Mean(zcrFrames), 4)
	result.DynamicRange = common.RoundTo(
		a.dynamicRange.ComputeEnvelopeRange(w.PCM, fc.WindowSize, fc.HopSize), 4)
	result.MFCCFeatures = meanPerCoefficient(mfccFrames, fc.MFCCCoefficients)

	return nil
}

// failedResult builds the Success=false result shape
func failedResult(err error) *AnalysisResult {
	result := &AnalysisResult{
		Key:     "Unknown",
		Success: false,
	}
	if err != nil {
		result.Error = err.Error()
	}
	return result
}

// meanPerCoefficient averages MFCC frames into one vector per coefficient
func meanPerCoefficient(frames [][]float64, numCoefficients int) []float64 {
	means := make([]float64, numCoefficients)
	if len(frames) == 0 {
		return means
	}

	for _, frame := range frames {
		for i := 0; i < numCoefficients && i < len(frame); i++ {
			means[i] += frame[i]
		}
	}
	for i := range means {
		means[i] /= float64(len(frames))
	}

	return means
}
