package temporal

import (
	"math"

	"github.com/soundprobe/tempokey/algorithms/spectral"
)

// OnsetStrength computes a mel-band spectral flux novelty curve.
// Each value measures how much spectral energy increased between
// consecutive frames, which makes the curve peak at note onsets.
type OnsetStrength struct {
	stft        *spectral.STFT
	melScale    *spectral.MelScale
	windowSize  int
	numMelBands int
}

// NewOnsetStrength creates an onset strength computer with default parameters
func NewOnsetStrength() *OnsetStrength {
	return &OnsetStrength{
		stft:        spectral.NewSTFT(),
		melScale:    spectral.NewMelScale(),
		windowSize:  2048,
		numMelBands: 128,
	}
}

// Compute calculates the onset strength envelope at the given hop size.
// The returned curve has one value per STFT frame; the first frame is zero
// since flux needs a previous frame to difference against.
func (os *OnsetStrength) Compute(signal []float64, sampleRate, hopSize int) ([]float64, error) {
	if len(signal) < os.windowSize {
		return []float64{}, nil
	}
	if hopSize <= 0 {
		hopSize = 512
	}

	stftResult, err := os.stft.ComputeWithWindow(signal, os.windowSize, hopSize, sampleRate, nil)
	if err != nil {
		return nil, err
	}

	if len(stftResult.Magnitude) < 2 {
		return make([]float64, len(stftResult.Magnitude)), nil
	}

	// Power mel spectrogram with log compression
	powerFrames := make([][]float64, len(stftResult.Magnitude))
	for t, frame := range stftResult.Magnitude {
		power := make([]float64, len(frame))
		for i, mag := range frame {
			power[i] = mag * mag
		}
		powerFrames[t] = power
	}

	melFrames := os.melScale.ComputeMelSpectrogramFrames(
		powerFrames, os.numMelBands, sampleRate, 0.0, float64(sampleRate)/2.0)

	logMel := make([][]float64, len(melFrames))
	for t, frame := range melFrames {
		logFrame := make([]float64, len(frame))
		for i, mel := range frame {
			logFrame[i] = 10.0 * math.Log10(math.Max(mel, 1e-10))
		}
		logMel[t] = logFrame
	}

	// Half-wave rectified first difference, averaged across mel bands
	envelope := make([]float64, len(logMel))
	for t := 1; t < len(logMel); t++ {
		sum := 0.0
		numBands := len(logMel[t])
		for i := 0; i < numBands && i < len(logMel[t-1]); i++ {
			diff := logMel[t][i] - logMel[t-1][i]
			if diff > 0 {
				sum += diff
			}
		}
		if numBands > 0 {
			envelope[t] = sum / float64(numBands)
		}
	}

	return envelope, nil
}
