package harmonic

import (
	"fmt"
	"math"

	"github.com/soundprobe/tempokey/algorithms/common"
	"github.com/soundprobe/tempokey/algorithms/spectral"
	"github.com/soundprobe/tempokey/algorithms/windowing"
)

// HPSS separates a signal into harmonic and percussive components using
// median filtering of the magnitude spectrogram.
//
// Harmonic content forms horizontal ridges in the spectrogram (stable
// pitch over time) while percussive content forms vertical ridges
// (broadband energy at one instant). Median filtering along time enhances
// the former, along frequency the latter; soft Wiener-style masks derived
// from the two enhanced spectrograms split the complex STFT, and each
// component is reconstructed by inverse STFT.
type HPSS struct {
	stft       *spectral.STFT
	windowSize int
	hopSize    int
	timeKernel int     // Median filter length along time (frames)
	freqKernel int     // Median filter length along frequency (bins)
	maskPower  float64 // Soft mask exponent
}

// HPSSParams contains parameters for harmonic/percussive separation
type HPSSParams struct {
	WindowSize int     `json:"window_size"` // STFT window size (default: 2048)
	HopSize    int     `json:"hop_size"`    // STFT hop size (default: 512)
	TimeKernel int     `json:"time_kernel"` // Harmonic median filter length (default: 31)
	FreqKernel int     `json:"freq_kernel"` // Percussive median filter length (default: 31)
	MaskPower  float64 `json:"mask_power"`  // Soft mask exponent (default: 2)
}

// NewHPSS creates a separator with standard parameters
func NewHPSS() *HPSS {
	return NewHPSSWithParams(HPSSParams{})
}

// NewHPSSWithParams creates a separator with custom parameters
func NewHPSSWithParams(params HPSSParams) *HPSS {
	if params.WindowSize <= 0 {
		params.WindowSize = 2048
	}
	if params.HopSize <= 0 {
		params.HopSize = 512
	}
	if params.TimeKernel <= 0 {
		params.TimeKernel = 31
	}
	if params.FreqKernel <= 0 {
		params.FreqKernel = 31
	}
	if params.MaskPower <= 0 {
		params.MaskPower = 2.0
	}

	return &HPSS{
		stft:       spectral.NewSTFT(),
		windowSize: params.WindowSize,
		hopSize:    params.HopSize,
		timeKernel: params.TimeKernel,
		freqKernel: params.FreqKernel,
		maskPower:  params.MaskPower,
	}
}

// Separate splits the signal into harmonic and percussive components.
// Both outputs have the same length as the input; their sum approximates
// the original signal.
func (h *HPSS) Separate(signal []float64, sampleRate int) ([]float64, []float64, error) {
	if len(signal) == 0 {
		return []float64{}, []float64{}, nil
	}
	if len(signal) < h.windowSize {
		return nil, nil, fmt.Errorf("signal too short for separation: %d samples", len(signal))
	}

	window := windowing.NewHann(h.windowSize, false)

	stftResult, err := h.stft.ComputeWithWindow(signal, h.windowSize, h.hopSize, sampleRate, window)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to compute STFT: %w", err)
	}

	harmonicMag := h.filterAlongTime(stftResult.Magnitude)
	percussiveMag := h.filterAlongFrequency(stftResult.Magnitude)

	harmonicSpec, percussiveSpec := h.applyMasks(stftResult.Complex, harmonicMag, percussiveMag)

	harmonicSignal, err := h.stft.Inverse(harmonicSpec, h.windowSize, h.hopSize, len(signal), window)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to reconstruct harmonic component: %w", err)
	}

	percussiveSignal, err := h.stft.Inverse(percussiveSpec, h.windowSize, h.hopSize, len(signal), window)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to reconstruct percussive component: %w", err)
	}

	return harmonicSignal, percussiveSignal, nil
}

// SeparateHarmonic returns only the harmonic component
func (h *HPSS) SeparateHarmonic(signal []float64, sampleRate int) ([]float64, error) {
	harmonic, _, err := h.Separate(signal, sampleRate)
	return harmonic, err
}

// filterAlongTime median-filters each frequency bin across frames
func (h *HPSS) filterAlongTime(magnitude [][]float64) [][]float64 {
	numFrames := len(magnitude)
	if numFrames == 0 {
		return [][]float64{}
	}
	numBins := len(magnitude[0])

	filtered := make([][]float64, numFrames)
	for t := 0; t < numFrames; t++ {
		filtered[t] = make([]float64, numBins)
	}

	column := make([]float64, numFrames)
	for f := 0; f < numBins; f++ {
		for t := 0; t < numFrames; t++ {
			column[t] = magnitude[t][f]
		}

		smoothed := common.MedianFilter(column, h.timeKernel)

		for t := 0; t < numFrames; t++ {
			filtered[t][f] = smoothed[t]
		}
	}

	return filtered
}

// filterAlongFrequency median-filters each frame across frequency bins
func (h *HPSS) filterAlongFrequency(magnitude [][]float64) [][]float64 {
	filtered := make([][]float64, len(magnitude))

	for t, frame := range magnitude {
		filtered[t] = common.MedianFilter(frame, h.freqKernel)
	}

	return filtered
}

// applyMasks builds soft masks from the enhanced spectrograms and applies
// them to the complex STFT
func (h *HPSS) applyMasks(complexSpec [][]complex128, harmonicMag, percussiveMag [][]float64) ([][]complex128, [][]complex128) {
	harmonicSpec := make([][]complex128, len(complexSpec))
	percussiveSpec := make([][]complex128, len(complexSpec))

	for t, frame := range complexSpec {
		harmonicSpec[t] = make([]complex128, len(frame))
		percussiveSpec[t] = make([]complex128, len(frame))

		for f, bin := range frame {
			hPow := math.Pow(harmonicMag[t][f], h.maskPower)
			pPow := math.Pow(percussiveMag[t][f], h.maskPower)
			total := hPow + pPow

			if total > 1e-10 {
				harmonicSpec[t][f] = bin * complex(hPow/total, 0)
				percussiveSpec[t][f] = bin * complex(pPow/total, 0)
			}
		}
	}

	return harmonicSpec, percussiveSpec
}
