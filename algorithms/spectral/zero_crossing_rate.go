package spectral

// ZeroCrossingRate calculates zero crossing rate per analysis frame.
// High ZCR indicates noisy/percussive content, low ZCR indicates tonal content.
type ZeroCrossingRate struct {
	sampleRate int
	frameSize  int
	hopSize    int
}

// NewZeroCrossingRate creates a new zero crossing rate calculator
func NewZeroCrossingRate(sampleRate int) *ZeroCrossingRate {
	return &ZeroCrossingRate{
		sampleRate: sampleRate,
		frameSize:  2048,
		hopSize:    512,
	}
}

// NewZeroCrossingRateWithParams creates calculator with custom parameters
func NewZeroCrossingRateWithParams(sampleRate, frameSize, hopSize int) *ZeroCrossingRate {
	return &ZeroCrossingRate{
		sampleRate: sampleRate,
		frameSize:  frameSize,
		hopSize:    hopSize,
	}
}

// Compute calculates ZCR for a single frame as crossings per second
func (zcr *ZeroCrossingRate) Compute(frame []float64) float64 {
	if len(frame) < 2 {
		return 0.0
	}

	crossings := zcr.countCrossings(frame)

	frameDuration := float64(len(frame)) / float64(zcr.sampleRate)
	return float64(crossings) / frameDuration
}

// ComputeNormalized calculates normalized ZCR (0-1 range), the fraction of
// adjacent sample pairs with a sign change
func (zcr *ZeroCrossingRate) ComputeNormalized(frame []float64) float64 {
	if len(frame) < 2 {
		return 0.0
	}

	maxCrossings := len(frame) - 1
	return float64(zcr.countCrossings(frame)) / float64(maxCrossings)
}

// ComputeFramesNormalized calculates normalized ZCR for overlapping frames
func (zcr *ZeroCrossingRate) ComputeFramesNormalized(signal []float64) []float64 {
	if len(signal) < zcr.frameSize {
		return []float64{}
	}

	numFrames := (len(signal)-zcr.frameSize)/zcr.hopSize + 1
	zcrValues := make([]float64, numFrames)

	for i := 0; i < numFrames; i++ {
		startIdx := i * zcr.hopSize
		endIdx := startIdx + zcr.frameSize

		if endIdx > len(signal) {
			break
		}

		zcrValues[i] = zcr.ComputeNormalized(signal[startIdx:endIdx])
	}

	return zcrValues
}

func (zcr *ZeroCrossingRate) countCrossings(frame []float64) int {
	crossings := 0
	for i := 1; i < len(frame); i++ {
		if (frame[i-1] >= 0 && frame[i] < 0) || (frame[i-1] < 0 && frame[i] >= 0) {
			crossings++
		}
	}
	return crossings
}
