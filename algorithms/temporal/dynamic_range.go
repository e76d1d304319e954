package temporal

// DynamicRange analyzes amplitude dynamics of a signal
type DynamicRange struct {
	envelopeExtractor *Envelope
}

// NewDynamicRange creates a new dynamic range analyzer
func NewDynamicRange() *DynamicRange {
	return &DynamicRange{
		envelopeExtractor: NewEnvelope(),
	}
}

// ComputeEnvelopeRange calculates the spread of the short-time RMS
// envelope (max minus min). Returns 0 when the signal is shorter than
// a single frame.
func (dr *DynamicRange) ComputeEnvelopeRange(signal []float64, frameSize, hopSize int) float64 {
	envelope := dr.envelopeExtractor.ComputeRMS(signal, frameSize, hopSize)
	if len(envelope) == 0 {
		return 0.0
	}

	minVal := envelope[0]
	maxVal := envelope[0]
	for _, v := range envelope[1:] {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}

	return maxVal - minVal
}
