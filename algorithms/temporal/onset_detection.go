package temporal

// OnsetDetection detects note/event onsets in audio signals
type OnsetDetection struct {
	onsetStrength *OnsetStrength
}

// NewOnsetDetection creates a new onset detector
func NewOnsetDetection() *OnsetDetection {
	return &OnsetDetection{
		onsetStrength: NewOnsetStrength(),
	}
}

// DetectOnsetTimes detects onsets and returns their positions in seconds.
// Onsets are peaks of the mel-flux onset strength envelope.
func (od *OnsetDetection) DetectOnsetTimes(signal []float64, sampleRate, hopSize int) ([]float64, error) {
	if len(signal) == 0 {
		return []float64{}, nil
	}
	if hopSize <= 0 {
		hopSize = 512
	}

	envelope, err := od.onsetStrength.Compute(signal, sampleRate, hopSize)
	if err != nil {
		return nil, err
	}
	if len(envelope) == 0 {
		return []float64{}, nil
	}

	frames := PeakPick(envelope, DefaultPeakPickParams())

	times := make([]float64, len(frames))
	for i, frame := range frames {
		times[i] = float64(frame*hopSize) / float64(sampleRate)
	}

	return times, nil
}
