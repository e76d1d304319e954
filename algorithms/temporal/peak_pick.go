package temporal

// PeakPickParams controls sliding-window peak selection.
// A sample qualifies as a peak when it is the maximum of its local
// max window, exceeds the local mean by Delta, and lies at least
// Wait samples after the previously accepted peak.
type PeakPickParams struct {
	PreMax  int     `json:"pre_max"`  // Samples before n in the max window
	PostMax int     `json:"post_max"` // Samples after n in the max window
	PreAvg  int     `json:"pre_avg"`  // Samples before n in the mean window
	PostAvg int     `json:"post_avg"` // Samples after n in the mean window
	Delta   float64 `json:"delta"`    // Threshold above the local mean
	Wait    int     `json:"wait"`     // Minimum samples between accepted peaks
}

// DefaultPeakPickParams returns parameters tuned for onset-style novelty curves
func DefaultPeakPickParams() PeakPickParams {
	return PeakPickParams{
		PreMax:  3,
		PostMax: 3,
		PreAvg:  3,
		PostAvg: 5,
		Delta:   0.1,
		Wait:    10,
	}
}

// PeakPick selects peak indices from a novelty curve using sliding
// max and mean windows. Windows are clipped at the curve boundaries.
func PeakPick(curve []float64, params PeakPickParams) []int {
	if len(curve) == 0 {
		return []int{}
	}

	var peaks []int
	lastPeak := -params.Wait - 1

	for n := range curve {
		// Local maximum over [n-PreMax, n+PostMax]
		maxStart := max(0, n-params.PreMax)
		maxEnd := min(len(curve)-1, n+params.PostMax)
		localMax := curve[maxStart]
		for i := maxStart + 1; i <= maxEnd; i++ {
			if curve[i] > localMax {
				localMax = curve[i]
			}
		}
		if curve[n] < localMax {
			continue
		}

		// Local mean over [n-PreAvg, n+PostAvg]
		avgStart := max(0, n-params.PreAvg)
		avgEnd := min(len(curve)-1, n+params.PostAvg)
		sum := 0.0
		for i := avgStart; i <= avgEnd; i++ {
			sum += curve[i]
		}
		localMean := sum / float64(avgEnd-avgStart+1)
		if curve[n] < localMean+params.Delta {
			continue
		}

		if n-lastPeak <= params.Wait {
			continue
		}

		peaks = append(peaks, n)
		lastPeak = n
	}

	if peaks == nil {
		return []int{}
	}
	return peaks
}
