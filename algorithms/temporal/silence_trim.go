package temporal

// SilenceTrimmer removes leading and trailing silence from a recording
// before it becomes a loop buffer, so the loop window lines up with the
// first and last audible strum rather than with the moment the user hit
// record.
type SilenceTrimmer struct {
	energy          *Energy
	energyThreshold float64
	padding         int // samples of context kept around the audible region
}

// TrimResult describes what was removed
type TrimResult struct {
	Samples       []float64 `json:"-"`
	StartSample   int       `json:"start_sample"`   // First kept sample in the original signal
	EndSample     int       `json:"end_sample"`     // One past the last kept sample
	LeadTrimmedMs float64   `json:"lead_trimmed_ms"`
	TailTrimmedMs float64   `json:"tail_trimmed_ms"`
}

// NewSilenceTrimmer creates a trimmer. energyThreshold is the frame RMS
// below which a frame counts as silent; paddingMs is retained on both
// sides of the audible region to avoid clipping note attacks.
func NewSilenceTrimmer(sampleRate int, energyThreshold, paddingMs float64) *SilenceTrimmer {
	frameSize := int(0.025 * float64(sampleRate)) // 25ms frames
	hopSize := frameSize / 2                      // 50% overlap

	return &SilenceTrimmer{
		energy:          NewEnergy(frameSize, hopSize, sampleRate),
		energyThreshold: energyThreshold,
		padding:         int(paddingMs * float64(sampleRate) / 1000.0),
	}
}

// Trim returns the signal with silent lead-in and tail removed. A signal
// that is silent throughout comes back empty; a signal shorter than one
// analysis frame comes back unchanged.
func (st *SilenceTrimmer) Trim(signal []float64, sampleRate int) TrimResult {
	if len(signal) < st.energy.FrameSize() {
		return TrimResult{Samples: signal, StartSample: 0, EndSample: len(signal)}
	}

	energies := st.energy.ComputeShortTimeEnergy(signal)
	if len(energies) == 0 {
		return TrimResult{Samples: signal, StartSample: 0, EndSample: len(signal)}
	}

	firstAudible := -1
	lastAudible := -1
	for i, energy := range energies {
		if energy >= st.energyThreshold {
			if firstAudible == -1 {
				firstAudible = i
			}
			lastAudible = i
		}
	}

	if firstAudible == -1 {
		// Nothing but silence
		return TrimResult{Samples: []float64{}, StartSample: 0, EndSample: 0,
			LeadTrimmedMs: samplesToMs(len(signal), sampleRate)}
	}

	start := firstAudible*st.energy.HopSize() - st.padding
	if start < 0 {
		start = 0
	}
	end := lastAudible*st.energy.HopSize() + st.energy.FrameSize() + st.padding
	if end > len(signal) {
		end = len(signal)
	}

	trimmed := make([]float64, end-start)
	copy(trimmed, signal[start:end])

	return TrimResult{
		Samples:       trimmed,
		StartSample:   start,
		EndSample:     end,
		LeadTrimmedMs: samplesToMs(start, sampleRate),
		TailTrimmedMs: samplesToMs(len(signal)-end, sampleRate),
	}
}

func samplesToMs(samples, sampleRate int) float64 {
	if sampleRate <= 0 {
		return 0
	}
	return float64(samples) * 1000.0 / float64(sampleRate)
}
