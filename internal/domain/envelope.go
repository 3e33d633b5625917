package domain

// Envelope wraps a dequeued batch on its way through the gate pipeline.
// Gates scale or derive the numeric fields and annotate which gate touched
// the payload last along with the compounded optimization factor so far.
type Envelope struct {
	Samples            []*Sample `json:"samples"`
	SignalQuality      float64   `json:"signal_quality"`
	ProcessingPressure float64   `json:"processing_pressure"`
	FlowEfficiency     float64   `json:"flow_efficiency"`
	LastGate           string    `json:"last_gate,omitempty"`
	CompoundedFactor   float64   `json:"compounded_factor"`
}

// NewEnvelope seeds the bookkeeping fields for a fresh batch. SignalQuality
// starts from the mean sample quality (1.0 when samples carry none) so the
// signal-acceleration gate has a meaningful base to scale.
func NewEnvelope(samples []*Sample) *Envelope {
	env := &Envelope{
		Samples:          samples,
		SignalQuality:    1.0,
		CompoundedFactor: 1.0,
	}
	if len(samples) == 0 {
		return env
	}
	var sum float64
	var n int
	for _, s := range samples {
		if s != nil && s.Quality > 0 {
			sum += s.Quality
			n++
		}
	}
	if n > 0 {
		env.SignalQuality = sum / float64(n)
	}
	return env
}
