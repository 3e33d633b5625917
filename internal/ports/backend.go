package ports

// GateBackend performs the numeric work of a gate stage. The orchestrator
// selects one implementation at construction; it is never re-probed per call.
type GateBackend interface {
	Name() string
	// Scale applies factor to value. Implementations must reject non-finite
	// inputs with an error rather than propagating NaN downstream.
	Scale(value, factor float64) (float64, error)
}
