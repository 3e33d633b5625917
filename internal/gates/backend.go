package gates

import (
	"fmt"
	"math"

	"github.com/SergiLIFE/SergiLIFE-life-azure-system-sub007/internal/ports"
)

// Backend kinds selectable at construction. The choice is made once by
// NewBackend; gates never probe for a faster path at call time.
const (
	BackendAccelerated   = "accelerated"
	BackendDeterministic = "deterministic"
)

// NewBackend returns the gate backend for the given kind. Unknown or empty
// kinds fall back to the deterministic implementation.
func NewBackend(kind string) ports.GateBackend {
	if kind == BackendAccelerated {
		return &acceleratedBackend{}
	}
	return &deterministicBackend{}
}

// deterministicBackend is the local fallback: plain arithmetic, no shared
// state, bit-for-bit reproducible.
type deterministicBackend struct{}

func (*deterministicBackend) Name() string { return BackendDeterministic }

func (*deterministicBackend) Scale(value, factor float64) (float64, error) {
	if err := checkFinite(value, factor); err != nil {
		return 0, err
	}
	return value * factor, nil
}

// acceleratedBackend trades exactness for speed on large factor sweeps by
// going through the exp/log domain, which lets repeated scaling fold into a
// single accumulated exponent. It rejects non-positive values, for which the
// log transform is undefined; the orchestrator then falls back to the
// deterministic backend.
type acceleratedBackend struct{}

func (*acceleratedBackend) Name() string { return BackendAccelerated }

func (*acceleratedBackend) Scale(value, factor float64) (float64, error) {
	if err := checkFinite(value, factor); err != nil {
		return 0, err
	}
	if value <= 0 || factor <= 0 {
		return 0, fmt.Errorf("accelerated backend requires positive operands, got value=%g factor=%g", value, factor)
	}
	out := math.Exp(math.Log(value) + math.Log(factor))
	if math.IsInf(out, 0) || math.IsNaN(out) {
		return 0, fmt.Errorf("accelerated scale overflow: value=%g factor=%g", value, factor)
	}
	return out, nil
}

func checkFinite(value, factor float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return fmt.Errorf("non-finite value %g", value)
	}
	if math.IsNaN(factor) || math.IsInf(factor, 0) {
		return fmt.Errorf("non-finite factor %g", factor)
	}
	return nil
}
