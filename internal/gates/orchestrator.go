// Package gates implements the Venturi multi-stage optimization pipeline.
// Each configured gate applies one bounded numeric transform to a batch
// envelope; the orchestrator sequences the enabled gates in declared order
// and aggregates their contributions into a per-run report.
package gates

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/SergiLIFE/SergiLIFE-life-azure-system-sub007/internal/domain"
	"github.com/SergiLIFE/SergiLIFE-life-azure-system-sub007/internal/ports"
)

// Type names one gate stage of the pipeline.
type Type string

const (
	SignalAcceleration   Type = "signal_acceleration"
	PressureDifferential Type = "pressure_differential"
	FlowRecovery         Type = "flow_recovery"
)

// Config describes one gate. Immutable after construction; an ordered list
// of these defines a pipeline instance.
type Config struct {
	Type               Type          `yaml:"type"`
	OptimizationFactor float64       `yaml:"optimization_factor"`
	LatencyTarget      time.Duration `yaml:"latency_target"`
	ThroughputTarget   float64       `yaml:"throughput_target"`
	Enabled            bool          `yaml:"enabled"`
}

// GateStatus reports the activation outcome for one configured gate.
type GateStatus struct {
	Type    Type   `json:"type"`
	Active  bool   `json:"active"`
	Warning string `json:"warning,omitempty"`
}

// InitReport summarizes gate activation after construction.
type InitReport struct {
	Total  int          `json:"total"`
	Active int          `json:"active"`
	Gates  []GateStatus `json:"gates"`
}

// Contribution records what a single gate did during one run.
type Contribution struct {
	Gate     Type    `json:"gate"`
	Factor   float64 `json:"factor"`
	Applied  bool    `json:"applied"`
	Fallback bool    `json:"fallback"`
	Error    string  `json:"error,omitempty"`
}

// PipelineResult is the aggregate report of one pipeline execution.
type PipelineResult struct {
	InputSize         int            `json:"input_size"`
	OutputSize        int            `json:"output_size"`
	OptimizationRatio float64        `json:"optimization_ratio"`
	Contributions     []Contribution `json:"per_gate_contributions"`
	Elapsed           time.Duration  `json:"elapsed"`
}

// Orchestrator sequences the active gates. The backend is chosen once at
// construction; the deterministic fallback is always available per gate.
type Orchestrator struct {
	gates    []Config
	backend  ports.GateBackend
	fallback ports.GateBackend
	obs      ports.Observability
}

// NewOrchestrator activates the enabled, well-formed gates from cfgs.
// A disabled gate, an unknown type, or a non-positive optimization factor
// skips that gate with a recorded warning instead of failing the pipeline.
func NewOrchestrator(cfgs []Config, backend ports.GateBackend, obs ports.Observability) (*Orchestrator, InitReport) {
	if backend == nil {
		backend = NewBackend(BackendDeterministic)
	}

	report := InitReport{Total: len(cfgs)}
	active := make([]Config, 0, len(cfgs))
	for _, cfg := range cfgs {
		status := GateStatus{Type: cfg.Type}
		switch {
		case !cfg.Enabled:
			status.Warning = "disabled"
		case cfg.OptimizationFactor <= 0:
			status.Warning = fmt.Sprintf("invalid optimization_factor %g", cfg.OptimizationFactor)
			if obs != nil {
				obs.LogError("gate_skipped", fmt.Errorf("%s: %s", cfg.Type, status.Warning))
			}
		case !knownType(cfg.Type):
			status.Warning = "unknown gate type"
			if obs != nil {
				obs.LogError("gate_skipped", fmt.Errorf("unknown gate type %q", cfg.Type))
			}
		default:
			status.Active = true
			active = append(active, cfg)
			report.Active++
		}
		report.Gates = append(report.Gates, status)
	}

	return &Orchestrator{
		gates:    active,
		backend:  backend,
		fallback: NewBackend(BackendDeterministic),
		obs:      obs,
	}, report
}

// ActiveGates returns the number of gates that passed activation.
func (o *Orchestrator) ActiveGates() int { return len(o.gates) }

// Run passes the envelope through each active gate in declared order and
// returns the aggregate report. A gate whose selected backend fails falls
// back to the deterministic computation; if the fallback fails too, the run
// stops with a GateError and the contributions collected so far are retained
// in the result.
func (o *Orchestrator) Run(env *domain.Envelope) (PipelineResult, error) {
	start := time.Now()
	result := PipelineResult{
		InputSize:         serializedSize(env),
		OptimizationRatio: 1.0,
	}

	for _, g := range o.gates {
		contrib := Contribution{Gate: g.Type, Factor: g.OptimizationFactor}
		err := o.applyGate(g, env, &contrib)
		result.Contributions = append(result.Contributions, contrib)
		if err != nil {
			result.OutputSize = serializedSize(env)
			result.Elapsed = time.Since(start)
			if o.obs != nil {
				o.obs.LogCritical("gate_pipeline_failed", err)
			}
			return result, err
		}
	}

	result.OutputSize = serializedSize(env)
	if result.InputSize > 0 {
		result.OptimizationRatio = float64(result.OutputSize) / float64(result.InputSize)
	}
	result.Elapsed = time.Since(start)
	return result, nil
}

func (o *Orchestrator) applyGate(g Config, env *domain.Envelope, contrib *Contribution) error {
	err := o.transform(o.backend, g, env)
	if err == nil {
		contrib.Applied = true
		o.annotate(g, env)
		return nil
	}

	if o.obs != nil {
		o.obs.IncCounter("venturi_gate_fallback_total", 1)
		o.obs.LogError("gate_backend_fallback", err, ports.Field{Key: "gate", Value: string(g.Type)})
	}

	if fbErr := o.transform(o.fallback, g, env); fbErr != nil {
		contrib.Error = fbErr.Error()
		return &domain.GateError{Gate: string(g.Type), Err: fbErr}
	}
	contrib.Applied = true
	contrib.Fallback = true
	o.annotate(g, env)
	return nil
}

// transform applies the gate-specific field update:
//   - SignalAcceleration multiplies the signal quality by the factor.
//   - PressureDifferential derives the processing pressure from the factor,
//     weighted by the current signal quality.
//   - FlowRecovery derives a flow efficiency in (0, 1) from the factor.
func (o *Orchestrator) transform(backend ports.GateBackend, g Config, env *domain.Envelope) error {
	f := g.OptimizationFactor
	switch g.Type {
	case SignalAcceleration:
		q, err := backend.Scale(env.SignalQuality, f)
		if err != nil {
			return err
		}
		env.SignalQuality = q
	case PressureDifferential:
		p, err := backend.Scale(env.SignalQuality, f)
		if err != nil {
			return err
		}
		env.ProcessingPressure = p
	case FlowRecovery:
		e, err := backend.Scale(1/(1+f), f)
		if err != nil {
			return err
		}
		env.FlowEfficiency = e
	default:
		return fmt.Errorf("unknown gate type %q", g.Type)
	}
	return nil
}

func (o *Orchestrator) annotate(g Config, env *domain.Envelope) {
	env.LastGate = string(g.Type)
	env.CompoundedFactor *= g.OptimizationFactor
}

func knownType(t Type) bool {
	switch t {
	case SignalAcceleration, PressureDifferential, FlowRecovery:
		return true
	}
	return false
}

func serializedSize(env *domain.Envelope) int {
	b, err := json.Marshal(env)
	if err != nil {
		return 0
	}
	return len(b)
}
