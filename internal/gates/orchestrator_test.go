package gates

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SergiLIFE/SergiLIFE-life-azure-system-sub007/internal/domain"
)

func defaultGates() []Config {
	return []Config{
		{Type: SignalAcceleration, OptimizationFactor: 1.5, Enabled: true},
		{Type: PressureDifferential, OptimizationFactor: 2.0, Enabled: true},
		{Type: FlowRecovery, OptimizationFactor: 0.8, Enabled: true},
	}
}

func sampleEnvelope() *domain.Envelope {
	return domain.NewEnvelope([]*domain.Sample{
		{StreamID: "eeg-1", Seq: 1, Channels: map[string]float64{"c3": 0.4}, Quality: 0.9},
		{StreamID: "eeg-1", Seq: 2, Channels: map[string]float64{"c3": 0.5}, Quality: 0.7},
	})
}

func TestInitializeActivatesEnabledGates(t *testing.T) {
	cfgs := defaultGates()
	cfgs = append(cfgs,
		Config{Type: SignalAcceleration, OptimizationFactor: 1.2, Enabled: false},
		Config{Type: FlowRecovery, OptimizationFactor: -1, Enabled: true},
		Config{Type: "warp_drive", OptimizationFactor: 1.1, Enabled: true},
	)

	o, report := NewOrchestrator(cfgs, NewBackend(BackendDeterministic), nil)
	assert.Equal(t, 6, report.Total)
	assert.Equal(t, 3, report.Active)
	assert.Equal(t, 3, o.ActiveGates())

	assert.Equal(t, "disabled", report.Gates[3].Warning)
	assert.Contains(t, report.Gates[4].Warning, "invalid optimization_factor")
	assert.Equal(t, "unknown gate type", report.Gates[5].Warning)
}

func TestRunAppliesGatesInOrder(t *testing.T) {
	o, _ := NewOrchestrator(defaultGates(), NewBackend(BackendDeterministic), nil)

	env := sampleEnvelope()
	quality := env.SignalQuality

	result, err := o.Run(env)
	require.NoError(t, err)

	require.Len(t, result.Contributions, 3)
	assert.Equal(t, SignalAcceleration, result.Contributions[0].Gate)
	assert.Equal(t, PressureDifferential, result.Contributions[1].Gate)
	assert.Equal(t, FlowRecovery, result.Contributions[2].Gate)
	for _, c := range result.Contributions {
		assert.True(t, c.Applied)
		assert.False(t, c.Fallback)
	}

	assert.InDelta(t, quality*1.5, env.SignalQuality, 1e-9)
	assert.InDelta(t, env.SignalQuality*2.0, env.ProcessingPressure, 1e-9)
	assert.InDelta(t, 0.8/1.8, env.FlowEfficiency, 1e-9)
	assert.Equal(t, string(FlowRecovery), env.LastGate)
	assert.InDelta(t, 1.5*2.0*0.8, env.CompoundedFactor, 1e-9)

	assert.Greater(t, result.InputSize, 0)
	assert.Greater(t, result.OutputSize, 0)
	assert.Greater(t, result.OptimizationRatio, 0.0)
	assert.GreaterOrEqual(t, result.Elapsed, time.Duration(0))
}

func TestRunWithAllGatesDisabledIsIdentity(t *testing.T) {
	cfgs := defaultGates()
	for i := range cfgs {
		cfgs[i].Enabled = false
	}
	o, report := NewOrchestrator(cfgs, nil, nil)
	assert.Equal(t, 0, report.Active)

	env := sampleEnvelope()
	before := *env

	result, err := o.Run(env)
	require.NoError(t, err)
	assert.Empty(t, result.Contributions)

	assert.Equal(t, before.SignalQuality, env.SignalQuality)
	assert.Equal(t, before.ProcessingPressure, env.ProcessingPressure)
	assert.Equal(t, before.FlowEfficiency, env.FlowEfficiency)
	assert.Equal(t, before.CompoundedFactor, env.CompoundedFactor)
	assert.Empty(t, env.LastGate)
	assert.Equal(t, 1.0, result.OptimizationRatio)
}

func TestAcceleratedBackendFallsBack(t *testing.T) {
	o, _ := NewOrchestrator(defaultGates(), NewBackend(BackendAccelerated), nil)

	env := sampleEnvelope()
	env.SignalQuality = -0.5 // rejected by the accelerated log-domain path

	result, err := o.Run(env)
	require.NoError(t, err)
	require.NotEmpty(t, result.Contributions)
	first := result.Contributions[0]
	assert.True(t, first.Applied)
	assert.True(t, first.Fallback, "accelerated failure must fall back to deterministic")
	assert.InDelta(t, -0.75, env.SignalQuality, 1e-9)
}

func TestFallbackFailureIsFatalWithPartialContributions(t *testing.T) {
	o, _ := NewOrchestrator(defaultGates(), NewBackend(BackendDeterministic), nil)

	env := sampleEnvelope()
	env.SignalQuality = math.NaN() // deterministic backend rejects non-finite input

	result, err := o.Run(env)
	require.Error(t, err)
	var ge *domain.GateError
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, string(SignalAcceleration), ge.Gate)

	require.Len(t, result.Contributions, 1)
	assert.False(t, result.Contributions[0].Applied)
	assert.NotEmpty(t, result.Contributions[0].Error)
}

func TestBackendSelection(t *testing.T) {
	assert.Equal(t, BackendAccelerated, NewBackend(BackendAccelerated).Name())
	assert.Equal(t, BackendDeterministic, NewBackend(BackendDeterministic).Name())
	assert.Equal(t, BackendDeterministic, NewBackend("").Name())
}

func TestDeterministicScale(t *testing.T) {
	b := NewBackend(BackendDeterministic)
	got, err := b.Scale(4, 1.5)
	require.NoError(t, err)
	assert.Equal(t, 6.0, got)

	_, err = b.Scale(math.Inf(1), 2)
	assert.Error(t, err)
}

func TestAcceleratedScaleMatchesDeterministic(t *testing.T) {
	acc := NewBackend(BackendAccelerated)
	det := NewBackend(BackendDeterministic)

	for _, pair := range [][2]float64{{1, 1.5}, {0.9, 2.5}, {123.4, 0.25}} {
		a, err := acc.Scale(pair[0], pair[1])
		require.NoError(t, err)
		d, err := det.Scale(pair[0], pair[1])
		require.NoError(t, err)
		assert.InDelta(t, d, a, 1e-9)
	}
}
