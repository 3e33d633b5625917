package perf

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/SergiLIFE/SergiLIFE-life-azure-system-sub007/internal/domain"
)

func TestAggregatorWindowEviction(t *testing.T) {
	a := NewAggregator(3)
	for i := 0; i < 5; i++ {
		a.Record(domain.NewBatchMetrics(10, 100*time.Millisecond))
	}
	assert.Equal(t, 3, a.Len())
	assert.Equal(t, 3, a.Summary().Samples)
}

func TestSummaryEmptyWindow(t *testing.T) {
	a := NewAggregator(4)
	s := a.Summary()
	assert.Equal(t, 0, s.Samples)
	assert.Equal(t, time.Duration(0), s.LatencyMean)
	assert.Equal(t, 1.0, s.Efficiency)
}

func TestSummaryMeans(t *testing.T) {
	a := NewAggregator(10)
	a.Record(domain.NewBatchMetrics(10, 100*time.Millisecond).WithAccuracy(0.8))
	a.Record(domain.NewBatchMetrics(20, 200*time.Millisecond).WithAccuracy(0.6))
	a.Record(domain.NewBatchMetrics(30, 300*time.Millisecond))

	s := a.Summary()
	assert.Equal(t, 3, s.Samples)
	assert.Equal(t, 200*time.Millisecond, s.LatencyMean)
	// throughputs: 100, 100, 100 items/s
	assert.InDelta(t, 100.0, s.ThroughputMean, 1e-6)
	// accuracy mean over the two samples that carry one
	assert.InDelta(t, 0.7, s.AccuracyMean, 1e-9)
}

func TestEfficiencyScoresSteadyLatencies(t *testing.T) {
	steady := NewAggregator(10)
	jittery := NewAggregator(10)
	for i := 0; i < 8; i++ {
		steady.Record(domain.NewBatchMetrics(10, 100*time.Millisecond))
		lat := 10 * time.Millisecond
		if i%2 == 0 {
			lat = 400 * time.Millisecond
		}
		jittery.Record(domain.NewBatchMetrics(10, lat))
	}

	assert.InDelta(t, 1.0, steady.Summary().Efficiency, 1e-9)
	assert.Less(t, jittery.Summary().Efficiency, steady.Summary().Efficiency)

	eff := jittery.Summary().Efficiency
	assert.GreaterOrEqual(t, eff, 0.0)
	assert.LessOrEqual(t, eff, 1.0)
}
