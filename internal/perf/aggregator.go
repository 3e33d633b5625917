// Package perf maintains the bounded rolling window of batch metrics used
// for throughput/latency summaries and the adaptation-efficiency score.
package perf

import (
	"math"
	"sync"
	"time"

	"github.com/SergiLIFE/SergiLIFE-life-azure-system-sub007/internal/domain"
)

const defaultWindow = 10

// Summary aggregates the retained window.
type Summary struct {
	Samples        int           `json:"samples"`
	LatencyMean    time.Duration `json:"latency_mean"`
	ThroughputMean float64       `json:"throughput_mean"`
	AccuracyMean   float64       `json:"accuracy_mean"`
	// Efficiency is 1 − coefficient_of_variation(latencies), clamped to
	// [0, 1]: steadier latencies score higher.
	Efficiency float64 `json:"efficiency"`
}

// Aggregator is a concurrency-safe sliding window over recent BatchMetrics.
// Insertion order is completion order; the oldest sample is evicted once the
// window is full.
type Aggregator struct {
	mu     sync.Mutex
	window []domain.BatchMetrics
	cap    int
}

func NewAggregator(windowSize int) *Aggregator {
	if windowSize <= 0 {
		windowSize = defaultWindow
	}
	return &Aggregator{
		window: make([]domain.BatchMetrics, 0, windowSize),
		cap:    windowSize,
	}
}

// Record appends one completed-batch sample, evicting the oldest if full.
func (a *Aggregator) Record(m domain.BatchMetrics) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.window = append(a.window, m)
	if len(a.window) > a.cap {
		a.window = a.window[len(a.window)-a.cap:]
	}
}

// Len returns the number of retained samples.
func (a *Aggregator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.window)
}

// Summary computes the window means. With fewer than two samples the
// latency spread is undefined, so efficiency reports 1.
func (a *Aggregator) Summary() Summary {
	a.mu.Lock()
	defer a.mu.Unlock()

	s := Summary{Samples: len(a.window), Efficiency: 1}
	if len(a.window) == 0 {
		return s
	}

	var (
		latSum     float64
		thrSum     float64
		accSum     float64
		accSamples int
	)
	for _, m := range a.window {
		latSum += float64(m.ProcessingTime)
		thrSum += m.Throughput
		if m.HasAccuracy {
			accSum += m.Accuracy
			accSamples++
		}
	}

	n := float64(len(a.window))
	latMean := latSum / n
	s.LatencyMean = time.Duration(latMean)
	s.ThroughputMean = thrSum / n
	if accSamples > 0 {
		s.AccuracyMean = accSum / float64(accSamples)
	}

	if len(a.window) >= 2 && latMean > 0 {
		var varSum float64
		for _, m := range a.window {
			d := float64(m.ProcessingTime) - latMean
			varSum += d * d
		}
		cv := math.Sqrt(varSum/n) / latMean
		s.Efficiency = clamp01(1 - cv)
	}
	return s
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
