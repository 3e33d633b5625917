package domain

import (
	"time"

	"github.com/google/uuid"
)

// BatchMetrics is the immutable record of one completed batch. It is created
// once when the batch finishes and then consumed by the batch-size controller
// and the performance aggregator; it is never mutated afterwards.
type BatchMetrics struct {
	BatchID        uuid.UUID     `json:"batch_id"`
	BatchSize      int           `json:"batch_size"`
	ProcessingTime time.Duration `json:"processing_time"`
	Throughput     float64       `json:"throughput"` // items per second
	Accuracy       float64       `json:"accuracy"`
	HasAccuracy    bool          `json:"has_accuracy"`
	Timestamp      time.Time     `json:"timestamp"`
}

// NewBatchMetrics derives the throughput from size and elapsed time.
// An elapsed time of zero yields zero throughput rather than +Inf.
func NewBatchMetrics(size int, elapsed time.Duration) BatchMetrics {
	m := BatchMetrics{
		BatchID:        uuid.New(),
		BatchSize:      size,
		ProcessingTime: elapsed,
		Timestamp:      time.Now(),
	}
	if elapsed > 0 {
		m.Throughput = float64(size) / elapsed.Seconds()
	}
	return m
}

// WithAccuracy returns a copy carrying a pipeline-supplied accuracy in [0, 1].
func (m BatchMetrics) WithAccuracy(acc float64) BatchMetrics {
	if acc < 0 {
		acc = 0
	}
	if acc > 1 {
		acc = 1
	}
	m.Accuracy = acc
	m.HasAccuracy = true
	return m
}
