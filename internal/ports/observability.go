package ports

import "github.com/SergiLIFE/SergiLIFE-life-azure-system-sub007/internal/domain"

// Observability emits metrics and logs about batching, latency, retries,
// and dead-letter conditions.
type Observability interface {
	LogInfo(msg string, fields ...Field)
	LogError(msg string, err error, fields ...Field)
	LogCritical(msg string, err error, fields ...Field)

	IncCounter(name string, v float64)
	ObserveLatency(name string, seconds float64)
	SetGauge(name string, v float64)

	RecordDeadBatch(db *domain.DeadBatch)
}

// Field is a structured log/metric field used by Observability implementations.
type Field struct {
	Key   string
	Value any
}
