package observability

import (
	"log"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/SergiLIFE/SergiLIFE-life-azure-system-sub007/internal/domain"
	"github.com/SergiLIFE/SergiLIFE-life-azure-system-sub007/internal/ports"
)

// PromObs backs the Observability port with Prometheus collectors.
type PromObs struct {
	counters map[string]prometheus.Counter
	gauges   map[string]prometheus.Gauge
	histos   map[string]prometheus.Observer
}

func NewPromObs() *PromObs {
	batches := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "venturi_batches_processed_total",
		Help: "Batches successfully processed end to end.",
	})
	samples := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "venturi_samples_processed_total",
		Help: "Samples contained in successfully processed batches.",
	})
	retries := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "venturi_batch_retries_total",
		Help: "Batches re-enqueued after a recoverable processing failure.",
	})
	dead := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "venturi_dead_batches_total",
		Help: "Batches promoted to dead-letter after exhausting retries.",
	})
	dropped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "venturi_queue_dropped_total",
		Help: "Samples lost to queue backpressure or discard-on-shutdown.",
	})
	gateFallback := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "venturi_gate_fallback_total",
		Help: "Gate executions that fell back to the deterministic backend.",
	})
	queueLen := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "venturi_queue_length",
		Help: "Samples currently buffered in the processor queue.",
	})
	batchSize := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "venturi_batch_size",
		Help: "Batch size decided by the last controller adjustment.",
	})
	gamma := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "venturi_gamma",
		Help: "Current adaptive gain of the batch-size controller.",
	})
	latency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "venturi_batch_latency_seconds",
		Help:    "Wall time of one batch through gates and processing.",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
	})

	prometheus.MustRegister(batches, samples, retries, dead, dropped, gateFallback, queueLen, batchSize, gamma, latency)

	return &PromObs{
		counters: map[string]prometheus.Counter{
			"venturi_batches_processed_total": batches,
			"venturi_samples_processed_total": samples,
			"venturi_batch_retries_total":     retries,
			"venturi_dead_batches_total":      dead,
			"venturi_queue_dropped_total":     dropped,
			"venturi_gate_fallback_total":     gateFallback,
		},
		gauges: map[string]prometheus.Gauge{
			"venturi_queue_length": queueLen,
			"venturi_batch_size":   batchSize,
			"venturi_gamma":        gamma,
		},
		histos: map[string]prometheus.Observer{
			"venturi_batch_latency_seconds": latency,
		},
	}
}

func (p *PromObs) LogInfo(msg string, fields ...ports.Field) {}

func (p *PromObs) LogError(msg string, err error, fields ...ports.Field) {
	if err != nil {
		log.Printf("ERROR: %s: %v", msg, err)
	}
}

func (p *PromObs) LogCritical(msg string, err error, fields ...ports.Field) {
	if err != nil {
		log.Printf("CRITICAL: %s: %v", msg, err)
	}
}

func (p *PromObs) IncCounter(name string, v float64) {
	if c, ok := p.counters[name]; ok {
		c.Add(v)
	}
}

func (p *PromObs) ObserveLatency(name string, seconds float64) {
	if h, ok := p.histos[name]; ok {
		h.Observe(seconds)
	}
}

func (p *PromObs) SetGauge(name string, v float64) {
	if g, ok := p.gauges[name]; ok {
		g.Set(v)
	}
}

func (p *PromObs) RecordDeadBatch(db *domain.DeadBatch) {
	p.IncCounter("venturi_dead_batches_total", 1)
	if db != nil {
		log.Printf("dead batch %s kind=%s attempts=%d err=%s", db.BatchID, db.Kind, db.Attempts, db.LastError)
	}
}

var _ ports.Observability = (*PromObs)(nil)
