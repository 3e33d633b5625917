// Package processor implements the adaptive batch processor: bounded queue
// admission, single-flight batch extraction sized by the feedback
// controller, a timeout-bounded call into the external processing function,
// and the retry-once/dead-letter policy.
package processor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/SergiLIFE/SergiLIFE-life-azure-system-sub007/internal/control"
	"github.com/SergiLIFE/SergiLIFE-life-azure-system-sub007/internal/domain"
	"github.com/SergiLIFE/SergiLIFE-life-azure-system-sub007/internal/gates"
	"github.com/SergiLIFE/SergiLIFE-life-azure-system-sub007/internal/perf"
	"github.com/SergiLIFE/SergiLIFE-life-azure-system-sub007/internal/ports"
)

var (
	// ErrQueueFull is returned by AddItem when the queue is at capacity and
	// the admission policy is "reject".
	ErrQueueFull = errors.New("venturi: queue full")
	// ErrClosed is returned by AddItem after Close has begun.
	ErrClosed = errors.New("venturi: processor closed")
)

// Options carries the optional collaborators. Everything here may be nil
// (or zero); the processor degrades to queue → process func only.
type Options struct {
	Gates         *gates.Orchestrator
	Observability ports.Observability
	DeadLetters   ports.DeadLetterLog
	// OnDeadBatch is invoked synchronously for every batch that exhausts
	// its retry budget, after the journal append.
	OnDeadBatch func(*domain.DeadBatch)
	// PerfWindow bounds the metrics aggregator (0 = default window).
	PerfWindow int
}

// Processor owns the queue and the single-flight batch loop.
//
// State machine: Idle → Processing → Idle. The inFlight flag is the guard;
// it is released only after the controller and aggregator have been updated,
// so metric history reflects completion order.
type Processor struct {
	ctrl    *control.Controller
	queue   ports.SampleQueue
	process ports.ProcessFunc
	policy  ports.Policy

	gates *gates.Orchestrator
	obs   ports.Observability
	dead  ports.DeadLetterLog
	onDLQ func(*domain.DeadBatch)
	agg   *perf.Aggregator

	seq         atomic.Uint64
	inFlight    atomic.Bool
	closed      atomic.Bool
	lastEnqueue atomic.Int64 // unix nanos

	triggers sync.WaitGroup
}

// New validates the policy and wires the processor. The shutdown policy is
// an explicit choice; an empty or unknown value is a configuration error.
func New(ctrl *control.Controller, queue ports.SampleQueue, process ports.ProcessFunc, policy ports.Policy, opts Options) (*Processor, error) {
	if ctrl == nil {
		return nil, domain.NewConfigError("controller", "must not be nil")
	}
	if queue == nil {
		return nil, domain.NewConfigError("queue", "must not be nil")
	}
	if process == nil {
		return nil, domain.NewConfigError("process", "processing function must not be nil")
	}
	switch policy.OnShutdown {
	case ports.ShutdownDrain, ports.ShutdownDiscard:
	default:
		return nil, domain.NewConfigError("policy.on_shutdown", "must be %q or %q, got %q",
			ports.ShutdownDrain, ports.ShutdownDiscard, policy.OnShutdown)
	}
	switch policy.OnQueueFull {
	case "":
		policy.OnQueueFull = ports.QueueFullBlock
	case ports.QueueFullBlock, ports.QueueFullDrop, ports.QueueFullReject:
	default:
		return nil, domain.NewConfigError("policy.on_queue_full", "unknown policy %q", policy.OnQueueFull)
	}
	if policy.IdleSleep <= 0 {
		policy.IdleSleep = 25 * time.Millisecond
	}
	if policy.ProcessTimeout <= 0 {
		policy.ProcessTimeout = 10 * ctrl.TargetLatency()
	}

	return &Processor{
		ctrl:    ctrl,
		queue:   queue,
		process: process,
		policy:  policy,
		gates:   opts.Gates,
		obs:     opts.Observability,
		dead:    opts.DeadLetters,
		onDLQ:   opts.OnDeadBatch,
		agg:     perf.NewAggregator(opts.PerfWindow),
	}, nil
}

// AddItem admits one sample. Safe for concurrent producers. When the queue
// reaches the controller's current batch size a processing pass is triggered
// asynchronously; the caller is never blocked on processing itself.
func (p *Processor) AddItem(s *domain.Sample) error {
	seq := p.seq.Add(1)
	for {
		if p.closed.Load() {
			return ErrClosed
		}

		full := p.policy.MaxQueueLen > 0 && p.queue.Len() >= p.policy.MaxQueueLen
		if !full && p.queue.Enqueue(seq, s) {
			break
		}

		switch p.policy.OnQueueFull {
		case ports.QueueFullDrop:
			p.incCounter("venturi_queue_dropped_total", 1)
			return nil
		case ports.QueueFullReject:
			return ErrQueueFull
		default: // block
			p.kick()
			time.Sleep(time.Millisecond)
		}
	}
	p.lastEnqueue.Store(time.Now().UnixNano())
	p.setGauge("venturi_queue_length", float64(p.queue.Len()))

	if p.queue.Len() >= p.ctrl.CurrentBatchSize() {
		p.kick()
	}
	return nil
}

// kick runs one processing pass on its own goroutine. The single-flight
// guard inside ProcessBatch collapses redundant kicks.
func (p *Processor) kick() {
	p.triggers.Add(1)
	go func() {
		defer p.triggers.Done()
		p.ProcessBatch()
	}()
}

// ProcessBatch performs one batch pass. It is a no-op (returning false) when
// a pass is already in flight or the queue is empty. At most one pass runs
// at a time per processor instance.
func (p *Processor) ProcessBatch() bool {
	if !p.inFlight.CompareAndSwap(false, true) {
		return false
	}
	defer p.inFlight.Store(false)

	batch := p.queue.DequeueBatch(p.ctrl.CurrentBatchSize())
	if len(batch) == 0 {
		return false
	}

	for attempt := 1; ; attempt++ {
		results, elapsed, err := p.runAttempt(batch)
		p.recordAttempt(batch, results, elapsed, err)

		if err == nil {
			p.incCounter("venturi_batches_processed_total", 1)
			p.incCounter("venturi_samples_processed_total", float64(len(batch)))
			return true
		}

		pe := domain.ClassifyProcessingError(err)
		if pe.Recoverable() && attempt == 1 {
			// Retry exactly once: the batch goes back to the head of the
			// queue and is immediately re-extracted, so items admitted in
			// the meantime keep their place behind it.
			if p.queue.RequeueFront(batch) {
				p.incCounter("venturi_batch_retries_total", 1)
				p.logError("batch_retry", err)
				batch = p.queue.DequeueBatch(len(batch))
				continue
			}
		}

		p.deadLetter(batch, attempt, pe)
		return true
	}
}

// runAttempt passes the batch through the gate pipeline (when configured)
// and then into the external processing function under the process timeout.
// No locks are held across this call.
func (p *Processor) runAttempt(batch []ports.QueuedSample) ([]*domain.Sample, time.Duration, error) {
	samples := make([]*domain.Sample, len(batch))
	for i, q := range batch {
		samples[i] = q.Sample
	}

	start := time.Now()

	if p.gates != nil {
		env := domain.NewEnvelope(samples)
		if _, err := p.gates.Run(env); err != nil {
			// The deterministic fallback failed too; the batch is
			// numerically unusable and retrying cannot help.
			return nil, time.Since(start), &domain.ProcessingError{Kind: domain.ProcessingFatal, Err: err}
		}
		samples = env.Samples
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.policy.ProcessTimeout)
	defer cancel()

	results, err := p.process(ctx, samples)
	return results, time.Since(start), err
}

// recordAttempt turns one attempt into a BatchMetrics sample and feeds it to
// the controller and the aggregator. A failed attempt is recorded as a slow
// sample: its latency is floored just above the target so the controller
// contracts regardless of how quickly the failure surfaced.
func (p *Processor) recordAttempt(batch []ports.QueuedSample, results []*domain.Sample, elapsed time.Duration, err error) {
	if err != nil {
		if target := p.ctrl.TargetLatency(); elapsed <= target {
			elapsed = target + time.Millisecond
		}
	}

	m := domain.NewBatchMetrics(len(batch), elapsed)
	if err == nil && len(batch) > 0 {
		m = m.WithAccuracy(float64(len(results)) / float64(len(batch)))
	}

	next := p.ctrl.AdjustBatchSize(m)
	p.agg.Record(m)

	p.observeLatency("venturi_batch_latency_seconds", elapsed.Seconds())
	p.setGauge("venturi_batch_size", float64(next))
	p.setGauge("venturi_gamma", p.ctrl.Summary().Gamma)
	p.setGauge("venturi_queue_length", float64(p.queue.Len()))
}

func (p *Processor) deadLetter(batch []ports.QueuedSample, attempts int, pe *domain.ProcessingError) {
	samples := make([]*domain.Sample, len(batch))
	for i, q := range batch {
		samples[i] = q.Sample
	}

	db := &domain.DeadBatch{
		BatchID:   uuid.New(),
		Samples:   samples,
		Attempts:  attempts,
		Kind:      string(pe.Kind),
		LastError: pe.Error(),
		Timestamp: time.Now(),
	}

	if p.dead != nil {
		if _, err := p.dead.Append(db); err != nil {
			p.logError("dead_letter_append_failed", err)
		}
	}
	if p.obs != nil {
		p.obs.RecordDeadBatch(db)
	}
	if p.onDLQ != nil {
		p.onDLQ(db)
	}
}

// Status is a point-in-time snapshot; it is always available, including
// after processing errors.
type Status struct {
	QueueDepth       int             `json:"queue_depth"`
	CurrentBatchSize int             `json:"current_batch_size"`
	IsProcessing     bool            `json:"is_processing"`
	Performance      perf.Summary    `json:"performance"`
	Controller       control.Summary `json:"controller"`
}

func (p *Processor) GetStatus() Status {
	return Status{
		QueueDepth:       p.queue.Len(),
		CurrentBatchSize: p.ctrl.CurrentBatchSize(),
		IsProcessing:     p.inFlight.Load(),
		Performance:      p.agg.Summary(),
		Controller:       p.ctrl.Summary(),
	}
}

// Performance exposes the aggregator summary directly.
func (p *Processor) Performance() perf.Summary { return p.agg.Summary() }

// Run drives the processor until ctx is cancelled. A pass is triggered when
// the queue reaches the current batch size, or when a non-empty queue has
// been idle for one IdleSleep period (so stragglers do not wait forever for
// a full batch).
func (p *Processor) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.policy.IdleSleep)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			depth := p.queue.Len()
			p.setGauge("venturi_queue_length", float64(depth))
			if depth == 0 {
				continue
			}
			if depth >= p.ctrl.CurrentBatchSize() || p.queueIdle() {
				p.ProcessBatch()
			}
		}
	}
}

func (p *Processor) queueIdle() bool {
	last := p.lastEnqueue.Load()
	return last > 0 && time.Since(time.Unix(0, last)) >= p.policy.IdleSleep
}

// Close stops admission and applies the shutdown policy: "drain" processes
// the remaining queue (bounded by ctx), "discard" drops it with a counter.
// An in-flight pass is always allowed to finish.
func (p *Processor) Close(ctx context.Context) error {
	p.closed.Store(true)

	done := make(chan struct{})
	go func() {
		p.triggers.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	switch p.policy.OnShutdown {
	case ports.ShutdownDiscard:
		if n := p.queue.Len(); n > 0 {
			discarded := p.queue.DequeueBatch(n)
			p.incCounter("venturi_queue_dropped_total", float64(len(discarded)))
			p.logInfo("shutdown_discarded_items")
		}
	default: // drain
		for p.queue.Len() > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			if !p.ProcessBatch() {
				// Another pass still holds the guard; yield and re-check.
				time.Sleep(time.Millisecond)
			}
		}
	}

	// Let a final in-flight pass release the guard before returning.
	for p.inFlight.Load() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			time.Sleep(time.Millisecond)
		}
	}
	return nil
}

func (p *Processor) incCounter(name string, v float64) {
	if p.obs != nil {
		p.obs.IncCounter(name, v)
	}
}

func (p *Processor) setGauge(name string, v float64) {
	if p.obs != nil {
		p.obs.SetGauge(name, v)
	}
}

func (p *Processor) observeLatency(name string, seconds float64) {
	if p.obs != nil {
		p.obs.ObserveLatency(name, seconds)
	}
}

func (p *Processor) logError(msg string, err error) {
	if p.obs != nil {
		p.obs.LogError(msg, err)
	}
}

func (p *Processor) logInfo(msg string) {
	if p.obs != nil {
		p.obs.LogInfo(msg)
	}
}
