package venturi

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SergiLIFE/SergiLIFE-life-azure-system-sub007/internal/adapters/queue"
	"github.com/SergiLIFE/SergiLIFE-life-azure-system-sub007/internal/control"
	"github.com/SergiLIFE/SergiLIFE-life-azure-system-sub007/internal/domain"
	"github.com/SergiLIFE/SergiLIFE-life-azure-system-sub007/internal/gates"
	"github.com/SergiLIFE/SergiLIFE-life-azure-system-sub007/internal/processor"
)

// ErrQueueFull indicates the bounded queue rejected the sample according to
// the admission policy.
var ErrQueueFull = processor.ErrQueueFull

// ErrPublisherClosed indicates Publish was called after Close.
var ErrPublisherClosed = processor.ErrClosed

// Sample mirrors the internal domain.Sample but is safe for external callers.
type Sample struct {
	StreamID  string
	Timestamp time.Time
	Seq       uint64
	Channels  map[string]float64
	Quality   float64
	SourceID  string
}

// SampleBatchSink is invoked with processed batches in completion order.
type SampleBatchSink func([]Sample) error

// ExternalPublisherConfig configures the standalone adaptive publisher.
type ExternalPublisherConfig struct {
	Controller ControllerConfig
	Policy     Policy
	Gates      []GateConfig
	Backend    string
	// OnDeadBatch receives batches that exhausted their retry budget. The
	// standalone publisher keeps no on-disk journal; callers that need
	// durability should run the full Runtime instead.
	OnDeadBatch func(*DeadBatch)
}

func (c *ExternalPublisherConfig) applyDefaults() {
	if c.Controller.MinBatchSize == 0 {
		c.Controller.MinBatchSize = 1
	}
	if c.Controller.MaxBatchSize == 0 {
		c.Controller.MaxBatchSize = 1024
	}
	if c.Controller.InitialBatch == 0 {
		c.Controller.InitialBatch = 32
	}
	if c.Controller.TargetLatency == 0 {
		c.Controller.TargetLatency = Duration(50 * time.Millisecond)
	}
	if c.Policy.MaxQueueLen == 0 {
		c.Policy.MaxQueueLen = 100_000
	}
	if c.Policy.IdleSleep == 0 {
		c.Policy.IdleSleep = Duration(5 * time.Millisecond)
	}
	if c.Policy.OnQueueFull == "" {
		c.Policy.OnQueueFull = "block"
	}
	if c.Policy.OnShutdown == "" {
		c.Policy.OnShutdown = "drain"
	}
	if c.Backend == "" {
		c.Backend = gates.BackendDeterministic
	}
}

// ExternalPublisher exposes the adaptive queue → gates → sink pipeline to
// arbitrary producers. Push samples with Publish; the batch size adapts to
// the sink's observed latency exactly as in the full runtime.
type ExternalPublisher struct {
	proc   *processor.Processor
	cancel context.CancelFunc
	doneCh chan struct{}
}

// NewExternalPublisher wires a bounded queue + adaptive processor + sink
// callback so callers can push samples while reusing the batching and
// backpressure policies.
func NewExternalPublisher(cfg *ExternalPublisherConfig, sink SampleBatchSink) (*ExternalPublisher, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if sink == nil {
		return nil, fmt.Errorf("sink callback is required")
	}
	cfg.applyDefaults()

	ctrl, err := control.New(cfg.Controller.Control())
	if err != nil {
		return nil, err
	}

	var orch *gates.Orchestrator
	if len(cfg.Gates) > 0 {
		orch, _ = gates.NewOrchestrator(cfg.Gates, gates.NewBackend(cfg.Backend), nil)
	}

	process := func(ctx context.Context, batch []*domain.Sample) ([]*domain.Sample, error) {
		if err := sink(convertDomainBatch(batch)); err != nil {
			return nil, err
		}
		return batch, nil
	}

	proc, err := processor.New(ctrl, queue.NewMemQueue(cfg.Policy.MaxQueueLen), process, cfg.Policy.Ports(), processor.Options{
		Gates:       orch,
		OnDeadBatch: cfg.OnDeadBatch,
		PerfWindow:  cfg.Controller.HistoryWindow,
	})
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	pub := &ExternalPublisher{
		proc:   proc,
		cancel: cancel,
		doneCh: make(chan struct{}),
	}

	go func() {
		defer close(pub.doneCh)
		_ = proc.Run(ctx)
	}()

	return pub, nil
}

// Publish admits the sample according to the queue policy.
func (p *ExternalPublisher) Publish(sample Sample) error {
	return p.proc.AddItem(sample.toDomain())
}

// Status returns the processor snapshot.
func (p *ExternalPublisher) Status() Status { return p.proc.GetStatus() }

// Close stops the batch loop and applies the shutdown policy, respecting the
// provided context.
func (p *ExternalPublisher) Close(ctx context.Context) error {
	p.cancel()

	select {
	case <-p.doneCh:
	case <-ctx.Done():
		return ctx.Err()
	}

	if err := p.proc.Close(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (s Sample) toDomain() *domain.Sample {
	return &domain.Sample{
		StreamID:  s.StreamID,
		Timestamp: s.Timestamp,
		Seq:       s.Seq,
		Channels:  copyChannels(s.Channels),
		Quality:   s.Quality,
		SourceID:  s.SourceID,
	}
}

func sampleFromDomain(s *domain.Sample) Sample {
	return Sample{
		StreamID:  s.StreamID,
		Timestamp: s.Timestamp,
		Seq:       s.Seq,
		Channels:  copyChannels(s.Channels),
		Quality:   s.Quality,
		SourceID:  s.SourceID,
	}
}

func copyChannels(src map[string]float64) map[string]float64 {
	if len(src) == 0 {
		return nil
	}
	dst := make(map[string]float64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
