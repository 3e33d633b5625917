package venturi

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/SergiLIFE/SergiLIFE-life-azure-system-sub007/internal/adapters/collector/opcua"
	"github.com/SergiLIFE/SergiLIFE-life-azure-system-sub007/internal/adapters/collector/synth"
	"github.com/SergiLIFE/SergiLIFE-life-azure-system-sub007/internal/adapters/deadletter"
	"github.com/SergiLIFE/SergiLIFE-life-azure-system-sub007/internal/adapters/observability"
	"github.com/SergiLIFE/SergiLIFE-life-azure-system-sub007/internal/adapters/queue"
	"github.com/SergiLIFE/SergiLIFE-life-azure-system-sub007/internal/adapters/sink"
	"github.com/SergiLIFE/SergiLIFE-life-azure-system-sub007/internal/app/config"
	"github.com/SergiLIFE/SergiLIFE-life-azure-system-sub007/internal/control"
	"github.com/SergiLIFE/SergiLIFE-life-azure-system-sub007/internal/domain"
	"github.com/SergiLIFE/SergiLIFE-life-azure-system-sub007/internal/gates"
	"github.com/SergiLIFE/SergiLIFE-life-azure-system-sub007/internal/ports"
	"github.com/SergiLIFE/SergiLIFE-life-azure-system-sub007/internal/processor"
)

// RuntimeOption customizes the dependencies used by Runtime.
type RuntimeOption func(*runtimeOverrides)

type runtimeOverrides struct {
	collector     Collector
	queue         SampleQueue
	sink          Sink
	process       ProcessFunc
	observability Observability
	deadLetters   DeadLetterLog
	gates         *GateOrchestrator
	onDeadBatch   func(*DeadBatch)
}

// WithCollector injects a custom collector implementation (simulators, file
// replay, message brokers, etc.).
func WithCollector(col Collector) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.collector = col
	}
}

// WithSampleQueue injects a custom queue implementation.
func WithSampleQueue(q SampleQueue) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.queue = q
	}
}

// WithSink injects a custom sink; the default processing function writes each
// completed batch through it.
func WithSink(s Sink) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.sink = s
	}
}

// WithProcessFunc replaces the sink-backed default with an arbitrary external
// processing function. When set, no sink is required.
func WithProcessFunc(fn ProcessFunc) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.process = fn
	}
}

// WithObservability plugs in a custom observability backend.
func WithObservability(obs Observability) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.observability = obs
	}
}

// WithDeadLetterLog lets callers bring their own dead-letter journal or reuse
// an existing instance.
func WithDeadLetterLog(dlq DeadLetterLog) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.deadLetters = dlq
	}
}

// WithGateOrchestrator overrides the pipeline built from the configured gate
// list.
func WithGateOrchestrator(g *GateOrchestrator) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.gates = g
	}
}

// WithDeadBatchHandler registers a callback invoked for every dead batch,
// after the journal append.
func WithDeadBatchHandler(fn func(*DeadBatch)) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.onDeadBatch = fn
	}
}

// Runtime wires up the collector → queue → adaptive batch processor →
// processing function pipeline and exposes simple lifecycle hooks for
// embedding the batching layer inside any Go service.
type Runtime struct {
	cfg        *Config
	policy     ports.Policy
	obs        ports.Observability
	queue      ports.SampleQueue
	collector  ports.Collector
	controller *control.Controller
	gates      *gates.Orchestrator
	gateReport gates.InitReport
	proc       *processor.Processor
	db         *sql.DB
	journal    *deadletter.FileJournal

	metricsSrv  *http.Server
	sampleCh    chan *domain.Sample
	cancel      context.CancelFunc
	group       *errgroup.Group
	gaugeStopCh chan struct{}
}

// NewRuntime bootstraps the default adapters (collector per configuration,
// in-memory queue, Postgres batch sink, file dead-letter journal, Prometheus
// observability). RuntimeOption values override any dependency.
func NewRuntime(cfg *Config, opts ...RuntimeOption) (*Runtime, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	var overrides runtimeOverrides
	for _, opt := range opts {
		if opt != nil {
			opt(&overrides)
		}
	}

	obs := overrides.observability
	if obs == nil {
		obs = observability.NewPromObs()
	}

	policy := cfg.Policy.Ports()

	q := overrides.queue
	if q == nil {
		q = queue.NewMemQueue(policy.MaxQueueLen)
	}

	ctrl, err := control.New(cfg.Controller.Control())
	if err != nil {
		return nil, err
	}

	orch := overrides.gates
	var report gates.InitReport
	if orch == nil && len(cfg.Gates) > 0 {
		orch, report = gates.NewOrchestrator(cfg.Gates, gates.NewBackend(cfg.Backend), obs)
	}

	var journal *deadletter.FileJournal
	dlq := overrides.deadLetters
	if dlq == nil {
		journal, err = deadletter.NewFileJournal(cfg.DeadLetter.Dir)
		if err != nil {
			return nil, err
		}
		dlq = journal
	}

	col := overrides.collector
	if col == nil {
		switch cfg.Collector.Type {
		case config.CollectorOPCUA:
			col, err = opcua.NewCollector(cfg.OPCUACollector())
			if err != nil {
				return nil, err
			}
		default:
			col = synth.NewCollector(cfg.Collector.Synthetic)
		}
	}

	var (
		db   *sql.DB
		proc ProcessFunc
	)
	if overrides.process != nil {
		proc = overrides.process
	} else {
		snk := overrides.sink
		if snk == nil {
			if cfg.Postgres.ConnString == "" {
				return nil, fmt.Errorf("a sink, process function, or postgres.conn_string is required")
			}
			db, err = sql.Open("postgres", cfg.Postgres.ConnString)
			if err != nil {
				return nil, err
			}
			snk = sink.NewPostgresSink(db, cfg.Postgres.Table)
		}
		proc = func(ctx context.Context, batch []*domain.Sample) ([]*domain.Sample, error) {
			if err := snk.WriteBatch(batch); err != nil {
				return nil, err
			}
			return batch, nil
		}
	}

	p, err := processor.New(ctrl, q, proc, policy, processor.Options{
		Gates:         orch,
		Observability: obs,
		DeadLetters:   dlq,
		OnDeadBatch:   overrides.onDeadBatch,
		PerfWindow:    cfg.Controller.HistoryWindow,
	})
	if err != nil {
		if db != nil {
			_ = db.Close()
		}
		return nil, err
	}

	return &Runtime{
		cfg:        cfg,
		policy:     policy,
		obs:        obs,
		queue:      q,
		collector:  col,
		controller: ctrl,
		gates:      orch,
		gateReport: report,
		proc:       p,
		db:         db,
		journal:    journal,
	}, nil
}

// Start launches the collector, the admission pump, the batch loop, and the
// observability stack. It returns immediately; call Run to block on a
// context instead.
func (r *Runtime) Start() error {
	if r == nil {
		return fmt.Errorf("runtime is nil")
	}

	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel

	r.sampleCh = make(chan *domain.Sample, 1024)
	if err := r.collector.Start(r.sampleCh); err != nil {
		cancel()
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	r.group = g

	g.Go(func() error { return r.pump(gctx) })
	g.Go(func() error {
		if err := r.proc.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	r.startMetrics()
	return nil
}

// pump moves collected samples into the processor queue under the admission
// policy.
func (r *Runtime) pump(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case s := <-r.sampleCh:
			if s == nil {
				continue
			}
			if err := r.proc.AddItem(s); err != nil {
				if errors.Is(err, processor.ErrClosed) {
					return nil
				}
				r.obs.LogError("sample_admission_failed", err,
					ports.Field{Key: "stream_id", Value: s.StreamID})
			}
		}
	}
}

// Run starts the runtime and blocks until the provided context is cancelled.
// Upon cancellation it attempts a graceful shutdown.
func (r *Runtime) Run(ctx context.Context) error {
	if err := r.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return r.Shutdown(shutdownCtx)
}

// Shutdown stops the collector, applies the configured drain/discard policy
// to the queue, and tears down the metrics server and connections.
func (r *Runtime) Shutdown(ctx context.Context) error {
	var errs []error

	if r.collector != nil {
		if err := r.collector.Stop(); err != nil {
			errs = append(errs, err)
		}
	}

	if r.cancel != nil {
		r.cancel()
	}
	if r.group != nil {
		if err := r.group.Wait(); err != nil {
			errs = append(errs, err)
		}
	}

	if err := r.proc.Close(ctx); err != nil {
		errs = append(errs, err)
	}

	if r.gaugeStopCh != nil {
		close(r.gaugeStopCh)
		r.gaugeStopCh = nil
	}

	if r.metricsSrv != nil {
		if err := r.metricsSrv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs = append(errs, err)
		}
	}

	if r.db != nil {
		if err := r.db.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if r.journal != nil {
		if err := r.journal.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Status returns the processor snapshot.
func (r *Runtime) Status() Status { return r.proc.GetStatus() }

// GateReport returns the gate activation report from construction.
func (r *Runtime) GateReport() GateInitReport { return r.gateReport }

// AddItem admits one sample directly, bypassing the collector.
func (r *Runtime) AddItem(s *PipelineSample) error { return r.proc.AddItem(s) }

func (r *Runtime) startMetrics() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.metricsSrv = &http.Server{
		Addr:    r.cfg.Metrics.Addr,
		Handler: mux,
	}

	go func() {
		if err := r.metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("metrics server exited: %v", err)
		}
	}()

	r.gaugeStopCh = make(chan struct{})
	go r.recordResourceGauges(r.gaugeStopCh, time.Second)
}

func (r *Runtime) recordResourceGauges(stop <-chan struct{}, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			r.obs.SetGauge("venturi_queue_length", float64(r.queue.Len()))
		}
	}
}
