package venturi

import (
	base "github.com/SergiLIFE/SergiLIFE-life-azure-system-sub007/pkg/venturi"
)

// Re-exported errors for convenience.
var (
	ErrQueueFull         = base.ErrQueueFull
	ErrPublisherClosed   = base.ErrPublisherClosed
	ErrChannelSinkClosed = base.ErrChannelSinkClosed
)

// Type aliases so consumers can import the module root directly.
type (
	Config                  = base.Config
	ControllerConfig        = base.ControllerConfig
	Policy                  = base.Policy
	CollectorConfig         = base.CollectorConfig
	OPCUAConfig             = base.OPCUAConfig
	OPCUANodeConfig         = base.OPCUANodeConfig
	SyntheticConfig         = base.SyntheticConfig
	PostgresConfig          = base.PostgresConfig
	MetricsConfig           = base.MetricsConfig
	DeadLetterConfig        = base.DeadLetterConfig
	Duration                = base.Duration
	Flow                    = base.Flow
	FlowOption              = base.FlowOption
	StreamInOption          = base.StreamInOption
	StreamOutOption         = base.StreamOutOption
	Runtime                 = base.Runtime
	RuntimeOption           = base.RuntimeOption
	Status                  = base.Status
	Sample                  = base.Sample
	PipelineSample          = base.PipelineSample
	SampleBatchSink         = base.SampleBatchSink
	Collector               = base.Collector
	Sink                    = base.Sink
	ProcessFunc             = base.ProcessFunc
	SampleQueue             = base.SampleQueue
	Observability           = base.Observability
	QueuedSample            = base.QueuedSample
	GateConfig              = base.GateConfig
	GateBackend             = base.GateBackend
	GateOrchestrator        = base.GateOrchestrator
	GateInitReport          = base.GateInitReport
	PipelineResult          = base.PipelineResult
	BatchMetrics            = base.BatchMetrics
	DeadBatch               = base.DeadBatch
	ProcessingError         = base.ProcessingError
	DeadLetterLog           = base.DeadLetterLog
	DeadLetterID            = base.DeadLetterID
	DeadLetterStats         = base.DeadLetterStats
	ControllerSummary       = base.ControllerSummary
	PerformanceSummary      = base.PerformanceSummary
	ExternalPublisher       = base.ExternalPublisher
	ExternalPublisherConfig = base.ExternalPublisherConfig
)

// Config helpers.
func LoadConfig(path string) (*Config, error) {
	return base.LoadConfig(path)
}

// Flow builder helpers.
func Conf(path string, opts ...FlowOption) (*Flow, error) {
	return base.Conf(path, opts...)
}

func ConfFromConfig(cfg *Config, opts ...FlowOption) (*Flow, error) {
	return base.ConfFromConfig(cfg, opts...)
}

func WithFlowOptions(opts ...RuntimeOption) FlowOption {
	return base.WithFlowOptions(opts...)
}

func StreamInCollector(col Collector) StreamInOption {
	return base.StreamInCollector(col)
}

func StreamInQueue(q SampleQueue) StreamInOption {
	return base.StreamInQueue(q)
}

func StreamInObservability(obs Observability) StreamInOption {
	return base.StreamInObservability(obs)
}

func StreamOutSink(s Sink) StreamOutOption {
	return base.StreamOutSink(s)
}

func StreamOutProcessFunc(fn ProcessFunc) StreamOutOption {
	return base.StreamOutProcessFunc(fn)
}

func StreamOutCallback(name string, fn SampleBatchSink) StreamOutOption {
	return base.StreamOutCallback(name, fn)
}

func StreamOutDeadLetterLog(dlq DeadLetterLog) StreamOutOption {
	return base.StreamOutDeadLetterLog(dlq)
}

func StreamOutObservability(obs Observability) StreamOutOption {
	return base.StreamOutObservability(obs)
}

// Runtime and options.
func NewRuntime(cfg *Config, opts ...RuntimeOption) (*Runtime, error) {
	return base.NewRuntime(cfg, opts...)
}

func WithCollector(col Collector) RuntimeOption {
	return base.WithCollector(col)
}

func WithSink(s Sink) RuntimeOption {
	return base.WithSink(s)
}

func WithProcessFunc(fn ProcessFunc) RuntimeOption {
	return base.WithProcessFunc(fn)
}

func WithSampleQueue(q SampleQueue) RuntimeOption {
	return base.WithSampleQueue(q)
}

func WithObservability(obs Observability) RuntimeOption {
	return base.WithObservability(obs)
}

func WithDeadLetterLog(dlq DeadLetterLog) RuntimeOption {
	return base.WithDeadLetterLog(dlq)
}

func WithGateOrchestrator(g *GateOrchestrator) RuntimeOption {
	return base.WithGateOrchestrator(g)
}

func WithDeadBatchHandler(fn func(*DeadBatch)) RuntimeOption {
	return base.WithDeadBatchHandler(fn)
}

// Sink adapters.
func NewCallbackSink(name string, fn SampleBatchSink) Sink {
	return base.NewCallbackSink(name, fn)
}

func NewChannelSink(name string, buffer int) (Sink, <-chan []Sample, func()) {
	return base.NewChannelSink(name, buffer)
}

// External publisher.
func NewExternalPublisher(cfg *ExternalPublisherConfig, sink SampleBatchSink) (*ExternalPublisher, error) {
	return base.NewExternalPublisher(cfg, sink)
}
