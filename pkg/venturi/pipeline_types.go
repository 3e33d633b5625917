package venturi

import (
	"github.com/SergiLIFE/SergiLIFE-life-azure-system-sub007/internal/control"
	"github.com/SergiLIFE/SergiLIFE-life-azure-system-sub007/internal/domain"
	"github.com/SergiLIFE/SergiLIFE-life-azure-system-sub007/internal/gates"
	"github.com/SergiLIFE/SergiLIFE-life-azure-system-sub007/internal/perf"
	"github.com/SergiLIFE/SergiLIFE-life-azure-system-sub007/internal/ports"
	"github.com/SergiLIFE/SergiLIFE-life-azure-system-sub007/internal/processor"
)

// PipelineSample is the data structure that flows through the queue → gates →
// processing pipeline. It mirrors internal/domain.Sample but is exported so
// custom adapters can reference it.
type PipelineSample = domain.Sample

// QueuedSample represents an item buffered inside the bounded queue.
type QueuedSample = ports.QueuedSample

// Collector streams samples from any data source (OPC UA, simulators, file
// replay, etc.) into the pipeline.
type Collector = ports.Collector

// SampleQueue is the bounded, in-memory queue feeding the batch processor.
type SampleQueue = ports.SampleQueue

// Sink consumes processed batches and persists them to any downstream system.
type Sink = ports.Sink

// ProcessFunc is the external processing contract invoked with each batch.
type ProcessFunc = ports.ProcessFunc

// Observability emits metrics/logs about batching, latency, retries, and
// dead-letter conditions.
type Observability = ports.Observability

// Field is a structured log/metric field used by Observability implementations.
type Field = ports.Field

// DeadLetterLog is the durable record of batches that exhausted their retries.
type DeadLetterLog = ports.DeadLetterLog

// DeadLetterStats exposes journal metadata for observability.
type DeadLetterStats = ports.DeadLetterStats

// DeadLetterID uniquely identifies a dead-letter journal entry.
type DeadLetterID = ports.DeadLetterID

// GateBackend performs the numeric work of a gate stage.
type GateBackend = ports.GateBackend

// GateConfig describes one gate of the optimization pipeline.
type GateConfig = gates.Config

// GateOrchestrator runs the configured gates over a batch envelope.
type GateOrchestrator = gates.Orchestrator

// GateInitReport summarizes gate activation after construction.
type GateInitReport = gates.InitReport

// PipelineResult is the aggregate report of one gate pipeline execution.
type PipelineResult = gates.PipelineResult

// BatchMetrics is the record of one completed batch.
type BatchMetrics = domain.BatchMetrics

// DeadBatch is the report emitted when a batch exhausts its retry budget.
type DeadBatch = domain.DeadBatch

// ProcessingError classifies failures from the external processing function.
type ProcessingError = domain.ProcessingError

// ControllerSummary is the serializable controller snapshot.
type ControllerSummary = control.Summary

// PerformanceSummary aggregates the bounded metrics window.
type PerformanceSummary = perf.Summary

// Status is the point-in-time processor snapshot.
type Status = processor.Status
