package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ConfigError reports an invalid construction-time parameter. It is fatal:
// callers must fix the configuration, the component is never retried.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("venturi config: %s: %s", e.Field, e.Reason)
}

// NewConfigError builds a ConfigError for the named field.
func NewConfigError(field, format string, args ...any) *ConfigError {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// ProcessingErrorKind classifies failures surfaced by the external
// processing function.
type ProcessingErrorKind string

const (
	// ProcessingTimeout means the caller-imposed deadline expired. Recoverable.
	ProcessingTimeout ProcessingErrorKind = "timeout"
	// ProcessingPartialFailure means some items failed downstream. Recoverable.
	ProcessingPartialFailure ProcessingErrorKind = "partial_failure"
	// ProcessingFatal means the batch cannot succeed on retry.
	ProcessingFatal ProcessingErrorKind = "fatal"
)

// ProcessingError wraps an external processing failure with its kind so the
// processor can decide between retry-once and dead-lettering.
type ProcessingError struct {
	Kind ProcessingErrorKind
	Err  error
}

func (e *ProcessingError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("processing error (%s)", e.Kind)
	}
	return fmt.Sprintf("processing error (%s): %v", e.Kind, e.Err)
}

func (e *ProcessingError) Unwrap() error { return e.Err }

// Recoverable reports whether the processor may retry the batch once.
func (e *ProcessingError) Recoverable() bool {
	return e.Kind == ProcessingTimeout || e.Kind == ProcessingPartialFailure
}

// ClassifyProcessingError maps an arbitrary error from the processing
// function onto the taxonomy. Deadline expiry becomes a timeout; an error
// that already is a ProcessingError keeps its kind; anything else is treated
// as a recoverable partial failure.
func ClassifyProcessingError(err error) *ProcessingError {
	if err == nil {
		return nil
	}
	var pe *ProcessingError
	if errors.As(err, &pe) {
		return pe
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &ProcessingError{Kind: ProcessingTimeout, Err: err}
	}
	return &ProcessingError{Kind: ProcessingPartialFailure, Err: err}
}

// GateError reports a failed gate stage. A single gate's failure degrades
// gracefully; the orchestrator returns a GateError only when the
// deterministic fallback failed too.
type GateError struct {
	Gate string
	Err  error
}

func (e *GateError) Error() string {
	return fmt.Sprintf("gate %s: %v", e.Gate, e.Err)
}

func (e *GateError) Unwrap() error { return e.Err }

// DeadBatch is the report emitted when a batch has exhausted its retry
// budget (or failed fatally). The processor never drops a batch without
// producing one of these.
type DeadBatch struct {
	BatchID   uuid.UUID `json:"batch_id"`
	Samples   []*Sample `json:"samples"`
	Attempts  int       `json:"attempts"`
	Kind      string    `json:"kind"`
	LastError string    `json:"last_error"`
	Timestamp time.Time `json:"timestamp"`
}
