package venturi

import (
	"context"
	"testing"
	"time"
)

func testContext(t *testing.T, timeout time.Duration) (context.Context, context.CancelFunc) {
	t.Helper()
	return context.WithTimeout(context.Background(), timeout)
}

type stubCollector struct {
	emit int
}

func (s *stubCollector) Start(out chan<- *PipelineSample) error {
	if s.emit > 0 {
		go func(n int) {
			for i := 0; i < n; i++ {
				out <- &PipelineSample{
					StreamID:  "stub",
					Timestamp: time.Now(),
					Seq:       uint64(i + 1),
					Channels:  map[string]float64{"v": float64(i)},
					Quality:   1,
				}
			}
		}(s.emit)
	}
	return nil
}

func (s *stubCollector) Stop() error { return nil }

type stubSink struct{}

func (s *stubSink) WriteBatch(samples []*PipelineSample) error { return nil }
func (s *stubSink) Name() string                               { return "stub" }

type stubQueue struct{}

func (s *stubQueue) Enqueue(seq uint64, sample *PipelineSample) bool { return true }
func (s *stubQueue) DequeueBatch(max int) []QueuedSample             { return nil }
func (s *stubQueue) RequeueFront(batch []QueuedSample) bool          { return true }
func (s *stubQueue) Len() int                                        { return 0 }
func (s *stubQueue) Cap() int                                        { return 0 }

type stubObservability struct{}

func (s *stubObservability) LogInfo(string, ...Field)            {}
func (s *stubObservability) LogError(string, error, ...Field)    {}
func (s *stubObservability) LogCritical(string, error, ...Field) {}
func (s *stubObservability) IncCounter(string, float64)          {}
func (s *stubObservability) ObserveLatency(string, float64)      {}
func (s *stubObservability) SetGauge(string, float64)            {}
func (s *stubObservability) RecordDeadBatch(*DeadBatch)          {}

type stubDeadLetter struct {
	appended []*DeadBatch
}

func (s *stubDeadLetter) Append(db *DeadBatch) (DeadLetterID, error) {
	s.appended = append(s.appended, db)
	return DeadLetterID(len(s.appended)), nil
}

func (s *stubDeadLetter) Iterate(from DeadLetterID, fn func(id DeadLetterID, db *DeadBatch) error) error {
	for i, db := range s.appended {
		id := DeadLetterID(i + 1)
		if id < from {
			continue
		}
		if err := fn(id, db); err != nil {
			return err
		}
	}
	return nil
}

func (s *stubDeadLetter) Ack(upto DeadLetterID) error { return nil }

func (s *stubDeadLetter) Stats() DeadLetterStats {
	return DeadLetterStats{LatestAppended: DeadLetterID(len(s.appended))}
}
