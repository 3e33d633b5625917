package queue

import (
	"sync"

	"github.com/SergiLIFE/SergiLIFE-life-azure-system-sub007/internal/domain"
	"github.com/SergiLIFE/SergiLIFE-life-azure-system-sub007/internal/ports"
)

// MemQueue is a bounded in-memory queue that preserves FIFO ordering.
// Producers append concurrently; only the single active batch extraction
// removes items.
type MemQueue struct {
	mu   sync.Mutex
	data []ports.QueuedSample
	cap  int
}

func NewMemQueue(capacity int) *MemQueue {
	if capacity <= 0 {
		capacity = 1
	}
	return &MemQueue{
		data: make([]ports.QueuedSample, 0, capacity),
		cap:  capacity,
	}
}

func (q *MemQueue) Enqueue(seq uint64, s *domain.Sample) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.data) >= q.cap {
		return false
	}
	q.data = append(q.data, ports.QueuedSample{Seq: seq, Sample: s})
	return true
}

func (q *MemQueue) DequeueBatch(max int) []ports.QueuedSample {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.data) == 0 {
		return nil
	}
	if max <= 0 || max > len(q.data) {
		max = len(q.data)
	}
	out := make([]ports.QueuedSample, max)
	copy(out, q.data[:max])
	q.data = append(q.data[:0], q.data[max:]...)
	return out
}

// RequeueFront restores a previously extracted batch ahead of everything
// enqueued since, so a retried batch keeps its original position. The
// capacity check is deliberately soft: a retry may transiently exceed the
// bound rather than lose items that were already admitted once.
func (q *MemQueue) RequeueFront(batch []ports.QueuedSample) bool {
	if len(batch) == 0 {
		return true
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	restored := make([]ports.QueuedSample, 0, len(batch)+len(q.data))
	restored = append(restored, batch...)
	restored = append(restored, q.data...)
	q.data = restored
	return true
}

func (q *MemQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.data)
}

func (q *MemQueue) Cap() int { return q.cap }

var _ ports.SampleQueue = (*MemQueue)(nil)
