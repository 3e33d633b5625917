package ports

import "github.com/SergiLIFE/SergiLIFE-life-azure-system-sub007/internal/domain"

// QueuedSample is one item buffered in the processor queue. Seq is assigned
// by the processor at admission and preserves FIFO order across requeues.
type QueuedSample struct {
	Seq    uint64
	Sample *domain.Sample
}

// SampleQueue is the ordered, concurrency-safe buffer between producers and
// the single-flight batch extraction. Items are appended by any number of
// producers and removed only by the one active extraction.
type SampleQueue interface {
	Enqueue(seq uint64, s *domain.Sample) bool
	DequeueBatch(max int) []QueuedSample
	// RequeueFront puts a previously extracted batch back at the head of the
	// queue, ahead of everything enqueued since. Used by the retry-once
	// policy. Returns false if the queue cannot take the batch back.
	RequeueFront(batch []QueuedSample) bool
	Len() int
	Cap() int
}
