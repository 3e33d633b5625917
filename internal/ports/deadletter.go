package ports

import "github.com/SergiLIFE/SergiLIFE-life-azure-system-sub007/internal/domain"

// DeadLetterID uniquely identifies a journal entry.
type DeadLetterID uint64

// DeadLetterLog is the durable record of dead batches. Entries survive
// process restarts so operators can inspect or replay them; Ack marks
// entries as handled.
type DeadLetterLog interface {
	Append(db *domain.DeadBatch) (DeadLetterID, error)
	Iterate(from DeadLetterID, fn func(id DeadLetterID, db *domain.DeadBatch) error) error
	Ack(upto DeadLetterID) error
	Stats() DeadLetterStats
}

// DeadLetterStats exposes journal metadata for observability.
type DeadLetterStats struct {
	OldestUnacked  DeadLetterID
	LatestAppended DeadLetterID
	SizeBytes      int64
}
