package deadletter

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/SergiLIFE/SergiLIFE-life-azure-system-sub007/internal/domain"
	"github.com/SergiLIFE/SergiLIFE-life-azure-system-sub007/internal/ports"
)

func deadBatch(n int) *domain.DeadBatch {
	return &domain.DeadBatch{
		BatchID:   uuid.New(),
		Samples:   []*domain.Sample{{StreamID: "eeg-1", Seq: uint64(n)}},
		Attempts:  2,
		Kind:      string(domain.ProcessingTimeout),
		LastError: "deadline exceeded",
		Timestamp: time.Now().UTC(),
	}
}

func TestJournalAppendIterate(t *testing.T) {
	dir := t.TempDir()
	j, err := NewFileJournal(dir)
	if err != nil {
		t.Fatalf("new journal: %v", err)
	}
	defer j.Close()

	for i := 1; i <= 3; i++ {
		id, err := j.Append(deadBatch(i))
		if err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
		if id != ports.DeadLetterID(i) {
			t.Fatalf("expected id %d, got %d", i, id)
		}
	}

	var got []uint64
	err = j.Iterate(2, func(id ports.DeadLetterID, db *domain.DeadBatch) error {
		got = append(got, db.Samples[0].Seq)
		return nil
	})
	if err != nil {
		t.Fatalf("iterate: %v", err)
	}
	if len(got) != 2 || got[0] != 2 || got[1] != 3 {
		t.Fatalf("unexpected replay: %v", got)
	}
}

func TestJournalAckAndStats(t *testing.T) {
	dir := t.TempDir()
	j, err := NewFileJournal(dir)
	if err != nil {
		t.Fatalf("new journal: %v", err)
	}
	defer j.Close()

	for i := 1; i <= 2; i++ {
		if _, err := j.Append(deadBatch(i)); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	if err := j.Ack(1); err != nil {
		t.Fatalf("ack: %v", err)
	}

	stats := j.Stats()
	if stats.LatestAppended != 2 {
		t.Fatalf("expected latest 2, got %d", stats.LatestAppended)
	}
	if stats.OldestUnacked != 2 {
		t.Fatalf("expected oldest unacked 2, got %d", stats.OldestUnacked)
	}
	if stats.SizeBytes == 0 {
		t.Fatalf("expected non-zero journal size")
	}
}

func TestJournalSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	j, err := NewFileJournal(dir)
	if err != nil {
		t.Fatalf("new journal: %v", err)
	}
	if _, err := j.Append(deadBatch(7)); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := j.Ack(1); err != nil {
		t.Fatalf("ack: %v", err)
	}
	if err := j.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := NewFileJournal(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	stats := reopened.Stats()
	if stats.LatestAppended != 1 {
		t.Fatalf("expected latest 1 after reopen, got %d", stats.LatestAppended)
	}
	if stats.OldestUnacked != 2 {
		t.Fatalf("expected acked state to persist, got oldest unacked %d", stats.OldestUnacked)
	}

	id, err := reopened.Append(deadBatch(8))
	if err != nil {
		t.Fatalf("append after reopen: %v", err)
	}
	if id != 2 {
		t.Fatalf("expected id 2 after reopen, got %d", id)
	}
}
