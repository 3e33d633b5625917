package sink

import (
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/SergiLIFE/SergiLIFE-life-azure-system-sub007/internal/domain"
)

func TestPostgresSinkWriteBatch(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	s := NewPostgresSink(db, "samples")
	ts := time.Now()

	samples := []*domain.Sample{
		{
			StreamID:  "eeg-1",
			Timestamp: ts,
			Seq:       1,
			Channels:  map[string]float64{"c3": 0.42},
			Quality:   0.93,
			SourceID:  "amp-7",
		},
	}

	expectedQuery := regexp.QuoteMeta("INSERT INTO samples (stream_id, ts, seq, channels, quality, source_id) VALUES ($1,$2,$3,$4,$5,$6) ON CONFLICT (stream_id, ts, seq) DO NOTHING")
	mock.ExpectExec(expectedQuery).
		WithArgs("eeg-1", ts, uint64(1), sqlmock.AnyArg(), 0.93, "amp-7").
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := s.WriteBatch(samples); err != nil {
		t.Fatalf("write batch: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresSinkWriteBatchNoSamples(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	s := NewPostgresSink(db, "samples")
	if err := s.WriteBatch(nil); err != nil {
		t.Fatalf("expected nil error for empty batch, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresSinkMultiRowPlaceholders(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	s := NewPostgresSink(db, "samples")
	ts := time.Now()
	samples := []*domain.Sample{
		{StreamID: "eeg-1", Timestamp: ts, Seq: 1},
		{StreamID: "eeg-1", Timestamp: ts, Seq: 2},
	}

	expectedQuery := regexp.QuoteMeta("INSERT INTO samples (stream_id, ts, seq, channels, quality, source_id) VALUES ($1,$2,$3,$4,$5,$6),($7,$8,$9,$10,$11,$12) ON CONFLICT (stream_id, ts, seq) DO NOTHING")
	mock.ExpectExec(expectedQuery).
		WithArgs("eeg-1", ts, uint64(1), sqlmock.AnyArg(), 0.0, "",
			"eeg-1", ts, uint64(2), sqlmock.AnyArg(), 0.0, "").
		WillReturnResult(sqlmock.NewResult(1, 2))

	if err := s.WriteBatch(samples); err != nil {
		t.Fatalf("write batch: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
