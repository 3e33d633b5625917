package sink

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/SergiLIFE/SergiLIFE-life-azure-system-sub007/internal/domain"
	"github.com/SergiLIFE/SergiLIFE-life-azure-system-sub007/internal/ports"
)

// PostgresSink writes processed batches into a Postgres/Timescale table with
// a single multi-row INSERT. The (stream_id, ts, seq) unique key makes a
// retried batch idempotent downstream.
type PostgresSink struct {
	db        *sql.DB
	tableName string
}

func NewPostgresSink(db *sql.DB, table string) *PostgresSink {
	return &PostgresSink{db: db, tableName: table}
}

func (p *PostgresSink) Name() string { return "postgres" }

func (p *PostgresSink) WriteBatch(samples []*domain.Sample) error {
	if len(samples) == 0 {
		return nil
	}

	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(p.tableName)
	b.WriteString(" (stream_id, ts, seq, channels, quality, source_id) VALUES ")

	args := make([]any, 0, len(samples)*6)
	for i, s := range samples {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(fmt.Sprintf("($%d,$%d,$%d,$%d,$%d,$%d)",
			len(args)+1, len(args)+2, len(args)+3, len(args)+4, len(args)+5, len(args)+6))
		channels, err := json.Marshal(s.Channels)
		if err != nil {
			return fmt.Errorf("marshal channels: %w", err)
		}

		args = append(args,
			s.StreamID,
			s.Timestamp,
			s.Seq,
			channels,
			s.Quality,
			s.SourceID,
		)
	}

	b.WriteString(" ON CONFLICT (stream_id, ts, seq) DO NOTHING")

	_, err := p.db.Exec(b.String(), args...)
	return err
}

var _ ports.Sink = (*PostgresSink)(nil)
