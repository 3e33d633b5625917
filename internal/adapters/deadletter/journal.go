// Package deadletter persists DeadBatch reports to an append-only on-disk
// journal so exhausted batches survive restarts and can be inspected or
// replayed by operators.
package deadletter

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/SergiLIFE/SergiLIFE-life-azure-system-sub007/internal/domain"
	"github.com/SergiLIFE/SergiLIFE-life-azure-system-sub007/internal/ports"
)

const recordHeaderLen = 12

// FileJournal is a crash-safe append-only log of dead batches.
// Record format: [8 bytes id][4 bytes len][len bytes json]. A truncated tail
// (partial write at crash) is trimmed on startup.
type FileJournal struct {
	mu        sync.Mutex
	path      string
	metaPath  string
	file      *os.File
	writer    *bufio.Writer
	nextID    ports.DeadLetterID
	acked     ports.DeadLetterID
	sizeBytes int64
}

func NewFileJournal(dir string) (*FileJournal, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	path := filepath.Join(dir, "deadletter.log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}

	j := &FileJournal{
		path:     path,
		metaPath: filepath.Join(dir, "deadletter.meta"),
		file:     f,
		writer:   bufio.NewWriterSize(f, 1<<18),
	}
	if err := j.bootstrap(); err != nil {
		return nil, err
	}
	return j, nil
}

func (j *FileJournal) bootstrap() error {
	if err := j.scanExisting(); err != nil {
		return err
	}
	if err := j.loadAcked(); err != nil {
		return err
	}
	if j.nextID < j.acked {
		j.nextID = j.acked
	}
	_, err := j.file.Seek(0, io.SeekEnd)
	return err
}

func (j *FileJournal) scanExisting() error {
	stat, err := os.Stat(j.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if err != nil || stat.Size() == 0 {
		return nil
	}

	rf, err := os.Open(j.path)
	if err != nil {
		return err
	}
	defer rf.Close()

	reader := bufio.NewReader(rf)
	var (
		offset int64
		lastID ports.DeadLetterID
	)

	for {
		var hdr [recordHeaderLen]byte
		if _, err := io.ReadFull(reader, hdr[:]); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			if errors.Is(err, io.ErrUnexpectedEOF) {
				break
			}
			return fmt.Errorf("deadletter scan header: %w", err)
		}
		id := ports.DeadLetterID(binary.BigEndian.Uint64(hdr[0:8]))
		length := binary.BigEndian.Uint32(hdr[8:12])

		if length > 0 {
			if _, err := io.CopyN(io.Discard, reader, int64(length)); err != nil {
				if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
					break
				}
				return fmt.Errorf("deadletter scan body: %w", err)
			}
		}
		offset += recordHeaderLen + int64(length)
		lastID = id
	}

	if err := j.file.Truncate(offset); err != nil {
		return err
	}
	j.sizeBytes = offset
	j.nextID = lastID
	return nil
}

func (j *FileJournal) loadAcked() error {
	data, err := os.ReadFile(j.metaPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	val := strings.TrimSpace(string(data))
	if val == "" {
		return nil
	}
	u, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return fmt.Errorf("deadletter meta parse: %w", err)
	}
	j.acked = ports.DeadLetterID(u)
	return nil
}

// Append writes the report and flushes it to the OS before returning, so a
// reported DeadBatch is never lost to a buffered-writer crash.
func (j *FileJournal) Append(db *domain.DeadBatch) (ports.DeadLetterID, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	id := j.nextID + 1

	b, err := json.Marshal(db)
	if err != nil {
		return 0, err
	}

	var hdr [recordHeaderLen]byte
	binary.BigEndian.PutUint64(hdr[0:8], uint64(id))
	binary.BigEndian.PutUint32(hdr[8:12], uint32(len(b)))

	if _, err := j.writer.Write(hdr[:]); err != nil {
		return 0, err
	}
	if _, err := j.writer.Write(b); err != nil {
		return 0, err
	}
	if err := j.writer.Flush(); err != nil {
		return 0, err
	}

	j.nextID = id
	j.sizeBytes += int64(len(b) + len(hdr))
	return id, nil
}

// Iterate replays retained records with id >= from in append order.
func (j *FileJournal) Iterate(from ports.DeadLetterID, fn func(id ports.DeadLetterID, db *domain.DeadBatch) error) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if err := j.writer.Flush(); err != nil {
		return err
	}

	f, err := os.Open(j.path)
	if err != nil {
		return err
	}
	defer f.Close()

	r := bufio.NewReader(f)
	for {
		var hdr [recordHeaderLen]byte
		if _, err := io.ReadFull(r, hdr[:]); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("deadletter iterate header: %w", err)
		}
		id := ports.DeadLetterID(binary.BigEndian.Uint64(hdr[0:8]))
		l := binary.BigEndian.Uint32(hdr[8:12])

		b := make([]byte, l)
		if _, err := io.ReadFull(r, b); err != nil {
			return fmt.Errorf("corrupt deadletter journal: %w", err)
		}
		if id < from {
			continue
		}

		var db domain.DeadBatch
		if err := json.Unmarshal(b, &db); err != nil {
			return fmt.Errorf("corrupt deadletter entry: %w", err)
		}
		if err := fn(id, &db); err != nil {
			return err
		}
	}
}

// Ack marks entries up to and including upto as handled.
func (j *FileJournal) Ack(upto ports.DeadLetterID) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if upto > j.acked {
		j.acked = upto
	}
	return j.persistMetaLocked()
}

func (j *FileJournal) Stats() ports.DeadLetterStats {
	j.mu.Lock()
	defer j.mu.Unlock()
	return ports.DeadLetterStats{
		OldestUnacked:  j.acked + 1,
		LatestAppended: j.nextID,
		SizeBytes:      j.sizeBytes,
	}
}

// Close flushes and closes the underlying file.
func (j *FileJournal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.writer.Flush(); err != nil {
		return err
	}
	return j.file.Close()
}

func (j *FileJournal) persistMetaLocked() error {
	data := []byte(fmt.Sprintf("%d\n", j.acked))
	return os.WriteFile(j.metaPath, data, 0o644)
}

var _ ports.DeadLetterLog = (*FileJournal)(nil)
