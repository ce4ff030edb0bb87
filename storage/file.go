package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/ruteri/amp-confirm/interfaces"
)

// maxRecordSize bounds a single journal line.
const maxRecordSize = 1 << 20

// FileJournal stores journal records as JSON lines in a local file.
type FileJournal struct {
	path        string
	clock       clock.Clock
	log         *slog.Logger
	locationURI string

	mu     sync.Mutex
	file   *os.File
	closed bool
}

// NewFileJournal opens (creating if needed) the journal file at path.
func NewFileJournal(path string, clk clock.Clock, log *slog.Logger) (*FileJournal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal file: %w", err)
	}

	return &FileJournal{
		path:        path,
		clock:       clk,
		log:         log,
		locationURI: fmt.Sprintf("file://%s", path),
		file:        f,
	}, nil
}

// Append writes rec as one line and syncs the file.
func (j *FileJournal) Append(ctx context.Context, rec interfaces.JournalRecord) error {
	if rec.RecordedAt.IsZero() {
		rec.RecordedAt = j.clock.Now()
	}
	rec.RecordedAt = rec.RecordedAt.UTC()

	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode journal record: %w", err)
	}
	line = append(line, '\n')

	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed {
		return interfaces.ErrJournalClosed
	}
	if _, err := j.file.Write(line); err != nil {
		return fmt.Errorf("failed to write journal record: %w", err)
	}
	if err := j.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync journal: %w", err)
	}

	j.log.Debug("Journaled checkpoint",
		slog.String("checkpoint", rec.Checkpoint),
		slog.String("stage", string(rec.Stage)),
		slog.String("path", j.path))

	return nil
}

// Records reads the journal file from the start. Lines that cannot be decoded,
// such as a line torn by a crash, are skipped.
func (j *FileJournal) Records(ctx context.Context, intent string) ([]interfaces.JournalRecord, error) {
	j.mu.Lock()
	closed := j.closed
	j.mu.Unlock()
	if closed {
		return nil, interfaces.ErrJournalClosed
	}

	f, err := os.Open(j.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open journal file: %w", err)
	}
	defer f.Close()

	var records []interfaces.JournalRecord
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxRecordSize)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if len(scanner.Bytes()) == 0 {
			continue
		}

		var rec interfaces.JournalRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			j.log.Warn("Skipping unreadable journal line",
				"err", err,
				slog.Int("line", lineNo),
				slog.String("path", j.path))
			continue
		}
		if intent != "" && rec.Intent != intent {
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read journal file: %w", err)
	}

	return records, nil
}

func (j *FileJournal) LocationURI() string {
	return j.locationURI
}

func (j *FileJournal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return nil
	}
	j.closed = true
	return j.file.Close()
}
