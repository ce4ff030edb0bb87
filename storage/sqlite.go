package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/ruteri/amp-confirm/interfaces"
	_ "modernc.org/sqlite"
)

//go:embed schema/journal.sql
var journalSchema string

// SqliteJournal stores journal records in a sqlite database.
type SqliteJournal struct {
	db          *sql.DB
	clock       clock.Clock
	log         *slog.Logger
	locationURI string
}

// NewSqliteJournal opens the database at path and creates the schema if needed.
func NewSqliteJournal(path string, clk clock.Clock, log *slog.Logger) (*SqliteJournal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// A single writer keeps sqlite from returning SQLITE_BUSY to ourselves.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(journalSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to create schema: %w", err)
	}

	return &SqliteJournal{
		db:          db,
		clock:       clk,
		log:         log,
		locationURI: fmt.Sprintf("sqlite://%s", path),
	}, nil
}

func (j *SqliteJournal) Append(ctx context.Context, rec interfaces.JournalRecord) error {
	if rec.RecordedAt.IsZero() {
		rec.RecordedAt = j.clock.Now()
	}

	_, err := j.db.ExecContext(ctx,
		`INSERT INTO journal_records
			(invocation_id, intent, kind, asset_uuid, checkpoint, stage, detail, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.InvocationID, rec.Intent, rec.Kind, rec.AssetUUID, rec.Checkpoint,
		string(rec.Stage), rec.Detail, rec.RecordedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to insert journal record: %w", err)
	}

	j.log.Debug("Journaled checkpoint",
		slog.String("checkpoint", rec.Checkpoint),
		slog.String("stage", string(rec.Stage)))

	return nil
}

func (j *SqliteJournal) Records(ctx context.Context, intent string) ([]interfaces.JournalRecord, error) {
	query := `SELECT invocation_id, intent, kind, asset_uuid, checkpoint, stage, detail, recorded_at
		FROM journal_records`
	var args []any
	if intent != "" {
		query += ` WHERE intent = ?`
		args = append(args, intent)
	}
	query += ` ORDER BY id`

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal: %w", err)
	}
	defer rows.Close()

	var records []interfaces.JournalRecord
	for rows.Next() {
		var (
			rec        interfaces.JournalRecord
			stage      string
			recordedAt int64
		)
		err := rows.Scan(&rec.InvocationID, &rec.Intent, &rec.Kind, &rec.AssetUUID,
			&rec.Checkpoint, &stage, &rec.Detail, &recordedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to read journal record: %w", err)
		}
		rec.Stage = interfaces.JournalStage(stage)
		rec.RecordedAt = time.Unix(0, recordedAt).UTC()
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (j *SqliteJournal) LocationURI() string {
	return j.locationURI
}

func (j *SqliteJournal) Close() error {
	return j.db.Close()
}
