package interfaces

import (
	"context"
	"errors"
	"time"
)

// JournalStage marks how far a journaled action got.
type JournalStage string

const (
	StageBroadcast           JournalStage = "broadcast"
	StageOutcomeUnknown      JournalStage = "outcome_unknown"
	StageConfirmed           JournalStage = "confirmed"
	StageConfirmationTimeout JournalStage = "confirmation_timeout"
	StageReported            JournalStage = "reported"
	StageReportFailed        JournalStage = "report_failed"
)

// JournalRecord is one append-only entry of the checkpoint journal.
type JournalRecord struct {
	InvocationID string       `json:"invocation_id"`
	Intent       string       `json:"intent"`
	Kind         string       `json:"kind"`
	AssetUUID    string       `json:"asset_uuid"`
	Checkpoint   string       `json:"checkpoint"`
	Stage        JournalStage `json:"stage"`
	Detail       string       `json:"detail,omitempty"`
	RecordedAt   time.Time    `json:"recorded_at"`
}

// CheckpointJournal persists resumption checkpoints locally.
//
// Records are never rewritten. The journal only ever makes the workflow more
// conservative: it can block a fresh broadcast, never trigger one.
type CheckpointJournal interface {
	// Append durably stores a record.
	Append(ctx context.Context, rec JournalRecord) error
	// Records returns all records for intent in append order, or every record
	// when intent is empty.
	Records(ctx context.Context, intent string) ([]JournalRecord, error)
	// LocationURI returns the URI that identifies this journal.
	LocationURI() string
	Close() error
}

var (
	// ErrInvalidJournalURI is returned when a journal location cannot be parsed.
	ErrInvalidJournalURI = errors.New("invalid journal location URI")

	// ErrJournalClosed is returned when a closed journal is used.
	ErrJournalClosed = errors.New("journal closed")
)
