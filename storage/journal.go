package storage

import (
	"context"

	"github.com/ruteri/amp-confirm/interfaces"
)

// Unresolved returns the most recent record of a broadcast that was never reported,
// or nil. An outcome_unknown record has no checkpoint. Records must belong to one intent and be in append order.
func Unresolved(records []interfaces.JournalRecord) *interfaces.JournalRecord {
	for i := len(records) - 1; i >= 0; i-- {
		switch records[i].Stage {
		case interfaces.StageReported:
			return nil
		case interfaces.StageBroadcast, interfaces.StageOutcomeUnknown, interfaces.StageConfirmed,
			interfaces.StageConfirmationTimeout, interfaces.StageReportFailed:
			rec := records[i]
			return &rec
		}
	}
	return nil
}

type disabledJournal struct{}

func (disabledJournal) Append(context.Context, interfaces.JournalRecord) error { return nil }

func (disabledJournal) Records(context.Context, string) ([]interfaces.JournalRecord, error) {
	return nil, nil
}

func (disabledJournal) LocationURI() string { return DisabledURI }

func (disabledJournal) Close() error { return nil }
