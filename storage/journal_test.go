package storage

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/ruteri/amp-confirm/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJournal(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	dir := t.TempDir()

	tests := []struct {
		name      string
		uri       string
		wantURI   string
		wantError bool
	}{
		{name: "disabled", uri: "", wantURI: DisabledURI},
		{name: "none", uri: "none", wantURI: DisabledURI},
		{name: "file", uri: "file://" + filepath.Join(dir, "a", "journal.jsonl"), wantURI: "file://" + filepath.Join(dir, "a", "journal.jsonl")},
		{name: "sqlite", uri: "sqlite://" + filepath.Join(dir, "journal.db"), wantURI: "sqlite://" + filepath.Join(dir, "journal.db")},
		{name: "unsupported scheme", uri: "s3://bucket/journal", wantError: true},
		{name: "empty path", uri: "file://", wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			j, err := NewJournal(tt.uri, clock.NewMock(), logger)
			if tt.wantError {
				assert.ErrorIs(t, err, interfaces.ErrInvalidJournalURI)
				return
			}
			require.NoError(t, err)
			defer j.Close()
			assert.Equal(t, tt.wantURI, j.LocationURI())
		})
	}
}

func journalBackends(t *testing.T, clk clock.Clock) map[string]func() interfaces.CheckpointJournal {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return map[string]func() interfaces.CheckpointJournal{
		"file": func() interfaces.CheckpointJournal {
			j, err := NewFileJournal(filepath.Join(t.TempDir(), "journal.jsonl"), clk, logger)
			require.NoError(t, err)
			return j
		},
		"sqlite": func() interfaces.CheckpointJournal {
			j, err := NewSqliteJournal(filepath.Join(t.TempDir(), "journal.db"), clk, logger)
			require.NoError(t, err)
			return j
		},
	}
}

func TestJournal_AppendAndRecords(t *testing.T) {
	clk := clock.NewMock()
	clk.Set(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))

	for name, open := range journalBackends(t, clk) {
		t.Run(name, func(t *testing.T) {
			j := open()
			defer j.Close()
			ctx := context.Background()

			require.NoError(t, j.Append(ctx, interfaces.JournalRecord{
				InvocationID: "inv-1", Intent: "intent-a", Kind: "distribute",
				AssetUUID: "asset", Checkpoint: "abc", Stage: interfaces.StageBroadcast,
			}))
			require.NoError(t, j.Append(ctx, interfaces.JournalRecord{
				InvocationID: "inv-2", Intent: "intent-b", Kind: "burn",
				AssetUUID: "asset", Checkpoint: "def", Stage: interfaces.StageBroadcast,
			}))
			require.NoError(t, j.Append(ctx, interfaces.JournalRecord{
				InvocationID: "inv-1", Intent: "intent-a", Kind: "distribute",
				AssetUUID: "asset", Checkpoint: "abc", Stage: interfaces.StageReportFailed,
				Detail: "registry returned error 500",
			}))

			records, err := j.Records(ctx, "intent-a")
			require.NoError(t, err)
			require.Len(t, records, 2)
			assert.Equal(t, interfaces.StageBroadcast, records[0].Stage)
			assert.Equal(t, interfaces.StageReportFailed, records[1].Stage)
			assert.Equal(t, "registry returned error 500", records[1].Detail)
			assert.True(t, clk.Now().Equal(records[0].RecordedAt))

			all, err := j.Records(ctx, "")
			require.NoError(t, err)
			assert.Len(t, all, 3)

			none, err := j.Records(ctx, "intent-c")
			require.NoError(t, err)
			assert.Empty(t, none)
		})
	}
}

func TestFileJournal_SurvivesReopenAndTornLine(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	path := filepath.Join(t.TempDir(), "journal.jsonl")
	ctx := context.Background()

	j, err := NewFileJournal(path, clock.NewMock(), logger)
	require.NoError(t, err)
	require.NoError(t, j.Append(ctx, interfaces.JournalRecord{Intent: "i", Checkpoint: "abc", Stage: interfaces.StageBroadcast}))
	require.NoError(t, j.Close())

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o600)
	require.NoError(t, err)
	_, err = f.WriteString(`{"intent":"i","checkp`)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	j, err = NewFileJournal(path, clock.NewMock(), logger)
	require.NoError(t, err)
	defer j.Close()

	records, err := j.Records(ctx, "i")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "abc", records[0].Checkpoint)

	require.NoError(t, j.Close())
	assert.ErrorIs(t, j.Append(ctx, interfaces.JournalRecord{}), interfaces.ErrJournalClosed)
}

func TestUnresolved(t *testing.T) {
	rec := func(cp string, stage interfaces.JournalStage) interfaces.JournalRecord {
		return interfaces.JournalRecord{Checkpoint: cp, Stage: stage}
	}

	tests := []struct {
		name    string
		records []interfaces.JournalRecord
		want    string
	}{
		{name: "empty"},
		{
			name:    "broadcast only",
			records: []interfaces.JournalRecord{rec("a", interfaces.StageBroadcast)},
			want:    "a",
		},
		{
			name: "reported",
			records: []interfaces.JournalRecord{
				rec("a", interfaces.StageBroadcast),
				rec("a", interfaces.StageConfirmed),
				rec("a", interfaces.StageReported),
			},
		},
		{
			name: "report failed after retry",
			records: []interfaces.JournalRecord{
				rec("a", interfaces.StageBroadcast),
				rec("a", interfaces.StageReportFailed),
				rec("a", interfaces.StageReportFailed),
			},
			want: "a",
		},
		{
			name: "new broadcast after a reported one",
			records: []interfaces.JournalRecord{
				rec("a", interfaces.StageBroadcast),
				rec("a", interfaces.StageReported),
				rec("b", interfaces.StageBroadcast),
				rec("b", interfaces.StageConfirmationTimeout),
			},
			want: "b",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Unresolved(tt.records)
			if tt.want == "" {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.Checkpoint)
		})
	}
}

func TestUnresolved_OutcomeUnknown(t *testing.T) {
	records := []interfaces.JournalRecord{
		{Checkpoint: "a", Stage: interfaces.StageBroadcast},
		{Checkpoint: "a", Stage: interfaces.StageReported},
		{Stage: interfaces.StageOutcomeUnknown},
	}

	got := Unresolved(records)
	require.NotNil(t, got)
	assert.Equal(t, interfaces.StageOutcomeUnknown, got.Stage)
	assert.Empty(t, got.Checkpoint)
}
