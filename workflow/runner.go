package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/lightningnetwork/lnd/ticker"
	"github.com/ruteri/amp-confirm/action"
	"github.com/ruteri/amp-confirm/interfaces"
	"github.com/ruteri/amp-confirm/storage"
)

// Config tunes a Runner.
type Config struct {
	SettleDelay     time.Duration
	ConfirmInterval time.Duration
	ConfirmTimeout  time.Duration

	// IgnoreJournal skips the unresolved-broadcast guard.
	IgnoreJournal bool

	// Args is the invocation used to build recovery commands.
	Args []string
}

// DefaultConfig returns the production timings.
func DefaultConfig() Config {
	return Config{
		SettleDelay:     DefaultSettleDelay,
		ConfirmInterval: DefaultConfirmInterval,
		ConfirmTimeout:  DefaultConfirmTimeout,
	}
}

// Validate rejects timings the confirmation waiter cannot run with.
func (c Config) Validate() error {
	if c.ConfirmInterval <= 0 {
		return fmt.Errorf("%w: confirmation interval must be positive, got %s", ErrInvalidConfig, c.ConfirmInterval)
	}
	if c.ConfirmTimeout < 0 {
		return fmt.Errorf("%w: confirmation timeout must not be negative, got %s", ErrInvalidConfig, c.ConfirmTimeout)
	}
	return nil
}

// Runner drives one action through preflight, execution, confirmation and report.
type Runner struct {
	node       interfaces.NodeClient
	registries interfaces.RegistryFactory
	journal    interfaces.CheckpointJournal
	clock      clock.Clock
	cfg        Config
	log        *slog.Logger

	// NewTicker creates the confirmation poll ticker.
	NewTicker func(interval time.Duration) ticker.Ticker
	// InvocationID identifies this run in the journal.
	InvocationID string
}

// NewRunner creates a runner. journal may be nil to disable journaling.
func NewRunner(node interfaces.NodeClient, registries interfaces.RegistryFactory, journal interfaces.CheckpointJournal,
	clk clock.Clock, cfg Config, log *slog.Logger,
) *Runner {
	return &Runner{
		node:       node,
		registries: registries,
		journal:    journal,
		clock:      clk,
		cfg:        cfg,
		log:        log,
		NewTicker: func(interval time.Duration) ticker.Ticker {
			return ticker.New(interval)
		},
		InvocationID: uuid.NewString(),
	}
}

// Run performs req. A non-nil checkpoint resumes an earlier broadcast instead of
// creating a new transaction.
func (r *Runner) Run(ctx context.Context, req *action.Request, cp *action.Checkpoint) (*BroadcastResult, error) {
	if err := r.cfg.Validate(); err != nil {
		return nil, err
	}

	act, err := NewAction(req, cp)
	if err != nil {
		return nil, err
	}

	log := r.log.With(
		slog.String("action", string(req.Kind)),
		slog.String("assetUUID", req.AssetUUID))

	preflight := &Preflight{Node: r.node, Registries: r.registries, Log: log}
	reg, err := preflight.Run(ctx, req)
	if err != nil {
		return nil, err
	}

	d := &deps{
		node:        r.node,
		registry:    reg,
		clock:       r.clock,
		settleDelay: r.cfg.SettleDelay,
		log:         log,
		recordBroadcast: func(ctx context.Context, res *BroadcastResult) {
			r.record(ctx, req, res, interfaces.StageBroadcast, "")
		},
	}

	if err := act.Preflight(ctx, d); err != nil {
		return nil, err
	}
	if cp == nil && req.Kind != action.KindUpdateBlinders {
		if err := r.checkJournal(ctx, req); err != nil {
			return nil, err
		}
	}

	res, err := act.Execute(ctx, d)
	if err != nil {
		if errors.Is(err, ErrBroadcastOutcomeUnknown) {
			r.record(ctx, req, nil, interfaces.StageOutcomeUnknown, err.Error())
			log.Error("The connection to the node was lost while sending the transaction. "+
				"Check the wallet for a new transaction before running this command again, "+
				"and resume with --use-existing if one was sent.", "err", err)
		}
		return nil, err
	}

	if act.NeedsConfirmation() {
		waiter := NewWaiter(r.node, r.NewTicker(r.cfg.ConfirmInterval), r.maxTicks(), log)
		tx, err := waiter.Wait(ctx, res.TxID)
		if err != nil {
			r.record(ctx, req, res, interfaces.StageConfirmationTimeout, err.Error())
			return res, r.recoveryError(act, req, res, err)
		}
		res.Transaction = tx
		r.record(ctx, req, res, interfaces.StageConfirmed, "")
	}

	if err := act.Report(ctx, d, res); err != nil {
		reportErr := fmt.Errorf("%w: %s for transaction %s: %w", ErrReportFailed, act.endpoint(), res.Checkpoint(), err)
		r.record(ctx, req, res, interfaces.StageReportFailed, err.Error())
		return res, r.recoveryError(act, req, res, reportErr)
	}

	r.record(ctx, req, res, interfaces.StageReported, "")
	return res, nil
}

func (r *Runner) maxTicks() int {
	return int(r.cfg.ConfirmTimeout / r.cfg.ConfirmInterval)
}

// checkJournal refuses a fresh broadcast while an earlier one for the same
// action file is unresolved.
func (r *Runner) checkJournal(ctx context.Context, req *action.Request) error {
	if r.journal == nil || r.cfg.IgnoreJournal {
		return nil
	}

	records, err := r.journal.Records(ctx, req.Intent)
	if err != nil {
		r.log.Error("Could not read checkpoint journal", "err", err, slog.String("journal", r.journal.LocationURI()))
		return nil
	}

	rec := storage.Unresolved(records)
	switch {
	case rec == nil:
		return nil
	case rec.Checkpoint == "":
		return fmt.Errorf("%w: the connection to the node was lost while a transaction for this action file was sent at %s; "+
			"check the wallet and run again with \"--use-existing TXID\" if it was sent, or with --ignore-journal if it was not",
			ErrUnresolvedBroadcast, rec.RecordedAt.Format(time.RFC3339))
	default:
		return fmt.Errorf("%w: transaction %s was broadcast for this action file at %s and its last state is %q; "+
			"run again with \"--use-existing %s\", or with --ignore-journal if it was resolved elsewhere",
			ErrUnresolvedBroadcast, rec.Checkpoint, rec.RecordedAt.Format(time.RFC3339), rec.Stage, rec.Checkpoint)
	}
}

// record appends to the journal. res is nil when no txid is known. Failures are
// logged and never abort the run.
func (r *Runner) record(ctx context.Context, req *action.Request, res *BroadcastResult, stage interfaces.JournalStage, detail string) {
	if r.journal == nil || req.Kind == action.KindUpdateBlinders {
		return
	}

	checkpoint := ""
	if res != nil {
		checkpoint = res.Checkpoint().String()
	}

	rec := interfaces.JournalRecord{
		InvocationID: r.InvocationID,
		Intent:       req.Intent,
		Kind:         string(req.Kind),
		AssetUUID:    req.AssetUUID,
		Checkpoint:   checkpoint,
		Stage:        stage,
		Detail:       detail,
		RecordedAt:   r.clock.Now(),
	}

	// the journal must outlive a cancelled run
	if err := r.journal.Append(context.WithoutCancel(ctx), rec); err != nil {
		r.log.Error("Failed to journal checkpoint",
			"err", err,
			slog.String("checkpoint", rec.Checkpoint),
			slog.String("stage", string(stage)))
	}
}

func (r *Runner) recoveryError(act Action, req *action.Request, res *BroadcastResult, err error) error {
	var cp *action.Checkpoint
	checkpoint := ""
	if act.NeedsConfirmation() {
		c := res.Checkpoint()
		cp = &c
		checkpoint = c.String()
	}

	args := r.cfg.Args
	if len(args) == 0 {
		args = []string{"ampconfirm", string(req.Kind)}
	}

	return &RecoveryError{
		Kind:       act.Kind(),
		Endpoint:   act.endpoint(),
		Checkpoint: cp,
		Command:    RecoveryCommand(args, checkpoint),
		Err:        err,
	}
}
