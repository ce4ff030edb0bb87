package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/ruteri/amp-confirm/action"
	"github.com/ruteri/amp-confirm/interfaces"
)

// BroadcastResult identifies the transaction an action is about.
type BroadcastResult struct {
	TxID string
	// Vin is the reissuance input index, set for reissuances only.
	Vin *int
	// Transaction is the wallet view of the transaction once it is confirmed.
	Transaction *interfaces.WalletTransaction
	// Resumed is true when the transaction came from an operator-supplied checkpoint.
	Resumed bool
}

// Checkpoint returns the value to pass to --use-existing for this transaction.
func (r *BroadcastResult) Checkpoint() action.Checkpoint {
	return action.Checkpoint{TxID: r.TxID, Vin: r.Vin}
}

// Action is the kind-specific part of a run. The set of implementations is closed.
type Action interface {
	Kind() action.Kind
	// Preflight runs the checks that only apply to this kind.
	Preflight(ctx context.Context, d *deps) error
	// Execute broadcasts a new transaction, or locates the checkpointed one.
	Execute(ctx context.Context, d *deps) (*BroadcastResult, error)
	// Report tells the registry about a confirmed transaction.
	Report(ctx context.Context, d *deps, res *BroadcastResult) error
	// NeedsConfirmation is false for actions that do not broadcast.
	NeedsConfirmation() bool

	// endpoint names the registry operation Report calls.
	endpoint() string
}

// deps are the collaborators of a single run.
type deps struct {
	node        interfaces.NodeClient
	registry    interfaces.Registry
	clock       clock.Clock
	settleDelay time.Duration
	log         *slog.Logger

	// recordBroadcast is called as soon as the node accepts a fresh transaction.
	recordBroadcast func(ctx context.Context, res *BroadcastResult)
}

// NewAction returns the Action for req. A non-nil checkpoint selects the resume path.
func NewAction(req *action.Request, cp *action.Checkpoint) (Action, error) {
	switch p := req.Payload.(type) {
	case action.ReissuePayload:
		if cp != nil && cp.Vin == nil {
			return nil, fmt.Errorf("%w: a reissuance checkpoint must be TXID:VIN, got %s", ErrMalformedCheckpoint, cp)
		}
		return &reissueAction{req: req, payload: p, checkpoint: cp}, nil
	case action.DistributePayload:
		if err := requireBareTxID(req.Kind, cp); err != nil {
			return nil, err
		}
		return &distributeAction{req: req, payload: p, checkpoint: cp}, nil
	case action.BurnPayload:
		if err := requireBareTxID(req.Kind, cp); err != nil {
			return nil, err
		}
		return &burnAction{req: req, payload: p, checkpoint: cp}, nil
	case action.UpdateBlindersPayload:
		if cp != nil {
			return nil, fmt.Errorf("%w: %s does not take a checkpoint", ErrMalformedCheckpoint, req.Kind)
		}
		return &updateBlindersAction{req: req}, nil
	default:
		return nil, fmt.Errorf("unsupported payload %T for %s", req.Payload, req.Kind)
	}
}

func requireBareTxID(kind action.Kind, cp *action.Checkpoint) error {
	if cp != nil && cp.Vin != nil {
		return fmt.Errorf("%w: a %s checkpoint must be a bare TXID, got %s", ErrMalformedCheckpoint, kind, cp)
	}
	return nil
}
