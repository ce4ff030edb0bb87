package workflow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ruteri/amp-confirm/action"
	"github.com/ruteri/amp-confirm/interfaces"
)

type distributeAction struct {
	req        *action.Request
	payload    action.DistributePayload
	checkpoint *action.Checkpoint
}

func (a *distributeAction) Kind() action.Kind       { return action.KindDistribute }
func (a *distributeAction) NeedsConfirmation() bool { return true }
func (a *distributeAction) endpoint() string        { return "distribution-confirm" }

func (a *distributeAction) Preflight(ctx context.Context, d *deps) error {
	return checkLostOutputs(ctx, d, a.req.AssetUUID, false)
}

func (a *distributeAction) Execute(ctx context.Context, d *deps) (*BroadcastResult, error) {
	if a.checkpoint != nil {
		return resumeTransaction(ctx, d, a.checkpoint)
	}

	if err := a.checkAssignments(ctx, d); err != nil {
		return nil, err
	}

	txid, err := d.node.SendMany(ctx, a.payload.AddressAmounts, a.payload.AddressAssets)
	if err != nil {
		return nil, fmt.Errorf("sendmany for distribution %s: %w", a.payload.DistributionUUID, err)
	}

	res := &BroadcastResult{TxID: txid}
	d.log.Info("Distribute transaction broadcast", slog.String("txid", txid))
	d.recordBroadcast(ctx, res)
	return res, nil
}

// checkAssignments reads the live assignment list. The registry is authoritative
// for whether a distribution already happened.
func (a *distributeAction) checkAssignments(ctx context.Context, d *deps) error {
	assignments, err := d.registry.GetAssignments(ctx, a.req.AssetUUID)
	if err != nil {
		return fmt.Errorf("%w: assignments request failed, distribution transaction will not be sent: %w",
			ErrRegistryUnhealthy, err)
	}

	found := false
	for _, as := range assignments {
		if as.DistributionUUID != a.payload.DistributionUUID {
			continue
		}
		found = true
		if as.IsDistributed {
			return fmt.Errorf("%w: distribution %s has already been carried out and confirmed",
				ErrAlreadyDistributed, a.payload.DistributionUUID)
		}
	}

	if !found {
		return fmt.Errorf("%w: registry has no assignment for distribution %s",
			ErrAssignmentNotFound, a.payload.DistributionUUID)
	}
	return nil
}

func (a *distributeAction) Report(ctx context.Context, d *deps, res *BroadcastResult) error {
	change, err := changeOutputs(ctx, d.node, a.req.AssetID, res.TxID)
	if err != nil {
		return err
	}

	payload := &interfaces.DistributionConfirmPayload{
		TxData: interfaces.DistributionTxData{
			Details: transactionDetails(res.Transaction),
			TxID:    res.TxID,
		},
		ChangeData: change,
	}

	d.log.Debug("Calling distribution-confirm", slog.Any("payload", payload))
	err = d.registry.ConfirmDistribution(ctx, a.req.AssetUUID, a.payload.DistributionUUID, payload)
	if err != nil {
		return err
	}

	d.log.Info("Distribution confirmed successfully", slog.String("txid", res.TxID))
	return nil
}

// resumeTransaction checks that the wallet knows the checkpointed transaction.
func resumeTransaction(ctx context.Context, d *deps, cp *action.Checkpoint) (*BroadcastResult, error) {
	tx, err := d.node.GetTransaction(ctx, cp.TxID)
	if err != nil {
		return nil, fmt.Errorf("%w: wallet does not know transaction %s: %w", ErrCheckpointNotFound, cp.TxID, err)
	}

	d.log.Info("Using existing transaction",
		slog.String("txid", cp.TxID),
		slog.Int64("confirmations", tx.Confirmations))
	return &BroadcastResult{TxID: cp.TxID, Resumed: true}, nil
}
