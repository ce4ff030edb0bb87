package workflow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ruteri/amp-confirm/action"
	"github.com/ruteri/amp-confirm/interfaces"
)

// updateBlindersAction sends the registry the blinding factors of issuance outputs
// it only knows as zeros. It never broadcasts.
type updateBlindersAction struct {
	req     *action.Request
	updates []interfaces.BlinderUpdate
}

func (a *updateBlindersAction) Kind() action.Kind       { return action.KindUpdateBlinders }
func (a *updateBlindersAction) NeedsConfirmation() bool { return false }
func (a *updateBlindersAction) endpoint() string        { return "update-blinders" }

func (a *updateBlindersAction) Preflight(context.Context, *deps) error {
	return nil
}

func (a *updateBlindersAction) Execute(ctx context.Context, d *deps) (*BroadcastResult, error) {
	txs, err := d.registry.GetAssetTransactions(ctx, a.req.AssetUUID)
	if err != nil {
		return nil, fmt.Errorf("%w: transaction list request failed, blinders will not be updated: %w",
			ErrRegistryUnhealthy, err)
	}
	if len(txs) == 0 {
		return nil, fmt.Errorf("%w: registry lists no transactions for asset %s", ErrNothingToUpdate, a.req.AssetUUID)
	}

	issuance := txs[0]
	missing := make(map[uint32]bool)
	for _, o := range issuance.Outputs {
		if o.AssetBlinder == interfaces.ZeroBlinder {
			missing[o.Vout] = true
		}
	}

	tx, err := d.node.GetTransaction(ctx, issuance.TxID)
	if err != nil {
		return nil, fmt.Errorf("issuance transaction %s: %w", issuance.TxID, err)
	}

	for _, detail := range tx.Details {
		if !missing[detail.Vout] {
			continue
		}
		// a vout may appear in several details (send and receive)
		delete(missing, detail.Vout)
		a.updates = append(a.updates, interfaces.BlinderUpdate{
			TxID:          issuance.TxID,
			Vout:          detail.Vout,
			AssetBlinder:  detail.AssetBlinder,
			AmountBlinder: detail.AmountBlinder,
		})
	}

	if len(a.updates) == 0 {
		return nil, fmt.Errorf("%w: blinders of issuance %s are already present in the registry",
			ErrNothingToUpdate, issuance.TxID)
	}

	d.log.Info("Found outputs with missing blinders",
		slog.String("txid", issuance.TxID),
		slog.Int("outputs", len(a.updates)))
	return &BroadcastResult{TxID: issuance.TxID, Transaction: tx}, nil
}

func (a *updateBlindersAction) Report(ctx context.Context, d *deps, res *BroadcastResult) error {
	for i := range a.updates {
		update := &a.updates[i]
		if err := d.registry.UpdateBlinders(ctx, a.req.AssetUUID, update); err != nil {
			return fmt.Errorf("output %s:%d: %w", update.TxID, update.Vout, err)
		}
		d.log.Debug("Updated blinders", slog.String("txid", update.TxID), slog.Any("vout", update.Vout))
	}

	d.log.Info("update-blinders confirmed successfully", slog.Int("outputs", len(a.updates)))
	return nil
}
