package workflow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/ruteri/amp-confirm/action"
	"github.com/ruteri/amp-confirm/interfaces"
)

type burnAction struct {
	req        *action.Request
	payload    action.BurnPayload
	checkpoint *action.Checkpoint
}

func (a *burnAction) Kind() action.Kind       { return action.KindBurn }
func (a *burnAction) NeedsConfirmation() bool { return true }
func (a *burnAction) endpoint() string        { return "burn-confirm" }

func (a *burnAction) Preflight(ctx context.Context, d *deps) error {
	return checkLostOutputs(ctx, d, a.req.AssetUUID, false)
}

func (a *burnAction) Execute(ctx context.Context, d *deps) (*BroadcastResult, error) {
	if a.checkpoint != nil {
		return resumeTransaction(ctx, d, a.checkpoint)
	}

	if err := checkUTXOs(ctx, d.node, a.payload.UTXOs, true); err != nil {
		return nil, fmt.Errorf("burn of asset %s: %w", a.req.AssetID, err)
	}
	if err := a.checkBalance(ctx, d); err != nil {
		return nil, err
	}

	txid, err := d.node.DestroyAmount(ctx, a.req.AssetID, a.payload.Amount)
	if err != nil {
		return nil, fmt.Errorf("destroyamount %s: %w", a.req.AssetID, err)
	}

	res := &BroadcastResult{TxID: txid}
	d.log.Info("Burn transaction broadcast", slog.String("txid", txid))
	d.recordBroadcast(ctx, res)
	return res, nil
}

// checkBalance compares the wallet balance with the burn amount in satoshis.
func (a *burnAction) checkBalance(ctx context.Context, d *deps) error {
	balances, err := d.node.GetBalance(ctx)
	if err != nil {
		return err
	}

	have, err := btcutil.NewAmount(balances[a.req.AssetID])
	if err != nil {
		return fmt.Errorf("invalid balance for asset %s: %w", a.req.AssetID, err)
	}
	want, err := btcutil.NewAmount(a.payload.Amount)
	if err != nil {
		return fmt.Errorf("invalid burn amount: %w", err)
	}

	if have < want {
		return fmt.Errorf("%w: wallet holds %.8f of asset %s, burn requires %.8f",
			ErrInsufficientBalance, have.ToBTC(), a.req.AssetID, want.ToBTC())
	}
	return nil
}

func (a *burnAction) Report(ctx context.Context, d *deps, res *BroadcastResult) error {
	change, err := changeOutputs(ctx, d.node, a.req.AssetID, res.TxID)
	if err != nil {
		return err
	}

	payload := &interfaces.BurnConfirmPayload{
		TxData:     interfaces.BurnTxData{TxID: res.TxID},
		ChangeData: change,
	}

	d.log.Debug("Calling burn-confirm", slog.Any("payload", payload))
	if err := d.registry.ConfirmBurn(ctx, a.req.AssetUUID, payload); err != nil {
		return err
	}

	d.log.Info("Burn confirmed successfully", slog.String("txid", res.TxID))
	return nil
}
