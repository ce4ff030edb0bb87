package workflow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ruteri/amp-confirm/action"
	"github.com/ruteri/amp-confirm/interfaces"
)

type reissueAction struct {
	req        *action.Request
	payload    action.ReissuePayload
	checkpoint *action.Checkpoint
}

func (a *reissueAction) Kind() action.Kind       { return action.KindReissue }
func (a *reissueAction) NeedsConfirmation() bool { return true }
func (a *reissueAction) endpoint() string        { return "reissue-confirm" }

func (a *reissueAction) Preflight(ctx context.Context, d *deps) error {
	return checkLostOutputs(ctx, d, a.req.AssetUUID, true)
}

func (a *reissueAction) Execute(ctx context.Context, d *deps) (*BroadcastResult, error) {
	if a.checkpoint != nil {
		return a.resume(ctx, d)
	}

	if err := checkUTXOs(ctx, d.node, a.payload.UTXOs, !a.payload.SplitReissuanceToken); err != nil {
		return nil, fmt.Errorf("reissuance token check for asset %s: %w", a.req.AssetID, err)
	}

	out, err := d.node.ReissueAsset(ctx, a.req.AssetID, a.payload.Amount)
	if err != nil {
		return nil, fmt.Errorf("reissueasset %s: %w", a.req.AssetID, err)
	}

	vin := out.Vin
	res := &BroadcastResult{TxID: out.TxID, Vin: &vin}
	d.log.Info("Reissuance transaction broadcast", slog.String("txid", res.TxID), slog.Int("vin", vin))
	d.recordBroadcast(ctx, res)
	return res, nil
}

func (a *reissueAction) resume(ctx context.Context, d *deps) (*BroadcastResult, error) {
	issuances, err := d.node.ListIssuances(ctx, a.req.AssetID)
	if err != nil {
		return nil, err
	}

	vin := *a.checkpoint.Vin
	for _, i := range issuances {
		if i.IsReissuance && i.TxID == a.checkpoint.TxID && i.Vin == vin {
			d.log.Info("Using existing reissuance", slog.String("txid", i.TxID), slog.Int("vin", vin))
			return &BroadcastResult{TxID: i.TxID, Vin: &vin, Resumed: true}, nil
		}
	}

	return nil, fmt.Errorf("%w: outpoint %s is not associated with a reissuance of %s",
		ErrCheckpointNotFound, a.checkpoint, a.req.AssetID)
}

func (a *reissueAction) Report(ctx context.Context, d *deps, res *BroadcastResult) error {
	all, err := d.node.ListIssuances(ctx, "")
	if err != nil {
		return err
	}

	issuances := []interfaces.Issuance{}
	for _, i := range all {
		if i.TxID == res.TxID {
			issuances = append(issuances, i)
		}
	}

	payload := &interfaces.ReissueConfirmPayload{
		Details:          transactionDetails(res.Transaction),
		ReissuanceOutput: interfaces.ReissuanceOutput{TxID: res.TxID, Vin: *res.Vin},
		ListIssuances:    issuances,
	}

	d.log.Debug("Calling reissue-confirm", slog.Any("payload", payload))
	if err := d.registry.ConfirmReissue(ctx, a.req.AssetUUID, payload); err != nil {
		return err
	}

	d.log.Info("Reissuance confirmed successfully", slog.String("txid", res.TxID))
	return nil
}
