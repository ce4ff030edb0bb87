package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/ruteri/amp-confirm/interfaces"
)

// checkUTXOs requires the wallet to hold the declared outputs: all of them, or at
// least one when requireAll is false.
func checkUTXOs(ctx context.Context, node interfaces.NodeClient, expected []interfaces.Outpoint, requireAll bool) error {
	utxos, err := node.ListUnspent(ctx)
	if err != nil {
		return err
	}

	local := make(map[interfaces.Outpoint]struct{}, len(utxos))
	for _, u := range utxos {
		local[u.Outpoint()] = struct{}{}
	}

	var missing []string
	for _, o := range expected {
		if _, ok := local[o]; !ok {
			missing = append(missing, fmt.Sprintf("%s:%d", o.TxID, o.Vout))
		}
	}

	found := len(expected) - len(missing)
	if found == 0 || (requireAll && len(missing) > 0) {
		return fmt.Errorf("%w: %d of %d declared outputs in wallet, missing [%s]",
			ErrResourceMissing, found, len(expected), strings.Join(missing, " "))
	}
	return nil
}

// changeOutputs returns the wallet's unspent outputs of assetID created by txid.
func changeOutputs(ctx context.Context, node interfaces.NodeClient, assetID, txid string) ([]interfaces.Unspent, error) {
	utxos, err := node.ListUnspent(ctx)
	if err != nil {
		return nil, err
	}

	change := []interfaces.Unspent{}
	for _, u := range utxos {
		if u.Asset == assetID && u.TxID == txid {
			change = append(change, u)
		}
	}
	return change, nil
}

func transactionDetails(tx *interfaces.WalletTransaction) []interfaces.TxDetail {
	if tx == nil || tx.Details == nil {
		return []interfaces.TxDetail{}
	}
	return tx.Details
}
