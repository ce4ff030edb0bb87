package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lightningnetwork/lnd/ticker"
	"github.com/ruteri/amp-confirm/interfaces"
)

const (
	DefaultConfirmInterval = 15 * time.Second
	DefaultConfirmTimeout  = 10 * time.Minute

	// RequiredConfirmations is exceeded, not reached: a transaction is confirmed
	// once it has more than this many confirmations.
	RequiredConfirmations = 1
)

// Waiter polls the node until a transaction is confirmed.
type Waiter struct {
	node     interfaces.NodeClient
	ticker   ticker.Ticker
	maxTicks int
	log      *slog.Logger
}

// NewWaiter creates a waiter that polls once immediately and then on every tick,
// giving up after maxTicks ticks.
func NewWaiter(node interfaces.NodeClient, t ticker.Ticker, maxTicks int, log *slog.Logger) *Waiter {
	return &Waiter{
		node:     node,
		ticker:   t,
		maxTicks: maxTicks,
		log:      log,
	}
}

// Wait returns the wallet transaction once it has more than one confirmation.
// It fails with ErrConfirmationTimeout when the ticks run out or ctx is done.
func (w *Waiter) Wait(ctx context.Context, txid string) (*interfaces.WalletTransaction, error) {
	w.log.Warn("Waiting for transaction to be confirmed (expected 2 minutes)", slog.String("txid", txid))

	w.ticker.Resume()
	defer w.ticker.Stop()

	ticks := 0
	for {
		tx, err := w.node.GetTransaction(ctx, txid)
		switch {
		case err != nil && ctx.Err() == nil:
			w.log.Warn("Confirmation poll failed", slog.String("txid", txid), "err", err)
		case err == nil && tx.Confirmations > RequiredConfirmations:
			w.log.Info("Transaction confirmed",
				slog.String("txid", txid),
				slog.Int64("confirmations", tx.Confirmations))
			return tx, nil
		case err == nil:
			w.log.Debug("Transaction not confirmed yet",
				slog.String("txid", txid),
				slog.Int64("confirmations", tx.Confirmations))
		}

		if ticks >= w.maxTicks {
			return nil, fmt.Errorf("%w: transaction %s after %d polls", ErrConfirmationTimeout, txid, ticks+1)
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: transaction %s: %w", ErrConfirmationTimeout, txid, ctx.Err())
		case <-w.ticker.Ticks():
			ticks++
		}
	}
}
