package action

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// ErrMalformedCheckpoint is returned for --use-existing values that are not a txid
// or txid:vin.
var ErrMalformedCheckpoint = errors.New("malformed checkpoint")

// Checkpoint identifies an already-broadcast transaction.
type Checkpoint struct {
	TxID string
	// Vin is the reissuance input index. It is only set for reissuances.
	Vin *int
}

// ParseCheckpoint parses "txid" or "txid:vin".
func ParseCheckpoint(s string) (*Checkpoint, error) {
	txid, vinStr, hasVin := strings.Cut(strings.TrimSpace(s), ":")

	if len(txid) != 2*chainhash.HashSize {
		return nil, fmt.Errorf("%w: txid %q must be %d hex characters", ErrMalformedCheckpoint, txid, 2*chainhash.HashSize)
	}
	if _, err := chainhash.NewHashFromStr(txid); err != nil {
		return nil, fmt.Errorf("%w: txid %q: %w", ErrMalformedCheckpoint, txid, err)
	}

	cp := &Checkpoint{TxID: strings.ToLower(txid)}
	if !hasVin {
		return cp, nil
	}

	vin, err := strconv.Atoi(vinStr)
	if err != nil || vin < 0 {
		return nil, fmt.Errorf("%w: vin %q is not a non-negative integer", ErrMalformedCheckpoint, vinStr)
	}
	cp.Vin = &vin
	return cp, nil
}

// String renders the checkpoint in the form accepted by ParseCheckpoint.
func (c Checkpoint) String() string {
	if c.Vin == nil {
		return c.TxID
	}
	return fmt.Sprintf("%s:%d", c.TxID, *c.Vin)
}
