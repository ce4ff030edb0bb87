package interfaces

import (
	"context"
	"errors"
	"fmt"
)

// NodeClient is the subset of the Elements RPC interface the workflow relies on.
type NodeClient interface {
	// GetNetworkInfo returns the node implementation and version (getnetworkinfo).
	GetNetworkInfo(ctx context.Context) (*NetworkInfo, error)
	// GetBlockchainInfo returns sync status (getblockchaininfo).
	GetBlockchainInfo(ctx context.Context) (*BlockchainInfo, error)
	// SignMessage signs message with the key of address (signmessage).
	// The workflow only uses it as a locked-wallet probe.
	SignMessage(ctx context.Context, address, message string) (string, error)

	// ListUnspent returns the wallet's unspent outputs (listunspent).
	ListUnspent(ctx context.Context) ([]Unspent, error)
	// GetTransaction returns a wallet transaction (gettransaction).
	GetTransaction(ctx context.Context, txid string) (*WalletTransaction, error)
	// ListIssuances returns wallet issuances, filtered by asset when assetID is not empty.
	ListIssuances(ctx context.Context, assetID string) ([]Issuance, error)
	// GetBalance returns the wallet balance per asset (getbalance "*" 0 false).
	GetBalance(ctx context.Context) (map[string]float64, error)

	// ReissueAsset broadcasts a reissuance of assetID (reissueasset).
	ReissueAsset(ctx context.Context, assetID string, amount float64) (*ReissuanceOutput, error)
	// SendMany broadcasts a multi-output payment (sendmany) and returns its txid.
	SendMany(ctx context.Context, addressAmounts map[string]float64, addressAssets map[string]string) (string, error)
	// DestroyAmount broadcasts a burn of assetID (destroyamount) and returns its txid.
	DestroyAmount(ctx context.Context, assetID string, amount float64) (string, error)
}

// ErrNodeUnreachable is returned when the node could not be reached after the
// transport's bounded retries.
var ErrNodeUnreachable = errors.New("node unreachable")

// ErrBroadcastOutcomeUnknown is returned when the connection failed after a
// broadcasting request was sent. The node may or may not have broadcast the
// transaction; the wallet must be inspected before trying again.
var ErrBroadcastOutcomeUnknown = errors.New("connection lost after broadcast request was sent, check the wallet for a new transaction before retrying")

// NodeError is an error reported by the node itself, as opposed to a transport failure.
type NodeError struct {
	Method  string
	Code    int
	Message string
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("%s: node returned error %d: %s", e.Method, e.Code, e.Message)
}

// RPC error codes returned by Elements (inherited from Bitcoin Core).
const (
	RPCMethodNotFound     = -32601
	RPCInvalidAddress     = -5
	RPCWalletUnlockNeeded = -13
)
