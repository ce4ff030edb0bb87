package node

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/ruteri/amp-confirm/interfaces"
)

const (
	DefaultMaxAttempts   = 5
	DefaultRetryInterval = 10 * time.Second
)

// Config configures a node Client.
type Config struct {
	// URL of the node, credentials in the userinfo part.
	URL string

	// TorSocksAddr is the SOCKS5 proxy used when URL is an onion address.
	TorSocksAddr string

	// MaxAttempts bounds the number of connection attempts per call.
	MaxAttempts int

	// RetryInterval is the fixed delay between connection attempts.
	RetryInterval time.Duration
}

// Client implements interfaces.NodeClient on top of the Elements JSON-RPC interface.
type Client struct {
	rpc *rpc.Client
	cfg Config
	log *slog.Logger
}

// NewClient creates a client for the node at cfg.URL. No connection is made until the
// first call.
func NewClient(ctx context.Context, cfg Config, log *slog.Logger) (*Client, error) {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = DefaultRetryInterval
	}

	endpoint, auth, err := splitCredentials(cfg.URL)
	if err != nil {
		return nil, err
	}

	httpClient, err := newHTTPClient(endpoint, cfg.TorSocksAddr)
	if err != nil {
		return nil, err
	}

	opts := []rpc.ClientOption{rpc.WithHTTPClient(httpClient)}
	if auth != nil {
		opts = append(opts, rpc.WithHTTPAuth(auth))
	}

	c, err := rpc.DialOptions(ctx, endpoint.String(), opts...)
	if err != nil {
		return nil, fmt.Errorf("could not create node client: %w", err)
	}

	log.Debug("Created node client",
		slog.String("endpoint", endpoint.Redacted()),
		slog.Bool("onion", isOnion(endpoint)))

	return &Client{rpc: c, cfg: cfg, log: log}, nil
}

// Close releases the underlying RPC client.
func (c *Client) Close() {
	c.rpc.Close()
}

func (c *Client) GetNetworkInfo(ctx context.Context) (*interfaces.NetworkInfo, error) {
	var info interfaces.NetworkInfo
	if err := c.call(ctx, false, &info, "getnetworkinfo"); err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *Client) GetBlockchainInfo(ctx context.Context) (*interfaces.BlockchainInfo, error) {
	var info interfaces.BlockchainInfo
	if err := c.call(ctx, false, &info, "getblockchaininfo"); err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *Client) SignMessage(ctx context.Context, address, message string) (string, error) {
	var signature string
	err := c.call(ctx, false, &signature, "signmessage", address, message)
	return signature, err
}

func (c *Client) ListUnspent(ctx context.Context) ([]interfaces.Unspent, error) {
	var utxos []interfaces.Unspent
	if err := c.call(ctx, false, &utxos, "listunspent"); err != nil {
		return nil, err
	}
	return utxos, nil
}

func (c *Client) GetTransaction(ctx context.Context, txid string) (*interfaces.WalletTransaction, error) {
	var tx interfaces.WalletTransaction
	if err := c.call(ctx, false, &tx, "gettransaction", txid); err != nil {
		return nil, err
	}
	return &tx, nil
}

func (c *Client) ListIssuances(ctx context.Context, assetID string) ([]interfaces.Issuance, error) {
	var issuances []interfaces.Issuance
	var err error
	if assetID == "" {
		err = c.call(ctx, false, &issuances, "listissuances")
	} else {
		err = c.call(ctx, false, &issuances, "listissuances", assetID)
	}
	if err != nil {
		return nil, err
	}
	return issuances, nil
}

func (c *Client) GetBalance(ctx context.Context) (map[string]float64, error) {
	balances := map[string]float64{}
	if err := c.call(ctx, false, &balances, "getbalance", "*", 0, false); err != nil {
		return nil, err
	}
	return balances, nil
}

func (c *Client) ReissueAsset(ctx context.Context, assetID string, amount float64) (*interfaces.ReissuanceOutput, error) {
	var out interfaces.ReissuanceOutput
	if err := c.call(ctx, true, &out, "reissueasset", assetID, amount); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SendMany(ctx context.Context, addressAmounts map[string]float64, addressAssets map[string]string) (string, error) {
	var txid string
	// sendmany "" amounts minconf comment subtractfeefrom replaceable conf_target estimate_mode output_assets
	err := c.call(ctx, true, &txid, "sendmany", "", addressAmounts, 0, "", []string{}, false, 1, "UNSET", addressAssets)
	return txid, err
}

func (c *Client) DestroyAmount(ctx context.Context, assetID string, amount float64) (string, error) {
	var txid string
	err := c.call(ctx, true, &txid, "destroyamount", assetID, amount)
	return txid, err
}

// call performs an RPC call, retrying failed connection attempts. Broadcasting calls
// are only retried when no connection was made.
func (c *Client) call(ctx context.Context, broadcasts bool, result any, method string, args ...any) error {
	attempts := 0
	operation := func() error {
		attempts++
		err := c.rpc.CallContext(ctx, result, method, args...)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil || !isRetryable(err, broadcasts) {
			return backoff.Permanent(err)
		}
		c.log.Warn("Node connection failed",
			slog.String("method", method),
			slog.Int("attempt", attempts),
			slog.Int("maxAttempts", c.cfg.MaxAttempts),
			"err", err)
		return err
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(c.cfg.RetryInterval), uint64(c.cfg.MaxAttempts-1)),
		ctx)

	err := backoff.Retry(operation, policy)
	if err == nil {
		c.log.Debug("Node call", slog.String("method", method), slog.Int("attempts", attempts))
		return nil
	}

	if broadcasts && isConnectionError(err) && !isRetryable(err, true) {
		return fmt.Errorf("%w: %s: %v", interfaces.ErrBroadcastOutcomeUnknown, method, err)
	}
	if isConnectionError(err) {
		return fmt.Errorf("%w: %s failed after %d attempts: %v", interfaces.ErrNodeUnreachable, method, attempts, err)
	}
	return translateError(method, err)
}

// isConnectionError reports whether err happened before the node produced a response.
func isConnectionError(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}

func isRetryable(err error, broadcasts bool) bool {
	if !broadcasts {
		return isConnectionError(err)
	}
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}

// translateError converts node-reported failures to *interfaces.NodeError. Elements
// answers RPC errors with HTTP 500 and the JSON-RPC error in the body.
func translateError(method string, err error) error {
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		return &interfaces.NodeError{Method: method, Code: rpcErr.ErrorCode(), Message: rpcErr.Error()}
	}

	var httpErr rpc.HTTPError
	if errors.As(err, &httpErr) {
		var body struct {
			Error *struct {
				Code    int    `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		if json.Unmarshal(httpErr.Body, &body) == nil && body.Error != nil {
			return &interfaces.NodeError{Method: method, Code: body.Error.Code, Message: body.Error.Message}
		}
		return fmt.Errorf("%s: node returned HTTP %d: %s", method, httpErr.StatusCode, string(httpErr.Body))
	}

	return fmt.Errorf("%s: %w", method, err)
}
