package workflow

import (
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/lightningnetwork/lnd/ticker"
	"github.com/ruteri/amp-confirm/action"
	"github.com/ruteri/amp-confirm/interfaces"
	"github.com/ruteri/amp-confirm/node"
	"github.com/ruteri/amp-confirm/registry"
	"github.com/stretchr/testify/mock"
)

const testAssetUUID = "7a0b9f3e-1c2d-4e5f-8a9b-0c1d2e3f4a5b"

var (
	testAssetID = strings.Repeat("cd", 32)
	txA         = strings.Repeat("ab", 32)
	txB         = strings.Repeat("12", 32)
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testRequest(kind action.Kind, payload action.Payload) *action.Request {
	return &action.Request{
		Kind:             kind,
		Declared:         string(kind),
		MinClientVersion: 2,
		BaseURL:          "https://amp.example.org/api/{}",
		AssetUUID:        testAssetUUID,
		AssetID:          testAssetID,
		Payload:          payload,
		Intent:           "intent-" + string(kind),
	}
}

// healthyNode passes every preflight check.
func healthyNode() *node.MockClient {
	n := &node.MockClient{}
	n.On("GetNetworkInfo", mock.Anything).
		Return(&interfaces.NetworkInfo{Version: 210000, Subversion: "/Elements Core:21.0.0/"}, nil)
	n.On("GetBlockchainInfo", mock.Anything).
		Return(&interfaces.BlockchainInfo{Chain: "liquidv1", VerificationProgress: 1}, nil)
	n.On("SignMessage", mock.Anything, "invalidaddress", "message").
		Return("", &interfaces.NodeError{Method: "signmessage", Code: interfaces.RPCInvalidAddress, Message: "Invalid address"})
	return n
}

// healthyRegistry reports no lost outputs.
func healthyRegistry() *registry.MockRegistry {
	reg := &registry.MockRegistry{}
	reg.On("GetLostOutputs", mock.Anything, testAssetUUID).Return(&interfaces.LostOutputs{}, nil)
	return reg
}

func confirmedTx(txid string, confirmations int64) *interfaces.WalletTransaction {
	return &interfaces.WalletTransaction{
		TxID:          txid,
		Confirmations: confirmations,
		Details: []interfaces.TxDetail{
			{Category: "send", Amount: -1, Asset: testAssetID, Vout: 0},
		},
	}
}

var testArgs = []string{"ampconfirm", "-u", "alice", "-p", "secret", "distribute", "-f", "distribute.json"}

func newTestRunner(n interfaces.NodeClient, reg interfaces.Registry, journal interfaces.CheckpointJournal) *Runner {
	factory := &registry.MockFactory{}
	factory.On("RegistryFor", mock.Anything, mock.Anything).Return(reg, nil)

	r := NewRunner(n, factory, journal, clock.NewMock(), Config{
		ConfirmInterval: time.Hour,
		ConfirmTimeout:  2 * time.Hour,
		Args:            testArgs,
	}, discardLogger())
	r.NewTicker = func(interval time.Duration) ticker.Ticker {
		return ticker.NewForce(interval)
	}
	return r
}
