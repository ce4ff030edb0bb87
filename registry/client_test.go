package registry

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/ruteri/amp-confirm/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAssetUUID = "0b3f1c4e-8a51-4b0e-9f3e-6c0d1a2b3c4d"

func newTestServer(t *testing.T) (*MockServer, *Factory) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := NewMockServer("alice", "hunter2", logger)
	t.Cleanup(srv.Close)
	return srv, NewFactory("alice", "hunter2", srv.Client(), logger)
}

func TestClient_Endpoint(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name    string
		baseURL string
		path    string
		want    string
	}{
		{
			name:    "template",
			baseURL: "https://amp.blockstream.com/api/{}",
			path:    "assets/x/txs",
			want:    "https://amp.blockstream.com/api/assets/x/txs",
		},
		{
			name:    "prefix with slash",
			baseURL: "https://amp.example.org/api/",
			path:    "user/obtain_token",
			want:    "https://amp.example.org/api/user/obtain_token",
		},
		{
			name:    "prefix without slash",
			baseURL: "https://amp.example.org/api",
			path:    "user/obtain_token",
			want:    "https://amp.example.org/api/user/obtain_token",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClient(tt.baseURL, nil, logger)
			assert.Equal(t, tt.want, c.Endpoint(tt.path))
		})
	}
}

func TestFactory_Login(t *testing.T) {
	srv, factory := newTestServer(t)

	reg, err := factory.RegistryFor(context.Background(), srv.BaseURL())
	require.NoError(t, err)
	require.NotNil(t, reg)

	bad := NewFactory("alice", "wrong", srv.Client(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	_, err = bad.RegistryFor(context.Background(), srv.BaseURL())
	require.Error(t, err)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusBadRequest, statusErr.StatusCode)
	assert.Equal(t, "user/obtain_token", statusErr.Endpoint)
}

func TestClient_RequiresLogin(t *testing.T) {
	srv, _ := newTestServer(t)
	srv.AddAsset(testAssetUUID)

	c := NewClient(srv.BaseURL(), srv.Client(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	_, err := c.GetLostOutputs(context.Background(), testAssetUUID)
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestClient_Reads(t *testing.T) {
	srv, factory := newTestServer(t)
	srv.SetLostOutputs(testAssetUUID, &interfaces.LostOutputs{
		LostOutputs: []interfaces.Outpoint{{TxID: "aa", Vout: 1}},
	})
	srv.SetAssignments(testAssetUUID, []interfaces.Assignment{
		{ID: 1, Amount: 10, DistributionUUID: "D1"},
		{ID: 2, Amount: 5},
	})
	srv.SetAssetTransactions(testAssetUUID, []interfaces.AssetTransaction{
		{TxID: "issuance", Outputs: []interfaces.AssetTxOutput{{Vout: 0, AssetBlinder: interfaces.ZeroBlinder, AmountBlinder: interfaces.ZeroBlinder}}},
	})

	reg, err := factory.RegistryFor(context.Background(), srv.BaseURL())
	require.NoError(t, err)

	lost, err := reg.GetLostOutputs(context.Background(), testAssetUUID)
	require.NoError(t, err)
	assert.Equal(t, []interfaces.Outpoint{{TxID: "aa", Vout: 1}}, lost.LostOutputs)
	assert.Empty(t, lost.ReissuanceLostOutputs)

	assignments, err := reg.GetAssignments(context.Background(), testAssetUUID)
	require.NoError(t, err)
	require.Len(t, assignments, 2)
	assert.Equal(t, "D1", assignments[0].DistributionUUID)
	assert.False(t, assignments[0].IsDistributed)

	txs, err := reg.GetAssetTransactions(context.Background(), testAssetUUID)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, interfaces.ZeroBlinder, txs[0].Outputs[0].AssetBlinder)

	_, err = reg.GetLostOutputs(context.Background(), "unknown")
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
}

func TestClient_ConfirmDistribution(t *testing.T) {
	srv, factory := newTestServer(t)
	srv.SetAssignments(testAssetUUID, []interfaces.Assignment{
		{ID: 1, Amount: 10, DistributionUUID: "D1"},
		{ID: 2, Amount: 5, DistributionUUID: "D2"},
	})

	reg, err := factory.RegistryFor(context.Background(), srv.BaseURL())
	require.NoError(t, err)

	payload := &interfaces.DistributionConfirmPayload{
		TxData: interfaces.DistributionTxData{
			TxID:    "abc123",
			Details: []interfaces.TxDetail{{Category: "send", Amount: -10, Vout: 0}},
		},
		ChangeData: []interfaces.Unspent{},
	}
	require.NoError(t, reg.ConfirmDistribution(context.Background(), testAssetUUID, "D1", payload))

	reports := srv.Reports()
	require.Len(t, reports, 1)
	assert.Equal(t, "/api/assets/"+testAssetUUID+"/distributions/D1/confirm", reports[0].Endpoint)

	var body map[string]any
	require.NoError(t, json.Unmarshal(reports[0].Body, &body))
	assert.Equal(t, "abc123", body["tx_data"].(map[string]any)["txid"])
	assert.Equal(t, []any{}, body["change_data"])

	assignments := srv.Assignments(testAssetUUID)
	assert.True(t, assignments[0].IsDistributed)
	assert.False(t, assignments[1].IsDistributed)
}

func TestClient_ReportFailure(t *testing.T) {
	srv, factory := newTestServer(t)
	srv.FailReports(http.StatusInternalServerError)

	reg, err := factory.RegistryFor(context.Background(), srv.BaseURL())
	require.NoError(t, err)

	err = reg.ConfirmBurn(context.Background(), testAssetUUID, &interfaces.BurnConfirmPayload{
		TxData:     interfaces.BurnTxData{TxID: "feed"},
		ChangeData: []interfaces.Unspent{},
	})
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
	assert.Equal(t, "assets/"+testAssetUUID+"/burn-confirm", statusErr.Endpoint)
	assert.Contains(t, statusErr.Error(), "returned error 500")

	// rejected reports are still recorded exactly once
	assert.Len(t, srv.Reports(), 1)
}

func TestClient_UpdateBlinders(t *testing.T) {
	srv, factory := newTestServer(t)
	srv.SetAssetTransactions(testAssetUUID, []interfaces.AssetTransaction{
		{TxID: "issuance", Outputs: []interfaces.AssetTxOutput{
			{Vout: 0, AssetBlinder: interfaces.ZeroBlinder, AmountBlinder: interfaces.ZeroBlinder},
			{Vout: 1, AssetBlinder: "11", AmountBlinder: "22"},
		}},
	})

	reg, err := factory.RegistryFor(context.Background(), srv.BaseURL())
	require.NoError(t, err)

	require.NoError(t, reg.UpdateBlinders(context.Background(), testAssetUUID, &interfaces.BlinderUpdate{
		TxID: "issuance", Vout: 0, AssetBlinder: "aa", AmountBlinder: "bb",
	}))

	txs, err := reg.GetAssetTransactions(context.Background(), testAssetUUID)
	require.NoError(t, err)
	assert.Equal(t, "aa", txs[0].Outputs[0].AssetBlinder)
	assert.Equal(t, "bb", txs[0].Outputs[0].AmountBlinder)
	assert.Equal(t, "11", txs[0].Outputs[1].AssetBlinder)
}
