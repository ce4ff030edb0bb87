package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ruteri/amp-confirm/interfaces"
	"github.com/ruteri/amp-confirm/node"
	"github.com/ruteri/amp-confirm/registry"
	"github.com/ruteri/amp-confirm/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testAssetUUID    = "0f2d3c4b-5a69-4788-9a0b-1c2d3e4f5a6b"
	testDistribution = "D1"
	testUser         = "operator"
	testPassword     = "hunter2"
)

var testAssetID = strings.Repeat("5a", 32)

type env struct {
	node     *node.MockServer
	registry *registry.MockServer
	file     string
}

func newEnv(t *testing.T, broadcastTxID string) *env {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	n := node.NewMockServer(log)
	t.Cleanup(n.Close)
	n.HandleResult("getnetworkinfo", map[string]any{"version": 210000, "subversion": "/Elements Core:21.0.0/"})
	n.HandleResult("getblockchaininfo", map[string]any{"chain": "liquidv1", "blocks": 1000, "verificationprogress": 1})
	n.Handle("signmessage", func([]json.RawMessage) (any, *interfaces.NodeError) {
		return nil, &interfaces.NodeError{Code: interfaces.RPCInvalidAddress, Message: "Invalid address"}
	})
	n.HandleResult("sendmany", broadcastTxID)
	n.Handle("gettransaction", func(params []json.RawMessage) (any, *interfaces.NodeError) {
		var txid string
		if len(params) > 0 {
			json.Unmarshal(params[0], &txid)
		}
		return map[string]any{"txid": txid, "confirmations": 2, "details": []any{}}, nil
	})
	n.HandleResult("listunspent", []any{})

	reg := registry.NewMockServer(testUser, testPassword, log)
	t.Cleanup(reg.Close)
	reg.AddAsset(testAssetUUID)
	reg.SetAssignments(testAssetUUID, []interfaces.Assignment{
		{ID: 1, RegisteredUser: 7, Amount: 150000000, DistributionUUID: testDistribution, ReadyForDistribution: true},
	})

	file := filepath.Join(t.TempDir(), "distribution.json")
	data, err := json.Marshal(map[string]any{
		"command":                             "distribute",
		"min_supported_client_script_version": 2,
		"base_url":                            reg.BaseURL(),
		"asset_uuid":                          testAssetUUID,
		"asset_id":                            testAssetID,
		"distribution_uuid":                   testDistribution,
		"map_address_amount":                  map[string]float64{"vjTxAddr": 1.5},
		"map_address_asset":                   map[string]string{"vjTxAddr": testAssetID},
	})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(file, data, 0o600))

	return &env{node: n, registry: reg, file: file}
}

func (e *env) args(extra ...string) []string {
	args := []string{
		"ampconfirm",
		"-u", testUser,
		"-p", testPassword,
		"-n", e.node.URL,
		"--journal", "none",
		"--settle-delay", "0s",
		"distribute",
		"-f", e.file,
	}
	return append(args, extra...)
}

func TestDistribute(t *testing.T) {
	e := newEnv(t, "abc123")

	var out bytes.Buffer
	err := run(context.Background(), e.args(), &out)
	require.NoError(t, err, out.String())

	assert.Contains(t, out.String(), "Distribution confirmed successfully")
	assert.Equal(t, int32(1), e.node.Calls("sendmany"))

	reports := e.registry.Reports()
	require.Len(t, reports, 1)
	assert.True(t, strings.HasSuffix(reports[0].Endpoint, "/distributions/"+testDistribution+"/confirm"), reports[0].Endpoint)

	var payload interfaces.DistributionConfirmPayload
	require.NoError(t, json.Unmarshal(reports[0].Body, &payload))
	assert.Equal(t, "abc123", payload.TxData.TxID)

	for _, as := range e.registry.Assignments(testAssetUUID) {
		assert.True(t, as.IsDistributed)
	}

	t.Run("rerun refuses to distribute again", func(t *testing.T) {
		var out bytes.Buffer
		err := run(context.Background(), e.args(), &out)
		require.ErrorIs(t, err, workflow.ErrAlreadyDistributed)
		assert.Equal(t, int32(1), e.node.Calls("sendmany"))
		assert.Contains(t, out.String(), "class=precondition")
	})
}

func TestDistributeReportFailure(t *testing.T) {
	txid := strings.Repeat("e7", 32)
	e := newEnv(t, txid)
	e.registry.FailReports(http.StatusInternalServerError)

	var out bytes.Buffer
	err := run(context.Background(), e.args(), &out)
	require.ErrorIs(t, err, workflow.ErrReportFailed)

	var recovery *workflow.RecoveryError
	require.True(t, errors.As(err, &recovery))
	assert.Contains(t, err.Error(), "--use-existing "+txid)
	assert.NotContains(t, err.Error(), testPassword)
	assert.Equal(t, int32(1), e.node.Calls("sendmany"))

	e.registry.FailReports(http.StatusOK)

	out.Reset()
	err = run(context.Background(), e.args("--use-existing", txid), &out)
	require.NoError(t, err, out.String())
	assert.Contains(t, out.String(), "Distribution confirmed successfully")
	assert.Equal(t, int32(1), e.node.Calls("sendmany"), "resume must not broadcast")
}

func TestMissingFlags(t *testing.T) {
	e := newEnv(t, "abc123")

	var out bytes.Buffer
	err := run(context.Background(), []string{"ampconfirm", "-p", testPassword, "distribute", "-f", e.file}, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "username")
	assert.Equal(t, int32(0), e.node.Calls("getnetworkinfo"))
}

func TestJournalList(t *testing.T) {
	txid := strings.Repeat("e7", 32)
	e := newEnv(t, txid)
	journal := "file://" + filepath.Join(t.TempDir(), "journal.jsonl")

	args := e.args()
	for i, a := range args {
		if a == "none" {
			args[i] = journal
		}
	}
	require.NoError(t, run(context.Background(), args, io.Discard))

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"ampconfirm", "--journal", journal, "journal", "list"}, &out))

	assert.Contains(t, out.String(), "RECORDED AT")
	assert.Contains(t, out.String(), string(interfaces.StageBroadcast))
	assert.Contains(t, out.String(), string(interfaces.StageReported))
	assert.Contains(t, out.String(), txid)
}

func TestInvalidConfirmInterval(t *testing.T) {
	e := newEnv(t, "abc123")

	args := append([]string{"ampconfirm", "--confirm-interval", "0s"}, e.args()[1:]...)
	err := run(context.Background(), args, io.Discard)
	require.ErrorIs(t, err, workflow.ErrInvalidConfig)
	assert.Equal(t, int32(0), e.node.Calls("sendmany"))
}
