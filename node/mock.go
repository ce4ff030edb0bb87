package node

import (
	"context"

	"github.com/ruteri/amp-confirm/interfaces"
	"github.com/stretchr/testify/mock"
)

// MockClient mocks the interfaces.NodeClient interface
type MockClient struct {
	mock.Mock
}

func (m *MockClient) GetNetworkInfo(ctx context.Context) (*interfaces.NetworkInfo, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*interfaces.NetworkInfo), args.Error(1)
}

func (m *MockClient) GetBlockchainInfo(ctx context.Context) (*interfaces.BlockchainInfo, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*interfaces.BlockchainInfo), args.Error(1)
}

func (m *MockClient) SignMessage(ctx context.Context, address, message string) (string, error) {
	args := m.Called(ctx, address, message)
	return args.String(0), args.Error(1)
}

func (m *MockClient) ListUnspent(ctx context.Context) ([]interfaces.Unspent, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]interfaces.Unspent), args.Error(1)
}

func (m *MockClient) GetTransaction(ctx context.Context, txid string) (*interfaces.WalletTransaction, error) {
	args := m.Called(ctx, txid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*interfaces.WalletTransaction), args.Error(1)
}

func (m *MockClient) ListIssuances(ctx context.Context, assetID string) ([]interfaces.Issuance, error) {
	args := m.Called(ctx, assetID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]interfaces.Issuance), args.Error(1)
}

func (m *MockClient) GetBalance(ctx context.Context) (map[string]float64, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]float64), args.Error(1)
}

func (m *MockClient) ReissueAsset(ctx context.Context, assetID string, amount float64) (*interfaces.ReissuanceOutput, error) {
	args := m.Called(ctx, assetID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*interfaces.ReissuanceOutput), args.Error(1)
}

func (m *MockClient) SendMany(ctx context.Context, addressAmounts map[string]float64, addressAssets map[string]string) (string, error) {
	args := m.Called(ctx, addressAmounts, addressAssets)
	return args.String(0), args.Error(1)
}

func (m *MockClient) DestroyAmount(ctx context.Context, assetID string, amount float64) (string, error) {
	args := m.Called(ctx, assetID, amount)
	return args.String(0), args.Error(1)
}
