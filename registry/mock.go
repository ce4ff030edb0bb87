package registry

import (
	"context"

	"github.com/ruteri/amp-confirm/interfaces"
	"github.com/stretchr/testify/mock"
)

// MockRegistry mocks the Registry interface
type MockRegistry struct {
	mock.Mock
}

func (m *MockRegistry) GetLostOutputs(ctx context.Context, assetUUID string) (*interfaces.LostOutputs, error) {
	args := m.Called(ctx, assetUUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*interfaces.LostOutputs), args.Error(1)
}

func (m *MockRegistry) GetAssignments(ctx context.Context, assetUUID string) ([]interfaces.Assignment, error) {
	args := m.Called(ctx, assetUUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]interfaces.Assignment), args.Error(1)
}

func (m *MockRegistry) GetAssetTransactions(ctx context.Context, assetUUID string) ([]interfaces.AssetTransaction, error) {
	args := m.Called(ctx, assetUUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]interfaces.AssetTransaction), args.Error(1)
}

func (m *MockRegistry) ConfirmReissue(ctx context.Context, assetUUID string, payload *interfaces.ReissueConfirmPayload) error {
	args := m.Called(ctx, assetUUID, payload)
	return args.Error(0)
}

func (m *MockRegistry) ConfirmDistribution(ctx context.Context, assetUUID, distributionUUID string, payload *interfaces.DistributionConfirmPayload) error {
	args := m.Called(ctx, assetUUID, distributionUUID, payload)
	return args.Error(0)
}

func (m *MockRegistry) ConfirmBurn(ctx context.Context, assetUUID string, payload *interfaces.BurnConfirmPayload) error {
	args := m.Called(ctx, assetUUID, payload)
	return args.Error(0)
}

func (m *MockRegistry) UpdateBlinders(ctx context.Context, assetUUID string, update *interfaces.BlinderUpdate) error {
	args := m.Called(ctx, assetUUID, update)
	return args.Error(0)
}

// MockFactory mocks the RegistryFactory interface
type MockFactory struct {
	mock.Mock
}

func (m *MockFactory) RegistryFor(ctx context.Context, baseURL string) (interfaces.Registry, error) {
	args := m.Called(ctx, baseURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(interfaces.Registry), args.Error(1)
}
