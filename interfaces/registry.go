package interfaces

import "context"

// Registry is an authenticated client of the asset registry API.
// Every method performs a live request; nothing is cached between calls.
type Registry interface {
	// GetLostOutputs returns the asset's lost-output view (GET assets/{uuid}/balance).
	GetLostOutputs(ctx context.Context, assetUUID string) (*LostOutputs, error)
	// GetAssignments returns the asset's assignment list (GET assets/{uuid}/assignments).
	GetAssignments(ctx context.Context, assetUUID string) ([]Assignment, error)
	// GetAssetTransactions returns the asset's transaction list (GET assets/{uuid}/txs).
	// The first entry is the issuance transaction.
	GetAssetTransactions(ctx context.Context, assetUUID string) ([]AssetTransaction, error)

	ConfirmReissue(ctx context.Context, assetUUID string, payload *ReissueConfirmPayload) error
	ConfirmDistribution(ctx context.Context, assetUUID, distributionUUID string, payload *DistributionConfirmPayload) error
	ConfirmBurn(ctx context.Context, assetUUID string, payload *BurnConfirmPayload) error
	UpdateBlinders(ctx context.Context, assetUUID string, update *BlinderUpdate) error
}

// RegistryFactory creates authenticated Registry instances for different API base URLs.
type RegistryFactory interface {
	RegistryFor(ctx context.Context, baseURL string) (Registry, error)
}
