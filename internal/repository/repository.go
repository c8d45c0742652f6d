package repository

import (
	"context"

	"github.com/emarc99/chaincapture/internal/models"
)

// AssetRepo archives the IP assets this service registered. The chain stays
// the source of truth; the archive only remembers metadata that is not
// readable on chain.
type AssetRepo interface {
	Insert(ctx context.Context, a *models.IPAsset) error
	GetByID(ctx context.Context, ipID string) (*models.IPAsset, error)
	ListByOwner(ctx context.Context, owner string) ([]models.IPAsset, error)
	SetLicense(ctx context.Context, ipID, termsID string) error
}
