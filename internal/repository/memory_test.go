package repository

import (
	"context"
	"testing"
	"time"

	"github.com/emarc99/chaincapture/internal/models"
	"github.com/emarc99/chaincapture/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryAssetRepo(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryAssetRepo()
	var _ AssetRepo = r

	older := &models.IPAsset{IPID: "0xA", Owner: "0xAbC", RegisteredAt: time.Unix(100, 0)}
	newer := &models.IPAsset{IPID: "0xB", Owner: "0xabc", RegisteredAt: time.Unix(200, 0)}
	require.NoError(t, r.Insert(ctx, older))
	require.NoError(t, r.Insert(ctx, newer))
	require.NoError(t, r.Insert(ctx, &models.IPAsset{IPID: "0xC", Owner: "0xdef"}))
	assert.Error(t, r.Insert(ctx, &models.IPAsset{IPID: "0xA"}))

	got, err := r.GetByID(ctx, "0xA")
	require.NoError(t, err)
	assert.Equal(t, "0xAbC", got.Owner)

	_, err = r.GetByID(ctx, "0xZ")
	assert.ErrorIs(t, err, utils.ErrNotFound)

	list, err := r.ListByOwner(ctx, "0xABC")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "0xB", list[0].IPID)

	require.NoError(t, r.SetLicense(ctx, "0xA", "1"))
	got, _ = r.GetByID(ctx, "0xA")
	assert.Equal(t, "1", got.LicenseTermsID)
	assert.ErrorIs(t, r.SetLicense(ctx, "0xZ", "1"), utils.ErrNotFound)
}

func TestMemoryInsertStampsTime(t *testing.T) {
	r := NewMemoryAssetRepo()
	a := &models.IPAsset{IPID: "0xA"}
	require.NoError(t, r.Insert(context.Background(), a))
	assert.False(t, a.RegisteredAt.IsZero())
}
