package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/emarc99/chaincapture/internal/models"
	"github.com/emarc99/chaincapture/internal/utils"
)

// MemoryAssetRepo is used when no mongodb uri is configured.
type MemoryAssetRepo struct {
	mu     sync.RWMutex
	assets map[string]models.IPAsset
}

func NewMemoryAssetRepo() *MemoryAssetRepo {
	return &MemoryAssetRepo{assets: make(map[string]models.IPAsset)}
}

func (r *MemoryAssetRepo) Insert(_ context.Context, a *models.IPAsset) error {
	if a.RegisteredAt.IsZero() {
		a.RegisteredAt = time.Now().UTC()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.assets[a.IPID]; ok {
		return fmt.Errorf("ip asset %s already archived", a.IPID)
	}
	r.assets[a.IPID] = *a
	return nil
}

func (r *MemoryAssetRepo) GetByID(_ context.Context, ipID string) (*models.IPAsset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.assets[ipID]
	if !ok {
		return nil, fmt.Errorf("ip asset %s: %w", ipID, utils.ErrNotFound)
	}
	return &a, nil
}

func (r *MemoryAssetRepo) ListByOwner(_ context.Context, owner string) ([]models.IPAsset, error) {
	r.mu.RLock()
	out := []models.IPAsset{}
	for _, a := range r.assets {
		if strings.EqualFold(a.Owner, owner) {
			out = append(out, a)
		}
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].RegisteredAt.After(out[j].RegisteredAt) })
	return out, nil
}

func (r *MemoryAssetRepo) SetLicense(_ context.Context, ipID, termsID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.assets[ipID]
	if !ok {
		return fmt.Errorf("ip asset %s: %w", ipID, utils.ErrNotFound)
	}
	a.LicenseTermsID = termsID
	r.assets[ipID] = a
	return nil
}
