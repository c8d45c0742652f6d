package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/emarc99/chaincapture/internal/chain"
	"github.com/emarc99/chaincapture/internal/models"
	"github.com/emarc99/chaincapture/internal/utils"
	"go.uber.org/zap"
)

const DefaultScanLimit = 100

type OwnershipService struct {
	reader chain.TokenReader
	limit  uint64
	log    *zap.SugaredLogger
}

func NewOwnershipService(r chain.TokenReader, limit int, log *zap.SugaredLogger) *OwnershipService {
	if limit <= 0 {
		limit = DefaultScanLimit
	}
	return &OwnershipService{reader: r, limit: uint64(limit), log: log}
}

// Assets finds the tokens address owns by walking ids from 0 until either
// balance matches are found or the scan limit is reached. Holdings above the
// limit are not reported.
func (s *OwnershipService) Assets(ctx context.Context, address string) ([]models.OwnedAsset, error) {
	if address == "" {
		return nil, fmt.Errorf("%w: Wallet address required", utils.ErrInvalidInput)
	}
	if !chain.IsAddress(address) {
		return nil, fmt.Errorf("%w: invalid wallet address", utils.ErrInvalidInput)
	}

	balance, err := s.reader.BalanceOf(ctx, address)
	if err != nil {
		return nil, err
	}
	s.log.Infow("scanning ip assets", "owner", address, "contract", s.reader.Contract(), "balance", balance)

	assets := []models.OwnedAsset{}
	if balance == 0 {
		return assets, nil
	}
	for id := uint64(0); id < s.limit && uint64(len(assets)) < balance; id++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		owner, err := s.reader.OwnerOf(ctx, id)
		if err != nil {
			// burned or never minted
			continue
		}
		if !chain.SameAddress(owner, address) {
			continue
		}
		uri, err := s.reader.TokenURI(ctx, id)
		if err != nil {
			s.log.Warnw("tokenURI failed", "tokenId", id, "err", err)
			continue
		}
		ipID, err := s.reader.IPID(ctx, id)
		if err != nil {
			s.log.Warnw("ipId lookup failed", "tokenId", id, "err", err)
			continue
		}
		assets = append(assets, models.OwnedAsset{
			TokenID:     strconv.FormatUint(id, 10),
			TokenURI:    uri,
			IPID:        ipID,
			Owner:       owner,
			NFTContract: s.reader.Contract(),
		})
	}
	s.log.Infow("scan finished", "owner", address, "found", len(assets))
	return assets, nil
}
