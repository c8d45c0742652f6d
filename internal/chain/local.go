package chain

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/emarc99/chaincapture/internal/collection"
	"github.com/emarc99/chaincapture/internal/models"
	"github.com/emarc99/chaincapture/internal/utils"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// LocalContract is the address reported for the in-process collection.
const LocalContract = "0x000000000000000000000000000000000000cC01"

// LocalChain runs mint, register and license attachment against an
// in-memory collection. Transaction hashes are keccak digests of the call.
type LocalChain struct {
	coll    *collection.Collection
	chainID int64
	signer  string
	nonce   atomic.Uint64

	mu       sync.RWMutex
	ipIDs    map[string]uint64
	licenses map[string][]uint64
}

func NewLocalChain(chainID int64, signer string) *LocalChain {
	if signer == "" {
		signer = "0x00000000000000000000000000000000000000A1"
	}
	return &LocalChain{
		coll:     collection.New(signer),
		chainID:  chainID,
		signer:   common.HexToAddress(signer).Hex(),
		ipIDs:    make(map[string]uint64),
		licenses: make(map[string][]uint64),
	}
}

func (l *LocalChain) Signer() string   { return l.signer }
func (l *LocalChain) Contract() string { return LocalContract }

// Collection exposes the underlying token state.
func (l *LocalChain) Collection() *collection.Collection { return l.coll }

func (l *LocalChain) MintAndRegister(ctx context.Context, req MintRequest) (*models.Registration, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	recipient := l.signer
	if req.Recipient != "" {
		if !IsAddress(req.Recipient) {
			return nil, fmt.Errorf("%w: recipient is not an address", utils.ErrInvalidInput)
		}
		recipient = common.HexToAddress(req.Recipient).Hex()
	}

	id, err := l.coll.Mint(recipient, req.Metadata.NftMetadataURI)
	if err != nil {
		if errors.Is(err, collection.ErrEmptyURI) || errors.Is(err, collection.ErrZeroAddress) {
			return nil, fmt.Errorf("%w: %v", utils.ErrInvalidInput, err)
		}
		return nil, err
	}
	ipID := DeriveIPID(l.chainID, LocalContract, id)

	l.mu.Lock()
	l.ipIDs[ipID] = id
	l.mu.Unlock()

	return &models.Registration{
		IPID:    ipID,
		TokenID: strconv.FormatUint(id, 10),
		TxHash:  l.txHash("mintAndRegisterIp", recipient, req.Metadata.IpMetadataURI),
	}, nil
}

func (l *LocalChain) AttachLicense(ctx context.Context, ipID string, licenseTermsID uint64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !IsAddress(ipID) {
		return "", fmt.Errorf("%w: ipId is not an address", utils.ErrInvalidInput)
	}
	key := common.HexToAddress(ipID).Hex()

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.ipIDs[key]; !ok {
		return "", fmt.Errorf("ip asset %s: %w", ipID, utils.ErrNotFound)
	}
	for _, t := range l.licenses[key] {
		if t == licenseTermsID {
			return "", fmt.Errorf("%w: license terms %d already attached", utils.ErrInvalidInput, licenseTermsID)
		}
	}
	l.licenses[key] = append(l.licenses[key], licenseTermsID)
	return l.txHash("attachLicenseTerms", key, strconv.FormatUint(licenseTermsID, 10)), nil
}

// Licenses lists the terms attached to an IP asset.
func (l *LocalChain) Licenses(ipID string) []uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	terms := l.licenses[common.HexToAddress(ipID).Hex()]
	out := make([]uint64, len(terms))
	copy(out, terms)
	return out
}

func (l *LocalChain) BalanceOf(ctx context.Context, owner string) (uint64, error) {
	if !IsAddress(owner) {
		return 0, fmt.Errorf("%w: invalid wallet address", utils.ErrInvalidInput)
	}
	return l.coll.BalanceOf(owner), ctx.Err()
}

func (l *LocalChain) OwnerOf(_ context.Context, tokenID uint64) (string, error) {
	return l.coll.OwnerOf(tokenID)
}

func (l *LocalChain) TokenURI(_ context.Context, tokenID uint64) (string, error) {
	return l.coll.TokenURI(tokenID)
}

func (l *LocalChain) IPID(_ context.Context, tokenID uint64) (string, error) {
	if _, err := l.coll.OwnerOf(tokenID); err != nil {
		return "", err
	}
	return DeriveIPID(l.chainID, LocalContract, tokenID), nil
}

func (l *LocalChain) txHash(method string, parts ...string) string {
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], l.nonce.Add(1))
	data := [][]byte{[]byte(method), n[:]}
	for _, p := range parts {
		data = append(data, []byte(p))
	}
	return common.BytesToHash(crypto.Keccak256(data...)).Hex()
}
