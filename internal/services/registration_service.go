package service

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/emarc99/chaincapture/internal/chain"
	"github.com/emarc99/chaincapture/internal/events"
	"github.com/emarc99/chaincapture/internal/models"
	"github.com/emarc99/chaincapture/internal/repository"
	"github.com/emarc99/chaincapture/internal/storage"
	"github.com/emarc99/chaincapture/internal/utils"
	"go.uber.org/zap"
)

var ErrIncompleteRegistration = errors.New("registration response missing ipId, tokenId or txHash")

type RegistrationError struct {
	Err error
}

func (e *RegistrationError) Error() string { return "register ip: " + e.Err.Error() }
func (e *RegistrationError) Unwrap() error { return e.Err }

type RegistrationService struct {
	minter   chain.Minter
	repo     repository.AssetRepo
	pub      events.Publisher
	explorer string
	log      *zap.SugaredLogger
}

func NewRegistrationService(m chain.Minter, repo repository.AssetRepo, pub events.Publisher, explorerURL string, log *zap.SugaredLogger) *RegistrationService {
	if pub == nil {
		pub = events.Nop{}
	}
	return &RegistrationService{
		minter:   m,
		repo:     repo,
		pub:      pub,
		explorer: strings.TrimRight(explorerURL, "/"),
		log:      log,
	}
}

type RegisterInput struct {
	MediaURI    string            `json:"mediaUri"`
	MetadataURI string            `json:"metadataUri"`
	Metadata    models.IPMetadata `json:"metadata"`
	Recipient   string            `json:"recipient,omitempty"`
}

type RegisterOutput struct {
	models.Registration
	ExplorerURL string
}

// HashMetadata returns sha256 of the IP metadata document and of the NFT
// metadata document {name, description, image}.
func HashMetadata(m models.IPMetadata, mediaURI string) (ip [32]byte, nft [32]byte, err error) {
	ipDoc, err := storage.EncodeJSON(m)
	if err != nil {
		return ip, nft, err
	}
	nftDoc, err := storage.EncodeJSON(models.NFTMetadata{
		Name:        m.Title,
		Description: m.Description,
		Image:       mediaURI,
	})
	if err != nil {
		return ip, nft, err
	}
	return sha256.Sum256(ipDoc), sha256.Sum256(nftDoc), nil
}

// Register mints the NFT and registers it as an IP asset in one call. There
// is no retry: a failure after upload leaves the pinned objects orphaned.
func (s *RegistrationService) Register(ctx context.Context, in RegisterInput) (*RegisterOutput, error) {
	if in.MediaURI == "" || in.MetadataURI == "" {
		return nil, fmt.Errorf("%w: Missing required fields: mediaUri, metadataUri, metadata", utils.ErrInvalidInput)
	}
	meta := normalizeMetadata(in.Metadata)
	if err := utils.Validate(meta); err != nil {
		return nil, err
	}
	if in.Recipient != "" && !chain.IsAddress(in.Recipient) {
		return nil, fmt.Errorf("%w: recipient is not a valid address", utils.ErrInvalidInput)
	}

	ipHash, nftHash, err := HashMetadata(meta, in.MediaURI)
	if err != nil {
		return nil, &RegistrationError{Err: err}
	}
	s.log.Infow("registering ip asset", "title", meta.Title, "media", in.MediaURI, "metadata", in.MetadataURI)

	reg, err := s.minter.MintAndRegister(ctx, chain.MintRequest{
		Recipient: in.Recipient,
		Metadata: chain.IPMetadata{
			IpMetadataURI:   in.MetadataURI,
			IpMetadataHash:  ipHash,
			NftMetadataURI:  in.MediaURI,
			NftMetadataHash: nftHash,
		},
	})
	if err != nil {
		return nil, &RegistrationError{Err: err}
	}
	if reg == nil || reg.IPID == "" || reg.TokenID == "" || reg.TxHash == "" {
		return nil, &RegistrationError{Err: ErrIncompleteRegistration}
	}
	if chain.IsAddress(reg.IPID) {
		reg.IPID = chain.Checksum(reg.IPID)
	}
	s.log.Infow("ip asset registered", "ipId", reg.IPID, "tokenId", reg.TokenID, "tx", reg.TxHash)

	owner := in.Recipient
	if owner == "" {
		owner = s.minter.Signer()
	}
	if chain.IsAddress(owner) {
		owner = chain.Checksum(owner)
	}
	asset := &models.IPAsset{
		IPID:               reg.IPID,
		NFTContractAddress: s.minter.Contract(),
		TokenID:            reg.TokenID,
		Owner:              owner,
		Metadata:           meta,
		MetadataURI:        in.MetadataURI,
		ContentURI:         in.MediaURI,
		TxHash:             reg.TxHash,
		RegisteredAt:       time.Now().UTC(),
	}
	if err := s.repo.Insert(ctx, asset); err != nil {
		s.log.Warnw("archive ip asset failed", "ipId", reg.IPID, "err", err)
	}
	s.publish(ctx, events.Event{
		Type:    events.TypeRegistered,
		Address: owner,
		IPID:    reg.IPID,
		TxHash:  reg.TxHash,
		Data:    map[string]any{"tokenId": reg.TokenID, "title": meta.Title},
	})

	return &RegisterOutput{Registration: *reg, ExplorerURL: s.ExplorerURL(reg.IPID)}, nil
}

func (s *RegistrationService) ExplorerURL(ipID string) string {
	return s.explorer + "/ipa/" + ipID
}

// AttachLicense attaches PIL terms to a registered asset.
func (s *RegistrationService) AttachLicense(ctx context.Context, ipID string, termsID uint64) (string, error) {
	if !chain.IsAddress(ipID) {
		return "", fmt.Errorf("%w: ipId is not a valid address", utils.ErrInvalidInput)
	}
	if termsID == 0 {
		return "", fmt.Errorf("%w: licenseTermsId is required", utils.ErrInvalidInput)
	}
	ipID = chain.Checksum(ipID)
	tx, err := s.minter.AttachLicense(ctx, ipID, termsID)
	if err != nil {
		return "", &RegistrationError{Err: err}
	}
	terms := strconv.FormatUint(termsID, 10)
	// assets registered by another deployment are not archived here
	if err := s.repo.SetLicense(ctx, ipID, terms); errors.Is(err, utils.ErrNotFound) {
		s.log.Infow("license attached to unarchived ip asset", "ipId", ipID)
	} else if err != nil {
		s.log.Warnw("archive license failed", "ipId", ipID, "err", err)
	}

	owner := ""
	if a, err := s.repo.GetByID(ctx, ipID); err == nil {
		owner = a.Owner
	}
	s.publish(ctx, events.Event{
		Type:    events.TypeLicenseAttached,
		Address: owner,
		IPID:    ipID,
		TxHash:  tx,
		Data:    map[string]any{"licenseTermsId": terms},
	})
	return tx, nil
}

func (s *RegistrationService) Get(ctx context.Context, ipID string) (*models.IPAsset, error) {
	if !chain.IsAddress(ipID) {
		return nil, fmt.Errorf("%w: ipId is not a valid address", utils.ErrInvalidInput)
	}
	return s.repo.GetByID(ctx, chain.Checksum(ipID))
}

// Archived lists the registrations this service archived for a wallet,
// newest first. Unlike the ownership scan it does not read the chain, so
// transfers made after registration are not reflected.
func (s *RegistrationService) Archived(ctx context.Context, owner string) ([]models.IPAsset, error) {
	if owner == "" {
		return nil, fmt.Errorf("%w: Wallet address required", utils.ErrInvalidInput)
	}
	if !chain.IsAddress(owner) {
		return nil, fmt.Errorf("%w: invalid wallet address", utils.ErrInvalidInput)
	}
	return s.repo.ListByOwner(ctx, owner)
}

func (s *RegistrationService) publish(ctx context.Context, ev events.Event) {
	if err := s.pub.Publish(ctx, ev); err != nil {
		s.log.Warnw("publish event failed", "type", ev.Type, "err", err)
	}
}
