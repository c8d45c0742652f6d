package service

import (
	"context"
	"time"

	"github.com/emarc99/chaincapture/internal/capture"
	"github.com/emarc99/chaincapture/internal/models"
	"github.com/emarc99/chaincapture/internal/storage"
	"github.com/emarc99/chaincapture/internal/utils"
	"go.uber.org/zap"
)

type UploadService struct {
	store   *storage.ContentStore
	maxSize int64
	log     *zap.SugaredLogger
}

func NewUploadService(store *storage.ContentStore, maxSize int64, log *zap.SugaredLogger) *UploadService {
	return &UploadService{store: store, maxSize: maxSize, log: log}
}

type UploadInput struct {
	Filename    string
	ContentType string
	Data        []byte
	Metadata    models.IPMetadata
	CapturedAt  time.Time
}

type UploadOutput struct {
	Media    *models.CapturedMedia
	Result   models.UploadResult
	Metadata models.IPMetadata
}

// Upload checks the blob, fills the metadata fields derivable from it and
// pins both to the content store.
func (s *UploadService) Upload(ctx context.Context, in UploadInput) (*UploadOutput, error) {
	media, err := capture.New(in.Filename, in.ContentType, in.Data, in.CapturedAt, s.maxSize)
	if err != nil {
		return nil, err
	}
	meta := in.Metadata
	if meta.IPType == "" {
		meta.IPType = media.Type
	}
	if meta.CaptureDate == "" {
		meta.CaptureDate = media.CapturedAt.Format(time.RFC3339)
	}
	meta = normalizeMetadata(meta)
	if err := utils.Validate(meta); err != nil {
		return nil, err
	}

	s.log.Infow("uploading capture", "provider", s.store.Provider(), "file", media.Filename,
		"bytes", media.Size, "title", meta.Title)
	res, err := s.store.Upload(ctx, media, meta)
	if err != nil {
		return nil, err
	}
	media.URL = s.store.GatewayURL(res.MediaURI)
	s.log.Infow("capture uploaded", "media", res.MediaURI, "metadata", res.MetadataURI)
	return &UploadOutput{Media: media, Result: res, Metadata: meta}, nil
}

// normalizeMetadata keeps the encoded form stable: an absent creators list
// encodes as [] rather than null.
func normalizeMetadata(m models.IPMetadata) models.IPMetadata {
	if m.Creators == nil {
		m.Creators = []string{}
	}
	return m
}
