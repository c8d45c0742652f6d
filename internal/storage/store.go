package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/emarc99/chaincapture/internal/models"
	"golang.org/x/sync/errgroup"
)

const ipfsScheme = "ipfs://"

// Provider pins content on a content-addressed store and returns its CID.
type Provider interface {
	Name() string
	PutFile(ctx context.Context, filename, contentType string, data []byte) (string, error)
	PutJSON(ctx context.Context, name string, doc []byte) (string, error)
}

// UploadError reports a failed pin. Err carries the cause and, for a missing
// credential, wraps utils.ErrNotConfigured.
type UploadError struct {
	Provider string
	Op       string
	Err      error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload %s to %s: %v", e.Op, e.Provider, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

type ContentStore struct {
	provider Provider
	gateway  string
}

func NewContentStore(p Provider, gatewayURL string) *ContentStore {
	return &ContentStore{provider: p, gateway: strings.TrimRight(gatewayURL, "/")}
}

func (s *ContentStore) Provider() string { return s.provider.Name() }

// Upload pins the media payload and the metadata document concurrently and
// returns both as ipfs:// URIs. Either failure fails the whole call; a media
// object pinned before the metadata failed is left behind.
func (s *ContentStore) Upload(ctx context.Context, media *models.CapturedMedia, metadata any) (models.UploadResult, error) {
	doc, err := EncodeJSON(metadata)
	if err != nil {
		return models.UploadResult{}, &UploadError{Provider: s.provider.Name(), Op: "metadata", Err: err}
	}

	var res models.UploadResult
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		cid, err := s.provider.PutFile(gctx, media.Filename, media.ContentType, media.Data)
		if err != nil {
			return wrapUpload(s.provider.Name(), "media", err)
		}
		res.MediaURI = ipfsScheme + cid
		return nil
	})
	g.Go(func() error {
		cid, err := s.provider.PutJSON(gctx, metadataName(media.Filename), doc)
		if err != nil {
			return wrapUpload(s.provider.Name(), "metadata", err)
		}
		res.MetadataURI = ipfsScheme + cid
		return nil
	})
	if err := g.Wait(); err != nil {
		return models.UploadResult{}, err
	}
	return res, nil
}

// GatewayURL turns ipfs://<cid> into an HTTP URL on the configured gateway.
// Anything else is returned unchanged.
func (s *ContentStore) GatewayURL(uri string) string {
	return GatewayURL(s.gateway, uri)
}

func GatewayURL(gateway, uri string) string {
	if !strings.HasPrefix(uri, ipfsScheme) {
		return uri
	}
	return strings.TrimRight(gateway, "/") + "/ipfs/" + strings.TrimPrefix(uri, ipfsScheme)
}

// EncodeJSON renders v the way the metadata hash expects: field declaration
// order, no HTML escaping, no trailing newline.
func EncodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func wrapUpload(provider, op string, err error) error {
	var ue *UploadError
	if errors.As(err, &ue) {
		return err
	}
	return &UploadError{Provider: provider, Op: op, Err: err}
}

func metadataName(filename string) string {
	if filename == "" {
		return "metadata.json"
	}
	if i := strings.LastIndex(filename, "."); i > 0 {
		filename = filename[:i]
	}
	return filename + "-metadata.json"
}
