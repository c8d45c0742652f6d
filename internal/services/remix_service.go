package service

import (
	"context"

	"github.com/emarc99/chaincapture/internal/chain"
	"github.com/emarc99/chaincapture/internal/events"
	"github.com/emarc99/chaincapture/internal/models"
	"github.com/emarc99/chaincapture/internal/repository"
	"github.com/emarc99/chaincapture/internal/utils"
	"go.uber.org/zap"
)

type Remixer interface {
	Remix(ctx context.Context, req models.RemixRequest) (*models.RemixResponse, error)
	Status(ctx context.Context) bool
}

type RemixService struct {
	client  Remixer
	repo    repository.AssetRepo
	pub     events.Publisher
	gateway func(uri string) string
	log     *zap.SugaredLogger
}

func NewRemixService(client Remixer, repo repository.AssetRepo, pub events.Publisher, gateway func(string) string, log *zap.SugaredLogger) *RemixService {
	if pub == nil {
		pub = events.Nop{}
	}
	if gateway == nil {
		gateway = func(s string) string { return s }
	}
	return &RemixService{client: client, repo: repo, pub: pub, gateway: gateway, log: log}
}

// Remix relays the prompt to the gateway. When the source asset is in the
// archive its media URL is filled in for the model.
func (s *RemixService) Remix(ctx context.Context, req models.RemixRequest) (*models.RemixResponse, error) {
	if err := utils.Validate(req); err != nil {
		return nil, err
	}
	if chain.IsAddress(req.SourceIPID) {
		req.SourceIPID = chain.Checksum(req.SourceIPID)
	}
	owner := ""
	if a, err := s.repo.GetByID(ctx, req.SourceIPID); err == nil {
		owner = a.Owner
		if req.SourceMediaURL == "" {
			req.SourceMediaURL = s.gateway(a.ContentURI)
		}
	}

	res, err := s.client.Remix(ctx, req)
	if err != nil {
		return nil, err
	}
	ev := events.Event{
		Type:    events.TypeRemixCompleted,
		Address: owner,
		IPID:    req.SourceIPID,
		TraceID: res.TraceID,
	}
	if res.Cost != nil {
		ev.Data = map[string]any{"cost": *res.Cost}
	}
	if err := s.pub.Publish(ctx, ev); err != nil {
		s.log.Warnw("publish event failed", "type", ev.Type, "err", err)
	}
	return res, nil
}

func (s *RemixService) Available(ctx context.Context) bool {
	return s.client.Status(ctx)
}
