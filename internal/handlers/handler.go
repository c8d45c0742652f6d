package handlers

import (
	"github.com/emarc99/chaincapture/internal/metrics"
	service "github.com/emarc99/chaincapture/internal/services"
	"github.com/emarc99/chaincapture/internal/storage"
	"github.com/emarc99/chaincapture/internal/ws"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"
)

type Handler struct {
	upload    *service.UploadService
	register  *service.RegistrationService
	ownership *service.OwnershipService
	remix     *service.RemixService
	local     *storage.LocalStore
	hub       *ws.Hub
	metrics   *metrics.Metrics
	log       *zap.SugaredLogger
}

type Deps struct {
	Upload       *service.UploadService
	Registration *service.RegistrationService
	Ownership    *service.OwnershipService
	Remix        *service.RemixService
	// LocalStore is set when content is kept in process; it enables /ipfs/:cid.
	LocalStore *storage.LocalStore
	Hub        *ws.Hub
	Metrics    *metrics.Metrics
	Log        *zap.SugaredLogger
}

func NewHandler(d Deps) *Handler {
	if d.Metrics == nil {
		d.Metrics = metrics.New()
	}
	if d.Hub == nil {
		d.Hub = ws.NewHub()
	}
	d.Hub.OnCount(func(delta int) { d.Metrics.WSClients.Add(float64(delta)) })
	return &Handler{
		upload:    d.Upload,
		register:  d.Registration,
		ownership: d.Ownership,
		remix:     d.Remix,
		local:     d.LocalStore,
		hub:       d.Hub,
		metrics:   d.Metrics,
		log:       d.Log,
	}
}

// Routes mounts the API. guard protects the endpoints that spend gas or
// gateway credit; limit throttles every /api route.
func (h *Handler) Routes(app *fiber.App, guard, limit fiber.Handler) {
	api := app.Group("/api", limit)
	api.Post("/upload-ipfs", h.UploadIPFS)
	api.Post("/register-ip", guard, h.RegisterIP)
	api.Post("/attach-license", guard, h.AttachLicense)
	api.Post("/remix", guard, h.Remix)
	api.Get("/remix/status", h.RemixStatus)
	api.Get("/get-ip-assets", h.GetIPAssets)
	api.Get("/ip-assets", h.ListIPAssets)
	api.Get("/ip-assets/:ipId", h.GetIPAsset)

	if h.local != nil {
		app.Get("/ipfs/:cid", h.ServeLocalContent)
	}

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/activity", websocket.New(h.Activity))

	app.Get("/healthz", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/metrics", h.metrics.Handler())
}
