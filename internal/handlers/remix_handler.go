package handlers

import (
	"github.com/emarc99/chaincapture/internal/models"
	"github.com/emarc99/chaincapture/internal/utils"
	"github.com/gofiber/fiber/v2"
)

// POST /api/remix
func (h *Handler) Remix(c *fiber.Ctx) error {
	var req models.RemixRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.JSONError(c, fiber.StatusBadRequest, "invalid request body")
	}
	res, err := h.remix.Remix(c.UserContext(), req)
	h.metrics.Step("remix", err)
	if err != nil {
		h.log.Errorw("remix failed", "source", req.SourceIPID, "err", err)
		return utils.Fail(c, err)
	}
	body := fiber.Map{
		"description": res.Description,
		"traceId":     res.TraceID,
		"message":     "AI remix generated and registered as IP Asset",
	}
	if res.Cost != nil {
		body["cost"] = *res.Cost
	}
	return utils.JSONSuccess(c, fiber.StatusOK, body)
}

// GET /api/remix/status
func (h *Handler) RemixStatus(c *fiber.Ctx) error {
	return utils.JSONSuccess(c, fiber.StatusOK, fiber.Map{"available": h.remix.Available(c.UserContext())})
}
