package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/emarc99/chaincapture/internal/middleware"
	"github.com/emarc99/chaincapture/internal/models"
	service "github.com/emarc99/chaincapture/internal/services"
	"github.com/emarc99/chaincapture/internal/utils"
	"github.com/gofiber/fiber/v2"
)

// POST /api/upload-ipfs (multipart/form-data 'file', 'metadata')
func (h *Handler) UploadIPFS(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	metaRaw := c.FormValue("metadata")
	if err != nil || metaRaw == "" {
		return utils.JSONError(c, fiber.StatusBadRequest, "Missing file or metadata")
	}
	var meta models.IPMetadata
	if err := json.Unmarshal([]byte(metaRaw), &meta); err != nil {
		return utils.JSONError(c, fiber.StatusBadRequest, "metadata is not valid JSON")
	}

	f, err := fileHeader.Open()
	if err != nil {
		return utils.JSONError(c, fiber.StatusInternalServerError, "cannot open file")
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return utils.JSONError(c, fiber.StatusInternalServerError, "cannot read file")
	}

	out, err := h.upload.Upload(c.UserContext(), service.UploadInput{
		Filename:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get(fiber.HeaderContentType),
		Data:        data,
		Metadata:    meta,
	})
	h.metrics.Step("upload", err)
	if err != nil {
		h.log.Errorw("ipfs upload failed", "file", fileHeader.Filename, "err", err)
		return utils.Fail(c, err)
	}

	resp := fiber.Map{
		"mediaUri":    out.Result.MediaURI,
		"metadataUri": out.Result.MetadataURI,
		"mediaUrl":    out.Media.URL,
		"id":          out.Media.ID,
		"type":        out.Media.Type,
		"metadata":    out.Metadata,
	}
	if out.Media.Thumbnail != "" {
		resp["thumbnail"] = out.Media.Thumbnail
	}
	return utils.JSONSuccess(c, fiber.StatusOK, resp)
}

// POST /api/register-ip
func (h *Handler) RegisterIP(c *fiber.Ctx) error {
	var in service.RegisterInput
	if err := c.BodyParser(&in); err != nil {
		return utils.JSONError(c, fiber.StatusBadRequest, "invalid request body")
	}
	// an authenticated caller receives the token unless they name someone else
	if wallet, ok := c.Locals(middleware.WalletKey).(string); ok && in.Recipient == "" {
		in.Recipient = wallet
	}
	out, err := h.register.Register(c.UserContext(), in)
	h.metrics.Step("register", err)
	if err != nil {
		h.log.Errorw("ip registration failed", "media", in.MediaURI, "err", err)
		return utils.Fail(c, err)
	}
	return utils.JSONSuccess(c, fiber.StatusOK, fiber.Map{
		"ipId":        out.IPID,
		"tokenId":     out.TokenID,
		"txHash":      out.TxHash,
		"message":     "IP Asset registered successfully!",
		"explorerUrl": out.ExplorerURL,
	})
}

type attachLicenseRequest struct {
	IPID           string      `json:"ipId"`
	LicenseTermsID json.Number `json:"licenseTermsId"`
}

// POST /api/attach-license
func (h *Handler) AttachLicense(c *fiber.Ctx) error {
	var req attachLicenseRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.JSONError(c, fiber.StatusBadRequest, "invalid request body")
	}
	terms, err := strconv.ParseUint(req.LicenseTermsID.String(), 10, 64)
	if err != nil {
		return utils.Fail(c, fmt.Errorf("%w: licenseTermsId must be a positive integer", utils.ErrInvalidInput))
	}
	tx, err := h.register.AttachLicense(c.UserContext(), req.IPID, terms)
	h.metrics.Step("license", err)
	if err != nil {
		return utils.Fail(c, err)
	}
	return utils.JSONSuccess(c, fiber.StatusOK, fiber.Map{"txHash": tx})
}

// GET /api/get-ip-assets?address=0x...
func (h *Handler) GetIPAssets(c *fiber.Ctx) error {
	assets, err := h.ownership.Assets(c.UserContext(), strings.TrimSpace(c.Query("address")))
	h.metrics.Step("scan", err)
	if err != nil {
		return utils.Fail(c, err)
	}
	return utils.JSONSuccess(c, fiber.StatusOK, fiber.Map{"ipAssets": assets, "count": len(assets)})
}

// GET /api/ip-assets?owner=0x...
func (h *Handler) ListIPAssets(c *fiber.Ctx) error {
	assets, err := h.register.Archived(c.UserContext(), strings.TrimSpace(c.Query("owner")))
	if err != nil {
		return utils.Fail(c, err)
	}
	return utils.JSONSuccess(c, fiber.StatusOK, fiber.Map{"ipAssets": assets, "count": len(assets)})
}

// GET /api/ip-assets/:ipId
func (h *Handler) GetIPAsset(c *fiber.Ctx) error {
	asset, err := h.register.Get(c.UserContext(), c.Params("ipId"))
	if err != nil {
		return utils.Fail(c, err)
	}
	return utils.JSONSuccess(c, fiber.StatusOK, fiber.Map{
		"ipAsset":     asset,
		"explorerUrl": h.register.ExplorerURL(asset.IPID),
	})
}

// GET /ipfs/:cid serves content pinned to the in-process store.
func (h *Handler) ServeLocalContent(c *fiber.Ctx) error {
	data, ct, err := h.local.Get(c.Params("cid"))
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return utils.JSONError(c, fiber.StatusNotFound, "not found")
		}
		return utils.Fail(c, err)
	}
	c.Set(fiber.HeaderContentType, ct)
	c.Set(fiber.HeaderCacheControl, "public, max-age=31536000, immutable")
	return c.Send(data)
}
