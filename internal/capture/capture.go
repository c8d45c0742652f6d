package capture

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/png"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/emarc99/chaincapture/internal/models"
	"github.com/emarc99/chaincapture/internal/utils"
)

const (
	MaxFileSize    = 100 << 20
	thumbnailWidth = 320
)

var (
	ErrEmptyFile       = fmt.Errorf("%w: file is empty", utils.ErrInvalidInput)
	ErrFileTooLarge    = fmt.Errorf("%w: file too large", utils.ErrInvalidInput)
	ErrInvalidFileType = fmt.Errorf("%w: only image and video captures are accepted", utils.ErrInvalidInput)
)

var AllowedMimeTypes = map[string]models.MediaType{
	"image/jpeg":      models.MediaImage,
	"image/png":       models.MediaImage,
	"image/gif":       models.MediaImage,
	"image/webp":      models.MediaImage,
	"video/webm":      models.MediaVideo,
	"video/mp4":       models.MediaVideo,
	"video/quicktime": models.MediaVideo,
}

// New validates an uploaded blob and wraps it as a CapturedMedia. A zero
// capturedAt means "now". Thumbnails are best effort: an image the decoder
// cannot read is still accepted, just without one.
func New(filename, contentType string, data []byte, capturedAt time.Time, maxSize int64) (*models.CapturedMedia, error) {
	if maxSize <= 0 {
		maxSize = MaxFileSize
	}
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}
	if int64(len(data)) > maxSize {
		return nil, ErrFileTooLarge
	}

	ct := normalizeContentType(contentType)
	if ct == "" || ct == "application/octet-stream" {
		ct = normalizeContentType(http.DetectContentType(data))
	}
	mt, ok := AllowedMimeTypes[ct]
	if !ok {
		return nil, ErrInvalidFileType
	}
	if capturedAt.IsZero() {
		capturedAt = time.Now()
	}

	id := fmt.Sprintf("%s-%d", mt, capturedAt.UnixMilli())
	m := &models.CapturedMedia{
		ID:          id + "-" + utils.NewID()[:8],
		Type:        mt,
		Filename:    safeFilename(filename, id, ct),
		ContentType: ct,
		Data:        data,
		Size:        int64(len(data)),
		CapturedAt:  capturedAt.UTC(),
	}
	if mt == models.MediaImage {
		if thumb, err := Thumbnail(data); err == nil {
			m.Thumbnail = thumb
		}
	}
	return m, nil
}

// Thumbnail renders a 320px wide JPEG preview as a data URI.
func Thumbnail(data []byte) (string, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	thumb := imaging.Resize(img, thumbnailWidth, 0, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(80)); err != nil {
		return "", err
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func normalizeContentType(ct string) string {
	if ct == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(ct))
	}
	if mt == "image/jpg" {
		return "image/jpeg"
	}
	return mt
}

func safeFilename(name, fallback, ct string) string {
	base := filepath.Base(strings.TrimSpace(name))
	if base == "." || base == "/" || base == "" {
		base = fallback + extensionFor(ct)
	}
	base = strings.Join(strings.Fields(base), "-")
	if len(base) > 255 {
		base = base[len(base)-255:]
	}
	return base
}

func extensionFor(ct string) string {
	switch ct {
	case "image/jpeg":
		return ".jpg"
	case "video/webm":
		return ".webm"
	}
	if exts, _ := mime.ExtensionsByType(ct); len(exts) > 0 {
		return exts[0]
	}
	return ""
}
