package models

import "time"

type CapturedMedia struct {
	ID          string    `json:"id"`
	Type        MediaType `json:"type"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	Data        []byte    `json:"-"`
	URL         string    `json:"url,omitempty"`
	Thumbnail   string    `json:"thumbnail,omitempty"` // data URI, images only
	Size        int64     `json:"size"`
	CapturedAt  time.Time `json:"captured_at"`
}

type UploadResult struct {
	MediaURI    string `json:"mediaUri"`
	MetadataURI string `json:"metadataUri"`
}

type RemixRequest struct {
	SourceIPID     string `json:"sourceIPId" validate:"required"`
	SourceMediaURL string `json:"sourceMediaUrl"`
	RemixPrompt    string `json:"remixPrompt" validate:"required,max=2000"`
	Style          string `json:"style"`
	Model          string `json:"model" validate:"omitempty,oneof=openai anthropic gemini"`
}

type RemixResponse struct {
	Description string   `json:"description"`
	TraceID     string   `json:"traceId"`
	Cost        *float64 `json:"cost,omitempty"`
}
