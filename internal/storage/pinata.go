package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/emarc99/chaincapture/internal/httpclient"
	"github.com/emarc99/chaincapture/internal/utils"
)

type PinataStore struct {
	client *httpclient.Client
	apiURL string
	jwt    string
}

type pinataResponse struct {
	IpfsHash  string `json:"IpfsHash"`
	PinSize   int64  `json:"PinSize"`
	Timestamp string `json:"Timestamp"`
}

func NewPinataStore(client *httpclient.Client, apiURL, jwt string) *PinataStore {
	return &PinataStore{client: client, apiURL: strings.TrimRight(apiURL, "/"), jwt: jwt}
}

func (p *PinataStore) Name() string { return "pinata" }

func (p *PinataStore) PutFile(ctx context.Context, filename, contentType string, data []byte) (string, error) {
	if p.jwt == "" {
		return "", fmt.Errorf("pinata jwt: %w", utils.ErrNotConfigured)
	}
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(data); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiURL+"/pinning/pinFileToIPFS", &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return p.pin(ctx, req)
}

func (p *PinataStore) PutJSON(ctx context.Context, name string, doc []byte) (string, error) {
	if p.jwt == "" {
		return "", fmt.Errorf("pinata jwt: %w", utils.ErrNotConfigured)
	}
	payload, err := json.Marshal(map[string]any{
		"pinataContent":  json.RawMessage(doc),
		"pinataMetadata": map[string]string{"name": name},
	})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiURL+"/pinning/pinJSONToIPFS", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	return p.pin(ctx, req)
}

func (p *PinataStore) pin(ctx context.Context, req *http.Request) (string, error) {
	req.Header.Set("Authorization", "Bearer "+p.jwt)
	resp, err := p.client.Do(ctx, req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode/100 != 2 {
		return "", fmt.Errorf("pinata status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	var pr pinataResponse
	if err := json.Unmarshal(body, &pr); err != nil {
		return "", fmt.Errorf("decode pinata response: %w", err)
	}
	if pr.IpfsHash == "" {
		return "", fmt.Errorf("pinata response without IpfsHash")
	}
	return pr.IpfsHash, nil
}

// Ping checks the credential against the authentication test endpoint.
func (p *PinataStore) Ping(ctx context.Context) error {
	if p.jwt == "" {
		return fmt.Errorf("pinata jwt: %w", utils.ErrNotConfigured)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.apiURL+"/data/testAuthentication", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+p.jwt)
	resp, err := p.client.DoWithRetry(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("pinata authentication failed: status %d", resp.StatusCode)
	}
	return nil
}
