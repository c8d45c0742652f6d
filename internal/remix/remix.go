// Package remix forwards remix prompts to the AI gateway. The gateway
// records the trace and registers derivatives on its side; this client only
// relays the request and reports text, trace id and cost.
package remix

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/emarc99/chaincapture/internal/httpclient"
	"github.com/emarc99/chaincapture/internal/models"
	"github.com/emarc99/chaincapture/internal/utils"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const (
	DefaultStyle    = "creative transformation"
	DefaultProvider = "openai"
	costPerToken    = 0.00001
	statusModel     = "gpt-4o-mini"

	systemPrompt = "You are an AI that creates detailed descriptions for video/image remixes based on user prompts."
)

type RemixError struct {
	Status int
	Err    error
}

func (e *RemixError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("remix gateway returned %d: %v", e.Status, e.Err)
	}
	return "remix: " + e.Err.Error()
}

func (e *RemixError) Unwrap() error { return e.Err }

type Options struct {
	APIKey          string
	BaseURL         string
	CompletionsPath string
	Model           string
}

type Client struct {
	http  *httpclient.Client
	opts  Options
	cb    *gobreaker.CircuitBreaker
	log   *zap.SugaredLogger
	clock func() time.Time
}

func NewClient(hc *httpclient.Client, o Options, log *zap.SugaredLogger) *Client {
	if o.Model == "" {
		o.Model = "gpt-4o"
	}
	o.BaseURL = strings.TrimRight(o.BaseURL, "/")
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "remix-gateway",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		// bad input is the caller's fault, not the gateway's
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, utils.ErrInvalidInput)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Infow("circuit breaker state", "name", name, "from", from.String(), "to", to.String())
		},
	})
	return &Client{http: hc, opts: o, cb: cb, log: log, clock: time.Now}
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Provider string            `json:"provider"`
	Model    string            `json:"model"`
	Messages []message         `json:"messages"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type completionResponse struct {
	ID      string `json:"id"`
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
	Usage *struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

// Remix sends one chat completion and waits for the full answer.
func (c *Client) Remix(ctx context.Context, req models.RemixRequest) (*models.RemixResponse, error) {
	if c.opts.APIKey == "" {
		return nil, &RemixError{Err: fmt.Errorf("ABV API key: %w", utils.ErrNotConfigured)}
	}
	if req.SourceIPID == "" || strings.TrimSpace(req.RemixPrompt) == "" {
		return nil, fmt.Errorf("%w: Missing required fields: sourceIPId, remixPrompt", utils.ErrInvalidInput)
	}
	provider := req.Model
	if provider == "" {
		provider = DefaultProvider
	}
	style := req.Style
	if style == "" {
		style = DefaultStyle
	}

	body := completionRequest{
		Provider: provider,
		Model:    c.opts.Model,
		Messages: []message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt(req.SourceMediaURL, style, req.RemixPrompt)},
		},
		Metadata: map[string]string{
			"sourceIPId":  req.SourceIPID,
			"contentType": "remix",
			"attribution": "ChainCapture AI Remix",
			"parentIP":    req.SourceIPID,
		},
	}

	start := c.clock()
	out, err := c.cb.Execute(func() (any, error) { return c.complete(ctx, body) })
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, &RemixError{Err: err}
		}
		return nil, err
	}
	resp := out.(*completionResponse)
	if len(resp.Choices) == 0 {
		return nil, &RemixError{Err: errors.New("gateway returned no choices")}
	}

	res := &models.RemixResponse{
		Description: resp.Choices[0].Message.Content,
		TraceID:     resp.ID,
	}
	if resp.Usage != nil && resp.Usage.TotalTokens > 0 {
		cost := float64(resp.Usage.TotalTokens) * costPerToken
		res.Cost = &cost
	}
	c.log.Infow("remix generated", "source", req.SourceIPID, "trace", res.TraceID,
		"provider", provider, "took", time.Since(start).String())
	return res, nil
}

// Status reports whether the gateway answers a minimal completion.
func (c *Client) Status(ctx context.Context) bool {
	if c.opts.APIKey == "" {
		return false
	}
	_, err := c.cb.Execute(func() (any, error) {
		return c.complete(ctx, completionRequest{
			Provider: DefaultProvider,
			Model:    statusModel,
			Messages: []message{{Role: "user", Content: "test"}},
		})
	})
	if err != nil {
		c.log.Warnw("remix gateway check failed", "err", err)
		return false
	}
	return true
}

func (c *Client) complete(ctx context.Context, body completionRequest) (*completionResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.BaseURL+c.opts.CompletionsPath, bytes.NewReader(payload))
	if err != nil {
		return nil, &RemixError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.opts.APIKey)

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return nil, &RemixError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, &RemixError{Err: err}
	}
	if resp.StatusCode/100 != 2 {
		return nil, &RemixError{Status: resp.StatusCode, Err: errors.New(gatewayMessage(raw))}
	}
	var out completionResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, &RemixError{Err: fmt.Errorf("decode response: %w", err)}
	}
	return &out, nil
}

func userPrompt(mediaURL, style, prompt string) string {
	return fmt.Sprintf(`Create a detailed remix description for the following:
Original Media: %s
Remix Style: %s
User Prompt: %s

Generate a comprehensive description that can be used to create the remixed version.`, mediaURL, style, prompt)
}

// gatewayMessage pulls error.message out of an OpenAI style error body.
func gatewayMessage(raw []byte) string {
	var e struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(raw, &e) == nil && e.Error.Message != "" {
		return e.Error.Message
	}
	s := strings.TrimSpace(string(raw))
	if len(s) > 200 {
		s = s[:200]
	}
	if s == "" {
		s = "empty body"
	}
	return s
}
