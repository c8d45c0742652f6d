package httpclient

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

type ClientConfig struct {
	Timeout         time.Duration
	RetryMaxElapsed time.Duration
	MaxIdleConns    int
	IdleConnTimeout time.Duration
}

type Client struct {
	http *http.Client
	conf ClientConfig
}

func NewClient(conf ClientConfig) *Client {
	if conf.MaxIdleConns == 0 {
		conf.MaxIdleConns = 32
	}
	if conf.RetryMaxElapsed == 0 {
		conf.RetryMaxElapsed = 10 * time.Second
	}
	if conf.IdleConnTimeout == 0 {
		conf.IdleConnTimeout = 90 * time.Second
	}
	tr := &http.Transport{
		Proxy:           http.ProxyFromEnvironment,
		DialContext:     (&net.Dialer{Timeout: 5 * time.Second}).DialContext,
		MaxIdleConns:    conf.MaxIdleConns,
		IdleConnTimeout: conf.IdleConnTimeout,
	}
	return &Client{
		http: &http.Client{Transport: tr, Timeout: conf.Timeout},
		conf: conf,
	}
}

// Do issues the request once. Uploads and other non-idempotent calls go
// through here.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	return c.http.Do(req.WithContext(ctx))
}

// DoWithRetry runs an idempotent request with exponential backoff. 5xx and
// transport errors are retried; any other status is returned as is.
func (c *Client) DoWithRetry(ctx context.Context, req *http.Request) (*http.Response, error) {
	if req.Body != nil && req.GetBody == nil {
		return nil, fmt.Errorf("httpclient: retried request needs a replayable body")
	}
	var resp *http.Response
	operation := func() error {
		r := req.Clone(ctx)
		if req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return backoff.Permanent(err)
			}
			r.Body = body
		}
		res, err := c.http.Do(r)
		if err != nil {
			return err
		}
		if res.StatusCode >= 500 {
			// drain so the connection can be reused
			_, _ = io.Copy(io.Discard, res.Body)
			res.Body.Close()
			return fmt.Errorf("upstream status %d", res.StatusCode)
		}
		resp = res
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = c.conf.RetryMaxElapsed
	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return nil, err
	}
	return resp, nil
}
