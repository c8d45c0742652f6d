package middleware

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLocalLimiter(t *testing.T) {
	l := NewLocalLimiter(60, 2)
	ctx := context.Background()

	ok, _ := l.Allow(ctx, "a")
	assert.True(t, ok)
	ok, _ = l.Allow(ctx, "a")
	assert.True(t, ok)
	ok, _ = l.Allow(ctx, "a")
	assert.False(t, ok)

	ok, _ = l.Allow(ctx, "b")
	assert.True(t, ok)

	l.sweep(time.Now().Add(time.Minute))
	ok, _ = l.Allow(ctx, "a")
	assert.True(t, ok)
}

type errLimiter struct{}

func (errLimiter) Allow(context.Context, string) (bool, error) { return false, errors.New("redis down") }

func TestRateLimitHandler(t *testing.T) {
	app := fiber.New()
	app.Use(RateLimit(NewLocalLimiter(60, 1), zap.NewNop().Sugar()))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString("ok") })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.JSONEq(t, `{"success":false,"error":"rate limit exceeded"}`, string(body))

	broken := fiber.New()
	broken.Use(RateLimit(errLimiter{}, zap.NewNop().Sugar()))
	broken.Get("/", func(c *fiber.Ctx) error { return c.SendString("ok") })
	resp, err = broken.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

type fakeVerifier map[string]string

func (f fakeVerifier) VerifyToken(tok string) (string, error) {
	if w, ok := f[tok]; ok {
		return w, nil
	}
	return "", errors.New("bad token")
}

func TestRequireJWT(t *testing.T) {
	app := fiber.New()
	app.Post("/", RequireJWT(fakeVerifier{"good": "0xabc"}), func(c *fiber.Ctx) error {
		return c.SendString(c.Locals(WalletKey).(string))
	})

	cases := []struct {
		header string
		status int
	}{
		{"", http.StatusUnauthorized},
		{"Basic good", http.StatusUnauthorized},
		{"Bearer bad", http.StatusUnauthorized},
		{"Bearer good", http.StatusOK},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, tc.status, resp.StatusCode, tc.header)
	}

	open := fiber.New()
	open.Post("/", RequireJWT(nil), func(c *fiber.Ctx) error { return c.SendStatus(http.StatusNoContent) })
	resp, err := open.Test(httptest.NewRequest(http.MethodPost, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}
