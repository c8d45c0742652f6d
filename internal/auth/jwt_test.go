package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/emarc99/chaincapture/internal/utils"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func keyPair(t *testing.T) (*rsa.PrivateKey, []byte) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	return key, pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})
}

func sign(t *testing.T, key *rsa.PrivateKey, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func TestVerifyToken(t *testing.T) {
	key, pub := keyPair(t)
	path := filepath.Join(t.TempDir(), "pub.pem")
	require.NoError(t, os.WriteFile(path, pub, 0o600))

	v, err := NewJWTVerifier(path)
	require.NoError(t, err)

	tok := sign(t, key, jwt.MapClaims{"sub": "0xabc", "exp": time.Now().Add(time.Hour).Unix()})
	wallet, err := v.VerifyToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "0xabc", wallet)

	tok = sign(t, key, jwt.MapClaims{"wallet": "0xdef", "sub": "user-1", "exp": time.Now().Add(time.Hour).Unix()})
	wallet, err = v.VerifyToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "0xdef", wallet)
}

func TestVerifyTokenRejects(t *testing.T) {
	key, pub := keyPair(t)
	other, _ := keyPair(t)
	v, err := NewJWTVerifierFromPEM(pub)
	require.NoError(t, err)

	cases := map[string]string{
		"expired":     sign(t, key, jwt.MapClaims{"sub": "0xabc", "exp": time.Now().Add(-time.Hour).Unix()}),
		"no exp":      sign(t, key, jwt.MapClaims{"sub": "0xabc"}),
		"wrong key":   sign(t, other, jwt.MapClaims{"sub": "0xabc", "exp": time.Now().Add(time.Hour).Unix()}),
		"no wallet":   sign(t, key, jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()}),
		"not a token": "abc",
	}
	hs, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "0xabc", "exp": time.Now().Add(time.Hour).Unix()}).SignedString([]byte("secret"))
	require.NoError(t, err)
	cases["hmac"] = hs

	for name, tok := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := v.VerifyToken(tok)
			assert.ErrorIs(t, err, utils.ErrUnauthorized)
		})
	}
}
