package auth

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"os"

	"github.com/emarc99/chaincapture/internal/utils"
	"github.com/golang-jwt/jwt/v5"
)

// JWTVerifier checks RS256 bearer tokens issued by the wallet login service
// and returns the subject, a wallet address.
type JWTVerifier struct {
	pub *rsa.PublicKey
}

func NewJWTVerifier(pubPath string) (*JWTVerifier, error) {
	b, err := os.ReadFile(pubPath)
	if err != nil {
		return nil, err
	}
	return NewJWTVerifierFromPEM(b)
}

func NewJWTVerifierFromPEM(pem []byte) (*JWTVerifier, error) {
	pub, err := jwt.ParseRSAPublicKeyFromPEM(pem)
	if err != nil {
		return nil, err
	}
	return &JWTVerifier{pub: pub}, nil
}

// VerifyToken returns the wallet claim of a valid token.
func (j *JWTVerifier) VerifyToken(token string) (string, error) {
	t, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		return j.pub, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return "", fmt.Errorf("%w: %v", utils.ErrUnauthorized, err)
	}
	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("%w: invalid claims", utils.ErrUnauthorized)
	}
	for _, k := range []string{"wallet", "address", "sub"} {
		if v, ok := claims[k].(string); ok && v != "" {
			return v, nil
		}
	}
	return "", fmt.Errorf("%w: %v", utils.ErrUnauthorized, errors.New("wallet not found in token"))
}
