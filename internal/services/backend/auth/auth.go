// Package auth issues and verifies the backend's bearer tokens.
package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/louisbranch/boardkit/internal/platform/errors"
)

const issuer = "boardkit-backend"

// minSecretBytes is the shortest HMAC secret accepted.
const minSecretBytes = 32

// Issuer signs HS256 tokens for users that present the shared API key.
type Issuer struct {
	secret []byte
	apiKey string
	ttl    time.Duration
	now    func() time.Time
}

type claims struct {
	jwt.RegisteredClaims
}

// NewIssuer validates the secret and API key.
func NewIssuer(secret, apiKey string, ttl time.Duration) (*Issuer, error) {
	if len(secret) < minSecretBytes {
		return nil, fmt.Errorf("jwt secret must be at least %d bytes", minSecretBytes)
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("api key is required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("token ttl must be positive")
	}
	return &Issuer{secret: []byte(secret), apiKey: apiKey, ttl: ttl, now: time.Now}, nil
}

// Login checks apiKey and issues a token for userID.
func (i *Issuer) Login(apiKey, userID string) (token string, expiresAt time.Time, err error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", time.Time{}, apperrors.Validation("user_id", "user id is required")
	}
	if subtle.ConstantTimeCompare([]byte(apiKey), []byte(i.apiKey)) != 1 {
		return "", time.Time{}, apperrors.E(apperrors.KindUnauthorized, "invalid api key")
	}
	return i.Issue(userID)
}

// Issue signs a token for userID.
func (i *Issuer) Issue(userID string) (string, time.Time, error) {
	now := i.now().UTC()
	expiresAt := now.Add(i.ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify returns the user a token was issued to.
func (i *Issuer) Verify(token string) (string, error) {
	var parsed claims
	_, err := jwt.ParseWithClaims(token, &parsed, func(*jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return "", mapJWTError(err)
	}
	if strings.TrimSpace(parsed.Subject) == "" {
		return "", apperrors.E(apperrors.KindUnauthorized, "token has no subject")
	}
	return parsed.Subject, nil
}

func mapJWTError(err error) error {
	if errors.Is(err, jwt.ErrTokenExpired) {
		return apperrors.EK(apperrors.KindUnauthorized, "notice.unauthorized", "session expired")
	}
	return apperrors.E(apperrors.KindUnauthorized, "invalid token")
}
