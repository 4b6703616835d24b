package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuer = "sos-sentinel"

var (
	// ErrNoSession is returned when no user is signed in.
	ErrNoSession = errors.New("no authenticated session")
	// ErrInvalidSession is returned for a token that fails verification.
	ErrInvalidSession = errors.New("invalid session token")
	// errNoSigningKey is returned when a token has to be signed or checked without a key.
	errNoSigningKey = errors.New("signing key is empty")
)

// Provider answers who is signed in.
type Provider struct {
	token string
	key   []byte
	now   func() time.Time
}

// NewProvider creates a provider for a stored session token.
func NewProvider(token, signingKey string) *Provider {
	return &Provider{
		token: strings.TrimSpace(token),
		key:   []byte(signingKey),
		now:   time.Now,
	}
}

// CurrentUserID verifies the session token and returns its subject.
func (p *Provider) CurrentUserID(context.Context) (string, error) {
	if p.token == "" {
		return "", ErrNoSession
	}

	if len(p.key) == 0 {
		return "", errNoSigningKey
	}

	var claims jwt.RegisteredClaims

	_, err := jwt.ParseWithClaims(p.token, &claims,
		func(*jwt.Token) (any, error) { return p.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(p.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidSession, err)
	}

	if strings.TrimSpace(claims.Subject) == "" {
		return "", ErrNoSession
	}

	return claims.Subject, nil
}

// Sign issues a session token for userID. A zero ttl never expires.
func Sign(userID, signingKey string, now time.Time, ttl time.Duration) (string, error) {
	if signingKey == "" {
		return "", errNoSigningKey
	}

	claims := jwt.RegisteredClaims{
		Issuer:   issuer,
		Subject:  userID,
		IssuedAt: jwt.NewNumericDate(now),
		ID:       uuid.NewString(),
	}

	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(signingKey))
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}

	return token, nil
}
