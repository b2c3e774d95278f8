// Package auth signs and verifies the tokens that carry a user identity between requests.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwt"
)

type Verifier interface {
	Verify(ctx context.Context, tokenString string) (jwt.Token, error)
}

// HMACTokens issues and verifies HS256 tokens with a shared secret.
type HMACTokens struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// NewHMACTokens creates an HMACTokens. A zero ttl issues tokens without expiry.
func NewHMACTokens(secret, issuer string, ttl time.Duration) (*HMACTokens, error) {
	if len(secret) < 32 {
		return nil, errors.New("token secret must be at least 32 bytes")
	}
	return &HMACTokens{secret: []byte(secret), issuer: issuer, ttl: ttl}, nil
}

// Sign returns a compact token whose subject is subject.
func (h *HMACTokens) Sign(subject string) (string, error) {
	now := time.Now()
	b := jwt.NewBuilder().
		Subject(subject).
		Issuer(h.issuer).
		IssuedAt(now)
	if h.ttl > 0 {
		b = b.Expiration(now.Add(h.ttl))
	}
	token, err := b.Build()
	if err != nil {
		return "", fmt.Errorf("failed to build token: %w", err)
	}
	signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256(), h.secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return string(signed), nil
}

func (h *HMACTokens) Verify(_ context.Context, tokenString string) (jwt.Token, error) {
	token, err := jwt.Parse(
		[]byte(tokenString),
		jwt.WithKey(jwa.HS256(), h.secret),
		jwt.WithValidate(true),
		jwt.WithIssuer(h.issuer),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to verify token: %w", err)
	}
	return token, nil
}
