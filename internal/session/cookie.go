package session

import (
	"fmt"
	"net/http"

	"github.com/abgdnv/storefront/pkg/auth"
)

// CookieStore keeps the user identifier in a signed token inside the cookie itself.
// A cookie whose signature does not verify is treated as absent.
type CookieStore struct {
	tokens *auth.HMACTokens
	opts   CookieOptions
}

func NewCookieStore(tokens *auth.HMACTokens, opts CookieOptions) *CookieStore {
	return &CookieStore{tokens: tokens, opts: opts}
}

func (s *CookieStore) Load(r *http.Request) (string, error) {
	raw, ok := s.opts.read(r)
	if !ok {
		return "", ErrNoSession
	}
	token, err := s.tokens.Verify(r.Context(), raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoSession, err)
	}
	subject, ok := token.Subject()
	if !ok || subject == "" {
		return "", ErrNoSession
	}
	return subject, nil
}

func (s *CookieStore) Save(w http.ResponseWriter, _ *http.Request, userID string) error {
	signed, err := s.tokens.Sign(userID)
	if err != nil {
		return fmt.Errorf("failed to sign session: %w", err)
	}
	http.SetCookie(w, s.opts.cookie(signed))
	return nil
}

func (s *CookieStore) Clear(w http.ResponseWriter, _ *http.Request) error {
	http.SetCookie(w, s.opts.expired())
	return nil
}
