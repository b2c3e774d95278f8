package session

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
)

type contextKey struct{}

// Session is the per-request view of the signed-in user.
type Session struct {
	UserID string
}

// Authenticated reports whether a user identifier is present.
func (s Session) Authenticated() bool {
	return s.UserID != ""
}

// WithSession returns a copy of ctx carrying s.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the Session placed by Loader, or an empty one.
func FromContext(ctx context.Context) Session {
	s, _ := ctx.Value(contextKey{}).(Session)
	return s
}

// Loader reads the store once per request and puts the result in the request context.
// Store failures other than ErrNoSession are logged and the request continues anonymously.
func Loader(store Store, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var s Session
			userID, err := store.Load(r)
			switch {
			case err == nil:
				s.UserID = userID
			case errors.Is(err, ErrNoSession):
			default:
				logger.WarnContext(r.Context(), "Failed to load session", "error", err)
			}
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), s)))
		})
	}
}

// RequireUser redirects anonymous requests to loginPath before the wrapped handler runs.
func RequireUser(loginPath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !FromContext(r.Context()).Authenticated() {
				http.Redirect(w, r, loginPath, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
