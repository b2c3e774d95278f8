package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgStore keeps sessions in Postgres; the cookie holds only an opaque session id.
type PgStore struct {
	pool *pgxpool.Pool
	opts CookieOptions
}

func NewPgStore(pool *pgxpool.Pool, opts CookieOptions) *PgStore {
	return &PgStore{pool: pool, opts: opts}
}

const (
	selectSession = `SELECT user_id FROM sessions WHERE id = $1 AND (expires_at IS NULL OR expires_at > now())`
	insertSession = `INSERT INTO sessions (id, user_id, expires_at) VALUES ($1, $2, $3)`
	deleteSession = `DELETE FROM sessions WHERE id = $1`
	deleteExpired = `DELETE FROM sessions WHERE expires_at IS NOT NULL AND expires_at <= now()`
)

func (s *PgStore) Load(r *http.Request) (string, error) {
	id, ok := s.sessionID(r)
	if !ok {
		return "", ErrNoSession
	}
	var userID string
	err := s.pool.QueryRow(r.Context(), selectSession, id).Scan(&userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNoSession
	}
	if err != nil {
		return "", fmt.Errorf("failed to load session: %w", err)
	}
	return userID, nil
}

// Save starts a new session and drops the one the request carried, if any.
func (s *PgStore) Save(w http.ResponseWriter, r *http.Request, userID string) error {
	ctx := r.Context()
	if old, ok := s.sessionID(r); ok {
		if _, err := s.pool.Exec(ctx, deleteSession, old); err != nil {
			return fmt.Errorf("failed to drop previous session: %w", err)
		}
	}

	id, err := uuid.NewRandom()
	if err != nil {
		return fmt.Errorf("failed to generate session id: %w", err)
	}
	var expiresAt *time.Time
	if s.opts.MaxAge > 0 {
		t := time.Now().Add(s.opts.MaxAge)
		expiresAt = &t
	}
	if _, err := s.pool.Exec(ctx, insertSession, id, userID, expiresAt); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	http.SetCookie(w, s.opts.cookie(id.String()))
	return nil
}

func (s *PgStore) Clear(w http.ResponseWriter, r *http.Request) error {
	http.SetCookie(w, s.opts.expired())
	id, ok := s.sessionID(r)
	if !ok {
		return nil
	}
	if _, err := s.pool.Exec(r.Context(), deleteSession, id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// PurgeExpired removes sessions past their expiry and reports how many were removed.
func (s *PgStore) PurgeExpired(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, deleteExpired)
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *PgStore) sessionID(r *http.Request) (uuid.UUID, bool) {
	raw, ok := s.opts.read(r)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
