// Package session keeps the identifier of the signed-in user between requests.
package session

import (
	"errors"
	"net/http"
	"time"
)

// ErrNoSession is returned by Store.Load when the request carries no usable session.
var ErrNoSession = errors.New("no session")

// Store reads, writes and clears the user identifier bound to a browser.
type Store interface {
	// Load returns the stored user identifier or ErrNoSession.
	Load(r *http.Request) (string, error)
	// Save binds userID to the browser that sent r.
	Save(w http.ResponseWriter, r *http.Request, userID string) error
	// Clear removes the binding. Clearing an absent session is not an error.
	Clear(w http.ResponseWriter, r *http.Request) error
}

// CookieOptions are the attributes of the session cookie.
type CookieOptions struct {
	Name   string
	MaxAge time.Duration
	Secure bool
}

func (o CookieOptions) cookie(value string) *http.Cookie {
	c := &http.Cookie{
		Name:     o.Name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   o.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	if o.MaxAge > 0 {
		c.MaxAge = int(o.MaxAge.Seconds())
	}
	return c
}

func (o CookieOptions) expired() *http.Cookie {
	c := o.cookie("")
	c.MaxAge = -1
	return c
}

func (o CookieOptions) read(r *http.Request) (string, bool) {
	c, err := r.Cookie(o.Name)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}
