// Package inflight deduplicates user actions that must not run twice at once.
package inflight

import "sync"

// Action names a guarded user action.
type Action string

const (
	AddToCart Action = "add-to-cart"
	Checkout  Action = "checkout"
	BuyNow    Action = "buy-now"
)

type key struct {
	subject string
	action  Action
}

// Guard hands out at most one token per (subject, action) pair.
// The zero value is not usable; create one with NewGuard.
type Guard struct {
	mu     sync.Mutex
	active map[key]struct{}
}

func NewGuard() *Guard {
	return &Guard{active: make(map[key]struct{})}
}

// Acquire takes the token for subject and action. When another holder has it,
// ok is false and release is nil. release is idempotent.
func (g *Guard) Acquire(subject string, action Action) (release func(), ok bool) {
	k := key{subject: subject, action: action}

	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.active[k]; busy {
		return nil, false
	}
	g.active[k] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.active, k)
			g.mu.Unlock()
		})
	}, true
}

// Active reports whether the action is currently held for subject.
func (g *Guard) Active(subject string, action Action) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, busy := g.active[key{subject: subject, action: action}]
	return busy
}
