// Package auth provides the API-key guard for the HTTP API.
package auth

import (
	"fmt"
	"net/http"

	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 12

// Guard validates API keys against a bcrypt hash computed once at startup,
// so the plain key never sits in memory past initialization.
type Guard struct {
	hash []byte // nil in open mode
}

// NewGuard creates a Guard. An empty key enables open mode: every request
// is allowed, the default for a local tool.
func NewGuard(key string) (*Guard, error) {
	if key == "" {
		return &Guard{}, nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("auth.NewGuard: %w", err)
	}
	return &Guard{hash: hash}, nil
}

// Open reports whether the guard runs in open mode.
func (g *Guard) Open() bool { return g.hash == nil }

// Check reports whether key is valid.
func (g *Guard) Check(key string) bool {
	if g.hash == nil {
		return true
	}
	return bcrypt.CompareHashAndPassword(g.hash, []byte(key)) == nil
}

// RequireAPIKey is middleware that validates a Bearer token from the
// Authorization header or an X-API-Key header.
func (g *Guard) RequireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if g.hash == nil {
			next.ServeHTTP(w, r)
			return
		}
		key := ""
		auth := r.Header.Get("Authorization")
		if len(auth) > 7 && auth[:7] == "Bearer " {
			key = auth[7:]
		}
		if key == "" {
			key = r.Header.Get("X-API-Key")
		}
		if key == "" || !g.Check(key) {
			http.Error(w, `{"success":false,"error":"unauthorized"}`, http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
