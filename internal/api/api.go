// Package api sets up the HTTP routes and middleware for the tokentools REST API.
package api

import (
	"net/http"

	"github.com/iptoux/tokentools/internal/api/handlers"
	"github.com/iptoux/tokentools/internal/auth"
	"github.com/iptoux/tokentools/internal/config"
	"github.com/iptoux/tokentools/internal/session"
	"github.com/iptoux/tokentools/internal/store"
	"github.com/iptoux/tokentools/internal/ws"
)

// Deps holds all dependencies injected into the API handlers.
type Deps struct {
	Store   *store.Store
	Config  *config.Config
	Hub     *ws.Hub
	Exact   session.ExactEncoder
	Guard   *auth.Guard
	Version string
}

// SetupRoutes registers all HTTP routes on the given ServeMux.
// Uses Go 1.22 method+pattern routing syntax.
func SetupRoutes(mux *http.ServeMux, deps *Deps) {
	h := handlers.New(deps.Store, deps.Config, deps.Hub, deps.Exact, deps.Version)

	requireAuth := func(next http.Handler) http.Handler {
		return deps.Guard.RequireAPIKey(next)
	}

	// ── Conversion ───────────────────────────────────────────────────────────
	mux.Handle("POST /api/v1/convert", requireAuth(http.HandlerFunc(h.Convert)))
	mux.Handle("POST /api/v1/tokenize", requireAuth(http.HandlerFunc(h.Tokenize)))
	mux.Handle("POST /api/v1/tokens/export", requireAuth(http.HandlerFunc(h.ExportTokens)))

	// ── Snippets ─────────────────────────────────────────────────────────────
	mux.Handle("GET /api/v1/snippets", requireAuth(http.HandlerFunc(h.ListSnippets)))
	mux.Handle("POST /api/v1/snippets", requireAuth(http.HandlerFunc(h.CreateSnippet)))
	mux.Handle("GET /api/v1/snippets/{id}", requireAuth(http.HandlerFunc(h.GetSnippet)))
	mux.Handle("DELETE /api/v1/snippets/{id}", requireAuth(http.HandlerFunc(h.DeleteSnippet)))

	// ── History and status ───────────────────────────────────────────────────
	mux.Handle("GET /api/v1/history", requireAuth(http.HandlerFunc(h.History)))
	mux.Handle("GET /api/v1/status", requireAuth(http.HandlerFunc(h.Status)))
}
