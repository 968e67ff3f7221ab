// Package handlers provides HTTP handler implementations for the REST API.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/iptoux/tokentools/internal/config"
	"github.com/iptoux/tokentools/internal/session"
	"github.com/iptoux/tokentools/internal/store"
	"github.com/iptoux/tokentools/internal/ws"
)

// Handler holds all shared dependencies for API handler methods.
type Handler struct {
	store   *store.Store
	config  *config.Config
	hub     *ws.Hub
	exact   session.ExactEncoder
	version string
	started time.Time
}

// New creates a Handler with all dependencies.
func New(st *store.Store, cfg *config.Config, hub *ws.Hub, exact session.ExactEncoder, version string) *Handler {
	return &Handler{
		store:   st,
		config:  cfg,
		hub:     hub,
		exact:   exact,
		version: version,
		started: time.Now(),
	}
}

// ── Response helpers ──────────────────────────────────────────────────────────

type response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

type paginatedResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
	Meta    pageMeta    `json:"meta"`
}

type pageMeta struct {
	Total int `json:"total"`
	Limit int `json:"limit"`
}

func ok(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response{Success: true, Data: data})
}

func okPaginated(w http.ResponseWriter, data interface{}, total, limit int) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(paginatedResponse{
		Success: true,
		Data:    data,
		Meta:    pageMeta{Total: total, Limit: limit},
	})
}

func fail(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(response{Success: false, Error: msg})
}

func failWithData(w http.ResponseWriter, code int, msg string, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(response{Success: false, Data: data, Error: msg})
}

func decode(r *http.Request, v interface{}) error {
	return json.NewDecoder(r.Body).Decode(v)
}

func pathID(r *http.Request, name string) string {
	return r.PathValue(name)
}
