package handlers

import (
	"net/http"
	"strconv"
	"time"
)

// History handles GET /api/v1/history.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	convs, err := h.store.ListConversions(r.Context(), limit)
	if err != nil {
		fail(w, http.StatusInternalServerError, "list: "+err.Error())
		return
	}
	total, err := h.store.CountConversions(r.Context())
	if err != nil {
		fail(w, http.StatusInternalServerError, "count: "+err.Error())
		return
	}
	okPaginated(w, convs, total, limit)
}

// Status handles GET /api/v1/status.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	total, err := h.store.CountConversions(r.Context())
	if err != nil {
		fail(w, http.StatusInternalServerError, "count: "+err.Error())
		return
	}
	ok(w, map[string]interface{}{
		"version":       h.version,
		"uptime":        time.Since(h.started).Round(time.Second).String(),
		"default_model": h.config.DefaultModel,
		"ws_clients":    h.hub.ClientCount(),
		"conversions":   total,
	})
}
