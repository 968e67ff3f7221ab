package handlers

import "net/http"

type snippetInput struct {
	Name  string `json:"name"`
	Input string `json:"input"`
}

// ListSnippets handles GET /api/v1/snippets.
func (h *Handler) ListSnippets(w http.ResponseWriter, r *http.Request) {
	snippets, err := h.store.ListSnippets(r.Context())
	if err != nil {
		fail(w, http.StatusInternalServerError, "list: "+err.Error())
		return
	}
	ok(w, snippets)
}

// CreateSnippet handles POST /api/v1/snippets.
func (h *Handler) CreateSnippet(w http.ResponseWriter, r *http.Request) {
	var req snippetInput
	if err := decode(r, &req); err != nil {
		fail(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Name == "" {
		fail(w, http.StatusBadRequest, "name is required")
		return
	}

	sn, err := h.store.CreateSnippet(r.Context(), req.Name, req.Input)
	if err != nil {
		fail(w, http.StatusInternalServerError, "create: "+err.Error())
		return
	}
	ok(w, sn)
}

// GetSnippet handles GET /api/v1/snippets/{id}.
func (h *Handler) GetSnippet(w http.ResponseWriter, r *http.Request) {
	sn, err := h.store.GetSnippet(r.Context(), pathID(r, "id"))
	if err != nil {
		fail(w, http.StatusInternalServerError, "get: "+err.Error())
		return
	}
	if sn == nil {
		fail(w, http.StatusNotFound, "snippet not found")
		return
	}
	ok(w, sn)
}

// DeleteSnippet handles DELETE /api/v1/snippets/{id}.
func (h *Handler) DeleteSnippet(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteSnippet(r.Context(), pathID(r, "id")); err != nil {
		fail(w, http.StatusInternalServerError, "delete: "+err.Error())
		return
	}
	ok(w, map[string]bool{"deleted": true})
}
