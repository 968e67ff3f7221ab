package handlers

import (
	"net/http"

	"github.com/iptoux/tokentools/internal/convert"
	"github.com/iptoux/tokentools/internal/session"
)

type exportRequest struct {
	Text   string         `json:"text"`
	Format convert.Format `json:"format"`
	Config session.Config `json:"config"`
}

type exportResponse struct {
	Format convert.Format `json:"format"`
	Output string         `json:"output"`
	IDs    []int          `json:"ids"`
}

// ExportTokens handles POST /api/v1/tokens/export. It returns one format's
// output verbatim plus its token-id sequence as a plain integer array, exact
// ids when the tokenizer delivers in time, approximate grouping ids
// otherwise. Whitespace tokens carry no id and are excluded.
func (h *Handler) ExportTokens(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if err := decode(r, &req); err != nil {
		fail(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if !req.Format.Valid() {
		fail(w, http.StatusBadRequest, "unknown format: "+string(req.Format))
		return
	}
	if req.Config.Model == "" {
		req.Config.Model = h.config.DefaultModel
	}
	req.Config.WantTokens = true

	snap := session.Convert(req.Text, req.Config)
	if snap.Error != "" {
		fail(w, http.StatusBadRequest, snap.Error)
		return
	}
	// Exact ids are preferred but the export works without them.
	_ = h.applyExact(r.Context(), snap, req.Config.Model)

	ids := snap.TokenIDs(req.Format)
	if ids == nil {
		ids = []int{}
	}
	ok(w, exportResponse{
		Format: req.Format,
		Output: snap.Formats[req.Format].Output,
		IDs:    ids,
	})
}
