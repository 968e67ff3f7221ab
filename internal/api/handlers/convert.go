package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/iptoux/tokentools/internal/convert"
	"github.com/iptoux/tokentools/internal/session"
	"github.com/iptoux/tokentools/internal/tokenizer"
)

type convertRequest struct {
	Text   string         `json:"text"`
	Config session.Config `json:"config"`
}

type convertResponse struct {
	*session.Snapshot
	TokensError string `json:"tokens_error,omitempty"`
}

// Convert handles POST /api/v1/convert. One synchronous pass: parse, render
// every format, count, and when token data is wanted run the exact tokenizer
// inline. A parse failure is a 422 error envelope carrying the parser's own
// message, with the blanked per-format results still in data. Exact failures
// degrade to the approximate counts instead of failing the request.
func (h *Handler) Convert(w http.ResponseWriter, r *http.Request) {
	var req convertRequest
	if err := decode(r, &req); err != nil {
		fail(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Config.Model == "" {
		req.Config.Model = h.config.DefaultModel
	}

	snap := session.Convert(req.Text, req.Config)
	resp := convertResponse{Snapshot: snap}

	if snap.Error != "" {
		failWithData(w, http.StatusUnprocessableEntity, snap.Error, resp)
		return
	}

	if req.Config.WantCounts || req.Config.WantTokens {
		resp.TokensError = h.applyExact(r.Context(), snap, req.Config.Model)
	}

	h.recordConversion(r.Context(), req.Text, snap)
	ok(w, resp)
}

// applyExact runs one exact-tokenization batch over every format output and
// folds the results into the snapshot. Returns a message instead of an error
// because the approximate counts remain valid either way.
func (h *Handler) applyExact(ctx context.Context, snap *session.Snapshot, model string) string {
	if !h.exact.Supported(model) {
		return "unsupported tokenization model: " + model
	}

	texts := make(map[string]string, len(snap.Formats))
	for f, res := range snap.Formats {
		texts[string(f)] = res.Output
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(h.config.TokenizeTimeoutSecs)*time.Second)
	defer cancel()

	result, err := h.exact.EncodeBatch(ctx, model, texts)
	if err != nil {
		return err.Error()
	}
	for key, tokens := range result {
		res, found := snap.Formats[convert.Format(key)]
		if !found {
			continue
		}
		res.ExactTokens = tokens
		res.Counts.Tokens = len(tokens)
		res.Exact = true
	}
	return ""
}

// recordConversion writes one history row. History is best effort and never
// fails the request.
func (h *Handler) recordConversion(ctx context.Context, input string, snap *session.Snapshot) {
	if h.store == nil || snap.Error != "" {
		return
	}
	counts := make(map[convert.Format]tokenizer.Counts, len(snap.Formats))
	for f, res := range snap.Formats {
		counts[f] = res.Counts
	}
	b, err := json.Marshal(counts)
	if err != nil {
		return
	}
	in := tokenizer.Count(input)
	_ = h.store.RecordConversion(ctx, in.Characters, in.Bytes, string(b))
}
