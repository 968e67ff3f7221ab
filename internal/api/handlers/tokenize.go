package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/iptoux/tokentools/internal/tokenizer"
)

// The tokenize endpoint speaks a bare wire format rather than the usual
// {success,data,error} envelope so callers can treat it as a standalone
// tokenization service.

type tokenizeRequest struct {
	Model string             `json:"model"`
	Texts *map[string]string `json:"texts"`
}

type tokenizeResponse struct {
	Model  string                         `json:"model"`
	Tokens map[string][]tokenizer.Encoded `json:"tokens"`
}

type wireError struct {
	Error string `json:"error"`
}

func failWire(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(wireError{Error: msg})
}

// Tokenize handles POST /api/v1/tokenize. Request {model, texts}; response
// {model, tokens} with one entry per input key. Empty input text yields an
// empty array, never an absent key. Unsupported or missing model is a 400,
// an internal tokenization failure a 500.
func (h *Handler) Tokenize(w http.ResponseWriter, r *http.Request) {
	var req tokenizeRequest
	if err := decode(r, &req); err != nil {
		failWire(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if req.Model == "" {
		failWire(w, http.StatusBadRequest, "model is required")
		return
	}
	if req.Texts == nil {
		failWire(w, http.StatusBadRequest, "texts is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), time.Duration(h.config.TokenizeTimeoutSecs)*time.Second)
	defer cancel()

	tokens, err := h.exact.EncodeBatch(ctx, req.Model, *req.Texts)
	if err != nil {
		if errors.Is(err, tokenizer.ErrUnsupportedModel) {
			failWire(w, http.StatusBadRequest, err.Error())
			return
		}
		failWire(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(tokenizeResponse{Model: req.Model, Tokens: tokens})
}
