// Package session orchestrates one conversion pass: parse the input once,
// fan out to every converter, measure every output, and reconcile
// approximate token counts with exact ones as they arrive.
package session

import (
	"github.com/iptoux/tokentools/internal/convert"
	"github.com/iptoux/tokentools/internal/jsonval"
	"github.com/iptoux/tokentools/internal/tokenizer"
)

// Config is the immutable per-pass configuration. Build a new value for
// every change instead of mutating shared state.
type Config struct {
	TokenAware bool   `json:"token_aware"`
	Delimiter  string `json:"delimiter,omitempty"`
	KeyFolding string `json:"key_folding,omitempty"`
	Model      string `json:"model,omitempty"`
	WantCounts bool   `json:"want_counts"`
	WantTokens bool   `json:"want_tokens"`
}

// FormatResult is the per-format outcome of a conversion pass.
type FormatResult struct {
	Output string            `json:"output"`
	Counts tokenizer.Counts  `json:"counts"`
	Tokens []tokenizer.Token `json:"tokens,omitempty"`

	// ExactTokens and Exact are filled in when an exact tokenization batch
	// for this pass completes; until then Counts.Tokens is the approximate
	// estimate.
	ExactTokens []tokenizer.Encoded `json:"exact_tokens,omitempty"`
	Exact       bool                `json:"exact"`
}

// Snapshot is the full outcome of one conversion pass.
type Snapshot struct {
	Input   string                           `json:"-"`
	Error   string                           `json:"error,omitempty"`
	Formats map[convert.Format]*FormatResult `json:"formats"`
}

// Convert runs one full synchronous pass: parse, render every format, count
// and (when requested) scan every output. A parse failure blanks all outputs
// and carries the parser's own message; it is never fatal.
func Convert(input string, cfg Config) *Snapshot {
	snap := &Snapshot{
		Input:   input,
		Formats: make(map[convert.Format]*FormatResult, len(convert.Formats)),
	}

	v, err := jsonval.Parse(input)
	if err != nil {
		snap.Error = err.Error()
		for _, f := range convert.Formats {
			snap.Formats[f] = &FormatResult{}
		}
		return snap
	}

	opts := convert.Options{
		TokenAware: cfg.TokenAware,
		Delimiter:  cfg.Delimiter,
		KeyFolding: cfg.KeyFolding,
	}
	for _, f := range convert.Formats {
		out := convert.Render(f, v, opts)
		res := &FormatResult{
			Output: out,
			Counts: tokenizer.Count(out),
		}
		if cfg.WantTokens {
			res.Tokens = tokenizer.Scan(out)
		}
		snap.Formats[f] = res
	}
	return snap
}

// TokenIDs returns the token-id sequence for one format as a plain integer
// slice, exact ids when available, otherwise the approximate grouping ids.
// Whitespace tokens carry no id and are excluded.
func (s *Snapshot) TokenIDs(f convert.Format) []int {
	res, ok := s.Formats[f]
	if !ok {
		return nil
	}
	if res.Exact {
		ids := make([]int, len(res.ExactTokens))
		for i, tok := range res.ExactTokens {
			ids[i] = tok.ID
		}
		return ids
	}
	ids := make([]int, 0, len(res.Tokens))
	for _, tok := range res.Tokens {
		if tok.Identified() {
			ids = append(ids, tok.ID)
		}
	}
	return ids
}
