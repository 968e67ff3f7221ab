// Package tokenizer provides character/byte counting, a fast approximate
// tokenizer, and an exact BPE tokenizer adapter.
package tokenizer

import "unicode/utf8"

// Counts holds the size measurements for one output string.
type Counts struct {
	Characters int `json:"characters"`
	Bytes      int `json:"bytes"`
	Tokens     int `json:"tokens"`
}

// Count measures s: Unicode code points, UTF-8 encoded length, and the
// approximate token count.
func Count(s string) Counts {
	return Counts{
		Characters: utf8.RuneCountInString(s),
		Bytes:      len(s),
		Tokens:     Estimate(s),
	}
}

// Estimate approximates the token count of text.
// Uses the rule of thumb: ~4 bytes per token for English text. Non-empty
// text always counts as at least one token. This is a heuristic proxy for
// BPE token density, not an exact count.
func Estimate(text string) int {
	if len(text) == 0 {
		return 0
	}
	return (len(text) + 3) / 4
}
