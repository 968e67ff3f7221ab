package tokenizer

import (
	"context"
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	tiktoken "github.com/pkoukk/tiktoken-go"
)

// ModelCL100K is the only tokenization model currently supported
// (the cl100k_base BPE vocabulary used by GPT-4-era models).
const ModelCL100K = "cl100k_base"

// ErrUnsupportedModel is returned when a caller asks for a model this
// adapter has no vocabulary for. It is never silently substituted.
var ErrUnsupportedModel = errors.New("unsupported tokenization model")

// models maps public model identifiers to tiktoken encoding names.
var models = map[string]string{
	ModelCL100K: "cl100k_base",
}

// Encoded is one exact token: a stable vocabulary id and the exact byte
// span it covers. Concatenating the Text fields of a sequence in order
// reconstructs the encoded string byte for byte. The BPE vocabulary can
// split a multi-byte rune across tokens; such a token carries an
// invalid-UTF-8 fragment in Text, so the reconstruction guarantee is
// byte-level and in-process. JSON serialization replaces those fragments
// with U+FFFD.
type Encoded struct {
	ID   int    `json:"id"`
	Text string `json:"text"`
}

// Exact wraps a BPE vocabulary and produces exact token sequences.
// A small LRU cache sits in front of the encoder so repeated conversions of
// the same output strings skip re-encoding.
type Exact struct {
	cache *lru.Cache[string, []Encoded]
}

// NewExact creates the exact tokenizer service.
func NewExact() (*Exact, error) {
	cache, err := lru.New[string, []Encoded](256)
	if err != nil {
		return nil, fmt.Errorf("tokenizer.NewExact: %w", err)
	}
	return &Exact{cache: cache}, nil
}

// Supported reports whether model is a known model identifier.
func (e *Exact) Supported(model string) bool {
	_, ok := models[model]
	return ok
}

// EncodeBatch tokenizes every text in the batch with the given model.
// Keys map one-to-one between input and output; an empty input text yields
// an empty (non-nil) token slice. The vocabulary is acquired once per batch.
// Any failure, including an unsupported model or context cancellation, fails
// the whole call.
func (e *Exact) EncodeBatch(ctx context.Context, model string, texts map[string]string) (map[string][]Encoded, error) {
	encodingName, ok := models[model]
	if !ok {
		return nil, fmt.Errorf("tokenizer.EncodeBatch: %w: %q", ErrUnsupportedModel, model)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	enc, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, fmt.Errorf("tokenizer.EncodeBatch: load encoding %s: %w", encodingName, err)
	}

	out := make(map[string][]Encoded, len(texts))
	for key, text := range texts {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if text == "" {
			out[key] = []Encoded{}
			continue
		}

		cacheKey := model + "\x00" + text
		if cached, ok := e.cache.Get(cacheKey); ok {
			out[key] = cached
			continue
		}

		ids := enc.Encode(text, nil, nil)
		pairs := make([]Encoded, len(ids))
		for i, id := range ids {
			// Per-id decode recovers the exact substring each token covers.
			pairs[i] = Encoded{ID: id, Text: enc.Decode([]int{id})}
		}
		e.cache.Add(cacheKey, pairs)
		out[key] = pairs
	}
	return out, nil
}
