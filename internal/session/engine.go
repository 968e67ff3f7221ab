package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/iptoux/tokentools/internal/convert"
	"github.com/iptoux/tokentools/internal/tokenizer"
)

// ExactEncoder is the exact-tokenization boundary the engine calls.
// *tokenizer.Exact satisfies it.
type ExactEncoder interface {
	Supported(model string) bool
	EncodeBatch(ctx context.Context, model string, texts map[string]string) (map[string][]tokenizer.Encoded, error)
}

// Sink receives engine results. The WebSocket hub implements it for the
// live surface; tests use a recording fake.
type Sink interface {
	// ConversionUpdate delivers a fresh snapshot with approximate counts.
	ConversionUpdate(snap *Snapshot)
	// TokensUpdate delivers exact results for the snapshot last announced.
	TokensUpdate(snap *Snapshot)
	// TokensError reports a non-fatal exact-tokenization failure; the
	// approximate counts stay usable.
	TokensError(msg string)
}

// Engine owns the current input and configuration and is the single
// authority for the in-flight exact-tokenization batch. Every input or
// config change replaces the snapshot wholesale, cancels any previous batch
// and, when counts or tokens are wanted, issues exactly one new batch.
// A batch that finishes after being superseded is discarded unconditionally.
type Engine struct {
	exact   ExactEncoder
	sink    Sink
	timeout time.Duration

	mu     sync.Mutex
	input  string
	cfg    Config
	snap   *Snapshot
	gen    uint64
	cancel context.CancelFunc

	// wg tracks in-flight batches so tests and shutdown can drain them.
	wg sync.WaitGroup
}

// NewEngine creates an Engine. timeout bounds each exact-tokenization batch.
func NewEngine(exact ExactEncoder, sink Sink, timeout time.Duration) *Engine {
	return &Engine{
		exact:   exact,
		sink:    sink,
		timeout: timeout,
		snap:    &Snapshot{Formats: map[convert.Format]*FormatResult{}},
	}
}

// SetInput replaces the current input text and re-runs the pipeline.
func (e *Engine) SetInput(input string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.input = input
	e.refreshLocked()
}

// SetConfig replaces the current configuration and re-runs the pipeline.
func (e *Engine) SetConfig(cfg Config) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cfg = cfg
	e.refreshLocked()
}

// Update replaces input and configuration together in one pass.
func (e *Engine) Update(input string, cfg Config) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.input = input
	e.cfg = cfg
	e.refreshLocked()
}

// Snapshot returns the most recent snapshot.
func (e *Engine) Snapshot() *Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snap
}

// Close cancels any in-flight batch and waits for it to drain.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	e.gen++ // anything still running is now stale
	e.mu.Unlock()
	e.wg.Wait()
}

// refreshLocked re-converts and (re)schedules the exact batch.
// Caller holds e.mu.
func (e *Engine) refreshLocked() {
	e.snap = Convert(e.input, e.cfg)
	e.sink.ConversionUpdate(e.snap)

	// Supersede whatever batch is still running.
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	e.gen++

	// Skip the network call entirely when nobody asked for token data or
	// when the input did not even parse.
	if e.snap.Error != "" || (!e.cfg.WantCounts && !e.cfg.WantTokens) {
		return
	}
	if !e.exact.Supported(e.cfg.Model) {
		e.sink.TokensError("unsupported tokenization model: " + e.cfg.Model)
		return
	}

	texts := make(map[string]string, len(e.snap.Formats))
	for f, res := range e.snap.Formats {
		texts[string(f)] = res.Output
	}

	ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
	e.cancel = cancel
	gen := e.gen

	e.wg.Add(1)
	go e.runBatch(ctx, gen, e.cfg.Model, texts)
}

func (e *Engine) runBatch(ctx context.Context, gen uint64, model string, texts map[string]string) {
	defer e.wg.Done()

	result, err := e.exact.EncodeBatch(ctx, model, texts)

	e.mu.Lock()
	defer e.mu.Unlock()

	// A superseded batch never touches shared state, success or not.
	if gen != e.gen {
		return
	}
	// This batch is done; release its timeout context now rather than
	// leaving the timer to run out the deadline.
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}

	if err != nil {
		// Cancellation is not a user-visible failure.
		if errors.Is(err, context.Canceled) {
			return
		}
		e.sink.TokensError(err.Error())
		return
	}

	for key, tokens := range result {
		res, ok := e.snap.Formats[convert.Format(key)]
		if !ok {
			continue
		}
		res.ExactTokens = tokens
		res.Counts.Tokens = len(tokens)
		res.Exact = true
	}
	e.sink.TokensUpdate(e.snap)
}
