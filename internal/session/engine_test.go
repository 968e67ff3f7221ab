package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iptoux/tokentools/internal/convert"
	"github.com/iptoux/tokentools/internal/tokenizer"
)

// fakeExact is a controllable ExactEncoder. Each batch emits one token per
// text whose id is the batch sequence number, so tests can tell which batch
// produced a result. When gate is non-nil every call blocks on it first;
// calls ignore context cancellation so tests can exercise the stale-success
// path.
type fakeExact struct {
	gate    chan struct{}
	calls   atomic.Int64
	failErr error
}

func (f *fakeExact) Supported(model string) bool { return model == tokenizer.ModelCL100K }

func (f *fakeExact) EncodeBatch(ctx context.Context, model string, texts map[string]string) (map[string][]tokenizer.Encoded, error) {
	seq := int(f.calls.Add(1))
	if f.gate != nil {
		<-f.gate
	}
	if f.failErr != nil {
		return nil, f.failErr
	}
	out := make(map[string][]tokenizer.Encoded, len(texts))
	for k, txt := range texts {
		if txt == "" {
			out[k] = []tokenizer.Encoded{}
			continue
		}
		out[k] = []tokenizer.Encoded{{ID: seq, Text: txt}}
	}
	return out, nil
}

// recordingSink records every callback.
type recordingSink struct {
	mu          sync.Mutex
	conversions int
	tokenUpds   int
	errors      []string
}

func (s *recordingSink) ConversionUpdate(*Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversions++
}

func (s *recordingSink) TokensUpdate(*Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokenUpds++
}

func (s *recordingSink) TokensError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errors = append(s.errors, msg)
}

func (s *recordingSink) counts() (int, int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conversions, s.tokenUpds, len(s.errors)
}

func wantAll() Config {
	return Config{Model: tokenizer.ModelCL100K, WantCounts: true, WantTokens: true}
}

func TestEngine_ExactReplacesApproximate(t *testing.T) {
	exact := &fakeExact{}
	sink := &recordingSink{}
	e := NewEngine(exact, sink, time.Second)
	defer e.Close()

	e.Update(`{"a":"hello"}`, wantAll())

	require.Eventually(t, func() bool {
		_, upds, _ := sink.counts()
		return upds == 1
	}, time.Second, 5*time.Millisecond)

	snap := e.Snapshot()
	res := snap.Formats[convert.FormatMinifiedJSON]
	assert.True(t, res.Exact)
	assert.Equal(t, 1, res.Counts.Tokens, "one fake token per text")
	require.Len(t, res.ExactTokens, 1)
	assert.Equal(t, res.Output, res.ExactTokens[0].Text)
}

func TestEngine_SkipsBatchWhenNothingWanted(t *testing.T) {
	exact := &fakeExact{}
	sink := &recordingSink{}
	e := NewEngine(exact, sink, time.Second)
	defer e.Close()

	e.Update(`{"a":1}`, Config{Model: tokenizer.ModelCL100K})

	conv, upds, errs := sink.counts()
	assert.Equal(t, 1, conv)
	assert.Equal(t, 0, upds)
	assert.Equal(t, 0, errs)
	assert.Equal(t, int64(0), exact.calls.Load(), "guard must skip the call entirely")
}

func TestEngine_SkipsBatchOnParseError(t *testing.T) {
	exact := &fakeExact{}
	sink := &recordingSink{}
	e := NewEngine(exact, sink, time.Second)
	defer e.Close()

	e.Update(`not json`, wantAll())

	assert.Equal(t, int64(0), exact.calls.Load())
	assert.NotEmpty(t, e.Snapshot().Error)
}

func TestEngine_UnsupportedModelIsErrorNotFallbackCall(t *testing.T) {
	exact := &fakeExact{}
	sink := &recordingSink{}
	e := NewEngine(exact, sink, time.Second)
	defer e.Close()

	e.Update(`{"a":1}`, Config{Model: "not-a-model", WantCounts: true})

	_, upds, errs := sink.counts()
	assert.Equal(t, 0, upds)
	assert.Equal(t, 1, errs)
	assert.Equal(t, int64(0), exact.calls.Load())
}

func TestEngine_StaleBatchDiscarded(t *testing.T) {
	// Request A blocks in the encoder, request B supersedes it, then both
	// complete. Only B's result may ever be applied, regardless of order.
	exact := &fakeExact{gate: make(chan struct{})}
	sink := &recordingSink{}
	e := NewEngine(exact, sink, time.Second)
	defer e.Close()

	e.Update(`{"a":"first"}`, wantAll())  // batch 1
	e.Update(`{"a":"second"}`, wantAll()) // batch 2 supersedes batch 1

	require.Eventually(t, func() bool {
		return exact.calls.Load() == 2
	}, time.Second, 5*time.Millisecond)

	close(exact.gate) // release both batches

	require.Eventually(t, func() bool {
		_, upds, _ := sink.counts()
		return upds == 1
	}, time.Second, 5*time.Millisecond)

	snap := e.Snapshot()
	res := snap.Formats[convert.FormatMinifiedJSON]
	require.True(t, res.Exact)
	assert.Equal(t, `{"a":"second"}`, res.Output)
	assert.Equal(t, 2, res.ExactTokens[0].ID, "applied result must come from batch 2")

	// Batch 1's late success must not have produced a second update.
	time.Sleep(20 * time.Millisecond)
	_, upds, errs := sink.counts()
	assert.Equal(t, 1, upds)
	assert.Equal(t, 0, errs, "a superseded batch is not a user-visible failure")
}

func TestEngine_FailureFallsBackToApproximate(t *testing.T) {
	exact := &fakeExact{failErr: errors.New("boom")}
	sink := &recordingSink{}
	e := NewEngine(exact, sink, time.Second)
	defer e.Close()

	e.Update(`{"a":"hello"}`, wantAll())

	require.Eventually(t, func() bool {
		_, _, errs := sink.counts()
		return errs == 1
	}, time.Second, 5*time.Millisecond)

	res := e.Snapshot().Formats[convert.FormatMinifiedJSON]
	assert.False(t, res.Exact)
	assert.Greater(t, res.Counts.Tokens, 0, "approximate counts stay usable")
}

func TestEngine_CancellationIsSilent(t *testing.T) {
	// An encoder that honors cancellation returns context.Canceled for the
	// superseded batch; that must not reach the sink as an error.
	exact := &ctxAwareExact{started: make(chan struct{}, 2)}
	sink := &recordingSink{}
	e := NewEngine(exact, sink, time.Second)
	defer e.Close()

	e.Update(`{"a":"first"}`, wantAll())
	<-exact.started
	e.Update(`{"a":"second"}`, wantAll())

	require.Eventually(t, func() bool {
		_, upds, _ := sink.counts()
		return upds == 1
	}, time.Second, 5*time.Millisecond)

	_, _, errs := sink.counts()
	assert.Equal(t, 0, errs)
}

func TestEngine_CompletedBatchReleasesItsContext(t *testing.T) {
	exact := &ctxRecordingExact{}
	sink := &recordingSink{}
	e := NewEngine(exact, sink, time.Hour)
	defer e.Close()

	e.Update(`{"a":1}`, wantAll())

	require.Eventually(t, func() bool {
		_, upds, _ := sink.counts()
		return upds == 1
	}, time.Second, 5*time.Millisecond)

	exact.mu.Lock()
	ctx := exact.ctx
	exact.mu.Unlock()
	require.NotNil(t, ctx)
	assert.Eventually(t, func() bool { return ctx.Err() != nil }, time.Second, 5*time.Millisecond,
		"batch context must be released on completion, not left to its deadline")
}

// ctxRecordingExact hands back one token per text and keeps the batch
// context so tests can observe its release.
type ctxRecordingExact struct {
	mu  sync.Mutex
	ctx context.Context
}

func (f *ctxRecordingExact) Supported(model string) bool { return model == tokenizer.ModelCL100K }

func (f *ctxRecordingExact) EncodeBatch(ctx context.Context, model string, texts map[string]string) (map[string][]tokenizer.Encoded, error) {
	f.mu.Lock()
	f.ctx = ctx
	f.mu.Unlock()
	out := make(map[string][]tokenizer.Encoded, len(texts))
	for k, txt := range texts {
		out[k] = []tokenizer.Encoded{{ID: 1, Text: txt}}
	}
	return out, nil
}

// ctxAwareExact blocks the first batch until its context is cancelled.
type ctxAwareExact struct {
	started chan struct{}
	calls   atomic.Int64
}

func (f *ctxAwareExact) Supported(model string) bool { return model == tokenizer.ModelCL100K }

func (f *ctxAwareExact) EncodeBatch(ctx context.Context, model string, texts map[string]string) (map[string][]tokenizer.Encoded, error) {
	seq := f.calls.Add(1)
	f.started <- struct{}{}
	if seq == 1 {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	out := make(map[string][]tokenizer.Encoded, len(texts))
	for k, txt := range texts {
		out[k] = []tokenizer.Encoded{{ID: int(seq), Text: txt}}
	}
	return out, nil
}
