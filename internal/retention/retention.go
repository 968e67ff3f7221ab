// Package retention wraps robfig/cron to prune old conversion history.
package retention

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/iptoux/tokentools/internal/store"
)

// Engine runs the nightly history prune.
type Engine struct {
	cron  *cron.Cron
	store *store.Store
	days  int
}

// New creates an Engine that keeps the last `days` days of history.
// A non-positive value disables pruning.
func New(st *store.Store, days int) *Engine {
	return &Engine{
		cron:  cron.New(),
		store: st,
		days:  days,
	}
}

// Start registers the prune job and begins the cron engine. The engine stops
// when ctx is cancelled.
func (e *Engine) Start(ctx context.Context) error {
	if e.days <= 0 {
		return nil
	}
	if _, err := e.cron.AddFunc("@midnight", func() { e.Prune(context.Background()) }); err != nil {
		return fmt.Errorf("retention.Start: %w", err)
	}
	e.cron.Start()
	go func() {
		<-ctx.Done()
		e.cron.Stop()
	}()
	return nil
}

// Prune deletes conversion rows past the retention window. Runs once on a
// schedule but is safe to call directly, e.g. at startup.
func (e *Engine) Prune(ctx context.Context) {
	cutoff := time.Now().AddDate(0, 0, -e.days)
	n, err := e.store.PruneConversions(ctx, cutoff)
	if err != nil {
		log.Printf("retention: prune: %v", err)
		return
	}
	if n > 0 {
		log.Printf("retention: pruned %d conversion records older than %s", n, cutoff.Format("2006-01-02"))
	}
}
