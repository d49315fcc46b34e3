// Package watch polls a document store and reports documents whose content
// changed between polls.
package watch

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/alfredjeanlab/taskboard/internal/docstore"
)

// DefaultInterval is used when no interval is configured.
const DefaultInterval = 2 * time.Second

// Handler receives the paths that changed since the previous poll.
type Handler func(ctx context.Context, paths []string) error

// Watcher fingerprints every document with sha256 and compares fingerprints
// on each poll. Excluded paths are never reported.
type Watcher struct {
	docs     docstore.Store
	interval time.Duration
	exclude  map[string]bool
	handler  Handler
	logger   *slog.Logger

	sums map[string][sha256.Size]byte
}

// New creates a watcher. The board document is usually passed in exclude so
// that saving the board does not trigger a rescan.
func New(docs docstore.Store, interval time.Duration, handler Handler, logger *slog.Logger, exclude ...string) *Watcher {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	w := &Watcher{
		docs:     docs,
		interval: interval,
		exclude:  make(map[string]bool, len(exclude)),
		handler:  handler,
		logger:   logger,
	}
	for _, p := range exclude {
		w.exclude[p] = true
	}
	return w
}

// Prime records the current fingerprints without reporting anything.
func (w *Watcher) Prime(ctx context.Context) error {
	sums, err := w.fingerprint(ctx)
	if err != nil {
		return err
	}
	w.sums = sums
	return nil
}

// Poll returns the sorted paths that were added, modified or removed since
// the last Prime or Poll. The first call on an unprimed watcher reports
// every document.
func (w *Watcher) Poll(ctx context.Context) ([]string, error) {
	sums, err := w.fingerprint(ctx)
	if err != nil {
		return nil, err
	}
	var changed []string
	for p, sum := range sums {
		if old, ok := w.sums[p]; !ok || old != sum {
			changed = append(changed, p)
		}
	}
	for p := range w.sums {
		if _, ok := sums[p]; !ok {
			changed = append(changed, p)
		}
	}
	sort.Strings(changed)
	w.sums = sums
	return changed, nil
}

// Run primes the watcher and then polls on every tick until ctx is done,
// passing non-empty change sets to the handler. Poll and handler errors are
// logged and the loop continues.
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.Prime(ctx); err != nil {
		return fmt.Errorf("prime watcher: %w", err)
	}
	w.logger.Info("watching documents", "interval", w.interval, "documents", len(w.sums))

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *Watcher) tick(ctx context.Context) {
	changed, err := w.Poll(ctx)
	if err != nil {
		w.logger.Warn("poll failed", "err", err)
		return
	}
	if len(changed) == 0 {
		return
	}
	w.logger.Debug("documents changed", "paths", changed)
	if err := w.handler(ctx, changed); err != nil {
		w.logger.Error("change handler failed", "paths", changed, "err", err)
	}
}

func (w *Watcher) fingerprint(ctx context.Context) (map[string][sha256.Size]byte, error) {
	docs, err := w.docs.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	sums := make(map[string][sha256.Size]byte, len(docs))
	for _, d := range docs {
		if w.exclude[d.Path] {
			continue
		}
		content, err := w.docs.Read(ctx, d.Path)
		if err != nil {
			// Removed between List and Read; the next poll reports it.
			continue
		}
		sums[d.Path] = sha256.Sum256([]byte(content))
	}
	return sums, nil
}
