// Package sync exports a board snapshot as JSONL and ships it to external
// destinations, either on demand or on a schedule.
package sync

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Destination receives a complete JSONL export.
type Destination interface {
	Name() string
	Write(ctx context.Context, data []byte) error
}

// Report describes one push.
type Report struct {
	Bytes   int
	Written []string
	Failed  map[string]error
}

// Err joins the destination failures, or returns nil.
func (r Report) Err() error {
	var errs []error
	for name, err := range r.Failed {
		errs = append(errs, fmt.Errorf("%s: %w", name, err))
	}
	return errors.Join(errs...)
}

// Push exports src once and writes it to every destination. Each failure is
// logged and recorded in the report; it never stops the other destinations.
func Push(ctx context.Context, src Source, dests []Destination, logger *slog.Logger) (Report, error) {
	var buf bytes.Buffer
	if err := ExportJSONL(src.Snapshot(), &buf); err != nil {
		return Report{}, err
	}
	r := Report{Bytes: buf.Len(), Failed: map[string]error{}}
	for _, d := range dests {
		if err := d.Write(ctx, buf.Bytes()); err != nil {
			logger.Error("export failed", "destination", d.Name(), "err", err)
			r.Failed[d.Name()] = err
			continue
		}
		r.Written = append(r.Written, d.Name())
	}
	logger.Info("export pushed",
		"written", strings.Join(r.Written, ","),
		"failed", len(r.Failed),
		"bytes", r.Bytes)
	return r, nil
}

// Scheduler pushes exports on an interval, skipping ticks when no board event
// arrived since the last push. It is an events.Publisher so a session can
// mark it dirty.
type Scheduler struct {
	logger *slog.Logger
	dirty  atomic.Bool

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewScheduler returns a stopped scheduler. The first push after Start
// always runs.
func NewScheduler(logger *slog.Logger) *Scheduler {
	s := &Scheduler{logger: logger}
	s.dirty.Store(true)
	return s
}

// Publish marks the board as changed.
func (s *Scheduler) Publish(context.Context, string, any) error {
	s.dirty.Store(true)
	return nil
}

// Close stops the scheduler.
func (s *Scheduler) Close() error {
	s.Stop()
	return nil
}

// Start pushes src to dests now and then every interval. Starting a running
// scheduler is a no-op.
func (s *Scheduler) Start(src Source, dests []Destination, interval time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	go func() {
		defer close(s.done)
		s.loop(ctx, src, dests, interval)
	}()
}

// Stop cancels the loop and waits for an in-flight push.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (s *Scheduler) loop(ctx context.Context, src Source, dests []Destination, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if s.dirty.Swap(false) {
			if r, err := Push(ctx, src, dests, s.logger); err != nil {
				s.logger.Error("export failed", "err", err)
				s.dirty.Store(true)
			} else if len(r.Failed) > 0 {
				// Push again on the next tick.
				s.dirty.Store(true)
			}
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
