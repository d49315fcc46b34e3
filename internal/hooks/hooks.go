// Package hooks runs shell commands in response to board events.
package hooks

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// Hook binds a shell command to an event topic. Topic may end in ".*" to
// match every topic under a prefix, or be "*" to match everything.
type Hook struct {
	Topic   string `toml:"topic"`
	Command string `toml:"command"`
	Timeout int    `toml:"timeout"` // seconds; 0 uses DefaultTimeout
}

// Matches reports whether the hook fires for topic.
func (h Hook) Matches(topic string) bool {
	switch {
	case h.Topic == "*":
		return true
	case strings.HasSuffix(h.Topic, ".*"):
		return strings.HasPrefix(topic, strings.TrimSuffix(h.Topic, "*"))
	}
	return h.Topic == topic
}

func (h Hook) command(dir string, env map[string]string) Command {
	return Command{Script: h.Command, Dir: dir, Env: env, Timeout: time.Duration(h.Timeout) * time.Second}
}

// Runner is an events.Publisher that runs the matching hooks for each event.
// Commands run in the background with TASKBOARD_TOPIC and TASKBOARD_EVENT
// (the event as JSON) in their environment, from dir. Close waits for
// running hooks to finish.
type Runner struct {
	hooks  []Hook
	dir    string
	logger *slog.Logger

	wg sync.WaitGroup
}

// NewRunner returns a runner for hooks. Commands run in dir.
func NewRunner(hooks []Hook, dir string, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{hooks: hooks, dir: dir, logger: logger}
}

// Publish starts every hook matching topic. Hook failures are logged.
func (r *Runner) Publish(ctx context.Context, topic string, event any) error {
	var matched []Hook
	for _, h := range r.hooks {
		if h.Matches(topic) {
			matched = append(matched, h)
		}
	}
	if len(matched) == 0 {
		return nil
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	env := map[string]string{"TASKBOARD_TOPIC": topic, "TASKBOARD_EVENT": string(data)}

	// Hooks outlive the request that triggered them.
	ctx = context.WithoutCancel(ctx)
	for _, h := range matched {
		r.wg.Add(1)
		go func(h Hook) {
			defer r.wg.Done()
			res := h.command(r.dir, env).Run(ctx)
			if res.Err != nil {
				r.logger.Warn("hook failed", "topic", topic, "command", h.Command,
					"exit", res.ExitCode, "err", res.Err, "output", res.Output)
				return
			}
			r.logger.Debug("hook ran", "topic", topic, "command", h.Command,
				"elapsed", res.Elapsed, "output", res.Output)
		}(h)
	}
	return nil
}

// Close waits for running hooks.
func (r *Runner) Close() error {
	r.wg.Wait()
	return nil
}
