package hooks

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
	"time"
)

const (
	DefaultTimeout = 30 * time.Second
	MaxTimeout     = 5 * time.Minute

	// maxOutput bounds how much of a command's output is kept.
	maxOutput = 4 << 10
)

// Command is one shell invocation.
type Command struct {
	Script  string
	Dir     string // ignored unless it names a directory
	Env     map[string]string
	Timeout time.Duration // clamped to (0, MaxTimeout]; zero means DefaultTimeout
}

// Result is the outcome of running a Command.
type Result struct {
	Output   string // stdout and stderr interleaved, trimmed and truncated
	ExitCode int    // -1 when the command did not exit on its own
	Elapsed  time.Duration
	Err      error
}

// Run executes the script with sh -c. The process environment is inherited
// and Env is layered on top.
func (c Command) Run(ctx context.Context) Result {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	timeout = min(timeout, MaxTimeout)
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "sh", "-c", c.Script) //nolint:gosec // scripts come from the vault config
	if c.Dir != "" {
		if fi, err := os.Stat(c.Dir); err == nil && fi.IsDir() {
			cmd.Dir = c.Dir
		}
	}
	cmd.Env = os.Environ()
	for k, v := range c.Env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	cmd.WaitDelay = time.Second

	start := time.Now()
	err := cmd.Run()
	res := Result{Output: clip(out.String()), Elapsed: time.Since(start), Err: err}
	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case errors.As(err, &exitErr):
		res.ExitCode = exitErr.ExitCode()
	default:
		res.ExitCode = -1
	}
	if ctx.Err() != nil && err != nil {
		res.Err = ctx.Err()
		res.ExitCode = -1
	}
	return res
}

func clip(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxOutput {
		s = s[:maxOutput] + "..."
	}
	return s
}
