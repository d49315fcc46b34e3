package ui

import (
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"
)

// stdoutIsTerminal is swapped out in tests.
var stdoutIsTerminal = func() bool { return term.IsTerminal(int(os.Stdout.Fd())) }

// ShouldUseColor decides whether stdout gets ANSI colors. NO_COLOR wins over
// everything, then CLICOLOR_FORCE=1 and CLICOLOR=0, then whether stdout is a
// terminal.
func ShouldUseColor() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	switch {
	case envFlag("CLICOLOR_FORCE") == "1":
		return true
	case envFlag("CLICOLOR") == "0":
		return false
	}
	return stdoutIsTerminal()
}

func envFlag(name string) string {
	return strings.TrimSpace(os.Getenv(name))
}

// Width returns the terminal width of stdout. COLUMNS overrides it, and 0
// means unknown, as when output is piped.
func Width() int {
	if n, err := strconv.Atoi(envFlag("COLUMNS")); err == nil && n > 0 {
		return n
	}
	if !stdoutIsTerminal() {
		return 0
	}
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 0
	}
	return w
}

// Truncate shortens s to at most n runes, marking the cut with an ellipsis.
// A non-positive n leaves s alone.
func Truncate(s string, n int) string {
	if n <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}
