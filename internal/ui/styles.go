// Package ui renders terminal output for the tb command.
package ui

import (
	"fmt"

	"github.com/alfredjeanlab/taskboard/internal/model"
)

// ANSI256 color codes matching the Ayu palette.
const (
	colorAccent  = 74  // blue
	colorCmd     = 250 // light gray
	colorMuted   = 245 // medium gray
	colorDone    = 114 // green
	colorWarn    = 179 // amber
	colorSubtask = 176 // purple
)

var noColor bool

func paint(code int, s string) string {
	if noColor {
		return s
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", code, s)
}

// RenderAccent returns s in the accent (blue) color.
func RenderAccent(s string) string { return paint(colorAccent, s) }

// RenderMuted returns s in the muted (gray) color.
func RenderMuted(s string) string { return paint(colorMuted, s) }

// RenderCommand returns s styled as a command name (light gray).
func RenderCommand(s string) string { return paint(colorCmd, s) }

// RenderWarn returns s in the warning (amber) color.
func RenderWarn(s string) string { return paint(colorWarn, s) }

// RenderCheckbox returns the checkbox for a task, green when done.
func RenderCheckbox(done bool) string {
	if done {
		return paint(colorDone, "[x]")
	}
	return "[ ]"
}

// RenderKind returns a relation kind colored by family.
func RenderKind(k model.RelationKind) string {
	switch k {
	case model.KindDepends:
		return paint(colorWarn, string(k))
	case model.KindSubtask:
		return paint(colorSubtask, string(k))
	case model.KindSequence:
		return paint(colorAccent, string(k))
	}
	return paint(colorMuted, string(k))
}

// ForceNoColor disables color output globally.
func ForceNoColor() {
	noColor = true
}

// Setup disables color unless stdout should get it.
func Setup() {
	if !ShouldUseColor() {
		ForceNoColor()
	}
}
