package main

import (
	"bytes"
	"io"
	"regexp"

	"github.com/alfredjeanlab/taskboard/internal/ui"
	"github.com/spf13/cobra"
)

var (
	// An unindented line ending in a colon: "Board:", "Flags:".
	reGroupHeader = regexp.MustCompile(`(?m)^([A-Z][^\n]*:)[ \t]*$`)
	// A two-space indented command name followed by its description.
	reCommand = regexp.MustCompile(`(?m)^(  )(\S+)(  )`)
	// The value type cobra prints after a flag name: "--board string".
	reFlagType = regexp.MustCompile(`(--?\S+\s+)(string|int|int32|float64|float|duration|stringSlice|stringArray)`)
	// "(default "depends")" or "(default 40)".
	reDefault = regexp.MustCompile(`\(default (?:"[^"]*"|[^)\s]+)\)`)
)

// helpStyle paints one kind of match in cobra's help text. paint receives
// the submatches of re.
type helpStyle struct {
	re    *regexp.Regexp
	paint func(m []string) string
}

var helpStyles = []helpStyle{
	{reGroupHeader, func(m []string) string { return ui.RenderAccent(m[1]) }},
	{reCommand, func(m []string) string { return m[1] + ui.RenderCommand(m[2]) + m[3] }},
	{reFlagType, func(m []string) string { return m[1] + ui.RenderMuted(m[2]) }},
	{reDefault, func(m []string) string { return ui.RenderMuted(m[0]) }},
}

// colorizedHelpFunc renders cobra's usage text and colors it when stdout
// takes ANSI colors.
func colorizedHelpFunc() func(*cobra.Command, []string) {
	return func(cmd *cobra.Command, _ []string) {
		out := cmd.OutOrStdout()
		if !ui.ShouldUseColor() {
			_ = cmd.Usage()
			return
		}
		var buf bytes.Buffer
		cmd.SetOut(&buf)
		_ = cmd.Usage()
		cmd.SetOut(out)
		io.WriteString(out, colorizeHelpOutput(buf.String()))
	}
}

func colorizeHelpOutput(s string) string {
	for _, st := range helpStyles {
		s = st.re.ReplaceAllStringFunc(s, func(match string) string {
			return st.paint(st.re.FindStringSubmatch(match))
		})
	}
	return s
}
