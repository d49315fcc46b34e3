package codec

import (
	"regexp"
	"strings"
)

// Checkbox marks with special meaning.
const (
	MarkOpen      = " "
	MarkDone      = "x"
	MarkTombstone = "-"
)

// checklistRe matches an optionally indented list item with a checkbox.
// Groups: indent, bullet, mark, text.
var checklistRe = regexp.MustCompile(`^([ \t]*)([-*+]|\d+[.)])[ \t]+\[(.)\](?:[ \t]|$)(.*)$`)

// Checklist is a parsed checklist line.
type Checklist struct {
	Indent string
	Mark   string
	Text   string

	line      string
	markStart int
	markEnd   int
	textStart int
}

// ParseChecklist parses line as a checklist item.
func ParseChecklist(line string) (Checklist, bool) {
	m := checklistRe.FindStringSubmatchIndex(line)
	if m == nil {
		return Checklist{}, false
	}
	return Checklist{
		Indent:    line[m[2]:m[3]],
		Mark:      line[m[6]:m[7]],
		Text:      line[m[8]:m[9]],
		line:      line,
		markStart: m[6],
		markEnd:   m[7],
		textStart: m[8],
	}, true
}

// Completed reports whether the checkbox is ticked.
func (c Checklist) Completed() bool {
	return strings.EqualFold(c.Mark, MarkDone)
}

// Tombstoned reports whether the line was soft-deleted.
func (c Checklist) Tombstoned() bool {
	return c.Mark == MarkTombstone
}

// IndentWidth returns the indentation width, counting a tab as four columns.
func (c Checklist) IndentWidth() int {
	w := 0
	for _, r := range c.Indent {
		if r == '\t' {
			w += 4
		} else {
			w++
		}
	}
	return w
}

// WithText returns the original line with its text replaced. Indentation,
// bullet and checkbox are preserved verbatim.
func (c Checklist) WithText(text string) string {
	prefix := c.line[:c.textStart]
	if c.textStart == len(c.line) && !strings.HasSuffix(prefix, " ") && !strings.HasSuffix(prefix, "\t") && text != "" {
		prefix += " "
	}
	return prefix + text
}

// WithMark returns the original line with its checkbox mark replaced.
func (c Checklist) WithMark(mark string) string {
	return c.line[:c.markStart] + mark + c.line[c.markEnd:]
}

// FormatChecklist renders a new top-level open checklist line.
func FormatChecklist(text string) string {
	return "- [" + MarkOpen + "] " + text
}
