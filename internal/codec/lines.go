package codec

import "strings"

// SplitLines splits a document into lines and reports the line ending in
// use so a rewrite can restore it.
func SplitLines(text string) ([]string, string) {
	eol := "\n"
	if strings.Contains(text, "\r\n") {
		eol = "\r\n"
		text = strings.ReplaceAll(text, "\r\n", "\n")
	}
	return strings.Split(text, "\n"), eol
}

// JoinLines is the inverse of SplitLines.
func JoinLines(lines []string, eol string) string {
	return strings.Join(lines, eol)
}
