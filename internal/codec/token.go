package codec

import (
	"regexp"
	"strings"

	"github.com/alfredjeanlab/taskboard/internal/model"
)

// RelationToken returns the canonical token for a relation of kind that
// references id.
func RelationToken(kind model.RelationKind, id string) string {
	return "[" + string(kind) + ":: " + id + "]"
}

// HasToken reports whether text contains token verbatim.
func HasToken(text, token string) bool {
	return strings.Contains(text, token)
}

// anchorIndex returns the offset of the reserved identifier token in text,
// whichever style is in use, or -1 when there is none.
func anchorIndex(text string) int {
	if m := trailingIDRe.FindStringSubmatchIndex(text); m != nil {
		// m[2] is the id group; the caret sits just before it.
		return m[2] - 1
	}
	if all := fieldIDRe.FindAllStringIndex(text, -1); len(all) > 0 {
		return all[len(all)-1][0]
	}
	return -1
}

// InsertToken places token immediately before the reserved identifier, or
// at the end of the text when there is no identifier.
func InsertToken(text, token string) string {
	idx := anchorIndex(text)
	if idx < 0 {
		head := strings.TrimRight(text, " \t")
		if head == "" {
			return token
		}
		return head + " " + token
	}
	head := strings.TrimRight(text[:idx], " \t")
	if head == "" {
		return token + " " + text[idx:]
	}
	return head + " " + token + " " + text[idx:]
}

// RemoveToken deletes every exact occurrence of token together with the run
// of whitespace before it. Text without the token is returned unchanged.
func RemoveToken(text, token string) string {
	if !HasToken(text, token) {
		return text
	}
	re := regexp.MustCompile(`[ \t]*` + regexp.QuoteMeta(token))
	return strings.TrimLeft(re.ReplaceAllString(text, ""), " \t")
}

// AppendIdentifier adds the reserved identifier to text in the given style.
func AppendIdentifier(text, id string, style IDStyle) string {
	head := strings.TrimRight(text, " \t")
	if head == "" {
		return IdentifierToken(id, style)
	}
	return head + " " + IdentifierToken(id, style)
}
