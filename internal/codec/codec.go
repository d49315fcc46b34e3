// Package codec parses and serializes the inline annotation grammar carried
// by checklist lines: title, #tags, key:: value metadata, relation tokens,
// and the trailing reserved identifier.
//
// Nothing outside this package manipulates raw task text directly.
package codec

import (
	"regexp"
	"sort"
	"strings"

	"github.com/alfredjeanlab/taskboard/internal/model"
)

// IDStyle selects how the reserved identifier is written.
type IDStyle string

const (
	// IDStyleCaret writes the identifier as a trailing "^id" block anchor.
	IDStyleCaret IDStyle = "caret"
	// IDStyleField writes the identifier as an "[id:: id]" token.
	IDStyleField IDStyle = "field"
)

// IsValid checks whether the style is a known value.
func (s IDStyle) IsValid() bool {
	return s == IDStyleCaret || s == IDStyleField
}

// idKey is the metadata key reserved for the identifier.
const idKey = "id"

// separator joins encoded parts.
const separator = "  "

var (
	relationRe   = regexp.MustCompile(`\[(depends|subtask|sequence)::[ \t]*([^\]]*?)[ \t]*\]`)
	bracketRe    = regexp.MustCompile(`\[([^\[\]:]+?)::[ \t]*([^\]]*?)[ \t]*\]`)
	bareKeyRe    = regexp.MustCompile(`(?:^|\s)([A-Za-z][\w-]*)::`)
	tagRe        = regexp.MustCompile(`(?:^|\s)(#[^\s#\[\]]+)`)
	tagStartRe   = regexp.MustCompile(`\s#[^\s#\[\]]`)
	trailingIDRe = regexp.MustCompile(`(?:^|\s)\^([A-Za-z0-9-]+)\s*$`)
	caretIDRe    = regexp.MustCompile(`^[A-Za-z0-9-]+$`)
	fieldIDRe    = regexp.MustCompile(`\[id::[ \t]*([^\]]*?)[ \t]*\]`)
)

// Parsed is the decoded form of a task's text.
type Parsed struct {
	Title     string
	Tags      []string // normalized with a leading '#', first-seen order
	Metadata  map[string]string
	Relations map[model.RelationKind][]string
	ID        string
}

// Refs returns the ids referenced under kind.
func (p Parsed) Refs(kind model.RelationKind) []string {
	return p.Relations[kind]
}

// HasTag reports whether the text carries tag (with or without '#').
func (p Parsed) HasTag(tag string) bool {
	want := NormalizeTag(tag)
	for _, t := range p.Tags {
		if t == want {
			return true
		}
	}
	return false
}

// NormalizeTag returns tag with exactly one leading '#'.
func NormalizeTag(tag string) string {
	return "#" + strings.TrimLeft(strings.TrimSpace(tag), "#")
}

// Decode splits text into its title and annotations. Tokens are stripped in a
// fixed order: relation tokens, bracket metadata, bare metadata, tags, and
// finally the trailing identifier.
func Decode(text string) Parsed {
	p := Parsed{
		Metadata:  make(map[string]string),
		Relations: make(map[model.RelationKind][]string),
	}

	rest := strip(text, relationRe, func(m []string) {
		if id := m[2]; id != "" {
			kind := model.RelationKind(m[1])
			p.Relations[kind] = append(p.Relations[kind], id)
		}
	})

	rest = strip(rest, bracketRe, func(m []string) {
		key := strings.TrimSpace(m[1])
		if strings.EqualFold(key, idKey) {
			if m[2] != "" {
				p.ID = m[2]
			}
			return
		}
		p.Metadata[key] = m[2]
	})

	rest = stripBare(rest, &p)

	rest = strip(rest, tagRe, func(m []string) {
		tag := NormalizeTag(m[1])
		if !p.HasTag(tag) {
			p.Tags = append(p.Tags, tag)
		}
	})

	if m := trailingIDRe.FindStringSubmatchIndex(rest); m != nil {
		p.ID = rest[m[2]:m[3]]
		rest = rest[:m[0]]
	}

	p.Title = strings.Join(strings.Fields(rest), " ")
	return p
}

// strip removes every match of re from s, calling fn with each submatch.
// Removed tokens are replaced with a single space.
func strip(s string, re *regexp.Regexp, fn func(m []string)) string {
	return re.ReplaceAllStringFunc(s, func(match string) string {
		fn(re.FindStringSubmatch(match))
		return " "
	})
}

// stripBare removes "key:: value" runs. A value ends at the next key, the
// next #tag, a trailing ^id anchor, or the end of the text.
func stripBare(s string, p *Parsed) string {
	region, anchor := s, ""
	if m := trailingIDRe.FindStringIndex(s); m != nil {
		region, anchor = s[:m[0]], s[m[0]:]
	}

	keys := bareKeyRe.FindAllStringSubmatchIndex(region, -1)
	if len(keys) == 0 {
		return s
	}

	var b strings.Builder
	cursor := 0
	for i, k := range keys {
		end := len(region)
		if i+1 < len(keys) {
			end = keys[i+1][0]
		}
		valueStart := k[1]
		if t := tagStartRe.FindStringIndex(region[valueStart:end]); t != nil {
			end = valueStart + t[0]
		}
		key := region[k[2]:k[3]]
		value := strings.TrimSpace(region[valueStart:end])
		if strings.EqualFold(key, idKey) {
			if value != "" {
				p.ID = value
			}
		} else {
			p.Metadata[key] = value
		}
		b.WriteString(region[cursor:k[0]])
		b.WriteByte(' ')
		cursor = end
	}
	b.WriteString(region[cursor:])
	b.WriteString(anchor)
	return b.String()
}

// Encode reassembles parsed text: title, tags, metadata, relation tokens and
// the identifier, joined by a two-space separator.
func Encode(p Parsed, style IDStyle) string {
	var parts []string
	if title := strings.TrimSpace(p.Title); title != "" {
		parts = append(parts, title)
	}
	for _, t := range p.Tags {
		if tag := NormalizeTag(t); tag != "#" {
			parts = append(parts, tag)
		}
	}

	keys := make([]string, 0, len(p.Metadata))
	for k := range p.Metadata {
		if !strings.EqualFold(k, idKey) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		parts = append(parts, "["+k+":: "+p.Metadata[k]+"]")
	}

	for _, kind := range model.TokenKinds {
		for _, ref := range p.Relations[kind] {
			parts = append(parts, RelationToken(kind, ref))
		}
	}

	if p.ID != "" {
		parts = append(parts, IdentifierToken(p.ID, style))
	}
	return strings.Join(parts, separator)
}

// IdentifierToken renders id in the given style. Ids the caret form cannot
// carry are always written as a field.
func IdentifierToken(id string, style IDStyle) string {
	if style == IDStyleField || !caretIDRe.MatchString(id) {
		return "[" + idKey + ":: " + id + "]"
	}
	return "^" + id
}
