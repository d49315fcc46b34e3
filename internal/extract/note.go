package extract

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/alfredjeanlab/taskboard/internal/docstore"
)

// NoteKeys are the metadata keys that link a task to a note document, in
// order of precedence.
var NoteKeys = []string{"note", "notePath"}

func noteRef(meta map[string]string) string {
	for _, k := range NoteKeys {
		if ref := meta[k]; ref != "" {
			return ref
		}
	}
	return ""
}

// frontMatter holds the note fields the extractor cares about.
type frontMatter struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Summary     string `yaml:"summary"`
}

func (fm frontMatter) description() string {
	if fm.Description != "" {
		return fm.Description
	}
	return fm.Summary
}

// firstParagraph returns the leading block of non-blank lines of body.
func firstParagraph(body string) string {
	var lines []string
	for _, line := range strings.Split(body, "\n") {
		if strings.TrimSpace(line) == "" {
			if len(lines) > 0 {
				break
			}
			continue
		}
		lines = append(lines, strings.TrimRight(line, " \t"))
	}
	return strings.Join(lines, "\n")
}

// parseNote splits YAML front matter from a note body. Notes without front
// matter return the whole content as body.
func parseNote(content string) (frontMatter, string, error) {
	var fm frontMatter
	content = strings.ReplaceAll(content, "\r\n", "\n")

	sc := bufio.NewScanner(strings.NewReader(content))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	if !sc.Scan() || strings.TrimSpace(sc.Text()) != "---" {
		return fm, strings.TrimSpace(content), nil
	}

	var header strings.Builder
	closed := false
	consumed := len(sc.Text()) + 1
	for sc.Scan() {
		line := sc.Text()
		consumed += len(line) + 1
		if strings.TrimSpace(line) == "---" {
			closed = true
			break
		}
		header.WriteString(line)
		header.WriteByte('\n')
	}
	if !closed {
		return fm, strings.TrimSpace(content), fmt.Errorf("unterminated front matter")
	}

	body := ""
	if consumed < len(content) {
		body = content[consumed:]
	}
	if err := yaml.Unmarshal([]byte(header.String()), &fm); err != nil {
		return frontMatter{}, strings.TrimSpace(body), fmt.Errorf("parse front matter: %w", err)
	}
	return fm, strings.TrimSpace(body), nil
}

// resolveNote loads the description for a note reference. The front matter
// description or summary wins over the first paragraph of the body.
func (e *Extractor) resolveNote(ctx context.Context, ref string) (string, string, error) {
	p, err := docstore.Resolve(ctx, e.docs, ref)
	if err != nil {
		return "", "", err
	}
	content, err := e.docs.Read(ctx, p)
	if err != nil {
		return "", "", err
	}
	fm, body, err := parseNote(content)
	if err != nil {
		e.logger.Debug("note front matter ignored", "path", p, "err", err)
	}
	if desc := fm.description(); desc != "" {
		return p, desc, nil
	}
	return p, firstParagraph(body), nil
}
