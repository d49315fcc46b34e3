package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/alfredjeanlab/taskboard/internal/depgraph"
	"github.com/alfredjeanlab/taskboard/internal/model"
	"github.com/alfredjeanlab/taskboard/internal/reconcile"
	"github.com/alfredjeanlab/taskboard/internal/session"
	"github.com/alfredjeanlab/taskboard/internal/ui"
)

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func printResult(w io.Writer, res reconcile.Result, tasks int) {
	fmt.Fprintf(w, "%d tasks, %d edges kept, %d preserved\n", tasks, res.Kept, res.Preserved)
	if len(res.PrunedNodes) > 0 {
		fmt.Fprintf(w, "pruned nodes: %s\n", strings.Join(res.PrunedNodes, ", "))
	}
	for _, e := range res.PrunedEdges {
		fmt.Fprintf(w, "pruned edge:  %s\n", formatEdge(e))
	}
	for _, e := range res.AddedEdges {
		fmt.Fprintf(w, "added edge:   %s\n", formatEdge(e))
	}
	if !res.Changed {
		fmt.Fprintln(w, ui.RenderMuted("board unchanged"))
	}
}

func formatEdge(e model.Edge) string {
	return fmt.Sprintf("%s -> %s (%s)", e.From, e.To, ui.RenderKind(e.Type))
}

func printTask(w io.Writer, t *model.Task) {
	fmt.Fprintf(w, "ID:          %s\n", ui.RenderAccent(t.ID))
	fmt.Fprintf(w, "Text:        %s\n", t.Text)
	fmt.Fprintf(w, "Completed:   %s\n", ui.RenderCheckbox(t.Completed))
	fmt.Fprintf(w, "Location:    %s:%d\n", t.Location.Path, t.Location.Line+1)
	if t.NotePath != "" {
		fmt.Fprintf(w, "Note:        %s\n", t.NotePath)
	}
	if t.Description != "" {
		fmt.Fprintf(w, "Description: %s\n", t.Description)
	}
}

func printBoard(w io.Writer, snap session.Snapshot) {
	b := snap.Board
	if b.Title != "" {
		fmt.Fprintln(w, ui.RenderAccent(b.Title))
	}
	texts := make(map[string]*model.Task, len(snap.Tasks))
	for _, t := range snap.Tasks {
		texts[t.ID] = t
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTYPE\tPOSITION\tLABEL")
	for _, id := range b.NodeIDs() {
		n := b.Nodes[id]
		fmt.Fprintf(tw, "%s\t%s\t%.0f,%.0f\t%s\n", id, n.Type(), n.X, n.Y, nodeLabel(n, texts))
	}
	tw.Flush()

	if len(b.Edges) > 0 {
		fmt.Fprintln(w)
		for _, e := range b.Edges {
			fmt.Fprintln(w, formatEdge(e))
		}
	}
	if len(b.Lanes) > 0 {
		fmt.Fprintln(w)
		ids := make([]string, 0, len(b.Lanes))
		for id := range b.Lanes {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			l := b.Lanes[id]
			fmt.Fprintf(w, "lane %s %q at %.0f,%.0f %.0fx%.0f\n", id, l.Label, l.X, l.Y, l.W, l.H)
		}
	}
}

func nodeLabel(n *model.Node, tasks map[string]*model.Task) string {
	switch p := n.Payload.(type) {
	case model.GroupPayload:
		label := fmt.Sprintf("%s [%s]", p.Name, strings.Join(p.Members, " "))
		if p.Collapsed {
			label += " (collapsed)"
		}
		return label
	case model.NotePayload:
		return p.Path
	case model.PostItPayload:
		return p.Content
	case model.BoardPayload:
		return fmt.Sprintf("%s (%d/%d done)", p.Title, p.DoneCount, p.TaskCount)
	}
	if t, ok := tasks[n.ID]; ok {
		return ui.RenderCheckbox(t.Completed) + " " + t.Text
	}
	return ui.RenderWarn("missing task")
}

// printForest writes each tree as an indented checklist.
func printForest(w io.Writer, roots []*depgraph.Tree, tasks map[string]*model.Task) {
	width := ui.Width()
	var walk func(t *depgraph.Tree, depth int)
	walk = func(t *depgraph.Tree, depth int) {
		indent := strings.Repeat("  ", depth)
		if task, ok := tasks[t.ID]; ok {
			text := task.Text
			if width > 0 {
				// checkbox, two spaces and the id share the line
				text = ui.Truncate(text, width-len(indent)-len(t.ID)-5)
			}
			fmt.Fprintf(w, "%s%s %s %s\n", indent, ui.RenderCheckbox(task.Completed), text, ui.RenderMuted(t.ID))
		} else {
			fmt.Fprintf(w, "%s%s\n", indent, t.ID)
		}
		for _, c := range t.Children {
			walk(c, depth+1)
		}
	}
	for _, r := range roots {
		walk(r, 0)
	}
}
