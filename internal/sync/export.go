package sync

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/alfredjeanlab/taskboard/internal/session"
)

// header is the first JSONL record written by ExportJSONL.
type header struct {
	Version   string    `json:"version"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Title     string    `json:"title"`
	NodeCount int       `json:"node_count"`
	EdgeCount int       `json:"edge_count"`
	LaneCount int       `json:"lane_count"`
	TaskCount int       `json:"task_count"`
}

// record wraps a single JSONL line with a type discriminator.
type record struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Source supplies the state to export.
type Source interface {
	Snapshot() session.Snapshot
}

// now is replaced in tests.
var now = func() time.Time { return time.Now().UTC() }

// ExportJSONL writes a board and its tasks as JSONL to w: a header, then
// nodes and lanes sorted by id, edges in board order, and tasks sorted by id.
func ExportJSONL(snap session.Snapshot, w io.Writer) error {
	b := snap.Board

	nodeIDs := b.NodeIDs()
	laneIDs := make([]string, 0, len(b.Lanes))
	for id := range b.Lanes {
		laneIDs = append(laneIDs, id)
	}
	sort.Strings(laneIDs)

	tasks := append(snap.Tasks[:0:0], snap.Tasks...)
	sort.Slice(tasks, func(i, j int) bool {
		return tasks[i].ID < tasks[j].ID
	})

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(header{
		Version:   "1",
		Type:      "header",
		Timestamp: now(),
		Title:     b.Title,
		NodeCount: len(nodeIDs),
		EdgeCount: len(b.Edges),
		LaneCount: len(laneIDs),
		TaskCount: len(tasks),
	}); err != nil {
		return fmt.Errorf("encode header: %w", err)
	}

	for _, id := range nodeIDs {
		if err := enc.Encode(record{Type: "node", Data: b.Nodes[id]}); err != nil {
			return fmt.Errorf("encode node %s: %w", id, err)
		}
	}
	for i, e := range b.Edges {
		if err := enc.Encode(record{Type: "edge", Data: e}); err != nil {
			return fmt.Errorf("encode edge %d: %w", i, err)
		}
	}
	for _, id := range laneIDs {
		if err := enc.Encode(record{Type: "lane", Data: b.Lanes[id]}); err != nil {
			return fmt.Errorf("encode lane %s: %w", id, err)
		}
	}
	for _, t := range tasks {
		if err := enc.Encode(record{Type: "task", Data: t}); err != nil {
			return fmt.Errorf("encode task %s: %w", t.ID, err)
		}
	}
	return nil
}
