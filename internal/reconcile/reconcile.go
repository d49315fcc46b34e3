// Package reconcile merges freshly derived tasks and edges into a persisted
// board.
package reconcile

import (
	"github.com/alfredjeanlab/taskboard/internal/model"
)

// Result reports what a pass changed.
type Result struct {
	Changed     bool         `json:"changed"`
	PrunedNodes []string     `json:"pruned_nodes,omitempty"`
	PrunedEdges []model.Edge `json:"pruned_edges,omitempty"`
	AddedEdges  []model.Edge `json:"added_edges,omitempty"`
	Kept        int          `json:"kept"`      // still derivable from text
	Preserved   int          `json:"preserved"` // board-only edges
}

// Reconcile updates b in place so it agrees with tasks and derived:
//
//  1. task nodes whose task is gone are removed; structural nodes stay
//  2. edges with an endpoint that is neither a node nor a live task are
//     removed, as are repeats
//  3. surviving edges are kept whether or not they are still derivable
//  4. derived edges not yet present are appended when both ends are nodes
//
// A second call with the same inputs changes nothing.
func Reconcile(b *model.Board, tasks *model.TaskSet, derived []model.Edge) Result {
	var res Result

	for _, id := range b.NodeIDs() {
		n := b.Nodes[id]
		if n.IsStructural() || tasks.Has(id) {
			continue
		}
		delete(b.Nodes, id)
		res.PrunedNodes = append(res.PrunedNodes, id)
	}
	if len(res.PrunedNodes) > 0 {
		dropGroupMembers(b, res.PrunedNodes)
	}

	derivable := make(map[model.Signature]bool, len(derived))
	for _, e := range derived {
		derivable[e.Signature()] = true
	}

	present := make(map[model.Signature]bool, len(b.Edges))
	kept := make([]model.Edge, 0, len(b.Edges))
	for _, e := range b.Edges {
		sig := e.Signature()
		if !live(b, tasks, e.From) || !live(b, tasks, e.To) || present[sig] {
			res.PrunedEdges = append(res.PrunedEdges, e)
			continue
		}
		present[sig] = true
		if derivable[sig] {
			res.Kept++
		} else {
			res.Preserved++
		}
		kept = append(kept, e)
	}

	for _, e := range derived {
		sig := e.Signature()
		if present[sig] || !b.HasNode(e.From) || !b.HasNode(e.To) {
			continue
		}
		present[sig] = true
		added := model.Edge{From: e.From, To: e.To, Type: e.Type}
		kept = append(kept, added)
		res.AddedEdges = append(res.AddedEdges, added)
	}

	b.Edges = kept
	res.Changed = len(res.PrunedNodes) > 0 || len(res.PrunedEdges) > 0 || len(res.AddedEdges) > 0
	return res
}

func live(b *model.Board, tasks *model.TaskSet, id string) bool {
	return b.HasNode(id) || tasks.Has(id)
}

func dropGroupMembers(b *model.Board, gone []string) {
	removed := make(map[string]bool, len(gone))
	for _, id := range gone {
		removed[id] = true
	}
	for _, n := range b.Nodes {
		g, ok := n.Payload.(model.GroupPayload)
		if !ok {
			continue
		}
		var members []string
		for _, m := range g.Members {
			if !removed[m] {
				members = append(members, m)
			}
		}
		if len(members) != len(g.Members) {
			g.Members = members
			n.Payload = g
		}
	}
}
