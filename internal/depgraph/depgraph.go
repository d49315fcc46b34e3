// Package depgraph derives board edges from relation tokens in task text and
// builds the parent/child forest used by tree views.
package depgraph

import (
	"github.com/alfredjeanlab/taskboard/internal/codec"
	"github.com/alfredjeanlab/taskboard/internal/model"
)

// Build emits one edge per relation token. Tasks are visited by location and
// kinds in token order. A token of kind K held by task T that references X
// yields X -> T. Repeated tokens yield repeated edges.
func Build(tasks *model.TaskSet) []model.Edge {
	var edges []model.Edge
	for _, t := range tasks.Sorted() {
		p := codec.Decode(t.Text)
		for _, kind := range model.TokenKinds {
			for _, ref := range p.Refs(kind) {
				edges = append(edges, model.Edge{From: ref, To: t.ID, Type: kind})
			}
		}
	}
	return edges
}

// Tree is one node of the parent/child forest.
type Tree struct {
	ID       string  `json:"id"`
	Children []*Tree `json:"children,omitempty"`
}

// BuildForest arranges ids into trees using only subtask and depends edges.
// Roots are ids with no incoming hierarchical edge; a child with several
// parents appears under each. Edges touching unknown ids are ignored, and
// ids only reachable through a cycle become extra roots in input order.
func BuildForest(ids []string, edges []model.Edge) []*Tree {
	known := make(map[string]bool, len(ids))
	for _, id := range ids {
		known[id] = true
	}

	type pair struct{ from, to string }
	seen := make(map[pair]bool)
	children := make(map[string][]string)
	indegree := make(map[string]int)
	for _, e := range edges {
		if !e.Type.IsHierarchical() || !known[e.From] || !known[e.To] {
			continue
		}
		k := pair{e.From, e.To}
		if seen[k] {
			continue
		}
		seen[k] = true
		children[e.From] = append(children[e.From], e.To)
		indegree[e.To]++
	}

	visited := make(map[string]bool)
	var grow func(id string, ancestors map[string]bool) *Tree
	grow = func(id string, ancestors map[string]bool) *Tree {
		visited[id] = true
		t := &Tree{ID: id}
		ancestors[id] = true
		for _, c := range children[id] {
			if ancestors[c] {
				continue
			}
			t.Children = append(t.Children, grow(c, ancestors))
		}
		delete(ancestors, id)
		return t
	}

	var roots []*Tree
	for _, id := range ids {
		if indegree[id] == 0 {
			roots = append(roots, grow(id, map[string]bool{}))
		}
	}
	for _, id := range ids {
		if !visited[id] {
			roots = append(roots, grow(id, map[string]bool{}))
		}
	}
	return roots
}

// Walk visits every tree node depth-first with its depth.
func Walk(roots []*Tree, fn func(t *Tree, depth int)) {
	var visit func(t *Tree, depth int)
	visit = func(t *Tree, depth int) {
		fn(t, depth)
		for _, c := range t.Children {
			visit(c, depth+1)
		}
	}
	for _, r := range roots {
		visit(r, 0)
	}
}
