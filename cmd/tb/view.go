package main

import (
	"fmt"

	"github.com/alfredjeanlab/taskboard/internal/model"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:     "show [task-id]",
	Short:   "Show the board, or one task and its relations",
	GroupID: "views",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		snap := app.session.Snapshot()
		if len(args) == 0 {
			if jsonOutput {
				return printJSON(out, snap)
			}
			printBoard(out, snap)
			return nil
		}

		t, err := app.session.Task(args[0])
		if err != nil {
			return err
		}
		var edges []model.Edge
		for _, e := range snap.Board.Edges {
			if e.Touches(t.ID) {
				edges = append(edges, e)
			}
		}
		if jsonOutput {
			return printJSON(out, map[string]any{"task": t, "edges": edges, "on_board": snap.Board.HasNode(t.ID)})
		}
		printTask(out, t)
		if !snap.Board.HasNode(t.ID) {
			fmt.Fprintln(out, "Board:       not placed")
		}
		for _, e := range edges {
			fmt.Fprintf(out, "Relation:    %s\n", formatEdge(e))
		}
		return nil
	},
}

var treeCmd = &cobra.Command{
	Use:     "tree",
	Short:   "Show tasks as parent/child trees",
	GroupID: "views",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		roots := app.session.Forest()
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), roots)
		}
		snap := app.session.Snapshot()
		tasks := make(map[string]*model.Task, len(snap.Tasks))
		for _, t := range snap.Tasks {
			tasks[t.ID] = t
		}
		printForest(cmd.OutOrStdout(), roots, tasks)
		return nil
	},
}
