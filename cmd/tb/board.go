package main

import (
	"fmt"

	"github.com/alfredjeanlab/taskboard/internal/layout"
	"github.com/alfredjeanlab/taskboard/internal/model"
	"github.com/alfredjeanlab/taskboard/internal/ui"
	"github.com/spf13/cobra"
)

var scanCmd = &cobra.Command{
	Use:     "scan",
	Short:   "Re-extract tasks from the vault and reconcile the board",
	GroupID: "board",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := app.session.Rescan(cmd.Context())
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), res)
		}
		printResult(cmd.OutOrStdout(), res, len(app.session.Snapshot().Tasks))
		return nil
	},
}

var linkCmd = &cobra.Command{
	Use:     "link <from> <to>",
	Short:   "Draw a relation between two nodes",
	Long:    "Draw a relation from -> to. For depends, subtask and sequence the token is also written into the target task's line.",
	GroupID: "board",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, _ := cmd.Flags().GetString("type")
		edge, err := app.session.Link(cmd.Context(), args[0], args[1], model.RelationKind(kind))
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), edge)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "linked %s\n", formatEdge(edge))
		return nil
	},
}

var unlinkCmd = &cobra.Command{
	Use:     "unlink <from> <to>",
	Short:   "Remove a relation and its text token",
	GroupID: "board",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, _ := cmd.Flags().GetString("type")
		removed, err := app.session.Unlink(cmd.Context(), args[0], args[1], model.RelationKind(kind))
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), map[string]bool{"removed": removed})
		}
		if !removed {
			fmt.Fprintln(cmd.OutOrStdout(), ui.RenderMuted("no such relation"))
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "unlinked %s -> %s (%s)\n", args[0], args[1], ui.RenderKind(model.RelationKind(kind)))
		return nil
	},
}

var retypeCmd = &cobra.Command{
	Use:     "retype <from> <to> <new-type>",
	Short:   "Change the kind of a relation, optionally reversing it",
	GroupID: "board",
	Args:    cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		oldKind, _ := cmd.Flags().GetString("type")
		swap, _ := cmd.Flags().GetBool("swap")
		edge, err := app.session.Retype(cmd.Context(), args[0], args[1], model.RelationKind(oldKind), model.RelationKind(args[2]), swap)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), edge)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "retyped to %s\n", formatEdge(edge))
		return nil
	},
}

var layoutCmd = &cobra.Command{
	Use:     "layout [node-id...]",
	Short:   "Arrange nodes as layered trees",
	GroupID: "board",
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")
		orientation, _ := cmd.Flags().GetString("orientation")
		spacingA, _ := cmd.Flags().GetFloat64("spacing-a")
		spacingB, _ := cmd.Flags().GetFloat64("spacing-b")

		ids := args
		if all {
			ids = app.session.Snapshot().Board.NodeIDs()
		}
		if len(ids) == 0 {
			return fmt.Errorf("no nodes given (pass ids or --all)")
		}
		opts := layout.Options{
			Orientation: model.Orientation(orientation),
			SpacingA:    spacingA,
			SpacingB:    spacingB,
		}
		if opts.Orientation == "" {
			opts.Orientation = app.cfg.LayoutOptions().Orientation
		}
		if !opts.Orientation.IsValid() {
			return fmt.Errorf("invalid orientation %q", orientation)
		}
		if opts.SpacingA == 0 {
			opts.SpacingA = app.cfg.SpacingA
		}
		if opts.SpacingB == 0 {
			opts.SpacingB = app.cfg.SpacingB
		}

		positions, err := app.session.Layout(cmd.Context(), ids, opts)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), positions)
		}
		for _, id := range ids {
			if p, ok := positions[id]; ok {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%.0f,%.0f\n", id, p.X, p.Y)
			}
		}
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{linkCmd, unlinkCmd} {
		c.Flags().StringP("type", "t", string(model.KindDepends), "relation kind (depends, subtask, sequence, link)")
	}
	retypeCmd.Flags().StringP("type", "t", string(model.KindDepends), "current relation kind")
	retypeCmd.Flags().Bool("swap", false, "reverse the relation")

	layoutCmd.Flags().Bool("all", false, "arrange every node on the board")
	layoutCmd.Flags().String("orientation", "", "vertical or horizontal (default from config)")
	layoutCmd.Flags().Float64("spacing-a", 0, "gap between siblings (default from config)")
	layoutCmd.Flags().Float64("spacing-b", 0, "gap between depth levels (default from config)")
}
