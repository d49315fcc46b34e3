package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alfredjeanlab/taskboard/internal/model"
	"github.com/alfredjeanlab/taskboard/internal/session"
	"github.com/spf13/cobra"
)

var nodeCmd = &cobra.Command{
	Use:     "node",
	Short:   "Add, move or remove board nodes",
	GroupID: "board",
}

var nodeAddCmd = &cobra.Command{
	Use:   "add <task|note|post-it|board|group|lane> <arg>...",
	Short: "Put a node on the board",
	Long: `Put a node on the board.

  tb node add task <task-id>
  tb node add note <path>
  tb node add post-it <text>...
  tb node add board <path>
  tb node add group <name> [member-id...]
  tb node add lane <label> --w 400 --h 600`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		at := placementFlags(cmd)
		kind, rest := model.NodeType(args[0]), args[1:]

		var (
			n   *model.Node
			err error
		)
		switch kind {
		case model.NodeTask:
			n, err = app.session.AddTaskNode(ctx, rest[0], at)
		case model.NodeNote:
			n, err = app.session.AddNote(ctx, rest[0], at)
		case model.NodePostIt:
			n, err = app.session.AddPostIt(ctx, strings.Join(rest, " "), at)
		case model.NodeBoard:
			n, err = app.session.AddBoardRef(ctx, rest[0], at)
		case model.NodeGroup:
			n, err = app.session.CreateGroup(ctx, rest[0], rest[1:], at)
		case model.NodeLane:
			w, _ := cmd.Flags().GetFloat64("w")
			h, _ := cmd.Flags().GetFloat64("h")
			lane, err := app.session.AddLane(ctx, strings.Join(rest, " "), model.Rect{X: at.X, Y: at.Y, W: w, H: h}, "")
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), lane)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added lane %s\n", lane.ID)
			return nil
		default:
			return fmt.Errorf("unknown node type %q", args[0])
		}
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), n)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "added %s node %s at %.0f,%.0f\n", n.Type(), n.ID, n.X, n.Y)
		return nil
	},
}

var nodeRmCmd = &cobra.Command{
	Use:   "rm <node-id>",
	Short: "Remove a node and its edges from the board (documents are untouched)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.session.DeleteNode(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", args[0])
		return nil
	},
}

var nodeMoveCmd = &cobra.Command{
	Use:   "move <node-id> <x> <y>",
	Short: "Move a node",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		x, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("invalid x %q", args[1])
		}
		y, err := strconv.ParseFloat(args[2], 64)
		if err != nil {
			return fmt.Errorf("invalid y %q", args[2])
		}
		n, err := app.session.MoveNode(cmd.Context(), args[0], x, y)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), n)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "moved %s to %.0f,%.0f\n", n.ID, n.X, n.Y)
		return nil
	},
}

var nodeResizeCmd = &cobra.Command{
	Use:   "resize <node-id> <w> <h>",
	Short: "Resize a node (0 restores the default size)",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("invalid width %q", args[1])
		}
		h, err := strconv.ParseFloat(args[2], 64)
		if err != nil {
			return fmt.Errorf("invalid height %q", args[2])
		}
		n, err := app.session.ResizeNode(cmd.Context(), args[0], w, h)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), n)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "resized %s\n", n.ID)
		return nil
	},
}

var nodeCollapseCmd = &cobra.Command{
	Use:   "collapse <group-id>",
	Short: "Fold a group node (--expand to unfold)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		expand, _ := cmd.Flags().GetBool("expand")
		return app.session.SetGroupCollapsed(cmd.Context(), args[0], !expand)
	},
}

// placementFlags reads --x, --y, --lane and --color.
func placementFlags(cmd *cobra.Command) session.Placement {
	x, _ := cmd.Flags().GetFloat64("x")
	y, _ := cmd.Flags().GetFloat64("y")
	lane, _ := cmd.Flags().GetString("lane")
	color, _ := cmd.Flags().GetString("color")
	return session.Placement{X: x, Y: y, LaneID: lane, Color: color}
}

func addPlacementFlags(cmd *cobra.Command) {
	cmd.Flags().Float64("x", 0, "x position")
	cmd.Flags().Float64("y", 0, "y position")
	cmd.Flags().String("lane", "", "lane id to place the node in")
	cmd.Flags().String("color", "", "node color")
}

func init() {
	addPlacementFlags(nodeAddCmd)
	nodeAddCmd.Flags().Float64("w", 400, "lane width")
	nodeAddCmd.Flags().Float64("h", 600, "lane height")
	nodeCollapseCmd.Flags().Bool("expand", false, "unfold instead")

	nodeCmd.AddCommand(nodeAddCmd, nodeRmCmd, nodeMoveCmd, nodeResizeCmd, nodeCollapseCmd)
}
