package main

import (
	"fmt"
	"strings"

	"github.com/alfredjeanlab/taskboard/internal/ui"
	"github.com/spf13/cobra"
)

var taskCmd = &cobra.Command{
	Use:     "task",
	Short:   "Create, complete, archive or delete tasks",
	GroupID: "tasks",
}

var taskAddCmd = &cobra.Command{
	Use:   "add <path> <title>...",
	Short: "Append a checklist item to a document and place it on the board",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := app.session.CreateTask(cmd.Context(), args[0], strings.Join(args[1:], " "), placementFlags(cmd))
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), t)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created %s in %s\n", ui.RenderAccent(t.ID), t.Location.Path)
		return nil
	},
}

var taskRmCmd = &cobra.Command{
	Use:   "rm <task-id>",
	Short: "Delete a task's line from its document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.session.DeleteTask(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
		return nil
	},
}

var taskArchiveCmd = &cobra.Command{
	Use:   "archive <task-id>",
	Short: "Tombstone a task, keeping its line in the document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.session.ArchiveTask(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "archived %s\n", args[0])
		return nil
	},
}

var taskDoneCmd = &cobra.Command{
	Use:   "done <task-id>...",
	Short: "Tick task checkboxes (--undo to clear them)",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		undo, _ := cmd.Flags().GetBool("undo")
		for _, id := range args {
			changed, err := app.session.SetCompleted(cmd.Context(), id, !undo)
			if err != nil {
				return err
			}
			state := ui.RenderCheckbox(!undo)
			if !changed {
				state += " " + ui.RenderMuted("(unchanged)")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", state, id)
		}
		return nil
	},
}

func init() {
	addPlacementFlags(taskAddCmd)
	taskDoneCmd.Flags().Bool("undo", false, "clear the checkbox instead")

	taskCmd.AddCommand(taskAddCmd, taskRmCmd, taskArchiveCmd, taskDoneCmd)
}
