package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/alfredjeanlab/taskboard/internal/client"
	"github.com/alfredjeanlab/taskboard/internal/model"
	"github.com/alfredjeanlab/taskboard/internal/ui"
	"github.com/spf13/cobra"
)

var (
	remoteServer string
	remoteToken  string
)

var remoteCmd = &cobra.Command{
	Use:     "remote",
	Short:   "Drive a board served by `tb serve`",
	Long:    "Drive a board served by `tb serve` over its HTTP API. The server defaults to $TASKBOARD_SERVER and the token to $TASKBOARD_AUTH_TOKEN.",
	GroupID: "system",
	// No local vault is opened; everything goes over HTTP.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
}

// newRemoteClient builds a client from the --server and --token flags.
func newRemoteClient() (client.BoardClient, error) {
	server := remoteServer
	if server == "" {
		server = os.Getenv("TASKBOARD_SERVER")
	}
	if server == "" {
		return nil, fmt.Errorf("no server given (use --server or TASKBOARD_SERVER)")
	}
	if !strings.Contains(server, "://") {
		server = "http://" + server
	}
	token := remoteToken
	if token == "" {
		token = os.Getenv("TASKBOARD_AUTH_TOKEN")
	}
	return client.NewHTTPClient(server, token), nil
}

var remoteStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check the server and summarize its board",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newRemoteClient()
		if err != nil {
			return err
		}
		defer c.Close()

		status, err := c.Health(cmd.Context())
		if err != nil {
			return err
		}
		b, err := c.GetBoard(cmd.Context())
		if err != nil {
			return err
		}
		tasks, err := c.ListTasks(cmd.Context(), nil)
		if err != nil {
			return err
		}
		done := 0
		for _, t := range tasks.Tasks {
			if t.Completed {
				done++
			}
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), map[string]any{
				"status": status,
				"title":  b.Title,
				"nodes":  len(b.Nodes),
				"edges":  len(b.Edges),
				"tasks":  tasks.Total,
				"done":   done,
			})
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "server: %s\n", ui.RenderAccent(status))
		if b.Title != "" {
			fmt.Fprintf(out, "board:  %s\n", b.Title)
		}
		fmt.Fprintf(out, "nodes:  %d\nedges:  %d\ntasks:  %d (%d done)\n", len(b.Nodes), len(b.Edges), tasks.Total, done)
		return nil
	},
}

var remoteScanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Ask the server to rescan its vault",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newRemoteClient()
		if err != nil {
			return err
		}
		defer c.Close()

		res, err := c.Rescan(cmd.Context())
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), res)
		}
		tasks, err := c.ListTasks(cmd.Context(), nil)
		if err != nil {
			return err
		}
		printResult(cmd.OutOrStdout(), *res, tasks.Total)
		return nil
	},
}

var remoteLinkCmd = &cobra.Command{
	Use:   "link <from> <to>",
	Short: "Draw a relation on the served board",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newRemoteClient()
		if err != nil {
			return err
		}
		defer c.Close()

		kind, _ := cmd.Flags().GetString("type")
		edge, err := c.Link(cmd.Context(), args[0], args[1], model.RelationKind(kind))
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), edge)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "linked %s\n", formatEdge(*edge))
		return nil
	},
}

var remoteUnlinkCmd = &cobra.Command{
	Use:   "unlink <from> <to>",
	Short: "Remove a relation from the served board",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newRemoteClient()
		if err != nil {
			return err
		}
		defer c.Close()

		kind, _ := cmd.Flags().GetString("type")
		removed, err := c.Unlink(cmd.Context(), args[0], args[1], model.RelationKind(kind))
		if err != nil {
			return err
		}
		if !removed {
			fmt.Fprintln(cmd.OutOrStdout(), ui.RenderMuted("no such relation"))
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "unlinked %s -> %s (%s)\n", args[0], args[1], ui.RenderKind(model.RelationKind(kind)))
		return nil
	},
}

var remoteDoneCmd = &cobra.Command{
	Use:   "done <task-id>...",
	Short: "Tick task checkboxes on the served board (--undo to clear them)",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newRemoteClient()
		if err != nil {
			return err
		}
		defer c.Close()

		undo, _ := cmd.Flags().GetBool("undo")
		for _, id := range args {
			changed, err := c.SetCompleted(cmd.Context(), id, !undo)
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

var remoteTreeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Show the served tasks as parent/child trees",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newRemoteClient()
		if err != nil {
			return err
		}
		defer c.Close()

		roots, err := c.GetTree(cmd.Context())
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), roots)
		}
		list, err := c.ListTasks(cmd.Context(), nil)
		if err != nil {
			return err
		}
		tasks := make(map[string]*model.Task, len(list.Tasks))
		for _, t := range list.Tasks {
			tasks[t.ID] = t
		}
		printForest(cmd.OutOrStdout(), roots, tasks)
		return nil
	},
}

func init() {
	remoteCmd.PersistentFlags().StringVar(&remoteServer, "server", "", "server URL (default $TASKBOARD_SERVER)")
	remoteCmd.PersistentFlags().StringVar(&remoteToken, "token", "", "bearer token (default $TASKBOARD_AUTH_TOKEN)")

	for _, c := range []*cobra.Command{remoteLinkCmd, remoteUnlinkCmd} {
		c.Flags().StringP("type", "t", string(model.KindDepends), "relation kind (depends, subtask, sequence, link)")
	}
	remoteDoneCmd.Flags().Bool("undo", false, "clear the checkbox instead")

	remoteCmd.AddCommand(remoteStatusCmd, remoteScanCmd, remoteLinkCmd, remoteUnlinkCmd, remoteDoneCmd, remoteTreeCmd)
}
