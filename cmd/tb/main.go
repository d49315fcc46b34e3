package main

import (
	"log/slog"
	"os"

	"github.com/alfredjeanlab/taskboard/internal/ui"
	"github.com/spf13/cobra"
)

var (
	vaultDir   string
	boardPath  string
	jsonOutput bool
	verbose    bool

	app *environment
)

// daemonAnnotation marks long-running commands, which log at info level.
const daemonAnnotation = "daemon"

var rootCmd = &cobra.Command{
	Use:          "tb <command>",
	Short:        "Keep a canvas board in step with the checklists in a markdown vault",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || (cmd.HasParent() && cmd.Parent().Name() == "completion") {
			return nil
		}
		env, err := openEnvironment(cmd.Context(), newLogger(cmd))
		if err != nil {
			return err
		}
		app = env
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if app != nil {
			app.Close()
			app = nil
		}
	},
}

func newLogger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelWarn
	if verbose || cmd.Annotations[daemonAnnotation] == "true" {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func init() {
	rootCmd.PersistentFlags().StringVar(&vaultDir, "vault", "", "vault directory (default $TASKBOARD_VAULT or .)")
	rootCmd.PersistentFlags().StringVar(&boardPath, "board", "", "board document path inside the vault")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log reconciliation details")

	rootCmd.AddGroup(
		&cobra.Group{ID: "board", Title: "Board:"},
		&cobra.Group{ID: "tasks", Title: "Tasks:"},
		&cobra.Group{ID: "views", Title: "Views:"},
		&cobra.Group{ID: "system", Title: "System:"},
	)

	cobra.EnableCommandSorting = false
	rootCmd.SetHelpFunc(colorizedHelpFunc())

	// Board
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(linkCmd)
	rootCmd.AddCommand(unlinkCmd)
	rootCmd.AddCommand(retypeCmd)
	rootCmd.AddCommand(layoutCmd)
	rootCmd.AddCommand(nodeCmd)

	// Tasks
	rootCmd.AddCommand(taskCmd)

	// Views
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(treeCmd)
	rootCmd.AddCommand(eventsCmd)

	// System
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(boardsCmd)
	rootCmd.AddCommand(remoteCmd)
}

func main() {
	ui.Setup()
	if err := rootCmd.Execute(); err != nil {
		// PersistentPostRun is skipped when a command fails.
		if app != nil {
			app.Close()
		}
		os.Exit(1)
	}
}
