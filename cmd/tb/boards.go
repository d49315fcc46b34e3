package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/alfredjeanlab/taskboard/internal/store/postgres"
	"github.com/spf13/cobra"
)

var boardsCmd = &cobra.Command{
	Use:     "boards",
	Short:   "List boards kept in the database",
	GroupID: "system",
	Args:    cobra.NoArgs,
	// Lists rows only; no session is opened.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.DatabaseURL == "" {
			return fmt.Errorf("TASKBOARD_DATABASE_URL is not set; boards are stored in the vault")
		}
		st, err := postgres.New(cfg.DatabaseURL, cfg.BoardPath, newLogger(cmd))
		if err != nil {
			return err
		}
		defer st.Close()

		boards, err := st.List(cmd.Context())
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), boards)
		}
		if len(boards) == 0 {
			fmt.Fprintln(os.Stderr, "No boards found.")
			return nil
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tTITLE\tUPDATED")
		for _, b := range boards {
			fmt.Fprintf(w, "%s\t%s\t%s\n", b.Name, b.Title, b.UpdatedAt.Format("2006-01-02 15:04:05"))
		}
		return w.Flush()
	},
}
