package main

import (
	"bufio"
	"context"
	"fmt"
	"os"

	boardsync "github.com/alfredjeanlab/taskboard/internal/sync"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:     "export",
	Short:   "Write the board and its tasks as JSONL",
	Long:    "Write the board and its tasks as JSONL to stdout or --out. With --push, send the export to the configured S3 and git destinations instead.",
	GroupID: "system",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("out")
		push, _ := cmd.Flags().GetBool("push")

		if push {
			dests := exportDestinations(cmd.Context())
			if len(dests) == 0 {
				return fmt.Errorf("no export destinations configured (set TASKBOARD_EXPORT_S3_BUCKET or TASKBOARD_EXPORT_GIT_REPO)")
			}
			report, err := boardsync.Push(cmd.Context(), app.session, dests, app.logger)
			if err != nil {
				return err
			}
			for _, name := range report.Written {
				fmt.Fprintf(cmd.ErrOrStderr(), "pushed %s (%d bytes)\n", name, report.Bytes)
			}
			return report.Err()
		}

		if out == "" {
			return boardsync.ExportJSONL(app.session.Snapshot(), cmd.OutOrStdout())
		}
		f, err := os.Create(out)
		if err != nil {
			return err
		}
		w := bufio.NewWriter(f)
		if err := boardsync.ExportJSONL(app.session.Snapshot(), w); err != nil {
			f.Close()
			return err
		}
		if err := w.Flush(); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	},
}

// exportDestinations builds the S3 and git destinations named in the config.
// A destination that cannot be set up is logged and skipped.
func exportDestinations(ctx context.Context) []boardsync.Destination {
	cfg := app.cfg
	var dests []boardsync.Destination
	if cfg.ExportS3Bucket != "" {
		s3Dest, err := boardsync.NewS3Destination(ctx, cfg.ExportS3Bucket, cfg.ExportS3Key, cfg.ExportS3Region, cfg.ExportS3Endpoint)
		if err != nil {
			app.logger.Error("failed to create S3 export destination", "err", err)
		} else {
			dests = append(dests, s3Dest)
			app.logger.Info("export S3 destination enabled", "bucket", cfg.ExportS3Bucket, "key", cfg.ExportS3Key)
		}
	}
	if cfg.ExportGitRepo != "" {
		dests = append(dests, boardsync.NewGitDestination(cfg.ExportGitRepo, cfg.ExportGitFile, cfg.ExportGitBranch))
		app.logger.Info("export git destination enabled", "repo", cfg.ExportGitRepo, "file", cfg.ExportGitFile)
	}
	return dests
}

func init() {
	exportCmd.Flags().StringP("out", "o", "", "write to a file instead of stdout")
	exportCmd.Flags().Bool("push", false, "push to the configured export destinations")
}
