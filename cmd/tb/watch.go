package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alfredjeanlab/taskboard/internal/session"
	"github.com/alfredjeanlab/taskboard/internal/watch"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:         "watch",
	Short:       "Reconcile the board whenever vault documents change",
	GroupID:     "system",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{daemonAnnotation: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return newWatcher(app.session).Run(ctx)
	},
}

// newWatcher polls the app's documents, skipping the board file, and hands
// changes to sess.
func newWatcher(sess *session.Session) *watch.Watcher {
	handler := func(ctx context.Context, paths []string) error {
		_, err := sess.HandleDocumentChange(ctx, paths)
		return err
	}
	return watch.New(app.docs, app.cfg.WatchInterval, handler, app.logger, app.cfg.BoardPath)
}
