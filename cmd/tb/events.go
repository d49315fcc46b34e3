package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/alfredjeanlab/taskboard/internal/events"
	"github.com/alfredjeanlab/taskboard/internal/ui"
	"github.com/spf13/cobra"
)

var eventsCmd = &cobra.Command{
	Use:     "events [topic...]",
	Short:   "Stream board events from NATS",
	Long:    "Stream board events from NATS. Topics default to every taskboard topic (taskboard.>); NATS wildcards are accepted.",
	GroupID: "views",
	// Only the config is needed; no session is opened.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.NATSURL == "" {
			return fmt.Errorf("TASKBOARD_NATS_URL is not set")
		}
		sub, err := events.NewNATSSubscriber(cfg.NATSURL)
		if err != nil {
			return err
		}
		defer sub.Close()

		ch, cancel, err := sub.Subscribe(args...)
		if err != nil {
			return err
		}
		defer cancel()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		out := cmd.OutOrStdout()
		for {
			select {
			case <-ctx.Done():
				return nil
			case m, ok := <-ch:
				if !ok {
					return nil
				}
				printEvent(out, m.Topic, m.Data)
			}
		}
	},
}

func printEvent(w io.Writer, topic string, data []byte) {
	if jsonOutput {
		fmt.Fprintf(w, "{\"topic\":%q,\"event\":%s}\n", topic, data)
		return
	}
	var body map[string]any
	if err := json.Unmarshal(data, &body); err != nil {
		fmt.Fprintf(w, "%s %s\n", ui.RenderAccent(topic), data)
		return
	}
	delete(body, "board")
	compact, _ := json.Marshal(body)
	fmt.Fprintf(w, "%s %s\n", ui.RenderAccent(topic), compact)
}
