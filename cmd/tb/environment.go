package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alfredjeanlab/taskboard/internal/config"
	"github.com/alfredjeanlab/taskboard/internal/docstore"
	"github.com/alfredjeanlab/taskboard/internal/events"
	"github.com/alfredjeanlab/taskboard/internal/hooks"
	"github.com/alfredjeanlab/taskboard/internal/session"
	"github.com/alfredjeanlab/taskboard/internal/store"
	"github.com/alfredjeanlab/taskboard/internal/store/postgres"
)

// environment is everything a command needs to work on one board.
type environment struct {
	cfg       *config.Config
	logger    *slog.Logger
	docs      docstore.Store
	store     store.Store
	publisher events.Publisher
	session   *session.Session
}

// loadConfig reads the config for the --vault flag and applies --board.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(vaultDir)
	if err != nil {
		return nil, err
	}
	if boardPath != "" {
		cfg.BoardPath = boardPath
	}
	return cfg, nil
}

// openEnvironment loads the config, connects the document and board stores
// and the event publisher, and opens a session. Extra publishers receive every
// session event alongside the configured one, as do configured hooks.
func openEnvironment(ctx context.Context, logger *slog.Logger, extra ...events.Publisher) (*environment, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	env := &environment{cfg: cfg, logger: logger}

	if env.docs, err = openDocuments(ctx, cfg); err != nil {
		return nil, err
	}

	if cfg.DatabaseURL != "" {
		pg, err := postgres.New(cfg.DatabaseURL, cfg.BoardPath, logger)
		if err != nil {
			return nil, err
		}
		env.store = pg
	} else {
		env.store = store.NewDocumentStore(env.docs, cfg.BoardPath, logger)
	}

	var publisher events.Publisher = &events.NoopPublisher{}
	if cfg.NATSURL != "" {
		pub, err := events.NewNATSPublisher(cfg.NATSURL)
		if err != nil {
			env.store.Close()
			return nil, err
		}
		publisher = pub
		logger.Info("events enabled", "nats_url", cfg.NATSURL)
	}
	if len(cfg.Hooks) > 0 {
		extra = append(extra, hooks.NewRunner(cfg.Hooks, cfg.VaultDir, logger))
	}
	if len(extra) > 0 {
		publisher = append(events.Multi{publisher}, extra...)
	}
	env.publisher = publisher

	env.session, err = session.Open(ctx, env.docs, env.store, session.Options{
		BoardPath: cfg.BoardPath,
		Filter:    cfg.Filter(),
		IDStyle:   cfg.Style(),
		Layout:    cfg.LayoutOptions(),
	}, publisher, logger)
	if err != nil {
		env.Close()
		return nil, fmt.Errorf("open board %s: %w", cfg.BoardPath, err)
	}
	return env, nil
}

func openDocuments(ctx context.Context, cfg *config.Config) (docstore.Store, error) {
	if cfg.Backend == config.BackendS3 {
		s3, err := docstore.NewS3(ctx, cfg.S3Bucket, cfg.S3Prefix, cfg.S3Region, cfg.S3Endpoint)
		if err != nil {
			return nil, err
		}
		return s3, nil
	}
	fs, err := docstore.NewFS(cfg.VaultDir)
	if err != nil {
		return nil, err
	}
	return fs, nil
}

// Close releases the publisher and the board store.
func (e *environment) Close() {
	if e.publisher != nil {
		if err := e.publisher.Close(); err != nil {
			e.logger.Error("error closing publisher", "err", err)
		}
	}
	if e.store != nil {
		if err := e.store.Close(); err != nil {
			e.logger.Error("error closing store", "err", err)
		}
	}
}
