// Package config loads taskboard settings from <vault>/.taskboard.toml and
// TASKBOARD_* environment variables. Environment values win over the file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/alfredjeanlab/taskboard/internal/codec"
	"github.com/alfredjeanlab/taskboard/internal/events"
	"github.com/alfredjeanlab/taskboard/internal/extract"
	"github.com/alfredjeanlab/taskboard/internal/hooks"
	"github.com/alfredjeanlab/taskboard/internal/layout"
	"github.com/alfredjeanlab/taskboard/internal/model"
)

// FileName is the config file looked up in the vault root.
const FileName = ".taskboard.toml"

// Document backends.
const (
	BackendFS = "fs"
	BackendS3 = "s3"
)

type Config struct {
	VaultDir  string   // TASKBOARD_VAULT (default ".")
	BoardPath string   // TASKBOARD_BOARD (default "taskboard.json")
	Tags      []string // TASKBOARD_TAGS (comma-separated)
	Folders   []string // TASKBOARD_FOLDERS (comma-separated)
	IDStyle   string   // TASKBOARD_ID_STYLE (default "caret")

	Orientation string  // TASKBOARD_ORIENTATION (default "vertical")
	SpacingA    float64 // TASKBOARD_SPACING_A (default 40)
	SpacingB    float64 // TASKBOARD_SPACING_B (default 60)

	Backend    string // TASKBOARD_BACKEND (fs or s3, default fs)
	S3Bucket   string // TASKBOARD_S3_BUCKET (required for s3)
	S3Prefix   string // TASKBOARD_S3_PREFIX
	S3Region   string // TASKBOARD_S3_REGION (default "us-east-1")
	S3Endpoint string // TASKBOARD_S3_ENDPOINT (custom endpoint for MinIO)

	DatabaseURL string // TASKBOARD_DATABASE_URL (optional; boards go to postgres when set)
	NATSURL     string // TASKBOARD_NATS_URL (optional, empty = no events)
	HTTPAddr    string // TASKBOARD_HTTP_ADDR (default ":8080")
	AuthToken   string // TASKBOARD_AUTH_TOKEN (optional, empty = auth disabled)

	WatchInterval time.Duration // TASKBOARD_WATCH_INTERVAL (default 2s)

	// Export settings
	ExportInterval   time.Duration // TASKBOARD_EXPORT_INTERVAL (default 0 = disabled)
	ExportS3Bucket   string        // TASKBOARD_EXPORT_S3_BUCKET (enables S3 when set)
	ExportS3Endpoint string        // TASKBOARD_EXPORT_S3_ENDPOINT
	ExportS3Region   string        // TASKBOARD_EXPORT_S3_REGION (default "us-east-1")
	ExportS3Key      string        // TASKBOARD_EXPORT_S3_KEY (default "taskboard/board.jsonl")
	ExportGitRepo    string        // TASKBOARD_EXPORT_GIT_REPO (enables git when set; path to clone)
	ExportGitFile    string        // TASKBOARD_EXPORT_GIT_FILE (default "board.jsonl")
	ExportGitBranch  string        // TASKBOARD_EXPORT_GIT_BRANCH (default "main")

	// Hooks are read from [[hook]] tables only.
	Hooks []hooks.Hook
}

// file mirrors the TOML layout. Durations and numbers stay strings until
// the environment has had its say.
type file struct {
	Board       string   `toml:"board"`
	Tags        []string `toml:"tags"`
	Folders     []string `toml:"folders"`
	IDStyle     string   `toml:"id_style"`
	Orientation string   `toml:"orientation"`
	SpacingA    float64  `toml:"spacing_a"`
	SpacingB    float64  `toml:"spacing_b"`

	Backend string `toml:"backend"`
	S3      struct {
		Bucket   string `toml:"bucket"`
		Prefix   string `toml:"prefix"`
		Region   string `toml:"region"`
		Endpoint string `toml:"endpoint"`
	} `toml:"s3"`

	DatabaseURL   string `toml:"database_url"`
	NATSURL       string `toml:"nats_url"`
	HTTPAddr      string `toml:"http_addr"`
	AuthToken     string `toml:"auth_token"`
	WatchInterval string `toml:"watch_interval"`

	Export struct {
		Interval   string `toml:"interval"`
		S3Bucket   string `toml:"s3_bucket"`
		S3Endpoint string `toml:"s3_endpoint"`
		S3Region   string `toml:"s3_region"`
		S3Key      string `toml:"s3_key"`
		GitRepo    string `toml:"git_repo"`
		GitFile    string `toml:"git_file"`
		GitBranch  string `toml:"git_branch"`
	} `toml:"export"`

	Hooks []hooks.Hook `toml:"hook"`
}

// Load reads the config for vault. An empty vault falls back to
// TASKBOARD_VAULT and then the working directory. A missing config file is
// not an error.
func Load(vault string) (*Config, error) {
	if vault == "" {
		vault = envOrDefault("TASKBOARD_VAULT", ".")
	}
	var f file
	if _, err := toml.DecodeFile(filepath.Join(vault, FileName), &f); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read %s: %w", FileName, err)
	}

	c := &Config{
		VaultDir:    vault,
		BoardPath:   envOrDefault("TASKBOARD_BOARD", or(f.Board, "taskboard.json")),
		Tags:        listOrDefault("TASKBOARD_TAGS", f.Tags),
		Folders:     listOrDefault("TASKBOARD_FOLDERS", f.Folders),
		IDStyle:     envOrDefault("TASKBOARD_ID_STYLE", or(f.IDStyle, string(codec.IDStyleCaret))),
		Orientation: envOrDefault("TASKBOARD_ORIENTATION", or(f.Orientation, string(model.OrientationVertical))),

		Backend:    envOrDefault("TASKBOARD_BACKEND", or(f.Backend, BackendFS)),
		S3Bucket:   envOrDefault("TASKBOARD_S3_BUCKET", f.S3.Bucket),
		S3Prefix:   envOrDefault("TASKBOARD_S3_PREFIX", f.S3.Prefix),
		S3Region:   envOrDefault("TASKBOARD_S3_REGION", or(f.S3.Region, "us-east-1")),
		S3Endpoint: envOrDefault("TASKBOARD_S3_ENDPOINT", f.S3.Endpoint),

		DatabaseURL: envOrDefault("TASKBOARD_DATABASE_URL", f.DatabaseURL),
		NATSURL:     envOrDefault("TASKBOARD_NATS_URL", f.NATSURL),
		HTTPAddr:    envOrDefault("TASKBOARD_HTTP_ADDR", or(f.HTTPAddr, ":8080")),
		AuthToken:   envOrDefault("TASKBOARD_AUTH_TOKEN", f.AuthToken),

		ExportS3Bucket:   envOrDefault("TASKBOARD_EXPORT_S3_BUCKET", f.Export.S3Bucket),
		ExportS3Endpoint: envOrDefault("TASKBOARD_EXPORT_S3_ENDPOINT", f.Export.S3Endpoint),
		ExportS3Region:   envOrDefault("TASKBOARD_EXPORT_S3_REGION", or(f.Export.S3Region, "us-east-1")),
		ExportS3Key:      envOrDefault("TASKBOARD_EXPORT_S3_KEY", or(f.Export.S3Key, "taskboard/board.jsonl")),
		ExportGitRepo:    envOrDefault("TASKBOARD_EXPORT_GIT_REPO", f.Export.GitRepo),
		ExportGitFile:    envOrDefault("TASKBOARD_EXPORT_GIT_FILE", or(f.Export.GitFile, "board.jsonl")),
		ExportGitBranch:  envOrDefault("TASKBOARD_EXPORT_GIT_BRANCH", or(f.Export.GitBranch, "main")),

		Hooks: f.Hooks,
	}

	var err error
	if c.SpacingA, err = floatOrDefault("TASKBOARD_SPACING_A", f.SpacingA, layout.DefaultSpacingA); err != nil {
		return nil, err
	}
	if c.SpacingB, err = floatOrDefault("TASKBOARD_SPACING_B", f.SpacingB, layout.DefaultSpacingB); err != nil {
		return nil, err
	}
	if c.WatchInterval, err = durationOrDefault("TASKBOARD_WATCH_INTERVAL", or(f.WatchInterval, "2s")); err != nil {
		return nil, err
	}
	if c.ExportInterval, err = durationOrDefault("TASKBOARD_EXPORT_INTERVAL", or(f.Export.Interval, "0")); err != nil {
		return nil, err
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks field values that Load cannot default away.
func (c *Config) Validate() error {
	var ve model.ValidationError
	if !codec.IDStyle(c.IDStyle).IsValid() {
		ve.Errors = append(ve.Errors, model.FieldError{Field: "id_style", Message: fmt.Sprintf("invalid value %q", c.IDStyle)})
	}
	if !model.Orientation(c.Orientation).IsValid() {
		ve.Errors = append(ve.Errors, model.FieldError{Field: "orientation", Message: fmt.Sprintf("invalid value %q", c.Orientation)})
	}
	switch c.Backend {
	case BackendFS:
	case BackendS3:
		if c.S3Bucket == "" {
			ve.Errors = append(ve.Errors, model.FieldError{Field: "s3.bucket", Message: "required for the s3 backend"})
		}
	default:
		ve.Errors = append(ve.Errors, model.FieldError{Field: "backend", Message: fmt.Sprintf("invalid value %q", c.Backend)})
	}
	if c.SpacingA <= 0 || c.SpacingB <= 0 {
		ve.Errors = append(ve.Errors, model.FieldError{Field: "spacing", Message: "must be positive"})
	}
	for i, h := range c.Hooks {
		field := fmt.Sprintf("hook[%d]", i)
		if h.Topic == "" || h.Command == "" {
			ve.Errors = append(ve.Errors, model.FieldError{Field: field, Message: "topic and command are required"})
		} else if !slices.ContainsFunc(events.Topics, h.Matches) {
			ve.Errors = append(ve.Errors, model.FieldError{Field: field, Message: fmt.Sprintf("topic %q matches no event", h.Topic)})
		}
	}
	if c.BoardPath == "" {
		ve.Errors = append(ve.Errors, model.FieldError{Field: "board", Message: "must not be empty"})
	}
	if ve.HasErrors() {
		return &ve
	}
	return nil
}

// Filter returns the extraction filter.
func (c *Config) Filter() extract.Filter {
	return extract.Filter{Tags: c.Tags, Folders: c.Folders}
}

// Style returns the identifier style used when minting ids.
func (c *Config) Style() codec.IDStyle {
	return codec.IDStyle(c.IDStyle)
}

// LayoutOptions returns the default layout options.
func (c *Config) LayoutOptions() layout.Options {
	return layout.Options{
		Orientation: model.Orientation(c.Orientation),
		SpacingA:    c.SpacingA,
		SpacingB:    c.SpacingB,
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func or(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}

func listOrDefault(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func floatOrDefault(key string, fromFile, fallback float64) (float64, error) {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", key, err)
		}
		return f, nil
	}
	if fromFile != 0 {
		return fromFile, nil
	}
	return fallback, nil
}

func durationOrDefault(key, fallback string) (time.Duration, error) {
	s := envOrDefault(key, fallback)
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
