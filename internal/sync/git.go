package sync

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path"
	"strings"

	"github.com/alfredjeanlab/taskboard/internal/docstore"
)

const defaultCommitMessage = "Update taskboard export"

// GitDestination commits each export to a file in a local clone and pushes
// the branch to origin. Exports that leave the file unchanged make no commit.
type GitDestination struct {
	repo    string
	file    string
	branch  string
	message string
}

// NewGitDestination writes to file, relative to the clone at repo, on branch.
func NewGitDestination(repo, file, branch string) *GitDestination {
	return &GitDestination{repo: repo, file: path.Clean(file), branch: branch, message: defaultCommitMessage}
}

// Name identifies the destination in logs.
func (d *GitDestination) Name() string {
	return "git:" + d.repo + "@" + d.branch + ":" + d.file
}

func (d *GitDestination) Write(ctx context.Context, data []byte) error {
	if _, err := d.git(ctx, "checkout", d.branch); err != nil {
		return err
	}
	// Fails harmlessly before the branch has been pushed once.
	d.git(ctx, "pull", "--ff-only", "origin", d.branch)

	if err := d.writeFile(ctx, data); err != nil {
		return err
	}
	if _, err := d.git(ctx, "add", "--", d.file); err != nil {
		return err
	}
	status, err := d.git(ctx, "status", "--porcelain", "--", d.file)
	if err != nil {
		return err
	}
	if status == "" {
		return nil
	}
	if _, err := d.git(ctx, "commit", "-m", d.message, "--", d.file); err != nil {
		return err
	}
	_, err = d.git(ctx, "push", "origin", d.branch)
	return err
}

func (d *GitDestination) writeFile(ctx context.Context, data []byte) error {
	fs, err := docstore.NewFS(d.repo)
	if err != nil {
		return err
	}
	err = fs.Modify(ctx, d.file, string(data))
	if errors.Is(err, docstore.ErrNotFound) {
		err = fs.Create(ctx, d.file, string(data))
	}
	if err != nil {
		return fmt.Errorf("write %s: %w", d.file, err)
	}
	return nil
}

// git runs a git subcommand in the clone and returns its trimmed output.
// Errors carry whatever git printed.
func (d *GitDestination) git(ctx context.Context, args ...string) (string, error) {
	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = d.repo
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("git %s: %w: %s", args[0], err, strings.TrimSpace(out.String()))
	}
	return strings.TrimSpace(out.String()), nil
}
