package sync

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

// cloneWithRemote creates a bare remote and a clone of it whose main branch
// has one pushed commit. It returns the clone and the remote.
func cloneWithRemote(t *testing.T) (string, string) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not found in PATH")
	}
	remote := t.TempDir()
	run(t, remote, "git", "init", "--bare")

	work := t.TempDir()
	run(t, work, "git", "clone", remote, "repo")
	repo := filepath.Join(work, "repo")
	run(t, repo, "git", "config", "user.email", "test@test.com")
	run(t, repo, "git", "config", "user.name", "Test")
	run(t, repo, "git", "checkout", "-b", "main")
	if err := os.WriteFile(filepath.Join(repo, ".gitkeep"), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	run(t, repo, "git", "add", ".")
	run(t, repo, "git", "commit", "-m", "init")
	run(t, repo, "git", "push", "origin", "main")
	return repo, remote
}

func commitCount(t *testing.T, dir, ref string) int {
	t.Helper()
	out, err := exec.Command("git", "-C", dir, "rev-list", "--count", ref).Output()
	if err != nil {
		t.Fatalf("rev-list: %v", err)
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(out)))
	if err != nil {
		t.Fatal(err)
	}
	return n
}

func TestGitDestination(t *testing.T) {
	repo, remote := cloneWithRemote(t)
	dest := NewGitDestination(repo, "board.jsonl", "main")
	ctx := context.Background()

	first := []byte(`{"version":"1","type":"header"}` + "\n")
	if err := dest.Write(ctx, first); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if got := readFile(t, filepath.Join(repo, "board.jsonl")); got != string(first) {
		t.Fatalf("content = %q", got)
	}
	if n := commitCount(t, remote, "main"); n != 2 {
		t.Fatalf("remote has %d commits, want 2", n)
	}

	if err := dest.Write(ctx, first); err != nil {
		t.Fatalf("unchanged write: %v", err)
	}
	if n := commitCount(t, remote, "main"); n != 2 {
		t.Fatalf("unchanged export committed: %d commits", n)
	}

	second := []byte(`{"version":"1","type":"header","task_count":1}` + "\n")
	if err := dest.Write(ctx, second); err != nil {
		t.Fatalf("changed write: %v", err)
	}
	if got := readFile(t, filepath.Join(repo, "board.jsonl")); got != string(second) {
		t.Fatalf("content after update = %q", got)
	}
	if n := commitCount(t, remote, "main"); n != 3 {
		t.Fatalf("remote has %d commits, want 3", n)
	}
}

func TestGitDestination_SubDirectory(t *testing.T) {
	repo, _ := cloneWithRemote(t)
	dest := NewGitDestination(repo, "data/board.jsonl", "main")

	data := []byte(`{"type":"header"}` + "\n")
	if err := dest.Write(context.Background(), data); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got := readFile(t, filepath.Join(repo, "data", "board.jsonl")); got != string(data) {
		t.Fatalf("content = %q", got)
	}
}

func TestGitDestination_MissingBranch(t *testing.T) {
	repo, _ := cloneWithRemote(t)
	dest := NewGitDestination(repo, "board.jsonl", "nope")

	err := dest.Write(context.Background(), []byte("{}\n"))
	if err == nil || !strings.Contains(err.Error(), "git checkout") {
		t.Fatalf("err = %v", err)
	}
	if !strings.Contains(dest.Name(), "@nope:board.jsonl") {
		t.Fatalf("name = %q", dest.Name())
	}
}

func readFile(t *testing.T, p string) string {
	t.Helper()
	data, err := os.ReadFile(p)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func run(t *testing.T, dir string, name string, args ...string) {
	t.Helper()
	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("%s %v failed: %v\n%s", name, args, err, out)
	}
}
