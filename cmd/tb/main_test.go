package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alfredjeanlab/taskboard/internal/model"
	"github.com/alfredjeanlab/taskboard/internal/ui"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const planDoc = "# Plan\n- [ ] Design #work ^a\n\t- [ ] Build [due:: fri] ^b\n- [x] Ship [depends:: a] [id:: c]\n"

func TestMain(m *testing.M) {
	ui.ForceNoColor()
	os.Exit(m.Run())
}

// newVault writes planDoc into a temp directory and clears any TASKBOARD_*
// settings, and COLUMNS, from the environment.
func newVault(t *testing.T) string {
	t.Helper()
	for _, key := range []string{
		"TASKBOARD_VAULT", "TASKBOARD_BOARD", "TASKBOARD_TAGS", "TASKBOARD_FOLDERS",
		"TASKBOARD_BACKEND", "TASKBOARD_DATABASE_URL", "TASKBOARD_NATS_URL",
		"TASKBOARD_ID_STYLE", "TASKBOARD_ORIENTATION", "TASKBOARD_SPACING_A", "TASKBOARD_SPACING_B",
		"TASKBOARD_EXPORT_S3_BUCKET", "TASKBOARD_EXPORT_GIT_REPO", "COLUMNS",
	} {
		t.Setenv(key, "")
	}
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "plan.md"), []byte(planDoc), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

// resetFlags restores every flag below cmd to its default so one test's
// arguments do not leak into the next.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// runTB executes tb against vault and returns what it wrote to stdout.
func runTB(t *testing.T, vault string, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	if app != nil {
		app.Close()
		app = nil
	}

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--vault", vault}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, vault string, args ...string) string {
	t.Helper()
	out, err := runTB(t, vault, args...)
	if err != nil {
		t.Fatalf("tb %s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return out
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestScan(t *testing.T) {
	vault := newVault(t)
	out := mustRun(t, vault, "scan")
	if !strings.Contains(out, "3 tasks") {
		t.Errorf("scan output = %q, want task count", out)
	}

	out = mustRun(t, vault, "scan", "--json")
	var res struct {
		Changed bool `json:"changed"`
	}
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if res.Changed {
		t.Error("second scan should leave the board unchanged")
	}
}

func TestNodeAddDrawsDerivedEdges(t *testing.T) {
	vault := newVault(t)
	mustRun(t, vault, "node", "add", "task", "a", "--x", "100", "--y", "40")
	mustRun(t, vault, "node", "add", "task", "c")

	out := mustRun(t, vault, "show")
	if !strings.Contains(out, "a -> c (depends)") {
		t.Errorf("show output missing derived edge:\n%s", out)
	}
	if !strings.Contains(out, "[ ] Design #work ^a") {
		t.Errorf("show output missing task label:\n%s", out)
	}

	board := readFile(t, filepath.Join(vault, "taskboard.json"))
	if !strings.Contains(board, `"a"`) || !strings.Contains(board, `"c"`) {
		t.Errorf("board document missing nodes:\n%s", board)
	}
}

func TestNodeAdd_UnknownType(t *testing.T) {
	vault := newVault(t)
	if _, err := runTB(t, vault, "node", "add", "sticker", "x"); err == nil {
		t.Fatal("expected error for unknown node type")
	}
}

func TestLinkAndUnlink(t *testing.T) {
	vault := newVault(t)
	mustRun(t, vault, "node", "add", "task", "a")
	mustRun(t, vault, "node", "add", "task", "b")

	mustRun(t, vault, "link", "a", "b", "--type", "subtask")
	plan := readFile(t, filepath.Join(vault, "plan.md"))
	if !strings.Contains(plan, "Build [due:: fri] [subtask:: a] ^b") {
		t.Fatalf("link did not write token:\n%s", plan)
	}

	out := mustRun(t, vault, "unlink", "a", "b", "-t", "subtask")
	if !strings.Contains(out, "unlinked a -> b") {
		t.Errorf("unlink output = %q", out)
	}
	if got := readFile(t, filepath.Join(vault, "plan.md")); got != planDoc {
		t.Errorf("unlink left document =\n%q\nwant\n%q", got, planDoc)
	}

	out = mustRun(t, vault, "unlink", "a", "b", "-t", "subtask")
	if !strings.Contains(out, "no such relation") {
		t.Errorf("second unlink output = %q", out)
	}
}

func TestRetype(t *testing.T) {
	vault := newVault(t)
	mustRun(t, vault, "node", "add", "task", "a")
	mustRun(t, vault, "node", "add", "task", "c")

	out := mustRun(t, vault, "retype", "a", "c", "sequence", "--json")
	var edge model.Edge
	if err := json.Unmarshal([]byte(out), &edge); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if edge.From != "a" || edge.To != "c" || edge.Type != model.KindSequence {
		t.Errorf("edge = %+v", edge)
	}
	if plan := readFile(t, filepath.Join(vault, "plan.md")); !strings.Contains(plan, "[sequence:: a]") {
		t.Errorf("retype did not rewrite token:\n%s", plan)
	}
}

func TestTaskLifecycle(t *testing.T) {
	vault := newVault(t)

	out := mustRun(t, vault, "task", "add", "plan.md", "Write", "docs", "--json")
	var task model.Task
	if err := json.Unmarshal([]byte(out), &task); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if task.ID == "" {
		t.Fatal("created task has no id")
	}
	plan := readFile(t, filepath.Join(vault, "plan.md"))
	if !strings.Contains(plan, "- [ ] Write docs") {
		t.Fatalf("task add did not append line:\n%s", plan)
	}

	out = mustRun(t, vault, "task", "done", task.ID)
	if !strings.HasPrefix(out, "[x] "+task.ID) {
		t.Errorf("done output = %q", out)
	}
	if plan := readFile(t, filepath.Join(vault, "plan.md")); !strings.Contains(plan, "- [x] Write docs") {
		t.Errorf("task done did not tick checkbox:\n%s", plan)
	}

	out = mustRun(t, vault, "task", "done", "--undo", task.ID)
	if !strings.HasPrefix(out, "[ ] "+task.ID) {
		t.Errorf("undo output = %q", out)
	}

	mustRun(t, vault, "task", "rm", task.ID)
	if plan := readFile(t, filepath.Join(vault, "plan.md")); plan != planDoc {
		t.Errorf("task rm left document =\n%q\nwant\n%q", plan, planDoc)
	}
}

func TestTaskDone_Unknown(t *testing.T) {
	vault := newVault(t)
	if _, err := runTB(t, vault, "task", "done", "nope"); err == nil {
		t.Fatal("expected error for unknown task")
	}
}

func TestShowTask(t *testing.T) {
	vault := newVault(t)
	out := mustRun(t, vault, "show", "b")
	for _, want := range []string{"ID:          b", "Location:    plan.md:3", "Board:       not placed"} {
		if !strings.Contains(out, want) {
			t.Errorf("show b missing %q:\n%s", want, out)
		}
	}
}

func TestTree(t *testing.T) {
	vault := newVault(t)
	out := mustRun(t, vault, "tree")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("tree printed %d lines, want 3:\n%s", len(lines), out)
	}
	var child string
	for _, l := range lines {
		if strings.HasPrefix(l, "  ") {
			child = l
		}
	}
	if !strings.Contains(child, "Ship") {
		t.Errorf("expected c nested under a:\n%s", out)
	}
}

func TestLayout(t *testing.T) {
	vault := newVault(t)
	mustRun(t, vault, "node", "add", "task", "a")
	mustRun(t, vault, "node", "add", "task", "c")

	if _, err := runTB(t, vault, "layout"); err == nil {
		t.Error("layout without ids should fail")
	}
	if _, err := runTB(t, vault, "layout", "--all", "--orientation", "diagonal"); err == nil {
		t.Error("layout with a bad orientation should fail")
	}

	out := mustRun(t, vault, "layout", "--all", "--json")
	var positions map[string]struct{ X, Y float64 }
	if err := json.Unmarshal([]byte(out), &positions); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if len(positions) != 2 {
		t.Fatalf("positions = %v", positions)
	}
	if positions["c"].Y <= positions["a"].Y {
		t.Errorf("vertical layout should put c below a: %v", positions)
	}
}

func TestExport(t *testing.T) {
	vault := newVault(t)
	out := mustRun(t, vault, "export")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) < 4 {
		t.Fatalf("export wrote %d lines, want header plus 3 tasks:\n%s", len(lines), out)
	}
	for _, l := range lines {
		if !json.Valid([]byte(l)) {
			t.Errorf("invalid JSONL line %q", l)
		}
	}

	file := filepath.Join(t.TempDir(), "board.jsonl")
	mustRun(t, vault, "export", "-o", file)
	if got := readFile(t, file); got != out {
		t.Errorf("file export differs from stdout export")
	}

	if _, err := runTB(t, vault, "export", "--push"); err == nil {
		t.Error("push without destinations should fail")
	}
}

func TestBoardFlag(t *testing.T) {
	vault := newVault(t)
	mustRun(t, vault, "--board", "boards/alt.json", "node", "add", "post-it", "hello", "there")
	board := readFile(t, filepath.Join(vault, "boards", "alt.json"))
	if !strings.Contains(board, "hello there") {
		t.Errorf("post-it missing from alternate board:\n%s", board)
	}
	if _, err := os.Stat(filepath.Join(vault, "taskboard.json")); !os.IsNotExist(err) {
		t.Errorf("default board should not be written, stat err = %v", err)
	}
}

func TestBoardsRequiresDatabase(t *testing.T) {
	vault := newVault(t)
	if _, err := runTB(t, vault, "boards"); err == nil {
		t.Fatal("boards without a database URL should fail")
	}
}

func TestEventsRequiresNATS(t *testing.T) {
	vault := newVault(t)
	if _, err := runTB(t, vault, "events"); err == nil {
		t.Fatal("events without a NATS URL should fail")
	}
}

func TestHooksRunOnEvents(t *testing.T) {
	vault := newVault(t)
	config := "[[hook]]\ntopic = \"taskboard.task.completed\"\ncommand = \"echo \\\"$TASKBOARD_TOPIC\\\" > hook.out\"\n"
	if err := os.WriteFile(filepath.Join(vault, ".taskboard.toml"), []byte(config), 0o644); err != nil {
		t.Fatal(err)
	}

	// PersistentPostRun closes the environment, which waits for hooks.
	mustRun(t, vault, "task", "done", "a")
	if got := strings.TrimSpace(readFile(t, filepath.Join(vault, "hook.out"))); got != "taskboard.task.completed" {
		t.Errorf("hook output = %q", got)
	}
}
