package docstore

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// exerciseStore runs the behavior every backend must share.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	if err := s.Create(ctx, "notes/a.md", "- [ ] one\n"); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := s.Create(ctx, "notes/a.md", "again"); !errors.Is(err, ErrExists) {
		t.Fatalf("second Create err = %v, want ErrExists", err)
	}
	if err := s.Create(ctx, "b.md", "b"); err != nil {
		t.Fatalf("Create b: %v", err)
	}

	got, err := s.Read(ctx, "notes/a.md")
	if err != nil || got != "- [ ] one\n" {
		t.Fatalf("Read = %q, %v", got, err)
	}
	if _, err := s.Read(ctx, "missing.md"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Read missing err = %v, want ErrNotFound", err)
	}

	if err := s.Modify(ctx, "notes/a.md", "- [x] one\n"); err != nil {
		t.Fatalf("Modify: %v", err)
	}
	if got, _ := s.Read(ctx, "notes/a.md"); got != "- [x] one\n" {
		t.Fatalf("after Modify = %q", got)
	}
	if err := s.Modify(ctx, "missing.md", "x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Modify missing err = %v, want ErrNotFound", err)
	}

	docs, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	var paths []string
	for _, d := range docs {
		paths = append(paths, d.Path)
	}
	if strings.Join(paths, ",") != "b.md,notes/a.md" {
		t.Fatalf("List paths = %v", paths)
	}

	if p, err := Resolve(ctx, s, "notes/a"); err != nil || p != "notes/a.md" {
		t.Fatalf("Resolve(notes/a) = %q, %v", p, err)
	}
	if p, err := Resolve(ctx, s, "b.md"); err != nil || p != "b.md" {
		t.Fatalf("Resolve(b.md) = %q, %v", p, err)
	}
	if _, err := Resolve(ctx, s, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Resolve(nope) err = %v, want ErrNotFound", err)
	}
}

func TestMemory(t *testing.T) {
	m := NewMemory(nil)
	exerciseStore(t, m)
	if m.Writes() != 3 {
		t.Fatalf("Writes() = %d, want 3", m.Writes())
	}
}

func TestFS(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	exerciseStore(t, s)
}

func TestFS_SkipsHidden(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, ".git"), 0o755); err != nil {
		t.Fatal(err)
	}
	for _, p := range []string{".git/config", ".hidden.md", "visible.md"} {
		if err := os.WriteFile(filepath.Join(dir, p), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	s, err := NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	docs, err := s.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 1 || docs[0].Path != "visible.md" {
		t.Fatalf("List = %+v", docs)
	}
}

func TestFS_RejectsEscape(t *testing.T) {
	s, err := NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Create(context.Background(), "../evil.md", "x"); err == nil {
		t.Fatal("expected error for path outside root")
	}
}

func TestClean(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want string
		ok   bool
	}{
		{"a.md", "a.md", true},
		{"/a/./b.md", "a/b.md", true},
		{"a\\b.md", "a/b.md", true},
		{"a/../b.md", "b.md", true},
		{"..", "", false},
		{"../x", "", false},
		{"", "", false},
	} {
		got, err := Clean(tc.in)
		if (err == nil) != tc.ok || got != tc.want {
			t.Errorf("Clean(%q) = %q, %v", tc.in, got, err)
		}
	}
}

func TestDocument(t *testing.T) {
	d := Document{Path: "projects/Plan.MD"}
	if !d.IsMarkdown() {
		t.Error("expected markdown")
	}
	if d.Folder() != "projects" {
		t.Errorf("Folder() = %q", d.Folder())
	}
	if (Document{Path: "tasks.board"}).IsMarkdown() {
		t.Error("board file is not markdown")
	}
	if (Document{Path: "a.md"}).Folder() != "" {
		t.Error("root document has no folder")
	}
}

// fakeS3 is an in-memory stand-in for the S3 client.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string]string
}

func newFakeS3() *fakeS3 { return &fakeS3{objects: make(map[string]string)} }

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var keys []string
	for k := range f.objects {
		if strings.HasPrefix(k, aws.ToString(in.Prefix)) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	out := &s3.ListObjectsV2Output{}
	for _, k := range keys {
		out.Contents = append(out.Contents, s3types.Object{
			Key:  aws.String(k),
			Size: aws.Int64(int64(len(f.objects[k]))),
		})
	}
	return out, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	body, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &smithy.GenericAPIError{Code: "NoSuchKey"}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(body))}, nil
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	key := aws.ToString(in.Key)
	if _, exists := f.objects[key]; exists && aws.ToString(in.IfNoneMatch) == "*" {
		return nil, &smithy.GenericAPIError{Code: "PreconditionFailed"}
	}
	f.objects[key] = string(data)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.objects[aws.ToString(in.Key)]; !ok {
		return nil, &smithy.GenericAPIError{Code: "NotFound"}
	}
	return &s3.HeadObjectOutput{}, nil
}

func TestS3(t *testing.T) {
	fake := newFakeS3()
	fake.objects["other/outside.md"] = "not ours"
	s := newS3(fake, "vault", "/team/")
	exerciseStore(t, s)

	if _, ok := fake.objects["team/notes/a.md"]; !ok {
		t.Fatalf("expected prefixed key, have %v", fake.objects)
	}
}
