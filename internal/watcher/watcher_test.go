package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

type recorder struct {
	mu       sync.Mutex
	upserted []string
	removed  []string
}

func (r *recorder) Upsert(path string) {
	r.mu.Lock()
	r.upserted = append(r.upserted, path)
	r.mu.Unlock()
}

func (r *recorder) Remove(path string) {
	r.mu.Lock()
	r.removed = append(r.removed, path)
	r.mu.Unlock()
}

func (r *recorder) has(list func(*recorder) []string, path string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range list(r) {
		if p == path {
			return true
		}
	}
	return false
}

func upserted(r *recorder) []string { return r.upserted }
func removed(r *recorder) []string  { return r.removed }

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestWatcher_SyncsExistingFiles(t *testing.T) {
	dir := t.TempDir()
	keep := filepath.Join(dir, "gazette.pdf")
	skip := filepath.Join(dir, "image.png")
	nested := filepath.Join(dir, "2024", "notes.txt")
	for _, p := range []string{keep, skip, nested} {
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte("x"), 0600); err != nil {
			t.Fatal(err)
		}
	}

	rec := &recorder{}
	w := New([]string{dir}, []string{".pdf", "txt"}, true, rec)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if !rec.has(upserted, keep) || !rec.has(upserted, nested) {
		t.Errorf("expected existing files upserted, got %v", rec.upserted)
	}
	if rec.has(upserted, skip) {
		t.Error("png should be filtered out")
	}
}

func TestWatcher_NonRecursiveSkipsSubdirectories(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "sub", "deep.txt")
	if err := os.MkdirAll(filepath.Dir(nested), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(nested, []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}
	rec := &recorder{}
	w := New([]string{dir}, nil, false, rec)
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()
	if rec.has(upserted, nested) {
		t.Error("non-recursive watcher should not sync nested files")
	}
}

func TestWatcher_DebouncedWriteAndRemove(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}
	w := New([]string{dir}, []string{".txt"}, true, rec, WithDebounce(50*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	path := filepath.Join(dir, "today.txt")
	for i := 0; i < 3; i++ {
		if err := os.WriteFile(path, []byte("edition"), 0600); err != nil {
			t.Fatal(err)
		}
	}
	waitFor(t, func() bool { return rec.has(upserted, path) })

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return rec.has(removed, path) })
}

func TestWatcher_MissingRootIsSkipped(t *testing.T) {
	rec := &recorder{}
	w := New([]string{filepath.Join(t.TempDir(), "absent")}, nil, true, rec)
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	w.Stop()
	w.Stop()
}

func TestMatch(t *testing.T) {
	cases := []struct {
		path string
		exts []string
		want bool
	}{
		{"a/b.PDF", []string{".pdf"}, true},
		{"a/b.txt", []string{"txt"}, true},
		{"a/b.png", []string{".pdf", ".txt"}, false},
		{"a/b.png", nil, true},
	}
	for _, c := range cases {
		if got := Match(c.path, c.exts); got != c.want {
			t.Errorf("Match(%q, %v) = %v, want %v", c.path, c.exts, got, c.want)
		}
	}
}

func TestWithin(t *testing.T) {
	if !Within("/data/archive", "/data/archive/2024/a.pdf") {
		t.Error("nested path should be within")
	}
	if Within("/data/archive", "/data/archive-old/a.pdf") {
		t.Error("sibling prefix should not be within")
	}
	if Within("/data/archive", "/data/archive/../secret.pdf") {
		t.Error("escaping path should not be within")
	}
}
