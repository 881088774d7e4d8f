package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

type recorder struct {
	mu      sync.Mutex
	loaded  []string
	removed []string
}

func (r *recorder) load(path string) {
	r.mu.Lock()
	r.loaded = append(r.loaded, path)
	r.mu.Unlock()
}

func (r *recorder) remove(path string) {
	r.mu.Lock()
	r.removed = append(r.removed, path)
	r.mu.Unlock()
}

func (r *recorder) snapshot() (loaded, removed []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.loaded...), append([]string(nil), r.removed...)
}

func startWatcher(t *testing.T, cfg Config, rec *recorder, opts ...Option) *Watcher {
	t.Helper()
	w := NewWatcher(cfg, rec.load, rec.remove, opts...)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(w.Stop)
	return w
}

func TestWatcher_AddRemoveDirectories(t *testing.T) {
	dir := t.TempDir()
	w := startWatcher(t, Config{Recursive: true}, &recorder{})

	if err := w.AddDirectory(dir, false); err != nil {
		t.Fatal(err)
	}
	if err := w.AddDirectory(dir, false); err != nil {
		t.Fatal(err)
	}
	dirs := w.Directories()
	if len(dirs) != 1 || filepath.Clean(dirs[0]) != filepath.Clean(dir) {
		t.Errorf("Directories() = %v", dirs)
	}

	if err := w.RemoveDirectory(dir); err != nil {
		t.Fatal(err)
	}
	if len(w.Directories()) != 0 {
		t.Errorf("after remove: %v", w.Directories())
	}
}

func TestWatcher_DebouncesWrites(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}
	startWatcher(t, Config{Directories: []string{dir}, Recursive: true}, rec, WithDebounce(100*time.Millisecond))

	path := filepath.Join(dir, "story.json")
	for i := 0; i < 3; i++ {
		if err := writeFile(path, `{"events": []}`); err != nil {
			t.Fatal(err)
		}
	}
	if err := writeFile(filepath.Join(dir, "notes.txt"), "skip"); err != nil {
		t.Fatal(err)
	}
	time.Sleep(500 * time.Millisecond)

	loaded, _ := rec.snapshot()
	if len(loaded) != 1 || !strings.HasSuffix(loaded[0], "story.json") {
		t.Errorf("loaded = %v, want one story.json load", loaded)
	}
}

func TestWatcher_RemoveCancelsPendingLoad(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}
	w := startWatcher(t, Config{Directories: []string{dir}}, rec, WithDebounce(300*time.Millisecond))

	path := filepath.Join(dir, "story.json")
	if err := writeFile(path, `{}`); err != nil {
		t.Fatal(err)
	}
	time.Sleep(50 * time.Millisecond)
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	time.Sleep(500 * time.Millisecond)

	loaded, removed := rec.snapshot()
	if len(loaded) != 0 {
		t.Errorf("removed file still loaded: %v", loaded)
	}
	if len(removed) == 0 || !strings.HasSuffix(removed[0], "story.json") {
		t.Errorf("removed = %v, want story.json", removed)
	}
	if w.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0", w.Pending())
	}
}

func TestMatchExtension(t *testing.T) {
	tests := []struct {
		path       string
		extensions []string
		want       bool
	}{
		{"/a/b.json", []string{".json"}, true},
		{"/a/b.JSON", []string{"json"}, true},
		{"/a/b.md", []string{".json"}, false},
		{"/a/b", nil, true},
		{"/a/b", []string{}, true},
	}
	for _, tt := range tests {
		got := matchExtension(tt.path, tt.extensions)
		if got != tt.want {
			t.Errorf("matchExtension(%q, %v) = %v, want %v", tt.path, tt.extensions, got, tt.want)
		}
	}
}

func TestInDir(t *testing.T) {
	tests := []struct {
		dir  string
		path string
		want bool
	}{
		{"/tmp/a", "/tmp/a", true},
		{"/tmp/a", "/tmp/a/b.json", true},
		{"/tmp/a", "/tmp/b", false},
		{"/tmp/a", "/tmp/a/../b", false},
	}
	for _, tt := range tests {
		got := inDir(tt.dir, tt.path)
		if got != tt.want {
			t.Errorf("inDir(%q, %q) = %v, want %v", tt.dir, tt.path, got, tt.want)
		}
	}
}

func TestNewWatcher_defaultsToJSON(t *testing.T) {
	w := NewWatcher(Config{}, nil, nil)
	if len(w.extensions) != 1 || w.extensions[0] != ".json" {
		t.Errorf("extensions = %v, want [.json]", w.extensions)
	}
}

func TestWatcher_SyncExisting(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "nested")
	if err := mkdirAll(nested); err != nil {
		t.Fatal(err)
	}
	for _, p := range []string{filepath.Join(dir, "a.json"), filepath.Join(nested, "b.json"), filepath.Join(dir, "ignore.xyz")} {
		if err := writeFile(p, "{}"); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		name      string
		recursive bool
		want      int
	}{
		{"recursive", true, 2},
		{"top level only", false, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			w := startWatcher(t, Config{Directories: []string{dir}, Recursive: tt.recursive}, rec)
			w.SyncExisting()
			loaded, _ := rec.snapshot()
			if len(loaded) != tt.want {
				t.Errorf("loaded %v, want %d files", loaded, tt.want)
			}
			for _, p := range loaded {
				if strings.HasSuffix(p, ".xyz") {
					t.Errorf("non-dataset file loaded: %s", p)
				}
			}
		})
	}
}

func TestWatcher_Start_createsMissingRootDirectory(t *testing.T) {
	root := filepath.Join(t.TempDir(), "watch", "me")
	startWatcher(t, Config{Directories: []string{root}, Recursive: true}, &recorder{})
	if _, err := os.Stat(root); err != nil {
		t.Errorf("root directory should exist after Start: %v", err)
	}
}

func TestWatcher_NewDirectoryIsLoaded(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}
	startWatcher(t, Config{Directories: []string{dir}, Recursive: true}, rec)

	nested := filepath.Join(dir, "level1", "level2")
	if err := mkdirAll(nested); err != nil {
		t.Fatal(err)
	}
	if err := writeFile(filepath.Join(nested, "deep.json"), "{}"); err != nil {
		t.Fatal(err)
	}
	time.Sleep(800 * time.Millisecond)

	loaded, _ := rec.snapshot()
	found := false
	for _, p := range loaded {
		if strings.HasSuffix(p, "deep.json") {
			found = true
			break
		}
	}
	if !found {
		t.Errorf("expected deep.json to be loaded, got %v", loaded)
	}
}

func mkdirAll(path string) error {
	return os.MkdirAll(path, 0755)
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0600)
}
