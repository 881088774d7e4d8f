package main

import (
	"context"
	"flag"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/hyperjump/narraview/internal/config"
	"go.uber.org/zap"
)

const sampleDataset = `{
  "metadata": {"title": "Harbor"},
  "events": [
    {"index": 1, "text": "The harbor closes.", "temporal_anchoring": {"narrative_time": 1, "real_time": "2022-05-01"},
     "topic": {"main_topic": "Trade"}, "entities": [{"id": "a", "name": "Alice", "role": "captain"}]},
    {"index": 2, "text": "The council votes.", "temporal_anchoring": {"narrative_time": 2},
     "topic": {"main_topic": "Politics"}, "entities": []}
  ]
}`

func TestArgsReorder(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected []string
	}{
		{
			name:     "flags after dataset are moved first",
			args:     []string{"story.json", "-mode", "time"},
			expected: []string{"-mode", "time", "story.json"},
		},
		{
			name:     "flags first returns unchanged",
			args:     []string{"-mode", "time", "story.json"},
			expected: []string{"-mode", "time", "story.json"},
		},
		{
			name:     "dataset only returns unchanged",
			args:     []string{"story.json"},
			expected: []string{"story.json"},
		},
		{
			name:     "empty args returns unchanged",
			args:     []string{},
			expected: []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := argsReorder(tt.args)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("argsReorder() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestOptionalString(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	attr := fs.String("attribute", "", "")
	layout := fs.String("layout", "graph", "")
	if err := fs.Parse([]string{"-attribute", ""}); err != nil {
		t.Fatal(err)
	}
	if got := optionalString(fs, "attribute", *attr); got == nil || *got != "" {
		t.Errorf("explicit empty attribute should be set, got %v", got)
	}
	if got := optionalString(fs, "layout", *layout); got != nil {
		t.Errorf("unset layout should be nil, got %q", *got)
	}
	if flagWasSet(fs, "layout") {
		t.Error("layout was not set")
	}
}

func TestExportPath(t *testing.T) {
	tests := []struct{ in, want string }{
		{"story.json", "story.xlsx"},
		{"/data/a.b/story.json", "/data/a.b/story.xlsx"},
		{"story", "story.xlsx"},
	}
	for _, tt := range tests {
		if got := exportPath(tt.in); got != tt.want {
			t.Errorf("exportPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWriteOutput_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.svg")
	err := writeOutput(path, func(w io.Writer) error {
		_, err := io.WriteString(w, "<svg/>")
		return err
	})
	if err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "<svg/>" {
		t.Errorf("file content = %q", data)
	}
}

func TestLoadConfig_prefersCwdConfigWhenDefaultPath(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := `
debug: true
server:
  host: "localhost"
  port: 8080
storage:
  database_path: "test.db"
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	origWd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Chdir(origWd) }()
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, err := loadConfig(defaultConfigPath)
	if err != nil {
		t.Fatal(err)
	}
	// On macOS, cwd can be /private/var/... while configPath from t.TempDir() is /var/...; compare canonical paths.
	resolvedCanon, _ := filepath.EvalSymlinks(resolved)
	configPathCanon, _ := filepath.EvalSymlinks(configPath)
	if resolvedCanon != configPathCanon {
		t.Errorf("resolved path = %s (canon %s), want %s (canon %s)", resolved, resolvedCanon, configPath, configPathCanon)
	}
	if !cfg.Debug {
		t.Error("debug should be true from cwd config.yaml")
	}
}

func TestLoadConfig_usesExplicitPath(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "127.0.0.1"
  port: 9000
entity:
  default_attribute: role
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		t.Fatal(err)
	}
	if resolved != configPath {
		t.Errorf("resolved path = %s, want %s", resolved, configPath)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Entity.DefaultAttribute != "role" {
		t.Errorf("default attribute = %q, want role", cfg.Entity.DefaultAttribute)
	}
}

func TestLoadConfigOrDefaults(t *testing.T) {
	if _, err := os.Stat(defaultConfigPath); err == nil {
		t.Skip("a system config exists at the default path")
	}
	origWd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Chdir(origWd) }()
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfigOrDefaults(defaultConfigPath)
	if err != nil {
		t.Fatalf("missing default config should fall back to defaults: %v", err)
	}
	if cfg.Server.Port != 8080 || cfg.Topic.Layout == "" {
		t.Errorf("defaults not applied: %+v", cfg)
	}

	if _, err := loadConfigOrDefaults(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("explicit missing config should fail")
	}
}

func TestInitializeComponents(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	cfg.Storage.DatabasePath = filepath.Join(dir, "db", "catalog.db")
	cfg.Storage.IndexPath = filepath.Join(dir, "indices", "events.bleve")

	components, err := initializeComponents(cfg, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer components.Close()
	if components.Index == nil {
		t.Fatal("search index should be enabled")
	}

	datasetPath := filepath.Join(dir, "story.json")
	if err := os.WriteFile(datasetPath, []byte(sampleDataset), 0600); err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	ds, err := components.Indexer.IndexFile(ctx, datasetPath, cfg.Watch.Extensions)
	if err != nil {
		t.Fatal(err)
	}
	hits, err := components.Index.Search(ctx, ds.ID, "harbor", 10, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || hits[0].EventIndex != 1 {
		t.Errorf("hits = %+v", hits)
	}
	count, err := components.Store.Count(ctx)
	if err != nil || count != 1 {
		t.Errorf("count = %d, %v", count, err)
	}
}

func TestInitializeComponents_NoIndex(t *testing.T) {
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	cfg.Storage.DatabasePath = filepath.Join(t.TempDir(), "catalog.db")
	cfg.Storage.IndexPath = ""

	components, err := initializeComponents(cfg, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer components.Close()
	if components.Index != nil {
		t.Error("search index should be disabled without index_path")
	}
	if components.Indexer == nil {
		t.Fatal("indexer missing")
	}
}
