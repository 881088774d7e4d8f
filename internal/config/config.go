// Package config provides configuration loading and structs for the narraview server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hyperjump/narraview/internal/layout"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug    bool           `yaml:"debug"`
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	Watch    WatchConfig    `yaml:"watch"`
	Layout   LayoutConfig   `yaml:"layout"`
	Entity   EntityConfig   `yaml:"entity"`
	Temporal TemporalConfig `yaml:"temporal"`
	Topic    TopicConfig    `yaml:"topic"`
	Relayout RelayoutConfig `yaml:"relayout"`
}

// WatchConfig holds data directory watch settings.
type WatchConfig struct {
	Directories []string `yaml:"directories"`
	Extensions  []string `yaml:"extensions"`
	Recursive   *bool    `yaml:"recursive"`
}

// RecursiveOrDefault returns whether to watch recursively; defaults to true when unset.
func (w *WatchConfig) RecursiveOrDefault() bool {
	if w.Recursive != nil {
		return *w.Recursive
	}
	return true
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// StorageConfig holds paths for the dataset catalog and the event search index.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
	IndexPath    string `yaml:"index_path"`
}

// MarginConfig is the plot margin in pixels.
type MarginConfig struct {
	Top    float64 `yaml:"top"`
	Right  float64 `yaml:"right"`
	Bottom float64 `yaml:"bottom"`
	Left   float64 `yaml:"left"`
}

// LayoutConfig holds the geometry shared by every renderer.
// NodeRadius and FontSize override each renderer's own default when non-zero.
type LayoutConfig struct {
	Margin         MarginConfig `yaml:"margin"`
	RowHeight      float64      `yaml:"row_height"`
	MinHeight      float64      `yaml:"min_height"`
	MinColumnWidth float64      `yaml:"min_column_width"`
	MaxColumnWidth float64      `yaml:"max_column_width"`
	ColumnGap      float64      `yaml:"column_gap"`
	ColumnFloor    int          `yaml:"column_floor"`
	NodeRadius     float64      `yaml:"node_radius"`
	FontSize       float64      `yaml:"font_size"`
}

// Geometry converts the section to the layout package's config.
func (l LayoutConfig) Geometry() layout.Config {
	return layout.Config{
		Margin: layout.Margin{
			Top:    l.Margin.Top,
			Right:  l.Margin.Right,
			Bottom: l.Margin.Bottom,
			Left:   l.Margin.Left,
		},
		RowHeight:      l.RowHeight,
		MinHeight:      l.MinHeight,
		MinColumnWidth: l.MinColumnWidth,
		MaxColumnWidth: l.MaxColumnWidth,
		ColumnGap:      l.ColumnGap,
		ColumnFloor:    l.ColumnFloor,
	}
}

// EntityConfig holds entity-relationship view settings.
type EntityConfig struct {
	DefaultAttribute string `yaml:"default_attribute"`
	ExcludeUnknown   bool   `yaml:"exclude_unknown"`
}

// TemporalConfig holds temporal view settings, including the label force simulation.
type TemporalConfig struct {
	Labels          *bool   `yaml:"labels"`
	LabelOffset     float64 `yaml:"label_offset"`
	MaxIterations   int     `yaml:"max_iterations"`
	CollideStrength float64 `yaml:"collide_strength"`
	YStrength       float64 `yaml:"y_strength"`
	XStrength       float64 `yaml:"x_strength"`
}

// LabelsOrDefault returns whether labels are drawn; defaults to true when unset.
func (t *TemporalConfig) LabelsOrDefault() bool {
	if t.Labels != nil {
		return *t.Labels
	}
	return true
}

// TopicConfig holds topic-flow view settings.
type TopicConfig struct {
	Layout          string  `yaml:"layout"`
	NodeRadius      float64 `yaml:"node_radius"`
	ClusterFraction float64 `yaml:"cluster_fraction"`
}

// RelayoutConfig holds the resize debounce.
type RelayoutConfig struct {
	DebounceMS int `yaml:"debounce_ms"`
}

// Debounce returns the configured delay as a duration.
func (r RelayoutConfig) Debounce() time.Duration {
	return time.Duration(r.DebounceMS) * time.Millisecond
}

// Load reads and parses the config file at path, applies defaults, and expands paths.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Storage.IndexPath = expandPath(cfg.Storage.IndexPath, configDir)
	for i := range cfg.Watch.Directories {
		cfg.Watch.Directories[i] = expandPath(cfg.Watch.Directories[i], configDir)
	}

	return &cfg, nil
}

// Save writes the config to path. Used for persisting watch directory add/remove.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
