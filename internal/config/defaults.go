package config

import (
	"github.com/hyperjump/narraview/internal/layout"
	"github.com/hyperjump/narraview/internal/relayout"
)

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.AllowedOrigins == nil {
		cfg.Server.AllowedOrigins = []string{"http://localhost:*", "http://127.0.0.1:*"}
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/narraview/data/db/catalog.db"
	}
	if cfg.Storage.IndexPath == "" {
		cfg.Storage.IndexPath = "/usr/local/var/narraview/data/indices/events.bleve"
	}
	if cfg.Watch.Extensions == nil {
		cfg.Watch.Extensions = []string{".json"}
	}
	// Recursive defaults to true when unset (nil).
	if len(cfg.Watch.Directories) > 0 && cfg.Watch.Recursive == nil {
		t := true
		cfg.Watch.Recursive = &t
	}
	applyLayoutDefaults(&cfg.Layout)
	applyTemporalDefaults(&cfg.Temporal)
	if cfg.Topic.Layout == "" {
		cfg.Topic.Layout = "graph"
	}
	if cfg.Topic.NodeRadius == 0 {
		cfg.Topic.NodeRadius = 8
	}
	if cfg.Topic.ClusterFraction == 0 {
		cfg.Topic.ClusterFraction = 0.25
	}
	if cfg.Relayout.DebounceMS == 0 {
		cfg.Relayout.DebounceMS = int(relayout.DefaultDelay.Milliseconds())
	}
}

func applyLayoutDefaults(l *LayoutConfig) {
	def := layout.DefaultConfig()
	if l.Margin == (MarginConfig{}) {
		l.Margin = MarginConfig{Top: def.Margin.Top, Right: def.Margin.Right, Bottom: def.Margin.Bottom, Left: def.Margin.Left}
	}
	if l.RowHeight == 0 {
		l.RowHeight = def.RowHeight
	}
	if l.MinHeight == 0 {
		l.MinHeight = def.MinHeight
	}
	if l.MinColumnWidth == 0 {
		l.MinColumnWidth = def.MinColumnWidth
	}
	if l.MaxColumnWidth == 0 {
		l.MaxColumnWidth = def.MaxColumnWidth
	}
	if l.ColumnGap == 0 {
		l.ColumnGap = def.ColumnGap
	}
	if l.ColumnFloor == 0 {
		l.ColumnFloor = def.ColumnFloor
	}
}

func applyTemporalDefaults(t *TemporalConfig) {
	if t.Labels == nil {
		v := true
		t.Labels = &v
	}
	if t.LabelOffset == 0 {
		t.LabelOffset = 30
	}
	if t.MaxIterations == 0 {
		t.MaxIterations = 300
	}
	if t.CollideStrength == 0 {
		t.CollideStrength = 1
	}
	if t.YStrength == 0 {
		t.YStrength = 0.1
	}
	if t.XStrength == 0 {
		t.XStrength = 0.05
	}
}
