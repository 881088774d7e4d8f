// Package views assembles configured renderers for a requested mode.
package views

import (
	"fmt"
	"io"

	"github.com/hyperjump/narraview/internal/config"
	"github.com/hyperjump/narraview/internal/models"
	"github.com/hyperjump/narraview/internal/render"
	"github.com/hyperjump/narraview/internal/render/entity"
	"github.com/hyperjump/narraview/internal/render/temporal"
	"github.com/hyperjump/narraview/internal/render/topic"
	"github.com/hyperjump/narraview/pkg/utils"
	"go.uber.org/zap"
)

// Params are per-request view settings. Unset values fall back to configuration.
type Params struct {
	Attribute *string
	Labels    *bool
	Layout    string
	// Expanded holds the scatter groups shown as individual events.
	Expanded map[string]bool
}

// Geometry is a layout result in the shape served as JSON.
type Geometry struct {
	Mode   render.Mode  `json:"mode"`
	State  render.State `json:"state"`
	Layout interface{}  `json:"layout"`
}

// Builder turns configuration plus request parameters into renderers.
type Builder struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewBuilder returns a builder over cfg. A nil cfg uses the defaults.
func NewBuilder(cfg *config.Config, logger *zap.Logger) *Builder {
	if cfg == nil {
		cfg = &config.Config{}
		config.ApplyDefaults(cfg)
	}
	return &Builder{cfg: cfg, logger: utils.OrNop(logger)}
}

// EntityOptions resolves the entity renderer options.
func (b *Builder) EntityOptions(p Params) entity.Options {
	opts := entity.DefaultOptions()
	opts.Layout = b.cfg.Layout.Geometry()
	opts.Attribute = b.cfg.Entity.DefaultAttribute
	if p.Attribute != nil {
		opts.Attribute = *p.Attribute
	}
	opts.ExcludeUnknown = b.cfg.Entity.ExcludeUnknown
	if b.cfg.Layout.NodeRadius > 0 {
		opts.NodeRadius = b.cfg.Layout.NodeRadius
	}
	if b.cfg.Layout.FontSize > 0 {
		opts.FontSize = b.cfg.Layout.FontSize
	}
	return opts
}

// TemporalOptions resolves the temporal renderer options.
func (b *Builder) TemporalOptions(p Params) temporal.Options {
	tc := b.cfg.Temporal
	opts := temporal.DefaultOptions()
	opts.Layout = b.cfg.Layout.Geometry()
	opts.Labels = tc.LabelsOrDefault()
	if p.Labels != nil {
		opts.Labels = *p.Labels
	}
	opts.Force = temporal.ForceOptions{
		Offset:          tc.LabelOffset,
		MaxIterations:   tc.MaxIterations,
		CollideStrength: tc.CollideStrength,
		YStrength:       tc.YStrength,
		XStrength:       tc.XStrength,
	}
	if b.cfg.Layout.NodeRadius > 0 {
		opts.NodeRadius = b.cfg.Layout.NodeRadius
	}
	if b.cfg.Layout.FontSize > 0 {
		opts.FontSize = b.cfg.Layout.FontSize
	}
	return opts
}

// TopicOptions resolves the topic renderer options. An unknown layout name is an error.
func (b *Builder) TopicOptions(p Params) (topic.Options, error) {
	name := b.cfg.Topic.Layout
	if p.Layout != "" {
		name = p.Layout
	}
	kind, err := topic.ParseKind(name)
	if err != nil {
		return topic.Options{}, err
	}
	opts := topic.DefaultOptions()
	opts.Kind = kind
	opts.Geometry = b.cfg.Layout.Geometry()
	opts.NodeRadius = b.cfg.Topic.NodeRadius
	opts.ClusterFraction = b.cfg.Topic.ClusterFraction
	if b.cfg.Layout.FontSize > 0 {
		opts.FontSize = b.cfg.Layout.FontSize
	}
	opts.Expanded = p.Expanded
	return opts, nil
}

// Renderer returns the renderer for mode.
func (b *Builder) Renderer(mode render.Mode, p Params, meta models.Metadata) (render.Renderer, error) {
	switch mode {
	case render.ModeEntity:
		return entity.New(b.EntityOptions(p)), nil
	case render.ModeTime:
		return temporal.New(b.TemporalOptions(p), temporal.WithLogger(b.logger), temporal.WithMetadata(meta)), nil
	case render.ModeTopic:
		opts, err := b.TopicOptions(p)
		if err != nil {
			return nil, err
		}
		return topic.New(opts, meta), nil
	}
	return nil, fmt.Errorf("unknown mode %q", mode)
}

// Render writes the SVG of ds in mode.
func (b *Builder) Render(w io.Writer, mode render.Mode, p Params, ds *models.Dataset, vp render.Viewport, hl render.Highlight) (render.State, error) {
	r, err := b.Renderer(mode, p, ds.Metadata)
	if err != nil {
		return "", err
	}
	state, err := r.Render(w, ds.Events, vp, hl)
	if err != nil {
		return state, fmt.Errorf("render %s: %w", mode, err)
	}
	b.logger.Debug("rendered view",
		zap.String("dataset_id", ds.ID), zap.String("mode", string(mode)),
		zap.Int("events", len(ds.Events)), zap.String("state", string(state)))
	return state, nil
}

// Layout computes the geometry of ds in mode without drawing.
func (b *Builder) Layout(mode render.Mode, p Params, ds *models.Dataset, vp render.Viewport) (*Geometry, error) {
	switch mode {
	case render.ModeEntity:
		d := entity.Layout(ds.Events, vp.Width, b.EntityOptions(p))
		return &Geometry{Mode: mode, State: d.State, Layout: d}, nil
	case render.ModeTime:
		ch := temporal.Layout(ds.Events, vp, ds.Metadata, b.TemporalOptions(p))
		return &Geometry{Mode: mode, State: ch.State, Layout: ch}, nil
	case render.ModeTopic:
		opts, err := b.TopicOptions(p)
		if err != nil {
			return nil, err
		}
		d := topic.Layout(ds.Events, vp, ds.Metadata, opts)
		return &Geometry{Mode: mode, State: d.State, Layout: d}, nil
	}
	return nil, fmt.Errorf("unknown mode %q", mode)
}
