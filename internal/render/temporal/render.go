package temporal

import (
	"fmt"
	"io"
	"strconv"

	"go.uber.org/zap"

	"github.com/hyperjump/narraview/internal/models"
	"github.com/hyperjump/narraview/internal/palette"
	"github.com/hyperjump/narraview/internal/render"
	"github.com/hyperjump/narraview/internal/render/svg"
)

// Renderer draws temporal charts.
type Renderer struct {
	opts   Options
	meta   models.Metadata
	logger *zap.Logger
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithLogger sets the logger used to report label simulation cost.
func WithLogger(l *zap.Logger) Option {
	return func(r *Renderer) { r.logger = l }
}

// WithMetadata supplies the dataset metadata used for the time domain fallback.
func WithMetadata(m models.Metadata) Option {
	return func(r *Renderer) { r.meta = m }
}

// New returns a temporal renderer.
func New(opts Options, options ...Option) *Renderer {
	r := &Renderer{opts: opts, logger: zap.NewNop()}
	for _, o := range options {
		o(r)
	}
	return r
}

// Mode implements render.Renderer.
func (r *Renderer) Mode() render.Mode { return render.ModeTime }

// Render lays out events and writes the chart, or a placeholder when there is nothing to plot.
func (r *Renderer) Render(w io.Writer, events []models.Event, vp render.Viewport, hl render.Highlight) (render.State, error) {
	ch := Layout(events, vp, r.meta, r.opts)
	if ch.State != render.StateReady {
		return ch.State, render.Placeholder(w, vp, ch.State)
	}
	r.logger.Debug("temporal layout",
		zap.Int("events", len(events)),
		zap.Int("labels", len(ch.Labels)),
		zap.Int("iterations", ch.Iterations))
	return ch.State, r.Draw(w, ch, events, hl)
}

// Draw writes an already computed chart.
func (r *Renderer) Draw(w io.Writer, ch *Chart, events []models.Event, hl render.Highlight) error {
	dims := ch.Dimensions
	m := dims.Margin
	top, bottom := m.Top, m.Top+dims.Height
	left, right := m.Left, m.Left+dims.Width

	c := svg.New(dims.OuterWidth, dims.OuterHeight, svg.A("class", "narraview temporal"), svg.A("data-state", string(ch.State)))
	c.Style(fmt.Sprintf("text { font-family: sans-serif; font-size: %spx; fill: %s; }", svg.Num(r.opts.FontSize), palette.Text))

	c.Group(svg.A("class", "axes"))
	c.Line(left, bottom, right, bottom, svg.A("stroke", palette.Guide))
	c.Line(left, top, left, bottom, svg.A("stroke", palette.Guide))
	for _, t := range ch.XTicks {
		c.Line(t.Position, bottom, t.Position, bottom+5, svg.A("stroke", palette.Guide))
		c.Text(t.Position, bottom+18, t.Label, svg.A("text-anchor", "middle"), svg.A("fill", palette.MutedText))
	}
	for _, t := range ch.YTicks {
		c.Line(left-5, t.Position, left, t.Position, svg.A("stroke", palette.Guide))
		c.Text(left-8, t.Position+4, t.Label, svg.A("text-anchor", "end"), svg.A("fill", palette.MutedText))
	}
	if ch.GutterX > 0 {
		c.Line(ch.GutterX-40, top, ch.GutterX-40, bottom, svg.A("stroke", palette.Guide), svg.A("stroke-dasharray", "4 4"))
		c.Text(ch.GutterX, top-10, "undated", svg.A("text-anchor", "middle"), svg.A("fill", palette.MutedText))
	}
	c.End()

	if ch.Path != "" {
		c.Path(ch.Path, svg.A("class", "story-line"), svg.A("fill", "none"),
			svg.A("stroke", palette.Categorical[0]), svg.A("stroke-width", 2), svg.A("stroke-opacity", 0.7))
	}

	byIndex := make(map[int]models.Event, len(events))
	for _, ev := range events {
		byIndex[ev.Index] = ev
	}
	c.Group(svg.A("class", "events"))
	for _, mk := range ch.Markers {
		radius := r.opts.NodeRadius
		fill := palette.Categorical[0]
		if !mk.Dated {
			fill = palette.Unknown
		}
		if hl.IsHovered(mk.Index) {
			radius *= 1.6
		}
		stroke, strokeWidth := "#ffffff", 1.0
		if hl.IsSelected(mk.Index) {
			stroke, strokeWidth = palette.Highlight, 3
		}
		c.Circle(mk.X, mk.Y, radius, render.EventTitle(byIndex[mk.Index]),
			svg.A("fill", fill), svg.A("stroke", stroke), svg.A("stroke-width", strokeWidth),
			svg.A("data-event", mk.Index), svg.A("data-dated", strconv.FormatBool(mk.Dated)))
	}
	c.End()

	if len(ch.Labels) > 0 {
		c.Group(svg.A("class", "labels"))
		for _, l := range ch.Labels {
			c.Line(l.AnchorX, l.AnchorY, l.X, l.Y+l.Height/2, svg.A("stroke", palette.Guide))
			c.Text(l.X, l.Y+l.Height/2-2, l.Text, svg.A("text-anchor", "middle"), svg.A("data-event", l.Index))
		}
		c.End()
	}

	_, err := c.WriteTo(w)
	return err
}

func formatNarrative(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
