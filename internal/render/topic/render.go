package topic

import (
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/narraview/internal/models"
	"github.com/hyperjump/narraview/internal/palette"
	"github.com/hyperjump/narraview/internal/render"
	"github.com/hyperjump/narraview/internal/render/svg"
	"github.com/hyperjump/narraview/pkg/utils"
)

// Renderer draws topic diagrams.
type Renderer struct {
	opts Options
	meta models.Metadata
}

// New returns a topic renderer. meta supplies the publish date for the scatter time domain.
func New(opts Options, meta models.Metadata) *Renderer {
	return &Renderer{opts: opts, meta: meta}
}

// Mode implements render.Renderer.
func (r *Renderer) Mode() render.Mode { return render.ModeTopic }

// Render lays out events and writes the diagram, or a placeholder when there is nothing to plot.
func (r *Renderer) Render(w io.Writer, events []models.Event, vp render.Viewport, hl render.Highlight) (render.State, error) {
	d := Layout(events, vp, r.meta, r.opts)
	if d.State != render.StateReady {
		return d.State, render.Placeholder(w, vp, d.State)
	}
	return d.State, r.Draw(w, d, events, hl)
}

// Draw writes an already computed diagram. The hovered node is drawn last so it sits on top.
func (r *Renderer) Draw(w io.Writer, d *Diagram, events []models.Event, hl render.Highlight) error {
	dims := d.Dimensions
	m := dims.Margin
	top, bottom := m.Top, m.Top+dims.Height
	left, right := m.Left, m.Left+dims.Width

	c := svg.New(dims.OuterWidth, dims.OuterHeight,
		svg.A("class", "narraview topic "+string(d.Kind)), svg.A("data-state", string(d.State)))
	c.Style(fmt.Sprintf("text { font-family: sans-serif; font-size: %spx; fill: %s; }", svg.Num(r.opts.FontSize), palette.Text))
	c.ArrowMarker("arrow", palette.Connector)

	c.Group(svg.A("class", "lanes"))
	for _, l := range d.Lanes {
		label := utils.Truncate(l.Topic, 18)
		if d.Kind == KindScatter {
			c.Line(left, l.Position, right, l.Position, svg.A("stroke", l.Color), svg.A("stroke-opacity", 0.3))
			c.Text(left-8, l.Position+4, label, svg.A("text-anchor", "end"), svg.A("fill", l.Color))
		} else {
			c.Line(l.Position, top, l.Position, bottom, svg.A("stroke", l.Color), svg.A("stroke-opacity", 0.3))
			c.Text(l.Position, top-12, label, svg.A("text-anchor", "middle"), svg.A("fill", l.Color))
		}
	}
	for _, t := range d.Ticks {
		if d.Kind == KindScatter {
			c.Text(t.Position, bottom+18, t.Label, svg.A("text-anchor", "middle"), svg.A("fill", palette.MutedText))
		} else {
			c.Text(left-8, t.Position+4, t.Label, svg.A("text-anchor", "end"), svg.A("fill", palette.MutedText))
		}
	}
	c.End()

	pos := make(map[string]Placed, len(d.Nodes))
	for _, n := range d.Nodes {
		pos[n.Key] = n
	}
	c.Group(svg.A("class", "edges"))
	for _, e := range d.Edges {
		a, okA := pos[e.Source]
		b, okB := pos[e.Target]
		if !okA || !okB || (a.X == b.X && a.Y == b.Y) {
			continue
		}
		attrs := []svg.Attr{svg.A("stroke", palette.Connector), svg.A("marker-end", "url(#arrow)"), svg.A("data-kind", string(e.Kind))}
		if e.Kind == CrossTopic {
			attrs = append(attrs, svg.A("stroke-dasharray", "5 3"), svg.A("stroke-opacity", 0.6))
		} else {
			attrs = append(attrs, svg.A("stroke-opacity", 0.4))
		}
		var p svg.PathBuilder
		p.MoveTo(a.X, a.Y).LineTo(b.X, b.Y)
		if len(e.Shared) > 0 {
			c.Group(svg.A("class", "cross-edge"))
			c.Path(p.String(), append(attrs, svg.A("fill", "none"))...)
			c.Text((a.X+b.X)/2, (a.Y+b.Y)/2, strings.Join(e.Shared, ", "), svg.A("font-size", 9), svg.A("fill", palette.MutedText))
			c.End()
			continue
		}
		c.Path(p.String(), append(attrs, svg.A("fill", "none"))...)
	}
	c.End()

	byIndex := make(map[int]models.Event, len(events))
	for _, ev := range events {
		byIndex[ev.Index] = ev
	}
	collapsed := make(map[string]GroupedPoint)
	for _, g := range d.Groups {
		if !g.Expanded {
			collapsed[g.Key] = g
		}
	}

	c.Group(svg.A("class", "nodes"))
	drawnGroups := make(map[string]bool)
	var hovered *Placed
	for i := range d.Nodes {
		n := d.Nodes[i]
		if g, ok := collapsed[n.Group]; ok {
			if !drawnGroups[g.Key] {
				drawnGroups[g.Key] = true
				r.drawGroup(c, g, n.Sentiment)
			}
			continue
		}
		if hl.IsHovered(n.Index) {
			hovered = &d.Nodes[i]
			continue
		}
		r.drawNode(c, n, byIndex[n.Index], hl, false)
	}
	if hovered != nil {
		r.drawNode(c, *hovered, byIndex[hovered.Index], hl, true)
	}
	c.End()

	_, err := c.WriteTo(w)
	return err
}

func (r *Renderer) drawNode(c *svg.Canvas, n Placed, ev models.Event, hl render.Highlight, hovered bool) {
	colors := palette.ForSentiment(n.Sentiment)
	radius := r.opts.NodeRadius
	if hovered {
		radius *= 1.3
	}
	stroke, width := colors.Border, 1.5
	if hl.IsSelected(n.Index) {
		stroke, width = palette.Highlight, 3
	}
	c.Circle(n.X, n.Y, radius, nodeTitle(ev),
		svg.A("fill", colors.Fill), svg.A("stroke", stroke), svg.A("stroke-width", width),
		svg.A("data-event", n.Index), svg.A("data-key", n.Key), svg.A("data-group", n.Group))
}

func (r *Renderer) drawGroup(c *svg.Canvas, g GroupedPoint, sentiment models.Polarity) {
	colors := palette.ForSentiment(sentiment)
	radius := r.opts.NodeRadius * 1.4
	c.Group(svg.A("class", "group"), svg.A("data-group", g.Key))
	c.Circle(g.X, g.Y, radius, fmt.Sprintf("%s: %d events", g.Topic, len(g.Members)),
		svg.A("fill", colors.Fill), svg.A("stroke", colors.Border), svg.A("stroke-width", 2))
	c.Text(g.X, g.Y+4, fmt.Sprint(len(g.Members)), svg.A("text-anchor", "middle"), svg.A("font-size", 10))
	c.End()
}

func nodeTitle(ev models.Event) string {
	var b strings.Builder
	b.WriteString(render.EventTitle(ev))
	if len(ev.Topic.SubTopic) > 0 {
		b.WriteString("\n" + strings.Join(ev.Topic.SubTopic, ", "))
	}
	fmt.Fprintf(&b, "\n%s %.2f", ev.Topic.Sentiment.Polarity, ev.Topic.Sentiment.Intensity)
	return b.String()
}
