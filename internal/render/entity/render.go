package entity

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/hyperjump/narraview/internal/models"
	"github.com/hyperjump/narraview/internal/palette"
	"github.com/hyperjump/narraview/internal/render"
	"github.com/hyperjump/narraview/internal/render/svg"
	"github.com/hyperjump/narraview/pkg/utils"
)

// Renderer draws entity diagrams.
type Renderer struct {
	opts Options
}

// New returns an entity renderer.
func New(opts Options) *Renderer {
	return &Renderer{opts: opts}
}

// Mode implements render.Renderer.
func (r *Renderer) Mode() render.Mode { return render.ModeEntity }

// Render lays out events and writes the diagram, or a placeholder for empty input.
func (r *Renderer) Render(w io.Writer, events []models.Event, vp render.Viewport, hl render.Highlight) (render.State, error) {
	d := Layout(events, vp.Width, r.opts)
	if d.State != render.StateReady {
		return d.State, render.Placeholder(w, vp, d.State)
	}
	return d.State, r.Draw(w, d, events, hl)
}

// Draw writes an already computed diagram.
func (r *Renderer) Draw(w io.Writer, d *Diagram, events []models.Event, hl render.Highlight) error {
	dims := d.Dimensions
	m := dims.Margin
	c := svg.New(dims.OuterWidth, dims.OuterHeight, svg.A("class", "narraview entity"), svg.A("data-state", string(d.State)))
	c.Style(fmt.Sprintf("text { font-family: sans-serif; font-size: %spx; fill: %s; }", svg.Num(r.opts.FontSize), palette.Text))

	top, bottom := m.Top, m.Top+dims.Height
	byIndex := make(map[int]models.Event, len(events))
	for _, ev := range events {
		byIndex[ev.Index] = ev
	}

	c.Group(svg.A("class", "columns"))
	for _, col := range d.Columns {
		width, opacity := 1.0, 0.5
		if col.Key == hl.HoveredColumn {
			width, opacity = 3, 1
		}
		c.Line(col.X, top, col.X, bottom,
			svg.A("stroke", col.Color), svg.A("stroke-width", width), svg.A("stroke-opacity", opacity),
			svg.A("data-column", col.Key))
		label := r.fitLabel(col.Label, d)
		c.Text(col.X, top-12, label, svg.A("text-anchor", "middle"), svg.A("fill", col.Color),
			svg.A("data-column", col.Key))
	}
	c.End()

	c.Group(svg.A("class", "axis"))
	c.Line(d.AxisX, top, d.AxisX, bottom, svg.A("stroke", palette.Guide))
	for _, t := range d.Ticks {
		c.Text(d.AxisX-10, t.Y+4, strconv.FormatFloat(t.Value, 'f', -1, 64),
			svg.A("text-anchor", "end"), svg.A("fill", palette.MutedText))
	}
	for _, row := range d.Rows {
		fill := palette.Guide
		if row.Relevance == Matched {
			fill = palette.Connector
		}
		c.Circle(d.AxisX, row.Y, 3, render.EventTitle(byIndex[row.Index]),
			svg.A("fill", fill), svg.A("data-event", row.Index), svg.A("data-relevance", row.Relevance.String()))
	}
	c.End()

	c.Group(svg.A("class", "events"))
	for _, row := range d.Rows {
		if row.Relevance != Matched {
			continue
		}
		ev := byIndex[row.Index]
		selected := hl.IsSelected(row.Index)
		c.Group(svg.A("data-event", row.Index))
		if row.Connector != nil {
			c.Line(row.Connector.X1, row.Y, row.Connector.X2, row.Y,
				svg.A("stroke", palette.Connector), svg.A("stroke-width", r.opts.NodeRadius), svg.A("stroke-linecap", "round"))
		}
		for _, n := range row.Nodes {
			radius := r.opts.NodeRadius
			stroke, strokeWidth := palette.Connector, 1.5
			if hl.IsHovered(row.Index) {
				radius *= 1.3
			}
			if selected {
				stroke, strokeWidth = palette.Highlight, 3
			}
			c.Circle(n.X, n.Y, radius, nodeTitle(ev, n),
				svg.A("fill", n.Color), svg.A("stroke", stroke), svg.A("stroke-width", strokeWidth),
				svg.A("data-column", n.Column))
		}
		if row.Connector != nil {
			c.Line(row.Connector.X1, row.Y, row.Connector.X2, row.Y,
				svg.A("stroke", palette.InnerLine), svg.A("stroke-width", r.opts.NodeRadius/3), svg.A("stroke-linecap", "round"))
		}
		c.End()
	}
	c.End()

	_, err := c.WriteTo(w)
	return err
}

func (r *Renderer) fitLabel(label string, d *Diagram) string {
	var width float64
	if len(d.Columns) > 1 {
		width = d.Columns[1].X - d.Columns[0].X
	} else {
		width = d.Dimensions.Width
	}
	perRune := utils.EstimateTextWidth("M", r.opts.FontSize)
	if perRune <= 0 {
		return label
	}
	maxRunes := int(width / perRune)
	if maxRunes < 4 {
		maxRunes = 4
	}
	return utils.Truncate(label, maxRunes)
}

func nodeTitle(ev models.Event, n Node) string {
	var b strings.Builder
	b.WriteString(render.EventTitle(ev))
	b.WriteString("\n" + strings.Join(n.Names, ", "))
	return b.String()
}
