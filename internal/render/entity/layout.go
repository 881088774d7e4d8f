// Package entity renders the column-per-entity "metro map": one vertical guide per entity
// column, a node where an event mentions the column, and connectors joining co-occurring
// columns at the event's narrative row.
package entity

import (
	"sort"

	"github.com/hyperjump/narraview/internal/layout"
	"github.com/hyperjump/narraview/internal/models"
	"github.com/hyperjump/narraview/internal/normalize"
	"github.com/hyperjump/narraview/internal/palette"
	"github.com/hyperjump/narraview/internal/render"
)

// Relevance says how an event relates to the visible columns.
type Relevance int

const (
	// NoEntities means the event references no entity at all.
	NoEntities Relevance = iota
	// NoMatches means the event has entities but none falls in a visible column.
	NoMatches
	// Matched means at least one entity falls in a visible column.
	Matched
)

func (r Relevance) String() string {
	switch r {
	case NoEntities:
		return "no_entities"
	case NoMatches:
		return "no_matches"
	default:
		return "matched"
	}
}

// MarshalText encodes the relevance by name.
func (r Relevance) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

// Options configures the entity layout.
type Options struct {
	Attribute      string
	ExcludeUnknown bool
	Layout         layout.Config
	NodeRadius     float64
	FontSize       float64
}

// DefaultOptions returns identity columns over the default geometry.
func DefaultOptions() Options {
	return Options{
		Attribute:  normalize.IdentityAttribute,
		Layout:     layout.DefaultConfig(),
		NodeRadius: 6,
		FontSize:   12,
	}
}

// Column is one visible entity column.
type Column struct {
	Key       string  `json:"key"`
	Label     string  `json:"label"`
	Frequency int     `json:"frequency"`
	X         float64 `json:"x"`
	Color     string  `json:"color"`
}

// Node is an event's mark on one column.
type Node struct {
	Column   string   `json:"column"`
	Entities []string `json:"entities"`
	Names    []string `json:"names"`
	X        float64  `json:"x"`
	Y        float64  `json:"y"`
	Color    string   `json:"color"`
}

// Connector spans the leftmost to rightmost node of one event.
type Connector struct {
	X1 float64 `json:"x1"`
	X2 float64 `json:"x2"`
	Y  float64 `json:"y"`
}

// Row is the layout of one event.
type Row struct {
	Index     int        `json:"index"`
	Y         float64    `json:"y"`
	Label     string     `json:"label"`
	Relevance Relevance  `json:"relevance"`
	Nodes     []Node     `json:"nodes"`
	Connector *Connector `json:"connector,omitempty"`
}

// Tick is a narrative-axis tick.
type Tick struct {
	Value float64 `json:"value"`
	Y     float64 `json:"y"`
}

// Diagram is the complete entity layout.
type Diagram struct {
	State      render.State           `json:"state"`
	Attribute  string                 `json:"attribute"`
	Dimensions layout.Dimensions      `json:"dimensions"`
	Columns    []Column               `json:"columns"`
	Rows       []Row                  `json:"rows"`
	Ticks      []Tick                 `json:"ticks"`
	AxisX      float64                `json:"axis_x"`
	Mentions   []models.EntityMention `json:"-"`

	colors *palette.Ordinal
}

// Layout computes the entity diagram for events inside a container of the given width.
// Columns are the most-mentioned entities or attribute values that fit; the rest are cut.
func Layout(events []models.Event, containerWidth float64, opts Options) *Diagram {
	d := &Diagram{Attribute: opts.Attribute}
	if len(events) == 0 {
		d.State = render.StateEmptyData
		d.Dimensions = layout.Compute(containerWidth, 0, opts.Layout)
		return d
	}
	d.State = render.StateReady
	dims := layout.Compute(containerWidth, len(events), opts.Layout)
	d.Dimensions = dims
	m := dims.Margin
	d.AxisX = m.Left - opts.NodeRadius*2

	d.Mentions = normalize.EntityMentions(events, opts.Attribute, opts.ExcludeUnknown)
	cols := layout.FitColumns(dims.Width, len(d.Mentions), opts.Layout)
	visible := d.Mentions[:cols.Count]
	keys := make([]string, len(visible))
	for i, mn := range visible {
		keys[i] = mn.Key
	}
	band := cols.Band(keys, m.Left)
	all := make([]string, len(d.Mentions))
	for i, mn := range d.Mentions {
		all[i] = mn.Key
	}
	d.colors = palette.NewOrdinal(all)
	colX := make(map[string]float64, len(visible))
	for _, mn := range visible {
		x, _ := band.Center(mn.Key)
		colX[mn.Key] = x
		color := d.columnColor(mn.Key)
		d.Columns = append(d.Columns, Column{Key: mn.Key, Label: mn.Label, Frequency: mn.Frequency, X: x, Color: color})
	}
	colColor := make(map[string]string, len(d.Columns))
	for _, c := range d.Columns {
		colColor[c.Key] = c.Color
	}

	y := layout.NarrativeScale(events, m.Top, m.Top+dims.Height)
	for _, v := range y.Ticks(layout.NarrativeTicks) {
		d.Ticks = append(d.Ticks, Tick{Value: v, Y: y.Scale(v)})
	}

	for _, ev := range events {
		row := Row{Index: ev.Index, Y: y.Scale(ev.Temporal.NarrativeTime), Label: ev.Label()}
		row.Relevance, row.Nodes = relevantNodes(ev, opts, colX, colColor, row.Y)
		if len(row.Nodes) >= 2 {
			row.Connector = &Connector{X1: row.Nodes[0].X, X2: row.Nodes[len(row.Nodes)-1].X, Y: row.Y}
		}
		d.Rows = append(d.Rows, row)
	}
	return d
}

func (d *Diagram) columnColor(key string) string {
	if key == normalize.Unknown && d.Attribute != normalize.IdentityAttribute {
		return palette.Unknown
	}
	if d.colors == nil {
		return palette.ForKey(key)
	}
	return d.colors.Color(key)
}

// EntityColors maps each entity id of ev to the color of the column it falls in. Entities
// whose column was cut keep the color their column would have had.
func (d *Diagram) EntityColors(ev models.Event) map[string]string {
	out := make(map[string]string)
	for _, ent := range ev.UniqueEntities() {
		key, _, _ := normalize.ColumnKey(ent, d.Attribute)
		out[ent.ID] = d.columnColor(key)
	}
	return out
}

// relevantNodes groups the event's entities by visible column, one node per column,
// ordered left to right.
func relevantNodes(ev models.Event, opts Options, colX map[string]float64, colColor map[string]string, y float64) (Relevance, []Node) {
	ents := ev.UniqueEntities()
	if len(ents) == 0 {
		return NoEntities, nil
	}
	byCol := make(map[string]*Node)
	var nodes []*Node
	for _, ent := range ents {
		key, _, known := normalize.ColumnKey(ent, opts.Attribute)
		if !known && opts.ExcludeUnknown {
			continue
		}
		x, ok := colX[key]
		if !ok {
			continue
		}
		n, ok := byCol[key]
		if !ok {
			n = &Node{Column: key, X: x, Y: y, Color: colColor[key]}
			byCol[key] = n
			nodes = append(nodes, n)
		}
		n.Entities = append(n.Entities, ent.ID)
		n.Names = append(n.Names, ent.Name)
	}
	if len(nodes) == 0 {
		return NoMatches, nil
	}
	sort.SliceStable(nodes, func(i, j int) bool { return nodes[i].X < nodes[j].X })
	out := make([]Node, len(nodes))
	for i, n := range nodes {
		out[i] = *n
	}
	return Matched, out
}
