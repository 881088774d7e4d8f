package topic

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/hyperjump/narraview/internal/layout"
	"github.com/hyperjump/narraview/internal/models"
	"github.com/hyperjump/narraview/internal/normalize"
	"github.com/hyperjump/narraview/internal/palette"
	"github.com/hyperjump/narraview/internal/render"
)

// Kind selects the topic layout.
type Kind string

const (
	// KindGraph lays topics out as vertical lanes with y = narrative time.
	KindGraph Kind = "graph"
	// KindScatter places events at (real time, topic band) and clusters near neighbors.
	KindScatter Kind = "scatter"
)

// ParseKind validates a layout name; empty selects the graph.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case "":
		return KindGraph, nil
	case KindGraph, KindScatter:
		return k, nil
	}
	return "", fmt.Errorf("unknown topic layout %q (want graph or scatter)", s)
}

// Options configures the topic layout.
type Options struct {
	Kind            Kind
	Geometry        layout.Config
	NodeRadius      float64
	ClusterFraction float64
	FontSize        float64
	// Expanded holds the keys of groups the user expanded.
	Expanded map[string]bool
}

// DefaultOptions returns the graph layout defaults.
func DefaultOptions() Options {
	return Options{
		Kind:            KindGraph,
		Geometry:        layout.DefaultConfig(),
		NodeRadius:      8,
		ClusterFraction: 0.25,
		FontSize:        11,
	}
}

// Lane is one main topic's column (graph) or band (scatter).
type Lane struct {
	Topic     string  `json:"topic"`
	Frequency int     `json:"frequency"`
	Position  float64 `json:"position"`
	Color     string  `json:"color"`
}

// Placed is a node's final position.
type Placed struct {
	Key       string          `json:"key"`
	Index     int             `json:"index"`
	Topic     string          `json:"topic"`
	X         float64         `json:"x"`
	Y         float64         `json:"y"`
	Group     string          `json:"group,omitempty"`
	Sentiment models.Polarity `json:"sentiment"`
}

// GroupedPoint is a cluster of same-topic events close together in time.
type GroupedPoint struct {
	Key      string  `json:"key"`
	Topic    string  `json:"topic"`
	Members  []int   `json:"members"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Expanded bool    `json:"expanded"`
}

// Diagram is the complete topic layout.
type Diagram struct {
	State      render.State      `json:"state"`
	Kind       Kind              `json:"kind"`
	Dimensions layout.Dimensions `json:"dimensions"`
	Lanes      []Lane            `json:"lanes"`
	Nodes      []Placed          `json:"nodes"`
	Edges      []Edge            `json:"edges"`
	Groups     []GroupedPoint    `json:"groups,omitempty"`
	Ticks      []Tick            `json:"ticks"`
	Threshold  time.Duration     `json:"threshold,omitempty"`
}

// Tick is a labelled axis tick.
type Tick struct {
	Position float64 `json:"position"`
	Label    string  `json:"label"`
}

// Layout computes the topic diagram for events in a container of the given size.
func Layout(events []models.Event, vp render.Viewport, meta models.Metadata, opts Options) *Diagram {
	d := &Diagram{Kind: opts.Kind}
	if d.Kind == "" {
		d.Kind = KindGraph
	}
	if len(events) == 0 {
		d.State = render.StateEmptyData
		d.Dimensions = layout.Fixed(vp.Width, math.Max(vp.Height, opts.Geometry.MinHeight), opts.Geometry.Margin)
		return d
	}
	g := Build(events)
	d.Edges = g.Edges
	if d.Kind == KindScatter {
		layoutScatter(d, g, vp, meta, opts)
	} else {
		layoutGraph(d, g, events, vp, opts)
	}
	return d
}

func lanes(events []models.Event) ([]string, []models.TopicFrequency) {
	freqs := normalize.TopicFrequencies(events)
	keys := make([]string, len(freqs))
	for i, f := range freqs {
		keys[i] = f.MainTopic
	}
	return keys, freqs
}

func layoutGraph(d *Diagram, g Graph, events []models.Event, vp render.Viewport, opts Options) {
	d.State = render.StateReady
	dims := layout.Compute(vp.Width, len(events), opts.Geometry)
	d.Dimensions = dims
	m := dims.Margin

	keys, freqs := lanes(events)
	band := layout.NewBand(keys, m.Left, m.Left+dims.Width, 0.2, 0.1)
	colors := palette.NewOrdinal(keys)
	for _, f := range freqs {
		x, _ := band.Center(f.MainTopic)
		d.Lanes = append(d.Lanes, Lane{Topic: f.MainTopic, Frequency: f.Frequency, Position: x, Color: colors.Color(f.MainTopic)})
	}

	y := layout.NarrativeScale(events, m.Top, m.Top+dims.Height)
	for _, v := range y.Ticks(layout.NarrativeTicks) {
		d.Ticks = append(d.Ticks, Tick{Position: y.Scale(v), Label: fmt.Sprint(v)})
	}
	for _, n := range g.Nodes {
		x, _ := band.Center(n.Event.Topic.MainTopic)
		d.Nodes = append(d.Nodes, Placed{
			Key: n.Key, Index: n.Index, Topic: n.Event.Topic.MainTopic,
			X: x, Y: y.Scale(n.Event.Temporal.NarrativeTime),
			Sentiment: n.Event.Topic.Sentiment.Polarity,
		})
	}
}

func layoutScatter(d *Diagram, g Graph, vp render.Viewport, meta models.Metadata, opts Options) {
	height := math.Max(vp.Height, opts.Geometry.MinHeight)
	dims := layout.Fixed(vp.Width, height, opts.Geometry.Margin)
	d.Dimensions = dims
	m := dims.Margin

	var dated []Node
	var lo, hi time.Time
	for _, n := range g.Nodes {
		at, ok := realTime(n)
		if !ok {
			continue
		}
		if len(dated) == 0 || at.Before(lo) {
			lo = at
		}
		if len(dated) == 0 || at.After(hi) {
			hi = at
		}
		dated = append(dated, n)
	}
	if len(dated) == 0 {
		d.State = render.StateNoTemporalAnchors
		return
	}
	d.State = render.StateReady
	pub, hasPub := meta.PublishTime()
	lo, hi = layout.TimeDomain(lo, hi, pub, hasPub)
	xs := layout.NewTimeScale(lo, hi, m.Left, m.Left+dims.Width)
	for _, t := range xs.Ticks(6) {
		d.Ticks = append(d.Ticks, Tick{Position: xs.Scale(t.Time), Label: t.Label})
	}

	events := make([]models.Event, len(dated))
	for i, n := range dated {
		events[i] = n.Event
	}
	keys, freqs := lanes(events)
	band := layout.NewBand(keys, m.Top, m.Top+dims.Height, 0.3, 0.1)
	colors := palette.NewOrdinal(keys)
	for _, f := range freqs {
		y, _ := band.Center(f.MainTopic)
		d.Lanes = append(d.Lanes, Lane{Topic: f.MainTopic, Frequency: f.Frequency, Position: y, Color: colors.Color(f.MainTopic)})
	}

	d.Threshold = time.Duration(float64(xs.PerPixel()) * opts.NodeRadius * 2 * opts.ClusterFraction)
	groups := clusterNodes(dated, d.Threshold)
	placed := make(map[string]Placed, len(dated))
	for _, grp := range groups {
		y, _ := band.Center(grp.topic)
		sumX := 0.0
		for _, n := range grp.nodes {
			at, _ := realTime(n)
			sumX += xs.Scale(at)
		}
		cx := sumX / float64(len(grp.nodes))
		gp := GroupedPoint{Key: grp.key, Topic: grp.topic, X: cx, Y: y, Expanded: opts.Expanded[grp.key]}
		for k, n := range grp.nodes {
			gp.Members = append(gp.Members, n.Index)
			p := Placed{Key: n.Key, Index: n.Index, Topic: grp.topic, X: cx, Y: y, Sentiment: n.Event.Topic.Sentiment.Polarity}
			if len(grp.nodes) > 1 {
				p.Group = grp.key
				if gp.Expanded {
					p.X, p.Y = ExpandedPosition(cx, y, opts.NodeRadius, k, len(grp.nodes))
				}
			} else {
				at, _ := realTime(n)
				p.X = xs.Scale(at)
			}
			placed[n.Key] = p
		}
		if len(grp.nodes) > 1 {
			d.Groups = append(d.Groups, gp)
		}
	}
	for _, n := range dated {
		if p, ok := placed[n.Key]; ok {
			d.Nodes = append(d.Nodes, p)
		}
	}
}

type cluster struct {
	key   string
	topic string
	nodes []Node
}

// realTime is the event's own wall-clock time. The time a node inherits for ordering is not used
// for placement.
func realTime(n Node) (time.Time, bool) {
	if !n.Event.Temporal.HasRealTime() {
		return time.Time{}, false
	}
	return *n.Event.Temporal.RealTime, true
}

// clusterNodes groups same-topic nodes that lie within threshold of the group's first member,
// so no group spans more than threshold. Undated nodes are left out. Group keys are
// "<topic>#<first member index>".
func clusterNodes(nodes []Node, threshold time.Duration) []cluster {
	byTopic := make(map[string][]Node)
	var topics []string
	for _, n := range nodes {
		if _, ok := realTime(n); !ok {
			continue
		}
		t := n.Event.Topic.MainTopic
		if _, ok := byTopic[t]; !ok {
			topics = append(topics, t)
		}
		byTopic[t] = append(byTopic[t], n)
	}
	var out []cluster
	for _, t := range topics {
		members := byTopic[t]
		sort.SliceStable(members, func(i, j int) bool {
			return members[i].Event.Temporal.RealTime.Before(*members[j].Event.Temporal.RealTime)
		})
		var cur *cluster
		var start time.Time
		for _, n := range members {
			at, _ := realTime(n)
			if cur != nil && at.Sub(start) <= threshold {
				cur.nodes = append(cur.nodes, n)
				continue
			}
			if cur != nil {
				out = append(out, *cur)
			}
			start = at
			cur = &cluster{key: fmt.Sprintf("%s#%d", t, n.Index), topic: t, nodes: []Node{n}}
		}
		if cur != nil {
			out = append(out, *cur)
		}
	}
	return out
}

// ExpandedPosition places member k of n on a circle of radius 2*nodeRadius around (cx, cy),
// starting straight up and evenly spaced by angle.
func ExpandedPosition(cx, cy, nodeRadius float64, k, n int) (float64, float64) {
	angle := -math.Pi/2 + 2*math.Pi*float64(k)/float64(n)
	r := 2 * nodeRadius
	return cx + r*math.Cos(angle), cy + r*math.Sin(angle)
}
