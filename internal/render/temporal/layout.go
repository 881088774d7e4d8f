// Package temporal renders real time against narrative time: one marker per event, a
// monotone path through the dated events in story order, and de-overlapped labels.
package temporal

import (
	"sort"
	"time"

	"github.com/hyperjump/narraview/internal/layout"
	"github.com/hyperjump/narraview/internal/models"
	"github.com/hyperjump/narraview/internal/render"
	"github.com/hyperjump/narraview/pkg/utils"
)

const (
	timeTicks   = 6
	labelRunes  = 24
	gutterWidth = 80
)

// Options configures the temporal layout.
type Options struct {
	Layout     layout.Config
	Labels     bool
	Force      ForceOptions
	NodeRadius float64
	FontSize   float64
}

// DefaultOptions returns the temporal defaults with labels enabled.
func DefaultOptions() Options {
	return Options{
		Layout:     layout.DefaultConfig(),
		Labels:     true,
		Force:      DefaultForceOptions(),
		NodeRadius: 5,
		FontSize:   11,
	}
}

// Marker is one event's point.
type Marker struct {
	Index int     `json:"index"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Dated bool    `json:"dated"`
}

// AxisTick is a labelled tick on either axis.
type AxisTick struct {
	Position float64 `json:"position"`
	Label    string  `json:"label"`
}

// Chart is the complete temporal layout.
type Chart struct {
	State      render.State      `json:"state"`
	Dimensions layout.Dimensions `json:"dimensions"`
	Markers    []Marker          `json:"markers"`
	PathOrder  []int             `json:"path_order"`
	Path       string            `json:"path"`
	Labels     []*Label          `json:"labels,omitempty"`
	Iterations int               `json:"iterations"`
	XTicks     []AxisTick        `json:"x_ticks"`
	YTicks     []AxisTick        `json:"y_ticks"`
	GutterX    float64           `json:"gutter_x,omitempty"`
	Domain     [2]time.Time      `json:"domain"`
}

// PathOrder returns the dated events sorted by narrative time, then real time, then input
// order. Undated events are left out.
func PathOrder(events []models.Event) []models.Event {
	var dated []models.Event
	for _, ev := range events {
		if ev.Temporal.HasRealTime() {
			dated = append(dated, ev)
		}
	}
	sort.SliceStable(dated, func(i, j int) bool {
		a, b := dated[i].Temporal, dated[j].Temporal
		if a.NarrativeTime != b.NarrativeTime {
			return a.NarrativeTime < b.NarrativeTime
		}
		return a.RealTime.Before(*b.RealTime)
	})
	return dated
}

// Layout computes the chart for events in a container of the given size. Height follows the
// shared row rule and grows to fill a taller container. The metadata publish date widens a time
// domain that collapses to a single instant.
func Layout(events []models.Event, vp render.Viewport, meta models.Metadata, opts Options) *Chart {
	dims := layout.Compute(vp.Width, len(events), opts.Layout)
	if vp.Height > dims.OuterHeight {
		dims = layout.Fixed(vp.Width, vp.Height, opts.Layout.Margin)
	}
	ch := &Chart{Dimensions: dims}
	if len(events) == 0 {
		ch.State = render.StateEmptyData
		return ch
	}
	lo, hi, ok := layout.TimeExtent(events)
	if !ok {
		ch.State = render.StateNoTemporalAnchors
		return ch
	}
	ch.State = render.StateReady
	pub, hasPub := meta.PublishTime()
	lo, hi = layout.TimeDomain(lo, hi, pub, hasPub)
	ch.Domain = [2]time.Time{lo, hi}

	m := dims.Margin
	left, right := m.Left, m.Left+dims.Width
	undated := len(events) - countDated(events)
	if undated > 0 {
		ch.GutterX = right - gutterWidth/2
		right -= gutterWidth
	}
	xs := layout.NewTimeScale(lo, hi, left, right)
	ys := layout.NarrativeScale(events, m.Top, m.Top+dims.Height)

	for _, t := range xs.Ticks(timeTicks) {
		ch.XTicks = append(ch.XTicks, AxisTick{Position: xs.Scale(t.Time), Label: t.Label})
	}
	for _, v := range ys.Ticks(layout.NarrativeTicks) {
		ch.YTicks = append(ch.YTicks, AxisTick{Position: ys.Scale(v), Label: formatNarrative(v)})
	}

	for _, ev := range events {
		mk := Marker{Index: ev.Index, Y: ys.Scale(ev.Temporal.NarrativeTime), Dated: ev.Temporal.HasRealTime()}
		if mk.Dated {
			mk.X = xs.Scale(*ev.Temporal.RealTime)
		} else {
			mk.X = ch.GutterX
		}
		ch.Markers = append(ch.Markers, mk)
	}

	ordered := PathOrder(events)
	pts := make([]Point, len(ordered))
	for i, ev := range ordered {
		ch.PathOrder = append(ch.PathOrder, ev.Index)
		pts[i] = Point{X: xs.Scale(*ev.Temporal.RealTime), Y: ys.Scale(ev.Temporal.NarrativeTime)}
	}
	ch.Path = MonotoneY(pts)

	if opts.Labels {
		byIndex := make(map[int]models.Event, len(events))
		for _, ev := range events {
			byIndex[ev.Index] = ev
		}
		for _, mk := range ch.Markers {
			text := utils.Truncate(byIndex[mk.Index].Label(), labelRunes)
			ch.Labels = append(ch.Labels, &Label{
				Index:   mk.Index,
				Text:    text,
				AnchorX: mk.X,
				AnchorY: mk.Y,
				Width:   utils.EstimateTextWidth(text, opts.FontSize),
				Height:  opts.FontSize + 2,
			})
		}
		bounds := Bounds{MinX: m.Left, MinY: m.Top, MaxX: m.Left + dims.Width, MaxY: m.Top + dims.Height}
		ch.Iterations = PlaceLabels(ch.Labels, bounds, opts.Force)
	}
	return ch
}

func countDated(events []models.Event) int {
	n := 0
	for _, ev := range events {
		if ev.Temporal.HasRealTime() {
			n++
		}
	}
	return n
}
