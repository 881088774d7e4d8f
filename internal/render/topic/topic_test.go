package topic

import (
	"bytes"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/narraview/internal/models"
	"github.com/hyperjump/narraview/internal/render"
)

var viewport = render.Viewport{Width: 900, Height: 600}

func event(index int, narrative float64, realTime, main string, subs ...string) models.Event {
	if subs == nil {
		subs = []string{}
	}
	ev := models.Event{
		Index:     index,
		ShortText: "event",
		Temporal:  models.TemporalAnchoring{NarrativeTime: narrative},
		Topic:     models.Topic{MainTopic: main, SubTopic: subs, Sentiment: models.Sentiment{Polarity: models.PolarityNeutral}},
	}
	if t, ok := models.ParseTimestamp(realTime); ok {
		ev.Temporal.RealTime = &t
	}
	return ev
}

func edgesOfKind(g Graph, kind EdgeKind) []Edge {
	var out []Edge
	for _, e := range g.Edges {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

func TestCrossTopicEdgeRequiresDifferentTopicsAndSharedSubTopics(t *testing.T) {
	g := Build([]models.Event{
		event(1, 1, "2024-01-01", "Politics", "x", "y"),
		event(2, 2, "2024-01-02", "Economy", "y", "z"),
	})
	cross := edgesOfKind(g, CrossTopic)
	require.Len(t, cross, 1)
	assert.Equal(t, []string{"y"}, cross[0].Shared)
	assert.Equal(t, g.Nodes[0].Key, cross[0].Source)
	assert.Equal(t, g.Nodes[1].Key, cross[0].Target)

	same := Build([]models.Event{
		event(1, 1, "2024-01-01", "Politics", "x", "y"),
		event(2, 2, "2024-01-02", "Politics", "y", "z"),
	})
	assert.Empty(t, edgesOfKind(same, CrossTopic))
	assert.Len(t, edgesOfKind(same, SameTopic), 1)
}

func TestEmptySubTopicNeverLinks(t *testing.T) {
	g := Build([]models.Event{
		event(1, 1, "2024-01-01", "Politics"),
		event(2, 2, "2024-01-02", "Economy", "y"),
		event(3, 3, "2024-01-03", "Sports"),
	})
	assert.Empty(t, edgesOfKind(g, CrossTopic))
	assert.Nil(t, SharedSubTopics(nil, []string{"a"}))
}

func TestCrossTopicOnlyBetweenAdjacentEvents(t *testing.T) {
	g := Build([]models.Event{
		event(1, 1, "2024-01-01", "Politics", "x"),
		event(2, 2, "2024-01-02", "Sports", "q"),
		event(3, 3, "2024-01-03", "Economy", "x"),
	})
	assert.Empty(t, edgesOfKind(g, CrossTopic))
}

func TestSameTopicChain(t *testing.T) {
	g := Build([]models.Event{
		event(1, 1, "2024-01-01", "A"),
		event(2, 2, "2024-01-02", "B"),
		event(3, 3, "2024-01-03", "A"),
		event(4, 4, "2024-01-04", "A"),
	})
	same := edgesOfKind(g, SameTopic)
	require.Len(t, same, 2)
	key := map[int]string{}
	for _, n := range g.Nodes {
		key[n.Index] = n.Key
	}
	assert.Equal(t, Edge{Kind: SameTopic, Source: key[1], Target: key[3]}, same[0])
	assert.Equal(t, Edge{Kind: SameTopic, Source: key[3], Target: key[4]}, same[1])
}

func TestNodeKeysAreUnique(t *testing.T) {
	g := Build([]models.Event{
		event(1, 1, "2024-01-01", "A"),
		event(2, 2, "2024-01-01", "A"),
		event(3, 3, "", "A"),
		event(4, 4, "", "A"),
	})
	seen := map[string]bool{}
	for _, n := range g.Nodes {
		assert.False(t, seen[n.Key], "duplicate key %s", n.Key)
		seen[n.Key] = true
	}
	assert.Equal(t, "A-2024-01-01T00:00:00Z-0", g.Nodes[0].Key)
	assert.Equal(t, "A-2024-01-01T00:00:00Z-1", g.Nodes[1].Key)
}

func TestChronologicalInheritsPrecedingTime(t *testing.T) {
	nodes := Chronological([]models.Event{
		event(1, 1, "2024-01-05", "A"),
		event(2, 2, "", "A"),
		event(3, 3, "2024-01-02", "B"),
		event(4, 0, "", "B"),
	})
	order := []int{}
	for _, n := range nodes {
		order = append(order, n.Index)
		assert.True(t, n.HasWhen)
	}
	// 3 is earliest; 4 precedes every dated event and takes the first dated time.
	assert.Equal(t, []int{3, 4, 1, 2}, order)
}

func TestGraphLayout(t *testing.T) {
	events := []models.Event{
		event(1, 1, "2024-01-01", "A"),
		event(2, 2, "2024-01-02", "B"),
		event(3, 3, "2024-01-03", "A"),
	}
	d := Layout(events, viewport, models.Metadata{}, DefaultOptions())
	require.Equal(t, render.StateReady, d.State)
	require.Len(t, d.Lanes, 2)
	assert.Equal(t, "A", d.Lanes[0].Topic, "lanes ordered by frequency")
	y := map[int]float64{}
	x := map[int]float64{}
	for _, n := range d.Nodes {
		y[n.Index], x[n.Index] = n.Y, n.X
	}
	assert.Less(t, y[1], y[2])
	assert.Less(t, y[2], y[3])
	assert.Equal(t, x[1], x[3])
	assert.NotEqual(t, x[1], x[2])
}

func TestScatterClustersAndExpands(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mk := func(index int, at time.Time, main string) models.Event {
		ev := event(index, float64(index), "", main)
		ev.Temporal.RealTime = &at
		return ev
	}
	events := []models.Event{
		mk(1, base, "A"),
		mk(2, base.Add(time.Minute), "A"),
		mk(3, base.Add(30*24*time.Hour), "A"),
		mk(4, base.Add(time.Minute), "B"),
	}
	opts := DefaultOptions()
	opts.Kind = KindScatter
	d := Layout(events, viewport, models.Metadata{}, opts)
	require.Equal(t, render.StateReady, d.State)
	require.Len(t, d.Groups, 1)
	g := d.Groups[0]
	assert.Equal(t, "A#1", g.Key)
	assert.Equal(t, []int{1, 2}, g.Members)
	assert.False(t, g.Expanded)

	opts.Expanded = map[string]bool{"A#1": true}
	d = Layout(events, viewport, models.Metadata{}, opts)
	require.Len(t, d.Groups, 1)
	g = d.Groups[0]
	assert.True(t, g.Expanded)
	for _, n := range d.Nodes {
		if n.Group != "A#1" {
			continue
		}
		dist := math.Hypot(n.X-g.X, n.Y-g.Y)
		assert.InDelta(t, 2*opts.NodeRadius, dist, 1e-9)
	}
}

func TestScatterLeavesUndatedEventsOut(t *testing.T) {
	events := []models.Event{
		event(1, 1, "2024-01-01", "A"),
		event(2, 2, "", "A"),
		event(3, 3, "2024-06-01", "B"),
	}
	opts := DefaultOptions()
	opts.Kind = KindScatter
	d := Layout(events, viewport, models.Metadata{}, opts)
	require.Equal(t, render.StateReady, d.State)

	var placed []int
	for _, n := range d.Nodes {
		placed = append(placed, n.Index)
		assert.Empty(t, n.Group, "index %d", n.Index)
	}
	assert.ElementsMatch(t, []int{1, 3}, placed)
	assert.Empty(t, d.Groups)

	g := Build(events)
	assert.NotEmpty(t, edgesOfKind(g, SameTopic), "undated events still order the topic chain")
}

func TestScatterGroupSpanStaysWithinThreshold(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var nodes []Node
	for i := 0; i < 5; i++ {
		at := base.Add(time.Duration(i) * time.Hour)
		ev := event(i+1, float64(i+1), "", "A")
		ev.Temporal.RealTime = &at
		nodes = append(nodes, Node{Key: ev.ShortText, Index: ev.Index, Event: ev})
	}
	groups := clusterNodes(nodes, 90*time.Minute)
	require.Len(t, groups, 3)
	assert.Equal(t, "A#1", groups[0].key)
	for _, grp := range groups {
		first := *grp.nodes[0].Event.Temporal.RealTime
		last := *grp.nodes[len(grp.nodes)-1].Event.Temporal.RealTime
		assert.LessOrEqual(t, last.Sub(first), 90*time.Minute, grp.key)
	}
}

func TestExpandedPositionStartsAtTop(t *testing.T) {
	x, y := ExpandedPosition(100, 100, 5, 0, 4)
	assert.InDelta(t, 100, x, 1e-9)
	assert.InDelta(t, 90, y, 1e-9)
	x, y = ExpandedPosition(100, 100, 5, 1, 4)
	assert.InDelta(t, 110, x, 1e-9)
	assert.InDelta(t, 100, y, 1e-9)
}

func TestScatterWithoutTimes(t *testing.T) {
	opts := DefaultOptions()
	opts.Kind = KindScatter
	d := Layout([]models.Event{event(1, 1, "", "A")}, viewport, models.Metadata{}, opts)
	assert.Equal(t, render.StateNoTemporalAnchors, d.State)

	graph := Layout([]models.Event{event(1, 1, "", "A")}, viewport, models.Metadata{}, DefaultOptions())
	assert.Equal(t, render.StateReady, graph.State)
}

func TestRenderHoveredLastAndSelectedBorder(t *testing.T) {
	events := []models.Event{
		event(1, 1, "2024-01-01", "A", "x"),
		event(2, 2, "2024-01-02", "B", "x"),
		event(3, 3, "2024-01-03", "A"),
	}
	events[1].Topic.Sentiment.Polarity = models.PolarityPositive
	hovered, selected := 1, 3
	var buf bytes.Buffer
	state, err := New(DefaultOptions(), models.Metadata{}).Render(&buf, events, viewport,
		render.Highlight{Hovered: &hovered, Selected: &selected})
	require.NoError(t, err)
	require.Equal(t, render.StateReady, state)
	out := buf.String()

	nodes := out[strings.Index(out, `<g class="nodes">`):]
	last := strings.LastIndex(nodes, "<circle")
	assert.Contains(t, nodes[last:], `data-event="1"`)
	assert.Contains(t, out, `stroke="#ff6b00" stroke-width="3" data-event="3"`)
	assert.Contains(t, out, `fill="#a8e6a3"`)
	assert.Contains(t, out, `data-kind="cross_topic"`)
}

func TestRenderEmpty(t *testing.T) {
	var buf bytes.Buffer
	state, err := New(DefaultOptions(), models.Metadata{}).Render(&buf, nil, viewport, render.Highlight{})
	require.NoError(t, err)
	assert.Equal(t, render.StateEmptyData, state)
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("")
	require.NoError(t, err)
	assert.Equal(t, KindGraph, k)
	_, err = ParseKind("sankey")
	assert.Error(t, err)
}
