package entity

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/narraview/internal/models"
	"github.com/hyperjump/narraview/internal/normalize"
	"github.com/hyperjump/narraview/internal/render"
)

func ent(id, name string, attrs map[string]interface{}) models.Entity {
	if attrs == nil {
		attrs = map[string]interface{}{}
	}
	return models.Entity{ID: id, Name: name, Attributes: attrs}
}

func ev(index int, narrative float64, ents ...models.Entity) models.Event {
	return models.Event{
		Index:     index,
		ShortText: "event",
		Temporal:  models.TemporalAnchoring{NarrativeTime: narrative},
		Entities:  ents,
		Topic:     models.Topic{MainTopic: "A", SubTopic: []string{}},
	}
}

func TestLayoutSameNameDistinctIDs(t *testing.T) {
	events := []models.Event{
		ev(1, 1, ent("e1", "Bob", nil)),
		ev(2, 2, ent("e2", "Bob", nil)),
	}
	d := Layout(events, 800, DefaultOptions())
	require.Equal(t, render.StateReady, d.State)
	require.Len(t, d.Columns, 2)
	assert.Equal(t, "e1", d.Columns[0].Key)
	assert.Equal(t, "e2", d.Columns[1].Key)
	assert.Equal(t, 1, d.Columns[0].Frequency)
	assert.Equal(t, 1, d.Columns[1].Frequency)
	assert.NotEqual(t, d.Columns[0].X, d.Columns[1].X)
	assert.Equal(t, "Bob", d.Columns[0].Label)
}

func TestLayoutRenameKeepsPosition(t *testing.T) {
	before := []models.Event{ev(1, 1, ent("e1", "Bob", nil), ent("e2", "Ann", nil))}
	after := []models.Event{ev(1, 1, ent("e1", "Robert", nil), ent("e2", "Ann", nil))}
	a := Layout(before, 800, DefaultOptions())
	b := Layout(after, 800, DefaultOptions())
	require.Len(t, a.Columns, 2)
	require.Len(t, b.Columns, 2)
	assert.Equal(t, a.Columns[0].Key, b.Columns[0].Key)
	assert.Equal(t, a.Columns[0].X, b.Columns[0].X)
}

func TestLayoutRelevance(t *testing.T) {
	opts := DefaultOptions()
	opts.Attribute = "role"
	opts.ExcludeUnknown = true
	events := []models.Event{
		ev(1, 1),
		ev(2, 2, ent("e1", "Bob", nil)),
		ev(3, 3, ent("e2", "Ann", map[string]interface{}{"role": "mayor"}), ent("e3", "Cy", map[string]interface{}{"role": "union"})),
	}
	d := Layout(events, 800, opts)
	require.Len(t, d.Rows, 3)
	assert.Equal(t, NoEntities, d.Rows[0].Relevance)
	assert.Equal(t, NoMatches, d.Rows[1].Relevance)
	assert.Equal(t, Matched, d.Rows[2].Relevance)
	require.NotNil(t, d.Rows[2].Connector)
	assert.Less(t, d.Rows[2].Connector.X1, d.Rows[2].Connector.X2)
	assert.Nil(t, d.Rows[1].Connector)
}

func TestLayoutUnknownBucket(t *testing.T) {
	opts := DefaultOptions()
	opts.Attribute = "role"
	events := []models.Event{
		ev(1, 1, ent("e1", "Bob", nil), ent("e2", "Ann", map[string]interface{}{"role": "mayor"})),
	}
	d := Layout(events, 800, opts)
	keys := []string{}
	for _, c := range d.Columns {
		keys = append(keys, c.Key)
	}
	assert.ElementsMatch(t, []string{"mayor", normalize.Unknown}, keys)
	assert.Equal(t, Matched, d.Rows[0].Relevance)
	assert.Len(t, d.Rows[0].Nodes, 2)
}

func TestLayoutTruncatesColumns(t *testing.T) {
	var ents []models.Entity
	for _, id := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		ents = append(ents, ent(id, id, nil))
	}
	events := []models.Event{ev(1, 1, ents...), ev(2, 2, ents[0]), ev(3, 3, ents[1])}
	opts := DefaultOptions()
	// 300px plot width fits five columns after the floor rule.
	width := 300 + opts.Layout.Margin.Left + opts.Layout.Margin.Right
	d := Layout(events, width, opts)
	require.Len(t, d.Columns, 5)
	assert.Equal(t, "a", d.Columns[0].Key)
	assert.Equal(t, "b", d.Columns[1].Key)
	for _, n := range d.Rows[0].Nodes {
		assert.Contains(t, []string{"a", "b", "c", "d", "e"}, n.Column)
	}
}

func TestEntityColorsMatchColumns(t *testing.T) {
	var ents []models.Entity
	for _, id := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		ents = append(ents, ent(id, id, nil))
	}
	events := []models.Event{ev(1, 1, ents...), ev(2, 2, ents[0]), ev(3, 3, ents[1])}
	opts := DefaultOptions()
	width := 300 + opts.Layout.Margin.Left + opts.Layout.Margin.Right
	d := Layout(events, width, opts)
	require.Len(t, d.Columns, 5)

	colors := d.EntityColors(events[0])
	require.Len(t, colors, 8)
	for _, c := range d.Columns {
		assert.Equal(t, c.Color, colors[c.Key], c.Key)
	}
	assert.NotEmpty(t, colors["h"], "cut entities still get a color")

	roleOpts := DefaultOptions()
	roleOpts.Attribute = "role"
	withRoles := []models.Event{ev(1, 1, ent("e1", "Bob", nil), ent("e2", "Ann", map[string]interface{}{"role": "mayor"}))}
	rd := Layout(withRoles, 800, roleOpts)
	rc := rd.EntityColors(withRoles[0])
	for _, c := range rd.Columns {
		switch c.Key {
		case "mayor":
			assert.Equal(t, c.Color, rc["e2"])
		case normalize.Unknown:
			assert.Equal(t, c.Color, rc["e1"])
		}
	}
}

func TestLayoutNarrativeOrder(t *testing.T) {
	events := []models.Event{ev(1, 3), ev(2, 1), ev(3, 2.5)}
	d := Layout(events, 800, DefaultOptions())
	y := map[int]float64{}
	for _, r := range d.Rows {
		y[r.Index] = r.Y
	}
	assert.Less(t, y[2], y[3])
	assert.Less(t, y[3], y[1])
}

func TestRenderEmptyStateDistinction(t *testing.T) {
	r := New(DefaultOptions())
	vp := render.Viewport{Width: 800, Height: 600}

	var empty bytes.Buffer
	state, err := r.Render(&empty, nil, vp, render.Highlight{})
	require.NoError(t, err)
	assert.Equal(t, render.StateEmptyData, state)

	var noEntities bytes.Buffer
	state, err = r.Render(&noEntities, []models.Event{ev(1, 1), ev(2, 2)}, vp, render.Highlight{})
	require.NoError(t, err)
	assert.Equal(t, render.StateReady, state)
	assert.Equal(t, 2, strings.Count(noEntities.String(), `data-relevance="no_entities"`))
	assert.NotContains(t, noEntities.String(), "stroke-linecap")
}

func TestRenderConnectorLayering(t *testing.T) {
	r := New(DefaultOptions())
	events := []models.Event{ev(1, 1, ent("e1", "Bob", nil), ent("e2", "Ann", nil))}
	sel := 1
	var buf bytes.Buffer
	_, err := r.Render(&buf, events, render.Viewport{Width: 800}, render.Highlight{Selected: &sel, HoveredColumn: "e2"})
	require.NoError(t, err)
	out := buf.String()

	start := strings.Index(out, `<g class="events">`)
	require.GreaterOrEqual(t, start, 0)
	marks := out[start:]
	outer := strings.Index(marks, `stroke="#555555" stroke-width="6"`)
	node := strings.Index(marks, "<circle")
	inner := strings.Index(marks, `stroke="#f5f5f5"`)
	require.True(t, outer >= 0 && node >= 0 && inner >= 0, marks)
	assert.Less(t, outer, node)
	assert.Less(t, node, inner)
	assert.Contains(t, marks, `stroke="#ff6b00"`)
	assert.Contains(t, out, `stroke-width="3" stroke-opacity="1" data-column="e2"`)
}
