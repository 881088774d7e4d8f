// Package selection holds the interaction state shared by every renderer on a page: at most
// one visible tooltip, and a longer-lived selected event that toggles off when reselected.
package selection

import (
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/hyperjump/narraview/internal/models"
	"github.com/hyperjump/narraview/internal/render"
)

// Tooltip is the hover state.
type Tooltip struct {
	Event   *models.Event
	X       float64
	Y       float64
	Visible bool
	Source  render.Mode
	// Colors maps entity ids to the colors their columns use.
	Colors map[string]string
}

// Coordinator owns hover and selection state. Renderers and host collaborators mutate it
// only through its methods.
type Coordinator struct {
	mu        sync.Mutex
	tooltip   Tooltip
	column    string
	selected  *int
	listeners map[int]func(*int)
	nextID    int
	logger    *zap.Logger
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) Option {
	return func(c *Coordinator) { c.logger = l }
}

// NewCoordinator returns a coordinator with nothing hovered or selected.
func NewCoordinator(opts ...Option) *Coordinator {
	c := &Coordinator{listeners: make(map[int]func(*int)), logger: zap.NewNop()}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Show makes ev the single visible tooltip, replacing whatever another renderer showed.
func (c *Coordinator) Show(ev models.Event, x, y float64, src render.Mode) {
	c.ShowColored(ev, x, y, src, nil)
}

// ShowColored is Show with entity chip colors taken from colors, keyed by entity id.
func (c *Coordinator) ShowColored(ev models.Event, x, y float64, src render.Mode, colors map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tooltip = Tooltip{Event: &ev, X: x, Y: y, Visible: true, Source: src, Colors: colors}
}

// Hide clears the hover state, including a hovered column.
func (c *Coordinator) Hide() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tooltip = Tooltip{}
	c.column = ""
}

// HoverColumn marks the entity column under the pointer. An empty key clears it.
func (c *Coordinator) HoverColumn(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.column = key
}

// LeaveColumn clears the hovered column.
func (c *Coordinator) LeaveColumn() {
	c.HoverColumn("")
}

// HoveredColumn returns the hovered column key, if any.
func (c *Coordinator) HoveredColumn() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.column, c.column != ""
}

// UpdatePosition moves a visible tooltip. It is a no-op when nothing is shown.
func (c *Coordinator) UpdatePosition(x, y float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.tooltip.Visible {
		return
	}
	c.tooltip.X, c.tooltip.Y = x, y
}

// Tooltip returns a copy of the hover state.
func (c *Coordinator) Tooltip() Tooltip {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.tooltip
	if t.Event != nil {
		ev := *t.Event
		t.Event = &ev
	}
	if t.Colors != nil {
		colors := make(map[string]string, len(t.Colors))
		for k, v := range t.Colors {
			colors[k] = v
		}
		t.Colors = colors
	}
	return t
}

// Hovered returns the hovered event index, if any.
func (c *Coordinator) Hovered() (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.tooltip.Visible || c.tooltip.Event == nil {
		return 0, false
	}
	return c.tooltip.Event.Index, true
}

// Select selects index, or clears the selection when index is already selected.
// It returns the new selection and notifies subscribers.
func (c *Coordinator) Select(index int) *int {
	c.mu.Lock()
	var next *int
	if c.selected == nil || *c.selected != index {
		v := index
		next = &v
	}
	c.selected = next
	fns := c.listenersLocked()
	c.mu.Unlock()

	c.logger.Debug("selection changed", zap.Any("selected", next))
	notify(fns, next)
	return copyIndex(next)
}

// Deselect clears the selection. Subscribers are notified only when something was selected.
func (c *Coordinator) Deselect() {
	c.mu.Lock()
	if c.selected == nil {
		c.mu.Unlock()
		return
	}
	c.selected = nil
	fns := c.listenersLocked()
	c.mu.Unlock()
	notify(fns, nil)
}

// Selected returns the selected event index, if any.
func (c *Coordinator) Selected() (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.selected == nil {
		return 0, false
	}
	return *c.selected, true
}

// Highlight returns the render highlight for the current state.
func (c *Coordinator) Highlight() render.Highlight {
	var hl render.Highlight
	if i, ok := c.Selected(); ok {
		hl.Selected = &i
	}
	if i, ok := c.Hovered(); ok {
		hl.Hovered = &i
	}
	hl.HoveredColumn, _ = c.HoveredColumn()
	return hl
}

// OnEventSelect subscribes fn to selection changes; fn receives nil on deselection.
// The returned function unsubscribes.
func (c *Coordinator) OnEventSelect(fn func(index *int)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.listeners, id)
	}
}

// Mount registers a renderer of the given mode and returns its cleanup hook, which hides a
// tooltip that renderer left visible.
func (c *Coordinator) Mount(src render.Mode) func() {
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.tooltip.Visible && c.tooltip.Source == src {
			c.tooltip = Tooltip{}
		}
	}
}

func (c *Coordinator) listenersLocked() []func(*int) {
	ids := make([]int, 0, len(c.listeners))
	for id := range c.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(*int), len(ids))
	for i, id := range ids {
		fns[i] = c.listeners[id]
	}
	return fns
}

func notify(fns []func(*int), index *int) {
	for _, fn := range fns {
		fn(copyIndex(index))
	}
}

func copyIndex(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
