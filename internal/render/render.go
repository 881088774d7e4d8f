// Package render holds the contract shared by the entity, temporal and topic renderers.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/narraview/internal/models"
	"github.com/hyperjump/narraview/internal/palette"
	"github.com/hyperjump/narraview/internal/render/svg"
)

// Mode names one of the three encodings.
type Mode string

const (
	ModeEntity Mode = "entity"
	ModeTime   Mode = "time"
	ModeTopic  Mode = "topic"
)

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeEntity, ModeTime, ModeTopic:
		return m, nil
	}
	return "", fmt.Errorf("unknown mode %q (want entity, time or topic)", s)
}

// State classifies a layout result. Only StateReady produces a diagram.
type State string

const (
	StateReady             State = "ready"
	StateEmptyData         State = "empty"
	StateNoTemporalAnchors State = "no_temporal_anchors"
)

// Message is the placeholder text for non-ready states.
func (s State) Message() string {
	switch s {
	case StateEmptyData:
		return "No events to display"
	case StateNoTemporalAnchors:
		return "No events carry a real-world time"
	}
	return ""
}

// Viewport is the measured container size.
type Viewport struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Highlight is the interaction state a renderer reflects in its marks.
type Highlight struct {
	Selected      *int   `json:"selected,omitempty"`
	Hovered       *int   `json:"hovered,omitempty"`
	HoveredColumn string `json:"hovered_column,omitempty"`
}

// IsSelected reports whether index is the selected event.
func (h Highlight) IsSelected(index int) bool {
	return h.Selected != nil && *h.Selected == index
}

// IsHovered reports whether index is the hovered event.
func (h Highlight) IsHovered(index int) bool {
	return h.Hovered != nil && *h.Hovered == index
}

// Renderer draws one encoding of an event collection.
type Renderer interface {
	Mode() Mode
	Render(w io.Writer, events []models.Event, vp Viewport, hl Highlight) (State, error)
}

// Placeholder writes a document containing only the state's message.
func Placeholder(w io.Writer, vp Viewport, state State) error {
	width, height := vp.Width, vp.Height
	if width <= 0 {
		width = 400
	}
	if height <= 0 {
		height = 200
	}
	c := svg.New(width, height, svg.A("class", "narraview placeholder"), svg.A("data-state", string(state)))
	c.Text(width/2, height/2, state.Message(),
		svg.A("text-anchor", "middle"), svg.A("font-family", "sans-serif"),
		svg.A("font-size", 14), svg.A("fill", palette.MutedText))
	_, err := c.WriteTo(w)
	return err
}

// EventTitle is the native tooltip text shared by every renderer's marks.
func EventTitle(ev models.Event) string {
	var b strings.Builder
	b.WriteString(ev.Label())
	if ev.Temporal.HasRealTime() {
		b.WriteString("\n" + ev.Temporal.RealTime.Format("2006-01-02"))
	}
	fmt.Fprintf(&b, "\nnarrative %g | %s", ev.Temporal.NarrativeTime, ev.Topic.MainTopic)
	return b.String()
}
