package selection

import (
	"fmt"
	"strings"

	"github.com/hyperjump/narraview/internal/models"
	"github.com/hyperjump/narraview/internal/palette"
	"github.com/hyperjump/narraview/internal/render"
)

// tooltipOffset keeps the tooltip from sitting under the pointer.
const tooltipOffset = 12

// Field is one labelled line of tooltip content.
type Field struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Chip is a colored entity tag.
type Chip struct {
	Label string `json:"label"`
	Color string `json:"color"`
}

// View is the formatted tooltip for the host page. It is positioned relative to the
// viewport, not to any renderer's container.
type View struct {
	Visible    bool        `json:"visible"`
	Source     render.Mode `json:"source,omitempty"`
	EventIndex int         `json:"event_index"`
	Left       float64     `json:"left"`
	Top        float64     `json:"top"`
	Title      string      `json:"title,omitempty"`
	Body       string      `json:"body,omitempty"`
	Fields     []Field     `json:"fields,omitempty"`
	Chips      []Chip      `json:"chips,omitempty"`
}

// TooltipView formats the visible tooltip according to the renderer that showed it.
func (c *Coordinator) TooltipView() View {
	return Format(c.Tooltip())
}

// Format renders tooltip state into display content.
func Format(t Tooltip) View {
	if !t.Visible || t.Event == nil {
		return View{}
	}
	ev := *t.Event
	v := View{
		Visible:    true,
		Source:     t.Source,
		EventIndex: ev.Index,
		Left:       t.X + tooltipOffset,
		Top:        t.Y + tooltipOffset,
		Title:      ev.Label(),
	}
	switch t.Source {
	case render.ModeEntity:
		v.Body = ev.Text
		v.Fields = []Field{
			{Label: "Anchor", Value: anchorLabel(ev)},
			{Label: "Topic", Value: ev.Topic.MainTopic},
		}
		for _, ent := range ev.UniqueEntities() {
			color, ok := t.Colors[ent.ID]
			if !ok {
				color = palette.ForKey(ent.ID)
			}
			v.Chips = append(v.Chips, Chip{Label: ent.Name, Color: color})
		}
	case render.ModeTime:
		v.Body = ev.Text
		date := "undated"
		kind := "narrative only"
		if ev.Temporal.HasRealTime() {
			date = ev.Temporal.RealTime.Format("2006-01-02 15:04")
			kind = "real and narrative"
		}
		v.Fields = []Field{
			{Label: "Date", Value: date},
			{Label: "Narrative time", Value: fmt.Sprintf("%g", ev.Temporal.NarrativeTime)},
			{Label: "Temporal type", Value: kind},
		}
	case render.ModeTopic:
		stamp := "undated"
		if ev.Temporal.HasRealTime() {
			stamp = ev.Temporal.RealTime.Format("2006-01-02 15:04")
		}
		subs := "none"
		if len(ev.Topic.SubTopic) > 0 {
			subs = strings.Join(ev.Topic.SubTopic, ", ")
		}
		v.Fields = []Field{
			{Label: "Topic", Value: ev.Topic.MainTopic},
			{Label: "Sub-topics", Value: subs},
			{Label: "Time", Value: stamp},
			{Label: "Sentiment", Value: fmt.Sprintf("%s (%.2f)", ev.Topic.Sentiment.Polarity, ev.Topic.Sentiment.Intensity)},
		}
	default:
		v.Body = ev.Text
	}
	return v
}

func anchorLabel(ev models.Event) string {
	if ev.Temporal.HasRealTime() {
		return fmt.Sprintf("%s (narrative %g)", ev.Temporal.RealTime.Format("2006-01-02"), ev.Temporal.NarrativeTime)
	}
	return fmt.Sprintf("narrative %g", ev.Temporal.NarrativeTime)
}
