// Package models defines the canonical narrative timeline data model shared by every renderer.
package models

import (
	"encoding/json"
	"sort"
	"strings"
	"time"
)

// Polarity is the sentiment polarity of a topic.
type Polarity string

const (
	PolarityPositive Polarity = "positive"
	PolarityNegative Polarity = "negative"
	PolarityNeutral  Polarity = "neutral"
)

// Sentiment is the polarity and intensity attached to a topic.
type Sentiment struct {
	Polarity  Polarity `json:"polarity"`
	Intensity float64  `json:"intensity"`
}

// Topic is the two-level category tag of one event.
type Topic struct {
	MainTopic string    `json:"main_topic"`
	SubTopic  []string  `json:"sub_topic"`
	Sentiment Sentiment `json:"sentiment"`
}

// TemporalAnchoring places an event in story order and, optionally, on the wall clock.
type TemporalAnchoring struct {
	RealTime      *time.Time `json:"real_time,omitempty"`
	NarrativeTime float64    `json:"narrative_time"`
}

// HasRealTime reports whether the event can be pinned to wall-clock time.
func (t TemporalAnchoring) HasRealTime() bool {
	return t.RealTime != nil && !t.RealTime.IsZero()
}

// Entity is a narrative actor. Identity is ID, never Name.
// Attributes holds every classificatory key other than id and name.
type Entity struct {
	ID         string
	Name       string
	Attributes map[string]interface{}
}

// MarshalJSON flattens attributes next to id and name, matching the input shape.
func (e Entity) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(e.Attributes)+2)
	for k, v := range e.Attributes {
		out[k] = v
	}
	out["id"] = e.ID
	out["name"] = e.Name
	return json.Marshal(out)
}

// UnmarshalJSON reads id and name and keeps every other key as an attribute.
func (e *Entity) UnmarshalJSON(data []byte) error {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*e = Entity{Attributes: make(map[string]interface{})}
	for k, v := range raw {
		switch k {
		case "id":
			e.ID = scalarString(v)
		case "name":
			e.Name = scalarString(v)
		default:
			e.Attributes[k] = v
		}
	}
	return nil
}

// Attribute returns the display value of key and whether it is present and non-empty.
func (e Entity) Attribute(key string) (string, bool) {
	v, ok := e.Attributes[key]
	if !ok {
		return "", false
	}
	s := scalarString(v)
	if s == "" {
		return "", false
	}
	return s, true
}

// AttributeKeys returns the keys whose values are present and non-empty, sorted.
func (e Entity) AttributeKeys() []string {
	keys := make([]string, 0, len(e.Attributes))
	for k := range e.Attributes {
		if _, ok := e.Attribute(k); ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// Event is the atomic narrative unit.
type Event struct {
	Index     int               `json:"index"`
	Text      string            `json:"text"`
	ShortText string            `json:"short_text"`
	LeadTitle string            `json:"lead_title,omitempty"`
	Temporal  TemporalAnchoring `json:"temporal_anchoring"`
	Entities  []Entity          `json:"entities"`
	Topic     Topic             `json:"topic"`
}

// Label returns the short display text, falling back to the lead title and then the body.
func (e Event) Label() string {
	for _, s := range []string{e.ShortText, e.LeadTitle, e.Text} {
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return ""
}

// UniqueEntities returns the event's entities deduplicated by ID, first occurrence wins.
func (e Event) UniqueEntities() []Entity {
	if len(e.Entities) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(e.Entities))
	out := make([]Entity, 0, len(e.Entities))
	for _, ent := range e.Entities {
		if _, dup := seen[ent.ID]; dup {
			continue
		}
		seen[ent.ID] = struct{}{}
		out = append(out, ent)
	}
	return out
}

// Metadata holds dataset-level descriptive fields used by the host page.
type Metadata struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Topic       string `json:"topic,omitempty"`
	Author      string `json:"author,omitempty"`
	PublishDate string `json:"publishDate,omitempty"`
	ImageURL    string `json:"imageUrl,omitempty"`
}

// PublishTime parses PublishDate with the accepted timestamp layouts.
func (m Metadata) PublishTime() (time.Time, bool) {
	return ParseTimestamp(m.PublishDate)
}

// Dataset is an immutable snapshot handed to the renderers.
type Dataset struct {
	ID       string    `json:"id"`
	Path     string    `json:"path,omitempty"`
	Metadata Metadata  `json:"metadata"`
	Events   []Event   `json:"events"`
	LoadedAt time.Time `json:"loaded_at"`
}

// DatasetSummary is a catalog listing row.
type DatasetSummary struct {
	ID         string    `json:"id"`
	Path       string    `json:"path,omitempty"`
	Metadata   Metadata  `json:"metadata"`
	EventCount int       `json:"event_count"`
	UpdatedAt  time.Time `json:"updated_at"`
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006-01",
	"2006",
	"01/02/2006 15:04:05",
	"01/02/2006",
}

// ParseTimestamp parses s with the accepted layouts. Empty or unparseable input reports false.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
