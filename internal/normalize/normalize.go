// Package normalize validates raw dataset JSON and shapes it into the canonical event model.
package normalize

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/hyperjump/narraview/internal/models"
	"github.com/hyperjump/narraview/pkg/utils"
)

// shortTextRunes bounds the derived short text when a record has none.
const shortTextRunes = 80

// RawEvent is an event-like record as found on disk. Every field is optional at this level;
// Events decides which absences are fatal.
type RawEvent struct {
	Index     *json.Number    `json:"index"`
	Text      string          `json:"text"`
	ShortText string          `json:"short_text"`
	LeadTitle string          `json:"lead_title"`
	Temporal  *RawTemporal    `json:"temporal_anchoring"`
	Entities  []models.Entity `json:"entities"`
	Topic     *RawTopic       `json:"topic"`
}

// RawTemporal is the unvalidated temporal anchoring block.
type RawTemporal struct {
	RealTime      *string      `json:"real_time"`
	NarrativeTime *json.Number `json:"narrative_time"`
}

// RawTopic is the unvalidated topic block.
type RawTopic struct {
	MainTopic *string       `json:"main_topic"`
	SubTopic  []string      `json:"sub_topic"`
	Sentiment *RawSentiment `json:"sentiment"`
}

// RawSentiment is the unvalidated sentiment block.
type RawSentiment struct {
	Polarity  string   `json:"polarity"`
	Intensity *float64 `json:"intensity"`
}

type rawDataset struct {
	Metadata models.Metadata `json:"metadata"`
	Events   []RawEvent      `json:"events"`
}

// Decode reads a `{metadata, events}` document and returns a validated dataset.
// The returned dataset has no ID or path; the caller assigns them.
func Decode(r io.Reader) (*models.Dataset, error) {
	var raw rawDataset
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDataset, err)
	}
	events, err := Events(raw.Events)
	if err != nil {
		return nil, err
	}
	return &models.Dataset{Metadata: raw.Metadata, Events: events}, nil
}

// Events validates records and converts them to canonical events, preserving input order.
// A record missing index, narrative_time or topic.main_topic, or repeating another record's
// index, yields a *ValidationError. Optional fields are never required.
func Events(records []RawEvent) ([]models.Event, error) {
	out := make([]models.Event, 0, len(records))
	seen := make(map[int]int, len(records))
	for pos, rec := range records {
		ev, err := normalizeEvent(pos, rec)
		if err != nil {
			return nil, err
		}
		if first, dup := seen[ev.Index]; dup {
			idx := ev.Index
			return nil, &ValidationError{Position: pos, Index: &idx, Field: "index",
				Reason: fmt.Sprintf("duplicate of position %d", first)}
		}
		seen[ev.Index] = pos
		out = append(out, ev)
	}
	return out, nil
}

func normalizeEvent(pos int, rec RawEvent) (models.Event, error) {
	if rec.Index == nil {
		return models.Event{}, &ValidationError{Position: pos, Field: "index", Reason: "missing"}
	}
	index, err := integer(*rec.Index)
	if err != nil {
		return models.Event{}, &ValidationError{Position: pos, Field: "index", Reason: err.Error()}
	}
	if rec.Temporal == nil || rec.Temporal.NarrativeTime == nil {
		return models.Event{}, &ValidationError{Position: pos, Index: &index, Field: "temporal_anchoring.narrative_time", Reason: "missing"}
	}
	narrative, err := rec.Temporal.NarrativeTime.Float64()
	if err != nil || math.IsNaN(narrative) || math.IsInf(narrative, 0) {
		return models.Event{}, &ValidationError{Position: pos, Index: &index, Field: "temporal_anchoring.narrative_time", Reason: "not a finite number"}
	}
	if rec.Topic == nil || rec.Topic.MainTopic == nil || strings.TrimSpace(*rec.Topic.MainTopic) == "" {
		return models.Event{}, &ValidationError{Position: pos, Index: &index, Field: "topic.main_topic", Reason: "missing"}
	}

	ev := models.Event{
		Index:     index,
		Text:      rec.Text,
		ShortText: strings.TrimSpace(rec.ShortText),
		LeadTitle: strings.TrimSpace(rec.LeadTitle),
		Temporal:  models.TemporalAnchoring{NarrativeTime: narrative},
		Entities:  normalizeEntities(rec.Entities),
		Topic: models.Topic{
			MainTopic: strings.TrimSpace(*rec.Topic.MainTopic),
			SubTopic:  cleanSubTopics(rec.Topic.SubTopic),
			Sentiment: normalizeSentiment(rec.Topic.Sentiment),
		},
	}
	if ev.ShortText == "" {
		ev.ShortText = utils.Truncate(strings.TrimSpace(rec.Text), shortTextRunes)
	}
	// An unparseable real_time is treated like an absent one.
	if rec.Temporal.RealTime != nil {
		if t, ok := models.ParseTimestamp(*rec.Temporal.RealTime); ok {
			ev.Temporal.RealTime = &t
		}
	}
	return ev, nil
}

func integer(n json.Number) (int, error) {
	if i, err := n.Int64(); err == nil {
		return int(i), nil
	}
	f, err := n.Float64()
	if err != nil {
		return 0, fmt.Errorf("not a number")
	}
	if f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("not an integer")
	}
	return int(f), nil
}

// normalizeEntities keeps entities with a usable identity. An entity without id falls back
// to a name-derived id; one with neither is dropped.
func normalizeEntities(in []models.Entity) []models.Entity {
	if len(in) == 0 {
		return nil
	}
	out := make([]models.Entity, 0, len(in))
	for _, e := range in {
		e.ID = strings.TrimSpace(e.ID)
		e.Name = strings.TrimSpace(e.Name)
		if e.ID == "" {
			if e.Name == "" {
				continue
			}
			e.ID = "name:" + e.Name
		}
		if e.Attributes == nil {
			e.Attributes = map[string]interface{}{}
		}
		out = append(out, e)
	}
	return out
}

func cleanSubTopics(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func normalizeSentiment(in *RawSentiment) models.Sentiment {
	s := models.Sentiment{Polarity: models.PolarityNeutral}
	if in == nil {
		return s
	}
	switch models.Polarity(strings.ToLower(strings.TrimSpace(in.Polarity))) {
	case models.PolarityPositive:
		s.Polarity = models.PolarityPositive
	case models.PolarityNegative:
		s.Polarity = models.PolarityNegative
	}
	if in.Intensity != nil {
		s.Intensity = utils.Clamp(*in.Intensity, 0, 1)
	}
	return s
}
