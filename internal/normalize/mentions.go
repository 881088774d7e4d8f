package normalize

import (
	"sort"

	"github.com/hyperjump/narraview/internal/models"
)

// EntityMentions ranks the columns produced by attr by mention frequency, highest first,
// ties kept in first-encountered order. An entity repeated within one event counts once
// for that event. With excludeUnknown, entities lacking attr are dropped instead of bucketed.
func EntityMentions(events []models.Event, attr string, excludeUnknown bool) []models.EntityMention {
	var out []*models.EntityMention
	byKey := make(map[string]*models.EntityMention)
	for _, ev := range events {
		counted := make(map[string]struct{})
		for _, ent := range ev.UniqueEntities() {
			key, label, known := ColumnKey(ent, attr)
			if !known && excludeUnknown {
				continue
			}
			m, ok := byKey[key]
			if !ok {
				m = &models.EntityMention{Key: key, Label: label}
				if attr == IdentityAttribute {
					e := ent
					m.Entity = &e
				}
				byKey[key] = m
				out = append(out, m)
			}
			// Attribute columns count each distinct entity of the event.
			m.Frequency++
			if _, seen := counted[key]; !seen {
				counted[key] = struct{}{}
				m.Mentions = append(m.Mentions, ev.Index)
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Frequency > out[j].Frequency })
	res := make([]models.EntityMention, len(out))
	for i, m := range out {
		res[i] = *m
	}
	return res
}

// TopicFrequencies counts events per main topic, highest first, ties in first-encountered
// order. Rank starts at 1.
func TopicFrequencies(events []models.Event) []models.TopicFrequency {
	var out []models.TopicFrequency
	pos := make(map[string]int)
	for _, ev := range events {
		i, ok := pos[ev.Topic.MainTopic]
		if !ok {
			i = len(out)
			pos[ev.Topic.MainTopic] = i
			out = append(out, models.TopicFrequency{MainTopic: ev.Topic.MainTopic})
		}
		out[i].Frequency++
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Frequency > out[j].Frequency })
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}
