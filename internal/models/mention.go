package models

// EntityMention is a derived per-column frequency record.
// Key is the entity ID in identity mode, otherwise the resolved attribute value.
// Frequency counts distinct events for identity columns and distinct (event, entity)
// pairs for attribute columns; Mentions lists the event indexes in first-seen order.
type EntityMention struct {
	Key       string  `json:"key"`
	Label     string  `json:"label"`
	Frequency int     `json:"frequency"`
	Mentions  []int   `json:"mentions"`
	Entity    *Entity `json:"entity,omitempty"`
}

// TopicFrequency counts events per main topic.
type TopicFrequency struct {
	MainTopic string `json:"main_topic"`
	Frequency int    `json:"frequency"`
	Rank      int    `json:"rank"`
}
