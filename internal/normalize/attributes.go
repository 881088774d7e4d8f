package normalize

import (
	"sort"

	"github.com/hyperjump/narraview/internal/models"
)

// Unknown is the bucket for entities lacking the selected attribute.
const Unknown = "Unknown"

// IdentityAttribute selects entity identity columns: keyed by id, labelled by name.
const IdentityAttribute = ""

// AvailableAttributes returns the attribute keys present and non-empty on at least one
// entity across events, excluding id and name, sorted.
func AvailableAttributes(events []models.Event) []string {
	set := make(map[string]struct{})
	for _, ev := range events {
		for _, ent := range ev.Entities {
			for _, k := range ent.AttributeKeys() {
				set[k] = struct{}{}
			}
		}
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// ColumnKey resolves the column an entity belongs to under attr.
// known is false when the entity lacks the attribute and was bucketed to Unknown.
func ColumnKey(ent models.Entity, attr string) (key, label string, known bool) {
	if attr == IdentityAttribute {
		label = ent.Name
		if label == "" {
			label = ent.ID
		}
		return ent.ID, label, true
	}
	if v, ok := ent.Attribute(attr); ok {
		return v, v, true
	}
	return Unknown, Unknown, false
}
