// Package search provides full-text lookup over the events of loaded datasets.
package search

import (
	"context"

	"github.com/hyperjump/narraview/internal/models"
)

// EventIndex defines event indexing and search operations.
type EventIndex interface {
	// IndexDataset replaces every indexed event of ds with its current events.
	IndexDataset(ctx context.Context, ds *models.Dataset) error
	DeleteDataset(ctx context.Context, datasetID string) error
	// Search returns up to limit events of one dataset matching query, best first.
	Search(ctx context.Context, datasetID, query string, limit int, fuzzy bool) ([]Hit, error)
	DocCount() (uint64, error)
	Close() error
}

// Hit is a single event search hit.
type Hit struct {
	EventIndex int     `json:"event_index"`
	Score      float64 `json:"score"`
}
