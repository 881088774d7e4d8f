// Package catalog persists loaded datasets so the server can list and serve them.
package catalog

import (
	"context"
	"errors"

	"github.com/hyperjump/narraview/internal/models"
)

// ErrNotFound is returned when a dataset ID is not in the catalog.
var ErrNotFound = errors.New("dataset not found")

// Store defines dataset persistence operations.
type Store interface {
	// Upsert inserts or replaces a dataset by ID.
	Upsert(ctx context.Context, ds *models.Dataset) error
	Get(ctx context.Context, id string) (*models.Dataset, error)
	// GetByPath looks a dataset up by its source file.
	GetByPath(ctx context.Context, path string) (*models.Dataset, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, offset, limit int) ([]models.DatasetSummary, error)
	Count(ctx context.Context) (int64, error)

	Close() error
}
