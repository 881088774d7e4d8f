package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/narraview/internal/models"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS datasets (
		id TEXT PRIMARY KEY,
		path TEXT,
		title TEXT,
		metadata TEXT NOT NULL,
		events TEXT NOT NULL,
		event_count INTEGER NOT NULL,
		loaded_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_datasets_path ON datasets(path);
	CREATE INDEX IF NOT EXISTS idx_datasets_updated_at ON datasets(updated_at);
	`
	_, err := db.Exec(schema)
	return err
}

// Upsert inserts a dataset or replaces the stored copy with the same ID.
func (s *SQLiteStore) Upsert(ctx context.Context, ds *models.Dataset) error {
	metadataJSON, err := json.Marshal(ds.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}
	eventsJSON, err := json.Marshal(ds.Events)
	if err != nil {
		return fmt.Errorf("failed to marshal events: %w", err)
	}
	if ds.LoadedAt.IsZero() {
		ds.LoadedAt = time.Now()
	}
	now := time.Now()

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO datasets (id, path, title, metadata, events, event_count, loaded_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   path = excluded.path, title = excluded.title, metadata = excluded.metadata,
		   events = excluded.events, event_count = excluded.event_count,
		   loaded_at = excluded.loaded_at, updated_at = excluded.updated_at`,
		ds.ID, ds.Path, ds.Metadata.Title, string(metadataJSON), string(eventsJSON), len(ds.Events), ds.LoadedAt, now,
	)
	return err
}

// Get returns a dataset with its events.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*models.Dataset, error) {
	return s.getOne(ctx, `WHERE id = ?`, id)
}

// GetByPath returns the dataset loaded from path.
func (s *SQLiteStore) GetByPath(ctx context.Context, path string) (*models.Dataset, error) {
	return s.getOne(ctx, `WHERE path = ?`, path)
}

func (s *SQLiteStore) getOne(ctx context.Context, where string, arg string) (*models.Dataset, error) {
	var ds models.Dataset
	var path sql.NullString
	var metadataJSON, eventsJSON string

	err := s.db.QueryRowContext(ctx,
		`SELECT id, path, metadata, events, loaded_at FROM datasets `+where, arg,
	).Scan(&ds.ID, &path, &metadataJSON, &eventsJSON, &ds.LoadedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, arg)
	}
	if err != nil {
		return nil, err
	}
	ds.Path = path.String
	if err := json.Unmarshal([]byte(metadataJSON), &ds.Metadata); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}
	if err := json.Unmarshal([]byte(eventsJSON), &ds.Events); err != nil {
		return nil, fmt.Errorf("failed to unmarshal events: %w", err)
	}
	return &ds, nil
}

// Delete removes a dataset by ID. Deleting a missing dataset is not an error.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM datasets WHERE id = ?`, id)
	return err
}

// List returns dataset summaries, most recently updated first.
func (s *SQLiteStore) List(ctx context.Context, offset, limit int) ([]models.DatasetSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, path, metadata, event_count, updated_at
		 FROM datasets ORDER BY updated_at DESC, id LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.DatasetSummary
	for rows.Next() {
		var sum models.DatasetSummary
		var path sql.NullString
		var metadataJSON string
		if err := rows.Scan(&sum.ID, &path, &metadataJSON, &sum.EventCount, &sum.UpdatedAt); err != nil {
			return nil, err
		}
		sum.Path = path.String
		if metadataJSON != "" {
			_ = json.Unmarshal([]byte(metadataJSON), &sum.Metadata)
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

// Count returns the number of datasets.
func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM datasets`).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
