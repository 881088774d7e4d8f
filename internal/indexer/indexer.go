// Package indexer loads dataset files into the catalog and the event search index.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hyperjump/narraview/internal/catalog"
	"github.com/hyperjump/narraview/internal/datasetid"
	"github.com/hyperjump/narraview/internal/models"
	"github.com/hyperjump/narraview/internal/normalize"
	"github.com/hyperjump/narraview/internal/search"
	"github.com/hyperjump/narraview/pkg/utils"
	"go.uber.org/zap"
)

// Indexer keeps the catalog and the search index in step with dataset files on disk.
type Indexer struct {
	store  catalog.Store
	index  search.EventIndex
	logger *zap.Logger
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithLogger sets a logger for debug output (dataset loaded, dataset deleted, etc.).
func WithLogger(l *zap.Logger) IndexerOption {
	return func(idx *Indexer) { idx.logger = utils.OrNop(l) }
}

// NewIndexer creates an indexer. index may be nil, in which case datasets are only cataloged.
func NewIndexer(store catalog.Store, index search.EventIndex, opts ...IndexerOption) *Indexer {
	idx := &Indexer{store: store, index: index, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// LoadFile reads and validates the dataset at path. The returned dataset carries the
// path-derived ID; nothing is persisted.
func LoadFile(path string) (*models.Dataset, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("absolute path: %w", err)
	}
	f, err := os.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()
	ds, err := normalize.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", absPath, err)
	}
	ds.ID = datasetid.FromPath(absPath)
	ds.Path = absPath
	ds.LoadedAt = time.Now().UTC()
	return ds, nil
}

// IndexFile loads the dataset at path and stores it in the catalog and search index.
// If allowedExts is non-empty, the file's extension must be in the list (case-insensitive).
// An unchanged file (catalog copy loaded after the file's last write) is only re-indexed for search.
func (idx *Indexer) IndexFile(ctx context.Context, path string, allowedExts []string) (*models.Dataset, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("absolute path: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(absPath))
	if len(allowedExts) > 0 && !extensionAllowed(ext, allowedExts) {
		return nil, fmt.Errorf("extension %q not in allowed list", ext)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("not a regular file: %s", absPath)
	}

	if existing, getErr := idx.store.GetByPath(ctx, absPath); getErr == nil && !existing.LoadedAt.Before(info.ModTime()) {
		idx.logger.Debug("indexer skipping unchanged dataset", zap.String("path", absPath), zap.String("dataset_id", existing.ID))
		if err := idx.indexEvents(ctx, existing); err != nil {
			return nil, err
		}
		return existing, nil
	}

	ds, err := LoadFile(absPath)
	if err != nil {
		return nil, err
	}
	if err := idx.store.Upsert(ctx, ds); err != nil {
		return nil, fmt.Errorf("failed to store dataset: %w", err)
	}
	if err := idx.indexEvents(ctx, ds); err != nil {
		return nil, err
	}
	idx.logger.Debug("indexer dataset loaded",
		zap.String("path", absPath), zap.String("dataset_id", ds.ID), zap.Int("events", len(ds.Events)))
	return ds, nil
}

func (idx *Indexer) indexEvents(ctx context.Context, ds *models.Dataset) error {
	if idx.index == nil {
		return nil
	}
	if err := idx.index.IndexDataset(ctx, ds); err != nil {
		return fmt.Errorf("failed to index events: %w", err)
	}
	return nil
}

// IndexDirectory walks dir recursively and loads each regular file whose extension is in
// allowedExts (all files when empty). Invalid datasets are logged and skipped; the first
// such error is returned alongside the number of datasets loaded.
func (idx *Indexer) IndexDirectory(ctx context.Context, dir string, allowedExts []string) (n int, err error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return 0, fmt.Errorf("absolute path: %w", err)
	}
	info, err := os.Stat(absDir)
	if err != nil {
		return 0, fmt.Errorf("stat directory: %w", err)
	}
	if !info.IsDir() {
		return 0, fmt.Errorf("not a directory: %s", absDir)
	}
	var firstErr error
	walkErr := filepath.WalkDir(absDir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if len(allowedExts) > 0 && !extensionAllowed(ext, allowedExts) {
			return nil
		}
		if _, indexErr := idx.IndexFile(ctx, path, allowedExts); indexErr != nil {
			idx.logger.Warn("indexer skipped dataset", zap.String("path", path), zap.Error(indexErr))
			if firstErr == nil {
				firstErr = indexErr
			}
			return nil
		}
		n++
		return nil
	})
	if walkErr != nil {
		return n, walkErr
	}
	return n, firstErr
}

func extensionAllowed(ext string, allowed []string) bool {
	extNorm := strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, a := range allowed {
		if strings.ToLower(strings.TrimPrefix(a, ".")) == extNorm {
			return true
		}
	}
	return false
}

// DeleteDataset removes a dataset from the search index and the catalog.
func (idx *Indexer) DeleteDataset(ctx context.Context, id string) error {
	idx.logger.Debug("indexer deleting dataset", zap.String("dataset_id", id))
	if idx.index != nil {
		if err := idx.index.DeleteDataset(ctx, id); err != nil {
			return fmt.Errorf("failed to delete from search index: %w", err)
		}
	}
	if err := idx.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete dataset: %w", err)
	}
	return nil
}

// DeleteFile removes the dataset loaded from path, if any.
func (idx *Indexer) DeleteFile(ctx context.Context, path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("absolute path: %w", err)
	}
	err = idx.DeleteDataset(ctx, datasetid.FromPath(absPath))
	if errors.Is(err, catalog.ErrNotFound) {
		return nil
	}
	return err
}
