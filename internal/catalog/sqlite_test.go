package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hyperjump/narraview/internal/models"
)

func sampleDataset(id, path string) *models.Dataset {
	rt := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)
	return &models.Dataset{
		ID:       id,
		Path:     path,
		Metadata: models.Metadata{Title: "Harbor strike", PublishDate: "2024-02-01"},
		Events: []models.Event{
			{
				Index:     1,
				Text:      "Dock workers walk out.",
				ShortText: "Walkout",
				Temporal:  models.TemporalAnchoring{RealTime: &rt, NarrativeTime: 1},
				Entities: []models.Entity{{ID: "e1", Name: "Bob",
					Attributes: map[string]interface{}{"social_role": "worker"}}},
				Topic: models.Topic{MainTopic: "Labor", SubTopic: []string{"pay"},
					Sentiment: models.Sentiment{Polarity: models.PolarityNegative, Intensity: 0.4}},
			},
			{
				Index:     2,
				ShortText: "Talks",
				Temporal:  models.TemporalAnchoring{NarrativeTime: 2},
				Topic:     models.Topic{MainTopic: "Negotiation", SubTopic: []string{}},
			},
		},
	}
}

func TestSQLiteStore_CRUD(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	ctx := context.Background()

	ds := sampleDataset("ds:1", "/data/strike.json")
	if err := store.Upsert(ctx, ds); err != nil {
		t.Fatal(err)
	}
	if ds.LoadedAt.IsZero() {
		t.Error("LoadedAt should be set")
	}

	got, err := store.Get(ctx, "ds:1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Metadata.Title != "Harbor strike" || len(got.Events) != 2 {
		t.Fatalf("got %+v", got)
	}
	first := got.Events[0]
	if !first.Temporal.HasRealTime() || first.Temporal.RealTime.Day() != 3 {
		t.Errorf("real time lost: %+v", first.Temporal)
	}
	if v, ok := first.Entities[0].Attribute("social_role"); !ok || v != "worker" {
		t.Errorf("entity attribute lost: %+v", first.Entities[0])
	}
	if got.Events[1].Temporal.HasRealTime() {
		t.Error("undated event gained a real time")
	}

	byPath, err := store.GetByPath(ctx, "/data/strike.json")
	if err != nil || byPath.ID != "ds:1" {
		t.Errorf("GetByPath = %v, %v", byPath, err)
	}

	ds.Metadata.Title = "Updated"
	ds.Events = ds.Events[:1]
	if err := store.Upsert(ctx, ds); err != nil {
		t.Fatal(err)
	}
	list, err := store.List(ctx, 0, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].Metadata.Title != "Updated" || list[0].EventCount != 1 {
		t.Errorf("list = %+v", list)
	}

	if err := store.Delete(ctx, "ds:1"); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Get(ctx, "ds:1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestSQLiteStore_ListAndCount(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "nested", "dir", "catalog.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	ctx := context.Background()

	for _, id := range []string{"ds:a", "ds:b", "ds:c"} {
		if err := store.Upsert(ctx, sampleDataset(id, "/data/"+id+".json")); err != nil {
			t.Fatal(err)
		}
	}
	n, err := store.Count(ctx)
	if err != nil || n != 3 {
		t.Errorf("Count = %d, %v", n, err)
	}
	page, err := store.List(ctx, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(page) != 1 {
		t.Errorf("page size = %d", len(page))
	}
}

func TestDiskUsageBytes(t *testing.T) {
	dir := t.TempDir()
	f := filepath.Join(dir, "catalog.db")
	if err := os.WriteFile(f, []byte("12345"), 0600); err != nil {
		t.Fatal(err)
	}
	sub := filepath.Join(dir, "index")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(sub, "store"), []byte("abc"), 0600); err != nil {
		t.Fatal(err)
	}
	n, err := DiskUsageBytes(f, sub, filepath.Join(dir, "missing"), "")
	if err != nil {
		t.Fatal(err)
	}
	if n != 8 {
		t.Errorf("DiskUsageBytes = %d, want 8", n)
	}
}
