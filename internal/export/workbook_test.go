package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/hyperjump/narraview/internal/models"
	"github.com/xuri/excelize/v2"
)

func sampleDataset() *models.Dataset {
	when := time.Date(2021, 3, 4, 0, 0, 0, 0, time.UTC)
	return &models.Dataset{
		ID: "ds:test",
		Events: []models.Event{
			{
				Index:    1,
				Temporal: models.TemporalAnchoring{NarrativeTime: 1, RealTime: &when},
				Topic: models.Topic{
					MainTopic: "Trade",
					SubTopic:  []string{"shipping", "tariffs"},
					Sentiment: models.Sentiment{Polarity: models.PolarityPositive, Intensity: 0.5},
				},
				Entities: []models.Entity{
					{ID: "e1", Name: "Alice", Attributes: map[string]interface{}{"role": "captain"}},
					{ID: "e2", Name: "Bob", Attributes: map[string]interface{}{}},
				},
			},
			{
				Index:    2,
				Temporal: models.TemporalAnchoring{NarrativeTime: 2},
				Topic:    models.Topic{MainTopic: "Trade", Sentiment: models.Sentiment{Polarity: models.PolarityNeutral}},
			},
			{
				Index:    3,
				Temporal: models.TemporalAnchoring{NarrativeTime: 3},
				Topic:    models.Topic{MainTopic: "Politics", Sentiment: models.Sentiment{Polarity: models.PolarityNegative, Intensity: 1}},
				Entities: []models.Entity{{ID: "e1", Name: "Alice", Attributes: map[string]interface{}{"role": "captain"}}},
			},
		},
	}
}

func readWorkbook(t *testing.T, buf *bytes.Buffer) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func TestWriteWorkbook_Sheets(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteWorkbook(&buf, sampleDataset(), ""); err != nil {
		t.Fatalf("WriteWorkbook: %v", err)
	}
	f := readWorkbook(t, &buf)

	got := f.GetSheetList()
	want := []string{SheetEvents, SheetMentions, SheetTopics}
	if len(got) != len(want) {
		t.Fatalf("sheets = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sheet %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestWriteWorkbook_EventRows(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteWorkbook(&buf, sampleDataset(), ""); err != nil {
		t.Fatalf("WriteWorkbook: %v", err)
	}
	rows, err := readWorkbook(t, &buf).GetRows(SheetEvents)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("got %d rows, want header + 3", len(rows))
	}
	if rows[0][0] != "Index" || rows[0][8] != "Relevance" {
		t.Errorf("unexpected header %v", rows[0])
	}

	first := rows[1]
	checks := []struct {
		col  int
		want string
	}{
		{0, "1"},
		{2, "2021-03-04T00:00:00Z"},
		{3, "Trade"},
		{4, "shipping, tariffs"},
		{5, "positive"},
		{6, "0.5"},
		{7, "2"},
		{8, "matched"},
	}
	for _, c := range checks {
		if first[c.col] != c.want {
			t.Errorf("event 1 col %d = %q, want %q", c.col, first[c.col], c.want)
		}
	}
	if got := rows[2][8]; got != "no_entities" {
		t.Errorf("event 2 relevance = %q, want no_entities", got)
	}
}

func TestWriteWorkbook_MentionsByAttribute(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteWorkbook(&buf, sampleDataset(), "role"); err != nil {
		t.Fatalf("WriteWorkbook: %v", err)
	}
	rows, err := readWorkbook(t, &buf).GetRows(SheetMentions)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want header + 2", len(rows))
	}
	if rows[1][0] != "captain" || rows[1][2] != "2" || rows[1][3] != "1, 3" {
		t.Errorf("captain row = %v", rows[1])
	}
	if rows[2][0] != "Unknown" || rows[2][2] != "1" {
		t.Errorf("unknown row = %v", rows[2])
	}
}

func TestWriteWorkbook_TopicRanking(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteWorkbook(&buf, sampleDataset(), ""); err != nil {
		t.Fatalf("WriteWorkbook: %v", err)
	}
	rows, err := readWorkbook(t, &buf).GetRows(SheetTopics)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	want := [][]string{
		{"Main topic", "Frequency", "Rank"},
		{"Trade", "2", "1"},
		{"Politics", "1", "2"},
	}
	if len(rows) != len(want) {
		t.Fatalf("got %d rows, want %d", len(rows), len(want))
	}
	for i := range want {
		for j := range want[i] {
			if rows[i][j] != want[i][j] {
				t.Errorf("row %d col %d = %q, want %q", i, j, rows[i][j], want[i][j])
			}
		}
	}
}

func TestWriteWorkbook_EmptyDataset(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteWorkbook(&buf, &models.Dataset{ID: "ds:empty"}, ""); err != nil {
		t.Fatalf("WriteWorkbook: %v", err)
	}
	rows, err := readWorkbook(t, &buf).GetRows(SheetEvents)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("got %d rows, want header only", len(rows))
	}
}
