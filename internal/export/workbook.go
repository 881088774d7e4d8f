// Package export writes research workbooks summarizing a dataset.
package export

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/hyperjump/narraview/internal/models"
	"github.com/hyperjump/narraview/internal/normalize"
	"github.com/hyperjump/narraview/internal/render/entity"
	"github.com/xuri/excelize/v2"
)

// Sheet names of the exported workbook.
const (
	SheetEvents   = "Events"
	SheetMentions = "Mentions"
	SheetTopics   = "Topics"
)

// ReferenceWidth is the container width whose visible entity columns decide each
// event's relevance status.
const ReferenceWidth = 1200

var (
	eventHeader   = []interface{}{"Index", "Narrative time", "Real time", "Main topic", "Sub-topics", "Polarity", "Intensity", "Entities", "Relevance"}
	mentionHeader = []interface{}{"Key", "Label", "Frequency", "Events"}
	topicHeader   = []interface{}{"Main topic", "Frequency", "Rank"}
)

// WriteWorkbook writes an .xlsx workbook with event, mention and topic sheets for ds.
// Mentions are grouped by attribute; "" groups by entity identity.
func WriteWorkbook(w io.Writer, ds *models.Dataset, attribute string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetEvents); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range []string{SheetMentions, SheetTopics} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %q: %w", name, err)
		}
	}

	opts := entity.DefaultOptions()
	opts.Attribute = attribute
	diagram := entity.Layout(ds.Events, ReferenceWidth, opts)
	relevance := make(map[int]entity.Relevance, len(diagram.Rows))
	for _, row := range diagram.Rows {
		relevance[row.Index] = row.Relevance
	}

	events := [][]interface{}{eventHeader}
	for _, ev := range ds.Events {
		events = append(events, eventRow(ev, relevance[ev.Index]))
	}
	if err := writeRows(f, SheetEvents, events); err != nil {
		return err
	}

	mentions := [][]interface{}{mentionHeader}
	for _, m := range normalize.EntityMentions(ds.Events, attribute, false) {
		mentions = append(mentions, []interface{}{m.Key, m.Label, m.Frequency, joinInts(m.Mentions)})
	}
	if err := writeRows(f, SheetMentions, mentions); err != nil {
		return err
	}

	topics := [][]interface{}{topicHeader}
	for _, tf := range normalize.TopicFrequencies(ds.Events) {
		topics = append(topics, []interface{}{tf.MainTopic, tf.Frequency, tf.Rank})
	}
	if err := writeRows(f, SheetTopics, topics); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func eventRow(ev models.Event, rel entity.Relevance) []interface{} {
	realTime := ""
	if ev.Temporal.HasRealTime() {
		realTime = ev.Temporal.RealTime.Format(time.RFC3339)
	}
	return []interface{}{
		ev.Index,
		ev.Temporal.NarrativeTime,
		realTime,
		ev.Topic.MainTopic,
		strings.Join(ev.Topic.SubTopic, ", "),
		string(ev.Topic.Sentiment.Polarity),
		ev.Topic.Sentiment.Intensity,
		len(ev.UniqueEntities()),
		rel.String(),
	}
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("cell name: %w", err)
		}
		r := row
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

func joinInts(xs []int) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = strconv.Itoa(x)
	}
	return strings.Join(parts, ", ")
}
