// Package cli formats dataset inspection output for the narraview command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/hyperjump/narraview/internal/models"
	"github.com/hyperjump/narraview/internal/normalize"
	"github.com/hyperjump/narraview/internal/render"
	"github.com/hyperjump/narraview/internal/views"
	"github.com/hyperjump/narraview/pkg/utils"
)

// OutputFormat is the format for inspection output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat validates an output format name.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case "", OutputText:
		return OutputText, nil
	case OutputJSON:
		return f, nil
	}
	return "", fmt.Errorf("unknown output format %q; use text or json", s)
}

// ReferenceViewport is the size used to classify each view's state.
var ReferenceViewport = render.Viewport{Width: 960, Height: 600}

// ViewState is the layout state of one visualization mode.
type ViewState struct {
	Mode    render.Mode  `json:"mode"`
	State   render.State `json:"state"`
	Message string       `json:"message,omitempty"`
}

// Report summarizes a dataset the way the three views see it.
type Report struct {
	DatasetID  string                  `json:"dataset_id"`
	Title      string                  `json:"title,omitempty"`
	Events     int                     `json:"events"`
	Dated      int                     `json:"dated_events"`
	Attributes []string                `json:"attributes"`
	Attribute  string                  `json:"attribute"`
	Mentions   []models.EntityMention  `json:"mentions"`
	Topics     []models.TopicFrequency `json:"topics"`
	Views      []ViewState             `json:"views"`
}

// BuildReport inspects ds. attribute selects the mention grouping; "" groups by entity.
func BuildReport(b *views.Builder, ds *models.Dataset, attribute string, excludeUnknown bool) (*Report, error) {
	rep := &Report{
		DatasetID:  ds.ID,
		Title:      ds.Metadata.Title,
		Events:     len(ds.Events),
		Attributes: normalize.AvailableAttributes(ds.Events),
		Attribute:  attribute,
		Mentions:   normalize.EntityMentions(ds.Events, attribute, excludeUnknown),
		Topics:     normalize.TopicFrequencies(ds.Events),
	}
	for _, ev := range ds.Events {
		if ev.Temporal.HasRealTime() {
			rep.Dated++
		}
	}
	if rep.Attributes == nil {
		rep.Attributes = []string{}
	}
	if rep.Mentions == nil {
		rep.Mentions = []models.EntityMention{}
	}
	if rep.Topics == nil {
		rep.Topics = []models.TopicFrequency{}
	}
	p := views.Params{Attribute: &attribute}
	for _, mode := range []render.Mode{render.ModeEntity, render.ModeTime, render.ModeTopic} {
		g, err := b.Layout(mode, p, ds, ReferenceViewport)
		if err != nil {
			return nil, fmt.Errorf("layout %s: %w", mode, err)
		}
		rep.Views = append(rep.Views, ViewState{Mode: mode, State: g.State, Message: g.State.Message()})
	}
	return rep, nil
}

// WriteReport writes rep to w in the given format.
func WriteReport(w io.Writer, rep *Report, format OutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	default:
		writeReportText(w, rep)
		return nil
	}
}

var (
	heading = color.New(color.FgCyan, color.Bold)
	dim     = color.New(color.Faint)
	ready   = color.New(color.FgGreen)
	warn    = color.New(color.FgYellow)
)

func writeReportText(w io.Writer, rep *Report) {
	title := rep.Title
	if title == "" {
		title = "(untitled)"
	}
	heading.Fprintf(w, "%s\n", title)
	dim.Fprintf(w, "%s\n", rep.DatasetID)
	fmt.Fprintf(w, "events: %d (%d with real time)\n\n", rep.Events, rep.Dated)

	heading.Fprintln(w, "Attributes")
	if len(rep.Attributes) == 0 {
		dim.Fprintln(w, "  none")
	} else {
		fmt.Fprintf(w, "  %s\n", strings.Join(rep.Attributes, ", "))
	}
	fmt.Fprintln(w)

	by := rep.Attribute
	if by == "" {
		by = "entity"
	}
	heading.Fprintf(w, "Mentions by %s\n", by)
	if len(rep.Mentions) == 0 {
		dim.Fprintln(w, "  none")
	}
	for i, m := range rep.Mentions {
		fmt.Fprintf(w, "  %3d. %-24s %4d  ", i+1, utils.Truncate(m.Label, 24), m.Frequency)
		dim.Fprintf(w, "events %s\n", joinInts(m.Mentions))
	}
	fmt.Fprintln(w)

	heading.Fprintln(w, "Topics")
	if len(rep.Topics) == 0 {
		dim.Fprintln(w, "  none")
	}
	for _, t := range rep.Topics {
		fmt.Fprintf(w, "  %3d. %-24s %4d\n", t.Rank, utils.Truncate(t.MainTopic, 24), t.Frequency)
	}
	fmt.Fprintln(w)

	heading.Fprintln(w, "Views")
	for _, v := range rep.Views {
		fmt.Fprintf(w, "  %-7s ", v.Mode)
		if v.State == render.StateReady {
			ready.Fprintln(w, v.State)
			continue
		}
		warn.Fprintf(w, "%s", v.State)
		dim.Fprintf(w, "  %s\n", v.Message)
	}
}

func joinInts(xs []int) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = fmt.Sprint(x)
	}
	return strings.Join(parts, ", ")
}
