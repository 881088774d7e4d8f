package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/hyperjump/narraview/internal/models"
	"github.com/hyperjump/narraview/internal/render"
	"github.com/hyperjump/narraview/internal/views"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	color.NoColor = true
}

func sampleDataset(dated bool) *models.Dataset {
	var when *time.Time
	if dated {
		t := time.Date(2021, 3, 4, 0, 0, 0, 0, time.UTC)
		when = &t
	}
	captain := models.Entity{ID: "a", Name: "Alice", Attributes: map[string]interface{}{"role": "captain"}}
	return &models.Dataset{
		ID:       "ds:test",
		Metadata: models.Metadata{Title: "Harbor"},
		Events: []models.Event{
			{
				Index: 1, ShortText: "Harbor closes",
				Temporal: models.TemporalAnchoring{NarrativeTime: 1, RealTime: when},
				Topic:    models.Topic{MainTopic: "Trade", SubTopic: []string{}},
				Entities: []models.Entity{captain, {ID: "b", Name: "Bob", Attributes: map[string]interface{}{}}},
			},
			{
				Index: 2, ShortText: "Council vote",
				Temporal: models.TemporalAnchoring{NarrativeTime: 2},
				Topic:    models.Topic{MainTopic: "Politics", SubTopic: []string{}},
				Entities: []models.Entity{captain},
			},
			{
				Index: 3, ShortText: "Ships return",
				Temporal: models.TemporalAnchoring{NarrativeTime: 3},
				Topic:    models.Topic{MainTopic: "Trade", SubTopic: []string{}},
			},
		},
	}
}

func viewStates(rep *Report) map[render.Mode]render.State {
	out := make(map[render.Mode]render.State, len(rep.Views))
	for _, v := range rep.Views {
		out[v.Mode] = v.State
	}
	return out
}

func TestParseOutputFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{"", OutputText, false},
		{"text", OutputText, false},
		{"JSON", OutputJSON, false},
		{"compact", "", true},
	}
	for _, tt := range tests {
		got, err := ParseOutputFormat(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestBuildReport(t *testing.T) {
	rep, err := BuildReport(views.NewBuilder(nil, nil), sampleDataset(true), "role", false)
	require.NoError(t, err)

	assert.Equal(t, 3, rep.Events)
	assert.Equal(t, 1, rep.Dated)
	assert.Equal(t, []string{"role"}, rep.Attributes)
	require.Len(t, rep.Mentions, 2)
	assert.Equal(t, "captain", rep.Mentions[0].Key)
	assert.Equal(t, []int{1, 2}, rep.Mentions[0].Mentions)
	assert.Equal(t, 1, rep.Mentions[1].Frequency)
	require.Len(t, rep.Topics, 2)
	assert.Equal(t, "Trade", rep.Topics[0].MainTopic)
	assert.Equal(t, 2, rep.Topics[0].Frequency)

	states := viewStates(rep)
	assert.Equal(t, render.StateReady, states[render.ModeEntity])
	assert.Equal(t, render.StateReady, states[render.ModeTime])
	assert.Equal(t, render.StateReady, states[render.ModeTopic])
}

func TestBuildReport_States(t *testing.T) {
	b := views.NewBuilder(nil, nil)

	rep, err := BuildReport(b, sampleDataset(false), "", false)
	require.NoError(t, err)
	states := viewStates(rep)
	assert.Equal(t, render.StateReady, states[render.ModeEntity])
	assert.Equal(t, render.StateNoTemporalAnchors, states[render.ModeTime])

	rep, err = BuildReport(b, &models.Dataset{ID: "ds:empty"}, "", false)
	require.NoError(t, err)
	for mode, state := range viewStates(rep) {
		assert.Equal(t, render.StateEmptyData, state, mode)
	}
	assert.NotNil(t, rep.Mentions)
	assert.NotNil(t, rep.Topics)
	assert.NotNil(t, rep.Attributes)
}

func TestBuildReport_ExcludeUnknown(t *testing.T) {
	rep, err := BuildReport(views.NewBuilder(nil, nil), sampleDataset(true), "role", true)
	require.NoError(t, err)
	require.Len(t, rep.Mentions, 1)
	assert.Equal(t, "captain", rep.Mentions[0].Key)
}

func TestWriteReport_JSON(t *testing.T) {
	rep, err := BuildReport(views.NewBuilder(nil, nil), sampleDataset(false), "role", false)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, rep, OutputJSON))

	var decoded struct {
		DatasetID string `json:"dataset_id"`
		Events    int    `json:"events"`
		Views     []struct {
			Mode    string `json:"mode"`
			State   string `json:"state"`
			Message string `json:"message"`
		} `json:"views"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded), buf.String())
	assert.Equal(t, "ds:test", decoded.DatasetID)
	assert.Equal(t, 3, decoded.Events)
	require.Len(t, decoded.Views, 3)
	assert.Equal(t, "time", decoded.Views[1].Mode)
	assert.Equal(t, "no_temporal_anchors", decoded.Views[1].State)
	assert.NotEmpty(t, decoded.Views[1].Message)
}

func TestWriteReport_Text(t *testing.T) {
	rep, err := BuildReport(views.NewBuilder(nil, nil), sampleDataset(false), "role", false)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, rep, OutputText))
	out := buf.String()

	for _, want := range []string{
		"Harbor",
		"events: 3 (0 with real time)",
		"Mentions by role",
		"captain",
		"events 1, 2",
		"Trade",
		"no_temporal_anchors",
		render.StateNoTemporalAnchors.Message(),
	} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "\x1b[", "color codes should be disabled")
}

func TestWriteReport_TextEmpty(t *testing.T) {
	rep, err := BuildReport(views.NewBuilder(nil, nil), &models.Dataset{ID: "ds:empty"}, "", false)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, rep, OutputText))
	out := buf.String()
	assert.Contains(t, out, "(untitled)")
	assert.Contains(t, out, "Mentions by entity")
	assert.Equal(t, 3, strings.Count(out, string(render.StateEmptyData)+"  "))
}
