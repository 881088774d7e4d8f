// Package palette assigns colors to column keys and sentiment polarities.
package palette

import (
	"hash/fnv"

	"github.com/hyperjump/narraview/internal/models"
)

// Categorical is the ten-color categorical scheme used for entity and topic keys.
var Categorical = []string{
	"#4e79a7", "#f28e2c", "#e15759", "#76b7b2", "#59a14f",
	"#edc949", "#af7aa1", "#ff9da7", "#9c755f", "#bab0ab",
}

// Neutral text and guide colors.
const (
	Text      = "#333333"
	MutedText = "#888888"
	Guide     = "#d0d0d0"
	Highlight = "#ff6b00"
	Connector = "#555555"
	InnerLine = "#f5f5f5"
	Unknown   = "#bab0ab"
)

// ForKey returns a stable categorical color for key.
func ForKey(key string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return Categorical[h.Sum32()%uint32(len(Categorical))]
}

// Ordinal assigns categorical colors by position, cycling after ten keys.
type Ordinal struct {
	index map[string]int
}

// NewOrdinal returns an ordinal palette over keys in order.
func NewOrdinal(keys []string) *Ordinal {
	o := &Ordinal{index: make(map[string]int, len(keys))}
	for _, k := range keys {
		if _, ok := o.index[k]; !ok {
			o.index[k] = len(o.index)
		}
	}
	return o
}

// Color returns the color for key, falling back to a hashed color for unseen keys.
func (o *Ordinal) Color(key string) string {
	if i, ok := o.index[key]; ok {
		return Categorical[i%len(Categorical)]
	}
	return ForKey(key)
}

// Sentiment is the fill and border pair for one polarity.
type Sentiment struct {
	Fill   string `json:"fill"`
	Border string `json:"border"`
}

var sentimentColors = map[models.Polarity]Sentiment{
	models.PolarityPositive: {Fill: "#a8e6a3", Border: "#2e7d32"},
	models.PolarityNegative: {Fill: "#f4a6a6", Border: "#c62828"},
	models.PolarityNeutral:  {Fill: "#d6d6d6", Border: "#616161"},
}

// ForSentiment returns the palette for p; unknown polarities use the neutral palette.
func ForSentiment(p models.Polarity) Sentiment {
	if s, ok := sentimentColors[p]; ok {
		return s
	}
	return sentimentColors[models.PolarityNeutral]
}
