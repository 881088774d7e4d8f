// Package layout holds the pure geometry shared by the renderers: dimensions, scales and
// column fitting. Nothing here measures a container or draws a mark.
package layout

// Margin is the space reserved around the plot area.
type Margin struct {
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
}

// Config carries the tunable geometry constants.
type Config struct {
	Margin         Margin
	RowHeight      float64
	MinHeight      float64
	MinColumnWidth float64
	MaxColumnWidth float64
	ColumnGap      float64
	ColumnFloor    int
}

// DefaultConfig returns the geometry used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Margin:         Margin{Top: 60, Right: 40, Bottom: 40, Left: 80},
		RowHeight:      40,
		MinHeight:      400,
		MinColumnWidth: 60,
		MaxColumnWidth: 140,
		ColumnGap:      20,
		ColumnFloor:    DefaultColumnFloor,
	}
}

// Dimensions is the outer canvas size and the plot area inside the margins.
type Dimensions struct {
	OuterWidth  float64 `json:"outer_width"`
	OuterHeight float64 `json:"outer_height"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	Margin      Margin  `json:"margin"`
}

// Compute derives dimensions from the measured container width and the event count.
// Height grows with the number of rows and never drops below cfg.MinHeight.
func Compute(containerWidth float64, eventCount int, cfg Config) Dimensions {
	m := cfg.Margin
	outerH := float64(eventCount)*cfg.RowHeight + m.Top + m.Bottom
	if outerH < cfg.MinHeight {
		outerH = cfg.MinHeight
	}
	w := containerWidth - m.Left - m.Right
	if w < 0 {
		w = 0
	}
	return Dimensions{
		OuterWidth:  containerWidth,
		OuterHeight: outerH,
		Width:       w,
		Height:      outerH - m.Top - m.Bottom,
		Margin:      m,
	}
}

// Fixed returns dimensions for a container whose height is given rather than derived.
func Fixed(containerWidth, containerHeight float64, m Margin) Dimensions {
	w := containerWidth - m.Left - m.Right
	h := containerHeight - m.Top - m.Bottom
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return Dimensions{OuterWidth: containerWidth, OuterHeight: containerHeight, Width: w, Height: h, Margin: m}
}
