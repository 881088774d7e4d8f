// Package svg writes SVG markup with float coordinates.
package svg

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/hyperjump/narraview/pkg/utils"
)

// Attr is one XML attribute.
type Attr struct {
	Name  string
	Value string
}

// A builds an attribute, formatting numbers compactly.
func A(name string, value interface{}) Attr {
	switch v := value.(type) {
	case string:
		return Attr{Name: name, Value: v}
	case float64:
		return Attr{Name: name, Value: Num(v)}
	case int:
		return Attr{Name: name, Value: strconv.Itoa(v)}
	default:
		return Attr{Name: name, Value: fmt.Sprint(v)}
	}
}

// Num formats a coordinate with at most two decimals.
func Num(v float64) string {
	return strconv.FormatFloat(utils.Round2(v), 'f', -1, 64)
}

// Canvas accumulates an SVG document.
type Canvas struct {
	b      strings.Builder
	open   []string
	Width  float64
	Height float64
}

// New starts a document of the given size.
func New(width, height float64, attrs ...Attr) *Canvas {
	c := &Canvas{Width: width, Height: height}
	c.b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	all := append([]Attr{
		A("xmlns", "http://www.w3.org/2000/svg"),
		A("width", width), A("height", height),
		A("viewBox", fmt.Sprintf("0 0 %s %s", Num(width), Num(height))),
	}, attrs...)
	c.start("svg", all, false)
	c.b.WriteString("\n")
	c.open = append(c.open, "svg")
	return c
}

func (c *Canvas) start(tag string, attrs []Attr, selfClose bool) {
	c.b.WriteString("<" + tag)
	for _, a := range attrs {
		if a.Value == "" {
			continue
		}
		c.b.WriteString(" " + a.Name + `="` + EscapeXML(a.Value) + `"`)
	}
	if selfClose {
		c.b.WriteString("/>\n")
		return
	}
	c.b.WriteString(">")
}

// Style embeds a stylesheet.
func (c *Canvas) Style(css string) {
	c.b.WriteString("<defs><style>" + EscapeXML(css) + "</style></defs>\n")
}

// ArrowMarker defines an arrowhead marker usable through marker-end="url(#id)".
func (c *Canvas) ArrowMarker(id, color string) {
	fmt.Fprintf(&c.b, `<defs><marker id="%s" viewBox="0 0 10 10" refX="10" refY="5" markerWidth="6" markerHeight="6" orient="auto-start-reverse"><path d="M0,0L10,5L0,10z" fill="%s"/></marker></defs>`+"\n",
		EscapeXML(id), EscapeXML(color))
}

// Group opens a <g> element; close it with End.
func (c *Canvas) Group(attrs ...Attr) {
	c.start("g", attrs, false)
	c.b.WriteString("\n")
	c.open = append(c.open, "g")
}

// End closes the innermost open group.
func (c *Canvas) End() {
	if len(c.open) <= 1 {
		return
	}
	tag := c.open[len(c.open)-1]
	c.open = c.open[:len(c.open)-1]
	c.b.WriteString("</" + tag + ">\n")
}

// Rect draws a rectangle.
func (c *Canvas) Rect(x, y, w, h float64, attrs ...Attr) {
	c.start("rect", append([]Attr{A("x", x), A("y", y), A("width", w), A("height", h)}, attrs...), true)
}

// Line draws a straight segment.
func (c *Canvas) Line(x1, y1, x2, y2 float64, attrs ...Attr) {
	c.start("line", append([]Attr{A("x1", x1), A("y1", y1), A("x2", x2), A("y2", y2)}, attrs...), true)
}

// Circle draws a circle. A non-empty title becomes a native hover tooltip.
func (c *Canvas) Circle(cx, cy, r float64, title string, attrs ...Attr) {
	all := append([]Attr{A("cx", cx), A("cy", cy), A("r", r)}, attrs...)
	if title == "" {
		c.start("circle", all, true)
		return
	}
	c.start("circle", all, false)
	c.b.WriteString("<title>" + EscapeXML(title) + "</title></circle>\n")
}

// Path draws a path from d.
func (c *Canvas) Path(d string, attrs ...Attr) {
	c.start("path", append([]Attr{A("d", d)}, attrs...), true)
}

// Text writes escaped text at x, y.
func (c *Canvas) Text(x, y float64, text string, attrs ...Attr) {
	c.start("text", append([]Attr{A("x", x), A("y", y)}, attrs...), false)
	c.b.WriteString(EscapeXML(text) + "</text>\n")
}

// String closes every open element and returns the document.
func (c *Canvas) String() string {
	for len(c.open) > 0 {
		tag := c.open[len(c.open)-1]
		c.open = c.open[:len(c.open)-1]
		c.b.WriteString("</" + tag + ">\n")
	}
	return c.b.String()
}

// WriteTo finishes the document and writes it to w.
func (c *Canvas) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, c.String())
	return int64(n), err
}

// EscapeXML escapes the five XML special characters.
func EscapeXML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, "\"", "&quot;")
	s = strings.ReplaceAll(s, "'", "&apos;")
	return s
}

// PathBuilder accumulates path data commands.
type PathBuilder struct {
	b strings.Builder
}

// MoveTo starts a subpath.
func (p *PathBuilder) MoveTo(x, y float64) *PathBuilder {
	fmt.Fprintf(&p.b, "M%s,%s", Num(x), Num(y))
	return p
}

// LineTo draws a straight segment.
func (p *PathBuilder) LineTo(x, y float64) *PathBuilder {
	fmt.Fprintf(&p.b, "L%s,%s", Num(x), Num(y))
	return p
}

// CurveTo draws a cubic Bézier segment.
func (p *PathBuilder) CurveTo(x1, y1, x2, y2, x, y float64) *PathBuilder {
	fmt.Fprintf(&p.b, "C%s,%s,%s,%s,%s,%s", Num(x1), Num(y1), Num(x2), Num(y2), Num(x), Num(y))
	return p
}

// String returns the path data.
func (p *PathBuilder) String() string { return p.b.String() }
