package svg

import (
	"strings"
	"testing"
)

func TestEscapeXML(t *testing.T) {
	got := EscapeXML(`<a href="x">Tom & Jerry's</a>`)
	want := "&lt;a href=&quot;x&quot;&gt;Tom &amp; Jerry&apos;s&lt;/a&gt;"
	if got != want {
		t.Errorf("EscapeXML = %q, want %q", got, want)
	}
}

func TestCanvasClosesOpenGroups(t *testing.T) {
	c := New(200, 100)
	c.Group(A("class", "marks"))
	c.Circle(10.126, 20, 4, "Bob & Alice", A("fill", "#fff"))
	c.Text(5, 5, "<label>")
	out := c.String()

	if !strings.HasPrefix(out, `<?xml`) {
		t.Error("missing XML declaration")
	}
	if !strings.Contains(out, `cx="10.13"`) {
		t.Errorf("coordinates should be rounded to two decimals: %s", out)
	}
	if !strings.Contains(out, "<title>Bob &amp; Alice</title>") {
		t.Error("title should be escaped")
	}
	if !strings.Contains(out, "&lt;label&gt;</text>") {
		t.Error("text should be escaped")
	}
	if !strings.HasSuffix(out, "</g>\n</svg>\n") {
		t.Errorf("groups should be closed in order, got tail %q", out[len(out)-20:])
	}
}

func TestPathBuilder(t *testing.T) {
	var p PathBuilder
	p.MoveTo(0, 0).LineTo(10, 5.5).CurveTo(1, 2, 3, 4, 5, 6)
	if got := p.String(); got != "M0,0L10,5.5C1,2,3,4,5,6" {
		t.Errorf("path = %q", got)
	}
}
