package utils

import (
	"testing"
)

func TestTruncate(t *testing.T) {
	if Truncate("hello", 10) != "hello" {
		t.Error("short string unchanged")
	}
	if Truncate("hello world", 5) != "hello..." {
		t.Errorf("got %s", Truncate("hello world", 5))
	}
	if Truncate("hello world", 6) != "hello..." {
		t.Errorf("trailing space should be trimmed, got %q", Truncate("hello world", 6))
	}
	if Truncate("x", 0) != "x" {
		t.Error("maxRunes 0 returns as-is")
	}
	if got := Truncate("日本語テキスト", 3); got != "日本語..." {
		t.Errorf("multi-byte truncate: got %q", got)
	}
}

func TestEstimateTextWidth(t *testing.T) {
	if got := EstimateTextWidth("abcde", 10); got != 30 {
		t.Errorf("EstimateTextWidth = %v, want 30", got)
	}
	if got := EstimateTextWidth("", 12); got != 0 {
		t.Errorf("empty text width = %v, want 0", got)
	}
}
