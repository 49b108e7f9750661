package channels

import (
	"strings"
	"testing"
)

func TestSplitMessageShortTextUnchanged(t *testing.T) {
	chunks := SplitMessage("hello", 100)
	if len(chunks) != 1 || chunks[0] != "hello" {
		t.Fatalf("got %q", chunks)
	}
}

func TestSplitMessagePrefersLineBreaks(t *testing.T) {
	text := "first line\nsecond line\nthird line"
	chunks := SplitMessage(text, 15)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %q", chunks)
	}
	for _, c := range chunks {
		if len(c) > 15 {
			t.Errorf("chunk exceeds limit: %q", c)
		}
	}
	if chunks[0] != "first line" {
		t.Errorf("first chunk should break on newline, got %q", chunks[0])
	}
	if got := strings.Join(chunks, "\n"); got != text {
		t.Errorf("content lost in split: %q", got)
	}
}

func TestSplitMessageHardBreakWithoutNewlines(t *testing.T) {
	text := strings.Repeat("a", 25)
	chunks := SplitMessage(text, 10)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	if strings.Join(chunks, "") != text {
		t.Error("content lost in split")
	}
}
