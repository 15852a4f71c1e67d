package prompt

import (
	"strings"
	"testing"
)

func TestTruncateTranscriptLeavesShortTextAlone(t *testing.T) {
	text := "A short transcript that fits."
	if got := TruncateTranscript(text, 100); got != text {
		t.Errorf("short text was modified: %q", got)
	}
}

func TestTruncateTranscriptCutsAtSentenceBoundary(t *testing.T) {
	// A sentence terminator sits inside the last 20% of the budget.
	head := strings.Repeat("a", 90) + ". "
	text := head + strings.Repeat("b", 200)

	got := TruncateTranscript(text, 100)
	if !strings.HasSuffix(got, TruncationMarker) {
		t.Fatalf("missing truncation marker: %q", got)
	}
	body := strings.TrimSuffix(got, TruncationMarker)
	if !strings.HasSuffix(body, ".") {
		t.Errorf("cut did not land after sentence terminator: %q", body)
	}
	if len([]rune(body)) > 100 {
		t.Errorf("body exceeds budget: %d runes", len([]rune(body)))
	}
}

func TestTruncateTranscriptHardCutsWithoutBoundary(t *testing.T) {
	text := strings.Repeat("x", 500)

	got := TruncateTranscript(text, 100)
	body := strings.TrimSuffix(got, TruncationMarker)
	if len([]rune(body)) != 100 {
		t.Errorf("hard cut length = %d, want 100", len([]rune(body)))
	}
}

func TestTruncateTranscriptIgnoresBoundaryOutsideWindow(t *testing.T) {
	// The only terminator is before the 80% window start, so it must not win.
	text := strings.Repeat("a", 50) + ". " + strings.Repeat("b", 300)

	got := TruncateTranscript(text, 100)
	body := strings.TrimSuffix(got, TruncationMarker)
	if len([]rune(body)) != 100 {
		t.Errorf("cut length = %d, want hard cut at 100", len([]rune(body)))
	}
}

func TestTruncateTranscriptHonorsParagraphBreak(t *testing.T) {
	text := strings.Repeat("a", 88) + "\n\n" + strings.Repeat("b", 300)

	got := TruncateTranscript(text, 100)
	body := strings.TrimSuffix(got, TruncationMarker)
	if len([]rune(body)) > 100 {
		t.Errorf("body exceeds budget: %d runes", len([]rune(body)))
	}
	if strings.Contains(body, "b") {
		t.Errorf("cut should land at the paragraph break, got %q", body)
	}
}

func TestTruncateTranscriptZeroBudget(t *testing.T) {
	if got := TruncateTranscript("anything", 0); got != "" {
		t.Errorf("zero budget should yield empty string, got %q", got)
	}
}
