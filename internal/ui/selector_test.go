package ui

import (
	"testing"
	"time"

	"github.com/ashwch/vterm/internal/history"
)

func TestBubblePickerSizeStandardTerminal(t *testing.T) {
	width, height := bubblePickerSize(90, 30, 3)
	if width != 86 {
		t.Fatalf("expected width 86, got %d", width)
	}
	if height != 9 {
		t.Fatalf("expected height 9, got %d", height)
	}
}

func TestBubblePickerSizeTinyTerminalStillFits(t *testing.T) {
	width, height := bubblePickerSize(20, 5, 25)
	if width > 20 {
		t.Fatalf("expected width to fit terminal, got %d", width)
	}
	if height > 5 {
		t.Fatalf("expected height to fit terminal, got %d", height)
	}
	if width <= 0 || height <= 0 {
		t.Fatalf("expected positive dimensions, got width=%d height=%d", width, height)
	}
}

func TestHuhSelectHeightBounds(t *testing.T) {
	if got := huhSelectHeight(0); got != 4 {
		t.Fatalf("expected minimum huh height 4, got %d", got)
	}
	if got := huhSelectHeight(3); got != 4 {
		t.Fatalf("expected huh height 4 for small lists, got %d", got)
	}
	if got := huhSelectHeight(20); got != 10 {
		t.Fatalf("expected max huh height 10, got %d", got)
	}
}

func TestBuildHistoryOptionsDedupesAndLabels(t *testing.T) {
	when := time.Date(2026, 3, 4, 9, 30, 0, 0, time.Local)
	matches := []history.Match{
		{Command: "ls -la", Timestamp: when.Format(time.RFC3339)},
		{Command: "ls -la"},
		{Command: "  "},
		{Command: "go to Projects"},
	}

	options := buildHistoryOptions(matches)
	if len(options) != 2 {
		t.Fatalf("expected 2 options, got %d", len(options))
	}
	if options[0].Command != "ls -la" || options[0].Label != "Mar 04 09:30  ls -la" {
		t.Fatalf("unexpected first option %+v", options[0])
	}
	if options[1].Label != "go to Projects" {
		t.Fatalf("expected bare label without timestamp, got %q", options[1].Label)
	}
}

func TestPickHistoryWithoutMatchesIsUnused(t *testing.T) {
	command, used, err := PickHistory(BackendBubbleTea, "ls", nil)
	if err != nil || used || command != "" {
		t.Fatalf("expected unused picker, got command=%q used=%v err=%v", command, used, err)
	}
}
