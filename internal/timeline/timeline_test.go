package timeline

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadJSON(t *testing.T) {
	path := writeTemp(t, "lyrics.json", `[
		{"id": "b", "startTime": 4.0, "endTime": 8.0, "text": "second line"},
		{"id": "a", "startTime": 0.0, "endTime": 4.0, "text": "first line", "translation": "premiere ligne"}
	]`)

	lines, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if lines[0].ID != "a" || lines[1].ID != "b" {
		t.Errorf("lines not sorted by start time: %q, %q", lines[0].ID, lines[1].ID)
	}
	if lines[0].Translation != "premiere ligne" {
		t.Errorf("translation = %q", lines[0].Translation)
	}
}

func TestLoadJSONAssignsIDs(t *testing.T) {
	path := writeTemp(t, "lyrics.json", `[{"startTime": 1, "endTime": 2, "text": "x"}]`)

	lines, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if lines[0].ID == "" {
		t.Error("missing ID was not assigned")
	}
}

func TestLoadJSONBadFile(t *testing.T) {
	path := writeTemp(t, "lyrics.json", `{not json`)
	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed JSON")
	}
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		tag  string
		want float64
		ok   bool
	}{
		{"00:12.50", 12.5, true},
		{"01:00.00", 60, true},
		{"02:30.25", 150.25, true},
		{"ti:Some Title", 0, false},
		{"ar:Artist", 0, false},
		{"nonsense", 0, false},
	}

	for _, tt := range tests {
		got, ok := parseTimestamp(tt.tag)
		if ok != tt.ok {
			t.Errorf("parseTimestamp(%q) ok = %v, want %v", tt.tag, ok, tt.ok)
			continue
		}
		if ok && math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("parseTimestamp(%q) = %f, want %f", tt.tag, got, tt.want)
		}
	}
}

func TestLoadLRC(t *testing.T) {
	path := writeTemp(t, "lyrics.lrc", `[ti:Test Song]
[ar:Nobody]

[00:01.00]hello world|bonjour le monde
[00:03.50]second line
[00:30.00]far away line
`)

	lines, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(lines))
	}

	first := lines[0]
	if first.StartTime != 1.0 {
		t.Errorf("first start = %f, want 1.0", first.StartTime)
	}
	if first.EndTime != 3.5 {
		t.Errorf("first end = %f, want next start 3.5", first.EndTime)
	}
	if first.Text != "hello world" || first.Translation != "bonjour le monde" {
		t.Errorf("translation split wrong: %q / %q", first.Text, first.Translation)
	}

	// Gap to the next line exceeds the cap.
	if lines[1].EndTime != 3.5+maxLineSeconds {
		t.Errorf("capped end = %f, want %f", lines[1].EndTime, 3.5+maxLineSeconds)
	}

	// Last line has no successor.
	if lines[2].EndTime != 30+maxLineSeconds {
		t.Errorf("last end = %f, want %f", lines[2].EndTime, 30+maxLineSeconds)
	}
}

func TestLoadLRCMultipleTags(t *testing.T) {
	path := writeTemp(t, "m.lrc", "[00:05.00][00:15.00]repeated chorus\n")

	lines, err := LoadLRC(path)
	if err != nil {
		t.Fatalf("LoadLRC: %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if lines[0].StartTime != 5 || lines[1].StartTime != 15 {
		t.Errorf("starts = %f, %f", lines[0].StartTime, lines[1].StartTime)
	}
	if lines[0].Text != "repeated chorus" || lines[1].Text != "repeated chorus" {
		t.Errorf("texts = %q, %q", lines[0].Text, lines[1].Text)
	}
}

func TestEnd(t *testing.T) {
	lines := []Line{
		{StartTime: 0, EndTime: 4},
		{StartTime: 4, EndTime: 8},
	}
	if got := End(lines, 0.6); math.Abs(got-8.6) > 1e-9 {
		t.Errorf("End = %f, want 8.6", got)
	}
	if got := End(nil, 0.6); got != 0 {
		t.Errorf("End of empty timeline = %f, want 0", got)
	}
}
