// Package timeline holds the timed lyric lines that drive text rendering.
package timeline

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

// Line is one timed lyric: text shown between StartTime and EndTime
// (seconds), with an optional translation drawn beneath it. Text may contain
// embedded line breaks.
type Line struct {
	ID          string  `json:"id"`
	StartTime   float64 `json:"startTime"`
	EndTime     float64 `json:"endTime"`
	Text        string  `json:"text"`
	Translation string  `json:"translation,omitempty"`
}

// Load reads a timeline file, picking the parser from the extension:
// .lrc for LRC files, anything else is a JSON array of lines. The result
// is sorted by start time; the renderer trusts that order and never
// re-sorts.
func Load(path string) ([]Line, error) {
	if strings.HasSuffix(strings.ToLower(path), ".lrc") {
		return LoadLRC(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading timeline: %w", err)
	}

	var lines []Line
	if err := json.Unmarshal(data, &lines); err != nil {
		return nil, fmt.Errorf("parsing timeline: %w", err)
	}

	sortLines(lines)
	return lines, nil
}

// End reports the end of the timeline: the largest endTime plus the exit
// transition tail, or zero for an empty timeline.
func End(lines []Line, transitionDuration float64) float64 {
	end := 0.0
	for _, l := range lines {
		if t := l.EndTime + transitionDuration; t > end {
			end = t
		}
	}
	return end
}

func sortLines(lines []Line) {
	sort.SliceStable(lines, func(i, j int) bool {
		return lines[i].StartTime < lines[j].StartTime
	})
	for i := range lines {
		if lines[i].ID == "" {
			lines[i].ID = fmt.Sprintf("line-%d", i)
		}
	}
}
