package timeline

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// maxLineSeconds caps how long an LRC line stays up when the next timestamp
// is far away (LRC carries no end times).
const maxLineSeconds = 8.0

// LoadLRC parses an LRC lyric file. Each line may carry several [mm:ss.xx]
// tags; metadata tags like [ti:...] are skipped. End times are derived from
// the following line's start, capped at maxLineSeconds. A "text|translation"
// split is honored so translated lyrics survive the format.
func LoadLRC(path string) ([]Line, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading lrc: %w", err)
	}
	defer f.Close()

	var lines []Line
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}

		stamps, text := parseTags(raw)
		if len(stamps) == 0 || text == "" {
			continue
		}

		text, translation := splitTranslation(text)
		for _, ts := range stamps {
			lines = append(lines, Line{
				StartTime:   ts,
				Text:        text,
				Translation: translation,
			})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading lrc: %w", err)
	}

	sortLines(lines)

	// Derive end times now that the lines are in order.
	for i := range lines {
		end := lines[i].StartTime + maxLineSeconds
		if i+1 < len(lines) && lines[i+1].StartTime < end {
			end = lines[i+1].StartTime
		}
		lines[i].EndTime = end
	}

	return lines, nil
}

// parseTags strips the leading [mm:ss.xx] tags off an LRC line, returning
// the parsed timestamps and the remaining text. Tags that are not
// timestamps (album/artist metadata) parse to nothing.
func parseTags(raw string) ([]float64, string) {
	var stamps []float64
	for strings.HasPrefix(raw, "[") {
		end := strings.Index(raw, "]")
		if end < 0 {
			break
		}
		tag := raw[1:end]
		raw = raw[end+1:]

		ts, ok := parseTimestamp(tag)
		if !ok {
			continue
		}
		stamps = append(stamps, ts)
	}
	return stamps, strings.TrimSpace(raw)
}

func parseTimestamp(tag string) (float64, bool) {
	minSec := strings.SplitN(tag, ":", 2)
	if len(minSec) != 2 {
		return 0, false
	}
	min, err := strconv.Atoi(minSec[0])
	if err != nil || min < 0 {
		return 0, false
	}
	sec, err := strconv.ParseFloat(minSec[1], 64)
	if err != nil || sec < 0 {
		return 0, false
	}
	return float64(min)*60 + sec, true
}

func splitTranslation(text string) (string, string) {
	parts := strings.SplitN(text, "|", 2)
	if len(parts) == 2 {
		return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	}
	return text, ""
}
