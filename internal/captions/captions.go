// Package captions parses timed-caption (WEBVTT-like) text into an ordered
// cue list, and stitches per-chunk transcriptions together by shifting each
// chunk's cue timestamps by its offset in the merged audio (spec §4.7).
package captions

import (
	"bufio"
	"regexp"
	"strconv"
	"strings"
)

// Cue is one timed caption entry.
type Cue struct {
	Text     string
	Start    float64 // seconds
	Duration float64 // seconds
}

var timestampLine = regexp.MustCompile(
	`^\s*(\d{1,2}:)?(\d{2}):(\d{2})[.,](\d{3})\s*-->\s*(\d{1,2}:)?(\d{2}):(\d{2})[.,](\d{3})`,
)

// Parse reads a UTF-8 WEBVTT document and returns its cues in order. Lines
// preceding "WEBVTT", blank lines, and NOTE blocks are ignored. Multi-line
// cue text is joined with single spaces. Cues with empty text are dropped.
func Parse(vtt string) []Cue {
	scanner := bufio.NewScanner(strings.NewReader(vtt))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var cues []Cue
	state := stateSeekHeader
	var start, end float64
	var textLines []string
	haveCue := false // true once a timestamp line has opened the current cue
	inNote := false

	flush := func() {
		if haveCue {
			text := strings.TrimSpace(strings.Join(textLines, " "))
			if text != "" {
				cues = append(cues, Cue{Text: text, Start: start, Duration: end - start})
			}
		}
		textLines = nil
		haveCue = false
	}

	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)

		switch state {
		case stateSeekHeader:
			if strings.HasPrefix(trimmed, "WEBVTT") {
				state = stateBody
			}
			continue
		case stateBody:
			if trimmed == "" {
				flush()
				inNote = false
				continue
			}
			if strings.HasPrefix(trimmed, "NOTE") {
				flush()
				inNote = true
				continue
			}
			if inNote {
				continue
			}
			if m := timestampLine.FindStringSubmatch(trimmed); m != nil {
				flush()
				start = parseTimestampParts(m[1], m[2], m[3], m[4])
				end = parseTimestampParts(m[5], m[6], m[7], m[8])
				haveCue = true
				continue
			}
			// A bare cue-identifier line (a numeric index, or a WebVTT cue
			// id) precedes the timestamp line; discard it since haveCue is
			// still false for the cue it belongs to. Once haveCue is true,
			// every subsequent line up to the blank separator is cue text.
			if haveCue {
				textLines = append(textLines, trimmed)
			}
		}
	}
	flush()
	return cues
}

const (
	stateSeekHeader = iota
	stateBody
)

// parseTimestampParts builds seconds from a HH:MM:SS.mmm or MM:SS.mmm match.
// hourPart includes the trailing colon (or is empty for MM:SS form).
func parseTimestampParts(hourPart, minPart, secPart, msPart string) float64 {
	var hours int
	if hourPart != "" {
		hours, _ = strconv.Atoi(strings.TrimSuffix(hourPart, ":"))
	}
	minutes, _ := strconv.Atoi(minPart)
	seconds, _ := strconv.Atoi(secPart)
	millis, _ := strconv.Atoi(msPart)
	return float64(hours*3600+minutes*60+seconds) + float64(millis)/1000.0
}

// MergeChunks shifts each chunk's cues by chunkIndex*chunkDuration seconds
// and concatenates them in chunk order, stitching per-chunk transcriptions
// into one timeline (spec §4.7 "Time-offset merging").
func MergeChunks(chunks [][]Cue, chunkDurationSec float64) []Cue {
	var merged []Cue
	for i, chunk := range chunks {
		offset := float64(i) * chunkDurationSec
		for _, c := range chunk {
			merged = append(merged, Cue{Text: c.Text, Start: c.Start + offset, Duration: c.Duration})
		}
	}
	return merged
}
