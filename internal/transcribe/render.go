package transcribe

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
)

const unknownSpeaker = "UNKNOWN"

// Render produces the transcript text stored on disk. Without speaker labels
// the trimmed segment texts are joined by single spaces. With labels, runs of
// one speaker are merged into "SPEAKER: text" lines.
func Render(t Transcript) string {
	if !t.Diarized() {
		parts := make([]string, 0, len(t.Segments))
		for _, s := range t.Segments {
			if text := strings.TrimSpace(s.Text); text != "" {
				parts = append(parts, text)
			}
		}
		return strings.Join(parts, " ")
	}

	var lines []string
	var speaker string
	var turn []string

	flush := func() {
		if len(turn) > 0 {
			lines = append(lines, speaker+": "+strings.Join(turn, " "))
		}
		turn = nil
	}

	for _, s := range t.Segments {
		text := strings.TrimSpace(s.Text)
		if text == "" {
			continue
		}
		who := s.Speaker
		if who == "" {
			who = unknownSpeaker
		}
		if who != speaker {
			flush()
			speaker = who
		}
		turn = append(turn, text)
	}
	flush()

	return strings.Join(lines, "\n")
}

// parseSRT reads SubRip cues into segments.
func parseSRT(content string) ([]Segment, error) {
	var segments []Segment
	sc := bufio.NewScanner(strings.NewReader(content))

	var cur *Segment
	var text []string
	flush := func() {
		if cur != nil {
			cur.Text = strings.Join(text, " ")
			segments = append(segments, *cur)
		}
		cur, text = nil, nil
	}

	for sc.Scan() {
		line := strings.TrimSpace(strings.TrimPrefix(sc.Text(), "\ufeff"))
		switch {
		case line == "":
			flush()
		case cur == nil && strings.Contains(line, "-->"):
			start, end, err := parseCueTiming(line)
			if err != nil {
				return nil, err
			}
			cur = &Segment{Start: start, End: end}
		case cur == nil:
			// cue index
		default:
			text = append(text, line)
		}
	}
	flush()

	if err := sc.Err(); err != nil {
		return nil, err
	}
	return segments, nil
}

func parseCueTiming(line string) (float64, float64, error) {
	parts := strings.SplitN(line, "-->", 2)
	start, err := parseTimestamp(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, err
	}
	end, err := parseTimestamp(strings.Fields(parts[1])[0])
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

// parseTimestamp parses HH:MM:SS,mmm into seconds.
func parseTimestamp(ts string) (float64, error) {
	ts = strings.Replace(ts, ",", ".", 1)
	hms := strings.Split(ts, ":")
	if len(hms) != 3 {
		return 0, fmt.Errorf("invalid srt timestamp %q", ts)
	}
	h, err := strconv.Atoi(hms[0])
	if err != nil {
		return 0, fmt.Errorf("invalid srt timestamp %q: %w", ts, err)
	}
	m, err := strconv.Atoi(hms[1])
	if err != nil {
		return 0, fmt.Errorf("invalid srt timestamp %q: %w", ts, err)
	}
	s, err := strconv.ParseFloat(hms[2], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid srt timestamp %q: %w", ts, err)
	}
	return float64(h*3600+m*60) + s, nil
}
