package caption

import (
	"regexp"
	"strconv"
	"strings"
)

// WebVTT reader
type VTTReader struct {
	opts ReadOptions
}

var vttTimingRegex = regexp.MustCompile(
	`^\s*(?:(\d+):)?(\d{2}):(\d{2})[.,](\d{3})\s*-->\s*(?:(\d+):)?(\d{2}):(\d{2})[.,](\d{3})(.*)$`,
)

func (r *VTTReader) Read(text string) (*CaptionSet, error) {
	log := r.opts.logger()
	lines := splitLines(text)

	if len(lines) == 0 || !vttSignature.MatchString(lines[0]) {
		return nil, invalidf(FormatVTT, 1, "missing WEBVTT header")
	}

	// header text runs until the first blank line
	i := 1
	for i < len(lines) && strings.TrimSpace(lines[i]) != "" {
		i++
	}

	var list CaptionList
	for i < len(lines) {
		if strings.TrimSpace(lines[i]) == "" {
			i++
			continue
		}

		blockStart := i
		var block []string
		for i < len(lines) && strings.TrimSpace(lines[i]) != "" {
			block = append(block, lines[i])
			i++
		}

		timing := -1
		for j, l := range block {
			if strings.Contains(l, "-->") {
				timing = j
				break
			}
		}

		if timing < 0 {
			if !isVTTMetadataBlock(block[0]) {
				log.Debugw("skipping webvtt block without timing", "line", blockStart+1)
			}
			continue
		}
		if timing > 1 {
			log.Debugw("ignoring extra lines before webvtt timing", "line", blockStart+1)
		}

		c, err := parseVTTTiming(block[timing], blockStart+timing+1)
		if err != nil {
			return nil, err
		}
		c.Nodes = parseInlineMarkup(strings.Join(block[timing+1:], "\n"), markupVTT)
		list = append(list, c)
	}

	if len(list) == 0 {
		return nil, noCaptions(FormatVTT)
	}

	set := NewCaptionSet()
	set.SetCaptions(r.opts.language(), list)
	return set, nil
}

func isVTTMetadataBlock(first string) bool {
	first = strings.TrimSpace(first)
	for _, kw := range []string{"NOTE", "STYLE", "REGION"} {
		if first == kw || strings.HasPrefix(first, kw+" ") || strings.HasPrefix(first, kw+"\t") {
			return true
		}
	}
	return false
}

func parseVTTTiming(line string, lineNum int) (*Caption, error) {
	matches := vttTimingRegex.FindStringSubmatch(line)
	if len(matches) != 10 {
		return nil, invalidf(FormatVTT, lineNum, "malformed timing line %q", excerpt(line))
	}

	start, err := clockDuration(matches[1], matches[2], matches[3], matches[4])
	if err != nil {
		return nil, invalidf(FormatVTT, lineNum, "invalid start timestamp: %v", err)
	}
	end, err := clockDuration(matches[5], matches[6], matches[7], matches[8])
	if err != nil {
		return nil, invalidf(FormatVTT, lineNum, "invalid end timestamp: %v", err)
	}
	if end < start {
		return nil, invalidf(FormatVTT, lineNum, "end time %s before start time %s",
			formatVTTTime(end, true), formatVTTTime(start, true))
	}

	return &Caption{
		Start:    start,
		End:      end,
		Position: parseVTTSettings(matches[9]),
	}, nil
}

// maps cue settings onto a box; nil when there are none
func parseVTTSettings(settings string) *Position {
	var box Box
	found := false

	for _, tok := range strings.Fields(settings) {
		key, val, ok := strings.Cut(tok, ":")
		if !ok {
			continue
		}
		// drop ",start" style anchors
		val, _, _ = strings.Cut(val, ",")

		switch key {
		case "position":
			if v, ok := parsePercent(val); ok {
				box.X = v
				box.Placed = true
				found = true
			}
		case "line":
			if v, ok := parsePercent(val); ok {
				box.Y = v
				box.Placed = true
				found = true
			} else if n, err := strconv.Atoi(val); err == nil {
				row := n + 1
				if n < 0 {
					row = GridRows + 1 + n
				}
				box.Y = GridToBox(Grid{Row: row}).Y
				box.Placed = true
				found = true
			}
		case "size":
			if v, ok := parsePercent(val); ok {
				box.Width = v
				found = true
			}
		case "align":
			if a := parseAlign(val); a != AlignUnset {
				box.Align = a
				found = true
			}
		}
	}

	if !found {
		return nil
	}
	return BoxPosition(box)
}

// "12.5%" -> 12.5
func parsePercent(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if !strings.HasSuffix(s, "%") {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// lines without terminators, BOM removed
func splitLines(text string) []string {
	text = strings.TrimPrefix(text, "\ufeff")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	lines := strings.Split(text, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
