package caption

import (
	"bufio"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// SubRip reader
type SRTReader struct {
	opts ReadOptions
}

var srtTimingRegex = regexp.MustCompile(
	`^\s*(\d+):(\d{2}):(\d{2})[,.](\d{1,3})\s*-->\s*(\d+):(\d{2}):(\d{2})[,.](\d{1,3})`,
)

func (r *SRTReader) Read(text string) (*CaptionSet, error) {
	log := r.opts.logger()

	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var (
		list      CaptionList
		current   *Caption
		textLines []string
		indexLine int
		lineNum   int
	)

	flush := func() {
		if current != nil {
			current.Nodes = parseInlineMarkup(strings.Join(textLines, "\n"), markupSRT)
			list = append(list, current)
		}
		current = nil
		textLines = nil
	}

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		lineNum++

		if lineNum == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
		}

		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}

		if current != nil {
			textLines = append(textLines, line)
			continue
		}

		if indexLine == 0 {
			if _, err := strconv.Atoi(strings.TrimSpace(line)); err == nil {
				indexLine = lineNum
				continue
			}
			log.Debugw("srt block without index line", "line", lineNum)
		}

		start, end, err := parseSRTTiming(line, lineNum)
		if err != nil {
			return nil, err
		}
		current = &Caption{Start: start, End: end}
		indexLine = 0
	}

	if err := scanner.Err(); err != nil {
		return nil, invalidf(FormatSRT, lineNum, "error reading input: %v", err)
	}
	flush()

	if indexLine != 0 {
		return nil, invalidf(FormatSRT, indexLine, "index line without timing line")
	}
	if len(list) == 0 {
		return nil, noCaptions(FormatSRT)
	}

	set := NewCaptionSet()
	set.SetCaptions(r.opts.language(), list)
	return set, nil
}

func parseSRTTiming(line string, lineNum int) (time.Duration, time.Duration, error) {
	matches := srtTimingRegex.FindStringSubmatch(line)
	if len(matches) != 9 {
		return 0, 0, invalidf(FormatSRT, lineNum, "expected timing line, got %q", excerpt(line))
	}

	start, err := clockDuration(matches[1], matches[2], matches[3], matches[4])
	if err != nil {
		return 0, 0, invalidf(FormatSRT, lineNum, "invalid start timestamp: %v", err)
	}
	end, err := clockDuration(matches[5], matches[6], matches[7], matches[8])
	if err != nil {
		return 0, 0, invalidf(FormatSRT, lineNum, "invalid end timestamp: %v", err)
	}
	if end < start {
		return 0, 0, invalidf(FormatSRT, lineNum, "end time %s before start time %s",
			formatSRTTime(end), formatSRTTime(start))
	}
	return start, end, nil
}

// shortened line for error messages
func excerpt(line string) string {
	const limit = 40
	r := []rune(line)
	if len(r) <= limit {
		return line
	}
	return string(r[:limit]) + "..."
}
