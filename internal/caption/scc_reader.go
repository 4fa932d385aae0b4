package caption

import (
	"encoding/hex"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Scenarist SCC reader
type SCCReader struct {
	opts ReadOptions
}

const sccHeader = "Scenarist_SCC V1.0"

var (
	sccTimecode = regexp.MustCompile(`^(\d{2}):(\d{2}):(\d{2})([:;])(\d{2})$`)
	sccWord     = regexp.MustCompile(`^[0-9a-fA-F]{4}$`)
)

func (r *SCCReader) Read(text string) (*CaptionSet, error) {
	log := r.opts.logger()
	lines := splitLines(text)

	i := 0
	for i < len(lines) && strings.TrimSpace(lines[i]) == "" {
		i++
	}
	if i == len(lines) || strings.TrimSpace(lines[i]) != sccHeader {
		return nil, invalidf(FormatSCC, i+1, "missing %q header", sccHeader)
	}

	dec := newSCCDecoder(log)
	last := time.Duration(-1)
	for n := i + 1; n < len(lines); n++ {
		fields := strings.Fields(lines[n])
		if len(fields) == 0 {
			continue
		}

		t, err := parseSCCTimecode(fields[0])
		if err != nil {
			return nil, invalidf(FormatSCC, n+1, "%v", err)
		}
		if t < last {
			log.Debugw("scc timecode goes backwards", "line", n+1, "timecode", fields[0])
		}
		last = t

		for _, w := range fields[1:] {
			if !sccWord.MatchString(w) {
				log.Debugw("skipping malformed scc word", "line", n+1, "word", w)
				continue
			}
			b, _ := hex.DecodeString(w)
			dec.feed(t, b[0], b[1])
		}
	}

	list := dec.finish()
	if len(list) == 0 {
		return nil, noCaptions(FormatSCC)
	}

	set := NewCaptionSet()
	set.SetCaptions(r.opts.language(), list)
	return set, nil
}

// timecode to media time; frames count at 30000/1001 per second
func parseSCCTimecode(tc string) (time.Duration, error) {
	m := sccTimecode.FindStringSubmatch(tc)
	if m == nil {
		return 0, fmt.Errorf("malformed timecode %q", tc)
	}
	h, _ := strconv.Atoi(m[1])
	mins, _ := strconv.Atoi(m[2])
	s, _ := strconv.Atoi(m[3])
	ff, _ := strconv.Atoi(m[5])
	if mins > 59 || s > 59 || ff > 29 {
		return 0, fmt.Errorf("timecode field out of range in %q", tc)
	}

	frames := int64((h*3600+mins*60+s)*30 + ff)
	if m[4] == ";" {
		// drop-frame labels skip two frame numbers every minute except each tenth
		total := int64(h*60 + mins)
		frames -= 2 * (total - total/10)
	}
	return sccFrameTime(frames), nil
}

func sccFrameTime(frames int64) time.Duration {
	return time.Duration(frames*1001) * time.Second / 30000
}
