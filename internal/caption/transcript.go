package caption

import "strings"

// plain text writer, one line per cue
type TranscriptWriter struct {
	opts WriteOptions
}

func (w *TranscriptWriter) Write(set *CaptionSet) (string, error) {
	if err := set.Validate(); err != nil {
		return "", err
	}

	_, list := set.Track(w.opts.Language)

	var sb strings.Builder
	var prev []string
	for _, c := range list {
		var rows []string
		for _, line := range strings.Split(c.Text(), "\n") {
			if line = strings.TrimSpace(line); line != "" {
				rows = append(rows, line)
			}
		}

		// roll-up windows repeat rows already written
		fresh := rows[rowOverlap(prev, rows):]
		prev = rows
		if len(fresh) == 0 {
			continue
		}
		sb.WriteString(strings.Join(fresh, " "))
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

// longest k where the last k rows of prev open cur
func rowOverlap(prev, cur []string) int {
	for k := min(len(prev), len(cur)); k > 0; k-- {
		match := true
		for i := 0; i < k; i++ {
			if prev[len(prev)-k+i] != cur[i] {
				match = false
				break
			}
		}
		if match {
			return k
		}
	}
	return 0
}
