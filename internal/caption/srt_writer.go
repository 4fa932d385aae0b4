package caption

import (
	"fmt"
	"strings"
)

// SubRip writer
type SRTWriter struct {
	opts WriteOptions
}

func (w *SRTWriter) Write(set *CaptionSet) (string, error) {
	if err := set.Validate(); err != nil {
		return "", err
	}

	_, list := set.Track(w.opts.Language)

	var sb strings.Builder
	for i, c := range list {
		// index (1-based)
		sb.WriteString(fmt.Sprintf("%d\n", i+1))

		// timestamps: 00:00:00,000 --> 00:00:00,000
		sb.WriteString(fmt.Sprintf("%s --> %s\n",
			formatSRTTime(c.Start),
			formatSRTTime(c.End)))

		for _, line := range renderInlineMarkup(c, markupSRT) {
			sb.WriteString(line)
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	return sb.String(), nil
}
