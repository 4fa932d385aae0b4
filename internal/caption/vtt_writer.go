package caption

import (
	"fmt"
	"strings"
)

// WebVTT writer
type VTTWriter struct {
	opts WriteOptions
}

func (w *VTTWriter) Write(set *CaptionSet) (string, error) {
	if err := set.Validate(); err != nil {
		return "", err
	}

	_, list := set.Track(w.opts.Language)

	var sb strings.Builder

	// VTT header
	sb.WriteString("WEBVTT\n\n")

	for _, c := range list {
		// timestamps: 00:00:00.000 --> 00:00:00.000
		sb.WriteString(fmt.Sprintf("%s --> %s",
			formatVTTTime(c.Start, w.opts.ForceWriteHours),
			formatVTTTime(c.End, w.opts.ForceWriteHours)))
		if settings := vttSettings(c.Position); settings != "" {
			sb.WriteString(" ")
			sb.WriteString(settings)
		}
		sb.WriteString("\n")

		for _, line := range renderInlineMarkup(c, markupVTT) {
			sb.WriteString(line)
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	return sb.String(), nil
}

// cue settings for a position; empty when there is none
func vttSettings(p *Position) string {
	if p == nil {
		return ""
	}
	b := p.AsBox()

	var parts []string
	if b.Placed {
		if b.X > 0 {
			parts = append(parts, "position:"+formatPercent(b.X))
		}
		parts = append(parts, "line:"+formatPercent(b.Y))
	}
	if b.Width > 0 {
		parts = append(parts, "size:"+formatPercent(min(b.Width, 100)))
	}
	if b.Align != AlignUnset {
		parts = append(parts, "align:"+b.Align.String())
	}
	return strings.Join(parts, " ")
}
