package caption

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/net/html"
)

// SAMI writer
type SAMIWriter struct {
	opts WriteOptions
}

// paragraph scheduled at a sync point
type samiEvent struct {
	lang    string
	caption *Caption // nil for a terminator
}

// reports whether one of the later cues starts before t and ends after it
func laterCueShowing(later CaptionList, t time.Duration) bool {
	for _, c := range later {
		if c.Start >= t {
			return false
		}
		if c.End > t {
			return true
		}
	}
	return false
}

func (w *SAMIWriter) Write(set *CaptionSet) (string, error) {
	if err := set.Validate(); err != nil {
		return "", err
	}

	langs := set.Languages()
	events := make(map[time.Duration][]samiEvent)
	for _, lang := range langs {
		list := set.Captions(lang)
		for i, c := range list {
			events[c.Start] = append(events[c.Start], samiEvent{lang: lang, caption: c})
			if i+1 < len(list) && list[i+1].Start == c.End {
				continue
			}
			// a later overlapping cue has replaced this one and is still showing
			if laterCueShowing(list[i+1:], c.End) {
				continue
			}
			events[c.End] = append(events[c.End], samiEvent{lang: lang})
		}
	}

	starts := make([]time.Duration, 0, len(events))
	for t := range events {
		starts = append(starts, t)
	}
	sort.Slice(starts, func(i, j int) bool { return starts[i] < starts[j] })

	var sb strings.Builder
	sb.WriteString("<SAMI>\n<HEAD>\n<STYLE TYPE=\"text/css\">\n<!--\n")
	sb.WriteString("P {\n  font-family: sans-serif;\n  text-align: center;\n}\n")
	for _, lang := range langs {
		fmt.Fprintf(&sb, ".%s {\n  lang: %s;\n}\n", samiClassName(lang), lang)
	}
	for _, id := range sortedKeys(set.Styles) {
		decls := cssDeclarations(set.Styles[id])
		if len(decls) == 0 {
			continue
		}
		fmt.Fprintf(&sb, "#%s {\n", id)
		for _, d := range decls {
			fmt.Fprintf(&sb, "  %s;\n", d)
		}
		sb.WriteString("}\n")
	}
	sb.WriteString("-->\n</STYLE>\n</HEAD>\n<BODY>\n")

	for _, t := range starts {
		evs := events[t]
		// a cue starting here replaces the terminator of its own track
		var kept []samiEvent
		for _, ev := range evs {
			if ev.caption == nil && hasCueFor(evs, ev.lang) {
				continue
			}
			kept = append(kept, ev)
		}

		fmt.Fprintf(&sb, "<SYNC Start=%d>\n", t.Milliseconds())
		for _, ev := range kept {
			sb.WriteString(w.paragraph(set, ev))
		}
		sb.WriteString("</SYNC>\n")
	}

	sb.WriteString("</BODY>\n</SAMI>\n")
	return sb.String(), nil
}

func hasCueFor(evs []samiEvent, lang string) bool {
	for _, ev := range evs {
		if ev.lang == lang && ev.caption != nil {
			return true
		}
	}
	return false
}

func (w *SAMIWriter) paragraph(set *CaptionSet, ev samiEvent) string {
	class := samiClassName(ev.lang)
	if ev.caption == nil {
		return fmt.Sprintf("  <P Class=\"%s\">&nbsp;</P>\n", class)
	}
	c := ev.caption

	var attrs strings.Builder
	fmt.Fprintf(&attrs, " Class=\"%s\"", class)

	var base Style
	if c.StyleID != "" {
		if st, ok := set.Styles[c.StyleID]; ok {
			base = st
			fmt.Fprintf(&attrs, " ID=\"%s\"", html.EscapeString(c.StyleID))
		}
	}
	if c.Position != nil {
		if decls := positionDeclarations(c.Position.AsBox()); len(decls) > 0 {
			fmt.Fprintf(&attrs, " Style=\"%s\"", strings.Join(decls, "; "))
		}
	}

	var lines []string
	for _, line := range c.Lines() {
		var sb strings.Builder
		for _, t := range line {
			sb.WriteString(samiRun(t, base))
		}
		lines = append(lines, sb.String())
	}
	return fmt.Sprintf("  <P%s>%s</P>\n", attrs.String(), strings.Join(lines, "<br/>"))
}

// escaped run wrapped in the tags that turn base into its style
func samiRun(t Text, base Style) string {
	var open, closing []string
	add := func(o, c string) {
		open = append(open, o)
		closing = append([]string{c}, closing...)
	}
	if t.Style.Color != "" && t.Style.Color != base.Color {
		add(`<font color="`+html.EscapeString(t.Style.Color)+`">`, "</font>")
	}
	if t.Style.Bold && !base.Bold {
		add("<b>", "</b>")
	}
	if t.Style.Italic && !base.Italic {
		add("<i>", "</i>")
	}
	if t.Style.Underline && !base.Underline {
		add("<u>", "</u>")
	}
	return strings.Join(open, "") + html.EscapeString(t.Content) + strings.Join(closing, "")
}

// class name for a language tag
func samiClassName(lang string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, lang)
}

func cssDeclarations(st Style) []string {
	var out []string
	if st.Color != "" {
		out = append(out, "color: "+st.Color)
	}
	if st.BackgroundColor != "" {
		out = append(out, "background-color: "+st.BackgroundColor)
	}
	if st.FontFamily != "" {
		out = append(out, "font-family: "+st.FontFamily)
	}
	if st.FontSize != "" {
		out = append(out, "font-size: "+st.FontSize)
	}
	if st.Italic {
		out = append(out, "font-style: italic")
	}
	if st.Bold {
		out = append(out, "font-weight: bold")
	}
	if st.Underline {
		out = append(out, "text-decoration: underline")
	}
	return out
}

func positionDeclarations(b Box) []string {
	var out []string
	if b.Placed {
		out = append(out, "left: "+formatPercent(b.X), "top: "+formatPercent(b.Y))
	}
	if b.Width > 0 {
		out = append(out, "width: "+formatPercent(b.Width))
	}
	if b.Height > 0 {
		out = append(out, "height: "+formatPercent(b.Height))
	}
	if b.Align != AlignUnset {
		out = append(out, "text-align: "+b.Align.String())
	}
	return out
}
