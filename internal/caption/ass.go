package caption

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/asticode/go-astisub"
)

// ASS/SSA reader backed by go-astisub
type ASSReader struct {
	opts ReadOptions
}

var (
	assToggleTag    = regexp.MustCompile(`\\([ibu])(\d)`)
	assColorTag     = regexp.MustCompile(`\\1?c&H([0-9A-Fa-f]{6})&`)
	assAlignmentTag = regexp.MustCompile(`\\an([1-9])`)
)

func (r *ASSReader) Read(text string) (*CaptionSet, error) {
	text = assHardBreaks(strings.TrimPrefix(text, "\ufeff"))
	subs, err := astisub.ReadFromSSA(strings.NewReader(text))
	if err != nil {
		return nil, &InvalidFormatError{
			Format: FormatASS,
			Reason: err.Error(),
			Err:    err,
		}
	}
	if len(subs.Items) == 0 {
		return nil, noCaptions(FormatASS)
	}

	log := r.opts.logger()
	var list CaptionList
	for i, item := range subs.Items {
		if item.EndAt < item.StartAt {
			return nil, invalidf(FormatASS, 0, "dialogue %d ends before it starts", i+1)
		}

		c := &Caption{Start: item.StartAt, End: item.EndAt}
		var st Style
		for j, line := range item.Lines {
			if j > 0 {
				c.Nodes = append(c.Nodes, LineBreak{})
			}
			for _, li := range line.Items {
				if li.InlineStyle != nil && li.InlineStyle.SSAEffect != "" {
					st = applyASSOverrides(st, li.InlineStyle.SSAEffect)
					if c.Position == nil {
						c.Position = assPosition(li.InlineStyle.SSAEffect)
					}
				}
				for k, part := range strings.Split(li.Text, `\n`) {
					if k > 0 {
						c.Nodes = append(c.Nodes, LineBreak{})
					}
					if part != "" {
						c.Nodes = append(c.Nodes, Text{Content: unescapeASSText(part), Style: st})
					}
				}
			}
		}
		c.Nodes = normalizeNodes(c.Nodes)
		if len(c.Nodes) == 0 {
			log.Debugw("ass dialogue without text", "index", i+1)
		}
		list = append(list, c)
	}

	set := NewCaptionSet()
	set.SetCaptions(r.opts.language(), list)
	return set, nil
}

// applies {\i1}-style toggles and colour overrides
func applyASSOverrides(st Style, effect string) Style {
	if strings.Contains(effect, `\r`) {
		st = Style{}
	}
	for _, m := range assToggleTag.FindAllStringSubmatch(effect, -1) {
		on := m[2] != "0"
		switch m[1] {
		case "i":
			st.Italic = on
		case "b":
			st.Bold = on
		case "u":
			st.Underline = on
		}
	}
	if m := assColorTag.FindStringSubmatch(effect); m != nil {
		bgr := strings.ToLower(m[1])
		st.Color = normalizeColor("#" + bgr[4:6] + bgr[2:4] + bgr[0:2])
	}
	return st
}

// numpad alignment tag as a box
func assPosition(effect string) *Position {
	m := assAlignmentTag.FindStringSubmatch(effect)
	if m == nil {
		return nil
	}
	n := int(m[1][0] - '0')
	box := Box{}
	switch (n - 1) % 3 {
	case 0:
		box.Align = AlignLeft
	case 1:
		box.Align = AlignCenter
	case 2:
		box.Align = AlignRight
	}
	switch (n - 1) / 3 {
	case 0:
		box.DisplayAlign = VAlignBottom
	case 1:
		box.DisplayAlign = VAlignCenter
	case 2:
		box.DisplayAlign = VAlignTop
	}
	return BoxPosition(box)
}

// ASS writer
type ASSWriter struct {
	opts     WriteOptions
	Title    string
	FontName string
	FontSize int
}

func (w *ASSWriter) Write(set *CaptionSet) (string, error) {
	if err := set.Validate(); err != nil {
		return "", err
	}

	_, list := set.Track(w.opts.Language)

	var sb strings.Builder

	// script info section
	sb.WriteString("[Script Info]\n")
	sb.WriteString(fmt.Sprintf("Title: %s\n", w.Title))
	sb.WriteString("ScriptType: v4.00+\n")
	sb.WriteString("Collisions: Normal\n")
	sb.WriteString("PlayDepth: 0\n\n")

	// v4+ styles section
	sb.WriteString("[V4+ Styles]\n")
	sb.WriteString("Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding\n")
	sb.WriteString(fmt.Sprintf("Style: Default,%s,%d,&H00FFFFFF,&H000000FF,&H00000000,&H00000000,0,0,0,0,100,100,0,0,1,2,2,2,10,10,10,1\n\n",
		w.FontName, w.FontSize))

	// events section
	sb.WriteString("[Events]\n")
	sb.WriteString("Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n")

	for _, c := range list {
		sb.WriteString(fmt.Sprintf("Dialogue: 0,%s,%s,Default,,0,0,0,,%s%s\n",
			formatASSTime(c.Start),
			formatASSTime(c.End),
			assAlignment(c.Position),
			assText(c)))
	}

	return sb.String(), nil
}

// cue text with override tags, rows joined by \N
func assText(c *Caption) string {
	var lines []string
	for _, line := range c.Lines() {
		var sb strings.Builder
		var cur Style
		for _, t := range line {
			sb.WriteString(assOverrides(cur, t.Style))
			sb.WriteString(escapeASSText(t.Content))
			cur = t.Style
		}
		if !cur.IsZero() {
			sb.WriteString(`{\r}`)
		}
		lines = append(lines, sb.String())
	}
	return strings.Join(lines, `\N`)
}

// override block turning cur into st; empty when nothing changes
func assOverrides(cur, st Style) string {
	var tags []string
	toggle := func(name string, from, to bool) {
		if from != to {
			tags = append(tags, fmt.Sprintf(`\%s%d`, name, boolInt(to)))
		}
	}
	toggle("i", cur.Italic, st.Italic)
	toggle("b", cur.Bold, st.Bold)
	toggle("u", cur.Underline, st.Underline)
	if st.Color != cur.Color {
		hex := namedColors[st.Color]
		if hex == "" && strings.HasPrefix(st.Color, "#") && len(st.Color) == 7 {
			hex = st.Color
		}
		if hex == "" {
			hex = "#ffffff"
		}
		tags = append(tags, `\c&H`+strings.ToUpper(hex[5:7]+hex[3:5]+hex[1:3])+`&`)
	}
	if len(tags) == 0 {
		return ""
	}
	return "{" + strings.Join(tags, "") + "}"
}

// {\anN} for cues not at the default bottom centre
func assAlignment(p *Position) string {
	if p == nil {
		return ""
	}
	col, row := 1, 0
	if p.Grid != nil {
		switch {
		case p.Grid.Row <= 5:
			row = 2
		case p.Grid.Row <= 10:
			row = 1
		}
	} else {
		b := p.AsBox()
		switch b.Align {
		case AlignLeft, AlignStart:
			col = 0
		case AlignRight, AlignEnd:
			col = 2
		}
		switch b.DisplayAlign {
		case VAlignTop:
			row = 2
		case VAlignCenter:
			row = 1
		case VAlignUnset:
			if b.Placed && b.Y < 33 {
				row = 2
			}
		}
	}
	n := row*3 + col + 1
	if n == 2 {
		return ""
	}
	return fmt.Sprintf(`{\an%d}`, n)
}

// \N and \n both become \n; escaped backslashes are left alone
func assHardBreaks(text string) string {
	var sb strings.Builder
	for i := 0; i < len(text); i++ {
		if text[i] != '\\' || i+1 == len(text) {
			sb.WriteByte(text[i])
			continue
		}
		switch text[i+1] {
		case 'N', 'n':
			sb.WriteString(`\n`)
		default:
			sb.WriteByte('\\')
			sb.WriteByte(text[i+1])
		}
		i++
	}
	return sb.String()
}

func escapeASSText(text string) string {
	replacer := strings.NewReplacer(
		"\\", "\\\\",
		"{", "\\{",
		"}", "\\}",
		"\n", "\\N",
	)
	return replacer.Replace(text)
}

func unescapeASSText(text string) string {
	replacer := strings.NewReplacer(
		"\\\\", "\\",
		"\\{", "{",
		"\\}", "}",
		"\\h", "\u00a0",
	)
	return replacer.Replace(text)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
