package caption

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// <00:01.000> karaoke timestamps inside WebVTT cue text
var cueTimestampTag = regexp.MustCompile(`<(?:\d+:)?\d{2}:\d{2}\.\d{3}>`)

// the tags SRT players understand; anything else in SRT cue text is literal
var srtTag = regexp.MustCompile(`(?i)<(/?)(i|b|u|font|br)(\s[^<>]*)?/?>`)

// SRT has no escaping convention, so only these three entities are decoded
var (
	srtUnescaper  = strings.NewReplacer("&lt;", "<", "&gt;", ">", "&amp;", "&")
	srtEntityLike = regexp.MustCompile(`&(lt|gt|amp);`)
)

// inline markup dialect of a plain-text cue format
type markupFlavor int

const (
	markupSRT markupFlavor = iota
	markupVTT
)

type markupFrame struct {
	tag   string
	style Style
}

// turns cue text with HTML-like tags into nodes
func parseInlineMarkup(text string, flavor markupFlavor) []Node {
	if flavor == markupSRT {
		return parseSRTMarkup(text)
	}
	if flavor == markupVTT {
		text = cueTimestampTag.ReplaceAllString(text, "")
	}

	z := html.NewTokenizer(strings.NewReader(text))
	var (
		out   []Node
		stack []markupFrame
		cur   Style
	)
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return normalizeNodes(out)
		case html.TextToken:
			out = appendTextLines(out, string(z.Text()), cur)
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			if tok.Data == "br" {
				out = append(out, LineBreak{})
				continue
			}
			if tt == html.SelfClosingTagToken {
				continue
			}
			stack = append(stack, markupFrame{tag: baseTag(tok.Data), style: cur})
			cur = cur.Merge(tagStyle(tok))
		case html.EndTagToken:
			name := baseTag(z.Token().Data)
			for i := len(stack) - 1; i >= 0; i-- {
				if stack[i].tag == name {
					cur = stack[i].style
					stack = stack[:i]
					break
				}
			}
		}
	}
}

// SRT cue text: known tags become styles, all other text is kept as written
func parseSRTMarkup(text string) []Node {
	var (
		out   []Node
		stack []markupFrame
		cur   Style
		last  int
	)
	for _, m := range srtTag.FindAllStringSubmatchIndex(text, -1) {
		out = appendTextLines(out, srtUnescaper.Replace(text[last:m[0]]), cur)
		last = m[1]

		name := strings.ToLower(text[m[4]:m[5]])
		switch {
		case name == "br":
			out = append(out, LineBreak{})
		case m[3] > m[2]:
			for i := len(stack) - 1; i >= 0; i-- {
				if stack[i].tag == name {
					cur = stack[i].style
					stack = stack[:i]
					break
				}
			}
		default:
			stack = append(stack, markupFrame{tag: name, style: cur})
			cur = cur.Merge(tagStyle(tagToken(text[m[0]:m[1]])))
		}
	}
	out = appendTextLines(out, srtUnescaper.Replace(text[last:]), cur)
	return normalizeNodes(out)
}

// tokenizes a single tag for its name and attributes
func tagToken(tag string) html.Token {
	z := html.NewTokenizer(strings.NewReader(tag))
	z.Next()
	return z.Token()
}

// escapes what the SRT reader would otherwise take as markup or an entity
func escapeSRTText(s string) string {
	s = srtEntityLike.ReplaceAllString(s, "&amp;$1;")
	return srtTag.ReplaceAllStringFunc(s, func(tag string) string {
		return "&lt;" + tag[1:]
	})
}

// appends text, turning newlines into LineBreak nodes
func appendTextLines(out []Node, text string, style Style) []Node {
	text = strings.ReplaceAll(text, "\r", "")
	for i, part := range strings.Split(text, "\n") {
		if i > 0 {
			out = append(out, LineBreak{})
		}
		if part != "" {
			out = append(out, Text{Content: part, Style: style})
		}
	}
	return out
}

// "c.yellow.bg_blue" -> "c"
func baseTag(name string) string {
	if i := strings.IndexByte(name, '.'); i >= 0 {
		return name[:i]
	}
	return name
}

func tagStyle(tok html.Token) Style {
	var st Style
	name := tok.Data
	switch baseTag(name) {
	case "i", "em":
		st.Italic = true
	case "b", "strong":
		st.Bold = true
	case "u":
		st.Underline = true
	case "font":
		for _, a := range tok.Attr {
			switch a.Key {
			case "color":
				st.Color = normalizeColor(a.Val)
			case "face":
				st.FontFamily = a.Val
			}
		}
	case "c":
		classes := strings.Split(name, ".")[1:]
		for _, class := range classes {
			if bg, ok := strings.CutPrefix(class, "bg_"); ok {
				if _, known := namedColors[bg]; known {
					st.BackgroundColor = bg
				}
				continue
			}
			if _, known := namedColors[class]; known {
				st.Color = class
			}
		}
	}
	return st
}

// renders a cue as text lines with inline tags, dropping lines with no text
func renderInlineMarkup(c *Caption, flavor markupFlavor) []string {
	var lines []string
	for _, line := range c.Lines() {
		var sb strings.Builder
		for _, t := range line {
			sb.WriteString(renderRun(t, flavor))
		}
		if strings.TrimSpace(sb.String()) == "" {
			continue
		}
		lines = append(lines, sb.String())
	}
	return lines
}

func renderRun(t Text, flavor markupFlavor) string {
	var open, closing []string
	add := func(o, c string) {
		open = append(open, o)
		closing = append([]string{c}, closing...)
	}

	if t.Style.Color != "" && t.Style.Color != "white" {
		switch flavor {
		case markupSRT:
			add(`<font color="`+t.Style.Color+`">`, "</font>")
		case markupVTT:
			if _, known := namedColors[t.Style.Color]; known {
				add("<c."+t.Style.Color+">", "</c>")
			}
		}
	}
	if t.Style.Bold {
		add("<b>", "</b>")
	}
	if t.Style.Italic {
		add("<i>", "</i>")
	}
	if t.Style.Underline {
		add("<u>", "</u>")
	}

	content := t.Content
	switch flavor {
	case markupSRT:
		content = escapeSRTText(content)
	case markupVTT:
		content = escapeVTTText(content)
	}
	return strings.Join(open, "") + content + strings.Join(closing, "")
}

var vttEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
)

func escapeVTTText(s string) string {
	return vttEscaper.Replace(s)
}
