package caption

import (
	"fmt"
	"sort"
	"strings"

	"github.com/beevik/etree"
)

const (
	ttmlNamespace        = "http://www.w3.org/ns/ttml"
	ttmlStylingNamespace = "http://www.w3.org/ns/ttml#styling"
)

// ids synthesized by default settings
const (
	DefaultStyleID  = "default"
	DefaultRegionID = "bottom"
)

var (
	dfxpDefaultStyle = Style{
		Color:      "white",
		FontFamily: "monospace",
		FontSize:   "1c",
	}
	dfxpDefaultRegion = Region{
		Box: Box{
			X:            safeAreaMargin,
			Y:            safeAreaMargin,
			Width:        safeAreaSize,
			Height:       safeAreaSize,
			Placed:       true,
			Align:        AlignCenter,
			DisplayAlign: VAlignBottom,
		},
	}
)

// DFXP/TTML writer
type DFXPWriter struct {
	opts WriteOptions
}

func (w *DFXPWriter) Write(set *CaptionSet) (string, error) {
	if err := set.Validate(); err != nil {
		return "", err
	}

	styles := make(map[string]Style, len(set.Styles)+1)
	for id, st := range set.Styles {
		styles[id] = st
	}
	regions := make(map[string]Region, len(set.Regions)+1)
	for id, r := range set.Regions {
		regions[id] = r
	}
	if w.opts.DefaultSettings {
		if _, ok := styles[DefaultStyleID]; !ok {
			styles[DefaultStyleID] = dfxpDefaultStyle
		}
		if _, ok := regions[DefaultRegionID]; !ok {
			regions[DefaultRegionID] = dfxpDefaultRegion
		}
	}

	langs := set.Languages()
	cueRegions := w.assignRegions(set, langs, regions)

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	doc.CreateText("\n")

	tt := doc.CreateElement("tt")
	if len(langs) > 0 {
		tt.CreateAttr("xml:lang", langs[0])
	}
	tt.CreateAttr("xmlns", ttmlNamespace)
	tt.CreateAttr("xmlns:tts", ttmlStylingNamespace)

	head := appendIndented(tt, "head", 1)
	styling := appendIndented(head, "styling", 2)
	for _, id := range sortedKeys(styles) {
		el := appendIndented(styling, "style", 3)
		el.CreateAttr("xml:id", id)
		setStyleAttrs(el, styles[id], Style{})
	}
	closeIndented(styling, 2)

	layout := appendIndented(head, "layout", 2)
	for _, id := range sortedKeys(regions) {
		el := appendIndented(layout, "region", 3)
		el.CreateAttr("xml:id", id)
		setBoxAttrs(el, regions[id].Box)
		setStyleAttrs(el, regions[id].Style, Style{})
	}
	closeIndented(layout, 2)
	closeIndented(head, 1)

	body := appendIndented(tt, "body", 1)
	for _, lang := range langs {
		div := appendIndented(body, "div", 2)
		div.CreateAttr("xml:lang", lang)
		for _, c := range set.Captions(lang) {
			p := appendIndented(div, "p", 3)
			p.CreateAttr("begin", formatDFXPTime(c.Start))
			p.CreateAttr("end", formatDFXPTime(c.End))

			var base Style
			switch {
			case c.StyleID != "" && hasKey(styles, c.StyleID):
				p.CreateAttr("style", c.StyleID)
				base = styles[c.StyleID]
			case w.opts.DefaultSettings:
				p.CreateAttr("style", DefaultStyleID)
				base = styles[DefaultStyleID]
			}
			if id := cueRegions[c]; id != "" {
				p.CreateAttr("region", id)
			}
			writeDFXPNodes(p, Flatten(c.Nodes), base)
		}
		closeIndented(div, 2)
	}
	closeIndented(body, 1)
	closeIndented(tt, 0)
	doc.CreateText("\n")

	out, err := doc.WriteToString()
	if err != nil {
		return "", fmt.Errorf("failed to serialize dfxp: %w", err)
	}
	return out, nil
}

// region id for every cue, synthesizing regions for positioned cues
func (w *DFXPWriter) assignRegions(set *CaptionSet, langs []string, regions map[string]Region) map[*Caption]string {
	out := make(map[*Caption]string)
	synthesized := make(map[Box]string)
	next := 0

	for _, lang := range langs {
		for _, c := range set.Captions(lang) {
			switch {
			case c.RegionID != "" && hasKey(regions, c.RegionID):
				out[c] = c.RegionID
			case c.Position != nil:
				box := c.Position.AsBox()
				id, ok := synthesized[box]
				if !ok {
					for {
						id = fmt.Sprintf("r%d", next)
						next++
						if !hasKey(regions, id) {
							break
						}
					}
					regions[id] = Region{Box: box}
					synthesized[box] = id
				}
				out[c] = id
			case w.opts.DefaultSettings:
				out[c] = DefaultRegionID
			}
		}
	}
	return out
}

func writeDFXPNodes(p *etree.Element, nodes []Node, base Style) {
	for _, n := range nodes {
		switch v := n.(type) {
		case LineBreak:
			p.CreateElement("br")
		case Text:
			attrs := styleAttrs(v.Style, base)
			if len(attrs) == 0 {
				p.CreateText(v.Content)
				continue
			}
			span := p.CreateElement("span")
			for _, a := range attrs {
				span.CreateAttr(a[0], a[1])
			}
			span.CreateText(v.Content)
		}
	}
}

func setStyleAttrs(el *etree.Element, st, base Style) {
	for _, a := range styleAttrs(st, base) {
		el.CreateAttr(a[0], a[1])
	}
}

// tts attributes needed to turn base into st
func styleAttrs(st, base Style) [][2]string {
	var out [][2]string
	if st.Italic != base.Italic {
		out = append(out, [2]string{"tts:fontStyle", pickString(st.Italic, "italic", "normal")})
	}
	if st.Bold != base.Bold {
		out = append(out, [2]string{"tts:fontWeight", pickString(st.Bold, "bold", "normal")})
	}
	if st.Underline != base.Underline {
		out = append(out, [2]string{"tts:textDecoration", pickString(st.Underline, "underline", "noUnderline")})
	}
	if st.Color != "" && st.Color != base.Color {
		out = append(out, [2]string{"tts:color", st.Color})
	}
	if st.BackgroundColor != "" && st.BackgroundColor != base.BackgroundColor {
		out = append(out, [2]string{"tts:backgroundColor", st.BackgroundColor})
	}
	if st.FontFamily != "" && st.FontFamily != base.FontFamily {
		out = append(out, [2]string{"tts:fontFamily", st.FontFamily})
	}
	if st.FontSize != "" && st.FontSize != base.FontSize {
		out = append(out, [2]string{"tts:fontSize", st.FontSize})
	}
	return out
}

func setBoxAttrs(el *etree.Element, b Box) {
	if b.Placed {
		el.CreateAttr("tts:origin", formatPercent(b.X)+" "+formatPercent(b.Y))
	}
	if b.Width > 0 || b.Height > 0 {
		el.CreateAttr("tts:extent", formatPercent(b.Width)+" "+formatPercent(b.Height))
	}
	if b.Align != AlignUnset {
		el.CreateAttr("tts:textAlign", b.Align.String())
	}
	switch b.DisplayAlign {
	case VAlignTop:
		el.CreateAttr("tts:displayAlign", "before")
	case VAlignCenter:
		el.CreateAttr("tts:displayAlign", "center")
	case VAlignBottom:
		el.CreateAttr("tts:displayAlign", "after")
	}
}

// adds a child on its own indented line, leaving mixed content untouched
func appendIndented(parent *etree.Element, tag string, depth int) *etree.Element {
	parent.CreateText("\n" + strings.Repeat("  ", depth))
	return parent.CreateElement(tag)
}

// indents the closing tag of an element that has children
func closeIndented(el *etree.Element, depth int) {
	if len(el.ChildElements()) == 0 {
		return
	}
	el.CreateText("\n" + strings.Repeat("  ", depth))
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func hasKey[V any](m map[string]V, k string) bool {
	_, ok := m[k]
	return ok
}

func pickString(cond bool, yes, no string) string {
	if cond {
		return yes
	}
	return no
}
