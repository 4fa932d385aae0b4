package caption

import (
	"encoding/xml"
	"errors"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/beevik/etree"

	"github.com/mgpai22/capconv/internal/logging"
)

// DFXP/TTML reader
type DFXPReader struct {
	opts ReadOptions
}

var stylingNamespaces = map[string]bool{
	"http://www.w3.org/ns/ttml#styling":       true,
	"http://www.w3.org/2006/10/ttaf1#styling": true,
	"http://www.w3.org/2006/04/ttaf1#styling": true,
}

var (
	dfxpClockTime = regexp.MustCompile(
		`^(\d{2,}):(\d{2}):(\d{2})(?:\.(\d+)|:(\d{2,})(?:\.(\d+))?)?$`,
	)
	dfxpOffsetTime = regexp.MustCompile(`^(\d+(?:\.\d+)?)(h|ms|m|s|f|t)$`)
)

func (r *DFXPReader) Read(text string) (*CaptionSet, error) {
	doc := etree.NewDocument()
	doc.ReadSettings.Permissive = true
	if err := doc.ReadFromString(strings.TrimPrefix(text, "\ufeff")); err != nil {
		e := &InvalidFormatError{
			Format: FormatDFXP,
			Reason: fmt.Sprintf("malformed XML: %v", err),
			Err:    err,
		}
		var syntaxErr *xml.SyntaxError
		if errors.As(err, &syntaxErr) {
			e.Line = syntaxErr.Line
		}
		return nil, e
	}

	root := doc.Root()
	if root == nil || root.Tag != "tt" {
		return nil, invalidf(FormatDFXP, 0, "missing tt root element")
	}

	res := newDFXPResolver(root, r.opts)

	body := childElement(root, "body")
	if body == nil {
		return nil, noCaptions(FormatDFXP)
	}

	lang := attrValue(root, "lang")
	if lang == "" {
		lang = r.opts.language()
	}

	bodyBegin, _, err := res.timeAttr(body, "begin")
	if err != nil {
		return nil, err
	}
	scope := dfxpScope{
		lang:     lang,
		region:   attrValue(body, "region"),
		offset:   bodyBegin,
		attrs:    res.elementAttrs(body, nil),
		preserve: attrValue(body, "space") == "preserve",
	}

	b := &dfxpBuilder{res: res, tracks: make(map[string]CaptionList), open: make(map[*Caption]bool)}
	if err := b.walk(body, scope); err != nil {
		return nil, err
	}
	if len(b.tracks) == 0 {
		return nil, noCaptions(FormatDFXP)
	}

	set := NewCaptionSet()
	for lang, list := range b.tracks {
		set.SetCaptions(lang, b.closeOpenEnds(set, list))
	}
	for id := range res.styles {
		set.Styles[id] = dfxpStyle(res.styleAttrs(id, nil))
	}
	for id := range res.regions {
		attrs := res.regionAttrs(id)
		region := Region{Style: dfxpStyle(attrs)}
		if box, ok := res.box(attrs); ok {
			region.Box = box
		}
		set.Regions[id] = region
	}
	return set, nil
}

// inherited state while descending body and div elements
type dfxpScope struct {
	lang     string
	region   string
	offset   time.Duration
	attrs    map[string]string
	preserve bool
}

type dfxpBuilder struct {
	res    *dfxpResolver
	tracks map[string]CaptionList
	open   map[*Caption]bool
}

func (b *dfxpBuilder) walk(el *etree.Element, scope dfxpScope) error {
	for _, child := range el.ChildElements() {
		switch child.Tag {
		case "div", "body":
			inner := scope
			if lang := attrValue(child, "lang"); lang != "" {
				inner.lang = lang
			}
			if region := attrValue(child, "region"); region != "" {
				inner.region = region
			}
			begin, _, err := b.res.timeAttr(child, "begin")
			if err != nil {
				return err
			}
			inner.offset += begin
			inner.attrs = mergeAttrs(scope.attrs, b.res.elementAttrs(child, nil))
			if space := attrValue(child, "space"); space != "" {
				inner.preserve = space == "preserve"
			}
			if err := b.walk(child, inner); err != nil {
				return err
			}
		case "p":
			c, open, err := b.res.caption(child, scope)
			if err != nil {
				return err
			}
			b.tracks[scope.lang] = append(b.tracks[scope.lang], c)
			if open {
				b.open[c] = true
			}
		}
	}
	return nil
}

// resolves cues without end or dur to the next cue's start
func (b *dfxpBuilder) closeOpenEnds(set *CaptionSet, list CaptionList) CaptionList {
	sorted := make(CaptionList, len(list))
	copy(sorted, list)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start < sorted[j].Start
	})

	for i, c := range sorted {
		if !b.open[c] {
			continue
		}
		c.End = c.Start + b.res.opts.defaultDuration()
		for _, next := range sorted[i+1:] {
			if next.Start > c.Start {
				c.End = next.Start
				break
			}
		}
		b.res.log.Debugw("dfxp cue without end", "begin", formatDFXPTime(c.Start), "end", formatDFXPTime(c.End))
	}
	return sorted
}

// document-wide tables and parameters used to resolve cues
type dfxpResolver struct {
	styles        map[string]*etree.Element
	regions       map[string]*etree.Element
	stylePrefixes map[string]bool
	frameRate     float64
	subFrameRate  float64
	tickRate      float64
	cellColumns   float64
	cellRows      float64
	extentWidth   float64
	extentHeight  float64
	opts          ReadOptions
	log           *logging.Logger
}

func newDFXPResolver(root *etree.Element, opts ReadOptions) *dfxpResolver {
	res := &dfxpResolver{
		styles:        make(map[string]*etree.Element),
		regions:       make(map[string]*etree.Element),
		stylePrefixes: map[string]bool{"tts": true},
		frameRate:     30,
		subFrameRate:  1,
		tickRate:      1,
		cellColumns:   32,
		cellRows:      15,
		opts:          opts,
		log:           opts.logger(),
	}

	for _, a := range root.Attr {
		if a.Space == "xmlns" && stylingNamespaces[a.Value] {
			res.stylePrefixes[a.Key] = true
		}
	}

	if v := attrValue(root, "frameRate"); v != "" {
		if rate, err := strconv.ParseFloat(v, 64); err == nil && rate > 0 {
			res.frameRate = rate
			res.tickRate = rate
		}
	}
	if v := strings.Fields(attrValue(root, "frameRateMultiplier")); len(v) == 2 {
		num, err1 := strconv.ParseFloat(v[0], 64)
		den, err2 := strconv.ParseFloat(v[1], 64)
		if err1 == nil && err2 == nil && num > 0 && den > 0 {
			res.frameRate = res.frameRate * num / den
		}
	}
	if v := attrValue(root, "subFrameRate"); v != "" {
		if rate, err := strconv.ParseFloat(v, 64); err == nil && rate > 0 {
			res.subFrameRate = rate
			if attrValue(root, "frameRate") != "" {
				res.tickRate = res.frameRate * rate
			}
		}
	}
	if v := attrValue(root, "tickRate"); v != "" {
		if rate, err := strconv.ParseFloat(v, 64); err == nil && rate > 0 {
			res.tickRate = rate
		}
	}
	if v := strings.Fields(attrValue(root, "cellResolution")); len(v) == 2 {
		cols, err1 := strconv.ParseFloat(v[0], 64)
		rows, err2 := strconv.ParseFloat(v[1], 64)
		if err1 == nil && err2 == nil && cols > 0 && rows > 0 {
			res.cellColumns, res.cellRows = cols, rows
		}
	}
	if v := strings.Fields(res.inlineStyling(root)["extent"]); len(v) == 2 {
		w, okW := pixels(v[0])
		h, okH := pixels(v[1])
		if okW && okH && w > 0 && h > 0 {
			res.extentWidth, res.extentHeight = w, h
		}
	}

	if head := childElement(root, "head"); head != nil {
		for _, styling := range childElements(head, "styling") {
			for _, st := range childElements(styling, "style") {
				if id := attrValue(st, "id"); id != "" {
					res.styles[id] = st
				}
			}
		}
		for _, layout := range childElements(head, "layout") {
			for _, region := range childElements(layout, "region") {
				if id := attrValue(region, "id"); id != "" {
					res.regions[id] = region
				}
			}
		}
	}
	return res
}

// builds a cue from a p element; open reports a missing end
func (res *dfxpResolver) caption(p *etree.Element, scope dfxpScope) (*Caption, bool, error) {
	begin, hasBegin, err := res.timeAttr(p, "begin")
	if err != nil {
		return nil, false, err
	}
	end, hasEnd, err := res.timeAttr(p, "end")
	if err != nil {
		return nil, false, err
	}
	dur, hasDur, err := res.timeAttr(p, "dur")
	if err != nil {
		return nil, false, err
	}

	if !hasBegin {
		// begin defaults to the start of the enclosing time container
		if hasEnd && hasDur {
			begin = max(end-dur, 0)
		}
		res.log.Debugw("dfxp p without begin", "begin", formatDFXPTime(scope.offset+begin), "text", excerpt(p.Text()))
	}

	c := &Caption{Start: scope.offset + begin}
	open := false
	switch {
	case hasEnd:
		c.End = scope.offset + end
	case hasDur:
		c.End = c.Start + dur
	default:
		open = true
		c.End = c.Start
	}
	if c.End < c.Start {
		res.log.Debugw("dfxp cue ends before it begins", "begin", formatDFXPTime(c.Start))
		c.End = c.Start
	}

	regionID := attrValue(p, "region")
	if regionID == "" {
		regionID = scope.region
	}
	_, regionOK := res.regions[regionID]

	var regionAttrs map[string]string
	if regionOK {
		regionAttrs = res.regionAttrs(regionID)
		c.RegionID = regionID
	} else if regionID != "" {
		res.log.Debugw("dfxp cue references unknown region", "region", regionID)
	}

	own := mergeAttrs(scope.attrs, res.elementAttrs(p, nil))
	attrs := mergeAttrs(regionAttrs, own)

	preserve := scope.preserve
	if space := attrValue(p, "space"); space != "" {
		preserve = space == "preserve"
	}
	state := &dfxpTextState{lineStart: true}
	c.Nodes = trimLineEnds(res.nodes(p, attrs, preserve, state))

	if refs := strings.Fields(attrValue(p, "style")); len(refs) > 0 {
		if _, ok := res.styles[refs[0]]; ok {
			c.StyleID = refs[0]
		}
	}

	c.Position = res.position(regionOK, regionAttrs, own, attrs)
	return c, open, nil
}

// region placement, or inline placement when invalid positioning is accepted
func (res *dfxpResolver) position(regionOK bool, regionAttrs, own, all map[string]string) *Position {
	var src map[string]string
	switch {
	case regionOK && res.opts.ReadInvalidPositioning:
		src = mergeAttrs(regionAttrs, pick(own, "origin", "extent", "displayAlign"))
	case regionOK:
		src = regionAttrs
	case res.opts.ReadInvalidPositioning:
		src = all
	default:
		return nil
	}

	box, ok := res.box(src)
	if !ok {
		return nil
	}
	if box.Align == AlignUnset {
		box.Align = parseAlign(all["textAlign"])
	}
	return BoxPosition(box)
}

// box described by origin, extent and alignment attributes
func (res *dfxpResolver) box(attrs map[string]string) (Box, bool) {
	var box Box
	found := false

	if v := attrs["origin"]; v != "" {
		if x, y, ok := res.lengthPair(v); ok {
			box.X, box.Y, box.Placed = x, y, true
			found = true
		} else {
			res.log.Debugw("ignoring unsupported dfxp origin", "origin", v)
		}
	}
	if v := attrs["extent"]; v != "" && v != "auto" {
		if w, h, ok := res.lengthPair(v); ok {
			box.Width, box.Height = w, h
			found = true
		}
	}
	if a := parseAlign(attrs["textAlign"]); a != AlignUnset {
		box.Align = a
		found = true
	}
	switch attrs["displayAlign"] {
	case "before":
		box.DisplayAlign = VAlignTop
		found = true
	case "center":
		box.DisplayAlign = VAlignCenter
		found = true
	case "after":
		box.DisplayAlign = VAlignBottom
		found = true
	}
	return box, found
}

func (res *dfxpResolver) lengthPair(v string) (float64, float64, bool) {
	parts := strings.Fields(v)
	if len(parts) != 2 {
		return 0, 0, false
	}
	x, okX := res.length(parts[0], true)
	y, okY := res.length(parts[1], false)
	return x, y, okX && okY
}

// length as a percentage of the frame
func (res *dfxpResolver) length(v string, horizontal bool) (float64, bool) {
	switch {
	case strings.HasSuffix(v, "%"):
		return parsePercent(v)
	case strings.HasSuffix(v, "px"):
		px, ok := pixels(v)
		if !ok {
			return 0, false
		}
		size := res.extentHeight
		if horizontal {
			size = res.extentWidth
		}
		if size == 0 {
			return 0, false
		}
		return px / size * 100, true
	case strings.HasSuffix(v, "c"):
		n, err := strconv.ParseFloat(strings.TrimSuffix(v, "c"), 64)
		if err != nil {
			return 0, false
		}
		cells := res.cellRows
		if horizontal {
			cells = res.cellColumns
		}
		return n / cells * 100, true
	}
	return 0, false
}

func pixels(v string) (float64, bool) {
	n, err := strconv.ParseFloat(strings.TrimSuffix(v, "px"), 64)
	return n, err == nil && strings.HasSuffix(v, "px")
}

// styling attributes from referenced styles, then the element's own
func (res *dfxpResolver) elementAttrs(el *etree.Element, seen map[string]bool) map[string]string {
	if seen == nil {
		seen = make(map[string]bool)
	}
	out := make(map[string]string)
	for _, id := range strings.Fields(attrValue(el, "style")) {
		out = mergeAttrs(out, res.styleAttrs(id, seen))
	}
	return mergeAttrs(out, res.inlineStyling(el))
}

// attributes of a declared style, following chained references
func (res *dfxpResolver) styleAttrs(id string, seen map[string]bool) map[string]string {
	if seen == nil {
		seen = make(map[string]bool)
	}
	el, ok := res.styles[id]
	if !ok || seen[id] {
		return nil
	}
	seen[id] = true
	return res.elementAttrs(el, seen)
}

// attributes of a declared region, including its nested styles
func (res *dfxpResolver) regionAttrs(id string) map[string]string {
	el, ok := res.regions[id]
	if !ok {
		return nil
	}
	out := make(map[string]string)
	for _, id := range strings.Fields(attrValue(el, "style")) {
		out = mergeAttrs(out, res.styleAttrs(id, nil))
	}
	for _, nested := range childElements(el, "style") {
		out = mergeAttrs(out, res.elementAttrs(nested, nil))
	}
	return mergeAttrs(out, res.inlineStyling(el))
}

func (res *dfxpResolver) inlineStyling(el *etree.Element) map[string]string {
	out := make(map[string]string)
	for _, a := range el.Attr {
		if res.stylePrefixes[a.Space] {
			out[a.Key] = strings.TrimSpace(a.Value)
		}
	}
	return out
}

// whitespace-collapsing state shared across nested spans
type dfxpTextState struct {
	lineStart bool
	lastSpace bool
}

func (res *dfxpResolver) nodes(el *etree.Element, attrs map[string]string, preserve bool, st *dfxpTextState) []Node {
	var out []Node
	for _, tok := range el.Child {
		switch t := tok.(type) {
		case *etree.CharData:
			s := t.Data
			if !preserve {
				s = st.collapse(s)
			}
			if s != "" {
				out = append(out, Text{Content: s, Style: dfxpStyle(attrs)})
			}
		case *etree.Element:
			switch t.Tag {
			case "br":
				out = append(out, LineBreak{})
				st.lineStart, st.lastSpace = true, false
			case "span":
				own := res.elementAttrs(t, nil)
				inner := preserve
				if space := attrValue(t, "space"); space != "" {
					inner = space == "preserve"
				}
				span := Span{
					Style:    dfxpStyle(own),
					Children: res.nodes(t, mergeAttrs(attrs, own), inner, st),
				}
				if refs := strings.Fields(attrValue(t, "style")); len(refs) > 0 {
					if _, ok := res.styles[refs[0]]; ok {
						span.StyleID = refs[0]
					}
				}
				out = append(out, span)
			case "metadata", "set", "animate":
			default:
				out = append(out, res.nodes(t, attrs, preserve, st)...)
			}
		}
	}
	return out
}

func (st *dfxpTextState) collapse(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch r {
		case ' ', '\t', '\n', '\r':
			if st.lineStart || st.lastSpace {
				continue
			}
			sb.WriteByte(' ')
			st.lastSpace = true
		default:
			sb.WriteRune(r)
			st.lineStart, st.lastSpace = false, false
		}
	}
	return sb.String()
}

// removes the blank that ends each line, descending into spans
func trimLineEnds(nodes []Node) []Node {
	pending := true
	var walk func(ns []Node) []Node
	walk = func(ns []Node) []Node {
		for i := len(ns) - 1; i >= 0; i-- {
			switch v := ns[i].(type) {
			case LineBreak:
				pending = true
			case Text:
				if pending {
					v.Content = strings.TrimRight(v.Content, " ")
					ns[i] = v
					if v.Content != "" {
						pending = false
					}
				}
			case Span:
				v.Children = walk(v.Children)
				ns[i] = v
			}
		}
		return ns
	}
	return walk(nodes)
}

// reads a timing attribute; ok reports presence
func (res *dfxpResolver) timeAttr(el *etree.Element, name string) (time.Duration, bool, error) {
	v := strings.TrimSpace(attrValue(el, name))
	if v == "" {
		return 0, false, nil
	}
	d, err := res.parseTime(v)
	if err != nil {
		return 0, false, invalidf(FormatDFXP, 0, "invalid %s time %q on %s: %v", name, v, el.Tag, err)
	}
	return d, true, nil
}

func (res *dfxpResolver) parseTime(v string) (time.Duration, error) {
	if m := dfxpClockTime.FindStringSubmatch(v); m != nil {
		d, err := clockDuration(m[1], m[2], m[3], m[4])
		if err != nil {
			return 0, err
		}
		if m[5] != "" {
			frames, err := strconv.ParseFloat(m[5], 64)
			if err != nil {
				return 0, err
			}
			if m[6] != "" {
				sub, err := strconv.ParseFloat(m[6], 64)
				if err != nil {
					return 0, err
				}
				frames += sub / res.subFrameRate
			}
			d += seconds(frames / res.frameRate)
		}
		return d, nil
	}

	if m := dfxpOffsetTime.FindStringSubmatch(v); m != nil {
		n, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return 0, err
		}
		switch m[2] {
		case "h":
			return seconds(n * 3600), nil
		case "m":
			return seconds(n * 60), nil
		case "s":
			return seconds(n), nil
		case "ms":
			return seconds(n / 1000), nil
		case "f":
			return seconds(n / res.frameRate), nil
		case "t":
			return seconds(n / res.tickRate), nil
		}
	}
	return 0, fmt.Errorf("unrecognized time expression")
}

func seconds(s float64) time.Duration {
	return time.Duration(math.Round(s * float64(time.Second)))
}

func dfxpStyle(attrs map[string]string) Style {
	st := Style{
		Color:           normalizeColor(attrs["color"]),
		BackgroundColor: normalizeColor(attrs["backgroundColor"]),
		FontFamily:      attrs["fontFamily"],
		FontSize:        attrs["fontSize"],
	}
	switch attrs["fontStyle"] {
	case "italic", "oblique":
		st.Italic = true
	}
	st.Bold = attrs["fontWeight"] == "bold"
	st.Underline = strings.Contains(attrs["textDecoration"], "underline")
	return st
}

// copy of base with over layered on top
func mergeAttrs(base, over map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(over))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range over {
		out[k] = v
	}
	return out
}

func pick(attrs map[string]string, keys ...string) map[string]string {
	out := make(map[string]string)
	for _, k := range keys {
		if v, ok := attrs[k]; ok {
			out[k] = v
		}
	}
	return out
}

// attribute by local name, whatever its prefix
func attrValue(el *etree.Element, local string) string {
	for _, a := range el.Attr {
		if a.Key == local && a.Space != "xmlns" {
			return a.Value
		}
	}
	return ""
}

func childElement(el *etree.Element, tag string) *etree.Element {
	for _, c := range el.ChildElements() {
		if c.Tag == tag {
			return c
		}
	}
	return nil
}

func childElements(el *etree.Element, tag string) []*etree.Element {
	var out []*etree.Element
	for _, c := range el.ChildElements() {
		if c.Tag == tag {
			out = append(out, c)
		}
	}
	return out
}
