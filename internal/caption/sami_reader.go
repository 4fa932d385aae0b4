package caption

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/aymerick/douceur/css"
	"github.com/aymerick/douceur/parser"
	"golang.org/x/net/html"

	"github.com/mgpai22/capconv/internal/logging"
)

// SAMI reader
type SAMIReader struct {
	opts ReadOptions
}

var (
	samiSyncStart  = regexp.MustCompile(`^\s*(\d+)`)
	samiWhitespace = regexp.MustCompile("[ \t\r\n\u00a0]+")
)

// class declared in the STYLE block
type samiClass struct {
	lang  string
	style Style
}

type samiPara struct {
	lang     string
	styleID  string
	nodes    []Node
	position *Position
}

// whether the paragraph only clears the screen
func (p *samiPara) blank() bool {
	for _, n := range Flatten(p.nodes) {
		if t, ok := n.(Text); ok && strings.TrimSpace(t.Content) != "" {
			return false
		}
	}
	return true
}

type samiSync struct {
	start time.Duration
	paras []*samiPara
}

func (s *samiSync) hasLang(lang string) bool {
	for _, p := range s.paras {
		if p.lang == lang {
			return true
		}
	}
	return false
}

// tokenizer state for one document
type samiParser struct {
	opts    ReadOptions
	log     *logging.Logger
	classes map[string]samiClass
	ids     map[string]Style
	syncs   []*samiSync
	para    *samiPara
	stack   []markupFrame
	cur     Style
}

func (r *SAMIReader) Read(text string) (*CaptionSet, error) {
	p := &samiParser{
		opts:    r.opts,
		log:     r.opts.logger(),
		classes: make(map[string]samiClass),
		ids:     make(map[string]Style),
	}
	if err := p.parse(strings.TrimPrefix(text, "\ufeff")); err != nil {
		return nil, err
	}

	sort.SliceStable(p.syncs, func(i, j int) bool {
		return p.syncs[i].start < p.syncs[j].start
	})

	tracks := make(map[string]CaptionList)
	for i, s := range p.syncs {
		for _, para := range s.paras {
			if para.blank() {
				continue
			}
			end := s.start + r.opts.defaultDuration()
			for _, next := range p.syncs[i+1:] {
				if next.start > s.start && next.hasLang(para.lang) {
					end = next.start
					break
				}
			}
			tracks[para.lang] = append(tracks[para.lang], &Caption{
				Start:    s.start,
				End:      end,
				Nodes:    normalizeNodes(para.nodes),
				Position: para.position,
				StyleID:  para.styleID,
			})
		}
	}
	if len(tracks) == 0 {
		return nil, noCaptions(FormatSAMI)
	}

	set := NewCaptionSet()
	for lang, list := range tracks {
		set.SetCaptions(lang, list)
	}
	for id, st := range p.ids {
		set.Styles[id] = st
	}
	return set, nil
}

func (p *samiParser) parse(text string) error {
	z := html.NewTokenizer(strings.NewReader(text))
	line := 1
	inStyle := false

	for {
		tt := z.Next()
		tokenLine := line
		line += strings.Count(string(z.Raw()), "\n")

		switch tt {
		case html.ErrorToken:
			p.closePara()
			return nil

		case html.TextToken:
			if inStyle {
				p.parseStyleSheet(string(z.Text()))
				continue
			}
			p.text(string(z.Text()))

		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			switch tok.Data {
			case "style":
				inStyle = tt == html.StartTagToken
			case "sync":
				p.closePara()
				start, ok := samiStart(tok)
				if !ok {
					return invalidf(FormatSAMI, tokenLine, "sync without a valid start time")
				}
				p.syncs = append(p.syncs, &samiSync{start: start})
			case "p":
				p.closePara()
				if len(p.syncs) == 0 {
					p.log.Debugw("sami paragraph outside sync", "line", tokenLine)
					continue
				}
				p.openPara(tok)
			case "br":
				if p.para != nil {
					p.para.nodes = append(p.para.nodes, LineBreak{})
				}
			default:
				if p.para == nil || tt == html.SelfClosingTagToken {
					continue
				}
				p.stack = append(p.stack, markupFrame{tag: tok.Data, style: p.cur})
				p.cur = p.cur.Merge(tagStyle(tok)).Merge(p.inlineStyle(tok))
			}

		case html.EndTagToken:
			tok := z.Token()
			switch tok.Data {
			case "style":
				inStyle = false
			case "p", "sync", "body":
				p.closePara()
			default:
				for i := len(p.stack) - 1; i >= 0; i-- {
					if p.stack[i].tag == tok.Data {
						p.cur = p.stack[i].style
						p.stack = p.stack[:i]
						break
					}
				}
			}
		}
	}
}

func samiStart(tok html.Token) (time.Duration, bool) {
	for _, a := range tok.Attr {
		if a.Key != "start" {
			continue
		}
		m := samiSyncStart.FindStringSubmatch(a.Val)
		if m == nil {
			return 0, false
		}
		ms, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return 0, false
		}
		return time.Duration(ms) * time.Millisecond, true
	}
	return 0, false
}

func (p *samiParser) openPara(tok html.Token) {
	para := &samiPara{lang: p.opts.language()}
	var base Style
	var decls []*css.Declaration

	for _, a := range tok.Attr {
		switch a.Key {
		case "class":
			if class, ok := p.classes[strings.ToLower(a.Val)]; ok {
				if class.lang != "" {
					para.lang = class.lang
				}
				base = base.Merge(class.style)
			} else {
				p.log.Debugw("sami paragraph with undeclared class", "class", a.Val)
			}
		case "id":
			if st, ok := p.ids[a.Val]; ok {
				para.styleID = a.Val
				base = base.Merge(st)
			}
		case "style":
			var err error
			decls, err = parser.ParseDeclarations(a.Val)
			if err != nil {
				p.log.Debugw("ignoring malformed sami inline style", "style", a.Val, "error", err)
				decls = nil
			}
		}
	}

	props := declarationMap(decls)
	para.position = samiPosition(props)
	p.cur = base.Merge(cssStyle(props))
	p.stack = nil
	p.para = para
}

func (p *samiParser) closePara() {
	if p.para == nil {
		return
	}
	sync := p.syncs[len(p.syncs)-1]
	sync.paras = append(sync.paras, p.para)
	p.para = nil
	p.stack = nil
	p.cur = Style{}
}

func (p *samiParser) text(s string) {
	if p.para == nil {
		if len(p.syncs) == 0 || strings.TrimSpace(s) == "" {
			return
		}
		// text straight inside a sync
		p.para = &samiPara{lang: p.opts.language()}
	}
	s = samiWhitespace.ReplaceAllString(s, " ")
	if s != "" {
		p.para.nodes = append(p.para.nodes, Text{Content: s, Style: p.cur})
	}
}

func (p *samiParser) inlineStyle(tok html.Token) Style {
	for _, a := range tok.Attr {
		if a.Key != "style" {
			continue
		}
		decls, err := parser.ParseDeclarations(a.Val)
		if err != nil {
			p.log.Debugw("ignoring malformed sami inline style", "style", a.Val, "error", err)
			return Style{}
		}
		return cssStyle(declarationMap(decls))
	}
	return Style{}
}

// reads class languages and id styles from the STYLE block
func (p *samiParser) parseStyleSheet(text string) {
	sheet, err := parser.Parse(text)
	if err != nil {
		p.log.Debugw("ignoring malformed sami style sheet", "error", err)
		return
	}
	for _, rule := range sheet.Rules {
		if rule.Kind != css.QualifiedRule {
			continue
		}
		props := declarationMap(rule.Declarations)
		for _, sel := range rule.Selectors {
			sel = strings.TrimSpace(sel)
			switch {
			case strings.HasPrefix(sel, "."):
				name := strings.ToLower(sel[1:])
				p.classes[name] = samiClass{lang: props["lang"], style: cssStyle(props)}
			case strings.HasPrefix(sel, "#"):
				p.ids[sel[1:]] = cssStyle(props)
			}
		}
	}
}

func declarationMap(decls []*css.Declaration) map[string]string {
	out := make(map[string]string, len(decls))
	for _, d := range decls {
		out[strings.ToLower(d.Property)] = strings.TrimSpace(d.Value)
	}
	return out
}

func cssStyle(props map[string]string) Style {
	st := Style{
		Color:           normalizeColor(props["color"]),
		BackgroundColor: normalizeColor(props["background-color"]),
		FontFamily:      props["font-family"],
		FontSize:        props["font-size"],
	}
	switch strings.ToLower(props["font-style"]) {
	case "italic", "oblique":
		st.Italic = true
	}
	switch strings.ToLower(props["font-weight"]) {
	case "bold", "bolder", "700", "800", "900":
		st.Bold = true
	}
	st.Underline = strings.Contains(strings.ToLower(props["text-decoration"]), "underline")
	return st
}

// box from CSS offsets given in percent; nil when there are none
func samiPosition(props map[string]string) *Position {
	var box Box
	found := false

	x, okX := firstPercent(props, "left", "margin-left")
	y, okY := firstPercent(props, "top", "margin-top")
	if okX || okY {
		box.X, box.Y, box.Placed = x, y, true
		found = true
	}
	if w, ok := parsePercent(props["width"]); ok {
		box.Width = w
		found = true
	}
	if h, ok := parsePercent(props["height"]); ok {
		box.Height = h
		found = true
	}
	if a := parseAlign(strings.ToLower(props["text-align"])); a != AlignUnset {
		box.Align = a
		found = true
	}

	if !found {
		return nil
	}
	return BoxPosition(box)
}

func firstPercent(props map[string]string, keys ...string) (float64, bool) {
	for _, k := range keys {
		if v, ok := parsePercent(props[k]); ok {
			return v, true
		}
	}
	return 0, false
}
