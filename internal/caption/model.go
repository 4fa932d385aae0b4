package caption

import (
	"sort"
	"strings"
	"time"
)

// language used when a format carries none
const DefaultLanguage = "en-US"

// duration given to cues whose end the source leaves open
const DefaultCueDuration = 4 * time.Second

// element of a cue's content
type Node interface {
	node()
}

// run of text with its fully resolved style
type Text struct {
	Content string
	Style   Style
}

// forced line break inside a cue
type LineBreak struct{}

// styled grouping of nodes, kept for formats with declared styles
type Span struct {
	StyleID  string
	Style    Style
	Children []Node
}

func (Text) node()      {}
func (LineBreak) node() {}
func (Span) node()      {}

// single timed caption unit
type Caption struct {
	Start    time.Duration
	End      time.Duration
	Nodes    []Node
	Position *Position
	StyleID  string
	RegionID string
}

// time the cue stays on screen
func (c *Caption) Duration() time.Duration {
	return c.End - c.Start
}

// visible text, rows joined with "\n"
func (c *Caption) Text() string {
	var sb strings.Builder
	for _, n := range Flatten(c.Nodes) {
		switch v := n.(type) {
		case Text:
			sb.WriteString(v.Content)
		case LineBreak:
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// visible text split into rows
func (c *Caption) Lines() [][]Text {
	lines := [][]Text{nil}
	for _, n := range Flatten(c.Nodes) {
		switch v := n.(type) {
		case Text:
			last := len(lines) - 1
			lines[last] = append(lines[last], v)
		case LineBreak:
			lines = append(lines, nil)
		}
	}
	return lines
}

// ordered cues of one language track
type CaptionList []*Caption

// named positioning declaration
type Region struct {
	Box   Box
	Style Style
}

// all tracks read from one document plus its declared styles and regions
type CaptionSet struct {
	tracks  map[string]CaptionList
	Styles  map[string]Style
	Regions map[string]Region
}

func NewCaptionSet() *CaptionSet {
	return &CaptionSet{
		tracks:  make(map[string]CaptionList),
		Styles:  make(map[string]Style),
		Regions: make(map[string]Region),
	}
}

// stores a stably sorted copy of list under lang
func (s *CaptionSet) SetCaptions(lang string, list CaptionList) {
	sorted := make(CaptionList, len(list))
	copy(sorted, list)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start < sorted[j].Start
	})
	s.tracks[lang] = sorted
}

func (s *CaptionSet) Captions(lang string) CaptionList {
	return s.tracks[lang]
}

// track languages in sorted order
func (s *CaptionSet) Languages() []string {
	langs := make([]string, 0, len(s.tracks))
	for lang := range s.tracks {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}

// total number of cues across tracks
func (s *CaptionSet) Len() int {
	n := 0
	for _, list := range s.tracks {
		n += len(list)
	}
	return n
}

func (s *CaptionSet) IsEmpty() bool {
	return s.Len() == 0
}

// track chosen by single-track writers: lang when present, else the first one
func (s *CaptionSet) Track(lang string) (string, CaptionList) {
	if list, ok := s.tracks[lang]; ok && lang != "" {
		return lang, list
	}
	langs := s.Languages()
	if len(langs) == 0 {
		return "", nil
	}
	return langs[0], s.tracks[langs[0]]
}

// copy whose maps and lists can be changed without touching s
func (s *CaptionSet) Clone() *CaptionSet {
	c := NewCaptionSet()
	for lang, list := range s.tracks {
		cp := make(CaptionList, len(list))
		copy(cp, list)
		c.tracks[lang] = cp
	}
	for id, st := range s.Styles {
		c.Styles[id] = st
	}
	for id, r := range s.Regions {
		c.Regions[id] = r
	}
	return c
}

// checks the invariants every writer relies on
func (s *CaptionSet) Validate() error {
	if s == nil {
		return &InvariantError{Reason: "caption set is nil"}
	}
	for _, lang := range s.Languages() {
		if strings.TrimSpace(lang) == "" {
			return &InvariantError{Reason: "empty language identifier"}
		}
		list := s.tracks[lang]
		for i, c := range list {
			if c == nil {
				return &InvariantError{Language: lang, Index: i, Reason: "nil caption"}
			}
			if c.Start < 0 {
				return &InvariantError{Language: lang, Index: i, Reason: "negative start time"}
			}
			if c.End < c.Start {
				return &InvariantError{Language: lang, Index: i, Reason: "end before start"}
			}
			if i > 0 && c.Start < list[i-1].Start {
				return &InvariantError{Language: lang, Index: i, Reason: "captions out of order"}
			}
			if hasNilNode(c.Nodes) {
				return &InvariantError{Language: lang, Index: i, Reason: "nil node"}
			}
		}
	}
	return nil
}

func hasNilNode(nodes []Node) bool {
	for _, n := range nodes {
		if n == nil {
			return true
		}
		if sp, ok := n.(Span); ok && hasNilNode(sp.Children) {
			return true
		}
	}
	return false
}

// expands spans into Text and LineBreak runs, merging neighbours with equal style
func Flatten(nodes []Node) []Node {
	var out []Node
	var walk func([]Node)
	walk = func(ns []Node) {
		for _, n := range ns {
			switch v := n.(type) {
			case Text:
				if v.Content == "" {
					continue
				}
				if len(out) > 0 {
					if prev, ok := out[len(out)-1].(Text); ok && prev.Style == v.Style {
						out[len(out)-1] = Text{Content: prev.Content + v.Content, Style: v.Style}
						continue
					}
				}
				out = append(out, v)
			case LineBreak:
				out = append(out, v)
			case Span:
				walk(v.Children)
			}
		}
	}
	walk(nodes)
	return out
}

// trims blanks at the edges of every row and drops empty leading and trailing rows
func normalizeNodes(nodes []Node) []Node {
	lines := [][]Text{nil}
	for _, n := range Flatten(nodes) {
		switch v := n.(type) {
		case Text:
			last := len(lines) - 1
			lines[last] = append(lines[last], v)
		case LineBreak:
			lines = append(lines, nil)
		}
	}

	for i, line := range lines {
		lines[i] = trimLine(line)
	}
	for len(lines) > 0 && len(lines[0]) == 0 {
		lines = lines[1:]
	}
	for len(lines) > 0 && len(lines[len(lines)-1]) == 0 {
		lines = lines[:len(lines)-1]
	}

	var out []Node
	for i, line := range lines {
		if i > 0 {
			out = append(out, LineBreak{})
		}
		for _, t := range line {
			out = append(out, t)
		}
	}
	return out
}

func trimLine(line []Text) []Text {
	for len(line) > 0 {
		t := strings.TrimLeft(line[0].Content, " \t")
		if t != "" {
			line[0].Content = t
			break
		}
		line = line[1:]
	}
	for len(line) > 0 {
		last := len(line) - 1
		t := strings.TrimRight(line[last].Content, " \t")
		if t != "" {
			line[last].Content = t
			break
		}
		line = line[:last]
	}
	return line
}
