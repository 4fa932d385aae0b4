package caption

import (
	"fmt"
	"math"
	"math/bits"
	"sort"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Scenarist SCC writer, pop-on captions on channel 1
type SCCWriter struct {
	opts WriteOptions
}

type sccLine struct {
	frame int64
	words []string
}

// rune with the style it is shown in
type sccRune struct {
	r  rune
	st Style
}

func (w *SCCWriter) Write(set *CaptionSet) (string, error) {
	if err := set.Validate(); err != nil {
		return "", err
	}

	_, list := set.Track(w.opts.Language)

	var lines []sccLine
	lastEOC := int64(-1)
	for i, c := range list {
		rows := sccRows(c)
		if len(rows) == 0 {
			continue
		}

		start := max(sccFrames(c.Start), lastEOC+1)
		end := max(sccFrames(c.End), start)

		enc := &sccEncoder{}
		enc.control(0x14, sccENM)
		enc.control(0x14, sccRCL)
		encodeSCCRows(enc, rows, c.Position)
		load := enc.take()

		enc.control(0x14, sccEOC)
		eoc := enc.take()

		if loadAt := start - int64(len(load)); loadAt > lastEOC && loadAt >= 0 {
			lines = append(lines, sccLine{loadAt, load}, sccLine{start, eoc})
		} else {
			lines = append(lines, sccLine{start, append(load, eoc...)})
		}
		lastEOC = start

		if i+1 == len(list) || sccFrames(list[i+1].Start) > end {
			enc.control(0x14, sccEDM)
			lines = append(lines, sccLine{end, enc.take()})
		}
	}

	sort.SliceStable(lines, func(i, j int) bool {
		return lines[i].frame < lines[j].frame
	})

	var sb strings.Builder
	sb.WriteString(sccHeader)
	sb.WriteString("\n")
	for i := 0; i < len(lines); {
		frame := lines[i].frame
		var words []string
		for ; i < len(lines) && lines[i].frame == frame; i++ {
			words = append(words, lines[i].words...)
		}
		fmt.Fprintf(&sb, "\n%s\t%s\n", formatSCCTimecode(frame), strings.Join(words, " "))
	}
	return sb.String(), nil
}

// rows of at most 32 cells, wrapped at spaces; at most 15 of them
func sccRows(c *Caption) [][]sccRune {
	var rows [][]sccRune
	for _, line := range c.Lines() {
		var row []sccRune
		for _, t := range line {
			st := sccStyle(t.Style)
			for _, r := range t.Content {
				row = append(row, sccRune{r: r, st: st})
			}
		}
		for len(row) > GridColumns {
			cut := GridColumns
			for j := GridColumns; j > 0; j-- {
				if row[j].r == ' ' {
					cut = j
					break
				}
			}
			rows = append(rows, trimSCCRow(row[:cut]))
			row = trimSCCRow(row[cut:])
		}
		rows = append(rows, row)
	}

	for len(rows) > 0 && len(rows[len(rows)-1]) == 0 {
		rows = rows[:len(rows)-1]
	}
	for len(rows) > 0 && len(rows[0]) == 0 {
		rows = rows[1:]
	}
	if len(rows) > GridRows {
		rows = rows[:GridRows]
	}
	return rows
}

func trimSCCRow(row []sccRune) []sccRune {
	for len(row) > 0 && row[0].r == ' ' {
		row = row[1:]
	}
	for len(row) > 0 && row[len(row)-1].r == ' ' {
		row = row[:len(row)-1]
	}
	return row
}

// the part of a style CEA-608 can show
func sccStyle(st Style) Style {
	out := Style{Italic: st.Italic, Underline: st.Underline}
	if c := normalizeColor(st.Color); sccColorIndex(c) > 0 {
		out.Color = c
	}
	return out
}

func sccColorIndex(color string) int {
	for i, c := range sccColors {
		if c == color {
			return i
		}
	}
	return 0
}

// places rows at the cue position, or centred at the bottom
func encodeSCCRows(enc *sccEncoder, rows [][]sccRune, pos *Position) {
	first := GridRows - len(rows) + 1
	var grid Grid
	if pos != nil {
		grid = pos.AsGrid()
		first = max(min(grid.Row, GridRows-len(rows)+1), 1)
	}

	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		col := (GridColumns - len(row)) / 2
		if pos != nil {
			col = max(min(grid.Column, GridColumns-len(row)), 0)
		}

		var cur Style
		codes := sccMidRowCodes(cur, row[0].st)
		if len(codes) > 0 && col >= len(codes) {
			col -= len(codes)
		}
		enc.pac(first+i, col)

		for j, rn := range row {
			if codes := sccMidRowCodes(cur, rn.st); len(codes) > 0 {
				for _, b2 := range codes {
					enc.control(0x11, b2)
				}
				cur = rn.st
			}
			// a mid-row code takes the place of the space before it
			if rn.r == ' ' && j+1 < len(row) && row[j+1].r != ' ' && len(sccMidRowCodes(cur, row[j+1].st)) > 0 {
				continue
			}
			enc.glyph(rn.r)
		}
	}
}

// mid-row second bytes that turn cur into st
func sccMidRowCodes(cur, st Style) []byte {
	var u byte
	if st.Underline {
		u = 1
	}
	var codes []byte
	if st.Color != cur.Color || (cur.Italic && !st.Italic) || (!st.Italic && st.Underline != cur.Underline) {
		codes = append(codes, 0x20|byte(sccColorIndex(st.Color))<<1|u)
	}
	if st.Italic && (!cur.Italic || len(codes) > 0 || st.Underline != cur.Underline) {
		codes = append(codes, 0x20|sccItalicCode<<1|u)
	}
	return codes
}

// collects code words, pairing basic characters two to a word
type sccEncoder struct {
	words      []string
	pending    byte
	hasPending bool
}

func (e *sccEncoder) char(b byte) {
	if e.hasPending {
		e.words = append(e.words, sccWordString(e.pending, b))
		e.hasPending = false
		return
	}
	e.pending, e.hasPending = b, true
}

func (e *sccEncoder) flush() {
	if e.hasPending {
		e.words = append(e.words, sccWordString(e.pending, 0))
		e.hasPending = false
	}
}

// control words are sent twice
func (e *sccEncoder) control(b1, b2 byte) {
	e.flush()
	w := sccWordString(b1, b2)
	e.words = append(e.words, w, w)
}

func (e *sccEncoder) pac(row, col int) {
	b1, b2 := sccPACBytes(row)
	indent := col / 4
	e.control(b1, b2|0x10|byte(indent)<<1)
	if tab := col % 4; tab > 0 {
		e.control(0x17, 0x20+byte(tab))
	}
}

func (e *sccEncoder) glyph(r rune) {
	g, ok := sccGlyphs[r]
	if !ok {
		if b, ok := sccFallbackChar(r); ok {
			e.char(b)
		}
		return
	}
	switch {
	case g.b1 == 0:
		e.char(g.b2)
	case g.extended:
		fallback, ok := sccFallbackChar(r)
		if !ok {
			fallback = ' '
		}
		e.char(fallback)
		e.control(g.b1, g.b2)
	default:
		e.control(g.b1, g.b2)
	}
}

func (e *sccEncoder) take() []string {
	e.flush()
	out := e.words
	e.words = nil
	return out
}

// basic-set stand-in for a rune, with accents stripped
func sccFallbackChar(r rune) (byte, bool) {
	switch r {
	case '\u2018', '\u2019':
		return '\'', true
	case '\u201c', '\u201d', '\u00ab', '\u00bb':
		return '"', true
	case '\u2014', '\u2013':
		return '-', true
	}
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))
	s, _, err := transform.String(t, string(r))
	if err != nil {
		return 0, false
	}
	for _, fr := range s {
		if g, ok := sccGlyphs[fr]; ok && g.b1 == 0 {
			return g.b2, true
		}
	}
	return 0, false
}

func sccWordString(b1, b2 byte) string {
	return fmt.Sprintf("%02x%02x", oddParity(b1), oddParity(b2))
}

func oddParity(b byte) byte {
	b &= 0x7f
	if bits.OnesCount8(b)%2 == 0 {
		return b | 0x80
	}
	return b
}

// nearest frame at 30000/1001 fps
func sccFrames(d time.Duration) int64 {
	return int64(math.Round(float64(d) * 30000 / 1001 / float64(time.Second)))
}

// non-drop hh:mm:ss:ff
func formatSCCTimecode(frames int64) string {
	ff := frames % 30
	s := frames / 30 % 60
	m := frames / 1800 % 60
	h := frames / 108000
	return fmt.Sprintf("%02d:%02d:%02d:%02d", h, m, s, ff)
}
