package caption

import (
	"fmt"
	"time"

	"github.com/mgpai22/capconv/internal/logging"
)

// caption display mode
type sccMode int

const (
	sccPopOn sccMode = iota
	sccRollUp
	sccPaintOn
)

func (m sccMode) String() string {
	switch m {
	case sccRollUp:
		return "roll-up"
	case sccPaintOn:
		return "paint-on"
	default:
		return "pop-on"
	}
}

type sccCell struct {
	ch    rune // zero when empty
	style Style
}

// one caption memory with its cursor; row is 1-based
type sccMemory struct {
	cells [GridRows][GridColumns]sccCell
	row   int
	col   int
}

func newSCCMemory() *sccMemory {
	return &sccMemory{row: GridRows}
}

func (m *sccMemory) clear() {
	m.cells = [GridRows][GridColumns]sccCell{}
}

func (m *sccMemory) empty() bool {
	for r := range m.cells {
		for _, cell := range m.cells[r] {
			if cell.ch != 0 && cell.ch != ' ' {
				return false
			}
		}
	}
	return true
}

// writes at the cursor; the last column is overwritten once the row is full
func (m *sccMemory) write(ch rune, st Style) {
	col := min(m.col, GridColumns-1)
	m.cells[m.row-1][col] = sccCell{ch: ch, style: st}
	m.col = col + 1
}

func (m *sccMemory) backspace() {
	if m.col == 0 {
		return
	}
	m.col = min(m.col, GridColumns) - 1
	m.cells[m.row-1][m.col] = sccCell{}
}

func (m *sccMemory) deleteToEnd() {
	for c := min(m.col, GridColumns); c < GridColumns; c++ {
		m.cells[m.row-1][c] = sccCell{}
	}
}

// shifts the roll-up window up one row and clears the base row
func (m *sccMemory) roll(rows int) {
	top := max(m.row-rows+1, 1)
	for r := 1; r < top; r++ {
		m.cells[r-1] = [GridColumns]sccCell{}
	}
	for r := top; r < m.row; r++ {
		m.cells[r-1] = m.cells[r]
	}
	m.cells[m.row-1] = [GridColumns]sccCell{}
	m.col = 0
}

// visible rows as nodes, plus the grid cell of the top-left character
func (m *sccMemory) snapshot() ([]Node, *Position) {
	var (
		nodes  []Node
		top    = -1
		minCol = GridColumns
	)
	for r := range m.cells {
		first, last := -1, -1
		for c, cell := range m.cells[r] {
			if cell.ch != 0 && cell.ch != ' ' {
				if first < 0 {
					first = c
				}
				last = c
			}
		}
		if first < 0 {
			continue
		}
		if top < 0 {
			top = r
		} else {
			nodes = append(nodes, LineBreak{})
		}
		minCol = min(minCol, first)
		for c := first; c <= last; c++ {
			cell := m.cells[r][c]
			ch := cell.ch
			if ch == 0 {
				ch = ' '
			}
			nodes = append(nodes, Text{Content: string(ch), Style: cell.style})
		}
	}
	if top < 0 {
		return nil, nil
	}
	return Flatten(nodes), GridPosition(top+1, minCol)
}

// CEA-608 channel 1 state machine, fed one code word at a time
type sccDecoder struct {
	mode      sccMode
	rollRows  int
	displayed *sccMemory
	buffer    *sccMemory
	style     Style

	prev        [2]byte
	hasPrev     bool
	prevSkipped bool

	open   bool
	openAt time.Duration
	now    time.Duration

	cues CaptionList
	log  *logging.Logger
}

func newSCCDecoder(log *logging.Logger) *sccDecoder {
	return &sccDecoder{
		mode:      sccPopOn,
		displayed: newSCCMemory(),
		buffer:    newSCCMemory(),
		log:       log,
	}
}

// memory receiving characters in the current mode
func (d *sccDecoder) target() *sccMemory {
	if d.mode == sccPopOn {
		return d.buffer
	}
	return d.displayed
}

// processes one code word received at t
func (d *sccDecoder) feed(t time.Duration, hi, lo byte) {
	d.now = t
	b1, b2 := hi&0x7f, lo&0x7f
	if b1 == 0 && b2 == 0 {
		return
	}

	if b1 < 0x10 {
		d.hasPrev = false
		d.log.Debugw("skipping scc word", "word", wordString(hi, lo), "reason", "undefined")
		return
	}

	if b1 >= 0x20 {
		d.hasPrev = false
		d.writeChar(b1)
		if b2 >= 0x20 {
			d.writeChar(b2)
		}
		return
	}

	// control words are transmitted twice
	word := [2]byte{b1, b2}
	if d.hasPrev && word == d.prev && !d.prevSkipped {
		d.prevSkipped = true
		return
	}
	d.prev, d.hasPrev, d.prevSkipped = word, true, false

	if b1&0x08 != 0 {
		d.log.Debugw("skipping scc word", "word", wordString(hi, lo), "reason", "channel 2")
		return
	}
	d.control(b1, b2, hi, lo)
}

func (d *sccDecoder) control(b1, b2, hi, lo byte) {
	switch {
	case (b1 == 0x14 || b1 == 0x15) && b2 >= 0x20 && b2 <= 0x2f:
		d.command(b2)
	case b1 == 0x17 && b2 >= 0x21 && b2 <= 0x23:
		m := d.target()
		m.col = min(m.col+int(b2-0x20), GridColumns-1)
	case b1 == 0x11 && b2 >= 0x20 && b2 <= 0x2f:
		d.midRow(b2)
	case b1 == 0x11 && b2 >= 0x30 && b2 <= 0x3f:
		d.write(sccSpecialChars[b2-0x30])
	case b1 == 0x12 && b2 >= 0x20 && b2 <= 0x3f:
		d.target().backspace()
		d.write(sccExtendedChars12[b2-0x20])
	case b1 == 0x13 && b2 >= 0x20 && b2 <= 0x3f:
		d.target().backspace()
		d.write(sccExtendedChars13[b2-0x20])
	case b2 >= 0x40:
		d.pac(b1, b2, hi, lo)
	case b1 == 0x10 && b2 >= 0x20 && b2 <= 0x2f,
		b1 == 0x17 && b2 >= 0x24 && b2 <= 0x2f:
		// background and font attributes
	default:
		d.log.Debugw("skipping scc word", "word", wordString(hi, lo), "reason", "unknown code")
	}
}

func (d *sccDecoder) command(code byte) {
	switch code {
	case sccRCL:
		d.mode = sccPopOn
	case sccBS:
		d.target().backspace()
	case sccDER:
		d.target().deleteToEnd()
	case sccRU2, sccRU3, sccRU4:
		if d.mode != sccRollUp {
			d.closeCue()
			d.displayed.clear()
			d.buffer.clear()
			d.displayed.row = GridRows
		}
		d.mode = sccRollUp
		d.rollRows = int(code-sccRU2) + 2
		d.displayed.row = max(d.displayed.row, d.rollRows)
		d.displayed.col = 0
	case sccRDC:
		d.mode = sccPaintOn
	case sccEDM:
		d.closeCue()
		d.displayed.clear()
	case sccCR:
		switch d.mode {
		case sccRollUp:
			d.closeCue()
			d.displayed.roll(d.rollRows)
			if !d.displayed.empty() {
				d.openCue()
			}
		case sccPaintOn:
			d.closeCue()
		}
	case sccENM:
		d.buffer.clear()
	case sccEOC:
		d.closeCue()
		d.displayed, d.buffer = d.buffer, d.displayed
		d.mode = sccPopOn
		if !d.displayed.empty() {
			d.openCue()
		}
	case sccAOF, sccAON, sccFON, sccTR, sccRTD:
		// no effect on captions
	default:
		d.log.Debugw("skipping scc command", "code", fmt.Sprintf("%02x", code))
	}
}

// preamble address code: row, then color, italics or indent
func (d *sccDecoder) pac(b1, b2, hi, lo byte) {
	rows, ok := sccPACRows[b1]
	row := rows[0]
	if b2&0x20 != 0 {
		row = rows[1]
	}
	if !ok || row == 0 {
		d.log.Debugw("skipping scc word", "word", wordString(hi, lo), "reason", "invalid preamble")
		return
	}

	m := d.target()
	if d.mode == sccRollUp {
		row = max(row, d.rollRows)
		if row != m.row {
			// the window moves to the new base row
			shift := row - m.row
			moved := [GridRows][GridColumns]sccCell{}
			for r := range m.cells {
				if nr := r + shift; nr >= 0 && nr < GridRows {
					moved[nr] = m.cells[r]
				}
			}
			m.cells = moved
		}
	}
	m.row = row
	m.col = 0

	attr := b2 & 0x1f
	d.style = Style{Underline: attr&1 != 0}
	switch code := int(attr >> 1); {
	case code < sccItalicCode:
		d.style.Color = sccColors[code]
	case code == sccItalicCode:
		d.style.Italic = true
	default:
		m.col = (code - 8) * 4
	}
}

// mid-row style change, which also occupies one cell
func (d *sccDecoder) midRow(b2 byte) {
	attr := b2 & 0x0f
	code := int(attr >> 1)
	d.write(' ')
	d.style.Underline = attr&1 != 0
	if code == sccItalicCode {
		d.style.Italic = true
		return
	}
	d.style.Italic = false
	d.style.Color = sccColors[code]
}

func (d *sccDecoder) writeChar(b byte) {
	if b < 0x20 {
		return
	}
	d.write(sccStandardChars[b-0x20])
}

func (d *sccDecoder) write(ch rune) {
	d.target().write(ch, d.style)
	if d.mode != sccPopOn && !d.open && ch != ' ' {
		d.openCue()
	}
}

func (d *sccDecoder) openCue() {
	d.open = true
	d.openAt = d.now
}

// closes the open cue with the displayed memory as its content
func (d *sccDecoder) closeCue() {
	if !d.open {
		return
	}
	d.open = false
	nodes, pos := d.displayed.snapshot()
	if len(nodes) == 0 {
		return
	}
	// timecodes that run backwards still give a non-negative duration
	d.cues = append(d.cues, &Caption{
		Start:    d.openAt,
		End:      max(d.now, d.openAt),
		Nodes:    nodes,
		Position: pos,
	})
}

// closes whatever is still on screen at the last timestamp seen
func (d *sccDecoder) finish() CaptionList {
	d.closeCue()
	return d.cues
}

func wordString(hi, lo byte) string {
	return fmt.Sprintf("%02x%02x", hi, lo)
}
