package caption

// CEA-608 character and code tables, channel 1 values with parity removed

// basic set, indexed by byte-0x20; differs from ASCII in a few cells
var sccStandardChars = func() [96]rune {
	var t [96]rune
	for i := range t {
		t[i] = rune(0x20 + i)
	}
	for b, r := range map[byte]rune{
		0x2a: '\u00e1',
		0x5c: '\u00e9',
		0x5e: '\u00ed',
		0x5f: '\u00f3',
		0x60: '\u00fa',
		0x7b: '\u00e7',
		0x7c: '\u00f7',
		0x7d: '\u00d1',
		0x7e: '\u00f1',
		0x7f: '\u2588',
	} {
		t[b-0x20] = r
	}
	return t
}()

// 0x11 0x30-0x3f
var sccSpecialChars = []rune("\u00ae\u00b0\u00bd\u00bf\u2122\u00a2\u00a3\u266a\u00e0 \u00e8\u00e2\u00ea\u00ee\u00f4\u00fb")

// 0x12 0x20-0x3f
var sccExtendedChars12 = []rune("\u00c1\u00c9\u00d3\u00da\u00dc\u00fc\u2018\u00a1*\u2019\u2014\u00a9\u2120\u2022\u201c\u201d\u00c0\u00c2\u00c7\u00c8\u00ca\u00cb\u00eb\u00ce\u00cf\u00ef\u00d4\u00d9\u00f9\u00db\u00ab\u00bb")

// 0x13 0x20-0x3f
var sccExtendedChars13 = []rune("\u00c3\u00e3\u00cd\u00cc\u00ec\u00d2\u00f2\u00d5\u00f5{}\\^_|~\u00c4\u00e4\u00d6\u00f6\u00df\u00a5\u00a4\u00a6\u00c5\u00e5\u00d8\u00f8\u250c\u2510\u2514\u2518")

// colors selectable by PAC and mid-row codes, in code order
var sccColors = []string{"", "green", "blue", "cyan", "red", "yellow", "magenta"}

const sccItalicCode = 7

// first byte of the PAC for each row; the second row of a pair sets 0x20 in byte two
var sccPACRows = map[byte][2]int{
	0x11: {1, 2},
	0x12: {3, 4},
	0x15: {5, 6},
	0x16: {7, 8},
	0x17: {9, 10},
	0x10: {11, 0},
	0x13: {12, 13},
	0x14: {14, 15},
}

// miscellaneous control commands, second byte after 0x14/0x15
const (
	sccRCL = 0x20 // resume caption loading
	sccBS  = 0x21 // backspace
	sccAOF = 0x22 // alarm off
	sccAON = 0x23 // alarm on
	sccDER = 0x24 // delete to end of row
	sccRU2 = 0x25
	sccRU3 = 0x26
	sccRU4 = 0x27
	sccFON = 0x28 // flash on
	sccRDC = 0x29 // resume direct captioning
	sccTR  = 0x2a // text restart
	sccRTD = 0x2b // resume text display
	sccEDM = 0x2c // erase displayed memory
	sccCR  = 0x2d // carriage return
	sccENM = 0x2e // erase non-displayed memory
	sccEOC = 0x2f // end of caption
)

// where a rune lives in the tables
type sccGlyph struct {
	b1, b2   byte // b1 is zero for the basic set
	extended bool
}

// reverse lookup used by the writer
var sccGlyphs = func() map[rune]sccGlyph {
	m := make(map[rune]sccGlyph)
	for i, r := range sccStandardChars {
		m[r] = sccGlyph{b2: byte(0x20 + i)}
	}
	for i, r := range sccSpecialChars {
		if r == ' ' {
			continue
		}
		m[r] = sccGlyph{b1: 0x11, b2: byte(0x30 + i)}
	}
	for i, r := range sccExtendedChars12 {
		if _, ok := m[r]; !ok {
			m[r] = sccGlyph{b1: 0x12, b2: byte(0x20 + i), extended: true}
		}
	}
	for i, r := range sccExtendedChars13 {
		if _, ok := m[r]; !ok {
			m[r] = sccGlyph{b1: 0x13, b2: byte(0x20 + i), extended: true}
		}
	}
	return m
}()

// PAC bytes for a row
func sccPACBytes(row int) (byte, byte) {
	for b1, rows := range sccPACRows {
		switch row {
		case rows[0]:
			return b1, 0x40
		case rows[1]:
			return b1, 0x60
		}
	}
	return 0x14, 0x60
}
