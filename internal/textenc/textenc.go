package textenc

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/dimchansky/utfbom"
	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"
	"golang.org/x/text/transform"
)

// charset used when nothing better can be told
const Fallback = "windows-1252"

// below this chardet confidence the fallback wins
const minConfidence = 30

type Result struct {
	Text    string
	Charset string
}

// chardet names that the WHATWG index spells differently
var chardetAliases = map[string]string{
	"GB-18030":     "gb18030",
	"ISO-2022-JP":  "iso-2022-jp",
	"ISO-8859-8-I": "iso-8859-8-i",
}

// decodes data to UTF-8. charset may name the source encoding; empty or
// "auto" means detect it from a byte order mark or the content
func Decode(data []byte, charset string) (Result, error) {
	rd, bom := utfbom.Skip(bytes.NewReader(data))
	rest, err := io.ReadAll(rd)
	if err != nil {
		return Result{}, fmt.Errorf("failed to read input: %w", err)
	}

	if enc, name := bomEncoding(bom); enc != nil {
		return decodeWith(rest, enc, name)
	}

	charset = strings.TrimSpace(charset)
	if charset != "" && !strings.EqualFold(charset, "auto") {
		enc, err := Lookup(charset)
		if err != nil {
			return Result{}, err
		}
		return decodeWith(rest, enc, charset)
	}

	if utf8.Valid(rest) {
		return Result{Text: string(rest), Charset: "utf-8"}, nil
	}

	enc, name := sniff(rest)
	return decodeWith(rest, enc, name)
}

// encoding for a WHATWG label such as "latin1" or "shift_jis"
func Lookup(name string) (encoding.Encoding, error) {
	if alias, ok := chardetAliases[name]; ok {
		name = alias
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("unknown charset %q: %w", name, err)
	}
	return enc, nil
}

func bomEncoding(bom utfbom.Encoding) (encoding.Encoding, string) {
	switch bom {
	case utfbom.UTF8:
		return unicode.UTF8, "utf-8"
	case utfbom.UTF16LittleEndian:
		return unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM), "utf-16le"
	case utfbom.UTF16BigEndian:
		return unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM), "utf-16be"
	case utfbom.UTF32LittleEndian:
		return utf32.UTF32(utf32.LittleEndian, utf32.IgnoreBOM), "utf-32le"
	case utfbom.UTF32BigEndian:
		return utf32.UTF32(utf32.BigEndian, utf32.IgnoreBOM), "utf-32be"
	}
	return nil, ""
}

// best guess for non UTF-8 bytes
func sniff(data []byte) (encoding.Encoding, string) {
	best, err := chardet.NewTextDetector().DetectBest(data)
	if err != nil || best == nil || best.Confidence < minConfidence {
		return charmap.Windows1252, Fallback
	}
	enc, err := Lookup(best.Charset)
	if err != nil {
		return charmap.Windows1252, Fallback
	}
	return enc, best.Charset
}

func decodeWith(data []byte, enc encoding.Encoding, name string) (Result, error) {
	out, _, err := transform.Bytes(enc.NewDecoder(), data)
	if err != nil {
		return Result{}, fmt.Errorf("failed to decode %s input: %w", name, err)
	}
	return Result{Text: string(out), Charset: strings.ToLower(name)}, nil
}
