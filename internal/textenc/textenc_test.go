package textenc

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name        string
		data        []byte
		charset     string
		wantText    string
		wantCharset string
	}{
		{
			name:        "plain utf-8",
			data:        []byte("1\n00:00:01,000 --> 00:00:02,000\ncaf\u00e9\n"),
			wantText:    "1\n00:00:01,000 --> 00:00:02,000\ncaf\u00e9\n",
			wantCharset: "utf-8",
		},
		{
			name:        "utf-8 bom is stripped",
			data:        []byte("\xef\xbb\xbfWEBVTT\n"),
			wantText:    "WEBVTT\n",
			wantCharset: "utf-8",
		},
		{
			name:        "utf-16le bom",
			data:        []byte{0xff, 0xfe, 'H', 0, 'i', 0},
			wantText:    "Hi",
			wantCharset: "utf-16le",
		},
		{
			name:        "utf-16be bom",
			data:        []byte{0xfe, 0xff, 0, 'H', 0, 'i'},
			wantText:    "Hi",
			wantCharset: "utf-16be",
		},
		{
			name:        "bom beats explicit charset",
			data:        []byte("\xef\xbb\xbfcaf\xc3\xa9"),
			charset:     "shift_jis",
			wantText:    "caf\u00e9",
			wantCharset: "utf-8",
		},
		{
			name:        "explicit latin1",
			data:        []byte("caf\xe9"),
			charset:     "latin1",
			wantText:    "caf\u00e9",
			wantCharset: "latin1",
		},
		{
			name:        "explicit windows-1252 curly quotes",
			data:        []byte("\x93quoted\x94"),
			charset:     "windows-1252",
			wantText:    "\u201cquoted\u201d",
			wantCharset: "windows-1252",
		},
		{
			name:        "auto behaves like empty",
			data:        []byte("plain"),
			charset:     "auto",
			wantText:    "plain",
			wantCharset: "utf-8",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.data, tt.charset)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Text != tt.wantText {
				t.Errorf("expected text %q, got %q", tt.wantText, got.Text)
			}
			if got.Charset != tt.wantCharset {
				t.Errorf("expected charset %q, got %q", tt.wantCharset, got.Charset)
			}
		})
	}
}

func TestDecodeSniffsLegacyBytes(t *testing.T) {
	data := []byte("1\n00:00:01,000 --> 00:00:02,000\nCe caf\xe9 est tr\xe8s bon, n'est-ce pas? Il fait tr\xe8s chaud \xe0 la plage.\n")

	got, err := Decode(data, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !utf8.ValidString(got.Text) {
		t.Errorf("expected valid utf-8, got %q", got.Text)
	}
	if !strings.HasPrefix(got.Text, "1\n00:00:01,000 --> 00:00:02,000\nCe caf") {
		t.Errorf("expected ascii prefix to survive, got %q", got.Text)
	}
	if got.Charset == "" || got.Charset == "utf-8" {
		t.Errorf("expected a legacy charset, got %q", got.Charset)
	}
}

func TestDecodeUnknownCharset(t *testing.T) {
	_, err := Decode([]byte("x"), "no-such-charset")
	if err == nil {
		t.Fatal("expected error for unknown charset")
	}
	if !strings.Contains(err.Error(), "no-such-charset") {
		t.Errorf("expected charset name in error, got %v", err)
	}
}

func TestLookupChardetNames(t *testing.T) {
	for _, name := range []string{"GB-18030", "Big5", "ISO-8859-1", "windows-1252", "Shift_JIS", "UTF-16LE"} {
		t.Run(name, func(t *testing.T) {
			if _, err := Lookup(name); err != nil {
				t.Errorf("expected %q to resolve, got %v", name, err)
			}
		})
	}
}
