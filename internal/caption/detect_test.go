package caption

import (
	"errors"
	"strings"
	"testing"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Format
	}{
		{"dfxp", `<?xml version="1.0"?>` + "\n" + `<tt xmlns="http://www.w3.org/ns/ttml"><body/></tt>`, FormatDFXP},
		{"dfxp prefixed", `<!-- generated --><tt:tt xmlns:tt="http://www.w3.org/ns/ttml"/>`, FormatDFXP},
		{"sami", "<SAMI>\n<BODY></BODY></SAMI>", FormatSAMI},
		{"scc", "Scenarist_SCC V1.0\n\n00:00:00:00\t9420", FormatSCC},
		{"srt", "1\n00:00:01,000 --> 00:00:02,000\nHi\n", FormatSRT},
		{"srt crlf", "1\r\n00:00:01,000 --> 00:00:02,000\r\nHi\r\n", FormatSRT},
		{"srt without index", "00:00:01,000 --> 00:00:02,000\nHi\n", FormatSRT},
		{"srt without index after blank lines", "\n\n00:00:01,000 --> 00:00:02,000\nHi\n", FormatSRT},
		{"vtt", "WEBVTT\n\n00:01.000 --> 00:02.000\nHi\n", FormatVTT},
		{"vtt bom", "\ufeffWEBVTT\n\n00:01.000 --> 00:02.000\nHi\n", FormatVTT},
		{"ass", "[Script Info]\nTitle: x\n", FormatASS},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectFormat(tt.input)
			if err != nil {
				t.Fatalf("failed to detect: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestDetectFormatUnknown(t *testing.T) {
	for _, input := range []string{"", "hello world", "WEBVTTX\n", "<html></html>"} {
		if _, err := DetectFormat(input); !errors.Is(err, ErrUnknownFormat) {
			t.Errorf("DetectFormat(%q): expected ErrUnknownFormat, got %v", input, err)
		}
	}
}

func TestAmbiguousFormatError(t *testing.T) {
	err := error(&AmbiguousFormatError{Candidates: []Format{FormatSRT, FormatVTT}})
	if !errors.Is(err, ErrAmbiguousFormat) {
		t.Error("expected error to match ErrAmbiguousFormat")
	}
	if !strings.Contains(err.Error(), "srt, vtt") {
		t.Errorf("expected candidates in message, got %q", err.Error())
	}
}

// every document a writer produces is recognized as its own format
func TestDetectWrittenFormats(t *testing.T) {
	set, err := (&SRTReader{}).Read(canonicalSRT)
	if err != nil {
		t.Fatalf("failed to read srt: %v", err)
	}
	for _, f := range Formats {
		if !f.Readable() {
			continue
		}
		t.Run(string(f), func(t *testing.T) {
			out, err := Write(set, f, WriteOptions{})
			if err != nil {
				t.Fatalf("failed to write: %v", err)
			}
			got, err := DetectFormat(out)
			if err != nil {
				t.Fatalf("failed to detect: %v", err)
			}
			if got != f {
				t.Errorf("expected %s, got %s", f, got)
			}
		})
	}
}
