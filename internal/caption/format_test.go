package caption

import (
	"errors"
	"testing"
	"time"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		name string
		want Format
	}{
		{"srt", FormatSRT},
		{"TTML", FormatDFXP},
		{" webvtt ", FormatVTT},
		{"smi", FormatSAMI},
		{"ssa", FormatASS},
		{"txt", FormatTranscript},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.name)
		if err != nil {
			t.Errorf("ParseFormat(%q): %v", tt.name, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %s, want %s", tt.name, got, tt.want)
		}
	}

	if _, err := ParseFormat("docx"); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("expected ErrUnknownFormat, got %v", err)
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path string
		want Format
		ok   bool
	}{
		{"movie.en.SRT", FormatSRT, true},
		{"/tmp/show.smi", FormatSAMI, true},
		{"captions.xml", FormatDFXP, true},
		{"noext", "", false},
		{"video.mp4", "", false},
	}
	for _, tt := range tests {
		got, ok := FormatFromPath(tt.path)
		if got != tt.want || ok != tt.ok {
			t.Errorf("FormatFromPath(%q) = %s/%v, want %s/%v", tt.path, got, ok, tt.want, tt.ok)
		}
	}
}

func TestExtensionRoundTrip(t *testing.T) {
	for _, f := range Formats {
		got, ok := FormatFromPath("out" + f.Extension())
		if !ok || got != f {
			t.Errorf("expected %s from %s, got %s", f, f.Extension(), got)
		}
	}
}

func TestNewReaderRejectsTranscript(t *testing.T) {
	if _, err := NewReader(FormatTranscript, ReadOptions{}); err == nil {
		t.Error("expected transcript to have no reader")
	}
	if _, err := NewWriter(Format("docx"), WriteOptions{}); err == nil {
		t.Error("expected unknown format to have no writer")
	}
}

// timings survive a trip through every format and back to SubRip
func TestConvertTimingAcrossFormats(t *testing.T) {
	tests := []struct {
		via       Format
		tolerance time.Duration
	}{
		{FormatSRT, 0},
		{FormatVTT, 0},
		{FormatDFXP, 0},
		{FormatSAMI, 0},
		{FormatASS, 0},
		{FormatSCC, 34 * time.Millisecond},
	}

	src, err := (&SRTReader{}).Read(canonicalSRT)
	if err != nil {
		t.Fatalf("failed to read srt: %v", err)
	}
	want := src.Captions(DefaultLanguage)

	for _, tt := range tests {
		t.Run(string(tt.via), func(t *testing.T) {
			mid, _, err := Convert(canonicalSRT, ConvertOptions{To: tt.via})
			if err != nil {
				t.Fatalf("failed to convert to %s: %v", tt.via, err)
			}
			back, _, err := Read(mid, "", ReadOptions{})
			if err != nil {
				t.Fatalf("failed to read %s back: %v", tt.via, err)
			}
			got := back.Captions(DefaultLanguage)
			if len(got) != len(want) {
				t.Fatalf("expected %d captions, got %d", len(want), len(got))
			}
			for i := range want {
				if d := got[i].Start - want[i].Start; d < -tt.tolerance || d > tt.tolerance {
					t.Errorf("caption %d: start %v, want %v", i, got[i].Start, want[i].Start)
				}
				if d := got[i].End - want[i].End; d < -tt.tolerance || d > tt.tolerance {
					t.Errorf("caption %d: end %v, want %v", i, got[i].End, want[i].End)
				}
				if got[i].Text() != want[i].Text() {
					t.Errorf("caption %d: expected %q, got %q", i, want[i].Text(), got[i].Text())
				}
			}
		})
	}
}

func TestConvertDetectFailure(t *testing.T) {
	_, _, err := Convert("not captions", ConvertOptions{To: FormatSRT})
	if !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("expected ErrUnknownFormat, got %v", err)
	}
}
