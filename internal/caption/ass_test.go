package caption

import (
	"strings"
	"testing"
	"time"
)

const sampleASS = `[Script Info]
Title: sample
ScriptType: v4.00+

[V4+ Styles]
Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding
Style: Default,Arial,20,&H00FFFFFF,&H000000FF,&H00000000,&H00000000,0,0,0,0,100,100,0,0,1,2,2,2,10,10,10,1

[Events]
Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text
Dialogue: 0,0:00:01.00,0:00:02.50,Default,,0,0,0,,{\an8}Top {\c&H0000FF&}red
Dialogue: 0,0:00:03.00,0:00:04.00,Default,,0,0,0,,one\Ntwo, with comma
`

func TestASSReader(t *testing.T) {
	set, format, err := Read(sampleASS, "", ReadOptions{})
	if err != nil {
		t.Fatalf("failed to read ass: %v", err)
	}
	if format != FormatASS {
		t.Errorf("expected format ass, got %s", format)
	}

	list := set.Captions(DefaultLanguage)
	checkCues(t, list, []expectedCue{
		{time.Second, 2500 * time.Millisecond, "Top red"},
		{3 * time.Second, 4 * time.Second, "one\ntwo, with comma"},
	})

	if list[0].Position == nil {
		t.Fatal("expected a position from the alignment tag")
	}
	b := list[0].Position.AsBox()
	if b.Align != AlignCenter || b.DisplayAlign != VAlignTop {
		t.Errorf("expected top centre, got %+v", b)
	}
	runs := list[0].Lines()[0]
	if runs[len(runs)-1].Style.Color != "red" {
		t.Errorf("expected red last run, got %+v", runs[len(runs)-1])
	}
}

func TestASSWriter(t *testing.T) {
	set := NewCaptionSet()
	set.SetCaptions("en", CaptionList{
		{
			Start: 1500 * time.Millisecond,
			End:   3 * time.Second,
			Nodes: []Node{
				Text{Content: "Hi "},
				Text{Content: "there", Style: Style{Italic: true}},
				LineBreak{},
				Text{Content: "second line"},
			},
		},
		{
			Start:    4 * time.Second,
			End:      5 * time.Second,
			Nodes:    []Node{Text{Content: "Top"}},
			Position: BoxPosition(Box{Align: AlignCenter, DisplayAlign: VAlignTop}),
		},
	})

	w, err := NewWriter(FormatASS, WriteOptions{})
	if err != nil {
		t.Fatalf("failed to create writer: %v", err)
	}
	out, err := w.Write(set)
	if err != nil {
		t.Fatalf("failed to write ass: %v", err)
	}

	for _, want := range []string{
		"Title: capconv\n",
		"Style: Default,Arial,20,",
		`Dialogue: 0,0:00:01.50,0:00:03.00,Default,,0,0,0,,Hi {\i1}there{\r}\Nsecond line` + "\n",
		`Dialogue: 0,0:00:04.00,0:00:05.00,Default,,0,0,0,,{\an8}Top` + "\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, out)
		}
	}

	again, err := (&ASSReader{}).Read(out)
	if err != nil {
		t.Fatalf("failed to read written ass: %v", err)
	}
	list := again.Captions(DefaultLanguage)
	checkCues(t, list, []expectedCue{
		{1500 * time.Millisecond, 3 * time.Second, "Hi there\nsecond line"},
		{4 * time.Second, 5 * time.Second, "Top"},
	})
	lines := list[0].Lines()
	if !lines[0][len(lines[0])-1].Style.Italic || lines[1][0].Style.Italic {
		t.Errorf("expected italics to end with the reset, got %+v", lines)
	}
}

func TestASSOverrides(t *testing.T) {
	tests := []struct {
		name   string
		start  Style
		effect string
		want   Style
	}{
		{"italic on", Style{}, `{\i1}`, Style{Italic: true}},
		{"bold and underline", Style{}, `{\b1\u1}`, Style{Bold: true, Underline: true}},
		{"toggle off", Style{Italic: true}, `{\i0}`, Style{}},
		{"reset then bold", Style{Italic: true, Color: "red"}, `{\r\b1}`, Style{Bold: true}},
		{"primary colour", Style{}, `{\1c&H00FFFF&}`, Style{Color: "yellow"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := applyASSOverrides(tt.start, tt.effect); got != tt.want {
				t.Errorf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestASSAlignment(t *testing.T) {
	tests := []struct {
		pos  *Position
		want string
	}{
		{nil, ""},
		{BoxPosition(Box{Align: AlignCenter, DisplayAlign: VAlignBottom}), ""},
		{BoxPosition(Box{Align: AlignLeft, DisplayAlign: VAlignBottom}), `{\an1}`},
		{BoxPosition(Box{Align: AlignRight, DisplayAlign: VAlignCenter}), `{\an6}`},
		{GridPosition(1, 0), `{\an8}`},
		{GridPosition(15, 0), ""},
	}
	for _, tt := range tests {
		if got := assAlignment(tt.pos); got != tt.want {
			t.Errorf("expected %q, got %q", tt.want, got)
		}
	}

	for n := 1; n <= 9; n++ {
		tag := `{\an` + string(rune('0'+n)) + `}`
		if n == 2 {
			continue
		}
		if got := assAlignment(assPosition(tag)); got != tag {
			t.Errorf("expected %s to survive, got %q", tag, got)
		}
	}
}

func TestAssHardBreaks(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`a\Nb`, `a\nb`},
		{`a\nb`, `a\nb`},
		{`a\\Nb`, `a\\Nb`},
		{`trailing\`, `trailing\`},
	}
	for _, tt := range tests {
		if got := assHardBreaks(tt.in); got != tt.want {
			t.Errorf("assHardBreaks(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
