package caption

import (
	"errors"
	"strings"
	"testing"
	"time"
)

const sampleSAMI = `<SAMI>
<HEAD>
<STYLE TYPE="text/css">
<!--
P { font-family: Arial; }
.ENCC { Name: English; lang: en-US; }
.FRCC { Name: French; lang: fr-CA; }
#emph { font-style: italic; }
-->
</STYLE>
</HEAD>
<BODY>
<SYNC Start=1000><P Class=ENCC>Hello<br>world
<SYNC Start=3000><P Class=ENCC>&nbsp;
<SYNC Start=4000><P Class=ENCC ID=emph>Second <b>bold</b>
<P Class=FRCC>Bonjour
<SYNC Start=6000><P Class=FRCC>Salut
</BODY>
</SAMI>
`

type expectedCue struct {
	start time.Duration
	end   time.Duration
	text  string
}

func checkCues(t *testing.T, list CaptionList, want []expectedCue) {
	t.Helper()
	if len(list) != len(want) {
		t.Fatalf("expected %d captions, got %d", len(want), len(list))
	}
	for i, w := range want {
		c := list[i]
		if c.Start != w.start || c.End != w.end {
			t.Errorf("caption %d: expected %v-%v, got %v-%v", i, w.start, w.end, c.Start, c.End)
		}
		if c.Text() != w.text {
			t.Errorf("caption %d: expected text %q, got %q", i, w.text, c.Text())
		}
	}
}

func TestSAMIReader(t *testing.T) {
	set, format, err := Read(sampleSAMI, "", ReadOptions{})
	if err != nil {
		t.Fatalf("failed to read sami: %v", err)
	}
	if format != FormatSAMI {
		t.Errorf("expected format sami, got %s", format)
	}

	langs := set.Languages()
	if len(langs) != 2 || langs[0] != "en-US" || langs[1] != "fr-CA" {
		t.Fatalf("expected [en-US fr-CA], got %v", langs)
	}

	checkCues(t, set.Captions("en-US"), []expectedCue{
		{time.Second, 3 * time.Second, "Hello\nworld"},
		{4 * time.Second, 8 * time.Second, "Second bold"},
	})
	checkCues(t, set.Captions("fr-CA"), []expectedCue{
		{4 * time.Second, 6 * time.Second, "Bonjour"},
		{6 * time.Second, 10 * time.Second, "Salut"},
	})

	second := set.Captions("en-US")[1]
	if second.StyleID != "emph" {
		t.Errorf("expected style id emph, got %q", second.StyleID)
	}
	runs := second.Lines()[0]
	if !runs[0].Style.Italic || runs[0].Style.Bold {
		t.Errorf("expected italic run, got %+v", runs[0].Style)
	}
	if !runs[1].Style.Italic || !runs[1].Style.Bold {
		t.Errorf("expected italic bold run, got %+v", runs[1].Style)
	}
	if !set.Styles["emph"].Italic {
		t.Error("expected emph style to be declared italic")
	}
}

func TestSAMIReaderDefaultDuration(t *testing.T) {
	input := "<SAMI><BODY><SYNC Start=500><P>only cue</BODY></SAMI>"
	set, err := (&SAMIReader{opts: ReadOptions{DefaultDuration: 2 * time.Second}}).Read(input)
	if err != nil {
		t.Fatalf("failed to read sami: %v", err)
	}
	checkCues(t, set.Captions(DefaultLanguage), []expectedCue{
		{500 * time.Millisecond, 2500 * time.Millisecond, "only cue"},
	})
}

func TestSAMIReaderInlineStyle(t *testing.T) {
	input := `<SAMI><BODY>
<SYNC Start=0><P Style="left: 20%; top: 70%; text-align: left">plain <font color="#FF0000">red</font> <span style="font-weight: bold">bold</span>
<SYNC Start=1000>bare text
<SYNC Start=2000><P>&nbsp;</P>
</BODY></SAMI>`

	set, err := (&SAMIReader{}).Read(input)
	if err != nil {
		t.Fatalf("failed to read sami: %v", err)
	}
	list := set.Captions(DefaultLanguage)
	checkCues(t, list, []expectedCue{
		{0, time.Second, "plain red bold"},
		{time.Second, 2 * time.Second, "bare text"},
	})

	b := list[0].Position.AsBox()
	if b.X != 20 || b.Y != 70 || b.Align != AlignLeft || !b.Placed {
		t.Errorf("unexpected box %+v", b)
	}
	runs := list[0].Lines()[0]
	if runs[1].Style.Color != "red" {
		t.Errorf("expected red run, got %+v", runs[1])
	}
	if !runs[len(runs)-1].Style.Bold {
		t.Errorf("expected bold last run, got %+v", runs[len(runs)-1])
	}
}

func TestSAMIReaderErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		err   error
	}{
		{"bad start", "<SAMI><BODY>\n<SYNC Start=abc><P>x</BODY></SAMI>", ErrInvalidFormat},
		{"only terminators", "<SAMI><BODY><SYNC Start=1><P>&nbsp;</BODY></SAMI>", ErrNoCaptions},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := (&SAMIReader{}).Read(tt.input)
			if !errors.Is(err, tt.err) {
				t.Errorf("expected %v, got %v", tt.err, err)
			}
		})
	}

	_, err := (&SAMIReader{}).Read("<SAMI><BODY>\n<SYNC Start=abc><P>x</BODY></SAMI>")
	var formatErr *InvalidFormatError
	if errors.As(err, &formatErr) && formatErr.Line != 2 {
		t.Errorf("expected line 2, got %d", formatErr.Line)
	}
}

func TestSAMIWriter(t *testing.T) {
	set, err := (&SAMIReader{}).Read(sampleSAMI)
	if err != nil {
		t.Fatalf("failed to read sami: %v", err)
	}
	out, err := (&SAMIWriter{}).Write(set)
	if err != nil {
		t.Fatalf("failed to write sami: %v", err)
	}

	for _, want := range []string{
		".en-US {\n  lang: en-US;\n}",
		"#emph {\n  font-style: italic;\n}",
		`<P Class="en-US" ID="emph">Second <b>bold</b></P>`,
		`<P Class="en-US">Hello<br/>world</P>`,
		"<SYNC Start=3000>\n  <P Class=\"en-US\">&nbsp;</P>",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, out)
		}
	}
	// fr-CA cues touch, so no terminator at 6000
	if strings.Count(out, `<P Class="fr-CA">&nbsp;</P>`) != 1 {
		t.Errorf("expected a single fr-CA terminator, got:\n%s", out)
	}

	again, err := (&SAMIReader{}).Read(out)
	if err != nil {
		t.Fatalf("failed to read written sami: %v", err)
	}
	checkCues(t, again.Captions("en-US"), []expectedCue{
		{time.Second, 3 * time.Second, "Hello\nworld"},
		{4 * time.Second, 8 * time.Second, "Second bold"},
	})
	checkCues(t, again.Captions("fr-CA"), []expectedCue{
		{4 * time.Second, 6 * time.Second, "Bonjour"},
		{6 * time.Second, 10 * time.Second, "Salut"},
	})
}

func TestSAMIWriterOverlap(t *testing.T) {
	set := NewCaptionSet()
	set.SetCaptions("en", CaptionList{
		{Start: time.Second, End: 3 * time.Second, Nodes: []Node{Text{Content: "first"}}},
		{Start: 2 * time.Second, End: 5 * time.Second, Nodes: []Node{Text{Content: "overlap"}}},
	})

	out, err := (&SAMIWriter{}).Write(set)
	if err != nil {
		t.Fatalf("failed to write sami: %v", err)
	}
	if strings.Contains(out, "<SYNC Start=3000>") {
		t.Errorf("expected no sync at 3000 while the later cue is showing, got:\n%s", out)
	}

	again, err := (&SAMIReader{}).Read(out)
	if err != nil {
		t.Fatalf("failed to read written sami: %v", err)
	}
	_, list := again.Track("")
	checkCues(t, list, []expectedCue{
		{time.Second, 2 * time.Second, "first"},
		{2 * time.Second, 5 * time.Second, "overlap"},
	})
}
