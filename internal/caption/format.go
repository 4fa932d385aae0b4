package caption

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/mgpai22/capconv/internal/logging"
)

// caption file format
type Format string

const (
	FormatDFXP       Format = "dfxp"
	FormatSAMI       Format = "sami"
	FormatSCC        Format = "scc"
	FormatSRT        Format = "srt"
	FormatVTT        Format = "vtt"
	FormatASS        Format = "ass"
	FormatTranscript Format = "transcript"
)

// every format, in detection order
var Formats = []Format{
	FormatDFXP,
	FormatSAMI,
	FormatSCC,
	FormatSRT,
	FormatVTT,
	FormatASS,
	FormatTranscript,
}

var formatAliases = map[string]Format{
	"dfxp":       FormatDFXP,
	"ttml":       FormatDFXP,
	"xml":        FormatDFXP,
	"sami":       FormatSAMI,
	"smi":        FormatSAMI,
	"scc":        FormatSCC,
	"srt":        FormatSRT,
	"vtt":        FormatVTT,
	"webvtt":     FormatVTT,
	"ass":        FormatASS,
	"ssa":        FormatASS,
	"transcript": FormatTranscript,
	"txt":        FormatTranscript,
}

// format for a name or alias such as "ttml" or "webvtt"
func ParseFormat(name string) (Format, error) {
	f, ok := formatAliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
	}
	return f, nil
}

// format implied by a file extension
func FormatFromPath(path string) (Format, bool) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if ext == "" {
		return "", false
	}
	f, ok := formatAliases[ext]
	return f, ok
}

// file extension for a format
func (f Format) Extension() string {
	switch f {
	case FormatDFXP:
		return ".dfxp"
	case FormatSAMI:
		return ".smi"
	case FormatSCC:
		return ".scc"
	case FormatVTT:
		return ".vtt"
	case FormatASS:
		return ".ass"
	case FormatTranscript:
		return ".txt"
	default:
		return ".srt"
	}
}

// whether a reader exists for the format
func (f Format) Readable() bool {
	switch f {
	case FormatDFXP, FormatSAMI, FormatSCC, FormatSRT, FormatVTT, FormatASS:
		return true
	}
	return false
}

// parses a whole document into a caption set
type Reader interface {
	Read(text string) (*CaptionSet, error)
}

// serializes a caption set into a whole document
type Writer interface {
	Write(set *CaptionSet) (string, error)
}

type ReadOptions struct {
	// language for formats that do not declare one
	Language string
	// accept DFXP positioning from elements without a valid region
	ReadInvalidPositioning bool
	// end given to cues left open by the source (SAMI last cue, DFXP without end)
	DefaultDuration time.Duration
	Logger          *logging.Logger
}

func (o ReadOptions) language() string {
	if o.Language != "" {
		return o.Language
	}
	return DefaultLanguage
}

func (o ReadOptions) defaultDuration() time.Duration {
	if o.DefaultDuration > 0 {
		return o.DefaultDuration
	}
	return DefaultCueDuration
}

func (o ReadOptions) logger() *logging.Logger {
	if o.Logger == nil {
		return logging.Nop()
	}
	return o.Logger
}

type WriteOptions struct {
	// track written by single-track formats
	Language string
	// DFXP: declare a default style and region and reference them from every cue
	DefaultSettings bool
	// WebVTT: always emit the hour field
	ForceWriteHours bool
}

func NewReader(format Format, opts ReadOptions) (Reader, error) {
	switch format {
	case FormatDFXP:
		return &DFXPReader{opts: opts}, nil
	case FormatSAMI:
		return &SAMIReader{opts: opts}, nil
	case FormatSCC:
		return &SCCReader{opts: opts}, nil
	case FormatSRT:
		return &SRTReader{opts: opts}, nil
	case FormatVTT:
		return &VTTReader{opts: opts}, nil
	case FormatASS:
		return &ASSReader{opts: opts}, nil
	default:
		return nil, fmt.Errorf("no reader for format: %s", format)
	}
}

func NewWriter(format Format, opts WriteOptions) (Writer, error) {
	switch format {
	case FormatDFXP:
		return &DFXPWriter{opts: opts}, nil
	case FormatSAMI:
		return &SAMIWriter{opts: opts}, nil
	case FormatSCC:
		return &SCCWriter{opts: opts}, nil
	case FormatSRT:
		return &SRTWriter{opts: opts}, nil
	case FormatVTT:
		return &VTTWriter{opts: opts}, nil
	case FormatASS:
		return &ASSWriter{
			opts:     opts,
			Title:    "capconv",
			FontName: "Arial",
			FontSize: 20,
		}, nil
	case FormatTranscript:
		return &TranscriptWriter{opts: opts}, nil
	default:
		return nil, fmt.Errorf("no writer for format: %s", format)
	}
}

// reads text as format, sniffing the format when it is empty
func Read(text string, format Format, opts ReadOptions) (*CaptionSet, Format, error) {
	if format == "" {
		detected, err := DetectFormat(text)
		if err != nil {
			return nil, "", err
		}
		format = detected
	}
	reader, err := NewReader(format, opts)
	if err != nil {
		return nil, format, err
	}
	set, err := reader.Read(text)
	if err != nil {
		return nil, format, err
	}
	return set, format, nil
}

func Write(set *CaptionSet, format Format, opts WriteOptions) (string, error) {
	writer, err := NewWriter(format, opts)
	if err != nil {
		return "", err
	}
	return writer.Write(set)
}

type ConvertOptions struct {
	From  Format // empty means detect
	To    Format
	Read  ReadOptions
	Write WriteOptions
}

// converts a whole document, returning the output and the source format
func Convert(text string, opts ConvertOptions) (string, Format, error) {
	set, from, err := Read(text, opts.From, opts.Read)
	if err != nil {
		return "", from, err
	}
	out, err := Write(set, opts.To, opts.Write)
	if err != nil {
		return "", from, err
	}
	return out, from, nil
}
