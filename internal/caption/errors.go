package caption

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownFormat     = errors.New("unknown caption format")
	ErrAmbiguousFormat   = errors.New("ambiguous caption format")
	ErrInvalidFormat     = errors.New("invalid caption format")
	ErrNoCaptions        = errors.New("no captions found")
	ErrInternalInvariant = errors.New("caption set violates model invariants")
)

// more than one format signature matched
type AmbiguousFormatError struct {
	Candidates []Format
}

func (e *AmbiguousFormatError) Error() string {
	names := make([]string, len(e.Candidates))
	for i, f := range e.Candidates {
		names[i] = string(f)
	}
	return fmt.Sprintf("%s: matches %s", ErrAmbiguousFormat, strings.Join(names, ", "))
}

func (e *AmbiguousFormatError) Is(target error) bool {
	return target == ErrAmbiguousFormat
}

// input a reader cannot recover timing or text from
type InvalidFormatError struct {
	Format Format
	Reason string
	Line   int // 1-based, zero when unknown
	Err    error
}

func (e *InvalidFormatError) Error() string {
	var sb strings.Builder
	sb.WriteString("invalid ")
	if e.Format != "" {
		sb.WriteString(string(e.Format))
		sb.WriteString(" ")
	}
	sb.WriteString("input")
	if e.Line > 0 {
		fmt.Fprintf(&sb, " at line %d", e.Line)
	}
	sb.WriteString(": ")
	sb.WriteString(e.Reason)
	return sb.String()
}

func (e *InvalidFormatError) Is(target error) bool {
	return target == ErrInvalidFormat
}

func (e *InvalidFormatError) Unwrap() error {
	return e.Err
}

func invalidf(format Format, line int, reason string, args ...any) *InvalidFormatError {
	return &InvalidFormatError{
		Format: format,
		Line:   line,
		Reason: fmt.Sprintf(reason, args...),
	}
}

func noCaptions(format Format) *InvalidFormatError {
	return &InvalidFormatError{
		Format: format,
		Reason: ErrNoCaptions.Error(),
		Err:    ErrNoCaptions,
	}
}

// caption set handed to a writer breaks the model invariants
type InvariantError struct {
	Language string
	Index    int
	Reason   string
}

func (e *InvariantError) Error() string {
	if e.Language == "" {
		return fmt.Sprintf("%s: %s", ErrInternalInvariant, e.Reason)
	}
	return fmt.Sprintf(
		"%s: %s caption %d: %s",
		ErrInternalInvariant,
		e.Language,
		e.Index,
		e.Reason,
	)
}

func (e *InvariantError) Is(target error) bool {
	return target == ErrInternalInvariant
}
