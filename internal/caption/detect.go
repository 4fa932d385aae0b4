package caption

import (
	"regexp"
	"strings"
)

// bytes of input inspected by the detector
const detectPrefixLimit = 8 << 10

type signature struct {
	format Format
	match  func(prefix string) bool
}

var (
	dfxpSignature = regexp.MustCompile(
		`(?is)^\s*(?:<\?xml[^>]*\?>\s*)?(?:<!--.*?-->\s*|<!DOCTYPE[^>]*>\s*)*<(?:[\w.-]+:)?tt[\s>/]`,
	)
	samiSignature = regexp.MustCompile(`(?is)^\s*(?:<!--.*?-->\s*)*<sami[\s>]`)

	// the index line is optional
	srtSignature = regexp.MustCompile(
		`^\s*(?:\d+[ \t]*\r?\n)?[ \t]*\d+:\d{2}:\d{2}[,.]\d{1,3}[ \t]*-->`,
	)

	vttSignature = regexp.MustCompile(`^WEBVTT(?:[ \t\r\n]|$)`)
	sccSignature = regexp.MustCompile(`^\s*Scenarist_SCC V1\.0`)
	assSignature = regexp.MustCompile(`(?i)^\s*\[script info\]`)
)

var signatures = []signature{
	{FormatDFXP, dfxpSignature.MatchString},
	{FormatSAMI, samiSignature.MatchString},
	{FormatSCC, sccSignature.MatchString},
	{FormatSRT, srtSignature.MatchString},
	{FormatVTT, vttSignature.MatchString},
	{FormatASS, assSignature.MatchString},
}

// format whose signature matches the start of text
func DetectFormat(text string) (Format, error) {
	prefix := strings.TrimPrefix(text, "\ufeff")
	if len(prefix) > detectPrefixLimit {
		prefix = prefix[:detectPrefixLimit]
	}

	var matches []Format
	for _, sig := range signatures {
		if sig.match(prefix) {
			matches = append(matches, sig.format)
		}
	}

	switch len(matches) {
	case 0:
		return "", ErrUnknownFormat
	case 1:
		return matches[0], nil
	default:
		return "", &AmbiguousFormatError{Candidates: matches}
	}
}
