package caption

import "strings"

// text attributes attached to a run
type Style struct {
	Italic          bool
	Bold            bool
	Underline       bool
	Color           string
	BackgroundColor string
	FontFamily      string
	FontSize        string
}

func (s Style) IsZero() bool {
	return s == Style{}
}

// layers o on top of s: flags accumulate, non-empty values override
func (s Style) Merge(o Style) Style {
	s.Italic = s.Italic || o.Italic
	s.Bold = s.Bold || o.Bold
	s.Underline = s.Underline || o.Underline
	if o.Color != "" {
		s.Color = o.Color
	}
	if o.BackgroundColor != "" {
		s.BackgroundColor = o.BackgroundColor
	}
	if o.FontFamily != "" {
		s.FontFamily = o.FontFamily
	}
	if o.FontSize != "" {
		s.FontSize = o.FontSize
	}
	return s
}

// names understood by every format that carries colors
var namedColors = map[string]string{
	"white":   "#ffffff",
	"black":   "#000000",
	"red":     "#ff0000",
	"green":   "#00ff00",
	"lime":    "#00ff00",
	"blue":    "#0000ff",
	"yellow":  "#ffff00",
	"cyan":    "#00ffff",
	"aqua":    "#00ffff",
	"magenta": "#ff00ff",
	"fuchsia": "#ff00ff",
}

// lower-cased color, with known names kept as names
func normalizeColor(c string) string {
	c = strings.ToLower(strings.TrimSpace(c))
	if c == "" {
		return ""
	}
	if _, ok := namedColors[c]; ok {
		return c
	}
	for name, hex := range namedColors {
		if hex == c {
			switch name {
			case "lime", "aqua", "fuchsia":
				continue
			}
			return name
		}
	}
	return c
}
