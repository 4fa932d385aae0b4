package media

import (
	"path/filepath"
	"strings"
)

// subtitle stream inside a media container
type SubtitleStream struct {
	Index       int // position among subtitle streams, as in -map 0:s:N
	StreamIndex int // absolute stream index in the container
	Codec       string
	Language    string
	Title       string
	Default     bool
	Forced      bool
}

// whether ffmpeg can turn the stream into text captions
func (s SubtitleStream) TextBased() bool {
	_, ok := textCodecs[s.Codec]
	return ok
}

// text subtitle codecs and the ffmpeg encoder used to pull them out
var textCodecs = map[string]string{
	"subrip":   "srt",
	"srt":      "srt",
	"mov_text": "srt",
	"text":     "srt",
	"webvtt":   "webvtt",
	"ass":      "ass",
	"ssa":      "ass",
	"ttml":     "ttml",
}

var containerExts = map[string]bool{
	".mp4":  true,
	".m4v":  true,
	".mkv":  true,
	".mka":  true,
	".mks":  true,
	".webm": true,
	".mov":  true,
	".avi":  true,
	".ts":   true,
	".m2ts": true,
	".mts":  true,
	".mpeg": true,
	".mpg":  true,
	".ogv":  true,
}

// checks if the file is a container that may carry subtitle streams
func IsMediaFile(path string) bool {
	return containerExts[strings.ToLower(filepath.Ext(path))]
}
