package media

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/mgpai22/capconv/internal/caption"
	ffmpegbin "github.com/mgpai22/capconv/internal/ffmpeg"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// picks the stream to extract: the requested index, else the default
// text stream, else the first text stream
func SelectStream(streams []SubtitleStream, index int) (SubtitleStream, error) {
	if len(streams) == 0 {
		return SubtitleStream{}, fmt.Errorf("no subtitle streams found")
	}
	if index >= 0 {
		if index >= len(streams) {
			return SubtitleStream{}, fmt.Errorf("subtitle stream %d out of range (found %d)", index, len(streams))
		}
		s := streams[index]
		if !s.TextBased() {
			return SubtitleStream{}, fmt.Errorf("subtitle stream %d is %s, which is not text based", index, s.Codec)
		}
		return s, nil
	}

	var first *SubtitleStream
	for i := range streams {
		s := streams[i]
		if !s.TextBased() {
			continue
		}
		if s.Default {
			return s, nil
		}
		if first == nil {
			first = &streams[i]
		}
	}
	if first == nil {
		return SubtitleStream{}, fmt.Errorf("no text based subtitle streams found")
	}
	return *first, nil
}

// container format and extension a stream is pulled out as
func extractTarget(s SubtitleStream) (codec string, format caption.Format) {
	codec = textCodecs[s.Codec]
	switch codec {
	case "webvtt":
		return codec, caption.FormatVTT
	case "ass":
		return codec, caption.FormatASS
	case "ttml":
		return codec, caption.FormatDFXP
	default:
		return "srt", caption.FormatSRT
	}
}

// ffmpeg arguments copying one subtitle stream into outputPath
func extractArgs(mediaPath, outputPath string, s SubtitleStream) []string {
	codec, _ := extractTarget(s)
	kwargs := ffmpeg.KwArgs{
		"map": fmt.Sprintf("0:s:%d", s.Index),
		"c:s": codec,
	}
	if codec == "ttml" {
		kwargs["f"] = "ttml"
	}
	return ffmpeg.Input(mediaPath).
		Output(outputPath, kwargs).
		OverWriteOutput().
		GetArgs()
}

// pulls a subtitle stream into a temp file in dir and returns its path and
// format. the caller removes the file
func ExtractSubtitles(ctx context.Context, mediaPath string, s SubtitleStream, dir string) (string, caption.Format, error) {
	if _, err := os.Stat(mediaPath); os.IsNotExist(err) {
		return "", "", fmt.Errorf("media file not found: %s", mediaPath)
	}
	if !s.TextBased() {
		return "", "", fmt.Errorf("subtitle stream %d is %s, which is not text based", s.Index, s.Codec)
	}

	ffmpegPath, err := ffmpegbin.FFmpegPath()
	if err != nil {
		return "", "", err
	}

	_, format := extractTarget(s)
	base := strings.TrimSuffix(filepath.Base(mediaPath), filepath.Ext(mediaPath))
	tmp, err := os.CreateTemp(dir, base+".*"+format.Extension())
	if err != nil {
		return "", "", fmt.Errorf("failed to create temp file: %w", err)
	}
	outputPath := tmp.Name()
	tmp.Close()

	cmd := exec.CommandContext(ctx, ffmpegPath, extractArgs(mediaPath, outputPath, s)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		os.Remove(outputPath)
		return "", "", fmt.Errorf("ffmpeg extraction failed: %w: %s", err, lastLine(stderr.String()))
	}
	return outputPath, format, nil
}

// ffmpeg puts the reason for a failure on its last line
func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}
