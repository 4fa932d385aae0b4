package ffmpeg

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sync"
)

const (
	envFFmpegPath  = "CAPCONV_FFMPEG_PATH"
	envFFprobePath = "CAPCONV_FFPROBE_PATH"
)

var ErrNotFound = errors.New("ffmpeg binaries not found")

type BinaryPaths struct {
	FFmpeg  string
	FFprobe string
}

var (
	ensureOnce sync.Once
	ensureErr  error
	ensurePath BinaryPaths
)

// locates ffmpeg and ffprobe once per process
func Ensure() (BinaryPaths, error) {
	ensureOnce.Do(func() {
		ensurePath, ensureErr = locate(os.Getenv, exec.LookPath, cacheDir())
	})
	return ensurePath, ensureErr
}

func FFmpegPath() (string, error) {
	paths, err := Ensure()
	if err != nil {
		return "", err
	}
	return paths.FFmpeg, nil
}

func FFprobePath() (string, error) {
	paths, err := Ensure()
	if err != nil {
		return "", err
	}
	return paths.FFprobe, nil
}

// env override, then PATH, then a copy dropped into the user cache dir
func locate(getenv func(string) string, lookPath func(string) (string, error), installDir string) (BinaryPaths, error) {
	ffmpegPath := getenv(envFFmpegPath)
	ffprobePath := getenv(envFFprobePath)
	if ffmpegPath != "" && !fileExists(ffmpegPath) {
		return BinaryPaths{}, fmt.Errorf("%s points to a missing file: %s", envFFmpegPath, ffmpegPath)
	}
	if ffprobePath != "" && !fileExists(ffprobePath) {
		return BinaryPaths{}, fmt.Errorf("%s points to a missing file: %s", envFFprobePath, ffprobePath)
	}

	if ffmpegPath == "" {
		if found, err := lookPath("ffmpeg"); err == nil {
			ffmpegPath = found
		}
	}
	if ffprobePath == "" {
		if found, err := lookPath("ffprobe"); err == nil {
			ffprobePath = found
		}
	}

	if installDir != "" {
		exeSuffix := executableSuffix()
		if ffmpegPath == "" && fileExists(filepath.Join(installDir, "ffmpeg"+exeSuffix)) {
			ffmpegPath = filepath.Join(installDir, "ffmpeg"+exeSuffix)
		}
		if ffprobePath == "" && fileExists(filepath.Join(installDir, "ffprobe"+exeSuffix)) {
			ffprobePath = filepath.Join(installDir, "ffprobe"+exeSuffix)
		}
	}

	switch {
	case ffmpegPath == "" && ffprobePath == "":
		return BinaryPaths{}, fmt.Errorf("%w: install ffmpeg or set %s and %s", ErrNotFound, envFFmpegPath, envFFprobePath)
	case ffmpegPath == "":
		return BinaryPaths{}, fmt.Errorf("%w: ffmpeg missing, set %s", ErrNotFound, envFFmpegPath)
	case ffprobePath == "":
		return BinaryPaths{}, fmt.Errorf("%w: ffprobe missing, set %s", ErrNotFound, envFFprobePath)
	}
	return BinaryPaths{FFmpeg: ffmpegPath, FFprobe: ffprobePath}, nil
}

func cacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil || dir == "" {
		return ""
	}
	return filepath.Join(dir, "capconv", "ffmpeg", runtime.GOOS, runtime.GOARCH)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

func executableSuffix() string {
	if runtime.GOOS == "windows" {
		return ".exe"
	}
	return ""
}
