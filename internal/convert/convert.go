package convert

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mgpai22/capconv/internal/caption"
	"github.com/mgpai22/capconv/internal/logging"
	"github.com/mgpai22/capconv/internal/textenc"
)

// options for converting files on disk
type Options struct {
	From     caption.Format // empty means detect
	To       caption.Format
	Encoding string // empty or "auto" means detect
	Read     caption.ReadOptions
	Write    caption.WriteOptions
}

func (o Options) logger() *logging.Logger {
	if o.Read.Logger == nil {
		return logging.Nop()
	}
	return o.Read.Logger
}

// outcome of one file conversion
type Result struct {
	Input   string
	Output  string
	From    caption.Format
	Charset string
	Err     error
}

// reads and decodes a caption file
func ReadFile(path, encoding string) (textenc.Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return textenc.Result{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	decoded, err := textenc.Decode(data, encoding)
	if err != nil {
		return textenc.Result{}, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return decoded, nil
}

// format of a caption file, from its content or else its extension
func DetectFile(path, encoding string) (caption.Format, error) {
	decoded, err := ReadFile(path, encoding)
	if err != nil {
		return "", err
	}
	return detect(path, decoded.Text)
}

func detect(path, text string) (caption.Format, error) {
	f, err := caption.DetectFormat(text)
	if err == nil {
		return f, nil
	}
	if errors.Is(err, caption.ErrUnknownFormat) {
		if byExt, ok := caption.FormatFromPath(path); ok && byExt.Readable() {
			return byExt, nil
		}
	}
	return "", err
}

// converts input into output, replacing output only once the conversion succeeded
func File(ctx context.Context, input, output string, opts Options) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{Input: input, Output: output}, err
	}
	if samePath(input, output) {
		return Result{Input: input, Output: output}, fmt.Errorf("output %s would overwrite the input", output)
	}

	text, res, err := Render(input, opts)
	res.Output = output
	if err != nil {
		return res, err
	}
	if err := WriteFileAtomic(output, []byte(text)); err != nil {
		return res, err
	}
	return res, nil
}

// converts input and returns the output document
func Render(input string, opts Options) (string, Result, error) {
	res := Result{Input: input}
	log := opts.logger()

	decoded, err := ReadFile(input, opts.Encoding)
	if err != nil {
		return "", res, err
	}
	res.Charset = decoded.Charset

	from := opts.From
	if from == "" {
		if from, err = detect(input, decoded.Text); err != nil {
			return "", res, fmt.Errorf("failed to detect format of %s: %w", input, err)
		}
	}
	res.From = from

	log.Debugw("Converting",
		"input", input,
		"from", from,
		"to", opts.To,
		"charset", decoded.Charset,
	)

	text, _, err := caption.Convert(decoded.Text, caption.ConvertOptions{
		From:  from,
		To:    opts.To,
		Read:  opts.Read,
		Write: opts.Write,
	})
	if err != nil {
		return "", res, fmt.Errorf("failed to convert %s: %w", input, err)
	}
	return text, res, nil
}

// output path for input in outDir (input's own dir when empty)
func OutputPath(input, outDir string, to caption.Format) string {
	dir := outDir
	if dir == "" {
		dir = filepath.Dir(input)
	}
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	return filepath.Join(dir, base+to.Extension())
}

// writes through a temp file in the target dir and renames it into place
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return fmt.Errorf("failed to set permissions on %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to move output into place: %w", err)
	}
	return nil
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}
