package cli

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/mgpai22/capconv/internal/caption"
	"github.com/mgpai22/capconv/internal/convert"
	"github.com/spf13/cobra"
)

var batchCmd = &cobra.Command{
	Use:   "batch [caption_file_or_dir...]",
	Short: "Convert many caption files in parallel",
	Long: `Convert many caption files in parallel.

Directories are searched for files with a caption extension. Each output
goes to --out-dir (or next to its input) with the new extension. One
failed file does not stop the others.

Examples:
  capconv batch captions/ -f vtt --out-dir web
  capconv batch a.scc b.scc c.scc -f dfxp -c 8`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)
	addConversionFlags(batchCmd)

	batchCmd.Flags().
		String("out-dir", "", "Directory for converted files (default: next to each input)")
	batchCmd.Flags().
		IntP("concurrency", "c", 4, "Number of parallel conversion workers")
}

func runBatch(cmd *cobra.Command, args []string) error {
	c, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	opts, err := convertOptions(c)
	if err != nil {
		return err
	}

	inputs, err := collectInputs(args)
	if err != nil {
		return err
	}
	if len(inputs) == 0 {
		return fmt.Errorf("no caption files found")
	}

	logger.Infow("Converting captions",
		"files", len(inputs),
		"to", opts.To,
		"out_dir", c.Batch.OutDir,
		"concurrency", c.Batch.Concurrency,
	)

	results := convert.Batch(context.Background(), inputs, c.Batch.OutDir, opts, c.Batch.Concurrency)
	for _, res := range results {
		if res.Err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "FAIL %s: %v\n", res.Input, res.Err)
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "ok   %s -> %s\n", res.Input, res.Output)
	}

	failed := convert.Failures(results)
	fmt.Fprintf(cmd.OutOrStdout(), "Converted %d of %d files\n", len(results)-failed, len(results))
	if failed > 0 {
		return fmt.Errorf("%d of %d conversions failed", failed, len(results))
	}
	return nil
}

// expands directories into the readable caption files under them
func collectInputs(args []string) ([]string, error) {
	var inputs []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("file not found: %s", arg)
		}
		if !info.IsDir() {
			inputs = append(inputs, arg)
			continue
		}

		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			if f, ok := caption.FormatFromPath(path); ok && f.Readable() {
				inputs = append(inputs, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", arg, err)
		}
	}
	return inputs, nil
}
