package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/mgpai22/capconv/internal/convert"
	"github.com/spf13/cobra"
)

var convertCmd = &cobra.Command{
	Use:   "convert [caption_file]",
	Short: "Convert a caption file to another format",
	Long: `Convert a caption file to another format.

The input format and charset are detected unless --from and --encoding
are given. The output goes next to the input with the new extension
unless -o is set; -o - writes to stdout.

Examples:
  capconv convert show.scc -f vtt
  capconv convert show.dfxp -f srt -o show.en.srt
  capconv convert legacy.srt -f dfxp --encoding windows-1252
  capconv convert show.smi -f vtt -o -`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)
	addConversionFlags(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	inputPath := args[0]
	outputPath, _ := cmd.Flags().GetString("output")

	c, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	opts, err := convertOptions(c)
	if err != nil {
		return err
	}

	if outputPath == "-" {
		text, _, err := convert.Render(inputPath, opts)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), text)
		return nil
	}

	if outputPath == "" {
		outputPath = convert.OutputPath(inputPath, "", opts.To)
	}

	logger.Infow("Converting captions",
		"input", inputPath,
		"output", outputPath,
		"to", opts.To,
	)

	res, err := convert.File(context.Background(), inputPath, outputPath, opts)
	if err != nil {
		return err
	}

	absOutput, _ := filepath.Abs(outputPath)
	fmt.Fprintf(cmd.OutOrStdout(), "Captions converted successfully: %s\n", absOutput)
	fmt.Fprintf(cmd.OutOrStdout(), "  From: %s (%s)\n", res.From, res.Charset)
	fmt.Fprintf(cmd.OutOrStdout(), "  To: %s\n", opts.To)
	return nil
}
