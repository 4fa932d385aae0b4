package cli

import (
	"fmt"

	"github.com/mgpai22/capconv/internal/convert"
	"github.com/spf13/cobra"
)

var detectCmd = &cobra.Command{
	Use:   "detect [caption_file...]",
	Short: "Print the caption format of each file",
	Long: `Print the caption format of each file, one per line.

Examples:
  capconv detect show.scc
  capconv detect *.srt *.xml`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDetect,
}

func init() {
	rootCmd.AddCommand(detectCmd)

	detectCmd.Flags().
		String("encoding", "auto", "Input charset (auto to detect)")
}

func runDetect(cmd *cobra.Command, args []string) error {
	encoding := cfg.Read.Encoding
	if cmd.Flags().Changed("encoding") {
		encoding, _ = cmd.Flags().GetString("encoding")
	}

	failed := 0
	for _, path := range args {
		format, err := convert.DetectFile(path, encoding)
		if err != nil {
			failed++
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", path, err)
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", path, format)
	}

	if failed > 0 {
		return fmt.Errorf("could not detect %d of %d files", failed, len(args))
	}
	return nil
}
