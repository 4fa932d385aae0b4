package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/mgpai22/capconv/internal/convert"
	"github.com/mgpai22/capconv/internal/media"
	"github.com/spf13/cobra"
)

var extractCmd = &cobra.Command{
	Use:   "extract [media_file]",
	Short: "Extract a subtitle stream from a video file",
	Long: `Extract a text subtitle stream from a video container and convert it.

ffmpeg and ffprobe are looked up in CAPCONV_FFMPEG_PATH and
CAPCONV_FFPROBE_PATH, then on PATH. Bitmap subtitles (PGS, VobSub)
cannot be extracted as text.

Examples:
  capconv extract movie.mkv --list
  capconv extract movie.mkv -f vtt
  capconv extract movie.mp4 --stream 1 -f dfxp -o movie.fr.dfxp`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)
	addConversionFlags(extractCmd)

	extractCmd.Flags().
		IntP("stream", "s", -1, "Subtitle stream number from --list (default: the default text stream)")
	extractCmd.Flags().
		Bool("list", false, "List subtitle streams and exit")
}

func runExtract(cmd *cobra.Command, args []string) error {
	mediaPath := args[0]
	ctx := context.Background()

	if _, err := os.Stat(mediaPath); os.IsNotExist(err) {
		return fmt.Errorf("file not found: %s", mediaPath)
	}
	if !media.IsMediaFile(mediaPath) {
		return fmt.Errorf("unsupported file type: %s (expected a video container)", filepath.Ext(mediaPath))
	}

	streamIndex, _ := cmd.Flags().GetInt("stream")
	list, _ := cmd.Flags().GetBool("list")
	outputPath, _ := cmd.Flags().GetString("output")

	streams, err := media.ListSubtitleStreams(ctx, mediaPath)
	if err != nil {
		return fmt.Errorf("failed to probe %s: %w", mediaPath, err)
	}

	if list {
		printStreams(cmd, streams)
		return nil
	}

	stream, err := media.SelectStream(streams, streamIndex)
	if err != nil {
		return err
	}

	c, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	if !cmd.Flags().Changed("language") && stream.Language != "" {
		c.Read.Language = stream.Language
	}
	opts, err := convertOptions(c)
	if err != nil {
		return err
	}

	if outputPath == "" {
		outputPath = convert.OutputPath(mediaPath, "", opts.To)
	}

	logger.Infow("Extracting subtitles",
		"media", mediaPath,
		"stream", stream.Index,
		"codec", stream.Codec,
		"language", stream.Language,
		"output", outputPath,
	)

	tempDir, err := os.MkdirTemp("", "capconv-*")
	if err != nil {
		return fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer os.RemoveAll(tempDir)

	extracted, format, err := media.ExtractSubtitles(ctx, mediaPath, stream, tempDir)
	if err != nil {
		return err
	}

	opts.From = format
	if _, err := convert.File(ctx, extracted, outputPath, opts); err != nil {
		return err
	}

	absOutput, _ := filepath.Abs(outputPath)
	fmt.Fprintf(cmd.OutOrStdout(), "Subtitles extracted successfully: %s\n", absOutput)
	return nil
}

func printStreams(cmd *cobra.Command, streams []media.SubtitleStream) {
	if len(streams) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No subtitle streams found")
		return
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "STREAM\tCODEC\tLANGUAGE\tTITLE\tFLAGS")
	for _, s := range streams {
		flags := ""
		if s.Default {
			flags += "default "
		}
		if s.Forced {
			flags += "forced "
		}
		if !s.TextBased() {
			flags += "bitmap"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", s.Index, s.Codec, s.Language, s.Title, flags)
	}
	w.Flush()
}
