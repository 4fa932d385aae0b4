package cli

import (
	"time"

	"github.com/mgpai22/capconv/internal/config"
	"github.com/mgpai22/capconv/internal/convert"
	"github.com/spf13/cobra"
)

// flags shared by the commands that convert
func addConversionFlags(cmd *cobra.Command) {
	defaults := config.Default()

	cmd.Flags().
		StringP("format", "f", "", "Output caption format (dfxp, sami, scc, srt, vtt, ass, transcript)")
	cmd.Flags().
		String("from", "", "Input caption format (detected when empty)")
	cmd.Flags().
		String("encoding", defaults.Read.Encoding, "Input charset, e.g. utf-8, latin1, shift_jis (auto to detect)")
	cmd.Flags().
		Bool("default-settings", defaults.Write.DefaultSettings, "DFXP: declare a default style and region for every cue")
	cmd.Flags().
		Bool("force-write-hours", defaults.Write.ForceWriteHours, "WebVTT: always write the hour field")
	cmd.Flags().
		Bool("read-invalid-positioning", defaults.Read.ReadInvalidPositioning, "DFXP: accept positioning outside regions")
	cmd.Flags().
		Duration("default-duration", time.Duration(defaults.Read.DefaultDuration), "End given to cues the source leaves open")
}

// profile with the flags the user actually set applied on top
func resolveConfig(cmd *cobra.Command) (config.Config, error) {
	c := cfg
	flags := cmd.Flags()

	if flags.Changed("format") {
		c.Write.Format, _ = flags.GetString("format")
	}
	if flags.Changed("from") {
		c.Read.Format, _ = flags.GetString("from")
	}
	if flags.Changed("encoding") {
		c.Read.Encoding, _ = flags.GetString("encoding")
	}
	if flags.Changed("default-settings") {
		c.Write.DefaultSettings, _ = flags.GetBool("default-settings")
	}
	if flags.Changed("force-write-hours") {
		c.Write.ForceWriteHours, _ = flags.GetBool("force-write-hours")
	}
	if flags.Changed("read-invalid-positioning") {
		c.Read.ReadInvalidPositioning, _ = flags.GetBool("read-invalid-positioning")
	}
	if flags.Changed("default-duration") {
		d, _ := flags.GetDuration("default-duration")
		c.Read.DefaultDuration = config.Duration(d)
	}
	if flags.Changed("language") {
		lang, _ := flags.GetString("language")
		c.Read.Language = lang
		c.Write.Language = lang
	}
	if flags.Lookup("out-dir") != nil && flags.Changed("out-dir") {
		c.Batch.OutDir, _ = flags.GetString("out-dir")
	}
	if flags.Lookup("concurrency") != nil && flags.Changed("concurrency") {
		c.Batch.Concurrency, _ = flags.GetInt("concurrency")
	}

	if err := c.Validate(); err != nil {
		return config.Config{}, err
	}
	return c, nil
}

// convert options for a resolved profile
func convertOptions(c config.Config) (convert.Options, error) {
	from, err := c.SourceFormat()
	if err != nil {
		return convert.Options{}, err
	}
	to, err := c.TargetFormat()
	if err != nil {
		return convert.Options{}, err
	}
	return convert.Options{
		From:     from,
		To:       to,
		Encoding: c.Read.Encoding,
		Read:     c.ReadOptions(logger.Named("read")),
		Write:    c.WriteOptions(),
	}, nil
}
