package cli

import (
	"fmt"
	"os"

	"github.com/mgpai22/capconv/internal/config"
	"github.com/mgpai22/capconv/internal/logging"
	"github.com/spf13/cobra"
)

var (
	verbose    bool
	configPath string
	envFile    string
	logger     *logging.Logger
	cfg        config.Config
)

var rootCmd = &cobra.Command{
	Use:   "capconv",
	Short: "Closed caption format converter",
	Long: `Capconv converts closed caption and subtitle files between formats.

It reads DFXP/TTML, SAMI, SCC, SRT, WebVTT and ASS, and writes all of
those plus plain transcripts. Input format and charset are detected
when not given.

Settings come from flags, then CAPCONV_* environment variables (also
loaded from a .env file), then a YAML profile given with --config.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = logging.NewLogger(verbose)

		if err := config.LoadDotEnv(envFile); err != nil {
			return err
		}

		path := configPath
		if path == "" {
			path = os.Getenv(config.EnvPrefix + "CONFIG")
		}
		loaded, err := config.Load(path)
		if err != nil {
			return err
		}
		if err := loaded.ApplyEnv(os.Getenv); err != nil {
			return fmt.Errorf("invalid environment: %w", err)
		}
		cfg = loaded

		logger.Debugw("Loaded configuration",
			"profile", path,
			"read_format", cfg.Read.Format,
			"write_format", cfg.Write.Format,
		)
		return nil
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().
		BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		StringVar(&configPath, "config", "", "YAML conversion profile (or set CAPCONV_CONFIG)")
	rootCmd.PersistentFlags().
		StringVar(&envFile, "env-file", "", "Load environment overrides from this file (default .env)")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Output file path (- for stdout)")
	rootCmd.PersistentFlags().
		StringP("language", "l", "", "Language code (e.g., en-US, fr-FR)")
}
