package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/news-pipeline/internal/pipeline"
)

var extractCommand = &cobra.Command{
	Use:   "extract <url>",
	Short: "Extract the article text of one page",
	Args:  cobra.ExactArgs(1),
	RunE:  runExtractCmd,
}

var (
	extractUseBrowser bool
	extractTimeout    time.Duration
)

func init() {
	extractCommand.Flags().BoolVar(&extractUseBrowser, "use-browser", false, "Re-render the page with headless Chrome when no text is found")
	extractCommand.Flags().DurationVar(&extractTimeout, "timeout", 0, "HTTP timeout (defaults to extract.timeout)")
	rootCmd.AddCommand(extractCommand)
}

func runExtractCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("use-browser") {
		cfg.Extract.UseBrowser = extractUseBrowser
	}
	if cmd.Flags().Changed("timeout") {
		cfg.Extract.Timeout = extractTimeout
	}

	logger, err := newLogger(cfg.Logging)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	outcome := pipeline.NewExtractor(cfg.Extract, logger).Fetch(context.Background(), args[0])
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), outcome.Resolve())
	if outcome.Degraded() {
		return fmt.Errorf("extraction failed: %w", outcome.Err)
	}
	return nil
}
