package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonathan/news-pipeline/internal/config"
	"github.com/jonathan/news-pipeline/internal/observability"
	"github.com/jonathan/news-pipeline/internal/pipeline"
	"github.com/jonathan/news-pipeline/internal/sink"
	"github.com/jonathan/news-pipeline/internal/types"
)

var runCommand = &cobra.Command{
	Use:   "run",
	Short: "Run the pipeline end-to-end",
	Long: `Fetches articles from the configured source, deduplicates and normalizes them, extracts
full content, scores sentiment and writes the rows to the configured sink.

Flags override config file and environment values only when set explicitly.`,
	RunE: runPipelineCmd,
}

var (
	runSource      string
	runSink        string
	runMode        string
	runDedupKey    string
	runBackend     string
	runBatchSize   int
	runConcurrency int
	runUseBrowser  bool
	runPreview     int
)

func init() {
	runCommand.Flags().StringVar(&runSource, "source", "", "Article source: newsapi, rss or file")
	runCommand.Flags().StringVar(&runSink, "sink", "", "Destination: none, jsonl, postgres, bigquery or kafka")
	runCommand.Flags().StringVar(&runMode, "mode", "", "Write mode: fail, replace or append")
	runCommand.Flags().StringVar(&runDedupKey, "dedup-key", "", "Deduplication key: description or url")
	runCommand.Flags().StringVar(&runBackend, "backend", "", "Sentiment backend: lexicon or gemini")
	runCommand.Flags().IntVar(&runBatchSize, "batch-size", 0, "Texts per classifier call")
	runCommand.Flags().IntVar(&runConcurrency, "concurrency", 0, "Concurrent page fetches during extraction")
	runCommand.Flags().BoolVar(&runUseBrowser, "use-browser", false, "Re-render pages with headless Chrome when no text is found")
	runCommand.Flags().IntVar(&runPreview, "preview", 0, "Print the first N rows after the run")

	rootCmd.AddCommand(runCommand)
}

// applyRunFlags copies explicitly set flags over the loaded configuration.
func applyRunFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("source") {
		cfg.Source.Kind = runSource
	}
	if flags.Changed("sink") {
		cfg.Sink.Kind = runSink
	}
	if flags.Changed("mode") {
		cfg.Sink.Mode = runMode
	}
	if flags.Changed("dedup-key") {
		cfg.Dedup.Key = runDedupKey
	}
	if flags.Changed("backend") {
		cfg.Sentiment.Backend = runBackend
	}
	if flags.Changed("batch-size") {
		cfg.Sentiment.BatchSize = runBatchSize
	}
	if flags.Changed("concurrency") {
		cfg.Extract.Concurrency = runConcurrency
	}
	if flags.Changed("use-browser") {
		cfg.Extract.UseBrowser = runUseBrowser
	}
}

// previewSink records the rows handed to the wrapped sink.
type previewSink struct {
	sink.Sink
	rows []types.ScoredArticle
}

func (p *previewSink) Write(ctx context.Context, rows []types.ScoredArticle, mode sink.WriteMode) (int, error) {
	p.rows = rows
	return p.Sink.Write(ctx, rows, mode)
}

func runPipelineCmd(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyRunFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := newLogger(cfg.Logging)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	preview := &previewSink{}
	runner, err := pipeline.Build(ctx, cfg, pipeline.BuildOptions{
		WrapSink: func(s sink.Sink) sink.Sink {
			preview.Sink = s
			return preview
		},
	}, logger)
	if err != nil {
		return err
	}
	defer runner.Close()

	summary, err := runner.Run(ctx)
	if err != nil {
		return fmt.Errorf("pipeline run failed: %w", err)
	}

	printer := observability.NewPrinter(cmd.OutOrStdout())
	printer.PrintSummary(summary)
	if runPreview > 0 {
		printer.PrintArticles(preview.rows, runPreview)
	}
	return nil
}
