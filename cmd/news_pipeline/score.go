package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/news-pipeline/internal/pipeline"
	"github.com/jonathan/news-pipeline/internal/sentiment"
)

var scoreCommand = &cobra.Command{
	Use:   "score",
	Short: "Score the sentiment of lines of text",
	Long:  `Reads one text per line from --file or stdin and prints label, score and value per line, in input order.`,
	RunE:  runScoreCmd,
}

var (
	scoreFile    string
	scoreBackend string
)

func init() {
	scoreCommand.Flags().StringVarP(&scoreFile, "file", "f", "", "Read texts from this file instead of stdin")
	scoreCommand.Flags().StringVar(&scoreBackend, "backend", "", "Sentiment backend: lexicon or gemini")
	rootCmd.AddCommand(scoreCommand)
}

// readLines returns every line of r, blank lines included.
func readLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	return lines, nil
}

// writeScores prints one aligned line per outcome.
func writeScores(w io.Writer, texts []string, outcomes []sentiment.Outcome) {
	for i, o := range outcomes {
		result := o.Resolve()
		_, _ = fmt.Fprintf(w, "%-8s  %.4f  %+d  %s\n", result.Label, result.Score, o.Value(), texts[i])
	}
}

func runScoreCmd(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("backend") {
		cfg.Sentiment.Backend = scoreBackend
	}

	logger, err := newLogger(cfg.Logging)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	in := cmd.InOrStdin()
	if scoreFile != "" {
		f, err := os.Open(scoreFile)
		if err != nil {
			return fmt.Errorf("failed to open input: %w", err)
		}
		defer func() { _ = f.Close() }()
		in = f
	}

	texts, err := readLines(in)
	if err != nil {
		return err
	}

	scorer, err := pipeline.NewScorer(ctx, cfg.Sentiment, logger)
	if err != nil {
		return err
	}
	defer func() { _ = scorer.Close() }()

	writeScores(cmd.OutOrStdout(), texts, scorer.Score(ctx, texts))
	return nil
}
