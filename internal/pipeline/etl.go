package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/news-pipeline/internal/db"
	"github.com/jonathan/news-pipeline/internal/sink"
	"github.com/jonathan/news-pipeline/internal/source"
)

// ProgressEvent represents a progress update during pipeline execution
type ProgressEvent struct {
	Step     string `json:"step"`
	Category string `json:"category"`
	Message  string `json:"message"`
	RunID    string `json:"run_id,omitempty"`
	Content  any    `json:"content,omitempty"`
}

// ProgressCallback is called when pipeline progress occurs
type ProgressCallback func(event ProgressEvent)

// Ledger records runs and their steps; *db.DB implements it.
type Ledger interface {
	CreateRun(ctx context.Context, runID uuid.UUID, source, sink string) error
	RecordStep(ctx context.Context, runID uuid.UUID, step, status string, durationMs int, errMsg *string) error
	CompleteRun(ctx context.Context, runID uuid.UUID, status string, stats db.RunStats, errMsg *string) error
}

// ETLOptions configures an end-to-end run.
type ETLOptions struct {
	Mode       sink.WriteMode
	OnProgress ProgressCallback
	// Ledger is optional; ledger failures are logged and never fail the run.
	Ledger Ledger
}

// Degraded counts rows that fell back to default values.
type Degraded struct {
	Content   int `json:"content"`
	Sentiment int `json:"sentiment"`
}

// Summary describes a finished run.
type Summary struct {
	RunID        string        `json:"run_id"`
	Source       string        `json:"source"`
	Sink         string        `json:"sink"`
	Mode         string        `json:"mode"`
	Fetched      int           `json:"fetched"`
	Deduplicated int           `json:"deduplicated"`
	Rows         int           `json:"rows"`
	Written      int           `json:"written"`
	Degraded     Degraded      `json:"degraded"`
	Duration     time.Duration `json:"duration"`
}

// ETL fetches from a source, orchestrates the batch and writes to a sink.
type ETL struct {
	source       source.Source
	orchestrator *Orchestrator
	sink         sink.Sink
	opts         ETLOptions
	logger       *zap.Logger
}

// NewETL creates an end-to-end run. The mode defaults to append.
func NewETL(src source.Source, orchestrator *Orchestrator, snk sink.Sink, opts ETLOptions, logger *zap.Logger) *ETL {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Mode == "" {
		opts.Mode = sink.ModeAppend
	}
	return &ETL{source: src, orchestrator: orchestrator, sink: snk, opts: opts, logger: logger}
}

// emitProgress calls the progress callback if configured
func (e *ETL) emitProgress(runID uuid.UUID, step, message string, content any) {
	if e.opts.OnProgress != nil {
		e.opts.OnProgress(ProgressEvent{
			Step:     step,
			Category: StepCategory(step),
			Message:  message,
			RunID:    runID.String(),
			Content:  content,
		})
	}
}

func (e *ETL) recordStep(ctx context.Context, runID uuid.UUID, step string, elapsed time.Duration, stepErr error) {
	if e.opts.Ledger == nil {
		return
	}
	status := db.StepStatusCompleted
	var errMsg *string
	if stepErr != nil {
		status = db.StepStatusFailed
		msg := stepErr.Error()
		errMsg = &msg
	}
	if err := e.opts.Ledger.RecordStep(ctx, runID, step, status, int(elapsed.Milliseconds()), errMsg); err != nil {
		e.logger.Warn("failed to record step", zap.String("step", step), zap.Error(err))
	}
}

// Run executes one fetch, process and write cycle.
func (e *ETL) Run(ctx context.Context) (*Summary, error) {
	started := time.Now()
	runID := uuid.New()
	logger := e.logger.With(zap.String("run_id", runID.String()))

	summary := &Summary{
		RunID:  runID.String(),
		Source: e.source.Name(),
		Sink:   e.sink.Name(),
		Mode:   string(e.opts.Mode),
	}

	ledgerActive := false
	if e.opts.Ledger != nil {
		if err := e.opts.Ledger.CreateRun(ctx, runID, summary.Source, summary.Sink); err != nil {
			logger.Warn("failed to create ledger run, continuing without ledger", zap.Error(err))
		} else {
			ledgerActive = true
		}
	}

	err := e.run(ctx, runID, summary, logger, ledgerActive)
	summary.Duration = time.Since(started)

	if ledgerActive {
		status := db.RunStatusCompleted
		var errMsg *string
		if err != nil {
			status = db.RunStatusFailed
			msg := err.Error()
			errMsg = &msg
		}
		stats := db.RunStats{Fetched: summary.Fetched, Rows: summary.Rows, Written: summary.Written}
		if cerr := e.opts.Ledger.CompleteRun(context.WithoutCancel(ctx), runID, status, stats, errMsg); cerr != nil {
			logger.Warn("failed to complete ledger run", zap.Error(cerr))
		}
	}

	if err != nil {
		logger.Error("pipeline run failed", zap.Error(err), zap.Duration("duration", summary.Duration))
		return summary, err
	}

	logger.Info("pipeline run completed",
		zap.Int("fetched", summary.Fetched),
		zap.Int("rows", summary.Rows),
		zap.Int("written", summary.Written),
		zap.Duration("duration", summary.Duration))
	e.emitProgress(runID, StepWrite, "Pipeline run completed", summary)
	return summary, nil
}

func (e *ETL) run(ctx context.Context, runID uuid.UUID, summary *Summary, logger *zap.Logger, ledgerActive bool) error {
	record := func(step string, elapsed time.Duration, err error) {
		if ledgerActive {
			e.recordStep(ctx, runID, step, elapsed, err)
		}
	}

	start := time.Now()
	raw, err := e.source.Fetch(ctx)
	if err != nil {
		record(StepFetch, time.Since(start), err)
		return &StepError{Step: StepFetch, Err: err}
	}
	summary.Fetched = len(raw)
	record(StepFetch, time.Since(start), nil)
	e.emitProgress(runID, StepFetch, fmt.Sprintf("Fetched %d articles from %s", len(raw), summary.Source), nil)

	observe := func(step string, elapsed time.Duration, message string) {
		record(step, elapsed, nil)
		e.emitProgress(runID, step, message, nil)
	}
	result, err := e.orchestrator.Process(ctx, raw, observe)
	if err != nil {
		var stepErr *StepError
		if errors.As(err, &stepErr) {
			record(stepErr.Step, 0, stepErr.Err)
		}
		return err
	}
	summary.Deduplicated = result.Duplicates
	summary.Rows = len(result.Rows)
	summary.Degraded = Degraded{Content: result.ContentDegraded, Sentiment: result.SentimentDegraded}

	start = time.Now()
	written, err := e.sink.Write(ctx, result.Rows, e.opts.Mode)
	summary.Written = written
	record(StepWrite, time.Since(start), err)
	if err != nil {
		return &StepError{Step: StepWrite, Err: err}
	}
	e.emitProgress(runID, StepWrite, fmt.Sprintf("Wrote %d rows to %s (%s)", written, summary.Sink, summary.Mode), nil)
	logger.Debug("rows written", zap.Int("written", written))
	return nil
}
