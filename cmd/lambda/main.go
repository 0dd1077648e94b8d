// Package main is the AWS Lambda entry point: each invocation runs the pipeline once.
package main

import (
	"context"

	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"github.com/jonathan/news-pipeline/internal/config"
	"github.com/jonathan/news-pipeline/internal/logging"
	"github.com/jonathan/news-pipeline/internal/pipeline"
	"github.com/jonathan/news-pipeline/internal/server"
)

// runFunc is swapped in tests.
var runFunc = pipeline.RunConfigured

// handle runs the configured pipeline. Failures are reported in the response body, not as
// invocation errors, so schedulers see the same contract as the HTTP trigger.
func handle(ctx context.Context, req server.RunRequest) (server.RunResponse, error) {
	cfg, err := config.Load("")
	if err != nil {
		return server.NewRunResponse(nil, err), nil
	}
	if err := cfg.Validate(); err != nil {
		return server.NewRunResponse(nil, err), nil
	}

	logger, err := logging.New(logging.Options{Level: cfg.Logging.Level, Format: "json"})
	if err != nil {
		return server.NewRunResponse(nil, err), nil
	}
	defer func() { _ = logger.Sync() }()

	summary, err := runFunc(ctx, cfg, pipeline.BuildOptions{Mode: req.Mode}, logger)
	if err != nil {
		logger.Error("pipeline run failed", zap.Error(err))
	}
	return server.NewRunResponse(summary, err), nil
}

func main() {
	lambda.Start(handle)
}
