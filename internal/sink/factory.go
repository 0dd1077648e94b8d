package sink

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jonathan/news-pipeline/internal/config"
	"github.com/jonathan/news-pipeline/internal/db"
)

// FromConfig builds the configured sink. The postgres sink owns its connection pool.
func FromConfig(ctx context.Context, cfg config.SinkConfig, database config.DatabaseConfig, logger *zap.Logger) (Sink, error) {
	switch cfg.Kind {
	case "none", "":
		return &Discard{}, nil
	case "jsonl":
		if cfg.Path == "" {
			return nil, fmt.Errorf("%w: jsonl requires sink.path", config.ErrSinkConfigMissing)
		}
		return NewJSONL(cfg.Path), nil
	case "postgres":
		if database.URL == "" {
			return nil, fmt.Errorf("%w: postgres requires database.url", config.ErrSinkConfigMissing)
		}
		conn, err := db.Connect(ctx, database.URL)
		if err != nil {
			return nil, err
		}
		return NewPostgres(conn, cfg.Table, conn.Close, logger), nil
	case "bigquery":
		return NewBigQuery(ctx, BigQueryOptions{
			ProjectID:       cfg.ProjectID,
			DatasetID:       cfg.DatasetID,
			TableID:         cfg.TableID,
			CredentialsFile: cfg.CredentialsFile,
		}, logger)
	case "kafka":
		return NewKafka(cfg.Brokers, cfg.Topic, logger)
	default:
		return nil, fmt.Errorf("unknown sink kind %q", cfg.Kind)
	}
}
