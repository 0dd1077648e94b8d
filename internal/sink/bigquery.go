package sink

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	bigquery "google.golang.org/api/bigquery/v2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/jonathan/news-pipeline/internal/config"
	"github.com/jonathan/news-pipeline/internal/types"
)

// insertChunk bounds the rows sent in one insertAll request.
const insertChunk = 500

// BigQueryOptions configures the BigQuery sink.
type BigQueryOptions struct {
	ProjectID       string
	DatasetID       string
	TableID         string
	CredentialsFile string
	// ClientOptions are appended after the credential options.
	ClientOptions []option.ClientOption
}

// InsertError reports rows that BigQuery rejected.
type InsertError struct {
	Failed int
	First  string
}

func (e *InsertError) Error() string {
	return fmt.Sprintf("bigquery rejected %d rows: %s", e.Failed, e.First)
}

// BigQuery streams rows into a BigQuery table.
type BigQuery struct {
	svc    *bigquery.Service
	opts   BigQueryOptions
	logger *zap.Logger
}

// NewBigQuery creates the BigQuery client. A credentials file is used only when it exists;
// otherwise application default credentials apply.
func NewBigQuery(ctx context.Context, opts BigQueryOptions, logger *zap.Logger) (*BigQuery, error) {
	var missing []string
	if opts.ProjectID == "" {
		missing = append(missing, "project_id")
	}
	if opts.DatasetID == "" {
		missing = append(missing, "dataset_id")
	}
	if opts.TableID == "" {
		missing = append(missing, "table_id")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: bigquery requires %s", config.ErrSinkConfigMissing, strings.Join(missing, ", "))
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var clientOpts []option.ClientOption
	if opts.CredentialsFile != "" {
		if _, err := os.Stat(opts.CredentialsFile); err == nil {
			clientOpts = append(clientOpts, option.WithCredentialsFile(opts.CredentialsFile))
		} else {
			logger.Warn("credentials file not found, using default credentials", zap.String("path", opts.CredentialsFile))
		}
	}
	clientOpts = append(clientOpts, opts.ClientOptions...)

	svc, err := bigquery.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create bigquery client: %w", err)
	}
	return &BigQuery{svc: svc, opts: opts, logger: logger}, nil
}

// Name implements Sink.
func (b *BigQuery) Name() string {
	return "bigquery"
}

// TableSchema is the fixed output schema. publishedAt stays a string since unparseable
// dates are kept verbatim.
func TableSchema() *bigquery.TableSchema {
	field := func(name, typ string) *bigquery.TableFieldSchema {
		return &bigquery.TableFieldSchema{Name: name, Type: typ, Mode: "NULLABLE"}
	}
	return &bigquery.TableSchema{Fields: []*bigquery.TableFieldSchema{
		field("title", "STRING"),
		field("description", "STRING"),
		field("url", "STRING"),
		field("publishedAt", "STRING"),
		field("source", "STRING"),
		field("full_content", "STRING"),
		field("sentiment_label", "STRING"),
		field("sentiment_score", "FLOAT"),
		field("sentiment_value", "INTEGER"),
	}}
}

// Write implements Sink.
func (b *BigQuery) Write(ctx context.Context, rows []types.ScoredArticle, mode WriteMode) (int, error) {
	exists, err := b.tableExists(ctx)
	if err != nil {
		return 0, err
	}

	switch mode {
	case ModeFail:
		if exists {
			return 0, fmt.Errorf("%w: table %s", ErrDestinationExists, b.tableRef())
		}
	case ModeReplace:
		if exists {
			if err := b.svc.Tables.Delete(b.opts.ProjectID, b.opts.DatasetID, b.opts.TableID).Context(ctx).Do(); err != nil {
				return 0, fmt.Errorf("failed to delete table %s: %w", b.tableRef(), err)
			}
			exists = false
		}
	case ModeAppend:
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidWriteMode, mode)
	}

	if !exists {
		table := &bigquery.Table{
			TableReference: &bigquery.TableReference{
				ProjectId: b.opts.ProjectID,
				DatasetId: b.opts.DatasetID,
				TableId:   b.opts.TableID,
			},
			Schema: TableSchema(),
		}
		if _, err := b.svc.Tables.Insert(b.opts.ProjectID, b.opts.DatasetID, table).Context(ctx).Do(); err != nil {
			return 0, fmt.Errorf("failed to create table %s: %w", b.tableRef(), err)
		}
	}

	written := 0
	for start := 0; start < len(rows); start += insertChunk {
		end := min(start+insertChunk, len(rows))
		if err := b.insert(ctx, rows[start:end]); err != nil {
			return written, err
		}
		written += end - start
	}

	b.logger.Info("data loaded", zap.String("table", b.tableRef()), zap.Int("rows", written), zap.String("mode", string(mode)))
	return written, nil
}

func (b *BigQuery) insert(ctx context.Context, rows []types.ScoredArticle) error {
	req := &bigquery.TableDataInsertAllRequest{
		Rows: make([]*bigquery.TableDataInsertAllRequestRows, len(rows)),
	}
	for i, row := range rows {
		record := row.Record()
		values := make(map[string]bigquery.JsonValue, len(record))
		for k, v := range record {
			values[k] = v
		}
		req.Rows[i] = &bigquery.TableDataInsertAllRequestRows{
			InsertId: uuid.NewString(),
			Json:     values,
		}
	}

	resp, err := b.svc.Tabledata.InsertAll(b.opts.ProjectID, b.opts.DatasetID, b.opts.TableID, req).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to insert rows into %s: %w", b.tableRef(), err)
	}
	if len(resp.InsertErrors) > 0 {
		first := "unknown error"
		if errs := resp.InsertErrors[0].Errors; len(errs) > 0 {
			first = errs[0].Message
		}
		return &InsertError{Failed: len(resp.InsertErrors), First: first}
	}
	return nil
}

func (b *BigQuery) tableExists(ctx context.Context) (bool, error) {
	_, err := b.svc.Tables.Get(b.opts.ProjectID, b.opts.DatasetID, b.opts.TableID).Context(ctx).Do()
	if err == nil {
		return true, nil
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound {
		return false, nil
	}
	return false, fmt.Errorf("failed to look up table %s: %w", b.tableRef(), err)
}

func (b *BigQuery) tableRef() string {
	return b.opts.ProjectID + "." + b.opts.DatasetID + "." + b.opts.TableID
}

// Close implements Sink.
func (b *BigQuery) Close() error {
	return nil
}
