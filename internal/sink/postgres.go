package sink

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jonathan/news-pipeline/internal/types"
)

// ArticleStore is the table API the postgres sink needs; *db.DB implements it.
type ArticleStore interface {
	TableExists(ctx context.Context, table string) (bool, error)
	CreateArticlesTable(ctx context.Context, table string) error
	WriteArticles(ctx context.Context, table string, rows []types.ScoredArticle) (int, error)
	ReplaceArticles(ctx context.Context, table string, rows []types.ScoredArticle) (int, error)
}

// Postgres writes rows into a PostgreSQL table.
type Postgres struct {
	store  ArticleStore
	table  string
	closer func()
	logger *zap.Logger
}

// NewPostgres creates a postgres sink over store. closer, if set, runs on Close.
func NewPostgres(store ArticleStore, table string, closer func(), logger *zap.Logger) *Postgres {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Postgres{store: store, table: table, closer: closer, logger: logger}
}

// Name implements Sink.
func (p *Postgres) Name() string {
	return "postgres"
}

// Write implements Sink.
func (p *Postgres) Write(ctx context.Context, rows []types.ScoredArticle, mode WriteMode) (int, error) {
	exists, err := p.store.TableExists(ctx, p.table)
	if err != nil {
		return 0, err
	}

	var written int
	switch mode {
	case ModeFail, ModeAppend:
		if mode == ModeFail && exists {
			return 0, fmt.Errorf("%w: table %s", ErrDestinationExists, p.table)
		}
		if err := p.store.CreateArticlesTable(ctx, p.table); err != nil {
			return 0, err
		}
		written, err = p.store.WriteArticles(ctx, p.table, rows)
	case ModeReplace:
		if exists {
			p.logger.Info("replacing existing table", zap.String("table", p.table))
		}
		written, err = p.store.ReplaceArticles(ctx, p.table, rows)
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidWriteMode, mode)
	}
	if err != nil {
		return written, err
	}
	p.logger.Info("data loaded", zap.String("table", p.table), zap.Int("rows", written), zap.String("mode", string(mode)))
	return written, nil
}

// Close implements Sink.
func (p *Postgres) Close() error {
	if p.closer != nil {
		p.closer()
	}
	return nil
}
