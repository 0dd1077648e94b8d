package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/jonathan/news-pipeline/internal/types"
)

// TableIdentifier splits an optionally schema-qualified table name.
func TableIdentifier(table string) pgx.Identifier {
	return pgx.Identifier(strings.Split(table, "."))
}

// articlesTableDDL returns the CREATE TABLE statement for the scored article table.
func articlesTableDDL(table string) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	title           TEXT,
	description     TEXT,
	url             TEXT,
	"publishedAt"   TEXT,
	source          TEXT,
	full_content    TEXT,
	sentiment_label TEXT,
	sentiment_score DOUBLE PRECISION,
	sentiment_value INTEGER
)`, TableIdentifier(table).Sanitize())
}

// TableExists reports whether the table is present.
func (db *DB) TableExists(ctx context.Context, table string) (bool, error) {
	var regclass *string
	err := db.pool.QueryRow(ctx, `SELECT to_regclass($1)::text`, TableIdentifier(table).Sanitize()).Scan(&regclass)
	if err != nil {
		return false, fmt.Errorf("failed to check table %s: %w", table, err)
	}
	return regclass != nil, nil
}

// DropTable removes the table if it exists.
func (db *DB) DropTable(ctx context.Context, table string) error {
	if _, err := db.pool.Exec(ctx, "DROP TABLE IF EXISTS "+TableIdentifier(table).Sanitize()); err != nil {
		return fmt.Errorf("failed to drop table %s: %w", table, err)
	}
	return nil
}

// CreateArticlesTable creates the scored article table if missing.
func (db *DB) CreateArticlesTable(ctx context.Context, table string) error {
	if _, err := db.pool.Exec(ctx, articlesTableDDL(table)); err != nil {
		return fmt.Errorf("failed to create table %s: %w", table, err)
	}
	return nil
}

// WriteArticles copies rows into the table in a single transaction.
func (db *DB) WriteArticles(ctx context.Context, table string, rows []types.ScoredArticle) (int, error) {
	return db.inTx(ctx, func(tx pgx.Tx) (int, error) {
		return copyArticles(ctx, tx, table, rows)
	})
}

// ReplaceArticles drops, recreates and fills the table in one transaction, so
// a failed copy leaves the previous contents in place.
func (db *DB) ReplaceArticles(ctx context.Context, table string, rows []types.ScoredArticle) (int, error) {
	return db.inTx(ctx, func(tx pgx.Tx) (int, error) {
		if _, err := tx.Exec(ctx, "DROP TABLE IF EXISTS "+TableIdentifier(table).Sanitize()); err != nil {
			return 0, fmt.Errorf("failed to drop table %s: %w", table, err)
		}
		if _, err := tx.Exec(ctx, articlesTableDDL(table)); err != nil {
			return 0, fmt.Errorf("failed to create table %s: %w", table, err)
		}
		return copyArticles(ctx, tx, table, rows)
	})
}

func (db *DB) inTx(ctx context.Context, fn func(pgx.Tx) (int, error)) (int, error) {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	n, err := fn(tx)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit articles: %w", err)
	}
	return n, nil
}

func copyArticles(ctx context.Context, tx pgx.Tx, table string, rows []types.ScoredArticle) (int, error) {
	values := make([][]any, len(rows))
	for i, row := range rows {
		values[i] = row.Row()
	}

	copied, err := tx.CopyFrom(ctx, TableIdentifier(table), types.Columns, pgx.CopyFromRows(values))
	if err != nil {
		return 0, fmt.Errorf("failed to copy articles into %s: %w", table, err)
	}
	return int(copied), nil
}
