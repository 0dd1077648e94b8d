package sink

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jonathan/news-pipeline/internal/types"
)

// JSONL writes one JSON object per row to a file.
type JSONL struct {
	Path string
}

// NewJSONL creates a JSON Lines sink.
func NewJSONL(path string) *JSONL {
	return &JSONL{Path: path}
}

// Name implements Sink.
func (j *JSONL) Name() string {
	return "jsonl"
}

// Write implements Sink.
func (j *JSONL) Write(ctx context.Context, rows []types.ScoredArticle, mode WriteMode) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	flags := os.O_WRONLY | os.O_CREATE
	switch mode {
	case ModeFail:
		flags |= os.O_EXCL
	case ModeReplace:
		flags |= os.O_TRUNC
	case ModeAppend:
		flags |= os.O_APPEND
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidWriteMode, mode)
	}

	if dir := filepath.Dir(j.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.OpenFile(j.Path, flags, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return 0, fmt.Errorf("%w: %s", ErrDestinationExists, j.Path)
		}
		return 0, fmt.Errorf("failed to open %s: %w", j.Path, err)
	}

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	written := 0
	for _, row := range rows {
		if err := enc.Encode(row.Record()); err != nil {
			_ = f.Close()
			return written, fmt.Errorf("failed to encode row %d: %w", written, err)
		}
		written++
	}

	if err := w.Flush(); err != nil {
		_ = f.Close()
		return written, fmt.Errorf("failed to flush %s: %w", j.Path, err)
	}
	if err := f.Close(); err != nil {
		return written, fmt.Errorf("failed to close %s: %w", j.Path, err)
	}
	return written, nil
}

// Close implements Sink.
func (j *JSONL) Close() error {
	return nil
}
