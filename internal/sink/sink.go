// Package sink writes scored article rows to their destination.
package sink

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jonathan/news-pipeline/internal/types"
)

// WriteMode controls what happens when the destination already exists.
type WriteMode string

// Write modes
const (
	ModeFail    WriteMode = "fail"
	ModeReplace WriteMode = "replace"
	ModeAppend  WriteMode = "append"
)

var (
	// ErrInvalidWriteMode is returned for an unrecognised write mode.
	ErrInvalidWriteMode = errors.New("invalid write mode")
	// ErrDestinationExists is returned in fail mode when the destination already exists.
	ErrDestinationExists = errors.New("destination already exists")
	// ErrUnsupportedMode is returned when a sink cannot honour a write mode.
	ErrUnsupportedMode = errors.New("write mode not supported by sink")
)

// ParseWriteMode parses fail, replace or append (case-insensitive).
func ParseWriteMode(s string) (WriteMode, error) {
	mode := WriteMode(strings.ToLower(strings.TrimSpace(s)))
	switch mode {
	case ModeFail, ModeReplace, ModeAppend:
		return mode, nil
	default:
		return "", fmt.Errorf("%w: %q (expected fail, replace or append)", ErrInvalidWriteMode, s)
	}
}

// Sink is an output destination for scored rows.
type Sink interface {
	Name() string
	Write(ctx context.Context, rows []types.ScoredArticle, mode WriteMode) (int, error)
	Close() error
}

// Discard counts rows without storing them.
type Discard struct {
	Count int
}

// Name implements Sink.
func (d *Discard) Name() string {
	return "none"
}

// Write implements Sink.
func (d *Discard) Write(ctx context.Context, rows []types.ScoredArticle, _ WriteMode) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	d.Count += len(rows)
	return len(rows), nil
}

// Close implements Sink.
func (d *Discard) Close() error {
	return nil
}
