package source

import (
	"context"
	"errors"
	"fmt"

	"pricewatch/internal/model"
)

// Source fetches the current price for a tracked item.
type Source interface {
	Fetch(ctx context.Context, item model.Item) (model.PriceSample, error)
}

// SourceFunc is a function adapter for Source.
type SourceFunc func(ctx context.Context, item model.Item) (model.PriceSample, error)

func (f SourceFunc) Fetch(ctx context.Context, item model.Item) (model.PriceSample, error) {
	return f(ctx, item)
}

// ErrorKind classifies a fetch failure.
type ErrorKind string

const (
	// KindUnavailable means the upstream could not be reached or returned an error.
	KindUnavailable ErrorKind = "source_unavailable"
	// KindParse means a response was received but no valid price could be extracted.
	KindParse ErrorKind = "parse_error"
)

// Error is a classified fetch failure.
type Error struct {
	Kind   ErrorKind
	ItemID string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: item %s: %v", e.Kind, e.ItemID, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Unavailable wraps err as a SourceUnavailable failure.
func Unavailable(itemID string, err error) *Error {
	return &Error{Kind: KindUnavailable, ItemID: itemID, Err: err}
}

// ParseFailure wraps err as a ParseError failure.
func ParseFailure(itemID string, err error) *Error {
	return &Error{Kind: KindParse, ItemID: itemID, Err: err}
}

// Kind extracts the error kind, or "" for errors not raised by a Source.
func Kind(err error) ErrorKind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}
