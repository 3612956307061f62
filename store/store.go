package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Log is an append-only collection. Replace exists only for the age-based
// purge and rewrites the whole collection.
type Log[T any] interface {
	Append(ctx context.Context, item T) error
	All(ctx context.Context) ([]T, error)
	Replace(ctx context.Context, items []T) error
}

// Collection is a Log that can also purge itself.
type Collection[T any] interface {
	Log[T]
	Purge(ctx context.Context, keep func(T) bool) (int, error)
}

var (
	ErrNotConfigured  = errors.New("storage backend not configured")
	ErrStorageFailure = errors.New("storage failure")
)

// FailureError is returned when every backend rejected an operation.
type FailureError struct {
	Collection string
	Op         string
	Errs       []error
}

func (e *FailureError) Error() string {
	parts := make([]string, len(e.Errs))
	for i, err := range e.Errs {
		parts[i] = err.Error()
	}
	return fmt.Sprintf("%s %s: all backends failed: %s", e.Collection, e.Op, strings.Join(parts, "; "))
}

func (e *FailureError) Unwrap() []error {
	return append([]error{ErrStorageFailure}, e.Errs...)
}

// Purge removes every item keep rejects and reports how many went.
func Purge[T any](ctx context.Context, log Log[T], keep func(T) bool) (int, error) {
	items, err := log.All(ctx)
	if err != nil {
		return 0, err
	}
	kept := make([]T, 0, len(items))
	for _, it := range items {
		if keep(it) {
			kept = append(kept, it)
		}
	}
	removed := len(items) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	if err := log.Replace(ctx, kept); err != nil {
		return 0, err
	}
	return removed, nil
}
