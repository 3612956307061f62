package store

import (
	"context"
	"errors"

	"eduscan-api/pkg/logging"
	"eduscan-api/pkg/metrics"
)

// Fallback tries the primary backend and drops to the secondary on any
// error. Only when both fail does the caller see a *FailureError.
type Fallback[T any] struct {
	name      string
	primary   Log[T]
	secondary Log[T]
	logger    *logging.StructuredLogger
	metrics   *metrics.Collector
}

func NewFallback[T any](name string, primary, secondary Log[T], logger *logging.StructuredLogger, m *metrics.Collector) *Fallback[T] {
	return &Fallback[T]{
		name:      name,
		primary:   primary,
		secondary: secondary,
		logger:    logger,
		metrics:   m,
	}
}

func (f *Fallback[T]) Append(ctx context.Context, item T) error {
	perr := f.primary.Append(ctx, item)
	if perr == nil {
		return nil
	}
	f.noteFallback(ctx, "append", perr)
	if serr := f.secondary.Append(ctx, item); serr != nil {
		return f.failure(ctx, "append", perr, serr)
	}
	return nil
}

func (f *Fallback[T]) All(ctx context.Context) ([]T, error) {
	items, perr := f.primary.All(ctx)
	if perr == nil {
		return items, nil
	}
	f.noteFallback(ctx, "read", perr)
	items, serr := f.secondary.All(ctx)
	if serr != nil {
		return nil, f.failure(ctx, "read", perr, serr)
	}
	return items, nil
}

func (f *Fallback[T]) Replace(ctx context.Context, items []T) error {
	perr := f.primary.Replace(ctx, items)
	if perr == nil {
		return nil
	}
	f.noteFallback(ctx, "replace", perr)
	if serr := f.secondary.Replace(ctx, items); serr != nil {
		return f.failure(ctx, "replace", perr, serr)
	}
	return nil
}

// Purge applies keep to each backend on its own, since records written
// while the primary was down live only in the secondary.
func (f *Fallback[T]) Purge(ctx context.Context, keep func(T) bool) (int, error) {
	total := 0
	var errs []error
	for _, l := range []Log[T]{f.primary, f.secondary} {
		n, err := Purge(ctx, l, keep)
		if errors.Is(err, ErrNotConfigured) {
			continue
		}
		if err != nil {
			errs = append(errs, err)
			continue
		}
		total += n
	}
	if len(errs) == 2 {
		return 0, f.failure(ctx, "purge", errs...)
	}
	if len(errs) == 1 {
		f.logger.Warn(ctx, "[STORE] purge incomplete", logging.Fields{
			"collection": f.name,
			"error":      errs[0].Error(),
		})
	}
	if f.metrics != nil {
		f.metrics.RecordPurge(f.name, total)
	}
	return total, nil
}

func (f *Fallback[T]) noteFallback(ctx context.Context, op string, err error) {
	if errors.Is(err, ErrNotConfigured) {
		return
	}
	if f.metrics != nil {
		f.metrics.RecordStorageFallback(f.name, op)
	}
	f.logger.Warn(ctx, "[STORE] primary storage failed, using file fallback", logging.Fields{
		"collection": f.name,
		"op":         op,
		"error":      err.Error(),
	})
}

func (f *Fallback[T]) failure(ctx context.Context, op string, errs ...error) error {
	if f.metrics != nil {
		f.metrics.RecordStorageFailure(f.name, op)
	}
	ferr := &FailureError{Collection: f.name, Op: op, Errs: errs}
	f.logger.Error(ctx, "[STORE] all storage backends failed", logging.Fields{
		"collection": f.name,
		"op":         op,
	}, ferr)
	return ferr
}
