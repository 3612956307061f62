package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"eduscan-api/pkg/logging"
)

var (
	fileLocksMu sync.Mutex
	fileLocks   = map[string]*sync.Mutex{}
)

// lockFor returns the process-wide mutex for a path, so two JSONFile values
// over the same file still serialize.
func lockFor(path string) *sync.Mutex {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	fileLocksMu.Lock()
	defer fileLocksMu.Unlock()
	mu, ok := fileLocks[abs]
	if !ok {
		mu = &sync.Mutex{}
		fileLocks[abs] = mu
	}
	return mu
}

// JSONFile keeps a collection as one pretty-printed JSON array. Every write
// replaces the file through a temp file and rename.
type JSONFile[T any] struct {
	path   string
	mu     *sync.Mutex
	logger *logging.StructuredLogger
}

func NewJSONFile[T any](path string, logger *logging.StructuredLogger) *JSONFile[T] {
	return &JSONFile[T]{path: path, mu: lockFor(path), logger: logger}
}

func (f *JSONFile[T]) Path() string {
	return f.path
}

func (f *JSONFile[T]) All(ctx context.Context) ([]T, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.read(ctx)
}

func (f *JSONFile[T]) Append(ctx context.Context, item T) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	items, err := f.read(ctx)
	if err != nil {
		return err
	}
	return f.write(append(items, item))
}

func (f *JSONFile[T]) Replace(ctx context.Context, items []T) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if items == nil {
		items = []T{}
	}
	return f.write(items)
}

// read treats a missing or empty file as an empty collection. A file that
// does not parse is logged, reset to [] and also read as empty.
func (f *JSONFile[T]) read(ctx context.Context) ([]T, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []T{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return []T{}, nil
	}

	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		f.logger.Error(ctx, "[STORE] corrupt data file, reinitializing", logging.Fields{
			"path":  f.path,
			"bytes": len(data),
		}, err)
		if werr := f.write([]T{}); werr != nil {
			return nil, werr
		}
		return []T{}, nil
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

func (f *JSONFile[T]) write(items []T) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", f.path, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("write %s: %w", f.path, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", f.path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("sync %s: %w", f.path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", f.path, err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename %s: %w", f.path, err)
	}
	return nil
}
