// Package cache stores LLM responses keyed by the exact prompt text.
//
// The default backend is a single JSON document written atomically. A
// SQLite backend and an in-memory LRU front are available for larger runs.
// None of the backends coordinate between processes; concurrent writers
// from separate runs resolve as last-writer-wins.
package cache

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Cache maps prompts to responses. Keys are compared byte for byte and
// entries never expire.
type Cache interface {
	Get(ctx context.Context, prompt string) (string, bool, error)
	Set(ctx context.Context, prompt, response string) error
	Close() error
}

// Backend names accepted by Open.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// Options selects and configures a backend.
type Options struct {
	Backend       string
	Path          string
	MemoryEntries int
}

// Open returns the cache described by opts. When MemoryEntries is positive
// the backend is fronted by an LRU of that size.
func Open(opts Options, logger *zap.Logger) (Cache, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var backend Cache
	switch opts.Backend {
	case "", BackendJSON:
		backend = NewJSONFile(opts.Path, logger)
	case BackendSQLite:
		s, err := OpenSQLite(opts.Path)
		if err != nil {
			return nil, err
		}
		backend = s
	default:
		return nil, fmt.Errorf("unknown cache backend %q", opts.Backend)
	}

	if opts.MemoryEntries <= 0 {
		return backend, nil
	}
	m, err := NewMemory(opts.MemoryEntries, backend)
	if err != nil {
		_ = backend.Close()
		return nil, err
	}
	return m, nil
}
