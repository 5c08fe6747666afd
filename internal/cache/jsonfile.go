package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/julianshen/agentwiki/internal/fileutil"
)

// JSONFile is a Cache persisted as one JSON object of prompt to response.
// Every Set re-reads the document so entries written by another run since
// the last read are kept.
type JSONFile struct {
	path   string
	logger *zap.Logger
	mu     sync.Mutex
}

// NewJSONFile returns a cache stored at path. The file is created on the
// first Set.
func NewJSONFile(path string, logger *zap.Logger) *JSONFile {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JSONFile{path: path, logger: logger}
}

// load reads the document. Missing, empty and unparseable files all read as
// an empty cache; only the last case is logged.
func (c *JSONFile) load() map[string]string {
	entries := make(map[string]string)

	data, err := os.ReadFile(c.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			c.logger.Warn("reading cache file", zap.String("path", c.path), zap.Error(err))
		}
		return entries
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return entries
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		c.logger.Warn("cache file is corrupt, starting empty", zap.String("path", c.path), zap.Error(err))
		return make(map[string]string)
	}
	return entries
}

// Get implements Cache.
func (c *JSONFile) Get(_ context.Context, prompt string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	resp, ok := c.load()[prompt]
	return resp, ok, nil
}

// Set implements Cache.
func (c *JSONFile) Set(_ context.Context, prompt, response string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries := c.load()
	entries[prompt] = response

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(entries); err != nil {
		return fmt.Errorf("encoding cache: %w", err)
	}
	if err := fileutil.WriteFileAtomic(c.path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("writing cache: %w", err)
	}
	c.logger.Debug("cache updated", zap.String("path", c.path), zap.Int("entries", len(entries)))
	return nil
}

// Close implements Cache.
func (c *JSONFile) Close() error { return nil }
