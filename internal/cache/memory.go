package cache

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Memory keeps recently used entries in process and delegates to a
// persistent backend. Reads fill the LRU; writes go through.
type Memory struct {
	lru  *lru.Cache[string, string]
	next Cache
}

// NewMemory wraps next with an LRU holding up to size entries.
func NewMemory(size int, next Cache) (*Memory, error) {
	l, err := lru.New[string, string](size)
	if err != nil {
		return nil, fmt.Errorf("creating lru: %w", err)
	}
	return &Memory{lru: l, next: next}, nil
}

// Get implements Cache.
func (m *Memory) Get(ctx context.Context, prompt string) (string, bool, error) {
	if v, ok := m.lru.Get(prompt); ok {
		return v, true, nil
	}
	v, ok, err := m.next.Get(ctx, prompt)
	if err != nil || !ok {
		return "", false, err
	}
	m.lru.Add(prompt, v)
	return v, true, nil
}

// Set implements Cache. The in-memory entry is kept even when the backend
// write fails so the current run still benefits from it.
func (m *Memory) Set(ctx context.Context, prompt, response string) error {
	m.lru.Add(prompt, response)
	return m.next.Set(ctx, prompt, response)
}

// Close implements Cache.
func (m *Memory) Close() error {
	m.lru.Purge()
	return m.next.Close()
}
