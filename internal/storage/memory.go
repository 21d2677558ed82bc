package storage

import (
	"context"
	"sync"
)

// Memory keeps values for the lifetime of the process.
type Memory struct {
	mu    sync.Mutex
	items map[string]string
}

var _ KeyValue = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{items: map[string]string{}}
}

// NewMemoryFrom seeds the store, e.g. with a pre-existing session in tests.
func NewMemoryFrom(seed map[string]string) *Memory {
	m := NewMemory()
	for k, v := range seed {
		m.items[k] = v
	}
	return m
}

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.items[key]
	return v, ok, nil
}

func (m *Memory) SetItems(_ context.Context, items map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range items {
		m.items[k] = v
	}
	return nil
}

func (m *Memory) RemoveItems(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.items, k)
	}
	return nil
}

func (m *Memory) Close() error { return nil }
