package repository

import (
	"context"
	"slices"
	"sync"

	"github.com/m-mizutani/goerr/v2"
)

// Memory is an in-process KVStore. With a non-zero quota it behaves like a
// browser storage area and rejects writes that would exceed the total size.
type Memory struct {
	mu    sync.RWMutex
	data  map[string][]byte
	quota int
}

// MemoryOption configures Memory
type MemoryOption func(*Memory)

// WithMemoryQuota limits the total number of bytes held by the store
func WithMemoryQuota(bytes int) MemoryOption {
	return func(m *Memory) {
		m.quota = bytes
	}
}

// NewMemory creates an empty in-memory store
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{data: make(map[string][]byte)}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Memory) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.data[key]
	if !ok {
		return nil, goerr.Wrap(ErrKeyNotFound, "memory get", goerr.V("key", key))
	}
	return slices.Clone(v), nil
}

func (m *Memory) Set(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.quota > 0 {
		total := len(key) + len(value)
		for k, v := range m.data {
			if k != key {
				total += len(k) + len(v)
			}
		}
		if total > m.quota {
			return goerr.Wrap(ErrQuotaExceeded, "memory set",
				goerr.V("key", key), goerr.V("size", total), goerr.V("quota", m.quota))
		}
	}

	m.data[key] = slices.Clone(value)
	return nil
}

func (m *Memory) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}
