// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 EcoTrack Contributors

package session

import (
	"context"
	"maps"
	"sync"
)

// Backend is a flat string key space. Implementations must apply SetAll
// atomically: readers observe either all of the new values or none.
type Backend interface {
	// GetAll returns the values of the requested keys that are present.
	GetAll(ctx context.Context, keys ...string) (map[string]string, error)

	// SetAll writes every key/value pair in one atomic step.
	SetAll(ctx context.Context, values map[string]string) error

	// Delete removes the keys. Missing keys are ignored.
	Delete(ctx context.Context, keys ...string) error

	// Close releases the backend's resources.
	Close() error
}

// MemoryBackend keeps the key space in process memory.
type MemoryBackend struct {
	mu     sync.RWMutex
	values map[string]string
}

var _ Backend = (*MemoryBackend)(nil)

// NewMemoryBackend creates an empty MemoryBackend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{values: make(map[string]string)}
}

// GetAll implements Backend.
func (b *MemoryBackend) GetAll(_ context.Context, keys ...string) (map[string]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make(map[string]string, len(keys))
	for _, k := range keys {
		if v, ok := b.values[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

// SetAll implements Backend.
func (b *MemoryBackend) SetAll(_ context.Context, values map[string]string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	maps.Copy(b.values, values)
	return nil
}

// Delete implements Backend.
func (b *MemoryBackend) Delete(_ context.Context, keys ...string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, k := range keys {
		delete(b.values, k)
	}
	return nil
}

// Close implements Backend.
func (b *MemoryBackend) Close() error {
	return nil
}
