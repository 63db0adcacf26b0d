// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 EcoTrack Contributors

package session

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"sync"

	"github.com/samber/oops"
)

// ErrCorrupt is returned by a backend whose persisted key space cannot be decoded.
var ErrCorrupt = errors.New("session storage is corrupt")

// FileBackend stores the whole key space as one JSON object in a file.
// Writes go to a temp file in the same directory that is fsynced and renamed
// over the destination, so a crash leaves either the old or the new content.
type FileBackend struct {
	path string
	mu   sync.Mutex
}

var _ Backend = (*FileBackend)(nil)

// NewFileBackend creates a FileBackend at path. The file is created on first write.
func NewFileBackend(path string) (*FileBackend, error) {
	if path == "" {
		return nil, oops.Code("SESSION_FILE_PATH_EMPTY").Errorf("session file path cannot be empty")
	}
	return &FileBackend{path: path}, nil
}

// Path returns the file the backend writes to.
func (b *FileBackend) Path() string {
	return b.path
}

func (b *FileBackend) load() (map[string]string, error) {
	data, err := os.ReadFile(b.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, oops.Code("SESSION_FILE_READ_FAILED").With("path", b.path).Wrap(err)
	}
	if len(data) == 0 {
		return map[string]string{}, nil
	}

	values := map[string]string{}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, oops.Code("SESSION_FILE_CORRUPT").
			With("path", b.path).
			Wrap(errors.Join(ErrCorrupt, err))
	}
	return values, nil
}

func (b *FileBackend) store(values map[string]string) error {
	dir := filepath.Dir(b.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return oops.Code("SESSION_FILE_WRITE_FAILED").With("path", b.path).Wrap(err)
	}

	data, err := json.Marshal(values)
	if err != nil {
		return oops.Code("SESSION_FILE_WRITE_FAILED").With("operation", "marshal").Wrap(err)
	}

	tmp, err := os.CreateTemp(dir, ".session-*.json")
	if err != nil {
		return oops.Code("SESSION_FILE_WRITE_FAILED").With("path", b.path).Wrap(err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = tmp.Close()        //nolint:errcheck // already closed on the success path
		_ = os.Remove(tmpPath) //nolint:errcheck // gone after a successful rename
	}()

	if err := tmp.Chmod(0o600); err != nil {
		return oops.Code("SESSION_FILE_WRITE_FAILED").With("operation", "chmod").Wrap(err)
	}
	if _, err := tmp.Write(data); err != nil {
		return oops.Code("SESSION_FILE_WRITE_FAILED").With("operation", "write").Wrap(err)
	}
	if err := tmp.Sync(); err != nil {
		return oops.Code("SESSION_FILE_WRITE_FAILED").With("operation", "fsync").Wrap(err)
	}
	if err := tmp.Close(); err != nil {
		return oops.Code("SESSION_FILE_WRITE_FAILED").With("operation", "close").Wrap(err)
	}
	if err := os.Rename(tmpPath, b.path); err != nil {
		return oops.Code("SESSION_FILE_WRITE_FAILED").With("operation", "rename").Wrap(err)
	}
	return nil
}

// loadForWrite returns the current key space, discarding a corrupt file so
// that writes can repair it.
func (b *FileBackend) loadForWrite() (map[string]string, error) {
	values, err := b.load()
	if errors.Is(err, ErrCorrupt) {
		return map[string]string{}, nil
	}
	return values, err
}

// GetAll implements Backend.
func (b *FileBackend) GetAll(_ context.Context, keys ...string) (map[string]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	values, err := b.load()
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(keys))
	for _, k := range keys {
		if v, ok := values[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

// SetAll implements Backend.
func (b *FileBackend) SetAll(_ context.Context, values map[string]string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	current, err := b.loadForWrite()
	if err != nil {
		return err
	}
	maps.Copy(current, values)
	return b.store(current)
}

// Delete implements Backend.
func (b *FileBackend) Delete(_ context.Context, keys ...string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	current, err := b.loadForWrite()
	if err != nil {
		return err
	}
	changed := false
	for _, k := range keys {
		if _, ok := current[k]; ok {
			delete(current, k)
			changed = true
		}
	}
	if !changed {
		if _, statErr := os.Stat(b.path); errors.Is(statErr, fs.ErrNotExist) {
			return nil
		}
	}
	return b.store(current)
}

// Close implements Backend.
func (b *FileBackend) Close() error {
	return nil
}
