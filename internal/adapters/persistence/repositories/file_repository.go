package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"healthmate/internal/pkg/vault"
)

// StoreFileName is the document holding every persisted key
const StoreFileName = "store.json"

// fileRepository persists all keys in one JSON document. Writes go to a
// temporary file that is renamed over the original, so a crash leaves
// either the old or the new document on disk.
type fileRepository struct {
	mu     sync.Mutex
	path   string
	sealer *vault.Sealer
	values map[string]string
}

// NewFileRepository opens (or creates) the store under dir. When sealer is
// non-nil values are encrypted at rest.
func NewFileRepository(dir string, sealer *vault.Sealer) (KeyValueRepository, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create storage dir: %w", err)
	}

	r := &fileRepository{
		path:   filepath.Join(dir, StoreFileName),
		sealer: sealer,
		values: make(map[string]string),
	}
	if err := r.load(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *fileRepository) load() error {
	content, err := os.ReadFile(r.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", r.path, err)
	}
	if len(content) == 0 {
		return nil
	}
	if err := json.Unmarshal(content, &r.values); err != nil {
		return fmt.Errorf("failed to decode %s: %w", r.path, err)
	}
	return nil
}

func (r *fileRepository) Get(ctx context.Context, key string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.values[key]
	if !ok {
		return "", ErrKeyNotFound
	}
	if r.sealer == nil {
		return stored, nil
	}
	value, err := r.sealer.Open(stored)
	if err != nil {
		return "", fmt.Errorf("failed to open %q: %w", key, err)
	}
	return value, nil
}

func (r *fileRepository) Set(ctx context.Context, key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := value
	if r.sealer != nil {
		sealed, err := r.sealer.Seal(value)
		if err != nil {
			return fmt.Errorf("failed to seal %q: %w", key, err)
		}
		stored = sealed
	}

	previous, existed := r.values[key]
	r.values[key] = stored
	if err := r.flush(); err != nil {
		if existed {
			r.values[key] = previous
		} else {
			delete(r.values, key)
		}
		return err
	}
	return nil
}

func (r *fileRepository) Delete(ctx context.Context, keys ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	changed := false
	for _, key := range keys {
		if _, ok := r.values[key]; ok {
			delete(r.values, key)
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return r.flush()
}

func (r *fileRepository) Close() error {
	return nil
}

// flush must be called with mu held
func (r *fileRepository) flush() error {
	bytes, err := json.MarshalIndent(r.values, "", "  ")
	if err != nil {
		return err
	}

	tempPath := r.path + ".tmp"
	if err := os.WriteFile(tempPath, bytes, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", tempPath, err)
	}
	if err := os.Rename(tempPath, r.path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", r.path, err)
	}
	return nil
}
