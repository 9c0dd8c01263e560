package repositories

import (
	"context"
	"errors"
)

// ErrKeyNotFound is returned by Get when nothing is stored under a key
var ErrKeyNotFound = errors.New("key not found")

// KeyValueRepository defines the device-local persistent storage interface.
// Every driver stores plain strings; structured values are JSON encoded by
// the caller.
type KeyValueRepository interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
	Close() error
}
