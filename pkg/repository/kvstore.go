package repository

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
)

var (
	// ErrKeyNotFound is returned by Get when no value is stored under the key
	ErrKeyNotFound = goerr.New("key not found")

	// ErrQuotaExceeded is returned by Set when the backend refuses the value
	// because of a storage size limit
	ErrQuotaExceeded = goerr.New("storage quota exceeded")
)

// KVStore is a small client-local key-value store. Values are opaque bytes.
type KVStore interface {
	// Get returns the value stored under key or ErrKeyNotFound
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key, replacing any previous value
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
