// Package storage provides the archive backends daily reports are
// persisted to. Keys are forward-slash paths relative to the backend
// root, e.g. "reports/2026-08-24/market_close.json".
package storage

import "context"

// Backend is a flat key/value archive.
type Backend interface {
	// Put stores data under key, overwriting any previous value
	Put(ctx context.Context, key string, data []byte) error

	// Get retrieves the value stored under key
	Get(ctx context.Context, key string) ([]byte, error)

	// List returns the keys under prefix, sorted ascending
	List(ctx context.Context, prefix string) ([]string, error)

	// Exists reports whether a value is stored under key
	Exists(ctx context.Context, key string) (bool, error)

	// Delete removes the value stored under key
	Delete(ctx context.Context, key string) error
}
