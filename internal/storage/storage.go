// Package storage provides the per-profile key-value store that stands in for a
// browser's local storage. Each profile is an isolated namespace with a byte quota.
package storage

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned by Get when the key has never been written or was removed.
	ErrNotFound = errors.New("storage: key not found")
	// ErrQuotaExceeded is returned by Set when the write would push the profile over its
	// quota. Nothing is written in that case.
	ErrQuotaExceeded = errors.New("storage: quota exceeded")
)

// KV is a namespaced key-value store. Set replaces the whole value in one step: readers
// see either the previous value or the new one, never a partial write. Concurrent writers
// of the same key are not coordinated; the last write wins.
type KV interface {
	Get(ctx context.Context, profileID, key string) ([]byte, error)
	Set(ctx context.Context, profileID, key string, value []byte) error
	Delete(ctx context.Context, profileID, key string) error
	Clear(ctx context.Context, profileID string) error
	Ping(ctx context.Context) error
	Close() error
}

// entrySize is what one entry counts against the quota. Keys count as well as values,
// the way browsers account for local storage.
func entrySize(key string, value []byte) int64 {
	return int64(len(key) + len(value))
}
