package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned by Get when a key holds no value.
	ErrNotFound = errors.New("key not found")
	// ErrClosed is returned by every operation on a closed store.
	ErrClosed = errors.New("store closed")
	// ErrInconsistent is returned when a stored value does not match its
	// recorded checksum, typically because a writer is mid-update.
	ErrInconsistent = errors.New("stored value does not match checksum")
	// ErrInvalidKey is returned for keys that cannot be stored.
	ErrInvalidKey = errors.New("invalid key")
)

// Entry is a stored value together with its write metadata.
type Entry struct {
	Key       string
	Value     []byte
	Revision  uint64
	Writer    string
	UpdatedAt time.Time
}

// Change describes one write observed by a store, either made through the
// store itself or detected from another process.
type Change struct {
	Key      string
	Value    []byte
	Revision uint64
	Writer   string
	Deleted  bool
}

// KVStore defines a durable key-value store shared by every process that
// opens the same location. There is no compare-and-swap: concurrent writers
// race and the last one wins.
type KVStore interface {
	// Name identifies the backend (e.g. "file", "sqlite", "memory").
	Name() string

	// Get returns the current entry for key, or ErrNotFound.
	Get(ctx context.Context, key string) (Entry, error)

	// Set overwrites the value of key in full and returns the new revision.
	// Revisions of a key increase monotonically across all writers.
	// writer identifies the caller and is reported back in Change.Writer.
	Set(ctx context.Context, key string, value []byte, writer string) (uint64, error)

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key, writer string) error

	// Subscribe registers fn for every change the store observes. A given
	// revision of a key is delivered at most once. fn runs outside any store
	// lock and may call back into the store. The returned func unsubscribes.
	Subscribe(fn func(Change)) (cancel func())

	// Close stops watchers and releases locks or database handles.
	Close() error
}
