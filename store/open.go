package store

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// DefaultDebounce is how long watchers wait for a burst of filesystem events
// to settle before reading the new value.
const DefaultDebounce = 50 * time.Millisecond

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

func validateKey(key string) error {
	if !keyPattern.MatchString(key) || strings.HasPrefix(key, ".") {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}

// Options configures Open.
type Options struct {
	Backend  string
	Dir      string
	Watch    bool
	Debounce time.Duration
}

// Open creates the KVStore selected by opts.Backend.
func Open(opts Options) (KVStore, error) {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	switch strings.ToLower(opts.Backend) {
	case "", BackendFile:
		return NewFileStore(opts.Dir, FileStoreOptions{Watch: opts.Watch, Debounce: opts.Debounce})
	case BackendSQLite:
		return NewSQLiteStore(opts.Dir, SQLiteStoreOptions{Watch: opts.Watch, Debounce: opts.Debounce})
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported store backend: %s. Supported backends are file, sqlite, memory", opts.Backend)
	}
}
