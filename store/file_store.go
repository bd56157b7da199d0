package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/afero"
)

const (
	valueSuffix = ".json"
	metaSuffix  = ".meta"
	lockSuffix  = ".lock"
	tempSuffix  = ".tmp"
)

// FileStoreOptions configures a FileStore.
type FileStoreOptions struct {
	// Fs defaults to the OS filesystem. Watching and cross-process locking
	// are only available on the OS filesystem.
	Fs       afero.Fs
	Watch    bool
	Debounce time.Duration
}

// FileStore keeps each key in a value file plus a metadata sidecar holding
// the revision, the writer and a SHA256 checksum of the value. Writes go to a
// temp file first and are renamed into place, and are serialized across
// processes with a per-key file lock.
type FileStore struct {
	dir     string
	fs      afero.Fs
	osFs    bool
	broker  *broker
	watcher *dirWatcher

	mu      sync.Mutex
	lockers map[string]locker
	closed  bool
}

// fileMeta is the content of a <key>.meta sidecar.
type fileMeta struct {
	Revision  uint64    `json:"revision"`
	Writer    string    `json:"writer"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updatedAt"`
	Deleted   bool      `json:"deleted,omitempty"`
}

// NewFileStore opens (creating if needed) a file store rooted at dir.
func NewFileStore(dir string, opts FileStoreOptions) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("file store: directory is required")
	}
	fsys := opts.Fs
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	_, osFs := fsys.(*afero.OsFs)

	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	s := &FileStore{
		dir:     dir,
		fs:      fsys,
		osFs:    osFs,
		broker:  newBroker(),
		lockers: make(map[string]locker),
	}

	if opts.Watch {
		if !osFs {
			return nil, errors.New("file store: watching requires the OS filesystem")
		}
		delay := opts.Debounce
		if delay <= 0 {
			delay = DefaultDebounce
		}
		w, err := watchDir(dir, delay, isMetaFile, s.handleExternal)
		if err != nil {
			return nil, err
		}
		s.watcher = w
	}
	return s, nil
}

func isMetaFile(name string) bool {
	return strings.HasSuffix(name, metaSuffix)
}

func (s *FileStore) Name() string { return BackendFile }

func (s *FileStore) valuePath(key string) string { return filepath.Join(s.dir, key+valueSuffix) }
func (s *FileStore) metaPath(key string) string  { return filepath.Join(s.dir, key+metaSuffix) }

// calculateChecksum computes the SHA256 checksum of the given data.
func calculateChecksum(data []byte) string {
	hasher := sha256.New()
	hasher.Write(data) // Write never returns an error
	return hex.EncodeToString(hasher.Sum(nil))
}

func (s *FileStore) lockerFor(key string) (locker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	l, ok := s.lockers[key]
	if !ok {
		if s.osFs {
			l = &fileLocker{flk: flock.New(filepath.Join(s.dir, key+lockSuffix))}
		} else {
			l = &fileLocker{}
		}
		s.lockers[key] = l
	}
	return l, nil
}

func (s *FileStore) readMeta(key string) (fileMeta, error) {
	data, err := afero.ReadFile(s.fs, s.metaPath(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fileMeta{}, ErrNotFound
		}
		return fileMeta{}, fmt.Errorf("failed to read metadata for %s: %w", key, err)
	}
	var meta fileMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return fileMeta{}, fmt.Errorf("%w: metadata for %s: %v", ErrInconsistent, key, err)
	}
	return meta, nil
}

// readEntry loads key assuming the caller holds its lock.
func (s *FileStore) readEntry(key string) (Entry, fileMeta, error) {
	meta, err := s.readMeta(key)
	if err != nil {
		return Entry{}, meta, err
	}
	if meta.Deleted {
		return Entry{}, meta, ErrNotFound
	}
	data, err := afero.ReadFile(s.fs, s.valuePath(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Entry{}, meta, fmt.Errorf("%w: value file for %s missing", ErrInconsistent, key)
		}
		return Entry{}, meta, fmt.Errorf("failed to read value for %s: %w", key, err)
	}
	if actual := calculateChecksum(data); actual != meta.Checksum {
		return Entry{}, meta, fmt.Errorf("%w: %s expected %s, got %s", ErrInconsistent, key, meta.Checksum, actual)
	}
	return Entry{Key: key, Value: data, Revision: meta.Revision, Writer: meta.Writer, UpdatedAt: meta.UpdatedAt}, meta, nil
}

func (s *FileStore) writeAtomic(path string, data []byte) error {
	tmp := path + tempSuffix
	defer func() { _ = s.fs.Remove(tmp) }()

	if err := afero.WriteFile(s.fs, tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write temporary file %s: %w", tmp, err)
	}
	if err := s.fs.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to rename %s to %s: %w", tmp, path, err)
	}
	return nil
}

func (s *FileStore) Get(ctx context.Context, key string) (Entry, error) {
	if err := ctx.Err(); err != nil {
		return Entry{}, err
	}
	if err := validateKey(key); err != nil {
		return Entry{}, err
	}
	l, err := s.lockerFor(key)
	if err != nil {
		return Entry{}, err
	}
	if err := l.RLock(); err != nil {
		return Entry{}, fmt.Errorf("failed to acquire read lock for %s: %w", key, err)
	}
	defer func() { _ = l.Unlock() }()

	entry, _, err := s.readEntry(key)
	return entry, err
}

func (s *FileStore) Set(ctx context.Context, key string, value []byte, writer string) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := validateKey(key); err != nil {
		return 0, err
	}
	l, err := s.lockerFor(key)
	if err != nil {
		return 0, err
	}
	if err := l.Lock(); err != nil {
		return 0, fmt.Errorf("could not lock %s for write: %w", key, err)
	}

	rev, err := s.writeLocked(key, value, writer)
	_ = l.Unlock()
	if err != nil {
		return 0, err
	}

	slog.Debug("file store write", "key", key, "revision", rev, "writer", writer, "bytes", len(value))
	s.broker.publish(Change{Key: key, Value: append([]byte(nil), value...), Revision: rev, Writer: writer})
	return rev, nil
}

func (s *FileStore) writeLocked(key string, value []byte, writer string) (uint64, error) {
	prev, err := s.readMeta(key)
	if err != nil && !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrInconsistent) {
		return 0, err
	}

	meta := fileMeta{
		Revision:  prev.Revision + 1,
		Writer:    writer,
		Checksum:  calculateChecksum(value),
		UpdatedAt: time.Now().UTC(),
	}
	metaData, err := json.Marshal(meta)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal metadata: %w", err)
	}

	// Value first: a reader that sees the new sidecar always finds the new value.
	if err := s.writeAtomic(s.valuePath(key), value); err != nil {
		return 0, err
	}
	if err := s.writeAtomic(s.metaPath(key), metaData); err != nil {
		return 0, fmt.Errorf("value for %s updated but metadata is stale: %w", key, err)
	}
	return meta.Revision, nil
}

func (s *FileStore) Delete(ctx context.Context, key, writer string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateKey(key); err != nil {
		return err
	}
	l, err := s.lockerFor(key)
	if err != nil {
		return err
	}
	if err := l.Lock(); err != nil {
		return fmt.Errorf("could not lock %s for delete: %w", key, err)
	}

	prev, err := s.readMeta(key)
	if errors.Is(err, ErrNotFound) || (err == nil && prev.Deleted) {
		_ = l.Unlock()
		return nil
	}
	meta := fileMeta{Revision: prev.Revision + 1, Writer: writer, UpdatedAt: time.Now().UTC(), Deleted: true}
	metaData, _ := json.Marshal(meta)
	err = s.writeAtomic(s.metaPath(key), metaData)
	if err == nil {
		if rmErr := s.fs.Remove(s.valuePath(key)); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			err = fmt.Errorf("failed to remove value for %s: %w", key, rmErr)
		}
	}
	_ = l.Unlock()
	if err != nil {
		return err
	}

	s.broker.publish(Change{Key: key, Revision: meta.Revision, Writer: writer, Deleted: true})
	return nil
}

// handleExternal reads keys whose sidecar changed on disk and publishes the
// revisions this store has not delivered yet.
func (s *FileStore) handleExternal(names []string) {
	for _, name := range names {
		key := strings.TrimSuffix(name, metaSuffix)
		if validateKey(key) != nil {
			continue
		}
		l, err := s.lockerFor(key)
		if err != nil {
			return
		}
		if err := l.RLock(); err != nil {
			slog.Warn("file store watch: lock failed", "key", key, "error", err)
			continue
		}
		entry, meta, err := s.readEntry(key)
		_ = l.Unlock()

		switch {
		case err == nil:
			s.broker.publish(Change{Key: key, Value: entry.Value, Revision: entry.Revision, Writer: entry.Writer})
		case errors.Is(err, ErrNotFound) && meta.Deleted:
			s.broker.publish(Change{Key: key, Revision: meta.Revision, Writer: meta.Writer, Deleted: true})
		case errors.Is(err, ErrInconsistent):
			slog.Debug("file store watch: value not consistent yet", "key", key, "error", err)
		default:
			slog.Debug("file store watch: read failed", "key", key, "error", err)
		}
	}
}

func (s *FileStore) Subscribe(fn func(Change)) func() {
	return s.broker.subscribe(fn)
}

func (s *FileStore) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	lockers := s.lockers
	s.lockers = make(map[string]locker)
	s.mu.Unlock()

	var err error
	if s.watcher != nil {
		err = s.watcher.Close()
	}
	for _, l := range lockers {
		l.Close()
	}
	s.broker.clear()
	return err
}

// locker serializes access to one key.
type locker interface {
	Lock() error
	RLock() error
	Unlock() error
	Close()
}

// fileLocker pairs an in-process mutex with an optional flock. A single
// flock handle does not exclude goroutines of the same process.
type fileLocker struct {
	mu  sync.Mutex
	flk *flock.Flock
}

func (l *fileLocker) Lock() error {
	l.mu.Lock()
	if l.flk == nil {
		return nil
	}
	if err := l.flk.Lock(); err != nil {
		l.mu.Unlock()
		return err
	}
	return nil
}

func (l *fileLocker) RLock() error {
	l.mu.Lock()
	if l.flk == nil {
		return nil
	}
	if err := l.flk.RLock(); err != nil {
		l.mu.Unlock()
		return err
	}
	return nil
}

func (l *fileLocker) Unlock() error {
	var err error
	if l.flk != nil {
		err = l.flk.Unlock()
	}
	l.mu.Unlock()
	return err
}

func (l *fileLocker) Close() {
	if l.flk != nil {
		_ = l.flk.Close()
	}
}
