package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteFileName = "tasknest.db"

// SQLiteStoreOptions configures a SQLiteStore.
type SQLiteStoreOptions struct {
	Watch    bool
	Debounce time.Duration
}

// SQLiteStore implements KVStore on a single SQLite table. Other processes
// sharing the database file are detected by watching its directory.
type SQLiteStore struct {
	db      *sql.DB
	broker  *broker
	watcher *dirWatcher

	mu     sync.Mutex
	closed bool
}

// NewSQLiteStore opens the database in dir. Use ":memory:" for a private
// in-memory database (tests); watching is unavailable there.
func NewSQLiteStore(dir string, opts SQLiteStoreOptions) (*SQLiteStore, error) {
	var dbPath string
	if dir == ":memory:" {
		dbPath = ":memory:"
	} else {
		if dir == "" {
			return nil, errors.New("sqlite store: directory is required")
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
		dbPath = filepath.Join(dir, sqliteFileName)
	}

	dsn := dbPath
	if dbPath != ":memory:" {
		dsn += "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Each connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	}

	s := &SQLiteStore{db: db, broker: newBroker()}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	if opts.Watch && dbPath != ":memory:" {
		delay := opts.Debounce
		if delay <= 0 {
			delay = DefaultDebounce
		}
		w, err := watchDir(dir, delay, isDatabaseFile, func([]string) { s.pollChanges() })
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		s.watcher = w
	}
	return s, nil
}

func isDatabaseFile(name string) bool {
	return strings.HasPrefix(name, sqliteFileName)
}

// initSchema creates the kv table if it doesn't exist.
func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value BLOB,
		revision INTEGER NOT NULL,
		writer TEXT NOT NULL DEFAULT '',
		deleted INTEGER NOT NULL DEFAULT 0,
		updated_at TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) Name() string { return BackendSQLite }

func (s *SQLiteStore) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *SQLiteStore) Get(ctx context.Context, key string) (Entry, error) {
	if s.isClosed() {
		return Entry{}, ErrClosed
	}
	var (
		e         = Entry{Key: key}
		deleted   bool
		updatedAt string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT value, revision, writer, deleted, updated_at FROM kv WHERE key = ?`, key,
	).Scan(&e.Value, &e.Revision, &e.Writer, &deleted, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && deleted) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, fmt.Errorf("query key %s: %w", key, err)
	}
	e.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	return e, nil
}

func (s *SQLiteStore) Set(ctx context.Context, key string, value []byte, writer string) (uint64, error) {
	if s.isClosed() {
		return 0, ErrClosed
	}
	if err := validateKey(key); err != nil {
		return 0, err
	}
	if value == nil {
		value = []byte{}
	}
	var rev uint64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO kv (key, value, revision, writer, deleted, updated_at)
		VALUES (?, ?, 1, ?, 0, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			revision = kv.revision + 1,
			writer = excluded.writer,
			deleted = 0,
			updated_at = excluded.updated_at
		RETURNING revision`,
		key, value, writer, time.Now().UTC().Format(time.RFC3339Nano),
	).Scan(&rev)
	if err != nil {
		return 0, fmt.Errorf("write key %s: %w", key, err)
	}

	slog.Debug("sqlite store write", "key", key, "revision", rev, "writer", writer, "bytes", len(value))
	s.broker.publish(Change{Key: key, Value: append([]byte(nil), value...), Revision: rev, Writer: writer})
	return rev, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, key, writer string) error {
	if s.isClosed() {
		return ErrClosed
	}
	var rev uint64
	err := s.db.QueryRowContext(ctx, `
		UPDATE kv SET value = NULL, revision = revision + 1, writer = ?, deleted = 1, updated_at = ?
		WHERE key = ? AND deleted = 0
		RETURNING revision`,
		writer, time.Now().UTC().Format(time.RFC3339Nano), key,
	).Scan(&rev)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("delete key %s: %w", key, err)
	}
	s.broker.publish(Change{Key: key, Revision: rev, Writer: writer, Deleted: true})
	return nil
}

// pollChanges publishes every row whose revision this store has not
// delivered yet. It runs after the database files changed on disk.
func (s *SQLiteStore) pollChanges() {
	if s.isClosed() {
		return
	}
	rows, err := s.db.Query(`SELECT key, value, revision, writer, deleted FROM kv`)
	if err != nil {
		slog.Warn("sqlite store poll failed", "error", err)
		return
	}

	changes, err := s.scanChanges(rows)
	if err != nil {
		slog.Warn("sqlite store poll interrupted", "error", err, "changes", len(changes))
	}

	for _, c := range changes {
		s.broker.publish(c)
	}
}

// changeRows is the part of *sql.Rows a poll reads.
type changeRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

// scanChanges collects the rows the broker has not delivered yet and closes
// rows. Changes read before an iteration error are returned with the error.
func (s *SQLiteStore) scanChanges(rows changeRows) ([]Change, error) {
	defer func() { _ = rows.Close() }()

	var changes []Change
	for rows.Next() {
		var c Change
		if err := rows.Scan(&c.Key, &c.Value, &c.Revision, &c.Writer, &c.Deleted); err != nil {
			slog.Warn("sqlite store poll scan failed", "error", err)
			continue
		}
		if !s.broker.seen(c.Key, c.Revision) {
			changes = append(changes, c)
		}
	}
	return changes, rows.Err()
}

func (s *SQLiteStore) Subscribe(fn func(Change)) func() {
	return s.broker.subscribe(fn)
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	if s.watcher != nil {
		_ = s.watcher.Close()
	}
	s.broker.clear()
	return s.db.Close()
}
