package store

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process KVStore. Several trackers sharing one
// instance behave like browser tabs sharing local storage.
type MemoryStore struct {
	mu        sync.RWMutex
	entries   map[string]Entry
	revisions map[string]uint64
	closed    bool
	broker    *broker
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries:   make(map[string]Entry),
		revisions: make(map[string]uint64),
		broker:    newBroker(),
	}
}

func (s *MemoryStore) Name() string { return BackendMemory }

func (s *MemoryStore) Get(ctx context.Context, key string) (Entry, error) {
	if err := ctx.Err(); err != nil {
		return Entry{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return Entry{}, ErrClosed
	}
	e, ok := s.entries[key]
	if !ok {
		return Entry{}, ErrNotFound
	}
	e.Value = append([]byte(nil), e.Value...)
	return e, nil
}

func (s *MemoryStore) Set(ctx context.Context, key string, value []byte, writer string) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := validateKey(key); err != nil {
		return 0, err
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return 0, ErrClosed
	}
	rev := s.revisions[key] + 1
	s.revisions[key] = rev
	stored := append([]byte(nil), value...)
	s.entries[key] = Entry{Key: key, Value: stored, Revision: rev, Writer: writer, UpdatedAt: time.Now().UTC()}
	s.mu.Unlock()

	s.broker.publish(Change{Key: key, Value: append([]byte(nil), stored...), Revision: rev, Writer: writer})
	return rev, nil
}

func (s *MemoryStore) Delete(ctx context.Context, key, writer string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if _, ok := s.entries[key]; !ok {
		s.mu.Unlock()
		return nil
	}
	delete(s.entries, key)
	rev := s.revisions[key] + 1
	s.revisions[key] = rev
	s.mu.Unlock()

	s.broker.publish(Change{Key: key, Revision: rev, Writer: writer, Deleted: true})
	return nil
}

func (s *MemoryStore) Subscribe(fn func(Change)) func() {
	return s.broker.subscribe(fn)
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.broker.clear()
	return nil
}
