// Package tracker owns the in-memory project collection and keeps it in sync
// with the shared key-value store.
//
// The whole collection is stored as one JSON document under StorageKey. Every
// local change rewrites the document in full when it differs from what is
// stored; every change written by another tracker replaces the in-memory
// collection unconditionally. The last writer wins; writes that overwrite a
// revision this tracker never saw are logged and counted.
package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/josephgoksu/tasknest/internal/metrics"
	"github.com/josephgoksu/tasknest/models"
	"github.com/josephgoksu/tasknest/store"
)

// StorageKey is the store key holding the serialized ProjectsList.
const StorageKey = "projects"

// ErrProjectNotFound is returned when a project id is not in the collection.
var ErrProjectNotFound = errors.New("project not found")

// Event sources.
const (
	SourceLocal  = "local"
	SourceRemote = "remote"
)

// Event is delivered to subscribers after the in-memory collection changed.
type Event struct {
	Source   string
	Revision uint64
	Projects models.ProjectsList
}

// Options configures Open.
type Options struct {
	// WriterID identifies this tracker in the store. Defaults to a random UUID.
	WriterID string
	// Metrics defaults to metrics.GetDefault().
	Metrics *metrics.Metrics
}

// Tracker is the process-wide project collection.
type Tracker struct {
	kv      store.KVStore
	id      string
	metrics *metrics.Metrics
	cancel  func()

	mu       sync.Mutex
	projects models.ProjectsList
	revision uint64

	subsMu sync.Mutex
	nextID int
	subs   map[int]func(Event)
}

// Open seeds a tracker from the stored collection and starts listening for
// changes made by other trackers. A missing or undecodable value leaves the
// collection absent.
func Open(ctx context.Context, kv store.KVStore, opts Options) (*Tracker, error) {
	if opts.WriterID == "" {
		opts.WriterID = uuid.NewString()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.GetDefault()
	}

	t := &Tracker{
		kv:      kv,
		id:      opts.WriterID,
		metrics: opts.Metrics,
		subs:    make(map[int]func(Event)),
	}

	entry, err := kv.Get(ctx, StorageKey)
	switch {
	case err == nil:
		t.revision = entry.Revision
		projects, decErr := decode(entry.Value)
		if decErr != nil {
			slog.Warn("stored projects are invalid, starting empty", "revision", entry.Revision, "error", decErr)
		}
		t.projects = projects
	case errors.Is(err, store.ErrNotFound):
	case errors.Is(err, store.ErrInconsistent):
		slog.Warn("stored projects failed checksum, starting empty", "error", err)
	default:
		return nil, fmt.Errorf("load projects: %w", err)
	}

	t.cancel = kv.Subscribe(t.handleChange)
	slog.Debug("tracker opened", "writer", t.id, "backend", kv.Name(), "revision", t.revision, "projects", len(t.projects))
	return t, nil
}

// decode parses a stored collection. null decodes to an absent collection.
func decode(data []byte) (models.ProjectsList, error) {
	var projects models.ProjectsList
	if err := json.Unmarshal(data, &projects); err != nil {
		return nil, err
	}
	for id, p := range projects {
		if p.TasksList == nil {
			p.TasksList = models.TasksList{}
			projects[id] = p
		}
	}
	return projects, nil
}

// WriterID returns the id this tracker writes under.
func (t *Tracker) WriterID() string { return t.id }

// Revision returns the last store revision this tracker observed or wrote.
func (t *Tracker) Revision() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.revision
}

// Projects returns a copy of the collection, or nil when it is absent.
func (t *Tracker) Projects() models.ProjectsList {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.projects.Clone()
}

// Project returns a copy of one project.
func (t *Tracker) Project(id string) (models.Project, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.projects[id]
	if !ok {
		return models.Project{}, fmt.Errorf("%w: %s", ErrProjectNotFound, id)
	}
	return p.Clone(), nil
}

// CreateProject adds an empty project. An existing project with the same id
// is replaced.
func (t *Tracker) CreateProject(ctx context.Context, id, title string) (models.Project, error) {
	p := models.NewProject(id, title)
	if err := models.ValidateStruct(p); err != nil {
		return models.Project{}, fmt.Errorf("invalid project: %w", err)
	}
	err := t.update(ctx, func(projects models.ProjectsList) (models.ProjectsList, error) {
		projects[id] = p
		return projects, nil
	})
	if err != nil {
		return models.Project{}, err
	}
	return p.Clone(), nil
}

// RemoveProject deletes a project from the collection.
func (t *Tracker) RemoveProject(ctx context.Context, id string) error {
	return t.update(ctx, func(projects models.ProjectsList) (models.ProjectsList, error) {
		if _, ok := projects[id]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrProjectNotFound, id)
		}
		delete(projects, id)
		return projects, nil
	})
}

// UpdateProject stores p under its id, replacing the previous version.
func (t *Tracker) UpdateProject(ctx context.Context, p models.Project) error {
	if err := models.ValidateStruct(p); err != nil {
		return fmt.Errorf("invalid project: %w", err)
	}
	p = p.Clone()
	return t.update(ctx, func(projects models.ProjectsList) (models.ProjectsList, error) {
		projects[p.ID] = p
		return projects, nil
	})
}

// update applies fn to a private copy of the collection, swaps it in and
// persists the result.
func (t *Tracker) update(ctx context.Context, fn func(models.ProjectsList) (models.ProjectsList, error)) error {
	t.mu.Lock()
	next := t.projects.Clone()
	if next == nil {
		next = models.ProjectsList{}
	}
	next, err := fn(next)
	if err != nil {
		t.mu.Unlock()
		return err
	}
	t.projects = next
	revision := t.revision
	t.mu.Unlock()

	t.notify(Event{Source: SourceLocal, Revision: revision, Projects: next.Clone()})
	return t.persist(ctx, next)
}

// persist writes projects when its serialization differs from the stored one.
func (t *Tracker) persist(ctx context.Context, projects models.ProjectsList) error {
	data, err := json.Marshal(projects)
	if err != nil {
		return fmt.Errorf("marshal projects: %w", err)
	}

	current, err := t.kv.Get(ctx, StorageKey)
	switch {
	case err == nil:
		if string(current.Value) == string(data) {
			return nil
		}
	case errors.Is(err, store.ErrNotFound), errors.Is(err, store.ErrInconsistent):
	default:
		return fmt.Errorf("read stored projects: %w", err)
	}

	t.mu.Lock()
	seen := t.revision
	t.mu.Unlock()

	rev, err := t.kv.Set(ctx, StorageKey, data, t.id)
	if err != nil {
		return fmt.Errorf("store projects: %w", err)
	}
	t.metrics.StoreWrites.WithLabelValues(t.kv.Name()).Inc()
	t.metrics.SyncEvents.WithLabelValues(SourceLocal).Inc()

	if rev > seen+1 {
		t.metrics.SyncConflicts.Inc()
		slog.Warn("overwrote projects written elsewhere", "writer", t.id, "seen_revision", seen, "new_revision", rev)
	}

	t.mu.Lock()
	if rev > t.revision {
		t.revision = rev
	}
	t.mu.Unlock()

	slog.Debug("projects stored", "revision", rev, "bytes", len(data))
	return nil
}

// handleChange applies a change written by another tracker.
func (t *Tracker) handleChange(c store.Change) {
	if c.Key != StorageKey || c.Writer == t.id {
		return
	}

	t.mu.Lock()
	if c.Revision <= t.revision {
		t.mu.Unlock()
		return
	}
	t.revision = c.Revision

	if c.Deleted {
		t.mu.Unlock()
		slog.Debug("projects deleted elsewhere, keeping memory", "revision", c.Revision, "writer", c.Writer)
		return
	}
	projects, err := decode(c.Value)
	if err != nil || projects == nil {
		t.mu.Unlock()
		slog.Debug("ignoring unusable remote projects", "revision", c.Revision, "writer", c.Writer, "error", err)
		return
	}
	t.projects = projects
	t.mu.Unlock()

	t.metrics.SyncEvents.WithLabelValues(SourceRemote).Inc()
	slog.Debug("projects replaced from store", "revision", c.Revision, "writer", c.Writer)
	t.notify(Event{Source: SourceRemote, Revision: c.Revision, Projects: projects.Clone()})
}

// Subscribe registers fn for every change to the in-memory collection.
// The returned func unsubscribes.
func (t *Tracker) Subscribe(fn func(Event)) func() {
	t.subsMu.Lock()
	id := t.nextID
	t.nextID++
	t.subs[id] = fn
	t.subsMu.Unlock()

	return func() {
		t.subsMu.Lock()
		delete(t.subs, id)
		t.subsMu.Unlock()
	}
}

func (t *Tracker) notify(e Event) {
	t.subsMu.Lock()
	fns := make([]func(Event), 0, len(t.subs))
	for _, fn := range t.subs {
		fns = append(fns, fn)
	}
	t.subsMu.Unlock()

	for _, fn := range fns {
		fn(e)
	}
}

// Close stops listening to the store. The store itself stays open.
func (t *Tracker) Close() {
	if t.cancel != nil {
		t.cancel()
	}
}
