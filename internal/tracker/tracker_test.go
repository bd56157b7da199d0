package tracker

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josephgoksu/tasknest/internal/metrics"
	"github.com/josephgoksu/tasknest/models"
	"github.com/josephgoksu/tasknest/store"
)

func openTab(t *testing.T, kv store.KVStore, writer string) (*Tracker, *metrics.Metrics) {
	t.Helper()
	_, m := metrics.NewRegistry()
	tr, err := Open(context.Background(), kv, Options{WriterID: writer, Metrics: m})
	require.NoError(t, err)
	t.Cleanup(tr.Close)
	return tr, m
}

func TestOpen_EmptyStoreIsAbsent(t *testing.T) {
	tr, _ := openTab(t, store.NewMemoryStore(), "a")
	assert.Nil(t, tr.Projects())
	assert.Zero(t, tr.Revision())
}

func TestOpen_InvalidValueIsAbsent(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryStore()
	_, err := kv.Set(ctx, StorageKey, []byte("{not json"), "someone")
	require.NoError(t, err)

	tr, _ := openTab(t, kv, "a")
	assert.Nil(t, tr.Projects())
	assert.Equal(t, uint64(1), tr.Revision())
}

func TestOpen_SeedsFromStore(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryStore()
	data, err := json.Marshal(models.ProjectsList{"p1": models.NewProject("p1", "Home")})
	require.NoError(t, err)
	_, err = kv.Set(ctx, StorageKey, data, "someone")
	require.NoError(t, err)

	tr, _ := openTab(t, kv, "a")
	p, err := tr.Project("p1")
	require.NoError(t, err)
	assert.Equal(t, "Home", p.Title)
	assert.NotNil(t, p.TasksList)
}

func TestCreateProject_Persists(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryStore()
	tr, m := openTab(t, kv, "a")

	_, err := tr.CreateProject(ctx, "p1", "Work")
	require.NoError(t, err)

	entry, err := kv.Get(ctx, StorageKey)
	require.NoError(t, err)
	assert.Equal(t, "a", entry.Writer)

	var stored models.ProjectsList
	require.NoError(t, json.Unmarshal(entry.Value, &stored))
	assert.Equal(t, "Work", stored["p1"].Title)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StoreWrites.WithLabelValues(store.BackendMemory)))
}

func TestCreateProject_RequiresID(t *testing.T) {
	tr, _ := openTab(t, store.NewMemoryStore(), "a")
	_, err := tr.CreateProject(context.Background(), "", "Work")
	assert.Error(t, err)
	assert.Nil(t, tr.Projects())
}

func TestCreateProject_AllowsEmptyTitle(t *testing.T) {
	tr, _ := openTab(t, store.NewMemoryStore(), "a")
	p, err := tr.CreateProject(context.Background(), "p1", "")
	require.NoError(t, err)
	assert.Equal(t, "", p.Title)
	assert.Len(t, tr.Projects(), 1)
}

func TestUpdateProject_SkipsIdenticalWrite(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryStore()
	tr, m := openTab(t, kv, "a")

	p, err := tr.CreateProject(ctx, "p1", "Work")
	require.NoError(t, err)
	require.NoError(t, tr.UpdateProject(ctx, p))

	entry, err := kv.Get(ctx, StorageKey)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), entry.Revision)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StoreWrites.WithLabelValues(store.BackendMemory)))
}

func TestRemoveProject(t *testing.T) {
	ctx := context.Background()
	tr, _ := openTab(t, store.NewMemoryStore(), "a")

	_, err := tr.CreateProject(ctx, "p1", "Work")
	require.NoError(t, err)
	require.NoError(t, tr.RemoveProject(ctx, "p1"))

	_, err = tr.Project("p1")
	assert.ErrorIs(t, err, ErrProjectNotFound)
	assert.ErrorIs(t, tr.RemoveProject(ctx, "p1"), ErrProjectNotFound)
	assert.NotNil(t, tr.Projects())
}

func TestProjects_ReturnsCopy(t *testing.T) {
	ctx := context.Background()
	tr, _ := openTab(t, store.NewMemoryStore(), "a")
	_, err := tr.CreateProject(ctx, "p1", "Work")
	require.NoError(t, err)

	got := tr.Projects()
	p := got["p1"]
	p.Title = "changed"
	got["p1"] = p

	fresh, err := tr.Project("p1")
	require.NoError(t, err)
	assert.Equal(t, "Work", fresh.Title)
}

func TestTabs_RemoteChangeReplacesMemory(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryStore()
	a, _ := openTab(t, kv, "tab-a")
	b, mb := openTab(t, kv, "tab-b")

	var mu sync.Mutex
	var events []Event
	b.Subscribe(func(e Event) {
		mu.Lock()
		events = append(events, e)
		mu.Unlock()
	})

	_, err := a.CreateProject(ctx, "p1", "Shared")
	require.NoError(t, err)

	p, err := b.Project("p1")
	require.NoError(t, err)
	assert.Equal(t, "Shared", p.Title)
	assert.Equal(t, a.Revision(), b.Revision())
	assert.Equal(t, 1.0, testutil.ToFloat64(mb.SyncEvents.WithLabelValues(SourceRemote)))

	mu.Lock()
	require.Len(t, events, 1)
	assert.Equal(t, SourceRemote, events[0].Source)
	mu.Unlock()

	// b applying the same state must not write it back.
	entry, err := kv.Get(ctx, StorageKey)
	require.NoError(t, err)
	assert.Equal(t, "tab-a", entry.Writer)
}

func TestTabs_LastWriterWins(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryStore()
	a, _ := openTab(t, kv, "tab-a")
	b, _ := openTab(t, kv, "tab-b")

	_, err := a.CreateProject(ctx, "p1", "From A")
	require.NoError(t, err)
	_, err = b.CreateProject(ctx, "p2", "From B")
	require.NoError(t, err)

	// b had already applied a's write, so both projects survive.
	assert.Len(t, a.Projects(), 2)
	assert.Len(t, b.Projects(), 2)
}

func TestRemoteInvalidValueIgnored(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryStore()
	a, _ := openTab(t, kv, "tab-a")
	_, err := a.CreateProject(ctx, "p1", "Keep")
	require.NoError(t, err)

	_, err = kv.Set(ctx, StorageKey, []byte("garbage"), "tab-x")
	require.NoError(t, err)
	_, err = kv.Set(ctx, StorageKey, []byte("null"), "tab-x")
	require.NoError(t, err)
	require.NoError(t, kv.Delete(ctx, StorageKey, "tab-x"))

	p, err := a.Project("p1")
	require.NoError(t, err)
	assert.Equal(t, "Keep", p.Title)
	assert.Equal(t, uint64(4), a.Revision())
}

func TestConflictCounted(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryStore()
	a, ma := openTab(t, kv, "tab-a")

	// A write that a never hears about.
	a.Close()
	_, err := kv.Set(ctx, StorageKey, []byte(`{}`), "tab-x")
	require.NoError(t, err)

	_, err = a.CreateProject(ctx, "p1", "Mine")
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(ma.SyncConflicts))
	assert.Equal(t, uint64(2), a.Revision())
}

func TestSubscribe_LocalAndUnsubscribe(t *testing.T) {
	ctx := context.Background()
	tr, _ := openTab(t, store.NewMemoryStore(), "a")

	var got []string
	cancel := tr.Subscribe(func(e Event) { got = append(got, e.Source) })

	_, err := tr.CreateProject(ctx, "p1", "One")
	require.NoError(t, err)
	cancel()
	_, err = tr.CreateProject(ctx, "p2", "Two")
	require.NoError(t, err)

	assert.Equal(t, []string{SourceLocal}, got)
}
