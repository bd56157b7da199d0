package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetrics_Counters(t *testing.T) {
	reg, m := NewRegistry()

	m.Mutations.WithLabelValues("add_subtask").Inc()
	m.Mutations.WithLabelValues("add_subtask").Inc()
	m.Imports.WithLabelValues("duplicate").Inc()
	m.SyncConflicts.Inc()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Mutations.WithLabelValues("add_subtask")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SyncConflicts))

	samples, err := Snapshot(reg)
	require.NoError(t, err)
	require.Len(t, samples, 3)
	assert.Equal(t, "tasknest_imports_total", samples[0].Name)
	assert.Equal(t, `result="duplicate"`, samples[0].Labels)
	assert.Equal(t, "tasknest_mutations_total", samples[1].Name)
	assert.Equal(t, 2.0, samples[1].Value)
	assert.Equal(t, "tasknest_sync_conflicts_total", samples[2].Name)
}

func TestDefault_Lifecycle(t *testing.T) {
	Reset()
	defer Reset()

	m := GetDefault()
	require.NotNil(t, m)
	assert.Same(t, m, InitDefault())

	m.StoreWrites.WithLabelValues("file").Inc()
	samples, err := Snapshot(Gatherer())
	require.NoError(t, err)

	found := false
	for _, s := range samples {
		if s.Name == "tasknest_store_writes_total" && s.Value == 1 {
			found = true
		}
	}
	assert.True(t, found)
}
