// Package metrics holds the Prometheus counters for TaskNest.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for TaskNest
type Metrics struct {
	// Task tree mutations, labelled by operation
	Mutations *prometheus.CounterVec

	// Import attempts, labelled by result ("ok" or the rejection kind)
	Imports *prometheus.CounterVec

	// Full-collection writes to the key-value store
	StoreWrites *prometheus.CounterVec

	// Changes applied from the store, labelled by source ("local", "remote")
	SyncEvents *prometheus.CounterVec

	// Writes that landed on top of a revision this process never observed
	SyncConflicts prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics registered
func NewMetrics(registry prometheus.Registerer) *Metrics {
	factory := promauto.With(registry)

	return &Metrics{
		Mutations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tasknest_mutations_total",
				Help: "Total number of task tree mutations",
			},
			[]string{"op"},
		),
		Imports: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tasknest_imports_total",
				Help: "Total number of task imports by result",
			},
			[]string{"result"},
		),
		StoreWrites: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tasknest_store_writes_total",
				Help: "Total number of project collection writes",
			},
			[]string{"backend"},
		),
		SyncEvents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tasknest_sync_events_total",
				Help: "Total number of store changes applied to memory",
			},
			[]string{"source"},
		),
		SyncConflicts: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "tasknest_sync_conflicts_total",
				Help: "Total number of writes that overwrote an unseen revision",
			},
		),
	}
}

var (
	// Default is the process-wide metrics instance
	Default  *Metrics
	registry *prometheus.Registry
	once     sync.Once
)

// InitDefault initializes the default metrics instance on a private registry.
// This should be called once at application startup
func InitDefault() *Metrics {
	once.Do(func() {
		registry, Default = NewRegistry()
	})
	return Default
}

// GetDefault returns the default metrics instance
// If not initialized, it will initialize it first
func GetDefault() *Metrics {
	return InitDefault()
}

// Gatherer returns the registry behind the default instance.
func Gatherer() prometheus.Gatherer {
	InitDefault()
	return registry
}

// NewRegistry creates a new Prometheus registry with metrics
func NewRegistry() (*prometheus.Registry, *Metrics) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	return reg, m
}

// Reset clears the default metrics instance (useful for testing)
func Reset() {
	Default = nil
	registry = nil
	once = sync.Once{}
}
