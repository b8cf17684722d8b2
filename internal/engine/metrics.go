package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/MarkBennett/dart-sub004/internal/cache"
)

// metrics live in a registry owned by one server, so several servers can
// coexist in a process.
type metrics struct {
	registry     *prometheus.Registry
	tasks        *prometheus.CounterVec
	taskDuration *prometheus.HistogramVec
	coalesced    prometheus.Counter
	queueDepth   prometheus.Gauge
	evictions    prometheus.Counter
	cacheEntries *prometheus.GaugeVec
	idle         prometheus.Counter
}

func newMetrics(engineID string) *metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	labels := prometheus.Labels{"engine": engineID}
	return &metrics{
		registry: reg,
		tasks: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "dartsub_engine_tasks_total",
			Help:        "Tasks executed by kind and outcome",
			ConstLabels: labels,
		}, []string{"kind", "outcome"}),
		taskDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "dartsub_engine_task_duration_seconds",
			Help:        "Task execution time by kind",
			ConstLabels: labels,
			Buckets:     []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"kind"}),
		coalesced: factory.NewCounter(prometheus.CounterOpts{
			Name:        "dartsub_engine_coalesced_total",
			Help:        "Queued tasks dropped as redundant",
			ConstLabels: labels,
		}),
		queueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Name:        "dartsub_engine_queue_depth",
			Help:        "Tasks waiting in the queue",
			ConstLabels: labels,
		}),
		evictions: factory.NewCounter(prometheus.CounterOpts{
			Name:        "dartsub_engine_evictions_total",
			Help:        "Libraries evicted from the cache",
			ConstLabels: labels,
		}),
		cacheEntries: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "dartsub_engine_cache_entries",
			Help:        "Cache entries by state",
			ConstLabels: labels,
		}, []string{"state"}),
		idle: factory.NewCounter(prometheus.CounterOpts{
			Name:        "dartsub_engine_idle_total",
			Help:        "Drain-to-empty transitions",
			ConstLabels: labels,
		}),
	}
}

func (m *metrics) observeCache(counts map[cache.State]int) {
	for _, st := range []cache.State{cache.Unknown, cache.Scanned, cache.Parsed, cache.Resolved} {
		m.cacheEntries.WithLabelValues(st.String()).Set(float64(counts[st]))
	}
}
