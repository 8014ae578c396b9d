package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// CacheQueries counts visible-set queries by scene and outcome.
	CacheQueries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "atomview_cache_queries_total",
			Help: "Visible-set queries by scene and result (hit or miss)",
		},
		[]string{"scene", "result"},
	)

	// RebuildDuration tracks the time spent re-evaluating the store.
	RebuildDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "atomview_rebuild_seconds",
			Help:    "Time spent rebuilding the visible set",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 16),
		},
		[]string{"scene"},
	)

	// VisibleAtoms reports the size of the last visible set.
	VisibleAtoms = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "atomview_visible_atoms",
			Help: "Particles in the last visible set",
		},
		[]string{"scene"},
	)

	// TierAtoms reports the last visible set broken down by LOD tier.
	TierAtoms = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "atomview_tier_atoms",
			Help: "Particles in the last visible set by LOD tier",
		},
		[]string{"scene", "tier"},
	)

	// DatasetAtoms reports the requested size of the loaded dataset.
	DatasetAtoms = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "atomview_dataset_atoms",
			Help: "Requested particle count of the loaded dataset",
		},
		[]string{"scene"},
	)

	// Aggression reports the LOD aggression factor in use.
	Aggression = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "atomview_aggression_factor",
			Help: "LOD aggression factor of the loaded dataset",
		},
		[]string{"scene"},
	)

	// ChunkSummaries counts spatial chunk summaries.
	ChunkSummaries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "atomview_chunk_summaries_total",
			Help: "Spatial chunk summaries computed",
		},
		[]string{"scene"},
	)
)

// tierLabels are the label values of TierAtoms, indexed by tier.
var tierLabels = []string{"0", "1", "2", "3"}

// SceneMetrics is the set of collectors curried to one scene. A nil
// *SceneMetrics discards every observation.
type SceneMetrics struct {
	name       string
	hits       prometheus.Counter
	misses     prometheus.Counter
	rebuild    prometheus.Observer
	visible    prometheus.Gauge
	tiers      []prometheus.Gauge
	dataset    prometheus.Gauge
	aggression prometheus.Gauge
	chunks     prometheus.Counter
}

// ForScene returns the collectors labelled with the scene name.
func ForScene(name string) *SceneMetrics {
	m := &SceneMetrics{
		name:       name,
		hits:       CacheQueries.WithLabelValues(name, "hit"),
		misses:     CacheQueries.WithLabelValues(name, "miss"),
		rebuild:    RebuildDuration.WithLabelValues(name),
		visible:    VisibleAtoms.WithLabelValues(name),
		dataset:    DatasetAtoms.WithLabelValues(name),
		aggression: Aggression.WithLabelValues(name),
		chunks:     ChunkSummaries.WithLabelValues(name),
	}
	for _, t := range tierLabels {
		m.tiers = append(m.tiers, TierAtoms.WithLabelValues(name, t))
	}
	return m
}

// Name returns the scene label.
func (m *SceneMetrics) Name() string {
	if m == nil {
		return ""
	}
	return m.name
}

// CacheHit records a query answered from the cache.
func (m *SceneMetrics) CacheHit() {
	if m == nil {
		return
	}
	m.hits.Inc()
}

// CacheMiss records a query that required a rebuild.
func (m *SceneMetrics) CacheMiss() {
	if m == nil {
		return
	}
	m.misses.Inc()
}

// ObserveRebuild records one evaluator run. tiers holds per-tier counts
// indexed by tier.
func (m *SceneMetrics) ObserveRebuild(d time.Duration, visible int, tiers []int) {
	if m == nil {
		return
	}
	m.rebuild.Observe(d.Seconds())
	m.visible.Set(float64(visible))
	for i, n := range tiers {
		if i < len(m.tiers) {
			m.tiers[i].Set(float64(n))
		}
	}
}

// DatasetLoaded records a new dataset.
func (m *SceneMetrics) DatasetLoaded(total int, aggression float32) {
	if m == nil {
		return
	}
	m.dataset.Set(float64(total))
	m.aggression.Set(float64(aggression))
	m.visible.Set(0)
}

// ChunksSummarized records one chunk summary.
func (m *SceneMetrics) ChunksSummarized() {
	if m == nil {
		return
	}
	m.chunks.Inc()
}

// Forget removes every series of the scene, e.g. when its viewer leaves.
func (m *SceneMetrics) Forget() {
	if m == nil {
		return
	}
	CacheQueries.DeleteLabelValues(m.name, "hit")
	CacheQueries.DeleteLabelValues(m.name, "miss")
	RebuildDuration.DeleteLabelValues(m.name)
	VisibleAtoms.DeleteLabelValues(m.name)
	DatasetAtoms.DeleteLabelValues(m.name)
	Aggression.DeleteLabelValues(m.name)
	ChunkSummaries.DeleteLabelValues(m.name)
	for _, t := range tierLabels {
		TierAtoms.DeleteLabelValues(m.name, t)
	}
}

// Handler exposes the default registry over HTTP.
func Handler() http.Handler {
	return promhttp.Handler()
}
