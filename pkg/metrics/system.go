package metrics

import (
	"context"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RuntimeGauges tracks goroutine and thread counts.
	RuntimeGauges = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "atomview_runtime_stats",
			Help: "Go runtime statistics",
		},
		[]string{"type"},
	)

	// HeapStats tracks heap memory, which is dominated by the particle store
	// and the visible-set cache.
	HeapStats = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "atomview_heap_stats",
			Help: "Heap memory statistics",
		},
		[]string{"type"},
	)
)

// SampleRuntime records one snapshot of runtime and heap statistics.
func SampleRuntime() {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)

	RuntimeGauges.WithLabelValues("goroutines").Set(float64(runtime.NumGoroutine()))
	RuntimeGauges.WithLabelValues("cpu_threads").Set(float64(runtime.GOMAXPROCS(0)))
	RuntimeGauges.WithLabelValues("num_gc").Set(float64(stats.NumGC))

	HeapStats.WithLabelValues("alloc").Set(float64(stats.HeapAlloc))
	HeapStats.WithLabelValues("sys").Set(float64(stats.HeapSys))
	HeapStats.WithLabelValues("inuse").Set(float64(stats.HeapInuse))
	HeapStats.WithLabelValues("objects").Set(float64(stats.HeapObjects))
}

// CollectSystemMetrics samples runtime statistics every interval until ctx
// is done.
func CollectSystemMetrics(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				SampleRuntime()
			}
		}
	}()
}
