package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSceneMetrics_CacheCounters(t *testing.T) {
	m := ForScene("metrics-cache")
	defer m.Forget()

	m.CacheMiss()
	m.CacheHit()
	m.CacheHit()

	assert.Equal(t, 2.0, testutil.ToFloat64(CacheQueries.WithLabelValues("metrics-cache", "hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(CacheQueries.WithLabelValues("metrics-cache", "miss")))
}

func TestSceneMetrics_ObserveRebuild(t *testing.T) {
	m := ForScene("metrics-rebuild")
	defer m.Forget()

	m.ObserveRebuild(3*time.Millisecond, 10, []int{1, 2, 3, 4})

	assert.Equal(t, 10.0, testutil.ToFloat64(VisibleAtoms.WithLabelValues("metrics-rebuild")))
	for i, want := range []float64{1, 2, 3, 4} {
		assert.Equal(t, want, testutil.ToFloat64(TierAtoms.WithLabelValues("metrics-rebuild", tierLabels[i])))
	}

	var pb dto.Metric
	require.NoError(t, RebuildDuration.WithLabelValues("metrics-rebuild").(prometheus.Metric).Write(&pb))
	assert.Equal(t, uint64(1), pb.GetHistogram().GetSampleCount())
}

func TestSceneMetrics_DatasetLoaded(t *testing.T) {
	m := ForScene("metrics-dataset")
	defer m.Forget()

	m.ObserveRebuild(time.Millisecond, 7, nil)
	m.DatasetLoaded(50_000, 4)

	assert.Equal(t, 50_000.0, testutil.ToFloat64(DatasetAtoms.WithLabelValues("metrics-dataset")))
	assert.Equal(t, 4.0, testutil.ToFloat64(Aggression.WithLabelValues("metrics-dataset")))
	assert.Equal(t, 0.0, testutil.ToFloat64(VisibleAtoms.WithLabelValues("metrics-dataset")))
}

func TestSceneMetrics_Forget(t *testing.T) {
	m := ForScene("metrics-forget")
	m.ChunksSummarized()
	before := testutil.CollectAndCount(ChunkSummaries)

	m.Forget()

	assert.Equal(t, before-1, testutil.CollectAndCount(ChunkSummaries))
}

func TestSceneMetrics_NilIsNoop(t *testing.T) {
	var m *SceneMetrics
	assert.NotPanics(t, func() {
		m.CacheHit()
		m.CacheMiss()
		m.ObserveRebuild(time.Second, 1, []int{1})
		m.DatasetLoaded(1, 1)
		m.ChunksSummarized()
		m.Forget()
	})
	assert.Empty(t, m.Name())
}

func TestSampleRuntime(t *testing.T) {
	SampleRuntime()
	assert.Greater(t, testutil.ToFloat64(RuntimeGauges.WithLabelValues("goroutines")), 0.0)
	assert.Greater(t, testutil.ToFloat64(HeapStats.WithLabelValues("alloc")), 0.0)
}

func TestNewServer(t *testing.T) {
	srv := NewServer(":0")
	ts := httptest.NewServer(srv.Handler)
	defer ts.Close()

	m := ForScene("server-test")
	defer m.Forget()
	m.CacheHit()

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `atomview_cache_queries_total{result="hit",scene="server-test"} 1`)

	resp, err = http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
