package scene

import (
	"context"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/nmxmxh/atomview/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// orbitObserver looks at the origin from distance d along +z.
func orbitObserver(d float32) Observer {
	return Observer{
		Position: mgl32.Vec3{0, 0, d},
		Target:   mgl32.Vec3{0, 0, 0},
		FOV:      1,
		Aspect:   1,
		Near:     0.1,
		Far:      100,
	}
}

func TestNew_Defaults(t *testing.T) {
	s := New(Options{})
	opts := s.Options()

	assert.Equal(t, "default", opts.Name)
	assert.Equal(t, DefaultGridSpacing, opts.GridSpacing)
	assert.Equal(t, 1, opts.Workers)
	assert.Equal(t, 1.0, opts.Speed)
	assert.Zero(t, s.Len())
}

func TestScene_EmptyQuery(t *testing.T) {
	s := New(DefaultOptions())
	set := s.Query(context.Background(), orbitObserver(30))

	assert.Zero(t, set.Len())
	assert.Nil(t, s.Summarize(context.Background(), 1))
	assert.Zero(t, s.AtomCount())
}

func TestScene_QueryUsesCache(t *testing.T) {
	ctx := context.Background()
	s := New(DefaultOptions())
	s.Load(500)

	obs := orbitObserver(30)
	first := s.Query(ctx, obs)
	second := s.Query(ctx, obs)

	assert.Equal(t, first, second)
	st := s.Stats()
	assert.Equal(t, uint64(2), st.Queries)
	assert.Equal(t, uint64(1), st.Hits)
	assert.Equal(t, uint64(1), st.Evaluations)

	// every particle is inside the frustum at 20-50 units
	assert.Equal(t, 500, first.Len())
	assert.Equal(t, 500, first.Tiers[TierLow])
}

func TestScene_JitterDoesNotRebuild(t *testing.T) {
	ctx := context.Background()
	s := New(DefaultOptions())
	s.Load(500)

	obs := orbitObserver(30)
	s.Query(ctx, obs)
	obs.Position[2] += 0.00001
	obs.Aspect = 2
	s.Query(ctx, obs)

	assert.Equal(t, uint64(1), s.Stats().Evaluations)
}

func TestScene_TargetSignNoiseDoesNotRebuild(t *testing.T) {
	ctx := context.Background()
	s := New(DefaultOptions())
	s.Load(27)

	obs := orbitObserver(30)
	obs.Target = mgl32.Vec3{1e-7, 0, 0}
	first := s.Query(ctx, obs)
	obs.Target = mgl32.Vec3{-1e-7, 0, 0}
	second := s.Query(ctx, obs)

	assert.Equal(t, first.Fingerprint, second.Fingerprint)
	assert.Equal(t, uint64(1), s.Stats().Evaluations)
}

func TestScene_CameraMoveRebuilds(t *testing.T) {
	ctx := context.Background()
	s := New(DefaultOptions())
	s.Load(500)

	s.Query(ctx, orbitObserver(30))
	set := s.Query(ctx, orbitObserver(15))

	assert.Equal(t, uint64(2), s.Stats().Evaluations)
	assert.NotZero(t, set.Tiers[TierHigh]+set.Tiers[TierMedium])
}

func TestScene_TickInvalidates(t *testing.T) {
	ctx := context.Background()
	s := New(DefaultOptions())
	s.Load(500)
	obs := orbitObserver(30)

	before := s.Query(ctx, obs)
	s.Tick(1)
	after := s.Query(ctx, obs)

	assert.Equal(t, uint64(2), s.Stats().Evaluations)
	assert.Equal(t, uint64(1), after.Tick)
	assert.Equal(t, 1.0, after.Time)
	require.Equal(t, before.Len(), after.Len())
	assert.NotEqual(t, before.Records, after.Records, "radii follow the clock")
}

func TestScene_SetSpeedDoesNotInvalidate(t *testing.T) {
	ctx := context.Background()
	s := New(DefaultOptions())
	s.Load(500)
	obs := orbitObserver(30)

	s.Query(ctx, obs)
	s.SetSpeed(3)
	s.Query(ctx, obs)
	assert.Equal(t, uint64(1), s.Stats().Evaluations)

	s.Tick(0.5)
	assert.Equal(t, 1.5, s.Time())
}

func TestScene_LoadInvalidates(t *testing.T) {
	ctx := context.Background()
	s := New(DefaultOptions())
	s.Load(500)
	obs := orbitObserver(30)

	s.Query(ctx, obs)
	s.Load(8)
	set := s.Query(ctx, obs)

	assert.Equal(t, uint64(2), s.Stats().Evaluations)
	assert.Equal(t, 8, set.Len())

	s.Invalidate()
	s.Query(ctx, obs)
	assert.Equal(t, uint64(3), s.Stats().Evaluations)
}

func TestScene_AggressionScaling(t *testing.T) {
	sizes := []int{500, 5_000, 50_000}

	tests := []struct {
		name     string
		distance float32
		want     [][TierCount]int
	}{
		{
			name:     "distant observer",
			distance: 250,
			want:     [][TierCount]int{{500, 0, 0, 0}, {5_000, 0, 0, 0}, {50_000, 0, 0, 0}},
		},
		{
			// the 50,000 set crosses into aggression 4, whose point
			// threshold of 200 lifts every particle out of tier 0
			name:     "mid-range observer",
			distance: 120,
			want:     [][TierCount]int{{500, 0, 0, 0}, {5_000, 0, 0, 0}, {0, 50_000, 0, 0}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs := orbitObserver(tt.distance)
			obs.Far = 1000

			for i, n := range sizes {
				s := New(DefaultOptions())
				s.Load(n)
				set := s.Query(context.Background(), obs)

				assert.Equal(t, float32(int(1)<<i), set.Aggression, "aggression for %d", n)
				assert.Equal(t, tt.want[i], set.Tiers, "tiers for %d", n)

				coarse, fine := set.Tiers[TierPoint], set.Tiers[TierHigh]
				if coarse > 0 {
					assert.Greater(t, coarse, fine*fine)
				}
			}
		})
	}
}

func TestScene_SmallMolecule(t *testing.T) {
	s := New(DefaultOptions())
	s.Load(2)

	require.Equal(t, 2, s.AtomCount())
	require.Equal(t, 1, s.BondCount())

	a0, ok := s.AtomAt(0)
	require.True(t, ok)
	assert.Equal(t, mgl32.Vec3{0, 0, 0}, a0.Position)
	assert.Equal(t, Hydrogen, a0.Element)

	a1, ok := s.AtomAt(1)
	require.True(t, ok)
	assert.Equal(t, mgl32.Vec3{0.92, 0, 0}, a1.Position)
	assert.Equal(t, Carbon, a1.Element)

	// sin(t) = 1 stretches the bond by 0.18 * 0.5
	s.Tick(math.Pi / 2)
	a1, _ = s.AtomAt(1)
	assert.InDelta(t, 0.92+0.09, a1.Position.X(), 1e-5)
	assert.InDelta(t, 0.35+0.02*math.Sin(math.Pi/2+1.01), a1.Radius, 1e-5)

	b, ok := s.BondAt(0)
	require.True(t, ok)
	assert.Equal(t, 0, b.A)
	assert.Equal(t, 1, b.B)
	assert.InDelta(t, 1.01, b.Length, 1e-5)

	// the stored positions are untouched
	assert.Equal(t, mgl32.Vec3{0.92, 0, 0}, s.Particles()[1].Position)

	_, ok = s.AtomAt(2)
	assert.False(t, ok)
	_, ok = s.AtomAt(-1)
	assert.False(t, ok)
	_, ok = s.BondAt(1)
	assert.False(t, ok)
}

func TestScene_SmallMoleculeOnlyForTinyDatasets(t *testing.T) {
	s := New(DefaultOptions())
	s.Load(1)
	assert.Equal(t, 2, s.AtomCount())
	assert.Equal(t, 1, s.Total())

	s.Load(27)
	assert.Zero(t, s.AtomCount())
	assert.Zero(t, s.BondCount())
	_, ok := s.AtomAt(0)
	assert.False(t, ok)
}

func TestScene_MillionAtoms(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxStored = 20_000
	s := New(opts)
	s.Load(1_000_000)

	assert.Equal(t, 1_000_000, s.Total())
	assert.Equal(t, 20_000, s.Len())
	assert.Equal(t, float32(8), s.Aggression())

	set := s.Query(context.Background(), orbitObserver(60))
	assert.Equal(t, float32(8), set.Aggression)
}

func TestScene_MillionAtomsFullStore(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping full-size load in short mode")
	}
	opts := DefaultOptions()
	opts.Workers = 4
	s := New(opts)
	s.Load(1_000_000)
	require.Equal(t, 1_000_000, s.Len())

	obs := orbitObserver(200)
	obs.Far = 400
	set := s.Query(context.Background(), obs)
	assert.Equal(t, float32(8), set.Aggression)
	assert.NotZero(t, set.Len())
}

func TestScene_Summarize(t *testing.T) {
	s := New(DefaultOptions())
	s.LoadWithSpacing(8, 2)

	chunks := s.Summarize(context.Background(), 2)
	require.Len(t, chunks, 8)
	for _, c := range chunks {
		assert.Equal(t, 1, c.Count)
	}
	assert.Zero(t, s.Stats().Evaluations, "summaries bypass the visible-set cache")
}

func TestScene_Logging(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	opts := DefaultOptions()
	opts.Name = "logged"
	s := New(opts, WithLogger(zap.New(core)))

	s.Load(500)
	s.Query(context.Background(), orbitObserver(30))

	loaded := logs.FilterMessage("dataset loaded").All()
	require.Len(t, loaded, 1)
	fields := loaded[0].ContextMap()
	assert.Equal(t, "logged", fields["scene"])
	assert.Equal(t, int64(500), fields["requested"])
	assert.Equal(t, int64(500), fields["stored"])

	assert.Equal(t, 1, logs.FilterMessage("visible set rebuilt").Len())
}

func TestScene_Tracing(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	s := New(DefaultOptions(), WithTracer(tp.Tracer("test")))
	s.Load(500)

	ctx := context.Background()
	s.Query(ctx, orbitObserver(30))
	s.Query(ctx, orbitObserver(30))
	s.Summarize(ctx, 4)

	ended := sr.Ended()
	require.Len(t, ended, 2)
	assert.Equal(t, "scene.Rebuild", ended[0].Name())
	assert.Equal(t, "scene.Summarize", ended[1].Name())
}

func TestScene_Metrics(t *testing.T) {
	const name = "scene-metrics-test"
	m := metrics.ForScene(name)
	t.Cleanup(m.Forget)

	opts := DefaultOptions()
	opts.Name = name
	s := New(opts, WithMetrics(m))
	s.Load(5_000)

	ctx := context.Background()
	s.Query(ctx, orbitObserver(30))
	s.Query(ctx, orbitObserver(30))
	s.Summarize(ctx, 4)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.CacheQueries.WithLabelValues(name, "hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.CacheQueries.WithLabelValues(name, "miss")))
	assert.Equal(t, 5000.0, testutil.ToFloat64(metrics.DatasetAtoms.WithLabelValues(name)))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.Aggression.WithLabelValues(name)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ChunkSummaries.WithLabelValues(name)))
	assert.Positive(t, testutil.ToFloat64(metrics.VisibleAtoms.WithLabelValues(name)))
}
