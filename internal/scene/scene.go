// Package scene maintains the camera-adaptive visible subset of a particle
// dataset. A Scene owns the particle store, the animation clock and the
// visible-set cache; callers drive it once per frame with Tick and Query.
//
// A Scene is not safe for concurrent use. Hosts serving several viewers give
// each viewer its own Scene (see internal/viewer).
package scene

import (
	"context"
	"time"

	"github.com/nmxmxh/atomview/pkg/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Options configures dataset synthesis and evaluation.
type Options struct {
	// Name labels the scene in logs and metrics.
	Name string
	// GridSpacing is the distance between synthesized grid sites.
	GridSpacing float32
	// MaxStored caps the number of synthesized particles when positive.
	MaxStored int
	// Workers is the number of evaluator partitions for large stores.
	Workers int
	// Speed is the initial animation speed multiplier.
	Speed float64
}

// DefaultOptions returns the options used when none are supplied.
func DefaultOptions() Options {
	return Options{
		Name:        "default",
		GridSpacing: DefaultGridSpacing,
		Workers:     1,
		Speed:       1,
	}
}

// Stats counts scene activity since construction.
type Stats struct {
	Queries     uint64 `json:"queries"`
	Hits        uint64 `json:"hits"`
	Evaluations uint64 `json:"evaluations"`
	Ticks       uint64 `json:"ticks"`
	Loads       uint64 `json:"loads"`
}

// Option customizes a Scene's ambient dependencies.
type Option func(*Scene)

// WithLogger sets the scene logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *Scene) {
		if log != nil {
			s.log = log
		}
	}
}

// WithMetrics sets the Prometheus handle the scene reports to.
func WithMetrics(m *metrics.SceneMetrics) Option {
	return func(s *Scene) { s.metrics = m }
}

// WithTracer sets the tracer used for rebuild and summary spans.
func WithTracer(t trace.Tracer) Option {
	return func(s *Scene) {
		if t != nil {
			s.tracer = t
		}
	}
}

// Scene is the per-viewer aggregate of store, clock and cache.
type Scene struct {
	opts    Options
	store   Store
	clock   Clock
	cache   Cache
	stats   Stats
	log     *zap.Logger
	metrics *metrics.SceneMetrics
	tracer  trace.Tracer
}

// New creates an empty scene. Zero-valued options fall back to
// DefaultOptions.
func New(opts Options, extra ...Option) *Scene {
	def := DefaultOptions()
	if opts.Name == "" {
		opts.Name = def.Name
	}
	if opts.GridSpacing <= 0 {
		opts.GridSpacing = def.GridSpacing
	}
	if opts.Workers <= 0 {
		opts.Workers = def.Workers
	}
	if opts.Speed == 0 {
		opts.Speed = def.Speed
	}

	s := &Scene{
		opts:   opts,
		clock:  NewClock(opts.Speed),
		log:    zap.NewNop(),
		tracer: otel.Tracer("atomview/scene"),
	}
	for _, o := range extra {
		o(s)
	}
	s.log = s.log.With(zap.String("scene", opts.Name))
	return s
}

// Options returns the effective options.
func (s *Scene) Options() Options { return s.opts }

// Load replaces the dataset with requested particles on the configured grid
// spacing and invalidates the cache.
func (s *Scene) Load(requested int) {
	s.LoadWithSpacing(requested, s.opts.GridSpacing)
}

// LoadWithSpacing is Load with an explicit grid spacing.
func (s *Scene) LoadWithSpacing(requested int, spacing float32) {
	s.store.load(requested, spacing, s.opts.MaxStored)
	s.cache.Invalidate()
	s.stats.Loads++

	aggression := AggressionFactor(s.store.Total())
	b := s.store.Bounds()
	s.log.Info("dataset loaded",
		zap.Int("requested", requested),
		zap.Int("stored", s.store.Len()),
		zap.Float32("aggression", aggression),
		zap.Float32s("bounds_min", b.Min[:]),
		zap.Float32s("bounds_max", b.Max[:]),
	)
	s.metrics.DatasetLoaded(s.store.Total(), aggression)
}

// Tick advances the animation clock and invalidates the cache, since radii
// and small-molecule positions depend on time.
func (s *Scene) Tick(delta float64) {
	s.clock.Tick(delta)
	s.cache.Invalidate()
	s.stats.Ticks++
}

// SetSpeed changes the animation speed. It takes effect on the next Tick.
func (s *Scene) SetSpeed(speed float64) { s.clock.SetSpeed(speed) }

// Time returns the current animation time.
func (s *Scene) Time() float64 { return s.clock.Time() }

// Invalidate forces the next Query to re-run the evaluator.
func (s *Scene) Invalidate() { s.cache.Invalidate() }

// Query returns the visible set for obs, re-running the evaluator only when
// the observer fingerprint differs from the cached one or the cache was
// invalidated. The returned records are shared with the cache.
func (s *Scene) Query(ctx context.Context, obs Observer) VisibleSet {
	s.stats.Queries++
	fp := obs.Fingerprint()
	if !s.cache.Stale(fp) {
		s.stats.Hits++
		s.metrics.CacheHit()
		set, _ := s.cache.Current()
		return set
	}
	s.metrics.CacheMiss()
	return s.rebuild(ctx, obs, fp)
}

func (s *Scene) rebuild(ctx context.Context, obs Observer, fp Fingerprint) VisibleSet {
	_, span := s.tracer.Start(ctx, "scene.Rebuild")
	defer span.End()

	start := time.Now()
	ev := Evaluate(s.store.Particles(), s.store.Total(), obs, s.clock.Time(), s.opts.Workers)
	elapsed := time.Since(start)
	s.stats.Evaluations++

	set := VisibleSet{
		Fingerprint: fp,
		Tick:        s.clock.Ticks(),
		Time:        s.clock.Time(),
		Aggression:  ev.Aggression,
		Tiers:       ev.Tiers,
		Records:     ev.Records,
	}
	s.cache.Store(set)

	span.SetAttributes(
		attribute.Int("atoms", s.store.Len()),
		attribute.Int("visible", len(ev.Records)),
		attribute.Float64("aggression", float64(ev.Aggression)),
		attribute.Int("workers", ev.Workers),
	)
	s.metrics.ObserveRebuild(elapsed, len(ev.Records), ev.Tiers[:])
	s.log.Debug("visible set rebuilt",
		zap.Uint64("fingerprint", uint64(fp)),
		zap.Int("visible", len(ev.Records)),
		zap.Ints("tiers", ev.Tiers[:]),
		zap.Duration("elapsed", elapsed),
	)
	return set
}

// Summarize returns the spatial chunk summary of the whole store. It does
// not touch the visible-set cache.
func (s *Scene) Summarize(ctx context.Context, chunkSize float32) []Chunk {
	_, span := s.tracer.Start(ctx, "scene.Summarize")
	defer span.End()

	chunks := Summarize(s.store.Particles(), chunkSize)
	span.SetAttributes(
		attribute.Float64("chunk_size", float64(chunkSize)),
		attribute.Int("chunks", len(chunks)),
	)
	s.metrics.ChunksSummarized()
	s.log.Debug("chunks summarized",
		zap.Float32("chunk_size", chunkSize),
		zap.Int("chunks", len(chunks)),
	)
	return chunks
}

// Particles returns the unfiltered store contents. Callers must not modify
// the slice.
func (s *Scene) Particles() []Particle { return s.store.Particles() }

// Len returns the number of stored particles.
func (s *Scene) Len() int { return s.store.Len() }

// Total returns the requested dataset size.
func (s *Scene) Total() int { return s.store.Total() }

// Bounds returns the bounding box of the current dataset.
func (s *Scene) Bounds() Bounds { return s.store.Bounds() }

// Aggression returns the aggression factor of the current dataset.
func (s *Scene) Aggression() float32 { return AggressionFactor(s.store.Total()) }

// Stats returns the activity counters.
func (s *Scene) Stats() Stats { return s.stats }
