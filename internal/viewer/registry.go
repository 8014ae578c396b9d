// Package viewer hosts one scene per connected viewer. Each viewer is
// serialized by its own mutex; the registry only guards the id map.
package viewer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nmxmxh/atomview/internal/scene"
	apperrors "github.com/nmxmxh/atomview/pkg/errors"
	"github.com/nmxmxh/atomview/pkg/metrics"
	"go.uber.org/zap"
)

// Viewer is a scene owned by one client.
type Viewer struct {
	ID        string
	CreatedAt time.Time

	mu      sync.Mutex
	scene   *scene.Scene
	metrics *metrics.SceneMetrics
}

// MetricsLabel returns the scene label of the viewer's metric series.
func (v *Viewer) MetricsLabel() string { return v.metrics.Name() }

// Frame advances the viewer's clock by dt and returns the visible set for
// obs. Concurrent frames on the same viewer run one at a time.
func (v *Viewer) Frame(ctx context.Context, dt float64, obs scene.Observer) scene.VisibleSet {
	v.mu.Lock()
	defer v.mu.Unlock()
	if dt != 0 {
		v.scene.Tick(dt)
	}
	return v.scene.Query(ctx, obs)
}

// Load replaces the viewer's dataset.
func (v *Viewer) Load(requested int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.scene.Load(requested)
}

// Summarize returns the chunk summary of the viewer's dataset.
func (v *Viewer) Summarize(ctx context.Context, chunkSize float32) []scene.Chunk {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.scene.Summarize(ctx, chunkSize)
}

// Do runs fn with exclusive access to the scene.
func (v *Viewer) Do(fn func(*scene.Scene)) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fn(v.scene)
}

// Registry maps viewer ids to viewers.
type Registry struct {
	mu      sync.RWMutex
	viewers map[string]*Viewer
	log     *zap.Logger
	extra   []scene.Option
}

// NewRegistry creates an empty registry. extra is applied to every scene it
// creates, after the logger and metrics options.
func NewRegistry(log *zap.Logger, extra ...scene.Option) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{
		viewers: make(map[string]*Viewer),
		log:     log,
		extra:   extra,
	}
}

// Create registers a viewer with a new UUIDv7 id. When opts.Name is empty
// the id labels the scene's logs. Metric series are labelled with the id
// (prefixed by the name when set), so viewers sharing a name never share
// series.
func (r *Registry) Create(opts scene.Options) (string, *Viewer, error) {
	uid, err := uuid.NewV7()
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate viewer id: %w", err)
	}
	id := uid.String()
	label := id
	if opts.Name == "" {
		opts.Name = id
	} else {
		label = opts.Name + "/" + id
	}

	m := metrics.ForScene(label)
	sceneOpts := append([]scene.Option{
		scene.WithLogger(r.log.With(zap.String("viewer_id", id))),
		scene.WithMetrics(m),
	}, r.extra...)

	v := &Viewer{
		ID:        id,
		CreatedAt: time.Now(),
		scene:     scene.New(opts, sceneOpts...),
		metrics:   m,
	}

	r.mu.Lock()
	r.viewers[id] = v
	r.mu.Unlock()

	r.log.Info("viewer created", zap.String("viewer_id", id), zap.String("scene", opts.Name))
	return id, v, nil
}

// Get returns the viewer registered under id.
func (r *Registry) Get(id string) (*Viewer, error) {
	r.mu.RLock()
	v, ok := r.viewers[id]
	r.mu.RUnlock()
	if !ok {
		return nil, apperrors.Wrap(apperrors.ErrViewerNotFound, id)
	}
	return v, nil
}

// Remove unregisters the viewer and drops its metric series.
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	v, ok := r.viewers[id]
	delete(r.viewers, id)
	r.mu.Unlock()
	if !ok {
		return apperrors.Wrap(apperrors.ErrViewerNotFound, id)
	}

	v.metrics.Forget()
	r.log.Info("viewer removed", zap.String("viewer_id", id))
	return nil
}

// Len returns the number of registered viewers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.viewers)
}
