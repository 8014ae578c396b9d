package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/sync/errgroup"
)

const (
	// farCullFactor is the fraction of the far plane beyond which particles
	// are dropped.
	farCullFactor float32 = 0.8
	// frustumWidening scales the field of view to get the accepted
	// half-angle. Over-including the periphery avoids popping on small
	// rotations.
	frustumWidening float32 = 0.6
	// breathAmplitude is the radius oscillation amplitude.
	breathAmplitude = 0.02

	// minParallelPartition is the smallest partition handed to a worker.
	minParallelPartition = 16_384
)

// Visible is a particle that survived culling, annotated for rendering.
type Visible struct {
	Position mgl32.Vec3 `json:"position"`
	Element  Element    `json:"element"`
	Radius   float32    `json:"radius"`
	Tier     Tier       `json:"tier"`
}

// Evaluation is the output of one full scan of the store.
type Evaluation struct {
	Records    []Visible
	Tiers      [TierCount]int
	Aggression float32
	Workers    int
}

// view holds the per-query constants shared by every particle test.
type view struct {
	origin     mgl32.Vec3
	dir        mgl32.Vec3
	cullDist   float32
	cosHalf    float32
	thresholds Thresholds
	time       float64
}

func newView(obs Observer, total int, t float64) view {
	aggression := AggressionFactor(total)
	return view{
		origin:     obs.Position,
		dir:        obs.ViewDirection(),
		cullDist:   obs.Far * farCullFactor,
		cosHalf:    float32(math.Cos(float64(obs.FOV * frustumWidening))),
		thresholds: NewThresholds(aggression),
		time:       t,
	}
}

// classify applies the distance cull, the frustum cull and tier assignment to
// one particle. The comparisons are written so that NaN inputs are culled.
func (v *view) classify(p Particle) (Visible, bool) {
	offset := p.Position.Sub(v.origin)
	dist := offset.Len()
	if !(dist <= v.cullDist) {
		return Visible{}, false
	}
	if dist > 0 {
		cos := offset.Mul(1 / dist).Dot(v.dir)
		if !(cos >= v.cosHalf) {
			return Visible{}, false
		}
	}
	return Visible{
		Position: p.Position,
		Element:  p.Element,
		Radius:   breathingRadius(p, v.time),
		Tier:     v.thresholds.Tier(dist),
	}, true
}

// breathingRadius offsets the element radius by a small oscillation whose
// phase comes from the particle's own coordinates.
func breathingRadius(p Particle, t float64) float32 {
	phase := t + float64(p.Position[0]+p.Position[1]+p.Position[2])
	return p.Element.BaseRadius() + float32(breathAmplitude*math.Sin(phase))
}

// Evaluate scans every particle against the observer. total is the dataset
// size that drives the aggression factor. With workers > 1 and a large enough
// store the scan is split into contiguous partitions; the merge preserves
// store order, so the output is identical either way.
func Evaluate(ps []Particle, total int, obs Observer, t float64, workers int) Evaluation {
	v := newView(obs, total, t)
	parts := partitionCount(len(ps), workers)

	if parts <= 1 {
		records, tiers := scan(&v, ps)
		return Evaluation{Records: records, Tiers: tiers, Aggression: AggressionFactor(total), Workers: 1}
	}

	size := (len(ps) + parts - 1) / parts
	partRecords := make([][]Visible, parts)
	partTiers := make([][TierCount]int, parts)

	var g errgroup.Group
	for i := 0; i < parts; i++ {
		i := i
		lo := i * size
		hi := min(lo+size, len(ps))
		g.Go(func() error {
			partRecords[i], partTiers[i] = scan(&v, ps[lo:hi])
			return nil
		})
	}
	// Partitions never fail.
	_ = g.Wait()

	n := 0
	for _, r := range partRecords {
		n += len(r)
	}
	out := Evaluation{
		Records:    make([]Visible, 0, n),
		Aggression: AggressionFactor(total),
		Workers:    parts,
	}
	for i := range partRecords {
		out.Records = append(out.Records, partRecords[i]...)
		for t := range out.Tiers {
			out.Tiers[t] += partTiers[i][t]
		}
	}
	return out
}

func scan(v *view, ps []Particle) ([]Visible, [TierCount]int) {
	var tiers [TierCount]int
	records := make([]Visible, 0, len(ps)/2)
	for _, p := range ps {
		rec, ok := v.classify(p)
		if !ok {
			continue
		}
		tiers[rec.Tier]++
		records = append(records, rec)
	}
	return records, tiers
}

func partitionCount(n, workers int) int {
	if workers <= 1 || n < 2*minParallelPartition {
		return 1
	}
	return min(workers, n/minParallelPartition)
}
