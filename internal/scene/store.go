package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	// bondLength separates the two particles of the small-molecule
	// configuration along the x axis.
	bondLength float32 = 0.92

	// smallMoleculeLimit is the largest total count that is loaded as the
	// fixed two-particle configuration.
	smallMoleculeLimit = 2

	// DefaultGridSpacing is the distance between neighbouring grid sites.
	DefaultGridSpacing float32 = 1.5
)

// Particle is a single stored atom. Its identity is its index in the store.
type Particle struct {
	Position mgl32.Vec3 `json:"position"`
	Element  Element    `json:"element"`
}

// Bounds is an axis-aligned bounding box.
type Bounds struct {
	Min mgl32.Vec3 `json:"min"`
	Max mgl32.Vec3 `json:"max"`
}

// Size returns the extent of the box along each axis.
func (b Bounds) Size() mgl32.Vec3 { return b.Max.Sub(b.Min) }

// Store owns every particle of the current dataset. It is replaced wholesale
// on each load and is read-only in between.
type Store struct {
	particles []Particle
	total     int
	bounds    Bounds
}

// Len returns the number of stored particles.
func (s *Store) Len() int { return len(s.particles) }

// Total returns the requested dataset size, which may exceed Len when the
// synthesized count was capped.
func (s *Store) Total() int { return s.total }

// Bounds returns the bounding box computed at load time.
func (s *Store) Bounds() Bounds { return s.bounds }

// Particles returns the stored particles. Callers must not modify the slice.
func (s *Store) Particles() []Particle { return s.particles }

// load replaces the store contents. maxStored caps the number of synthesized
// particles when positive.
func (s *Store) load(requested int, spacing float32, maxStored int) {
	if requested < 0 {
		requested = 0
	}
	if spacing <= 0 {
		spacing = DefaultGridSpacing
	}

	s.total = requested
	switch {
	case requested == 0:
		s.particles = nil
	case requested <= smallMoleculeLimit:
		s.particles = []Particle{
			{Position: mgl32.Vec3{0, 0, 0}, Element: Hydrogen},
			{Position: mgl32.Vec3{bondLength, 0, 0}, Element: Carbon},
		}
	default:
		n := requested
		if maxStored > 0 && n > maxStored {
			n = maxStored
		}
		s.particles = gridParticles(n, spacing)
	}
	s.bounds = computeBounds(s.particles)
}

// gridParticles packs n particles into a cube centered on the origin, x
// varying fastest. Element tags cycle by index.
func gridParticles(n int, spacing float32) []Particle {
	side := cubeSide(n)
	offset := float32(side-1) * spacing / 2

	ps := make([]Particle, n)
	for i := range ps {
		x := i % side
		y := (i / side) % side
		z := i / (side * side)
		ps[i] = Particle{
			Position: mgl32.Vec3{
				float32(x)*spacing - offset,
				float32(y)*spacing - offset,
				float32(z)*spacing - offset,
			},
			Element: Element(i % int(elementCount)),
		}
	}
	return ps
}

// cubeSide returns ceil(cbrt(n)) computed without floating point drift.
func cubeSide(n int) int {
	if n <= 1 {
		return 1
	}
	side := int(math.Round(math.Cbrt(float64(n))))
	for side*side*side < n {
		side++
	}
	for side > 1 && (side-1)*(side-1)*(side-1) >= n {
		side--
	}
	return side
}

func computeBounds(ps []Particle) Bounds {
	if len(ps) == 0 {
		return Bounds{}
	}
	b := Bounds{Min: ps[0].Position, Max: ps[0].Position}
	for _, p := range ps[1:] {
		for k := 0; k < 3; k++ {
			if p.Position[k] < b.Min[k] {
				b.Min[k] = p.Position[k]
			}
			if p.Position[k] > b.Max[k] {
				b.Max[k] = p.Position[k]
			}
		}
	}
	return b
}
