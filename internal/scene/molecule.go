package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// vibrationAmplitude is the peak-to-peak stretch of the small-molecule bond.
const vibrationAmplitude = 0.18

// Atom is an animated particle of a small molecule.
type Atom struct {
	Position mgl32.Vec3 `json:"position"`
	Element  Element    `json:"element"`
	Radius   float32    `json:"radius"`
}

// Bond joins two atoms of a small molecule.
type Bond struct {
	A      int     `json:"a"`
	B      int     `json:"b"`
	Length float32 `json:"length"`
}

func (s *Scene) smallMolecule() bool {
	return s.store.Total() > 0 && s.store.Total() <= smallMoleculeLimit
}

// AtomCount returns the number of atoms addressable by AtomAt, which is zero
// for datasets above the small-molecule size.
func (s *Scene) AtomCount() int {
	if !s.smallMolecule() {
		return 0
	}
	return s.store.Len()
}

// BondCount returns the number of bonds addressable by BondAt.
func (s *Scene) BondCount() int {
	if s.AtomCount() < 2 {
		return 0
	}
	return 1
}

// AtomAt returns atom i with the bond vibration applied at the current
// animation time. ok is false when i is out of range or the dataset is not a
// small molecule.
func (s *Scene) AtomAt(i int) (Atom, bool) {
	if i < 0 || i >= s.AtomCount() {
		return Atom{}, false
	}
	p := s.animated(i)
	return Atom{
		Position: p.Position,
		Element:  p.Element,
		Radius:   breathingRadius(p, s.clock.Time()),
	}, true
}

// BondAt returns bond i with its current length.
func (s *Scene) BondAt(i int) (Bond, bool) {
	if i != 0 || s.BondCount() == 0 {
		return Bond{}, false
	}
	a, b := s.animated(0), s.animated(1)
	return Bond{A: 0, B: 1, Length: b.Position.Sub(a.Position).Len()}, true
}

// animated returns particle i of a small molecule at the current time. Only
// the second atom moves, stretching the bond along x.
func (s *Scene) animated(i int) Particle {
	p := s.store.Particles()[i]
	if i == 1 {
		p.Position[0] += float32(vibrationAmplitude * math.Sin(s.clock.Time()) * 0.5)
	}
	return p
}
