package scene

import (
	"cmp"
	"math"
	"slices"

	"github.com/go-gl/mathgl/mgl32"
)

// Chunk summarizes one non-empty axis-aligned cell of the store.
type Chunk struct {
	Center mgl32.Vec3 `json:"center"`
	Size   float32    `json:"size"`
	Count  int        `json:"count"`
	// Reserved is kept zero for downstream consumers.
	Reserved [3]float32 `json:"reserved"`
}

// CellBounds is the integer extent of a chunk grid.
type CellBounds struct {
	Origin mgl32.Vec3
	Width  [3]int
}

// Cells returns the total number of cells, empty or not.
func (cb CellBounds) Cells() int { return cb.Width[0] * cb.Width[1] * cb.Width[2] }

// NewCellBounds derives the grid of cubic cells of the given size that spans
// b. A point on the max face falls in the last cell.
func NewCellBounds(b Bounds, size float32) CellBounds {
	cb := CellBounds{Origin: b.Min}
	ext := b.Size()
	for k := 0; k < 3; k++ {
		cb.Width[k] = int(math.Floor(float64(ext[k]/size))) + 1
	}
	return cb
}

// Coords returns the cell containing p, clamped to the grid.
func (cb CellBounds) Coords(p mgl32.Vec3, size float32) [3]int {
	var c [3]int
	for k := 0; k < 3; k++ {
		i := int(math.Floor(float64((p[k] - cb.Origin[k]) / size)))
		c[k] = max(0, min(i, cb.Width[k]-1))
	}
	return c
}

// Center returns the world-space center of the cell at c.
func (cb CellBounds) Center(c [3]int, size float32) mgl32.Vec3 {
	return mgl32.Vec3{
		cb.Origin[0] + (float32(c[0])+0.5)*size,
		cb.Origin[1] + (float32(c[1])+0.5)*size,
		cb.Origin[2] + (float32(c[2])+0.5)*size,
	}
}

// Summarize buckets the particles into cubic cells of chunkSize spanning
// their bounding box and returns the non-empty cells ordered by cell
// coordinate (x, then y, then z). It runs in a single pass over the store.
func Summarize(ps []Particle, chunkSize float32) []Chunk {
	if len(ps) == 0 || !(chunkSize > 0) {
		return nil
	}

	cb := NewCellBounds(computeBounds(ps), chunkSize)
	counts := make(map[[3]int]int)
	for _, p := range ps {
		counts[cb.Coords(p.Position, chunkSize)]++
	}

	keys := make([][3]int, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b [3]int) int {
		if c := cmp.Compare(a[0], b[0]); c != 0 {
			return c
		}
		if c := cmp.Compare(a[1], b[1]); c != 0 {
			return c
		}
		return cmp.Compare(a[2], b[2])
	})

	chunks := make([]Chunk, len(keys))
	for i, k := range keys {
		chunks[i] = Chunk{
			Center: cb.Center(k, chunkSize),
			Size:   chunkSize,
			Count:  counts[k],
		}
	}
	return chunks
}
