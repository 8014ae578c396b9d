package scene

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cubeCorners(side float32) []Particle {
	var ps []Particle
	for _, x := range []float32{0, side} {
		for _, y := range []float32{0, side} {
			for _, z := range []float32{0, side} {
				ps = append(ps, at(x, y, z))
			}
		}
	}
	return ps
}

func TestSummarize_CubeCorners(t *testing.T) {
	chunks := Summarize(cubeCorners(2), 2)

	require.Len(t, chunks, 8)
	want := []mgl32.Vec3{
		{1, 1, 1}, {1, 1, 3}, {1, 3, 1}, {1, 3, 3},
		{3, 1, 1}, {3, 1, 3}, {3, 3, 1}, {3, 3, 3},
	}
	for i, c := range chunks {
		assert.Equal(t, 1, c.Count)
		assert.Equal(t, float32(2), c.Size)
		assert.Equal(t, want[i], c.Center, "chunk %d", i)
		assert.Equal(t, [3]float32{}, c.Reserved)
	}
}

func TestSummarize_CountsSumToStore(t *testing.T) {
	ps := gridParticles(1000, 1.5)
	chunks := Summarize(ps, 4)

	total := 0
	for _, c := range chunks {
		assert.Positive(t, c.Count)
		total += c.Count
	}
	assert.Equal(t, len(ps), total)
}

func TestSummarize_SingleCell(t *testing.T) {
	ps := []Particle{at(1, 1, 1), at(1.5, 1.2, 1.9)}
	chunks := Summarize(ps, 10)

	require.Len(t, chunks, 1)
	assert.Equal(t, 2, chunks[0].Count)
	assert.Equal(t, mgl32.Vec3{6, 6, 6}, chunks[0].Center)
}

func TestSummarize_Degenerate(t *testing.T) {
	assert.Nil(t, Summarize(nil, 2))
	assert.Nil(t, Summarize(cubeCorners(1), 0))
	assert.Nil(t, Summarize(cubeCorners(1), -1))
	assert.Nil(t, Summarize(cubeCorners(1), float32(math.NaN())))
}

func TestSummarize_Deterministic(t *testing.T) {
	ps := gridParticles(500, 1)
	assert.Equal(t, Summarize(ps, 3), Summarize(ps, 3))
}

func TestCellBounds(t *testing.T) {
	b := Bounds{Min: mgl32.Vec3{0, 0, 0}, Max: mgl32.Vec3{2, 2.5, 0}}
	cb := NewCellBounds(b, 1)

	assert.Equal(t, [3]int{3, 3, 1}, cb.Width)
	assert.Equal(t, 9, cb.Cells())
	assert.Equal(t, [3]int{2, 2, 0}, cb.Coords(mgl32.Vec3{2, 2.5, 0}, 1))
	assert.Equal(t, [3]int{0, 0, 0}, cb.Coords(mgl32.Vec3{-4, -1, -1}, 1))
	assert.Equal(t, [3]int{2, 2, 0}, cb.Coords(mgl32.Vec3{40, 40, 40}, 1))
	assert.Equal(t, mgl32.Vec3{1.5, 0.5, 0.5}, cb.Center([3]int{1, 0, 0}, 1))
}
