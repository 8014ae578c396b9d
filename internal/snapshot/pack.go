package snapshot

import (
	"sync"

	"github.com/nmxmxh/atomview/internal/scene"
)

const (
	// ParticleStride is the number of floats per packed particle:
	// x, y, z, element.
	ParticleStride = 4
	// ChunkStride is the number of floats per packed chunk: center x, y, z,
	// size, count, reserved[3].
	ChunkStride = 8
	// VisibleStride is the number of floats per packed visible record:
	// x, y, z, radius, element, tier.
	VisibleStride = 6
)

// defaultPoolCap is the capacity of freshly pooled buffers.
const defaultPoolCap = 4096

var float32Pool = sync.Pool{
	New: func() any {
		b := make([]float32, 0, defaultPoolCap)
		return &b
	},
}

// GetFloat32s returns an empty buffer with at least the given capacity.
// Return it with PutFloat32s once the host has copied it out.
func GetFloat32s(capacity int) []float32 {
	pb := float32Pool.Get().(*[]float32)
	if cap(*pb) < capacity {
		float32Pool.Put(pb)
		return make([]float32, 0, capacity)
	}
	return (*pb)[:0]
}

// PutFloat32s returns a buffer to the pool.
func PutFloat32s(b []float32) {
	b = b[:0]
	float32Pool.Put(&b)
}

// PackParticles appends the store contents to dst, stride ParticleStride.
func PackParticles(dst []float32, ps []scene.Particle) []float32 {
	dst = grow(dst, len(ps)*ParticleStride)
	for _, p := range ps {
		dst = append(dst, p.Position[0], p.Position[1], p.Position[2], float32(p.Element))
	}
	return dst
}

// PackVisible appends visible records to dst, stride VisibleStride.
func PackVisible(dst []float32, recs []scene.Visible) []float32 {
	dst = grow(dst, len(recs)*VisibleStride)
	for _, r := range recs {
		dst = append(dst,
			r.Position[0], r.Position[1], r.Position[2],
			r.Radius, float32(r.Element), float32(r.Tier),
		)
	}
	return dst
}

// PackChunks appends chunk summaries to dst, stride ChunkStride.
func PackChunks(dst []float32, chunks []scene.Chunk) []float32 {
	dst = grow(dst, len(chunks)*ChunkStride)
	for _, c := range chunks {
		dst = append(dst,
			c.Center[0], c.Center[1], c.Center[2],
			c.Size, float32(c.Count),
			c.Reserved[0], c.Reserved[1], c.Reserved[2],
		)
	}
	return dst
}

func grow(dst []float32, n int) []float32 {
	if cap(dst)-len(dst) >= n {
		return dst
	}
	out := make([]float32, len(dst), len(dst)+n)
	copy(out, dst)
	return out
}
