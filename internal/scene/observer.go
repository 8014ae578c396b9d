package scene

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	// positionQuantum is the number of fingerprint steps per world unit
	// (millimetre resolution).
	positionQuantum = 1000
	// fovQuantum is the number of fingerprint steps per radian.
	fovQuantum = 100
)

// canonicalForward is used when the observer sits exactly on its target.
var canonicalForward = mgl32.Vec3{0, 0, -1}

// Observer describes the camera for one query. The core never mutates it.
type Observer struct {
	Position mgl32.Vec3 `json:"position"`
	Target   mgl32.Vec3 `json:"target"`
	FOV      float32    `json:"fov"`
	Aspect   float32    `json:"aspect"`
	Near     float32    `json:"near"`
	Far      float32    `json:"far"`
}

// Fingerprint is a quantized digest of an Observer.
type Fingerprint uint64

// ViewDirection returns the normalized direction from the observer to its
// target, or the canonical forward vector when the two coincide.
func (o Observer) ViewDirection() mgl32.Vec3 {
	dir := o.Target.Sub(o.Position)
	if dir.Len() == 0 {
		return canonicalForward
	}
	return dir.Normalize()
}

// Fingerprint quantizes position and target to millimetres and the field of
// view to hundredths of a radian, then hashes the integers. Aspect ratio and
// the clip planes are not part of the digest. Observers that quantize
// identically always produce the same fingerprint.
func (o Observer) Fingerprint() Fingerprint {
	var buf [7 * 8]byte
	vals := [7]int64{
		quantize(o.Position[0], positionQuantum),
		quantize(o.Position[1], positionQuantum),
		quantize(o.Position[2], positionQuantum),
		quantize(o.Target[0], positionQuantum),
		quantize(o.Target[1], positionQuantum),
		quantize(o.Target[2], positionQuantum),
		quantize(o.FOV, fovQuantum),
	}
	for i, v := range vals {
		binary.LittleEndian.PutUint64(buf[i*8:], uint64(v))
	}
	return Fingerprint(xxhash.Sum64(buf[:]))
}

// quantize truncates v toward zero onto a grid of 1/steps, so sign noise
// around zero stays in one bucket.
func quantize(v float32, steps float64) int64 {
	return int64(float64(v) * steps)
}
