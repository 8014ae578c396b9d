// Package snapshot exports read-only views of a scene for host layers:
// JSON frames, packed float32 buffers and gzip-framed payloads.
package snapshot

import (
	"io"

	jsoniter "github.com/json-iterator/go"
	"github.com/nmxmxh/atomview/internal/scene"
)

// json is compatible with encoding/json so hosts can decode frames with any
// standard decoder.
var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Frame is the payload sent to a host after a query.
type Frame struct {
	Fingerprint scene.Fingerprint    `json:"fingerprint"`
	Tick        uint64               `json:"tick"`
	Time        float64              `json:"time"`
	Aggression  float32              `json:"aggression"`
	Tiers       [scene.TierCount]int `json:"tiers"`
	Visible     []scene.Visible      `json:"visible"`
	Chunks      []scene.Chunk        `json:"chunks,omitempty"`
}

// NewFrame builds a frame from a visible set and an optional chunk summary.
func NewFrame(set scene.VisibleSet, chunks []scene.Chunk) Frame {
	return Frame{
		Fingerprint: set.Fingerprint,
		Tick:        set.Tick,
		Time:        set.Time,
		Aggression:  set.Aggression,
		Tiers:       set.Tiers,
		Visible:     set.Records,
		Chunks:      chunks,
	}
}

// EncodeFrame writes f as a single JSON document.
func EncodeFrame(w io.Writer, f Frame) error {
	return json.NewEncoder(w).Encode(f)
}

// DecodeFrame reads one JSON frame.
func DecodeFrame(r io.Reader) (Frame, error) {
	var f Frame
	err := json.NewDecoder(r).Decode(&f)
	return f, err
}

// MarshalFrame returns the JSON encoding of f, gzip-framed when it is large
// enough to benefit.
func MarshalFrame(f Frame) ([]byte, error) {
	data, err := json.Marshal(f)
	if err != nil {
		return nil, err
	}
	return Compress(data)
}

// UnmarshalFrame reverses MarshalFrame.
func UnmarshalFrame(data []byte) (Frame, error) {
	var f Frame
	raw, err := Decompress(data)
	if err != nil {
		return f, err
	}
	err = json.Unmarshal(raw, &f)
	return f, err
}
