package scene

// Element identifies the chemical species of a particle. The set is closed:
// the loader only ever produces the four tags below.
type Element uint8

const (
	Hydrogen Element = iota
	Carbon
	Oxygen
	Nitrogen

	elementCount
)

// defaultRadius applies to tags outside the closed set.
const defaultRadius float32 = 0.28

type elementInfo struct {
	name   string
	radius float32
	color  [3]float32
}

var elementTable = [elementCount]elementInfo{
	Hydrogen: {name: "H", radius: 0.25, color: [3]float32{0.95, 0.95, 0.95}},
	Carbon:   {name: "C", radius: 0.35, color: [3]float32{0.30, 0.30, 0.30}},
	Oxygen:   {name: "O", radius: 0.30, color: [3]float32{0.90, 0.15, 0.15}},
	Nitrogen: {name: "N", radius: 0.28, color: [3]float32{0.20, 0.30, 0.95}},
}

var unknownColor = [3]float32{0.60, 0.60, 0.60}

// Valid reports whether e is one of the known elements.
func (e Element) Valid() bool { return e < elementCount }

// BaseRadius returns the display radius before animation is applied.
func (e Element) BaseRadius() float32 {
	if !e.Valid() {
		return defaultRadius
	}
	return elementTable[e].radius
}

// Color returns the linear RGB colour used by host renderers.
func (e Element) Color() [3]float32 {
	if !e.Valid() {
		return unknownColor
	}
	return elementTable[e].color
}

func (e Element) String() string {
	if !e.Valid() {
		return "?"
	}
	return elementTable[e].name
}
