package scene

// Tier is a level-of-detail bucket. Zero is the coarsest.
type Tier uint8

const (
	TierPoint Tier = iota
	TierLow
	TierMedium
	TierHigh

	// TierCount is the number of tiers.
	TierCount = 4
)

// Base LOD distances before aggression scaling.
const (
	pointDistance  float32 = 50
	lowDistance    float32 = 20
	mediumDistance float32 = 10
)

func (t Tier) String() string {
	switch t {
	case TierPoint:
		return "point"
	case TierLow:
		return "low"
	case TierMedium:
		return "medium"
	case TierHigh:
		return "high"
	default:
		return "unknown"
	}
}

// aggressionSteps maps an inclusive upper bound on dataset size to its
// aggression factor. Datasets above the last bound use maxAggression.
var aggressionSteps = []struct {
	limit  int
	factor float32
}{
	{1_000, 1},
	{10_000, 2},
	{100_000, 4},
	{1_000_000, 8},
	{10_000_000, 16},
}

const maxAggression float32 = 32

// AggressionFactor returns the LOD scale for a dataset of total particles.
func AggressionFactor(total int) float32 {
	for _, s := range aggressionSteps {
		if total <= s.limit {
			return s.factor
		}
	}
	return maxAggression
}

// Thresholds holds the aggression-scaled tier boundaries.
type Thresholds struct {
	Point, Low, Medium float32
}

// NewThresholds scales the base LOD distances by the aggression factor.
func NewThresholds(aggression float32) Thresholds {
	return Thresholds{
		Point:  pointDistance * aggression,
		Low:    lowDistance * aggression,
		Medium: mediumDistance * aggression,
	}
}

// Tier assigns a tier to a particle at the given distance. The ranges
// partition [0, inf): (Point, inf) -> 0, (Low, Point] -> 1,
// (Medium, Low] -> 2, [0, Medium] -> 3.
func (t Thresholds) Tier(distance float32) Tier {
	switch {
	case distance > t.Point:
		return TierPoint
	case distance > t.Low:
		return TierLow
	case distance > t.Medium:
		return TierMedium
	default:
		return TierHigh
	}
}
