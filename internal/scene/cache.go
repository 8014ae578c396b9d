package scene

import "slices"

// VisibleSet is one evaluator result together with the inputs that produced
// it. Records is shared with the cache and must be treated as read-only; it
// stays valid until the next Load, Tick, or Query with a new fingerprint.
type VisibleSet struct {
	Fingerprint Fingerprint    `json:"fingerprint"`
	Tick        uint64         `json:"tick"`
	Time        float64        `json:"time"`
	Aggression  float32        `json:"aggression"`
	Tiers       [TierCount]int `json:"tiers"`
	Records     []Visible      `json:"records"`
}

// Len returns the number of visible records.
func (s VisibleSet) Len() int { return len(s.Records) }

// Clone returns a copy whose records the caller may keep or modify.
func (s VisibleSet) Clone() VisibleSet {
	s.Records = slices.Clone(s.Records)
	return s
}

// Cache holds the last evaluator result and the fingerprint it was built
// for. The zero value is an invalidated cache.
type Cache struct {
	set   VisibleSet
	valid bool
}

// Stale reports whether a query with fp must rebuild. An invalidated cache
// is always stale.
func (c *Cache) Stale(fp Fingerprint) bool {
	return !c.valid || c.set.Fingerprint != fp
}

// Store replaces the cached set in one assignment.
func (c *Cache) Store(set VisibleSet) {
	c.set = set
	c.valid = true
}

// Invalidate drops the cached records and forces the next query to rebuild.
func (c *Cache) Invalidate() {
	c.set = VisibleSet{}
	c.valid = false
}

// Current returns the cached set and whether it was ever built.
func (c *Cache) Current() (VisibleSet, bool) {
	return c.set, c.valid
}
