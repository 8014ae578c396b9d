package scene

// Clock accumulates animation time. It is pure state: advancing it is the
// caller's job, once per frame.
type Clock struct {
	time  float64
	speed float64
	ticks uint64
}

// NewClock returns a clock at time zero running at the given speed.
func NewClock(speed float64) Clock {
	return Clock{speed: speed}
}

// Tick advances the clock by delta scaled by the current speed.
func (c *Clock) Tick(delta float64) {
	c.time += delta * c.speed
	c.ticks++
}

// SetSpeed replaces the speed multiplier.
func (c *Clock) SetSpeed(speed float64) { c.speed = speed }

// Time returns the accumulated animation time.
func (c *Clock) Time() float64 { return c.time }

// Speed returns the current multiplier.
func (c *Clock) Speed() float64 { return c.speed }

// Ticks returns how many times Tick has been called.
func (c *Clock) Ticks() uint64 { return c.ticks }
