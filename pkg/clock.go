package readout

// Clock gives the current simulation time in ns.
type Clock interface {
	Time() float64
}

// SimClock is the simulation clock advanced by the driving loop.
type SimClock struct {
	time float64
}

func NewSimClock(start float64) *SimClock {
	return &SimClock{time: start}
}

func (c *SimClock) Time() float64 {
	return c.time
}

func (c *SimClock) Advance(dt float64) {
	c.time += dt
}

func (c *SimClock) Set(time float64) {
	c.time = time
}
