package fluid

// timeEpsilon absorbs the rounding left by summing frame lengths, so a
// deadline that lands exactly on a frame boundary is not pushed to the next
// frame.
const timeEpsilon = 1e-9

// Handle identifies a periodic callback registered on a Clock.
type Handle uint64

type timer struct {
	id       Handle
	interval float64
	start    float64
	fired    int
	fn       func(now, dt float64)
}

// due is the deadline of the next tick, computed from the tick count
// rather than accumulated.
func (t *timer) due() float64 {
	return t.start + float64(t.fired+1)*t.interval
}

// Clock is the simulation's logical clock. It only moves when the world
// steps, so periodic callbacks stay in lock-step with the physics no matter
// how fast frames are produced.
type Clock struct {
	now    float64
	nextID Handle
	timers []timer
}

func (c *Clock) Now() float64 { return c.now }

// Every registers fn to run each time interval seconds of simulation time
// elapse. fn receives the tick time and the interval. A non-positive
// interval fires once per Advance with dt set to that step's length.
func (c *Clock) Every(interval float64, fn func(now, dt float64)) Handle {
	c.nextID++
	c.timers = append(c.timers, timer{
		id:       c.nextID,
		interval: interval,
		start:    c.now,
		fn:       fn,
	})
	return c.nextID
}

// Cancel removes a callback. Unknown handles are ignored.
func (c *Clock) Cancel(h Handle) {
	for i := range c.timers {
		if c.timers[i].id == h {
			c.timers = append(c.timers[:i], c.timers[i+1:]...)
			return
		}
	}
}

// Clear removes every callback.
func (c *Clock) Clear() { c.timers = c.timers[:0] }

// Pending is the number of registered callbacks.
func (c *Clock) Pending() int { return len(c.timers) }

// Advance moves time forward by dt and runs every due callback, catching up
// on missed ticks in order.
func (c *Clock) Advance(dt float64) {
	c.now += dt
	for i := 0; i < len(c.timers); i++ {
		id := c.timers[i].id
		if c.timers[i].interval <= 0 {
			c.timers[i].fn(c.now, dt)
			if !c.holds(i, id) {
				i--
			}
			continue
		}
		for c.timers[i].due() <= c.now+timeEpsilon {
			t := &c.timers[i]
			at := t.due()
			t.fired++
			t.fn(at, t.interval)
			if !c.holds(i, id) {
				// the callback cancelled timers; resume at the same index
				i--
				break
			}
		}
	}
}

func (c *Clock) holds(i int, id Handle) bool {
	return i < len(c.timers) && c.timers[i].id == id
}
