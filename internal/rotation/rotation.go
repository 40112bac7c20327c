// Package rotation implements the timer-driven display rotations: which
// configured node is currently shown, and which of a node's services is
// shown in its status line. Both are pure state machines driven by the UI
// tick; they never touch the clock themselves so tests can feed arbitrary
// instants.
package rotation

import (
	"time"
)

const (
	// MinSwitchInterval is the floor for the user-configurable node
	// switch interval.
	MinSwitchInterval = time.Second

	// DefaultSwitchInterval is used when the config does not set one.
	DefaultSwitchInterval = 5 * time.Second

	// ServiceSwitchInterval is the fixed per-node service-line rotation
	// period.
	ServiceSwitchInterval = 3 * time.Second
)

// Rotator cycles the active node index on a fixed interval, wrapping at
// the configured node count. Manual navigation overrides the schedule and
// resets the timer to the full interval.
type Rotator struct {
	count      int
	interval   time.Duration
	index      int
	lastSwitch time.Time
}

// NewRotator creates a rotator over count nodes. Intervals below the floor
// are clamped; a zero interval selects the default.
func NewRotator(count int, interval time.Duration) *Rotator {
	if interval == 0 {
		interval = DefaultSwitchInterval
	}
	if interval < MinSwitchInterval {
		interval = MinSwitchInterval
	}
	if count < 1 {
		count = 1
	}
	return &Rotator{count: count, interval: interval}
}

// Index returns the active node index.
func (r *Rotator) Index() int {
	return r.index
}

// Count returns the number of nodes rotated over.
func (r *Rotator) Count() int {
	return r.count
}

// Interval returns the effective switch interval.
func (r *Rotator) Interval() time.Duration {
	return r.interval
}

// Tick advances the rotation when the interval has elapsed. It reports
// whether the active index changed. With a single node it never advances.
func (r *Rotator) Tick(now time.Time) bool {
	if r.lastSwitch.IsZero() {
		r.lastSwitch = now
		return false
	}
	if r.count < 2 {
		return false
	}
	if now.Sub(r.lastSwitch) < r.interval {
		return false
	}
	r.index = (r.index + 1) % r.count
	r.lastSwitch = now
	return true
}

// Next advances to the following node immediately and restarts the timer.
func (r *Rotator) Next(now time.Time) {
	r.index = (r.index + 1) % r.count
	r.lastSwitch = now
}

// Prev retreats to the previous node immediately and restarts the timer.
func (r *Rotator) Prev(now time.Time) {
	r.index = (r.index - 1 + r.count) % r.count
	r.lastSwitch = now
}

// Remaining returns the whole seconds until the next automatic switch,
// rounded up and saturating at zero.
func (r *Rotator) Remaining(now time.Time) int {
	if r.lastSwitch.IsZero() {
		return int((r.interval + time.Second - 1) / time.Second)
	}
	left := r.interval - now.Sub(r.lastSwitch)
	if left <= 0 {
		return 0
	}
	return int((left + time.Second - 1) / time.Second)
}

// ServiceCycler rotates which of a node's services is shown in its status
// line. Each node owns one cycler; they run independently of the cross-node
// Rotator.
type ServiceCycler struct {
	index      int
	lastSwitch time.Time
}

// Tick advances the cycler when the service switch interval has elapsed.
// count is the node's current number of registered services.
func (c *ServiceCycler) Tick(now time.Time, count int) {
	if count == 0 {
		return
	}
	if c.lastSwitch.IsZero() {
		c.lastSwitch = now
		return
	}
	if now.Sub(c.lastSwitch) < ServiceSwitchInterval {
		return
	}
	c.index = (c.index + 1) % count
	c.lastSwitch = now
}

// Advance moves to the next service immediately and restarts the timer.
func (c *ServiceCycler) Advance(now time.Time, count int) {
	if count == 0 {
		return
	}
	c.index = (c.index + 1) % count
	c.lastSwitch = now
}

// Index returns the current service index, renormalized in case the
// service count grew since the last advance.
func (c *ServiceCycler) Index(count int) int {
	if count == 0 {
		return 0
	}
	return c.index % count
}
