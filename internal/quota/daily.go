// Package quota implements in-memory daily usage counters. Counts are
// keyed (per client IP, or a single shared key) and reset at UTC
// midnight. State does not survive a restart.
package quota

import (
	"sync"
	"time"
)

// DailyCounter tracks per-key usage against a fixed daily limit.
type DailyCounter struct {
	mu     sync.Mutex
	limit  int
	now    func() time.Time
	day    string
	counts map[string]int
}

// NewDailyCounter creates a counter. A nil now uses the wall clock.
func NewDailyCounter(limit int, now func() time.Time) *DailyCounter {
	if now == nil {
		now = time.Now
	}
	c := &DailyCounter{
		limit:  limit,
		now:    now,
		counts: make(map[string]int),
	}
	c.day = c.stamp()
	return c
}

// Limit returns the configured daily limit.
func (c *DailyCounter) Limit() int { return c.limit }

// Allow reports whether key still has budget today, without consuming
// any.
func (c *DailyCounter) Allow(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rolloverLocked()
	return c.counts[key] < c.limit
}

// Take consumes one unit for key. It returns the remaining budget and
// whether the unit was granted; when the limit is already reached
// nothing is consumed and remaining is 0.
func (c *DailyCounter) Take(key string) (remaining int, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rolloverLocked()
	if c.counts[key] >= c.limit {
		return 0, false
	}
	c.counts[key]++
	return c.limit - c.counts[key], true
}

func (c *DailyCounter) stamp() string {
	return c.now().UTC().Format(time.DateOnly)
}

// rolloverLocked wipes all counts on the first touch of a new UTC day.
func (c *DailyCounter) rolloverLocked() {
	if day := c.stamp(); day != c.day {
		c.day = day
		c.counts = make(map[string]int)
	}
}
