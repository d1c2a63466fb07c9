package logic

import "time"

// FuncClock adapts a wall clock function to Clock. Readings are milliseconds
// since epoch, truncated to 32 bits, so they wrap roughly every 49.7 days.
type FuncClock struct {
	now   func() time.Time
	epoch time.Time
}

// NewFuncClock returns a Clock whose epoch is the first reading of now.
func NewFuncClock(now func() time.Time) *FuncClock {
	return &FuncClock{now: now, epoch: now()}
}

// NewSystemClock returns a Clock backed by the monotonic system clock.
func NewSystemClock() *FuncClock {
	return NewFuncClock(time.Now)
}

// NowMillis implements Clock.
func (c *FuncClock) NowMillis() Millis {
	ms := c.now().Sub(c.epoch).Milliseconds()
	if ms < 0 {
		return 0
	}
	return Millis(uint32(uint64(ms)))
}
