package logic

import (
	"testing"
	"time"
)

// sim is a scripted button: a raw pin level plus a millisecond clock.
// It also serves wall time at the same offset so Recorder timestamps line up.
type sim struct {
	level   bool
	ms      Millis
	reads   int
	lastPin int
}

func (s *sim) ReadRaw(pin int) bool {
	s.reads++
	s.lastPin = pin
	return s.level
}

func (s *sim) NowMillis() Millis {
	return s.ms
}

var simEpoch = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func (s *sim) Now() time.Time {
	return simEpoch.Add(time.Duration(s.ms) * time.Millisecond)
}

// base is far enough past zero that the initial zero timestamps do not
// trigger the debounce or double press windows.
const base Millis = 10000

// newSim returns an active-high debouncer (pull-down, normally open) on pin 7.
func newSim(t *testing.T) (*Debouncer, *sim) {
	t.Helper()
	s := &sim{ms: base}
	d := NewDebouncer(7, PullDown, NormallyOpen, s, s)
	return d, s
}

// at sets the clock to base+offset and the pin to the given engaged state,
// then samples once.
func (s *sim) at(d *Debouncer, offset Millis, active bool) Classification {
	s.ms = base + offset
	s.level = active == bool(d.ActiveLevel())
	return d.Sample()
}

// slotCounter registers a counting action on every slot.
type slotCounter [numSlots]int

func countSlots(d *Debouncer) *slotCounter {
	c := &slotCounter{}
	for s := Slot(0); s < numSlots; s++ {
		s := s
		d.On(s, Do(func() { c[s]++ }))
	}
	return c
}

func (c *slotCounter) total() int {
	n := 0
	for _, v := range c {
		n += v
	}
	return n
}
