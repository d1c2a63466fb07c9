package logic

import "time"

// Recorder turns debouncer callbacks into Events for publishing and keeps
// per-type counts for heartbeats.
type Recorder struct {
	d             *Debouncer
	now           func() time.Time
	startTime     time.Time
	lastHeartbeat time.Time

	pending     []Event
	counts      EventCounts
	pressedAt   time.Time
	holdEmitted bool
}

// NewRecorder registers all six action slots on d. Any earlier registrations
// are replaced. now supplies event timestamps; its first reading is the
// start time used for uptime in heartbeats.
func NewRecorder(d *Debouncer, now func() time.Time) *Recorder {
	start := now()
	r := &Recorder{
		d:             d,
		now:           now,
		startTime:     start,
		lastHeartbeat: start,
	}

	d.On(SlotPress, Do(func() { r.press(EventPress) }))
	d.On(SlotDoublePress, Do(func() { r.press(EventDoublePress) }))
	d.On(SlotHold, Do(r.hold))
	d.On(SlotReleasePress, Do(func() { r.emit(EventReleasePress, 0) }))
	d.On(SlotReleaseDoublePress, Do(func() { r.emit(EventReleaseDoublePress, 0) }))
	d.On(SlotReleaseHold, Do(func() {
		// Still HELD here: the debouncer moves to RELEASED after the callback.
		r.emit(EventReleaseHold, int64(r.d.HoldDuration()))
	}))
	return r
}

func (r *Recorder) press(t EventType) {
	r.holdEmitted = false
	r.emit(t, 0)
	r.pressedAt = r.pending[len(r.pending)-1].Timestamp
}

// hold fires on every HELD sample; only the first per press is reported.
func (r *Recorder) hold() {
	if r.holdEmitted {
		return
	}
	r.holdEmitted = true
	ms := r.now().Sub(r.pressedAt).Milliseconds()
	if r.pressedAt.IsZero() || ms < 0 {
		ms = 0
	}
	r.emit(EventHold, ms)
}

func (r *Recorder) emit(t EventType, holdMs int64) {
	r.pending = append(r.pending, Event{
		Timestamp: r.now(),
		Type:      t,
		Pin:       r.d.Pin(),
		HoldMs:    holdMs,
	})

	switch t {
	case EventPress:
		r.counts.Press++
	case EventDoublePress:
		r.counts.DoublePress++
	case EventHold:
		r.counts.Hold++
	case EventReleasePress:
		r.counts.ReleasePress++
	case EventReleaseDoublePress:
		r.counts.ReleaseDoublePress++
	case EventReleaseHold:
		r.counts.ReleaseHold++
	}
}

// Drain returns the events recorded since the last call, oldest first.
func (r *Recorder) Drain() []Event {
	events := r.pending
	r.pending = nil
	return events
}

// Counts returns a copy of the event counts since startup.
func (r *Recorder) Counts() EventCounts {
	return r.counts
}

// CheckHeartbeat returns heartbeat data if the interval has elapsed since the
// last heartbeat (or startup). Returns nil if the interval has not elapsed,
// or if interval is <= 0 (disabled).
func (r *Recorder) CheckHeartbeat(now time.Time, interval time.Duration) *HeartbeatData {
	if interval <= 0 {
		return nil
	}

	if now.Sub(r.lastHeartbeat) < interval {
		return nil
	}

	r.lastHeartbeat = now
	return &HeartbeatData{
		Timestamp: now,
		Uptime:    now.Sub(r.startTime),
		Counts:    r.counts,
	}
}
