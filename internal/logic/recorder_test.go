package logic

import (
	"testing"
	"time"
)

func newRecorderSim(t *testing.T) (*Debouncer, *sim, *Recorder) {
	t.Helper()
	d, s := newSim(t)
	r := NewRecorder(d, s.Now)
	return d, s, r
}

func eventTypes(events []Event) []EventType {
	out := make([]EventType, len(events))
	for i, e := range events {
		out[i] = e.Type
	}
	return out
}

func assertTypes(t *testing.T, events []Event, want ...EventType) {
	t.Helper()
	got := eventTypes(events)
	if len(got) != len(want) {
		t.Fatalf("expected events %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestRecorderPressRelease(t *testing.T) {
	d, s, r := newRecorderSim(t)

	s.at(d, 0, true)
	s.at(d, 100, false)

	events := r.Drain()
	assertTypes(t, events, EventPress, EventReleasePress)

	if events[0].Pin != 7 {
		t.Errorf("expected pin 7, got %d", events[0].Pin)
	}
	want := simEpoch.Add(time.Duration(base) * time.Millisecond)
	if !events[0].Timestamp.Equal(want) {
		t.Errorf("press timestamp: got %v, want %v", events[0].Timestamp, want)
	}
	if !events[1].Timestamp.Equal(want.Add(100 * time.Millisecond)) {
		t.Errorf("release timestamp: got %v", events[1].Timestamp)
	}
	if events[0].HoldMs != 0 || events[1].HoldMs != 0 {
		t.Error("press and release-press should not carry a hold duration")
	}
}

func TestRecorderHoldReportedOncePerPress(t *testing.T) {
	d, s, r := newRecorderSim(t)

	s.at(d, 0, true)
	s.at(d, 110, true)
	s.at(d, 120, true)
	s.at(d, 130, true)
	s.at(d, 300, false)

	events := r.Drain()
	assertTypes(t, events, EventPress, EventHold, EventReleaseHold)

	if events[1].HoldMs != 110 {
		t.Errorf("HOLD hold_ms: got %d, want 110", events[1].HoldMs)
	}
	if events[2].HoldMs != 300 {
		t.Errorf("RELEASE_HOLD hold_ms: got %d, want 300", events[2].HoldMs)
	}

	// A new press re-arms the hold report.
	s.at(d, 1000, true)
	s.at(d, 1200, true)
	s.at(d, 1300, true)
	assertTypes(t, r.Drain(), EventPress, EventHold)

	if got := r.Counts().Hold; got != 2 {
		t.Errorf("expected Hold=2, got %d", got)
	}
}

func TestRecorderDoublePress(t *testing.T) {
	d, s, r := newRecorderSim(t)

	s.at(d, 0, true)
	s.at(d, 100, false)
	s.at(d, 300, true)
	s.at(d, 400, false)

	assertTypes(t, r.Drain(), EventPress, EventReleasePress, EventDoublePress, EventReleaseDoublePress)
}

func TestRecorderDoublePressThenHold(t *testing.T) {
	d, s, r := newRecorderSim(t)

	s.at(d, 0, true)
	s.at(d, 100, false)
	s.at(d, 300, true)
	s.at(d, 450, true)
	s.at(d, 600, false)

	events := r.Drain()
	assertTypes(t, events, EventPress, EventReleasePress, EventDoublePress, EventHold, EventReleaseHold)
	if events[3].HoldMs != 150 {
		t.Errorf("HOLD hold_ms: got %d, want 150", events[3].HoldMs)
	}
}

func TestRecorderNoEventsWhileIdle(t *testing.T) {
	d, s, r := newRecorderSim(t)

	for i := Millis(0); i < 20; i++ {
		s.at(d, i*50, false)
	}
	if events := r.Drain(); len(events) != 0 {
		t.Errorf("expected no events, got %v", eventTypes(events))
	}
}

func TestRecorderDrainClears(t *testing.T) {
	d, s, r := newRecorderSim(t)

	s.at(d, 0, true)
	if len(r.Drain()) != 1 {
		t.Fatal("expected 1 event")
	}
	if events := r.Drain(); events != nil {
		t.Errorf("expected nil from second drain, got %d events", len(events))
	}
}

func TestRecorderCounts(t *testing.T) {
	d, s, r := newRecorderSim(t)

	s.at(d, 0, true)     // PRESS
	s.at(d, 100, false)  // RELEASE_PRESS
	s.at(d, 300, true)   // DOUBLE_PRESS
	s.at(d, 400, false)  // RELEASE_DOUBLE_PRESS
	s.at(d, 2000, true)  // PRESS
	s.at(d, 2200, true)  // HOLD
	s.at(d, 2400, false) // RELEASE_HOLD

	want := EventCounts{
		Press:              2,
		DoublePress:        1,
		Hold:               1,
		ReleasePress:       1,
		ReleaseDoublePress: 1,
		ReleaseHold:        1,
	}
	if got := r.Counts(); got != want {
		t.Errorf("counts: got %+v, want %+v", got, want)
	}
}

// Heartbeat tests

func TestCheckHeartbeatDisabledWithZeroInterval(t *testing.T) {
	_, s, r := newRecorderSim(t)
	start := s.Now()

	if hb := r.CheckHeartbeat(start.Add(15*time.Minute), 0); hb != nil {
		t.Error("should not return heartbeat when interval is 0 (disabled)")
	}
	if hb := r.CheckHeartbeat(start.Add(15*time.Minute), -1*time.Minute); hb != nil {
		t.Error("should not return heartbeat when interval is negative")
	}
}

func TestCheckHeartbeatBeforeInterval(t *testing.T) {
	_, s, r := newRecorderSim(t)

	if hb := r.CheckHeartbeat(s.Now().Add(14*time.Minute), 15*time.Minute); hb != nil {
		t.Error("should not return heartbeat before interval")
	}
}

func TestCheckHeartbeatAtInterval(t *testing.T) {
	_, s, r := newRecorderSim(t)

	checkTime := s.Now().Add(15 * time.Minute)
	hb := r.CheckHeartbeat(checkTime, 15*time.Minute)
	if hb == nil {
		t.Fatal("should return heartbeat at interval")
	}
	if !hb.Timestamp.Equal(checkTime) {
		t.Errorf("expected timestamp %v, got %v", checkTime, hb.Timestamp)
	}
	if hb.Uptime != 15*time.Minute {
		t.Errorf("expected uptime 15m, got %v", hb.Uptime)
	}
}

func TestCheckHeartbeatUpdatesLastTime(t *testing.T) {
	_, s, r := newRecorderSim(t)

	t1 := s.Now().Add(15 * time.Minute)
	if hb := r.CheckHeartbeat(t1, 15*time.Minute); hb == nil {
		t.Fatal("should return first heartbeat")
	}
	if hb := r.CheckHeartbeat(t1.Add(time.Second), 15*time.Minute); hb != nil {
		t.Error("should not return heartbeat immediately after previous")
	}
	if hb := r.CheckHeartbeat(t1.Add(15*time.Minute), 15*time.Minute); hb == nil {
		t.Fatal("should return second heartbeat")
	}
}

func TestHeartbeatContainsEventCounts(t *testing.T) {
	d, s, r := newRecorderSim(t)
	start := s.Now()

	s.at(d, 0, true)
	s.at(d, 100, false)

	hb := r.CheckHeartbeat(start.Add(15*time.Minute), 15*time.Minute)
	if hb == nil {
		t.Fatal("should return heartbeat")
	}
	if hb.Counts.Press != 1 {
		t.Errorf("expected Press=1, got %d", hb.Counts.Press)
	}
	if hb.Counts.ReleasePress != 1 {
		t.Errorf("expected ReleasePress=1, got %d", hb.Counts.ReleasePress)
	}
	if hb.Counts.Hold != 0 {
		t.Errorf("expected Hold=0, got %d", hb.Counts.Hold)
	}
}
