package logic

import (
	"math"
	"testing"
)

func TestActiveLevelTruthTable(t *testing.T) {
	tests := []struct {
		pull    PullMode
		contact ContactMode
		want    Level
	}{
		{PullUp, NormallyOpen, Low},
		{PullUp, NormallyClosed, High},
		{InternalPullUp, NormallyOpen, Low},
		{InternalPullUp, NormallyClosed, High},
		{PullDown, NormallyOpen, High},
		{PullDown, NormallyClosed, Low},
	}

	for _, tt := range tests {
		if got := ActiveLevel(tt.pull, tt.contact); got != tt.want {
			t.Errorf("ActiveLevel(%s, %s): got %s, want %s", tt.pull, tt.contact, got, tt.want)
		}
	}
}

func TestNewDebouncer(t *testing.T) {
	s := &sim{}
	d := NewDebouncer(4, InternalPullUp, NormallyOpen, s, s)
	if d == nil {
		t.Fatal("NewDebouncer returned nil")
	}

	want := Thresholds{PressDebounce: 100, ReleaseDebounce: 100, Hold: 110, DoublePress: 700}
	if got := d.Thresholds(); got != want {
		t.Errorf("thresholds: got %+v, want %+v", got, want)
	}
	if d.Last() != Unpressed {
		t.Errorf("expected last classification UNPRESSED, got %s", d.Last())
	}
	if d.Pin() != 4 {
		t.Errorf("expected pin 4, got %d", d.Pin())
	}
	if d.ActiveLevel() != Low {
		t.Errorf("expected active LOW, got %s", d.ActiveLevel())
	}
	if d.pressTime != 0 || d.releaseTime != 0 {
		t.Errorf("expected zero timestamps, got press=%d release=%d", d.pressTime, d.releaseTime)
	}
	if d.previousInteraction {
		t.Error("new debouncer should not be interacting")
	}
	if s.reads != 0 {
		t.Errorf("constructor should not read the pin, got %d reads", s.reads)
	}
}

// TestSampleScenario walks a press, hold, release and double press with
// default thresholds. The release at 135 is outside any debounce window
// (the last release edge is long past), so it is accepted immediately.
func TestSampleScenario(t *testing.T) {
	d, s := newSim(t)
	c := countSlots(d)

	steps := []struct {
		offset Millis
		active bool
		want   Classification
	}{
		{0, true, Pressed},
		{50, true, Debouncing},
		{105, true, PressedWake},
		{130, true, Held},
		{135, false, Released},
		{200, false, Debouncing},
		{250, false, Unpressed},
		{400, true, DoublePressed},
	}

	for _, step := range steps {
		if got := s.at(d, step.offset, step.active); got != step.want {
			t.Errorf("t=%d active=%v: got %s, want %s", step.offset, step.active, got, step.want)
		}
	}

	if c[SlotPress] != 1 {
		t.Errorf("press callback: got %d, want 1", c[SlotPress])
	}
	if c[SlotHold] != 1 {
		t.Errorf("hold callback: got %d, want 1", c[SlotHold])
	}
	if c[SlotReleaseHold] != 1 {
		t.Errorf("release-hold callback: got %d, want 1", c[SlotReleaseHold])
	}
	if c[SlotDoublePress] != 1 {
		t.Errorf("double-press callback: got %d, want 1", c[SlotDoublePress])
	}
	if c.total() != 4 {
		t.Errorf("expected 4 callbacks in total, got %d", c.total())
	}
}

func TestDebounceDiscardsSample(t *testing.T) {
	d, s := newSim(t)

	if got := s.at(d, 0, true); got != Pressed {
		t.Fatalf("expected PRESSED, got %s", got)
	}

	// A bounce to inactive inside the press window is thrown away.
	if got := s.at(d, 50, false); got != Debouncing {
		t.Errorf("expected DEBOUNCING at 50ms, got %s", got)
	}
	if !d.previousInteraction {
		t.Error("debounced sample must not update the previous interaction")
	}

	// So the next accepted active sample is a continuation, not a new press.
	if got := s.at(d, 100, true); got != PressedWake {
		t.Errorf("expected PRESSED_WAKE at 100ms, got %s", got)
	}
}

func TestDebounceWindowBoundary(t *testing.T) {
	d, s := newSim(t)
	s.at(d, 0, true)

	if got := s.at(d, 99, true); got != Debouncing {
		t.Errorf("should debounce at 99ms, got %s", got)
	}
	if got := s.at(d, 100, true); got == Debouncing {
		t.Error("should accept sample at exactly 100ms")
	}
}

func TestReleaseDebounce(t *testing.T) {
	d, s := newSim(t)
	s.at(d, 0, true)
	if got := s.at(d, 200, false); got != Released {
		t.Fatalf("expected RELEASED, got %s", got)
	}

	// Contact bounce after release is invisible.
	if got := s.at(d, 250, true); got != Debouncing {
		t.Errorf("expected DEBOUNCING at 250ms, got %s", got)
	}
	if d.previousInteraction {
		t.Error("debounced sample must not update the previous interaction")
	}
	if got := s.at(d, 299, false); got != Debouncing {
		t.Errorf("expected DEBOUNCING at 299ms, got %s", got)
	}
	if got := s.at(d, 300, false); got != Unpressed {
		t.Errorf("expected UNPRESSED at 300ms, got %s", got)
	}
}

func TestPressedWakeKeepsPressTime(t *testing.T) {
	d, s := newSim(t)
	s.at(d, 0, true)

	for _, off := range []Millis{100, 105, 109} {
		if got := s.at(d, off, true); got != PressedWake {
			t.Errorf("t=%d: expected PRESSED_WAKE, got %s", off, got)
		}
	}
	if d.pressTime != base {
		t.Errorf("press time moved: got %d, want %d", d.pressTime, base)
	}
	if d.Last() != Pressed {
		t.Errorf("PRESSED_WAKE must not be stored, last=%s", d.Last())
	}

	// Hold is measured from the original press edge.
	if got := s.at(d, 110, true); got != Held {
		t.Errorf("expected HELD at exactly 110ms, got %s", got)
	}
}

func TestHoldCallbackFiresEachHeldSample(t *testing.T) {
	d, s := newSim(t)
	c := countSlots(d)

	s.at(d, 0, true)
	if got := s.at(d, 105, true); got != PressedWake {
		t.Fatalf("expected PRESSED_WAKE, got %s", got)
	}
	if c[SlotHold] != 0 {
		t.Errorf("hold callback fired before threshold: %d", c[SlotHold])
	}

	if got := s.at(d, 110, true); got != Held {
		t.Fatalf("expected HELD, got %s", got)
	}
	if c[SlotHold] != 1 {
		t.Errorf("hold callback at transition: got %d, want 1", c[SlotHold])
	}

	s.at(d, 120, true)
	s.at(d, 130, true)
	if c[SlotHold] != 3 {
		t.Errorf("hold callback after 3 held samples: got %d, want 3", c[SlotHold])
	}
	if d.Last() != Held {
		t.Errorf("expected last HELD, got %s", d.Last())
	}
}

func TestDoublePressWindow(t *testing.T) {
	tests := []struct {
		name  string
		delay Millis // from release to the next press edge
		want  Classification
	}{
		{"just inside", 699, DoublePressed},
		{"at threshold", 700, Pressed},
		{"well outside", 2000, Pressed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, s := newSim(t)
			c := countSlots(d)

			s.at(d, 0, true)
			s.at(d, 200, false)
			if got := s.at(d, 200+tt.delay, true); got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
			if d.Last() != tt.want {
				t.Errorf("last: got %s, want %s", d.Last(), tt.want)
			}
			if tt.want == DoublePressed && c[SlotDoublePress] != 1 {
				t.Errorf("double-press callback: got %d, want 1", c[SlotDoublePress])
			}
			if tt.want == Pressed && c[SlotPress] != 2 {
				t.Errorf("press callback: got %d, want 2", c[SlotPress])
			}
		})
	}
}

func TestFirstPressNearStartupIsDoublePress(t *testing.T) {
	// releaseTime starts at zero, so an edge within the double press window
	// of the clock epoch counts as a double press.
	s := &sim{}
	d := NewDebouncer(1, PullDown, NormallyOpen, s, s)

	s.ms = 300
	s.level = true
	if got := d.Sample(); got != DoublePressed {
		t.Errorf("expected DOUBLE_PRESSED, got %s", got)
	}
}

func TestSamplesInsideInitialWindowDebounce(t *testing.T) {
	s := &sim{}
	d := NewDebouncer(1, PullDown, NormallyOpen, s, s)

	s.ms = 50
	s.level = true
	if got := d.Sample(); got != Debouncing {
		t.Errorf("expected DEBOUNCING at 50ms after epoch, got %s", got)
	}
}

func TestReleaseRouting(t *testing.T) {
	t.Run("from pressed", func(t *testing.T) {
		d, s := newSim(t)
		c := countSlots(d)
		s.at(d, 0, true)
		if got := s.at(d, 100, false); got != Released {
			t.Fatalf("expected RELEASED, got %s", got)
		}
		if c[SlotReleasePress] != 1 || c[SlotReleaseDoublePress] != 0 || c[SlotReleaseHold] != 0 {
			t.Errorf("unexpected release callbacks: %v", *c)
		}
	})

	t.Run("from double pressed", func(t *testing.T) {
		d, s := newSim(t)
		s.at(d, 0, true)
		s.at(d, 100, false)
		if got := s.at(d, 300, true); got != DoublePressed {
			t.Fatalf("expected DOUBLE_PRESSED, got %s", got)
		}
		c := countSlots(d)
		if got := s.at(d, 400, false); got != Released {
			t.Fatalf("expected RELEASED, got %s", got)
		}
		if c[SlotReleaseDoublePress] != 1 || c.total() != 1 {
			t.Errorf("expected only release-double-press, got %v", *c)
		}
	})

	t.Run("from held", func(t *testing.T) {
		d, s := newSim(t)
		s.at(d, 0, true)
		s.at(d, 150, true)
		c := countSlots(d)
		if got := s.at(d, 300, false); got != Released {
			t.Fatalf("expected RELEASED, got %s", got)
		}
		if c[SlotReleaseHold] != 1 || c.total() != 1 {
			t.Errorf("expected only release-hold, got %v", *c)
		}
		if d.Last() != Released {
			t.Errorf("expected last RELEASED, got %s", d.Last())
		}
	})
}

func TestReleaseFromWakeRoutesToPress(t *testing.T) {
	// PRESSED_WAKE is never stored, so the release is routed on PRESSED.
	d, s := newSim(t)
	c := countSlots(d)
	s.at(d, 0, true)
	s.at(d, 105, true)
	s.at(d, 108, false)
	if c[SlotReleasePress] != 1 {
		t.Errorf("release-press callback: got %d, want 1", c[SlotReleasePress])
	}
}

func TestSteadyUnpressedFiresNothing(t *testing.T) {
	d, s := newSim(t)
	c := countSlots(d)

	for i := Millis(0); i < 10; i++ {
		if got := s.at(d, i*200, false); got != Unpressed {
			t.Errorf("sample %d: expected UNPRESSED, got %s", i, got)
		}
	}
	if c.total() != 0 {
		t.Errorf("expected no callbacks, got %d", c.total())
	}
	if d.Last() != Unpressed {
		t.Errorf("expected last UNPRESSED, got %s", d.Last())
	}
}

func TestNoActionIsNotInvoked(t *testing.T) {
	d, s := newSim(t)
	fired := 0
	d.On(SlotPress, Do(func() { fired++ }))
	d.On(SlotPress, NoAction)

	if NoAction.Present() {
		t.Error("NoAction should not be present")
	}
	if Do(nil).Present() {
		t.Error("Do(nil) should not be present")
	}

	if got := s.at(d, 0, true); got != Pressed {
		t.Fatalf("expected PRESSED, got %s", got)
	}
	if fired != 0 {
		t.Errorf("cleared slot was invoked %d times", fired)
	}
}

func TestOnReplacesAction(t *testing.T) {
	d, s := newSim(t)
	var calls []string
	d.On(SlotPress, Do(func() { calls = append(calls, "first") }))
	d.On(SlotPress, Do(func() { calls = append(calls, "second") }))
	d.On(Slot(42), Do(func() { calls = append(calls, "bogus") }))

	s.at(d, 0, true)
	if len(calls) != 1 || calls[0] != "second" {
		t.Errorf("expected only the replacement to run, got %v", calls)
	}
}

func TestCallbackRunsBeforeSampleReturns(t *testing.T) {
	d, s := newSim(t)
	var seen Classification
	d.On(SlotHold, Do(func() { seen = d.Last() }))

	s.at(d, 0, true)
	s.at(d, 120, true)
	// The hold action runs before the classification is stored.
	if seen != Pressed {
		t.Errorf("expected PRESSED inside the hold callback, got %s", seen)
	}
	if d.Last() != Held {
		t.Errorf("expected HELD after Sample, got %s", d.Last())
	}
}

func TestHoldDuration(t *testing.T) {
	d, s := newSim(t)

	if got := d.HoldDuration(); got != 0 {
		t.Errorf("expected 0 before any press, got %d", got)
	}

	s.at(d, 0, true)
	s.at(d, 105, true)
	if got := d.HoldDuration(); got != 0 {
		t.Errorf("expected 0 while PRESSED_WAKE, got %d", got)
	}

	s.at(d, 130, true)
	s.ms = base + 480
	if got := d.HoldDuration(); got != 480 {
		t.Errorf("expected 480 while held, got %d", got)
	}

	reads := s.reads
	d.HoldDuration()
	if s.reads != reads {
		t.Error("HoldDuration should not read the pin")
	}

	s.at(d, 500, false)
	if got := d.HoldDuration(); got != 0 {
		t.Errorf("expected 0 after release, got %d", got)
	}
}

func TestSetPressDebounceClamp(t *testing.T) {
	d, _ := newSim(t)

	d.SetPressDebounce(500)
	if got := d.Thresholds().PressDebounce; got != 110 {
		t.Errorf("expected clamp to hold threshold 110, got %d", got)
	}

	d.SetPressDebounce(20)
	if got := d.Thresholds().PressDebounce; got != 20 {
		t.Errorf("expected 20, got %d", got)
	}
}

func TestSetReleaseDebounceClamp(t *testing.T) {
	d, _ := newSim(t)

	d.SetReleaseDebounce(1000)
	if got := d.Thresholds().ReleaseDebounce; got != 700 {
		t.Errorf("expected clamp to double press threshold 700, got %d", got)
	}

	d.SetReleaseDebounce(30)
	if got := d.Thresholds().ReleaseDebounce; got != 30 {
		t.Errorf("expected 30, got %d", got)
	}
}

func TestSetHoldThresholdClamp(t *testing.T) {
	d, _ := newSim(t)

	d.SetHoldThreshold(50)
	if got := d.Thresholds().Hold; got != 100 {
		t.Errorf("expected clamp to press debounce 100, got %d", got)
	}
	if got := d.Thresholds().PressDebounce; got != 100 {
		t.Errorf("press debounce must not change, got %d", got)
	}

	d.SetHoldThreshold(1000)
	if got := d.Thresholds().Hold; got != 1000 {
		t.Errorf("expected 1000, got %d", got)
	}
}

func TestSetDoublePressThresholdClamp(t *testing.T) {
	d, _ := newSim(t)

	d.SetDoublePressThreshold(10)
	if got := d.Thresholds().DoublePress; got != 100 {
		t.Errorf("expected clamp to release debounce 100, got %d", got)
	}

	d.SetDoublePressThreshold(400)
	if got := d.Thresholds().DoublePress; got != 400 {
		t.Errorf("expected 400, got %d", got)
	}
}

func TestSetterOrderMatters(t *testing.T) {
	a, _ := newSim(t)
	a.SetPressDebounce(200)
	a.SetHoldThreshold(500)

	b, _ := newSim(t)
	b.SetHoldThreshold(500)
	b.SetPressDebounce(200)

	if got := a.Thresholds().PressDebounce; got != 110 {
		t.Errorf("debounce first: expected 110, got %d", got)
	}
	if got := b.Thresholds().PressDebounce; got != 200 {
		t.Errorf("hold first: expected 200, got %d", got)
	}
}

func TestSettersKeepInvariant(t *testing.T) {
	d, _ := newSim(t)
	values := []Millis{0, 5, 90, 100, 110, 250, 700, 1500, math.MaxUint32}

	for _, v := range values {
		d.SetPressDebounce(v)
		d.SetReleaseDebounce(v / 2)
		d.SetHoldThreshold(v / 3)
		d.SetDoublePressThreshold(v / 4)

		th := d.Thresholds()
		if th.PressDebounce > th.Hold {
			t.Errorf("v=%d: press debounce %d > hold %d", v, th.PressDebounce, th.Hold)
		}
		if th.ReleaseDebounce > th.DoublePress {
			t.Errorf("v=%d: release debounce %d > double press %d", v, th.ReleaseDebounce, th.DoublePress)
		}
	}
}

func TestApplyStoresConsistentThresholds(t *testing.T) {
	tests := []Thresholds{
		{PressDebounce: 200, ReleaseDebounce: 150, Hold: 800, DoublePress: 1200},
		{PressDebounce: 10, ReleaseDebounce: 20, Hold: 50, DoublePress: 60},
		{PressDebounce: 100, ReleaseDebounce: 100, Hold: 100, DoublePress: 100},
	}

	for _, want := range tests {
		d, _ := newSim(t)
		d.Apply(DefaultThresholds())
		d.Apply(want)
		if got := d.Thresholds(); got != want {
			t.Errorf("Apply(%+v): got %+v", want, got)
		}
	}
}

func TestApplyClampsInconsistentThresholds(t *testing.T) {
	d, _ := newSim(t)
	d.Apply(Thresholds{PressDebounce: 300, ReleaseDebounce: 900, Hold: 200, DoublePress: 400})

	th := d.Thresholds()
	if th.PressDebounce > th.Hold {
		t.Errorf("press debounce %d > hold %d", th.PressDebounce, th.Hold)
	}
	if th.ReleaseDebounce > th.DoublePress {
		t.Errorf("release debounce %d > double press %d", th.ReleaseDebounce, th.DoublePress)
	}
}

func TestEffectiveThresholdsMatchApply(t *testing.T) {
	tests := []Thresholds{
		{PressDebounce: 300, ReleaseDebounce: 100, Hold: 200, DoublePress: 700},
		{PressDebounce: 100, ReleaseDebounce: 900, Hold: 110, DoublePress: 400},
		{PressDebounce: 20, ReleaseDebounce: 20, Hold: 500, DoublePress: 300},
		DefaultThresholds(),
	}

	for _, in := range tests {
		d, _ := newSim(t)
		d.Apply(in)
		if got := EffectiveThresholds(in); got != d.Thresholds() {
			t.Errorf("EffectiveThresholds(%+v) = %+v, Apply stored %+v", in, got, d.Thresholds())
		}
	}

	got := EffectiveThresholds(Thresholds{PressDebounce: 300, ReleaseDebounce: 100, Hold: 200, DoublePress: 700})
	if got.PressDebounce != 200 || got.Hold != 200 {
		t.Errorf("press 300 over hold 200: got press %d hold %d, want 200/200", got.PressDebounce, got.Hold)
	}
}

func TestCustomThresholdsChangeTiming(t *testing.T) {
	d, s := newSim(t)
	d.Apply(Thresholds{PressDebounce: 20, ReleaseDebounce: 20, Hold: 500, DoublePress: 300})

	s.at(d, 0, true)
	if got := s.at(d, 25, true); got != PressedWake {
		t.Errorf("expected PRESSED_WAKE at 25ms, got %s", got)
	}
	if got := s.at(d, 400, true); got != PressedWake {
		t.Errorf("expected PRESSED_WAKE at 400ms, got %s", got)
	}
	if got := s.at(d, 500, true); got != Held {
		t.Errorf("expected HELD at 500ms, got %s", got)
	}
	if got := s.at(d, 520, false); got != Released {
		t.Errorf("expected RELEASED at 520ms, got %s", got)
	}
	if got := s.at(d, 830, true); got != Pressed {
		t.Errorf("expected PRESSED outside 300ms double press window, got %s", got)
	}
}

func TestElapsedWraparound(t *testing.T) {
	tests := []struct {
		now, since, want Millis
	}{
		{150, 100, 50},
		{100, 100, 0},
		{10, math.MaxUint32 - 9, 20},
		{0, math.MaxUint32, 1},
	}

	for _, tt := range tests {
		if got := Elapsed(tt.now, tt.since); got != tt.want {
			t.Errorf("Elapsed(%d, %d): got %d, want %d", tt.now, tt.since, got, tt.want)
		}
	}
}

func TestSampleAcrossClockWrap(t *testing.T) {
	s := &sim{}
	d := NewDebouncer(1, PullDown, NormallyOpen, s, s)

	step := func(ms Millis, active bool) Classification {
		s.ms = ms
		s.level = active
		return d.Sample()
	}

	if got := step(math.MaxUint32-3000, true); got != Pressed {
		t.Fatalf("expected PRESSED, got %s", got)
	}
	if got := step(math.MaxUint32-2800, false); got != Released {
		t.Fatalf("expected RELEASED, got %s", got)
	}
	if got := step(math.MaxUint32-49, true); got != Pressed {
		t.Fatalf("expected PRESSED before wrap, got %s", got)
	}

	// 50 ms up to the wrap plus 39 ms after it is 89 ms: still debouncing.
	if got := step(39, true); got != Debouncing {
		t.Errorf("expected DEBOUNCING across wrap, got %s", got)
	}
	// 50 + 60 = 110 ms since the press edge.
	if got := step(60, true); got != Held {
		t.Errorf("expected HELD across wrap, got %s", got)
	}
	s.ms = 160
	if got := d.HoldDuration(); got != 210 {
		t.Errorf("expected hold duration 210 across wrap, got %d", got)
	}
}

func TestSamplePassesPinToSource(t *testing.T) {
	d, s := newSim(t)
	s.at(d, 0, false)
	if s.lastPin != 7 {
		t.Errorf("expected pin 7, got %d", s.lastPin)
	}
	if s.reads != 1 {
		t.Errorf("expected exactly 1 read per sample, got %d", s.reads)
	}
}

func TestActiveLowWiring(t *testing.T) {
	s := &sim{ms: base}
	d := NewDebouncer(3, PullUp, NormallyOpen, s, s)

	s.level = true // idle high
	if got := d.Sample(); got != Unpressed {
		t.Errorf("expected UNPRESSED with pin high, got %s", got)
	}

	s.ms += 50
	s.level = false
	if got := d.Sample(); got != Pressed {
		t.Errorf("expected PRESSED with pin low, got %s", got)
	}
}
