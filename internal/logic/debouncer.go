package logic

// Debouncer classifies polled samples of one momentary button into presses,
// double presses, holds and releases.
//
// Sample must be called repeatedly from a single goroutine. A Debouncer is
// not safe for concurrent use.
type Debouncer struct {
	pin    int
	source LevelSource
	clock  Clock
	active Level

	previousInteraction bool
	// Last classification other than PRESSED_WAKE and DEBOUNCING
	previous    Classification
	pressTime   Millis
	releaseTime Millis

	thresholds Thresholds
	actions    [numSlots]Action
}

// ActiveLevel returns the raw level that means "button engaged" for the
// given wiring. Pull-up and internal pull-up are equivalent here.
func ActiveLevel(pull PullMode, contact ContactMode) Level {
	if pull == PullUp || pull == InternalPullUp {
		if contact == NormallyOpen {
			return Low
		}
		return High
	}
	if contact == NormallyOpen {
		return High
	}
	return Low
}

// NewDebouncer creates a debouncer for pin, read through source and timed by clock.
func NewDebouncer(pin int, pull PullMode, contact ContactMode, source LevelSource, clock Clock) *Debouncer {
	return &Debouncer{
		pin:        pin,
		source:     source,
		clock:      clock,
		active:     ActiveLevel(pull, contact),
		previous:   Unpressed,
		thresholds: DefaultThresholds(),
	}
}

// Sample reads the pin once and classifies the interaction. At most one
// registered action runs, synchronously, before Sample returns.
func (d *Debouncer) Sample() Classification {
	now := d.clock.NowMillis()
	activeNow := Level(d.source.ReadRaw(d.pin)) == d.active

	// Samples inside either debounce window are discarded, not deferred.
	if Elapsed(now, d.pressTime) < d.thresholds.PressDebounce ||
		Elapsed(now, d.releaseTime) < d.thresholds.ReleaseDebounce {
		return Debouncing
	}

	wasActive := d.previousInteraction
	d.previousInteraction = activeNow

	if activeNow {
		if wasActive {
			// pressTime stays at the original edge
			if Elapsed(now, d.pressTime) < d.thresholds.Hold {
				return PressedWake
			}
			d.actions[SlotHold].fire()
			d.previous = Held
			return Held
		}

		d.pressTime = now
		if Elapsed(now, d.releaseTime) < d.thresholds.DoublePress {
			d.actions[SlotDoublePress].fire()
			d.previous = DoublePressed
			return DoublePressed
		}
		d.actions[SlotPress].fire()
		d.previous = Pressed
		return Pressed
	}

	if !wasActive {
		return Unpressed
	}

	d.releaseTime = now
	switch d.previous {
	case Pressed:
		d.actions[SlotReleasePress].fire()
	case DoublePressed:
		d.actions[SlotReleaseDoublePress].fire()
	case Held:
		d.actions[SlotReleaseHold].fire()
	}
	d.previous = Released
	return Released
}

// HoldDuration returns how long the button has been held, or 0 if the last
// classification was not HELD.
func (d *Debouncer) HoldDuration() Millis {
	if d.previous != Held {
		return 0
	}
	return Elapsed(d.clock.NowMillis(), d.pressTime)
}

// On registers a for slot, replacing any previous registration.
// Passing NoAction clears the slot.
func (d *Debouncer) On(slot Slot, a Action) {
	if slot >= numSlots {
		return
	}
	d.actions[slot] = a
}

// SetPressDebounce sets the press debounce window, clamped to the hold threshold.
func (d *Debouncer) SetPressDebounce(v Millis) {
	if v > d.thresholds.Hold {
		v = d.thresholds.Hold
	}
	d.thresholds.PressDebounce = v
}

// SetReleaseDebounce sets the release debounce window, clamped to the
// double press threshold.
func (d *Debouncer) SetReleaseDebounce(v Millis) {
	if v > d.thresholds.DoublePress {
		v = d.thresholds.DoublePress
	}
	d.thresholds.ReleaseDebounce = v
}

// SetHoldThreshold sets the hold threshold. Values below the press debounce
// window are raised to it; the window itself is never lowered.
func (d *Debouncer) SetHoldThreshold(v Millis) {
	if v < d.thresholds.PressDebounce {
		v = d.thresholds.PressDebounce
	}
	d.thresholds.Hold = v
}

// SetDoublePressThreshold sets the double press threshold, raised to the
// release debounce window if lower.
func (d *Debouncer) SetDoublePressThreshold(v Millis) {
	if v < d.thresholds.ReleaseDebounce {
		v = d.thresholds.ReleaseDebounce
	}
	d.thresholds.DoublePress = v
}

// Apply sets all four thresholds through the clamping setters. Each upper
// threshold is set on both sides of its window, so any t with
// PressDebounce <= Hold and ReleaseDebounce <= DoublePress is stored exactly
// regardless of the current values. Inconsistent input is clamped.
func (d *Debouncer) Apply(t Thresholds) {
	d.SetHoldThreshold(t.Hold)
	d.SetPressDebounce(t.PressDebounce)
	d.SetHoldThreshold(t.Hold)

	d.SetDoublePressThreshold(t.DoublePress)
	d.SetReleaseDebounce(t.ReleaseDebounce)
	d.SetDoublePressThreshold(t.DoublePress)
}

// EffectiveThresholds returns what a new Debouncer stores after Apply(t).
func EffectiveThresholds(t Thresholds) Thresholds {
	d := Debouncer{thresholds: DefaultThresholds()}
	d.Apply(t)
	return d.thresholds
}

// Thresholds returns the current timing configuration.
func (d *Debouncer) Thresholds() Thresholds {
	return d.thresholds
}

// Pin returns the pin identifier passed to the LevelSource.
func (d *Debouncer) Pin() int {
	return d.pin
}

// ActiveLevel returns the raw level treated as "engaged".
func (d *Debouncer) ActiveLevel() Level {
	return d.active
}

// Last returns the last classification other than PRESSED_WAKE and DEBOUNCING.
func (d *Debouncer) Last() Classification {
	return d.previous
}
