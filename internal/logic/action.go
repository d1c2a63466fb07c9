package logic

// Action is an optional callback fired from Sample.
// The zero value is NoAction and is never invoked.
type Action struct {
	fn func()
}

// NoAction is the empty callback.
var NoAction Action

// Do wraps fn as an Action. A nil fn yields NoAction.
func Do(fn func()) Action {
	return Action{fn: fn}
}

// Present reports whether the action will run when fired.
func (a Action) Present() bool {
	return a.fn != nil
}

func (a Action) fire() {
	if a.fn != nil {
		a.fn()
	}
}

// Slot identifies one of the callback registrations on a Debouncer.
type Slot uint8

const (
	SlotPress Slot = iota
	SlotDoublePress
	SlotHold
	SlotReleasePress
	SlotReleaseDoublePress
	SlotReleaseHold

	numSlots
)

func (s Slot) String() string {
	switch s {
	case SlotPress:
		return "press"
	case SlotDoublePress:
		return "double-press"
	case SlotHold:
		return "hold"
	case SlotReleasePress:
		return "release-press"
	case SlotReleaseDoublePress:
		return "release-double-press"
	case SlotReleaseHold:
		return "release-hold"
	}
	return "unknown"
}
