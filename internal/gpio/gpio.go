// Package gpio provides GPIO input reading with hardware abstraction.
// The real implementations use the Linux GPIO character device or periph.io.
// The fake implementation allows testing without hardware.
package gpio

import (
	"errors"
	"fmt"
)

// Reader reads raw GPIO input levels.
type Reader interface {
	// Read returns the raw level of pin (true = high).
	// The pin must have been requested when the reader was opened.
	Read(pin int) (bool, error)

	// Close releases GPIO resources.
	Close() error
}

// DefaultPin is the BCM pin the button is wired to.
const DefaultPin = 17

// DefaultChip is the character device used by the gpiocdev backend.
const DefaultChip = "gpiochip0"

// Backend names accepted by Open.
const (
	BackendGPIOCDev = "gpiocdev"
	BackendPeriph   = "periph"
)

// ErrPinNotRequested is returned when reading a pin the reader does not own.
var ErrPinNotRequested = errors.New("gpio: pin not requested")

// Options configures a real reader.
type Options struct {
	Backend string
	Chip    string
	// PullUp enables the internal pull-up; otherwise bias is left to
	// external resistors.
	PullUp bool
}

// Open creates a reader for pins using the selected backend.
func Open(opts Options, pins ...int) (Reader, error) {
	switch opts.Backend {
	case BackendGPIOCDev, "":
		chip := opts.Chip
		if chip == "" {
			chip = DefaultChip
		}
		return NewRealReader(chip, opts.PullUp, pins...)
	case BackendPeriph:
		return NewPeriphReader(opts.PullUp, pins...)
	}
	return nil, fmt.Errorf("gpio: unknown backend %q", opts.Backend)
}
