package gpio

import (
	"fmt"
	"strconv"

	pgpio "periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// PeriphReader reads GPIO through the periph.io host drivers.
type PeriphReader struct {
	pins map[int]pgpio.PinIO
}

// NewPeriphReader initializes the periph host and configures pins as inputs.
// Pins are looked up by their GPIO number.
func NewPeriphReader(pullUp bool, pins ...int) (*PeriphReader, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}

	pull := pgpio.Float
	if pullUp {
		pull = pgpio.PullUp
	}

	r := &PeriphReader{pins: make(map[int]pgpio.PinIO, len(pins))}
	for _, pin := range pins {
		p := gpioreg.ByName(strconv.Itoa(pin))
		if p == nil {
			r.Close()
			return nil, fmt.Errorf("periph: no such pin %d", pin)
		}
		if err := p.In(pull, pgpio.NoEdge); err != nil {
			r.Close()
			return nil, fmt.Errorf("configure pin %d: %w", pin, err)
		}
		r.pins[pin] = p
	}
	return r, nil
}

// Read returns the raw level of pin (true = high).
func (r *PeriphReader) Read(pin int) (bool, error) {
	p, ok := r.pins[pin]
	if !ok {
		return false, fmt.Errorf("read pin %d: %w", pin, ErrPinNotRequested)
	}
	return p.Read() == pgpio.High, nil
}

// Close halts all pins.
func (r *PeriphReader) Close() error {
	var errs []error
	for pin, p := range r.pins {
		if err := p.Halt(); err != nil {
			errs = append(errs, fmt.Errorf("halt pin %d: %w", pin, err))
		}
	}
	r.pins = nil

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
