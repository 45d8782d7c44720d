//go:build linux

package gpio

import (
	"errors"
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// RealPins drives GPIO lines on actual hardware using the Linux GPIO character device.
type RealPins struct {
	chip    *gpiocdev.Chip
	inputs  map[int]*gpiocdev.Line
	outputs map[int]*gpiocdev.Line
}

// NewRealPins requests the given input lines (with pull-up, matching the reed
// sensors and the button wired to ground) and output lines (initially low).
func NewRealPins(chipName string, inputs, outputs []int) (*RealPins, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", chipName, err)
	}

	p := &RealPins{
		chip:    chip,
		inputs:  make(map[int]*gpiocdev.Line, len(inputs)),
		outputs: make(map[int]*gpiocdev.Line, len(outputs)),
	}

	for _, pin := range inputs {
		line, err := chip.RequestLine(pin, gpiocdev.AsInput, gpiocdev.WithPullUp)
		if err != nil {
			p.Close()
			return nil, fmt.Errorf("request input pin %d: %w", pin, err)
		}
		p.inputs[pin] = line
	}

	for _, pin := range outputs {
		line, err := chip.RequestLine(pin, gpiocdev.AsOutput(0))
		if err != nil {
			p.Close()
			return nil, fmt.Errorf("request output pin %d: %w", pin, err)
		}
		p.outputs[pin] = line
	}

	return p, nil
}

// ReadDigital returns the raw level of an input pin.
func (p *RealPins) ReadDigital(pin int) (bool, error) {
	line, ok := p.inputs[pin]
	if !ok {
		return false, fmt.Errorf("read pin %d: %w", pin, ErrUnknownPin)
	}
	v, err := line.Value()
	if err != nil {
		return false, fmt.Errorf("read pin %d: %w", pin, err)
	}
	return v != 0, nil
}

// WriteDigital drives an output pin.
func (p *RealPins) WriteDigital(pin int, level bool) error {
	line, ok := p.outputs[pin]
	if !ok {
		return fmt.Errorf("write pin %d: %w", pin, ErrUnknownPin)
	}
	v := 0
	if level {
		v = 1
	}
	if err := line.SetValue(v); err != nil {
		return fmt.Errorf("write pin %d: %w", pin, err)
	}
	return nil
}

// Close releases GPIO resources.
// Outputs are driven low and every line is reconfigured to input with
// pull-down (matching Pi boot defaults) before closing, so LEDs go dark and
// nothing is left driven during shutdown/reboot.
func (p *RealPins) Close() error {
	var errs []error

	for pin, line := range p.outputs {
		if err := line.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("clear output pin %d: %w", pin, err))
		}
	}
	for _, lines := range []map[int]*gpiocdev.Line{p.inputs, p.outputs} {
		for pin, line := range lines {
			if err := line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
				errs = append(errs, fmt.Errorf("reconfigure pin %d: %w", pin, err))
			}
			if err := line.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close pin %d: %w", pin, err))
			}
		}
	}
	if p.chip != nil {
		if err := p.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	return errors.Join(errs...)
}
