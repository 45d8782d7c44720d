package sensor

import (
	"errors"
	"fmt"

	"github.com/sweeney/mailbox-sensor/internal/gpio"
)

// LEDs drives the two indicator outputs.
type LEDs struct {
	pins         gpio.Pins
	mailPin      int
	retrievalPin int
}

// NewLEDs creates the indicator driver.
func NewLEDs(pins gpio.Pins, mailPin, retrievalPin int) *LEDs {
	return &LEDs{pins: pins, mailPin: mailPin, retrievalPin: retrievalPin}
}

// Set writes both LEDs unconditionally.
func (l *LEDs) Set(mail, retrieval bool) error {
	var errs []error
	if err := l.pins.WriteDigital(l.mailPin, mail); err != nil {
		errs = append(errs, fmt.Errorf("mail led: %w", err))
	}
	if err := l.pins.WriteDigital(l.retrievalPin, retrieval); err != nil {
		errs = append(errs, fmt.Errorf("retrieval led: %w", err))
	}
	return errors.Join(errs...)
}
