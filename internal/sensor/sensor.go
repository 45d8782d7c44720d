// Package sensor turns raw pin levels into debounced logical inputs and
// drives the indicator LEDs.
package sensor

import (
	"time"

	"github.com/sweeney/mailbox-sensor/internal/gpio"
)

// Polarity maps a raw pin level to the logical "asserted" state.
type Polarity int

const (
	// ActiveHigh: raw high = asserted (reed sensor with pull-up, magnet away = open).
	ActiveHigh Polarity = iota
	// ActiveLow: raw low = asserted (button to ground with pull-up).
	ActiveLow
)

func (p Polarity) logical(raw bool) bool {
	if p == ActiveLow {
		return !raw
	}
	return raw
}

// Sensor debounces one digital input.
//
// With a zero stability window every read is taken as-is. With a positive
// window a changed level must persist that long before it becomes stable.
// The stable value starts deasserted.
type Sensor struct {
	pins     gpio.Pins
	pin      int
	polarity Polarity
	window   time.Duration

	stable       bool
	pending      bool
	pendingSince time.Time
	hasPending   bool
}

// NewSensor creates a debounced sensor on pin.
func NewSensor(pins gpio.Pins, pin int, polarity Polarity, window time.Duration) *Sensor {
	return &Sensor{pins: pins, pin: pin, polarity: polarity, window: window}
}

// Read samples the pin and returns the stable logical value.
// On a read error the previous stable value is returned with the error.
func (s *Sensor) Read(now time.Time) (bool, error) {
	raw, err := s.pins.ReadDigital(s.pin)
	if err != nil {
		return s.stable, err
	}
	return s.update(s.polarity.logical(raw), now), nil
}

func (s *Sensor) update(v bool, now time.Time) bool {
	if v == s.stable {
		s.hasPending = false
		return s.stable
	}

	if s.window <= 0 {
		s.stable = v
		return s.stable
	}

	if !s.hasPending || s.pending != v {
		s.pending = v
		s.pendingSince = now
		s.hasPending = true
		return s.stable
	}

	if now.Sub(s.pendingSince) >= s.window {
		s.stable = v
		s.hasPending = false
	}
	return s.stable
}

// Stable returns the last stable value without sampling.
func (s *Sensor) Stable() bool {
	return s.stable
}

// Pin returns the pin number.
func (s *Sensor) Pin() int {
	return s.pin
}
