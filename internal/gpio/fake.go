package gpio

import "fmt"

// Write records a single WriteDigital call.
type Write struct {
	Pin   int
	Level bool
}

// FakePins is a test double with settable input levels and recorded writes.
// Not safe for concurrent use.
type FakePins struct {
	// Levels holds the raw level returned for each input pin.
	// Pins missing from the map read as high (pull-up idle).
	Levels map[int]bool

	// Outputs holds the last level written to each output pin.
	Outputs map[int]bool

	// Writes records every WriteDigital call in order.
	Writes []Write

	// ReadError, if set, will be returned by ReadDigital for every pin.
	ReadError error

	// FailPins makes ReadDigital fail for specific pins only.
	FailPins map[int]error

	// WriteError, if set, will be returned by WriteDigital.
	WriteError error

	// Closed tracks if Close was called
	Closed bool
}

// NewFakePins creates a FakePins with no levels set.
func NewFakePins() *FakePins {
	return &FakePins{
		Levels:  make(map[int]bool),
		Outputs: make(map[int]bool),
	}
}

// Set changes the raw level of an input pin.
func (f *FakePins) Set(pin int, level bool) {
	f.Levels[pin] = level
}

// ReadDigital returns the configured level of pin.
func (f *FakePins) ReadDigital(pin int) (bool, error) {
	if f.ReadError != nil {
		return false, f.ReadError
	}
	if err, ok := f.FailPins[pin]; ok {
		return false, fmt.Errorf("read pin %d: %w", pin, err)
	}
	level, ok := f.Levels[pin]
	if !ok {
		return true, nil
	}
	return level, nil
}

// WriteDigital records the write.
func (f *FakePins) WriteDigital(pin int, level bool) error {
	if f.WriteError != nil {
		return f.WriteError
	}
	f.Outputs[pin] = level
	f.Writes = append(f.Writes, Write{Pin: pin, Level: level})
	return nil
}

// Close marks the pins as closed.
func (f *FakePins) Close() error {
	f.Closed = true
	return nil
}

// Reset clears recorded writes and errors; input levels are kept.
func (f *FakePins) Reset() {
	f.Outputs = make(map[int]bool)
	f.Writes = nil
	f.ReadError = nil
	f.FailPins = nil
	f.WriteError = nil
	f.Closed = false
}
