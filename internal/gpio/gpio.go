// Package gpio provides digital I/O with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

import "errors"

// ErrUnknownPin is returned for a pin that was not requested at construction.
var ErrUnknownPin = errors.New("gpio: pin not configured")

// Pins is the digital I/O capability used by sensors, LEDs and the LCD.
// Levels are raw: true = high.
type Pins interface {
	// ReadDigital returns the raw level of an input pin.
	ReadDigital(pin int) (bool, error)

	// WriteDigital drives an output pin.
	WriteDigital(pin int, level bool) error

	// Close releases GPIO resources.
	Close() error
}

// Default pin assignment (BCM numbering).
const (
	DefaultPinDrop         = 17 // drop flap reed sensor
	DefaultPinRetrieval    = 27 // retrieval flap reed sensor
	DefaultPinReset        = 22 // manual reset button
	DefaultPinMailLED      = 23 // red LED
	DefaultPinRetrievalLED = 24 // green LED
)

// Default LCD wiring (HD44780, 4-bit mode).
const (
	DefaultPinLCDRS = 5
	DefaultPinLCDE  = 6
	DefaultPinLCDD4 = 12
	DefaultPinLCDD5 = 13
	DefaultPinLCDD6 = 19
	DefaultPinLCDD7 = 26
)
