package sensor

import (
	"errors"
	"fmt"
	"time"

	"github.com/sweeney/mailbox-sensor/internal/gpio"
)

// Reading is one sample of all mailbox inputs in logical form.
type Reading struct {
	DropOpen      bool
	RetrievalOpen bool
	ResetPressed  bool
}

// Reader reads all mailbox inputs.
type Reader interface {
	// Read samples every input. On error the returned Reading still holds
	// the last known value of any input that could not be read.
	Read(now time.Time) (Reading, error)
}

// PanelConfig describes the input wiring.
type PanelConfig struct {
	DropPin      int
	RetrievalPin int
	ResetPin     int
	// Window is the stability window applied to all three inputs.
	Window time.Duration
}

// Panel reads the two flap sensors and the reset button.
type Panel struct {
	drop      *Sensor
	retrieval *Sensor
	reset     *Sensor
}

// NewPanel wires the three inputs. Both reed sensors read high when the flap
// is open; the button pulls its line low when pressed.
func NewPanel(pins gpio.Pins, cfg PanelConfig) *Panel {
	return &Panel{
		drop:      NewSensor(pins, cfg.DropPin, ActiveHigh, cfg.Window),
		retrieval: NewSensor(pins, cfg.RetrievalPin, ActiveHigh, cfg.Window),
		reset:     NewSensor(pins, cfg.ResetPin, ActiveLow, cfg.Window),
	}
}

// Read samples all three inputs.
func (p *Panel) Read(now time.Time) (Reading, error) {
	var r Reading
	var errs []error

	var err error
	if r.DropOpen, err = p.drop.Read(now); err != nil {
		errs = append(errs, fmt.Errorf("drop sensor: %w", err))
	}
	if r.RetrievalOpen, err = p.retrieval.Read(now); err != nil {
		errs = append(errs, fmt.Errorf("retrieval sensor: %w", err))
	}
	if r.ResetPressed, err = p.reset.Read(now); err != nil {
		errs = append(errs, fmt.Errorf("reset button: %w", err))
	}

	return r, errors.Join(errs...)
}
