package display

import (
	"fmt"
	"time"

	"github.com/sweeney/mailbox-sensor/internal/gpio"
)

// LCDPins is the wiring of an HD44780 controller in 4-bit mode.
// RW is tied to ground.
type LCDPins struct {
	RS int
	E  int
	D4 int
	D5 int
	D6 int
	D7 int
}

// HD44780 instruction set subset.
const (
	cmdClear         = 0x01
	cmdEntryMode     = 0x06 // increment, no shift
	cmdDisplayOn     = 0x0C // display on, cursor off, blink off
	cmdFunction4Bit  = 0x28 // 4-bit bus, 2 lines, 5x8 font
	cmdSetDDRAM      = 0x80
	lineTwoDDRAMAddr = 0x40
)

// LCD drives a 16x2 HD44780 display through GPIO output lines.
type LCD struct {
	pins  gpio.Pins
	wire  LCDPins
	sleep func(time.Duration)
}

// NewLCD runs the 4-bit initialisation sequence and clears the screen.
// sleep is used for the controller's settle delays; nil means time.Sleep.
func NewLCD(pins gpio.Pins, wire LCDPins, sleep func(time.Duration)) (*LCD, error) {
	if sleep == nil {
		sleep = time.Sleep
	}
	l := &LCD{pins: pins, wire: wire, sleep: sleep}
	if err := l.init(); err != nil {
		return nil, fmt.Errorf("lcd init: %w", err)
	}
	return l, nil
}

func (l *LCD) init() error {
	l.sleep(50 * time.Millisecond)
	if err := l.pins.WriteDigital(l.wire.RS, false); err != nil {
		return err
	}
	if err := l.pins.WriteDigital(l.wire.E, false); err != nil {
		return err
	}

	// Three 8-bit function sets, then switch to 4-bit.
	for _, step := range []struct {
		nibble byte
		wait   time.Duration
	}{
		{0x3, 5 * time.Millisecond},
		{0x3, 150 * time.Microsecond},
		{0x3, 150 * time.Microsecond},
		{0x2, 150 * time.Microsecond},
	} {
		if err := l.nibble(step.nibble); err != nil {
			return err
		}
		l.sleep(step.wait)
	}

	for _, c := range []byte{cmdFunction4Bit, cmdDisplayOn, cmdEntryMode} {
		if err := l.command(c); err != nil {
			return err
		}
	}
	return l.Clear()
}

// Clear blanks both lines.
func (l *LCD) Clear() error {
	if err := l.command(cmdClear); err != nil {
		return err
	}
	l.sleep(2 * time.Millisecond)
	return nil
}

// Show writes both lines, each padded to the full width.
func (l *LCD) Show(line1, line2 string) error {
	if err := l.writeLine(0, line1); err != nil {
		return fmt.Errorf("lcd line 1: %w", err)
	}
	if err := l.writeLine(lineTwoDDRAMAddr, line2); err != nil {
		return fmt.Errorf("lcd line 2: %w", err)
	}
	return nil
}

func (l *LCD) writeLine(addr byte, text string) error {
	if err := l.command(cmdSetDDRAM | addr); err != nil {
		return err
	}
	for _, c := range []byte(Fit(text)) {
		if err := l.write(c, true); err != nil {
			return err
		}
	}
	return nil
}

func (l *LCD) command(c byte) error {
	return l.write(c, false)
}

func (l *LCD) write(b byte, data bool) error {
	if err := l.pins.WriteDigital(l.wire.RS, data); err != nil {
		return err
	}
	if err := l.nibble(b >> 4); err != nil {
		return err
	}
	if err := l.nibble(b & 0x0F); err != nil {
		return err
	}
	l.sleep(50 * time.Microsecond)
	return nil
}

// nibble puts four bits on D4..D7 and latches them with a pulse on E.
func (l *LCD) nibble(n byte) error {
	for i, pin := range []int{l.wire.D4, l.wire.D5, l.wire.D6, l.wire.D7} {
		if err := l.pins.WriteDigital(pin, n&(1<<i) != 0); err != nil {
			return err
		}
	}
	if err := l.pins.WriteDigital(l.wire.E, true); err != nil {
		return err
	}
	l.sleep(time.Microsecond)
	if err := l.pins.WriteDigital(l.wire.E, false); err != nil {
		return err
	}
	l.sleep(time.Microsecond)
	return nil
}
