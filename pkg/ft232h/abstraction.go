package ft232h

import (
	"fmt"
	"io"

	"github.com/yunginnanet/ft232h"

	"github.com/yunginnanet/ads1256/pkg/ads1256"
)

var (
	_ ads1256.Bus       = (*FT232H)(nil)
	_ ads1256.DigitalIO = (*FT232H)(nil)
)

// cPin maps an ads1256.Pin, a C bus mask, onto the GPIO pin type.
func cPin(pin ads1256.Pin) (ft232h.CPin, error) {
	if pin == 0 || pin > 0xFF || pin&(pin-1) != 0 {
		return 0, fmt.Errorf("%w: FT232H C bus pin must be a single bit mask, got 0x%X", ads1256.ErrInvalidArgument, uint(pin))
	}
	return ft232h.CPin(pin), nil
}

// Write implements [ads1256.Bus]. CS is left to the C bus GPIO.
func (ft *FT232H) Write(p []byte) error {
	n, err := ft.SPI.Write(p, false, false)
	if err != nil {
		return err
	}
	if int(n) != len(p) {
		return io.ErrShortWrite
	}
	return nil
}

// Read implements [ads1256.Bus].
func (ft *FT232H) Read(p []byte) error {
	data, err := ft.SPI.Read(uint(len(p)), false, false)
	if err != nil {
		return err
	}
	if copy(p, data) != len(p) {
		return io.ErrUnexpectedEOF
	}
	return nil
}

// ConfigureOutput implements [ads1256.DigitalIO].
func (ft *FT232H) ConfigureOutput(pin ads1256.Pin, initial ads1256.Level) error {
	p, err := cPin(pin)
	if err != nil {
		return err
	}
	ft.log.Debug().Str("pin", p.String()).Any("pos", p.Pos()).Stringer("initial", initial).Msg("output configured")
	return ft.GPIO.ConfigPin(p, ft232h.Output, bool(initial))
}

// ConfigureInput implements [ads1256.DigitalIO].
func (ft *FT232H) ConfigureInput(pin ads1256.Pin) error {
	p, err := cPin(pin)
	if err != nil {
		return err
	}
	ft.log.Debug().Str("pin", p.String()).Any("pos", p.Pos()).Msg("input configured")
	return ft.GPIO.ConfigPin(p, ft232h.Input, true)
}

// SetLevel implements [ads1256.DigitalIO].
func (ft *FT232H) SetLevel(pin ads1256.Pin, level ads1256.Level) error {
	p, err := cPin(pin)
	if err != nil {
		return err
	}
	return ft.GPIO.Set(p, bool(level))
}

// Level implements [ads1256.DigitalIO].
func (ft *FT232H) Level(pin ads1256.Pin) (ads1256.Level, error) {
	p, err := cPin(pin)
	if err != nil {
		return ads1256.High, err
	}
	hl, err := ft.GPIO.Get(p)
	if err != nil {
		return ads1256.High, fmt.Errorf("failed to read %s: %w", p, err)
	}
	return ads1256.Level(hl), nil
}
