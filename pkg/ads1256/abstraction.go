package ads1256

import (
	"errors"
	"time"
)

// Bus is the SPI transport. The ADS1256 runs in SPI mode 1 (CPOL=0, CPHA=1);
// implementations are configured for that mode before being handed over.
// Chip-select is not driven by the Bus, see [Pins.CS].
type Bus interface {
	// Write clocks out all of p.
	Write(p []byte) error
	// Read clocks in exactly len(p) bytes into p.
	Read(p []byte) error
}

// Pin identifies a digital line on the host's I/O layer. Its meaning is
// defined by the [DigitalIO] implementation (a BCM line offset, an FT232H
// pin mask, ...).
type Pin uint

// Level is the electrical level of a line.
type Level bool

const (
	Low  Level = false
	High Level = true
)

func (l Level) String() string {
	if l {
		return "high"
	}
	return "low"
}

// DigitalIO drives the chip-select and SYNC lines and samples DRDY.
type DigitalIO interface {
	ConfigureOutput(pin Pin, initial Level) error
	ConfigureInput(pin Pin) error
	SetLevel(pin Pin, level Level) error
	Level(pin Pin) (Level, error)
}

// EdgeWaiter is implemented by a [DigitalIO] that can block on a falling
// edge instead of being polled.
//
// WaitFalling returns true when an edge was seen on pin within timeout and
// false when the timeout passed first.
type EdgeWaiter interface {
	WaitFalling(pin Pin, timeout time.Duration) (bool, error)
}

// Pins names the three lines wired to the chip.
type Pins struct {
	CS   Pin // chip-select, active low
	DRDY Pin // data ready, input, active low
	Sync Pin // SYNC/PDWN, output, idles high
}

func (adc *ADS1256) setCSLow() error {
	return transportErr("assert CS", adc.dio.SetLevel(adc.pins.CS, Low))
}

func (adc *ADS1256) setCSHigh() error {
	return transportErr("release CS", adc.dio.SetLevel(adc.pins.CS, High))
}

// transact runs fn with chip-select asserted. CS is released on every path
// and a release failure is joined onto the error from fn.
func (adc *ADS1256) transact(fn func() error) error {
	if err := adc.setCSLow(); err != nil {
		return errors.Join(err, adc.setCSHigh())
	}
	err := fn()
	if rerr := adc.setCSHigh(); rerr != nil {
		return errors.Join(err, rerr)
	}
	return err
}

func (adc *ADS1256) write(p []byte) error {
	return transportErr("write", adc.bus.Write(p))
}

func (adc *ADS1256) read(p []byte) error {
	return transportErr("read", adc.bus.Read(p))
}

// t6 is the DIN-to-DOUT delay the chip needs between a read command and the
// first data bit.
func (adc *ADS1256) t6() {
	if adc.commandDelay > 0 {
		time.Sleep(adc.commandDelay)
	}
}
