// Package spidev is an ads1256.Bus on a Linux spidev device, through periph.
package spidev

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	"github.com/yunginnanet/ads1256/pkg/ads1256"
)

// DefaultClock is the SPI clock used when Config.ClockHz is zero.
const DefaultClock = 976563

// Config selects /dev/spidev<Bus>.<Device>.
type Config struct {
	Bus     int
	Device  int
	ClockHz int64
	// NoCS asks the controller not to drive its own chip-select. Needed
	// when the ADS1256 CS line is not the controller's CE line, and
	// supported by few controllers.
	NoCS bool
	Log  zerolog.Logger
}

// Name returns the periph registry name of the port, "SPI0.0" for bus 0
// device 0.
func (c Config) Name() string {
	return fmt.Sprintf("SPI%d.%d", c.Bus, c.Device)
}

func (c Config) mode() spi.Mode {
	m := spi.Mode1
	if c.NoCS {
		m |= spi.NoCS
	}
	return m
}

var hostInit = sync.OnceValue(func() error {
	_, err := host.Init()
	return err
})

// Bus implements [ads1256.Bus].
type Bus struct {
	port spi.PortCloser
	conn spi.Conn
	name string
	log  zerolog.Logger
	zero []byte
}

var _ ads1256.Bus = (*Bus)(nil)

// Open initialises periph's host drivers once and connects to the port in
// SPI mode 1.
func Open(cfg Config) (*Bus, error) {
	if err := hostInit(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}
	clock := cfg.ClockHz
	if clock <= 0 {
		clock = DefaultClock
	}

	port, err := spireg.Open(cfg.Name())
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Name(), err)
	}
	conn, err := port.Connect(physic.Frequency(clock)*physic.Hertz, cfg.mode(), 8)
	if err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("connect %s: %w", cfg.Name(), err)
	}

	b := &Bus{
		port: port,
		conn: conn,
		name: cfg.Name(),
		log:  cfg.Log.With().Str("caller", "spidev").Str("port", cfg.Name()).Logger(),
	}
	b.log.Debug().Int64("clock", clock).Int("mode", int(cfg.mode())).Msg("connected")
	return b, nil
}

// Write implements [ads1256.Bus].
func (b *Bus) Write(p []byte) error {
	return b.conn.Tx(p, nil)
}

// Read implements [ads1256.Bus]. Zeros are clocked out while reading.
func (b *Bus) Read(p []byte) error {
	if cap(b.zero) < len(p) {
		b.zero = make([]byte, len(p))
	}
	w := b.zero[:len(p)]
	return b.conn.Tx(w, p)
}

// Close releases the port.
func (b *Bus) Close() error {
	b.log.Debug().Msg("closing")
	return b.port.Close()
}

func (b *Bus) String() string {
	return b.name
}
