package reefpi

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/reef-pi/hal"
	"github.com/rs/zerolog"

	"github.com/yunginnanet/ads1256/pkg/ads1256"
	"github.com/yunginnanet/ads1256/pkg/cdev"
	"github.com/yunginnanet/ads1256/pkg/spidev"
)

// Resources hands the driver a transport to build and initialise the ADC on.
type Resources struct {
	Bus       ads1256.Bus
	DigitalIO ads1256.DigitalIO
}

const numPins = 8

// Driver is the reef-pi driver. Pins share the ADC under one mutex.
type Driver struct {
	mu   sync.Mutex
	adc  *ads1256.ADS1256
	meta hal.Metadata
	pins []*pin
	log  zerolog.Logger
}

func newDriver(meta hal.Metadata, adc *ads1256.ADS1256, debug bool) *Driver {
	lvl := zerolog.InfoLevel
	if debug {
		lvl = zerolog.DebugLevel
	}
	d := &Driver{
		adc:  adc,
		meta: meta,
		log: zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(lvl).
			With().Timestamp().Str("driver", driverName).Logger(),
	}
	for i := 0; i < numPins; i++ {
		d.pins = append(d.pins, &pin{parent: d, ch: ads1256.Channel(i), gain: 1})
	}
	return d
}

func openWith(meta hal.Metadata, r Resources, s settings) (*Driver, error) {
	adc, err := ads1256.NewADS1256(r.Bus, r.DigitalIO, s.cfg)
	if err != nil {
		if c, ok := r.Bus.(io.Closer); ok {
			err = errors.Join(err, c.Close())
		}
		if c, ok := r.DigitalIO.(io.Closer); ok && any(r.DigitalIO) != any(r.Bus) {
			err = errors.Join(err, c.Close())
		}
		return nil, err
	}
	if err = adc.Initialize(); err != nil {
		return nil, errors.Join(err, adc.Close())
	}
	d := newDriver(meta, adc, s.debug)
	d.log.Debug().Stringer("gain", adc.Gain()).Stringer("rate", s.cfg.DataRate).Float64("vref", adc.VRef()).Msg("initialised")
	return d, nil
}

func openLinux(meta hal.Metadata, s settings) (*Driver, error) {
	bus, err := spidev.Open(spidev.Config{Bus: s.spiBus, Device: s.spiDevice, ClockHz: int64(s.spiClock)})
	if err != nil {
		return nil, err
	}
	return openWith(meta, Resources{Bus: bus, DigitalIO: cdev.New(s.chip, cdev.WithConsumer("reef-pi"))}, s)
}

func (d *Driver) Name() string           { return driverName }
func (d *Driver) Metadata() hal.Metadata { return d.meta }

// Close powers the ADC down and releases its transport.
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.adc.Close()
}

func (d *Driver) AnalogInputPin(n int) (hal.AnalogInputPin, error) {
	if n < 0 || n >= numPins {
		return nil, fmt.Errorf("%s: invalid pin %d, expected 0..%d", driverName, n, numPins-1)
	}
	return d.pins[n], nil
}

func (d *Driver) AnalogInputPins() []hal.AnalogInputPin {
	pins := make([]hal.AnalogInputPin, len(d.pins))
	for i, p := range d.pins {
		pins[i] = p
	}
	return pins
}

func (d *Driver) Pins(cap hal.Capability) ([]hal.Pin, error) {
	switch cap {
	case hal.AnalogInput:
		pins := make([]hal.Pin, len(d.pins))
		for i, p := range d.pins {
			pins[i] = p
		}
		return pins, nil
	default:
		return nil, fmt.Errorf("unsupported capability: %s", cap.String())
	}
}

// read selects ch against AINCOM and returns volts.
func (d *Driver) read(ch ads1256.Channel) (float64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, err := d.adc.ReadChannel(ads1256.SingleEnded(ch))
	if err != nil {
		d.log.Error().Err(err).Stringer("channel", ch).Msg("read failed")
		return 0, err
	}
	d.log.Debug().Stringer("channel", ch).Float64("volts", v).Msg("read")
	return v, nil
}

// pin is one analog input. Value applies gain*volts + offset, fitted by
// Calibrate; Measure returns volts.
type pin struct {
	parent *Driver
	ch     ads1256.Channel

	calMu  sync.Mutex
	gain   float64
	offset float64
}

func (p *pin) Name() string           { return p.ch.String() }
func (p *pin) Number() int            { return int(p.ch) }
func (p *pin) Close() error           { return nil }
func (p *pin) Metadata() hal.Metadata { return p.parent.meta }

func (p *pin) Measure() (float64, error) {
	return p.parent.read(p.ch)
}

func (p *pin) Value() (float64, error) {
	v, err := p.Measure()
	if err != nil {
		return 0, err
	}
	p.calMu.Lock()
	defer p.calMu.Unlock()
	return p.gain*v + p.offset, nil
}

// Calibrate fits the pin's linear correction. Observed is in volts; an
// Observed of 0 is replaced by a live reading. One point sets the offset,
// two or more fit gain and offset by least squares.
func (p *pin) Calibrate(ms []hal.Measurement) error {
	if len(ms) == 0 {
		return fmt.Errorf("%s: %s: no calibration points", driverName, p.Name())
	}
	xs := make([]float64, len(ms))
	ys := make([]float64, len(ms))
	for i, m := range ms {
		obs := m.Observed
		if obs == 0 {
			v, err := p.Measure()
			if err != nil {
				return err
			}
			obs = v
		}
		xs[i], ys[i] = obs, m.Expected
	}

	gain, offset, err := fitLinear(xs, ys)
	if err != nil {
		return fmt.Errorf("%s: %s: %w", driverName, p.Name(), err)
	}
	p.calMu.Lock()
	p.gain, p.offset = gain, offset
	p.calMu.Unlock()
	p.parent.log.Info().Stringer("channel", p.ch).Float64("gain", gain).Float64("offset", offset).Msg("calibrated")
	return nil
}

func fitLinear(xs, ys []float64) (gain, offset float64, err error) {
	if len(xs) == 1 {
		return 1, ys[0] - xs[0], nil
	}
	n := float64(len(xs))
	var sx, sy, sxx, sxy float64
	for i := range xs {
		sx += xs[i]
		sy += ys[i]
		sxx += xs[i] * xs[i]
		sxy += xs[i] * ys[i]
	}
	den := n*sxx - sx*sx
	if den == 0 {
		return 0, 0, errors.New("calibration points share one observed value")
	}
	gain = (n*sxy - sx*sy) / den
	offset = (sy - gain*sx) / n
	return gain, offset, nil
}
