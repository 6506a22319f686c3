// Package cdev drives the ADS1256 chip-select, DRDY and SYNC lines through
// the Linux GPIO character device. Pins are line offsets on one chip, e.g.
// BCM numbers on gpiochip0 of a Raspberry Pi.
package cdev

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/warthog618/go-gpiocdev"

	"github.com/yunginnanet/ads1256/pkg/ads1256"
)

// DefaultConsumer labels the requested lines in the kernel.
const DefaultConsumer = "ads1256"

// ErrClosed is returned after Close.
var ErrClosed = errors.New("cdev: closed")

// line is the subset of *gpiocdev.Line in use.
type line interface {
	Value() (int, error)
	SetValue(value int) error
	Close() error
}

type requestFunc func(chip string, offset int, options ...gpiocdev.LineReqOption) (line, error)

func requestLine(chip string, offset int, options ...gpiocdev.LineReqOption) (line, error) {
	return gpiocdev.RequestLine(chip, offset, options...)
}

// Lines implements [ads1256.DigitalIO] and [ads1256.EdgeWaiter].
type Lines struct {
	chip     string
	consumer string
	edges    bool
	log      zerolog.Logger
	request  requestFunc

	mu      sync.Mutex
	closed  bool
	lines   map[ads1256.Pin]line
	falling map[ads1256.Pin]chan struct{}
}

var (
	_ ads1256.DigitalIO  = (*Lines)(nil)
	_ ads1256.EdgeWaiter = (*Lines)(nil)
)

// Option configures Lines.
type Option func(*Lines)

// WithConsumer overrides DefaultConsumer.
func WithConsumer(consumer string) Option {
	return func(l *Lines) {
		l.consumer = consumer
	}
}

// WithoutEdges requests inputs without edge detection. WaitFalling then
// sleeps for the timeout and the readiness gate falls back to polling.
func WithoutEdges() Option {
	return func(l *Lines) {
		l.edges = false
	}
}

// WithLogger sets the logger, zerolog.Nop() by default.
func WithLogger(log zerolog.Logger) Option {
	return func(l *Lines) {
		l.log = log
	}
}

// New returns Lines on chip, "gpiochip0" for example. Nothing is requested
// until a pin is configured.
func New(chip string, opts ...Option) *Lines {
	l := &Lines{
		chip:     chip,
		consumer: DefaultConsumer,
		edges:    true,
		log:      zerolog.Nop(),
		request:  requestLine,
		lines:    make(map[ads1256.Pin]line),
		falling:  make(map[ads1256.Pin]chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.log = l.log.With().Str("caller", "cdev").Str("chip", chip).Logger()
	return l
}

func levelValue(level ads1256.Level) int {
	if level == ads1256.High {
		return 1
	}
	return 0
}

// replace requests pin with options, releasing a previous request of the
// same pin first. Caller holds mu.
func (l *Lines) replace(pin ads1256.Pin, options ...gpiocdev.LineReqOption) error {
	if l.closed {
		return ErrClosed
	}
	if old, ok := l.lines[pin]; ok {
		delete(l.lines, pin)
		delete(l.falling, pin)
		if err := old.Close(); err != nil {
			return fmt.Errorf("release %s:%d: %w", l.chip, pin, err)
		}
	}
	options = append(options, gpiocdev.WithConsumer(l.consumer))
	ln, err := l.request(l.chip, int(pin), options...)
	if err != nil {
		return fmt.Errorf("request %s:%d: %w", l.chip, pin, err)
	}
	l.lines[pin] = ln
	return nil
}

// ConfigureOutput implements [ads1256.DigitalIO].
func (l *Lines) ConfigureOutput(pin ads1256.Pin, initial ads1256.Level) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.log.Debug().Uint("pin", uint(pin)).Stringer("initial", initial).Msg("output")
	return l.replace(pin, gpiocdev.AsOutput(levelValue(initial)))
}

// ConfigureInput implements [ads1256.DigitalIO]. With edge detection, falling
// edges are queued for WaitFalling.
func (l *Lines) ConfigureInput(pin ads1256.Pin) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.log.Debug().Uint("pin", uint(pin)).Bool("edges", l.edges).Msg("input")
	if !l.edges {
		return l.replace(pin, gpiocdev.AsInput)
	}

	ch := make(chan struct{}, 1)
	handler := func(evt gpiocdev.LineEvent) {
		if evt.Type != gpiocdev.LineEventFallingEdge {
			return
		}
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	if err := l.replace(pin, gpiocdev.AsInput, gpiocdev.WithFallingEdge, gpiocdev.WithEventHandler(handler)); err != nil {
		return err
	}
	l.falling[pin] = ch
	return nil
}

func (l *Lines) line(pin ads1256.Pin) (line, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil, ErrClosed
	}
	ln, ok := l.lines[pin]
	if !ok {
		return nil, fmt.Errorf("%w: line %s:%d not configured", ads1256.ErrInvalidArgument, l.chip, pin)
	}
	return ln, nil
}

// SetLevel implements [ads1256.DigitalIO].
func (l *Lines) SetLevel(pin ads1256.Pin, level ads1256.Level) error {
	ln, err := l.line(pin)
	if err != nil {
		return err
	}
	return ln.SetValue(levelValue(level))
}

// Level implements [ads1256.DigitalIO].
func (l *Lines) Level(pin ads1256.Pin) (ads1256.Level, error) {
	ln, err := l.line(pin)
	if err != nil {
		return ads1256.High, err
	}
	v, err := ln.Value()
	if err != nil {
		return ads1256.High, err
	}
	return ads1256.Level(v != 0), nil
}

// WaitFalling implements [ads1256.EdgeWaiter]. An edge that arrived since the
// previous call is reported at once.
func (l *Lines) WaitFalling(pin ads1256.Pin, timeout time.Duration) (bool, error) {
	l.mu.Lock()
	closed := l.closed
	ch := l.falling[pin]
	l.mu.Unlock()
	if closed {
		return false, ErrClosed
	}

	t := time.NewTimer(timeout)
	defer t.Stop()
	if ch == nil {
		<-t.C
		return false, nil
	}
	select {
	case <-ch:
		return true, nil
	case <-t.C:
		return false, nil
	}
}

// Close releases every requested line.
func (l *Lines) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true

	var errs []error
	for pin, ln := range l.lines {
		if err := ln.Close(); err != nil {
			errs = append(errs, fmt.Errorf("release %s:%d: %w", l.chip, pin, err))
		}
	}
	l.lines = nil
	l.falling = nil
	l.log.Debug().Msg("closed")
	return errors.Join(errs...)
}
