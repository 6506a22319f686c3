// Package fake simulates an ADS1256 behind the ads1256.Bus and
// ads1256.DigitalIO interfaces. It decodes the command stream, keeps a
// register file, serves queued samples and records every bus and line event
// so tests can check sequencing. Faults can be injected per call.
package fake

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/yunginnanet/ads1256/pkg/ads1256"
)

// ErrInjected is a convenient error for fault hooks.
var ErrInjected = errors.New("fake: injected fault")

// Op names a recorded event.
type Op string

const (
	OpConfigure Op = "configure"
	OpSet       Op = "set"
	OpWrite     Op = "write"
	OpRead      Op = "read"
)

// Event is one recorded interaction.
type Event struct {
	Op    Op
	Pin   ads1256.Pin
	Level ads1256.Level
	Data  []byte
}

func (e Event) String() string {
	switch e.Op {
	case OpWrite, OpRead:
		return fmt.Sprintf("%s % X", e.Op, e.Data)
	default:
		return fmt.Sprintf("%s pin %d %s", e.Op, e.Pin, e.Level)
	}
}

// PowerOnRegisters are the datasheet reset values, with chip ID 3.
var PowerOnRegisters = [ads1256.NumRegisters]byte{0x30, 0x01, 0x20, 0xF0, 0xE0}

// Chip is a simulated ADS1256. The zero value is not usable, see New.
type Chip struct {
	mu   sync.Mutex
	pins ads1256.Pins

	regs    [ads1256.NumRegisters]byte
	samples []int32
	lastRaw int32

	levels  map[ads1256.Pin]ads1256.Level
	outputs map[ads1256.Pin]bool
	inputs  map[ads1256.Pin]bool

	drdy          ads1256.Level
	notReadyPolls int
	drdyPolls     int
	falling       chan struct{}

	parse   []byte
	pending []byte

	events   []Event
	commands []byte

	// WriteFault, if set, is consulted for every Write. It returns how many
	// bytes of p reached the chip before err.
	WriteFault func(p []byte) (int, error)
	// ReadFault, if set, fails a Read of n bytes when it returns an error.
	ReadFault func(n int) error
	// SetFault, if set, fails SetLevel when it returns an error. The level
	// is not changed.
	SetFault func(pin ads1256.Pin, level ads1256.Level) error
	// LevelFault, if set, fails Level when it returns an error.
	LevelFault func(pin ads1256.Pin) error
}

// New returns a powered-on chip wired to pins, with DRDY low.
func New(pins ads1256.Pins) *Chip {
	c := &Chip{
		pins:    pins,
		regs:    PowerOnRegisters,
		levels:  make(map[ads1256.Pin]ads1256.Level),
		outputs: make(map[ads1256.Pin]bool),
		inputs:  make(map[ads1256.Pin]bool),
		drdy:    ads1256.Low,
		falling: make(chan struct{}, 1),
	}
	c.levels[pins.CS] = ads1256.High
	c.levels[pins.Sync] = ads1256.High
	return c
}

// Pins returns the wiring the chip was built with.
func (c *Chip) Pins() ads1256.Pins {
	return c.pins
}

// SetChipID overwrites the read-only ID nibble of STATUS.
func (c *Chip) SetChipID(id byte) {
	c.mu.Lock()
	c.regs[ads1256.RegSTATUS] = id<<4 | c.regs[ads1256.RegSTATUS]&0x0F
	c.mu.Unlock()
}

// Register returns the current content of reg.
func (c *Chip) Register(reg ads1256.Register) byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.regs[reg]
}

// SetRegister overwrites reg without going through the bus.
func (c *Chip) SetRegister(reg ads1256.Register, v byte) {
	c.mu.Lock()
	c.regs[reg] = v
	c.mu.Unlock()
}

// QueueSamples appends raw codes served by RDATA. The last code is repeated
// once the queue is empty.
func (c *Chip) QueueSamples(codes ...int32) {
	c.mu.Lock()
	c.samples = append(c.samples, codes...)
	c.mu.Unlock()
}

// SetDRDY drives the simulated DRDY output.
func (c *Chip) SetDRDY(l ads1256.Level) {
	c.mu.Lock()
	prev := c.drdy
	c.drdy = l
	c.mu.Unlock()
	if prev == ads1256.High && l == ads1256.Low {
		select {
		case c.falling <- struct{}{}:
		default:
		}
	}
}

// HoldDRDY keeps DRDY high for the next n samples of the line.
func (c *Chip) HoldDRDY(n int) {
	c.mu.Lock()
	c.notReadyPolls = n
	c.mu.Unlock()
}

// DRDYPolls returns how many times DRDY has been sampled.
func (c *Chip) DRDYPolls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.drdyPolls
}

// Events returns a copy of everything recorded so far.
func (c *Chip) Events() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Event(nil), c.events...)
}

// BusEvents returns the recorded reads and writes only.
func (c *Chip) BusEvents() []Event {
	var out []Event
	for _, e := range c.Events() {
		if e.Op == OpWrite || e.Op == OpRead {
			out = append(out, e)
		}
	}
	return out
}

// Written returns the payload of every Write, in order.
func (c *Chip) Written() [][]byte {
	var out [][]byte
	for _, e := range c.Events() {
		if e.Op == OpWrite {
			out = append(out, e.Data)
		}
	}
	return out
}

// Commands returns every opcode decoded so far.
func (c *Chip) Commands() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]byte(nil), c.commands...)
}

// ResetLog forgets recorded events and commands.
func (c *Chip) ResetLog() {
	c.mu.Lock()
	c.events = nil
	c.commands = nil
	c.mu.Unlock()
}

// CSAsserted reports whether chip-select is currently low.
func (c *Chip) CSAsserted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.levels[c.pins.CS] == ads1256.Low
}

// Write implements ads1256.Bus.
func (c *Chip) Write(p []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, err := len(p), error(nil)
	if c.WriteFault != nil {
		n, err = c.WriteFault(p)
	}
	data := append([]byte(nil), p[:n]...)
	c.events = append(c.events, Event{Op: OpWrite, Data: data})
	if c.levels[c.pins.CS] == ads1256.Low {
		for _, b := range data {
			c.feed(b)
		}
	}
	return err
}

// Read implements ads1256.Bus.
func (c *Chip) Read(p []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ReadFault != nil {
		if err := c.ReadFault(len(p)); err != nil {
			c.events = append(c.events, Event{Op: OpRead})
			return err
		}
	}
	for i := range p {
		p[i] = 0
		if c.levels[c.pins.CS] == ads1256.Low && len(c.pending) > 0 {
			p[i] = c.pending[0]
			c.pending = c.pending[1:]
		}
	}
	c.events = append(c.events, Event{Op: OpRead, Data: append([]byte(nil), p...)})
	return nil
}

// feed runs one byte through the command decoder. Caller holds mu.
func (c *Chip) feed(b byte) {
	c.parse = append(c.parse, b)
	op := c.parse[0]

	switch {
	case op&0xF0 == ads1256.CMDRREG:
		if len(c.parse) < 2 {
			return
		}
		c.commands = append(c.commands, ads1256.CMDRREG)
		start, count := int(op&0x0F), int(c.parse[1]&0x0F)+1
		c.pending = c.pending[:0]
		for r := start; r < start+count && r < ads1256.NumRegisters; r++ {
			c.pending = append(c.pending, c.regs[r])
		}
	case op&0xF0 == ads1256.CMDWREG:
		if len(c.parse) < 2 {
			return
		}
		count := int(c.parse[1]&0x0F) + 1
		if len(c.parse) < 2+count {
			return
		}
		c.commands = append(c.commands, ads1256.CMDWREG)
		start := int(op & 0x0F)
		for i, v := range c.parse[2:] {
			if r := start + i; r < ads1256.NumRegisters {
				c.writeReg(ads1256.Register(r), v)
			}
		}
	default:
		c.commands = append(c.commands, op)
		switch op {
		case ads1256.CMDRDATA:
			c.pending = sampleBytes(c.nextSample())
		case ads1256.CMDRESET:
			id := c.regs[ads1256.RegSTATUS] & 0xF0
			c.regs = PowerOnRegisters
			c.regs[ads1256.RegSTATUS] = id | c.regs[ads1256.RegSTATUS]&0x0F
		}
	}
	c.parse = c.parse[:0]
}

func (c *Chip) writeReg(reg ads1256.Register, v byte) {
	if reg == ads1256.RegSTATUS {
		// ID and DRDY bits are read-only.
		v = c.regs[reg]&0xF1 | v&0x0E
	}
	c.regs[reg] = v
}

func (c *Chip) nextSample() int32 {
	if len(c.samples) > 0 {
		c.lastRaw = c.samples[0]
		c.samples = c.samples[1:]
	}
	return c.lastRaw
}

func sampleBytes(code int32) []byte {
	u := uint32(code)
	return []byte{byte(u >> 16), byte(u >> 8), byte(u)}
}

// ConfigureOutput implements ads1256.DigitalIO.
func (c *Chip) ConfigureOutput(pin ads1256.Pin, initial ads1256.Level) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.outputs[pin] = true
	c.levels[pin] = initial
	c.events = append(c.events, Event{Op: OpConfigure, Pin: pin, Level: initial})
	return nil
}

// ConfigureInput implements ads1256.DigitalIO.
func (c *Chip) ConfigureInput(pin ads1256.Pin) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inputs[pin] = true
	c.events = append(c.events, Event{Op: OpConfigure, Pin: pin})
	return nil
}

// SetLevel implements ads1256.DigitalIO.
func (c *Chip) SetLevel(pin ads1256.Pin, level ads1256.Level) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.SetFault != nil {
		if err := c.SetFault(pin, level); err != nil {
			return err
		}
	}
	if pin == c.pins.CS && level == ads1256.High {
		// Raising CS aborts any partial command.
		c.parse = c.parse[:0]
		c.pending = c.pending[:0]
	}
	c.levels[pin] = level
	c.events = append(c.events, Event{Op: OpSet, Pin: pin, Level: level})
	return nil
}

// Level implements ads1256.DigitalIO.
func (c *Chip) Level(pin ads1256.Pin) (ads1256.Level, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.LevelFault != nil {
		if err := c.LevelFault(pin); err != nil {
			return ads1256.High, err
		}
	}
	if pin != c.pins.DRDY {
		return c.levels[pin], nil
	}
	c.drdyPolls++
	if c.notReadyPolls > 0 {
		c.notReadyPolls--
		return ads1256.High, nil
	}
	return c.drdy, nil
}

// EdgeChip is a Chip whose DRDY line can be waited on, like a GPIO driver
// with edge detection.
type EdgeChip struct {
	*Chip
	waits int
	wmu   sync.Mutex
}

// NewEdge wraps a new Chip with edge detection.
func NewEdge(pins ads1256.Pins) *EdgeChip {
	return &EdgeChip{Chip: New(pins)}
}

// WaitFalling implements ads1256.EdgeWaiter.
func (e *EdgeChip) WaitFalling(pin ads1256.Pin, timeout time.Duration) (bool, error) {
	e.wmu.Lock()
	e.waits++
	e.wmu.Unlock()
	if pin != e.pins.DRDY {
		return false, fmt.Errorf("fake: no edge detection on pin %d", pin)
	}
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case <-e.falling:
		return true, nil
	case <-t.C:
		return false, nil
	}
}

// Waits returns how many times WaitFalling was called.
func (e *EdgeChip) Waits() int {
	e.wmu.Lock()
	defer e.wmu.Unlock()
	return e.waits
}
