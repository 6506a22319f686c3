// Package ads1256 drives a TI ADS1256 24-bit delta-sigma ADC over SPI, with
// chip-select, DRDY and SYNC on separate digital lines.
package ads1256

import (
	"errors"
	"fmt"
	"io"
	"time"
)

// syncPulse is how long SYNC is held low to restart a conversion.
const syncPulse = 10 * time.Microsecond

// ADS1256 provides high-level control over a TI ADS1256 ADC.
//
// An ADS1256 is not safe for concurrent use. The bus and the lines are
// assumed to belong to it exclusively; callers sharing one between
// goroutines must serialise every call.
type ADS1256 struct {
	bus  Bus
	dio  DigitalIO
	pins Pins

	vRef         float64
	timeout      time.Duration
	pollInterval time.Duration
	edgeSlice    time.Duration
	commandDelay time.Duration

	cfg Config

	// gain and scale only change together, in SetGain.
	gain  Gain
	scale float64

	// Last read or written register states (for reference or debugging)
	regLR [NumRegisters]byte // "Last Read"  register data
	regLW [NumRegisters]byte // "Last Write" register data
}

// Config represents user-level configuration parameters
type Config struct {
	Pins Pins

	// VRef is the reference voltage in volts.
	VRef float64

	// Timeout bounds every wait for DRDY, PollInterval is the delay between
	// two samples of the line.
	Timeout      time.Duration
	PollInterval time.Duration

	// CommandDelay is the pause between a read command and clocking data
	// out (t6 in the datasheet, 50 master clock periods).
	CommandDelay time.Duration

	// The remaining fields are applied by Initialize.
	Gain         Gain
	DataRate     DataRate
	BufferEn     bool // Enable the ADC's input buffer
	AutoCal      bool // Self-calibrate after PGA, DRATE or BUFEN changes
	SelfCal      bool // Run SELFCAL at the end of Initialize
	ClkOut       byte // one of AdconCLKOff, AdconCLKDiv1, AdconCLKDiv2, AdconCLKDiv4
	SensorDetect byte // one of AdconSDCSOff, AdconSDCS0p5uA, AdconSDCS2uA, AdconSDCS10uA
}

// DefaultConfig provides default config. You can adjust as needed
func DefaultConfig() Config {
	return Config{
		Pins: Pins{
			CS:   8,
			DRDY: 22,
			Sync: 27,
		},
		VRef:         2.5,
		Timeout:      DefaultTimeout,
		PollInterval: DefaultPollInterval,
		CommandDelay: 10 * time.Microsecond,
		Gain:         Gain1,
		DataRate:     DataRate1000SPS,
		ClkOut:       AdconCLKOff,
		SensorDetect: AdconSDCSOff,
	}
}

// Validate checks the fields NewADS1256 depends on.
func (cfg Config) Validate() error {
	var errs []error
	if !(cfg.VRef > 0) {
		errs = append(errs, fmt.Errorf("%w: reference voltage must be positive, got %v", ErrInvalidArgument, cfg.VRef))
	}
	if cfg.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("%w: timeout must be positive, got %s", ErrInvalidArgument, cfg.Timeout))
	}
	if cfg.PollInterval < 0 || cfg.CommandDelay < 0 {
		errs = append(errs, fmt.Errorf("%w: delays must not be negative", ErrInvalidArgument))
	}
	if _, err := cfg.Gain.Code(); err != nil {
		errs = append(errs, err)
	}
	if cfg.ClkOut&^AdconCLKDiv4 != 0 {
		errs = append(errs, fmt.Errorf("%w: invalid CLKOUT bits 0x%02X", ErrInvalidArgument, cfg.ClkOut))
	}
	if cfg.SensorDetect&^AdconSDCS10uA != 0 {
		errs = append(errs, fmt.Errorf("%w: invalid sensor detect bits 0x%02X", ErrInvalidArgument, cfg.SensorDetect))
	}
	return errors.Join(errs...)
}

// NewADS1256 takes ownership of bus and the three lines in cfg.Pins. CS and
// SYNC are configured as outputs idling high and DRDY as an input. Nothing
// is sent to the chip; call Initialize before reading.
func NewADS1256(bus Bus, dio DigitalIO, cfg Config) (*ADS1256, error) {
	if bus == nil || dio == nil {
		return nil, fmt.Errorf("%w: bus and digital I/O are required", ErrInvalidArgument)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	adc := &ADS1256{
		bus:          bus,
		dio:          dio,
		pins:         cfg.Pins,
		vRef:         cfg.VRef,
		timeout:      cfg.Timeout,
		pollInterval: cfg.PollInterval,
		edgeSlice:    10 * time.Millisecond,
		commandDelay: cfg.CommandDelay,
		cfg:          cfg,
		gain:         Gain1,
		scale:        ScaleFactor(cfg.VRef, Gain1),
	}

	if err := dio.ConfigureOutput(cfg.Pins.CS, High); err != nil {
		return nil, transportErr("configure CS", err)
	}
	if err := dio.ConfigureOutput(cfg.Pins.Sync, High); err != nil {
		return nil, transportErr("configure SYNC", err)
	}
	if err := dio.ConfigureInput(cfg.Pins.DRDY); err != nil {
		return nil, transportErr("configure DRDY", err)
	}

	return adc, nil
}

// Initialize brings the chip into the state described by the Config given to
// NewADS1256: reset, chip ID check, STATUS, gain, data rate and, if
// requested, a self calibration.
func (adc *ADS1256) Initialize() error {
	cfg := adc.cfg

	if err := adc.Reset(); err != nil {
		return err
	}
	if err := adc.VerifyChipID(); err != nil {
		return err
	}

	// ORDER stays 0 (MSB first), ID and DRDY bits are read-only.
	var statusVal byte
	if cfg.BufferEn {
		statusVal |= StatusBUFENbit
	}
	if cfg.AutoCal {
		statusVal |= StatusACALbit
	}
	if err := adc.WriteRegister(RegSTATUS, statusVal); err != nil {
		return err
	}

	if err := adc.SetGain(cfg.Gain); err != nil {
		return err
	}
	if err := adc.SetDataRate(cfg.DataRate); err != nil {
		return err
	}

	if cfg.SelfCal {
		return adc.SelfCalibrate()
	}
	return nil
}

// Close puts the chip into standby, holds SYNC/PDWN low and closes the bus
// and the lines if they implement [io.Closer].
func (adc *ADS1256) Close() error {
	err := adc.Standby()
	err = errors.Join(err, adc.PowerDown())
	if c, ok := adc.bus.(io.Closer); ok {
		err = errors.Join(err, c.Close())
	}
	if c, ok := adc.dio.(io.Closer); ok && any(adc.dio) != any(adc.bus) {
		err = errors.Join(err, c.Close())
	}
	return err
}

// Reset issues the RESET command and waits for DRDY.
//
// RESET restores the power-on register values, PGA included, while the
// handle keeps the scale of the last SetGain. Follow it with SetGain, as
// Initialize does.
func (adc *ADS1256) Reset() error {
	return adc.sendCommand(CMDRESET)
}

// ReadChipID returns the upper nibble of STATUS.
func (adc *ADS1256) ReadChipID() (int, error) {
	status, err := adc.ReadRegister(RegSTATUS)
	if err != nil {
		return 0, err
	}
	return int(status >> 4), nil
}

// VerifyChipID returns an [*UnexpectedDeviceError] unless the chip reports
// [ChipID].
func (adc *ADS1256) VerifyChipID() error {
	id, err := adc.ReadChipID()
	if err != nil {
		return err
	}
	if id != ChipID {
		return &UnexpectedDeviceError{Expected: ChipID, Actual: id}
	}
	return nil
}

// SetGain programs the PGA. The stored scale factor changes only if the
// register write succeeded.
func (adc *ADS1256) SetGain(gain Gain) error {
	code, err := gain.Code()
	if err != nil {
		return err
	}
	scale := ScaleFactor(adc.vRef, gain)

	// bit7 always 0, bits6-5 = CLK bits, bits4-3 = sensor detect, bits2-0 = PGA
	adcon := adc.cfg.ClkOut | adc.cfg.SensorDetect | code
	if err = adc.WriteRegister(RegADCON, adcon); err != nil {
		return err
	}

	adc.gain, adc.scale = gain, scale
	return nil
}

// Gain returns the gain in effect.
func (adc *ADS1256) Gain() Gain {
	return adc.gain
}

// VoltsPerCount returns the scale factor for the gain in effect.
func (adc *ADS1256) VoltsPerCount() float64 {
	return adc.scale
}

// VRef returns the reference voltage the handle was built with.
func (adc *ADS1256) VRef() float64 {
	return adc.vRef
}

// SetDataRate writes DRATE as given; the code is not checked.
func (adc *ADS1256) SetDataRate(rate DataRate) error {
	return adc.WriteRegister(RegDRATE, byte(rate))
}

// SetInputChannels routes a pair of inputs to the converter. pos is one of
// the PosAINx codes and neg one of the NegAINx codes; neither is checked.
//
// The conversion in flight when the multiplexer changes still belongs to
// the previous selection. Call Sync afterwards, or discard one sample.
func (adc *ADS1256) SetInputChannels(pos, neg byte) error {
	return adc.WriteRegister(RegMUX, pos|neg)
}

// Sync pulses the SYNC line low to restart the conversion cycle.
func (adc *ADS1256) Sync() error {
	if err := adc.dio.SetLevel(adc.pins.Sync, Low); err != nil {
		return transportErr("drive SYNC low", err)
	}
	time.Sleep(syncPulse)
	return transportErr("drive SYNC high", adc.dio.SetLevel(adc.pins.Sync, High))
}

// SelfCalibrate runs SELFCAL and waits for DRDY using the current timeout.
func (adc *ADS1256) SelfCalibrate() error {
	return adc.sendCommand(CMDSELFCAL)
}

// SetBuffer enables or disables the analog input buffer.
func (adc *ADS1256) SetBuffer(enable bool) error {
	var v byte
	if enable {
		v = StatusBUFENbit
	}
	return adc.updateRegister(RegSTATUS, StatusBUFENbit, v)
}

// SetAutoCalibration enables or disables self calibration after PGA, DRATE
// and BUFEN changes.
func (adc *ADS1256) SetAutoCalibration(enable bool) error {
	var v byte
	if enable {
		v = StatusACALbit
	}
	return adc.updateRegister(RegSTATUS, StatusACALbit, v)
}

// Standby puts the device into standby mode, shutting down analog but leaving the oscillator running.
func (adc *ADS1256) Standby() error {
	return adc.sendCommand(CMDSTANDBY)
}

// WakeUp leaves standby or completes a SYNC command.
func (adc *ADS1256) WakeUp() error {
	return adc.sendCommand(CMDWakeUp)
}

// PowerDown holds SYNC/PDWN low. The chip powers down after 20 DRDY periods.
func (adc *ADS1256) PowerDown() error {
	return transportErr("drive SYNC low", adc.dio.SetLevel(adc.pins.Sync, Low))
}

// PowerUp releases SYNC/PDWN. Run SelfCalibrate once the chip is back.
func (adc *ADS1256) PowerUp() error {
	return transportErr("drive SYNC high", adc.dio.SetLevel(adc.pins.Sync, High))
}
