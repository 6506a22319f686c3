// Package reefpi exposes an ADS1256 as a reef-pi HAL driver with eight
// analog input pins, AIN0..AIN7 each measured against AINCOM.
package reefpi

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/reef-pi/hal"

	"github.com/yunginnanet/ads1256/pkg/ads1256"
)

const driverName = "ADS1256"

const (
	paramDebug     = "Debug"
	paramSPIBus    = "SPI Bus"
	paramSPIDevice = "SPI Device"
	paramSPIClock  = "SPI Clock"
	paramGPIOChip  = "GPIO Chip"
	paramCS        = "CS Pin"
	paramDRDY      = "DRDY Pin"
	paramSync      = "SYNC Pin"
	paramVRef      = "VRef"
	paramGain      = "Gain"
	paramDataRate  = "Data Rate"
	paramBuffer    = "Buffer"
)

type factory struct {
	meta       hal.Metadata
	parameters []hal.ConfigParameter
}

var f *factory
var once sync.Once

// Factory returns the driver factory.
func Factory() hal.DriverFactory {
	once.Do(func() {
		def := ads1256.DefaultConfig()
		f = &factory{
			meta: hal.Metadata{
				Name:         driverName,
				Description:  "TI ADS1256 24-bit ADC on SPI, eight single-ended inputs against AINCOM",
				Capabilities: []hal.Capability{hal.AnalogInput},
			},
			parameters: []hal.ConfigParameter{
				{Name: paramDebug, Type: hal.Boolean, Order: 0, Default: false},
				{Name: paramSPIBus, Type: hal.Integer, Order: 1, Default: 0},
				{Name: paramSPIDevice, Type: hal.Integer, Order: 2, Default: 1},
				{Name: paramSPIClock, Type: hal.Integer, Order: 3, Default: 976563},
				{Name: paramGPIOChip, Type: hal.String, Order: 4, Default: "gpiochip0"},
				{Name: paramCS, Type: hal.Integer, Order: 5, Default: int(def.Pins.CS)},
				{Name: paramDRDY, Type: hal.Integer, Order: 6, Default: int(def.Pins.DRDY)},
				{Name: paramSync, Type: hal.Integer, Order: 7, Default: int(def.Pins.Sync)},
				{Name: paramVRef, Type: hal.Decimal, Order: 8, Default: def.VRef},
				{Name: paramGain, Type: hal.Integer, Order: 9, Default: int(def.Gain)},
				{Name: paramDataRate, Type: hal.String, Order: 10, Default: def.DataRate.String()},
				{Name: paramBuffer, Type: hal.Boolean, Order: 11, Default: false},
			},
		}
	})
	return f
}

func (f *factory) Metadata() hal.Metadata               { return f.meta }
func (f *factory) GetParameters() []hal.ConfigParameter { return f.parameters }

// ValidateParameters checks parameter values and returns per-key errors for the UI.
func (f *factory) ValidateParameters(p map[string]interface{}) (bool, map[string][]string) {
	fail := map[string][]string{}

	for _, k := range []string{paramSPIBus, paramSPIDevice, paramCS, paramDRDY, paramSync} {
		if v, ok := p[k]; ok {
			if i, ok := hal.ConvertToInt(v); !ok || i < 0 {
				fail[k] = append(fail[k], "must be a non-negative integer")
			}
		}
	}

	if v, ok := p[paramSPIClock]; ok {
		if i, ok := hal.ConvertToInt(v); !ok || i <= 0 {
			fail[paramSPIClock] = append(fail[paramSPIClock], "must be a positive integer (Hz)")
		}
	}

	if v, ok := p[paramGPIOChip]; ok {
		if s, ok := v.(string); !ok || strings.TrimSpace(s) == "" {
			fail[paramGPIOChip] = append(fail[paramGPIOChip], "must be a GPIO chip name, e.g. gpiochip0")
		}
	}

	if v, ok := p[paramVRef]; ok {
		fv, err := convertToFloat(v)
		if err != nil {
			fail[paramVRef] = append(fail[paramVRef], "must be a number (e.g. 2.5)")
		} else if fv <= 0 || fv > 5.5 {
			fail[paramVRef] = append(fail[paramVRef], "must be in (0..5.5] volts")
		}
	}

	if v, ok := p[paramGain]; ok {
		if i, ok := hal.ConvertToInt(v); !ok || i <= 0 || !ads1256.Gain(i).Valid() || i > 64 {
			fail[paramGain] = append(fail[paramGain], "must be one of 1, 2, 4, 8, 16, 32, 64")
		}
	}

	if v, ok := p[paramDataRate]; ok {
		if _, err := ads1256.ParseDataRate(fmt.Sprint(v)); err != nil {
			fail[paramDataRate] = append(fail[paramDataRate], err.Error())
		}
	}

	return len(fail) == 0, fail
}

// NewDriver builds the driver. hardwareResources is an *ads1256.ADS1256
// that is already initialised, a Resources to initialise, or nil to open
// spidev and the GPIO character device from the parameters.
func (f *factory) NewDriver(parameters map[string]interface{}, hardwareResources interface{}) (hal.Driver, error) {
	if valid, failures := f.ValidateParameters(parameters); !valid {
		return nil, errors.New(hal.ToErrorString(failures))
	}
	s := settingsFrom(parameters)

	var (
		d   *Driver
		err error
	)
	switch hw := hardwareResources.(type) {
	case *ads1256.ADS1256:
		d = newDriver(f.meta, hw, s.debug)
	case Resources:
		d, err = openWith(f.meta, hw, s)
	case nil:
		d, err = openLinux(f.meta, s)
	default:
		err = fmt.Errorf("%s: unsupported hardware resource %T", driverName, hardwareResources)
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

// settings are the parsed parameters.
type settings struct {
	debug     bool
	spiBus    int
	spiDevice int
	spiClock  int
	chip      string
	cfg       ads1256.Config
}

func settingsFrom(p map[string]interface{}) settings {
	cfg := ads1256.DefaultConfig()
	cfg.Pins = ads1256.Pins{
		CS:   ads1256.Pin(getInt(p, paramCS, int(cfg.Pins.CS))),
		DRDY: ads1256.Pin(getInt(p, paramDRDY, int(cfg.Pins.DRDY))),
		Sync: ads1256.Pin(getInt(p, paramSync, int(cfg.Pins.Sync))),
	}
	cfg.VRef = getFloat(p, paramVRef, cfg.VRef)
	cfg.Gain = ads1256.Gain(getInt(p, paramGain, int(cfg.Gain)))
	if v, ok := p[paramDataRate]; ok {
		if r, err := ads1256.ParseDataRate(fmt.Sprint(v)); err == nil {
			cfg.DataRate = r
		}
	}
	cfg.BufferEn = getBool(p, paramBuffer, false)
	cfg.SelfCal = true

	chip := "gpiochip0"
	if v, ok := p[paramGPIOChip].(string); ok && v != "" {
		chip = v
	}
	return settings{
		debug:     getBool(p, paramDebug, false),
		spiBus:    getInt(p, paramSPIBus, 0),
		spiDevice: getInt(p, paramSPIDevice, 1),
		spiClock:  getInt(p, paramSPIClock, 976563),
		chip:      chip,
		cfg:       cfg,
	}
}

func getInt(m map[string]interface{}, k string, def int) int {
	v, ok := m[k]
	if !ok {
		return def
	}
	if i, ok := hal.ConvertToInt(v); ok {
		return i
	}
	return def
}

func getFloat(m map[string]interface{}, k string, def float64) float64 {
	v, ok := m[k]
	if !ok {
		return def
	}
	fv, err := convertToFloat(v)
	if err != nil {
		return def
	}
	return fv
}

func getBool(m map[string]interface{}, k string, def bool) bool {
	switch t := m[k].(type) {
	case bool:
		return t
	case string:
		s := strings.ToLower(strings.TrimSpace(t))
		return s == "1" || s == "true" || s == "yes" || s == "on"
	default:
		return def
	}
}

func convertToFloat(v interface{}) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case float32:
		return float64(t), nil
	case int:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case json.Number:
		return t.Float64()
	case string:
		return strconv.ParseFloat(strings.TrimSpace(t), 64)
	default:
		if i, ok := hal.ConvertToInt(v); ok {
			return float64(i), nil
		}
		return 0, errors.New("not a number")
	}
}
