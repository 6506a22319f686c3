// Package config loads adsctl settings. Later sources override earlier
// ones: built-in defaults, a JSON file named by config.file (ads1256.json
// by default), ADS1256_ prefixed environment variables, then values set on
// the command line.
package config

import (
	"fmt"
	"time"

	"github.com/warthog618/config"
	"github.com/warthog618/config/blob"
	"github.com/warthog618/config/blob/decoder/json"
	"github.com/warthog618/config/dict"
	"github.com/warthog618/config/env"

	"github.com/yunginnanet/ads1256/pkg/ads1256"
)

// Backends.
const (
	BackendSPIDev = "spidev"
	BackendFT232H = "ft232h"
)

// EnvPrefix is stripped from environment variables, ADS1256_ADC_GAIN sets
// adc.gain.
const EnvPrefix = "ADS1256_"

// Defaults are the built-in settings. The spidev wiring is the common
// Raspberry Pi one, with CS on GPIO8 driven by hand. That line is also CE0,
// owned by spidev0.0, so the port defaults to spidev0.1. The FT232H pins
// are C bus masks.
func Defaults() map[string]interface{} {
	return map[string]interface{}{
		"backend": BackendSPIDev,

		"spi.bus":    0,
		"spi.device": 1,
		"spi.clock":  976563,
		"spi.nocs":   false,

		"gpio.chip":  "gpiochip0",
		"gpio.cs":    8,
		"gpio.drdy":  22,
		"gpio.sync":  27,
		"gpio.edges": true,

		"ft232h.index":  0,
		"ft232h.serial": "",
		"ft232h.clock":  1700000,
		"ft232h.cs":     0x10,
		"ft232h.drdy":   0x01,
		"ft232h.sync":   0x40,

		"adc.vref":    2.5,
		"adc.timeout": "2s",
		"adc.poll":    "1us",
		"adc.gain":    1,
		"adc.rate":    "1000SPS",
		"adc.buffer":  false,
		"adc.autocal": false,
		"adc.selfcal": true,

		"log.level": "info",
	}
}

// SPI selects the spidev port.
type SPI struct {
	Bus     int
	Device  int
	ClockHz int64
	NoCS    bool
}

// GPIO selects the character device lines.
type GPIO struct {
	Chip  string
	Edges bool
	Pins  ads1256.Pins
}

// FT232H selects the USB bridge and its C bus pins.
type FT232H struct {
	Index   int
	Serial  string
	ClockHz uint32
	Pins    ads1256.Pins
}

// Settings is the loaded configuration.
type Settings struct {
	Backend string
	SPI     SPI
	GPIO    GPIO
	FT232H  FT232H

	VRef         float64
	Timeout      time.Duration
	PollInterval time.Duration
	Gain         ads1256.Gain
	DataRate     ads1256.DataRate
	Buffer       bool
	AutoCal      bool
	SelfCal      bool

	LogLevel string
}

// Load reads every source. overrides has the highest priority and uses the
// same dotted keys as Defaults, plus config.file.
func Load(overrides map[string]interface{}) (*Settings, error) {
	if overrides == nil {
		overrides = map[string]interface{}{}
	}
	def := dict.New(dict.WithMap(Defaults()))
	// highest priority sources first
	cfg := config.New(
		dict.New(dict.WithMap(overrides)),
		env.New(env.WithEnvPrefix(EnvPrefix)),
		config.WithDefault(def))
	cfg.Append(
		blob.NewConfigFile(cfg, "config.file", "ads1256.json", json.NewDecoder()))
	return decode(cfg)
}

func decode(cfg *config.Config) (s *Settings, err error) {
	// MustGet panics on a missing key or a failed conversion.
	defer func() {
		if r := recover(); r != nil {
			s, err = nil, fmt.Errorf("config: %v", r)
		}
	}()

	// the PGA code is a uint8, a wider value would wrap onto a valid gain
	if g := cfg.MustGet("adc.gain").Uint(); g > 64 {
		return nil, fmt.Errorf("%w: gain %d", ads1256.ErrInvalidArgument, g)
	}

	s = &Settings{
		Backend: cfg.MustGet("backend").String(),
		SPI: SPI{
			Bus:     int(cfg.MustGet("spi.bus").Int()),
			Device:  int(cfg.MustGet("spi.device").Int()),
			ClockHz: int64(cfg.MustGet("spi.clock").Int()),
			NoCS:    cfg.MustGet("spi.nocs").Bool(),
		},
		GPIO: GPIO{
			Chip:  cfg.MustGet("gpio.chip").String(),
			Edges: cfg.MustGet("gpio.edges").Bool(),
			Pins: ads1256.Pins{
				CS:   ads1256.Pin(cfg.MustGet("gpio.cs").Uint()),
				DRDY: ads1256.Pin(cfg.MustGet("gpio.drdy").Uint()),
				Sync: ads1256.Pin(cfg.MustGet("gpio.sync").Uint()),
			},
		},
		FT232H: FT232H{
			Index:   int(cfg.MustGet("ft232h.index").Int()),
			Serial:  cfg.MustGet("ft232h.serial").String(),
			ClockHz: uint32(cfg.MustGet("ft232h.clock").Uint()),
			Pins: ads1256.Pins{
				CS:   ads1256.Pin(cfg.MustGet("ft232h.cs").Uint()),
				DRDY: ads1256.Pin(cfg.MustGet("ft232h.drdy").Uint()),
				Sync: ads1256.Pin(cfg.MustGet("ft232h.sync").Uint()),
			},
		},
		VRef:         cfg.MustGet("adc.vref").Float(),
		Timeout:      cfg.MustGet("adc.timeout").Duration(),
		PollInterval: cfg.MustGet("adc.poll").Duration(),
		Gain:         ads1256.Gain(cfg.MustGet("adc.gain").Uint()),
		Buffer:       cfg.MustGet("adc.buffer").Bool(),
		AutoCal:      cfg.MustGet("adc.autocal").Bool(),
		SelfCal:      cfg.MustGet("adc.selfcal").Bool(),
		LogLevel:     cfg.MustGet("log.level").String(),
	}

	if s.DataRate, err = ads1256.ParseDataRate(cfg.MustGet("adc.rate").String()); err != nil {
		return nil, err
	}
	return s, s.Validate()
}

// Validate checks the backend and everything ads1256.Config.Validate checks.
func (s *Settings) Validate() error {
	switch s.Backend {
	case BackendSPIDev, BackendFT232H:
	default:
		return fmt.Errorf("%w: unknown backend %q", ads1256.ErrInvalidArgument, s.Backend)
	}
	return s.ADC().Validate()
}

// Pins returns the wiring of the selected backend.
func (s *Settings) Pins() ads1256.Pins {
	if s.Backend == BackendFT232H {
		return s.FT232H.Pins
	}
	return s.GPIO.Pins
}

// ADC returns the driver configuration.
func (s *Settings) ADC() ads1256.Config {
	cfg := ads1256.DefaultConfig()
	cfg.Pins = s.Pins()
	cfg.VRef = s.VRef
	cfg.Timeout = s.Timeout
	cfg.PollInterval = s.PollInterval
	cfg.Gain = s.Gain
	cfg.DataRate = s.DataRate
	cfg.BufferEn = s.Buffer
	cfg.AutoCal = s.AutoCal
	cfg.SelfCal = s.SelfCal
	return cfg
}
