// A utility to read an ADS1256 over spidev or an FT232H bridge.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/yunginnanet/ads1256/internal/config"
	"github.com/yunginnanet/ads1256/pkg/ads1256"
	"github.com/yunginnanet/ads1256/pkg/cdev"
	"github.com/yunginnanet/ads1256/pkg/ft232h"
	"github.com/yunginnanet/ads1256/pkg/spidev"
)

var log zerolog.Logger

func init() {
	cw := zerolog.ConsoleWriter{Out: os.Stdout}
	log = zerolog.New(cw).With().Timestamp().Logger()
}

// flagKeys maps persistent flags onto configuration keys. Only flags given
// on the command line override the other sources.
var flagKeys = map[string]string{
	"config":        "config.file",
	"backend":       "backend",
	"spi-bus":       "spi.bus",
	"spi-device":    "spi.device",
	"spi-clock":     "spi.clock",
	"spi-nocs":      "spi.nocs",
	"chip":          "gpio.chip",
	"cs":            "gpio.cs",
	"drdy":          "gpio.drdy",
	"sync":          "gpio.sync",
	"edges":         "gpio.edges",
	"ft232h-index":  "ft232h.index",
	"ft232h-serial": "ft232h.serial",
	"ft232h-clock":  "ft232h.clock",
	"vref":          "adc.vref",
	"timeout":       "adc.timeout",
	"gain":          "adc.gain",
	"rate":          "adc.rate",
	"buffer":        "adc.buffer",
	"autocal":       "adc.autocal",
	"selfcal":       "adc.selfcal",
	"log-level":     "log.level",
}

var rootCmd = &cobra.Command{
	Use:   "adsctl",
	Short: "adsctl reads a TI ADS1256 ADC",
	Long: "adsctl reads a TI ADS1256 24-bit ADC wired to a Linux spidev port and GPIO character device, " +
		"or to an FTDI FT232H USB bridge.\n\n" +
		"Settings come from built-in defaults, a JSON file (--config), ADS1256_ environment variables " +
		"(ADS1256_ADC_GAIN=8) and flags, each overriding the one before.",
	SilenceUsage:  true,
	SilenceErrors: true,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringP("config", "c", "ads1256.json", "JSON configuration file")
	pf.StringP("backend", "b", config.BackendSPIDev, "transport: spidev or ft232h")
	pf.Int("spi-bus", 0, "spidev bus")
	pf.Int("spi-device", 1, "spidev chip-select (device) number; device 0 owns CE0, which is GPIO8")
	pf.Int("spi-clock", spidev.DefaultClock, "spidev clock in Hz")
	pf.Bool("spi-nocs", false, "ask the SPI controller not to drive its own chip-select")
	pf.String("chip", "gpiochip0", "GPIO character device")
	pf.Uint("cs", 8, "chip-select line (GPIO offset or FT232H C bus mask); must not be the CE line of --spi-device")
	pf.Uint("drdy", 22, "DRDY line (GPIO offset or FT232H C bus mask)")
	pf.Uint("sync", 27, "SYNC/PDWN line (GPIO offset or FT232H C bus mask)")
	pf.Bool("edges", true, "wait for DRDY edges instead of polling")
	pf.Int("ft232h-index", 0, "FT232H device index")
	pf.String("ft232h-serial", "", "FT232H serial number, overrides the index")
	pf.Uint32("ft232h-clock", ft232h.DefaultClock, "FT232H SPI clock in Hz")
	pf.Float64("vref", 2.5, "reference voltage")
	pf.Duration("timeout", ads1256.DefaultTimeout, "DRDY timeout")
	pf.Uint8("gain", 1, "PGA gain: 1, 2, 4, 8, 16, 32 or 64")
	pf.String("rate", "1000SPS", "data rate, e.g. 30000, 100SPS, 2.5")
	pf.Bool("buffer", false, "enable the analog input buffer")
	pf.Bool("autocal", false, "self calibrate after gain, rate or buffer changes")
	pf.Bool("selfcal", true, "self calibrate during initialisation")
	pf.StringP("log-level", "l", "info", "log level")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("adsctl failed")
		os.Exit(1)
	}
}

// overrides collects the flags set on the command line.
func overrides(cmd *cobra.Command) map[string]interface{} {
	o := map[string]interface{}{}
	for name, key := range flagKeys {
		f := cmd.Flag(name)
		if f == nil || !f.Changed {
			continue
		}
		o[key] = f.Value.String()
	}
	return o
}

func loadSettings(cmd *cobra.Command) (*config.Settings, error) {
	s, err := config.Load(overrides(cmd))
	if err != nil {
		return nil, err
	}
	lvl, err := zerolog.ParseLevel(s.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	log = log.Level(lvl)
	log.Debug().Any("settings", s).Msg("configuration loaded")
	return s, nil
}

// openADC connects the configured backend and returns an ADC that has not
// been initialised yet.
func openADC(s *config.Settings) (*ads1256.ADS1256, error) {
	var (
		bus ads1256.Bus
		dio ads1256.DigitalIO
	)

	switch s.Backend {
	case config.BackendFT232H:
		desc := ft232h.ByIndex(s.FT232H.Index)
		if s.FT232H.Serial != "" {
			desc = ft232h.BySerial(s.FT232H.Serial)
		}
		ft, err := ft232h.ConnectFT232h(desc)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to FT232H: %w", err)
		}
		ft.SetLogger(log)
		log.Info().Any("info", ft.Info()).Msgf("connected to FT232H: %s", ft)
		if err = ft.ConfigureSPI(s.FT232H.ClockHz); err != nil {
			return nil, errors.Join(err, ft.Close())
		}
		bus, dio = ft, ft
	default:
		sb, err := spidev.Open(spidev.Config{
			Bus:     s.SPI.Bus,
			Device:  s.SPI.Device,
			ClockHz: s.SPI.ClockHz,
			NoCS:    s.SPI.NoCS,
			Log:     log,
		})
		if err != nil {
			return nil, err
		}
		opts := []cdev.Option{cdev.WithLogger(log)}
		if !s.GPIO.Edges {
			opts = append(opts, cdev.WithoutEdges())
		}
		bus, dio = sb, cdev.New(s.GPIO.Chip, opts...)
	}

	adc, err := ads1256.NewADS1256(bus, dio, s.ADC())
	if err != nil {
		if c, ok := bus.(io.Closer); ok {
			err = errors.Join(err, c.Close())
		}
		if c, ok := dio.(io.Closer); ok && any(dio) != any(bus) {
			err = errors.Join(err, c.Close())
		}
		return nil, err
	}
	return adc, nil
}

// withADC loads the settings, opens and initialises the ADC, runs fn and
// closes the ADC.
func withADC(cmd *cobra.Command, fn func(adc *ads1256.ADS1256, s *config.Settings) error) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	adc, err := openADC(s)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := adc.Close(); cerr != nil {
			log.Warn().Err(cerr).Msg("failed to close ADS1256")
		}
	}()

	log.Debug().Any("config", s.ADC()).Msg("initializing ADS1256")
	if err = adc.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize ADS1256: %w", err)
	}
	log.Info().Stringer("gain", adc.Gain()).Stringer("rate", s.DataRate).Msg("initialized ADS1256")

	return fn(adc, s)
}

// parsePair reads "3" as AIN3 against AINCOM and "0:1" as AIN0 against
// AIN1. "com" names AINCOM.
func parsePair(s string) (ads1256.ChannelPair, error) {
	pos, neg, diff := strings.Cut(s, ":")
	p, err := parseChannel(pos)
	if err != nil {
		return ads1256.ChannelPair{}, err
	}
	if !diff {
		return ads1256.SingleEnded(p), nil
	}
	n, err := parseChannel(neg)
	if err != nil {
		return ads1256.ChannelPair{}, err
	}
	return ads1256.Differential(p, n), nil
}

func parseChannel(s string) (ads1256.Channel, error) {
	s = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "ain")
	if s == "com" {
		return ads1256.CH_AINCOM, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n > 7 {
		return 0, fmt.Errorf("can't parse channel '%s'", s)
	}
	return ads1256.Channel(n), nil
}

func parsePairs(args []string) ([]ads1256.ChannelPair, error) {
	if len(args) == 0 {
		args = []string{"0", "1", "2", "3", "4", "5", "6", "7"}
	}
	pairs := make([]ads1256.ChannelPair, 0, len(args))
	for _, a := range args {
		p, err := parsePair(a)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, p)
	}
	return pairs, nil
}

func hex24(v uint32) string {
	return fmt.Sprintf("0x%06X", v&0xFFFFFF)
}
