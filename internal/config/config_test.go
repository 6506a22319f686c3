package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yunginnanet/ads1256/pkg/ads1256"
)

func TestLoadDefaults(t *testing.T) {
	s, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, BackendSPIDev, s.Backend)
	assert.Equal(t, SPI{Bus: 0, Device: 1, ClockHz: 976563}, s.SPI)
	assert.Equal(t, "gpiochip0", s.GPIO.Chip)
	assert.True(t, s.GPIO.Edges)
	assert.Equal(t, ads1256.Pins{CS: 8, DRDY: 22, Sync: 27}, s.Pins())
	assert.Equal(t, 2.5, s.VRef)
	assert.Equal(t, 2*time.Second, s.Timeout)
	assert.Equal(t, time.Microsecond, s.PollInterval)
	assert.Equal(t, ads1256.Gain1, s.Gain)
	assert.Equal(t, ads1256.DataRate1000SPS, s.DataRate)
	assert.True(t, s.SelfCal)
	assert.Equal(t, "info", s.LogLevel)

	cfg := s.ADC()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, s.Pins(), cfg.Pins)
}

func TestLoadFT232H(t *testing.T) {
	s, err := Load(map[string]interface{}{"backend": BackendFT232H})
	require.NoError(t, err)
	assert.Equal(t, ads1256.Pins{CS: 0x10, DRDY: 0x01, Sync: 0x40}, s.Pins())
	assert.Equal(t, uint32(1700000), s.FT232H.ClockHz)
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "adc.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"adc": {"gain": 4, "rate": "100", "vref": 3.3},
		"spi": {"clock": 500000}
	}`), 0o600))

	t.Setenv("ADS1256_ADC_GAIN", "8")
	t.Setenv("ADS1256_GPIO_DRDY", "17")

	s, err := Load(map[string]interface{}{
		"config.file": path,
		"gpio.drdy":   25,
	})
	require.NoError(t, err)

	// file over defaults
	assert.Equal(t, int64(500000), s.SPI.ClockHz)
	assert.Equal(t, ads1256.DataRate100SPS, s.DataRate)
	assert.Equal(t, 3.3, s.VRef)
	// environment over file
	assert.Equal(t, ads1256.Gain8, s.Gain)
	// overrides over environment
	assert.Equal(t, ads1256.Pin(25), s.GPIO.Pins.DRDY)
}

func TestLoadInvalid(t *testing.T) {
	for name, o := range map[string]map[string]interface{}{
		"backend": {"backend": "i2c"},
		"gain":    {"adc.gain": 3},
		"rate":    {"adc.rate": "123SPS"},
		"vref":    {"adc.vref": -1.0},
		"timeout": {"adc.timeout": "soon"},
	} {
		_, err := Load(o)
		assert.Error(t, err, name)
	}

	_, err := Load(map[string]interface{}{"adc.gain": 3})
	assert.ErrorIs(t, err, ads1256.ErrInvalidArgument)
}

func TestLoadGainOutOfRange(t *testing.T) {
	// 260 is Gain4 once truncated to a byte
	_, err := Load(map[string]interface{}{"adc.gain": 260})
	assert.ErrorIs(t, err, ads1256.ErrInvalidArgument)

	t.Setenv("ADS1256_ADC_GAIN", "260")
	_, err = Load(nil)
	assert.ErrorIs(t, err, ads1256.ErrInvalidArgument)
}
