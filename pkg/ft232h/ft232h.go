// Package ft232h connects an ADS1256 to the host through an FTDI FT232H
// USB bridge: MPSSE SPI on the D bus, chip-select, DRDY and SYNC on the
// C bus GPIO.
package ft232h

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/yunginnanet/ft232h"
)

// DefaultClock is the SPI clock used by ConfigureSPI when none is given.
// The ADS1256 accepts up to fCLKIN/4, 1.92 MHz with the usual crystal.
const DefaultClock = 1_700_000

// spiMode1 is CPOL=0, CPHA=1.
const spiMode1 = 0x00000001

// DeviceInfo represents a snapshot of the device information for the [FT232H] device.
type DeviceInfo struct {
	Index       int
	Serial      string
	Description string
	ProductID   string
	VendorID    string
	IsOpen      bool
	IsHighSpeed bool
}

// String returns a string representation of the device information.
func (ft DeviceInfo) String() string {
	return fmt.Sprintf(
		"DeviceInfo{Index:%d, Serial:%s, Description:%s, ProductID:%s, VendorID:%s, IsOpen:%t, IsHighSpeed:%t}",
		ft.Index, ft.Serial, ft.Description, ft.ProductID, ft.VendorID, ft.IsOpen, ft.IsHighSpeed,
	)
}

// FT232H represents an FT232H device. It implements [ads1256.Bus] and
// [ads1256.DigitalIO]; pins are C bus masks (0x01 is C0, 0x80 is C7).
type FT232H struct {
	*ft232h.FT232H
	info DeviceInfo
	log  zerolog.Logger
}

// Info returns a snapshot of the device information for the FT232H device. Read-only.
func (ft *FT232H) Info() DeviceInfo {
	vid, pid := ft.vidPid()
	return DeviceInfo{
		Index:       ft.Index(),
		Serial:      ft.Serial(),
		Description: ft.Desc(),
		ProductID:   pid,
		VendorID:    vid,
		IsOpen:      ft.IsOpen(),
		IsHighSpeed: ft.IsHiSpeed(),
	}
}

// String returns a string representation of the FT232H device. It includes the vendor ID, product ID, and description.
func (ft *FT232H) String() string {
	return fmt.Sprintf("FT232H[%s:%s]: %s", ft.info.VendorID, ft.info.ProductID, ft.Desc())
}

// SetLogger replaces the default no-op logger.
func (ft *FT232H) SetLogger(l zerolog.Logger) {
	ft.log = l.With().Str("caller", "ft232h").Logger()
}

// ConfigureSPI sets up the MPSSE engine for the ADS1256: mode 1 at clockHz,
// or DefaultClock when clockHz is zero. The engine's own chip-select is
// never toggled, see Write.
func (ft *FT232H) ConfigureSPI(clockHz uint32) error {
	if clockHz == 0 {
		clockHz = DefaultClock
	}
	cfg := ft.SPI.GetConfig()
	cfg.Clock = clockHz
	cfg.Mode = spiMode1

	ft.log.Debug().Any("config", cfg).Msg("configuring SPI")
	if err := ft.SPI.Config(cfg); err != nil {
		return fmt.Errorf("failed to configure SPI: %w", err)
	}
	return nil
}

// ConnectFT232h opens the first FT232H found, or the one matching choice.
func ConnectFT232h(choice ...Descriptor) (ft *FT232H, err error) {
	ft = &FT232H{log: zerolog.Nop()}

	switch len(choice) {
	case 0:
		ft.FT232H, err = ft232h.New()
	case 1:
		if err = choice[0].Validate(); err != nil {
			return nil, err
		}
		ft.FT232H, err = ft232h.OpenMask(choice[0].Mask())
	default:
		return nil, errors.New("invalid number of arguments")
	}
	if err != nil {
		return nil, err
	}

	ft.info = ft.Info()
	return ft, nil
}
