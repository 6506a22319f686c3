package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/yunginnanet/ads1256/internal/config"
	"github.com/yunginnanet/ads1256/pkg/ads1256"
)

func init() {
	calibrateCmd.Flags().DurationVarP(&calOpts.Timeout, "timeout", "t", 10*time.Second, "DRDY timeout for the calibration")
	rootCmd.AddCommand(calibrateCmd)
}

var calibrateCmd = &cobra.Command{
	Use:   "calibrate",
	Short: "Run a self calibration",
	Long: "Run SELFCAL at the configured gain and data rate and report the offset and " +
		"full-scale calibration registers.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withADC(cmd, calibrate)
	},
}

var calOpts = struct {
	Timeout time.Duration
}{}

func calibrate(adc *ads1256.ADS1256, _ *config.Settings) error {
	prev := adc.Timeout()
	adc.SetTimeout(calOpts.Timeout)
	defer adc.SetTimeout(prev)

	start := time.Now()
	if err := adc.SelfCalibrate(); err != nil {
		return err
	}
	log.Info().Dur("took", time.Since(start)).Msg("self calibration complete")

	var ofc, fsc uint32
	for i, r := range []ads1256.Register{ads1256.RegOFC0, ads1256.RegOFC1, ads1256.RegOFC2} {
		v, err := adc.ReadRegister(r)
		if err != nil {
			return err
		}
		ofc |= uint32(v) << (8 * i)
	}
	for i, r := range []ads1256.Register{ads1256.RegFSC0, ads1256.RegFSC1, ads1256.RegFSC2} {
		v, err := adc.ReadRegister(r)
		if err != nil {
			return err
		}
		fsc |= uint32(v) << (8 * i)
	}
	log.Info().Str("ofc", hex24(ofc)).Str("fsc", hex24(fsc)).Msg("calibration registers")
	return nil
}
