package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/yunginnanet/ads1256/internal/config"
	"github.com/yunginnanet/ads1256/pkg/ads1256"
)

func init() {
	readCmd.Flags().IntVarP(&readOpts.Count, "count", "n", 1, "samples per channel")
	readCmd.Flags().BoolVarP(&readOpts.Raw, "raw", "r", false, "print the 24-bit codes instead of volts")
	readCmd.Flags().DurationVarP(&readOpts.Interval, "interval", "i", 0, "delay between samples")
	rootCmd.AddCommand(readCmd)
}

var readCmd = &cobra.Command{
	Use:   "read [channel...]",
	Short: "Read channels once",
	Long: "Read each channel, selecting it, synchronising the modulator and waiting for DRDY.\n\n" +
		"A channel is 0 to 7, measured against AINCOM, or pos:neg for a differential pair, " +
		"e.g. 0:1 or 3:com. With no channels AIN0 to AIN7 are read.",
	Example: "  adsctl read 0 1 2:3\n  adsctl --gain 8 read -n 10 0:1",
	RunE: func(cmd *cobra.Command, args []string) error {
		pairs, err := parsePairs(args)
		if err != nil {
			return err
		}
		if readOpts.Count < 1 {
			return fmt.Errorf("count must be positive, got %d", readOpts.Count)
		}
		return withADC(cmd, func(adc *ads1256.ADS1256, _ *config.Settings) error {
			return read(adc, pairs)
		})
	},
}

var readOpts = struct {
	Count    int
	Raw      bool
	Interval time.Duration
}{}

func read(adc *ads1256.ADS1256, pairs []ads1256.ChannelPair) error {
	for i := 0; i < readOpts.Count; i++ {
		if i > 0 && readOpts.Interval > 0 {
			time.Sleep(readOpts.Interval)
		}
		for _, p := range pairs {
			code, err := adc.ReadChannelRaw(p)
			if err != nil {
				return err
			}
			printSample(p, code, float64(code)*adc.VoltsPerCount(), readOpts.Raw)
		}
	}
	return nil
}

func printSample(p ads1256.ChannelPair, code int32, volts float64, raw bool) {
	if raw {
		fmt.Printf("%s\t%d\n", p, code)
		return
	}
	fmt.Printf("%s\t%.7f\n", p, volts)
}
