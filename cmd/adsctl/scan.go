package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/yunginnanet/ads1256/internal/config"
	"github.com/yunginnanet/ads1256/pkg/ads1256"
)

func init() {
	scanCmd.Flags().DurationVarP(&scanOpts.Interval, "interval", "i", time.Second, "delay between rounds, 0 for back to back")
	scanCmd.Flags().DurationVarP(&scanOpts.Duration, "duration", "d", 0, "stop after this long, 0 to run until interrupted")
	scanCmd.Flags().BoolVarP(&scanOpts.Raw, "raw", "r", false, "print the 24-bit codes instead of volts")
	rootCmd.AddCommand(scanCmd)
}

var scanCmd = &cobra.Command{
	Use:   "scan [channel...]",
	Short: "Scan channels continuously",
	Long: "Read every channel in turn, round after round, until interrupted.\n\n" +
		"Channels are given as for read.",
	Example: "  adsctl scan -i 100ms 0 1 2 3\n  adsctl scan -d 1m 0:1",
	RunE: func(cmd *cobra.Command, args []string) error {
		pairs, err := parsePairs(args)
		if err != nil {
			return err
		}
		return withADC(cmd, func(adc *ads1256.ADS1256, _ *config.Settings) error {
			return scan(cmd.Context(), adc, pairs)
		})
	},
}

var scanOpts = struct {
	Interval time.Duration
	Duration time.Duration
	Raw      bool
}{}

func scan(ctx context.Context, adc *ads1256.ADS1256, pairs []ads1256.ChannelPair) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	if scanOpts.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, scanOpts.Duration)
		defer cancel()
	}

	cs, err := adc.ScanChannels(ctx, scanOpts.Interval, func(p ads1256.ChannelPair, code int32, volts float64) {
		printSample(p, code, volts, scanOpts.Raw)
	}, pairs...)
	if err != nil {
		return err
	}

	// the scan ends on its own after too many errors
	err = cs.Wait(ctx)
	if ctx.Err() == nil {
		log.Warn().Msg("scan gave up")
		return err
	}
	cs.Stop()
	err = cs.Wait(context.Background())
	log.Info().Msg("scan stopped")
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}
