package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/yunginnanet/ads1256/internal/config"
	"github.com/yunginnanet/ads1256/pkg/ads1256"
)

func init() {
	rootCmd.AddCommand(infoCmd)
}

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Report the chip ID and register contents",
	Long:  "Initialise the ADS1256, check its chip ID and dump every register.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withADC(cmd, info)
	},
}

func info(adc *ads1256.ADS1256, s *config.Settings) error {
	id, err := adc.ReadChipID()
	if err != nil {
		return err
	}
	regs, err := adc.ReadAllRegisters()
	if err != nil {
		return fmt.Errorf("failed to read ADS1256 registers: %w", err)
	}
	log.Info().Int("id", id).Str("backend", s.Backend).Float64("vref", adc.VRef()).
		Float64("lsb", adc.VoltsPerCount()).Msg("ADS1256")

	keys := make([]ads1256.Register, 0, len(regs))
	for r := range regs {
		keys = append(keys, r)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	for _, r := range keys {
		fmt.Printf("%-6s 0x%02X  0x%02X\n", r, byte(r), regs[r])
	}
	return nil
}
