package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	resetZoneSize int64
	resetMem      bool
	resetAll      bool
	resetZone     uint32
)

var resetCmd = &cobra.Command{
	Use:   "reset <path>",
	Short: "Reset one zone, or every zone, on a device",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReset(args[0])
	},
}

func init() {
	resetCmd.Flags().Int64Var(&resetZoneSize, "zone-size", 256<<20, "zone size in bytes, for non-ZBD fallback or --mem devices")
	resetCmd.Flags().BoolVar(&resetMem, "mem", false, "treat path as a stat-only placeholder backed by an in-memory zoned device")
	resetCmd.Flags().BoolVar(&resetAll, "all", false, "reset every zone")
	resetCmd.Flags().Uint32Var(&resetZone, "zone", 0, "index of the single zone to reset")
	rootCmd.AddCommand(resetCmd)
}

func runReset(path string) error {
	d, r, err := openDevice(path, resetZoneSize, resetMem)
	if err != nil {
		return err
	}

	first, afterLast := resetZone, resetZone+1
	if resetAll {
		first, afterLast = 0, d.NrZones
	}

	if err := d.ResetRange(r, first, afterLast); err != nil {
		return fmt.Errorf("zbdctl: reset failed: %w", err)
	}

	n := afterLast - first
	logger.Info("zones reset", "path", path, "count", n, "first", first)
	fmt.Printf("reset %d zone(s) starting at %d\n", n, first)
	return nil
}
