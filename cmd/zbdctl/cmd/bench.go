package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/behrlich/go-zbd/backend/zonemem"
	"github.com/behrlich/go-zbd/internal/bufpool"
	zbd "github.com/behrlich/go-zbd"
)

var (
	benchSize      int64
	benchZoneSize  int64
	benchBlockSize int64
	benchCount     int
	benchVerify    bool
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Run a synthetic sequential-write workload against an in-memory zoned device",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBench()
	},
}

func init() {
	benchCmd.Flags().Int64Var(&benchSize, "size", 64<<20, "device size in bytes")
	benchCmd.Flags().Int64Var(&benchZoneSize, "zone-size", 8<<20, "zone size in bytes")
	benchCmd.Flags().Int64Var(&benchBlockSize, "block-size", 4096, "write block size in bytes")
	benchCmd.Flags().IntVar(&benchCount, "count", 4096, "number of write blocks to issue")
	benchCmd.Flags().BoolVar(&benchVerify, "verify", false, "enable write-pointer-aligned reset/verify mode")
	rootCmd.AddCommand(benchCmd)
}

func runBench() error {
	f, err := os.CreateTemp("", "zbdctl-bench-*.img")
	if err != nil {
		return fmt.Errorf("zbdctl: %w", err)
	}
	path := f.Name()
	defer os.Remove(path)
	if err := f.Truncate(benchSize); err != nil {
		f.Close()
		return fmt.Errorf("zbdctl: %w", err)
	}
	f.Close()

	dev := zonemem.NewDevice(benchSize, uint64(benchZoneSize))
	metrics := zbd.NewMetrics()

	w := &zbd.Worker{
		Path:     path,
		Offset:   0,
		Size:     uint64(benchSize),
		MinBS:    uint64(benchBlockSize),
		MaxBS:    uint64(benchBlockSize),
		Verify:   benchVerify,
		Observer: zbd.NewMetricsObserver(metrics),
	}
	if err := zbd.Init(w, dev); err != nil {
		return fmt.Errorf("zbdctl: init failed: %w", err)
	}
	defer zbd.Free(w)

	if err := zbd.FileReset(w); err != nil {
		return fmt.Errorf("zbdctl: file reset failed: %w", err)
	}

	buf := bufpool.GetBuffer(uint32(benchBlockSize))
	defer bufpool.PutBuffer(buf)
	offset := uint64(0)
	start := time.Now()

	for i := 0; i < benchCount; i++ {
		io := &zbd.IO{Dir: zbd.DirWrite, Offset: offset, Length: uint64(benchBlockSize)}
		decision, err := zbd.Adjust(w, io)
		if err != nil {
			return fmt.Errorf("zbdctl: adjust failed at block %d: %w", i, err)
		}
		if decision == zbd.EOF {
			logger.Info("workload hit end of file, restarting offset", "block", i)
			offset = 0
			continue
		}

		_, writeErr := dev.WriteAt(buf, int64(io.Offset))
		zbd.PostSubmit(w, io, writeErr == nil)
		if writeErr != nil {
			return fmt.Errorf("zbdctl: write failed at block %d: %w", i, writeErr)
		}

		offset = io.Offset + io.Length
		if i > 0 && i%1024 == 0 {
			logger.Info("bench progress", "blocks", i, "bytes", metrics.Snapshot().WriteBytes)
		}
	}

	elapsed := time.Since(start)
	snap := metrics.Snapshot()
	fmt.Printf("wrote %d blocks (%d bytes) in %s\n", benchCount, snap.WriteBytes, elapsed)
	fmt.Printf("resets issued: %d  zone-full triggers: %d\n", snap.ResetsIssued, snap.ZoneFullTriggers)
	fmt.Printf("avg latency: %dns  p50: %dns  p99: %dns\n", snap.AvgLatencyNs, snap.LatencyP50Ns, snap.LatencyP99Ns)
	return nil
}
