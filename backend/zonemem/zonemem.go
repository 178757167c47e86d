// Package zonemem provides an in-memory zoned block device: a byte slice
// plus a zone table, driven through the same Init/Adjust/PostSubmit path a
// real host-managed drive would use. It exists so the adaptation layer can
// be exercised (benchmarked, fuzzed, demoed) without a real ZBD attached.
package zonemem

import (
	"fmt"
	"sync"

	"github.com/behrlich/go-zbd/internal/uapi"
	"github.com/behrlich/go-zbd/internal/zone"
)

// Device is a zone.Reporter backed by a plain byte slice instead of a real
// block device. Where the teacher's Memory backend sharded a single
// sync.RWMutex across fixed 64KB ranges, Device reports its own zone table
// through the ioctl surface and leaves locking to the zone.Device the
// caller discovers against it: the zone mutex a worker holds between
// Adjust and PostSubmit is the only serialization a single-writer-per-zone
// workload needs.
type Device struct {
	mu    sync.Mutex // guards the zone table only, not data
	data  []byte
	size  int64
	zones []uapi.BlkZone
}

// NewDevice creates a zoneSizeBytes-zoned memory device of the given size,
// every zone starting empty and sequential-write-required.
func NewDevice(size int64, zoneSizeBytes uint64) *Device {
	zoneSize := zoneSizeBytes >> 9
	nrSectors := uint64(size) >> 9
	nrZones := (nrSectors + zoneSize - 1) / zoneSize

	zones := make([]uapi.BlkZone, nrZones)
	for i := range zones {
		start := uint64(i) * zoneSize
		zones[i] = uapi.BlkZone{
			Start: start,
			Len:   zoneSize,
			Wp:    start,
			Type:  uapi.BLK_ZONE_TYPE_SEQWRITE_REQ,
			Cond:  uapi.BLK_ZONE_COND_EMPTY,
		}
	}
	return &Device{data: make([]byte, size), size: size, zones: zones}
}

// ReportZones implements zone.Reporter.
func (d *Device) ReportZones(startSector uint64, buf []byte) ([]uapi.BlkZone, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var out []uapi.BlkZone
	for _, z := range d.zones {
		if z.Start >= startSector {
			out = append(out, z)
		}
	}
	return out, nil
}

// ResetZones implements zone.Reporter: it drops the reported write pointer
// back to each affected zone's start and zeroes the underlying bytes, the
// same effect BLKRESETZONE has on a real host-managed drive.
func (d *Device) ResetZones(startSector, nrSectors uint64) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	end := startSector + nrSectors
	for i := range d.zones {
		z := &d.zones[i]
		if z.Start < startSector || z.Start >= end {
			continue
		}
		z.Wp = z.Start
		z.Cond = uapi.BLK_ZONE_COND_EMPTY

		zoneStart := int64(z.Start) << 9
		zoneEnd := zoneStart + int64(z.Len<<9)
		if zoneEnd > d.size {
			zoneEnd = d.size
		}
		for b := zoneStart; b < zoneEnd; b++ {
			d.data[b] = 0
		}
	}
	return nil
}

// ReadAt reads from the device's backing bytes.
func (d *Device) ReadAt(p []byte, off int64) (int, error) {
	if off >= d.size {
		return 0, nil
	}
	if available := d.size - off; int64(len(p)) > available {
		p = p[:available]
	}
	return copy(p, d.data[off:off+int64(len(p))]), nil
}

// WriteAt writes to the device's backing bytes. Callers are expected to
// have already routed the offset through zbd.Adjust so it lands within the
// zone's legal range.
func (d *Device) WriteAt(p []byte, off int64) (int, error) {
	if off >= d.size {
		return 0, fmt.Errorf("zonemem: write at %d beyond device size %d", off, d.size)
	}
	if available := d.size - off; int64(len(p)) > available {
		p = p[:available]
	}
	return copy(d.data[off:off+int64(len(p))], p), nil
}

// Size returns the device's total size in bytes.
func (d *Device) Size() int64 { return d.size }

// Close releases the backing memory.
func (d *Device) Close() error {
	d.data = nil
	return nil
}

// Flush is a no-op; the memory backend has no write-back cache to drain.
func (d *Device) Flush() error { return nil }

var _ zone.Reporter = (*Device)(nil)
