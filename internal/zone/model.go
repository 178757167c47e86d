// Package zone implements the zoned-block-device adaptation layer: zone
// discovery, write-pointer tracking, reset scheduling, and the per-I/O
// offset/length adjustment that keeps a workload's requests legal against
// a zoned device's sequential-write constraint.
//
// Ported from fio's zbd.c (linux/blkzoned.h semantics), generalized from a
// single global file table into a reusable, goroutine-safe package.
package zone

import (
	"sync"

	"github.com/behrlich/go-zbd/internal/uapi"
)

// Model classifies how a device reports itself through sysfs.
type Model int

const (
	ModelNone Model = iota
	ModelHostAware
	ModelHostManaged
)

func modelFromUAPI(m int) Model {
	switch m {
	case uapi.ZBD_DM_HOST_AWARE:
		return ModelHostAware
	case uapi.ZBD_DM_HOST_MANAGED:
		return ModelHostManaged
	default:
		return ModelNone
	}
}

// Type mirrors struct blk_zone.type.
type Type uint8

const (
	TypeConventional Type = uapi.BLK_ZONE_TYPE_CONVENTIONAL
	TypeSeqWriteReq  Type = uapi.BLK_ZONE_TYPE_SEQWRITE_REQ
	TypeSeqWritePref Type = uapi.BLK_ZONE_TYPE_SEQWRITE_PREF
)

// Cond mirrors struct blk_zone.cond.
type Cond uint8

const (
	CondNotWP   Cond = uapi.BLK_ZONE_COND_NOT_WP
	CondEmpty   Cond = uapi.BLK_ZONE_COND_EMPTY
	CondImpOpen Cond = uapi.BLK_ZONE_COND_IMP_OPEN
	CondExpOpen Cond = uapi.BLK_ZONE_COND_EXP_OPEN
	CondClosed  Cond = uapi.BLK_ZONE_COND_CLOSED
	CondReadonly Cond = uapi.BLK_ZONE_COND_READONLY
	CondFull    Cond = uapi.BLK_ZONE_COND_FULL
	CondOffline Cond = uapi.BLK_ZONE_COND_OFFLINE
)

// Info is one zone's mutable state, the Go equivalent of fio_zone_info.
// All fields after Start/Type are guarded by the zone's mutex (Lock/Unlock);
// callers holding it may read and mutate Wp, Cond and VerifyBlock freely.
type Info struct {
	Start       uint64 // zone start, in sectors
	Type        Type
	Cond        Cond
	Wp          uint64 // write pointer, in sectors
	ResetOnNext bool   // mirrors fio_zone_info.reset_zone
	VerifyBlock uint32 // replay cursor used during verification, in min_bs units

	mu sync.Mutex
}

// IsSeq reports whether the zone must be written sequentially.
func (z *Info) IsSeq() bool {
	return z.Type == TypeSeqWriteReq || z.Type == TypeSeqWritePref
}

// Lock acquires the zone's mutex. The caller must Unlock it.
func (z *Info) Lock() { z.mu.Lock() }

// Unlock releases the zone's mutex.
func (z *Info) Unlock() { z.mu.Unlock() }

// TryLock attempts to acquire the zone's mutex without blocking.
func (z *Info) TryLock() bool { return z.mu.TryLock() }

// Device holds the full zone layout for one block device, the Go
// equivalent of zoned_block_device_info. Zones is one longer than NrZones:
// the last entry is the sentinel used to compute the final zone's length.
type Device struct {
	Path         string
	Model        Model
	ZoneSize     uint64 // sectors
	ZoneSizeLog2 int    // -1 if ZoneSize is not a power of two
	NrZones      uint32
	Zones        []*Info // len == NrZones+1, last is the sentinel

	mu       sync.Mutex // guards Refcount only; zone state is guarded per-zone
	Refcount int
}

// ZoneIdx converts a byte offset into a zone index, ported from
// zbd_zone_idx. Offsets at or past the sentinel's start clamp to NrZones.
func (d *Device) ZoneIdx(offset uint64) uint32 {
	var idx uint32
	if d.ZoneSizeLog2 >= 0 {
		idx = uint32(offset >> uint(d.ZoneSizeLog2+9))
	} else {
		idx = uint32((offset >> 9) / d.ZoneSize)
	}
	if idx > d.NrZones {
		return d.NrZones
	}
	return idx
}

// Zone returns the zone at idx, or the sentinel if idx == NrZones.
func (d *Device) Zone(idx uint32) *Info {
	return d.Zones[idx]
}

// Full reports whether fewer than `required` bytes remain before the zone
// ends, ported from zbd_zone_full. The caller must hold z's mutex.
func (d *Device) Full(z *Info, required uint64) bool {
	return z.Type == TypeSeqWriteReq &&
		z.Wp+(required>>9) > z.Start+d.ZoneSize
}

// IsValidOffset reports whether offset falls within [base, base+size).
// Ported from zbd.c's is_valid_offset, generalized to take an explicit
// range instead of reading it off a global fio_file.
func IsValidOffset(base, size, offset uint64) bool {
	return offset-base < size
}
