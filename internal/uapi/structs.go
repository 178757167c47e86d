package uapi

import "unsafe"

// BlkZone mirrors Linux's struct blk_zone (linux/blkzoned.h), as returned
// in the array following a struct blk_zone_report.
//
//	struct blk_zone {
//	  __u64 start;          // zone start sector
//	  __u64 len;            // zone length in sectors
//	  __u64 wp;             // zone write pointer position
//	  __u8  type;           // zone type (BLK_ZONE_TYPE_*)
//	  __u8  cond;           // zone condition (BLK_ZONE_COND_*)
//	  __u8  non_seq;        // non-sequential write resources active
//	  __u8  reset;          // reset write pointer recommended
//	  __u8  resv[4];
//	  __u64 capacity;       // zone capacity, <= len
//	  __u8  reserved[24];
//	};
type BlkZone struct {
	Start    uint64
	Len      uint64
	Wp       uint64
	Type     uint8
	Cond     uint8
	NonSeq   uint8
	Reset    uint8
	Resv     [4]uint8
	Capacity uint64
	Reserved [24]uint8
}

// Compile-time size check, matches the kernel's 64-byte struct blk_zone.
var _ [64]byte = [unsafe.Sizeof(BlkZone{})]byte{}

// IsSeq reports whether the zone must be written sequentially.
func (z *BlkZone) IsSeq() bool {
	return z.Type == BLK_ZONE_TYPE_SEQWRITE_REQ || z.Type == BLK_ZONE_TYPE_SEQWRITE_PREF
}

// IsFull reports whether the zone's write pointer has reached its end.
func (z *BlkZone) IsFull() bool {
	return z.Cond == BLK_ZONE_COND_FULL
}

// blkZoneReportHeaderSize is the fixed portion of struct blk_zone_report,
// not counting the variable-length zones[] array that follows it.
const blkZoneReportHeaderSize = 16

// BlkZoneReport mirrors the fixed header of Linux's struct blk_zone_report
// used with BLKREPORTZONE. The kernel appends `NrZones` struct blk_zone
// entries directly after this header in the same ioctl buffer.
//
//	struct blk_zone_report {
//	  __u64 sector;
//	  __u32 nr_zones;
//	  __u32 flags;
//	  struct blk_zone zones[0];
//	};
type BlkZoneReport struct {
	Sector  uint64
	NrZones uint32
	Flags   uint32
}

// Compile-time size check for the fixed header.
var _ [blkZoneReportHeaderSize]byte = [unsafe.Sizeof(BlkZoneReport{})]byte{}

// blkZoneRangeSize is struct blk_zone_range's size, used to derive
// BLKRESETZONE's ioctl number.
const blkZoneRangeSize = 16

// BlkZoneRange mirrors Linux's struct blk_zone_range, used with
// BLKRESETZONE (and the related BLKOPENZONE/BLKCLOSEZONE/BLKFINISHZONE).
//
//	struct blk_zone_range {
//	  __u64 sector;
//	  __u64 nr_sectors;
//	};
type BlkZoneRange struct {
	Sector    uint64
	NrSectors uint64
}

// Compile-time size check.
var _ [blkZoneRangeSize]byte = [unsafe.Sizeof(BlkZoneRange{})]byte{}
