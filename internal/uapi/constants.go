// Package uapi provides Linux kernel UAPI definitions for zoned block
// devices (linux/blkzoned.h) plus the sysfs attribute used to detect them,
// and the manual marshal/unmarshal layer that moves them across the ioctl
// boundary.
package uapi

import "fmt"

// Zone types (struct blk_zone.type)
const (
	BLK_ZONE_TYPE_CONVENTIONAL  = 1
	BLK_ZONE_TYPE_SEQWRITE_REQ  = 2
	BLK_ZONE_TYPE_SEQWRITE_PREF = 3
)

// Zone conditions (struct blk_zone.cond)
const (
	BLK_ZONE_COND_NOT_WP   = 0x0
	BLK_ZONE_COND_EMPTY    = 0x1
	BLK_ZONE_COND_IMP_OPEN = 0x2
	BLK_ZONE_COND_EXP_OPEN = 0x3
	BLK_ZONE_COND_CLOSED   = 0x4
	BLK_ZONE_COND_READONLY = 0xD
	BLK_ZONE_COND_FULL     = 0xE
	BLK_ZONE_COND_OFFLINE  = 0xF
)

// Zoned models, as reported by the sysfs "zoned" queue attribute.
const (
	ZBD_DM_NONE = iota
	ZBD_DM_HOST_AWARE
	ZBD_DM_HOST_MANAGED
)

// ZonedModelString returns the sysfs text for a zoned model.
func ZonedModelString(model int) string {
	switch model {
	case ZBD_DM_HOST_AWARE:
		return "host-aware"
	case ZBD_DM_HOST_MANAGED:
		return "host-managed"
	default:
		return "none"
	}
}

// ParseZonedModel maps the sysfs "zoned" attribute text to a model.
func ParseZonedModel(s string) int {
	switch s {
	case "host-aware":
		return ZBD_DM_HOST_AWARE
	case "host-managed":
		return ZBD_DM_HOST_MANAGED
	default:
		return ZBD_DM_NONE
	}
}

// ioctl encoding constants (asm-generic/ioctl.h).
const (
	_IOC_WRITE     = 1
	_IOC_READ      = 2
	_IOC_SIZEBITS  = 14
	_IOC_DIRBITS   = 2
	_IOC_TYPEBITS  = 8
	_IOC_NRBITS    = 8
	_IOC_NRSHIFT   = 0
	_IOC_TYPESHIFT = _IOC_NRSHIFT + _IOC_NRBITS
	_IOC_SIZESHIFT = _IOC_TYPESHIFT + _IOC_TYPEBITS
	_IOC_DIRSHIFT  = _IOC_SIZESHIFT + _IOC_SIZEBITS
)

// blockIoctlType is the 'type' byte ioctl.h reserves for block-layer ioctls.
const blockIoctlType = 0x12

// IoctlEncode builds an ioctl command number from its direction, type,
// number and payload size, mirroring Linux's _IOC() macro.
func IoctlEncode(dir, typ, nr, size uint32) uint32 {
	return (dir << _IOC_DIRSHIFT) |
		(size << _IOC_SIZESHIFT) |
		(typ << _IOC_TYPESHIFT) |
		(nr << _IOC_NRSHIFT)
}

// Zone ioctl numbers, derived the same way the kernel's blkzoned.h does:
//
//	BLKREPORTZONE = _IOWR(0x12, 130, struct blk_zone_report)
//	BLKRESETZONE  = _IOW(0x12, 131, struct blk_zone_range)
var (
	BLKREPORTZONE = IoctlEncode(_IOC_READ|_IOC_WRITE, blockIoctlType, 130, blkZoneReportHeaderSize)
	BLKRESETZONE  = IoctlEncode(_IOC_WRITE, blockIoctlType, 131, blkZoneRangeSize)
)

// ZonedAttrPath returns the sysfs path holding a block device's zoned model.
func ZonedAttrPath(major, minor uint32) string {
	return fmt.Sprintf("/sys/dev/block/%d:%d/queue/zoned", major, minor)
}
