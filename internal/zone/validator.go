package zone

import "golang.org/x/sys/unix"

// zoneSizeBytes returns the device's zone size in bytes.
func (d *Device) zoneSizeBytes() uint64 {
	return d.ZoneSize << 9
}

// VerifySizes rounds a requested [offset, offset+size) byte range to zone
// boundaries, ported from zbd.c's zbd_verify_sizes: the starting offset is
// rounded up to the next zone boundary, the size is rounded down so the
// range never spans a partial zone at either end.
func (d *Device) VerifySizes(offset, size uint64) (newOffset, newSize uint64) {
	zs := d.zoneSizeBytes()
	if zs == 0 {
		return offset, size
	}

	if offset%zs != 0 {
		newOffset = ((offset / zs) + 1) * zs
		if newOffset-offset >= size {
			return newOffset, 0
		}
		size -= newOffset - offset
		offset = newOffset
	}

	if size%zs != 0 {
		size = (size / zs) * zs
	}

	return offset, size
}

// VerifyBlockSize reports whether blockSize evenly divides the device's
// zone size, ported from zbd.c's zbd_verify_bs.
func (d *Device) VerifyBlockSize(blockSize uint64) bool {
	zs := d.zoneSizeBytes()
	return zs != 0 && zs%blockSize == 0
}

// UsingDirectIO reports whether fd was opened with O_DIRECT, ported from
// zbd.c's zbd_using_direct_io. Host-managed devices require this so writes
// land exactly where the kernel reports the write pointer.
func UsingDirectIO(fd int) bool {
	flags, err := unix.FcntlInt(uintptr(fd), unix.F_GETFL, 0)
	if err != nil {
		return false
	}
	return flags&unix.O_DIRECT != 0
}

// IsSeqJob reports whether a workload accessing the device must stick to
// strictly increasing offsets, ported from zbd.c's zbd_is_seq_job: random
// access patterns are only legal against conventional zones or zones still
// entirely below their write pointer.
func IsSeqJob(random bool) bool {
	return !random
}

// IsSequentialRange reports whether [offset, offset+size) overlaps any
// zone that must be written sequentially, ported from the gating role
// zbd_is_seq_job plays in zbd_verify_sizes: a range made up entirely of
// conventional zones is never subject to zone-boundary rounding, since
// nothing in it enforces a write pointer.
func (d *Device) IsSequentialRange(offset, size uint64) bool {
	if size == 0 || len(d.Zones) == 0 {
		return false
	}
	first := d.ZoneIdx(offset)
	last := d.ZoneIdx(offset + size - 1)
	if last > d.NrZones {
		last = d.NrZones
	}
	for i := first; i <= last && i < d.NrZones; i++ {
		if d.Zones[i].IsSeq() {
			return true
		}
	}
	return false
}
