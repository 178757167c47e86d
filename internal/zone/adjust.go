package zone

import "errors"

// ErrEndOfFile is returned by Adjust when a request cannot be satisfied
// because the device (or, for random reads, the written region of it) has
// no more data to give, the Go equivalent of zbd.c's io_u_eof decision.
var ErrEndOfFile = errors.New("zbd: end of file")

// Direction is the I/O direction being adjusted.
type Direction int

const (
	DirRead Direction = iota
	DirWrite
)

// Request is one I/O to adjust against a device's zone layout. Offset and
// Size are in bytes; Adjust rewrites both in place to a legal range.
type Request struct {
	Dir    Direction
	Offset uint64
	Size   uint64
	Random bool // true for workloads that do not issue strictly increasing offsets
}

// Adjust rewrites req so it lands within a single zone's legal range,
// returning the zone index it was adjusted against. This is the Go
// equivalent of zbd.c's zbd_adjust_block: the entry point every I/O must
// pass through before it reaches the backing store.
//
// minBS is the minimum block size requests must stay aligned to. rangeStart
// and rangeEnd are the worker's configured byte range; a read that falls
// over to another zone never leaves it, and a write whose write pointer
// snaps outside it is rejected as EOF.
func Adjust(d *Device, r Reporter, req *Request, minBS, rangeStart, rangeEnd uint64) (uint32, error) {
	idx := d.ZoneIdx(req.Offset)
	if idx >= d.NrZones {
		return idx, ErrEndOfFile
	}
	z := d.Zones[idx]

	if z.Type == TypeConventional {
		return idx, nil
	}

	z.Lock()

	switch req.Dir {
	case DirRead:
		zf, zl := d.ZoneIdx(rangeStart), d.ZoneIdx(rangeEnd)
		return adjustRead(d, z, idx, req, minBS, zf, zl)
	case DirWrite:
		return adjustWrite(d, r, z, idx, req, minBS, rangeStart, rangeEnd)
	default:
		z.Unlock()
		return idx, errors.New("zbd: unknown direction")
	}
}

// adjustRead adapts a read request, ported from zbd_adjust_block's read
// path. A random read is remapped within the zone's written region: modulo
// (writtenBytes - length + 1), then floor-aligned to minBS, so the whole
// read stays inside data the zone actually holds. A sequential read that
// lands at or past the write pointer, or targets an OFFLINE zone, never
// hits the medium, so the lock is released and FindZone is asked for
// another zone with enough written data, bounded by the worker's
// configured zone range [zf, zl). The caller must hold z locked on entry;
// it is always unlocked before this returns.
func adjustRead(d *Device, z *Info, idx uint32, req *Request, minBS uint64, zf, zl uint32) (uint32, error) {
	rng := int64(0)
	if z.Cond != CondOffline {
		rng = int64(z.Wp-z.Start)<<9 - int64(req.Size)
	}

	if req.Random && rng >= 0 {
		defer z.Unlock()
		zoneStart := z.Start << 9
		offsetInZone := (req.Offset - zoneStart) % uint64(rng+1)
		if minBS > 0 {
			offsetInZone -= offsetInZone % minBS
		}
		req.Offset = zoneStart + offsetInZone
		return idx, nil
	}

	if z.Cond == CondOffline || req.Offset+req.Size > z.Wp<<9 {
		z.Unlock()
		nz, nidx, ok := FindZone(d, idx, zf, zl, minBS, req.Random)
		if !ok {
			return idx, ErrEndOfFile
		}
		z, idx = nz, nidx
		req.Offset = z.Start << 9
	}
	defer z.Unlock()

	if req.Offset+req.Size > z.Wp<<9 {
		return idx, ErrEndOfFile
	}
	return idx, nil
}

// adjustWrite adapts a write request, ported from zbd_adjust_block's write
// path: a request larger than a whole zone is rejected outright, since
// writes may never span zones. If the zone has no room left for the
// request, it is reset (which drops its write pointer back to Start) and
// the request is pinned to the new write pointer; otherwise the request is
// pinned to the current write pointer and shrunk, rounded down to minBS,
// so it never crosses the zone boundary. A write whose pinned offset falls
// outside the worker's configured [rangeStart, rangeEnd) range is rejected
// as EOF, ported from zbd_adjust_block's is_valid_offset check.
//
// Unlike adjustRead, a successful call returns with z still locked: the
// caller must route the accepted write through PostSubmit, which unlocks
// it once the write pointer has been advanced. Only the error/EOF paths
// unlock here, since there is nothing left for PostSubmit to finish.
func adjustWrite(d *Device, r Reporter, z *Info, idx uint32, req *Request, minBS, rangeStart, rangeEnd uint64) (uint32, error) {
	if req.Size > d.ZoneSize<<9 {
		z.Unlock()
		return idx, ErrEndOfFile
	}

	required := minBS
	if required == 0 {
		required = req.Size
	}
	if d.Full(z, required) {
		if err := d.ResetZone(r, idx); err != nil {
			z.Unlock()
			return idx, err
		}
	}

	req.Offset = z.Wp << 9
	if !IsValidOffset(rangeStart, rangeEnd-rangeStart, req.Offset) {
		z.Unlock()
		return idx, ErrEndOfFile
	}

	zoneEnd := (z.Start + d.ZoneSize) << 9
	if req.Offset+req.Size > zoneEnd {
		remaining := zoneEnd - req.Offset
		if minBS > 0 {
			remaining -= remaining % minBS
		}
		req.Size = remaining
	}
	if req.Size == 0 {
		z.Unlock()
		return idx, ErrEndOfFile
	}
	return idx, nil
}

// FindZone searches for another zone holding at least minBS bytes of
// written data for a read to fall over to, ported from zbd.c's
// zbd_find_zone: forward from zb+1 to zl always, and — for random
// workloads only — backward from zb-1 down to zf. A forward search that
// reaches an OFFLINE zone stops there for sequential workloads (there is
// nothing sequential to promote to beyond a gap); a random search instead
// skips OFFLINE zones in either direction, since it may still find data on
// the other side. The returned zone is locked; the caller must unlock it.
func FindZone(d *Device, zb, zf, zl uint32, minBS uint64, random bool) (*Info, uint32, bool) {
	minSectors := minBS >> 9

	for i := int64(zb) + 1; i < int64(zl); i++ {
		z := d.Zones[i]
		if z.Cond == CondOffline {
			if !random {
				break
			}
			continue
		}
		z.Lock()
		if z.Start+minSectors <= z.Wp {
			return z, uint32(i), true
		}
		z.Unlock()
	}

	if !random {
		return nil, 0, false
	}

	for i := int64(zb) - 1; i >= int64(zf); i-- {
		z := d.Zones[i]
		if z.Cond == CondOffline {
			continue
		}
		z.Lock()
		if z.Start+minSectors <= z.Wp {
			return z, uint32(i), true
		}
		z.Unlock()
	}
	return nil, 0, false
}

// ReplayWriteOrder computes the next verification-replay offset within a
// zone, ported from zbd.c's zbd_replay_write_order: verification walks a
// zone in minBS-sized steps regardless of the original write order.
func ReplayWriteOrder(z *Info, minBS uint64) uint64 {
	offset := (z.Start << 9) + uint64(z.VerifyBlock)*minBS
	z.VerifyBlock++
	return offset
}
