package zone

// PostSubmit advances a zone's write pointer after a write completes
// successfully, ported from zbd.c's zbd_post_submit. The advance is capped
// at the start of the next zone so a short write inside the last sectors of
// a zone can never push Wp past it. No-op for conventional zones, which
// carry no write pointer semantics.
//
// The caller must hold idx's zone mutex; PostSubmit releases it.
func PostSubmit(d *Device, idx uint32, bytesWritten uint64, success bool) {
	z := d.Zones[idx]
	defer z.Unlock()

	if !success || z.Type == TypeConventional {
		return
	}

	newWp := z.Wp + (bytesWritten >> 9)
	limit := d.Zones[idx+1].Start
	if newWp > limit {
		newWp = limit
	}
	z.Wp = newWp
	if z.Wp >= z.Start+d.ZoneSize {
		z.Cond = CondFull
	} else if z.Wp > z.Start {
		z.Cond = CondImpOpen
	}
}
