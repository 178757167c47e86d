package zone

// ResetRange issues BLKRESETZONE over every zone in [first, afterLast) and
// resets each zone's write pointer back to its start, ported from zbd.c's
// zbd_reset_range. Every zone in the range is locked, in ascending index
// order, before BLKRESETZONE is issued and stays locked until its write
// pointer has been updated.
func (d *Device) ResetRange(r Reporter, first, afterLast uint32) error {
	if afterLast <= first {
		return nil
	}
	start := d.Zones[first].Start
	end := d.Zones[afterLast].Start

	for i := first; i < afterLast; i++ {
		d.Zones[i].Lock()
	}
	defer func() {
		for i := first; i < afterLast; i++ {
			d.Zones[i].Unlock()
		}
	}()

	if err := r.ResetZones(start, end-start); err != nil {
		return err
	}

	for i := first; i < afterLast; i++ {
		z := d.Zones[i]
		z.Wp = z.Start
		z.Cond = CondEmpty
	}
	return nil
}

// ResetZone resets a single zone, ported from zbd.c's zbd_reset_zone. The
// caller must already hold z's mutex; it is re-locked on return, matching
// the original's "always return with the zone locked" contract.
func (d *Device) ResetZone(r Reporter, idx uint32) error {
	z := d.Zones[idx]
	end := d.Zones[idx+1].Start

	z.Unlock()
	err := r.ResetZones(z.Start, end-z.Start)
	z.Lock()
	if err != nil {
		return err
	}
	z.Wp = z.Start
	z.Cond = CondEmpty
	return nil
}

// ResetZones sweeps [first, afterLast) and resets any sequential zone that
// is full, or every sequential zone in range when allZones is true;
// conventional zones are never reset. It coalesces contiguous runs of
// to-be-reset zones into a single ResetRange call. Ported from zbd.c's
// zbd_reset_zones.
func (d *Device) ResetZones(r Reporter, first, afterLast uint32, allZones bool) (int, error) {
	nReset := 0
	i := first
	for i < afterLast {
		z := d.Zones[i]
		z.Lock()
		needsReset := z.IsSeq() && (allZones || z.Cond == CondFull)
		z.Unlock()

		if !needsReset {
			i++
			continue
		}

		runStart := i
		for i < afterLast {
			z := d.Zones[i]
			z.Lock()
			stillNeeds := z.IsSeq() && (allZones || z.Cond == CondFull)
			z.Unlock()
			if !stillNeeds {
				break
			}
			i++
		}

		if err := d.ResetRange(r, runStart, i); err != nil {
			return nReset, err
		}
		nReset += int(i - runStart)
	}
	return nReset, nil
}

// FileReset resets every sequential zone in the device before a verification run
// begins, ported from zbd.c's zbd_file_reset: it always resets, regardless
// of current zone condition.
func (d *Device) FileReset(r Reporter) error {
	_, err := d.ResetZones(r, 0, d.NrZones, true)
	return err
}
