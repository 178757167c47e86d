package zone

import "testing"

func TestVerifySizesRoundsOffsetUp(t *testing.T) {
	d := newTestDevice(4, 1024) // 512KiB zones
	zoneBytes := uint64(1024) << 9

	offset, size := d.VerifySizes(zoneBytes+100, 3*zoneBytes)
	if offset != 2*zoneBytes {
		t.Errorf("expected offset rounded up to %d, got %d", 2*zoneBytes, offset)
	}
	if size != 2*zoneBytes {
		t.Errorf("expected size shrunk and rounded down to %d, got %d", 2*zoneBytes, size)
	}
}

func TestVerifySizesRoundsSizeDown(t *testing.T) {
	d := newTestDevice(4, 1024)
	zoneBytes := uint64(1024) << 9

	offset, size := d.VerifySizes(0, 2*zoneBytes+100)
	if offset != 0 {
		t.Errorf("expected offset unchanged at 0, got %d", offset)
	}
	if size != 2*zoneBytes {
		t.Errorf("expected size rounded down to %d, got %d", 2*zoneBytes, size)
	}
}

func TestVerifySizesIdempotent(t *testing.T) {
	d := newTestDevice(4, 1024)
	zoneBytes := uint64(1024) << 9

	o1, s1 := d.VerifySizes(zoneBytes+100, 3*zoneBytes)
	o2, s2 := d.VerifySizes(o1, s1)
	if o1 != o2 || s1 != s2 {
		t.Errorf("VerifySizes is not idempotent: (%d,%d) -> (%d,%d)", o1, s1, o2, s2)
	}
}

func TestVerifyBlockSize(t *testing.T) {
	d := newTestDevice(4, 1024) // zone size = 1024<<9 = 524288 bytes

	if !d.VerifyBlockSize(4096) {
		t.Error("expected 4096 to divide the zone size")
	}
	if d.VerifyBlockSize(524289) {
		t.Error("expected a block size larger than and not dividing the zone size to fail")
	}
	if !d.VerifyBlockSize(524288) {
		t.Error("expected a block size equal to the zone size to pass")
	}
}

func TestIsSeqJob(t *testing.T) {
	if !IsSeqJob(false) {
		t.Error("expected non-random job to be sequential")
	}
	if IsSeqJob(true) {
		t.Error("expected random job not to be sequential")
	}
}

func TestIsSequentialRangeTrueWhenRangeOverlapsSeqZone(t *testing.T) {
	d := newTestDevice(4, 1024)
	zoneBytes := uint64(1024) << 9

	if !d.IsSequentialRange(0, zoneBytes) {
		t.Error("expected a range covering a SEQWRITE_REQUIRED zone to be sequential")
	}
}

func TestIsSequentialRangeFalseForConventionalOnlyRange(t *testing.T) {
	d := newTestDevice(4, 1024)
	zoneBytes := uint64(1024) << 9
	d.Zones[0].Type = TypeConventional
	d.Zones[1].Type = TypeConventional

	if d.IsSequentialRange(0, 2*zoneBytes) {
		t.Error("expected a conventional-only range not to be sequential")
	}
}

func TestIsSequentialRangeTrueWhenPartiallyOverlappingSeqZone(t *testing.T) {
	d := newTestDevice(4, 1024)
	zoneBytes := uint64(1024) << 9
	d.Zones[0].Type = TypeConventional

	// range spans the tail of the conventional zone 0 and the first half of seq zone 1
	if !d.IsSequentialRange(zoneBytes/2, zoneBytes) {
		t.Error("expected a range overlapping any SEQWRITE_REQUIRED zone to be sequential")
	}
}
