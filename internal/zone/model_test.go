package zone

import "testing"

// newTestDevice builds a device with nrZones zones of zoneSize sectors
// each, all sequential-write-required, plus a sentinel.
func newTestDevice(nrZones uint32, zoneSize uint64) *Device {
	zones := make([]*Info, 0, nrZones+1)
	for i := uint32(0); i < nrZones; i++ {
		start := uint64(i) * zoneSize
		zones = append(zones, &Info{
			Start: start,
			Type:  TypeSeqWriteReq,
			Cond:  CondEmpty,
			Wp:    start,
		})
	}
	zones = append(zones, &Info{Start: uint64(nrZones) * zoneSize})

	return &Device{
		Path:         "/dev/test0",
		Model:        ModelHostManaged,
		ZoneSize:     zoneSize,
		ZoneSizeLog2: ilog2(zoneSize),
		NrZones:      nrZones,
		Zones:        zones,
	}
}

func TestZoneIdx(t *testing.T) {
	d := newTestDevice(4, 1024) // 1024 sectors/zone = 512KiB zones

	cases := []struct {
		offset uint64
		want   uint32
	}{
		{0, 0},
		{511 << 9, 0},
		{1024 << 9, 1},
		{3 * 1024 << 9, 3},
		{4 * 1024 << 9, 4}, // sentinel
		{100 * 1024 << 9, 4},
	}
	for _, c := range cases {
		if got := d.ZoneIdx(c.offset); got != c.want {
			t.Errorf("ZoneIdx(%d) = %d, want %d", c.offset, got, c.want)
		}
	}
}

func TestZoneIdxNonPowerOfTwo(t *testing.T) {
	d := newTestDevice(4, 1000) // not a power of two
	if d.ZoneSizeLog2 != -1 {
		t.Fatalf("expected ZoneSizeLog2 = -1 for non-power-of-two size, got %d", d.ZoneSizeLog2)
	}
	if got := d.ZoneIdx(2500 << 9); got != 2 {
		t.Errorf("ZoneIdx = %d, want 2", got)
	}
}

func TestIsSeq(t *testing.T) {
	seq := &Info{Type: TypeSeqWriteReq}
	pref := &Info{Type: TypeSeqWritePref}
	conv := &Info{Type: TypeConventional}

	if !seq.IsSeq() {
		t.Error("expected sequential-write-required zone to be IsSeq")
	}
	if !pref.IsSeq() {
		t.Error("expected sequential-write-preferred zone to be IsSeq")
	}
	if conv.IsSeq() {
		t.Error("expected conventional zone not to be IsSeq")
	}
}

func TestFull(t *testing.T) {
	d := newTestDevice(2, 1024)
	z := d.Zones[0]

	z.Wp = z.Start + 1000 // 24 sectors remain before the zone ends
	if d.Full(z, 20<<9) {
		t.Error("zone with 24 sectors free should not report full for a 20-sector write")
	}
	if !d.Full(z, 50<<9) {
		t.Error("zone with 24 sectors free should report full for a 50-sector write")
	}
}

func TestIsValidOffset(t *testing.T) {
	if !IsValidOffset(1000, 500, 1200) {
		t.Error("expected 1200 to be valid within [1000, 1500)")
	}
	if IsValidOffset(1000, 500, 1600) {
		t.Error("expected 1600 to be invalid within [1000, 1500)")
	}
}
