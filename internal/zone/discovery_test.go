package zone

import (
	"os"
	"testing"

	"github.com/behrlich/go-zbd/internal/uapi"
)

// reportingFakeReporter serves BLKREPORTZONE from a canned zone list,
// returning every zone at or after startSector in a single call.
type reportingFakeReporter struct {
	zones []uapi.BlkZone
}

func (f *reportingFakeReporter) ReportZones(startSector uint64, buf []byte) ([]uapi.BlkZone, error) {
	var out []uapi.BlkZone
	for _, z := range f.zones {
		if z.Start >= startSector {
			out = append(out, z)
		}
	}
	return out, nil
}

func (f *reportingFakeReporter) ResetZones(startSector, nrSectors uint64) error {
	return nil
}

var _ Reporter = (*reportingFakeReporter)(nil)

func TestIlog2(t *testing.T) {
	cases := []struct {
		n    uint64
		want int
	}{
		{1, 0},
		{2, 1},
		{1024, 10},
		{3, -1},
		{0, -1},
		{1 << 20, 20},
	}
	for _, c := range cases {
		if got := ilog2(c.n); got != c.want {
			t.Errorf("ilog2(%d) = %d, want %d", c.n, got, c.want)
		}
	}
}

func TestInitZoneInfoSynthesizesUniformLayout(t *testing.T) {
	d, err := initZoneInfo("/dev/test0", 4096, 1024)
	if err != nil {
		t.Fatalf("initZoneInfo: %v", err)
	}
	if d.NrZones != 4 {
		t.Fatalf("expected 4 synthetic zones, got %d", d.NrZones)
	}
	if d.Model != ModelNone {
		t.Errorf("expected ModelNone for a synthesized layout, got %v", d.Model)
	}
	for i, z := range d.Zones[:d.NrZones] {
		if z.Type != TypeSeqWriteReq {
			t.Errorf("zone %d: expected synthesized zones to be sequential-write-required, got %v", i, z.Type)
		}
		if z.Cond != CondFull {
			t.Errorf("zone %d: expected synthesized zones to start full, got %v", i, z.Cond)
		}
		if z.Wp != z.Start+d.ZoneSize {
			t.Errorf("zone %d: expected Wp at zone end, got %d", i, z.Wp)
		}
	}
	if d.Zones[d.NrZones].Start != uint64(d.NrZones)*1024 {
		t.Errorf("sentinel start = %d, want %d", d.Zones[d.NrZones].Start, uint64(d.NrZones)*1024)
	}
}

func TestInitZoneInfoRoundsUpPartialZone(t *testing.T) {
	d, err := initZoneInfo("/dev/test0", 4097, 1024)
	if err != nil {
		t.Fatalf("initZoneInfo: %v", err)
	}
	if d.NrZones != 5 {
		t.Errorf("expected a 5th partial zone to be counted, got %d zones", d.NrZones)
	}
}

func TestInitZoneInfoDefaultsZoneSize(t *testing.T) {
	d, err := initZoneInfo("/dev/test0", 4096, 0)
	if err != nil {
		t.Fatalf("initZoneInfo: %v", err)
	}
	if d.ZoneSize == 0 {
		t.Error("expected a default zone size to be applied when none is given")
	}
}

func TestParseZoneInfoBuildsLayoutFromReport(t *testing.T) {
	zoneSize := uint64(1024)
	r := &reportingFakeReporter{zones: []uapi.BlkZone{
		{Start: 0, Len: zoneSize, Wp: 0, Type: uapi.BLK_ZONE_TYPE_SEQWRITE_REQ, Cond: uapi.BLK_ZONE_COND_EMPTY},
		{Start: zoneSize, Len: zoneSize, Wp: zoneSize, Type: uapi.BLK_ZONE_TYPE_SEQWRITE_REQ, Cond: uapi.BLK_ZONE_COND_FULL},
		{Start: 2 * zoneSize, Len: zoneSize, Wp: 2 * zoneSize, Type: uapi.BLK_ZONE_TYPE_CONVENTIONAL, Cond: uapi.BLK_ZONE_COND_NOT_WP},
	}}

	d, err := parseZoneInfo("/dev/test0", ModelHostManaged, r, 3*zoneSize)
	if err != nil {
		t.Fatalf("parseZoneInfo: %v", err)
	}
	if d.NrZones != 3 {
		t.Fatalf("expected 3 zones, got %d", d.NrZones)
	}
	if d.ZoneSize != zoneSize {
		t.Errorf("expected zone size %d, got %d", zoneSize, d.ZoneSize)
	}
	if d.Zones[1].Cond != CondFull {
		t.Errorf("expected zone 1 reported full, got %v", d.Zones[1].Cond)
	}
	if d.Zones[2].Type != TypeConventional {
		t.Errorf("expected zone 2 reported conventional, got %v", d.Zones[2].Type)
	}
	if d.Zones[3].Start != 3*zoneSize {
		t.Errorf("expected sentinel at %d, got %d", 3*zoneSize, d.Zones[3].Start)
	}
}

func TestDiscoverNonZonedDevice(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "zbd-test-*")
	if err != nil {
		t.Fatalf("CreateTemp: %v", err)
	}
	defer f.Close()
	if err := f.Truncate(8 << 20); err != nil {
		t.Fatalf("Truncate: %v", err)
	}

	d, err := Discover(f.Name(), &fakeReporter{}, 1<<20)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if d.Model != ModelNone {
		t.Errorf("expected a regular file to discover as ModelNone, got %v", d.Model)
	}
	wantZones := uint32((8 << 20) / (1 << 20))
	if d.NrZones != wantZones {
		t.Errorf("expected %d synthetic zones, got %d", wantZones, d.NrZones)
	}
}
