package zone

import "testing"

func TestPostSubmitAdvancesWritePointer(t *testing.T) {
	d := newTestDevice(2, 1024)
	z := d.Zones[0]
	z.Wp = z.Start + 10
	z.Lock()

	PostSubmit(d, 0, 8<<9, true)

	if z.Wp != z.Start+18 {
		t.Errorf("expected Wp advanced to %d, got %d", z.Start+18, z.Wp)
	}
	if z.Cond != CondImpOpen {
		t.Errorf("expected zone condition implicit-open, got %v", z.Cond)
	}
}

func TestPostSubmitCapsAtNextZoneStart(t *testing.T) {
	d := newTestDevice(2, 1024)
	z := d.Zones[0]
	z.Wp = z.Start + d.ZoneSize - 4
	z.Lock()

	PostSubmit(d, 0, 16<<9, true)

	if z.Wp != d.Zones[1].Start {
		t.Errorf("expected Wp capped at next zone start %d, got %d", d.Zones[1].Start, z.Wp)
	}
	if z.Cond != CondFull {
		t.Errorf("expected zone condition full once Wp reaches the zone end, got %v", z.Cond)
	}
}

func TestPostSubmitNoOpOnFailure(t *testing.T) {
	d := newTestDevice(2, 1024)
	z := d.Zones[0]
	z.Wp = z.Start + 10
	z.Lock()

	PostSubmit(d, 0, 8<<9, false)

	if z.Wp != z.Start+10 {
		t.Errorf("expected Wp unchanged after a failed write, got %d", z.Wp)
	}
}

func TestPostSubmitNoOpOnConventional(t *testing.T) {
	d := newTestDevice(2, 1024)
	z := d.Zones[0]
	z.Type = TypeConventional
	z.Wp = z.Start + 10
	z.Lock()

	PostSubmit(d, 0, 8<<9, true)

	if z.Wp != z.Start+10 {
		t.Errorf("expected Wp unchanged for conventional zones, got %d", z.Wp)
	}
}
