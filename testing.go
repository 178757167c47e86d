package zbd

import (
	"sync"

	"github.com/behrlich/go-zbd/internal/uapi"
	"github.com/behrlich/go-zbd/internal/zone"
)

// MockReporter is an in-memory zone.Reporter, letting callers exercise
// Init/Adjust/FileReset/PostSubmit against a synthetic zoned layout
// without a real block device.
type MockReporter struct {
	mu sync.Mutex

	zoneSize uint64 // sectors
	zones    []uapi.BlkZone

	reportCalls int
	resetCalls  []ResetCall
}

// ResetCall records one BLKRESETZONE invocation seen by a MockReporter.
type ResetCall struct {
	StartSector uint64
	NrSectors   uint64
}

// NewMockReporter builds a MockReporter with nrZones zones of zoneSize
// sectors each, all reported empty and conventional-free (sequential
// write required), matching a freshly provisioned host-managed drive.
func NewMockReporter(nrZones uint32, zoneSize uint64) *MockReporter {
	zones := make([]uapi.BlkZone, nrZones)
	for i := range zones {
		start := uint64(i) * zoneSize
		zones[i] = uapi.BlkZone{
			Start: start,
			Len:   zoneSize,
			Wp:    start,
			Type:  uapi.BLK_ZONE_TYPE_SEQWRITE_REQ,
			Cond:  uapi.BLK_ZONE_COND_EMPTY,
		}
	}
	return &MockReporter{zoneSize: zoneSize, zones: zones}
}

// MarkConventional changes zone idx to report as a conventional zone,
// for tests exercising the conventional-zone passthrough path.
func (r *MockReporter) MarkConventional(idx int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.zones[idx].Type = uapi.BLK_ZONE_TYPE_CONVENTIONAL
	r.zones[idx].Cond = uapi.BLK_ZONE_COND_NOT_WP
}

func (r *MockReporter) ReportZones(startSector uint64, buf []byte) ([]uapi.BlkZone, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reportCalls++

	var out []uapi.BlkZone
	for _, z := range r.zones {
		if z.Start >= startSector {
			out = append(out, z)
		}
	}
	return out, nil
}

func (r *MockReporter) ResetZones(startSector, nrSectors uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resetCalls = append(r.resetCalls, ResetCall{StartSector: startSector, NrSectors: nrSectors})

	end := startSector + nrSectors
	for i := range r.zones {
		z := &r.zones[i]
		if z.Start >= startSector && z.Start < end {
			z.Wp = z.Start
			z.Cond = uapi.BLK_ZONE_COND_EMPTY
		}
	}
	return nil
}

// ReportCalls returns how many times ReportZones was invoked.
func (r *MockReporter) ReportCalls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reportCalls
}

// ResetCalls returns every BLKRESETZONE invocation seen so far.
func (r *MockReporter) ResetCalls() []ResetCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ResetCall, len(r.resetCalls))
	copy(out, r.resetCalls)
	return out
}

var _ zone.Reporter = (*MockReporter)(nil)
