package zone

import "github.com/behrlich/go-zbd/internal/uapi"

// fakeReporter is an in-memory Reporter used by tests in place of real
// BLKREPORTZONE/BLKRESETZONE ioctls.
type fakeReporter struct {
	resetCalls []fakeResetCall
	resetErr   error
}

type fakeResetCall struct {
	startSector uint64
	nrSectors   uint64
}

func (f *fakeReporter) ReportZones(startSector uint64, buf []byte) ([]uapi.BlkZone, error) {
	return nil, nil
}

func (f *fakeReporter) ResetZones(startSector, nrSectors uint64) error {
	f.resetCalls = append(f.resetCalls, fakeResetCall{startSector, nrSectors})
	return f.resetErr
}

var _ Reporter = (*fakeReporter)(nil)
