// Package zbd adapts an I/O workload to the structural rules of a zoned
// block device: fixed-size zones, a monotonically advancing write pointer
// on sequential zones, and explicit reset before rewriting.
package zbd

import (
	"time"

	"github.com/google/uuid"

	"github.com/behrlich/go-zbd/internal/logging"
	"github.com/behrlich/go-zbd/internal/zone"
)

// Direction is the kind of I/O being adjusted.
type Direction int

const (
	DirRead Direction = iota
	DirWrite
	DirTrim
	DirSync
)

// Decision is the outcome of Adjust.
type Decision int

const (
	Accept Decision = iota
	EOF
)

var defaultRegistry = zone.NewRegistry()

// Worker describes one job's view of a device: its configured byte range,
// block sizes, and run-time mode. Init populates the unexported fields that
// bind it to a shared zone.Device.
type Worker struct {
	JobID uuid.UUID

	Path     string // device or file path
	Offset   uint64 // configured range start, bytes
	Size     uint64 // configured range length, bytes
	MinBS    uint64 // minimum write block size, bytes
	MaxBS    uint64 // maximum I/O size, bytes

	Verify       bool // data verification enabled
	Verifying    bool // currently in the verify (replay-read) phase
	Random       bool // workload issues non-sequential offsets
	ReadBeyondWP bool // allow reads past the write pointer without adjustment
	DirectIO     bool // the worker's file descriptor was opened O_DIRECT

	Observer Observer // optional; defaults to NoOpObserver

	device   *zone.Device
	reporter zone.Reporter
	logger   *logging.Logger
}

func (w *Worker) observer() Observer {
	if w.Observer != nil {
		return w.Observer
	}
	return NoOpObserver{}
}

// IO is one operation to adjust, the Go equivalent of the spec's
// `io = (direction, offset, length, file)` tuple.
type IO struct {
	Dir    Direction
	Offset uint64
	Length uint64

	zoneIdx uint32
	locked  bool
}

// Init performs discovery (or registry reuse), validation, and the
// direct-I/O precondition check for a worker, the Go equivalent of the
// spec's `init(worker)`.
func Init(w *Worker, r zone.Reporter) error {
	return initWithRegistry(defaultRegistry, w, r)
}

func initWithRegistry(reg *zone.Registry, w *Worker, r zone.Reporter) error {
	if w.JobID == uuid.Nil {
		w.JobID = uuid.New()
	}
	w.logger = logging.Default()
	w.reporter = r

	d, err := reg.Open(w.Path, func() (*zone.Device, error) {
		return zone.Discover(w.Path, r, w.Size)
	})
	if err != nil {
		return WrapError("INIT", err)
	}
	w.device = d

	if d.Model == zone.ModelHostManaged && w.Offset+w.Size > 0 && !w.DirectIO {
		if isWriteWorkload(w) {
			reg.Close(w.Path)
			return NewDeviceError("INIT", w.Path, ErrCodeDirectIORequired,
				"direct I/O required for writers against a host-managed device")
		}
	}

	if d.IsSequentialRange(w.Offset, w.Size) {
		offset, size := d.VerifySizes(w.Offset, w.Size)
		if size < d.ZoneSize<<9 {
			reg.Close(w.Path)
			return NewDeviceError("INIT", w.Path, ErrCodeOffsetOutOfRange,
				"worker range shorter than one zone after rounding")
		}
		w.Offset, w.Size = offset, size
	}

	if w.Verify && !d.VerifyBlockSize(w.MinBS) {
		reg.Close(w.Path)
		return NewDeviceError("INIT", w.Path, ErrCodeBlockSizeMismatch,
			"block size does not divide zone size")
	}

	w.logger.Debug("worker initialized", "job_id", w.JobID, "dev", w.Path,
		"offset", w.Offset, "size", w.Size, "nr_zones", d.NrZones)
	return nil
}

// isWriteWorkload reports whether this worker may issue writes, used by
// Init's direct-I/O precondition check. Worker carries no read-only marker,
// so any worker with a nonzero MaxBS is assumed capable of writing, matching the
// conservative stance of zbd.c's all-writers-must-use-direct-io check.
func isWriteWorkload(w *Worker) bool {
	return w.MaxBS > 0
}

// FileReset performs the pre-job reset for a worker's configured range,
// ported from zbd.c's zbd_file_reset. All zones are reset when
// verification is enabled and the worker is not currently replaying;
// otherwise only zones whose write pointer isn't MinBS-aligned are reset.
func FileReset(w *Worker) error {
	d := w.device
	first := d.ZoneIdx(w.Offset)
	afterLast := d.ZoneIdx(w.Offset + w.Size)

	allZones := w.Verify && !w.Verifying
	if allZones {
		n, err := d.ResetZones(w.reporter, first, afterLast, true)
		observeResets(w.observer(), n)
		return WrapError("FILE_RESET", err)
	}

	n, err := resetMisalignedZones(d, w.reporter, first, afterLast, w.MinBS)
	observeResets(w.observer(), n)
	return WrapError("FILE_RESET", err)
}

func observeResets(obs Observer, n int) {
	for i := 0; i < n; i++ {
		obs.ObserveReset()
	}
}

// resetMisalignedZones resets every zone in [first, afterLast) whose write
// pointer is not a multiple of minBS, ported from zbd.c's zbd_reset_zones
// with all=false.
func resetMisalignedZones(d *zone.Device, r zone.Reporter, first, afterLast uint32, minBS uint64) (int, error) {
	nReset := 0
	for i := first; i < afterLast; i++ {
		z := d.Zones[i]
		z.Lock()
		misaligned := z.IsSeq() && minBS > 0 && (z.Wp<<9)%minBS != 0
		z.Unlock()
		if !misaligned {
			continue
		}
		if err := d.ResetRange(r, i, i+1); err != nil {
			return nReset, err
		}
		nReset++
	}
	return nReset, nil
}

// Adjust rewrites io so it is legal against w's device, the Go equivalent
// of the spec's `adjust(io)`. On Accept of a write to a sequential zone, the
// target zone's mutex is held until PostSubmit is called with the same io;
// every other accepted io leaves Adjust with no zone mutex held.
func Adjust(w *Worker, io *IO) (Decision, error) {
	start := time.Now()
	obs := w.observer()

	d := w.device
	idx := d.ZoneIdx(io.Offset)
	if idx >= d.NrZones {
		obs.ObserveEOF()
		return EOF, nil
	}
	z := d.Zone(idx)

	if z.Type == zone.TypeConventional {
		io.zoneIdx = idx
		return dispatchPassthrough(obs, io, start), nil
	}

	if io.Dir == DirRead && z.Cond != zone.CondOffline && w.ReadBeyondWP {
		io.zoneIdx = idx
		return dispatchPassthrough(obs, io, start), nil
	}

	req := &zone.Request{
		Dir:    zoneDir(io.Dir),
		Offset: io.Offset,
		Size:   io.Length,
		Random: w.Random,
	}

	if w.Verifying && io.Dir == DirRead {
		z.Lock()
		req.Offset = zone.ReplayWriteOrder(z, w.MinBS)
		z.Unlock()
		io.Offset = req.Offset
		io.zoneIdx = idx
		io.locked = false
		obs.ObserveRead(io.Length, uint64(time.Since(start)), true)
		return Accept, nil
	}

	if io.Dir == DirTrim || io.Dir == DirSync {
		io.zoneIdx = idx
		return dispatchPassthrough(obs, io, start), nil
	}

	resultIdx, err := zone.Adjust(d, w.reporter, req, w.MinBS, w.Offset, w.Offset+w.Size)
	if err == zone.ErrEndOfFile {
		obs.ObserveEOF()
		return EOF, nil
	}
	if err != nil {
		return EOF, WrapError("ADJUST", err)
	}

	io.Offset = req.Offset
	io.Length = req.Size
	io.zoneIdx = resultIdx
	// adjustWrite hands the zone mutex off to PostSubmit; adjustRead
	// releases it immediately since reads never advance the write pointer.
	io.locked = io.Dir == DirWrite

	latency := uint64(time.Since(start))
	if io.Dir == DirWrite {
		obs.ObserveWrite(io.Length, latency, true)
	} else {
		obs.ObserveRead(io.Length, latency, true)
	}
	return Accept, nil
}

// dispatchPassthrough records the observer event for an io that Adjust
// accepted without needing a zone.Adjust call (conventional zones,
// beyond-write-pointer reads, and trim/sync requests).
func dispatchPassthrough(obs Observer, io *IO, start time.Time) Decision {
	latency := uint64(time.Since(start))
	switch io.Dir {
	case DirWrite:
		obs.ObserveWrite(io.Length, latency, true)
	case DirRead:
		obs.ObserveRead(io.Length, latency, true)
	case DirTrim:
		obs.ObserveTrim(latency)
	case DirSync:
		obs.ObserveSync(latency)
	}
	return Accept
}

// PostSubmit advances the write pointer for an accepted io and releases
// its zone's mutex, the Go equivalent of the spec's post-submit hook.
func PostSubmit(w *Worker, io *IO, success bool) {
	if !io.locked {
		return
	}
	io.locked = false
	zone.PostSubmit(w.device, io.zoneIdx, io.Length, success && io.Dir == DirWrite)
}

func zoneDir(d Direction) zone.Direction {
	if d == DirWrite {
		return zone.DirWrite
	}
	return zone.DirRead
}

// Free drops a worker's reference to its device, the Go equivalent of the
// spec's `free(file)`.
func Free(w *Worker) {
	if w.device == nil {
		return
	}
	defaultRegistry.Close(w.Path)
	w.device = nil
}
