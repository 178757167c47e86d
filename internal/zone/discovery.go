package zone

import (
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/behrlich/go-zbd/internal/constants"
	"github.com/behrlich/go-zbd/internal/uapi"
)

func errZoneSizeMismatch(path string) error {
	return fmt.Errorf("zbd: zone size mismatch reading %s", path)
}

// Reporter issues the BLKREPORTZONE/BLKRESETZONE ioctls against an open
// device. FDReporter is the real implementation; tests substitute a fake.
type Reporter interface {
	// ReportZones returns up to len(buf)/64 zones starting at startSector.
	ReportZones(startSector uint64, buf []byte) ([]uapi.BlkZone, error)
	// ResetZones issues BLKRESETZONE over [startSector, startSector+nrSectors).
	ResetZones(startSector, nrSectors uint64) error
}

// FDReporter issues zone ioctls against an open file descriptor.
type FDReporter struct {
	fd int
}

// NewFDReporter wraps an already-open device file descriptor.
func NewFDReporter(fd int) *FDReporter {
	return &FDReporter{fd: fd}
}

func (r *FDReporter) ReportZones(startSector uint64, buf []byte) ([]uapi.BlkZone, error) {
	nrZones := uint32((len(buf) - 16) / 64)
	hdr := uapi.BlkZoneReport{Sector: startSector, NrZones: nrZones}
	copy(buf[:16], uapi.Marshal(&hdr))

	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(r.fd), uintptr(uapi.BLKREPORTZONE), uintptr(unsafe.Pointer(&buf[0]))); errno != 0 {
		return nil, errno
	}

	var gotHdr uapi.BlkZoneReport
	if err := uapi.Unmarshal(buf[:16], &gotHdr); err != nil {
		return nil, err
	}
	return uapi.UnmarshalZones(buf[16:], gotHdr.NrZones)
}

func (r *FDReporter) ResetZones(startSector, nrSectors uint64) error {
	rng := uapi.BlkZoneRange{Sector: startSector, NrSectors: nrSectors}
	buf := uapi.Marshal(&rng)
	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(r.fd), uintptr(uapi.BLKRESETZONE), uintptr(unsafe.Pointer(&buf[0]))); errno != 0 {
		return errno
	}
	return nil
}

// Discover builds a Device's zone layout, ported from zbd_create_zone_info:
// host-aware/host-managed devices are read via BLKREPORTZONE
// (parseZoneInfo); everything else gets a synthetic layout sized to
// fallbackZoneSizeBytes (initZoneInfo).
func Discover(path string, r Reporter, fallbackZoneSizeBytes uint64) (*Device, error) {
	model, err := uapi.GetZonedModel(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return nil, err
	}
	nrSectors := uint64(st.Size) / constants.DefaultSectorSize

	if model == uapi.ZBD_DM_NONE {
		if fallbackZoneSizeBytes != 0 && fallbackZoneSizeBytes < constants.MinZoneSize {
			return nil, fmt.Errorf("zbd: zone size %d is below the %d-byte minimum", fallbackZoneSizeBytes, constants.MinZoneSize)
		}
		return initZoneInfo(path, nrSectors, fallbackZoneSizeBytes>>9)
	}
	return parseZoneInfo(path, modelFromUAPI(model), r, nrSectors)
}

// parseZoneInfo reads the full zone table via repeated BLKREPORTZONE calls,
// ported from zbd.c's parse_zone_info/read_zone_info.
func parseZoneInfo(path string, model Model, r Reporter, nrSectors uint64) (*Device, error) {
	bufZones := uint32(constants.DefaultReportBufZones)
	bufSize := 16 + int(bufZones)*64
	buf := make([]byte, bufSize)

	var zones []*Info
	var zoneSize uint64
	sector := uint64(0)

	for sector < nrSectors {
		raw, err := r.ReportZones(sector, buf)
		if err != nil {
			return nil, err
		}
		if len(raw) == 0 {
			break
		}
		for i := range raw {
			z := &raw[i]
			if zoneSize == 0 {
				zoneSize = z.Len
			} else if z.Len != zoneSize && z.Start+z.Len < nrSectors {
				return nil, errZoneSizeMismatch(path)
			}
			wp := z.Wp
			switch Cond(z.Cond) {
			case CondNotWP:
				wp = z.Start
			case CondFull:
				wp = z.Start + z.Len
			}
			zones = append(zones, &Info{
				Start: z.Start,
				Type:  Type(z.Type),
				Cond:  Cond(z.Cond),
				Wp:    wp,
			})
		}
		last := raw[len(raw)-1]
		sector = last.Start + last.Len
	}

	zones = append(zones, &Info{Start: sector}) // sentinel

	d := &Device{
		Path:         path,
		Model:        model,
		ZoneSize:     zoneSize,
		ZoneSizeLog2: ilog2(zoneSize),
		NrZones:      uint32(len(zones) - 1),
		Zones:        zones,
	}
	return d, nil
}

// initZoneInfo synthesizes a uniform zone layout for a non-ZBD device,
// ported from zbd.c's init_zone_info. Every synthetic zone is reported as
// sequential-write-required and already full, so a workload's first action
// against it is an explicit reset, the same as a freshly provisioned
// host-managed device.
func initZoneInfo(path string, nrSectors, zoneSize uint64) (*Device, error) {
	if zoneSize == 0 {
		zoneSize = constants.DefaultZoneSize / constants.DefaultSectorSize
	}
	nrZones := uint32((nrSectors + zoneSize - 1) / zoneSize)

	zones := make([]*Info, 0, nrZones+1)
	for i := uint32(0); i < nrZones; i++ {
		start := uint64(i) * zoneSize
		zones = append(zones, &Info{
			Start: start,
			Type:  TypeSeqWriteReq,
			Cond:  CondFull,
			Wp:    start + zoneSize,
		})
	}
	zones = append(zones, &Info{Start: uint64(nrZones) * zoneSize})

	return &Device{
		Path:         path,
		Model:        ModelNone,
		ZoneSize:     zoneSize,
		ZoneSizeLog2: ilog2(zoneSize),
		NrZones:      nrZones,
		Zones:        zones,
	}, nil
}

// ilog2 returns log2(n) if n is an exact power of two, else -1.
func ilog2(n uint64) int {
	if n == 0 || n&(n-1) != 0 {
		return -1
	}
	log := 0
	for n > 1 {
		n >>= 1
		log++
	}
	return log
}
