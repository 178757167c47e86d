package uapi

import "encoding/binary"

// Marshal converts a struct to bytes using little-endian byte order, the
// wire order the kernel's blkzoned.h structs are defined in.
func Marshal(v interface{}) []byte {
	switch val := v.(type) {
	case *BlkZoneRange:
		return marshalZoneRange(val)
	case *BlkZoneReport:
		return marshalZoneReportHeader(val)
	case *BlkZone:
		return marshalZone(val)
	default:
		return nil
	}
}

// Unmarshal converts bytes back to a struct.
func Unmarshal(data []byte, v interface{}) error {
	switch val := v.(type) {
	case *BlkZoneRange:
		return unmarshalZoneRange(data, val)
	case *BlkZoneReport:
		return unmarshalZoneReportHeader(data, val)
	case *BlkZone:
		return unmarshalZone(data, val)
	default:
		return ErrInvalidType
	}
}

// marshalZoneRange manually marshals BlkZoneRange (16 bytes), the payload
// for BLKRESETZONE and its open/close/finish siblings.
func marshalZoneRange(r *BlkZoneRange) []byte {
	buf := make([]byte, blkZoneRangeSize)
	binary.LittleEndian.PutUint64(buf[0:8], r.Sector)
	binary.LittleEndian.PutUint64(buf[8:16], r.NrSectors)
	return buf
}

// unmarshalZoneRange manually unmarshals BlkZoneRange.
func unmarshalZoneRange(data []byte, r *BlkZoneRange) error {
	if len(data) < blkZoneRangeSize {
		return ErrInsufficientData
	}
	r.Sector = binary.LittleEndian.Uint64(data[0:8])
	r.NrSectors = binary.LittleEndian.Uint64(data[8:16])
	return nil
}

// marshalZoneReportHeader manually marshals the fixed header of
// BlkZoneReport. Callers append NrZones marshaled BlkZone entries after it
// to build the full BLKREPORTZONE ioctl buffer.
func marshalZoneReportHeader(rep *BlkZoneReport) []byte {
	buf := make([]byte, blkZoneReportHeaderSize)
	binary.LittleEndian.PutUint64(buf[0:8], rep.Sector)
	binary.LittleEndian.PutUint32(buf[8:12], rep.NrZones)
	binary.LittleEndian.PutUint32(buf[12:16], rep.Flags)
	return buf
}

// unmarshalZoneReportHeader manually unmarshals the fixed header of
// BlkZoneReport. Callers then walk NrZones BlkZone entries starting at
// data[blkZoneReportHeaderSize:].
func unmarshalZoneReportHeader(data []byte, rep *BlkZoneReport) error {
	if len(data) < blkZoneReportHeaderSize {
		return ErrInsufficientData
	}
	rep.Sector = binary.LittleEndian.Uint64(data[0:8])
	rep.NrZones = binary.LittleEndian.Uint32(data[8:12])
	rep.Flags = binary.LittleEndian.Uint32(data[12:16])
	return nil
}

// marshalZone manually marshals a single BlkZone entry (64 bytes).
func marshalZone(z *BlkZone) []byte {
	buf := make([]byte, 64)
	binary.LittleEndian.PutUint64(buf[0:8], z.Start)
	binary.LittleEndian.PutUint64(buf[8:16], z.Len)
	binary.LittleEndian.PutUint64(buf[16:24], z.Wp)
	buf[24] = z.Type
	buf[25] = z.Cond
	buf[26] = z.NonSeq
	buf[27] = z.Reset
	copy(buf[28:32], z.Resv[:])
	binary.LittleEndian.PutUint64(buf[32:40], z.Capacity)
	copy(buf[40:64], z.Reserved[:])
	return buf
}

// unmarshalZone manually unmarshals a single BlkZone entry from a
// BLKREPORTZONE response buffer.
func unmarshalZone(data []byte, z *BlkZone) error {
	if len(data) < 64 {
		return ErrInsufficientData
	}
	z.Start = binary.LittleEndian.Uint64(data[0:8])
	z.Len = binary.LittleEndian.Uint64(data[8:16])
	z.Wp = binary.LittleEndian.Uint64(data[16:24])
	z.Type = data[24]
	z.Cond = data[25]
	z.NonSeq = data[26]
	z.Reset = data[27]
	copy(z.Resv[:], data[28:32])
	z.Capacity = binary.LittleEndian.Uint64(data[32:40])
	copy(z.Reserved[:], data[40:64])
	return nil
}

// UnmarshalZones walks a BLKREPORTZONE response buffer (header already
// consumed at data[:blkZoneReportHeaderSize]) and decodes nrZones entries.
func UnmarshalZones(data []byte, nrZones uint32) ([]BlkZone, error) {
	zones := make([]BlkZone, 0, nrZones)
	offset := 0
	for i := uint32(0); i < nrZones; i++ {
		if offset+64 > len(data) {
			return zones, ErrInsufficientData
		}
		var z BlkZone
		if err := unmarshalZone(data[offset:offset+64], &z); err != nil {
			return zones, err
		}
		zones = append(zones, z)
		offset += 64
	}
	return zones, nil
}

// MarshalError reports a marshal/unmarshal failure.
type MarshalError string

func (e MarshalError) Error() string {
	return string(e)
}

const (
	ErrInsufficientData MarshalError = "insufficient data for unmarshaling"
	ErrInvalidType      MarshalError = "invalid type for marshaling"
)
