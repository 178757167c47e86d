package zbd

import "github.com/behrlich/go-zbd/internal/constants"

// Re-export constants for public API
const (
	DefaultSectorSize     = constants.DefaultSectorSize
	MinZoneSize           = constants.MinZoneSize
	DefaultZoneSize       = constants.DefaultZoneSize
	DefaultReportBufZones = constants.DefaultReportBufZones
	DefaultMaxIOSize      = constants.DefaultMaxIOSize
)
