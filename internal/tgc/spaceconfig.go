package tgc

import "github.com/eoslike/tgcraid/internal/config"

// SpaceConfig holds the tape-aware garbage collection configuration for a
// single EOS space, as reported by the namespace/quota system.
type SpaceConfig struct {
	// QueryPeriodSecs bounds how often SmartSpaceStats refreshes space
	// statistics from the Mgm.
	QueryPeriodSecs uint64

	// AvailBytes is the minimum free space, below which the gc should run.
	AvailBytes uint64

	// TotalBytes is the minimum total capacity a space must report before
	// the gc is allowed to run at all (protects tiny test/demo spaces).
	TotalBytes uint64
}

// DefaultSpaceConfig mirrors the default constants the original tape gc
// ships with, used whenever a space has not set explicit overrides.
func DefaultSpaceConfig() SpaceConfig {
	return SpaceConfig{
		QueryPeriodSecs: config.TGCDefaultQryPeriodSecs,
		AvailBytes:      config.TGCDefaultAvailBytes,
		TotalBytes:      config.TGCDefaultTotalBytes,
	}
}

// SpaceStats is a point-in-time snapshot of a space's disk usage.
type SpaceStats struct {
	TotalBytes uint64
	AvailBytes uint64
}
