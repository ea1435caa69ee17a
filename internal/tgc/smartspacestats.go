package tgc

import (
	"sync"
	"time"
)

// SmartSpaceStats wraps an Mgm's raw space statistics with a cache and an
// optimistic adjustment for bytes the gc has just queued for deletion but
// that the underlying storage system hasn't reported as freed yet. It
// mirrors the original SmartSpaceStats class.
type SmartSpaceStats struct {
	space string
	mgm   Mgm
	clock Clock

	config *CachedValue[SpaceConfig]

	mu              sync.Mutex
	everQueried     bool
	lastStats       SpaceStats
	lastQueryTime   int64
	queuedForDelete uint64
}

// NewSmartSpaceStats builds a SmartSpaceStats for space, caching its gc
// config for up to maxConfigCacheAge and throttling GetSpaceStats calls to
// the config's QueryPeriodSecs.
func NewSmartSpaceStats(space string, mgm Mgm, clock Clock, maxConfigCacheAge time.Duration) *SmartSpaceStats {
	getter := func() (SpaceConfig, error) { return mgm.GetTapeGcSpaceConfig(space) }
	return &SmartSpaceStats{
		space:  space,
		mgm:    mgm,
		clock:  clock,
		config: NewCachedValue(getter, maxConfigCacheAge, clock),
	}
}

// Get returns the most recent space stats, refreshing from the Mgm if the
// configured query period has elapsed, and crediting any bytes queued for
// deletion since the last refresh.
func (s *SmartSpaceStats) Get() (SpaceStats, error) {
	cfg, err := s.config.Get()
	if err != nil {
		return SpaceStats{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.NowSecs()
	if !s.everQueried || now-s.lastQueryTime >= int64(cfg.QueryPeriodSecs) {
		stats, err := s.mgm.GetSpaceStats(s.space)
		if err != nil {
			return SpaceStats{}, err
		}
		s.lastStats = stats
		s.lastQueryTime = now
		s.everQueried = true
		s.queuedForDelete = 0
	}

	result := s.lastStats
	result.AvailBytes += s.queuedForDelete
	return result, nil
}

// QueryTimestamp returns the Unix timestamp of the last successful refresh
// from the Mgm, or 0 if it has never refreshed.
func (s *SmartSpaceStats) QueryTimestamp() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastQueryTime
}

// FileQueuedForDeletion records that nbBytes have just been queued for
// deletion, optimistically crediting them to AvailBytes until the next
// real refresh.
func (s *SmartSpaceStats) FileQueuedForDeletion(nbBytes uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queuedForDelete += nbBytes
}
