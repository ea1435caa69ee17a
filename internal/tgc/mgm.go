package tgc

import "sync"

// Mgm is everything tape-aware garbage collection needs from the
// namespace/storage manager. It plays the same role as ITapeGcMgm in the
// original implementation: a narrow seam so TapeGc can be tested without a
// real namespace.
type Mgm interface {
	// GetTapeGcSpaceConfig returns the gc configuration currently stored
	// for the given space.
	GetTapeGcSpaceConfig(space string) (SpaceConfig, error)

	// GetSpaceStats returns a snapshot of disk usage for the given space.
	GetSpaceStats(space string) (SpaceStats, error)

	// GetFileSizeBytes returns the on-disk size of fid, or 0 if fid no
	// longer exists.
	GetFileSizeBytes(fid FileId) (uint64, error)

	// FileInNamespaceAndNotScheduledForDeletion reports whether fid is
	// still a live namespace entry with no deletion already pending.
	FileInNamespaceAndNotScheduledForDeletion(fid FileId) (bool, error)

	// StagerrmAsRoot evicts the disk replica of fid, as root, the way an
	// operator-issued `stagerrm` would.
	StagerrmAsRoot(fid FileId) error

	// GetSpaceToDiskReplicasMap walks the namespace for the given spaces,
	// returning every known disk replica grouped by space. It is used
	// once at startup to populate each space's Lru queue before the
	// worker threads start evicting. The walk aborts early if stop is
	// closed, returning whatever it found so far along with the number
	// of replicas it had visited when it stopped.
	GetSpaceToDiskReplicasMap(spaces []string, stop <-chan struct{}) (map[string][]ReplicaInfo, uint64, error)
}

// ReplicaInfo identifies a single on-disk file replica discovered while
// populating a space's Lru queue.
type ReplicaInfo struct {
	Fid FileId
}

// FakeMgm is an in-memory Mgm test double, the Go counterpart of
// DummyTapeGcMgm: every method is driven by fields and counters a test can
// inspect and mutate directly.
type FakeMgm struct {
	mu sync.Mutex

	SpaceConfigs map[string]SpaceConfig
	SpaceStats   map[string]SpaceStats
	FileSizes    map[FileId]uint64
	InNamespace  map[FileId]bool

	StagerrmErr map[FileId]error
	Replicas    map[string][]ReplicaInfo

	NbCallsToGetTapeGcSpaceConfig int
	NbCallsToGetSpaceStats        int
	NbCallsToStagerrmAsRoot       int
	StagerrmFids                  []FileId
}

// NewFakeMgm returns an empty FakeMgm ready for a test to populate.
func NewFakeMgm() *FakeMgm {
	return &FakeMgm{
		SpaceConfigs: make(map[string]SpaceConfig),
		SpaceStats:   make(map[string]SpaceStats),
		FileSizes:    make(map[FileId]uint64),
		InNamespace:  make(map[FileId]bool),
		StagerrmErr:  make(map[FileId]error),
		Replicas:     make(map[string][]ReplicaInfo),
	}
}

func (m *FakeMgm) GetTapeGcSpaceConfig(space string) (SpaceConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.NbCallsToGetTapeGcSpaceConfig++

	cfg, ok := m.SpaceConfigs[space]
	if !ok {
		return SpaceConfig{}, ErrSpaceNotFound
	}
	return cfg, nil
}

func (m *FakeMgm) GetSpaceStats(space string) (SpaceStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.NbCallsToGetSpaceStats++

	stats, ok := m.SpaceStats[space]
	if !ok {
		return SpaceStats{}, ErrSpaceNotFound
	}
	return stats, nil
}

func (m *FakeMgm) GetFileSizeBytes(fid FileId) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.FileSizes[fid], nil
}

func (m *FakeMgm) FileInNamespaceAndNotScheduledForDeletion(fid FileId) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.InNamespace[fid], nil
}

func (m *FakeMgm) StagerrmAsRoot(fid FileId) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.NbCallsToStagerrmAsRoot++
	m.StagerrmFids = append(m.StagerrmFids, fid)

	if err, ok := m.StagerrmErr[fid]; ok && err != nil {
		return err
	}

	delete(m.InNamespace, fid)
	return nil
}

func (m *FakeMgm) GetSpaceToDiskReplicasMap(spaces []string, stop <-chan struct{}) (map[string][]ReplicaInfo, uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := make(map[string][]ReplicaInfo, len(spaces))
	var nbVisited uint64
	for _, space := range spaces {
		select {
		case <-stop:
			return result, nbVisited, nil
		default:
		}
		replicas := m.Replicas[space]
		result[space] = replicas
		nbVisited += uint64(len(replicas))
	}
	return result, nbVisited, nil
}

// SetFileQueuedForDeletion updates SpaceStats[space] to optimistically
// reflect that nbBytes have just been freed, the same bookkeeping
// SmartSpaceStats.FileQueuedForDeletion performs on a real Mgm's behalf.
func (m *FakeMgm) SetFileQueuedForDeletion(space string, nbBytes uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := m.SpaceStats[space]
	stats.AvailBytes += nbBytes
	m.SpaceStats[space] = stats
}
