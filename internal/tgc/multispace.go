package tgc

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Stats is the public status snapshot for a single space's gc, the
// exported alias TapeGcStats is returned under in MultiSpaceGc.Stats.
type Stats = TapeGcStats

// MultiSpaceGc coordinates one TapeGc per enabled EOS space: it populates
// each space's Lru queue from the namespace once at startup, then starts
// the worker threads. It mirrors the original MultiSpaceTapeGc.
type MultiSpaceGc struct {
	mgm   Mgm
	clock Clock
	log   logFields

	mu      sync.Mutex
	started bool
	gcs     *SpaceToTapeGcMap

	stopPopulate chan struct{}
}

// logFields is the narrow logging seam MultiSpaceGc needs; it lets tests
// run without pulling in a real logger.
type logFields interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
}

// NewMultiSpaceGc constructs a MultiSpaceGc backed by mgm. log may be nil,
// in which case log output is discarded.
func NewMultiSpaceGc(mgm Mgm, clock Clock, log logFields) *MultiSpaceGc {
	if log == nil {
		log = discardLogFields{}
	}
	return &MultiSpaceGc{
		mgm:          mgm,
		clock:        clock,
		log:          log,
		gcs:          NewSpaceToTapeGcMap(),
		stopPopulate: make(chan struct{}),
	}
}

// SetTapeEnabled enables tape-aware gc for the given spaces: each space's
// Lru is populated from the namespace's existing disk replicas, and then
// every space's worker thread is started. Calling it more than once
// returns ErrGcAlreadyStarted.
func (m *MultiSpaceGc) SetTapeEnabled(spaces []string) error {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return ErrGcAlreadyStarted
	}
	m.started = true
	m.mu.Unlock()

	for _, space := range spaces {
		gc, err := NewTapeGc(space, m.mgm, m.clock, 10_000_000, 10*time.Second, nil)
		if err != nil {
			return fmt.Errorf("space %s: %w", space, err)
		}
		if err := m.gcs.CreateGc(space, gc); err != nil {
			return fmt.Errorf("space %s: %w", space, err)
		}
	}

	replicasBySpace, nbVisited, err := m.mgm.GetSpaceToDiskReplicasMap(spaces, m.stopPopulate)
	if err != nil {
		return err
	}
	m.log.Infof("populated tape gc lru queues from %d disk replicas", nbVisited)

	for space, replicas := range replicasBySpace {
		gc, err := m.gcs.GetGc(space)
		if err != nil {
			continue
		}
		for _, r := range replicas {
			gc.FileOpened(r.Fid)
		}
	}

	m.gcs.StartGcWorkerThreads()
	return nil
}

// FileOpened notifies the gc for space, if tape-aware gc is enabled for
// it, that fid was just opened. It is a no-op for spaces with no gc
// registered, matching the original's "ignore unknown space" behavior for
// this high-frequency call.
func (m *MultiSpaceGc) FileOpened(space string, fid FileId) {
	gc, err := m.gcs.GetGc(space)
	if err != nil {
		return
	}
	gc.FileOpened(fid)
}

// Stats returns the current per-space gc status.
func (m *MultiSpaceGc) Stats() (map[string]Stats, error) {
	return m.gcs.GetStats()
}

// HandleStatusRequest builds the JSON status reply for an operator status
// query, mirroring handleFSCTL_PLUGIO_tgc's access checks: only localhost
// may ask, tape-aware gc must be enabled for at least one space, and the
// reply must fit within maxReplyLen.
func (m *MultiSpaceGc) HandleStatusRequest(fromLocalhost bool, maxReplyLen uint64) ([]byte, error) {
	if !fromLocalhost {
		return nil, ErrNotLocalhost
	}

	m.mu.Lock()
	started := m.started
	m.mu.Unlock()
	if !started {
		return nil, ErrTapeGcDisabled
	}

	var buf bytes.Buffer
	if err := m.gcs.WriteJSON(&buf, maxReplyLen); err != nil {
		if errors.Is(err, ErrMaxLenExceeded) {
			return nil, fmt.Errorf("%w: %w", ErrReplyTooLarge, err)
		}
		return nil, err
	}

	return buf.Bytes(), nil
}

// Stop halts every registered space's worker thread and aborts any
// in-flight population walk.
func (m *MultiSpaceGc) Stop() {
	select {
	case <-m.stopPopulate:
	default:
		close(m.stopPopulate)
	}
	m.gcs.DestroyAllGc()
}

type discardLogFields struct{}

func (discardLogFields) Infof(string, ...interface{}) {}
func (discardLogFields) Warnf(string, ...interface{}) {}
