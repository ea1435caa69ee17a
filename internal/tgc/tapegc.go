package tgc

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// TapeGcStats is a point-in-time snapshot of a TapeGc's bookkeeping,
// returned by Stats.
type TapeGcStats struct {
	NbStagerrms    uint64
	LruQueueSize   uint64
	SpaceStats     SpaceStats
	QueryTimestamp int64
}

// TapeGc continuously evicts disk replicas of the least recently used
// files in a single EOS space, once that space's free space has dropped
// below its configured threshold. It mirrors the original TapeGc class:
// an Lru queue of file ids plus a worker goroutine that pops the least
// recently used file and asks the Mgm to evict its disk replica.
type TapeGc struct {
	space string
	mgm   Mgm

	mu          sync.Mutex
	lru         *Lru
	nbStagerrms uint64

	spaceStats *SmartSpaceStats

	log *logrus.Entry

	startOnce sync.Once
	stopCh    chan struct{}
	doneCh    chan struct{}
}

// NewTapeGc constructs a TapeGc for space. The worker goroutine does not
// run until StartWorkerThread is called.
func NewTapeGc(space string, mgm Mgm, clock Clock, maxQueueSize uint64, maxConfigCacheAge time.Duration, log *logrus.Entry) (*TapeGc, error) {
	lru, err := NewLru(maxQueueSize)
	if err != nil {
		return nil, err
	}

	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	return &TapeGc{
		space:      space,
		mgm:        mgm,
		lru:        lru,
		spaceStats: NewSmartSpaceStats(space, mgm, clock, maxConfigCacheAge),
		log:        log.WithField("space", space),
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
	}, nil
}

// FileOpened records that fid was just opened/read, moving it to the front
// of the LRU queue so it is the last candidate considered for eviction.
func (g *TapeGc) FileOpened(fid FileId) {
	g.mu.Lock()
	defer g.mu.Unlock()

	exceededBefore := g.lru.MaxQueueSizeExceeded()
	g.lru.FileAccessed(fid)

	if !exceededBefore && g.lru.MaxQueueSizeExceeded() {
		g.log.Warnf("lru queue reached max size, newly opened files are not tracked until it has room")
	}
}

// StartWorkerThread launches the background eviction loop. Calling it more
// than once is a no-op.
func (g *TapeGc) StartWorkerThread() {
	g.startOnce.Do(func() {
		go g.workerThreadEntryPoint()
	})
}

func (g *TapeGc) workerThreadEntryPoint() {
	defer close(g.doneCh)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		for g.tryToGarbageCollectASingleFile() {
			select {
			case <-g.stopCh:
				return
			default:
			}
		}

		select {
		case <-g.stopCh:
			return
		case <-ticker.C:
		}
	}
}

// tryToGarbageCollectASingleFile evicts at most one disk replica, and
// reports whether the worker loop should immediately try again (true) or
// back off until the next poll (false).
func (g *TapeGc) tryToGarbageCollectASingleFile() bool {
	cfg, err := g.mgm.GetTapeGcSpaceConfig(g.space)
	if err != nil {
		g.log.Debugf("could not read space config: %v", err)
		return false
	}

	stats, err := g.spaceStats.Get()
	if err != nil {
		g.log.Debugf("could not read space stats: %v", err)
		return false
	}

	if stats.AvailBytes >= cfg.AvailBytes || stats.TotalBytes < cfg.TotalBytes {
		return false
	}

	g.mu.Lock()
	fid, err := g.lru.PopLeast()
	g.mu.Unlock()
	if err != nil {
		return false
	}

	size, err := g.mgm.GetFileSizeBytes(fid)
	if err != nil {
		g.log.Infof("could not get size of fid=%d: %v", fid, err)
		return true
	}
	if size == 0 {
		g.log.Infof("fid=%d has zero size, skipping", fid)
		return true
	}

	if err := g.mgm.StagerrmAsRoot(fid); err != nil {
		g.log.Infof("stagerrm failed for fid=%d: %v, re-queueing", fid, err)
		g.mu.Lock()
		g.lru.FileAccessed(fid)
		g.mu.Unlock()
		return false
	}

	g.mu.Lock()
	g.nbStagerrms++
	g.mu.Unlock()

	g.spaceStats.FileQueuedForDeletion(size)
	g.log.Infof("evicted disk replica fid=%d size=%d", fid, size)

	return true
}

// Stats returns a snapshot of the gc's current bookkeeping.
func (g *TapeGc) Stats() (TapeGcStats, error) {
	stats, err := g.spaceStats.Get()
	if err != nil {
		return TapeGcStats{}, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	return TapeGcStats{
		NbStagerrms:    g.nbStagerrms,
		LruQueueSize:   g.lru.Size(),
		SpaceStats:     stats,
		QueryTimestamp: g.spaceStats.QueryTimestamp(),
	}, nil
}

// WriteJSON streams {"spaceName":"...","lruQueue":{...}} to w, returning
// ErrMaxLenExceeded if maxLen is nonzero and exceeded.
func (g *TapeGc) WriteJSON(w io.Writer, maxLen uint64) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	cw := &countingWriter{w: w, maxLen: maxLen}

	if err := writeString(cw, fmt.Sprintf(`{"spaceName":"%s","lruQueue":`, g.space)); err != nil {
		return err
	}
	if err := g.lru.WriteJSON(cw, 0); err != nil {
		return err
	}
	return writeString(cw, "}")
}

// Stop halts the worker goroutine, blocking until it has exited. Stop may
// be called even if StartWorkerThread was never called.
func (g *TapeGc) Stop() {
	select {
	case <-g.stopCh:
	default:
		close(g.stopCh)
	}
	g.startOnce.Do(func() { close(g.doneCh) })
	<-g.doneCh
}
