package tgc

import (
	"fmt"
	"sync"
)

// MaxNbBins and MaxBinWidthSecs bound FreedBytesHistogram's configuration
// to sane values; the original histogram enforced the same kind of
// sanity limits to stop a misconfiguration from allocating an enormous
// slice.
const (
	MaxNbBins       = 1_000_000
	MaxBinWidthSecs = 365 * 24 * 3600
)

// FreedBytesHistogram is a circular, time-aligned histogram of bytes
// freed by tape-aware garbage collection, used to report recent
// throughput (e.g. "bytes freed in the last hour").
type FreedBytesHistogram struct {
	mu sync.Mutex

	// histogram[startIndex] is always the bin covering "now"; bins further
	// from startIndex (moving backward, circularly) cover progressively
	// older time.
	histogram  []uint64
	startIndex int

	binWidthSecs uint32
	clock        Clock

	lastUpdateTimestamp int64
}

// NewFreedBytesHistogram builds a histogram of nbBins bins, each
// binWidthSecs wide, reading the current time from clock.
func NewFreedBytesHistogram(nbBins, binWidthSecs uint32, clock Clock) (*FreedBytesHistogram, error) {
	if nbBins < 1 || nbBins > MaxNbBins {
		return nil, fmt.Errorf("%w: nbBins=%d", ErrInvalidNbBins, nbBins)
	}
	if binWidthSecs < 1 || binWidthSecs > MaxBinWidthSecs {
		return nil, fmt.Errorf("%w: binWidthSecs=%d", ErrInvalidBinWidth, binWidthSecs)
	}

	return &FreedBytesHistogram{
		histogram:           make([]uint64, nbBins),
		binWidthSecs:        binWidthSecs,
		clock:               clock,
		lastUpdateTimestamp: clock.NowSecs(),
	}, nil
}

// BytesFreed records that nbBytes were just freed, crediting them to the
// bin covering the current time.
func (h *FreedBytesHistogram) BytesFreed(nbBytes uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.alignHistogramWithNow()
	h.histogram[h.startIndex] += nbBytes
}

// alignHistogramWithNow slides the histogram forward so bin startIndex
// once again covers the current time, zeroing every bin it slides past.
// Callers must hold h.mu.
func (h *FreedBytesHistogram) alignHistogramWithNow() {
	now := h.clock.NowSecs()
	ageSecs := now - h.lastUpdateTimestamp
	if ageSecs <= 0 {
		return
	}

	nbBins := len(h.histogram)
	nbBinsToMove := divideAndRoundToNearest(ageSecs, int64(h.binWidthSecs))
	if nbBinsToMove > int64(nbBins) {
		nbBinsToMove = int64(nbBins)
	}

	for i := int64(0); i < nbBinsToMove; i++ {
		h.startIndex = (h.startIndex + 1) % nbBins
		h.histogram[h.startIndex] = 0
	}

	h.lastUpdateTimestamp = now
}

// NbBytesFreedInLastNbSecs sums the bytes freed in the last lastNbSecs
// seconds, returning ErrTooFarBackInTime if that exceeds the histogram's
// total capacity (nbBins * binWidthSecs).
func (h *FreedBytesHistogram) NbBytesFreedInLastNbSecs(lastNbSecs uint32) (uint64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if uint64(lastNbSecs) > uint64(len(h.histogram))*uint64(h.binWidthSecs) {
		return 0, fmt.Errorf("%w: lastNbSecs=%d capacity=%d", ErrTooFarBackInTime,
			lastNbSecs, uint64(len(h.histogram))*uint64(h.binWidthSecs))
	}

	h.alignHistogramWithNow()

	if lastNbSecs == 0 {
		return 0, nil
	}

	nbBinsNeeded := divideAndRoundUp(int64(lastNbSecs), int64(h.binWidthSecs))

	var total uint64
	nbBins := int64(len(h.histogram))
	for i := int64(0); i < nbBinsNeeded; i++ {
		idx := (int64(h.startIndex) - i + nbBins*2) % nbBins
		total += h.histogram[idx]
	}

	return total, nil
}

// TotalBytesFreed sums every bin the histogram currently holds.
func (h *FreedBytesHistogram) TotalBytesFreed() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.alignHistogramWithNow()

	var total uint64
	for _, v := range h.histogram {
		total += v
	}
	return total
}

// FreedBytesInBin returns the raw value of bin binIndex, where bin 0 is
// the bin currently covering "now" and larger indices are progressively
// older.
func (h *FreedBytesHistogram) FreedBytesInBin(binIndex uint32) (uint64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if int(binIndex) >= len(h.histogram) {
		return 0, fmt.Errorf("%w: binIndex=%d nbBins=%d", ErrInvalidBinIndex, binIndex, len(h.histogram))
	}

	h.alignHistogramWithNow()

	nbBins := len(h.histogram)
	idx := (h.startIndex - int(binIndex) + nbBins*2) % nbBins
	return h.histogram[idx], nil
}

// GetBinWidthSecs returns the current bin width.
func (h *FreedBytesHistogram) GetBinWidthSecs() uint32 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.binWidthSecs
}

// GetNbBins returns the number of bins in the histogram.
func (h *FreedBytesHistogram) GetNbBins() uint32 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return uint32(len(h.histogram))
}

// SetBinWidthSecs rebuilds the histogram at a new bin width, redistributing
// the bytes-freed-per-second of each old bin into the new, differently
// sized bins. The number of bins does not change, so the historical depth
// becomes nbBins * newBinWidthSecs; seconds older than the old depth are
// rebuilt as zero.
func (h *FreedBytesHistogram) SetBinWidthSecs(newBinWidthSecs uint32) error {
	if newBinWidthSecs < 1 || newBinWidthSecs > MaxBinWidthSecs {
		return fmt.Errorf("%w: binWidthSecs=%d", ErrInvalidBinWidth, newBinWidthSecs)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.alignHistogramWithNow()

	nbBins := len(h.histogram)
	newHistoricalDepthSecs := int64(nbBins) * int64(newBinWidthSecs)

	rebuilt := make([]uint64, nbBins)
	for secsAgo := int64(1); secsAgo <= newHistoricalDepthSecs; secsAgo++ {
		perSec, err := h.freedBytesPerSecLocked(secsAgo)
		if err != nil {
			break
		}
		binIdx := (secsAgo - 1) / int64(newBinWidthSecs)
		if binIdx >= int64(nbBins) {
			break
		}
		rebuilt[binIdx] += perSec
	}

	h.histogram = rebuilt
	h.startIndex = 0
	h.binWidthSecs = newBinWidthSecs

	return nil
}

// freedBytesPerSecLocked estimates the bytes freed per second secsAgo
// seconds ago, by dividing the bin it falls into evenly across the bin's
// width. Callers must hold h.mu.
func (h *FreedBytesHistogram) freedBytesPerSecLocked(secsAgo int64) (uint64, error) {
	nbBins := int64(len(h.histogram))
	if secsAgo > nbBins*int64(h.binWidthSecs) {
		return 0, ErrTooFarBackInTime
	}

	binOffset := (secsAgo - 1) / int64(h.binWidthSecs)
	idx := (int64(h.startIndex) - binOffset + nbBins*2) % nbBins

	return divideAndRoundToNearestU64(h.histogram[idx], uint64(h.binWidthSecs)), nil
}

func divideAndRoundToNearest(a, b int64) int64 {
	if b == 0 {
		return 0
	}
	return (a + b/2) / b
}

func divideAndRoundUp(a, b int64) int64 {
	if b == 0 {
		return 0
	}
	return (a + b - 1) / b
}

func divideAndRoundToNearestU64(a, b uint64) uint64 {
	if b == 0 {
		return 0
	}
	return (a + b/2) / b
}
