package tgc_test

import (
	"testing"

	"github.com/eoslike/tgcraid/internal/tgc"
	"github.com/stretchr/testify/assert"
)

func TestNewFreedBytesHistogramValidatesArgs(t *testing.T) {
	clock := tgc.NewFakeClock(0)

	_, err := tgc.NewFreedBytesHistogram(0, 1, clock)
	assert.ErrorIs(t, err, tgc.ErrInvalidNbBins)

	_, err = tgc.NewFreedBytesHistogram(1, 0, clock)
	assert.ErrorIs(t, err, tgc.ErrInvalidBinWidth)

	_, err = tgc.NewFreedBytesHistogram(10, 60, clock)
	assert.NoError(t, err)
}

func TestFreedBytesHistogramAccumulatesWithinOneBin(t *testing.T) {
	clock := tgc.NewFakeClock(0)
	h, err := tgc.NewFreedBytesHistogram(10, 60, clock)
	assert.NoError(t, err)

	h.BytesFreed(100)
	clock.Advance(10)
	h.BytesFreed(50)

	total := h.TotalBytesFreed()
	assert.Equal(t, uint64(150), total)

	b0, err := h.FreedBytesInBin(0)
	assert.NoError(t, err)
	assert.Equal(t, uint64(150), b0)
}

func TestFreedBytesHistogramSlidesOlderBinsOut(t *testing.T) {
	clock := tgc.NewFakeClock(0)
	h, err := tgc.NewFreedBytesHistogram(3, 60, clock)
	assert.NoError(t, err)

	h.BytesFreed(10)
	clock.Advance(60)
	h.BytesFreed(20)
	clock.Advance(60)
	h.BytesFreed(30)

	// The window only has 3 bins of 60s, so 3*60=180s of history at most.
	total, err := h.NbBytesFreedInLastNbSecs(180)
	assert.NoError(t, err)
	assert.Equal(t, uint64(60), total)

	// Advancing past the full capacity should drop the oldest bin (10).
	clock.Advance(60)
	h.BytesFreed(40)

	total = h.TotalBytesFreed()
	assert.Equal(t, uint64(20+30+40), total)
}

func TestFreedBytesHistogramRejectsWindowBeyondCapacity(t *testing.T) {
	clock := tgc.NewFakeClock(0)
	h, err := tgc.NewFreedBytesHistogram(2, 60, clock)
	assert.NoError(t, err)

	_, err = h.NbBytesFreedInLastNbSecs(121)
	assert.ErrorIs(t, err, tgc.ErrTooFarBackInTime)

	_, err = h.NbBytesFreedInLastNbSecs(120)
	assert.NoError(t, err)
}

func TestFreedBytesHistogramFreedBytesInBinRejectsOutOfRange(t *testing.T) {
	clock := tgc.NewFakeClock(0)
	h, err := tgc.NewFreedBytesHistogram(4, 10, clock)
	assert.NoError(t, err)

	_, err = h.FreedBytesInBin(4)
	assert.ErrorIs(t, err, tgc.ErrInvalidBinIndex)
}

func TestFreedBytesHistogramSetBinWidthSecsPreservesRecentData(t *testing.T) {
	clock := tgc.NewFakeClock(0)
	h, err := tgc.NewFreedBytesHistogram(4, 10, clock)
	assert.NoError(t, err)

	h.BytesFreed(40)

	err = h.SetBinWidthSecs(20)
	assert.NoError(t, err)
	assert.Equal(t, uint32(20), h.GetBinWidthSecs())
	assert.Equal(t, uint32(4), h.GetNbBins())

	// Rebinning is an approximation but must not invent or lose the total.
	assert.Equal(t, uint64(40), h.TotalBytesFreed())
}

func TestFreedBytesHistogramSetBinWidthSecsRejectsInvalid(t *testing.T) {
	clock := tgc.NewFakeClock(0)
	h, err := tgc.NewFreedBytesHistogram(4, 10, clock)
	assert.NoError(t, err)

	err = h.SetBinWidthSecs(0)
	assert.ErrorIs(t, err, tgc.ErrInvalidBinWidth)
}
