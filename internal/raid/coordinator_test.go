package raid_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/eoslike/tgcraid/internal/raid"
	"github.com/eoslike/tgcraid/internal/raid/raid6"
	"github.com/eoslike/tgcraid/internal/raid/raiddp"
	"github.com/stretchr/testify/assert"
)

func newTestLayout(t *testing.T, nData int) (*raid.Layout, *raid.MemStripeIOFactory) {
	t.Helper()
	codec, err := raiddp.NewCodec(nData)
	assert.Nil(t, err)

	id := raid.LayoutID{DataShards: nData, ParityShards: 2, StripeWidth: 64}
	factory := raid.NewMemStripeIOFactory()

	l, err := raid.NewLayout(id, factory, codec)
	assert.Nil(t, err)

	return l, factory
}

func testURLs(n int) []string {
	urls := make([]string, n)
	for i := range urls {
		urls[i] = "mem://stripe" + string(rune('0'+i))
	}
	return urls
}

func TestLayoutWriteReadRoundTrip(t *testing.T) {
	ctx := context.Background()
	l, factory := newTestLayout(t, 3)
	urls := testURLs(5)

	err := l.Open(ctx, raid.OpenOptions{URLs: urls, ReplicaIndex: 0, ReplicaHead: 0, Flags: raid.ORdWr | raid.OTrunc})
	assert.Nil(t, err)

	input := bytes.Repeat([]byte("0123456789abcdef"), 20) // 320 bytes, spans multiple groups
	n, err := l.Write(ctx, 0, input)
	assert.Nil(t, err)
	assert.Equal(t, len(input), n)

	out := make([]byte, len(input))
	n, err = l.Read(ctx, 0, out)
	assert.Nil(t, err)
	assert.Equal(t, len(input), n)
	assert.Equal(t, input, out)

	stat, err := l.Stat()
	assert.Nil(t, err)
	assert.Equal(t, int64(len(input)), stat.Size)

	assert.Nil(t, l.Close(ctx))
	_ = factory
}

func TestLayoutToleratesOneDiskFailureOnRead(t *testing.T) {
	ctx := context.Background()
	l, factory := newTestLayout(t, 3)
	urls := testURLs(5)

	assert.Nil(t, l.Open(ctx, raid.OpenOptions{URLs: urls, ReplicaIndex: 0, ReplicaHead: 0, Flags: raid.ORdWr | raid.OTrunc}))

	input := bytes.Repeat([]byte("X"), 192) // exactly one full group (3*64)
	_, err := l.Write(ctx, 0, input)
	assert.Nil(t, err)

	factory.Fail(urls[1])

	out := make([]byte, len(input))
	n, err := l.Read(ctx, 0, out)
	assert.Nil(t, err)
	assert.Equal(t, len(input), n)
	assert.Equal(t, input, out)
}

func TestLayoutSparseWritePreservesExistingBytes(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLayout(t, 3)
	urls := testURLs(5)

	assert.Nil(t, l.Open(ctx, raid.OpenOptions{URLs: urls, ReplicaIndex: 0, ReplicaHead: 0, Flags: raid.ORdWr | raid.OTrunc}))

	full := bytes.Repeat([]byte("A"), 192)
	_, err := l.Write(ctx, 0, full)
	assert.Nil(t, err)

	// non-contiguous write into the middle of the already-written group
	_, err = l.Write(ctx, 10, []byte("BBBB"))
	assert.Nil(t, err)

	out := make([]byte, 192)
	_, err = l.Read(ctx, 0, out)
	assert.Nil(t, err)

	want := bytes.Repeat([]byte("A"), 192)
	copy(want[10:14], []byte("BBBB"))
	assert.Equal(t, want, out)
}

func TestLayoutOpenRejectsWrongURLCount(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLayout(t, 3)

	err := l.Open(ctx, raid.OpenOptions{URLs: testURLs(3), Flags: raid.OTrunc})
	assert.ErrorIs(t, err, raid.ErrArgument)
}

func TestLayoutOpenWithAllHeadersInvalidInitializesEmptyFile(t *testing.T) {
	ctx := context.Background()

	codec, err := raid6.NewCodec(1, 1)
	assert.Nil(t, err)
	id := raid.LayoutID{DataShards: 1, ParityShards: 1, StripeWidth: 64}
	factory := raid.NewMemStripeIOFactory()

	l, err := raid.NewLayout(id, factory, codec)
	assert.Nil(t, err)

	urls := testURLs(2)
	// No OTrunc: both stripes are fresh/zeroed, so neither has a header
	// at all. Open must still succeed, treating this as a new empty file
	// rather than an unrecoverable erasure.
	err = l.Open(ctx, raid.OpenOptions{URLs: urls, ReplicaIndex: 0, ReplicaHead: 0, Flags: raid.ORdWr})
	assert.Nil(t, err)

	stat, err := l.Stat()
	assert.Nil(t, err)
	assert.Equal(t, int64(0), stat.Size)

	out := make([]byte, 16)
	n, err := l.Read(ctx, 0, out)
	assert.Nil(t, err)
	assert.Equal(t, 0, n)
}

func TestLayoutCrossGroupSparseWriteKeepsHeadersConsistentAfterClose(t *testing.T) {
	ctx := context.Background()
	l, factory := newTestLayout(t, 3)
	urls := testURLs(5)

	assert.Nil(t, l.Open(ctx, raid.OpenOptions{URLs: urls, ReplicaIndex: 0, ReplicaHead: 0, Flags: raid.ORdWr | raid.OTrunc}))

	const groupBytes = 3 * 64
	lowOffset := int64(3 * groupBytes)
	highOffset := int64(7 * groupBytes)

	low := bytes.Repeat([]byte("L"), 64)
	high := bytes.Repeat([]byte("H"), 64)

	// Write the high-numbered group first so the lower-numbered group's
	// flush, if it ran last and overwrote the header with its own smaller
	// block count, would lose the high group's data.
	_, err := l.Write(ctx, highOffset, high)
	assert.Nil(t, err)
	_, err = l.Write(ctx, lowOffset, low)
	assert.Nil(t, err)

	assert.Nil(t, l.Close(ctx))

	codec2, err := raiddp.NewCodec(3)
	assert.Nil(t, err)
	id2 := raid.LayoutID{DataShards: 3, ParityShards: 2, StripeWidth: 64}
	l2, err := raid.NewLayout(id2, factory, codec2)
	assert.Nil(t, err)
	assert.Nil(t, l2.Open(ctx, raid.OpenOptions{URLs: urls, ReplicaIndex: 0, ReplicaHead: 0, Flags: raid.ORdWr}))

	stat, err := l2.Stat()
	assert.Nil(t, err)
	assert.GreaterOrEqual(t, stat.Size, highOffset+64)

	out := make([]byte, 64)
	n, err := l2.Read(ctx, highOffset, out)
	assert.Nil(t, err)
	assert.Equal(t, 64, n)
	assert.Equal(t, high, out)

	n, err = l2.Read(ctx, lowOffset, out)
	assert.Nil(t, err)
	assert.Equal(t, 64, n)
	assert.Equal(t, low, out)
}

func TestLayoutNonEntryServerCannotWrite(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLayout(t, 3)
	urls := testURLs(5)

	assert.Nil(t, l.Open(ctx, raid.OpenOptions{URLs: urls, ReplicaIndex: 1, ReplicaHead: 0, Flags: raid.ORdWr | raid.OTrunc}))

	_, err := l.Write(ctx, 0, []byte("x"))
	assert.ErrorIs(t, err, raid.ErrNotEntryServer)
}
