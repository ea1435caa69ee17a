package raid

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// LayoutID describes the shape of a logical file's layout: how many data
// stripes, how many parity stripes, and how wide each block is.
type LayoutID struct {
	DataShards   int
	ParityShards int
	StripeWidth  int
}

func (id LayoutID) totalStripes() int { return id.DataShards + id.ParityShards }

func (id LayoutID) groupBytes() int { return id.StripeWidth * id.DataShards }

// OpenOptions carries everything LayoutCoordinator.Open needs to bring up
// a logical file's stripes: where they live, which one is local to the
// calling server, and how the array should be opened.
type OpenOptions struct {
	// URLs is the ordered set of physical stripe locations, one per
	// logical stripe 0..N+P-1, as handed down by the entry server.
	URLs []string

	// ReplicaIndex is this server's position among the replicas; when it
	// equals ReplicaHead this server is the entry server coordinating the
	// others.
	ReplicaIndex int
	ReplicaHead  int

	Flags OpenFlags

	// StoreRecovery opens every stripe read-write and makes Open persist
	// the repaired header map when some headers were corrupt or missing.
	// OTrunc implies it. Headers are not rewritten when every header
	// validated cleanly.
	StoreRecovery bool
}

func (o OpenOptions) isEntryServer() bool { return o.ReplicaIndex == o.ReplicaHead }

// Layout is the LayoutCoordinator: it opens a logical file's N+P stripes,
// validates their headers, and orchestrates reads and writes across them,
// computing and verifying parity through an injected ParityCodec.
type Layout struct {
	id      LayoutID
	factory StripeIOFactory
	codec   ParityCodec

	mu            sync.Mutex
	opened        bool
	entryServer   bool
	storeRecovery bool

	stripes           []StripeIO // physical order
	logicalToPhysical map[int]int
	physicalToLogical map[int]int

	fileSize        int64
	lastWriteOffset int64
	committedBlocks uint64

	openGroups     map[int64]*GroupBuffer
	openGroupDirty map[int64]*pieceMap
}

// NewLayout constructs a Layout for the given shape, using factory to open
// stripe I/O and codec to compute and recover parity. Neither factory nor
// codec is ever stored as global state; every Layout owns its own.
func NewLayout(id LayoutID, factory StripeIOFactory, codec ParityCodec) (*Layout, error) {
	if id.totalStripes() < 2 {
		return nil, fmt.Errorf("%w: layout needs at least 2 stripes, got %d", ErrArgument, id.totalStripes())
	}
	if id.StripeWidth < 64 {
		return nil, fmt.Errorf("%w: stripe width must be >= 64 bytes, got %d", ErrArgument, id.StripeWidth)
	}
	if codec.DataShards() != id.DataShards || codec.ParityShards() != id.ParityShards {
		return nil, fmt.Errorf("%w: codec shape %d+%d does not match layout shape %d+%d",
			ErrArgument, codec.DataShards(), codec.ParityShards(), id.DataShards, id.ParityShards)
	}

	return &Layout{
		id:             id,
		factory:        factory,
		codec:          codec,
		openGroups:     make(map[int64]*GroupBuffer),
		openGroupDirty: make(map[int64]*pieceMap),
	}, nil
}

// Open opens every stripe listed in opts.URLs, tolerating up to P
// failures, then validates the headers of whichever stripes opened
// successfully to rebuild the logical<->physical stripe map.
func (l *Layout) Open(ctx context.Context, opts OpenOptions) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.opened {
		return ErrAlreadyOpen
	}
	if len(opts.URLs) != l.id.totalStripes() {
		return fmt.Errorf("%w: expected %d stripe URLs, got %d", ErrArgument, l.id.totalStripes(), len(opts.URLs))
	}

	l.entryServer = opts.isEntryServer()
	l.storeRecovery = opts.StoreRecovery || opts.Flags&OTrunc != 0

	flags := opts.Flags
	if l.storeRecovery {
		flags = flags&^ORdOnly | ORdWr
	}

	stripes := make([]StripeIO, len(opts.URLs))

	// Stripe 0 is opened synchronously first, matching the original
	// layout's "open the local stripe before fanning the rest out".
	first, err := l.factory.Open(ctx, opts.URLs[0], flags)
	if err != nil {
		return fmt.Errorf("raid: failed to open stripe 0 (%s): %w", opts.URLs[0], err)
	}
	stripes[0] = first

	handler := NewAsyncHandler()
	for i := 1; i < len(opts.URLs); i++ {
		i, url := i, opts.URLs[i]
		handler.Go(i, func() error {
			s, err := l.factory.Open(ctx, url, flags)
			if err != nil {
				return err
			}
			stripes[i] = s
			return nil
		})
	}

	if !handler.WaitOK(l.id.ParityShards) {
		errs := handler.ErrorsMap()
		logrus.Warnf("raid: %d stripes failed to open, tolerance is %d: %v", len(errs), l.id.ParityShards, errs)
		return fmt.Errorf("%w: %d stripes failed to open", ErrTooManyErasures, len(errs))
	}

	l.stripes = stripes

	if opts.Flags&OTrunc != 0 {
		l.logicalToPhysical = make(map[int]int, len(stripes))
		l.physicalToLogical = make(map[int]int, len(stripes))
		for i := range stripes {
			l.logicalToPhysical[i] = i
			l.physicalToLogical[i] = i
		}
		l.opened = true
		return l.writeAllHeaders(ctx, 0, 0, true)
	}

	headers := make([]*Header, len(stripes))
	for i, s := range stripes {
		if s == nil {
			continue
		}
		hdrBuf := make([]byte, HeaderSize)
		if _, err := s.Read(ctx, 0, hdrBuf); err != nil {
			logrus.Debugf("raid: failed to read header from physical stripe %d: %v", i, err)
			continue
		}
		h, err := ReadHeaderFrom(bytes.NewReader(hdrBuf))
		if err != nil {
			logrus.Warnf("raid: physical stripe %d has a corrupt header: %v", i, err)
			continue
		}
		headers[i] = h
	}

	set, err := ValidateHeaders(headers, l.id.ParityShards)
	if err != nil {
		return err
	}

	l.logicalToPhysical = set.LogicalToPhysical
	l.physicalToLogical = set.PhysicalToLogical

	// Every flushed group is written at full stripe width (see flushGroup),
	// so the logical file size recovered at Open is simply the number of
	// committed groups times the bytes each one holds.
	var maxBlocks uint64
	for _, h := range headers {
		if h != nil && h.Valid && h.NBlocks > maxBlocks {
			maxBlocks = h.NBlocks
		}
	}
	l.fileSize = int64(l.id.groupBytes()) * int64(maxBlocks)
	l.lastWriteOffset = l.fileSize
	l.committedBlocks = maxBlocks

	l.opened = true

	if set.AllInvalid {
		// A brand-new (or fully zeroed) stripe set: establish the empty
		// file unconditionally, regardless of storeRecovery, since every
		// header is garbage and must be replaced before anything else can
		// trust it.
		if err := l.writeAllHeaders(ctx, 0, 0, true); err != nil {
			logrus.Errorf("raid: failed to initialize headers for new file: %v", err)
			return err
		}
	} else if len(set.Corrupt) > 0 && l.storeRecovery {
		if err := l.writeAllHeaders(ctx, maxBlocks, uint32(l.id.StripeWidth), true); err != nil {
			logrus.Errorf("raid: failed to persist recovered header map: %v", err)
		}
	}

	return nil
}

// Write writes buf at logical offset off, treating the write as streaming
// when it is contiguous with the previous write (no read-modify-write
// needed) and as sparse otherwise (existing stripe contents are read back
// and merged before parity is recomputed).
func (l *Layout) Write(ctx context.Context, off int64, buf []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.opened {
		return 0, ErrNotOpen
	}
	if !l.entryServer {
		return 0, ErrNotEntryServer
	}
	if off < 0 {
		return 0, ErrArgument
	}

	streaming := off == l.lastWriteOffset
	groupBytes := int64(l.id.groupBytes())

	written := 0
	for written < len(buf) {
		groupIdx := (off + int64(written)) / groupBytes
		localOffset := int((off + int64(written)) % groupBytes)
		n := len(buf) - written
		if localOffset+n > int(groupBytes) {
			n = int(groupBytes) - localOffset
		}

		g, pm, err := l.loadOrCreateGroup(ctx, groupIdx, streaming && localOffset == 0)
		if err != nil {
			return written, err
		}

		g.LoadData(localOffset, buf[written:written+n])
		pm.Add(int64(localOffset), int64(n))

		if pm.CoversFully(0, groupBytes) {
			if err := l.flushGroup(ctx, groupIdx, g); err != nil {
				return written, err
			}
		}

		written += n
	}

	l.lastWriteOffset = off + int64(written)
	if l.lastWriteOffset > l.fileSize {
		l.fileSize = l.lastWriteOffset
	}

	return written, nil
}

// loadOrCreateGroup returns the in-memory buffer for groupIdx, creating it
// if necessary. freshGroup true skips the read-modify-write load because
// the caller knows this group has no prior on-disk content worth
// preserving (a streaming write starting exactly at the group boundary).
func (l *Layout) loadOrCreateGroup(ctx context.Context, groupIdx int64, freshGroup bool) (*GroupBuffer, *pieceMap, error) {
	if g, ok := l.openGroups[groupIdx]; ok {
		return g, l.openGroupDirty[groupIdx], nil
	}

	g := NewGroupBuffer(l.id.DataShards, l.id.ParityShards, l.id.StripeWidth)
	pm := newPieceMap()

	if !freshGroup && groupIdx*int64(l.id.groupBytes()) < l.fileSize {
		if err := l.readGroupInto(ctx, groupIdx, g); err != nil {
			return nil, nil, err
		}
	}

	l.openGroups[groupIdx] = g
	l.openGroupDirty[groupIdx] = pm
	return g, pm, nil
}

// readGroupInto reads groupIdx's data+parity shards off the stripes into
// g, reconstructing via the parity codec if up to P shards are missing or
// unreadable.
func (l *Layout) readGroupInto(ctx context.Context, groupIdx int64, g *GroupBuffer) error {
	shards := make([][]byte, l.id.totalStripes())
	groupOffset := HeaderSize + groupIdx*int64(l.id.StripeWidth)

	handler := NewAsyncHandler()
	for logical := 0; logical < l.id.totalStripes(); logical++ {
		logical := logical
		phys, ok := l.logicalToPhysical[logical]
		if !ok {
			continue
		}
		handler.Go(logical, func() error {
			buf := make([]byte, l.id.StripeWidth)
			// A stripe that has never been written this far reads back
			// short or empty; buf starts zeroed, so that part counts as zero.
			if _, err := l.stripes[phys].Read(ctx, groupOffset, buf); err != nil {
				return err
			}
			shards[logical] = buf
			return nil
		})
	}
	handler.Wait()

	missing := 0
	for _, s := range shards {
		if s == nil {
			missing++
		}
	}
	if missing > l.id.ParityShards {
		return fmt.Errorf("%w: group %d has %d missing shards", ErrTooManyErasures, groupIdx, missing)
	}
	if missing > 0 {
		if err := l.codec.Reconstruct(shards); err != nil {
			return fmt.Errorf("raid: failed to reconstruct group %d: %w", groupIdx, err)
		}
	}

	g.SetShards(shards)
	return nil
}

// flushGroup computes parity over g and writes every data and parity block
// to its physical stripe, then rewrites every stripe's header.
func (l *Layout) flushGroup(ctx context.Context, groupIdx int64, g *GroupBuffer) error {
	if err := l.codec.ComputeParity(g); err != nil {
		return fmt.Errorf("raid: failed to compute parity for group %d: %w", groupIdx, err)
	}

	groupOffset := HeaderSize + groupIdx*int64(l.id.StripeWidth)
	shards := g.Shards()

	handler := NewAsyncHandler()
	for logical, shard := range shards {
		logical, shard := logical, shard
		phys, ok := l.logicalToPhysical[logical]
		if !ok {
			continue
		}
		handler.Go(logical, func() error {
			_, err := l.stripes[phys].Write(ctx, groupOffset, shard)
			return err
		})
	}

	if !handler.WaitOK(l.id.ParityShards) {
		errs := handler.ErrorsMap()
		return fmt.Errorf("%w: %d stripes failed to write group %d: %v", ErrTooManyErasures, len(errs), groupIdx, errs)
	}

	delete(l.openGroups, groupIdx)
	delete(l.openGroupDirty, groupIdx)

	// nBlocks must be monotonic across flushes regardless of the order
	// groups commit in: a lower-indexed group flushing after a
	// higher-indexed one (the cross-group sparse-write case) must not
	// regress the header's recorded block count.
	if n := uint64(groupIdx) + 1; n > l.committedBlocks {
		l.committedBlocks = n
	}
	return l.writeAllHeaders(ctx, l.committedBlocks, uint32(l.id.StripeWidth), true)
}

// Read reads length bytes starting at logical offset off into buf.
func (l *Layout) Read(ctx context.Context, off int64, buf []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.opened {
		return 0, ErrNotOpen
	}
	if off < 0 {
		return 0, ErrArgument
	}
	if off >= l.fileSize {
		return 0, nil
	}

	length := len(buf)
	if off+int64(length) > l.fileSize {
		length = int(l.fileSize - off)
	}

	groupBytes := int64(l.id.groupBytes())
	read := 0
	for read < length {
		groupIdx := (off + int64(read)) / groupBytes
		localOffset := int((off + int64(read)) % groupBytes)
		n := length - read
		if localOffset+n > int(groupBytes) {
			n = int(groupBytes) - localOffset
		}

		var flat []byte
		if g, ok := l.openGroups[groupIdx]; ok {
			flat = g.Flatten()
		} else {
			g := NewGroupBuffer(l.id.DataShards, l.id.ParityShards, l.id.StripeWidth)
			if err := l.readGroupInto(ctx, groupIdx, g); err != nil {
				return read, err
			}
			flat = g.Flatten()
		}

		copy(buf[read:read+n], flat[localOffset:localOffset+n])
		read += n
	}

	return read, nil
}

// Sync flushes every partially-written open group's parity to the
// stripes without closing the layout.
func (l *Layout) Sync(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.flushOpenGroupsLocked(ctx)
}

func (l *Layout) flushOpenGroupsLocked(ctx context.Context) error {
	for groupIdx, g := range l.openGroups {
		if err := l.flushGroup(ctx, groupIdx, g); err != nil {
			return err
		}
	}
	return nil
}

// Close flushes any remaining open groups, rewrites final headers, and
// closes every stripe, tolerating up to P close failures.
func (l *Layout) Close(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.opened {
		return nil
	}

	if err := l.flushOpenGroupsLocked(ctx); err != nil {
		logrus.Errorf("raid: failed to flush pending groups on close: %v", err)
	}

	handler := NewAsyncHandler()
	for logical := 1; logical < l.id.totalStripes(); logical++ {
		logical := logical
		phys, ok := l.logicalToPhysical[logical]
		if !ok {
			continue
		}
		handler.Go(logical, func() error { return l.stripes[phys].Close(ctx) })
	}

	var closeErr error
	if !handler.WaitOK(l.id.ParityShards) {
		errs := handler.ErrorsMap()
		closeErr = fmt.Errorf("%w: %d stripes failed to close: %v", ErrTooManyErasures, len(errs), errs)
	}

	if phys, ok := l.logicalToPhysical[0]; ok {
		if err := l.stripes[phys].Close(ctx); err != nil {
			logrus.Warnf("raid: failed to close local stripe: %v", err)
		}
	}

	l.opened = false
	return closeErr
}

// Stat reports the logical file size this coordinator is tracking. It is
// intentionally the coordinator's own bookkeeping rather than any single
// stripe's on-disk size, since it must be accurate mid-write before a
// partially-covered group's header has been rewritten.
func (l *Layout) Stat() (StripeStat, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.opened {
		return StripeStat{}, ErrNotOpen
	}
	return StripeStat{Size: l.fileSize}, nil
}

// writeAllHeaders rewrites the header block of every stripe this
// coordinator has open, assigning each its logical stripe id from
// physicalToLogical.
func (l *Layout) writeAllHeaders(ctx context.Context, nBlocks uint64, lastBlockSize uint32, valid bool) error {
	handler := NewAsyncHandler()
	for phys, s := range l.stripes {
		phys, s := phys, s
		logical, ok := l.physicalToLogical[phys]
		if !ok || s == nil {
			continue
		}
		handler.Go(phys, func() error {
			h := &Header{
				StripeID:      uint32(logical),
				NBlocks:       nBlocks,
				LastBlockSize: lastBlockSize,
				Valid:         valid,
			}
			var buf bytes.Buffer
			if _, err := h.WriteTo(&buf); err != nil {
				return err
			}
			_, err := s.Write(ctx, 0, buf.Bytes())
			return err
		})
	}

	if !handler.WaitOK(l.id.ParityShards) {
		errs := handler.ErrorsMap()
		return fmt.Errorf("%w: %d stripes failed to persist headers: %v", ErrTooManyErasures, len(errs), errs)
	}
	return nil
}
