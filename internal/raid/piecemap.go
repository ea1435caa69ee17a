package raid

import "sort"

// piece is a contiguous logical byte range [Offset, Offset+Length) that has
// been written since the group containing it last had its parity
// committed. LayoutCoordinator tracks these for sparse (non-streaming)
// writes, where a group may be only partially covered when Sync or Close
// forces parity to be computed.
type piece struct {
	Offset int64
	Length int64
}

// pieceMap tracks the set of written-but-not-yet-parity-committed byte
// ranges for one group, merging adjacent and overlapping pieces as they
// arrive so "is this group fully covered" is a cheap check rather than a
// byte-by-byte scan.
type pieceMap struct {
	pieces []piece
}

func newPieceMap() *pieceMap {
	return &pieceMap{}
}

// Add records that [offset, offset+length) has been written, merging it
// into any overlapping or adjacent pieces already recorded.
func (m *pieceMap) Add(offset, length int64) {
	if length <= 0 {
		return
	}

	m.pieces = append(m.pieces, piece{Offset: offset, Length: length})
	sort.Slice(m.pieces, func(i, j int) bool { return m.pieces[i].Offset < m.pieces[j].Offset })

	merged := m.pieces[:1]
	for _, p := range m.pieces[1:] {
		last := &merged[len(merged)-1]
		if p.Offset <= last.Offset+last.Length {
			if end := p.Offset + p.Length; end > last.Offset+last.Length {
				last.Length = end - last.Offset
			}
			continue
		}
		merged = append(merged, p)
	}
	m.pieces = merged
}

// CoversFully reports whether [offset, offset+length) is entirely covered
// by the pieces recorded so far.
func (m *pieceMap) CoversFully(offset, length int64) bool {
	end := offset + length
	for _, p := range m.pieces {
		if p.Offset <= offset && p.Offset+p.Length >= end {
			return true
		}
	}
	return false
}

// Reset clears every recorded piece, typically called once a group's
// parity has been committed to the stripes.
func (m *pieceMap) Reset() {
	m.pieces = nil
}

// Empty reports whether any piece has been recorded.
func (m *pieceMap) Empty() bool {
	return len(m.pieces) == 0
}
