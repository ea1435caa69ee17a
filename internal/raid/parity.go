package raid

// ParityCodec computes and recovers parity for one group of blocks. It is
// the polymorphic seam between the fixed-two-parity RAID-DP scheme
// (internal/raid/raiddp) and the configurable-parity-count Reed-Solomon
// scheme (internal/raid/raid6); LayoutCoordinator only ever talks to this
// interface.
type ParityCodec interface {
	// DataShards is N, the number of data stripes.
	DataShards() int
	// ParityShards is P, the number of parity stripes.
	ParityShards() int

	// ComputeParity fills g.ParityBlocks from g.DataBlocks.
	ComputeParity(g *GroupBuffer) error

	// Reconstruct repairs any nil entries in shards (logical stripe order,
	// data then parity) in place, given no more than ParityShards() are
	// nil. It returns an error otherwise.
	Reconstruct(shards [][]byte) error
}
