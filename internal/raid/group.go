package raid

// GroupBuffer holds one parity group's worth of blocks: a horizontal band
// of fixed-width blocks across every stripe, the unit a ParityCodec
// computes parity over. Block index i in DataBlocks corresponds to logical
// stripe i; block index j in ParityBlocks corresponds to logical stripe
// nData+j.
type GroupBuffer struct {
	StripeWidth  int
	DataBlocks   [][]byte
	ParityBlocks [][]byte
}

// NewGroupBuffer allocates a zeroed group of nData data blocks and
// nParity parity blocks, each stripeWidth bytes wide.
func NewGroupBuffer(nData, nParity, stripeWidth int) *GroupBuffer {
	g := &GroupBuffer{StripeWidth: stripeWidth}

	g.DataBlocks = make([][]byte, nData)
	for i := range g.DataBlocks {
		g.DataBlocks[i] = make([]byte, stripeWidth)
	}

	g.ParityBlocks = make([][]byte, nParity)
	for i := range g.ParityBlocks {
		g.ParityBlocks[i] = make([]byte, stripeWidth)
	}

	return g
}

// Shards returns every block in logical stripe order: all data blocks
// followed by all parity blocks, the order klauspost/reedsolomon and the
// ParityCodec implementations expect.
func (g *GroupBuffer) Shards() [][]byte {
	all := make([][]byte, 0, len(g.DataBlocks)+len(g.ParityBlocks))
	all = append(all, g.DataBlocks...)
	all = append(all, g.ParityBlocks...)
	return all
}

// SetShards installs shards (as returned by Shards, after reconstruction or
// re-encoding) back into DataBlocks/ParityBlocks.
func (g *GroupBuffer) SetShards(shards [][]byte) {
	nData := len(g.DataBlocks)
	copy(g.DataBlocks, shards[:nData])
	copy(g.ParityBlocks, shards[nData:])
}

// Flatten concatenates the data blocks (not the parity blocks) into a
// single logical byte slice of length len(DataBlocks)*StripeWidth.
func (g *GroupBuffer) Flatten() []byte {
	out := make([]byte, 0, len(g.DataBlocks)*g.StripeWidth)
	for _, b := range g.DataBlocks {
		out = append(out, b...)
	}
	return out
}

// LoadData overlays logical bytes into the data blocks starting at byte
// offset within the group, growing nothing - the caller must ensure buf
// fits within the data blocks' total capacity.
func (g *GroupBuffer) LoadData(offset int, buf []byte) {
	flat := g.Flatten()
	copy(flat[offset:], buf)
	for i, b := range g.DataBlocks {
		copy(b, flat[i*g.StripeWidth:(i+1)*g.StripeWidth])
	}
}
