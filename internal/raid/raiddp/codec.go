// Package raiddp implements the fixed two-parity-stripe scheme: every
// group has exactly two parity blocks (P and Q), encoded with
// klauspost/reedsolomon, and neither parity block ever rotates across
// stripes. It is the Go generalization of the teacher's RAID6Controller,
// which hard-coded the same "last two disks always hold parity" layout.
package raiddp

import (
	"fmt"

	"github.com/eoslike/tgcraid/internal/raid"
	"github.com/eoslike/tgcraid/internal/rsutil"
	"github.com/klauspost/reedsolomon"
)

// Codec implements raid.ParityCodec with exactly two, non-rotating parity
// shards.
type Codec struct {
	nData   int
	encoder reedsolomon.Encoder
	ext     reedsolomon.Extensions
}

// NewCodec builds a Codec for nData data shards and exactly two parity
// shards.
func NewCodec(nData int) (*Codec, error) {
	if nData < 2 {
		return nil, fmt.Errorf("raiddp: requires at least 2 data shards, got %d", nData)
	}

	enc, err := reedsolomon.New(nData, 2)
	if err != nil {
		return nil, fmt.Errorf("raiddp: failed to create reedsolomon encoder: %w", err)
	}
	ext, ok := enc.(reedsolomon.Extensions)
	if !ok {
		return nil, fmt.Errorf("raiddp: reedsolomon encoder does not implement Extensions")
	}

	return &Codec{nData: nData, encoder: enc, ext: ext}, nil
}

func (c *Codec) DataShards() int   { return c.ext.DataShards() }
func (c *Codec) ParityShards() int { return c.ext.ParityShards() }

// ComputeParity fills g.ParityBlocks[0] (P) and g.ParityBlocks[1] (Q) from
// g.DataBlocks.
func (c *Codec) ComputeParity(g *raid.GroupBuffer) error {
	shards := g.Shards()
	if err := c.encoder.Encode(shards); err != nil {
		return fmt.Errorf("raiddp: failed to encode parity: %w", err)
	}
	g.SetShards(shards)
	return nil
}

// Reconstruct repairs nil entries in shards (logical order: data then P,
// then Q), tolerating up to two missing shards.
func (c *Codec) Reconstruct(shards [][]byte) error {
	return rsutil.ReconstructStripeShards(shards, c.encoder, 2)
}
