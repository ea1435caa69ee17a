package raiddp_test

import (
	"testing"

	"github.com/eoslike/tgcraid/internal/raid"
	"github.com/eoslike/tgcraid/internal/raid/raiddp"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func init() {
	logrus.SetLevel(logrus.DebugLevel)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
}

func TestNewCodec(t *testing.T) {
	t.Run("RejectsTooFewDataShards", func(t *testing.T) {
		_, err := raiddp.NewCodec(1)
		assert.NotNil(t, err)
	})

	t.Run("ValidCreation", func(t *testing.T) {
		c, err := raiddp.NewCodec(4)
		assert.Nil(t, err)
		assert.Equal(t, 4, c.DataShards())
		assert.Equal(t, 2, c.ParityShards())
	})
}

func TestCodecComputeAndReconstruct(t *testing.T) {
	c, err := raiddp.NewCodec(3)
	assert.Nil(t, err)

	g := raid.NewGroupBuffer(3, 2, 4)
	copy(g.DataBlocks[0], []byte("AAAA"))
	copy(g.DataBlocks[1], []byte("BBBB"))
	copy(g.DataBlocks[2], []byte("CCCC"))

	assert.Nil(t, c.ComputeParity(g))
	assert.NotEqual(t, make([]byte, 4), g.ParityBlocks[0])
	assert.NotEqual(t, make([]byte, 4), g.ParityBlocks[1])

	shards := g.Shards()
	original := make([][]byte, len(shards))
	for i, s := range shards {
		cp := make([]byte, len(s))
		copy(cp, s)
		original[i] = cp
	}

	// lose one data shard and one parity shard, still within tolerance
	shards[0] = nil
	shards[4] = nil
	assert.Nil(t, c.Reconstruct(shards))
	assert.Equal(t, original, shards)

	// lose three shards, beyond tolerance
	shards2 := make([][]byte, len(original))
	copy(shards2, original)
	shards2[0] = nil
	shards2[1] = nil
	shards2[2] = nil
	assert.NotNil(t, c.Reconstruct(shards2))
}
