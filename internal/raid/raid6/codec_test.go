package raid6_test

import (
	"testing"

	"github.com/eoslike/tgcraid/internal/raid"
	"github.com/eoslike/tgcraid/internal/raid/raid6"
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
	t.Run("RejectsZeroParity", func(t *testing.T) {
		_, err := raid6.NewCodec(4, 0)
		assert.NotNil(t, err)
	})

	t.Run("ConfigurableParityWidth", func(t *testing.T) {
		c, err := raid6.NewCodec(4, 3)
		assert.Nil(t, err)
		assert.Equal(t, 4, c.DataShards())
		assert.Equal(t, 3, c.ParityShards())
	})
}

func TestCodecToleratesUpToParityShardsMissing(t *testing.T) {
	c, err := raid6.NewCodec(4, 3)
	assert.Nil(t, err)

	g := raid.NewGroupBuffer(4, 3, 2)
	for i, s := range []string{"AA", "BB", "CC", "DD"} {
		copy(g.DataBlocks[i], []byte(s))
	}

	assert.Nil(t, c.ComputeParity(g))

	shards := g.Shards()
	original := make([][]byte, len(shards))
	for i, s := range shards {
		cp := make([]byte, len(s))
		copy(cp, s)
		original[i] = cp
	}

	shards[0] = nil
	shards[2] = nil
	shards[5] = nil
	assert.Nil(t, c.Reconstruct(shards))
	assert.Equal(t, original, shards)

	tooMany := make([][]byte, len(original))
	copy(tooMany, original)
	tooMany[0] = nil
	tooMany[1] = nil
	tooMany[2] = nil
	tooMany[3] = nil
	assert.NotNil(t, c.Reconstruct(tooMany))
}
