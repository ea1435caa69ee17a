package raid_test

import (
	"context"
	"testing"

	"github.com/eoslike/tgcraid/internal/raid"
	"github.com/stretchr/testify/assert"
)

func TestMemStripeIOReadWrite(t *testing.T) {
	ctx := context.Background()
	s := raid.NewMemStripeIO()

	assert.Nil(t, s.Open(ctx, "mem://stripe0", raid.ORdWr))

	n, err := s.Write(ctx, 10, []byte("hello"))
	assert.Nil(t, err)
	assert.Equal(t, 5, n)

	buf := make([]byte, 5)
	n, err = s.Read(ctx, 10, buf)
	assert.Nil(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, []byte("hello"), buf)

	stat, err := s.Stat(ctx)
	assert.Nil(t, err)
	assert.Equal(t, int64(15), stat.Size)
}

func TestMemStripeIOReadBeyondWritten(t *testing.T) {
	ctx := context.Background()
	s := raid.NewMemStripeIO()
	assert.Nil(t, s.Open(ctx, "mem://stripe1", raid.ORdWr))

	buf := make([]byte, 8)
	n, err := s.Read(ctx, 0, buf)
	assert.Nil(t, err)
	assert.Equal(t, 0, n)
}

func TestMemStripeIOFail(t *testing.T) {
	ctx := context.Background()
	s := raid.NewMemStripeIO()
	assert.Nil(t, s.Open(ctx, "mem://stripe2", raid.ORdWr))

	s.Fail()
	assert.True(t, s.Failed())

	_, err := s.Write(ctx, 0, []byte("x"))
	assert.NotNil(t, err)
}

func TestMemStripeIOFactoryReusesBackingBuffer(t *testing.T) {
	ctx := context.Background()
	f := raid.NewMemStripeIOFactory()

	s1, err := f.Open(ctx, "mem://shared", raid.ORdWr)
	assert.Nil(t, err)
	_, err = s1.Write(ctx, 0, []byte("data"))
	assert.Nil(t, err)

	s2, err := f.Open(ctx, "mem://shared", raid.ORdWr)
	assert.Nil(t, err)

	buf := make([]byte, 4)
	n, err := s2.Read(ctx, 0, buf)
	assert.Nil(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, []byte("data"), buf)
}

func TestAsyncHandlerWaitOK(t *testing.T) {
	h := raid.NewAsyncHandler()
	for i := 0; i < 5; i++ {
		i := i
		h.Go(i, func() error {
			if i == 2 || i == 4 {
				return assert.AnError
			}
			return nil
		})
	}

	assert.True(t, h.WaitOK(2))
	assert.Equal(t, 2, len(h.ErrorsMap()))

	h.Reset()
	assert.Equal(t, 0, len(h.ErrorsMap()))
}
