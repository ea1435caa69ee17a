package tgc_test

import (
	"errors"
	"testing"
	"time"

	"github.com/eoslike/tgcraid/internal/tgc"
	"github.com/stretchr/testify/assert"
)

func TestCachedValueRefreshesOnlyAfterMaxAge(t *testing.T) {
	clock := tgc.NewFakeClock(1000)
	calls := 0
	cv := tgc.NewCachedValue(func() (int, error) {
		calls++
		return calls, nil
	}, 10*time.Second, clock)

	v, err := cv.Get()
	assert.NoError(t, err)
	assert.Equal(t, 1, v)

	v, err = cv.Get()
	assert.NoError(t, err)
	assert.Equal(t, 1, v)
	assert.Equal(t, 1, calls)

	clock.Advance(9)
	v, err = cv.Get()
	assert.NoError(t, err)
	assert.Equal(t, 1, v)

	clock.Advance(1)
	v, err = cv.Get()
	assert.NoError(t, err)
	assert.Equal(t, 2, v)
	assert.Equal(t, 2, calls)
}

func TestCachedValuePropagatesGetterError(t *testing.T) {
	clock := tgc.NewFakeClock(0)
	wantErr := errors.New("boom")
	cv := tgc.NewCachedValue(func() (int, error) {
		return 0, wantErr
	}, time.Second, clock)

	_, err := cv.Get()
	assert.ErrorIs(t, err, wantErr)
}
