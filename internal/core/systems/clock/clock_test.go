package clock

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeusync/escape/internal/core/models"
	"github.com/zeusync/escape/internal/core/storage"
)

func TestClockAdvances(t *testing.T) {
	w := storage.NewWorld()
	c := New(1)
	require.NoError(t, c.Initialize(context.Background(), w))

	for i := 0; i < 4; i++ {
		require.NoError(t, c.Update(0.25, w))
	}
	assert.Equal(t, uint64(4), c.Tick())
	assert.InDelta(t, 1.0, c.Now(), 1e-12)
	assert.Equal(t, 1, storage.Count[models.ClockInfo](w))
}

func TestClockFollowsRestoredState(t *testing.T) {
	w := storage.NewWorld()
	c := New(1)
	require.NoError(t, c.Initialize(context.Background(), w))
	require.NoError(t, c.Update(1, w))

	// simulate a snapshot load replacing the world contents
	w.Clear()
	e := w.Create()
	storage.Assign(w, e, models.ClockInfo{Tick: 90, Elapsed: 9})
	assert.Equal(t, uint64(90), c.Tick())
	assert.Equal(t, 9.0, c.Now())

	w.Clear()
	assert.Zero(t, c.Now(), "clock entity is recreated on demand")
}

func TestRandomRangeAndSeed(t *testing.T) {
	w := storage.NewWorld()
	a, b := New(42), New(42)
	require.NoError(t, a.Initialize(context.Background(), w))
	require.NoError(t, b.Initialize(context.Background(), w))

	for i := 0; i < 100; i++ {
		v := a.Random(-1, 1)
		assert.GreaterOrEqual(t, v, -1.0)
		assert.Less(t, v, 1.0)
		assert.Equal(t, v, b.Random(-1, 1), "same seed, same sequence")
	}
	assert.Equal(t, 3.0, a.Random(3, 3))
}
