package lifespan

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeusync/escape/internal/core/models"
	"github.com/zeusync/escape/internal/core/storage"
	"github.com/zeusync/escape/internal/core/systems/clock"
)

func TestExpiredEntitiesAreDestroyed(t *testing.T) {
	w := storage.NewWorld()
	c := clock.New(1)
	require.NoError(t, c.Initialize(context.Background(), w))
	s := New(c)
	require.NoError(t, s.Initialize(context.Background(), w))

	short := w.Create()
	storage.Assign(w, short, s.Period(0.5))
	long := w.Create()
	storage.Assign(w, long, s.Period(2))
	forever := w.Create()

	assert.Equal(t, models.Lifespan{Begin: 0, End: 2}, *must(storage.Get[models.Lifespan](w, long)))

	for i := 0; i < 2; i++ {
		require.NoError(t, c.Update(0.25, w))
		require.NoError(t, s.Update(0.25, w))
	}
	assert.False(t, w.Valid(short))
	assert.True(t, w.Valid(long))
	assert.True(t, w.Valid(forever))
}

func TestDependsOnClock(t *testing.T) {
	assert.Equal(t, []string{clock.Name}, New(clock.New(0)).Dependencies())
}

func must[T any](v *T, err error) *T {
	if err != nil {
		panic(err)
	}
	return v
}
