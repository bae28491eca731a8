package movement

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeusync/escape/internal/core/models"
	"github.com/zeusync/escape/internal/core/storage"
)

func TestMessageSetsVelocityOnce(t *testing.T) {
	w := storage.NewWorld()
	s := New(20)
	e := w.Create()
	storage.Assign(w, e, models.Velocity{})
	storage.Assign(w, e, models.NewMessage(models.Movement{Direction: models.V(3, 4)}))

	require.NoError(t, s.Update(0, w))
	vel, _ := storage.Get[models.Velocity](w, e)
	assert.InDelta(t, 12, vel.X, 1e-9)
	assert.InDelta(t, 16, vel.Y, 1e-9)

	msg, _ := storage.Get[models.Message[models.Movement]](w, e)
	assert.True(t, msg.Processed)

	// physics or knockback changed the velocity; a processed message must not reapply
	vel.Vec2 = models.V(1, 1)
	require.NoError(t, s.Update(0, w))
	assert.Equal(t, models.V(1, 1), vel.Vec2)
}

func TestMoveZeroDirectionStops(t *testing.T) {
	w := storage.NewWorld()
	s := New(20)
	e := w.Create()
	storage.Assign(w, e, models.Velocity{Vec2: models.V(5, 5)})

	s.Move(w, e, models.Vec2{})
	vel, _ := storage.Get[models.Velocity](w, e)
	assert.Equal(t, models.Vec2{}, vel.Vec2)

	w.Destroy(e)
	s.Move(w, e, models.V(1, 0))
	assert.False(t, w.Valid(e))
}
