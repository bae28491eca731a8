package dispatch

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeusync/escape/internal/core/events/bus"
	"github.com/zeusync/escape/internal/core/models"
	"github.com/zeusync/escape/internal/core/observability/log"
)

func TestUpdateDeliversQueuedEvents(t *testing.T) {
	b := bus.New()
	d := New(b, log.NewNop())
	var got []models.Collision
	bus.Listen(b, func(c models.Collision, _ *bus.Envelope) error {
		got = append(got, c)
		return nil
	})

	b.Enqueue(models.Collision{Entity: 1, HitWith: 2})
	require.NoError(t, d.Update(0, nil))
	assert.Len(t, got, 1)
	assert.Zero(t, b.Pending())
}

func TestUpdateSurfacesHandlerErrors(t *testing.T) {
	b := bus.New()
	d := New(b, log.NewNop())
	boom := errors.New("boom")
	bus.Listen(b, func(models.Impulse, *bus.Envelope) error { return boom })

	b.Enqueue(models.Impulse{})
	assert.ErrorIs(t, d.Update(0, nil), boom)
}
