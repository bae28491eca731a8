// Package movement turns movement intents into agent velocities.
package movement

import (
	"context"

	"github.com/zeusync/escape/internal/core/models"
	"github.com/zeusync/escape/internal/core/storage"
	"github.com/zeusync/escape/internal/core/system"
)

const Name = "movement"

type System struct {
	system.Base
	speed float64
}

func New(speed float64) *System {
	return &System{Base: system.NewBase(Name), speed: speed}
}

// Move sets the velocity of e to speed along direction. A zero direction
// stops the agent.
func (s *System) Move(w *storage.World, e models.Entity, direction models.Vec2) {
	if !w.Valid(e) {
		return
	}
	storage.Assign(w, e, models.Velocity{Vec2: direction.Normalize().Scale(s.speed)})
}

func (s *System) Initialize(context.Context, *storage.World) error { return nil }

func (s *System) Update(_ float64, w *storage.World) error {
	for e, msg := range storage.View1[models.Message[models.Movement]](w) {
		if msg.Processed {
			continue
		}
		if vel, err := storage.Get[models.Velocity](w, e); err == nil {
			vel.Vec2 = msg.Data.Direction.Normalize().Scale(s.speed)
		}
		msg.Processed = true
	}
	return nil
}
