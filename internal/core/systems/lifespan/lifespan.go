// Package lifespan expires entities whose Lifespan has run out.
package lifespan

import (
	"context"

	"github.com/zeusync/escape/internal/core/models"
	"github.com/zeusync/escape/internal/core/storage"
	"github.com/zeusync/escape/internal/core/system"
	"github.com/zeusync/escape/internal/core/systems/clock"
)

const Name = "lifespan"

type System struct {
	system.Base
	clock *clock.TimeServer
}

func New(c *clock.TimeServer) *System {
	return &System{Base: system.NewBase(Name, c), clock: c}
}

// Period returns a Lifespan starting now and lasting seconds.
func (s *System) Period(seconds float64) models.Lifespan {
	now := s.clock.Now()
	return models.Lifespan{Begin: now, End: now + seconds}
}

func (s *System) Initialize(context.Context, *storage.World) error { return nil }

func (s *System) Update(_ float64, w *storage.World) error {
	now := s.clock.Now()
	var expired []models.Entity
	for e, span := range storage.View1[models.Lifespan](w) {
		if now >= span.End {
			expired = append(expired, e)
		}
	}
	for _, e := range expired {
		w.Destroy(e)
	}
	return nil
}
