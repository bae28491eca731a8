// Package dispatch delivers the events queued during the previous tick. It is
// registered first so every gameplay system sees last tick's events before
// it mutates the world.
package dispatch

import (
	"context"

	"github.com/zeusync/escape/internal/core/events/bus"
	"github.com/zeusync/escape/internal/core/observability/log"
	"github.com/zeusync/escape/internal/core/storage"
	"github.com/zeusync/escape/internal/core/system"
)

const Name = "dispatch"

type Dispatcher struct {
	system.Base
	bus    *bus.Bus
	logger log.Log
}

func New(b *bus.Bus, logger log.Log) *Dispatcher {
	return &Dispatcher{
		Base:   system.NewBase(Name),
		bus:    b,
		logger: logger.With(log.String("system", Name)),
	}
}

func (d *Dispatcher) Initialize(context.Context, *storage.World) error { return nil }

// Update delivers the queue; whatever handlers enqueue waits for next tick.
func (d *Dispatcher) Update(float64, *storage.World) error {
	if err := d.bus.Dispatch(); err != nil {
		d.logger.Warn("event handler failed", log.Error(err))
		return err
	}
	return nil
}
