// Package clock provides the TimeServer: the tick counter, simulated time in
// seconds and the seeded random source shared by gameplay systems.
package clock

import (
	"context"
	"math/rand/v2"

	"github.com/zeusync/escape/internal/core/models"
	"github.com/zeusync/escape/internal/core/storage"
	"github.com/zeusync/escape/internal/core/system"
)

const Name = "clock"

// TimeServer keeps its state in a ClockInfo component so a snapshot restores
// simulated time together with the cooldowns and lifespans measured against it.
type TimeServer struct {
	system.Base
	world  *storage.World
	holder models.Entity
	rng    *rand.Rand
}

func New(seed uint64) *TimeServer {
	return &TimeServer{
		Base: system.NewBase(Name),
		rng:  rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

func (c *TimeServer) Initialize(_ context.Context, w *storage.World) error {
	c.world = w
	c.info()
	return nil
}

// Update advances time by one step of delta seconds.
func (c *TimeServer) Update(delta float64, _ *storage.World) error {
	info := c.info()
	info.Tick++
	info.Elapsed += delta
	return nil
}

// Now returns the simulated time in seconds.
func (c *TimeServer) Now() float64 { return c.info().Elapsed }

// Tick returns the number of completed steps.
func (c *TimeServer) Tick() uint64 { return c.info().Tick }

// Random returns a uniform value in [lo, hi).
func (c *TimeServer) Random(lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	return lo + c.rng.Float64()*(hi-lo)
}

// info locates the clock entity, recreating it if a snapshot load or world
// clear removed it.
func (c *TimeServer) info() *models.ClockInfo {
	if c.world == nil {
		panic("clock: used before Initialize")
	}
	if ptr, err := storage.Get[models.ClockInfo](c.world, c.holder); err == nil {
		return ptr
	}
	for e, ptr := range storage.View1[models.ClockInfo](c.world) {
		c.holder = e
		return ptr
	}
	c.holder = c.world.Create()
	storage.Assign(c.world, c.holder, models.Name{Value: "clock"})
	return storage.Assign(c.world, c.holder, models.ClockInfo{})
}
