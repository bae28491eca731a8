package simulation

import (
	"github.com/google/wire"
	"github.com/zeusync/escape/internal/core/config"
	"github.com/zeusync/escape/internal/core/events/bus"
	"github.com/zeusync/escape/internal/core/observability/log"
	"github.com/zeusync/escape/internal/core/snapshot"
	"github.com/zeusync/escape/internal/core/systems/agent"
	"github.com/zeusync/escape/internal/core/systems/clock"
	"github.com/zeusync/escape/internal/core/systems/dispatch"
	"github.com/zeusync/escape/internal/core/systems/input"
	"github.com/zeusync/escape/internal/core/systems/lifespan"
	"github.com/zeusync/escape/internal/core/systems/movement"
	"github.com/zeusync/escape/internal/core/systems/physics"
	"github.com/zeusync/escape/internal/core/systems/weapons"
)

// ProviderSet builds a Simulation from a Config and a logger.
var ProviderSet = wire.NewSet(
	bus.New,
	ProvideDispatcher,
	ProvideClock,
	ProvideLifespan,
	ProvideAgents,
	ProvideInput,
	ProvideMovement,
	ProvideBullets,
	ProvideWeapons,
	ProvidePhysics,
	ProvideCodec,
	wire.Struct(new(Systems), "*"),
	New,
)

func ProvideDispatcher(b *bus.Bus, logger log.Log) *dispatch.Dispatcher {
	return dispatch.New(b, logger)
}

func ProvideClock(cfg config.Config) *clock.TimeServer {
	return clock.New(cfg.Simulation.Seed)
}

func ProvideLifespan(c *clock.TimeServer) *lifespan.System {
	return lifespan.New(c)
}

func ProvideAgents(cfg config.Config, logger log.Log) *agent.System {
	return agent.New(cfg.Agents, logger)
}

func ProvideInput(cfg config.Config, agents *agent.System, logger log.Log) *input.System {
	return input.New(agents, cfg.Agents.PlayerID, logger)
}

func ProvideMovement(cfg config.Config) *movement.System {
	return movement.New(cfg.Agents.MoveSpeed)
}

func ProvideBullets(cfg config.Config, b *bus.Bus, ls *lifespan.System, logger log.Log) *weapons.BulletSystem {
	return weapons.NewBulletSystem(cfg.Bullets, b, ls, logger)
}

func ProvideWeapons(cfg config.Config, c *clock.TimeServer, bullets *weapons.BulletSystem) *weapons.WeaponSystem {
	return weapons.NewWeaponSystem(c, bullets, cfg.Weapons)
}

func ProvidePhysics(cfg config.Config, b *bus.Bus, logger log.Log) *physics.Bridge {
	return physics.New(cfg.Physics, b, logger)
}

func ProvideCodec(cfg config.Config) *snapshot.Codec {
	return snapshot.New(snapshot.Format(cfg.Snapshot.Format))
}

// NewSystems builds every system without wire.
func NewSystems(cfg config.Config, b *bus.Bus, logger log.Log) Systems {
	c := ProvideClock(cfg)
	ls := ProvideLifespan(c)
	agents := ProvideAgents(cfg, logger)
	bullets := ProvideBullets(cfg, b, ls, logger)
	return Systems{
		Dispatch: ProvideDispatcher(b, logger),
		Clock:    c,
		Lifespan: ls,
		Agents:   agents,
		Input:    ProvideInput(cfg, agents, logger),
		Movement: ProvideMovement(cfg),
		Bullets:  bullets,
		Weapons:  ProvideWeapons(cfg, c, bullets),
		Physics:  ProvidePhysics(cfg, b, logger),
	}
}
