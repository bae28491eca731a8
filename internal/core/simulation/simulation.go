// Package simulation is the composition root: it registers every system in
// its execution order and drives the fixed-step tick loop.
package simulation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/zeusync/escape/internal/core/config"
	"github.com/zeusync/escape/internal/core/events/bus"
	"github.com/zeusync/escape/internal/core/level"
	"github.com/zeusync/escape/internal/core/models"
	"github.com/zeusync/escape/internal/core/observability/log"
	"github.com/zeusync/escape/internal/core/render"
	"github.com/zeusync/escape/internal/core/snapshot"
	"github.com/zeusync/escape/internal/core/storage"
	"github.com/zeusync/escape/internal/core/system"
	"github.com/zeusync/escape/internal/core/systems/agent"
	"github.com/zeusync/escape/internal/core/systems/clock"
	"github.com/zeusync/escape/internal/core/systems/dispatch"
	"github.com/zeusync/escape/internal/core/systems/input"
	"github.com/zeusync/escape/internal/core/systems/lifespan"
	"github.com/zeusync/escape/internal/core/systems/movement"
	"github.com/zeusync/escape/internal/core/systems/physics"
	"github.com/zeusync/escape/internal/core/systems/terrain"
	"github.com/zeusync/escape/internal/core/systems/weapons"
)

// Systems is every gameplay system of a run.
type Systems struct {
	Dispatch *dispatch.Dispatcher
	Clock    *clock.TimeServer
	Lifespan *lifespan.System
	Agents   *agent.System
	Input    *input.System
	Movement *movement.System
	Bullets  *weapons.BulletSystem
	Weapons  *weapons.WeaponSystem
	Physics  *physics.Bridge
}

// order is the execution order. Events are delivered first; velocities are
// set by movement and knockback before physics steps; physics runs last so
// renderers and snapshots see post-step positions.
func (s Systems) order() []system.System {
	return []system.System{
		s.Dispatch,
		s.Clock,
		s.Lifespan,
		s.Agents,
		s.Input,
		s.Movement,
		s.Bullets,
		s.Weapons,
		s.Physics,
	}
}

// FrameSink receives a frame after every tick. Publish must not block.
type FrameSink interface {
	Publish(frame render.Frame)
}

type Simulation struct {
	Systems

	id       string
	cfg      config.Config
	logger   log.Log
	bus      *bus.Bus
	registry *system.Registry
	codec    *snapshot.Codec
}

// New registers systems in execution order. Call Start before stepping.
func New(cfg config.Config, logger log.Log, b *bus.Bus, systems Systems, codec *snapshot.Codec) (*Simulation, error) {
	id := uuid.NewString()
	logger = logger.With(log.String("run", id))
	s := &Simulation{
		Systems:  systems,
		id:       id,
		cfg:      cfg,
		logger:   logger,
		bus:      b,
		registry: system.NewRegistry(logger),
		codec:    codec,
	}
	for _, sys := range systems.order() {
		if err := s.registry.Register(sys); err != nil {
			return nil, err
		}
	}
	b.AddObserver(eventStats{logger: logger})
	return s, nil
}

// eventStats keeps the bus counters running and reports failed deliveries.
type eventStats struct{ logger log.Log }

func (eventStats) OnEnqueue(string, bus.Event) {}

func (o eventStats) OnDelivered(eventType string, handlers int, err error, _ int64) {
	if err != nil {
		o.logger.Debug("event delivery failed",
			log.String("event", eventType),
			log.Int("handlers", handlers),
			log.Error(err))
	}
}

// NewDefault builds a simulation without the injector.
func NewDefault(cfg config.Config, logger log.Log) (*Simulation, error) {
	b := bus.New()
	return New(cfg, logger, b, NewSystems(cfg, b, logger), ProvideCodec(cfg))
}

func (s *Simulation) ID() string                 { return s.id }
func (s *Simulation) World() *storage.World      { return s.registry.World() }
func (s *Simulation) Bus() *bus.Bus              { return s.bus }
func (s *Simulation) Registry() *system.Registry { return s.registry }
func (s *Simulation) Config() config.Config      { return s.cfg }
func (s *Simulation) Codec() *snapshot.Codec     { return s.codec }

// Start initialises every system. A wiring error here is fatal.
func (s *Simulation) Start(ctx context.Context) error {
	if err := s.registry.InitializeAll(ctx); err != nil {
		return err
	}
	s.logger.Info("simulation started",
		log.Int("tick_rate", s.cfg.Simulation.TickRate),
		log.Any("systems", s.registry.ExecutionOrder()))
	return nil
}

// Step advances the world by one fixed delta.
func (s *Simulation) Step() error {
	return s.registry.Tick(s.cfg.Simulation.Delta())
}

// Frame extracts the current visible state.
func (s *Simulation) Frame() render.Frame {
	return render.Extract(s.World(), s.Clock.Tick(), s.Clock.Now(), s.cfg.Agents.PlayerID)
}

// Run steps at the configured tick rate until ctx is done or, when ticks is
// positive, that many ticks have run. Every sink receives each frame.
func (s *Simulation) Run(ctx context.Context, ticks int, sinks ...FrameSink) error {
	ticker := time.NewTicker(s.cfg.Simulation.Interval())
	defer ticker.Stop()

	for n := 0; ticks <= 0 || n < ticks; n++ {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		if err := s.Step(); err != nil {
			return err
		}
		if len(sinks) > 0 {
			frame := s.Frame()
			for _, sink := range sinks {
				sink.Publish(frame)
			}
		}
	}
	return nil
}

// Close shuts systems down and logs their timings.
func (s *Simulation) Close(ctx context.Context) error {
	for _, name := range s.registry.ExecutionOrder() {
		if m, ok := s.registry.Metrics(name); ok {
			s.logger.Debug("system metrics",
				log.String("system", name),
				log.Uint64("executions", m.ExecutionCount),
				log.Duration("average", m.AverageExecutionTime),
				log.Duration("max", m.MaxExecutionTime),
				log.Uint64("errors", m.ErrorCount))
		}
	}
	m := s.bus.GetMetrics()
	s.logger.Debug("event metrics",
		log.Uint64("enqueued", m.Enqueued),
		log.Uint64("delivered", m.Delivered),
		log.Uint64("discarded", m.Discarded),
		log.Uint64("errors", m.Errors))
	return s.registry.ShutdownAll(ctx)
}

// LoadLevel populates the world from a level directory.
func (s *Simulation) LoadLevel(dir string) (level.Stats, error) {
	l, err := level.Load(dir)
	if err != nil {
		return level.Stats{}, err
	}
	stats := l.Apply(spawner{sim: s}, s.cfg.Agents.PlayerID)
	s.logger.Info("level loaded",
		log.String("dir", dir),
		log.Int("walls", stats.Walls),
		log.Int("players", stats.Players),
		log.Int("agents", stats.Agents))
	return stats, nil
}

// Save writes a snapshot of the world.
func (s *Simulation) Save(path string) error {
	if path == "" {
		path = s.cfg.Snapshot.Path
	}
	if err := s.codecFor(path).SaveFile(path, s.World()); err != nil {
		return err
	}
	s.logger.Info("snapshot saved", log.String("path", path), log.Int("entities", s.World().Len()))
	return nil
}

// Load replaces the world with a snapshot. Events still queued refer to the
// old world and are discarded. On error the world is unchanged.
func (s *Simulation) Load(path string) error {
	if path == "" {
		path = s.cfg.Snapshot.Path
	}
	if err := s.codecFor(path).LoadFile(path, s.World()); err != nil {
		if errors.Is(err, snapshot.ErrParse) || errors.Is(err, snapshot.ErrSchemaMismatch) || errors.Is(err, snapshot.ErrChecksum) {
			s.logger.Warn("snapshot rejected", log.String("path", path), log.Error(err))
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	dropped := s.bus.Discard()
	s.logger.Info("snapshot loaded",
		log.String("path", path),
		log.Int("entities", s.World().Len()),
		log.Int("discarded_events", dropped),
		log.Uint64("tick", s.Clock.Tick()))
	return nil
}

// codecFor keeps the configured kinds but follows the file extension when it
// names a format.
func (s *Simulation) codecFor(path string) *snapshot.Codec {
	if f := snapshot.FormatFor(path); f != s.codec.Format() {
		return snapshot.New(f, s.codec.Kinds()...)
	}
	return s.codec
}

// spawner adapts level spawns to the terrain and agent factories.
type spawner struct{ sim *Simulation }

func (sp spawner) CreateWall(x, y, width, height float64) {
	terrain.CreateWall(sp.sim.World(), x, y, width, height)
}

func (sp spawner) CreateAgent(pos models.Vec2, id, group int, profile string) {
	sp.sim.Agents.CreateAgent(sp.sim.World(), pos, id, group, profile)
}
