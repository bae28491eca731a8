// Package physics bridges component state into a Box2D world once per tick.
//
// The Box2D world is thrown away after every step. Each Update builds fixed
// bodies for terrain and dynamic circles for everything with a Hitbox, steps
// once with cheap solver settings, then writes results back: physics owns
// agent motion, while bullets only use it for contact detection and keep a
// kinematic position += velocity * delta.
package physics

import (
	"context"

	"github.com/ByteArena/box2d"
	"github.com/zeusync/escape/internal/core/config"
	"github.com/zeusync/escape/internal/core/events/bus"
	"github.com/zeusync/escape/internal/core/models"
	"github.com/zeusync/escape/internal/core/observability/log"
	"github.com/zeusync/escape/internal/core/storage"
	"github.com/zeusync/escape/internal/core/system"
)

const Name = "physics"

// Stats describes the last step.
type Stats struct {
	StaticBodies  int
	DynamicBodies int
	Contacts      int
	// Solver flags the step ran with. Both stay off: bullets are discrete
	// circles and tunneling is accepted.
	SubStepping bool
	Continuous  bool
}

type Bridge struct {
	system.Base
	cfg    config.Physics
	bus    *bus.Bus
	logger log.Log
	world  *storage.World
	sub    bus.Subscription
	stats  Stats
}

func New(cfg config.Physics, b *bus.Bus, logger log.Log) *Bridge {
	return &Bridge{
		Base:   system.NewBase(Name),
		cfg:    cfg,
		bus:    b,
		logger: logger.With(log.String("system", Name)),
	}
}

// Initialize registers the impulse handler. Impulses change Velocity the
// moment they are delivered, independently of the next step.
func (p *Bridge) Initialize(_ context.Context, w *storage.World) error {
	p.world = w
	p.sub = bus.Listen(p.bus, func(imp models.Impulse, _ *bus.Envelope) error {
		p.applyImpulse(imp)
		return nil
	})
	return nil
}

func (p *Bridge) Shutdown(context.Context) error {
	if p.sub == nil {
		return nil
	}
	return p.bus.Unsubscribe(p.sub)
}

func (p *Bridge) applyImpulse(imp models.Impulse) {
	if !p.world.Valid(imp.Target) {
		return
	}
	if vel, err := storage.Get[models.Velocity](p.world, imp.Target); err == nil {
		vel.Vec2 = vel.Add(imp.Vector)
	}
}

// Stats returns the body and contact counts of the last Update.
func (p *Bridge) Stats() Stats { return p.stats }

func (p *Bridge) Update(delta float64, w *storage.World) error {
	b2w := box2d.MakeB2World(box2d.MakeB2Vec2(0, 0))
	bodies := make(map[models.Entity]*box2d.B2Body)
	stats := Stats{}

	for row := range storage.View2[models.Position, models.TerrainData](w) {
		angle := 0.0
		if rot, err := storage.Get[models.Rotation](w, row.Entity); err == nil {
			angle = rot.Radian
		}
		body := p.addTerrain(&b2w, row.Entity, row.A.Vec2, angle, *row.B)
		if body != nil {
			bodies[row.Entity] = body
			stats.StaticBodies++
		}
	}

	for row := range storage.View3[models.Position, models.Velocity, models.Hitbox](w) {
		if storage.Has[models.TerrainData](w, row.Entity) {
			continue
		}
		bullet, _ := storage.Get[models.BulletData](w, row.Entity)
		bodies[row.Entity] = p.addDynamic(&b2w, row.Entity, row.A.Vec2, row.B.Vec2, row.C.Radius, bullet)
		stats.DynamicBodies++
	}

	contacts := &contactListener{bus: p.bus}
	b2w.SetContactListener(contacts)
	b2w.M_subStepping = false
	b2w.M_continuousPhysics = false
	b2w.Step(delta, p.cfg.VelocityIterations, p.cfg.PositionIterations)
	stats.Contacts = contacts.count
	stats.SubStepping = b2w.M_subStepping
	stats.Continuous = b2w.M_continuousPhysics

	for row := range storage.View3[models.Position, models.Velocity, models.AgentData](w) {
		body, ok := bodies[row.Entity]
		if !ok {
			continue
		}
		row.A.Vec2 = fromB2(body.GetPosition())
		row.B.Vec2 = fromB2(body.GetLinearVelocity())
	}
	for row := range storage.View3[models.Position, models.Velocity, models.BulletData](w) {
		row.A.Vec2 = row.A.Add(row.B.Scale(delta))
	}

	p.stats = stats
	p.logger.Debug("physics step",
		log.Int("static", stats.StaticBodies),
		log.Int("dynamic", stats.DynamicBodies),
		log.Int("contacts", stats.Contacts))
	return nil
}

func (p *Bridge) addTerrain(b2w *box2d.B2World, e models.Entity, pos models.Vec2, angle float64, terrain models.TerrainData) *box2d.B2Body {
	def := box2d.MakeB2BodyDef()
	def.Type = box2d.B2BodyType.B2_staticBody
	def.Position.Set(pos.X, pos.Y)
	def.Angle = angle

	fd := box2d.MakeB2FixtureDef()
	fd.Density = 0
	fd.Friction = p.cfg.WallFriction
	switch terrain.Kind {
	case models.TerrainBox:
		shape := box2d.MakeB2PolygonShape()
		shape.SetAsBox(terrain.Args[0]/2, terrain.Args[1]/2)
		fd.Shape = &shape
	case models.TerrainCircle:
		shape := box2d.MakeB2CircleShape()
		shape.M_radius = terrain.Args[0]
		fd.Shape = &shape
	default:
		p.logger.Warn("unknown terrain kind", log.Stringer("entity", e), log.String("kind", string(terrain.Kind)))
		return nil
	}

	body := b2w.CreateBody(&def)
	body.CreateFixtureFromDef(&fd)
	body.SetUserData(e)
	return body
}

// addDynamic creates the circle for an agent or, when bullet is non-nil, a
// bullet. Agents are damped hard so they stop as soon as input stops.
func (p *Bridge) addDynamic(b2w *box2d.B2World, e models.Entity, pos, vel models.Vec2, radius float64, bullet *models.BulletData) *box2d.B2Body {
	def := box2d.MakeB2BodyDef()
	def.Type = box2d.B2BodyType.B2_dynamicBody
	def.Position.Set(pos.X, pos.Y)
	def.LinearVelocity.Set(vel.X, vel.Y)

	shape := box2d.MakeB2CircleShape()
	shape.M_radius = radius
	fd := box2d.MakeB2FixtureDef()
	fd.Shape = &shape
	if bullet != nil {
		fd.Density = bullet.Density
		fd.Friction = p.cfg.BulletFriction
	} else {
		fd.Density = p.cfg.AgentDensity
		fd.Friction = p.cfg.AgentFriction
		def.LinearDamping = p.cfg.AgentDamping
	}

	body := b2w.CreateBody(&def)
	body.CreateFixtureFromDef(&fd)
	body.SetUserData(e)
	return body
}

func fromB2(v box2d.B2Vec2) models.Vec2 { return models.V(v.X, v.Y) }
