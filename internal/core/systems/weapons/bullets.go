package weapons

import (
	"context"

	"github.com/zeusync/escape/internal/core/config"
	"github.com/zeusync/escape/internal/core/events/bus"
	"github.com/zeusync/escape/internal/core/models"
	"github.com/zeusync/escape/internal/core/observability/log"
	"github.com/zeusync/escape/internal/core/storage"
	"github.com/zeusync/escape/internal/core/system"
	"github.com/zeusync/escape/internal/core/systems/lifespan"
)

const BulletsName = "bullets"

// BulletSystem spawns projectiles and resolves their hits. Collision events
// are collected into a CollisionResults component as they are delivered and
// resolved on the next Update, at most one hit per bullet.
type BulletSystem struct {
	system.Base
	cfg      config.Bullets
	bus      *bus.Bus
	lifespan *lifespan.System
	logger   log.Log
	world    *storage.World
	sub      bus.Subscription
}

func NewBulletSystem(cfg config.Bullets, b *bus.Bus, ls *lifespan.System, logger log.Log) *BulletSystem {
	return &BulletSystem{
		Base:     system.NewBase(BulletsName, ls),
		cfg:      cfg,
		bus:      b,
		lifespan: ls,
		logger:   logger.With(log.String("system", BulletsName)),
	}
}

func (s *BulletSystem) Initialize(_ context.Context, w *storage.World) error {
	s.world = w
	s.sub = bus.Listen(s.bus, func(c models.Collision, _ *bus.Envelope) error {
		s.record(c)
		return nil
	})
	return nil
}

func (s *BulletSystem) Shutdown(context.Context) error {
	if s.sub == nil {
		return nil
	}
	return s.bus.Unsubscribe(s.sub)
}

func (s *BulletSystem) record(c models.Collision) {
	if !storage.Has[models.BulletData](s.world, c.Entity) {
		return
	}
	res, err := storage.Get[models.CollisionResults](s.world, c.Entity)
	if err != nil {
		res = storage.Assign(s.world, c.Entity, models.CollisionResults{})
	}
	res.Hits = append(res.Hits, c.HitWith)
}

// Fire spawns one bullet leaving firer at angle, distance units from its
// centre. It returns Null when firer has no position.
func (s *BulletSystem) Fire(w *storage.World, firer models.Entity, kind models.BulletType, angle, speed, damage, distance float64) models.Entity {
	pos, err := storage.Get[models.Position](w, firer)
	if err != nil {
		return models.Null
	}
	origin := pos.Vec2
	group := 0
	if agent, err := storage.Get[models.AgentData](w, firer); err == nil {
		group = agent.Group
	}

	data := models.BulletData{
		Firer:   firer,
		Group:   group,
		Type:    kind,
		Damage:  damage,
		Density: s.cfg.Density,
		Radius:  s.cfg.Radius,
	}
	if kind == models.ShotgunShell {
		data.Radius = s.cfg.ShellRadius
	}
	dir := models.FromAngle(angle)

	e := w.Create()
	storage.Assign(w, e, models.Name{Value: "bullet"})
	storage.Assign(w, e, data)
	storage.Assign(w, e, models.Hitbox{Radius: data.Radius})
	storage.Assign(w, e, models.Velocity{Vec2: dir.Scale(speed)})
	storage.Assign(w, e, models.Position{Vec2: origin.Add(dir.Scale(distance))})
	storage.Assign(w, e, s.lifespan.Period(s.cfg.Lifetime))
	return e
}

// friendly reports whether target belongs to the bullet's group. Agents and
// bullets of the firer's group are never hit.
func friendly(w *storage.World, target models.Entity, group int) bool {
	if agent, err := storage.Get[models.AgentData](w, target); err == nil {
		return agent.Group == group
	}
	if other, err := storage.Get[models.BulletData](w, target); err == nil {
		return other.Group == group
	}
	return false
}

func (s *BulletSystem) Update(_ float64, w *storage.World) error {
	var spent []models.Entity
	for row := range storage.View2[models.BulletData, models.CollisionResults](w) {
		bullet, res := row.A, row.B
		for _, target := range res.Hits {
			if !w.Valid(target) || friendly(w, target, bullet.Group) {
				continue
			}
			if hp, err := storage.Get[models.Health](w, target); err == nil {
				hp.Current -= bullet.Damage
				s.logger.Debug("bullet hit",
					log.Stringer("bullet", row.Entity),
					log.Stringer("target", target),
					log.Float64("damage", bullet.Damage),
					log.Float64("health", hp.Current))
			}
			if s.cfg.Knockback > 0 && storage.Has[models.Velocity](w, target) {
				if vel, err := storage.Get[models.Velocity](w, row.Entity); err == nil {
					s.bus.Enqueue(models.Impulse{Target: target, Vector: vel.Normalize().Scale(s.cfg.Knockback)})
				}
			}
			spent = append(spent, row.Entity)
			break
		}
		res.Hits = res.Hits[:0]
	}
	for _, e := range spent {
		w.Destroy(e)
	}
	return nil
}
