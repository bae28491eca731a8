// Package weapons implements firing with per-weapon cooldown and spread, and
// the bullets it produces.
package weapons

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/zeusync/escape/internal/core/models"
	"github.com/zeusync/escape/internal/core/storage"
	"github.com/zeusync/escape/internal/core/system"
	"github.com/zeusync/escape/internal/core/systems/clock"
)

const Name = "weapons"

var ErrUnknownWeapon = errors.New("unknown weapon")

type WeaponSystem struct {
	system.Base
	clock      *clock.TimeServer
	bullets    *BulletSystem
	prototypes map[models.WeaponType]models.WeaponPrototype
}

func NewWeaponSystem(c *clock.TimeServer, bullets *BulletSystem, prototypes []models.WeaponPrototype) *WeaponSystem {
	table := make(map[models.WeaponType]models.WeaponPrototype, len(prototypes))
	for _, p := range prototypes {
		table[p.Type] = p
	}
	return &WeaponSystem{
		Base:       system.NewBase(Name, c, bullets),
		clock:      c,
		bullets:    bullets,
		prototypes: table,
	}
}

// Prototype returns the characteristics of kind.
func (s *WeaponSystem) Prototype(kind models.WeaponType) (models.WeaponPrototype, bool) {
	p, ok := s.prototypes[kind]
	return p, ok
}

// Spread is the half-angle of the random cone a weapon fires into.
func Spread(accuracy float64) float64 {
	return math.Max(0, math.Pi/4*(100-accuracy)/100)
}

// Fire shoots the weapon held by e towards angle if its cooldown has elapsed
// and returns the bullets spawned.
func (s *WeaponSystem) Fire(w *storage.World, e models.Entity, angle float64) []models.Entity {
	weapon, err := storage.Get[models.Weapon](w, e)
	if err != nil {
		return nil
	}
	now := s.clock.Now()
	if now < weapon.Next {
		return nil
	}
	proto, ok := s.prototypes[weapon.Kind]
	if !ok {
		return nil
	}

	if rot, err := storage.Get[models.Rotation](w, e); err == nil {
		rot.Radian = angle
	}
	spread := Spread(proto.Accuracy)
	fired := make([]models.Entity, 0, proto.BulletNumber)
	for range proto.BulletNumber {
		a := angle + s.clock.Random(-spread, spread)
		b := s.bullets.Fire(w, e, proto.BulletType, a, proto.BulletSpeed, proto.BulletDamage, proto.GunLength)
		if !b.IsNull() {
			fired = append(fired, b)
		}
	}
	weapon.Last = now
	weapon.Next = now + proto.Cooldown
	return fired
}

// ChangeWeapon switches the weapon held by e. The pending cooldown carries
// over so switching cannot be used to fire faster.
func (s *WeaponSystem) ChangeWeapon(w *storage.World, e models.Entity, kind models.WeaponType) error {
	if _, ok := s.prototypes[kind]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownWeapon, kind)
	}
	if !w.Valid(e) {
		return storage.ErrEntityNotFound
	}
	if weapon, err := storage.Get[models.Weapon](w, e); err == nil {
		weapon.Kind = kind
		return nil
	}
	storage.Assign(w, e, models.Weapon{Kind: kind})
	return nil
}

func (s *WeaponSystem) Initialize(context.Context, *storage.World) error { return nil }

// Update handles weapon changes before shots so a change and a shot queued in
// the same tick fire the new weapon.
func (s *WeaponSystem) Update(_ float64, w *storage.World) error {
	var errs []error
	for e, msg := range storage.View1[models.Message[models.ChangeWeapon]](w) {
		if msg.Processed {
			continue
		}
		msg.Processed = true
		if err := s.ChangeWeapon(w, e, msg.Data.Weapon); err != nil {
			errs = append(errs, err)
		}
	}

	var shooters []models.Entity
	var angles []float64
	for e, msg := range storage.View1[models.Message[models.Shooting]](w) {
		if msg.Processed {
			continue
		}
		msg.Processed = true
		shooters = append(shooters, e)
		angles = append(angles, msg.Data.Angle)
	}
	// firing creates entities, so it runs after the view is exhausted
	for i, e := range shooters {
		s.Fire(w, e, angles[i])
	}
	return errors.Join(errs...)
}
