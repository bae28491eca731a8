package weapons

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeusync/escape/internal/core/config"
	"github.com/zeusync/escape/internal/core/events/bus"
	"github.com/zeusync/escape/internal/core/models"
	"github.com/zeusync/escape/internal/core/observability/log"
	"github.com/zeusync/escape/internal/core/storage"
	"github.com/zeusync/escape/internal/core/systems/clock"
	"github.com/zeusync/escape/internal/core/systems/lifespan"
)

type fixture struct {
	world   *storage.World
	bus     *bus.Bus
	clock   *clock.TimeServer
	bullets *BulletSystem
	weapons *WeaponSystem
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := config.Default()
	f := &fixture{world: storage.NewWorld(), bus: bus.New(), clock: clock.New(7)}
	ls := lifespan.New(f.clock)
	f.bullets = NewBulletSystem(cfg.Bullets, f.bus, ls, log.NewNop())
	f.weapons = NewWeaponSystem(f.clock, f.bullets, cfg.Weapons)

	ctx := context.Background()
	require.NoError(t, f.clock.Initialize(ctx, f.world))
	require.NoError(t, ls.Initialize(ctx, f.world))
	require.NoError(t, f.bullets.Initialize(ctx, f.world))
	require.NoError(t, f.weapons.Initialize(ctx, f.world))
	return f
}

func (f *fixture) advance(t *testing.T, seconds float64) {
	t.Helper()
	require.NoError(t, f.clock.Update(seconds, f.world))
}

func (f *fixture) shooter(group int, kind models.WeaponType) models.Entity {
	e := f.world.Create()
	storage.Assign(f.world, e, models.Position{})
	storage.Assign(f.world, e, models.Rotation{})
	storage.Assign(f.world, e, models.AgentData{ID: group, Group: group})
	storage.Assign(f.world, e, models.Weapon{Kind: kind})
	return e
}

func bulletCount(w *storage.World) int { return storage.Count[models.BulletData](w) }

func TestFireRespectsCooldown(t *testing.T) {
	f := newFixture(t)
	e := f.shooter(1, models.Handgun)

	require.Len(t, f.weapons.Fire(f.world, e, 0), 1)
	f.advance(t, 0.25)
	assert.Empty(t, f.weapons.Fire(f.world, e, 0), "inside the 0.5s window")
	assert.Equal(t, 1, bulletCount(f.world))

	f.advance(t, 0.25)
	assert.Len(t, f.weapons.Fire(f.world, e, 0), 1, "cooldown elapsed")
	assert.Equal(t, 2, bulletCount(f.world))

	weapon, _ := storage.Get[models.Weapon](f.world, e)
	assert.InDelta(t, 0.5, weapon.Last, 1e-12)
	assert.InDelta(t, 1.0, weapon.Next, 1e-12)
}

func TestShotgunFiresSpreadPellets(t *testing.T) {
	f := newFixture(t)
	e := f.shooter(1, models.Shotgun)

	pellets := f.weapons.Fire(f.world, e, math.Pi/2)
	require.Len(t, pellets, 10)
	spread := Spread(80)
	for _, p := range pellets {
		vel, err := storage.Get[models.Velocity](f.world, p)
		require.NoError(t, err)
		assert.InDelta(t, 60, vel.Length(), 1e-9)
		assert.InDelta(t, math.Pi/2, vel.Angle(), spread+1e-9)

		data, _ := storage.Get[models.BulletData](f.world, p)
		assert.Equal(t, 0.2, data.Radius)
		assert.Equal(t, 8.0, data.Damage)
		assert.Equal(t, e, data.Firer)
	}
	rot, _ := storage.Get[models.Rotation](f.world, e)
	assert.Equal(t, math.Pi/2, rot.Radian)
}

func TestSpread(t *testing.T) {
	assert.Equal(t, 0.0, Spread(100))
	assert.Equal(t, 0.0, Spread(120))
	assert.InDelta(t, math.Pi/4*0.05, Spread(95), 1e-12)
}

func TestChangeWeaponKeepsCooldown(t *testing.T) {
	f := newFixture(t)
	e := f.shooter(1, models.Rifle)
	require.Len(t, f.weapons.Fire(f.world, e, 0), 1)

	require.NoError(t, f.weapons.ChangeWeapon(f.world, e, models.SMG))
	assert.Empty(t, f.weapons.Fire(f.world, e, 0), "rifle cooldown still pending")

	f.advance(t, 2)
	assert.Len(t, f.weapons.Fire(f.world, e, 0), 1)
	weapon, _ := storage.Get[models.Weapon](f.world, e)
	assert.Equal(t, models.SMG, weapon.Kind)

	assert.ErrorIs(t, f.weapons.ChangeWeapon(f.world, e, "LASER"), ErrUnknownWeapon)
}

func TestUpdateProcessesMessagesOnce(t *testing.T) {
	f := newFixture(t)
	e := f.shooter(1, models.Handgun)
	storage.Assign(f.world, e, models.NewMessage(models.ChangeWeapon{Weapon: models.Rifle}))
	storage.Assign(f.world, e, models.NewMessage(models.Shooting{Angle: 0}))

	require.NoError(t, f.weapons.Update(0, f.world))
	assert.Equal(t, 1, bulletCount(f.world))
	weapon, _ := storage.Get[models.Weapon](f.world, e)
	assert.Equal(t, models.Rifle, weapon.Kind)

	shot, _ := storage.Get[models.Message[models.Shooting]](f.world, e)
	assert.True(t, shot.Processed)

	f.advance(t, 10)
	require.NoError(t, f.weapons.Update(0, f.world))
	assert.Equal(t, 1, bulletCount(f.world), "processed message is not fired again")
}
