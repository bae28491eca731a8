package physics

import (
	"github.com/ByteArena/box2d"
	"github.com/zeusync/escape/internal/core/events/bus"
	"github.com/zeusync/escape/internal/core/models"
)

// contactListener turns every solved contact into two directed Collision
// events. Handlers only ever see them on the next dispatch.
type contactListener struct {
	bus   *bus.Bus
	count int
}

func (l *contactListener) BeginContact(box2d.B2ContactInterface)               {}
func (l *contactListener) EndContact(box2d.B2ContactInterface)                 {}
func (l *contactListener) PreSolve(box2d.B2ContactInterface, box2d.B2Manifold) {}

func (l *contactListener) PostSolve(contact box2d.B2ContactInterface, _ *box2d.B2ContactImpulse) {
	a, okA := contact.GetFixtureA().GetBody().GetUserData().(models.Entity)
	b, okB := contact.GetFixtureB().GetBody().GetUserData().(models.Entity)
	if !okA || !okB {
		return
	}
	l.count++
	l.bus.Enqueue(models.Collision{Entity: a, HitWith: b})
	l.bus.Enqueue(models.Collision{Entity: b, HitWith: a})
}
