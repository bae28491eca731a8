package models

const (
	EventCollision = "collision"
	EventImpulse   = "impulse"
)

// Collision is directed: Entity touched HitWith. The physics bridge emits one
// event per direction for every contacting pair.
type Collision struct {
	Entity  Entity
	HitWith Entity
}

func (Collision) Type() string { return EventCollision }

// Impulse adds Vector to the Velocity of Target when delivered.
type Impulse struct {
	Target Entity
	Vector Vec2
}

func (Impulse) Type() string { return EventImpulse }
