package models

// Message is an intent attached to the acting entity. A system acts on it at
// most once and then sets Processed.
type Message[T any] struct {
	Data      T
	Processed bool
}

// NewMessage wraps data into an unprocessed message.
func NewMessage[T any](data T) Message[T] { return Message[T]{Data: data} }

type Movement struct {
	Direction Vec2
}

type Shooting struct {
	Angle float64
}

type ChangeWeapon struct {
	Weapon WeaponType
}
