package models

import "strconv"

// Entity is an opaque handle naming a bundle of components.
// The low 32 bits hold the slot index (starting at 1), the high 32 bits hold
// the slot generation, bumped every time the slot is destroyed.
type Entity uint64

// Null never names a live entity.
const Null Entity = 0

// NewEntity packs an index and a generation into an Entity.
func NewEntity(index, generation uint32) Entity {
	return Entity(uint64(generation)<<32 | uint64(index))
}

func (e Entity) Index() uint32      { return uint32(e) }
func (e Entity) Generation() uint32 { return uint32(e >> 32) }
func (e Entity) IsNull() bool       { return e == Null }

// String renders the numeric identity used by snapshots.
func (e Entity) String() string { return strconv.FormatUint(uint64(e), 10) }

// ParseEntity is the inverse of Entity.String.
func ParseEntity(s string) (Entity, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return Null, err
	}
	return Entity(v), nil
}
