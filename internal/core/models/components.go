package models

// Components are plain values. An entity holds at most one of each type.

type Name struct {
	Value string `json:"value" yaml:"value"`
}

type Position struct {
	Vec2 `yaml:",inline"`
}

type Velocity struct {
	Vec2 `yaml:",inline"`
}

type Rotation struct {
	Radian float64 `json:"radian" yaml:"radian"`
}

// Hitbox marks an entity as a dynamic circle for the physics bridge.
type Hitbox struct {
	Radius float64 `json:"radius" yaml:"radius"`
}

type Health struct {
	Current float64 `json:"current" yaml:"current"`
	Max     float64 `json:"max" yaml:"max"`
}

// AgentData identifies a controllable actor. Group decides friendly fire.
type AgentData struct {
	ID    int `json:"id" yaml:"id"`
	Group int `json:"group" yaml:"group"`
}

// AIControl names the behaviour profile driving a non-player agent.
type AIControl struct {
	Profile string `json:"profile" yaml:"profile"`
}

// BulletData describes a live projectile. Firer is a weak reference and must
// be checked with World.Valid before use.
type BulletData struct {
	Firer   Entity     `json:"firer" yaml:"firer"`
	Group   int        `json:"group" yaml:"group"`
	Type    BulletType `json:"type" yaml:"type"`
	Damage  float64    `json:"damage" yaml:"damage"`
	Density float64    `json:"density" yaml:"density"`
	Radius  float64    `json:"radius" yaml:"radius"`
}

// Weapon is the weapon currently held. Last and Next are simulation seconds.
type Weapon struct {
	Kind WeaponType `json:"kind" yaml:"kind"`
	Last float64    `json:"last" yaml:"last"`
	Next float64    `json:"next" yaml:"next"`
}

// TerrainData describes a static shape. For boxes Args holds width and
// height, for circles Args[0] holds the radius.
type TerrainData struct {
	Kind TerrainType `json:"kind" yaml:"kind"`
	Args [4]float64  `json:"args" yaml:"args"`
}

// Lifespan destroys its entity once simulation time reaches End.
type Lifespan struct {
	Begin float64 `json:"begin" yaml:"begin"`
	End   float64 `json:"end" yaml:"end"`
}

// ClockInfo is the persisted state of the simulation clock.
type ClockInfo struct {
	Tick    uint64  `json:"tick" yaml:"tick"`
	Elapsed float64 `json:"elapsed" yaml:"elapsed"`
}

// CollisionResults accumulates the entities a bullet touched since its last
// update. It is transient and never snapshotted.
type CollisionResults struct {
	Hits []Entity
}
