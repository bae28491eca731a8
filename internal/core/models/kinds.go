package models

type WeaponType string

const (
	Handgun WeaponType = "HANDGUN"
	Shotgun WeaponType = "SHOTGUN"
	SMG     WeaponType = "SMG"
	Rifle   WeaponType = "RIFLE"
)

// WeaponTypes lists every weapon in selection order.
var WeaponTypes = []WeaponType{Handgun, Shotgun, SMG, Rifle}

type BulletType string

const (
	HandgunBullet BulletType = "HANDGUN_BULLET"
	ShotgunShell  BulletType = "SHOTGUN_SHELL"
	SMGBullet     BulletType = "SMG_BULLET"
	RifleBullet   BulletType = "RIFLE_BULLET"
)

type TerrainType string

const (
	TerrainBox    TerrainType = "BOX"
	TerrainCircle TerrainType = "CIRCLE"
)

// WeaponPrototype holds the static characteristics of a weapon kind.
type WeaponPrototype struct {
	Type         WeaponType `json:"type" yaml:"type"`
	BulletType   BulletType `json:"bullet_type" yaml:"bullet_type"`
	Cooldown     float64    `json:"cooldown" yaml:"cooldown"`
	Accuracy     float64    `json:"accuracy" yaml:"accuracy"`
	BulletNumber int        `json:"bullet_number" yaml:"bullet_number"`
	BulletDamage float64    `json:"bullet_damage" yaml:"bullet_damage"`
	BulletSpeed  float64    `json:"bullet_speed" yaml:"bullet_speed"`
	GunLength    float64    `json:"gun_length" yaml:"gun_length"`
}
