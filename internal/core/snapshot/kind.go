package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/zeusync/escape/internal/core/models"
	"github.com/zeusync/escape/internal/core/storage"
)

// Kind enumerates every component type a snapshot can carry. Adding a
// component to snapshots means adding a constant here and a case to each
// switch below.
type Kind uint8

const (
	KindName Kind = iota + 1
	KindPosition
	KindVelocity
	KindRotation
	KindHitbox
	KindHealth
	KindAgentData
	KindAIControl
	KindBulletData
	KindWeapon
	KindTerrainData
	KindLifespan
	KindClockInfo
)

// AllKinds is the default declared type order.
var AllKinds = []Kind{
	KindName, KindPosition, KindVelocity, KindRotation, KindHitbox, KindHealth, KindAgentData,
	KindAIControl, KindBulletData, KindWeapon, KindTerrainData, KindLifespan, KindClockInfo,
}

func (k Kind) String() string {
	switch k {
	case KindName:
		return "Name"
	case KindPosition:
		return "Position"
	case KindVelocity:
		return "Velocity"
	case KindRotation:
		return "Rotation"
	case KindHitbox:
		return "Hitbox"
	case KindHealth:
		return "Health"
	case KindAgentData:
		return "AgentData"
	case KindAIControl:
		return "AIControl"
	case KindBulletData:
		return "BulletData"
	case KindWeapon:
		return "Weapon"
	case KindTerrainData:
		return "TerrainData"
	case KindLifespan:
		return "Lifespan"
	case KindClockInfo:
		return "ClockInfo"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// ParseKind maps a type tag back to its Kind.
func ParseKind(tag string) (Kind, bool) {
	for _, k := range AllKinds {
		if k.String() == tag {
			return k, true
		}
	}
	return 0, false
}

// extract returns the component of kind k held by e.
func (k Kind) extract(w *storage.World, e models.Entity) (any, bool) {
	switch k {
	case KindName:
		return value[models.Name](w, e)
	case KindPosition:
		return value[models.Position](w, e)
	case KindVelocity:
		return value[models.Velocity](w, e)
	case KindRotation:
		return value[models.Rotation](w, e)
	case KindHitbox:
		return value[models.Hitbox](w, e)
	case KindHealth:
		return value[models.Health](w, e)
	case KindAgentData:
		return value[models.AgentData](w, e)
	case KindAIControl:
		return value[models.AIControl](w, e)
	case KindBulletData:
		return value[models.BulletData](w, e)
	case KindWeapon:
		return value[models.Weapon](w, e)
	case KindTerrainData:
		return value[models.TerrainData](w, e)
	case KindLifespan:
		return value[models.Lifespan](w, e)
	case KindClockInfo:
		return value[models.ClockInfo](w, e)
	default:
		return nil, false
	}
}

// decode parses raw strictly into the component type of k.
func (k Kind) decode(raw json.RawMessage) (any, error) {
	switch k {
	case KindName:
		return decodeAs[models.Name](raw)
	case KindPosition:
		return decodeAs[models.Position](raw)
	case KindVelocity:
		return decodeAs[models.Velocity](raw)
	case KindRotation:
		return decodeAs[models.Rotation](raw)
	case KindHitbox:
		return decodeAs[models.Hitbox](raw)
	case KindHealth:
		return decodeAs[models.Health](raw)
	case KindAgentData:
		return decodeAs[models.AgentData](raw)
	case KindAIControl:
		return decodeAs[models.AIControl](raw)
	case KindBulletData:
		return decodeAs[models.BulletData](raw)
	case KindWeapon:
		return decodeAs[models.Weapon](raw)
	case KindTerrainData:
		return decodeAs[models.TerrainData](raw)
	case KindLifespan:
		return decodeAs[models.Lifespan](raw)
	case KindClockInfo:
		return decodeAs[models.ClockInfo](raw)
	default:
		return nil, fmt.Errorf("no decoder for %s", k)
	}
}

// attach assigns a value produced by decode.
func (k Kind) attach(w *storage.World, e models.Entity, v any) {
	switch k {
	case KindName:
		storage.Assign(w, e, v.(models.Name))
	case KindPosition:
		storage.Assign(w, e, v.(models.Position))
	case KindVelocity:
		storage.Assign(w, e, v.(models.Velocity))
	case KindRotation:
		storage.Assign(w, e, v.(models.Rotation))
	case KindHitbox:
		storage.Assign(w, e, v.(models.Hitbox))
	case KindHealth:
		storage.Assign(w, e, v.(models.Health))
	case KindAgentData:
		storage.Assign(w, e, v.(models.AgentData))
	case KindAIControl:
		storage.Assign(w, e, v.(models.AIControl))
	case KindBulletData:
		storage.Assign(w, e, v.(models.BulletData))
	case KindWeapon:
		storage.Assign(w, e, v.(models.Weapon))
	case KindTerrainData:
		storage.Assign(w, e, v.(models.TerrainData))
	case KindLifespan:
		storage.Assign(w, e, v.(models.Lifespan))
	case KindClockInfo:
		storage.Assign(w, e, v.(models.ClockInfo))
	}
}

func value[C any](w *storage.World, e models.Entity) (any, bool) {
	c, err := storage.Get[C](w, e)
	if err != nil {
		return nil, false
	}
	return *c, true
}

func decodeAs[C any](raw json.RawMessage) (any, error) {
	var c C
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&c); err != nil {
		return nil, err
	}
	return c, nil
}
