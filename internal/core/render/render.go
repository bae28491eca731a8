// Package render extracts a read-only description of everything visible in
// the world. Viewers consume Frames and never touch the store.
package render

import (
	"github.com/zeusync/escape/internal/core/models"
	"github.com/zeusync/escape/internal/core/storage"
)

type ItemKind string

const (
	KindAgent   ItemKind = "agent"
	KindPlayer  ItemKind = "player"
	KindBullet  ItemKind = "bullet"
	KindWall    ItemKind = "wall"
	KindCircle  ItemKind = "obstacle"
	KindUnknown ItemKind = "unknown"
)

type Item struct {
	Entity   models.Entity `json:"entity"`
	Kind     ItemKind      `json:"kind"`
	Position models.Vec2   `json:"position"`
	Rotation float64       `json:"rotation,omitempty"`
	Radius   float64       `json:"radius,omitempty"`
	Width    float64       `json:"width,omitempty"`
	Height   float64       `json:"height,omitempty"`
	Health   float64       `json:"health,omitempty"`
	Max      float64       `json:"max_health,omitempty"`
	Group    int           `json:"group,omitempty"`
	Weapon   string        `json:"weapon,omitempty"`
}

// Frame is the visible state after one tick.
type Frame struct {
	Tick    uint64  `json:"tick"`
	Time    float64 `json:"time"`
	Items   []Item  `json:"items"`
	Players int     `json:"players"`
	Agents  int     `json:"agents"`
	Bullets int     `json:"bullets"`
}

// Extract builds the frame for every positioned entity in ascending id order.
// playerID selects which agent is marked as the player.
func Extract(w *storage.World, tick uint64, now float64, playerID int) Frame {
	f := Frame{Tick: tick, Time: now, Items: make([]Item, 0, storage.Count[models.Position](w))}
	for e := range w.Alive() {
		pos, err := storage.Get[models.Position](w, e)
		if err != nil {
			continue
		}
		item := Item{Entity: e, Kind: KindUnknown, Position: pos.Vec2}
		if rot, err := storage.Get[models.Rotation](w, e); err == nil {
			item.Rotation = rot.Radian
		}
		if hb, err := storage.Get[models.Hitbox](w, e); err == nil {
			item.Radius = hb.Radius
		}
		if hp, err := storage.Get[models.Health](w, e); err == nil {
			item.Health, item.Max = hp.Current, hp.Max
		}

		switch {
		case storage.Has[models.AgentData](w, e):
			data, _ := storage.Get[models.AgentData](w, e)
			item.Group = data.Group
			item.Kind = KindAgent
			if data.ID == playerID {
				item.Kind = KindPlayer
				f.Players++
			} else {
				f.Agents++
			}
			if weapon, err := storage.Get[models.Weapon](w, e); err == nil {
				item.Weapon = string(weapon.Kind)
			}
		case storage.Has[models.BulletData](w, e):
			data, _ := storage.Get[models.BulletData](w, e)
			item.Kind = KindBullet
			item.Group = data.Group
			f.Bullets++
		case storage.Has[models.TerrainData](w, e):
			data, _ := storage.Get[models.TerrainData](w, e)
			if data.Kind == models.TerrainCircle {
				item.Kind = KindCircle
				item.Radius = data.Args[0]
			} else {
				item.Kind = KindWall
				item.Width, item.Height = data.Args[0], data.Args[1]
			}
		}
		f.Items = append(f.Items, item)
	}
	return f
}

// Player returns the player item, if it is alive.
func (f Frame) Player() (Item, bool) {
	for _, it := range f.Items {
		if it.Kind == KindPlayer {
			return it, true
		}
	}
	return Item{}, false
}
