// Package agent creates controllable actors and removes them when their
// health runs out.
package agent

import (
	"context"

	"github.com/zeusync/escape/internal/core/config"
	"github.com/zeusync/escape/internal/core/models"
	"github.com/zeusync/escape/internal/core/observability/log"
	"github.com/zeusync/escape/internal/core/storage"
	"github.com/zeusync/escape/internal/core/system"
)

const Name = "agent"

// DefaultProfile drives agents spawned without an explicit behaviour.
const DefaultProfile = "simple_ai"

type System struct {
	system.Base
	cfg    config.Agents
	logger log.Log
	deaths uint64
}

func New(cfg config.Agents, logger log.Log) *System {
	return &System{
		Base:   system.NewBase(Name),
		cfg:    cfg,
		logger: logger.With(log.String("system", Name)),
	}
}

// CreateAgent spawns an agent at pos. The player is the agent whose id
// matches the configured player id; everyone else gets an AI profile.
func (s *System) CreateAgent(w *storage.World, pos models.Vec2, id, group int, profile string) models.Entity {
	e := w.Create()
	name := "agent"
	if id == s.cfg.PlayerID {
		name = "player"
	}
	storage.Assign(w, e, models.Name{Value: name})
	storage.Assign(w, e, models.Position{Vec2: pos})
	storage.Assign(w, e, models.Velocity{})
	storage.Assign(w, e, models.Rotation{})
	storage.Assign(w, e, models.Hitbox{Radius: s.cfg.Radius})
	storage.Assign(w, e, models.Health{Current: s.cfg.MaxHealth, Max: s.cfg.MaxHealth})
	storage.Assign(w, e, models.AgentData{ID: id, Group: group})
	storage.Assign(w, e, models.Weapon{Kind: s.cfg.Weapon})
	if id != s.cfg.PlayerID {
		if profile == "" {
			profile = DefaultProfile
		}
		storage.Assign(w, e, models.AIControl{Profile: profile})
	}
	return e
}

// Find returns the first live agent with the given id.
func Find(w *storage.World, id int) (models.Entity, bool) {
	for e, data := range storage.View1[models.AgentData](w) {
		if data.ID == id {
			return e, true
		}
	}
	return models.Null, false
}

// Deaths counts agents removed since start.
func (s *System) Deaths() uint64 { return s.deaths }

func (s *System) Initialize(context.Context, *storage.World) error { return nil }

func (s *System) Update(_ float64, w *storage.World) error {
	var dead []models.Entity
	for row := range storage.View2[models.AgentData, models.Health](w) {
		if row.B.Current <= 0 {
			dead = append(dead, row.Entity)
		}
	}
	for _, e := range dead {
		data, _ := storage.Get[models.AgentData](w, e)
		s.logger.Info("agent died", log.Stringer("entity", e), log.Int("id", data.ID), log.Int("group", data.Group))
		w.Destroy(e)
		s.deaths++
	}
	return nil
}
