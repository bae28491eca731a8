// Package input queues already-decided intents from viewers and network
// clients and applies them on the tick thread as Message components.
package input

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/zeusync/escape/internal/core/models"
	"github.com/zeusync/escape/internal/core/observability/log"
	"github.com/zeusync/escape/internal/core/storage"
	"github.com/zeusync/escape/internal/core/system"
	"github.com/zeusync/escape/internal/core/systems/agent"
)

const Name = "input"

var (
	ErrUnknownIntent = errors.New("unknown intent")
	ErrNoSuchAgent   = errors.New("no agent with id")
)

type Kind string

const (
	Move   Kind = "move"
	Fire   Kind = "fire"
	Weapon Kind = "weapon"
	Spawn  Kind = "spawn"
)

// Intent is one decision of a controller. Agent selects the acting agent by
// AgentData.ID; zero means the player.
type Intent struct {
	Kind      Kind              `json:"kind"`
	Agent     int               `json:"agent,omitempty"`
	Direction models.Vec2       `json:"direction,omitempty"`
	Angle     float64           `json:"angle,omitempty"`
	Weapon    models.WeaponType `json:"weapon,omitempty"`
	Position  models.Vec2       `json:"position,omitempty"`
	Group     int               `json:"group,omitempty"`
	Profile   string            `json:"profile,omitempty"`
}

// Validate rejects intents the simulation cannot route.
func (i Intent) Validate() error {
	switch i.Kind {
	case Move, Fire, Spawn:
		return nil
	case Weapon:
		if i.Weapon == "" {
			return fmt.Errorf("%w: weapon intent without weapon", ErrUnknownIntent)
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownIntent, i.Kind)
	}
}

// System is safe for concurrent Push; Update must run on the tick thread.
type System struct {
	system.Base
	agents   *agent.System
	playerID int
	logger   log.Log

	mu    sync.Mutex
	queue []Intent
}

func New(agents *agent.System, playerID int, logger log.Log) *System {
	return &System{
		Base:     system.NewBase(Name, agents),
		agents:   agents,
		playerID: playerID,
		logger:   logger.With(log.String("system", Name)),
	}
}

// Push queues an intent for the next tick.
func (s *System) Push(intent Intent) error {
	if err := intent.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.queue = append(s.queue, intent)
	s.mu.Unlock()
	return nil
}

// Pending returns the number of queued intents.
func (s *System) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

func (s *System) Initialize(context.Context, *storage.World) error { return nil }

// Update routes queued intents. Intents for missing agents are dropped with a
// debug log: the agent may have died after the intent was decided.
func (s *System) Update(_ float64, w *storage.World) error {
	s.mu.Lock()
	batch := s.queue
	s.queue = nil
	s.mu.Unlock()

	for _, in := range batch {
		if err := s.apply(w, in); err != nil {
			s.logger.Debug("intent dropped", log.String("kind", string(in.Kind)), log.Error(err))
		}
	}
	return nil
}

func (s *System) apply(w *storage.World, in Intent) error {
	if in.Kind == Spawn {
		s.agents.CreateAgent(w, in.Position, in.Agent, in.Group, in.Profile)
		return nil
	}
	id := in.Agent
	if id == 0 {
		id = s.playerID
	}
	e, ok := agent.Find(w, id)
	if !ok {
		return fmt.Errorf("%w %d", ErrNoSuchAgent, id)
	}
	// assigning replaces the previous message and resets its processed flag
	switch in.Kind {
	case Move:
		storage.Assign(w, e, models.NewMessage(models.Movement{Direction: in.Direction}))
	case Fire:
		storage.Assign(w, e, models.NewMessage(models.Shooting{Angle: in.Angle}))
	case Weapon:
		storage.Assign(w, e, models.NewMessage(models.ChangeWeapon{Weapon: in.Weapon}))
	default:
		return fmt.Errorf("%w: %q", ErrUnknownIntent, in.Kind)
	}
	return nil
}
