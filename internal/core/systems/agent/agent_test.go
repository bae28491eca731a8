package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeusync/escape/internal/core/config"
	"github.com/zeusync/escape/internal/core/models"
	"github.com/zeusync/escape/internal/core/observability/log"
	"github.com/zeusync/escape/internal/core/storage"
)

func newSystem(t *testing.T) (*System, *storage.World) {
	t.Helper()
	w := storage.NewWorld()
	s := New(config.Default().Agents, log.NewNop())
	require.NoError(t, s.Initialize(context.Background(), w))
	return s, w
}

func TestCreateAgentComponents(t *testing.T) {
	s, w := newSystem(t)

	player := s.CreateAgent(w, models.V(1, 2), 1, 1, "")
	bot := s.CreateAgent(w, models.V(3, 4), 0, 0, "")

	pos, err := storage.Get[models.Position](w, player)
	require.NoError(t, err)
	assert.Equal(t, models.V(1, 2), pos.Vec2)

	hp, err := storage.Get[models.Health](w, player)
	require.NoError(t, err)
	assert.Equal(t, models.Health{Current: 100, Max: 100}, *hp)

	weapon, err := storage.Get[models.Weapon](w, bot)
	require.NoError(t, err)
	assert.Equal(t, models.Handgun, weapon.Kind)

	assert.False(t, storage.Has[models.AIControl](w, player))
	ai, err := storage.Get[models.AIControl](w, bot)
	require.NoError(t, err)
	assert.Equal(t, DefaultProfile, ai.Profile)

	name, _ := storage.Get[models.Name](w, player)
	assert.Equal(t, "player", name.Value)

	found, ok := Find(w, 1)
	assert.True(t, ok)
	assert.Equal(t, player, found)
	_, ok = Find(w, 7)
	assert.False(t, ok)
}

func TestUpdateRemovesDeadAgents(t *testing.T) {
	s, w := newSystem(t)
	alive := s.CreateAgent(w, models.V(0, 0), 0, 0, "hunter")
	dead := s.CreateAgent(w, models.V(5, 0), 0, 0, "hunter")
	hp, _ := storage.Get[models.Health](w, dead)
	hp.Current = 0

	require.NoError(t, s.Update(0, w))
	assert.True(t, w.Valid(alive))
	assert.False(t, w.Valid(dead))
	assert.Equal(t, uint64(1), s.Deaths())
}
