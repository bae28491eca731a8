package term

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeusync/escape/internal/core/models"
	"github.com/zeusync/escape/internal/core/observability/log"
	"github.com/zeusync/escape/internal/core/render"
	"github.com/zeusync/escape/internal/core/systems/input"
)

type recorder struct {
	mu  sync.Mutex
	got []input.Intent
}

func (r *recorder) Push(in input.Intent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, in)
	return nil
}

func newScreen(t *testing.T) tcell.SimulationScreen {
	t.Helper()
	ss := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, ss.Init())
	ss.SetSize(40, 12)
	return ss
}

func runeAt(s tcell.Screen, x, y int) rune {
	r, _, _, _ := s.GetContent(x, y)
	return r
}

func key(r rune) *tcell.EventKey { return tcell.NewEventKey(tcell.KeyRune, r, tcell.ModNone) }

func TestDrawCentresOnPlayer(t *testing.T) {
	ss := newScreen(t)
	defer ss.Fini()
	v := New(ss, &recorder{}, log.NewNop())

	v.Draw(render.Frame{
		Tick: 12,
		Items: []render.Item{
			{Kind: render.KindPlayer, Position: models.V(10, 10), Health: 90, Max: 100, Weapon: "RIFLE", Group: 1},
			{Kind: render.KindAgent, Position: models.V(13, 10), Group: 0},
			{Kind: render.KindBullet, Position: models.V(10, 12)},
			{Kind: render.KindWall, Position: models.V(5, 10), Width: 1, Height: 1},
		},
	})

	assert.Equal(t, '@', runeAt(ss, 20, 6))
	assert.Equal(t, 'A', runeAt(ss, 26, 6))
	assert.Equal(t, '*', runeAt(ss, 20, 4))
	assert.Equal(t, '#', runeAt(ss, 10, 6))

	hud := ""
	for x := 0; x < 14; x++ {
		hud += string(runeAt(ss, x, 0))
	}
	assert.Equal(t, "hp 90/100  RIF", hud)
}

func TestKeysBecomeIntents(t *testing.T) {
	ss := newScreen(t)
	defer ss.Fini()
	rec := &recorder{}
	v := New(ss, rec, log.NewNop())

	assert.False(t, v.HandleKey(key('w')))
	assert.False(t, v.HandleKey(key(' ')))
	assert.False(t, v.HandleKey(key('2')))
	assert.False(t, v.HandleKey(tcell.NewEventKey(tcell.KeyLeft, 0, tcell.ModNone)))
	assert.False(t, v.HandleKey(key('z')))
	assert.True(t, v.HandleKey(key('q')))
	assert.True(t, v.HandleKey(tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone)))

	require.Len(t, rec.got, 4)
	assert.Equal(t, input.Intent{Kind: input.Move, Direction: models.V(0, 1)}, rec.got[0])
	assert.Equal(t, input.Fire, rec.got[1].Kind)
	assert.InDelta(t, math.Pi/2, rec.got[1].Angle, 1e-12, "fires along the last movement")
	assert.Equal(t, input.Intent{Kind: input.Weapon, Weapon: models.Shotgun}, rec.got[2])
	assert.Equal(t, models.V(-1, 0), rec.got[3].Direction)
}

func TestRunQuitsOnKey(t *testing.T) {
	ss := newScreen(t)
	v := New(ss, &recorder{}, log.NewNop())
	done := make(chan error, 1)
	go func() { done <- v.Run(context.Background()) }()

	v.Publish(render.Frame{Items: []render.Item{{Kind: render.KindPlayer}}})
	ss.InjectKey(tcell.KeyRune, 'q', tcell.ModNone)

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrQuit)
	case <-time.After(2 * time.Second):
		t.Fatal("viewer did not quit")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	ss := newScreen(t)
	v := New(ss, &recorder{}, log.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- v.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("viewer did not stop")
	}
}

func TestPublishKeepsLatest(t *testing.T) {
	v := New(newScreen(t), &recorder{}, log.NewNop())
	v.Publish(render.Frame{Tick: 1})
	v.Publish(render.Frame{Tick: 2})
	assert.Equal(t, uint64(2), (<-v.frames).Tick)
}
