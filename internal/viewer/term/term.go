// Package term draws simulation frames on a terminal and turns key presses
// into intents.
package term

import (
	"context"
	"fmt"
	"math"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
	"github.com/zeusync/escape/internal/core/models"
	"github.com/zeusync/escape/internal/core/observability/log"
	"github.com/zeusync/escape/internal/core/render"
	"github.com/zeusync/escape/internal/core/systems/input"
)

// Terminal cells are about twice as tall as wide, so one world unit spans two
// columns and one row.
const columnsPerUnit = 2

// IntentSink accepts intents produced by key presses.
type IntentSink interface {
	Push(intent input.Intent) error
}

var (
	stylePlayer = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	styleAgent  = tcell.StyleDefault.Foreground(tcell.ColorRed)
	styleFriend = tcell.StyleDefault.Foreground(tcell.ColorGreen)
	styleBullet = tcell.StyleDefault.Foreground(tcell.ColorWhite)
	styleWall   = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleHUD    = tcell.StyleDefault.Foreground(tcell.ColorAqua)
)

type Viewer struct {
	screen tcell.Screen
	sink   IntentSink
	logger log.Log
	frames chan render.Frame
	aim    models.Vec2
}

// New wraps an initialised screen. Run finalises it.
func New(screen tcell.Screen, sink IntentSink, logger log.Log) *Viewer {
	return &Viewer{
		screen: screen,
		sink:   sink,
		logger: logger.With(log.String("component", "term")),
		frames: make(chan render.Frame, 1),
		aim:    models.V(1, 0),
	}
}

// Publish hands the viewer the newest frame, replacing one not yet drawn.
func (v *Viewer) Publish(frame render.Frame) {
	for {
		select {
		case v.frames <- frame:
			return
		default:
		}
		select {
		case <-v.frames:
		default:
		}
	}
}

// Run draws frames and handles keys until ctx ends or the user quits.
func (v *Viewer) Run(ctx context.Context) error {
	defer v.screen.Fini()
	events := make(chan tcell.Event, 32)
	go func() {
		for {
			ev := v.screen.PollEvent()
			if ev == nil {
				close(events)
				return
			}
			events <- ev
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case frame := <-v.frames:
			v.Draw(frame)
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			switch ev := ev.(type) {
			case *tcell.EventKey:
				if v.HandleKey(ev) {
					return ErrQuit
				}
			case *tcell.EventResize:
				v.screen.Sync()
			}
		}
	}
}

// HandleKey translates one key press and reports whether it asked to quit.
func (v *Viewer) HandleKey(ev *tcell.EventKey) bool {
	var in input.Intent
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyUp:
		in = v.move(0, 1)
	case tcell.KeyDown:
		in = v.move(0, -1)
	case tcell.KeyLeft:
		in = v.move(-1, 0)
	case tcell.KeyRight:
		in = v.move(1, 0)
	case tcell.KeyRune:
		switch r := ev.Rune(); r {
		case 'q', 'Q':
			return true
		case 'w':
			in = v.move(0, 1)
		case 's':
			in = v.move(0, -1)
		case 'a':
			in = v.move(-1, 0)
		case 'd':
			in = v.move(1, 0)
		case 'x':
			in = input.Intent{Kind: input.Move}
		case ' ':
			in = input.Intent{Kind: input.Fire, Angle: v.aim.Angle()}
		case '1', '2', '3', '4':
			in = input.Intent{Kind: input.Weapon, Weapon: models.WeaponTypes[r-'1']}
		default:
			return false
		}
	default:
		return false
	}
	if err := v.sink.Push(in); err != nil {
		v.logger.Debug("intent rejected", log.Error(err))
	}
	return false
}

func (v *Viewer) move(x, y float64) input.Intent {
	v.aim = models.V(x, y)
	return input.Intent{Kind: input.Move, Direction: v.aim}
}

// Draw renders frame centred on the player, or on the origin once the player
// is gone.
func (v *Viewer) Draw(frame render.Frame) {
	v.screen.Clear()
	width, height := v.screen.Size()
	centre := models.Vec2{}
	player, alive := frame.Player()
	if alive {
		centre = player.Position
	}
	cx, cy := width/2, (height+1)/2
	cell := func(p models.Vec2) (int, int) {
		return cx + int(math.Round((p.X-centre.X)*columnsPerUnit)), cy - int(math.Round(p.Y-centre.Y))
	}
	put := func(x, y int, r rune, style tcell.Style) {
		if x >= 0 && x < width && y >= 1 && y < height {
			v.screen.SetContent(x, y, r, nil, style)
		}
	}

	for _, it := range frame.Items {
		switch it.Kind {
		case render.KindWall:
			x0, y0 := cell(it.Position.Sub(models.V(it.Width/2, -it.Height/2)))
			x1, y1 := cell(it.Position.Add(models.V(it.Width/2, -it.Height/2)))
			for y := y0; y <= y1; y++ {
				for x := x0; x <= x1; x++ {
					put(x, y, '#', styleWall)
				}
			}
		case render.KindCircle:
			x, y := cell(it.Position)
			put(x, y, 'O', styleWall)
		}
	}
	for _, it := range frame.Items {
		x, y := cell(it.Position)
		switch it.Kind {
		case render.KindBullet:
			put(x, y, '*', styleBullet)
		case render.KindAgent:
			style := styleAgent
			if alive && it.Group == player.Group {
				style = styleFriend
			}
			put(x, y, 'A', style)
		case render.KindPlayer:
			put(x, y, '@', stylePlayer)
		}
	}

	hud := fmt.Sprintf("tick %d  t %.1fs  agents %d  bullets %d", frame.Tick, frame.Time, frame.Agents, frame.Bullets)
	if alive {
		hud = fmt.Sprintf("hp %.0f/%.0f  %s  %s", player.Health, player.Max, player.Weapon, hud)
	} else {
		hud = "dead  " + hud
	}
	v.text(0, 0, runewidth.Truncate(hud, width, "…"), styleHUD)
	v.screen.Show()
}

func (v *Viewer) text(x, y int, s string, style tcell.Style) {
	for _, r := range s {
		v.screen.SetContent(x, y, r, nil, style)
		x += runewidth.RuneWidth(r)
	}
}
