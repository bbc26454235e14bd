package tui

import (
	"context"
	"errors"

	"github.com/ericogr/monster-battle/internal/engine"
	"github.com/ericogr/monster-battle/internal/logging"
	"github.com/ericogr/monster-battle/internal/service"

	"github.com/gdamore/tcell/v2"
)

// Battle is the subset of *service.Session the terminal client drives.
type Battle interface {
	StartBattle(ctx context.Context) (service.View, error)
	SelectMove(index int) (service.View, error)
	View() service.View
	Subscribe() (<-chan service.View, func())
}

// App runs the input loop. Views arrive from the session subscription and
// are handed to the event loop as interrupt events.
type App struct {
	screen   tcell.Screen
	battle   Battle
	renderer *Renderer
	view     service.View
}

func NewApp(screen tcell.Screen, battle Battle) *App {
	return &App{screen: screen, battle: battle, renderer: NewRenderer(screen), view: battle.View()}
}

// NewScreen creates and initializes the terminal screen.
func NewScreen() (tcell.Screen, error) {
	s, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err := s.Init(); err != nil {
		return nil, err
	}
	s.SetStyle(tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite))
	s.Clear()
	return s, nil
}

// Run blocks until the user quits or ctx is cancelled.
func (a *App) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	views, unsubscribe := a.battle.Subscribe()
	defer unsubscribe()
	go func() {
		for {
			select {
			case v, ok := <-views:
				if !ok {
					return
				}
				_ = a.screen.PostEvent(tcell.NewEventInterrupt(v))
			case <-ctx.Done():
				_ = a.screen.PostEvent(tcell.NewEventInterrupt(nil))
				return
			}
		}
	}()

	a.draw()
	for {
		switch ev := a.screen.PollEvent().(type) {
		case nil:
			return
		case *tcell.EventInterrupt:
			v, ok := ev.Data().(service.View)
			if !ok {
				return
			}
			a.view = v
			a.draw()
		case *tcell.EventResize:
			a.screen.Sync()
			a.draw()
		case *tcell.EventKey:
			if !a.handleKey(ctx, ev) {
				return
			}
		}
	}
}

func (a *App) draw() {
	a.renderer.Render(a.view)
	a.screen.Show()
}

// handleKey returns false when the user asked to quit.
func (a *App) handleKey(ctx context.Context, ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return false
	case tcell.KeyEnter:
		a.start(ctx)
		return true
	case tcell.KeyRune:
	default:
		return true
	}

	switch r := ev.Rune(); {
	case r == 'q' || r == 'Q':
		return false
	case r == 'r' || r == 'R' || r == 's' || r == 'S':
		a.start(ctx)
	case r >= '1' && r <= '4':
		if _, err := a.battle.SelectMove(int(r - '1')); err != nil && !errors.Is(err, engine.ErrInvalidMove) {
			logging.Error("move failed", err, nil)
		}
	}
	return true
}

// start launches a new battle unless one is already running.
func (a *App) start(ctx context.Context) {
	if a.view.Phase == service.PhaseLoading {
		return
	}
	if b := a.view.Battle; b != nil && !b.Terminal() {
		return
	}
	go func() {
		if _, err := a.battle.StartBattle(ctx); err != nil && !errors.Is(err, service.ErrSetupFailed) && !errors.Is(err, service.ErrSuperseded) {
			logging.Error("battle start failed", err, nil)
		}
	}()
}
