// Package tui is a terminal front end for a single battle session.
package tui

import (
	"fmt"
	"strings"

	"github.com/ericogr/monster-battle/internal/game"
	"github.com/ericogr/monster-battle/internal/service"

	"github.com/gdamore/tcell/v2"
)

// canvas is the part of tcell.Screen the renderer draws on.
type canvas interface {
	SetContent(x, y int, primary rune, combining []rune, style tcell.Style)
	Size() (width, height int)
	Clear()
}

const (
	hpBarWidth = 20
	logLines   = 6
)

var (
	styleText    = tcell.StyleDefault.Foreground(tcell.ColorWhite)
	styleTitle   = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	styleDim     = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleError   = tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)
	styleHPHigh  = tcell.StyleDefault.Foreground(tcell.ColorGreen)
	styleHPMid   = tcell.StyleDefault.Foreground(tcell.ColorYellow)
	styleHPLow   = tcell.StyleDefault.Foreground(tcell.ColorRed)
	styleCurrent = tcell.StyleDefault.Foreground(tcell.ColorAqua).Bold(true)
)

// Renderer draws session views.
type Renderer struct {
	c canvas
}

func NewRenderer(c canvas) *Renderer {
	return &Renderer{c: c}
}

func (r *Renderer) text(x, y int, s string, style tcell.Style) {
	for _, ch := range s {
		r.c.SetContent(x, y, ch, nil, style)
		x++
	}
}

// Render draws one frame for v. The caller shows the screen.
func (r *Renderer) Render(v service.View) {
	r.c.Clear()
	switch v.Phase {
	case service.PhaseIdle:
		r.renderIntro()
	case service.PhaseLoading:
		r.renderLoading(v.LoadingStep)
	case service.PhaseFailed:
		r.renderFailed(v.Error)
	case service.PhaseBattle:
		if v.Battle != nil {
			r.renderBattle(*v.Battle)
		}
	}
}

func (r *Renderer) renderIntro() {
	r.text(2, 1, "MONSTER BATTLE", styleTitle)
	r.text(2, 3, "Two creatures, designed on the spot. Only one walks away.", styleText)
	r.text(2, 5, "[enter] start    [q] quit", styleDim)
}

func (r *Renderer) renderLoading(step string) {
	r.text(2, 1, "MONSTER BATTLE", styleTitle)
	r.text(2, 3, step, styleText)
}

func (r *Renderer) renderFailed(msg string) {
	r.text(2, 1, "MONSTER BATTLE", styleTitle)
	r.text(2, 3, msg, styleError)
	r.text(2, 5, "[r] retry    [q] quit", styleDim)
}

func (r *Renderer) renderBattle(b game.BattleState) {
	r.creature(2, 1, b.Creature(game.SideOpponent))
	r.creature(2, 5, b.Creature(game.SidePlayer))

	y := 9
	logs := b.Logs
	if len(logs) > logLines {
		logs = logs[len(logs)-logLines:]
	}
	for _, line := range logs {
		r.text(2, y, line, styleText)
		y++
	}
	y = 9 + logLines + 1

	switch {
	case b.Status == game.StatusWon:
		r.text(2, y, "YOU WIN!", styleTitle)
		r.text(2, y+2, "[r] new battle    [q] quit", styleDim)
	case b.Status == game.StatusLost:
		r.text(2, y, "YOU LOSE...", styleError)
		r.text(2, y+2, "[r] new battle    [q] quit", styleDim)
	case b.Turn == game.SideOpponent:
		r.text(2, y, b.Opponent.Name+" is thinking...", styleDim)
	default:
		r.text(2, y, "Choose a move:", styleCurrent)
		for i, m := range b.Player.Moves {
			label := fmt.Sprintf("[%d] %s (%s, %d)", i+1, m.Name, m.Type, m.Power)
			r.text(4, y+1+i, label, styleText)
		}
	}
}

func (r *Renderer) creature(x, y int, c game.Creature) {
	title := fmt.Sprintf("%s  [%s]", c.Name, c.Type)
	if c.IsPlayer() {
		title += "  (you)"
	}
	r.text(x, y, title, styleTitle)
	r.text(x, y+1, hpBar(c.CurrentHP, c.MaxHP), hpStyle(c.CurrentHP, c.MaxHP))
	r.text(x+hpBarWidth+3, y+1, fmt.Sprintf("%d/%d", c.CurrentHP, c.MaxHP), styleText)
	if c.Description != "" {
		r.text(x, y+2, c.Description, styleDim)
	}
}

func hpBar(hp, max int) string {
	filled := 0
	if max > 0 {
		filled = hp * hpBarWidth / max
	}
	if hp > 0 && filled == 0 {
		filled = 1
	}
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", hpBarWidth-filled) + "]"
}

func hpStyle(hp, max int) tcell.Style {
	switch {
	case max <= 0 || hp*4 <= max:
		return styleHPLow
	case hp*2 <= max:
		return styleHPMid
	default:
		return styleHPHigh
	}
}
