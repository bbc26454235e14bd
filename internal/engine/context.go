package engine

import (
	"github.com/ericogr/monster-battle/internal/game"
)

// turnContext carries the working copy of a battle through one transition.
// The caller's state is cloned up front so the input is never modified.
type turnContext struct {
	s    game.BattleState
	narr Narrator
}

func newTurnContext(s game.BattleState, narr Narrator) *turnContext {
	return &turnContext{s: s.Clone(), narr: narr}
}

func (tc *turnContext) add(msg string) { tc.s.Logs = append(tc.s.Logs, msg) }

func (tc *turnContext) creature(side game.Side) *game.Creature {
	if side == game.SideOpponent {
		return &tc.s.Opponent
	}
	return &tc.s.Player
}

// strike resolves move from attacker against the other side, applies the
// damage floored at zero and records the outcome. It reports whether the
// defender was knocked out.
func (tc *turnContext) strike(rng RandomSource, attacker game.Side, move game.Move) (Hit, bool) {
	atk := tc.creature(attacker)
	def := tc.creature(attacker.Other())

	hit := ResolveDamage(rng, *atk, *def, move)
	def.CurrentHP -= hit.Damage
	if def.CurrentHP < 0 {
		def.CurrentHP = 0
	}
	tc.add(tc.narr.MoveUsed(atk.Name, move.Name, hit.Damage, hit.Critical))

	if def.CurrentHP > 0 {
		return hit, false
	}
	tc.add(tc.narr.Fainted(def.Name, def.ID))
	return hit, true
}
