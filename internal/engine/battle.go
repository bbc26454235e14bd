package engine

import (
	"errors"

	"github.com/ericogr/monster-battle/internal/game"
	"github.com/ericogr/monster-battle/internal/narration"
)

var (
	// ErrIllegalAction is returned when an action is attempted outside its
	// turn or after the battle ended. The returned state is unchanged.
	ErrIllegalAction = errors.New("action not allowed in current battle state")
	// ErrInvalidMove is returned for a move index outside the creature's
	// move list.
	ErrInvalidMove = errors.New("move index out of range")
	// ErrNoMoves is returned when the acting creature has no moves at all.
	ErrNoMoves = errors.New("creature has no moves")
)

// Narrator produces the log lines appended by the engine.
type Narrator interface {
	Encounter(opponent string) string
	FirstStrike(name string, side game.Side) string
	MoveUsed(attacker, move string, damage int, critical bool) string
	Fainted(name string, side game.Side) string
}

// Engine applies battle transitions. Every transition takes a state and
// returns a new one; the input is never modified. An Engine is not safe for
// concurrent use because its RandomSource usually is not.
type Engine struct {
	rng  RandomSource
	narr Narrator
}

// New builds an engine. A nil narrator falls back to English narration.
func New(rng RandomSource, narr Narrator) *Engine {
	if narr == nil {
		narr = narration.Default()
	}
	return &Engine{rng: rng, narr: narr}
}

// Start creates the initial state for two fresh creatures. The faster
// creature acts first and ties go to the player.
func (e *Engine) Start(player, opponent game.Creature) game.BattleState {
	player.ID = game.SidePlayer
	opponent.ID = game.SideOpponent

	first := game.SideOpponent
	if player.Speed >= opponent.Speed {
		first = game.SidePlayer
	}
	firstName := opponent.Name
	if first == game.SidePlayer {
		firstName = player.Name
	}

	s := game.BattleState{
		Player:   player,
		Opponent: opponent,
		Turn:     first,
		Status:   game.StatusBattle,
	}
	s = s.Clone()
	s.Logs = []string{
		e.narr.Encounter(opponent.Name),
		e.narr.FirstStrike(firstName, first),
	}
	return s
}

// PlayerMove resolves the player's move at index. It is only legal while
// the battle is running and it is the player's turn; otherwise
// ErrIllegalAction is returned together with the unchanged state.
func (e *Engine) PlayerMove(s game.BattleState, index int) (game.BattleState, error) {
	if s.Status != game.StatusBattle || s.Turn != game.SidePlayer {
		return s, ErrIllegalAction
	}
	if index < 0 || index >= len(s.Player.Moves) {
		return s, ErrInvalidMove
	}

	tc := newTurnContext(s, e.narr)
	if _, ko := tc.strike(e.rng, game.SidePlayer, s.Player.Moves[index]); ko {
		tc.s.Status = game.StatusWon
		return tc.s, nil
	}
	tc.s.Turn = game.SideOpponent
	return tc.s, nil
}

// OpponentTurn lets the opponent pick a move uniformly at random and
// resolves it against the player.
func (e *Engine) OpponentTurn(s game.BattleState) (game.BattleState, error) {
	if s.Status != game.StatusBattle || s.Turn != game.SideOpponent {
		return s, ErrIllegalAction
	}
	if len(s.Opponent.Moves) == 0 {
		return s, ErrNoMoves
	}

	move := s.Opponent.Moves[e.rng.Intn(len(s.Opponent.Moves))]
	tc := newTurnContext(s, e.narr)
	if _, ko := tc.strike(e.rng, game.SideOpponent, move); ko {
		tc.s.Status = game.StatusLost
		return tc.s, nil
	}
	tc.s.Turn = game.SidePlayer
	return tc.s, nil
}
