package game

import (
	"gorm.io/gorm"
)

// Move is an immutable action a creature can take.
type Move struct {
	Name string      `json:"name"`
	Type ElementType `json:"type"`
	// Power drives damage; always positive.
	Power int `json:"power"`
	// Accuracy (0-100) is carried from the provider but has no effect on
	// damage resolution.
	Accuracy    int    `json:"accuracy"`
	Description string `json:"description"`
}

// CreatureTemplate is a creature as produced by the generative provider,
// before it enters a battle.
type CreatureTemplate struct {
	Name        string      `json:"name"`
	Type        ElementType `json:"type"`
	MaxHP       int         `json:"max_hp"`
	Attack      int         `json:"attack"`
	Defense     int         `json:"defense"`
	Speed       int         `json:"speed"`
	Description string      `json:"description"`
	Moves       []Move      `json:"moves"`
}

// BattleSetup is the pair of templates requested once per battle.
type BattleSetup struct {
	Player   CreatureTemplate `json:"player"`
	Opponent CreatureTemplate `json:"opponent"`
}

// Side identifies one of the two combatants. It doubles as the creature id.
type Side string

const (
	SidePlayer   Side = "player"
	SideOpponent Side = "opponent"
)

// Other returns the opposing side.
func (s Side) Other() Side {
	if s == SidePlayer {
		return SideOpponent
	}
	return SidePlayer
}

// Creature is a combatant inside a battle. CurrentHP is only changed by
// the engine and stays within [0, MaxHP].
type Creature struct {
	ID          Side        `json:"id"`
	Name        string      `json:"name"`
	Type        ElementType `json:"type"`
	MaxHP       int         `json:"max_hp"`
	CurrentHP   int         `json:"current_hp"`
	Attack      int         `json:"attack"`
	Defense     int         `json:"defense"`
	Speed       int         `json:"speed"`
	Moves       []Move      `json:"moves"`
	Description string      `json:"description"`
	// Art is an opaque handle (an art cache key). Empty means no art.
	Art string `json:"art,omitempty"`
}

// NewCreature instantiates a template at full health.
func NewCreature(id Side, t CreatureTemplate, art string) Creature {
	moves := make([]Move, len(t.Moves))
	copy(moves, t.Moves)
	return Creature{
		ID:          id,
		Name:        t.Name,
		Type:        t.Type,
		MaxHP:       t.MaxHP,
		CurrentHP:   t.MaxHP,
		Attack:      t.Attack,
		Defense:     t.Defense,
		Speed:       t.Speed,
		Moves:       moves,
		Description: t.Description,
		Art:         art,
	}
}

// IsPlayer reports whether the creature belongs to the player.
func (c Creature) IsPlayer() bool { return c.ID == SidePlayer }

// Defeated reports whether the creature has no HP left.
func (c Creature) Defeated() bool { return c.CurrentHP <= 0 }

// Status is the battle lifecycle. The pre-battle loading phase is tracked
// by the session, not by BattleState.
type Status string

const (
	StatusBattle Status = "battle"
	StatusWon    Status = "won"
	StatusLost   Status = "lost"
)

// BattleState is the aggregate root of one battle.
type BattleState struct {
	Player   Creature `json:"player"`
	Opponent Creature `json:"opponent"`
	Turn     Side     `json:"turn"`
	Status   Status   `json:"game_status"`
	Logs     []string `json:"logs"`
}

// Terminal reports whether the battle has been decided.
func (s BattleState) Terminal() bool {
	return s.Status == StatusWon || s.Status == StatusLost
}

// Creature returns the combatant on the given side.
func (s BattleState) Creature(side Side) Creature {
	if side == SideOpponent {
		return s.Opponent
	}
	return s.Player
}

// Clone returns a deep copy so that transitions never share slices with
// earlier snapshots.
func (s BattleState) Clone() BattleState {
	out := s
	out.Player = s.Player.clone()
	out.Opponent = s.Opponent.clone()
	out.Logs = make([]string, len(s.Logs))
	copy(out.Logs, s.Logs)
	return out
}

func (c Creature) clone() Creature {
	out := c
	out.Moves = make([]Move, len(c.Moves))
	copy(out.Moves, c.Moves)
	return out
}

// CreatureArt stores generated (or placeholder) creature art keyed by a
// canonical key derived from the visual description. It is the only
// persisted record: battles themselves are never stored.
type CreatureArt struct {
	gorm.Model
	Key         string `json:"key" gorm:"column:art_key;uniqueIndex"`
	Description string `json:"description"`
	Placeholder bool   `json:"placeholder"`
	// ImagePNG is omitted from JSON and stored as a BLOB.
	ImagePNG []byte `json:"-" gorm:"column:image_png;type:blob"`
}

// TableName keeps the table name explicit.
func (CreatureArt) TableName() string { return "creature_art" }
