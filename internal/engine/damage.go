package engine

import (
	"math"

	"github.com/ericogr/monster-battle/internal/game"
)

const (
	powerFactor = 0.5

	varianceMin  = 0.8
	varianceSpan = 0.4

	// CriticalChance is the independent probability of a critical hit.
	CriticalChance = 0.0625
	// CriticalMultiplier is applied to the floored damage before flooring again.
	CriticalMultiplier = 1.5

	// MinDamage is the floor for every hit.
	MinDamage = 1
)

// Hit is the outcome of one resolved attack.
type Hit struct {
	Damage   int     `json:"damage"`
	Critical bool    `json:"critical"`
	Variance float64 `json:"variance"`
}

// ResolveDamage computes the damage move deals when used by attacker on
// defender:
//
//	base     = attack / defense * power * 0.5
//	variance = uniform in [0.8, 1.2)
//	damage   = floor(base * variance), then floor(damage * 1.5) on a 1/16 critical
//
// The result is never below MinDamage. Arguments are not modified. rng is
// consulted exactly twice: variance first, then the critical roll.
func ResolveDamage(rng RandomSource, attacker, defender game.Creature, move game.Move) Hit {
	defense := defender.Defense
	if defense < 1 {
		// provider stats are trusted, but a zero defense would divide by zero
		defense = 1
	}
	base := float64(attacker.Attack) / float64(defense) * float64(move.Power) * powerFactor
	variance := varianceMin + rng.Float64()*varianceSpan
	damage := int(math.Floor(base * variance))

	critical := rng.Float64() < CriticalChance
	if critical {
		damage = int(math.Floor(float64(damage) * CriticalMultiplier))
	}
	if damage < MinDamage {
		damage = MinDamage
	}
	return Hit{Damage: damage, Critical: critical, Variance: variance}
}
