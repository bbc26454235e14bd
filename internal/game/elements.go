package game

import (
	"fmt"
	"strings"
)

// ElementType is the affinity of a creature or a move. It is descriptive
// only: no type-effectiveness multipliers are applied in combat.
type ElementType string

const (
	Fire     ElementType = "Fire"
	Water    ElementType = "Water"
	Grass    ElementType = "Grass"
	Electric ElementType = "Electric"
	Normal   ElementType = "Normal"
	Psychic  ElementType = "Psychic"
	Fighting ElementType = "Fighting"
	Dark     ElementType = "Dark"
	Dragon   ElementType = "Dragon"
	Steel    ElementType = "Steel"
	Fairy    ElementType = "Fairy"
)

// ElementTypes lists every element in declaration order. The generative
// provider uses it to build the enum of its response schema.
var ElementTypes = []ElementType{Fire, Water, Grass, Electric, Normal, Psychic, Fighting, Dark, Dragon, Steel, Fairy}

// Valid reports whether t is one of the known element types.
func (t ElementType) Valid() bool {
	for _, e := range ElementTypes {
		if e == t {
			return true
		}
	}
	return false
}

func (t ElementType) String() string { return string(t) }

// ParseElementType matches s case-insensitively against the known types.
func ParseElementType(s string) (ElementType, error) {
	s = strings.TrimSpace(s)
	for _, e := range ElementTypes {
		if strings.EqualFold(string(e), s) {
			return e, nil
		}
	}
	return "", fmt.Errorf("unknown element type %q", s)
}

// ElementNames returns the element types as plain strings.
func ElementNames() []string {
	out := make([]string, len(ElementTypes))
	for i, e := range ElementTypes {
		out[i] = string(e)
	}
	return out
}
