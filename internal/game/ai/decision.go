// Package ai decides what an AI-controlled monster does each round. A
// Brain owns one threat table, evaluates its definition's behavior rules
// in declaration order, and turns the first match into a concrete,
// spatially-legal decision.
package ai

import (
	"fmt"

	"github.com/cory-johannsen/skirmish/internal/game/hex"
)

// DecisionKind identifies what the monster intends to do this round.
// The zero value is DecisionWait so a zero Decision is safe to execute.
type DecisionKind int

const (
	DecisionWait DecisionKind = iota
	DecisionMove
	DecisionAttack
	DecisionAbility
)

// String returns the human-readable name of the kind.
func (k DecisionKind) String() string {
	switch k {
	case DecisionWait:
		return "wait"
	case DecisionMove:
		return "move"
	case DecisionAttack:
		return "attack"
	case DecisionAbility:
		return "ability"
	default:
		return "unknown"
	}
}

// Decision is one round's intent for one monster. Only the fields of the
// active variant are meaningful: TargetID for attack/ability, Destination
// for move, AbilityID for ability.
type Decision struct {
	Kind        DecisionKind
	TargetID    string
	Destination hex.Hex
	AbilityID   string
	// Priority orders decisions within the monster resolution phase;
	// higher resolves first.
	Priority int
	// Confidence carries the targeting engine's certainty through to
	// logs and round results.
	Confidence float64
	Reason     string
}

// String summarises the decision for logs.
func (d Decision) String() string {
	switch d.Kind {
	case DecisionMove:
		return fmt.Sprintf("move to %s (%s)", d.Destination, d.Reason)
	case DecisionAttack:
		return fmt.Sprintf("attack %s (%s)", d.TargetID, d.Reason)
	case DecisionAbility:
		return fmt.Sprintf("use %s on %s (%s)", d.AbilityID, d.TargetID, d.Reason)
	default:
		return fmt.Sprintf("wait (%s)", d.Reason)
	}
}

// EntityView is the read-only slice of an entity the brain sees.
type EntityView struct {
	ID    string
	Name  string
	Pos   hex.Hex
	HP    int
	MaxHP int
	Armor int
	Alive bool
}

// HPPercent returns current HP as a percentage of max; 0 when MaxHP == 0.
func (v EntityView) HPPercent() float64 {
	if v.MaxHP <= 0 {
		return 0
	}
	return float64(v.HP) / float64(v.MaxHP) * 100
}

// Snapshot is the world state handed to a Brain for one decision. The
// round loop builds a fresh one per monster per round; the brain never
// sees live entities.
type Snapshot struct {
	Round int
	Self  EntityView
	// Enemies are the living opposing entities.
	Enemies []EntityView
	// Allies are the living same-side entities, excluding Self.
	Allies []EntityView
	// Obstacles are the cells the monster may not enter or path through:
	// every occupied cell except its own, plus terrain.
	Obstacles hex.ObstacleSet
	PathOpts  hex.PathOptions
}

func (s *Snapshot) enemyByID(id string) (EntityView, bool) {
	for _, e := range s.Enemies {
		if e.ID == id {
			return e, true
		}
	}
	return EntityView{}, false
}
