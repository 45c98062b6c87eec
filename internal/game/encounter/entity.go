// Package encounter implements the round state machine for one tactical
// encounter: action submission, AI decisions, movement and combat
// resolution, end-of-round effect ticks, and win-condition evaluation.
package encounter

import (
	"github.com/google/uuid"

	"github.com/cory-johannsen/skirmish/internal/game/ai"
	"github.com/cory-johannsen/skirmish/internal/game/content"
	"github.com/cory-johannsen/skirmish/internal/game/dice"
	"github.com/cory-johannsen/skirmish/internal/game/hex"
	"github.com/cory-johannsen/skirmish/internal/game/stats"
)

// Side distinguishes the two opposing teams.
type Side int

const (
	SidePlayers Side = iota
	SideMonsters
)

// String returns "players" or "monsters".
func (s Side) String() string {
	if s == SideMonsters {
		return "monsters"
	}
	return "players"
}

// Entity is one live participant. Exactly one position at a time; the
// loop's occupied index mirrors the positions of all living entities.
type Entity struct {
	ID          string
	Name        string
	Side        Side
	Pos         hex.Hex
	Block       *stats.Block
	MoveRange   int
	AttackRange int
	// AttackDamage is the basic attack roll.
	AttackDamage dice.Expression
	// Abilities lists usable ability ids from the content registry.
	Abilities []string
	// Brain is non-nil for AI-controlled monsters only.
	Brain *ai.Brain
}

// IsAlive reports whether the entity can still participate. A nil Block
// (possible only through external corruption) reads as dead rather than
// panicking mid-round.
func (e *Entity) IsAlive() bool {
	return e != nil && e.Block != nil && !e.Block.IsDead()
}

// HasAbility reports whether id is in the entity's ability list.
func (e *Entity) HasAbility(id string) bool {
	for _, a := range e.Abilities {
		if a == id {
			return true
		}
	}
	return false
}

// PlayerSpec describes one player entity at encounter setup.
type PlayerSpec struct {
	Name         string
	Pos          hex.Hex
	MaxHP        int
	Armor        int
	MoveRange    int
	AttackRange  int
	AttackDamage string
	Abilities    []string
}

// NewPlayer creates a player entity with a fresh instance id.
//
// Precondition: spec.AttackDamage must be a valid dice expression.
func NewPlayer(spec PlayerSpec) (*Entity, error) {
	expr, err := dice.Parse(spec.AttackDamage)
	if err != nil {
		return nil, err
	}
	return &Entity{
		ID:           uuid.NewString(),
		Name:         spec.Name,
		Side:         SidePlayers,
		Pos:          spec.Pos,
		Block:        stats.NewBlock(spec.MaxHP, spec.Armor),
		MoveRange:    spec.MoveRange,
		AttackRange:  spec.AttackRange,
		AttackDamage: expr,
		Abilities:    append([]string(nil), spec.Abilities...),
	}, nil
}

// NewMonster instantiates a monster definition at pos with a fresh
// instance id and its own brain.
//
// Precondition: def must have passed Validate; registry must not be nil.
func NewMonster(def *content.MonsterDefinition, pos hex.Hex, registry *content.Registry) *Entity {
	id := uuid.NewString()
	return &Entity{
		ID:           id,
		Name:         def.Name,
		Side:         SideMonsters,
		Pos:          pos,
		Block:        stats.NewBlock(def.MaxHP, def.Armor),
		MoveRange:    def.MoveRange,
		AttackRange:  def.AttackRange,
		AttackDamage: dice.MustParse(def.AttackDamage),
		Abilities:    append([]string(nil), def.Abilities...),
		Brain:        ai.NewBrain(id, def, registry),
	}
}
