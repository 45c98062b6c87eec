// Package content loads and validates monster and ability definitions from
// YAML. Definitions are held by an explicitly constructed Registry with a
// Load/Clear lifecycle — there is no package-level cache.
package content

import (
	"fmt"

	"github.com/cory-johannsen/skirmish/internal/game/dice"
	"github.com/cory-johannsen/skirmish/internal/game/stats"
)

// EffectSpec describes a status effect an ability applies on hit.
type EffectSpec struct {
	Kind     string  `yaml:"kind"`
	Value    float64 `yaml:"value"`
	Duration int     `yaml:"duration"`
	Stacks   int     `yaml:"stacks"`
}

// ResolveKind maps the effect's kind string to its closed enum value.
//
// Precondition: the enclosing definition has passed Validate.
func (e EffectSpec) ResolveKind() stats.EffectKind {
	k, err := stats.ParseEffectKind(e.Kind)
	if err != nil {
		panic("content: EffectSpec.ResolveKind on unvalidated definition: " + err.Error())
	}
	return k
}

// AbilityDefinition is a reusable ability archetype loaded from YAML.
// Exactly one of Damage or Healing is expected for most abilities, but
// both may be empty for pure effect applications.
type AbilityDefinition struct {
	ID      string `yaml:"id"`
	Name    string `yaml:"name"`
	Range   int    `yaml:"range"`
	Damage  string `yaml:"damage"`  // dice expression, e.g. "2d6+1"
	Healing string `yaml:"healing"` // dice expression; targets own side
	// Effect, when present, is applied to the target on a successful use.
	Effect *EffectSpec `yaml:"effect"`
	// Cooldown is the number of rounds between uses; 0 means every round.
	Cooldown int `yaml:"cooldown"`
}

// IsHealing reports whether this ability targets the caster's own side.
func (a *AbilityDefinition) IsHealing() bool { return a.Healing != "" }

// Validate checks the definition's invariants.
//
// Postcondition: nil return guarantees the dice expressions parse and the
// effect kind, if any, is in the closed set.
func (a *AbilityDefinition) Validate() error {
	if a.ID == "" {
		return fmt.Errorf("ability definition: id must not be empty")
	}
	if a.Name == "" {
		return fmt.Errorf("ability definition %q: name must not be empty", a.ID)
	}
	if a.Range < 0 {
		return fmt.Errorf("ability definition %q: range must be >= 0", a.ID)
	}
	if a.Cooldown < 0 {
		return fmt.Errorf("ability definition %q: cooldown must be >= 0", a.ID)
	}
	if a.Damage != "" {
		if _, err := dice.Parse(a.Damage); err != nil {
			return fmt.Errorf("ability definition %q: damage: %w", a.ID, err)
		}
	}
	if a.Healing != "" {
		if _, err := dice.Parse(a.Healing); err != nil {
			return fmt.Errorf("ability definition %q: healing: %w", a.ID, err)
		}
	}
	if a.Damage != "" && a.Healing != "" {
		return fmt.Errorf("ability definition %q: damage and healing are mutually exclusive", a.ID)
	}
	if a.Effect != nil {
		if _, err := stats.ParseEffectKind(a.Effect.Kind); err != nil {
			return fmt.Errorf("ability definition %q: %w", a.ID, err)
		}
		if a.Effect.Duration == 0 {
			return fmt.Errorf("ability definition %q: effect duration must not be 0", a.ID)
		}
	}
	return nil
}
