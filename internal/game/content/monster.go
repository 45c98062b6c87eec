package content

import (
	"fmt"

	"github.com/cory-johannsen/skirmish/internal/game/dice"
	"github.com/cory-johannsen/skirmish/internal/game/threat"
)

// ConditionKind is the closed set of behavior-rule predicates. Unknown
// kinds fail Validate at load time; there is no stringly-typed dispatch at
// decision time.
type ConditionKind string

const (
	// CondAlways matches every round.
	CondAlways ConditionKind = "always"
	// CondHPBelow matches when the monster's HP percentage is below Value.
	CondHPBelow ConditionKind = "hp_below"
	// CondEnemyWithin matches when the chosen target is within Value hexes.
	CondEnemyWithin ConditionKind = "enemy_within"
	// CondRoundAtLeast matches from round Value onward.
	CondRoundAtLeast ConditionKind = "round_at_least"
)

// RuleAction is the closed set of behavior-rule consequents.
type RuleAction string

const (
	// ActPreferAttack closes to melee/ranged basic attacks.
	ActPreferAttack RuleAction = "prefer_attack"
	// ActPreferAbility uses the rule's AbilityID when it is legal.
	ActPreferAbility RuleAction = "prefer_ability"
	// ActRetreat repositions to a defensive cell away from the target.
	ActRetreat RuleAction = "retreat"
	// ActHold stands still and waits.
	ActHold RuleAction = "hold"
)

// Condition is one predicate in a behavior rule.
type Condition struct {
	Kind  ConditionKind `yaml:"kind"`
	Value float64       `yaml:"value"`
}

// BehaviorRule pairs a condition with the action taken when it matches.
// Rules are evaluated in declaration order; the first match wins.
type BehaviorRule struct {
	When Condition  `yaml:"when"`
	Do   RuleAction `yaml:"do"`
	// AbilityID names the ability for ActPreferAbility rules.
	AbilityID string `yaml:"ability"`
}

// AIProfile is a monster's decision tuning.
type AIProfile struct {
	// Archetype is a descriptive label ("bruiser", "skirmisher"); it does
	// not change behavior, the rules do.
	Archetype string         `yaml:"archetype"`
	Rules     []BehaviorRule `yaml:"rules"`
}

// MonsterDefinition is a reusable monster archetype loaded from YAML.
type MonsterDefinition struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Level       int    `yaml:"level"`
	MaxHP       int    `yaml:"max_hp"`
	Armor       int    `yaml:"armor"`
	MoveRange   int    `yaml:"move_range"`
	AttackRange int    `yaml:"attack_range"`
	// AttackDamage is the basic attack dice expression, e.g. "1d6+2".
	AttackDamage string    `yaml:"attack_damage"`
	Abilities    []string  `yaml:"abilities"`
	AI           AIProfile `yaml:"ai"`
	// Threat is the monster's targeting tuning; nil uses the defaults.
	Threat *threat.Config `yaml:"threat"`
}

// ThreatConfig returns the monster's threat tuning or the package default.
func (m *MonsterDefinition) ThreatConfig() threat.Config {
	if m.Threat != nil {
		return *m.Threat
	}
	return threat.DefaultConfig()
}

// Validate checks the definition's invariants, including that every
// behavior rule uses only closed-set kinds and actions.
func (m *MonsterDefinition) Validate() error {
	if m.ID == "" {
		return fmt.Errorf("monster definition: id must not be empty")
	}
	if m.Name == "" {
		return fmt.Errorf("monster definition %q: name must not be empty", m.ID)
	}
	if m.Level < 1 {
		return fmt.Errorf("monster definition %q: level must be >= 1", m.ID)
	}
	if m.MaxHP < 1 {
		return fmt.Errorf("monster definition %q: max_hp must be >= 1", m.ID)
	}
	if m.Armor < 0 {
		return fmt.Errorf("monster definition %q: armor must be >= 0", m.ID)
	}
	if m.MoveRange < 0 {
		return fmt.Errorf("monster definition %q: move_range must be >= 0", m.ID)
	}
	if m.AttackRange < 1 {
		return fmt.Errorf("monster definition %q: attack_range must be >= 1", m.ID)
	}
	if m.AttackDamage == "" {
		return fmt.Errorf("monster definition %q: attack_damage must not be empty", m.ID)
	}
	if _, err := dice.Parse(m.AttackDamage); err != nil {
		return fmt.Errorf("monster definition %q: attack_damage: %w", m.ID, err)
	}
	for i, rule := range m.AI.Rules {
		if err := validateRule(rule); err != nil {
			return fmt.Errorf("monster definition %q: rule %d: %w", m.ID, i, err)
		}
	}
	return nil
}

func validateRule(rule BehaviorRule) error {
	switch rule.When.Kind {
	case CondAlways, CondHPBelow, CondEnemyWithin, CondRoundAtLeast:
	default:
		return fmt.Errorf("unknown condition kind %q", rule.When.Kind)
	}
	switch rule.Do {
	case ActPreferAttack, ActRetreat, ActHold:
		if rule.AbilityID != "" {
			return fmt.Errorf("action %q must not name an ability", rule.Do)
		}
	case ActPreferAbility:
		if rule.AbilityID == "" {
			return fmt.Errorf("action %q requires an ability id", rule.Do)
		}
	default:
		return fmt.Errorf("unknown rule action %q", rule.Do)
	}
	return nil
}
