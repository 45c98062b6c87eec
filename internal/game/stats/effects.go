// Package stats implements the hit-point and status-effect bookkeeping the
// round loop consumes through a narrow contract: TakeDamage, Heal, the
// three modifiers, CanAct, and CanMove.
//
// Stacking policy (the one this implementation commits to): an effect's
// aggregate magnitude is its per-stack value multiplied by the stack
// count, and its remaining duration is the maximum across applications.
// Per-stack durations and multiplicative stacking are deliberately not
// supported.
package stats

import (
	"fmt"
	"sort"
)

// EffectKind is the closed set of status effects. Adding a kind means
// updating every switch over EffectKind; there is no dynamic dispatch.
type EffectKind int

const (
	// EffectStun prevents acting and moving.
	EffectStun EffectKind = iota
	// EffectRoot prevents moving.
	EffectRoot
	// EffectWeaken reduces outgoing damage by value*stacks (fraction).
	EffectWeaken
	// EffectVulnerable increases incoming damage by value*stacks (fraction).
	EffectVulnerable
	// EffectRegen restores value*stacks HP at end of round.
	EffectRegen
	// EffectPoison deals value*stacks HP at end of round, bypassing armor.
	EffectPoison
	// EffectBlight reduces healing received by value*stacks (fraction).
	EffectBlight
)

var effectNames = map[EffectKind]string{
	EffectStun:       "stun",
	EffectRoot:       "root",
	EffectWeaken:     "weaken",
	EffectVulnerable: "vulnerable",
	EffectRegen:      "regen",
	EffectPoison:     "poison",
	EffectBlight:     "blight",
}

// String returns the canonical lowercase name of the kind.
func (k EffectKind) String() string {
	if n, ok := effectNames[k]; ok {
		return n
	}
	return "unknown"
}

// ParseEffectKind maps a definition-file string to its EffectKind.
//
// Postcondition: returns an error for any name outside the closed set.
func ParseEffectKind(name string) (EffectKind, error) {
	for k, n := range effectNames {
		if n == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("stats: unknown effect kind %q", name)
}

// maxStacks caps stacking for every effect kind.
const maxStacks = 5

// Effect is one application of a status effect.
type Effect struct {
	Kind EffectKind
	// Value is the per-stack magnitude; its unit depends on Kind (fraction
	// for modifiers, flat HP for regen/poison, ignored for stun/root).
	Value float64
	// Duration is rounds remaining; effects tick down at end of round.
	Duration int
	// Stacks applied by this application; 0 is treated as 1.
	Stacks int
}

type activeEffect struct {
	kind     EffectKind
	value    float64
	stacks   int
	duration int
}

// EffectSet tracks all effects on one entity. Not safe for concurrent
// use; the round loop serialises access.
type EffectSet struct {
	effects map[EffectKind]*activeEffect
}

// NewEffectSet returns an empty set.
func NewEffectSet() *EffectSet {
	return &EffectSet{effects: make(map[EffectKind]*activeEffect)}
}

// Apply adds an effect, stacking onto any existing application of the
// same kind (stacks capped, duration extended to the maximum, per-stack
// value overwritten by the latest application).
//
// Postcondition: Has(e.Kind) is true.
func (s *EffectSet) Apply(e Effect) {
	stacks := e.Stacks
	if stacks <= 0 {
		stacks = 1
	}
	if cur, ok := s.effects[e.Kind]; ok {
		cur.stacks += stacks
		if cur.stacks > maxStacks {
			cur.stacks = maxStacks
		}
		if e.Duration > cur.duration {
			cur.duration = e.Duration
		}
		cur.value = e.Value
		return
	}
	if stacks > maxStacks {
		stacks = maxStacks
	}
	s.effects[e.Kind] = &activeEffect{kind: e.Kind, value: e.Value, stacks: stacks, duration: e.Duration}
}

// Has reports whether kind is active.
func (s *EffectSet) Has(kind EffectKind) bool {
	_, ok := s.effects[kind]
	return ok
}

// Stacks returns the stack count for kind, 0 when absent.
func (s *EffectSet) Stacks(kind EffectKind) int {
	if e, ok := s.effects[kind]; ok {
		return e.stacks
	}
	return 0
}

// Aggregate returns value*stacks for kind, 0 when absent.
func (s *EffectSet) Aggregate(kind EffectKind) float64 {
	if e, ok := s.effects[kind]; ok {
		return e.value * float64(e.stacks)
	}
	return 0
}

// tick decrements every effect's duration and removes the expired ones,
// returning the kinds that expired in enum order (map iteration would make
// round results nondeterministic). Negative durations never expire.
func (s *EffectSet) tick() []EffectKind {
	var expired []EffectKind
	for kind, e := range s.effects {
		if e.duration < 0 {
			continue
		}
		e.duration--
		if e.duration <= 0 {
			expired = append(expired, kind)
			delete(s.effects, kind)
		}
	}
	sort.Slice(expired, func(i, j int) bool { return expired[i] < expired[j] })
	return expired
}
