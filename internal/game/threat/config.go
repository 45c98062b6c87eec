// Package threat implements the decaying per-target threat table a monster
// uses to choose which opposing entity to act against. The table is a pure
// accumulate/decay/select service: the round loop feeds it combat events,
// ticks it once per round, and asks it for a target.
package threat

// Config is the immutable per-monster threat tuning, loaded once from the
// monster definition and never mutated afterward.
type Config struct {
	// Enabled gates the whole table; a disabled table accumulates nothing
	// and always reports fallback selections.
	Enabled bool `yaml:"enabled"`
	// DecayRate is the per-round fraction removed from every score,
	// e.g. 0.1 keeps 90% of each entry per round. Valid range [0, 1).
	DecayRate float64 `yaml:"decay_rate"`
	// ArmorMultiplier scales the armor component of an event:
	// armor * damage_to_monster * ArmorMultiplier.
	ArmorMultiplier float64 `yaml:"armor_multiplier"`
	// DamageMultiplier scales total damage dealt by the candidate.
	DamageMultiplier float64 `yaml:"damage_multiplier"`
	// HealingMultiplier scales healing the candidate performed.
	HealingMultiplier float64 `yaml:"healing_multiplier"`
	// AvoidLastTargetRounds excludes a candidate targeted within that many
	// rounds, unless the exclusion would leave no candidates. Zero disables
	// anti-repetition.
	AvoidLastTargetRounds int `yaml:"avoid_last_target_rounds"`
	// FallbackToLowestHP picks the lowest-HP candidate when no candidate
	// has recorded threat.
	FallbackToLowestHP bool `yaml:"fallback_to_lowest_hp"`
	// EnableTiebreaker breaks equal scores by candidate id instead of
	// candidate order.
	EnableTiebreaker bool `yaml:"enable_tiebreaker"`
	// MinThreshold is the score at or below which an entry is dropped and
	// reads as zero.
	MinThreshold float64 `yaml:"min_threshold"`
	// HistoryLimit bounds the per-target contributing-event history.
	HistoryLimit int `yaml:"history_limit"`
}

// DefaultConfig returns the tuning used when a monster definition omits
// the threat block.
func DefaultConfig() Config {
	return Config{
		Enabled:               true,
		DecayRate:             0.1,
		ArmorMultiplier:       0.5,
		DamageMultiplier:      1.0,
		HealingMultiplier:     1.25,
		AvoidLastTargetRounds: 0,
		FallbackToLowestHP:    true,
		EnableTiebreaker:      true,
		MinThreshold:          0.5,
		HistoryLimit:          10,
	}
}

// sanitized clamps operator-supplied values into working ranges rather
// than failing a live encounter.
func (c Config) sanitized() Config {
	if c.DecayRate < 0 {
		c.DecayRate = 0
	}
	if c.DecayRate >= 1 {
		c.DecayRate = 0.99
	}
	if c.AvoidLastTargetRounds < 0 {
		c.AvoidLastTargetRounds = 0
	}
	if c.MinThreshold < 0 {
		c.MinThreshold = 0
	}
	if c.HistoryLimit <= 0 {
		c.HistoryLimit = DefaultConfig().HistoryLimit
	}
	return c
}
