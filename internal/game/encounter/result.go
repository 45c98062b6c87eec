package encounter

import "github.com/cory-johannsen/skirmish/internal/game/stats"

// ActionOutcome records one resolved action within a round, in resolution
// order.
type ActionOutcome struct {
	ActorID   string
	ActorName string
	Type      ActionType
	TargetID  string
	AbilityID string
	// Damage is HP removed from the target; Blocked is the armor-absorbed
	// portion; Healed is HP restored.
	Damage  int
	Blocked int
	Healed  int
	// TargetDied is true when this action dropped the target to 0 HP.
	TargetDied bool
	// Success is false when the action was rejected at resolution time
	// (illegal move, out of range, stunned actor); Narrative says why.
	Success   bool
	Narrative string
}

// EffectOutcome records one end-of-round status effect consequence.
type EffectOutcome struct {
	EntityID   string
	EntityName string
	Tick       stats.EffectTick
	// Died is true when the tick (poison) killed the entity.
	Died bool
}

// RoundResult is everything that happened in one ProcessRound call.
type RoundResult struct {
	Round   int
	Actions []ActionOutcome
	Effects []EffectOutcome
	// GameEnded is true when this round's resolution ended the encounter;
	// Winner and Reason are then meaningful.
	GameEnded bool
	Winner    Winner
	Reason    string
}
