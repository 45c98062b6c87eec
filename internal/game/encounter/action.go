package encounter

import "github.com/cory-johannsen/skirmish/internal/game/hex"

// ActionType identifies a submitted or resolved action. The zero value is
// ActionWait.
type ActionType int

const (
	ActionWait ActionType = iota
	ActionMove
	ActionAttack
	ActionAbility
)

// String returns the human-readable name of the type.
func (t ActionType) String() string {
	switch t {
	case ActionWait:
		return "wait"
	case ActionMove:
		return "move"
	case ActionAttack:
		return "attack"
	case ActionAbility:
		return "ability"
	default:
		return "unknown"
	}
}

// Action is one player-submitted intent for the current round. Only the
// fields of the active variant matter: Destination for move, TargetID for
// attack, TargetID and AbilityID for ability.
type Action struct {
	ActorID     string
	Type        ActionType
	TargetID    string
	Destination hex.Hex
	AbilityID   string
}

// SubmitResult reports whether a submitted action was buffered, and why
// not when it wasn't.
type SubmitResult struct {
	Accepted bool
	Reason   string
}

func rejected(reason string) SubmitResult { return SubmitResult{Reason: reason} }
