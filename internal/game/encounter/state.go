package encounter

import "github.com/cory-johannsen/skirmish/internal/game/hex"

// Phase is the lifecycle state of an encounter.
//
// Transitions: setup -> playing <-> paused; any non-ended phase -> ended.
// Ended is terminal.
type Phase int

const (
	PhaseSetup Phase = iota
	PhasePlaying
	PhasePaused
	PhaseEnded
)

// String returns the phase name used in logs and state snapshots.
func (p Phase) String() string {
	switch p {
	case PhaseSetup:
		return "setup"
	case PhasePlaying:
		return "playing"
	case PhasePaused:
		return "paused"
	case PhaseEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// Winner identifies the outcome of an ended encounter.
type Winner int

const (
	WinnerNone Winner = iota
	WinnerPlayers
	WinnerMonsters
	WinnerDraw
)

// String returns "players", "monsters", "draw", or "none".
func (w Winner) String() string {
	switch w {
	case WinnerPlayers:
		return "players"
	case WinnerMonsters:
		return "monsters"
	case WinnerDraw:
		return "draw"
	default:
		return "none"
	}
}

// EntitySnapshot is a defensive copy of one entity's observable state.
// Mutating a snapshot never affects the live encounter.
type EntitySnapshot struct {
	ID          string
	Name        string
	Side        Side
	Pos         hex.Hex
	HP          int
	MaxHP       int
	Armor       int
	MoveRange   int
	AttackRange int
	Alive       bool
}

// StateSnapshot is a defensive copy of the encounter's aggregate state.
type StateSnapshot struct {
	Phase        Phase
	Round        int
	Winner       Winner
	EndReason    string
	PlayerCount  int // living players
	MonsterCount int // living monsters
}
