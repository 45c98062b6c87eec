package ai

import (
	"fmt"

	"github.com/cory-johannsen/skirmish/internal/game/content"
	"github.com/cory-johannsen/skirmish/internal/game/hex"
	"github.com/cory-johannsen/skirmish/internal/game/threat"
)

// historyLimit bounds the rolling decision history kept for debugging.
const historyLimit = 20

// Brain owns one monster's targeting state and behavior policy.
//
// Invariant: def and registry must not be nil; the threat table is owned
// exclusively by this Brain.
type Brain struct {
	monsterID string
	def       *content.MonsterDefinition
	registry  *content.Registry
	table     *threat.Table
	lastUsed  map[string]int // ability id -> round of last use
	history   []Decision
}

// NewBrain constructs a Brain for one live monster instance.
//
// Precondition: def and registry must not be nil.
func NewBrain(monsterID string, def *content.MonsterDefinition, registry *content.Registry) *Brain {
	if def == nil {
		panic("ai.NewBrain: def must not be nil")
	}
	if registry == nil {
		panic("ai.NewBrain: registry must not be nil")
	}
	return &Brain{
		monsterID: monsterID,
		def:       def,
		registry:  registry,
		table:     threat.NewTable(def.ThreatConfig()),
		lastUsed:  make(map[string]int),
	}
}

// Threat exposes the brain's table so the round loop can feed it combat
// events and tick its decay.
func (b *Brain) Threat() *threat.Table { return b.table }

// History returns a copy of the bounded rolling decision history, most
// recent last.
func (b *Brain) History() []Decision {
	return append([]Decision(nil), b.history...)
}

// Decide produces this round's decision from a world snapshot.
//
// Postcondition: the returned Decision is spatially legal against the
// snapshot (in-range attacks, reachable destinations) or a wait.
func (b *Brain) Decide(snap *Snapshot) Decision {
	d := b.decide(snap)
	b.history = append(b.history, d)
	if len(b.history) > historyLimit {
		b.history = b.history[len(b.history)-historyLimit:]
	}
	return d
}

func (b *Brain) decide(snap *Snapshot) Decision {
	if len(snap.Enemies) == 0 {
		return Decision{Kind: DecisionWait, Reason: "no living enemies"}
	}

	candidates := make([]threat.Candidate, 0, len(snap.Enemies))
	for _, e := range snap.Enemies {
		candidates = append(candidates, threat.Candidate{ID: e.ID, HP: e.HP, Alive: e.Alive})
	}
	sel := b.table.SelectTarget(candidates)
	target, ok := snap.enemyByID(sel.TargetID)
	if !ok {
		return Decision{Kind: DecisionWait, Reason: "no target selected"}
	}

	rule := b.firstMatchingRule(snap, target)
	switch rule.Do {
	case content.ActPreferAbility:
		if d, ok := b.tryAbility(snap, target, sel, rule.AbilityID); ok {
			return d
		}
		return b.closeAndAttack(snap, target, sel)
	case content.ActRetreat:
		return b.retreat(snap, target, sel)
	case content.ActHold:
		return Decision{Kind: DecisionWait, Confidence: sel.Confidence, Reason: "holding position"}
	default:
		return b.closeAndAttack(snap, target, sel)
	}
}

// firstMatchingRule returns the first behavior rule whose condition holds,
// falling back to an unconditional attack rule.
func (b *Brain) firstMatchingRule(snap *Snapshot, target EntityView) content.BehaviorRule {
	for _, rule := range b.def.AI.Rules {
		if b.conditionHolds(rule.When, snap, target) {
			return rule
		}
	}
	return content.BehaviorRule{
		When: content.Condition{Kind: content.CondAlways},
		Do:   content.ActPreferAttack,
	}
}

func (b *Brain) conditionHolds(c content.Condition, snap *Snapshot, target EntityView) bool {
	switch c.Kind {
	case content.CondAlways:
		return true
	case content.CondHPBelow:
		return snap.Self.HPPercent() < c.Value
	case content.CondEnemyWithin:
		return float64(hex.Distance(snap.Self.Pos, target.Pos)) <= c.Value
	case content.CondRoundAtLeast:
		return float64(snap.Round) >= c.Value
	default:
		// Validate rejects unknown kinds at load time.
		return false
	}
}

// tryAbility returns an ability decision when the ability is off cooldown
// and has a legal target. Healing abilities aim at the most wounded
// visible ally (self included); damage abilities aim at the selected
// target.
func (b *Brain) tryAbility(snap *Snapshot, target EntityView, sel threat.Selection, abilityID string) (Decision, bool) {
	def, ok := b.registry.Ability(abilityID)
	if !ok {
		return Decision{}, false
	}
	if last, used := b.lastUsed[abilityID]; used && snap.Round-last <= def.Cooldown {
		return Decision{}, false
	}

	victimID := target.ID
	victimPos := target.Pos
	if def.IsHealing() {
		wounded, found := b.mostWoundedAlly(snap, def.Range)
		if !found {
			return Decision{}, false
		}
		victimID = wounded.ID
		victimPos = wounded.Pos
	}

	if !hex.IsValidAbilityTarget(snap.Self.Pos, victimPos, def.Range, snap.Obstacles) {
		return Decision{}, false
	}

	b.lastUsed[abilityID] = snap.Round
	return Decision{
		Kind:       DecisionAbility,
		TargetID:   victimID,
		AbilityID:  abilityID,
		Priority:   3,
		Confidence: sel.Confidence,
		Reason:     fmt.Sprintf("%s: %s", def.Name, sel.Reason),
	}, true
}

// mostWoundedAlly returns the lowest-HP-percent damaged ally (or self)
// within rng, ties broken by id for determinism.
func (b *Brain) mostWoundedAlly(snap *Snapshot, rng int) (EntityView, bool) {
	pool := append([]EntityView{snap.Self}, snap.Allies...)
	var best EntityView
	found := false
	for _, a := range pool {
		if !a.Alive && a.ID != snap.Self.ID {
			continue
		}
		if a.HP >= a.MaxHP {
			continue
		}
		if hex.Distance(snap.Self.Pos, a.Pos) > rng {
			continue
		}
		if !found || a.HPPercent() < best.HPPercent() ||
			(a.HPPercent() == best.HPPercent() && a.ID < best.ID) {
			best = a
			found = true
		}
	}
	return best, found
}

// closeAndAttack attacks when the target is in range with line of sight,
// otherwise advances along the best path toward it.
func (b *Brain) closeAndAttack(snap *Snapshot, target EntityView, sel threat.Selection) Decision {
	dist := hex.Distance(snap.Self.Pos, target.Pos)
	if dist <= b.def.AttackRange && hex.LineOfSight(snap.Self.Pos, target.Pos, snap.Obstacles) {
		return Decision{
			Kind:       DecisionAttack,
			TargetID:   target.ID,
			Priority:   2,
			Confidence: sel.Confidence,
			Reason:     sel.Reason,
		}
	}

	dest, ok := b.stepToward(snap, target)
	if !ok {
		return Decision{Kind: DecisionWait, Confidence: sel.Confidence, Reason: "no path to target"}
	}
	return Decision{
		Kind:        DecisionMove,
		Destination: dest,
		Priority:    1,
		Confidence:  sel.Confidence,
		Reason:      fmt.Sprintf("closing on %s", target.ID),
	}
}

// stepToward finds the farthest cell along the path to the target that is
// within this monster's move range. The target's own cell is passable for
// pathing but never a legal destination.
func (b *Brain) stepToward(snap *Snapshot, target EntityView) (hex.Hex, bool) {
	obstacles := snap.Obstacles.Clone()
	obstacles.Remove(target.Pos)
	path := hex.FindPath(snap.Self.Pos, target.Pos, obstacles, snap.PathOpts)
	if len(path) < 2 {
		return hex.Hex{}, false
	}
	idx := b.def.MoveRange
	if idx > len(path)-1 {
		idx = len(path) - 1
	}
	// Back off the target cell and anything occupied.
	for idx > 0 && (path[idx] == target.Pos || snap.Obstacles.Contains(path[idx])) {
		idx--
	}
	if idx == 0 {
		return hex.Hex{}, false
	}
	return path[idx], true
}

// retreat moves to the best defensive cell away from the target; when no
// unoccupied defensive cell exists the monster stands and fights.
func (b *Brain) retreat(snap *Snapshot, target EntityView, sel threat.Selection) Decision {
	split, err := hex.TacticalPositions(snap.Self.Pos, target.Pos, b.def.MoveRange)
	if err != nil {
		return Decision{Kind: DecisionWait, Reason: "invalid move range"}
	}
	for _, cell := range split.Defensive {
		if cell == snap.Self.Pos {
			return Decision{Kind: DecisionWait, Confidence: sel.Confidence, Reason: "already at safe distance"}
		}
		if !snap.Obstacles.Contains(cell) {
			return Decision{
				Kind:        DecisionMove,
				Destination: cell,
				Priority:    1,
				Confidence:  sel.Confidence,
				Reason:      fmt.Sprintf("retreating from %s", target.ID),
			}
		}
	}
	return b.closeAndAttack(snap, target, sel)
}
