package encounter

import (
	"fmt"
	"math"
	"sync"

	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/ai"
	"github.com/cory-johannsen/skirmish/internal/game/content"
	"github.com/cory-johannsen/skirmish/internal/game/dice"
	"github.com/cory-johannsen/skirmish/internal/game/hex"
	"github.com/cory-johannsen/skirmish/internal/game/stats"
	"github.com/cory-johannsen/skirmish/internal/game/threat"
)

// Options tunes one encounter loop.
type Options struct {
	// MaxRounds ends the encounter in a draw once this many rounds have
	// resolved. Zero or negative means no round limit.
	MaxRounds int
	PathOpts  hex.PathOptions
}

// Loop drives one encounter: it buffers player actions, asks monster
// brains for decisions, resolves everything in a fixed order, ticks status
// effects and threat decay, and evaluates win conditions.
//
// Invariant: within a round, players resolve before monsters, each side in
// construction order, so a fixed seed replays an identical encounter.
// All methods are safe for concurrent use.
type Loop struct {
	mu sync.RWMutex

	logger   *zap.Logger
	registry *content.Registry
	src      dice.Source
	opts     Options

	players  []*Entity
	monsters []*Entity
	terrain  hex.ObstacleSet
	occupied hex.ObstacleSet

	phase     Phase
	round     int
	winner    Winner
	endReason string

	submitted map[string]Action
	// cooldowns tracks player ability use by actor id; monster brains
	// track their own.
	cooldowns map[string]map[string]int
}

// NewLoop assembles an encounter in the setup phase.
//
// Precondition: logger, registry, and src must not be nil; entity
// positions must be distinct and off the terrain.
func NewLoop(logger *zap.Logger, registry *content.Registry, src dice.Source, terrain hex.ObstacleSet, players, monsters []*Entity, opts Options) (*Loop, error) {
	if logger == nil {
		panic("encounter.NewLoop: logger must not be nil")
	}
	if registry == nil {
		panic("encounter.NewLoop: registry must not be nil")
	}
	if src == nil {
		panic("encounter.NewLoop: src must not be nil")
	}
	if terrain == nil {
		terrain = hex.NewObstacleSet()
	}
	l := &Loop{
		logger:    logger,
		registry:  registry,
		src:       src,
		opts:      opts,
		players:   players,
		monsters:  monsters,
		terrain:   terrain,
		occupied:  hex.NewObstacleSet(),
		phase:     PhaseSetup,
		round:     1,
		submitted: make(map[string]Action),
		cooldowns: make(map[string]map[string]int),
	}
	seen := hex.NewObstacleSet()
	for _, e := range append(append([]*Entity(nil), players...), monsters...) {
		if e == nil || e.Block == nil {
			return nil, fmt.Errorf("encounter: nil entity or stat block")
		}
		if terrain.Contains(e.Pos) {
			return nil, fmt.Errorf("encounter: %s starts on terrain at %s", e.Name, e.Pos)
		}
		if seen.Contains(e.Pos) {
			return nil, fmt.Errorf("encounter: duplicate starting position %s", e.Pos)
		}
		seen.Add(e.Pos)
		l.occupied.Add(e.Pos)
	}

	// An encounter that starts with an empty side is already decided.
	switch {
	case countAlive(players) == 0 && countAlive(monsters) == 0:
		l.end(WinnerDraw, "no combatants")
	case countAlive(monsters) == 0:
		l.end(WinnerPlayers, "no monsters to fight")
	case countAlive(players) == 0:
		l.end(WinnerMonsters, "no players to fight")
	}
	return l, nil
}

// StartGame moves the encounter from setup to playing. If one side is
// already empty the encounter ends immediately instead.
func (l *Loop) StartGame() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.phase != PhaseSetup {
		return
	}
	l.phase = PhasePlaying
	l.logger.Info("encounter started",
		zap.Int("players", len(l.players)),
		zap.Int("monsters", len(l.monsters)),
		zap.String("phase", l.phase.String()))
}

// Pause suspends a playing encounter; ProcessRound and submissions become
// no-ops until Resume.
func (l *Loop) Pause() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.phase == PhasePlaying {
		l.phase = PhasePaused
	}
}

// Resume returns a paused encounter to play.
func (l *Loop) Resume() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.phase == PhasePaused {
		l.phase = PhasePlaying
	}
}

// Stop force-ends the encounter with no winner. Ended is terminal.
func (l *Loop) Stop(reason string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.phase == PhaseEnded {
		return
	}
	l.phase = PhaseEnded
	l.winner = WinnerNone
	l.endReason = reason
	l.logger.Info("encounter stopped", zap.String("reason", reason))
}

// SubmitPlayerAction buffers one action for the current round. The first
// accepted submission per actor wins; later ones are rejected until the
// round resolves or the buffered action is cleared.
func (l *Loop) SubmitPlayerAction(a Action) SubmitResult {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.phase != PhasePlaying {
		return rejected(fmt.Sprintf("encounter is %s", l.phase))
	}
	actor := l.entityByID(a.ActorID)
	if actor == nil {
		return rejected("unknown actor")
	}
	if actor.Side != SidePlayers {
		return rejected("only players submit actions")
	}
	if !actor.IsAlive() {
		return rejected("actor is dead")
	}
	if _, dup := l.submitted[a.ActorID]; dup {
		return rejected("action already submitted this round")
	}

	switch a.Type {
	case ActionWait:
	case ActionMove:
		if a.Destination == actor.Pos {
			return rejected("already at destination")
		}
	case ActionAttack:
		if a.TargetID == "" {
			return rejected("attack requires a target")
		}
	case ActionAbility:
		if a.AbilityID == "" {
			return rejected("ability action requires an ability id")
		}
		if a.TargetID == "" {
			return rejected("ability action requires a target")
		}
		if !actor.HasAbility(a.AbilityID) {
			return rejected(fmt.Sprintf("%s does not know %s", actor.Name, a.AbilityID))
		}
		if _, ok := l.registry.Ability(a.AbilityID); !ok {
			return rejected(fmt.Sprintf("unknown ability %s", a.AbilityID))
		}
	default:
		return rejected("unknown action type")
	}

	l.submitted[a.ActorID] = a
	return SubmitResult{Accepted: true}
}

// ClearSubmittedAction drops an actor's buffered action so a replacement
// can be submitted before the round resolves.
func (l *Loop) ClearSubmittedAction(actorID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.submitted[actorID]; !ok {
		return false
	}
	delete(l.submitted, actorID)
	return true
}

// ProcessRound resolves one full round: player actions in construction
// order, then monster decisions in construction order, then status effect
// ticks, threat decay, and win-condition evaluation. A no-op unless the
// encounter is playing.
func (l *Loop) ProcessRound() RoundResult {
	l.mu.Lock()
	defer l.mu.Unlock()

	res := RoundResult{Round: l.round}
	if l.phase != PhasePlaying {
		return res
	}

	for _, p := range l.players {
		if !p.IsAlive() {
			continue
		}
		act := l.submitted[p.ID] // zero value is a wait
		act.ActorID = p.ID
		res.Actions = append(res.Actions, l.resolveAction(p, act))
	}

	for _, m := range l.monsters {
		if !m.IsAlive() || m.Brain == nil {
			continue
		}
		d := m.Brain.Decide(l.snapshotFor(m))
		l.logger.Debug("monster decision",
			zap.Int("round", l.round),
			zap.String("monster", m.Name),
			zap.String("decision", d.String()))
		res.Actions = append(res.Actions, l.resolveAction(m, decisionToAction(m.ID, d)))
	}

	res.Effects = l.tickEffects()
	for _, m := range l.monsters {
		if m.Brain != nil {
			m.Brain.Threat().ProcessRound()
		}
	}
	l.rebuildOccupied()

	l.evaluateEnd()
	if l.phase == PhaseEnded {
		res.GameEnded = true
		res.Winner = l.winner
		res.Reason = l.endReason
	} else {
		l.round++
	}
	l.submitted = make(map[string]Action)

	l.logger.Info("round resolved",
		zap.Int("round", res.Round),
		zap.Int("actions", len(res.Actions)),
		zap.Bool("ended", res.GameEnded))
	return res
}

// decisionToAction maps an AI decision onto the shared action resolver.
func decisionToAction(actorID string, d ai.Decision) Action {
	a := Action{ActorID: actorID}
	switch d.Kind {
	case ai.DecisionMove:
		a.Type = ActionMove
		a.Destination = d.Destination
	case ai.DecisionAttack:
		a.Type = ActionAttack
		a.TargetID = d.TargetID
	case ai.DecisionAbility:
		a.Type = ActionAbility
		a.TargetID = d.TargetID
		a.AbilityID = d.AbilityID
	default:
		a.Type = ActionWait
	}
	return a
}

func (l *Loop) resolveAction(actor *Entity, act Action) ActionOutcome {
	out := ActionOutcome{
		ActorID:   actor.ID,
		ActorName: actor.Name,
		Type:      act.Type,
		TargetID:  act.TargetID,
		AbilityID: act.AbilityID,
	}
	if act.Type != ActionWait && !actor.Block.CanAct() {
		out.Narrative = fmt.Sprintf("%s is stunned and cannot act", actor.Name)
		return out
	}

	switch act.Type {
	case ActionWait:
		out.Success = true
		out.Narrative = fmt.Sprintf("%s waits", actor.Name)
	case ActionMove:
		l.resolveMove(actor, act, &out)
	case ActionAttack:
		l.resolveAttack(actor, act, &out)
	case ActionAbility:
		l.resolveAbility(actor, act, &out)
	default:
		out.Narrative = "unknown action type"
	}
	return out
}

func (l *Loop) resolveMove(actor *Entity, act Action, out *ActionOutcome) {
	if !actor.Block.CanMove() {
		out.Narrative = fmt.Sprintf("%s is rooted and cannot move", actor.Name)
		return
	}
	if act.Destination == actor.Pos {
		out.Success = true
		out.Narrative = fmt.Sprintf("%s holds position", actor.Name)
		return
	}
	blocked := l.blockedCellsExcluding(actor)
	if blocked.Contains(act.Destination) {
		out.Narrative = fmt.Sprintf("destination %s is blocked", act.Destination)
		return
	}
	path := hex.FindPath(actor.Pos, act.Destination, blocked, l.opts.PathOpts)
	if path == nil {
		out.Narrative = fmt.Sprintf("no path to %s", act.Destination)
		return
	}
	if len(path)-1 > actor.MoveRange {
		out.Narrative = fmt.Sprintf("%s is beyond move range %d", act.Destination, actor.MoveRange)
		return
	}
	l.occupied.Remove(actor.Pos)
	actor.Pos = act.Destination
	l.occupied.Add(actor.Pos)
	out.Success = true
	out.Narrative = fmt.Sprintf("%s moves to %s", actor.Name, actor.Pos)
}

func (l *Loop) resolveAttack(actor *Entity, act Action, out *ActionOutcome) {
	target := l.entityByID(act.TargetID)
	if target == nil || !target.IsAlive() {
		out.Narrative = "target is gone"
		return
	}
	if target.Side == actor.Side {
		out.Narrative = fmt.Sprintf("%s cannot attack an ally", actor.Name)
		return
	}
	if hex.Distance(actor.Pos, target.Pos) > actor.AttackRange {
		out.Narrative = fmt.Sprintf("%s is out of range", target.Name)
		return
	}
	if !hex.LineOfSight(actor.Pos, target.Pos, l.sightBlockers()) {
		out.Narrative = fmt.Sprintf("no line of sight to %s", target.Name)
		return
	}

	roll := dice.Roll(actor.AttackDamage, l.src)
	amount := int(math.Round(float64(roll.Total()) * actor.Block.DamageModifier()))
	dr := target.Block.TakeDamage(amount, actor.ID)

	out.Success = true
	out.Damage = dr.Dealt
	out.Blocked = dr.Blocked
	out.TargetDied = dr.Died
	out.Narrative = fmt.Sprintf("%s hits %s for %d (%s)", actor.Name, target.Name, dr.Dealt, roll)
	if dr.Died {
		out.Narrative += fmt.Sprintf("; %s dies", target.Name)
		l.occupied.Remove(target.Pos)
		l.logger.Info("entity died",
			zap.Int("round", l.round),
			zap.String("entity", target.Name),
			zap.String("killer", actor.Name))
	}

	if actor.Side == SidePlayers {
		l.recordDamageThreat(actor, target.ID, dr.Dealt)
	}
}

func (l *Loop) resolveAbility(actor *Entity, act Action, out *ActionOutcome) {
	def, ok := l.registry.Ability(act.AbilityID)
	if !ok || !actor.HasAbility(act.AbilityID) {
		out.Narrative = fmt.Sprintf("%s does not know %s", actor.Name, act.AbilityID)
		return
	}
	// Monster brains enforce their own cooldowns at decision time.
	if actor.Brain == nil && l.onCooldown(actor.ID, def) {
		out.Narrative = fmt.Sprintf("%s is on cooldown", def.Name)
		return
	}
	target := l.entityByID(act.TargetID)
	if target == nil || !target.IsAlive() {
		out.Narrative = "target is gone"
		return
	}
	if def.IsHealing() && target.Side != actor.Side {
		out.Narrative = fmt.Sprintf("%s targets allies only", def.Name)
		return
	}
	if !def.IsHealing() && target.Side == actor.Side {
		out.Narrative = fmt.Sprintf("%s targets enemies only", def.Name)
		return
	}
	if !hex.IsValidAbilityTarget(actor.Pos, target.Pos, def.Range, l.sightBlockers()) {
		out.Narrative = fmt.Sprintf("%s has no valid line to %s", def.Name, target.Name)
		return
	}

	out.Success = true
	switch {
	case def.IsHealing():
		roll := dice.Roll(dice.MustParse(def.Healing), l.src)
		hr := target.Block.Heal(roll.Total())
		out.Healed = hr.Healed
		out.Narrative = fmt.Sprintf("%s heals %s for %d (%s)", actor.Name, target.Name, hr.Healed, roll)
		if actor.Side == SidePlayers {
			l.recordHealingThreat(actor, hr.Healed)
		}
	case def.Damage != "":
		roll := dice.Roll(dice.MustParse(def.Damage), l.src)
		amount := int(math.Round(float64(roll.Total()) * actor.Block.DamageModifier()))
		dr := target.Block.TakeDamage(amount, actor.ID)
		out.Damage = dr.Dealt
		out.Blocked = dr.Blocked
		out.TargetDied = dr.Died
		out.Narrative = fmt.Sprintf("%s hits %s with %s for %d (%s)", actor.Name, target.Name, def.Name, dr.Dealt, roll)
		if dr.Died {
			out.Narrative += fmt.Sprintf("; %s dies", target.Name)
			l.occupied.Remove(target.Pos)
		}
		if actor.Side == SidePlayers {
			l.recordDamageThreat(actor, target.ID, dr.Dealt)
		}
	default:
		out.Narrative = fmt.Sprintf("%s afflicts %s with %s", actor.Name, target.Name, def.Name)
	}

	if def.Effect != nil && target.IsAlive() {
		target.Block.Effects().Apply(stats.Effect{
			Kind:     def.Effect.ResolveKind(),
			Value:    def.Effect.Value,
			Duration: def.Effect.Duration,
			Stacks:   def.Effect.Stacks,
		})
	}
	if actor.Brain == nil {
		l.markUsed(actor.ID, def.ID)
	}
}

func (l *Loop) onCooldown(actorID string, def *content.AbilityDefinition) bool {
	last, used := l.cooldowns[actorID][def.ID]
	return used && l.round-last <= def.Cooldown
}

func (l *Loop) markUsed(actorID, abilityID string) {
	if l.cooldowns[actorID] == nil {
		l.cooldowns[actorID] = make(map[string]int)
	}
	l.cooldowns[actorID][abilityID] = l.round
}

// recordDamageThreat broadcasts one player damage event to every living
// monster brain; only the victim records the damage-to-me component.
func (l *Loop) recordDamageThreat(actor *Entity, victimID string, dealt int) {
	for _, m := range l.monsters {
		if !m.IsAlive() || m.Brain == nil {
			continue
		}
		ev := threat.Event{
			TargetID:         actor.ID,
			TotalDamageDealt: float64(dealt),
			Armor:            float64(actor.Block.Armor),
		}
		if m.ID == victimID {
			ev.DamageToMonster = float64(dealt)
		}
		m.Brain.Threat().AddThreat(ev)
	}
}

func (l *Loop) recordHealingThreat(actor *Entity, healed int) {
	for _, m := range l.monsters {
		if !m.IsAlive() || m.Brain == nil {
			continue
		}
		m.Brain.Threat().AddThreat(threat.Event{
			TargetID:    actor.ID,
			HealingDone: float64(healed),
			Armor:       float64(actor.Block.Armor),
		})
	}
}

// tickEffects applies end-of-round status effects to every living entity,
// players first, each side in construction order.
func (l *Loop) tickEffects() []EffectOutcome {
	var out []EffectOutcome
	for _, e := range append(append([]*Entity(nil), l.players...), l.monsters...) {
		if !e.IsAlive() {
			continue
		}
		for _, tick := range e.Block.TickRound() {
			eo := EffectOutcome{EntityID: e.ID, EntityName: e.Name, Tick: tick}
			if tick.Kind == stats.EffectPoison && !e.IsAlive() {
				eo.Died = true
				l.occupied.Remove(e.Pos)
				l.logger.Info("entity died",
					zap.Int("round", l.round),
					zap.String("entity", e.Name),
					zap.String("killer", "poison"))
			}
			out = append(out, eo)
		}
	}
	return out
}

// evaluateEnd applies the win conditions in priority order: mutual
// destruction, monsters eliminated, players eliminated, round limit.
func (l *Loop) evaluateEnd() {
	if l.phase != PhasePlaying {
		return
	}
	playersAlive := countAlive(l.players)
	monstersAlive := countAlive(l.monsters)

	switch {
	case playersAlive == 0 && monstersAlive == 0:
		l.end(WinnerDraw, "mutual destruction")
	case monstersAlive == 0:
		l.end(WinnerPlayers, "all monsters defeated")
	case playersAlive == 0:
		l.end(WinnerMonsters, "all players defeated")
	case l.opts.MaxRounds > 0 && l.round >= l.opts.MaxRounds:
		l.end(WinnerDraw, "round limit reached")
	}
}

func (l *Loop) end(w Winner, reason string) {
	l.phase = PhaseEnded
	l.winner = w
	l.endReason = reason
	l.logger.Info("encounter ended",
		zap.Int("round", l.round),
		zap.String("winner", w.String()),
		zap.String("reason", reason))
}

// snapshotFor builds the read-only world view a monster brain decides on.
func (l *Loop) snapshotFor(m *Entity) *ai.Snapshot {
	snap := &ai.Snapshot{
		Round:     l.round,
		Self:      viewOf(m),
		Obstacles: l.terrain.Clone(),
		PathOpts:  l.opts.PathOpts,
	}
	for _, p := range l.players {
		if p.IsAlive() {
			snap.Enemies = append(snap.Enemies, viewOf(p))
			snap.Obstacles.Add(p.Pos)
		}
	}
	for _, o := range l.monsters {
		if o.ID == m.ID || !o.IsAlive() {
			continue
		}
		snap.Allies = append(snap.Allies, viewOf(o))
		snap.Obstacles.Add(o.Pos)
	}
	return snap
}

func viewOf(e *Entity) ai.EntityView {
	return ai.EntityView{
		ID:    e.ID,
		Name:  e.Name,
		Pos:   e.Pos,
		HP:    e.Block.CurrentHP,
		MaxHP: e.Block.MaxHP,
		Armor: e.Block.Armor,
		Alive: e.IsAlive(),
	}
}

// blockedCellsExcluding returns terrain plus every living entity position
// except the mover's own.
func (l *Loop) blockedCellsExcluding(actor *Entity) hex.ObstacleSet {
	blocked := l.terrain.Clone()
	for _, e := range append(append([]*Entity(nil), l.players...), l.monsters...) {
		if e.ID == actor.ID || !e.IsAlive() {
			continue
		}
		blocked.Add(e.Pos)
	}
	return blocked
}

// sightBlockers returns terrain plus all occupied cells. Line checks only
// inspect interior cells, so attacker and target being in the set is fine.
func (l *Loop) sightBlockers() hex.ObstacleSet {
	blocked := l.terrain.Clone()
	for cell := range l.occupied {
		blocked.Add(cell)
	}
	return blocked
}

func (l *Loop) rebuildOccupied() {
	l.occupied = hex.NewObstacleSet()
	for _, e := range append(append([]*Entity(nil), l.players...), l.monsters...) {
		if e.IsAlive() {
			l.occupied.Add(e.Pos)
		}
	}
}

func (l *Loop) entityByID(id string) *Entity {
	for _, p := range l.players {
		if p.ID == id {
			return p
		}
	}
	for _, m := range l.monsters {
		if m.ID == id {
			return m
		}
	}
	return nil
}

func countAlive(entities []*Entity) int {
	n := 0
	for _, e := range entities {
		if e.IsAlive() {
			n++
		}
	}
	return n
}

// GetAlivePlayers returns defensive snapshots of the living players in
// construction order.
func (l *Loop) GetAlivePlayers() []EntitySnapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return snapshotsOf(l.players)
}

// GetAliveMonsters returns defensive snapshots of the living monsters in
// construction order.
func (l *Loop) GetAliveMonsters() []EntitySnapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return snapshotsOf(l.monsters)
}

func snapshotsOf(entities []*Entity) []EntitySnapshot {
	var out []EntitySnapshot
	for _, e := range entities {
		if e.IsAlive() {
			out = append(out, snapshotOf(e))
		}
	}
	return out
}

// GetEntityByID returns a defensive snapshot of any entity, dead or alive.
func (l *Loop) GetEntityByID(id string) (EntitySnapshot, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	e := l.entityByID(id)
	if e == nil {
		return EntitySnapshot{}, false
	}
	return snapshotOf(e), true
}

func snapshotOf(e *Entity) EntitySnapshot {
	return EntitySnapshot{
		ID:          e.ID,
		Name:        e.Name,
		Side:        e.Side,
		Pos:         e.Pos,
		HP:          e.Block.CurrentHP,
		MaxHP:       e.Block.MaxHP,
		Armor:       e.Block.Armor,
		MoveRange:   e.MoveRange,
		AttackRange: e.AttackRange,
		Alive:       e.IsAlive(),
	}
}

// GetGameState returns a defensive snapshot of the aggregate state.
func (l *Loop) GetGameState() StateSnapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return StateSnapshot{
		Phase:        l.phase,
		Round:        l.round,
		Winner:       l.winner,
		EndReason:    l.endReason,
		PlayerCount:  countAlive(l.players),
		MonsterCount: countAlive(l.monsters),
	}
}
