package threat

import (
	"fmt"
	"sort"
)

// Event is one observed combat contribution attributed to a candidate.
type Event struct {
	// TargetID is the candidate the contribution is attributed to.
	TargetID string
	// DamageToMonster is the damage this candidate dealt to the owning
	// monster this event.
	DamageToMonster float64
	// TotalDamageDealt is the candidate's damage output this event,
	// regardless of victim.
	TotalDamageDealt float64
	// HealingDone is healing the candidate performed on its side.
	HealingDone float64
	// Armor is the candidate's armor value at event time.
	Armor float64
}

// delta computes the raw threat contribution of ev under cfg:
//
//	armor*damageToMonster*armorMult + totalDamage*damageMult + healing*healingMult
func (ev Event) delta(cfg Config) float64 {
	return ev.Armor*ev.DamageToMonster*cfg.ArmorMultiplier +
		ev.TotalDamageDealt*cfg.DamageMultiplier +
		ev.HealingDone*cfg.HealingMultiplier
}

// HistoryEntry is one recorded contribution in a target's bounded history.
type HistoryEntry struct {
	Round int
	Delta float64
}

// Entry is the accumulated threat state for one candidate.
type Entry struct {
	TargetID         string
	Score            float64
	LastUpdatedRound int
	History          []HistoryEntry
}

// Candidate is the identity/HP view of a potential target passed into
// SelectTarget. The table knows nothing about the grid or entity types.
type Candidate struct {
	ID    string
	HP    int
	Alive bool
}

// Selection is the outcome of one SelectTarget call.
type Selection struct {
	// TargetID is empty when no target could be chosen.
	TargetID   string
	Reason     string
	Confidence float64
}

// Table accumulates decaying threat for one AI-controlled monster. A Table
// is owned by exactly one monster brain and is not safe for concurrent
// use; the round loop serialises all access.
type Table struct {
	cfg          Config
	entries      map[string]*Entry
	lastTargeted map[string]int // candidate id -> round it was last selected
	round        int
}

// NewTable creates an empty table with the given tuning.
func NewTable(cfg Config) *Table {
	return &Table{
		cfg:          cfg.sanitized(),
		entries:      make(map[string]*Entry),
		lastTargeted: make(map[string]int),
	}
}

// Config returns the table's tuning.
func (t *Table) Config() Config { return t.cfg }

// Round returns the internal round counter used for decay bookkeeping and
// anti-repetition.
func (t *Table) Round() int { return t.round }

// AddThreat applies one event to the table, creating the target's entry on
// first contact. No-op when the table is disabled.
//
// Postcondition: Score(ev.TargetID) increases by exactly the documented
// formula's raw delta (which may be negative for healing-debuff tunings).
func (t *Table) AddThreat(ev Event) {
	if !t.cfg.Enabled || ev.TargetID == "" {
		return
	}
	raw := ev.delta(t.cfg)
	e, ok := t.entries[ev.TargetID]
	if !ok {
		e = &Entry{TargetID: ev.TargetID}
		t.entries[ev.TargetID] = e
	}
	e.Score += raw
	e.LastUpdatedRound = t.round
	e.History = append(e.History, HistoryEntry{Round: t.round, Delta: raw})
	if len(e.History) > t.cfg.HistoryLimit {
		e.History = e.History[len(e.History)-t.cfg.HistoryLimit:]
	}
}

// Score returns the accumulated threat for id; absent entries read as 0.
func (t *Table) Score(id string) float64 {
	if e, ok := t.entries[id]; ok {
		return e.Score
	}
	return 0
}

// ProcessRound applies decay to every entry, drops entries at or below the
// minimum threshold, and advances the internal round counter.
//
// Postcondition: every surviving non-zero score is strictly smaller than
// before (for DecayRate > 0); Round() is incremented by 1.
func (t *Table) ProcessRound() {
	for id, e := range t.entries {
		e.Score *= 1 - t.cfg.DecayRate
		if e.Score <= t.cfg.MinThreshold {
			delete(t.entries, id)
		}
	}
	t.round++
}

// SelectTarget chooses among the living candidates:
//
//  1. candidates targeted within the last AvoidLastTargetRounds rounds are
//     excluded, unless that would leave none;
//  2. the highest accumulated score wins;
//  3. with no recorded threat anywhere and FallbackToLowestHP set, the
//     lowest-HP candidate wins;
//  4. score ties are broken by candidate id when EnableTiebreaker is set,
//     by candidate order otherwise.
//
// The chosen target is recorded for the anti-repetition rule. An empty
// candidate list yields an empty TargetID with a reason.
func (t *Table) SelectTarget(candidates []Candidate) Selection {
	living := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Alive {
			living = append(living, c)
		}
	}
	if len(living) == 0 {
		return Selection{Reason: "no living candidates", Confidence: 0}
	}

	pool := t.excludeRecent(living)

	// Step 2/4: highest score wins, deterministic tiebreak.
	var best *Candidate
	bestScore := 0.0
	tied := false
	for i := range pool {
		score := t.Score(pool[i].ID)
		switch {
		case best == nil || score > bestScore:
			best = &pool[i]
			bestScore = score
			tied = false
		case score == bestScore:
			tied = true
			if t.cfg.EnableTiebreaker && pool[i].ID < best.ID {
				best = &pool[i]
			}
		}
	}

	if bestScore > 0 {
		t.trackTarget(best.ID)
		reason := fmt.Sprintf("highest threat (%.1f)", bestScore)
		confidence := 0.9
		if tied {
			reason += ", tie broken by id"
			confidence = 0.75
		}
		return Selection{TargetID: best.ID, Reason: reason, Confidence: confidence}
	}

	// Step 3: nobody has threat on record.
	if t.cfg.FallbackToLowestHP {
		weakest := pool[0]
		for _, c := range pool[1:] {
			if c.HP < weakest.HP || (c.HP == weakest.HP && t.cfg.EnableTiebreaker && c.ID < weakest.ID) {
				weakest = c
			}
		}
		t.trackTarget(weakest.ID)
		return Selection{
			TargetID:   weakest.ID,
			Reason:     fmt.Sprintf("no threat recorded, lowest hp (%d)", weakest.HP),
			Confidence: 0.5,
		}
	}

	t.trackTarget(pool[0].ID)
	return Selection{TargetID: pool[0].ID, Reason: "no threat recorded, first candidate", Confidence: 0.25}
}

// excludeRecent drops candidates selected within the anti-repetition
// window, keeping the original pool when everything would be excluded.
func (t *Table) excludeRecent(living []Candidate) []Candidate {
	if t.cfg.AvoidLastTargetRounds <= 0 {
		return living
	}
	pool := make([]Candidate, 0, len(living))
	for _, c := range living {
		if last, ok := t.lastTargeted[c.ID]; ok && t.round-last <= t.cfg.AvoidLastTargetRounds {
			continue
		}
		pool = append(pool, c)
	}
	if len(pool) == 0 {
		return living
	}
	return pool
}

// trackTarget records id as targeted this round so the anti-repetition
// rule can see it on the next selection.
func (t *Table) trackTarget(id string) {
	t.lastTargeted[id] = t.round
}

// GetTopThreats returns up to n entries sorted by descending score, ties
// by id. Returned entries are copies; mutating them does not affect the
// table.
func (t *Table) GetTopThreats(n int) []Entry {
	if n <= 0 {
		return nil
	}
	out := make([]Entry, 0, len(t.entries))
	for _, e := range t.entries {
		cp := *e
		cp.History = append([]HistoryEntry(nil), e.History...)
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].TargetID < out[j].TargetID
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// GetThreatHistory returns a copy of the bounded contribution history for
// id; nil when no entry exists.
func (t *Table) GetThreatHistory(id string) []HistoryEntry {
	e, ok := t.entries[id]
	if !ok {
		return nil
	}
	return append([]HistoryEntry(nil), e.History...)
}

// ResetForEncounter clears all entries, targeting history, and the round
// counter. Call at encounter boundaries only, never mid-encounter.
func (t *Table) ResetForEncounter() {
	t.entries = make(map[string]*Entry)
	t.lastTargeted = make(map[string]int)
	t.round = 0
}
