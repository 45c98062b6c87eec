package stats

import "math"

// Block is the hit-point and mitigation state for one entity. The round
// loop mutates it exclusively through TakeDamage, Heal, and TickRound.
//
// Invariant: 0 <= CurrentHP <= MaxHP.
type Block struct {
	MaxHP     int
	CurrentHP int
	Armor     int

	effects *EffectSet
}

// NewBlock creates a full-health block.
//
// Precondition: maxHP >= 1; armor >= 0 (negative armor is clamped to 0).
func NewBlock(maxHP, armor int) *Block {
	if maxHP < 1 {
		maxHP = 1
	}
	if armor < 0 {
		armor = 0
	}
	return &Block{MaxHP: maxHP, CurrentHP: maxHP, Armor: armor, effects: NewEffectSet()}
}

// Effects returns the block's status-effect set.
func (b *Block) Effects() *EffectSet { return b.effects }

// IsDead reports whether the entity has no hit points left.
func (b *Block) IsDead() bool { return b.CurrentHP <= 0 }

// DamageResult reports the outcome of one TakeDamage call.
type DamageResult struct {
	Dealt   int  // HP actually removed
	Blocked int  // amount absorbed by armor
	Died    bool // true when the entity is dead after the call
}

// HealResult reports the outcome of one Heal call.
type HealResult struct {
	Healed int
	NewHP  int
}

// TakeDamage applies amount incoming damage from source: the amount is
// scaled by the vulnerability modifier, reduced by armor, and the
// remainder removed from CurrentHP.
//
// Precondition: amount >= 0 (negative amounts are treated as 0).
// Postcondition: CurrentHP >= 0; Died reflects the post-call state.
func (b *Block) TakeDamage(amount int, source string) DamageResult {
	_ = source // attribution is the caller's concern; kept for the contract
	if b.IsDead() {
		return DamageResult{Died: true}
	}
	if amount < 0 {
		amount = 0
	}
	modified := int(math.Round(float64(amount) * b.DamageTakenModifier()))
	blocked := b.Armor
	if blocked > modified {
		blocked = modified
	}
	dealt := modified - blocked
	b.CurrentHP -= dealt
	if b.CurrentHP < 0 {
		b.CurrentHP = 0
	}
	return DamageResult{Dealt: dealt, Blocked: blocked, Died: b.IsDead()}
}

// Heal restores amount HP scaled by the healing modifier, capped at MaxHP.
// Dead entities cannot be healed.
//
// Postcondition: CurrentHP <= MaxHP; dead entities are unchanged.
func (b *Block) Heal(amount int) HealResult {
	if b.IsDead() || amount <= 0 {
		return HealResult{NewHP: b.CurrentHP}
	}
	modified := int(math.Round(float64(amount) * b.HealingModifier()))
	healed := modified
	if b.CurrentHP+healed > b.MaxHP {
		healed = b.MaxHP - b.CurrentHP
	}
	b.CurrentHP += healed
	return HealResult{Healed: healed, NewHP: b.CurrentHP}
}

// DamageModifier returns the outgoing-damage multiplier, reduced by
// weaken stacks and floored at 0.
func (b *Block) DamageModifier() float64 {
	m := 1 - b.effects.Aggregate(EffectWeaken)
	if m < 0 {
		m = 0
	}
	return m
}

// DamageTakenModifier returns the incoming-damage multiplier, raised by
// vulnerability stacks.
func (b *Block) DamageTakenModifier() float64 {
	return 1 + b.effects.Aggregate(EffectVulnerable)
}

// HealingModifier returns the healing-received multiplier, reduced by
// blight stacks and floored at 0.
func (b *Block) HealingModifier() float64 {
	m := 1 - b.effects.Aggregate(EffectBlight)
	if m < 0 {
		m = 0
	}
	return m
}

// CanAct reports whether the entity may take any action this round.
func (b *Block) CanAct() bool {
	return !b.IsDead() && !b.effects.Has(EffectStun)
}

// CanMove reports whether the entity may change position this round.
func (b *Block) CanMove() bool {
	return b.CanAct() && !b.effects.Has(EffectRoot)
}

// EffectTick is one end-of-round effect outcome.
type EffectTick struct {
	Kind    EffectKind
	Amount  int  // HP delta magnitude for regen/poison; 0 otherwise
	Expired bool // the effect ended this round
}

// TickRound applies end-of-round effect consequences — poison damage
// (bypassing armor), regen healing — then decrements durations and drops
// expired effects.
//
// Postcondition: CurrentHP stays within [0, MaxHP]; one EffectTick is
// returned per applied consequence and per expiry.
func (b *Block) TickRound() []EffectTick {
	var out []EffectTick

	if !b.IsDead() {
		if poison := int(math.Round(b.effects.Aggregate(EffectPoison))); poison > 0 {
			b.CurrentHP -= poison
			if b.CurrentHP < 0 {
				b.CurrentHP = 0
			}
			out = append(out, EffectTick{Kind: EffectPoison, Amount: poison})
		}
		if regen := int(math.Round(b.effects.Aggregate(EffectRegen))); regen > 0 && !b.IsDead() {
			healed := regen
			if b.CurrentHP+healed > b.MaxHP {
				healed = b.MaxHP - b.CurrentHP
			}
			b.CurrentHP += healed
			out = append(out, EffectTick{Kind: EffectRegen, Amount: healed})
		}
	}

	for _, kind := range b.effects.tick() {
		out = append(out, EffectTick{Kind: kind, Expired: true})
	}
	return out
}
