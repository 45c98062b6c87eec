package ai_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/skirmish/internal/game/ai"
	"github.com/cory-johannsen/skirmish/internal/game/content"
	"github.com/cory-johannsen/skirmish/internal/game/hex"
	"github.com/cory-johannsen/skirmish/internal/game/threat"
)

func testRegistry(t *testing.T) *content.Registry {
	t.Helper()
	root := t.TempDir()
	monstersDir := filepath.Join(root, "monsters")
	abilitiesDir := filepath.Join(root, "abilities")
	require.NoError(t, os.MkdirAll(monstersDir, 0o755))
	require.NoError(t, os.MkdirAll(abilitiesDir, 0o755))

	spit := `id: spit
name: Acid Spit
range: 4
damage: 2d4
cooldown: 1
`
	mend := `id: mend
name: Dark Mending
range: 3
healing: 1d6+2
`
	require.NoError(t, os.WriteFile(filepath.Join(abilitiesDir, "spit.yaml"), []byte(spit), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(abilitiesDir, "mend.yaml"), []byte(mend), 0o644))

	reg := content.NewRegistry(zaptest.NewLogger(t))
	require.NoError(t, reg.LoadFromDirs(monstersDir, abilitiesDir))
	return reg
}

func bruiserDef() *content.MonsterDefinition {
	return &content.MonsterDefinition{
		ID: "bruiser", Name: "Bruiser", Level: 1, MaxHP: 30,
		MoveRange: 3, AttackRange: 1, AttackDamage: "1d6+2",
	}
}

func snapshot(self ai.EntityView, enemies ...ai.EntityView) *ai.Snapshot {
	obstacles := hex.NewObstacleSet()
	for _, e := range enemies {
		obstacles.Add(e.Pos)
	}
	return &ai.Snapshot{
		Round:     1,
		Self:      self,
		Enemies:   enemies,
		Obstacles: obstacles,
		PathOpts:  hex.DefaultPathOptions(),
	}
}

func TestDecide_NoEnemiesWaits(t *testing.T) {
	b := ai.NewBrain("m1", bruiserDef(), testRegistry(t))
	d := b.Decide(snapshot(ai.EntityView{ID: "m1", Pos: hex.New(0, 0), HP: 30, MaxHP: 30, Alive: true}))
	assert.Equal(t, ai.DecisionWait, d.Kind)
}

func TestDecide_AdjacentEnemyAttacked(t *testing.T) {
	b := ai.NewBrain("m1", bruiserDef(), testRegistry(t))
	self := ai.EntityView{ID: "m1", Pos: hex.New(0, 0), HP: 30, MaxHP: 30, Alive: true}
	enemy := ai.EntityView{ID: "p1", Pos: hex.New(1, 0), HP: 40, MaxHP: 40, Alive: true}

	d := b.Decide(snapshot(self, enemy))
	assert.Equal(t, ai.DecisionAttack, d.Kind)
	assert.Equal(t, "p1", d.TargetID)
}

func TestDecide_DistantEnemyApproached(t *testing.T) {
	b := ai.NewBrain("m1", bruiserDef(), testRegistry(t))
	self := ai.EntityView{ID: "m1", Pos: hex.New(0, 0), HP: 30, MaxHP: 30, Alive: true}
	enemy := ai.EntityView{ID: "p1", Pos: hex.New(6, 0), HP: 40, MaxHP: 40, Alive: true}

	d := b.Decide(snapshot(self, enemy))
	require.Equal(t, ai.DecisionMove, d.Kind)
	// Three steps along the line toward the enemy.
	assert.Equal(t, 3, hex.Distance(hex.New(0, 0), d.Destination))
	assert.Equal(t, 3, hex.Distance(d.Destination, enemy.Pos))
}

func TestDecide_TargetsHighestThreat(t *testing.T) {
	b := ai.NewBrain("m1", bruiserDef(), testRegistry(t))
	b.Threat().AddThreat(threat.Event{TargetID: "p2", TotalDamageDealt: 50})

	self := ai.EntityView{ID: "m1", Pos: hex.New(0, 0), HP: 30, MaxHP: 30, Alive: true}
	near := ai.EntityView{ID: "p1", Pos: hex.New(1, 0), HP: 40, MaxHP: 40, Alive: true}
	provoker := ai.EntityView{ID: "p2", Pos: hex.New(1, -1), HP: 40, MaxHP: 40, Alive: true}

	d := b.Decide(snapshot(self, near, provoker))
	assert.Equal(t, ai.DecisionAttack, d.Kind)
	assert.Equal(t, "p2", d.TargetID)
}

func TestDecide_RetreatRuleMovesAway(t *testing.T) {
	def := bruiserDef()
	def.AI.Rules = []content.BehaviorRule{
		{When: content.Condition{Kind: content.CondHPBelow, Value: 50}, Do: content.ActRetreat},
		{When: content.Condition{Kind: content.CondAlways}, Do: content.ActPreferAttack},
	}
	b := ai.NewBrain("m1", def, testRegistry(t))

	self := ai.EntityView{ID: "m1", Pos: hex.New(0, 0), HP: 10, MaxHP: 30, Alive: true}
	enemy := ai.EntityView{ID: "p1", Pos: hex.New(1, 0), HP: 40, MaxHP: 40, Alive: true}

	d := b.Decide(snapshot(self, enemy))
	require.Equal(t, ai.DecisionMove, d.Kind)
	assert.Greater(t, hex.Distance(d.Destination, enemy.Pos), 1)
}

func TestDecide_AbilityRuleUsesAbilityAndCooldown(t *testing.T) {
	def := bruiserDef()
	def.Abilities = []string{"spit"}
	def.AI.Rules = []content.BehaviorRule{
		{When: content.Condition{Kind: content.CondAlways}, Do: content.ActPreferAbility, AbilityID: "spit"},
	}
	b := ai.NewBrain("m1", def, testRegistry(t))

	self := ai.EntityView{ID: "m1", Pos: hex.New(0, 0), HP: 30, MaxHP: 30, Alive: true}
	enemy := ai.EntityView{ID: "p1", Pos: hex.New(3, 0), HP: 40, MaxHP: 40, Alive: true}

	snap := snapshot(self, enemy)
	d := b.Decide(snap)
	require.Equal(t, ai.DecisionAbility, d.Kind)
	assert.Equal(t, "spit", d.AbilityID)
	assert.Equal(t, "p1", d.TargetID)

	// Same round again: still on cooldown, falls back to closing in.
	d2 := b.Decide(snap)
	assert.NotEqual(t, ai.DecisionAbility, d2.Kind)
}

func TestDecide_HealingAbilityTargetsWoundedAlly(t *testing.T) {
	def := bruiserDef()
	def.Abilities = []string{"mend"}
	def.AI.Rules = []content.BehaviorRule{
		{When: content.Condition{Kind: content.CondAlways}, Do: content.ActPreferAbility, AbilityID: "mend"},
	}
	b := ai.NewBrain("m1", def, testRegistry(t))

	self := ai.EntityView{ID: "m1", Pos: hex.New(0, 0), HP: 30, MaxHP: 30, Alive: true}
	enemy := ai.EntityView{ID: "p1", Pos: hex.New(5, 0), HP: 40, MaxHP: 40, Alive: true}
	hurt := ai.EntityView{ID: "m2", Pos: hex.New(0, 1), HP: 5, MaxHP: 30, Alive: true}

	snap := snapshot(self, enemy)
	snap.Allies = []ai.EntityView{hurt}
	snap.Obstacles.Add(hurt.Pos)

	d := b.Decide(snap)
	require.Equal(t, ai.DecisionAbility, d.Kind)
	assert.Equal(t, "m2", d.TargetID)
}

func TestDecide_HistoryBounded(t *testing.T) {
	b := ai.NewBrain("m1", bruiserDef(), testRegistry(t))
	self := ai.EntityView{ID: "m1", Pos: hex.New(0, 0), HP: 30, MaxHP: 30, Alive: true}
	enemy := ai.EntityView{ID: "p1", Pos: hex.New(1, 0), HP: 40, MaxHP: 40, Alive: true}

	for i := 0; i < 30; i++ {
		b.Decide(snapshot(self, enemy))
	}
	assert.Len(t, b.History(), 20)
}
