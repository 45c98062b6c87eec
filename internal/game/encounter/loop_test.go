package encounter_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/skirmish/internal/game/content"
	"github.com/cory-johannsen/skirmish/internal/game/encounter"
	"github.com/cory-johannsen/skirmish/internal/game/hex"
	"github.com/cory-johannsen/skirmish/internal/game/stats"
)

// maxSource makes every die roll its maximum face.
type maxSource struct{}

func (maxSource) Intn(n int) int { return n - 1 }

const zapYAML = `id: zap
name: Zap
range: 3
damage: 2d4
cooldown: 1
effect:
  kind: poison
  value: 2
  duration: 2
`

func testRegistry(t *testing.T) *content.Registry {
	t.Helper()
	root := t.TempDir()
	monstersDir := filepath.Join(root, "monsters")
	abilitiesDir := filepath.Join(root, "abilities")
	require.NoError(t, os.MkdirAll(monstersDir, 0o755))
	require.NoError(t, os.MkdirAll(abilitiesDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(abilitiesDir, "zap.yaml"), []byte(zapYAML), 0o644))

	reg := content.NewRegistry(zaptest.NewLogger(t))
	require.NoError(t, reg.LoadFromDirs(monstersDir, abilitiesDir))
	return reg
}

func newPlayer(t *testing.T, name string, pos hex.Hex, hp, armor int, abilities ...string) *encounter.Entity {
	t.Helper()
	p, err := encounter.NewPlayer(encounter.PlayerSpec{
		Name: name, Pos: pos, MaxHP: hp, Armor: armor,
		MoveRange: 3, AttackRange: 1, AttackDamage: "1d6+2",
		Abilities: abilities,
	})
	require.NoError(t, err)
	return p
}

func newMonster(pos hex.Hex, hp int, reg *content.Registry) *encounter.Entity {
	def := &content.MonsterDefinition{
		ID: "grunt", Name: "Grunt", Level: 1, MaxHP: hp,
		MoveRange: 3, AttackRange: 1, AttackDamage: "1d4",
	}
	return encounter.NewMonster(def, pos, reg)
}

func newLoop(t *testing.T, reg *content.Registry, players, monsters []*encounter.Entity, maxRounds int) *encounter.Loop {
	t.Helper()
	l, err := encounter.NewLoop(zaptest.NewLogger(t), reg, maxSource{}, nil, players, monsters,
		encounter.Options{MaxRounds: maxRounds, PathOpts: hex.DefaultPathOptions()})
	require.NoError(t, err)
	return l
}

func TestStartGame_EmptySideEndsImmediately(t *testing.T) {
	reg := testRegistry(t)

	t.Run("no monsters", func(t *testing.T) {
		players := []*encounter.Entity{
			newPlayer(t, "Ash", hex.New(0, 0), 40, 0),
			newPlayer(t, "Brook", hex.New(1, 0), 40, 0),
		}
		l := newLoop(t, reg, players, nil, 0)
		// Already decided at construction; StartGame stays a no-op.
		assert.Equal(t, encounter.PhaseEnded, l.GetGameState().Phase)
		l.StartGame()

		state := l.GetGameState()
		assert.Equal(t, encounter.PhaseEnded, state.Phase)
		assert.Equal(t, encounter.WinnerPlayers, state.Winner)
	})

	t.Run("no players", func(t *testing.T) {
		monsters := []*encounter.Entity{newMonster(hex.New(0, 0), 20, reg)}
		l := newLoop(t, reg, nil, monsters, 0)
		l.StartGame()
		assert.Equal(t, encounter.WinnerMonsters, l.GetGameState().Winner)
	})

	t.Run("both empty", func(t *testing.T) {
		l := newLoop(t, reg, nil, nil, 0)
		l.StartGame()
		assert.Equal(t, encounter.WinnerDraw, l.GetGameState().Winner)
	})
}

func TestSubmitPlayerAction_Validation(t *testing.T) {
	reg := testRegistry(t)
	p := newPlayer(t, "Ash", hex.New(0, 0), 40, 0)
	m := newMonster(hex.New(5, 0), 20, reg)
	l := newLoop(t, reg, []*encounter.Entity{p}, []*encounter.Entity{m}, 0)

	// Nothing is accepted before the game starts.
	r := l.SubmitPlayerAction(encounter.Action{ActorID: p.ID, Type: encounter.ActionWait})
	assert.False(t, r.Accepted)

	l.StartGame()

	r = l.SubmitPlayerAction(encounter.Action{ActorID: "nobody", Type: encounter.ActionWait})
	assert.False(t, r.Accepted)
	assert.Equal(t, "unknown actor", r.Reason)

	r = l.SubmitPlayerAction(encounter.Action{ActorID: m.ID, Type: encounter.ActionWait})
	assert.False(t, r.Accepted)

	r = l.SubmitPlayerAction(encounter.Action{ActorID: p.ID, Type: encounter.ActionAttack})
	assert.False(t, r.Accepted)
	assert.Equal(t, "attack requires a target", r.Reason)

	r = l.SubmitPlayerAction(encounter.Action{ActorID: p.ID, Type: encounter.ActionAbility, TargetID: m.ID, AbilityID: "zap"})
	assert.False(t, r.Accepted, "player does not know zap")

	r = l.SubmitPlayerAction(encounter.Action{ActorID: p.ID, Type: encounter.ActionWait})
	require.True(t, r.Accepted)

	// First submission wins until cleared.
	r = l.SubmitPlayerAction(encounter.Action{ActorID: p.ID, Type: encounter.ActionMove, Destination: hex.New(1, 0)})
	assert.False(t, r.Accepted)
	assert.Equal(t, "action already submitted this round", r.Reason)

	require.True(t, l.ClearSubmittedAction(p.ID))
	assert.False(t, l.ClearSubmittedAction(p.ID))
	r = l.SubmitPlayerAction(encounter.Action{ActorID: p.ID, Type: encounter.ActionMove, Destination: hex.New(1, 0)})
	assert.True(t, r.Accepted)
}

func TestProcessRound_PlayerKillsMonster(t *testing.T) {
	reg := testRegistry(t)
	p := newPlayer(t, "Ash", hex.New(0, 0), 40, 0)
	m := newMonster(hex.New(1, 0), 6, reg)
	l := newLoop(t, reg, []*encounter.Entity{p}, []*encounter.Entity{m}, 0)
	l.StartGame()

	r := l.SubmitPlayerAction(encounter.Action{ActorID: p.ID, Type: encounter.ActionAttack, TargetID: m.ID})
	require.True(t, r.Accepted)

	res := l.ProcessRound()
	require.Len(t, res.Actions, 1, "dead monster takes no action")
	out := res.Actions[0]
	assert.True(t, out.Success)
	assert.Equal(t, 8, out.Damage, "1d6+2 at max faces")
	assert.True(t, out.TargetDied)

	assert.True(t, res.GameEnded)
	assert.Equal(t, encounter.WinnerPlayers, res.Winner)
	assert.Equal(t, "all monsters defeated", res.Reason)
	assert.Equal(t, 1, res.Round)

	state := l.GetGameState()
	assert.Equal(t, encounter.PhaseEnded, state.Phase)
	assert.Equal(t, 0, state.MonsterCount)
	assert.Empty(t, l.GetAliveMonsters())
}

func TestProcessRound_ExternallyZeroedMonsterEndsGame(t *testing.T) {
	reg := testRegistry(t)
	p := newPlayer(t, "Ash", hex.New(0, 0), 40, 0)
	m := newMonster(hex.New(5, 0), 20, reg)
	l := newLoop(t, reg, []*encounter.Entity{p}, []*encounter.Entity{m}, 0)
	l.StartGame()

	// HP zeroed outside the documented API must not crash the round.
	m.Block.CurrentHP = 0
	res := l.ProcessRound()
	assert.True(t, res.GameEnded)
	assert.Equal(t, encounter.WinnerPlayers, res.Winner)
}

func TestProcessRound_MonsterRetaliatesAgainstProvoker(t *testing.T) {
	reg := testRegistry(t)
	quiet := newPlayer(t, "Quiet", hex.New(1, 0), 40, 0)
	provoker := newPlayer(t, "Provoker", hex.New(0, 1), 40, 0)
	m := newMonster(hex.New(0, 0), 50, reg)
	l := newLoop(t, reg, []*encounter.Entity{quiet, provoker}, []*encounter.Entity{m}, 0)
	l.StartGame()

	r := l.SubmitPlayerAction(encounter.Action{ActorID: provoker.ID, Type: encounter.ActionAttack, TargetID: m.ID})
	require.True(t, r.Accepted)

	res := l.ProcessRound()
	require.Len(t, res.Actions, 3)

	// Players resolve before monsters.
	assert.Equal(t, quiet.ID, res.Actions[0].ActorID)
	assert.Equal(t, encounter.ActionWait, res.Actions[0].Type)
	assert.Equal(t, provoker.ID, res.Actions[1].ActorID)

	monsterAct := res.Actions[2]
	assert.Equal(t, m.ID, monsterAct.ActorID)
	assert.Equal(t, encounter.ActionAttack, monsterAct.Type)
	assert.Equal(t, provoker.ID, monsterAct.TargetID, "threat points at the attacker")
}

func TestProcessRound_MoveValidation(t *testing.T) {
	reg := testRegistry(t)

	t.Run("beyond move range", func(t *testing.T) {
		p := newPlayer(t, "Ash", hex.New(0, 0), 100, 5)
		m := newMonster(hex.New(9, 0), 50, reg)
		l := newLoop(t, reg, []*encounter.Entity{p}, []*encounter.Entity{m}, 0)
		l.StartGame()
		require.True(t, l.SubmitPlayerAction(encounter.Action{
			ActorID: p.ID, Type: encounter.ActionMove, Destination: hex.New(5, 0),
		}).Accepted)

		res := l.ProcessRound()
		assert.False(t, res.Actions[0].Success)
		snap, _ := l.GetEntityByID(p.ID)
		assert.Equal(t, hex.New(0, 0), snap.Pos)
	})

	t.Run("legal move applies", func(t *testing.T) {
		p := newPlayer(t, "Ash", hex.New(0, 0), 100, 5)
		m := newMonster(hex.New(9, 0), 50, reg)
		l := newLoop(t, reg, []*encounter.Entity{p}, []*encounter.Entity{m}, 0)
		l.StartGame()
		require.True(t, l.SubmitPlayerAction(encounter.Action{
			ActorID: p.ID, Type: encounter.ActionMove, Destination: hex.New(2, 0),
		}).Accepted)

		res := l.ProcessRound()
		assert.True(t, res.Actions[0].Success)
		snap, _ := l.GetEntityByID(p.ID)
		assert.Equal(t, hex.New(2, 0), snap.Pos)
	})

	t.Run("occupied destination rejected", func(t *testing.T) {
		p := newPlayer(t, "Ash", hex.New(0, 0), 100, 5)
		m := newMonster(hex.New(2, 0), 50, reg)
		l := newLoop(t, reg, []*encounter.Entity{p}, []*encounter.Entity{m}, 0)
		l.StartGame()
		require.True(t, l.SubmitPlayerAction(encounter.Action{
			ActorID: p.ID, Type: encounter.ActionMove, Destination: hex.New(2, 0),
		}).Accepted)

		res := l.ProcessRound()
		assert.False(t, res.Actions[0].Success)
		assert.Contains(t, res.Actions[0].Narrative, "blocked")
	})
}

func TestProcessRound_RoundLimitDraw(t *testing.T) {
	reg := testRegistry(t)
	// High armor so the grunt's 1d4 never lands.
	p := newPlayer(t, "Ash", hex.New(0, 0), 100, 5)
	m := newMonster(hex.New(8, 0), 50, reg)
	l := newLoop(t, reg, []*encounter.Entity{p}, []*encounter.Entity{m}, 2)
	l.StartGame()

	res := l.ProcessRound()
	assert.False(t, res.GameEnded)
	assert.Equal(t, 1, res.Round)

	res = l.ProcessRound()
	assert.True(t, res.GameEnded)
	assert.Equal(t, 2, res.Round)
	assert.Equal(t, encounter.WinnerDraw, res.Winner)
	assert.Equal(t, "round limit reached", res.Reason)
}

func TestProcessRound_PausedIsNoOp(t *testing.T) {
	reg := testRegistry(t)
	p := newPlayer(t, "Ash", hex.New(0, 0), 40, 0)
	m := newMonster(hex.New(5, 0), 50, reg)
	l := newLoop(t, reg, []*encounter.Entity{p}, []*encounter.Entity{m}, 0)
	l.StartGame()
	l.Pause()

	assert.False(t, l.SubmitPlayerAction(encounter.Action{ActorID: p.ID, Type: encounter.ActionWait}).Accepted)
	res := l.ProcessRound()
	assert.Empty(t, res.Actions)
	assert.Equal(t, 1, l.GetGameState().Round)

	l.Resume()
	assert.Equal(t, encounter.PhasePlaying, l.GetGameState().Phase)
	res = l.ProcessRound()
	assert.NotEmpty(t, res.Actions)
}

func TestPlayerAbility_EffectAndCooldown(t *testing.T) {
	reg := testRegistry(t)
	p := newPlayer(t, "Ash", hex.New(0, 0), 100, 0, "zap")
	m := newMonster(hex.New(2, 0), 50, reg)
	l := newLoop(t, reg, []*encounter.Entity{p}, []*encounter.Entity{m}, 0)
	l.StartGame()

	submitZap := func() {
		require.True(t, l.SubmitPlayerAction(encounter.Action{
			ActorID: p.ID, Type: encounter.ActionAbility, TargetID: m.ID, AbilityID: "zap",
		}).Accepted)
	}

	submitZap()
	res := l.ProcessRound()
	require.True(t, res.Actions[0].Success)
	assert.Equal(t, 8, res.Actions[0].Damage, "2d4 at max faces")
	assert.True(t, m.Block.Effects().Has(stats.EffectPoison))

	// Round 2: still on cooldown.
	submitZap()
	res = l.ProcessRound()
	assert.False(t, res.Actions[0].Success)
	assert.Contains(t, res.Actions[0].Narrative, "cooldown")

	// Round 3: available again.
	submitZap()
	res = l.ProcessRound()
	assert.True(t, res.Actions[0].Success)
}

func TestRoundTimer_DrivesEncounterToEnd(t *testing.T) {
	reg := testRegistry(t)
	p := newPlayer(t, "Ash", hex.New(0, 0), 40, 0)
	m := newMonster(hex.New(1, 0), 6, reg)
	l := newLoop(t, reg, []*encounter.Entity{p}, []*encounter.Entity{m}, 0)
	l.StartGame()
	require.True(t, l.SubmitPlayerAction(encounter.Action{
		ActorID: p.ID, Type: encounter.ActionAttack, TargetID: m.ID,
	}).Accepted)

	rt := encounter.StartRoundTimer(l, 5*time.Millisecond, nil)
	select {
	case <-rt.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("timer did not finish the encounter")
	}
	state := l.GetGameState()
	assert.Equal(t, encounter.PhaseEnded, state.Phase)
	assert.Equal(t, encounter.WinnerPlayers, state.Winner)
}
