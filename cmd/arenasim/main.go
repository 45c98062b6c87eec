// Package main runs a headless skirmish simulation: it loads monster and
// ability definitions, builds an encounter from a scenario file, drives
// players with a simple closing-attack policy, and lets the monster AI
// fight back until one side wins.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/config"
	"github.com/cory-johannsen/skirmish/internal/game/content"
	"github.com/cory-johannsen/skirmish/internal/game/dice"
	"github.com/cory-johannsen/skirmish/internal/game/encounter"
	"github.com/cory-johannsen/skirmish/internal/game/hex"
	"github.com/cory-johannsen/skirmish/internal/lifecycle"
	"github.com/cory-johannsen/skirmish/internal/observability"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/arenasim.yaml", "path to configuration file")
	scenarioPath := flag.String("scenario", "content/scenario.yaml", "path to scenario YAML file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	encounterID := uuid.NewString()
	logger = observability.EncounterLogger(logger, encounterID)
	logger.Info("starting arena simulation",
		zap.String("scenario", *scenarioPath),
		zap.Int("max_rounds", cfg.Encounter.MaxRounds),
	)

	registry := content.NewRegistry(logger)
	if err := registry.LoadFromDirs(cfg.Content.MonstersDir, cfg.Content.AbilitiesDir); err != nil {
		logger.Fatal("loading content", zap.Error(err))
	}

	scn, err := loadScenario(*scenarioPath)
	if err != nil {
		logger.Fatal("loading scenario", zap.Error(err))
	}
	players, monsters, terrain, err := scn.build(registry)
	if err != nil {
		logger.Fatal("building scenario", zap.Error(err))
	}

	seed := cfg.Encounter.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	logger.Info("dice seeded", zap.Int64("seed", seed))

	pathOpts := hex.PathOptions{
		MaxDistance:   cfg.Pathfinding.MaxSearchDistance,
		MaxIterations: cfg.Pathfinding.MaxIterations,
	}
	loop, err := encounter.NewLoop(logger, registry, dice.NewSeededSource(seed), terrain, players, monsters,
		encounter.Options{MaxRounds: cfg.Encounter.MaxRounds, PathOpts: pathOpts})
	if err != nil {
		logger.Fatal("assembling encounter", zap.Error(err))
	}
	loop.StartGame()

	driver := &playerDriver{loop: loop, terrain: terrain, pathOpts: pathOpts, logger: logger}

	if ms := cfg.Encounter.RoundDurationMs; ms > 0 {
		runTimed(loop, driver, time.Duration(ms)*time.Millisecond, logger)
	} else {
		runFlatOut(loop, driver, logger)
	}

	state := loop.GetGameState()
	logger.Info("simulation finished",
		zap.Int("rounds", state.Round),
		zap.String("winner", state.Winner.String()),
		zap.String("reason", state.EndReason),
		zap.Int("players_alive", state.PlayerCount),
		zap.Int("monsters_alive", state.MonsterCount),
		zap.Duration("elapsed", time.Since(start)),
	)
}

// runFlatOut resolves rounds back to back until the encounter ends.
func runFlatOut(loop *encounter.Loop, driver *playerDriver, logger *zap.Logger) {
	for loop.GetGameState().Phase == encounter.PhasePlaying {
		driver.submitAll()
		res := loop.ProcessRound()
		logRound(logger, res)
		if res.GameEnded {
			return
		}
	}
}

// runTimed drives the encounter on the configured cadence under the
// lifecycle manager, so SIGINT stops a long simulation cleanly.
func runTimed(loop *encounter.Loop, driver *playerDriver, interval time.Duration, logger *zap.Logger) {
	driver.submitAll()
	rt := encounter.StartRoundTimer(loop, interval, func(res encounter.RoundResult) {
		logRound(logger, res)
		if !res.GameEnded {
			driver.submitAll()
		}
	})

	mgr := lifecycle.NewManager(logger)
	mgr.Add("round-timer", &lifecycle.FuncComponent{
		StartFn: func() error {
			<-rt.Done()
			return nil
		},
		StopFn: func() {
			rt.Stop()
			loop.Stop("shutdown requested")
		},
	})
	if err := mgr.Run(context.Background()); err != nil {
		logger.Error("simulation error", zap.Error(err))
	}
}

func logRound(logger *zap.Logger, res encounter.RoundResult) {
	for _, a := range res.Actions {
		logger.Info("action", zap.Int("round", res.Round), zap.String("outcome", a.Narrative))
	}
	for _, e := range res.Effects {
		logger.Debug("effect tick",
			zap.Int("round", res.Round),
			zap.String("entity", e.EntityName),
			zap.String("kind", e.Tick.Kind.String()),
			zap.Int("amount", e.Tick.Amount),
		)
	}
}

// playerDriver stands in for human players: each round every living player
// attacks the nearest monster in range, or moves toward it.
type playerDriver struct {
	loop     *encounter.Loop
	terrain  hex.ObstacleSet
	pathOpts hex.PathOptions
	logger   *zap.Logger
}

func (d *playerDriver) submitAll() {
	monsters := d.loop.GetAliveMonsters()
	if len(monsters) == 0 {
		return
	}
	players := d.loop.GetAlivePlayers()
	for _, p := range players {
		act := d.actionFor(p, players, monsters)
		if r := d.loop.SubmitPlayerAction(act); !r.Accepted {
			d.logger.Debug("player action rejected",
				zap.String("player", p.Name),
				zap.String("reason", r.Reason))
		}
	}
}

func (d *playerDriver) actionFor(p encounter.EntitySnapshot, players, monsters []encounter.EntitySnapshot) encounter.Action {
	target := nearestTo(p.Pos, monsters)
	if hex.Distance(p.Pos, target.Pos) <= p.AttackRange {
		return encounter.Action{ActorID: p.ID, Type: encounter.ActionAttack, TargetID: target.ID}
	}

	blocked := d.terrain.Clone()
	for _, e := range append(append([]encounter.EntitySnapshot(nil), players...), monsters...) {
		if e.ID != p.ID {
			blocked.Add(e.Pos)
		}
	}
	blocked.Remove(target.Pos)
	path := hex.FindPath(p.Pos, target.Pos, blocked, d.pathOpts)
	if len(path) < 2 {
		return encounter.Action{ActorID: p.ID, Type: encounter.ActionWait}
	}
	idx := len(path) - 1
	if idx > p.MoveRange {
		idx = p.MoveRange
	}
	for idx > 0 && (path[idx] == target.Pos || blocked.Contains(path[idx])) {
		idx--
	}
	if idx == 0 {
		return encounter.Action{ActorID: p.ID, Type: encounter.ActionWait}
	}
	return encounter.Action{ActorID: p.ID, Type: encounter.ActionMove, Destination: path[idx]}
}

func nearestTo(from hex.Hex, candidates []encounter.EntitySnapshot) encounter.EntitySnapshot {
	best := candidates[0]
	for _, c := range candidates[1:] {
		if hex.Distance(from, c.Pos) < hex.Distance(from, best.Pos) {
			best = c
		}
	}
	return best
}
