package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/skirmish/internal/game/content"
	"github.com/cory-johannsen/skirmish/internal/game/encounter"
	"github.com/cory-johannsen/skirmish/internal/game/hex"
)

// cell is a YAML-friendly axial coordinate.
type cell struct {
	Q int `yaml:"q"`
	R int `yaml:"r"`
}

func (c cell) hex() hex.Hex { return hex.New(c.Q, c.R) }

// playerSpawn describes one player entity in a scenario file.
type playerSpawn struct {
	Name         string   `yaml:"name"`
	Pos          cell     `yaml:"pos"`
	MaxHP        int      `yaml:"max_hp"`
	Armor        int      `yaml:"armor"`
	MoveRange    int      `yaml:"move_range"`
	AttackRange  int      `yaml:"attack_range"`
	AttackDamage string   `yaml:"attack_damage"`
	Abilities    []string `yaml:"abilities"`
}

// monsterSpawn places one monster definition from the registry.
type monsterSpawn struct {
	ID  string `yaml:"id"`
	Pos cell   `yaml:"pos"`
}

// scenario is the full battlefield setup for one simulated encounter.
type scenario struct {
	Players  []playerSpawn  `yaml:"players"`
	Monsters []monsterSpawn `yaml:"monsters"`
	Terrain  []cell         `yaml:"terrain"`
}

func loadScenario(path string) (scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return scenario{}, fmt.Errorf("reading scenario file: %w", err)
	}
	var s scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return scenario{}, fmt.Errorf("parsing scenario file %s: %w", path, err)
	}
	if len(s.Players) == 0 && len(s.Monsters) == 0 {
		return scenario{}, fmt.Errorf("scenario %s spawns no entities", path)
	}
	return s, nil
}

// build instantiates the scenario's entities and terrain.
func (s scenario) build(registry *content.Registry) (players, monsters []*encounter.Entity, terrain hex.ObstacleSet, err error) {
	terrain = hex.NewObstacleSet()
	for _, c := range s.Terrain {
		terrain.Add(c.hex())
	}
	for _, ps := range s.Players {
		p, perr := encounter.NewPlayer(encounter.PlayerSpec{
			Name:         ps.Name,
			Pos:          ps.Pos.hex(),
			MaxHP:        ps.MaxHP,
			Armor:        ps.Armor,
			MoveRange:    ps.MoveRange,
			AttackRange:  ps.AttackRange,
			AttackDamage: ps.AttackDamage,
			Abilities:    ps.Abilities,
		})
		if perr != nil {
			return nil, nil, nil, fmt.Errorf("player %s: %w", ps.Name, perr)
		}
		players = append(players, p)
	}
	for _, ms := range s.Monsters {
		def, ok := registry.Monster(ms.ID)
		if !ok {
			return nil, nil, nil, fmt.Errorf("scenario references unknown monster %q", ms.ID)
		}
		monsters = append(monsters, encounter.NewMonster(def, ms.Pos.hex(), registry))
	}
	return players, monsters, terrain, nil
}
