package content

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Registry holds validated definitions for one engine instance. It is
// constructed explicitly and passed by reference; loading and clearing are
// explicit lifecycle calls, and nothing mutates it between them.
type Registry struct {
	logger    *zap.Logger
	monsters  map[string]*MonsterDefinition
	abilities map[string]*AbilityDefinition
}

// NewRegistry creates an empty registry.
//
// Precondition: logger must not be nil.
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		panic("content.NewRegistry: logger must not be nil")
	}
	return &Registry{
		logger:    logger,
		monsters:  make(map[string]*MonsterDefinition),
		abilities: make(map[string]*AbilityDefinition),
	}
}

// LoadFromDirs reads every *.yaml file under abilitiesDir and monstersDir,
// validates each definition, and cross-checks monster ability references.
// Abilities load first so the cross-check can see them. On any error the
// registry is left unchanged.
func (r *Registry) LoadFromDirs(monstersDir, abilitiesDir string) error {
	abilities := make(map[string]*AbilityDefinition)
	if err := loadDir(abilitiesDir, func(data []byte, name string) error {
		var def AbilityDefinition
		if err := yaml.Unmarshal(data, &def); err != nil {
			return fmt.Errorf("parsing %s: %w", name, err)
		}
		if err := def.Validate(); err != nil {
			return err
		}
		if _, dup := abilities[def.ID]; dup {
			return fmt.Errorf("duplicate ability id %q", def.ID)
		}
		abilities[def.ID] = &def
		return nil
	}); err != nil {
		return fmt.Errorf("loading abilities: %w", err)
	}

	monsters := make(map[string]*MonsterDefinition)
	if err := loadDir(monstersDir, func(data []byte, name string) error {
		var def MonsterDefinition
		if err := yaml.Unmarshal(data, &def); err != nil {
			return fmt.Errorf("parsing %s: %w", name, err)
		}
		if err := def.Validate(); err != nil {
			return err
		}
		if _, dup := monsters[def.ID]; dup {
			return fmt.Errorf("duplicate monster id %q", def.ID)
		}
		for _, abilityID := range def.Abilities {
			if _, ok := abilities[abilityID]; !ok {
				return fmt.Errorf("monster %q references unknown ability %q", def.ID, abilityID)
			}
		}
		for _, rule := range def.AI.Rules {
			if rule.AbilityID != "" {
				if _, ok := abilities[rule.AbilityID]; !ok {
					return fmt.Errorf("monster %q rule references unknown ability %q", def.ID, rule.AbilityID)
				}
			}
		}
		monsters[def.ID] = &def
		return nil
	}); err != nil {
		return fmt.Errorf("loading monsters: %w", err)
	}

	r.abilities = abilities
	r.monsters = monsters
	r.logger.Info("content loaded",
		zap.Int("monsters", len(monsters)),
		zap.Int("abilities", len(abilities)),
	)
	return nil
}

// Clear empties the registry.
//
// Postcondition: Monster and Ability return false for every id.
func (r *Registry) Clear() {
	r.monsters = make(map[string]*MonsterDefinition)
	r.abilities = make(map[string]*AbilityDefinition)
}

// Monster returns the definition for id.
func (r *Registry) Monster(id string) (*MonsterDefinition, bool) {
	m, ok := r.monsters[id]
	return m, ok
}

// Ability returns the definition for id.
func (r *Registry) Ability(id string) (*AbilityDefinition, bool) {
	a, ok := r.abilities[id]
	return a, ok
}

// MonsterIDs returns the loaded monster ids in sorted order.
func (r *Registry) MonsterIDs() []string {
	ids := make([]string, 0, len(r.monsters))
	for id := range r.monsters {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// loadDir feeds every *.yaml file in dir through parse, in name order.
func loadDir(dir string, parse func(data []byte, name string) error) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading dir %q: %w", dir, err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return fmt.Errorf("reading %s: %w", e.Name(), err)
		}
		if err := parse(data, e.Name()); err != nil {
			return err
		}
	}
	return nil
}
