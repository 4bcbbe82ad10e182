package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// TargetKind classifies a skill's valid target set.
type TargetKind int

const (
	TargetSelf TargetKind = iota
	TargetEnemy
	TargetArea
)

func (k TargetKind) String() string {
	switch k {
	case TargetSelf:
		return "self"
	case TargetEnemy:
		return "enemy"
	case TargetArea:
		return "area"
	}
	return "unknown"
}

// DamageType selects which attack stat feeds the damage formula.
type DamageType int

const (
	DamagePhysical DamageType = iota
	DamageMagical
)

func (d DamageType) String() string {
	if d == DamageMagical {
		return "magical"
	}
	return "physical"
}

// LevelData holds per-skill-level tuning values.
type LevelData struct {
	Level            int16
	BaseDamage       int32
	BaseHealing      int32
	DamageMultiplier float64
	CritChanceBonus  float64
	StatusPointCost  int32 // cost to reach this level
}

// EffectDefinition describes a time-bounded stat modifier a skill may schedule.
type EffectDefinition struct {
	Kind      string // "buff", "debuff", "dot", ...
	Stat      string // affected stat name
	Magnitude int32
	Duration  int64   // seconds
	Chance    float64 // trigger probability in [0,1]
}

// SkillDefinition holds a single immutable skill template.
type SkillDefinition struct {
	ID            int32
	Name          string
	RequiredLevel int16
	RequiredClass string // empty = unrestricted
	Target        TargetKind
	Range         float64
	AreaRadius    float64
	ManaCost      int32
	HealthCost    int32
	CastTime      float64 // seconds, presentation-layer delay
	Cooldown      int64   // seconds
	DamageType    DamageType
	MaxLevel      int16
	Levels        []LevelData
	Effects       []EffectDefinition
}

// LevelData returns the entry matching the given skill level, falling back to
// the first defined level when none matches. Returns nil only for a
// definition with no levels at all.
func (d *SkillDefinition) LevelData(level int16) *LevelData {
	for i := range d.Levels {
		if d.Levels[i].Level == level {
			return &d.Levels[i]
		}
	}
	if len(d.Levels) > 0 {
		return &d.Levels[0]
	}
	return nil
}

// SkillTable holds all skill definitions indexed by ID. Built once at load;
// never mutated afterwards, so reads need no synchronization.
type SkillTable struct {
	skills map[int32]*SkillDefinition
}

// NewSkillTable returns an empty catalog. A server running with an empty
// catalog is degraded but valid: every lookup misses.
func NewSkillTable() *SkillTable {
	return &SkillTable{skills: make(map[int32]*SkillDefinition)}
}

// TableOf builds a catalog from in-memory definitions. Production catalogs
// come from LoadSkillTable; this serves tests and tooling.
func TableOf(defs ...*SkillDefinition) *SkillTable {
	t := NewSkillTable()
	for _, d := range defs {
		t.skills[d.ID] = d
	}
	return t
}

// Lookup returns a skill definition by ID, or nil if not found.
func (t *SkillTable) Lookup(skillID int32) *SkillDefinition {
	return t.skills[skillID]
}

// ListForClass returns all definitions usable by the given class: those with
// no class restriction plus those restricted to exactly that class.
func (t *SkillTable) ListForClass(class string) []*SkillDefinition {
	result := make([]*SkillDefinition, 0, len(t.skills))
	for _, d := range t.skills {
		if d.RequiredClass == "" || d.RequiredClass == class {
			result = append(result, d)
		}
	}
	return result
}

// Count returns total loaded skills.
func (t *SkillTable) Count() int {
	return len(t.skills)
}

// All returns all skill definitions.
func (t *SkillTable) All() []*SkillDefinition {
	result := make([]*SkillDefinition, 0, len(t.skills))
	for _, d := range t.skills {
		result = append(result, d)
	}
	return result
}

// --- YAML loading ---

type levelEntry struct {
	Level            int16   `yaml:"level"`
	BaseDamage       int32   `yaml:"base_damage"`
	BaseHealing      int32   `yaml:"base_healing"`
	DamageMultiplier float64 `yaml:"damage_multiplier"`
	CritChanceBonus  float64 `yaml:"crit_chance_bonus"`
	StatusPointCost  int32   `yaml:"status_point_cost"`
}

type effectEntry struct {
	Kind      string  `yaml:"kind"`
	Stat      string  `yaml:"stat"`
	Magnitude int32   `yaml:"magnitude"`
	Duration  int64   `yaml:"duration"`
	Chance    float64 `yaml:"chance"`
}

type skillEntry struct {
	SkillID       int32         `yaml:"skill_id"`
	Name          string        `yaml:"name"`
	RequiredLevel int16         `yaml:"required_level"`
	RequiredClass string        `yaml:"required_class"`
	TargetKind    string        `yaml:"target_kind"`
	Range         float64       `yaml:"range"`
	AreaRadius    float64       `yaml:"area_radius"`
	ManaCost      int32         `yaml:"mana_cost"`
	HealthCost    int32         `yaml:"health_cost"`
	CastTime      float64       `yaml:"cast_time"`
	Cooldown      int64         `yaml:"cooldown"`
	DamageType    string        `yaml:"damage_type"`
	MaxLevel      int16         `yaml:"max_level"`
	Levels        []levelEntry  `yaml:"levels"`
	Effects       []effectEntry `yaml:"effects"`
}

type skillListFile struct {
	Skills []skillEntry `yaml:"skills"`
}

func parseTargetKind(s string) (TargetKind, error) {
	switch s {
	case "self":
		return TargetSelf, nil
	case "enemy":
		return TargetEnemy, nil
	case "area":
		return TargetArea, nil
	}
	return 0, fmt.Errorf("unknown target_kind %q", s)
}

func parseDamageType(s string) (DamageType, error) {
	switch s {
	case "", "physical":
		return DamagePhysical, nil
	case "magical":
		return DamageMagical, nil
	}
	return 0, fmt.Errorf("unknown damage_type %q", s)
}

// LoadSkillTable loads skill definitions from YAML.
func LoadSkillTable(path string) (*SkillTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read skills: %w", err)
	}
	var f skillListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse skills: %w", err)
	}
	t := &SkillTable{
		skills: make(map[int32]*SkillDefinition, len(f.Skills)),
	}
	for i := range f.Skills {
		e := &f.Skills[i]
		tk, err := parseTargetKind(e.TargetKind)
		if err != nil {
			return nil, fmt.Errorf("skill %d: %w", e.SkillID, err)
		}
		dt, err := parseDamageType(e.DamageType)
		if err != nil {
			return nil, fmt.Errorf("skill %d: %w", e.SkillID, err)
		}
		chances := make([]EffectDefinition, 0, len(e.Effects))
		for _, fe := range e.Effects {
			if fe.Chance < 0 || fe.Chance > 1 {
				return nil, fmt.Errorf("skill %d: effect chance %v out of [0,1]", e.SkillID, fe.Chance)
			}
			chances = append(chances, EffectDefinition{
				Kind:      fe.Kind,
				Stat:      fe.Stat,
				Magnitude: fe.Magnitude,
				Duration:  fe.Duration,
				Chance:    fe.Chance,
			})
		}
		levels := make([]LevelData, 0, len(e.Levels))
		for _, le := range e.Levels {
			levels = append(levels, LevelData{
				Level:            le.Level,
				BaseDamage:       le.BaseDamage,
				BaseHealing:      le.BaseHealing,
				DamageMultiplier: le.DamageMultiplier,
				CritChanceBonus:  le.CritChanceBonus,
				StatusPointCost:  le.StatusPointCost,
			})
		}
		t.skills[e.SkillID] = &SkillDefinition{
			ID:            e.SkillID,
			Name:          e.Name,
			RequiredLevel: e.RequiredLevel,
			RequiredClass: e.RequiredClass,
			Target:        tk,
			Range:         e.Range,
			AreaRadius:    e.AreaRadius,
			ManaCost:      e.ManaCost,
			HealthCost:    e.HealthCost,
			CastTime:      e.CastTime,
			Cooldown:      e.Cooldown,
			DamageType:    dt,
			MaxLevel:      e.MaxLevel,
			Levels:        levels,
			Effects:       chances,
		}
	}
	return t, nil
}
