package system

import (
	"context"
	"time"

	"github.com/emberfall/server/internal/core/event"
	"github.com/emberfall/server/internal/data"
	"github.com/emberfall/server/internal/world"
	"go.uber.org/zap"
)

// CharacterPersister saves a character's durable state. Implemented by
// persist.CharacterRepo; tests substitute a fake. Callers hold the
// character's entity lock across Save so the snapshot is consistent.
type CharacterPersister interface {
	Save(ctx context.Context, c *world.Character) error
}

const persistTimeout = 5 * time.Second

// ProgressionGate validates and applies learn and level-up transitions on a
// character's skill collection. Persistence is fire-and-forget: a save
// failure is logged and the in-memory change stands.
type ProgressionGate struct {
	catalog   *data.SkillTable
	persister CharacterPersister
	bus       *event.Bus
	log       *zap.Logger
}

func NewProgressionGate(catalog *data.SkillTable, persister CharacterPersister, bus *event.Bus, log *zap.Logger) *ProgressionGate {
	return &ProgressionGate{catalog: catalog, persister: persister, bus: bus, log: log}
}

// LearnSkill adds the skill at level 1 bound to the requested slot. Returns
// false with no mutation when the skill is unknown to the catalog, the
// character is under-leveled, the class does not match, or the skill is
// already known.
func (g *ProgressionGate) LearnSkill(c *world.Character, skillID int32, slot int16) bool {
	def := g.catalog.Lookup(skillID)
	if def == nil {
		return false
	}

	c.Lock()
	defer c.Unlock()

	if c.Level < def.RequiredLevel {
		return false
	}
	if def.RequiredClass != "" && def.RequiredClass != c.Class {
		return false
	}
	if c.Knows(skillID) {
		return false
	}

	c.AddSkill(&world.LearnedSkill{
		SkillID:    skillID,
		Level:      1,
		Slot:       slot,
		LastUsedAt: 0,
	})
	g.persist(c)

	if g.bus != nil {
		event.Emit(g.bus, event.SkillLearned{CharacterID: c.SessionID, SkillID: skillID, Slot: slot})
	}
	return true
}

// LevelUpSkill spends status points to raise a known skill one level.
// Returns false with no mutation when the skill is not known, already at max
// level, the next level has no tuning data, or points are insufficient.
func (g *ProgressionGate) LevelUpSkill(c *world.Character, skillID int32) bool {
	def := g.catalog.Lookup(skillID)
	if def == nil {
		return false
	}

	c.Lock()
	defer c.Unlock()

	learned := c.SkillByID(skillID)
	if learned == nil {
		return false
	}
	if learned.Level >= def.MaxLevel {
		return false
	}
	next := learned.Level + 1
	var nextData *data.LevelData
	for i := range def.Levels {
		if def.Levels[i].Level == next {
			nextData = &def.Levels[i]
			break
		}
	}
	if nextData == nil {
		return false
	}
	if c.StatusPoints < nextData.StatusPointCost {
		return false
	}

	c.StatusPoints -= nextData.StatusPointCost
	learned.Level = next
	g.persist(c)

	if g.bus != nil {
		event.Emit(g.bus, event.SkillLeveled{CharacterID: c.SessionID, SkillID: skillID, NewLevel: next})
	}
	return true
}

// persist saves the character, logging failure without rollback. This is the
// one blocking call in the gate; the caller already holds the entity lock,
// which keeps the saved snapshot consistent.
func (g *ProgressionGate) persist(c *world.Character) {
	if g.persister == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := g.persister.Save(ctx, c); err != nil {
		g.log.Error("persist character failed",
			zap.String("character", c.Name),
			zap.Error(err))
	}
}
