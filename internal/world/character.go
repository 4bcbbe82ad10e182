package world

import (
	"sync"

	"github.com/emberfall/server/internal/data"
)

// expPerLevel is the flat experience threshold per character level.
func expToNext(level int16) int64 {
	return int64(level) * 1000
}

// LearnedSkill is one entry in a character's skill collection.
type LearnedSkill struct {
	SkillID    int32
	Level      int16
	Slot       int16 // 1-9, reassignable
	LastUsedAt int64 // server epoch milliseconds

	// def is attached transiently at use-time and never persisted.
	def *data.SkillDefinition
}

// Attach binds the resolved definition for the duration of a request.
func (ls *LearnedSkill) Attach(def *data.SkillDefinition) { ls.def = def }

// Definition returns the transiently attached definition, or nil.
func (ls *LearnedSkill) Definition() *data.SkillDefinition { return ls.def }

// Character holds in-memory state for a connected player. All mutation of
// mana/health/cooldowns/skills is serialized by the entity mutex: the skill
// engine and the progression gate hold it for the duration of one request.
type Character struct {
	mu sync.Mutex

	SessionID string // player session id, the character's target identity
	Name      string
	Class     string
	Level     int16
	Exp       int64

	HP    int32
	MaxHP int32
	MP    int32
	MaxMP int32

	X, Y, Z float64 // Z is ignored by all range checks

	AttackPower  int32 // physical attack stat
	MagicPower   int32 // magical attack stat
	StatusPoints int32 // spendable skill level-up currency

	Skills []*LearnedSkill
}

// Lock acquires the per-entity mutex. The skill engine holds it from the
// cooldown stamp through result assembly; the progression gate holds it
// across learn/level-up mutations.
func (c *Character) Lock() { c.mu.Lock() }

// Unlock releases the per-entity mutex.
func (c *Character) Unlock() { c.mu.Unlock() }

// SkillByID returns the learned skill with the given id, or nil.
// Caller must hold the entity lock.
func (c *Character) SkillByID(skillID int32) *LearnedSkill {
	for _, ls := range c.Skills {
		if ls.SkillID == skillID {
			return ls
		}
	}
	return nil
}

// Knows reports whether the character has learned the given skill.
// Caller must hold the entity lock.
func (c *Character) Knows(skillID int32) bool {
	return c.SkillByID(skillID) != nil
}

// AddSkill appends a learned skill. Caller must hold the entity lock and have
// checked the at-most-one-per-skill-id invariant.
func (c *Character) AddSkill(ls *LearnedSkill) {
	c.Skills = append(c.Skills, ls)
}

// GainExperience credits exp and applies any level-ups. Returns true if at
// least one level was gained. Caller must hold the entity lock.
func (c *Character) GainExperience(exp int64) bool {
	c.Exp += exp
	leveled := false
	for c.Exp >= expToNext(c.Level) {
		c.Exp -= expToNext(c.Level)
		c.Level++
		leveled = true
	}
	return leveled
}

// Heal raises HP by the given amount, clamped to MaxHP, and returns the
// actual delta applied. Caller must hold the entity lock.
func (c *Character) Heal(amount int32) int32 {
	before := c.HP
	c.HP += amount
	if c.HP > c.MaxHP {
		c.HP = c.MaxHP
	}
	return c.HP - before
}
