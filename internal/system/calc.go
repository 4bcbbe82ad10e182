package system

import (
	"math"

	"github.com/emberfall/server/internal/data"
	"github.com/emberfall/server/internal/world"
)

// baseCritChance is the floor probability for a critical hit; per-level
// crit_chance_bonus adds on top of it.
const baseCritChance = 0.05

// critMultiplier scales damage on a successful critical roll.
const critMultiplier = 1.5

// attackStat picks the actor stat feeding the damage formula.
func attackStat(actor *world.Character, def *data.SkillDefinition) int32 {
	if def.DamageType == data.DamageMagical {
		return actor.MagicPower
	}
	return actor.AttackPower
}

// rawDamage is the pre-mitigation damage the intake primitive receives:
// baseDamage + floor(attackStat * multiplier).
func rawDamage(base, stat int32, multiplier float64) int32 {
	return base + int32(math.Floor(float64(stat)*multiplier))
}

// rollCrit draws an independent critical-hit trial for one target.
func rollCrit(ld *data.LevelData) bool {
	return world.RandFloat() < baseCritChance+ld.CritChanceBonus
}

// applyCrit scales damage by the critical multiplier, truncating to integer.
func applyCrit(dmg int32) int32 {
	return int32(float64(dmg) * critMultiplier)
}

// healAmount is the pre-clamp healing value: baseHealing +
// floor(magicPower * multiplier). The target's Heal clamps to max health.
func healAmount(base, magicPower int32, multiplier float64) int32 {
	return base + int32(math.Floor(float64(magicPower)*multiplier))
}
