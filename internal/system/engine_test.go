package system

import (
	"sync"
	"testing"

	"github.com/emberfall/server/internal/data"
	"github.com/emberfall/server/internal/world"
	"go.uber.org/zap"
)

// neverCrit pushes the crit probability below zero so damage stays
// deterministic; alwaysCrit pushes it to 1.
const (
	neverCrit  = -1.0
	alwaysCrit = 0.95
)

func firebolt() *data.SkillDefinition {
	return &data.SkillDefinition{
		ID:         1,
		Name:       "Firebolt",
		Target:     data.TargetEnemy,
		Range:      8,
		ManaCost:   10,
		Cooldown:   2,
		DamageType: data.DamageMagical,
		MaxLevel:   2,
		Levels: []data.LevelData{
			{Level: 1, BaseDamage: 10, DamageMultiplier: 0.5, CritChanceBonus: neverCrit},
		},
	}
}

func testDeps(defs ...*data.SkillDefinition) *Deps {
	return &Deps{
		Catalog: data.TableOf(defs...),
		World:   world.NewState(),
		Effects: world.NewEffectLedger(),
		Log:     zap.NewNop(),
	}
}

func testMage(skillIDs ...int32) *world.Character {
	c := &world.Character{
		SessionID:   "sess-1",
		Name:        "Aster",
		Class:       "mage",
		Level:       5,
		HP:          100,
		MaxHP:       100,
		MP:          50,
		MaxMP:       50,
		AttackPower: 20,
		MagicPower:  20,
	}
	for _, id := range skillIDs {
		c.Skills = append(c.Skills, &world.LearnedSkill{SkillID: id, Level: 1, Slot: 1})
	}
	return c
}

func testMonster(id string, hp int32, x, y float64) *world.Monster {
	return &world.Monster{ID: id, Name: "Gnoll", HP: hp, MaxHP: hp, X: x, Y: y, ExpReward: 100}
}

func TestUseSkill_NotLearned(t *testing.T) {
	deps := testDeps(firebolt())
	e := NewSkillEngine(deps)
	actor := testMage() // knows nothing

	res := e.UseSkill(actor, Request{SkillID: 1, TargetID: "mob-1"}, 1000)
	if res.Success || res.FailReason != FailSkillNotLearned {
		t.Errorf("got %+v, want SKILL_NOT_LEARNED", res)
	}
}

func TestUseSkill_TemplateNotFound(t *testing.T) {
	deps := testDeps() // empty catalog
	e := NewSkillEngine(deps)
	actor := testMage(1)

	res := e.UseSkill(actor, Request{SkillID: 1}, 1000)
	if res.Success || res.FailReason != FailTemplateNotFound {
		t.Errorf("got %+v, want TEMPLATE_NOT_FOUND", res)
	}
}

func TestUseSkill_Cooldown(t *testing.T) {
	deps := testDeps(firebolt())
	deps.World.AddMonster(testMonster("mob-1", 50, 3, 4))
	e := NewSkillEngine(deps)
	actor := testMage(1)

	first := e.UseSkill(actor, Request{SkillID: 1, TargetID: "mob-1"}, 1000)
	if !first.Success {
		t.Fatalf("first cast should succeed, got %+v", first)
	}
	if got := actor.Skills[0].LastUsedAt; got != 1000*1000 {
		t.Fatalf("lastUsedAt: got %d, want %d", got, 1000*1000)
	}

	mpBefore := actor.MP
	second := e.UseSkill(actor, Request{SkillID: 1, TargetID: "mob-1"}, 1001)
	if second.Success || second.FailReason != FailCooldown {
		t.Fatalf("got %+v, want COOLDOWN", second)
	}
	// A rejected cast leaves lastUsedTime, mana, and health untouched.
	if actor.Skills[0].LastUsedAt != 1000*1000 {
		t.Error("cooldown failure must not restamp lastUsedAt")
	}
	if actor.MP != mpBefore {
		t.Errorf("cooldown failure changed mana: %d -> %d", mpBefore, actor.MP)
	}

	// Exactly at the boundary the skill is usable again.
	third := e.UseSkill(actor, Request{SkillID: 1, TargetID: "mob-1"}, 1002)
	if !third.Success {
		t.Errorf("cast at cooldown boundary should succeed, got %+v", third)
	}
}

func TestUseSkill_NoMana(t *testing.T) {
	def := firebolt()
	def.ManaCost = 20
	deps := testDeps(def)
	deps.World.AddMonster(testMonster("mob-1", 50, 3, 4))
	e := NewSkillEngine(deps)
	actor := testMage(1)
	actor.MP = 10

	res := e.UseSkill(actor, Request{SkillID: 1, TargetID: "mob-1"}, 1000)
	if res.Success || res.FailReason != FailNoMana {
		t.Fatalf("got %+v, want NO_MANA", res)
	}
	if actor.MP != 10 {
		t.Errorf("mana after rejection: got %d, want 10", actor.MP)
	}
	if deps.Effects.EffectCount() != 0 {
		t.Error("rejected cast must schedule no effects")
	}
}

func TestUseSkill_ManaCheckedBeforeHealth(t *testing.T) {
	def := firebolt()
	def.ManaCost = 20
	def.HealthCost = 200
	deps := testDeps(def)
	deps.World.AddMonster(testMonster("mob-1", 50, 3, 4))
	e := NewSkillEngine(deps)
	actor := testMage(1)
	actor.MP = 5 // fails both; mana reason wins

	res := e.UseSkill(actor, Request{SkillID: 1, TargetID: "mob-1"}, 1000)
	if res.FailReason != FailNoMana {
		t.Errorf("got %q, want NO_MANA", res.FailReason)
	}
}

func TestUseSkill_NoHealth(t *testing.T) {
	def := firebolt()
	def.HealthCost = 150
	deps := testDeps(def)
	deps.World.AddMonster(testMonster("mob-1", 50, 3, 4))
	e := NewSkillEngine(deps)
	actor := testMage(1)

	res := e.UseSkill(actor, Request{SkillID: 1, TargetID: "mob-1"}, 1000)
	if res.Success || res.FailReason != FailNoHealth {
		t.Errorf("got %+v, want NO_HEALTH", res)
	}
}

func TestUseSkill_OutOfRange(t *testing.T) {
	deps := testDeps(firebolt()) // range 8
	deps.World.AddMonster(testMonster("mob-1", 50, 0, 12))
	e := NewSkillEngine(deps)
	actor := testMage(1)

	res := e.UseSkill(actor, Request{SkillID: 1, TargetID: "mob-1"}, 1000)
	if res.Success || res.FailReason != FailNoValidTarget {
		t.Errorf("distance 12 vs range 8: got %+v, want NO_VALID_TARGET", res)
	}
	if actor.MP != 50 || actor.Skills[0].LastUsedAt != 0 {
		t.Error("rejected cast must not consume resources or stamp cooldown")
	}
}

func TestUseSkill_MissingAndDeadTargets(t *testing.T) {
	deps := testDeps(firebolt())
	dead := testMonster("mob-dead", 50, 1, 1)
	dead.Dead = true
	deps.World.AddMonster(dead)
	e := NewSkillEngine(deps)
	actor := testMage(1)

	for _, targetID := range []string{"", "mob-missing", "mob-dead"} {
		res := e.UseSkill(actor, Request{SkillID: 1, TargetID: targetID}, 1000)
		if res.Success || res.FailReason != FailNoValidTarget {
			t.Errorf("target %q: got %+v, want NO_VALID_TARGET", targetID, res)
		}
	}
}

func TestUseSkill_DamageFormula(t *testing.T) {
	deps := testDeps(firebolt())
	// Distance 6, within range 8. base 10 + floor(20 * 0.5) = 20 raw.
	deps.World.AddMonster(testMonster("mob-1", 50, 0, 6))
	e := NewSkillEngine(deps)
	actor := testMage(1)

	res := e.UseSkill(actor, Request{SkillID: 1, TargetID: "mob-1"}, 1000)
	if !res.Success {
		t.Fatalf("cast failed: %+v", res)
	}
	if len(res.Targets) != 1 {
		t.Fatalf("targets: got %d, want 1", len(res.Targets))
	}
	tr := res.Targets[0]
	if tr.Damage != 20 {
		t.Errorf("damage: got %d, want 20", tr.Damage)
	}
	if tr.Critical {
		t.Error("crit with negative bonus should be impossible")
	}
	if tr.RemainingHealth != 30 {
		t.Errorf("remaining health: got %d, want 30", tr.RemainingHealth)
	}
	if tr.TargetDied {
		t.Error("target should survive")
	}
	if res.ManaCost != 10 || actor.MP != 40 {
		t.Errorf("mana: cost %d, remaining %d; want 10 and 40", res.ManaCost, actor.MP)
	}
}

func TestUseSkill_CriticalHit(t *testing.T) {
	def := firebolt()
	def.Levels[0].CritChanceBonus = alwaysCrit // 0.05 + 0.95 = certain
	deps := testDeps(def)
	deps.World.AddMonster(testMonster("mob-1", 100, 0, 6))
	e := NewSkillEngine(deps)
	actor := testMage(1)

	res := e.UseSkill(actor, Request{SkillID: 1, TargetID: "mob-1"}, 1000)
	if !res.Success {
		t.Fatalf("cast failed: %+v", res)
	}
	tr := res.Targets[0]
	if !tr.Critical {
		t.Fatal("crit chance 1.0 must crit")
	}
	// floor(20 * 1.5) = 30
	if tr.Damage != 30 {
		t.Errorf("crit damage: got %d, want 30", tr.Damage)
	}
}

func TestUseSkill_PhysicalUsesAttackPower(t *testing.T) {
	def := firebolt()
	def.DamageType = data.DamagePhysical
	deps := testDeps(def)
	deps.World.AddMonster(testMonster("mob-1", 100, 0, 6))
	e := NewSkillEngine(deps)
	actor := testMage(1)
	actor.AttackPower = 40
	actor.MagicPower = 0

	res := e.UseSkill(actor, Request{SkillID: 1, TargetID: "mob-1"}, 1000)
	// base 10 + floor(40 * 0.5) = 30
	if got := res.Targets[0].Damage; got != 30 {
		t.Errorf("physical damage: got %d, want 30", got)
	}
}

func TestUseSkill_KillGrantsExperience(t *testing.T) {
	deps := testDeps(firebolt())
	mob := testMonster("mob-1", 15, 0, 4)
	mob.ExpReward = 1500
	deps.World.AddMonster(mob)
	e := NewSkillEngine(deps)
	actor := testMage(1)
	actor.Level = 1

	res := e.UseSkill(actor, Request{SkillID: 1, TargetID: "mob-1"}, 1000)
	tr := res.Targets[0]
	if !tr.TargetDied {
		t.Fatalf("20 raw vs 15 hp should kill, got %+v", tr)
	}
	if tr.Damage != 15 {
		t.Errorf("actual damage capped at remaining hp: got %d, want 15", tr.Damage)
	}
	if tr.RemainingHealth != 0 {
		t.Errorf("remaining health: got %d, want 0", tr.RemainingHealth)
	}
	if tr.ExperienceGained != 1500 {
		t.Errorf("exp: got %d, want 1500", tr.ExperienceGained)
	}
	if !tr.LeveledUp || tr.NewLevel != 2 {
		t.Errorf("level-up: got leveled=%v level=%d, want level 2", tr.LeveledUp, tr.NewLevel)
	}
	if mob.Alive() {
		t.Error("monster should be dead")
	}
}

func TestUseSkill_SelfHealClamped(t *testing.T) {
	def := &data.SkillDefinition{
		ID:       2,
		Name:     "Mend Wounds",
		Target:   data.TargetSelf,
		ManaCost: 12,
		Cooldown: 4,
		MaxLevel: 1,
		Levels: []data.LevelData{
			{Level: 1, BaseHealing: 20, DamageMultiplier: 0.5},
		},
	}
	deps := testDeps(def)
	e := NewSkillEngine(deps)
	actor := testMage(2)
	actor.HP = 90 // heal amount 20 + floor(20*0.5) = 30, capped at +10

	res := e.UseSkill(actor, Request{SkillID: 2}, 1000)
	if !res.Success {
		t.Fatalf("cast failed: %+v", res)
	}
	tr := res.Targets[0]
	if tr.TargetID != actor.SessionID || tr.TargetType != targetTypePlayer {
		t.Errorf("self skill must target the actor, got %+v", tr)
	}
	if tr.Healing != 10 {
		t.Errorf("healing delta: got %d, want 10", tr.Healing)
	}
	if actor.HP != 100 {
		t.Errorf("hp: got %d, want 100", actor.HP)
	}
}

func TestUseSkill_AreaSchedulesOneEffectPerTarget(t *testing.T) {
	def := &data.SkillDefinition{
		ID:         3,
		Name:       "Frost Nova",
		Target:     data.TargetArea,
		AreaRadius: 6,
		ManaCost:   25,
		Cooldown:   10,
		DamageType: data.DamageMagical,
		MaxLevel:   1,
		Levels: []data.LevelData{
			{Level: 1, BaseDamage: 8, DamageMultiplier: 0.35, CritChanceBonus: neverCrit},
		},
		Effects: []data.EffectDefinition{
			{Kind: "debuff", Stat: "move_speed", Magnitude: -30, Duration: 4, Chance: 1.0},
		},
	}
	deps := testDeps(def)
	deps.World.AddMonster(testMonster("mob-1", 50, 1, 1))
	deps.World.AddMonster(testMonster("mob-2", 50, 2, 2))
	deps.World.AddMonster(testMonster("mob-3", 50, 3, 3))
	deps.World.AddMonster(testMonster("mob-far", 50, 40, 40)) // outside radius
	e := NewSkillEngine(deps)
	actor := testMage(3)

	const now = int64(2000)
	res := e.UseSkill(actor, Request{SkillID: 3}, now)
	if !res.Success {
		t.Fatalf("cast failed: %+v", res)
	}
	if len(res.Targets) != 3 {
		t.Fatalf("area targets: got %d, want 3", len(res.Targets))
	}
	if deps.Effects.EffectCount() != 3 {
		t.Fatalf("scheduled effects: got %d, want 3", deps.Effects.EffectCount())
	}
	for _, id := range []string{"mob-1", "mob-2", "mob-3"} {
		effects := deps.Effects.ForTarget(id)
		if len(effects) != 1 {
			t.Fatalf("%s effects: got %d, want 1", id, len(effects))
		}
		if effects[0].StartTime != now {
			t.Errorf("%s start time: got %d, want %d", id, effects[0].StartTime, now)
		}
		if effects[0].SourceID != actor.SessionID {
			t.Errorf("%s source: got %q, want %q", id, effects[0].SourceID, actor.SessionID)
		}
	}
	if deps.Effects.ForTarget("mob-far") != nil {
		t.Error("out-of-radius monster must not receive effects")
	}
}

func TestUseSkill_ZeroChanceEffectNeverScheduled(t *testing.T) {
	def := firebolt()
	def.Effects = []data.EffectDefinition{
		{Kind: "dot", Stat: "health", Magnitude: 2, Duration: 6, Chance: 0},
	}
	deps := testDeps(def)
	deps.World.AddMonster(testMonster("mob-1", 50, 0, 4))
	e := NewSkillEngine(deps)
	actor := testMage(1)

	res := e.UseSkill(actor, Request{SkillID: 1, TargetID: "mob-1"}, 1000)
	if !res.Success {
		t.Fatalf("cast failed: %+v", res)
	}
	if deps.Effects.EffectCount() != 0 {
		t.Error("chance 0 effect must never be scheduled")
	}
}

func TestUseSkill_LevelDataFallback(t *testing.T) {
	def := firebolt() // only level 1 data defined
	deps := testDeps(def)
	deps.World.AddMonster(testMonster("mob-1", 50, 0, 4))
	e := NewSkillEngine(deps)
	actor := testMage(1)
	actor.Skills[0].Level = 2 // no LevelData for level 2

	res := e.UseSkill(actor, Request{SkillID: 1, TargetID: "mob-1"}, 1000)
	if !res.Success {
		t.Fatalf("missing level data must fall back, got %+v", res)
	}
	if got := res.Targets[0].Damage; got != 20 {
		t.Errorf("fallback damage: got %d, want 20 from level 1 data", got)
	}
}

func TestUseSkill_ConcurrentCastsSerialize(t *testing.T) {
	deps := testDeps(firebolt())
	deps.World.AddMonster(testMonster("mob-1", 1_000_000, 0, 4))
	e := NewSkillEngine(deps)
	actor := testMage(1)

	// Same actor, same server second: the entity lock serializes the casts
	// and the second one must observe the first one's cooldown stamp.
	const casters = 8
	var wg sync.WaitGroup
	results := make([]*SkillResult, casters)
	for i := 0; i < casters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = e.UseSkill(actor, Request{SkillID: 1, TargetID: "mob-1"}, 5000)
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, res := range results {
		if res.Success {
			successes++
		} else if res.FailReason != FailCooldown {
			t.Errorf("unexpected failure: %q", res.FailReason)
		}
	}
	if successes != 1 {
		t.Errorf("successful casts: got %d, want exactly 1", successes)
	}
	if actor.MP != 40 {
		t.Errorf("mana deducted %d times, want once (mp=%d)", (50-actor.MP)/10, actor.MP)
	}
}
