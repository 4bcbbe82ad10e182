package system

import (
	"github.com/emberfall/server/internal/core/event"
	"github.com/emberfall/server/internal/data"
	"github.com/emberfall/server/internal/scripting"
	"github.com/emberfall/server/internal/world"
	"go.uber.org/zap"
)

// Failure reason codes. A closed set: every validation failure maps to one of
// these in the result payload; none of them is ever a Go error.
const (
	FailSkillNotLearned  = "SKILL_NOT_LEARNED"
	FailTemplateNotFound = "TEMPLATE_NOT_FOUND"
	FailCooldown         = "COOLDOWN"
	FailNoMana           = "NO_MANA"
	FailNoHealth         = "NO_HEALTH"
	FailNoValidTarget    = "NO_VALID_TARGET"
)

// Request is the inbound use-skill request shape. TargetID is a monster
// instance id; it is only consulted for enemy-targeted skills.
type Request struct {
	SkillID  int32
	TargetID string
}

// SkillTargetResult is the authoritative per-target outcome of a cast.
type SkillTargetResult struct {
	TargetID         string
	TargetName       string
	TargetType       string
	Damage           int32
	Healing          int32
	Critical         bool
	RemainingHealth  int32
	TargetDied       bool
	ExperienceGained int64
	LeveledUp        bool
	NewLevel         int16
}

// SkillResult is the engine's output DTO and the only channel through which
// the client layer learns a cast's authoritative outcome.
type SkillResult struct {
	Success      bool
	FailReason   string // empty on success
	AttackerID   string
	AttackerName string
	SkillID      int32
	ManaCost     int32
	HealthCost   int32
	Targets      []SkillTargetResult
}

// SkillEngine is the single authority for skill execution. It alone mutates
// cooldown stamps, mana, health, and experience; everything else reads.
type SkillEngine struct {
	deps *Deps
}

func NewSkillEngine(deps *Deps) *SkillEngine {
	return &SkillEngine{deps: deps}
}

// UseSkill validates and executes one cast at the given server time
// (seconds). The actor's entity lock is held from validation through result
// assembly, so concurrent casts by the same actor serialize and each observes
// the previous cast's cooldown stamp. A failed request has zero side effects.
func (e *SkillEngine) UseSkill(actor *world.Character, req Request, now int64) *SkillResult {
	actor.Lock()
	defer actor.Unlock()

	res := &SkillResult{
		AttackerID:   actor.SessionID,
		AttackerName: actor.Name,
		SkillID:      req.SkillID,
	}
	fail := func(reason string) *SkillResult {
		res.FailReason = reason
		e.emitUsed(res)
		return res
	}

	learned := actor.SkillByID(req.SkillID)
	if learned == nil {
		return fail(FailSkillNotLearned)
	}

	def := e.deps.Catalog.Lookup(req.SkillID)
	if def == nil {
		return fail(FailTemplateNotFound)
	}
	learned.Attach(def)

	if now-learned.LastUsedAt/1000 < def.Cooldown {
		return fail(FailCooldown)
	}

	if actor.MP < def.ManaCost {
		return fail(FailNoMana)
	}
	if actor.HP < def.HealthCost {
		return fail(FailNoHealth)
	}

	targets := resolveTargets(actor, req, def, e.deps.World)
	if len(targets) == 0 {
		return fail(FailNoValidTarget)
	}

	// Validation passed. Stamp the cooldown before any target-side work so a
	// partial failure or re-entry can never bypass it, then take the costs.
	learned.LastUsedAt = now * 1000
	actor.MP -= def.ManaCost
	actor.HP -= def.HealthCost
	res.ManaCost = def.ManaCost
	res.HealthCost = def.HealthCost

	ld := def.LevelData(learned.Level)
	for _, t := range targets {
		res.Targets = append(res.Targets, e.resolveTarget(actor, def, ld, t, now))
	}

	res.Success = true
	e.emitUsed(res)
	return res
}

// resolveTarget computes and applies one target's outcome: damage or healing
// plus any effect scheduling.
func (e *SkillEngine) resolveTarget(actor *world.Character, def *data.SkillDefinition, ld *data.LevelData, t resolvedTarget, now int64) SkillTargetResult {
	tr := SkillTargetResult{
		TargetID:   t.identity(),
		TargetName: t.name(),
		TargetType: t.kind(),
	}

	switch {
	case t.monster != nil && ld != nil && ld.BaseDamage > 0:
		raw := rawDamage(ld.BaseDamage, attackStat(actor, def), ld.DamageMultiplier)
		if override, ok := e.luaDamage(actor, def, ld, t.monster); ok {
			raw = override
		}
		if rollCrit(ld) {
			raw = applyCrit(raw)
			tr.Critical = true
		}
		tr.Damage = t.monster.TakeDamage(raw)
		tr.RemainingHealth = t.monster.HPRemaining()
		if !t.monster.Alive() {
			tr.TargetDied = true
			tr.ExperienceGained = t.monster.ExpReward
			tr.LeveledUp = actor.GainExperience(t.monster.ExpReward)
			tr.NewLevel = actor.Level
			e.emitKill(actor, t.monster)
		}

	case t.player != nil && ld != nil && ld.BaseHealing > 0:
		// Self skills resolve onto the actor, whose lock is already held.
		tr.Healing = t.player.Heal(healAmount(ld.BaseHealing, actor.MagicPower, ld.DamageMultiplier))
		tr.RemainingHealth = t.player.HP

	case t.monster != nil:
		tr.RemainingHealth = t.monster.HPRemaining()

	default:
		tr.RemainingHealth = t.player.HP
	}

	// Independent Bernoulli trial per effect per target per cast.
	for _, eff := range def.Effects {
		if world.RandFloat() >= eff.Chance {
			continue
		}
		e.deps.Effects.Apply(t.identity(), world.ActiveEffect{
			SkillID:   def.ID,
			Kind:      eff.Kind,
			Stat:      eff.Stat,
			Magnitude: eff.Magnitude,
			StartTime: now,
			Duration:  eff.Duration,
			SourceID:  actor.SessionID,
		})
	}

	return tr
}

// luaDamage consults the scripted damage override, if any.
func (e *SkillEngine) luaDamage(actor *world.Character, def *data.SkillDefinition, ld *data.LevelData, m *world.Monster) (int32, bool) {
	if e.deps.Scripting == nil {
		return 0, false
	}
	return e.deps.Scripting.CalcSkillDamage(scripting.SkillDamageContext{
		SkillID:       def.ID,
		SkillLevel:    ld.Level,
		BaseDamage:    ld.BaseDamage,
		Multiplier:    ld.DamageMultiplier,
		AttackStat:    attackStat(actor, def),
		AttackerLevel: actor.Level,
		TargetHP:      m.HPRemaining(),
	})
}

func (e *SkillEngine) emitUsed(res *SkillResult) {
	if e.deps.Bus == nil {
		return
	}
	event.Emit(e.deps.Bus, event.SkillUsed{
		AttackerID: res.AttackerID,
		SkillID:    res.SkillID,
		Success:    res.Success,
		FailReason: res.FailReason,
		Targets:    len(res.Targets),
	})
	if res.Success {
		event.Emit(e.deps.Bus, event.CharacterDirty{CharacterID: res.AttackerID})
	}
}

func (e *SkillEngine) emitKill(actor *world.Character, m *world.Monster) {
	if e.deps.Bus == nil {
		return
	}
	event.Emit(e.deps.Bus, event.MonsterKilled{
		MonsterID:   m.ID,
		MonsterName: m.Name,
		KillerID:    actor.SessionID,
		Experience:  m.ExpReward,
	})
	if e.deps.Log != nil {
		e.deps.Log.Info("monster killed",
			zap.String("monster", m.Name),
			zap.String("killer", actor.Name),
			zap.Int64("exp", m.ExpReward))
	}
}
