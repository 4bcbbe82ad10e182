package system

import (
	"github.com/emberfall/server/internal/data"
	"github.com/emberfall/server/internal/world"
)

// Target types reported in SkillTargetResult.TargetType.
const (
	targetTypePlayer  = "player"
	targetTypeMonster = "monster"
)

// resolvedTarget is one concrete target of a cast: either a player (only the
// actor, for self skills) or a monster.
type resolvedTarget struct {
	player  *world.Character
	monster *world.Monster
}

func (t resolvedTarget) identity() string {
	if t.monster != nil {
		return t.monster.ID
	}
	return t.player.SessionID
}

func (t resolvedTarget) name() string {
	if t.monster != nil {
		return t.monster.Name
	}
	return t.player.Name
}

func (t resolvedTarget) kind() string {
	if t.monster != nil {
		return targetTypeMonster
	}
	return targetTypePlayer
}

// resolveTargets maps a request onto the set of valid targets for the skill.
// An empty result is a normal outcome the engine reports as NO_VALID_TARGET;
// a missing, dead, or out-of-range enemy target deliberately collapses into
// the same empty set.
func resolveTargets(actor *world.Character, req Request, def *data.SkillDefinition, ws *world.State) []resolvedTarget {
	switch def.Target {
	case data.TargetSelf:
		return []resolvedTarget{{player: actor}}

	case data.TargetEnemy:
		if req.TargetID == "" {
			return nil
		}
		m := ws.GetMonster(req.TargetID)
		if m == nil || !m.Alive() {
			return nil
		}
		if world.PlanarDist(actor.X, actor.Y, m.X, m.Y) > def.Range {
			return nil
		}
		return []resolvedTarget{{monster: m}}

	case data.TargetArea:
		monsters := ws.MonstersWithin(actor.X, actor.Y, def.AreaRadius)
		targets := make([]resolvedTarget, 0, len(monsters))
		for _, m := range monsters {
			targets = append(targets, resolvedTarget{monster: m})
		}
		return targets
	}
	return nil
}
