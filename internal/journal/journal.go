package journal

import (
	"github.com/emberfall/server/internal/core/event"
	"go.uber.org/zap"
)

// Attach subscribes structured combat-journal log lines to the event bus.
// Presentation (combat log text the player sees) stays with the client; this
// is the server-side record.
func Attach(bus *event.Bus, log *zap.Logger) {
	event.Subscribe(bus, func(ev event.SkillUsed) {
		if ev.Success {
			log.Info("skill used",
				zap.String("attacker", ev.AttackerID),
				zap.Int32("skill_id", ev.SkillID),
				zap.Int("targets", ev.Targets))
			return
		}
		log.Debug("skill rejected",
			zap.String("attacker", ev.AttackerID),
			zap.Int32("skill_id", ev.SkillID),
			zap.String("reason", ev.FailReason))
	})

	event.Subscribe(bus, func(ev event.MonsterKilled) {
		log.Info("kill",
			zap.String("monster", ev.MonsterName),
			zap.String("killer", ev.KillerID),
			zap.Int64("exp", ev.Experience))
	})

	event.Subscribe(bus, func(ev event.SkillLearned) {
		log.Info("skill learned",
			zap.String("character", ev.CharacterID),
			zap.Int32("skill_id", ev.SkillID),
			zap.Int16("slot", ev.Slot))
	})

	event.Subscribe(bus, func(ev event.SkillLeveled) {
		log.Info("skill leveled",
			zap.String("character", ev.CharacterID),
			zap.Int32("skill_id", ev.SkillID),
			zap.Int16("level", ev.NewLevel))
	})
}
