package system

import (
	"time"

	coresys "github.com/emberfall/server/internal/core/system"
	"github.com/emberfall/server/internal/world"
	"go.uber.org/zap"
)

// EffectSweepSystem expires active effects on a fixed tick cadence.
// PhasePostUpdate, after the tick's casts have scheduled their effects.
type EffectSweepSystem struct {
	ledger    *world.EffectLedger
	clock     Clock
	log       *zap.Logger
	interval  int // sweep every N ticks
	tickCount int
}

func NewEffectSweepSystem(ledger *world.EffectLedger, clock Clock, log *zap.Logger, intervalTicks int) *EffectSweepSystem {
	if intervalTicks < 1 {
		intervalTicks = 1
	}
	return &EffectSweepSystem{ledger: ledger, clock: clock, log: log, interval: intervalTicks}
}

func (s *EffectSweepSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *EffectSweepSystem) Update(_ time.Duration) {
	s.tickCount++
	if s.tickCount < s.interval {
		return
	}
	s.tickCount = 0
	if removed := s.ledger.Sweep(s.clock.Now()); removed > 0 {
		s.log.Debug("effects expired", zap.Int("removed", removed))
	}
}
