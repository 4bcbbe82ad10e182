package system

import (
	"sync"
	"time"

	coresys "github.com/emberfall/server/internal/core/system"
	"go.uber.org/zap"
)

// SkillRequest is a queued use-skill request as handed over by the transport
// layer. Only the server clock decides timing; whatever the client believed
// about cooldowns is not carried here.
type SkillRequest struct {
	SessionID string
	SkillID   int32
	TargetID  string
}

// SkillSystem drains queued skill requests each tick in PhaseUpdate and
// feeds them to the execution engine with the authoritative clock.
type SkillSystem struct {
	deps   *Deps
	engine *SkillEngine
	clock  Clock

	mu       sync.Mutex
	requests []SkillRequest
}

func NewSkillSystem(deps *Deps, engine *SkillEngine, clock Clock) *SkillSystem {
	return &SkillSystem{deps: deps, engine: engine, clock: clock}
}

func (s *SkillSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

// QueueSkill enqueues a request. Safe to call from transport goroutines.
func (s *SkillSystem) QueueSkill(req SkillRequest) {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()
}

// Update processes all queued skill requests.
func (s *SkillSystem) Update(_ time.Duration) {
	s.mu.Lock()
	batch := s.requests
	s.requests = nil
	s.mu.Unlock()

	now := s.clock.Now()
	for _, req := range batch {
		actor := s.deps.World.GetPlayer(req.SessionID)
		if actor == nil {
			continue
		}
		res := s.engine.UseSkill(actor, Request{SkillID: req.SkillID, TargetID: req.TargetID}, now)
		s.deps.Log.Debug("use skill",
			zap.String("player", actor.Name),
			zap.Int32("skill_id", req.SkillID),
			zap.Bool("success", res.Success),
			zap.String("fail_reason", res.FailReason),
			zap.Int("targets", len(res.Targets)),
		)
	}
}
