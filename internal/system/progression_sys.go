package system

import (
	"sync"
	"time"

	coresys "github.com/emberfall/server/internal/core/system"
	"go.uber.org/zap"
)

// LearnRequest asks to add a skill to a character's collection.
type LearnRequest struct {
	SessionID string
	SkillID   int32
	Slot      int16
}

// LevelUpRequest asks to spend status points on a known skill.
type LevelUpRequest struct {
	SessionID string
	SkillID   int32
}

// ProgressionSystem drains queued learn/level-up requests each tick and runs
// them through the gate. PhaseUpdate, alongside skill execution.
type ProgressionSystem struct {
	deps *Deps
	gate *ProgressionGate

	mu       sync.Mutex
	learns   []LearnRequest
	levelUps []LevelUpRequest
}

func NewProgressionSystem(deps *Deps, gate *ProgressionGate) *ProgressionSystem {
	return &ProgressionSystem{deps: deps, gate: gate}
}

func (s *ProgressionSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

// QueueLearn enqueues a learn request. Safe from transport goroutines.
func (s *ProgressionSystem) QueueLearn(req LearnRequest) {
	s.mu.Lock()
	s.learns = append(s.learns, req)
	s.mu.Unlock()
}

// QueueLevelUp enqueues a level-up request. Safe from transport goroutines.
func (s *ProgressionSystem) QueueLevelUp(req LevelUpRequest) {
	s.mu.Lock()
	s.levelUps = append(s.levelUps, req)
	s.mu.Unlock()
}

func (s *ProgressionSystem) Update(_ time.Duration) {
	s.mu.Lock()
	learns := s.learns
	levelUps := s.levelUps
	s.learns, s.levelUps = nil, nil
	s.mu.Unlock()

	for _, req := range learns {
		c := s.deps.World.GetPlayer(req.SessionID)
		if c == nil {
			continue
		}
		ok := s.gate.LearnSkill(c, req.SkillID, req.Slot)
		s.deps.Log.Debug("learn skill",
			zap.String("player", c.Name),
			zap.Int32("skill_id", req.SkillID),
			zap.Bool("ok", ok))
	}
	for _, req := range levelUps {
		c := s.deps.World.GetPlayer(req.SessionID)
		if c == nil {
			continue
		}
		ok := s.gate.LevelUpSkill(c, req.SkillID)
		s.deps.Log.Debug("level up skill",
			zap.String("player", c.Name),
			zap.Int32("skill_id", req.SkillID),
			zap.Bool("ok", ok))
	}
}
