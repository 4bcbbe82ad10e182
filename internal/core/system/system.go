package system

import "time"

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhaseInput      Phase = iota // 0: drain queued skill/progression requests
	PhaseUpdate                  // 1: skill resolution, game logic
	PhasePostUpdate              // 2: effect sweep, regen-style maintenance
	PhasePersist                 // 3: batch save of dirty characters
)

// System is the interface every tick system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
