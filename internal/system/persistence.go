package system

import (
	"context"
	"sync"
	"time"

	"github.com/emberfall/server/internal/core/event"
	coresys "github.com/emberfall/server/internal/core/system"
	"github.com/emberfall/server/internal/world"
	"go.uber.org/zap"
)

// PersistSystem batch-saves characters marked dirty by the event bus.
// PhasePersist, on a fixed tick cadence; SaveAll runs on shutdown so nothing
// in memory outlives the process unsaved.
type PersistSystem struct {
	world     *world.State
	persister CharacterPersister
	log       *zap.Logger
	interval  int
	tickCount int

	mu    sync.Mutex
	dirty map[string]struct{}
}

func NewPersistSystem(ws *world.State, persister CharacterPersister, bus *event.Bus, log *zap.Logger, intervalTicks int) *PersistSystem {
	if intervalTicks < 1 {
		intervalTicks = 1
	}
	s := &PersistSystem{
		world:     ws,
		persister: persister,
		log:       log,
		interval:  intervalTicks,
		dirty:     make(map[string]struct{}),
	}
	event.Subscribe(bus, func(ev event.CharacterDirty) {
		s.markDirty(ev.CharacterID)
	})
	return s
}

func (s *PersistSystem) Phase() coresys.Phase { return coresys.PhasePersist }

func (s *PersistSystem) markDirty(sessionID string) {
	s.mu.Lock()
	s.dirty[sessionID] = struct{}{}
	s.mu.Unlock()
}

func (s *PersistSystem) Update(_ time.Duration) {
	s.tickCount++
	if s.tickCount < s.interval {
		return
	}
	s.tickCount = 0

	s.mu.Lock()
	batch := s.dirty
	s.dirty = make(map[string]struct{})
	s.mu.Unlock()

	for sessionID := range batch {
		c := s.world.GetPlayer(sessionID)
		if c == nil {
			continue
		}
		s.save(c)
	}
}

// SaveAll persists every online character immediately, ignoring dirty flags.
// Called on graceful shutdown.
func (s *PersistSystem) SaveAll() {
	s.world.AllPlayers(func(c *world.Character) {
		s.save(c)
	})
}

func (s *PersistSystem) save(c *world.Character) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	// The entity lock keeps the saved snapshot consistent with in-flight casts.
	c.Lock()
	err := s.persister.Save(ctx, c)
	c.Unlock()

	if err != nil {
		s.log.Error("autosave failed",
			zap.String("character", c.Name),
			zap.Error(err))
	}
}
