package world

import (
	"math"
	"math/rand"
	"sync"
)

// State is the in-memory registry of everything currently in-world.
// The registry maps are guarded by their own lock; entity state is guarded
// by each entity's own mutex (per-entity serialization).
type State struct {
	mu       sync.RWMutex
	players  map[string]*Character
	monsters map[string]*Monster
}

func NewState() *State {
	return &State{
		players:  make(map[string]*Character),
		monsters: make(map[string]*Monster),
	}
}

// AddPlayer registers a character under its session id.
func (s *State) AddPlayer(c *Character) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.players[c.SessionID] = c
}

// RemovePlayer drops a character from the registry.
func (s *State) RemovePlayer(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.players, sessionID)
}

// GetPlayer returns the character for a session id, or nil.
func (s *State) GetPlayer(sessionID string) *Character {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.players[sessionID]
}

// AllPlayers invokes fn for every registered character.
func (s *State) AllPlayers(fn func(*Character)) {
	s.mu.RLock()
	list := make([]*Character, 0, len(s.players))
	for _, c := range s.players {
		list = append(list, c)
	}
	s.mu.RUnlock()
	for _, c := range list {
		fn(c)
	}
}

// AddMonster registers a monster instance.
func (s *State) AddMonster(m *Monster) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.monsters[m.ID] = m
}

// GetMonster returns the monster with the given instance id, or nil.
func (s *State) GetMonster(id string) *Monster {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.monsters[id]
}

// MonstersWithin returns all living monsters within radius of (x, y) on the
// horizontal plane.
func (s *State) MonstersWithin(x, y, radius float64) []*Monster {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []*Monster
	for _, m := range s.monsters {
		if !m.Alive() {
			continue
		}
		if PlanarDist(x, y, m.X, m.Y) <= radius {
			result = append(result, m)
		}
	}
	return result
}

// PlanarDist is the Euclidean distance on the horizontal plane. Vertical
// offset is deliberately ignored for all skill range checks.
func PlanarDist(x1, y1, x2, y2 float64) float64 {
	return math.Hypot(x1-x2, y1-y2)
}

// RandFloat returns a uniform draw in [0,1). Bernoulli trials for crits and
// effect scheduling all go through here.
func RandFloat() float64 {
	return rand.Float64()
}

// RandInt returns a uniform draw in [0,n).
func RandInt(n int) int {
	return rand.Intn(n)
}
