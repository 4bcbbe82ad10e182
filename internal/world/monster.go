package world

import "sync"

// Monster holds runtime state for a spawned monster instance. The skill
// engine only reads position/health/aliveness and calls TakeDamage; AI and
// pathing live elsewhere and go through the same lock.
type Monster struct {
	mu sync.Mutex

	ID         string // instance id, the monster's target identity
	TemplateID int32
	Name       string

	X, Y, Z float64

	HP        int32
	MaxHP     int32
	Defense   int32 // flat mitigation applied inside the damage intake
	ExpReward int64

	Dead bool
}

// Alive reports whether the monster can still be targeted.
func (m *Monster) Alive() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.Dead && m.HP > 0
}

// HPRemaining returns current health.
func (m *Monster) HPRemaining() int32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.HP
}

// TakeDamage applies the monster's own mitigation to the incoming raw damage,
// lowers HP, and updates aliveness. Returns the actual damage dealt, which
// may be less than raw. Killing blows flip Dead exactly once.
func (m *Monster) TakeDamage(raw int32) int32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Dead {
		return 0
	}
	dmg := raw - m.Defense
	if dmg < 0 {
		dmg = 0
	}
	if dmg > m.HP {
		dmg = m.HP
	}
	m.HP -= dmg
	if m.HP <= 0 {
		m.HP = 0
		m.Dead = true
	}
	return dmg
}
