package world

import (
	"sync"
	"sync/atomic"
)

// effectIDCounter generates process-wide unique effect ids. Never reused
// while the server runs.
var effectIDCounter atomic.Uint64

// ActiveEffect is a scheduled, time-bounded stat modifier on one target.
type ActiveEffect struct {
	ID        uint64
	SkillID   int32  // originating skill
	Kind      string
	Stat      string
	Magnitude int32
	StartTime int64 // server seconds
	Duration  int64 // seconds
	SourceID  string // casting actor's identity
}

// Expired reports whether the effect has run out at the given server time.
func (e *ActiveEffect) Expired(now int64) bool {
	return e.StartTime+e.Duration <= now
}

// EffectLedger owns every ActiveEffect in the process, keyed by the affected
// target's identity (player session id or monster instance id). Apply and
// Sweep may be called concurrently; one mutex keeps a target's list from
// being mutated mid-sweep.
type EffectLedger struct {
	mu       sync.Mutex
	byTarget map[string][]*ActiveEffect
}

func NewEffectLedger() *EffectLedger {
	return &EffectLedger{byTarget: make(map[string][]*ActiveEffect)}
}

// Apply schedules an effect against targetID, assigning it a fresh id.
// Duplicates from repeated casts accumulate freely; there is no stacking cap.
func (l *EffectLedger) Apply(targetID string, e ActiveEffect) *ActiveEffect {
	e.ID = effectIDCounter.Add(1)
	stored := &e
	l.mu.Lock()
	defer l.mu.Unlock()
	l.byTarget[targetID] = append(l.byTarget[targetID], stored)
	return stored
}

// Sweep removes every effect whose time has run out and drops a target's key
// once its list is empty. Returns the number of effects removed. Safe to
// call at any cadence alongside concurrent Apply calls.
func (l *EffectLedger) Sweep(now int64) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	removed := 0
	for targetID, effects := range l.byTarget {
		kept := effects[:0]
		for _, e := range effects {
			if e.Expired(now) {
				removed++
				continue
			}
			kept = append(kept, e)
		}
		if len(kept) == 0 {
			delete(l.byTarget, targetID)
		} else {
			l.byTarget[targetID] = kept
		}
	}
	return removed
}

// ForTarget returns a copy of the target's active effects for downstream
// stat aggregation.
func (l *EffectLedger) ForTarget(targetID string) []*ActiveEffect {
	l.mu.Lock()
	defer l.mu.Unlock()
	effects := l.byTarget[targetID]
	if len(effects) == 0 {
		return nil
	}
	out := make([]*ActiveEffect, len(effects))
	copy(out, effects)
	return out
}

// TargetCount returns how many targets currently have at least one effect.
func (l *EffectLedger) TargetCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.byTarget)
}

// EffectCount returns the total number of tracked effects.
func (l *EffectLedger) EffectCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, effects := range l.byTarget {
		n += len(effects)
	}
	return n
}
