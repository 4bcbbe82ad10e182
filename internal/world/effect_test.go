package world

import (
	"fmt"
	"sync"
	"testing"
)

func TestEffectLedger_ApplyAssignsUniqueIDs(t *testing.T) {
	l := NewEffectLedger()
	a := l.Apply("mob-1", ActiveEffect{SkillID: 1, StartTime: 100, Duration: 10})
	b := l.Apply("mob-1", ActiveEffect{SkillID: 1, StartTime: 100, Duration: 10})
	if a.ID == 0 || b.ID == 0 {
		t.Fatal("effect ids must be assigned")
	}
	if a.ID == b.ID {
		t.Errorf("duplicate effect ids: %d", a.ID)
	}
	// Duplicates from repeated casts coexist freely.
	if got := l.EffectCount(); got != 2 {
		t.Errorf("effect count: got %d, want 2", got)
	}
}

func TestEffectLedger_SweepBoundary(t *testing.T) {
	l := NewEffectLedger()
	l.Apply("mob-1", ActiveEffect{StartTime: 100, Duration: 10})

	// Not yet expired at 109.
	if removed := l.Sweep(109); removed != 0 {
		t.Errorf("sweep at 109 removed %d, want 0", removed)
	}
	if got := l.EffectCount(); got != 1 {
		t.Errorf("effect count after early sweep: got %d, want 1", got)
	}

	// start + duration <= now removes exactly at the boundary.
	if removed := l.Sweep(110); removed != 1 {
		t.Errorf("sweep at 110 removed %d, want 1", removed)
	}
	if got := l.TargetCount(); got != 0 {
		t.Errorf("target key should be dropped once its list empties, got %d keys", got)
	}
}

func TestEffectLedger_SweepKeepsUnexpired(t *testing.T) {
	l := NewEffectLedger()
	l.Apply("mob-1", ActiveEffect{StartTime: 100, Duration: 5})
	l.Apply("mob-1", ActiveEffect{StartTime: 100, Duration: 50})
	l.Apply("p-1", ActiveEffect{StartTime: 100, Duration: 5})

	if removed := l.Sweep(105); removed != 2 {
		t.Errorf("removed %d, want 2", removed)
	}
	if got := len(l.ForTarget("mob-1")); got != 1 {
		t.Errorf("mob-1 effects: got %d, want 1", got)
	}
	if l.ForTarget("p-1") != nil {
		t.Error("p-1 should have no effects left")
	}
	if got := l.TargetCount(); got != 1 {
		t.Errorf("target count: got %d, want 1", got)
	}
}

func TestEffectLedger_ConcurrentApplyAndSweep(t *testing.T) {
	l := NewEffectLedger()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			target := fmt.Sprintf("mob-%d", n%3)
			for j := 0; j < 200; j++ {
				l.Apply(target, ActiveEffect{StartTime: int64(j), Duration: 1})
			}
		}(i)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for j := 0; j < 200; j++ {
			l.Sweep(int64(j))
		}
	}()
	wg.Wait()

	// Everything applied had expired by the end; a final sweep must empty it.
	l.Sweep(1000)
	if got := l.TargetCount(); got != 0 {
		t.Errorf("ledger should be empty after final sweep, got %d targets", got)
	}
}
