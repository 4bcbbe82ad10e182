package world

import "time"

// WallClock is the production time source: server seconds since the Unix
// epoch. time.Now is monotonic-adjusted within a process, which is what the
// cooldown and effect-expiry math needs.
type WallClock struct{}

func (WallClock) Now() int64 {
	return time.Now().Unix()
}
