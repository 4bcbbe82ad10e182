package system

import (
	"github.com/emberfall/server/internal/core/event"
	"github.com/emberfall/server/internal/data"
	"github.com/emberfall/server/internal/scripting"
	"github.com/emberfall/server/internal/world"
	"go.uber.org/zap"
)

// Deps holds shared dependencies injected into the skill systems.
type Deps struct {
	Catalog   *data.SkillTable
	World     *world.State
	Effects   *world.EffectLedger
	Scripting *scripting.Engine // optional; nil disables Lua overrides
	Bus       *event.Bus
	Log       *zap.Logger
}

// Clock is the single authoritative time source, in server seconds.
// Client-supplied time never enters any skill computation.
type Clock interface {
	Now() int64
}
