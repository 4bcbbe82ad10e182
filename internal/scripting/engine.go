package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM. Skill casts run concurrently, so all
// VM access is serialized behind the mutex; scripts must stay cheap.
type Engine struct {
	mu  sync.Mutex
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine creates a Lua engine and loads all scripts from the given
// directory tree. A missing directory is not an error: the override hooks
// simply stay undefined.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log}

	for _, sub := range []string{"core", "skill"} {
		if err := e.loadDir(filepath.Join(scriptsDir, sub)); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load %s scripts: %w", sub, err)
		}
	}
	return e, nil
}

func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.vm.Close()
}

// SkillDamageContext holds pre-packed data for a scripted damage override.
type SkillDamageContext struct {
	SkillID       int32
	SkillLevel    int16
	BaseDamage    int32
	Multiplier    float64
	AttackStat    int32
	AttackerLevel int16
	TargetHP      int32
}

// CalcSkillDamage calls the Lua calc_skill_damage override if a loaded script
// defines it. The second return is false when no override exists or the call
// fails, in which case the caller uses the built-in formula.
func (e *Engine) CalcSkillDamage(ctx SkillDamageContext) (int32, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	fn := e.vm.GetGlobal("calc_skill_damage")
	if fn == lua.LNil {
		return 0, false
	}

	t := e.vm.NewTable()
	t.RawSetString("skill_id", lua.LNumber(ctx.SkillID))
	t.RawSetString("skill_level", lua.LNumber(ctx.SkillLevel))
	t.RawSetString("base_damage", lua.LNumber(ctx.BaseDamage))
	t.RawSetString("multiplier", lua.LNumber(ctx.Multiplier))
	t.RawSetString("attack_stat", lua.LNumber(ctx.AttackStat))
	t.RawSetString("attacker_level", lua.LNumber(ctx.AttackerLevel))
	t.RawSetString("target_hp", lua.LNumber(ctx.TargetHP))

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, t); err != nil {
		e.log.Error("lua calc_skill_damage error", zap.Error(err))
		return 0, false
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)

	n, ok := result.(lua.LNumber)
	if !ok {
		// nil from the script means "no override for this skill"
		if result != lua.LNil {
			e.log.Error("lua calc_skill_damage returned non-number")
		}
		return 0, false
	}
	return int32(n), true
}
