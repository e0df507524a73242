// Package formula embeds a Lua VM that runs the tunable combat, XP, and
// encounter-ability formulas, so game design can retune numbers without
// a recompile.
package formula

import (
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM. Single-goroutine access only:
// a CreatureZoneManager or EncounterEngine calls it from its own zone
// actor goroutine and never shares it across zones without its own copy.
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine loads every *.lua file under scriptsDir/{combat,encounter,loot}.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{SkipOpenLibs: false})
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log}
	for _, sub := range []string{"combat", "encounter", "loot"} {
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

func (e *Engine) Close() { e.vm.Close() }

// MeleeContext holds pre-packed data for a creature-vs-player or
// player-vs-creature melee resolution.
type MeleeContext struct {
	AttackerLevel  int
	AttackerMinDmg int
	AttackerMaxDmg int
	TargetArmor    int
	TargetLevel    int
}

// MeleeResult is the outcome of a melee roll.
type MeleeResult struct {
	IsHit  bool
	Damage int
}

// CalcMelee calls Lua calc_melee(ctx). Falls back to a deterministic
// minimum-damage hit if the script is absent or errors, matching the
// teacher's "never block combat on a bad script" fallback discipline.
func (e *Engine) CalcMelee(ctx MeleeContext) MeleeResult {
	fn := e.vm.GetGlobal("calc_melee")
	if fn == lua.LNil {
		return MeleeResult{IsHit: true, Damage: ctx.AttackerMinDmg}
	}

	t := e.vm.NewTable()
	t.RawSetString("attacker_level", lua.LNumber(ctx.AttackerLevel))
	t.RawSetString("attacker_min_dmg", lua.LNumber(ctx.AttackerMinDmg))
	t.RawSetString("attacker_max_dmg", lua.LNumber(ctx.AttackerMaxDmg))
	t.RawSetString("target_armor", lua.LNumber(ctx.TargetArmor))
	t.RawSetString("target_level", lua.LNumber(ctx.TargetLevel))

	if err := e.vm.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, t); err != nil {
		e.log.Error("lua calc_melee error", zap.Error(err))
		return MeleeResult{IsHit: true, Damage: ctx.AttackerMinDmg}
	}
	result := e.vm.Get(-1)
	e.vm.Pop(1)
	rt, ok := result.(*lua.LTable)
	if !ok {
		return MeleeResult{IsHit: true, Damage: ctx.AttackerMinDmg}
	}
	return MeleeResult{
		IsHit:  rt.RawGetString("is_hit") == lua.LTrue,
		Damage: lInt(rt, "damage"),
	}
}

// LevelFromExp calls Lua level_from_exp(exp).
func (e *Engine) LevelFromExp(exp int64) int {
	return e.callIntFunc("level_from_exp", exp)
}

// XPForKill calls Lua xp_for_kill(creature_level, player_level).
func (e *Engine) XPForKill(creatureLevel, playerLevel int) int64 {
	return int64(e.callIntFunc("xp_for_kill", int64(creatureLevel), int64(playerLevel)))
}

// AbilityDamageContext holds pre-packed data for one encounter ability
// effect's damage amount.
type AbilityDamageContext struct {
	BaseDamage    int
	CasterLevel   int
	TargetArmor   int
	PhaseModifier float64 // e.g. damage_reduction from the active phase
}

// CalcAbilityDamage calls Lua calc_ability_damage(ctx). Falls back to
// BaseDamage unmodified if no script overrides it — an encounter
// author who doesn't need a custom curve simply omits the function.
func (e *Engine) CalcAbilityDamage(ctx AbilityDamageContext) int {
	fn := e.vm.GetGlobal("calc_ability_damage")
	if fn == lua.LNil {
		return ctx.BaseDamage
	}
	t := e.vm.NewTable()
	t.RawSetString("base_damage", lua.LNumber(ctx.BaseDamage))
	t.RawSetString("caster_level", lua.LNumber(ctx.CasterLevel))
	t.RawSetString("target_armor", lua.LNumber(ctx.TargetArmor))
	t.RawSetString("phase_modifier", lua.LNumber(ctx.PhaseModifier))

	if err := e.vm.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, t); err != nil {
		e.log.Error("lua calc_ability_damage error", zap.Error(err))
		return ctx.BaseDamage
	}
	result := e.vm.Get(-1)
	e.vm.Pop(1)
	return int(lua.LVAsNumber(result))
}

func lInt(t *lua.LTable, key string) int {
	return int(lua.LVAsNumber(t.RawGetString(key)))
}

func (e *Engine) callIntFunc(name string, args ...int64) int {
	fn := e.vm.GetGlobal(name)
	if fn == lua.LNil {
		e.log.Error("lua function not found", zap.String("name", name))
		return 0
	}
	lArgs := make([]lua.LValue, len(args))
	for i, a := range args {
		lArgs[i] = lua.LNumber(a)
	}
	if err := e.vm.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, lArgs...); err != nil {
		e.log.Error("lua call error", zap.String("func", name), zap.Error(err))
		return 0
	}
	result := e.vm.Get(-1)
	e.vm.Pop(1)
	return int(lua.LVAsNumber(result))
}
