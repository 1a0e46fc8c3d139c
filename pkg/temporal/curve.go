package temporal

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"
)

// Curve supplies the 24-element diurnal activity multiplier used to
// shape per-hour send probability (spec.md §4.3).
type Curve interface {
	Multipliers() [24]float64
}

// CampusCurve is the built-in diurnal shape: activity ramps up through
// the morning, peaks at 1.4 in the early afternoon, and falls to a
// 0.1 floor overnight.
type CampusCurve struct{}

var campusMultipliers = [24]float64{
	0: 0.1, 1: 0.1, 2: 0.1, 3: 0.1, 4: 0.1, 5: 0.15,
	6: 0.3, 7: 0.5, 8: 0.8, 9: 1.0, 10: 1.15, 11: 1.25,
	12: 1.35, 13: 1.4, 14: 1.35, 15: 1.2, 16: 1.1, 17: 1.0,
	18: 0.9, 19: 0.7, 20: 0.5, 21: 0.35, 22: 0.2, 23: 0.1,
}

// Multipliers returns the campus activity curve.
func (CampusCurve) Multipliers() [24]float64 {
	return campusMultipliers
}

// LuaCurve evaluates a user-supplied Lua script to produce a custom
// 24-element multiplier array, letting a sweep config explore
// activity shapes other than CampusCurve without a recompile. The
// script must return a table of 24 numbers, or a function(hour) that
// LuaCurve calls once per hour.
type LuaCurve struct {
	Script string

	cached    [24]float64
	evaluated bool
}

// Multipliers evaluates the script on first use and memoizes the
// result; the script runs exactly once per LuaCurve instance.
func (c *LuaCurve) Multipliers() [24]float64 {
	if c.evaluated {
		return c.cached
	}
	vals, err := evalLuaCurve(c.Script)
	if err != nil {
		// A malformed curve script degrades to the flat, uninformative
		// curve rather than aborting the experiment.
		for i := range vals {
			vals[i] = 1.0
		}
	}
	c.cached = vals
	c.evaluated = true
	return c.cached
}

func evalLuaCurve(script string) ([24]float64, error) {
	var out [24]float64
	L := lua.NewState()
	defer L.Close()

	if err := L.DoString(script); err != nil {
		return out, fmt.Errorf("evaluate curve script: %w", err)
	}

	ret := L.Get(-1)
	L.Pop(1)

	switch v := ret.(type) {
	case *lua.LTable:
		for i := 0; i < 24; i++ {
			out[i] = float64(lua.LVAsNumber(v.RawGetInt(i + 1)))
		}
		return out, nil
	case *lua.LFunction:
		for hour := 0; hour < 24; hour++ {
			if err := L.CallByParam(lua.P{Fn: v, NRet: 1, Protect: true}, lua.LNumber(hour)); err != nil {
				return out, fmt.Errorf("call curve function for hour %d: %w", hour, err)
			}
			out[hour] = float64(lua.LVAsNumber(L.Get(-1)))
			L.Pop(1)
		}
		return out, nil
	default:
		return out, fmt.Errorf("curve script must return a table or function, got %T", ret)
	}
}
