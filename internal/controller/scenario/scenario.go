// Package scenario drives a controller.Controller from small Lua scripts,
// so an end-to-end mixer scenario (bring up a format, add tracks, force a
// cold-idle wake, tear down) can be written as data instead of Go control
// flow and replayed by both tests and the demo command.
package scenario

import (
	"fmt"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/STS-Dev-Team/platform-frameworks-av/internal/controller"
	"github.com/STS-Dev-Team/platform-frameworks-av/internal/fastmixer"
)

var commandNames = map[string]fastmixer.Command{
	"INITIAL":   fastmixer.CommandInitial,
	"HOT_IDLE":  fastmixer.CommandHotIdle,
	"COLD_IDLE": fastmixer.CommandColdIdle,
	"EXIT":      fastmixer.CommandExit,
	"MIX":       fastmixer.CommandMix,
	"WRITE":     fastmixer.CommandWrite,
	"MIX_WRITE": fastmixer.CommandMixWrite,
}

// Runner executes scenario scripts against one Controller. BufferProvider
// and VolumeProvider values are registered from Go and referenced from
// Lua by the small integer handle RegisterBuffer or RegisterVolume
// returns, since a Lua script
// has no way to construct a Go interface value itself.
type Runner struct {
	L    *lua.LState
	ctrl *controller.Controller

	buffers []fastmixer.BufferProvider
	volumes []fastmixer.VolumeProvider
}

// NewRunner builds a Runner wired to ctrl and installs the scenario
// vocabulary as Lua globals.
func NewRunner(ctrl *controller.Controller) *Runner {
	r := &Runner{L: lua.NewState(), ctrl: ctrl}
	r.install()
	return r
}

// Close releases the underlying Lua state.
func (r *Runner) Close() { r.L.Close() }

// RegisterBuffer makes p referenceable from Lua as an integer handle.
func (r *Runner) RegisterBuffer(p fastmixer.BufferProvider) int {
	r.buffers = append(r.buffers, p)
	return len(r.buffers) - 1
}

// RegisterVolume makes v referenceable from Lua as an integer handle.
func (r *Runner) RegisterVolume(v fastmixer.VolumeProvider) int {
	r.volumes = append(r.volumes, v)
	return len(r.volumes) - 1
}

// Run executes script to completion.
func (r *Runner) Run(script string) error {
	return r.L.DoString(script)
}

func (r *Runner) install() {
	L := r.L

	L.SetGlobal("set_command", L.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(1)
		cmd, ok := commandNames[name]
		if !ok {
			L.RaiseError("scenario: unknown command %q", name)
			return 0
		}
		r.ctrl.SetCommand(cmd)
		return 0
	}))

	L.SetGlobal("set_format", L.NewFunction(func(L *lua.LState) int {
		r.ctrl.SetFormat(L.CheckInt(1), L.CheckInt(2))
		return 0
	}))

	L.SetGlobal("add_track", L.NewFunction(func(L *lua.LState) int {
		slot := L.CheckInt(1)
		bufHandle := L.CheckInt(2)
		var vp fastmixer.VolumeProvider
		if L.GetTop() >= 3 && L.Get(3) != lua.LNil {
			vp = r.volumes[L.CheckInt(3)]
		}
		if bufHandle < 0 || bufHandle >= len(r.buffers) {
			L.RaiseError("scenario: unknown buffer handle %d", bufHandle)
			return 0
		}
		r.ctrl.AddTrack(slot, r.buffers[bufHandle], vp)
		return 0
	}))

	L.SetGlobal("modify_track", L.NewFunction(func(L *lua.LState) int {
		slot := L.CheckInt(1)
		bufHandle := L.CheckInt(2)
		var vp fastmixer.VolumeProvider
		if L.GetTop() >= 3 && L.Get(3) != lua.LNil {
			vp = r.volumes[L.CheckInt(3)]
		}
		r.ctrl.ModifyTrack(slot, r.buffers[bufHandle], vp)
		return 0
	}))

	L.SetGlobal("remove_track", L.NewFunction(func(L *lua.LState) int {
		r.ctrl.RemoveTrack(L.CheckInt(1))
		return 0
	}))

	L.SetGlobal("cold_wake", L.NewFunction(func(L *lua.LState) int {
		r.ctrl.TriggerColdWake()
		return 0
	}))

	L.SetGlobal("publish", L.NewFunction(func(L *lua.LState) int {
		r.ctrl.Publish()
		return 0
	}))

	L.SetGlobal("advance", L.NewFunction(func(L *lua.LState) int {
		ms := L.CheckNumber(1)
		time.Sleep(time.Duration(float64(ms) * float64(time.Millisecond)))
		return 0
	}))
}

// FormatError wraps a script failure with the offending script's name for
// easier reporting from the demo command.
func FormatError(name string, err error) error {
	return fmt.Errorf("scenario %q: %w", name, err)
}
