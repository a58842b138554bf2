package gdbserver

import (
	"rvcsim/internal/breakpoint"
	"rvcsim/internal/cpu"
)

// WatchingSystem decorates a cpu.System with watchpoint testing: every
// memory access is checked against srv's watchpoint index before being
// delegated to the underlying system, so a watch-on-read/write address
// triggers a pause without the RVC emitter needing to know debug state
// exists at all.
type WatchingSystem struct {
	Underlying cpu.System
	Server     *Server
}

func (w WatchingSystem) ReadMemory(addr uint64, size int) (uint64, error) {
	w.check(addr, breakpoint.WatchRead)
	return w.Underlying.ReadMemory(addr, size)
}

func (w WatchingSystem) WriteMemory(addr uint64, size int, value uint64) error {
	w.check(addr, breakpoint.WatchWrite)
	return w.Underlying.WriteMemory(addr, size, value)
}

// Raise delegates trap delivery and then pauses: with a debugger
// attached, a breakpoint trap or memory-access fault stops execution for
// inspection rather than unwinding the simulation.
func (w WatchingSystem) Raise(c *cpu.State, mode cpu.Mode, cause int) {
	w.Underlying.Raise(c, mode, cause)
	w.Server.NoteTrap()
}

func (w WatchingSystem) check(addr uint64, class uint32) {
	if w.Server.watchpoints.Get(addr)&class != 0 {
		w.Server.NoteWatchHit()
	}
}
