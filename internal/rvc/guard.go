package rvc

import "rvcsim/internal/cpu"

// InstrumentWithGuard wraps every Emit
// function in t so that the resulting CodeSet has a
// PreInitialDebugReturning fragment prepended, calling back into the
// debug server before the instruction's own semantics run. The guard
// itself reads/writes nothing in the register file, so it carries empty
// dependency sets.
//
// This is applied once, at ISA finalization time, to the whole table,
// never baked into an individual mnemonic's emitter, so that disabling
// the debug stub is a matter of using the un-instrumented table returned
// by BuildTable instead of this wrapper's result.
func InstrumentWithGuard(t *Table) *Table {
	out := NewTable()
	for _, defs := range t.byWidth {
		for _, d := range defs {
			d := d
			orig := d.Emit
			d.Emit = func(word uint32, ctx cpu.Context) *CodeSet {
				cs := orig(word, ctx)
				guardFragment := Fragment{Phase: PreInitialDebugReturning, Ops: []IROp{{Code: OpGuardCall}}}
				cs.Fragments = append([]Fragment{guardFragment}, cs.Fragments...)
				return cs
			}
			out.byWidth[d.Width] = append(out.byWidth[d.Width], d)
		}
	}
	return out
}
