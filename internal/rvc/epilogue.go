package rvc

import "rvcsim/internal/cpu"

// classifyReturn inspects the InitialRequired ops an emitter produced and
// derives the epilogue's return policy: always return for
// unconditional/indirect control transfer, return only if diverged for
// conditional branches, otherwise return only on return_pending/exception.
func classifyReturn(cs *CodeSet) ReturnPolicy {
	for _, f := range cs.Fragments {
		for _, op := range f.Ops {
			switch op.Code {
			case OpSetNextPCRel, OpSetNextPCRegMask1:
				return ReturnAlways
			case OpBranchIfZero, OpBranchIfNotZero:
				return ReturnIfDiverged
			}
		}
	}
	return ReturnIfPendingOrException
}

// withEpilogue appends the AppendedReturningRequired metadata fragment
// every instruction body must carry.
func withEpilogue(cs *CodeSet) *CodeSet {
	cs.Fragments = append(cs.Fragments, Fragment{
		Phase:  AppendedReturningRequired,
		Return: classifyReturn(cs),
	})
	return cs
}

// finalizeEpilogues wraps every registered Emit function so that every
// CodeSet this table produces carries its epilogue fragment, without
// requiring each per-mnemonic emitter above to build it by hand.
func finalizeEpilogues(t *Table) *Table {
	for width, defs := range t.byWidth {
		for i := range defs {
			orig := defs[i].Emit
			defs[i].Emit = func(word uint32, ctx cpu.Context) *CodeSet {
				return withEpilogue(orig(word, ctx))
			}
		}
		t.byWidth[width] = defs
	}
	return t
}
