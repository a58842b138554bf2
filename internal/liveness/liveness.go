// Package liveness is a minimal backward liveness pass over a basic
// block's decoded instructions, consuming the Reads/Writes
// register-dependency sets every rvc.CodeSet declares. It is the query
// surface a downstream block optimizer needs; the full translator that
// would consume it for real register allocation is out of scope.
package liveness

import "rvcsim/internal/rvc"

// Block is an ordered list of instructions (in program order) together
// with the liveness computed by New: for each instruction index, the set
// of registers live immediately after it executes.
type Block struct {
	codeSets []*rvc.CodeSet
	liveOut  []rvc.RegSet
}

// New runs backward liveness dataflow over codeSets, treating the last
// instruction's live-out set as empty (no successor block is known to
// this minimal pass).
func New(codeSets []*rvc.CodeSet) *Block {
	b := &Block{
		codeSets: codeSets,
		liveOut:  make([]rvc.RegSet, len(codeSets)),
	}
	var liveAfter rvc.RegSet
	for i := len(codeSets) - 1; i >= 0; i-- {
		b.liveOut[i] = liveAfter
		cs := codeSets[i]
		// live-in(i) = (live-out(i) - writes(i)) | reads(i); that becomes
		// the live-out of instruction i-1 in a single straight-line block.
		liveBefore := subtract(liveAfter, cs.Writes()).Union(cs.Reads())
		liveAfter = liveBefore
	}
	return b
}

// LiveOut returns the set of registers live immediately after
// instruction idx executes.
func (b *Block) LiveOut(idx int) rvc.RegSet {
	if idx < 0 || idx >= len(b.liveOut) {
		return 0
	}
	return b.liveOut[idx]
}

// IsDead reports whether reg is not live after instruction idx, i.e. a
// write to it at idx could be elided by a downstream optimizer because
// nothing before the block's end reads it again.
func (b *Block) IsDead(idx int, reg int) bool {
	return !b.LiveOut(idx).Has(reg)
}

func subtract(s, remove rvc.RegSet) rvc.RegSet {
	var out rvc.RegSet
	for _, r := range s.Registers() {
		if !remove.Has(r) {
			out = out.With(r)
		}
	}
	return out
}
