package rvc

import "rvcsim/internal/cpu"

// Exec interprets a CodeSet against cpu, using sys for memory/exception
// callbacks and guard (which may be nil) for the pre-instruction hook.
// A dynamic translator would compile the rendered fragments instead;
// this reference interpreter is what both the test suite and the
// `rvcsim run` command use to actually execute a program.
//
// It returns the non-zero abort code a compiled block would propagate to
// its caller, or 0 if the block ran to completion.
func Exec(cs *CodeSet, c *cpu.State, sys cpu.System, ctx cpu.Context, guard cpu.Guard) int {
	c.NextPc = ctx.CurrentAddress + 2
fragments:
	for _, f := range cs.Fragments {
		if f.Phase == PreInitialDebugReturning && guard == nil {
			continue
		}
		for _, op := range f.Ops {
			r := execOp(op, c, sys, ctx, guard)
			switch {
			case r == skipContinue:
				continue
			case r == skipInstruction:
				// The guard asked us to skip the instruction body
				// without aborting the block: nextPc stays at the
				// fallthrough address and nothing else in this
				// CodeSet runs.
				c.NextPc = ctx.CurrentAddress + 2
				break fragments
			case f.Phase == PreInitialDebugReturning:
				// The guard aborted the block before the body ran;
				// the instruction has not executed, so the committed
				// PC must not move past it.
				return r
			default:
				c.InstructionPointer = c.NextPc
				return r
			}
		}
	}
	c.InstructionPointer = c.NextPc
	return 0
}

const (
	skipContinue    = 0
	skipInstruction = cpu.SkipInstructionSentinel
)

func execOp(op IROp, c *cpu.State, sys cpu.System, ctx cpu.Context, guard cpu.Guard) int {
	switch op.Code {
	case OpNop:
	case OpSetNextPCRel:
		c.NextPc = ctx.CurrentAddress + uint64(op.Imm)
	case OpSetNextPCRegMask1:
		c.NextPc = uint64(c.GetX(op.Src1)) &^ 1
	case OpLoadImm:
		setX(c, op.Dst, op.Imm)
	case OpMoveReg:
		setX(c, op.Dst, c.GetX(op.Src1))
	case OpAddRegReg:
		setX(c, op.Dst, c.GetX(op.Src1)+c.GetX(op.Src2))
	case OpAddRegImm:
		setX(c, op.Dst, c.GetX(op.Src1)+op.Imm)
	case OpSubRegReg:
		setX(c, op.Dst, c.GetX(op.Src1)-c.GetX(op.Src2))
	case OpAndRegReg:
		setX(c, op.Dst, c.GetX(op.Src1)&c.GetX(op.Src2))
	case OpOrRegReg:
		setX(c, op.Dst, c.GetX(op.Src1)|c.GetX(op.Src2))
	case OpXorRegReg:
		setX(c, op.Dst, c.GetX(op.Src1)^c.GetX(op.Src2))
	case OpAndRegImm:
		setX(c, op.Dst, c.GetX(op.Src1)&op.Imm)
	case OpShlRegImm:
		setX(c, op.Dst, c.GetX(op.Src1)<<uint(op.Imm))
	case OpShrLogicalRegImm:
		setX(c, op.Dst, int64(uint64(c.GetX(op.Src1))>>uint(op.Imm)))
	case OpShrArithRegImm:
		setX(c, op.Dst, c.GetX(op.Src1)>>uint(op.Imm))
	case OpLoadWord:
		addr := uint64(c.GetX(op.Src1) + op.Imm)
		v, err := sys.ReadMemory(addr, 4)
		if err != nil {
			sys.Raise(c, ctx.Mode, cpu.CauseLoadAccessFault)
			return cpu.CauseLoadAccessFault
		}
		setX(c, op.Dst, int64(int32(uint32(v))))
	case OpStoreWord:
		addr := uint64(c.GetX(op.Src1) + op.Imm)
		if err := sys.WriteMemory(addr, 4, uint64(uint32(c.GetX(op.Src2)))); err != nil {
			sys.Raise(c, ctx.Mode, cpu.CauseStoreAccessFault)
			return cpu.CauseStoreAccessFault
		}
	case OpLinkRA:
		setX(c, 1, int64(ctx.CurrentAddress+2))
	case OpBranchIfZero:
		if c.GetX(op.Src1) == 0 {
			c.NextPc = ctx.CurrentAddress + uint64(op.Imm)
		}
	case OpBranchIfNotZero:
		if c.GetX(op.Src1) != 0 {
			c.NextPc = ctx.CurrentAddress + uint64(op.Imm)
		}
	case OpRaise:
		c.Exception = cpu.CauseNone
		sys.Raise(c, ctx.Mode, int(op.Imm))
		return int(op.Imm)
	case OpGuardCall:
		if guard == nil {
			return skipContinue
		}
		if r := guard.PreInstruction(c, sys, ctx); r != 0 {
			if r == cpu.SkipInstructionSentinel {
				return skipInstruction
			}
			return r
		}
	case OpGuardCallNoReturn:
		if guard != nil {
			guard.PreInstructionNoReturn(c, sys, ctx)
		}
	case OpCommitPC:
		c.InstructionPointer = c.NextPc
	}
	return skipContinue
}

// setX writes a GPR, suppressing writes to X[0] at the call site per the
// register-file aliasing note: the register file itself never
// special-cases X[0], because the fragment's declared Writes set must
// still record the intended destination even when the write is a no-op.
func setX(c *cpu.State, r int, v int64) {
	if r == 0 {
		return
	}
	c.SetX(r, v)
}
