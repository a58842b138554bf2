package gdbserver

import "rvcsim/internal/cpu"

// RegisterFile is the core-agnostic debug register map shared by the
// decoder and the debug stub (register map, endianness, PC getter).
// Index order is GDB's regnum order for the target description:
// 0..31 are the integer GPRs, 32 is pc, and anything beyond that is
// reported unmapped by this simulator's register file (the FPR/CSR/vector
// slots target.xml advertises exist for feature-negotiation completeness,
// not because this subset emulates them).
type RegisterFile interface {
	// NumRegisters is the regnum space size target.xml advertises.
	NumRegisters() int
	// RegisterSize returns the width in bytes of register n.
	RegisterSize(n int) int
	// ReadRegister returns the value of register n and whether it is
	// mapped; an unmapped register answers individual reads with EFF and
	// poisons a whole-register-file `g` response.
	ReadRegister(n int) (uint64, bool)
	// WriteRegister stores v into register n and reports whether n is
	// mapped; writing an unmapped register is rejected with EFF.
	WriteRegister(n int, v uint64) bool
}

// PCIndex is the regnum of the program counter in the target description.
const PCIndex = 32

// NumDescribedRegisters matches the target.xml register count: 32 GPRs,
// pc, 32 FPRs, and the handful of CSRs/vector registers buildTargetXML
// enumerates.
const NumDescribedRegisters = 32 + 1 + 32 + len(describedCSRs) + len(describedVectorRegs)

// CoreRegisters adapts a *cpu.State to RegisterFile: GPRs and pc are live,
// everything past PCIndex is unmapped.
type CoreRegisters struct {
	State *cpu.State
}

func (r CoreRegisters) NumRegisters() int { return NumDescribedRegisters }

func (r CoreRegisters) RegisterSize(n int) int {
	if n >= 0 && n <= PCIndex {
		return 8
	}
	if n > PCIndex && n <= PCIndex+32 {
		return 8 // riscv_double union slot
	}
	return 0
}

func (r CoreRegisters) ReadRegister(n int) (uint64, bool) {
	switch {
	case n >= 0 && n < PCIndex:
		return uint64(r.State.GetX(n)), true
	case n == PCIndex:
		return r.State.InstructionPointer, true
	default:
		return 0, false
	}
}

func (r CoreRegisters) WriteRegister(n int, v uint64) bool {
	switch {
	case n == 0:
		return true // writes to x0 are accepted and discarded, per GPR semantics
	case n > 0 && n < PCIndex:
		r.State.SetX(n, int64(v))
		return true
	case n == PCIndex:
		r.State.InstructionPointer = v
		return true
	default:
		return false
	}
}

// DebugMemory is the memory side of the debug interface: byte-oriented
// reads/writes independent of the instruction-execution path, used by the
// `m`/`M` packets.
type DebugMemory interface {
	ReadMemory(addr uint64, length int) ([]byte, error)
	WriteMemory(addr uint64, data []byte) error
}
