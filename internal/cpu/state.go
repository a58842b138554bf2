// Package cpu defines the CPU state and host callback surface that the RVC
// semantic emitter mutates and invokes. It knows nothing about how an
// instruction word was decoded; it is the interface between the decoder
// (package rvc) and whatever drives the fetch/execute loop.
package cpu

import "fmt"

// Exception causes. Only the causes the RVC subset can raise are named
// here; the full privileged-mode cause list is out of scope.
const (
	CauseNone             = 0
	CauseIllegalInstr     = 2
	CauseBreakpoint       = 3
	CauseLoadAccessFault  = 5
	CauseStoreAccessFault = 7
)

// Mode distinguishes privilege levels for instructions that care (WSR/RSR
// analogues, CSR traps). The RVC subset never branches on it, but the field
// is part of the instruction-context contract passed to every emitter.
type Mode int

// NumRegisters is the width of the integer register file. X[0] is
// hard-wired to zero.
const NumRegisters = 32

// State is the CPU state as seen by emitted IR: the integer register file,
// the two program-counter views used during instruction commit, and the
// exception/return-control flags the outer loop inspects after every
// instruction.
type State struct {
	X [NumRegisters]int64

	// NextPc is the committed branch target computed by the instruction
	// body. It starts each instruction as current_address+width and may be
	// overwritten by control-transfer semantics.
	NextPc uint64

	// InstructionPointer is the committed PC, copied from NextPc at the
	// end of every instruction on every exit path.
	InstructionPointer uint64

	// Exception is CauseNone unless the instruction trapped.
	Exception int

	// ReturnPending asks the outer loop to stop dispatching further
	// instructions from the current compiled block even though no
	// exception occurred (e.g. a debugger request landed mid-block).
	ReturnPending bool
}

// GetX reads a register. Register 0 always reads as zero regardless of
// what was last stored into the backing array.
func (s *State) GetX(r int) int64 {
	if r == 0 {
		return 0
	}
	return s.X[r]
}

// SetX stores into a register unconditionally, including register 0. The
// register file itself does not special-case X[0]; callers that must
// suppress the write (every RVC emitter that targets a GPR) do so at the
// call site so that dependency metadata can still record the intended
// destination.
func (s *State) SetX(r int, v int64) {
	s.X[r] = v
}

// Context is the immutable per-instruction metadata passed to an emitter.
type Context struct {
	// CurrentAddress is the virtual PC of the instruction being emitted.
	CurrentAddress uint64
	// Mode is the privilege mode active while this instruction executes.
	Mode Mode
}

// System is the host callback table: memory I/O and exception delivery.
// Implementations are supplied by the surrounding interpreter/JIT; the
// decoder and emitter only ever see this interface.
type System interface {
	// ReadMemory reads size bytes (1, 2, 4, or 8) at addr and returns them
	// zero-extended into a uint64, little-endian.
	ReadMemory(addr uint64, size int) (uint64, error)
	// WriteMemory writes the low size bytes of value at addr, little-endian.
	WriteMemory(addr uint64, size int, value uint64) error
	// Raise delivers a trap: it records the cause on cpu and performs
	// whatever host-side exception delivery is appropriate for mode.
	Raise(cpu *State, mode Mode, cause int)
}

// Guard is the pre-instruction debug hook contract the instrumentation
// wrapper injects. A zero value disables instrumentation.
type Guard interface {
	// PreInstruction is called before every instruction executes, with
	// ctx describing the instruction about to run (its address is not
	// yet reflected in cpu.InstructionPointer, which still holds the
	// previously committed PC). A non-zero return asks the caller to
	// abort the current compiled block and propagate the value, except
	// for the sentinel -16 which means "skip this instruction, do not
	// abort the block".
	PreInstruction(cpu *State, sys System, ctx Context) int
	// PreInstructionNoReturn is the fire-and-forget variant used by
	// fragments that do not need to act on the result.
	PreInstructionNoReturn(cpu *State, sys System, ctx Context)
}

// SkipInstructionSentinel is the magic PreInstruction return value that
// means "do not execute this instruction, but do not exit the block
// either"; callers remap it to 0 before acting on it further.
const SkipInstructionSentinel = -16

// MemoryError wraps a memory-access fault with the address and access kind
// that triggered it, so System implementations can build a cause code.
type MemoryError struct {
	Addr  uint64
	Write bool
	Err   error
}

func (e *MemoryError) Error() string {
	verb := "read"
	if e.Write {
		verb = "write"
	}
	return fmt.Sprintf("cpu: memory %s fault at %#x: %v", verb, e.Addr, e.Err)
}

func (e *MemoryError) Unwrap() error { return e.Err }
