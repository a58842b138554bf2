package rvc

import (
	"math/bits"
	"testing"

	"rvcsim/internal/cpu"
)

// fakeSystem is a minimal cpu.System backed by a byte slice, enough to
// exercise c.lw/c.sw/c.lwsp/c.swsp without pulling in a real bus.
type fakeSystem struct {
	mem        []byte
	raised     int
	raisedMode cpu.Mode
}

func newFakeSystem(size int) *fakeSystem { return &fakeSystem{mem: make([]byte, size)} }

func (f *fakeSystem) ReadMemory(addr uint64, size int) (uint64, error) {
	if addr+uint64(size) > uint64(len(f.mem)) {
		return 0, errOOB
	}
	var v uint64
	for i := 0; i < size; i++ {
		v |= uint64(f.mem[addr+uint64(i)]) << uint(8*i)
	}
	return v, nil
}

func (f *fakeSystem) WriteMemory(addr uint64, size int, value uint64) error {
	if addr+uint64(size) > uint64(len(f.mem)) {
		return errOOB
	}
	for i := 0; i < size; i++ {
		f.mem[addr+uint64(i)] = byte(value >> uint(8*i))
	}
	return nil
}

func (f *fakeSystem) Raise(c *cpu.State, mode cpu.Mode, cause int) {
	f.raised = cause
	f.raisedMode = mode
	c.Exception = cause
}

type oobError struct{}

func (oobError) Error() string { return "out of bounds" }

var errOOB = oobError{}

func TestDecodeDII(t *testing.T) {
	tbl := BuildTable()
	sys := newFakeSystem(64)
	c := &cpu.State{}
	def, cs, err := tbl.Decode(0x0000, cpu.Context{CurrentAddress: 0x1000})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if def.Mnemonic != "dii" {
		t.Fatalf("expected dii, got %s", def.Mnemonic)
	}
	Exec(cs, c, sys, cpu.Context{CurrentAddress: 0x1000}, nil)
	if sys.raised != cpu.CauseIllegalInstr {
		t.Fatalf("expected cause 2, got %d", sys.raised)
	}
}

func TestDecodeLiZeroNoOp(t *testing.T) {
	tbl := BuildTable()
	sys := newFakeSystem(64)
	c := &cpu.State{}
	c.X[10] = 42
	def, cs, err := tbl.Decode(0x4501, cpu.Context{CurrentAddress: 0x2000})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if def.Mnemonic != "c.li" {
		t.Fatalf("expected c.li, got %s", def.Mnemonic)
	}
	Exec(cs, c, sys, cpu.Context{CurrentAddress: 0x2000}, nil)
	if c.X[10] != 0 {
		t.Fatalf("expected X[10]=0, got %d", c.X[10])
	}
	if c.InstructionPointer != 0x2002 {
		t.Fatalf("expected pc 0x2002, got %#x", c.InstructionPointer)
	}
}

func TestDecodeJR(t *testing.T) {
	tbl := BuildTable()
	sys := newFakeSystem(64)
	c := &cpu.State{}
	c.X[1] = 0x4001
	def, cs, err := tbl.Decode(0x8082, cpu.Context{CurrentAddress: 0x3000})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if def.Mnemonic != "c.jr" {
		t.Fatalf("expected c.jr, got %s", def.Mnemonic)
	}
	ret := Exec(cs, c, sys, cpu.Context{CurrentAddress: 0x3000}, nil)
	if ret != 0 {
		t.Fatalf("unexpected abort code %d", ret)
	}
	if c.InstructionPointer != 0x4000 {
		t.Fatalf("expected pc 0x4000 (masked), got %#x", c.InstructionPointer)
	}
}

func TestX0WriteSuppressed(t *testing.T) {
	tbl := BuildTable()
	sys := newFakeSystem(64)
	c := &cpu.State{}
	// c.li x0, 5 -- encoded as 0b010_0_00000_00101_01 = funct3=010,imm[5]=0,rd=0,imm[4:0]=00101,op=01
	word := uint32(0x4001) | (0 << 7) | (0x5 << 2)
	def, cs, err := tbl.Decode(word, cpu.Context{CurrentAddress: 0})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if def.Mnemonic != "c.li" {
		t.Fatalf("expected c.li, got %s", def.Mnemonic)
	}
	Exec(cs, c, sys, cpu.Context{CurrentAddress: 0}, nil)
	if c.GetX(0) != 0 {
		t.Fatalf("X[0] must stay zero, got %d", c.GetX(0))
	}
}

func TestSetXSuppressesRegisterZero(t *testing.T) {
	sys := newFakeSystem(8)
	c := &cpu.State{}
	cs := &CodeSet{Fragments: []Fragment{{
		Phase:  InitialRequired,
		Writes: RegSet(0).With(0),
		Ops:    entryExit(IROp{Code: OpLoadImm, Dst: 0, Imm: 99}),
	}}}
	withEpilogue(cs)
	Exec(cs, c, sys, cpu.Context{CurrentAddress: 0}, nil)
	if c.GetX(0) != 0 {
		t.Fatalf("X[0] must read zero even though the fragment declares it written, got %d", c.GetX(0))
	}
	if !cs.Writes().Has(0) {
		t.Fatalf("dependency metadata must still record the intended write to X[0]")
	}
}

func TestAddi4spnIllegalWhenZero(t *testing.T) {
	tbl := BuildTable()
	sys := newFakeSystem(64)
	c := &cpu.State{}
	// word 0x0004 matches c.addi4spn pattern/mask but nzuimm assembles to 0.
	word := uint32(0x0004)
	def, cs, err := tbl.Decode(word, cpu.Context{CurrentAddress: 0x10})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if def.Mnemonic != "c.addi4spn" {
		t.Fatalf("expected c.addi4spn, got %s", def.Mnemonic)
	}
	Exec(cs, c, sys, cpu.Context{CurrentAddress: 0x10}, nil)
	if sys.raised != cpu.CauseIllegalInstr {
		t.Fatalf("expected illegal instruction trap, got cause %d", sys.raised)
	}
}

func TestLuiAddi16spSeparation(t *testing.T) {
	tbl := BuildTable()
	// c.addi16sp: rd fixed to x2, nzimm != 0.
	word := uint32(0x6101) | (1 << 2) // nzimm bit5 set -> nonzero
	def := tbl.Lookup(16, word)
	if def.Mnemonic != "c.addi16sp" {
		t.Fatalf("expected addi16sp for rd=2 encoding, got %s", def.Mnemonic)
	}
	// c.lui: rd != 2, e.g. rd=10 (0b01010 at bits 11:7).
	word2 := uint32(0x6001) | (10 << 7) | (1 << 2)
	def2 := tbl.Lookup(16, word2)
	if def2.Mnemonic != "c.lui" {
		t.Fatalf("expected c.lui for rd!=2 encoding, got %s", def2.Mnemonic)
	}
}

func TestBreakpointEbreak(t *testing.T) {
	tbl := BuildTable()
	sys := newFakeSystem(64)
	c := &cpu.State{}
	def, cs, err := tbl.Decode(0x9002, cpu.Context{CurrentAddress: 0})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if def.Mnemonic != "c.ebreak" {
		t.Fatalf("expected c.ebreak, got %s", def.Mnemonic)
	}
	Exec(cs, c, sys, cpu.Context{CurrentAddress: 0}, nil)
	if sys.raised != cpu.CauseBreakpoint {
		t.Fatalf("expected cause 3, got %d", sys.raised)
	}
}

func TestGuardSkipSentinel(t *testing.T) {
	tbl := InstrumentWithGuard(BuildTable())
	sys := newFakeSystem(64)
	c := &cpu.State{}
	c.X[10] = 1
	g := &skipGuard{}
	def, cs, err := tbl.Decode(0x4501, cpu.Context{CurrentAddress: 0x100}) // c.li x10, 0
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if def.Mnemonic != "c.li" {
		t.Fatalf("expected c.li, got %s", def.Mnemonic)
	}
	Exec(cs, c, sys, cpu.Context{CurrentAddress: 0x100}, g)
	if c.X[10] != 1 {
		t.Fatalf("expected instruction to be skipped, X[10] changed to %d", c.X[10])
	}
	if c.InstructionPointer != 0x102 {
		t.Fatalf("expected pc to still advance past the skipped instruction, got %#x", c.InstructionPointer)
	}
}

type skipGuard struct{}

func (skipGuard) PreInstruction(c *cpu.State, sys cpu.System, ctx cpu.Context) int {
	return cpu.SkipInstructionSentinel
}
func (skipGuard) PreInstructionNoReturn(c *cpu.State, sys cpu.System, ctx cpu.Context) {}

func TestEveryWordMatchesExactlyOneOpcode(t *testing.T) {
	tbl := BuildTable()
	for w := uint32(0); w < 0x10000; w++ {
		def := tbl.Lookup(16, w)
		if def == nil {
			t.Fatalf("word %#04x matched nothing", w)
		}
		best, atBest := -1, 0
		for _, d := range tbl.byWidth[16] {
			if !d.matches(w) {
				continue
			}
			switch wt := bits.OnesCount32(d.Mask); {
			case wt > best:
				best, atBest = wt, 1
			case wt == best:
				atBest++
			}
		}
		if atBest != 1 {
			t.Fatalf("word %#04x has %d most-specific matches, want exactly 1", w, atBest)
		}
	}
}

func TestUnassignedEncodingRaisesIllegal(t *testing.T) {
	tbl := BuildTable()
	sys := newFakeSystem(64)
	c := &cpu.State{}
	// Q1 funct3=001 has no RV64 mnemonic in this subset; the quadrant
	// catch-all claims it.
	def, cs, err := tbl.Decode(0x2001, cpu.Context{CurrentAddress: 0x40})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if def.Mnemonic != "__reserved_q1" {
		t.Fatalf("expected the quadrant-1 catch-all, got %s", def.Mnemonic)
	}
	Exec(cs, c, sys, cpu.Context{CurrentAddress: 0x40}, nil)
	if sys.raised != cpu.CauseIllegalInstr {
		t.Fatalf("expected illegal instruction trap, got cause %d", sys.raised)
	}
	if c.InstructionPointer != 0x42 {
		t.Fatalf("pc must still advance past the trapping word, got %#x", c.InstructionPointer)
	}
}

func TestLoadFaultRaisesAccessFault(t *testing.T) {
	tbl := BuildTable()
	sys := newFakeSystem(4) // too small: any c.lw offset lands out of bounds
	c := &cpu.State{}
	c.X[9] = 0x100
	// c.lw x8, 0(x9): funct3=010, rs1'=1 (x9), rd'=0 (x8).
	word := uint32(0x4000) | (1 << 7)
	_, cs, err := tbl.Decode(word, cpu.Context{CurrentAddress: 0})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	ret := Exec(cs, c, sys, cpu.Context{CurrentAddress: 0}, nil)
	if ret != cpu.CauseLoadAccessFault {
		t.Fatalf("expected load access fault abort, got %d", ret)
	}
	if c.Exception != cpu.CauseLoadAccessFault {
		t.Fatalf("expected exception recorded, got %d", c.Exception)
	}
}

func TestGuardAbortLeavesPCUncommitted(t *testing.T) {
	tbl := InstrumentWithGuard(BuildTable())
	sys := newFakeSystem(64)
	c := &cpu.State{InstructionPointer: 0x100}
	_, cs, err := tbl.Decode(0x4501, cpu.Context{CurrentAddress: 0x100})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	ret := Exec(cs, c, sys, cpu.Context{CurrentAddress: 0x100}, abortGuard{})
	if ret != -1 {
		t.Fatalf("expected the guard's abort code, got %d", ret)
	}
	if c.InstructionPointer != 0x100 {
		t.Fatalf("pc must not move past an instruction the guard aborted, got %#x", c.InstructionPointer)
	}
}

type abortGuard struct{}

func (abortGuard) PreInstruction(c *cpu.State, sys cpu.System, ctx cpu.Context) int { return -1 }
func (abortGuard) PreInstructionNoReturn(c *cpu.State, sys cpu.System, ctx cpu.Context) {}
