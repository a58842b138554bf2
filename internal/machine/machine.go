// Package machine is the flat-memory target a single RVC core runs
// against: a byte-addressable memory array, a bytecode image loader, and
// the cpu.System callback table the decoder/emitter package drives the
// reference interpreter against.
package machine

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"rvcsim/internal/cpu"
)

// MemorySize is the address space size in bytes.
const MemorySize = 1 << 20

// Machine is a flat byte-addressable memory plus the register file that
// backs a single RVC core. It is not goroutine-safe; a single fetch/execute
// loop should drive it, with a *gdbserver.Server (if any) re-entering it
// cooperatively through the cpu.Guard interface.
type Machine struct {
	Mem     [MemorySize]byte
	Regs    cpu.State
	Halted  bool
	console *SerialConsole
}

// ReadMemory implements cpu.System. A read that lands exactly on one of
// the console's registers (see console.go) is routed there instead of
// into Mem; a read that merely overlaps the console window falls through
// to the out-of-range error below rather than silently mixing console
// and backing-store bytes. With no console attached the whole window is
// unmapped and every read that touches it fails the same way.
func (m *Machine) ReadMemory(addr uint64, size int) (uint64, error) {
	if size == 4 {
		if v, ok := m.consoleRead(addr); ok {
			return v, nil
		}
	}
	if addr >= MemorySize || uint64(size) > MemorySize-addr || addr+uint64(size) > ConsoleBase {
		return 0, &cpu.MemoryError{Addr: addr, Write: false, Err: errOutOfRange}
	}
	var v uint64
	for i := 0; i < size; i++ {
		v |= uint64(m.Mem[addr+uint64(i)]) << uint(8*i)
	}
	return v, nil
}

// WriteMemory implements cpu.System.
func (m *Machine) WriteMemory(addr uint64, size int, value uint64) error {
	if size == 4 {
		if m.consoleWrite(addr, value) {
			return nil
		}
	}
	if addr >= MemorySize || uint64(size) > MemorySize-addr {
		return &cpu.MemoryError{Addr: addr, Write: true, Err: errOutOfRange}
	}
	for i := 0; i < size; i++ {
		m.Mem[addr+uint64(i)] = byte(value >> uint(8*i))
	}
	return nil
}

// Raise implements cpu.System: it records the cause and, for a breakpoint
// trap (c.ebreak), halts the reference interpreter the way a real target
// would stop and wait for the debugger.
func (m *Machine) Raise(c *cpu.State, mode cpu.Mode, cause int) {
	c.Exception = cause
	if cause == cpu.CauseBreakpoint {
		m.Halted = true
	}
}

var errOutOfRange = fmt.Errorf("machine: address out of range")

// String renders the machine's state: committed PC plus the register
// file, for trace output and failing-test messages.
func (m *Machine) String() string {
	return fmt.Sprintf("{pc:%#x x:%+v}", m.Regs.InstructionPointer, m.Regs.X)
}

// Load reads a bytecode image: one 16-bit hex half-word per line, an
// optional trailing '#' comment discarded, written little-endian starting
// at address 0.
func Load(r io.Reader) (*Machine, error) {
	m := new(Machine)
	scanner := bufio.NewScanner(r)
	var addr uint64
	for scanner.Scan() {
		line := scanner.Text()
		if idx := strings.Index(line, "#"); idx >= 0 {
			line = line[:idx]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		value, err := strconv.ParseUint(line, 0, 16)
		if err != nil {
			return nil, err
		}
		if err := m.WriteMemory(addr, 2, value); err != nil {
			return nil, err
		}
		addr += 2
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return m, nil
}
