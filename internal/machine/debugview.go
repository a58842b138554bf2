package machine

// DebugView adapts Machine to gdbserver.DebugMemory, whose byte-slice
// signature differs from cpu.System's size-at-a-time one: the debugger's
// `m`/`M` packets move arbitrary-length runs, not single register-width
// accesses, so this is a distinct method set rather than an overload.
type DebugView struct {
	M *Machine
}

func (d DebugView) ReadMemory(addr uint64, length int) ([]byte, error) {
	if length < 0 || addr >= MemorySize || uint64(length) > MemorySize-addr {
		return nil, errOutOfRange
	}
	out := make([]byte, length)
	copy(out, d.M.Mem[addr:addr+uint64(length)])
	return out, nil
}

func (d DebugView) WriteMemory(addr uint64, data []byte) error {
	if addr >= MemorySize || uint64(len(data)) > MemorySize-addr {
		return errOutOfRange
	}
	copy(d.M.Mem[addr:], data)
	return nil
}
