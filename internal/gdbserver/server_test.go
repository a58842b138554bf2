package gdbserver

import (
	"bufio"
	"bytes"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"rvcsim/internal/breakpoint"
	"rvcsim/internal/cpu"
	"rvcsim/internal/rsp"
)

type fakeRegs struct {
	gpr [32]uint64
	pc  uint64
}

func (r *fakeRegs) NumRegisters() int { return NumDescribedRegisters }
func (r *fakeRegs) RegisterSize(n int) int {
	if n >= 0 && n <= PCIndex {
		return 8
	}
	return 0
}
func (r *fakeRegs) ReadRegister(n int) (uint64, bool) {
	if n >= 0 && n < 32 {
		return r.gpr[n], true
	}
	if n == PCIndex {
		return r.pc, true
	}
	return 0, false
}
func (r *fakeRegs) WriteRegister(n int, v uint64) bool {
	if n == 0 {
		return true
	}
	if n > 0 && n < 32 {
		r.gpr[n] = v
		return true
	}
	if n == PCIndex {
		r.pc = v
		return true
	}
	return false
}

type fakeMem struct{ buf []byte }

func (m *fakeMem) ReadMemory(addr uint64, length int) ([]byte, error) {
	if addr+uint64(length) > uint64(len(m.buf)) {
		return nil, errTest
	}
	return append([]byte(nil), m.buf[addr:addr+uint64(length)]...), nil
}

func (m *fakeMem) WriteMemory(addr uint64, data []byte) error {
	if addr+uint64(len(data)) > uint64(len(m.buf)) {
		return errTest
	}
	copy(m.buf[addr:], data)
	return nil
}

type testError struct{}

func (testError) Error() string { return "fake memory error" }

var errTest = testError{}

func newTestServer() (*Server, *bytes.Buffer) {
	regs := &fakeRegs{}
	mem := &fakeMem{buf: make([]byte, 256)}
	log := logrus.NewEntry(logrus.New())
	srv := New(regs, mem, rsp.LittleEndian, Config{MinPCAlign: 1, SkipCount: 4}, log)
	var out bytes.Buffer
	srv.rw = bufio.NewReadWriter(bufio.NewReader(strings.NewReader("")), bufio.NewWriter(&out))
	srv.acks = true
	return srv, &out
}

func TestHandlePacketReadAllRegisters(t *testing.T) {
	srv, out := newTestServer()
	srv.regs.WriteRegister(10, 0x2a)
	srv.handlePacket("g")
	got := out.String()
	if !strings.HasPrefix(got, "+$") {
		t.Fatalf("expected ack then packet, got %q", got)
	}
}

func TestHandlePacketReadRegister(t *testing.T) {
	srv, out := newTestServer()
	srv.regs.WriteRegister(10, 0x2a)
	srv.handlePacket("pa")
	want := "+" + rsp.EncodePacket(rsp.EncodeHexUint(0x2a, 8, rsp.LittleEndian))
	if out.String() != want {
		t.Fatalf("got %q want %q", out.String(), want)
	}
}

func TestHandlePacketReadRegisterUnmapped(t *testing.T) {
	srv, out := newTestServer()
	srv.handlePacket("p64") // 100 decimal, past the GPR/pc range
	want := "+" + rsp.EncodePacket("EFF")
	if out.String() != want {
		t.Fatalf("got %q want %q", out.String(), want)
	}
}

func TestHandlePacketWriteRegister(t *testing.T) {
	srv, out := newTestServer()
	hexVal := rsp.EncodeHexUint(7, 8, rsp.LittleEndian)
	srv.handlePacket("Pa=" + hexVal)
	want := "+" + rsp.EncodePacket("OK")
	if out.String() != want {
		t.Fatalf("got %q want %q", out.String(), want)
	}
	if v, _ := srv.regs.ReadRegister(10); v != 7 {
		t.Fatalf("register not written, got %d", v)
	}
}

func TestHandlePacketMemoryRoundTrip(t *testing.T) {
	srv, out := newTestServer()
	srv.handlePacket("M10,4:deadbeef")
	out.Reset()
	srv.handlePacket("m10,4")
	want := "+" + rsp.EncodePacket("deadbeef")
	if out.String() != want {
		t.Fatalf("got %q want %q", out.String(), want)
	}
}

func TestHandlePacketQuestionMark(t *testing.T) {
	srv, out := newTestServer()
	srv.handlePacket("?")
	want := "+" + rsp.EncodePacket("T05")
	if out.String() != want {
		t.Fatalf("got %q want %q", out.String(), want)
	}
}

func TestHandlePacketSetAndHitBreakpoint(t *testing.T) {
	srv, out := newTestServer()
	srv.handlePacket("Z0,1000,2")
	out.Reset()
	srv.resume(false)
	// The guard call that detects the breakpoint re-enters the pause
	// loop synchronously, so queue a "continue" ahead of time to let it
	// fall back out again for this test's purposes.
	srv.recv = make(chan string, 1)
	srv.recv <- "c"
	ret := srv.PreInstruction(&cpu.State{}, fakeSystem{}, cpu.Context{CurrentAddress: 0x1000})
	if ret != 0 {
		t.Fatalf("unexpected abort code %d", ret)
	}
	if srv.State() != Running {
		t.Fatalf("expected Running after continue resumed from the breakpoint pause, got %s", srv.State())
	}
}

func TestBreakpointTypeSelectsFlagBit(t *testing.T) {
	srv, _ := newTestServer()
	srv.handlePacket("Z0,1000,2")
	if got := srv.breakpoints.Get(0x1000 >> srv.cfg.MinPCAlign); got != breakpoint.BreakMem {
		t.Fatalf("Z0 must install BreakMem, got %#x", got)
	}
	srv.handlePacket("Z1,2000,2")
	if got := srv.breakpoints.Get(0x2000 >> srv.cfg.MinPCAlign); got != breakpoint.BreakHW {
		t.Fatalf("Z1 must install BreakHW, got %#x", got)
	}
}

func TestWatchpointIndexedByRawAddress(t *testing.T) {
	srv, _ := newTestServer()
	srv.handlePacket("Z2,1001,1")
	if got := srv.watchpoints.Get(0x1001); got != breakpoint.WatchWrite {
		t.Fatalf("watchpoint must live at the unshifted data address, got %#x", got)
	}
	if srv.watchpoints.Get(0x1001 >> srv.cfg.MinPCAlign) != 0 {
		t.Fatal("watchpoint must not be shifted by the PC alignment")
	}
	sys := WatchingSystem{Underlying: fakeSystem{}, Server: srv}
	srv.resume(false)
	sys.WriteMemory(0x1001, 1, 0xab)
	if srv.State() != Paused {
		t.Fatalf("expected a write watchpoint hit to pause, state %s", srv.State())
	}
}

func TestStopReplySentOncePerPause(t *testing.T) {
	srv, out := newTestServer()
	srv.resume(false)
	out.Reset()
	srv.notifyStop()
	srv.notifyStop()
	want := rsp.EncodePacket("T05")
	if out.String() != want {
		t.Fatalf("expected exactly one T05 per Running->Paused transition, got %q", out.String())
	}
}

func TestKillWhilePausedExitsPauseLoop(t *testing.T) {
	srv, _ := newTestServer()
	srv.recv <- "k"
	ret := srv.PreInstruction(&cpu.State{}, fakeSystem{}, cpu.Context{})
	if ret != Terminated {
		t.Fatalf("expected Terminated after k while paused, got %d", ret)
	}
	if srv.State() != Killed {
		t.Fatalf("expected Killed state, got %s", srv.State())
	}
}

func TestExecuteRateLimitsTransportPoll(t *testing.T) {
	srv, _ := newTestServer() // SkipCount: 4
	srv.resume(false)
	srv.recv <- "\x03"
	// Three polls below the skip threshold must not observe the packet.
	for i := 0; i < 3; i++ {
		if ret := srv.Execute(); ret != 0 {
			t.Fatalf("unexpected abort %d", ret)
		}
	}
	if srv.State() != Running {
		t.Fatal("ctrl-c must not be observed before the skip counter fires")
	}
	if ret := srv.Execute(); ret != 0 {
		t.Fatalf("unexpected abort %d", ret)
	}
	if srv.State() != Paused {
		t.Fatalf("expected the rate-limited poll to observe ctrl-c, state %s", srv.State())
	}
}

func TestHandlePacketClearBreakpoint(t *testing.T) {
	srv, _ := newTestServer()
	srv.handlePacket("Z0,1000,2")
	srv.handlePacket("z0,1000,2")
	if srv.breakpoints.Get(0x1000>>srv.cfg.MinPCAlign) != 0 {
		t.Fatalf("breakpoint not cleared")
	}
}

func TestHandlePacketQSupported(t *testing.T) {
	srv, out := newTestServer()
	srv.handlePacket("qSupported:xmlRegisters=i386")
	if !strings.Contains(out.String(), "qXfer:features:read+") {
		t.Fatalf("got %q", out.String())
	}
}

func TestHandlePacketXferTargetXML(t *testing.T) {
	srv, out := newTestServer()
	srv.handlePacket("qXfer:features:read:target.xml:0,20")
	if !strings.Contains(out.String(), "$m") {
		t.Fatalf("expected 'm' window prefix, got %q", out.String())
	}
}

func TestHandlePacketXferTargetXMLFinalChunk(t *testing.T) {
	srv, out := newTestServer()
	big := len(targetXML) + 100
	srv.handlePacket("qXfer:features:read:target.xml:0," + toHex(big))
	if !strings.Contains(out.String(), "$l") {
		t.Fatalf("expected 'l' final-chunk prefix, got %q", out.String())
	}
}

func toHex(n int) string {
	const digits = "0123456789abcdef"
	if n == 0 {
		return "0"
	}
	var b []byte
	for n > 0 {
		b = append([]byte{digits[n%16]}, b...)
		n /= 16
	}
	return string(b)
}

func TestPreInstructionKillTerminates(t *testing.T) {
	srv, _ := newTestServer()
	srv.pendingKill.Store(1)
	ret := srv.PreInstruction(&cpu.State{}, fakeSystem{}, cpu.Context{})
	if ret != Terminated {
		t.Fatalf("got %d want Terminated", ret)
	}
}

func TestSingleStepPausesOnNextGuardCall(t *testing.T) {
	srv, _ := newTestServer()
	srv.resume(true) // arms step
	srv.recv = make(chan string, 1)
	srv.recv <- "c"
	ret := srv.PreInstruction(&cpu.State{}, fakeSystem{}, cpu.Context{CurrentAddress: 0})
	if ret != 0 {
		t.Fatalf("unexpected abort %d", ret)
	}
	if srv.State() != Running {
		t.Fatalf("expected Running again after the step's pause was resumed, got %s", srv.State())
	}
}

type fakeSystem struct{}

func (fakeSystem) ReadMemory(addr uint64, size int) (uint64, error)      { return 0, nil }
func (fakeSystem) WriteMemory(addr uint64, size int, value uint64) error { return nil }
func (fakeSystem) Raise(c *cpu.State, mode cpu.Mode, cause int)          {}
