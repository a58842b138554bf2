// Package gdbserver implements the per-core GDB Remote
// Serial Protocol stub. A Server owns a breakpoint/watchpoint database, a
// single debugger connection, and the three-state Running/Paused/Killed
// lifecycle; it implements cpu.Guard so the interpreter can re-enter it at
// every instruction boundary.
package gdbserver

import (
	"bufio"
	"net"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"rvcsim/internal/breakpoint"
	"rvcsim/internal/cpu"
	"rvcsim/internal/rsp"
)

// State is one of the three server lifecycle states.
type State int32

const (
	Running State = iota
	Paused
	Killed
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Paused:
		return "paused"
	case Killed:
		return "killed"
	default:
		return "unknown"
	}
}

// Terminated is the PreInstruction return value that asks the interpreter
// to unwind and exit; it is distinct from cpu.SkipInstructionSentinel and
// from any RVC exception cause.
const Terminated = -1

// Config carries the tunables the configuration layer resolves: listen
// port/transport, the between-instruction socket-poll rate limiter, and
// the PC-to-breakpoint-index shift.
type Config struct {
	Port       int
	Transport  string // "tcp" or "unix"
	SkipCount  int32
	MinPCAlign uint
}

// Server is a single-connection GDB RSP stub for one CPU core. The zero
// value is not ready to use; construct with New.
type Server struct {
	cfg  Config
	regs RegisterFile
	mem  DebugMemory
	end  rsp.Endianness
	log  *logrus.Entry

	breakpoints breakpoint.DB
	watchpoints breakpoint.DB

	// state and the flags below are read by the CPU hot path on every
	// instruction and must stay lock-free.
	state         atomic.Int32
	pendingKill   atomic.Int32
	pendingJump   atomic.Int32
	jumpAddr      atomic.Uint64
	stepArmed     atomic.Int32
	skipIndex     atomic.Int32
	stopReplySent atomic.Int32

	connMu sync.Mutex
	rw     *bufio.ReadWriter
	acks   bool
	recv   chan string
	connID uint64
}

// New constructs a Server bound to regs/mem for register and memory debug
// access, endian for hex register encoding, and cfg for the listen/poll
// tunables. The server starts in Paused and stays there until a
// debugger resumes it.
func New(regs RegisterFile, mem DebugMemory, end rsp.Endianness, cfg Config, log *logrus.Entry) *Server {
	if cfg.SkipCount <= 0 {
		cfg.SkipCount = 64
	}
	s := &Server{cfg: cfg, regs: regs, mem: mem, end: end, log: log}
	s.recv = make(chan string, 16)
	s.state.Store(int32(Paused))
	return s
}

// State reports the server's current lifecycle state.
func (s *Server) State() State { return State(s.state.Load()) }

// Serve accepts exactly one debugger connection at a time from ln and
// handles it; it returns when ln is closed. Only one connection is
// supported per the single-core stub contract: a second GDB instance
// attaching mid-session would otherwise trample the first's state.
func (s *Server) Serve(ln net.Listener) error {
	for {
		conn, err := ln.Accept()
		if err != nil {
			return err
		}
		s.connID++
		if err := s.handleConn(conn); err != nil {
			s.log.WithError(err).WithField("conn", s.connID).Warn("gdb connection closed")
		}
	}
}

// handleConn owns one debugger connection: a reader loop feeds framed
// packets into s.recv (which outlives the connection, so a paused CPU
// thread blocked on it simply waits for the next debugger to attach if
// this one drops). A bad checksum answers '-' to request retransmission
// and is otherwise absorbed here, never surfacing as CPU-visible state.
func (s *Server) handleConn(conn net.Conn) error {
	defer conn.Close()
	s.connMu.Lock()
	s.rw = bufio.NewReadWriter(bufio.NewReader(conn), bufio.NewWriter(conn))
	s.acks = true
	rw := s.rw
	s.connMu.Unlock()

	s.log.WithField("conn", s.connID).Info("gdb debugger attached")
	for {
		pkt, err := rsp.ReadPacket(rw.Reader)
		switch err {
		case nil:
			s.recv <- pkt
		case rsp.ErrInterrupt:
			s.recv <- "\x03"
		case rsp.ErrChecksum:
			s.ack(false)
		default:
			return err
		}
	}
}

func (s *Server) send(payload string) {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	if s.rw == nil {
		return
	}
	s.rw.WriteString(rsp.EncodePacket(payload))
	s.rw.Flush()
}

func (s *Server) ack(ok bool) {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	if s.rw == nil || !s.acks {
		return
	}
	if ok {
		s.rw.WriteByte('+')
	} else {
		s.rw.WriteByte('-')
	}
	s.rw.Flush()
}

// notifyStop transitions to Paused and sends exactly one T05 for this
// Running->Paused transition.
func (s *Server) notifyStop() {
	prev := State(s.state.Swap(int32(Paused)))
	if prev == Killed {
		s.state.Store(int32(Killed))
		return
	}
	if prev == Paused {
		return
	}
	if s.stopReplySent.Swap(1) == 0 {
		s.send("T05")
	}
}

func (s *Server) resume(step bool) {
	s.stopReplySent.Store(0)
	s.stepArmed.Store(0)
	if step {
		s.stepArmed.Store(1)
	}
	s.state.Store(int32(Running))
}

// ConsumeJump returns and clears a pending `c addr`/`s addr` jump target,
// for the outer fetch/execute loop to apply before decoding the next
// instruction. It is not used by PreInstruction itself: redirecting PC is
// the interpreter's job, not the guard's.
func (s *Server) ConsumeJump() (uint64, bool) {
	if s.pendingJump.Swap(0) == 0 {
		return 0, false
	}
	return s.jumpAddr.Load(), true
}

// NoteWatchHit records that a watchpoint fired during a memory access;
// the transition to Paused and the T05 reply happen no later than the
// next PreInstruction call, bounding latency to one instruction plus the
// guard round-trip as the concurrency model requires.
func (s *Server) NoteWatchHit() {
	s.notifyStop()
}

// NoteTrap records that the CPU raised an exception (breakpoint trap,
// memory-access fault) mid-instruction; with a debugger attached the
// event pauses execution instead of tearing the simulation down.
func (s *Server) NoteTrap() {
	s.notifyStop()
}

// Execute is the between-block poll: the fetch/execute loop calls it once
// per block, and only every SkipCount-th call actually checks the
// transport, amortizing the probe cost while Running. It returns
// Terminated once a kill request is pending.
func (s *Server) Execute() int {
	if s.pendingKill.Load() != 0 {
		return Terminated
	}
	if s.State() == Running && s.skipIndex.Add(1)%s.cfg.SkipCount == 0 {
		s.drainNonBlocking()
	}
	return 0
}

// PreInstruction implements cpu.Guard. It is re-entered on every
// instruction boundary: it polls the transport (rate-limited while
// Running, blocking while Paused), tests the instruction breakpoint
// index, and services the single-step arm/fire protocol.
func (s *Server) PreInstruction(c *cpu.State, sys cpu.System, ctx cpu.Context) int {
	if s.pendingKill.Load() != 0 {
		return Terminated
	}

	if s.stepArmed.Swap(0) != 0 {
		s.notifyStop()
	}
	if s.breakpoints.Get(ctx.CurrentAddress>>s.cfg.MinPCAlign)&(breakpoint.BreakHW|breakpoint.BreakMem) != 0 {
		s.notifyStop()
	}

	switch s.State() {
	case Paused:
		s.pauseLoop()
		if s.pendingKill.Load() != 0 {
			return Terminated
		}
		if s.pendingJump.Load() != 0 {
			// A `c addr`/`s addr` resume redirected the PC: skip the
			// instruction the core already fetched so the loop applies
			// the jump before executing anything.
			return cpu.SkipInstructionSentinel
		}
	case Running:
		if s.skipIndex.Add(1)%s.cfg.SkipCount == 0 {
			s.drainNonBlocking()
		}
	}
	return 0
}

// PreInstructionNoReturn is the fire-and-forget guard hook; fragments
// that use it discard the result, so this server has nothing to do here
// beyond what PreInstruction already handles on the returning path.
func (s *Server) PreInstructionNoReturn(c *cpu.State, sys cpu.System, ctx cpu.Context) {}

// pauseLoop services packets while Paused, blocking until a resume or
// kill command arrives. This is the cooperative re-entry the concurrency
// model describes: there is no separate debugger thread, the CPU thread
// spins here itself.
func (s *Server) pauseLoop() {
	for s.State() == Paused && s.pendingKill.Load() == 0 {
		s.handlePacket(<-s.recv)
	}
}

// drainNonBlocking services any packets already buffered without
// stalling the Running fetch/execute loop; this is where an in-band
// Ctrl-C is observed even though the debugger never gets dedicated
// scheduling time.
func (s *Server) drainNonBlocking() {
	for {
		select {
		case pkt := <-s.recv:
			s.handlePacket(pkt)
			if s.State() != Running {
				return
			}
		default:
			return
		}
	}
}

func (s *Server) regWidthBytes() int {
	// All currently-mapped registers (GPRs and pc) are 64-bit; target.xml
	// advertises wider groups that ReadRegister never reports as mapped,
	// so the `g`/`G` bulk transfer width is simply the GPR+pc width.
	return 8
}
