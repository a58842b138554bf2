package machine

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"
)

// Console memory-mapped register offsets, relative to ConsoleBase.
const (
	ConsoleBase    = MemorySize - 16
	consoleInReg   = ConsoleBase + 0
	consoleOutReg  = ConsoleBase + 4
	consoleStatReg = ConsoleBase + 8
)

// Console status bits.
const (
	ConsoleIn  = 1 << iota // a byte has been received and is waiting in consoleInReg
	ConsoleOut             // a byte is waiting in consoleOutReg to be transmitted
)

// ErrConsoleDetach indicates the attached console connection dropped.
var ErrConsoleDetach = errors.New("console: detach")

// SerialConsole is a memory-mapped UART-like peripheral reachable through
// three registers at ConsoleBase: in, out, status. A program polls the
// status register and reads/writes in/out the way it would poll a real
// serial port, through ordinary loads/stores against Machine's memory.
type SerialConsole struct {
	conn  net.Conn
	inr   uint32
	outr  uint32
	statr uint32
}

// AcceptConsole waits for a single controlling TCP connection and
// returns a console ready to attach to a Machine via
// Machine.AttachConsole.
func AcceptConsole() (*SerialConsole, error) {
	nl, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, err
	}
	conn, err := nl.Accept()
	if err != nil {
		return nil, err
	}
	return &SerialConsole{conn: conn}, nil
}

// Close closes the underlying connection.
func (c *SerialConsole) Close() error { return c.conn.Close() }

// LocalAddr returns the address a caller should report to the user so
// they know where to connect a terminal.
func (c *SerialConsole) LocalAddr() net.Addr { return c.conn.LocalAddr() }

// Poll drains or fills the console's registers against the connection.
// A short deadline means Poll never stalls the fetch/execute loop for
// long when there's nothing to do.
func (c *SerialConsole) Poll() error {
	c.conn.SetDeadline(time.Now().Add(time.Millisecond))
	if c.statr&ConsoleOut != 0 {
		b := [1]byte{byte(c.outr)}
		if _, err := c.conn.Write(b[:]); err != nil {
			if isTimeout(err) {
				return nil
			}
			return fmt.Errorf("%w: %s", ErrConsoleDetach, err)
		}
		c.statr &^= ConsoleOut
	}
	if c.statr&ConsoleIn == 0 {
		var b [1]byte
		if _, err := c.conn.Read(b[:]); err != nil {
			if isTimeout(err) {
				return nil
			}
			return fmt.Errorf("%w: %s", ErrConsoleDetach, err)
		}
		c.statr |= ConsoleIn
		c.inr = uint32(b[0])
	}
	return nil
}

func isTimeout(err error) bool {
	return strings.HasSuffix(err.Error(), "i/o timeout")
}

// AttachConsole wires console into m's memory map at ConsoleBase.
func (m *Machine) AttachConsole(console *SerialConsole) { m.console = console }

func (m *Machine) consoleRead(addr uint64) (uint64, bool) {
	if m.console == nil {
		return 0, false
	}
	switch addr {
	case consoleInReg:
		m.console.statr &^= ConsoleIn
		return uint64(m.console.inr), true
	case consoleOutReg:
		return uint64(m.console.outr), true
	case consoleStatReg:
		return uint64(m.console.statr), true
	default:
		return 0, false
	}
}

func (m *Machine) consoleWrite(addr uint64, value uint64) bool {
	if m.console == nil {
		return false
	}
	switch addr {
	case consoleOutReg:
		m.console.outr = uint32(value)
		m.console.statr |= ConsoleOut
		return true
	case consoleStatReg:
		m.console.statr = uint32(value)
		return true
	default:
		return false
	}
}
