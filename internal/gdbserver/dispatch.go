package gdbserver

import (
	"strconv"
	"strings"

	"rvcsim/internal/breakpoint"
)

// handlePacket acks the raw packet, dispatches it, and sends a response
// unless the command defers its reply (c/s/k). Ctrl-C arrives here as the
// literal "\x03" packet, produced by the reader goroutine translating
// rsp.ErrInterrupt.
func (s *Server) handlePacket(pkt string) {
	if pkt == "\x03" {
		s.notifyStop()
		return
	}
	s.ack(true)
	if pkt == "" {
		return
	}

	switch {
	case pkt == "g":
		s.send(s.cmdReadAllRegisters())
	case strings.HasPrefix(pkt, "G"):
		s.send(s.cmdWriteAllRegisters(pkt[1:]))
	case strings.HasPrefix(pkt, "p"):
		s.send(s.cmdReadRegister(pkt[1:]))
	case strings.HasPrefix(pkt, "P"):
		s.send(s.cmdWriteRegister(pkt[1:]))
	case strings.HasPrefix(pkt, "m"):
		s.send(s.cmdReadMemory(pkt[1:]))
	case strings.HasPrefix(pkt, "M"):
		s.send(s.cmdWriteMemory(pkt[1:]))
	case strings.HasPrefix(pkt, "c"):
		s.cmdContinue(pkt[1:])
	case strings.HasPrefix(pkt, "s"):
		s.cmdStep(pkt[1:])
	case strings.HasPrefix(pkt, "Z"):
		s.send(s.cmdSetBreak(pkt[1:]))
	case strings.HasPrefix(pkt, "z"):
		s.send(s.cmdClearBreak(pkt[1:]))
	case pkt == "?":
		s.send("T05")
	case strings.HasPrefix(pkt, "H"):
		s.send("OK")
	case pkt == "k":
		s.pendingKill.Store(1)
		s.state.Store(int32(Killed))
	case strings.HasPrefix(pkt, "qSupported"):
		s.send("PacketSize=8000;qXfer:features:read+;")
	case pkt == "qAttached":
		s.send("0")
	case strings.HasPrefix(pkt, "qXfer:features:read:target.xml:"):
		s.send(s.cmdXferTargetXML(pkt))
	case pkt == "qTStatus":
		s.send("T0;tnotrun:0")
	case pkt == "qfThreadInfo":
		s.send("m1")
	case pkt == "qsThreadInfo":
		s.send("l")
	case pkt == "qC":
		s.send("0")
	case strings.HasPrefix(pkt, "qSymbol"):
		s.send("OK")
	default:
		s.send("")
	}
}

func (s *Server) cmdReadAllRegisters() string {
	var b strings.Builder
	n := s.numGPRAndPC()
	for i := 0; i < n; i++ {
		v, ok := s.regs.ReadRegister(i)
		if !ok {
			return "EFF"
		}
		b.WriteString(encodeReg(v, s.regWidthBytes(), s.end))
	}
	return b.String()
}

func (s *Server) numGPRAndPC() int { return PCIndex + 1 }

func (s *Server) cmdWriteAllRegisters(hex string) string {
	width := s.regWidthBytes()
	n := s.numGPRAndPC()
	if len(hex) != n*width*2 {
		return "E11"
	}
	for i := 0; i < n; i++ {
		chunk := hex[i*width*2 : (i+1)*width*2]
		v, err := decodeReg(chunk, s.end)
		if err != nil || !s.regs.WriteRegister(i, v) {
			return "E11"
		}
	}
	return "OK"
}

func (s *Server) cmdReadRegister(arg string) string {
	n, err := strconv.ParseInt(arg, 16, 32)
	if err != nil {
		return "EFF"
	}
	v, ok := s.regs.ReadRegister(int(n))
	if !ok {
		return "EFF"
	}
	return encodeReg(v, s.regWidthBytes(), s.end)
}

func (s *Server) cmdWriteRegister(arg string) string {
	parts := strings.SplitN(arg, "=", 2)
	if len(parts) != 2 {
		return "EFF"
	}
	n, err := strconv.ParseInt(parts[0], 16, 32)
	if err != nil {
		return "EFF"
	}
	v, err := decodeReg(parts[1], s.end)
	if err != nil || !s.regs.WriteRegister(int(n), v) {
		return "EFF"
	}
	return "OK"
}

func (s *Server) cmdReadMemory(arg string) string {
	addr, length, ok := parseAddrLen(arg, ",")
	if !ok {
		return "EFF"
	}
	data, err := s.mem.ReadMemory(addr, length)
	if err != nil {
		return "EFF"
	}
	return encodeBytes(data)
}

func (s *Server) cmdWriteMemory(arg string) string {
	head, hexData, found := strings.Cut(arg, ":")
	if !found {
		return "EFF"
	}
	addr, length, ok := parseAddrLen(head, ",")
	if !ok {
		return "EFF"
	}
	data, err := decodeBytes(hexData)
	if err != nil || len(data) != length {
		return "EFF"
	}
	if err := s.mem.WriteMemory(addr, data); err != nil {
		return "EFF"
	}
	return "OK"
}

func (s *Server) cmdContinue(arg string) {
	s.applyOptionalJump(arg)
	s.resume(false)
}

func (s *Server) cmdStep(arg string) {
	s.applyOptionalJump(arg)
	s.resume(true)
}

func (s *Server) applyOptionalJump(arg string) {
	if arg == "" {
		return
	}
	addr, err := strconv.ParseUint(arg, 16, 64)
	if err != nil {
		return
	}
	s.jumpAddr.Store(addr)
	s.pendingJump.Store(1)
}

func (s *Server) cmdSetBreak(arg string) string {
	return s.setOrClearBreak(arg, true)
}

func (s *Server) cmdClearBreak(arg string) string {
	return s.setOrClearBreak(arg, false)
}

func (s *Server) setOrClearBreak(arg string, set bool) string {
	if len(arg) < 2 {
		return "E00"
	}
	kind := arg[0]
	if kind < '0' || kind > '4' {
		return "E00"
	}
	rest := strings.TrimPrefix(arg[1:], ",")
	addrStr, _, _ := strings.Cut(rest, ",")
	addr, err := strconv.ParseUint(addrStr, 16, 64)
	if err != nil {
		return "E00"
	}
	switch kind {
	case '0', '1':
		// Instruction breakpoints index by PC right-shifted MinPCAlign,
		// compacting the map for 2-byte-aligned compressed code. Type 0
		// (software/memory) and type 1 (hardware) keep distinct flag bits.
		flags := uint32(0)
		if set {
			flags = breakpoint.BreakMem
			if kind == '1' {
				flags = breakpoint.BreakHW
			}
		}
		s.breakpoints.Set(addr>>s.cfg.MinPCAlign, flags)
	default:
		// Watchpoints index by the raw data address: the alignment shift
		// only applies to the instruction-PC map.
		flags := uint32(0)
		if set {
			switch kind {
			case '2':
				flags = breakpoint.WatchWrite
			case '3':
				flags = breakpoint.WatchRead
			case '4':
				flags = breakpoint.WatchRead | breakpoint.WatchWrite
			}
		}
		s.watchpoints.Set(addr, flags)
	}
	return "OK"
}

func (s *Server) cmdXferTargetXML(pkt string) string {
	rest := strings.TrimPrefix(pkt, "qXfer:features:read:target.xml:")
	offStr, lenStr, ok := strings.Cut(rest, ",")
	if !ok {
		return ""
	}
	off, err1 := strconv.ParseInt(offStr, 16, 64)
	length, err2 := strconv.ParseInt(lenStr, 16, 64)
	if err1 != nil || err2 != nil {
		return ""
	}
	return xferWindow(targetXML, int(off), int(length))
}

func parseAddrLen(s, sep string) (addr uint64, length int, ok bool) {
	a, l, found := strings.Cut(s, sep)
	if !found {
		return 0, 0, false
	}
	av, err := strconv.ParseUint(a, 16, 64)
	if err != nil {
		return 0, 0, false
	}
	lv, err := strconv.ParseInt(l, 16, 32)
	if err != nil {
		return 0, 0, false
	}
	return av, int(lv), true
}
