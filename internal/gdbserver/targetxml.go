package gdbserver

import "strings"

// gprNames is the GPR ABI naming order: x0..x31.
var gprNames = [32]string{
	"zero", "ra", "sp", "gp", "tp", "t0", "t1", "t2",
	"fp", "s1", "a0", "a1", "a2", "a3", "a4", "a5",
	"a6", "a7", "s2", "s3", "s4", "s5", "s6", "s7",
	"s8", "s9", "s10", "s11", "t3", "t4", "t5", "t6",
}

var describedCSRs = [...]string{"mstatus", "mcause"}

var describedVectorRegs = [...]string{"v0", "v1", "v2", "v3"}

// targetXML is built once, at package initialization, and reused for every qXfer request: the
// document never changes within a process.
var targetXML = buildTargetXML()

func buildTargetXML() string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0"?>` + "\n")
	b.WriteString(`<!DOCTYPE target SYSTEM "gdb-target.dtd">` + "\n")
	b.WriteString(`<target version="1.0">` + "\n")
	b.WriteString(`<feature name="org.gnu.gdb.riscv.cpu">` + "\n")
	for i, name := range gprNames {
		b.WriteString(regTag(name, i, 64, "int", "general"))
	}
	b.WriteString(regTag("pc", PCIndex, 64, "code_ptr", "general"))
	b.WriteString(`</feature>` + "\n")

	b.WriteString(`<feature name="org.gnu.gdb.riscv.fpu">` + "\n")
	b.WriteString(`<union id="riscv_double">` + "\n")
	b.WriteString(`<field name="float" type="ieee_single"/>` + "\n")
	b.WriteString(`<field name="double" type="ieee_double"/>` + "\n")
	b.WriteString(`</union>` + "\n")
	for i := 0; i < 32; i++ {
		b.WriteString(regTag("f"+itoa(i), PCIndex+1+i, 64, "riscv_double", "float"))
	}
	b.WriteString(`</feature>` + "\n")

	b.WriteString(`<feature name="org.gnu.gdb.riscv.csr">` + "\n")
	for i, name := range describedCSRs {
		b.WriteString(regTag(name, PCIndex+1+32+i, 64, "int", "csr"))
	}
	b.WriteString(`</feature>` + "\n")

	b.WriteString(`<feature name="org.gnu.gdb.riscv.vector">` + "\n")
	for i, name := range describedVectorRegs {
		b.WriteString(regTag(name, PCIndex+1+32+len(describedCSRs)+i, 128, "int128", "vector"))
	}
	b.WriteString(`</feature>` + "\n")
	b.WriteString(`</target>` + "\n")
	return b.String()
}

func regTag(name string, regnum, bitsize int, typ, group string) string {
	return `<reg name="` + name + `" bitsize="` + itoa(bitsize) + `" regnum="` + itoa(regnum) +
		`" save-restore="yes" type="` + typ + `" group="` + group + `"/>` + "\n"
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var digits [20]byte
	i := len(digits)
	for n > 0 {
		i--
		digits[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		digits[i] = '-'
	}
	return string(digits[i:])
}

// xferWindow serves a `m`/`l`-windowed slice of doc for a qXfer read,
// clamping a requested range that runs past the document's end to the
// remaining tail (answered with "l"), and answering an offset at or
// beyond the document's end with an empty final "l" chunk rather than an
// error.
func xferWindow(doc string, offset, length int) string {
	if offset < 0 || offset >= len(doc) {
		return "l"
	}
	end := offset + length
	if end >= len(doc) {
		return "l" + doc[offset:]
	}
	return "m" + doc[offset:end]
}
