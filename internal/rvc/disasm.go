package rvc

import "fmt"

// Disassemble returns the mnemonic text for a 16-bit word, using the
// table's matcher to find the right definition. It returns a synthetic
// "<unknown ...>" string if nothing matches.
func Disassemble(t *Table, word uint32) string {
	def := t.Lookup(16, word)
	if def == nil {
		return fmt.Sprintf("<unknown instruction: %#04x>", word)
	}
	return def.Disasm(word)
}
