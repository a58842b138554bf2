package rvc

import (
	"fmt"
	"math/bits"

	"rvcsim/internal/cpu"
)

// Def is an instruction definition: the (pattern, mask) pair used to
// recognize a word, the word width it applies to, and the emit/disasm
// functions invoked once it has matched.
type Def struct {
	Mnemonic string
	Opcode   uint32
	Mask     uint32
	Width    int // in bits; this package only registers width-16 entries

	Emit   func(word uint32, ctx cpu.Context) *CodeSet
	Disasm func(word uint32) string
}

func (d Def) matches(word uint32) bool {
	return word&d.Mask == d.Opcode
}

// Table is an opcode table partitioned by instruction width. Longest-mask
// (greatest Hamming weight) wins when several entries match the same
// word; this is how reserved/illegal overlays shadow the "real"
// instruction they narrow.
type Table struct {
	byWidth map[int][]Def
}

// NewTable builds an empty table.
func NewTable() *Table {
	return &Table{byWidth: make(map[int][]Def)}
}

// Register adds a definition. It is a build-time error (panic) to
// register two definitions of the same width whose masks tie on Hamming
// weight and which both match some common word: a tie would make the
// most-specific-match rule ambiguous, and never happens between real
// encodings.
func (t *Table) Register(d Def) {
	for _, existing := range t.byWidth[d.Width] {
		if bits.OnesCount32(existing.Mask) == bits.OnesCount32(d.Mask) &&
			existing.Opcode&d.Mask == d.Opcode&existing.Mask {
			panic(fmt.Sprintf("rvc: opcode table tie between %q and %q", existing.Mnemonic, d.Mnemonic))
		}
	}
	t.byWidth[d.Width] = append(t.byWidth[d.Width], d)
}

// Lookup finds the most specific definition matching word among entries
// of the given width. It returns nil if nothing matches.
func (t *Table) Lookup(width int, word uint32) *Def {
	var best *Def
	bestWeight := -1
	for i := range t.byWidth[width] {
		d := &t.byWidth[width][i]
		if !d.matches(word) {
			continue
		}
		w := bits.OnesCount32(d.Mask)
		if w > bestWeight {
			best, bestWeight = d, w
		}
	}
	return best
}

// Decode looks up and emits the CodeSet for a 16-bit word, or an error if
// no entry matches at all (which should not happen for the table
// BuildTable constructs, since its per-quadrant reserved catch-alls make
// the lookup total, but is kept as a defensive return for custom tables).
func (t *Table) Decode(word uint32, ctx cpu.Context) (*Def, *CodeSet, error) {
	def := t.Lookup(16, word)
	if def == nil {
		return nil, nil, fmt.Errorf("rvc: no opcode table entry matches word %#04x", word)
	}
	return def, def.Emit(word, ctx), nil
}
