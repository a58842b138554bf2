package asm

import (
	"strings"
	"testing"
)

func TestAssembleLiteralWord(t *testing.T) {
	ch := StartAssembler(strings.NewReader(".word 0x4501 # c.li x10, 0\n"))
	line := <-ch
	if line.Error != nil {
		t.Fatalf("unexpected error: %v", line.Error)
	}
	if line.Word != 0x4501 {
		t.Fatalf("got %#04x", line.Word)
	}
}

func TestAssembleFixedMnemonic(t *testing.T) {
	ch := StartAssembler(strings.NewReader("c.ebreak\n"))
	line := <-ch
	if line.Error != nil {
		t.Fatalf("unexpected error: %v", line.Error)
	}
	if line.Word != 0x9002 {
		t.Fatalf("got %#04x", line.Word)
	}
}

func TestAssembleUnsupportedMnemonicErrors(t *testing.T) {
	ch := StartAssembler(strings.NewReader("c.addi x1, x1, 4\n"))
	line := <-ch
	if line.Error == nil {
		t.Fatal("expected an error for an operand-bearing mnemonic")
	}
}

func TestAssembleSkipsBlankAndCommentLines(t *testing.T) {
	ch := StartAssembler(strings.NewReader("\n# just a comment\n.word 0x0001\n"))
	var lines []LineOrError
	for l := range ch {
		lines = append(lines, l)
	}
	if len(lines) != 1 {
		t.Fatalf("expected exactly one assembled line, got %d", len(lines))
	}
}
