package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"rvcsim/internal/asm"
)

var asmFile string

var asmCmd = &cobra.Command{
	Use:   "asm",
	Short: "assemble a line-oriented source file into an RVC bytecode image",
	Long: "assemble supports literal .word lines and the RVC mnemonics with no " +
		"variable fields (c.nop, c.ebreak); it is not a full RVC assembler.",
	RunE: runAsm,
}

func init() {
	asmCmd.Flags().StringVarP(&asmFile, "file", "f", "", "source file to assemble")
	_ = asmCmd.MarkFlagRequired("file")
}

func runAsm(cmd *cobra.Command, args []string) error {
	fp, err := os.Open(asmFile)
	if err != nil {
		return err
	}
	defer fp.Close()

	for line := range asm.StartAssembler(fp) {
		out, err := line.Encode()
		if err != nil {
			return fmt.Errorf("asm: line %d: %w", line.Lineno, err)
		}
		fmt.Print(out)
	}
	return nil
}
