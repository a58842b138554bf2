package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"rvcsim/internal/cpu"
	"rvcsim/internal/rvc"
)

var decodeCmd = &cobra.Command{
	Use:   "decode <hex16...>",
	Short: "decode and disassemble one or more 16-bit RVC half-words",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runDecode,
}

func runDecode(cmd *cobra.Command, args []string) error {
	table := rvc.BuildTable()
	for _, arg := range args {
		word, err := strconv.ParseUint(arg, 0, 16)
		if err != nil {
			return fmt.Errorf("decode: %q: %w", arg, err)
		}
		def, cs, err := table.Decode(uint32(word), cpu.Context{})
		if err != nil {
			fmt.Printf("%#06x  <decode error: %v>\n", word, err)
			continue
		}
		fmt.Printf("%#06x  %-24s reads=%v writes=%v\n%s", word, def.Disasm(uint32(word)), cs.Reads().Registers(), cs.Writes().Registers(), cs.Render())
	}
	return nil
}
