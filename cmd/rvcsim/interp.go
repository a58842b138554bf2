package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"rvcsim/internal/asm"
	"rvcsim/internal/cpu"
	"rvcsim/internal/machine"
	"rvcsim/internal/obs"
	"rvcsim/internal/rvc"
)

var (
	interpFile  string
	interpTTY   bool
	interpStep  bool
	interpTrace bool
)

var interpCmd = &cobra.Command{
	Use:   "interp",
	Short: "assemble and immediately execute an RVC source file",
	RunE:  runInterp,
}

func init() {
	interpCmd.Flags().StringVarP(&interpFile, "file", "f", "", "source file to assemble and run")
	interpCmd.Flags().BoolVar(&interpTTY, "tty", false, "accept one TCP connection and expose it as the memory-mapped console")
	interpCmd.Flags().BoolVar(&interpStep, "step", false, "pause for a newline on stdin before each instruction")
	interpCmd.Flags().BoolVar(&interpTrace, "verbose", false, "log the machine state before each instruction")
	_ = interpCmd.MarkFlagRequired("file")
}

func runInterp(cmd *cobra.Command, args []string) error {
	log := obs.For("interp")

	fp, err := os.Open(interpFile)
	if err != nil {
		return err
	}
	defer fp.Close()

	m := new(machine.Machine)
	var addr uint64
	for line := range asm.StartAssembler(fp) {
		if line.Error != nil {
			return fmt.Errorf("interp: line %d: %w", line.Lineno, line.Error)
		}
		if err := m.WriteMemory(addr, 2, uint64(line.Word)); err != nil {
			return fmt.Errorf("interp: %w", err)
		}
		addr += 2
	}

	var console *machine.SerialConsole
	if interpTTY {
		log.Info("waiting for a console connection")
		console, err = machine.AcceptConsole()
		if err != nil {
			return fmt.Errorf("interp: accept console: %w", err)
		}
		defer console.Close()
		m.AttachConsole(console)
		log.WithField("addr", console.LocalAddr().String()).Info("console attached")
	}

	table := rvc.BuildTable()
	sys := cpu.System(m)
	stdin := bufio.NewReader(os.Stdin)

	var pc uint64
	for {
		if console != nil {
			if err := console.Poll(); err != nil {
				log.WithError(err).Info("console detached")
				console = nil
			}
		}
		word, err := m.ReadMemory(pc, 2)
		if err != nil {
			return fmt.Errorf("interp: fetch at %#x: %w", pc, err)
		}
		ctx := cpu.Context{CurrentAddress: pc}
		def, cs, err := table.Decode(uint32(word), ctx)
		if err != nil {
			return fmt.Errorf("interp: decode at %#x: %w", pc, err)
		}
		if interpTrace || traceFlag {
			log.WithFields(logrus.Fields{"pc": pc, "mnemonic": def.Mnemonic, "state": m.String()}).Info(cs.Render())
		}
		if interpStep {
			log.Info("paused, press enter to continue")
			stdin.ReadString('\n')
		}
		ret := rvc.Exec(cs, &m.Regs, sys, ctx, nil)
		if m.Halted {
			log.Info("halted on breakpoint trap")
			return nil
		}
		if ret != 0 && ret != cpu.CauseNone {
			log.WithField("cause", ret).Warn("instruction trapped")
		}
		pc = m.Regs.InstructionPointer
	}
}
