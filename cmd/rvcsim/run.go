package main

import (
	"fmt"
	"net"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"rvcsim/internal/config"
	"rvcsim/internal/cpu"
	"rvcsim/internal/gdbserver"
	"rvcsim/internal/machine"
	"rvcsim/internal/obs"
	"rvcsim/internal/rsp"
	"rvcsim/internal/rvc"
)

var (
	runFile string
	runGDB  bool
	runTTY  bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "load an RVC bytecode image and execute it",
	RunE:  runRun,
}

func init() {
	runCmd.Flags().StringVarP(&runFile, "file", "f", "", "bytecode image to run")
	runCmd.Flags().BoolVar(&runGDB, "gdb", false, "start a GDB remote-debug server and wait for a debugger")
	runCmd.Flags().BoolVar(&runTTY, "tty", false, "accept one TCP connection and expose it as the memory-mapped console")
	_ = runCmd.MarkFlagRequired("file")
}

func runRun(cmd *cobra.Command, args []string) error {
	log := obs.For("run")

	cfg, err := config.Load(v)
	if err != nil {
		return err
	}

	fp, err := os.Open(runFile)
	if err != nil {
		return err
	}
	defer fp.Close()

	m, err := machine.Load(fp)
	if err != nil {
		return fmt.Errorf("run: load image: %w", err)
	}

	var console *machine.SerialConsole
	if runTTY {
		log.Info("waiting for a console connection")
		console, err = machine.AcceptConsole()
		if err != nil {
			return fmt.Errorf("run: accept console: %w", err)
		}
		defer console.Close()
		m.AttachConsole(console)
		log.WithField("addr", console.LocalAddr().String()).Info("console attached")
	}

	table := rvc.BuildTable()
	var guard cpu.Guard
	var srv *gdbserver.Server
	if runGDB {
		table = rvc.InstrumentWithGuard(table)
		srv = gdbserver.New(
			gdbserver.CoreRegisters{State: &m.Regs},
			machine.DebugView{M: m},
			rsp.LittleEndian,
			gdbserver.Config{
				Port:       cfg.GDBServerPort,
				Transport:  cfg.GDBServerTransport,
				SkipCount:  int32(cfg.GDBServerSkipCount),
				MinPCAlign: uint(cfg.GDBServerMinPCAlign),
			},
			log,
		)
		guard = srv
		addr := fmt.Sprintf(":%d", cfg.GDBServerPort)
		if cfg.GDBServerTransport == "unix" {
			addr = cfg.GDBServerSocket
			os.Remove(addr) // stale socket from a previous run
		}
		ln, err := net.Listen(cfg.GDBServerTransport, addr)
		if err != nil {
			return fmt.Errorf("run: listen: %w", err)
		}
		defer ln.Close()
		log.WithField("addr", ln.Addr().String()).Info("waiting for gdb to attach")
		go func() {
			if err := srv.Serve(ln); err != nil {
				log.WithError(err).Warn("gdb server stopped")
			}
		}()
	}

	sys := cpu.System(m)
	if srv != nil {
		sys = gdbserver.WatchingSystem{Underlying: m, Server: srv}
	}

	pc := uint64(0)
	for {
		if srv != nil {
			if srv.Execute() == gdbserver.Terminated {
				log.Info("terminated by debugger kill request")
				return nil
			}
			if addr, ok := srv.ConsumeJump(); ok {
				pc = addr
			}
		}
		if console != nil {
			if err := console.Poll(); err != nil {
				log.WithError(err).Info("console detached")
				console = nil
			}
		}
		word, err := m.ReadMemory(pc, 2)
		if err != nil {
			return fmt.Errorf("run: fetch at %#x: %w", pc, err)
		}
		ctx := cpu.Context{CurrentAddress: pc}
		def, cs, err := table.Decode(uint32(word), ctx)
		if err != nil {
			return fmt.Errorf("run: decode at %#x: %w", pc, err)
		}
		if traceFlag {
			log.WithFields(logrus.Fields{"pc": pc, "mnemonic": def.Mnemonic}).Debug(cs.Render())
		}
		ret := rvc.Exec(cs, &m.Regs, sys, ctx, guard)
		if ret == gdbserver.Terminated {
			log.Info("terminated by debugger kill request")
			return nil
		}
		if m.Halted {
			if srv == nil {
				log.Info("halted on breakpoint trap")
				return nil
			}
			// With a debugger attached the trap pauses at the next guard
			// call instead of ending the run.
			m.Halted = false
		}
		if ret != 0 && ret != cpu.CauseNone {
			log.WithField("cause", ret).Warn("instruction trapped")
		}
		pc = m.Regs.InstructionPointer
	}
}
