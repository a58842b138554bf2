// Command rvcsim is the RVC instruction-set simulator and GDB
// remote-debug stub: run, decode, asm, and interp subcommands over one
// shared decoder/emitter stack.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"rvcsim/internal/config"
	"rvcsim/internal/obs"
)

var (
	v         = viper.New()
	cfgFile   string
	traceFlag bool
	jsonLogs  bool
)

var rootCmd = &cobra.Command{
	Use:   "rvcsim",
	Short: "RVC instruction-set simulator with a GDB remote-debug stub",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cfgFile != "" {
			v.SetConfigFile(cfgFile)
		} else {
			v.SetConfigName("rvcsim")
			v.AddConfigPath(".")
		}
		level := logrus.InfoLevel
		if traceFlag {
			level = logrus.DebugLevel
		}
		obs.SetLevel(level)
		obs.SetJSON(jsonLogs)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to rvcsim.yaml/rvcsim.toml")
	rootCmd.PersistentFlags().BoolVar(&traceFlag, "trace", false, "enable per-instruction debug tracing")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "emit structured logs as JSON")
	if err := config.BindFlags(rootCmd.PersistentFlags(), v); err != nil {
		fmt.Fprintln(os.Stderr, "rvcsim: bind flags:", err)
		os.Exit(1)
	}
	rootCmd.AddCommand(runCmd, decodeCmd, asmCmd, interpCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
