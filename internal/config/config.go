// Package config resolves rvcsim's runtime tunables with Viper: CLI flag
// over environment variable (RVCSIM_ prefix) over config file
// (rvcsim.yaml/rvcsim.toml) over built-in default.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config is the resolved set of tunables the gdbserver.Config and the CLI
// front-end need.
type Config struct {
	GDBServerPort       int
	GDBServerTransport  string
	GDBServerSocket     string
	GDBServerSkipCount  int
	GDBServerMinPCAlign int
}

const (
	keyPort       = "plugin.gdbserver.port"
	keyTransport  = "plugin.gdbserver.transport"
	keySocket     = "plugin.gdbserver.socket"
	keySkipCount  = "plugin.gdbserver.skipcount"
	keyMinPCAlign = "plugin.gdbserver.minPcAlign"
)

// BindFlags registers the flags config.Load reads back, on fs (the
// command's own flag set), so a Cobra command can call this from its
// PersistentFlags without this package importing cobra directly.
func BindFlags(fs *pflag.FlagSet, v *viper.Viper) error {
	fs.Int("gdb-port", 2222, "GDB remote-debug server listen port")
	fs.String("gdb-transport", "tcp", "GDB remote-debug server transport (tcp|unix)")
	fs.String("gdb-socket", "rvcsim-gdb.sock", "socket path for the unix transport")
	fs.Int("gdb-skipcount", 64, "instructions between GDB transport polls while running")
	fs.Int("gdb-min-pc-align", 1, "right-shift applied to addresses before breakpoint-map lookup")

	bindings := map[string]string{
		keyPort:       "gdb-port",
		keyTransport:  "gdb-transport",
		keySocket:     "gdb-socket",
		keySkipCount:  "gdb-skipcount",
		keyMinPCAlign: "gdb-min-pc-align",
	}
	for key, flag := range bindings {
		if err := v.BindPFlag(key, fs.Lookup(flag)); err != nil {
			return fmt.Errorf("config: bind %s: %w", flag, err)
		}
	}
	return nil
}

// Load resolves Config from v, which must already have had BindFlags
// applied and SetConfigFile/AddConfigPath configured by the caller if a
// config file should be consulted.
func Load(v *viper.Viper) (Config, error) {
	v.SetEnvPrefix("RVCSIM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetDefault(keyPort, 2222)
	v.SetDefault(keyTransport, "tcp")
	v.SetDefault(keySocket, "rvcsim-gdb.sock")
	v.SetDefault(keySkipCount, 64)
	v.SetDefault(keyMinPCAlign, 1)

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return Config{}, fmt.Errorf("config: read config file: %w", err)
		}
	}

	cfg := Config{
		GDBServerPort:       v.GetInt(keyPort),
		GDBServerTransport:  v.GetString(keyTransport),
		GDBServerSocket:     v.GetString(keySocket),
		GDBServerSkipCount:  v.GetInt(keySkipCount),
		GDBServerMinPCAlign: v.GetInt(keyMinPCAlign),
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	if c.GDBServerPort < 1 || c.GDBServerPort > 65535 {
		return fmt.Errorf("config: %s out of range: %d", keyPort, c.GDBServerPort)
	}
	if c.GDBServerTransport != "tcp" && c.GDBServerTransport != "unix" {
		return fmt.Errorf("config: %s must be tcp or unix, got %q", keyTransport, c.GDBServerTransport)
	}
	if c.GDBServerTransport == "unix" && c.GDBServerSocket == "" {
		return fmt.Errorf("config: %s required for the unix transport", keySocket)
	}
	if c.GDBServerSkipCount <= 0 {
		return fmt.Errorf("config: %s must be positive, got %d", keySkipCount, c.GDBServerSkipCount)
	}
	if c.GDBServerMinPCAlign < 0 || c.GDBServerMinPCAlign > 3 {
		return fmt.Errorf("config: %s must be in [0,3], got %d", keyMinPCAlign, c.GDBServerMinPCAlign)
	}
	return nil
}
