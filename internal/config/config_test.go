package config

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func newTestViper(t *testing.T) (*viper.Viper, *pflag.FlagSet) {
	v := viper.New()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	if err := BindFlags(fs, v); err != nil {
		t.Fatalf("BindFlags: %v", err)
	}
	return v, fs
}

func TestLoadDefaults(t *testing.T) {
	v, _ := newTestViper(t)
	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.GDBServerPort != 2222 || cfg.GDBServerTransport != "tcp" ||
		cfg.GDBServerSkipCount != 64 || cfg.GDBServerMinPCAlign != 1 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestFlagOverridesDefault(t *testing.T) {
	v, fs := newTestViper(t)
	if err := fs.Parse([]string{"--gdb-port=9999"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.GDBServerPort != 9999 {
		t.Fatalf("got port %d want 9999", cfg.GDBServerPort)
	}
}

func TestEnvOverridesDefaultButNotFlag(t *testing.T) {
	t.Setenv("RVCSIM_PLUGIN_GDBSERVER_PORT", "1234")
	v, _ := newTestViper(t)
	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.GDBServerPort != 1234 {
		t.Fatalf("got port %d want 1234 from env", cfg.GDBServerPort)
	}

	v2, fs := newTestViper(t)
	if err := fs.Parse([]string{"--gdb-port=9999"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	cfg, err = Load(v2)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.GDBServerPort != 9999 {
		t.Fatalf("got port %d want 9999: an explicit flag must win over env", cfg.GDBServerPort)
	}
}

func TestInvalidTransportRejected(t *testing.T) {
	v, fs := newTestViper(t)
	if err := fs.Parse([]string{"--gdb-transport=carrier-pigeon"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, err := Load(v); err == nil {
		t.Fatal("expected validation error for unsupported transport")
	}
}

func TestInvalidSkipCountRejected(t *testing.T) {
	v, fs := newTestViper(t)
	if err := fs.Parse([]string{"--gdb-skipcount=0"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, err := Load(v); err == nil {
		t.Fatal("expected validation error for non-positive skipcount")
	}
}
