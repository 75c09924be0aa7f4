// Package config handles pyvm.toml runtime configuration: VM resource
// limits and compiler options, loaded the way chazu-maggie's manifest
// package loads maggie.toml (github.com/BurntSushi/toml, the pack's only
// direct TOML dependency).
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config is the pyvm.toml document. Every field has a hardcoded default
// matching the teacher's own constants, so a missing file (or a missing
// section within one) is not an error.
type Config struct {
	VM       VM       `toml:"vm"`
	Compiler Compiler `toml:"compiler"`
}

// VM holds the VM resource limits. cmd/npython passes MaxFrames (the
// call-depth ceiling behind RecursionError) and GCThreshold to the VM;
// MaxRegisters and GasLimit are loaded but nothing in the VM enforces them.
type VM struct {
	MaxFrames    int `toml:"max_frames"`
	MaxRegisters int `toml:"max_registers"`
	GasLimit     int `toml:"gas_limit"`
	GCThreshold  int `toml:"gc_threshold"`
}

// Compiler holds the compiler options. The bytecode generator does not
// read OptimizeConstants: its constant-folding pass always runs.
type Compiler struct {
	OptimizeConstants bool `toml:"optimize_constants"`
}

// Default mirrors the teacher's hardcoded StackDepth/MaxFrames constants:
// the values an embedding caller gets when no pyvm.toml is present.
func Default() Config {
	return Config{
		VM: VM{
			MaxFrames:    32,
			MaxRegisters: 256,
			GasLimit:     0, // not enforced; see VM
			GCThreshold:  4096,
		},
		Compiler: Compiler{
			OptimizeConstants: true,
		},
	}
}

// Load reads path (typically "pyvm.toml") and overlays it on Default().
// A missing file is not an error: callers that never ship a config file
// get the defaults silently, matching spec.md's silence on configuration
// being an ambient, not a core, concern.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// LoadFromDir looks for pyvm.toml inside dir, matching the teacher's
// convention of a single well-known filename resolved relative to the
// invocation directory rather than an explicit path argument.
func LoadFromDir(dir string) (Config, error) {
	return Load(filepath.Join(dir, "pyvm.toml"))
}
