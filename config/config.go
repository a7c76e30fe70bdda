// Package config holds the JSON configuration of the code generator and the
// sandbox it runs in.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"runtime"
	"slices"
	"strings"

	"github.com/xyproto/env/v2"
	"golang.org/x/sys/cpu"

	"github.com/sarchlab/rvjit/blockcache"
	"github.com/sarchlab/rvjit/ir"
	"github.com/sarchlab/rvjit/jit"
)

// Environment variables read by ApplyEnv.
const (
	EnvDebug   = "RVJIT_DEBUG"
	EnvZbb     = "RVJIT_ZBB"
	EnvPtrMath = "RVJIT_PTRMATH"
	EnvDisable = "RVJIT_DISABLE"
)

// Config holds code generation options and the sandbox memory layout.
type Config struct {
	// Debug makes routing errors panic instead of deferring to the fallback.
	Debug bool `json:"debug"`

	// Zbb enables the bit-manipulation extension (SEXT.B, SEXT.H, REV8).
	Zbb bool `json:"zbb"`

	// AllowPointerMath enables the in-place pointer fast path of AddConst
	// and SubConst.
	AllowPointerMath bool `json:"allow_pointer_math"`

	// Disabled lists op families sent to the fallback. "all" disables every
	// family.
	Disabled []string `json:"disabled"`

	// BlockCache sizes the translation cache.
	BlockCache blockcache.Config `json:"block_cache"`

	// CodeBase is where compiled blocks are loaded in the sandbox.
	// Default: 0x10000.
	CodeBase uint64 `json:"code_base"`

	// ContextBase is the address of the guest context block.
	// Default: 0x2000.
	ContextBase uint64 `json:"context_base"`

	// MemoryBase is the value held in the memory base register.
	// Default: 0x40000000.
	MemoryBase uint64 `json:"memory_base"`

	// MaxInstructions bounds the emulator per block. Zero means no limit.
	// Default: 1000000.
	MaxInstructions uint64 `json:"max_instructions"`
}

// DefaultConfig returns a Config with every family compiled natively and no
// optional extensions.
func DefaultConfig() *Config {
	return &Config{
		BlockCache:      blockcache.DefaultConfig(),
		CodeBase:        0x10000,
		ContextBase:     0x2000,
		MemoryBase:      0x40000000,
		MaxInstructions: 1000000,
	}
}

// LoadConfig loads a Config from a JSON file. Missing fields keep their
// defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// SaveConfig writes the Config to a JSON file.
func (c *Config) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks the family names, the cache geometry and the memory layout.
func (c *Config) Validate() error {
	if _, err := c.Gate(); err != nil {
		return err
	}
	if err := c.BlockCache.Validate(); err != nil {
		return fmt.Errorf("block_cache: %w", err)
	}
	if c.CodeBase%4 != 0 {
		return fmt.Errorf("code_base must be 4-byte aligned")
	}
	if c.ContextBase%8 != 0 {
		return fmt.Errorf("context_base must be 8-byte aligned")
	}
	if c.ContextBase+ir.ContextSize > c.CodeBase {
		return fmt.Errorf("context block must end below code_base")
	}
	return nil
}

// Clone returns a deep copy of the Config.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Disabled = slices.Clone(c.Disabled)
	return &clone
}

// ApplyEnv overrides fields from the environment. Boolean variables follow
// env.Bool; RVJIT_DISABLE is a comma-separated family list appended to
// Disabled. Values come from env/v2's cache, so changes must go through
// env.Set and env.Unset to be seen.
func (c *Config) ApplyEnv() {
	if env.Has(EnvDebug) {
		c.Debug = env.Bool(EnvDebug)
	}
	if env.Has(EnvZbb) {
		c.Zbb = env.Bool(EnvZbb)
	}
	if env.Has(EnvPtrMath) {
		c.AllowPointerMath = env.Bool(EnvPtrMath)
	}
	for _, name := range strings.Split(env.Str(EnvDisable), ",") {
		if name = strings.TrimSpace(name); name != "" {
			c.Disabled = append(c.Disabled, name)
		}
	}
}

// Caps returns the capability flags selected by the Config.
func (c *Config) Caps() jit.Caps {
	return jit.Caps{Zbb: c.Zbb, AllowPointerMath: c.AllowPointerMath}
}

// Gate builds the fallback gate for the Disabled families.
func (c *Config) Gate() (*jit.Gate, error) {
	return jit.ParseGate(strings.Join(c.Disabled, ","))
}

// CompilerOptions returns the compiler options selected by the Config.
func (c *Config) CompilerOptions() ([]jit.CompilerOption, error) {
	gate, err := c.Gate()
	if err != nil {
		return nil, err
	}
	return []jit.CompilerOption{jit.WithDebug(c.Debug), jit.WithGate(gate)}, nil
}

// DetectCaps reports the extensions of the host CPU. Off riscv64 hosts
// nothing is detected.
func DetectCaps() jit.Caps {
	if runtime.GOARCH != "riscv64" {
		return jit.Caps{}
	}
	return jit.Caps{Zbb: cpu.RISCV64.HasZbb}
}
