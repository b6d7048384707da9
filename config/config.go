// Package config loads host settings from a YAML file and the environment.
package config

import (
	"bytes"
	"fmt"
	"os"

	"github.com/xyproto/env/v2"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/simhost/compiler"
	"github.com/wippyai/simhost/dl"
	"github.com/wippyai/simhost/errors"
	"github.com/wippyai/simhost/sched"
)

// Config is the host configuration.
type Config struct {
	// SearchPath lists directories searched for modules and libraries.
	SearchPath []string `yaml:"search_path"`

	// ProcessMap is the shared process table file.
	ProcessMap string `yaml:"process_map"`

	// Toolchain builds modules compiled on the fly.
	Toolchain compiler.Toolchain `yaml:"toolchain"`

	// Slots sizes the process table. Zero means one per logical CPU.
	Slots int `yaml:"slots"`

	// MemoryLimit caps bytes handed out by the module allocator. Zero means
	// unlimited.
	MemoryLimit int `yaml:"memory_limit"`

	// AutoClean frees slots of vanished processes before claiming one.
	AutoClean bool `yaml:"autoclean"`

	// Verbose enables debug logging.
	Verbose bool `yaml:"verbose"`
}

// Default returns the built-in configuration for the host platform.
func Default() Config {
	return Config{
		ProcessMap: sched.DefaultPath(),
		Toolchain:  compiler.DefaultToolchain(),
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
// Unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.New(errors.PhaseConfig, errors.KindNotFound).
			Subject(path).
			Detail("unable to read configuration").
			Cause(err).
			Build()
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return cfg, errors.New(errors.PhaseConfig, errors.KindInvalidInput).
			Subject(path).
			Detail("unable to parse configuration").
			Cause(err).
			Build()
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects negative sizes.
func (c Config) Validate() error {
	if c.Slots < 0 {
		return errors.InvalidInput(errors.PhaseConfig, fmt.Sprintf("slots must not be negative, got %d", c.Slots))
	}
	if c.MemoryLimit < 0 {
		return errors.InvalidInput(errors.PhaseConfig, fmt.Sprintf("memory_limit must not be negative, got %d", c.MemoryLimit))
	}
	return nil
}

// ApplyEnv overlays the environment: SIMHOST_PATH directories are searched
// before the configured ones, SIMHOST_PMAP replaces the process map and
// SIMHOST_AUTOCLEAN the autoclean flag. Toolchain variables are applied by
// compiler.Toolchain.ApplyEnv.
func (c Config) ApplyEnv() Config {
	env.Load()
	if p := dl.ParseSearchPath(env.Str("SIMHOST_PATH")); len(p) > 0 {
		c.SearchPath = append([]string(p), c.SearchPath...)
	}
	c.ProcessMap = env.Str("SIMHOST_PMAP", c.ProcessMap)
	if env.Has("SIMHOST_AUTOCLEAN") {
		c.AutoClean = env.Bool("SIMHOST_AUTOCLEAN")
	}
	c.Toolchain = c.Toolchain.ApplyEnv()
	return c
}

// Search returns the module search path.
func (c Config) Search() dl.SearchPath {
	return dl.SearchPath(c.SearchPath)
}
