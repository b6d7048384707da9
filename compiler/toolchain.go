package compiler

import (
	"runtime"
	"strconv"

	"github.com/xyproto/env/v2"
)

// Toolchain names the compiler and the flags used to build a module.
type Toolchain struct {
	CC      string `yaml:"cc"`
	CCFlags string `yaml:"ccflags"`
	LDFlags string `yaml:"ldflags"`
	// Relabel marks built libraries textrel_shlib_t for SELinux.
	Relabel bool `yaml:"relabel"`
}

// DefaultToolchain returns the built-in toolchain for the host platform.
func DefaultToolchain() Toolchain {
	switch runtime.GOOS {
	case "windows":
		return Toolchain{CC: "c:/mingw/bin/gcc", CCFlags: "-DWIN32"}
	case "darwin":
		return Toolchain{CC: "/usr/bin/gcc", CCFlags: "-DMACOSX", LDFlags: "-dylib"}
	default:
		return Toolchain{CC: "/usr/bin/gcc", CCFlags: "-DLINUX", LDFlags: "--export-dynamic"}
	}
}

// ApplyEnv overrides t from the CC, CCFLAGS and LDFLAGS environment
// variables. SIMHOST_RELABEL enables relabeling. The environment is reread
// on every call.
func (t Toolchain) ApplyEnv() Toolchain {
	env.Load()
	t.CC = env.Str("CC", t.CC)
	t.CCFlags = env.Str("CCFLAGS", t.CCFlags)
	t.LDFlags = env.Str("LDFLAGS", t.LDFlags)
	if env.Has("SIMHOST_RELABEL") {
		t.Relabel = env.Bool("SIMHOST_RELABEL")
	}
	return t
}

// machineOption is the word-size switch passed to the compiler on Windows.
func machineOption() string {
	if runtime.GOOS != "windows" {
		return ""
	}
	return "-m" + strconv.Itoa(strconv.IntSize)
}
