package module

import (
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/wippyai/simhost/abi"
	"github.com/wippyai/simhost/errors"
)

// TermAll calls every module's term entry point in load order. Each module is
// terminated at most once.
func (r *Registry) TermAll() {
	r.loadMu.Lock()
	defer r.loadMu.Unlock()
	for _, m := range r.Modules() {
		if m.entries.Term == nil || m.termed {
			continue
		}
		m.termed = true
		r.log.Debug("terminating module", zap.String("module", m.name))
		m.entries.Term()
	}
}

// CheckAll runs every module's self-check and returns the sum of the
// reported problem counts.
func (r *Registry) CheckAll() int {
	count := 0
	for _, m := range r.Modules() {
		if m.entries.Check != nil {
			count += m.entries.Check()
		}
	}
	return count
}

// CmdArgs hands args to the first module that accepts command-line
// arguments and returns its result.
func (r *Registry) CmdArgs(args []string) (int, error) {
	for _, m := range r.Modules() {
		if m.entries.CmdArgs != nil {
			return m.entries.CmdArgs(args), nil
		}
	}
	return 0, errors.NotFound(errors.PhaseRuntime, "cmdargs entry point", "any module")
}

// Import has m read file.
func (r *Registry) Import(m *Module, file string) (int, error) {
	if m.entries.ImportFile == nil {
		return 0, errors.NotFound(errors.PhaseRuntime, "import_file entry point", m.name)
	}
	return m.entries.ImportFile(file), nil
}

// Export has m write file. An empty file selects the module's default.
func (r *Registry) Export(m *Module, file string) (int, error) {
	if m.entries.ExportFile == nil {
		return 0, errors.NotFound(errors.PhaseRuntime, "export_file entry point", m.name)
	}
	return m.entries.ExportFile(file), nil
}

// DumpAll exports every module that can, to its default file.
func (r *Registry) DumpAll() int {
	count := 0
	for _, m := range r.Modules() {
		if m.entries.ExportFile != nil {
			count += m.entries.ExportFile("")
		}
	}
	return count
}

// VarName returns the global name of a module variable.
func VarName(m *Module, name string) string {
	return m.name + "::" + name
}

// SetVar assigns the module variable name.
func (m *Module) SetVar(g abi.Globals, name, value string) error {
	return g.Set(VarName(m, name), value)
}

// GetVar reads the module variable name.
func (m *Module) GetVar(g abi.Globals, name string) (string, bool) {
	return g.Get(VarName(m, name))
}

// Vars returns the module's variable names, without the module prefix, in
// creation order.
func (m *Module) Vars(g abi.Globals) []string {
	prefix := m.name + "::"
	var out []string
	for _, n := range g.Names() {
		if v, ok := strings.CutPrefix(n, prefix); ok {
			out = append(out, v)
		}
	}
	return out
}

// SaveAll writes the module section of a model file: one block per module
// in load order with its version, classes and variables. It returns the
// number of bytes written.
func (r *Registry) SaveAll(w io.Writer, g abi.Globals) (int, error) {
	ew := &errWriter{w: w}
	ew.printf("\n########################################################\n")
	ew.printf("# modules\n")
	for _, m := range r.Modules() {
		ew.printf("module %s {\n", m.name)
		if m.major > 0 || m.minor > 0 {
			ew.printf("\tmajor %d;\n\tminor %d;\n", m.major, m.minor)
		}
		for _, c := range m.classes {
			if c.Owner == m {
				ew.printf("\tclass %s;\n", c.Name)
			}
		}
		for _, v := range m.Vars(g) {
			if value, ok := m.GetVar(g, v); ok {
				ew.printf("\t%s %s;\n", v, value)
			}
		}
		ew.printf("}\n")
	}
	return ew.n, ew.err
}

// LibInfo writes a human-readable summary of m.
func LibInfo(w io.Writer, g abi.Globals, m *Module) error {
	ew := &errWriter{w: w}
	major, minor := m.Version()
	ew.printf("Module name....... %s\n", m.name)
	ew.printf("Major version..... %d\n", major)
	ew.printf("Minor version..... %d\n", minor)

	names := make([]string, 0, len(m.classes))
	for _, c := range m.classes {
		names = append(names, c.Name)
	}
	ew.printf("Classes........... %s\n", strings.Join(names, ", "))

	var impl []string
	e := m.entries
	for _, it := range []struct {
		name string
		set  bool
	}{
		{"cmdargs", e.CmdArgs != nil},
		{"getvar", e.GetVar != nil},
		{"setvar", e.SetVar != nil},
		{"import_file", e.ImportFile != nil},
		{"export_file", e.ExportFile != nil},
		{"check", e.Check != nil},
		{"kmldump", e.KMLDump != nil},
	} {
		if it.set {
			impl = append(impl, it.name)
		}
	}
	ew.printf("Implementations... %s\n", strings.Join(impl, " "))
	ew.printf("Globals........... %s\n", strings.Join(m.Vars(g), " "))
	return ew.err
}

type errWriter struct {
	w   io.Writer
	err error
	n   int
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}
	n, err := fmt.Fprintf(ew.w, format, args...)
	ew.n += n
	ew.err = err
}
