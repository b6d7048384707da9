package module

import (
	"io"

	"github.com/wippyai/simhost/abi"
	"github.com/wippyai/simhost/class"
	"github.com/wippyai/simhost/dl"
)

// InitFunc is the init entry point of a Go module. It registers the module's
// classes through table.Classes() with mod as owner and returns the first one.
type InitFunc func(table *abi.Table, mod *Module, args []string) (*class.Class, error)

// Entries are the optional module entry points. Unexported ones are nil.
type Entries struct {
	ImportFile func(file string) int
	ExportFile func(file string) int
	SetVar     func(name, value string) int
	GetVar     func(name string) (string, bool)
	Check      func() int
	CmdArgs    func(args []string) int
	KMLDump    func(w io.Writer) int
	// Subload produces the foreign child module called name by registering
	// its classes. It returns false to decline.
	Subload func(name string, args []string) bool
	Test    func(args []string) int
	Term    func()
}

// Module is one bound plugin.
type Module struct {
	lib     dl.Library
	entries Entries
	classes []*class.Class
	name    string
	path    string
	major   int
	minor   int
	termed  bool
}

// Name returns the registered name, "parent::child" for foreign modules.
func (m *Module) Name() string { return m.name }

// Version returns the major and minor exports, 0 when absent.
func (m *Module) Version() (major, minor int) { return m.major, m.minor }

// Path returns the file the library was loaded from.
func (m *Module) Path() string { return m.path }

// Library returns the library handle. Foreign children share their parent's.
func (m *Module) Library() dl.Library { return m.lib }

// Entries returns the optional entry points.
func (m *Module) Entries() Entries { return m.entries }

// Class returns the head of the module's class list, or nil.
func (m *Module) Class() *class.Class {
	if len(m.classes) == 0 {
		return nil
	}
	return m.classes[0]
}

// Classes returns the module's classes in registration order.
func (m *Module) Classes() []*class.Class {
	return append([]*class.Class(nil), m.classes...)
}

// Lookup resolves any other export of the module's library.
func (m *Module) Lookup(name string) (dl.Symbol, error) {
	return m.lib.Lookup(name)
}
