package dl

import (
	"path/filepath"
	"strings"
)

// Symbol is a resolved export: an Addr for native libraries, a Go value for
// static ones.
type Symbol any

// Addr is the address of a native function or variable.
type Addr uintptr

// Library is an opened shared library.
type Library interface {
	// Path returns the path the library was opened with.
	Path() string
	// Lookup resolves an exported symbol by name.
	Lookup(name string) (Symbol, error)
	// Close releases the library handle.
	Close() error
}

// OrdinalLookuper is implemented by libraries whose platform exports symbols
// by ordinal.
type OrdinalLookuper interface {
	LookupOrdinal(ordinal uint16) (Symbol, error)
}

// Loader opens libraries by path.
type Loader interface {
	Open(path string) (Library, error)
}

// FileName maps a logical library name to its platform file name.
func FileName(name string) string {
	return name + Ext
}

// Normalize converts path delimiters to the host convention.
func Normalize(path string) string {
	if filepath.Separator == '/' {
		return strings.ReplaceAll(path, `\`, "/")
	}
	return strings.ReplaceAll(path, "/", string(filepath.Separator))
}

// baseName strips directories and the platform extension from path.
func baseName(path string) string {
	return strings.TrimSuffix(filepath.Base(Normalize(path)), Ext)
}
