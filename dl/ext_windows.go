//go:build windows

package dl

// Ext is the platform extension of loadable libraries.
const Ext = ".dll"

// OrdinalExports reports whether the platform resolves `name@ordinal`
// identifiers by ordinal.
const OrdinalExports = true
