//go:build !windows

package dl

// Ext is the platform extension of loadable libraries.
const Ext = ".so"

// OrdinalExports reports whether the platform resolves `name@ordinal`
// identifiers by ordinal.
const OrdinalExports = false
