// Package dl is the platform loader shim: it opens shared libraries, resolves
// exported symbols and reports loader errors behind one interface.
//
// Three families of libraries are served:
//
//	NativeLoader  - shared objects opened with dlopen (purego) or LoadLibrary
//	Static        - in-process libraries whose symbols are Go values
//	WasmLoader    - core wasm modules instantiated with wazero
//
// A Chain tries several loaders in order, so a host can ship Go-implemented
// modules next to native ones. Symbols come back as a Symbol, which is either
// an Addr (native code or data address) or a Go value. Bind turns either form
// into a typed Go function.
package dl
