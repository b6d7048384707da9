// Package abi defines the callback table handed to every module at
// initialization. The table is the entire surface through which module code
// may call back into the host.
//
// A Table is built once with New and never changes afterwards. Its layout is
// append-only: services are never removed or reordered, so modules built
// against an older layout keep working. The table carries no version tag;
// modules communicate their own version through their major and minor
// exports.
//
//	classes := class.NewList()
//	table := abi.New(abi.Services{
//	    Classes: classes,
//	    Modules: registry,
//	    Output:  abi.NewLogOutput(logger),
//	})
//	mod, err := registry.Load(ctx, table, "powerflow", args)
//
// Services the host does not provide are filled with implementations that
// report errors.KindUnsupported, except for memory, locks, globals,
// exceptions, random numbers, time conversion and interpolation, which have
// working defaults.
package abi
