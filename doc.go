// Package simhost is the extensibility runtime of a simulation host.
//
// A simulation process extends itself at run time with modules: native
// shared libraries or WebAssembly binaries that export a fixed set of entry
// points and call back into the host through a versioned table of services.
// Processes on one machine share a memory-mapped process map through which
// an operator can list, monitor and stop them.
//
// # Architecture Overview
//
// The repository is organized into packages with distinct responsibilities:
//
//	simhost/
//	├── errors/      Structured error types (phase, kind, subject, cause)
//	├── dl/          Library location, loading and symbol binding (purego, wazero)
//	├── class/       Class registry shared between the host and modules
//	├── abi/         Callback table handed to modules and its services
//	├── module/      Module registry, loader, lifecycle and intrinsics
//	├── extern/      Registry of external functions from foreign libraries
//	├── compiler/    On-the-fly compilation of module sources
//	├── sched/       Cross-process scheduler over a shared process map
//	├── console/     Operator console over the scheduler
//	├── config/      YAML configuration with environment overrides
//	├── runtime/     Assembly of the above for one process
//	└── cmd/simhost/ Command line front end
//
// # Quick Start
//
//	rt, err := runtime.New(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer rt.Close()
//
//	if err := rt.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	mod, err := rt.Load(ctx, "powerflow", nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	major, minor := mod.Version()
//	fmt.Printf("%s %d.%d\n", mod.Name(), major, minor)
//
// # Thread Safety
//
// The module and extern registries are safe for concurrent use. Loads and
// termination are serialized by the registry, so a module's init and term
// entries never run concurrently with another load.
//
// The process map is guarded by per-slot spin locks in shared memory. A lock
// whose holder has died is reclaimed after a bounded number of spins.
package simhost
