// Package runtime assembles the extensibility runtime of one simulation
// process.
//
// # Quick Start
//
//	ctx := context.Background()
//	rt, err := runtime.New(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer rt.Close()
//
//	// Claim a processor slot
//	_ = rt.Start(ctx)
//
//	// Load a module and its classes
//	mod, err := rt.Load(ctx, "powerflow", os.Args[1:])
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Report progress from the simulation loop
//	rt.Update(clock, sched.Running)
//
// # Module Kinds
//
// Modules are found along the configured search path and opened with the
// platform loader. Names of the form parent::child load foreign modules,
// either through the parent's subload entry point or a built-in bridge such
// as wasm::<name>.
//
// Go modules are registered in-process and load like any other:
//
//	rt.RegisterModule("recorder", &Recorder{})
//
// Exported methods become entry points under snake_case names, so Init is
// the init handshake and CreateRecorder the create intrinsic of class
// recorder. Implement ExplicitRegistrar to name exports directly.
//
// # Other Services
//
// LoadFunctions and Resolve manage the external function registry, Compile
// builds C source into a module and loads it, and Start, Update and Close
// drive the process table.
package runtime
