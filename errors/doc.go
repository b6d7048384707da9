// Package errors provides structured error types for the simhost runtime.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries the subject (module, library or symbol name), a detail
// message and the cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseBind, errors.KindAbiMissing).
//		Subject("powerflow").
//		Detail("intrinsic %s is not defined", "create_node").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.NotFound(errors.PhaseLoad, "module", "powerflow")
//	err := errors.Toolchain("cc", 1, cause)
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
