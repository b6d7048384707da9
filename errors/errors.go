package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseLoad     Phase = "load"     // library location and loading
	PhaseResolve  Phase = "resolve"  // name and foreign-module resolution
	PhaseBind     Phase = "bind"     // entry point and intrinsic binding
	PhaseInit     Phase = "init"     // module initialization handshake
	PhaseRegister Phase = "register" // registry bookkeeping
	PhaseExtern   Phase = "extern"   // external function registry
	PhaseCompile  Phase = "compile"  // on-the-fly native compilation
	PhaseSched    Phase = "sched"    // cross-process scheduler
	PhaseConsole  Phase = "console"  // operator console
	PhaseConfig   Phase = "config"   // configuration loading
	PhaseRuntime  Phase = "runtime"  // callback table services
)

// Kind categorizes the error
type Kind string

const (
	KindNotFound            Kind = "not_found"
	KindAbiMissing          Kind = "abi_missing"
	KindInitFailed          Kind = "init_failed"
	KindOutOfMemory         Kind = "out_of_memory"
	KindToolchainFailure    Kind = "toolchain_failure"
	KindResourceUnavailable Kind = "resource_unavailable"
	KindInvalidInput        Kind = "invalid_input"
	KindUnsupported         Kind = "unsupported"
	KindDuplicate           Kind = "duplicate"
	KindTypeMismatch        Kind = "type_mismatch"
)

// Error is the structured error type used throughout simhost
type Error struct {
	Value   any
	Cause   error
	Phase   Phase
	Kind    Kind
	Subject string
	Detail  string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Subject != "" {
		b.WriteString(" '")
		b.WriteString(e.Subject)
		b.WriteByte('\'')
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// KindOf returns the Kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err's chain contains an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	for err != nil {
		var e *Error
		if !stderrors.As(err, &e) {
			return false
		}
		if e.Kind == kind {
			return true
		}
		err = e.Cause
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Subject sets the name of the module, library or symbol involved
func (b *Builder) Subject(name string) *Builder {
	b.err.Subject = name
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:   phase,
		Kind:    KindNotFound,
		Subject: name,
		Detail:  what + " not found",
	}
}

// AbiMissing creates an error for a required entry point that is not exported
func AbiMissing(phase Phase, module, symbol string) *Error {
	return &Error{
		Phase:   phase,
		Kind:    KindAbiMissing,
		Subject: module,
		Detail:  fmt.Sprintf("required entry point %s() is not exported", symbol),
		Value:   symbol,
	}
}

// InitFailed creates an error for a module whose initialization rejected the call
func InitFailed(module string, cause error) *Error {
	return &Error{
		Phase:   PhaseInit,
		Kind:    KindInitFailed,
		Subject: module,
		Detail:  "module initialization failed",
		Cause:   cause,
	}
}

// OutOfMemory creates an allocation failure error
func OutOfMemory(phase Phase, size, limit int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfMemory,
		Detail: fmt.Sprintf("failed to allocate %d bytes (limit %d)", size, limit),
		Value:  size,
	}
}

// Toolchain creates a toolchain failure carrying the tool's exit status
func Toolchain(tool string, status int, cause error) *Error {
	return &Error{
		Phase:   PhaseCompile,
		Kind:    KindToolchainFailure,
		Subject: tool,
		Detail:  fmt.Sprintf("exit status %d", status),
		Value:   status,
		Cause:   cause,
	}
}

// Unavailable creates a resource-unavailable error
func Unavailable(phase Phase, detail string, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindResourceUnavailable,
		Detail: detail,
		Cause:  cause,
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Duplicate creates an already-registered error
func Duplicate(phase Phase, what, name string) *Error {
	return &Error{
		Phase:   phase,
		Kind:    KindDuplicate,
		Subject: name,
		Detail:  what + " is already defined",
	}
}

// TypeMismatch creates an error for a symbol that cannot be bound to the requested Go type
func TypeMismatch(phase Phase, symbol, have, want string) *Error {
	return &Error{
		Phase:   phase,
		Kind:    KindTypeMismatch,
		Subject: symbol,
		Detail:  fmt.Sprintf("have %s, want %s", have, want),
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// ExitStatus returns the exit status carried by a toolchain failure in err's chain.
// It returns 0 when err is nil and -1 when no status is recorded.
func ExitStatus(err error) int {
	if err == nil {
		return 0
	}
	var e *Error
	if stderrors.As(err, &e) && e.Kind == KindToolchainFailure {
		if status, ok := e.Value.(int); ok {
			return status
		}
	}
	return -1
}
