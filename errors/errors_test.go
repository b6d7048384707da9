package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:   PhaseBind,
				Kind:    KindAbiMissing,
				Subject: "powerflow",
				Detail:  "intrinsic create_node is not defined",
			},
			contains: []string{"[bind]", "abi_missing", "'powerflow'", "create_node"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseSched,
				Kind:  KindResourceUnavailable,
			},
			contains: []string{"[sched]", "resource_unavailable"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseLoad,
				Kind:   KindNotFound,
				Detail: "library not found",
				Cause:  errors.New("dlopen failed"),
			},
			contains: []string{"[load]", "not_found", "library not found", "caused by", "dlopen failed"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{
		Phase: PhaseInit,
		Kind:  KindInitFailed,
		Cause: cause,
	}

	if !errors.Is(err.Unwrap(), cause) {
		t.Error("Unwrap did not return cause")
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is did not find cause")
	}
}

func TestError_Is(t *testing.T) {
	err := NotFound(PhaseLoad, "module", "powerflow")

	if !errors.Is(err, &Error{Phase: PhaseLoad, Kind: KindNotFound}) {
		t.Error("expected match on phase and kind")
	}
	if errors.Is(err, &Error{Phase: PhaseExtern, Kind: KindNotFound}) {
		t.Error("phase mismatch should not match")
	}
	if errors.Is(err, &Error{Phase: PhaseLoad, Kind: KindAbiMissing}) {
		t.Error("kind mismatch should not match")
	}
}

func TestIsKind(t *testing.T) {
	inner := AbiMissing(PhaseBind, "tape", "create_player")
	outer := Wrap(PhaseLoad, KindInitFailed, inner, "load tape")
	wrapped := fmt.Errorf("loading: %w", outer)

	if !IsKind(wrapped, KindInitFailed) {
		t.Error("expected outer kind")
	}
	if !IsKind(wrapped, KindAbiMissing) {
		t.Error("expected inner kind through cause chain")
	}
	if IsKind(wrapped, KindOutOfMemory) {
		t.Error("unexpected kind")
	}
	if IsKind(errors.New("plain"), KindNotFound) {
		t.Error("plain error has no kind")
	}
	if got := KindOf(wrapped); got != KindInitFailed {
		t.Errorf("KindOf = %q, want %q", got, KindInitFailed)
	}
}

func TestBuilder(t *testing.T) {
	err := New(PhaseCompile, KindToolchainFailure).
		Subject("gcc").
		Detail("exit status %d", 2).
		Value(2).
		Build()

	if err.Subject != "gcc" {
		t.Errorf("Subject = %q", err.Subject)
	}
	if err.Detail != "exit status 2" {
		t.Errorf("Detail = %q", err.Detail)
	}
	if ExitStatus(err) != 2 {
		t.Errorf("ExitStatus = %d, want 2", ExitStatus(err))
	}
}

func TestExitStatus(t *testing.T) {
	if got := ExitStatus(nil); got != 0 {
		t.Errorf("ExitStatus(nil) = %d", got)
	}
	if got := ExitStatus(errors.New("x")); got != -1 {
		t.Errorf("ExitStatus(plain) = %d", got)
	}
	err := fmt.Errorf("build: %w", Toolchain("cc", 1, nil))
	if got := ExitStatus(err); got != 1 {
		t.Errorf("ExitStatus(toolchain) = %d", got)
	}
}
