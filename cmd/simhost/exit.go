package main

import (
	stderrors "errors"

	"github.com/wippyai/simhost/console"
	"github.com/wippyai/simhost/errors"
)

// exitCode maps a command error to the process exit status. Toolchain
// failures keep the tool's status; console exits keep the requested code.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exit *console.Exit
	if stderrors.As(err, &exit) {
		return exit.Code
	}
	if status := errors.ExitStatus(err); status > 0 {
		return status
	}
	return 1
}

// silent reports errors that end the process without a diagnostic.
func silent(err error) bool {
	var exit *console.Exit
	return stderrors.As(err, &exit)
}
