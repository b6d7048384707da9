// Command simhost loads simulation modules, builds modules from C source and
// operates the host-wide process table.
package main

import (
	"fmt"
	"os"
)

func main() {
	err := newRootCommand().Execute()
	code := exitCode(err)
	if err != nil && !silent(err) {
		fmt.Fprintf(os.Stderr, "simhost: %v\n", err)
	}
	os.Exit(code)
}
