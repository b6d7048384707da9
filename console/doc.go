// Package console is the operator console for the process table: a
// read-eval loop over list, clear, kill, quit, exit and help.
//
// An interrupt delivered to the console does not end it. The pending line is
// dropped and the prompt comes back, so the loop only ends through quit or
// exit, which Run reports as an *Exit.
package console
