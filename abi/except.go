package abi

import "fmt"

// Exception is raised by Throw and recovered by Try.
type Exception struct {
	Msg string
}

func (e *Exception) Error() string { return e.Msg }

// Exceptions propagates errors out of module code that cannot return them.
type Exceptions struct{}

// Throw unwinds to the nearest Try.
func (*Exceptions) Throw(format string, args ...any) {
	panic(&Exception{Msg: fmt.Sprintf(format, args...)})
}

// Try runs fn and returns the exception it threw, if any. Other panics
// propagate.
func (*Exceptions) Try(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			e, ok := r.(*Exception)
			if !ok {
				panic(r)
			}
			err = e
		}
	}()
	fn()
	return nil
}
