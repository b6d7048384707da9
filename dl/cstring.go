package dl

import "unsafe"

// GoString copies the NUL-terminated C string at p.
func GoString(p uintptr) string {
	if p == 0 {
		return ""
	}
	n := 0
	for *(*byte)(unsafe.Pointer(p + uintptr(n))) != 0 {
		n++
	}
	return string(unsafe.Slice((*byte)(unsafe.Pointer(p)), n))
}

// CArgs is a NUL-terminated argv array owned by Go. Keep it reachable until
// the native call returns.
type CArgs struct {
	ptrs []*byte
	bufs [][]byte
}

// NewCArgs builds argv from args.
func NewCArgs(args []string) *CArgs {
	c := &CArgs{ptrs: make([]*byte, len(args)+1), bufs: make([][]byte, len(args))}
	for i, a := range args {
		b := make([]byte, len(a)+1)
		copy(b, a)
		c.bufs[i] = b
		c.ptrs[i] = &b[0]
	}
	return c
}

// Argc returns the argument count.
func (c *CArgs) Argc() int32 { return int32(len(c.bufs)) }

// Argv returns the address of the first element.
func (c *CArgs) Argv() **byte { return &c.ptrs[0] }
