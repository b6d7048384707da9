package abi

import (
	"sync"
	"unsafe"

	"github.com/wippyai/simhost/errors"
)

// Allocator hands out memory to module code. Modules may call it from any
// thread, so every operation takes the allocator's lock. Blocks stay
// referenced until freed.
type Allocator struct {
	blocks map[uintptr][]byte
	limit  int
	inUse  int
	mu     sync.Mutex
}

// NewAllocator returns an allocator capped at limit bytes; 0 means unlimited.
func NewAllocator(limit int) *Allocator {
	return &Allocator{blocks: make(map[uintptr][]byte), limit: limit}
}

// Alloc returns a zeroed block of n bytes.
func (a *Allocator) Alloc(n int) ([]byte, error) {
	if n <= 0 {
		return nil, errors.InvalidInput(errors.PhaseRuntime, "allocation size must be positive")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.limit > 0 && a.inUse+n > a.limit {
		return nil, errors.OutOfMemory(errors.PhaseRuntime, n, a.limit)
	}
	b := make([]byte, n)
	a.blocks[addrOf(b)] = b
	a.inUse += n
	return b, nil
}

// Free releases a block returned by Alloc. Unknown blocks are ignored.
func (a *Allocator) Free(b []byte) {
	if len(b) == 0 {
		return
	}
	a.FreeAddr(addrOf(b))
}

// FreeAddr releases the block starting at addr and reports whether it was
// allocated here.
func (a *Allocator) FreeAddr(addr uintptr) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	b, ok := a.blocks[addr]
	if !ok {
		return false
	}
	delete(a.blocks, addr)
	a.inUse -= len(b)
	return true
}

// InUse returns the number of bytes currently allocated.
func (a *Allocator) InUse() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.inUse
}

// Blocks returns the number of live blocks.
func (a *Allocator) Blocks() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.blocks)
}

func addrOf(b []byte) uintptr {
	return uintptr(unsafe.Pointer(unsafe.SliceData(b)))
}
