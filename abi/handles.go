package abi

import "sync"

// Handles maps host values to small opaque integers that native code can hold.
// Zero is never a valid handle.
type Handles struct {
	byID  map[uintptr]any
	byVal map[any]uintptr
	next  uintptr
	mu    sync.Mutex
}

func NewHandles() *Handles {
	return &Handles{byID: make(map[uintptr]any), byVal: make(map[any]uintptr)}
}

// Put returns the handle for v, allocating one on first use. v must be
// comparable.
func (h *Handles) Put(v any) uintptr {
	if v == nil {
		return 0
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if id, ok := h.byVal[v]; ok {
		return id
	}
	h.next++
	h.byID[h.next] = v
	h.byVal[v] = h.next
	return h.next
}

// Get returns the value behind a handle.
func (h *Handles) Get(id uintptr) (any, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	v, ok := h.byID[id]
	return v, ok
}
